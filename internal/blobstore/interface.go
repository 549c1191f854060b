package blobstore

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrNotFound is returned when no blob is stored under a key.
	ErrNotFound = errors.New("blob not found")
	// ErrTooLarge is returned when a payload exceeds the store size limit.
	ErrTooLarge = errors.New("blob exceeds size limit")
	// ErrInvalidKey is returned for keys that are not clean relative paths.
	ErrInvalidKey = errors.New("invalid blob key")
)

// PutResult describes one persisted blob payload.
type PutResult struct {
	Key       string
	SHA256    string
	SizeBytes int64
}

// Store is the path-keyed byte storage behind the /storage endpoints.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader) (PutResult, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
