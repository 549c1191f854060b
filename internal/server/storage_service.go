package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"notesdrive/internal/blobstore"
	"notesdrive/internal/store"
)

// StorageService guards blob access with the path policy and note ownership.
type StorageService struct {
	blobs    blobstore.Store
	notes    store.NoteStore
	policy   *blobstore.Policy
	signer   *blobstore.Signer
	maxBytes int64
}

// NewStorageService creates a storage service. maxBytes <= 0 selects blobstore.DefaultMaxBytes.
func NewStorageService(blobs blobstore.Store, notes store.NoteStore, policy *blobstore.Policy, signer *blobstore.Signer, maxBytes int64) *StorageService {
	if maxBytes <= 0 {
		maxBytes = blobstore.DefaultMaxBytes
	}
	return &StorageService{blobs: blobs, notes: notes, policy: policy, signer: signer, maxBytes: maxBytes}
}

// MaxBytes returns the upload size limit.
func (s *StorageService) MaxBytes() int64 {
	return s.maxBytes
}

// Upload stores r under key on behalf of owner.
func (s *StorageService) Upload(ctx context.Context, owner, key string, r io.Reader) (blobstore.PutResult, error) {
	if err := s.authorize(ctx, owner, key); err != nil {
		return blobstore.PutResult{}, err
	}
	result, err := s.blobs.Put(ctx, key, r)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.Is(err, blobstore.ErrTooLarge) || errors.As(err, &maxBytesErr) {
			return blobstore.PutResult{}, tooLarge(fmt.Errorf("upload exceeds %d bytes", s.maxBytes))
		}
		return blobstore.PutResult{}, blobFailure(err)
	}
	return result, nil
}

// SignURL issues a temporary read URL for key.
func (s *StorageService) SignURL(ctx context.Context, owner, key string) (blobstore.SignedURL, error) {
	if err := s.authorize(ctx, owner, key); err != nil {
		return blobstore.SignedURL{}, err
	}
	return s.signer.Sign(key), nil
}

// Remove deletes the blob under key. Missing blobs are not an error.
func (s *StorageService) Remove(ctx context.Context, owner, key string) error {
	if err := s.authorize(ctx, owner, key); err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, key); err != nil {
		return blobFailure(err)
	}
	return nil
}

// OpenSigned opens key for a request carrying a signature issued by SignURL.
func (s *StorageService) OpenSigned(ctx context.Context, key, expires, signature string) (io.ReadCloser, error) {
	if err := blobstore.ValidateKey(key); err != nil {
		return nil, badRequestCode(err, ErrCodeInvalidPath)
	}
	if err := s.signer.Verify(key, expires, signature); err != nil {
		if errors.Is(err, blobstore.ErrURLExpired) {
			return nil, forbiddenCode(err, ErrCodeURLExpired)
		}
		return nil, forbiddenCode(err, ErrCodeForbidden)
	}
	rc, err := s.blobs.Open(ctx, key)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, notFoundCode(err, ErrCodeBlobNotFound)
		}
		return nil, blobFailure(err)
	}
	return rc, nil
}

func (s *StorageService) authorize(ctx context.Context, owner, key string) error {
	if err := blobstore.ValidateKey(key); err != nil {
		return badRequestCode(err, ErrCodeInvalidPath)
	}
	if !s.policy.Allows(key) {
		return forbiddenCode(fmt.Errorf("path %q is not accessible", key), ErrCodeForbidden)
	}
	inUse, err := s.notes.ImageInUseByOthers(ctx, owner, key)
	if err != nil {
		return storeFailure(err)
	}
	if inUse {
		return forbiddenCode(fmt.Errorf("path %q belongs to another user", key), ErrCodeForbidden)
	}
	return nil
}
