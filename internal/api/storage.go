package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"notesdrive/internal/notes"
)

// Upload stores r under path and returns the stored path.
func (c *Client) Upload(ctx context.Context, path string, r io.Reader) (string, error) {
	var resp UploadResponse
	if err := c.doRaw(ctx, http.MethodPut, storageEndpoint(path), nil, "application/octet-stream", r, &resp); err != nil {
		return "", err
	}
	if resp.Path == "" {
		return path, nil
	}
	return resp.Path, nil
}

// GetURL requests a temporary read URL for path.
func (c *Client) GetURL(ctx context.Context, path string) (notes.TemporaryURL, error) {
	var resp StorageURLResponse
	if err := c.do(ctx, http.MethodPost, "/storage/url", nil, StorageURLRequest{Path: path}, &resp); err != nil {
		return notes.TemporaryURL{}, err
	}
	resolved, err := c.resolve(resp.URL)
	if err != nil {
		return notes.TemporaryURL{}, err
	}
	return notes.TemporaryURL{URL: resolved, ExpiresAt: resp.ExpiresAt}, nil
}

// Remove deletes the blob stored under path.
func (c *Client) Remove(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, storageEndpoint(path), nil, nil, nil)
}

func (c *Client) resolve(raw string) (string, error) {
	ref, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid storage url: %w", err)
	}
	if ref.IsAbs() || ref.Host != "" {
		return ref.String(), nil
	}
	// Platform paths are rooted at the base URL, which may carry a path prefix.
	if strings.HasPrefix(raw, "/") {
		joined, err := url.Parse(c.baseURL + raw)
		if err != nil {
			return "", fmt.Errorf("invalid storage url: %w", err)
		}
		return joined.String(), nil
	}
	base, err := url.Parse(c.baseURL + "/")
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	return base.ResolveReference(ref).String(), nil
}

func storageEndpoint(path string) string {
	segments := strings.Split(strings.TrimLeft(path, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return "/storage/" + strings.Join(segments, "/")
}
