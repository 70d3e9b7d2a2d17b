package service

import (
	"context"
	"io"
)

// ImageStorage stores section images under a fixed object key.
type ImageStorage interface {
	// Put uploads the object and returns its public URL. Existing objects are replaced.
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, key string) error
}
