// internal/adapters/storage/storage.go
package storage

import (
	"context"
	"io"
)

// ObjectStore defines the blob operations used for history archives
type ObjectStore interface {
	Upload(ctx context.Context, key string, data io.Reader, contentType string, metadata map[string]string) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
}
