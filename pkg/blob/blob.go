// Package blob stores uploaded contract files and generated documents. Two
// implementations: local filesystem for dev, S3 for deployments. Objects are
// addressed by opaque URIs so callers never care which driver wrote them.
package blob

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no object exists at the given URI.
var ErrNotFound = errors.New("blob not found")

// Store reads and writes binary objects.
type Store interface {
	// Put stores data under the given key and returns the object's URI.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)

	// Get fetches an object by the URI returned from Put.
	Get(ctx context.Context, uri string) ([]byte, error)

	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, uri string) error
}
