package objectstore

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when a requested object or bucket does not exist.
var ErrNotFound = errors.New("not found")

// ObjectStore provides access to the binary assets being annotated. Each
// storage location of a workflow stage maps to one bucket; an asset is one
// object keyed by its external id.
type ObjectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	CreateBucket(ctx context.Context, bucket string) error
	FileExists(ctx context.Context, bucket, key string) (bool, error)
	// Download returns a stream of the object body. The caller must close it.
	Download(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	// Upload stores the stream under key and returns the stored key.
	Upload(ctx context.Context, body io.Reader, bucket, key string) (string, error)
}
