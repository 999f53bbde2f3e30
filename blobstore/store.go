// Package blobstore abstracts read-only access to the two dataset artifacts
// (polygon table, score table), wherever they live.
//
// The service never writes artifacts; they are produced by an external
// pipeline. Implementations therefore only need Open. Local disk covers the
// common deployment, MemoryStore backs tests, and the minio/ and s3/
// subpackages fetch from object storage.
package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when an artifact does not exist.
//
// Implementations must return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// BlobStore is an abstraction for reading immutable artifacts.
type BlobStore interface {
	// Open opens the named artifact for reading. The returned Blob must be
	// closed by the caller.
	Open(ctx context.Context, name string) (Blob, error)
}

// Blob is a read-only handle to an artifact.
type Blob interface {
	io.ReadCloser
	// Size returns the size of the blob in bytes.
	Size() int64
}
