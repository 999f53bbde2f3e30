package catalog

import (
	"context"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4/v4"

	"geoscore/blobstore"
)

// openArtifact opens a named artifact and transparently decompresses it
// based on the name suffix (".gz", ".lz4"). The returned ReadCloser owns the
// underlying blob and closes it too.
func openArtifact(ctx context.Context, store blobstore.BlobStore, name string) (io.ReadCloser, error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}

	switch {
	case strings.HasSuffix(name, ".gz"):
		zr, err := gzip.NewReader(blob)
		if err != nil {
			_ = blob.Close()
			return nil, err
		}
		return &layeredReadCloser{r: zr, closers: []io.Closer{zr, blob}}, nil
	case strings.HasSuffix(name, ".lz4"):
		return &layeredReadCloser{r: lz4.NewReader(blob), closers: []io.Closer{blob}}, nil
	default:
		return blob, nil
	}
}

type layeredReadCloser struct {
	r       io.Reader
	closers []io.Closer
}

func (l *layeredReadCloser) Read(p []byte) (int, error) { return l.r.Read(p) }

func (l *layeredReadCloser) Close() error {
	var first error
	for _, c := range l.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
