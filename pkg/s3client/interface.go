package s3client

import (
	"context"
	"io"
)

// S3Interface stores frames as objects below a bucket prefix. Names are
// relative to the prefix.
type S3Interface interface {
	PutFrame(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	// Location is the destination as s3://bucket[/prefix]
	Location() string
}
