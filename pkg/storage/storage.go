// Package storage keeps uploaded media. Store returns a reference (URI) that is saved in
// the database; Delete accepts the same reference.
package storage

import (
	"context"
	"fmt"
	"mime"
	"path"
)

type ObjectStorage interface {
	Store(ctx context.Context, data []byte, name string) (string, error)
	Delete(ctx context.Context, uri string) error
}

func contentTypeOf(name string) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

const (
	DriverLocal = "local"
	DriverS3    = "s3"
)

type Options struct {
	Driver    string
	MediaRoot string
	MediaURL  string
	S3        S3Options
}

// Open builds the object storage selected by opts.Driver.
func Open(ctx context.Context, opts Options) (ObjectStorage, error) {
	switch opts.Driver {
	case DriverLocal, "":
		return NewLocalStorage(opts.MediaRoot, opts.MediaURL), nil
	case DriverS3:
		client, err := NewS3Client(ctx, opts.S3)
		if err != nil {
			return nil, err
		}
		return NewS3Storage(client, opts.S3), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
}
