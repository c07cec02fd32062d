// Package source opens dataset files from a local directory or an S3 prefix.
package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Source resolves dataset file names to readers.
type Source interface {
	// Open returns the named file. A missing file wraps fs.ErrNotExist.
	Open(ctx context.Context, name string) (*File, error)
	// Location describes where files are read from.
	Location() string
}

// S3Options configures the S3 client used for s3:// URIs.
type S3Options struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// Open returns a Source for uri: a local directory or s3://bucket/prefix.
func Open(ctx context.Context, uri string, opts S3Options) (Source, error) {
	if strings.HasPrefix(uri, "s3://") {
		bucket, prefix, err := parseS3URI(uri)
		if err != nil {
			return nil, err
		}
		return NewS3(ctx, bucket, prefix, opts)
	}
	return NewDir(uri)
}

// File is an open dataset file that hashes everything read through it.
type File struct {
	Name   string
	body   io.ReadCloser
	digest *xxhash.Digest
	size   int64
}

func newFile(name string, body io.ReadCloser) *File {
	return &File{Name: name, body: body, digest: xxhash.New()}
}

func (f *File) Read(p []byte) (int, error) {
	n, err := f.body.Read(p)
	if n > 0 {
		f.digest.Write(p[:n])
		f.size += int64(n)
	}
	return n, err
}

func (f *File) Close() error {
	return f.body.Close()
}

// Digest returns the xxhash64 of the bytes read so far, in hex.
func (f *File) Digest() string {
	return fmt.Sprintf("%016x", f.digest.Sum64())
}

// Size returns the number of bytes read so far.
func (f *File) Size() int64 {
	return f.size
}

// Dir reads files from a local directory.
type Dir struct {
	root string
}

// NewDir returns a Source over root, which must be a directory.
func NewDir(root string) (*Dir, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("dataset directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("dataset directory: %s is not a directory", root)
	}
	return &Dir{root: root}, nil
}

func (d *Dir) Open(ctx context.Context, name string) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Manifest entries must stay inside the dataset directory
	if !filepath.IsLocal(name) {
		return nil, fmt.Errorf("dataset file %q is outside %s", name, d.root)
	}
	f, err := os.Open(filepath.Join(d.root, name))
	if err != nil {
		return nil, err
	}
	return newFile(name, f), nil
}

func (d *Dir) Location() string {
	return d.root
}
