// Package storage holds the object store used for product images, store logos,
// license documents and proxy purchase proofs.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrDisabled is returned by every call when no object store is configured.
var ErrDisabled = errors.New("object storage is not configured")

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known, or -1.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
}

// Storage is an S3-compatible object store. Implementations stream content and never touch local disk.
type Storage interface {
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited download URL for the object.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

type disabled struct{}

// Disabled returns a Storage that rejects every call with ErrDisabled.
func Disabled() Storage { return disabled{} }

func (disabled) Put(context.Context, string, io.Reader, PutObjectOptions) (ObjectInfo, error) {
	return ObjectInfo{}, ErrDisabled
}

func (disabled) Get(context.Context, string) (io.ReadCloser, ObjectInfo, error) {
	return nil, ObjectInfo{}, ErrDisabled
}

func (disabled) Delete(context.Context, string) error { return ErrDisabled }

func (disabled) PresignGet(context.Context, string, time.Duration) (string, error) {
	return "", ErrDisabled
}
