// Package storage abstracts the bucket/key object stores the pipeline reads
// audio and transcripts from and publishes the report site to.
package storage

import (
	"context"
	"errors"
	"net/http"
	"time"
)

var (
	// ErrNoObject is returned when a key does not exist.
	ErrNoObject = errors.New("storage: no object")
	// ErrListing is returned when the contents of a bucket cannot be enumerated.
	ErrListing = errors.New("storage: unable to list objects")
	// ErrNotFound is returned when a bucket holds no objects.
	ErrNotFound = errors.New("storage: bucket is empty")
	// ErrUpload is returned when an object cannot be written.
	ErrUpload = errors.New("storage: upload failed")
)

// DefaultContentType is used when Put is given no content type.
const DefaultContentType = "application/octet-stream"

// Object is an entry in a bucket.
type Object struct {
	Key          string
	LastModified time.Time
	Size         int64
}

// Store is a bucket/key object store.
type Store interface {
	// List returns every object in the bucket.
	List(ctx context.Context, bucket string) ([]*Object, error)
	// Get returns the object data and headers (Content-Type, Content-Length).
	Get(ctx context.Context, bucket, key string) ([]byte, http.Header, error)
	// Put writes the object, replacing any existing one.
	Put(ctx context.Context, bucket, key string, data []byte, contentType string) error
}
