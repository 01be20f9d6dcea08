package storage

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// Latest returns the object with the most recent modification time. Objects
// sharing that time are ordered by key and the greatest key wins, so the
// result doesn't depend on listing order. It returns nil for no objects.
func Latest(objects []*Object) *Object {
	var latest *Object
	for _, o := range objects {
		if o == nil {
			continue
		}
		if latest == nil ||
			o.LastModified.After(latest.LastModified) ||
			(o.LastModified.Equal(latest.LastModified) && o.Key > latest.Key) {
			latest = o
		}
	}
	return latest
}

// LatestObject lists the bucket and returns its most recently modified object.
func LatestObject(ctx context.Context, store Store, bucket string) (*Object, error) {
	objects, err := store.List(ctx, bucket)
	if err != nil {
		return nil, errors.Wrapf(ErrListing, "bucket %s: %s", bucket, err)
	}
	latest := Latest(objects)
	if latest == nil {
		return nil, errors.Wrapf(ErrNotFound, "bucket %s", bucket)
	}
	return latest, nil
}

// URI returns the s3 style URI for an object.
func URI(bucket, key string) string {
	return fmt.Sprintf("s3://%s/%s", bucket, key)
}
