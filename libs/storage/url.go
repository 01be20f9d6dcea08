package storage

import (
	"context"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"
)

// FromURL returns a Store based on the URL provided. The scheme represents
// the storage type: "file" stores buckets under the URL path and "s3" (or an
// empty URL) uses the provided S3 client.
func FromURL(u string, s3api s3iface.S3API) (Store, error) {
	if u == "" {
		return NewS3(s3api), nil
	}
	ur, err := url.Parse(u)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse storage URL %q", u)
	}
	switch ur.Scheme {
	case "file":
		return NewLocalStore(ur.Path)
	case "s3":
		return NewS3(s3api), nil
	}
	return nil, errors.Errorf("no storage available for scheme %q", ur.Scheme)
}

// ParseURI splits an s3://bucket/key URI.
func ParseURI(uri string) (bucket, key string, err error) {
	ur, err := url.Parse(uri)
	if err != nil {
		return "", "", errors.Wrapf(err, "bad URI %q", uri)
	}
	if ur.Scheme != "s3" || ur.Host == "" {
		return "", "", errors.Errorf("bad S3 URI %q", uri)
	}
	key = strings.TrimPrefix(ur.Path, "/")
	if key == "" {
		return "", "", errors.Errorf("S3 URI %q has no key", uri)
	}
	return ur.Host, key, nil
}

// PutFile uploads a local file.
func PutFile(ctx context.Context, store Store, bucket, key, path, contentType string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(ErrUpload, "read %s: %s", path, err)
	}
	return store.Put(ctx, bucket, key, data, contentType)
}
