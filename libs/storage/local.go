package storage

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const fsMetaSuffix = ".meta"

// Local is a store that uses the local filesystem. Each bucket is a directory
// under the root and each object has a JSON side file holding its headers.
// WARNING: It is not meant for production. Keys are only checked to stay
// inside their bucket directory.
type Local struct {
	root string
}

// NewLocalStore initializes a new local file storage creating the root if necessary.
func NewLocalStore(root string) (*Local, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrapf(err, "storage: failed to make path %q absolute", root)
	}
	if err := os.MkdirAll(root, 0700); err != nil {
		return nil, errors.Wrapf(err, "storage: failed to create path %q", root)
	}
	return &Local{root: root}, nil
}

func (s *Local) path(bucket, key string) (string, error) {
	dir := filepath.Join(s.root, bucket)
	p := filepath.Join(dir, strings.TrimPrefix(key, "/"))
	if !strings.HasPrefix(p, dir+string(filepath.Separator)) {
		return "", errors.Errorf("storage: invalid key %q", key)
	}
	return p, nil
}

func (s *Local) List(ctx context.Context, bucket string) ([]*Object, error) {
	dir := filepath.Join(s.root, bucket)
	var objects []*Object
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == dir && os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() || strings.HasSuffix(path, fsMetaSuffix) {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		objects = append(objects, &Object{
			Key:          filepath.ToSlash(rel),
			LastModified: info.ModTime(),
			Size:         info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "list %s", dir)
	}
	return objects, nil
}

func (s *Local) Get(ctx context.Context, bucket, key string) ([]byte, http.Header, error) {
	p, err := s.path(bucket, key)
	if err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return nil, nil, errors.Wrapf(ErrNoObject, "path=%q", p)
	} else if err != nil {
		return nil, nil, errors.WithStack(err)
	}
	h := http.Header{}
	if b, err := os.ReadFile(p + fsMetaSuffix); err == nil {
		var meta map[string]string
		if err := json.Unmarshal(b, &meta); err != nil {
			return nil, nil, errors.Wrapf(err, "bad metadata for %q", p)
		}
		for k, v := range meta {
			h.Set(k, v)
		}
	}
	h.Set("Content-Length", strconv.Itoa(len(data)))
	return data, h, nil
}

func (s *Local) Put(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	if contentType == "" {
		contentType = DefaultContentType
	}
	p, err := s.path(bucket, key)
	if err != nil {
		return errors.Wrap(ErrUpload, err.Error())
	}
	if err := os.MkdirAll(filepath.Dir(p), 0700); err != nil {
		return errors.Wrapf(ErrUpload, "%s: %s", p, err)
	}
	if err := os.WriteFile(p, data, 0600); err != nil {
		return errors.Wrapf(ErrUpload, "%s: %s", p, err)
	}
	meta, err := json.Marshal(map[string]string{"Content-Type": contentType})
	if err != nil {
		return errors.WithStack(err)
	}
	if err := os.WriteFile(p+fsMetaSuffix, meta, 0600); err != nil {
		os.Remove(p) // cleanup on failure
		return errors.Wrapf(ErrUpload, "%s: %s", p, err)
	}
	return nil
}
