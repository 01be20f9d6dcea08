package storage

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
)

type TestObject struct {
	Data         []byte
	ContentType  string
	LastModified time.Time
}

// TestStore is an in-memory Store for tests. Failures can be injected per
// bucket and puts record the time from Now.
type TestStore struct {
	mu      sync.Mutex
	buckets map[string]map[string]*TestObject

	// Now stamps objects written through Put. Defaults to time.Now.
	Now func() time.Time
	// ListErr, GetErr and PutErr are returned for a bucket when set.
	ListErr map[string]error
	GetErr  map[string]error
	PutErr  map[string]error
	// Calls counts List, Get and Put calls by method name.
	Calls map[string]int
}

func NewTestStore() *TestStore {
	return &TestStore{
		buckets: make(map[string]map[string]*TestObject),
		Now:     time.Now,
		ListErr: make(map[string]error),
		GetErr:  make(map[string]error),
		PutErr:  make(map[string]error),
		Calls:   make(map[string]int),
	}
}

// PutObject seeds an object with an explicit modification time.
func (s *TestStore) PutObject(bucket, key string, data []byte, contentType string, modified time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.buckets[bucket]
	if b == nil {
		b = make(map[string]*TestObject)
		s.buckets[bucket] = b
	}
	b[key] = &TestObject{Data: data, ContentType: contentType, LastModified: modified}
}

// Object returns the stored object or nil.
func (s *TestStore) Object(bucket, key string) *TestObject {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buckets[bucket][key]
}

func (s *TestStore) List(ctx context.Context, bucket string) ([]*Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls["List"]++
	if err := s.ListErr[bucket]; err != nil {
		return nil, err
	}
	objects := make([]*Object, 0, len(s.buckets[bucket]))
	for k, o := range s.buckets[bucket] {
		objects = append(objects, &Object{Key: k, LastModified: o.LastModified, Size: int64(len(o.Data))})
	}
	return objects, nil
}

func (s *TestStore) Get(ctx context.Context, bucket, key string) ([]byte, http.Header, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls["Get"]++
	if err := s.GetErr[bucket]; err != nil {
		return nil, nil, err
	}
	o := s.buckets[bucket][key]
	if o == nil {
		return nil, nil, errors.Wrapf(ErrNoObject, "%s/%s", bucket, key)
	}
	h := http.Header{}
	h.Set("Content-Type", o.ContentType)
	h.Set("Content-Length", strconv.Itoa(len(o.Data)))
	return o.Data, h, nil
}

func (s *TestStore) Put(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	s.mu.Lock()
	s.Calls["Put"]++
	err := s.PutErr[bucket]
	s.mu.Unlock()
	if err != nil {
		return errors.Wrapf(ErrUpload, "%s/%s: %s", bucket, key, err)
	}
	if contentType == "" {
		contentType = DefaultContentType
	}
	s.PutObject(bucket, key, data, contentType, s.Now())
	return nil
}
