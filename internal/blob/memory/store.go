// Package memory provides an in-memory blob.Store for tests and local runs
// without object storage.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"rxops/internal/blob"
)

type object struct {
	data        []byte
	contentType string
	updatedAt   time.Time
}

// Store is a map-backed blob.Store.
type Store struct {
	mu      sync.RWMutex
	objects map[string]object
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{objects: make(map[string]object)}
}

func (s *Store) Put(ctx context.Context, key string, r io.Reader, opts blob.PutOptions) (blob.Info, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return blob.Info{}, err
	}

	s.mu.Lock()
	s.objects[key] = object{data: data, contentType: opts.ContentType, updatedAt: time.Now()}
	s.mu.Unlock()

	return blob.Info{
		Key:         key,
		Size:        int64(len(data)),
		ContentType: opts.ContentType,
		UpdatedAt:   time.Now(),
	}, nil
}

func (s *Store) Get(ctx context.Context, key string) (blob.Info, io.ReadCloser, error) {
	s.mu.RLock()
	obj, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return blob.Info{}, nil, blob.ErrNotFound
	}

	info := blob.Info{
		Key:         key,
		Size:        int64(len(obj.data)),
		ContentType: obj.contentType,
		UpdatedAt:   obj.updatedAt,
	}
	return info, io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

func (s *Store) ResolveURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	s.mu.RLock()
	_, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return "", blob.ErrNotFound
	}
	return fmt.Sprintf("memory://%s", key), nil
}

// Len reports how many objects are stored (test helper).
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
