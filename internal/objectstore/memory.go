package objectstore

import (
	"context"
	"errors"
	"sync"
)

// ErrInjected is returned by Memory for keys registered with FailOn.
var ErrInjected = errors.New("objectstore: injected failure")

// Memory is an in-process Store used by tests and local runs without S3.
type Memory struct {
	BaseURL string

	mu      sync.Mutex
	objects map[Object]File
	failOn  map[string]bool
	puts    []Object
	deletes []Object
}

// NewMemory returns an empty store.
func NewMemory(baseURL string) *Memory {
	return &Memory{
		BaseURL: baseURL,
		objects: make(map[Object]File),
		failOn:  make(map[string]bool),
	}
}

// FailOn makes Put fail for the given key.
func (m *Memory) FailOn(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOn[key] = true
}

// Put stores a copy of f.
func (m *Memory) Put(ctx context.Context, bucket Bucket, key string, f File) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(f.Data) == 0 {
		return "", ErrEmptyFile
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn[key] {
		return "", ErrInjected
	}

	obj := Object{Bucket: bucket, Key: key}
	m.objects[obj] = File{Name: f.Name, ContentType: f.ContentType, Data: append([]byte(nil), f.Data...)}
	m.puts = append(m.puts, obj)
	return PublicURL(m.BaseURL, string(bucket), key), nil
}

// Delete removes the object if present.
func (m *Memory) Delete(ctx context.Context, bucket Bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj := Object{Bucket: bucket, Key: key}
	delete(m.objects, obj)
	m.deletes = append(m.deletes, obj)
	return nil
}

// Has reports whether the object currently exists.
func (m *Memory) Has(bucket Bucket, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[Object{Bucket: bucket, Key: key}]
	return ok
}

// Len returns the number of stored objects.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// Puts returns every successful Put in call order.
func (m *Memory) Puts() []Object {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Object(nil), m.puts...)
}

// Deletes returns every Delete in call order.
func (m *Memory) Deletes() []Object {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Object(nil), m.deletes...)
}
