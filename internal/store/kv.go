// Package store persists per-page theme assignments in a client-local
// key-value store.
package store

import (
	"errors"
	"sync"
)

// ErrStoreClosed is returned when operations are attempted on a closed store.
var ErrStoreClosed = errors.New("store is closed")

// KV is a durable key-value store holding serialized collections.
type KV interface {
	// Get returns the value stored under key. The boolean is false when the
	// key is absent.
	Get(key string) ([]byte, bool, error)

	// Set replaces the value stored under key.
	Set(key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error

	// Close releases file handles and resources.
	Close() error
}

// MemoryKV is an in-process KV. It is used for ephemeral runs and tests;
// read and write failures can be injected to exercise recovery paths.
type MemoryKV struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool

	// ReadErr and WriteErr, when set, are returned by Get and by Set/Delete.
	ReadErr  error
	WriteErr error
}

// NewMemoryKV creates an empty MemoryKV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

// Get returns a copy of the value stored under key.
func (m *MemoryKV) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, false, ErrStoreClosed
	}
	if m.ReadErr != nil {
		return nil, false, m.ReadErr
	}

	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Set stores a copy of value under key.
func (m *MemoryKV) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	if m.WriteErr != nil {
		return m.WriteErr
	}

	m.data[key] = append([]byte(nil), value...)
	return nil
}

// Delete removes key.
func (m *MemoryKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	if m.WriteErr != nil {
		return m.WriteErr
	}

	delete(m.data, key)
	return nil
}

// Close marks the store closed.
func (m *MemoryKV) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
