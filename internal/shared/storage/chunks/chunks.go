// Package chunks persists the fixed-size segments that make up a stored object.
package chunks

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNotFound is returned by Read when a chunk does not exist.
var ErrNotFound = errors.New("chunk not found")

// Store is the physical chunk backend. Chunks are addressed by object id and sequence number.
type Store interface {
	Write(ctx context.Context, objectID string, seq int, data []byte) error
	Read(ctx context.Context, objectID string, seq int) ([]byte, error)
	// DeleteAll removes every chunk of objectID. Deleting an object without chunks is not an error.
	DeleteAll(ctx context.Context, objectID string) error
}

// Key formats the zero-padded chunk name shared by the file and S3 backends.
func Key(seq int) string {
	return fmt.Sprintf("%08d", seq)
}

// Memory is an in-process Store for development and tests.
type Memory struct {
	mu   sync.RWMutex
	data map[string]map[int][]byte
}

// NewMemory constructs an empty in-memory chunk store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]map[int][]byte)}
}

func (m *Memory) Write(ctx context.Context, objectID string, seq int, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	byObject, ok := m.data[objectID]
	if !ok {
		byObject = make(map[int][]byte)
		m.data[objectID] = byObject
	}
	byObject[seq] = append([]byte(nil), data...)
	return nil
}

func (m *Memory) Read(ctx context.Context, objectID string, seq int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.data[objectID][seq]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *Memory) DeleteAll(ctx context.Context, objectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, objectID)
	return nil
}

var _ Store = (*Memory)(nil)
