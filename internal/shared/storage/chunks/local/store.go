package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"filevault/internal/shared/storage/chunks"
)

// Store implements chunks.Store on the local filesystem.
// Layout: <baseDir>/<id[0:2]>/<id>/<seq>.chunk
type Store struct {
	baseDir string
}

// New creates a new local chunk store rooted at baseDir.
func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Write stores one chunk. The file appears atomically via rename, so readers never see a partial chunk.
func (s *Store) Write(ctx context.Context, objectID string, seq int, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir, err := s.objectDir(objectID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	f, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpPath := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write chunk: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close chunk: %w", err)
	}
	if err := os.Rename(tmpPath, filepath.Join(dir, chunks.Key(seq)+".chunk")); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename chunk: %w", err)
	}
	return nil
}

// Read loads one chunk.
func (s *Store) Read(ctx context.Context, objectID string, seq int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir, err := s.objectDir(objectID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, chunks.Key(seq)+".chunk"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, chunks.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read chunk: %w", err)
	}
	return data, nil
}

// DeleteAll removes the object's chunk directory.
func (s *Store) DeleteAll(ctx context.Context, objectID string) error {
	dir, err := s.objectDir(objectID)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove chunks: %w", err)
	}
	// Shard directories are never removed: a Write into the same shard may sit between
	// MkdirAll and CreateTemp.
	return nil
}

func (s *Store) objectDir(objectID string) (string, error) {
	id := strings.TrimSpace(objectID)
	if len(id) < 2 || id != objectID || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return "", fmt.Errorf("invalid object id %q", objectID)
	}
	return filepath.Join(s.baseDir, id[:2], id), nil
}

var _ chunks.Store = (*Store)(nil)
