package local

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filevault/internal/shared/storage/chunks"
)

func TestWriteReadLayout(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s := New(root)

	require.NoError(t, s.Write(ctx, "abcdef", 0, []byte("first")))
	require.NoError(t, s.Write(ctx, "abcdef", 1, []byte("second")))

	_, err := os.Stat(filepath.Join(root, "ab", "abcdef", "00000001.chunk"))
	require.NoError(t, err)

	got, err := s.Read(ctx, "abcdef", 0)
	require.NoError(t, err)
	assert.Equal(t, "first", string(got))

	entries, err := os.ReadDir(filepath.Join(root, "ab", "abcdef"))
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp files should remain")
}

func TestReadMissing(t *testing.T) {
	s := New(t.TempDir())
	_, err := s.Read(context.Background(), "abcdef", 0)
	assert.ErrorIs(t, err, chunks.ErrNotFound)
}

func TestDeleteAll(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s := New(root)
	require.NoError(t, s.Write(ctx, "abcdef", 0, []byte("x")))

	require.NoError(t, s.DeleteAll(ctx, "abcdef"))
	require.NoError(t, s.DeleteAll(ctx, "abcdef"))

	_, err := os.Stat(filepath.Join(root, "ab", "abcdef"))
	assert.True(t, os.IsNotExist(err), "object directory should be removed")
	_, err = os.Stat(filepath.Join(root, "ab"))
	assert.NoError(t, err, "shard directory is kept for other objects")
}

func TestDeleteAllDoesNotDisturbSiblingWrites(t *testing.T) {
	ctx := context.Background()
	s := New(t.TempDir())

	const rounds = 200
	var wg sync.WaitGroup
	errs := make(chan error, rounds)
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			_ = s.Write(ctx, "ab-gone", 0, []byte("x"))
			_ = s.DeleteAll(ctx, "ab-gone")
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			if err := s.Write(ctx, "ab-kept", i, []byte("y")); err != nil {
				errs <- err
			}
		}
	}()
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("write in shared shard failed: %v", err)
	}
	got, err := s.Read(ctx, "ab-kept", rounds-1)
	require.NoError(t, err)
	assert.Equal(t, "y", string(got))
}

func TestRejectsUnsafeIDs(t *testing.T) {
	s := New(t.TempDir())
	for _, id := range []string{"", "a", "../etc", "ab/cd", " ab"} {
		assert.Error(t, s.Write(context.Background(), id, 0, []byte("x")), "id %q", id)
	}
}
