package objects

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"filevault/internal/shared/metrics"
	"filevault/internal/shared/storage/chunks"
	"filevault/internal/shared/telemetry"
	"filevault/internal/shared/util"
)

const (
	// DefaultChunkSize is 255 KiB, the GridFS segment size.
	DefaultChunkSize = 255 * 1024

	// DefaultDeleteConcurrency bounds parallel deletes during a purge.
	DefaultDeleteConcurrency = 4

	fallbackMimeType = "application/octet-stream"
)

// StoreOptions tunes a Store. Zero values select the defaults.
type StoreOptions struct {
	ChunkSize         int
	DeleteConcurrency int
	Metrics           *metrics.Metrics
}

// Store splits content into fixed-size chunks and records object metadata.
// It performs no authorization; see Service.
type Store struct {
	repo              Repo
	chunks            chunks.Store
	chunkSize         int
	deleteConcurrency int
	metrics           *metrics.Metrics

	newID func() string
	now   func() time.Time
}

// NewStore constructs a Store over a metadata repository and a chunk backend.
func NewStore(repo Repo, chunkStore chunks.Store, opts StoreOptions) *Store {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.DeleteConcurrency <= 0 {
		opts.DeleteConcurrency = DefaultDeleteConcurrency
	}
	return &Store{
		repo:              repo,
		chunks:            chunkStore,
		chunkSize:         opts.ChunkSize,
		deleteConcurrency: opts.DeleteConcurrency,
		metrics:           opts.Metrics,
		newID:             uuid.NewString,
		now:               time.Now,
	}
}

// ChunkSize reports the segment size used for new objects.
func (s *Store) ChunkSize() int {
	return s.chunkSize
}

// Put reads content to exhaustion, writes it as chunks, then registers the metadata.
// If anything fails the chunks written so far are removed and no object becomes visible.
func (s *Store) Put(ctx context.Context, content io.Reader, name, owner string) (Object, error) {
	obj, err := s.put(ctx, content, name, owner)
	s.metrics.RecordUpload(obj.SizeBytes, err)
	return obj, err
}

func (s *Store) put(ctx context.Context, content io.Reader, name, owner string) (Object, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" || content == nil {
		return Object{}, ErrInvalidInput
	}
	cleanName, err := util.SanitizeFileName(name)
	if err != nil {
		return Object{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	obj := Object{
		ID:        s.newID(),
		Owner:     owner,
		Name:      cleanName,
		ChunkSize: s.chunkSize,
	}

	if err := s.writeChunks(ctx, content, &obj); err != nil {
		s.discard(ctx, obj.ID)
		return Object{}, err
	}

	obj.CreatedAt = s.now().UTC().Truncate(time.Millisecond)
	if err := s.repo.Create(ctx, obj); err != nil {
		s.discard(ctx, obj.ID)
		return Object{}, s.classify(ctx, err)
	}
	return obj, nil
}

func (s *Store) writeChunks(ctx context.Context, content io.Reader, obj *Object) error {
	buf := make([]byte, s.chunkSize)
	for seq := 0; ; seq++ {
		n, done, err := fillChunk(ctx, content, buf)
		if err != nil {
			return err
		}
		if n > 0 {
			if seq == 0 {
				obj.MimeType = mimetype.Detect(buf[:n]).String()
			}
			if err := s.chunks.Write(ctx, obj.ID, seq, buf[:n]); err != nil {
				return s.classify(ctx, err)
			}
			obj.ChunkCount++
			obj.SizeBytes += int64(n)
		}
		if done {
			if obj.SizeBytes == 0 {
				obj.MimeType = fallbackMimeType
			}
			return nil
		}
	}
}

// fillChunk reads into buf until it is full or content reports io.EOF. Only io.EOF ends
// the stream; io.ErrUnexpectedEOF from content means the sender was cut off.
func fillChunk(ctx context.Context, content io.Reader, buf []byte) (int, bool, error) {
	n := 0
	for n < len(buf) {
		if err := ctx.Err(); err != nil {
			return n, false, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
		}
		m, err := content.Read(buf[n:])
		n += m
		if err == io.EOF {
			return n, true, nil
		}
		if err != nil {
			return n, false, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
		}
	}
	return n, false, nil
}

// classify maps a backend failure onto the error taxonomy. A cancelled request
// means the caller went away, which is a source problem rather than a storage one.
func (s *Store) classify(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %v", ErrSourceUnavailable, ctxErr)
	}
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}

// discard removes partially written chunks even when the request context is already cancelled.
func (s *Store) discard(ctx context.Context, id string) {
	if err := s.chunks.DeleteAll(context.WithoutCancel(ctx), id); err != nil {
		telemetry.Warn("objects.discard_failed", map[string]any{
			"object_id": id,
			"error":     err.Error(),
		})
		s.metrics.RecordOrphan()
	}
}

// Get returns an object's metadata.
func (s *Store) Get(ctx context.Context, id string) (Object, error) {
	obj, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Object{}, ErrNotFound
		}
		return Object{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return obj, nil
}

// OpenRead returns a forward-only reader that fetches chunks on demand.
func (s *Store) OpenRead(ctx context.Context, id string) (io.ReadCloser, error) {
	obj, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.openObject(ctx, obj), nil
}

func (s *Store) openObject(ctx context.Context, obj Object) io.ReadCloser {
	return newChunkReader(ctx, s.chunks, obj)
}

// ListByOwner returns the owner's objects. It never returns nil.
func (s *Store) ListByOwner(ctx context.Context, owner string) ([]Object, error) {
	objs, err := s.repo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if objs == nil {
		objs = []Object{}
	}
	return objs, nil
}

// Delete removes the metadata, then the chunks. It reports false when the id did not exist.
// Once the metadata is gone the object is deleted for every reader; chunks that cannot be
// removed afterwards are logged as orphans.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		s.metrics.RecordDelete(err)
		return false, err
	}
	if !removed {
		return false, nil
	}
	if err := s.chunks.DeleteAll(context.WithoutCancel(ctx), id); err != nil {
		telemetry.Warn("objects.orphaned_chunks", map[string]any{
			"object_id": id,
			"error":     err.Error(),
		})
		s.metrics.RecordOrphan()
	}
	s.metrics.RecordDelete(nil)
	return true, nil
}

// DeleteAllByOwner deletes every object of owner with bounded concurrency.
// Individual failures are collected in the result; only a failed enumeration is an error.
func (s *Store) DeleteAllByOwner(ctx context.Context, owner string) (PurgeResult, error) {
	result := PurgeResult{Owner: owner, Failed: []string{}}
	objs, err := s.ListByOwner(ctx, owner)
	if err != nil {
		return result, err
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(s.deleteConcurrency)
	for _, obj := range objs {
		id := obj.ID
		g.Go(func() error {
			removed, err := s.Delete(ctx, id)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				result.Failed = append(result.Failed, id)
			case removed:
				result.Deleted++
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(result.Failed)
	if len(result.Failed) > 0 {
		telemetry.Warn("objects.purge_partial", map[string]any{
			"owner_key": util.HashKey(owner),
			"deleted":   result.Deleted,
			"failed":    len(result.Failed),
		})
	}
	return result, nil
}
