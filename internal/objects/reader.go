package objects

import (
	"context"
	"errors"
	"fmt"
	"io"

	"filevault/internal/shared/storage/chunks"
)

var errReaderClosed = errors.New("reader closed")

// chunkReader streams an object by fetching chunk seq only once the previous one is consumed.
type chunkReader struct {
	ctx       context.Context
	store     chunks.Store
	obj       Object
	seq       int
	remaining int64
	buf       []byte
	closed    bool
}

func newChunkReader(ctx context.Context, store chunks.Store, obj Object) *chunkReader {
	return &chunkReader{
		ctx:       ctx,
		store:     store,
		obj:       obj,
		remaining: obj.SizeBytes,
	}
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if r.closed {
		return 0, errReaderClosed
	}
	if len(p) == 0 {
		return 0, nil
	}
	for len(r.buf) == 0 {
		if r.seq >= r.obj.ChunkCount {
			if r.remaining != 0 {
				return 0, fmt.Errorf("%w: object %s is %d bytes short", ErrStorageUnavailable, r.obj.ID, r.remaining)
			}
			return 0, io.EOF
		}
		data, err := r.store.Read(r.ctx, r.obj.ID, r.seq)
		if err != nil {
			return 0, fmt.Errorf("%w: chunk %d of %s: %v", ErrStorageUnavailable, r.seq, r.obj.ID, err)
		}
		if int64(len(data)) > r.remaining {
			return 0, fmt.Errorf("%w: chunk %d of %s exceeds object size", ErrStorageUnavailable, r.seq, r.obj.ID)
		}
		r.seq++
		r.remaining -= int64(len(data))
		r.buf = data
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

func (r *chunkReader) Close() error {
	r.closed = true
	r.buf = nil
	return nil
}
