package objects

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"filevault/internal/shared/metrics"
)

// DownloadChunkSize is the increment in which downloads are handed to the transport.
const DownloadChunkSize = 4096

const stageCopySize = 32 * 1024

// Stager spools inbound uploads to a temporary file so a slow client never holds
// chunk backend writes open.
type Stager struct {
	Dir string // empty uses os.TempDir
}

// StagedFile is a spooled upload. Close removes the file.
type StagedFile struct {
	f         *os.File
	path      string
	size      int64
	closeOnce sync.Once
	closeErr  error
}

// Stage copies r into a new temporary file and rewinds it. On error the file is already removed.
func (s *Stager) Stage(ctx context.Context, r io.Reader) (*StagedFile, error) {
	f, err := os.CreateTemp(s.Dir, "filevault-upload-*")
	if err != nil {
		return nil, fmt.Errorf("%w: create staging file: %v", ErrStorageUnavailable, err)
	}
	staged := &StagedFile{f: f, path: f.Name()}

	if err := staged.fill(ctx, r); err != nil {
		staged.Close()
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		staged.Close()
		return nil, fmt.Errorf("%w: rewind staging file: %v", ErrStorageUnavailable, err)
	}
	return staged, nil
}

func (sf *StagedFile) fill(ctx context.Context, r io.Reader) error {
	buf := make([]byte, stageCopySize)
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
		}
		n, readErr := r.Read(buf)
		if n > 0 {
			if _, err := sf.f.Write(buf[:n]); err != nil {
				return fmt.Errorf("%w: write staging file: %v", ErrStorageUnavailable, err)
			}
			sf.size += int64(n)
		}
		if errors.Is(readErr, io.EOF) {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("%w: %w", ErrSourceUnavailable, readErr)
		}
	}
}

func (sf *StagedFile) Read(p []byte) (int, error) {
	return sf.f.Read(p)
}

// Size is the number of staged bytes.
func (sf *StagedFile) Size() int64 {
	return sf.size
}

// Path is the location of the staging file.
func (sf *StagedFile) Path() string {
	return sf.path
}

// Close closes and removes the staging file. It is safe to call more than once.
func (sf *StagedFile) Close() error {
	sf.closeOnce.Do(func() {
		closeErr := sf.f.Close()
		removeErr := os.Remove(sf.path)
		if removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			sf.closeErr = removeErr
			return
		}
		sf.closeErr = closeErr
	})
	return sf.closeErr
}

// Download streams an authorized object in DownloadChunkSize increments.
type Download struct {
	Object Object

	rc      io.ReadCloser
	buf     []byte
	done    bool
	metrics *metrics.Metrics
}

func newDownload(obj Object, rc io.ReadCloser, m *metrics.Metrics) *Download {
	return &Download{
		Object:  obj,
		rc:      rc,
		buf:     make([]byte, DownloadChunkSize),
		metrics: m,
	}
}

// Next returns the next increment of at most DownloadChunkSize bytes, or io.EOF once the
// object is exhausted. It never returns an empty slice with a nil error. The slice is only
// valid until the following call.
func (d *Download) Next() ([]byte, error) {
	if d.done {
		return nil, io.EOF
	}
	n, err := io.ReadFull(d.rc, d.buf)
	if n > 0 {
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, err
		}
		d.metrics.RecordDownloadBytes(n)
		return d.buf[:n], nil
	}
	if errors.Is(err, io.EOF) {
		d.done = true
		return nil, io.EOF
	}
	return nil, err
}

// WriteTo drains the download into w.
func (d *Download) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for {
		chunk, err := d.Next()
		if errors.Is(err, io.EOF) {
			return total, nil
		}
		if err != nil {
			return total, err
		}
		n, err := w.Write(chunk)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
}

// Close releases the underlying chunk reader.
func (d *Download) Close() error {
	d.done = true
	return d.rc.Close()
}
