package httpdl

import (
	"fmt"
	"io"
	"os"
	"sync"

	"fetchkit/internal/errs"
)

// PositionedWriter lets multiple fetchers share one output file. Each
// segment is read into memory unlocked, then its seek+write to the
// segment's absolute offset runs as one critical section under a
// single mutex, so writes from distinct (disjoint) segments never
// interleave on disk while their network reads still overlap.
type PositionedWriter struct {
	mu sync.Mutex
	f  *os.File
}

// NewPositionedWriter creates (or truncates) path and pre-allocates it
// implicitly via later WriteAt calls.
func NewPositionedWriter(path string) (*PositionedWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: creating %s: %v", errs.IoError, path, err)
	}
	return &PositionedWriter{f: f}, nil
}

// WriteAt reads r's entire body into memory, then seeks to offset and
// writes it under the mutex. The read happens unlocked so one
// segment's network stall doesn't block every other segment's writer;
// only the seek+write pair is a critical section.
func (w *PositionedWriter) WriteAt(offset int64, r io.Reader) (int64, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("%w: reading segment for offset %d: %v", errs.IoError, offset, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.f.Seek(offset, io.SeekStart); err != nil {
		return 0, fmt.Errorf("%w: seeking to %d: %v", errs.IoError, offset, err)
	}
	n, err := w.f.Write(buf)
	if err != nil {
		return int64(n), fmt.Errorf("%w: writing at %d: %v", errs.IoError, offset, err)
	}
	return int64(n), nil
}

// Close closes the underlying file.
func (w *PositionedWriter) Close() error {
	return w.f.Close()
}
