package recfile

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ucn-triumf/epics2midas-modern/internal/ports"
)

const frameHeaderLen = 12

// Writer appends emitted records to a single binary file. Each frame is
// [8 bytes unix-nano timestamp][4 bytes length][length bytes record], both
// integers big-endian. On open a trailing partial frame from a crashed run
// is truncated away.
type Writer struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	writer *bufio.Writer
	count  uint64

	now func() time.Time
}

func NewWriter(path string) (*Writer, error) {
	if path == "" {
		return nil, errors.New("recfile: path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}

	w := &Writer{
		path: path,
		file: f,
		now:  time.Now,
	}
	if err := w.recover(); err != nil {
		f.Close()
		return nil, err
	}
	w.writer = bufio.NewWriterSize(f, 1<<16)
	return w, nil
}

// recover scans existing frames, counts them, and truncates any trailing
// partial frame left by an interrupted write.
func (w *Writer) recover() error {
	r := bufio.NewReader(w.file)
	var offset int64

	for {
		var hdr [frameHeaderLen]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if errors.Is(err, io.ErrUnexpectedEOF) {
				if err := w.file.Truncate(offset); err != nil {
					return err
				}
				break
			}
			return fmt.Errorf("recfile scan header: %w", err)
		}
		length := binary.BigEndian.Uint32(hdr[8:12])

		if _, err := io.CopyN(io.Discard, r, int64(length)); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				if err := w.file.Truncate(offset); err != nil {
					return err
				}
				break
			}
			return fmt.Errorf("recfile scan body: %w", err)
		}
		offset += frameHeaderLen + int64(length)
		w.count++
	}

	_, err := w.file.Seek(offset, io.SeekStart)
	return err
}

// WriteRecord appends one frame and flushes it.
func (w *Writer) WriteRecord(rec []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.writer == nil {
		return errors.New("recfile: writer closed")
	}

	var hdr [frameHeaderLen]byte
	binary.BigEndian.PutUint64(hdr[0:8], uint64(w.now().UnixNano()))
	binary.BigEndian.PutUint32(hdr[8:12], uint32(len(rec)))

	if _, err := w.writer.Write(hdr[:]); err != nil {
		return err
	}
	if _, err := w.writer.Write(rec); err != nil {
		return err
	}
	if err := w.writer.Flush(); err != nil {
		return err
	}
	w.count++
	return nil
}

func (w *Writer) Name() string { return "recfile" }

// Count returns the number of complete frames in the file.
func (w *Writer) Count() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Close flushes and closes the file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.writer == nil {
		return nil
	}
	err := w.writer.Flush()
	w.writer = nil
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// Iterate reads frames from a record file in append order. Iteration stops
// at the first error returned by fn.
func Iterate(path string, fn func(ts time.Time, rec []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	for {
		var hdr [frameHeaderLen]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return err
		}
		ts := time.Unix(0, int64(binary.BigEndian.Uint64(hdr[0:8])))
		length := binary.BigEndian.Uint32(hdr[8:12])

		rec := make([]byte, length)
		if _, err := io.ReadFull(r, rec); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return err
		}
		if err := fn(ts, rec); err != nil {
			return err
		}
	}
}

var _ ports.RecordSink = (*Writer)(nil)
