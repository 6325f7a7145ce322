package pod

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

const (
	// Magic identifies a gompm particle table file.
	Magic = uint32(0x474D504D) // "GMPM"

	// Version of the on-disk layout. Bumped whenever Record changes.
	Version = uint32(1)
)

// Header carries meta-information about a particle table file.
type Header struct {
	Magic      uint32
	Version    uint32
	Count      int64
	RecordSize int64
}

var order = binary.LittleEndian

// Write writes all records to path as a headered table. An existing file is
// truncated.
func Write(path string, recs []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("pod: create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	h := Header{
		Magic:      Magic,
		Version:    Version,
		Count:      int64(len(recs)),
		RecordSize: int64(RecordSize),
	}
	if err = binary.Write(w, order, h); err != nil {
		return fmt.Errorf("pod: write header: %w", err)
	}
	for i := range recs {
		if err = binary.Write(w, order, &recs[i]); err != nil {
			return fmt.Errorf("pod: write record %d: %w", i, err)
		}
	}
	return w.Flush()
}

// Read reads all records from path. A missing file is a hard failure.
func Read(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pod: open %s: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var h Header
	if err = binary.Read(r, order, &h); err != nil {
		return nil, fmt.Errorf("pod: read header: %w", err)
	}
	if h.Magic != Magic {
		return nil, fmt.Errorf("pod: %s is not a particle table file", path)
	}
	if h.Version != Version {
		return nil, fmt.Errorf("pod: unsupported version %d", h.Version)
	}
	if h.RecordSize != int64(RecordSize) {
		return nil, fmt.Errorf("pod: record size mismatch: file %d, expected %d",
			h.RecordSize, RecordSize)
	}
	recs := make([]Record, h.Count)
	for i := range recs {
		if err = binary.Read(r, order, &recs[i]); err != nil {
			return nil, fmt.Errorf("pod: read record %d: %w", i, err)
		}
	}
	// Trailing bytes mean the header lied about the count.
	if _, err = r.ReadByte(); err != io.EOF {
		return nil, fmt.Errorf("pod: trailing data after %d records", h.Count)
	}
	return recs, nil
}

// Buffer accumulates records and flushes them to a writer in batches, so
// per-particle appends avoid repeated small writes.
type Buffer struct {
	buf []Record
	idx int
	w   io.Writer
	err error
}

// NewBuffer creates a Buffer of the given batch size writing to w.
func NewBuffer(w io.Writer, bufSize int) *Buffer {
	if bufSize <= 0 {
		bufSize = 1024
	}
	return &Buffer{buf: make([]Record, bufSize), w: w}
}

// Append adds a record, flushing automatically when the buffer fills.
func (b *Buffer) Append(r Record) {
	b.buf[b.idx] = r
	b.idx++
	if b.idx == len(b.buf) {
		b.Flush()
	}
}

// Flush writes buffered records to the underlying writer.
func (b *Buffer) Flush() {
	if b.err != nil {
		b.idx = 0
		return
	}
	for i := 0; i < b.idx; i++ {
		if err := binary.Write(b.w, order, &b.buf[i]); err != nil {
			b.err = err
			break
		}
	}
	b.idx = 0
}

// Err reports the first write error encountered, if any.
func (b *Buffer) Err() error { return b.err }
