// Package output serializes validated frames. The default mode is the
// line-oriented MLAT text format; the raw mode packs each frame with a
// wall-clock timestamp into a fixed 24-byte record.
package output

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"

	"stream1090/internal/adsb"
)

const (
	longFrameMask  uint64 = 0xFFFFFFFFFFFF
	shortFrameMask uint64 = 0xFFFFFFFFFFFFFF
	mlatMask       uint64 = 0xFFFFFFFFFFFF // 48-bit timestamp
)

// MlatWriter writes one ASCII line per frame: '@', twelve hex digits of
// the 48-bit 12 MHz timestamp, the frame in hex and a trailing ';'.
type MlatWriter struct {
	mu sync.Mutex
	w  *bufio.Writer
}

// NewMlatWriter creates a buffered MLAT text writer on w.
func NewMlatWriter(w io.Writer) *MlatWriter {
	return &MlatWriter{w: bufio.NewWriter(w)}
}

func (m *MlatWriter) WriteLong(timestamp uint64, frame adsb.Bits128) {
	m.mu.Lock()
	fmt.Fprintf(m.w, "@%012X%012X%016X;\n", timestamp&mlatMask, frame.Hi&longFrameMask, frame.Lo)
	m.mu.Unlock()
}

func (m *MlatWriter) WriteShort(timestamp uint64, frame adsb.Bits128) {
	m.mu.Lock()
	fmt.Fprintf(m.w, "@%012X%014X;\n", timestamp&mlatMask, frame.Lo&shortFrameMask)
	m.mu.Unlock()
}

// Flush forces buffered lines out.
func (m *MlatWriter) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.w.Flush()
}

// RawWriter writes 24 bytes per frame: the low 64 bits, the high 64 bits
// (zero for short frames) and a wall-clock millisecond timestamp.
type RawWriter struct {
	mu  sync.Mutex
	w   *bufio.Writer
	now func() time.Time
}

// NewRawWriter creates a raw binary writer on w.
func NewRawWriter(w io.Writer) *RawWriter {
	return &RawWriter{w: bufio.NewWriter(w), now: time.Now}
}

func (r *RawWriter) writeRecord(lo, hi uint64) {
	var rec [24]byte
	binary.LittleEndian.PutUint64(rec[0:], lo)
	binary.LittleEndian.PutUint64(rec[8:], hi)
	binary.LittleEndian.PutUint64(rec[16:], uint64(r.now().UnixMilli()))
	r.mu.Lock()
	r.w.Write(rec[:])
	r.mu.Unlock()
}

func (r *RawWriter) WriteLong(_ uint64, frame adsb.Bits128) {
	r.writeRecord(frame.Lo, frame.Hi&longFrameMask)
}

func (r *RawWriter) WriteShort(_ uint64, frame adsb.Bits128) {
	r.writeRecord(frame.Lo&shortFrameMask, 0)
}

// Flush forces buffered records out.
func (r *RawWriter) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.w.Flush()
}

// Tee duplicates frames to several writers, e.g. stdout plus a rotated
// log file.
type Tee struct {
	writers []FlushingFrameWriter
}

// FlushingFrameWriter is a frame writer that can flush buffered output.
type FlushingFrameWriter interface {
	adsb.FrameWriter
	Flush() error
}

// NewTee creates a writer fanning out to ws.
func NewTee(ws ...FlushingFrameWriter) *Tee {
	return &Tee{writers: ws}
}

func (t *Tee) WriteLong(timestamp uint64, frame adsb.Bits128) {
	for _, w := range t.writers {
		w.WriteLong(timestamp, frame)
	}
}

func (t *Tee) WriteShort(timestamp uint64, frame adsb.Bits128) {
	for _, w := range t.writers {
		w.WriteShort(timestamp, frame)
	}
}

// Flush flushes every underlying writer, returning the first error.
func (t *Tee) Flush() error {
	var first error
	for _, w := range t.writers {
		if err := w.Flush(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
