package capture

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"
)

// Recorder appends packets to a capture stream. It is safe for concurrent
// use; records from different goroutines are never interleaved.
type Recorder struct {
	mu      sync.Mutex
	w       io.Writer
	now     func() time.Time
	started bool
	count   int
	err     error
}

// NewRecorder returns a Recorder writing to w. The file header is written
// with the first record.
func NewRecorder(w io.Writer) *Recorder {
	return &Recorder{w: w, now: time.Now}
}

// Record appends one packet. After a write error every later call
// returns the same error.
func (r *Recorder) Record(dir Direction, packet []byte) error {
	if !dir.valid() {
		return fmt.Errorf("%w: %d", ErrInvalidDirection, dir)
	}
	if len(packet) > MaxRecordSize {
		return fmt.Errorf("%w: %d bytes", ErrRecordTooLarge, len(packet))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}

	buf := make([]byte, 0, fileHeaderSize+recordHeaderSize+len(packet))
	if !r.started {
		buf = append(buf, Magic...)
		buf = append(buf, FormatVersion)
	}
	buf = binary.BigEndian.AppendUint64(buf, uint64(r.now().UnixMilli()))
	buf = append(buf, byte(dir))
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(packet)))
	buf = append(buf, packet...)

	if _, err := r.w.Write(buf); err != nil {
		r.err = fmt.Errorf("capture: write: %w", err)
		return r.err
	}
	r.started = true
	r.count++
	return nil
}

// Count returns the number of records written.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}
