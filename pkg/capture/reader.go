package capture

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

// Reader iterates the records of a capture stream.
type Reader struct {
	r io.Reader
}

// NewReader reads and checks the file header.
func NewReader(r io.Reader) (*Reader, error) {
	var hdr [fileHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, ErrBadMagic
		}
		return nil, err
	}
	if string(hdr[:4]) != Magic {
		return nil, ErrBadMagic
	}
	if hdr[4] != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, hdr[4])
	}
	return &Reader{r: r}, nil
}

// Next returns the next record. It returns io.EOF after the last record
// and io.ErrUnexpectedEOF when the stream ends inside a record.
func (r *Reader) Next() (Record, error) {
	var hdr [recordHeaderSize]byte
	if _, err := io.ReadFull(r.r, hdr[:]); err != nil {
		return Record{}, err
	}

	millis := binary.BigEndian.Uint64(hdr[0:8])
	dir := Direction(hdr[8])
	n := binary.BigEndian.Uint32(hdr[9:13])

	if !dir.valid() {
		return Record{}, fmt.Errorf("%w: %d", ErrInvalidDirection, dir)
	}
	if n > MaxRecordSize {
		return Record{}, fmt.Errorf("%w: %d bytes", ErrRecordTooLarge, n)
	}

	packet := make([]byte, n)
	if _, err := io.ReadFull(r.r, packet); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return Record{}, err
	}
	return Record{
		Time:   time.UnixMilli(int64(millis)),
		Dir:    dir,
		Packet: packet,
	}, nil
}

// ReadAll reads every record of a capture stream.
func ReadAll(r io.Reader) ([]Record, error) {
	cr, err := NewReader(r)
	if err != nil {
		return nil, err
	}
	var out []Record
	for {
		rec, err := cr.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}
