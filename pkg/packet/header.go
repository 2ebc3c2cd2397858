package packet

import (
	"errors"
	"fmt"
	"io"
)

const (
	// HeaderSize is the size of the packet header in bytes.
	HeaderSize = 4

	// MaxPayloadSize is the largest payload the header can describe.
	MaxPayloadSize = 65535
)

// Flags are per-packet processing flags.
type Flags uint8

const (
	FlagCompressed Flags = 0x01 // Payload is brotli compressed

	knownFlags = FlagCompressed
)

// Has returns true if the flags contain the specified flag.
func (f Flags) Has(flag Flags) bool {
	return f&flag != 0
}

// Packet errors.
var (
	ErrVersionMismatch = errors.New("packet: protocol version mismatch")
	ErrPacketTooLarge  = errors.New("packet: payload too large")
	ErrInvalidFlags    = errors.New("packet: invalid flags")
	ErrTrailingData    = errors.New("packet: trailing data after payload")
)

// Header is the fixed prefix of every packet.
//
// Wire format (4 bytes header + variable payload):
//
//	┌─────────────┬──────────────┬───────────────────────────────┐
//	│ Version     │ Flags        │ Payload Length                │
//	│ (1 byte)    │ (1 byte)     │ (2 bytes, big-endian)         │
//	└─────────────┴──────────────┴───────────────────────────────┘
//	│                                                             │
//	│  Payload: ([msg type: 8 bits][msg body, byte aligned])*     │
//	│                                                             │
//	└─────────────────────────────────────────────────────────────┘
type Header struct {
	Version uint8
	Flags   Flags
	Length  int
}

// ParseHeader decodes the header at the start of data.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, io.ErrUnexpectedEOF
	}
	h := Header{
		Version: data[0],
		Flags:   Flags(data[1]),
		Length:  int(data[2])<<8 | int(data[3]),
	}
	if h.Flags&^knownFlags != 0 {
		return h, fmt.Errorf("%w: %#02x", ErrInvalidFlags, uint8(h.Flags))
	}
	return h, nil
}

// appendTo appends the encoded header to buf.
func (h Header) appendTo(buf []byte) []byte {
	return append(buf, h.Version, byte(h.Flags), byte(h.Length>>8), byte(h.Length))
}

// ReadPacket reads one complete packet, header included, from r.
func ReadPacket(r io.Reader) ([]byte, error) {
	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	h, err := ParseHeader(hdr[:])
	if err != nil {
		return nil, err
	}

	data := make([]byte, HeaderSize+h.Length)
	copy(data, hdr[:])
	if h.Length > 0 {
		if _, err := io.ReadFull(r, data[HeaderSize:]); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
	}
	return data, nil
}

// WritePacket writes a packet produced by Codec.Encode to w. The header
// length must match the payload.
func WritePacket(w io.Writer, data []byte) error {
	h, err := ParseHeader(data)
	if err != nil {
		return err
	}
	switch n := len(data) - HeaderSize; {
	case n < h.Length:
		return io.ErrUnexpectedEOF
	case n > h.Length:
		return ErrTrailingData
	}
	_, err = w.Write(data)
	return err
}
