package capture

import (
	"errors"
	"time"
)

// File layout:
//
//	┌──────────────┬─────────────┐
//	│ Magic "GWCP" │ Version     │
//	│ (4 bytes)    │ (1 byte)    │
//	└──────────────┴─────────────┘
//	then records, each:
//	┌──────────────────┬─────────────┬──────────────┬──────────────┐
//	│ Unix millis      │ Direction   │ Length       │ Packet       │
//	│ (8 bytes, BE)    │ (1 byte)    │ (4 bytes, BE)│ (Length)     │
//	└──────────────────┴─────────────┴──────────────┴──────────────┘
const (
	Magic         = "GWCP"
	FormatVersion = 1

	fileHeaderSize   = 5
	recordHeaderSize = 13

	// MaxRecordSize bounds a single captured packet.
	MaxRecordSize = 1 << 20
)

// Capture errors.
var (
	ErrBadMagic           = errors.New("capture: not a capture file")
	ErrUnsupportedVersion = errors.New("capture: unsupported format version")
	ErrInvalidDirection   = errors.New("capture: invalid direction")
	ErrRecordTooLarge     = errors.New("capture: record too large")
	ErrNotFound           = errors.New("capture: not found")
	ErrInvalidKey         = errors.New("capture: invalid key")
)

// Direction says which way a captured packet travelled.
type Direction uint8

const (
	Inbound  Direction = 0x01 // Peer → local
	Outbound Direction = 0x02 // Local → peer
)

// String returns the string representation of the direction.
func (d Direction) String() string {
	switch d {
	case Inbound:
		return "in"
	case Outbound:
		return "out"
	default:
		return "unknown"
	}
}

func (d Direction) valid() bool {
	return d == Inbound || d == Outbound
}

// Record is one captured packet.
type Record struct {
	Time   time.Time
	Dir    Direction
	Packet []byte
}
