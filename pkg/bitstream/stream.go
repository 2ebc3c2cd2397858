package bitstream

import (
	"errors"
	"fmt"

	"github.com/vango-dev/gamewire/pkg/gametype"
)

// Stream errors. Every one of them leaves the stream unusable for the
// message being processed: callers drop the message, they do not resume.
var (
	ErrBufferOverflow  = errors.New("bitstream: buffer overflow")
	ErrBufferUnderflow = errors.New("bitstream: buffer underflow")
	ErrUnknownType     = errors.New("bitstream: unknown game type")
	ErrValueOutOfRange = errors.New("bitstream: value out of range")
	ErrInvalidWidth    = errors.New("bitstream: invalid bit width")
)

// MaxUintBits is the widest unsigned field WriteUint accepts.
const MaxUintBits = 64

// Stream is a read/write cursor over a fixed byte buffer, addressed in
// bits. Fields are packed most significant bit first.
//
// A Stream is not safe for concurrent use; it belongs to the single
// serialize or deserialize call working on it.
type Stream struct {
	buf   []byte
	pos   int // cursor, in bits
	end   int // written length, in bits
	types *gametype.Set
}

// Option configures a Stream.
type Option func(*Stream)

// WithTypes sets the type table used by the game type accessors.
// The default is gametype.Default().
func WithTypes(set *gametype.Set) Option {
	return func(s *Stream) {
		s.types = set
	}
}

// New creates an empty stream that can hold capacity bytes.
func New(capacity int, opts ...Option) *Stream {
	if capacity < 0 {
		capacity = 0
	}
	s := &Stream{buf: make([]byte, capacity)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FromBytes creates a stream positioned at the start of data, with all of
// data readable. The stream uses data directly; do not modify it while the
// stream is in use.
func FromBytes(data []byte, opts ...Option) *Stream {
	s := &Stream{buf: data, end: len(data) * 8}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Types returns the type table of the stream.
func (s *Stream) Types() *gametype.Set {
	if s.types == nil {
		s.types = gametype.Default()
	}
	return s.types
}

// Pos returns the cursor position in bits.
func (s *Stream) Pos() int {
	return s.pos
}

// Len returns the number of bits written (or readable).
func (s *Stream) Len() int {
	return s.end
}

// Cap returns the capacity in bits.
func (s *Stream) Cap() int {
	return len(s.buf) * 8
}

// Remaining returns the number of readable bits after the cursor.
func (s *Stream) Remaining() int {
	return s.end - s.pos
}

// Bytes returns the written bytes, including a partially written last
// byte. The slice aliases the stream buffer.
func (s *Stream) Bytes() []byte {
	return s.buf[:(s.end+7)/8]
}

// Rewind moves the cursor back to the start, keeping the written data so
// it can be read back.
func (s *Stream) Rewind() {
	s.pos = 0
}

// Reset empties the stream for reuse. The written bytes are zeroed,
// which for streams made with FromBytes is all of the caller's slice.
// Bytes past the written end are never touched by writes, so they are
// still zero.
func (s *Stream) Reset() {
	clear(s.buf[:(s.end+7)/8])
	s.pos = 0
	s.end = 0
}

func (s *Stream) checkWrite(bits int) error {
	if s.pos+bits > len(s.buf)*8 {
		return fmt.Errorf("%w: need %d bits at %d, capacity %d", ErrBufferOverflow, bits, s.pos, len(s.buf)*8)
	}
	return nil
}

func (s *Stream) checkRead(bits int) error {
	if s.pos+bits > s.end {
		return fmt.Errorf("%w: need %d bits at %d, have %d", ErrBufferUnderflow, bits, s.pos, s.end)
	}
	return nil
}

// putBits writes the low n bits of v at the cursor. Bounds are checked by
// the caller.
func (s *Stream) putBits(n int, v uint64) {
	for n > 0 {
		byteIdx := s.pos >> 3
		bitOff := s.pos & 7
		free := 8 - bitOff
		take := free
		if n < take {
			take = n
		}
		chunk := byte(v>>uint(n-take)) & byte(1<<uint(take)-1)
		shift := uint(free - take)
		mask := byte(1<<uint(take)-1) << shift
		s.buf[byteIdx] = s.buf[byteIdx]&^mask | chunk<<shift
		s.pos += take
		n -= take
	}
	if s.pos > s.end {
		s.end = s.pos
	}
}

// getBits reads n bits at the cursor. Bounds are checked by the caller.
func (s *Stream) getBits(n int) uint64 {
	var v uint64
	for n > 0 {
		byteIdx := s.pos >> 3
		bitOff := s.pos & 7
		free := 8 - bitOff
		take := free
		if n < take {
			take = n
		}
		shift := uint(free - take)
		chunk := (s.buf[byteIdx] >> shift) & byte(1<<uint(take)-1)
		v = v<<uint(take) | uint64(chunk)
		s.pos += take
		n -= take
	}
	return v
}

// WriteUint writes v using exactly bits bits. Values that do not fit fail
// with ErrValueOutOfRange instead of being truncated.
func (s *Stream) WriteUint(bits int, v uint64) error {
	if bits < 0 || bits > MaxUintBits {
		return fmt.Errorf("%w: %d", ErrInvalidWidth, bits)
	}
	if bits < MaxUintBits && v>>uint(bits) != 0 {
		return fmt.Errorf("%w: %d does not fit in %d bits", ErrValueOutOfRange, v, bits)
	}
	if err := s.checkWrite(bits); err != nil {
		return err
	}
	s.putBits(bits, v)
	return nil
}

// ReadUint reads an unsigned integer of exactly bits bits.
func (s *Stream) ReadUint(bits int) (uint64, error) {
	if bits < 0 || bits > MaxUintBits {
		return 0, fmt.Errorf("%w: %d", ErrInvalidWidth, bits)
	}
	if err := s.checkRead(bits); err != nil {
		return 0, err
	}
	return s.getBits(bits), nil
}

// WriteUint8 writes an 8-bit unsigned integer.
func (s *Stream) WriteUint8(v uint8) error {
	return s.WriteUint(8, uint64(v))
}

// ReadUint8 reads an 8-bit unsigned integer.
func (s *Stream) ReadUint8() (uint8, error) {
	v, err := s.ReadUint(8)
	return uint8(v), err
}

// WriteUint16 writes a 16-bit unsigned integer.
func (s *Stream) WriteUint16(v uint16) error {
	return s.WriteUint(16, uint64(v))
}

// ReadUint16 reads a 16-bit unsigned integer.
func (s *Stream) ReadUint16() (uint16, error) {
	v, err := s.ReadUint(16)
	return uint16(v), err
}

// WriteUint32 writes a 32-bit unsigned integer.
func (s *Stream) WriteUint32(v uint32) error {
	return s.WriteUint(32, uint64(v))
}

// ReadUint32 reads a 32-bit unsigned integer.
func (s *Stream) ReadUint32() (uint32, error) {
	v, err := s.ReadUint(32)
	return uint32(v), err
}

// WriteInt writes a two's complement signed integer of bits bits.
func (s *Stream) WriteInt(bits int, v int64) error {
	if bits < 1 || bits > MaxUintBits {
		return fmt.Errorf("%w: %d", ErrInvalidWidth, bits)
	}
	if bits < MaxUintBits {
		lo := -(int64(1) << uint(bits-1))
		hi := int64(1)<<uint(bits-1) - 1
		if v < lo || v > hi {
			return fmt.Errorf("%w: %d does not fit in %d signed bits", ErrValueOutOfRange, v, bits)
		}
	}
	u := uint64(v)
	if bits < MaxUintBits {
		u &= 1<<uint(bits) - 1
	}
	return s.WriteUint(bits, u)
}

// ReadInt reads a two's complement signed integer of bits bits.
func (s *Stream) ReadInt(bits int) (int64, error) {
	if bits < 1 || bits > MaxUintBits {
		return 0, fmt.Errorf("%w: %d", ErrInvalidWidth, bits)
	}
	u, err := s.ReadUint(bits)
	if err != nil {
		return 0, err
	}
	shift := uint(MaxUintBits - bits)
	return int64(u<<shift) >> shift, nil
}

// WriteBoolean writes a single bit.
func (s *Stream) WriteBoolean(b bool) error {
	var v uint64
	if b {
		v = 1
	}
	return s.WriteUint(1, v)
}

// ReadBoolean reads a single bit.
func (s *Stream) ReadBoolean() (bool, error) {
	v, err := s.ReadUint(1)
	return v == 1, err
}

// WriteAlignToNextByte pads the stream with zero bits up to the next byte
// boundary. At a boundary it writes nothing.
func (s *Stream) WriteAlignToNextByte() error {
	pad := (8 - s.pos&7) & 7
	if err := s.checkWrite(pad); err != nil {
		return err
	}
	s.putBits(pad, 0)
	return nil
}

// ReadAlignToNextByte skips to the next byte boundary. At a boundary it
// skips nothing.
func (s *Stream) ReadAlignToNextByte() error {
	pad := (8 - s.pos&7) & 7
	if err := s.checkRead(pad); err != nil {
		return err
	}
	s.pos += pad
	return nil
}

// WriteBytes writes b as whole bytes, 8 bits each, at the current cursor
// (which need not be aligned).
func (s *Stream) WriteBytes(b []byte) error {
	if err := s.checkWrite(len(b) * 8); err != nil {
		return err
	}
	for _, c := range b {
		s.putBits(8, uint64(c))
	}
	return nil
}

// ReadBytes reads n bytes.
func (s *Stream) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative length %d", ErrValueOutOfRange, n)
	}
	if err := s.checkRead(n * 8); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(s.getBits(8))
	}
	return out, nil
}
