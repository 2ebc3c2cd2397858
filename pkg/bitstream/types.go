package bitstream

import (
	"errors"
	"fmt"
	"math"

	"github.com/vango-dev/gamewire/pkg/gametype"
)

// WriteGameType writes name as a code of the flat type table.
func (s *Stream) WriteGameType(name string) error {
	return s.writeType(s.Types().All(), name)
}

// ReadGameType reads a code of the flat type table and returns its name.
func (s *Stream) ReadGameType() (string, error) {
	return s.readType(s.Types().All())
}

// WriteTypeOf writes name as a code of one category table.
func (s *Stream) WriteTypeOf(cat gametype.Category, name string) error {
	reg, ok := s.Types().Category(cat)
	if !ok {
		return fmt.Errorf("%w: no category %q", ErrUnknownType, cat)
	}
	return s.writeType(reg, name)
}

// ReadTypeOf reads a code of one category table and returns its name.
func (s *Stream) ReadTypeOf(cat gametype.Category) (string, error) {
	reg, ok := s.Types().Category(cat)
	if !ok {
		return "", fmt.Errorf("%w: no category %q", ErrUnknownType, cat)
	}
	return s.readType(reg)
}

func (s *Stream) writeType(reg *gametype.Registry, name string) error {
	code, err := reg.Encode(name)
	if err != nil {
		return typeErr(err)
	}
	return s.WriteUint(reg.Bits(), uint64(code))
}

func (s *Stream) readType(reg *gametype.Registry) (string, error) {
	code, err := s.ReadUint(reg.Bits())
	if err != nil {
		return "", err
	}
	name, err := reg.Decode(uint32(code))
	if err != nil {
		return "", typeErr(err)
	}
	return name, nil
}

// typeErr re-labels a registry miss as a stream error while keeping the
// registry error in the chain.
func typeErr(err error) error {
	if errors.Is(err, gametype.ErrUnknownType) {
		return fmt.Errorf("%w: %w", ErrUnknownType, err)
	}
	return err
}

// Vec2 is a 2D vector carried as two quantized floats.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Grid is the set of 2^Bits evenly spaced points covering [Min, Max],
// both ends included. A quantized field travels as the code of one of
// its points, so only grid points survive a round trip unchanged.
type Grid struct {
	Min, Max float64
	Bits     int
}

func (g Grid) check() error {
	if g.Bits < 1 || g.Bits > 32 {
		return fmt.Errorf("%w: %d", ErrInvalidWidth, g.Bits)
	}
	if !(g.Max > g.Min) {
		return fmt.Errorf("%w: empty range [%v, %v]", ErrValueOutOfRange, g.Min, g.Max)
	}
	return nil
}

// MaxCode returns the code of Max.
func (g Grid) MaxCode() uint64 {
	return uint64(1)<<uint(g.Bits) - 1
}

// Value returns the grid point of code. Codes past MaxCode map to Max.
func (g Grid) Value(code uint64) float64 {
	top := g.MaxCode()
	if code >= top {
		return g.Max
	}
	return g.Min + (g.Max-g.Min)*float64(code)/float64(top)
}

// Code returns the code of the grid point nearest to v. Values outside
// [Min, Max] (or NaN) fail with ErrValueOutOfRange.
func (g Grid) Code(v float64) (uint64, error) {
	if err := g.check(); err != nil {
		return 0, err
	}
	if math.IsNaN(v) || v < g.Min || v > g.Max {
		return 0, fmt.Errorf("%w: %v not in [%v, %v]", ErrValueOutOfRange, v, g.Min, g.Max)
	}
	t := (v - g.Min) / (g.Max - g.Min)
	code := uint64(t*float64(g.MaxCode()) + 0.5)
	if code > g.MaxCode() {
		code = g.MaxCode()
	}
	return code, nil
}

// Snap returns the grid point nearest to v.
func (g Grid) Snap(v float64) (float64, error) {
	code, err := g.Code(v)
	if err != nil {
		return 0, err
	}
	return g.Value(code), nil
}

// WriteFloat writes v as a code of the grid of [min, max] on bits bits.
// v must be a grid point (see Grid.Snap): off-grid values, values outside
// the range and NaN fail with ErrValueOutOfRange.
func (s *Stream) WriteFloat(v, min, max float64, bits int) error {
	g := Grid{Min: min, Max: max, Bits: bits}
	code, err := g.Code(v)
	if err != nil {
		return err
	}
	if g.Value(code) != v {
		return fmt.Errorf("%w: %v is not a point of the %d-bit grid of [%v, %v]", ErrValueOutOfRange, v, bits, min, max)
	}
	return s.WriteUint(bits, code)
}

// ReadFloat reads a float written by WriteFloat with the same range and
// width.
func (s *Stream) ReadFloat(min, max float64, bits int) (float64, error) {
	g := Grid{Min: min, Max: max, Bits: bits}
	if err := g.check(); err != nil {
		return 0, err
	}
	code, err := s.ReadUint(bits)
	if err != nil {
		return 0, err
	}
	return g.Value(code), nil
}

// WriteVec writes both components of v with WriteFloat.
func (s *Stream) WriteVec(v Vec2, min, max Vec2, bits int) error {
	if err := s.WriteFloat(v.X, min.X, max.X, bits); err != nil {
		return err
	}
	return s.WriteFloat(v.Y, min.Y, max.Y, bits)
}

// ReadVec reads a vector written by WriteVec.
func (s *Stream) ReadVec(min, max Vec2, bits int) (Vec2, error) {
	x, err := s.ReadFloat(min.X, max.X, bits)
	if err != nil {
		return Vec2{}, err
	}
	y, err := s.ReadFloat(min.Y, max.Y, bits)
	if err != nil {
		return Vec2{}, err
	}
	return Vec2{X: x, Y: y}, nil
}

// WriteString writes str as bytes followed by a NUL terminator, or without
// the terminator when str is exactly maxLen bytes long. Strings longer
// than maxLen or containing NUL fail with ErrValueOutOfRange.
func (s *Stream) WriteString(str string, maxLen int) error {
	if len(str) > maxLen {
		return fmt.Errorf("%w: string of %d bytes exceeds %d", ErrValueOutOfRange, len(str), maxLen)
	}
	for i := 0; i < len(str); i++ {
		if str[i] == 0 {
			return fmt.Errorf("%w: string contains NUL at %d", ErrValueOutOfRange, i)
		}
	}
	n := len(str)
	if n < maxLen {
		n++
	}
	if err := s.checkWrite(n * 8); err != nil {
		return err
	}
	for i := 0; i < len(str); i++ {
		s.putBits(8, uint64(str[i]))
	}
	if len(str) < maxLen {
		s.putBits(8, 0)
	}
	return nil
}

// ReadString reads a string written by WriteString with the same maxLen.
func (s *Stream) ReadString(maxLen int) (string, error) {
	if maxLen < 0 {
		return "", fmt.Errorf("%w: negative length %d", ErrValueOutOfRange, maxLen)
	}
	out := make([]byte, 0, maxLen)
	for len(out) < maxLen {
		c, err := s.ReadUint8()
		if err != nil {
			return "", err
		}
		if c == 0 {
			break
		}
		out = append(out, c)
	}
	return string(out), nil
}
