package msg

import (
	"fmt"

	"github.com/vango-dev/gamewire/pkg/bitstream"
)

const (
	// MaxInputs is the number of discrete inputs one Input message holds.
	MaxInputs = 7

	// MaxMouseLen is the upper bound of the mouse distance of Input.
	MaxMouseLen = 64

	inputCountBits = 4
	mouseDirBits   = 10
	mouseLenBits   = 8
)

// Grids of the quantized Input fields.
var (
	MouseDirGrid = bitstream.Grid{Min: -1, Max: 1, Bits: mouseDirBits}
	MouseLenGrid = bitstream.Grid{Min: 0, Max: MaxMouseLen, Bits: mouseLenBits}
)

// Input is the client input snapshot sent every tick. The mouse fields
// hold grid codes, the form they travel in: ToMouseDir is a code pair of
// MouseDirGrid and ToMouseLen a code of MouseLenGrid. SetMouse and the
// MouseDir and MouseLen accessors convert from and to floats.
type Input struct {
	Seq        uint8     `json:"seq"`
	MoveLeft   bool      `json:"moveLeft"`
	MoveRight  bool      `json:"moveRight"`
	MoveUp     bool      `json:"moveUp"`
	MoveDown   bool      `json:"moveDown"`
	ToMouseDir [2]uint16 `json:"toMouseDir"`
	ToMouseLen uint8     `json:"toMouseLen"`
	Shoot      bool      `json:"shoot"`
	Inputs     []uint8   `json:"inputs,omitempty"`
	UseItem    string    `json:"useItem,omitempty"`
}

// SetMouse stores dir and length as their nearest grid codes. Components
// outside [-1, 1] or a length outside [0, MaxMouseLen] fail with
// bitstream.ErrValueOutOfRange and leave m unchanged.
func (m *Input) SetMouse(dir bitstream.Vec2, length float64) error {
	x, err := MouseDirGrid.Code(dir.X)
	if err != nil {
		return err
	}
	y, err := MouseDirGrid.Code(dir.Y)
	if err != nil {
		return err
	}
	l, err := MouseLenGrid.Code(length)
	if err != nil {
		return err
	}
	m.ToMouseDir = [2]uint16{uint16(x), uint16(y)}
	m.ToMouseLen = uint8(l)
	return nil
}

// MouseDir returns the direction held in ToMouseDir.
func (m *Input) MouseDir() bitstream.Vec2 {
	return bitstream.Vec2{
		X: MouseDirGrid.Value(uint64(m.ToMouseDir[0])),
		Y: MouseDirGrid.Value(uint64(m.ToMouseDir[1])),
	}
}

// MouseLen returns the distance held in ToMouseLen.
func (m *Input) MouseLen() float64 {
	return MouseLenGrid.Value(uint64(m.ToMouseLen))
}

func (*Input) Type() Type { return TypeInput }

func (m *Input) Serialize(s *bitstream.Stream) error {
	if len(m.Inputs) > MaxInputs {
		return fmt.Errorf("%w: %d inputs, max %d", ErrTooMany, len(m.Inputs), MaxInputs)
	}
	if err := s.WriteUint8(m.Seq); err != nil {
		return err
	}
	for _, b := range []bool{m.MoveLeft, m.MoveRight, m.MoveUp, m.MoveDown} {
		if err := s.WriteBoolean(b); err != nil {
			return err
		}
	}
	for _, c := range m.ToMouseDir {
		if err := s.WriteUint(mouseDirBits, uint64(c)); err != nil {
			return err
		}
	}
	if err := s.WriteUint(mouseLenBits, uint64(m.ToMouseLen)); err != nil {
		return err
	}
	if err := s.WriteBoolean(m.Shoot); err != nil {
		return err
	}
	if err := s.WriteUint(inputCountBits, uint64(len(m.Inputs))); err != nil {
		return err
	}
	for _, in := range m.Inputs {
		if err := s.WriteUint8(in); err != nil {
			return err
		}
	}
	if err := s.WriteGameType(m.UseItem); err != nil {
		return err
	}
	return s.WriteAlignToNextByte()
}

func (m *Input) Deserialize(s *bitstream.Stream) error {
	var err error
	if m.Seq, err = s.ReadUint8(); err != nil {
		return err
	}
	for _, b := range []*bool{&m.MoveLeft, &m.MoveRight, &m.MoveUp, &m.MoveDown} {
		if *b, err = s.ReadBoolean(); err != nil {
			return err
		}
	}
	for i := range m.ToMouseDir {
		c, err := s.ReadUint(mouseDirBits)
		if err != nil {
			return err
		}
		m.ToMouseDir[i] = uint16(c)
	}
	if m.ToMouseLen, err = s.ReadUint8(); err != nil {
		return err
	}
	if m.Shoot, err = s.ReadBoolean(); err != nil {
		return err
	}
	n, err := s.ReadUint(inputCountBits)
	if err != nil {
		return err
	}
	if n > MaxInputs {
		return fmt.Errorf("%w: %d inputs, max %d", ErrTooMany, n, MaxInputs)
	}
	m.Inputs = nil
	if n > 0 {
		m.Inputs = make([]uint8, n)
		for i := range m.Inputs {
			if m.Inputs[i], err = s.ReadUint8(); err != nil {
				return err
			}
		}
	}
	if m.UseItem, err = s.ReadGameType(); err != nil {
		return err
	}
	return s.ReadAlignToNextByte()
}
