package msg

import (
	"fmt"

	"github.com/vango-dev/gamewire/pkg/bitstream"
	"github.com/vango-dev/gamewire/pkg/gametype"
)

// PickupKind is the outcome of a pickup attempt.
type PickupKind uint8

const (
	PickupFull               PickupKind = 0
	PickupAlreadyOwned       PickupKind = 1
	PickupAlreadyEquipped    PickupKind = 2
	PickupBetterItemEquipped PickupKind = 3
	PickupSuccess            PickupKind = 4
	PickupGunCannotFire      PickupKind = 5

	pickupKindBits = 3
)

// String returns the name of the pickup outcome.
func (k PickupKind) String() string {
	switch k {
	case PickupFull:
		return "Full"
	case PickupAlreadyOwned:
		return "AlreadyOwned"
	case PickupAlreadyEquipped:
		return "AlreadyEquipped"
	case PickupBetterItemEquipped:
		return "BetterItemEquipped"
	case PickupSuccess:
		return "Success"
	case PickupGunCannotFire:
		return "GunCannotFire"
	default:
		return "Unknown"
	}
}

// Pickup reports the result of picking up loot.
type Pickup struct {
	Kind  PickupKind `json:"kind"`
	Item  string     `json:"item,omitempty"`
	Count uint8      `json:"count"`
}

func (*Pickup) Type() Type { return TypePickup }

func (m *Pickup) Serialize(s *bitstream.Stream) error {
	if err := s.WriteUint(pickupKindBits, uint64(m.Kind)); err != nil {
		return err
	}
	if err := s.WriteGameType(m.Item); err != nil {
		return err
	}
	if err := s.WriteUint8(m.Count); err != nil {
		return err
	}
	return s.WriteAlignToNextByte()
}

func (m *Pickup) Deserialize(s *bitstream.Stream) error {
	k, err := s.ReadUint(pickupKindBits)
	if err != nil {
		return err
	}
	if k > uint64(PickupGunCannotFire) {
		return fmt.Errorf("%w: pickup kind %d", bitstream.ErrValueOutOfRange, k)
	}
	m.Kind = PickupKind(k)
	if m.Item, err = s.ReadGameType(); err != nil {
		return err
	}
	if m.Count, err = s.ReadUint8(); err != nil {
		return err
	}
	return s.ReadAlignToNextByte()
}

// DropItem asks the server to drop an item or the weapon in a slot.
type DropItem struct {
	Item    string `json:"item"`
	WeapIdx uint8  `json:"weapIdx"`
}

func (*DropItem) Type() Type { return TypeDropItem }

func (m *DropItem) Serialize(s *bitstream.Stream) error {
	if err := s.WriteGameType(m.Item); err != nil {
		return err
	}
	if err := s.WriteUint8(m.WeapIdx); err != nil {
		return err
	}
	return s.WriteAlignToNextByte()
}

func (m *DropItem) Deserialize(s *bitstream.Stream) error {
	var err error
	if m.Item, err = s.ReadGameType(); err != nil {
		return err
	}
	if m.WeapIdx, err = s.ReadUint8(); err != nil {
		return err
	}
	return s.ReadAlignToNextByte()
}

// Emote places an emote or a map ping. Pos holds the codes of the
// position on EmotePosGrid; Position and SetPosition convert to and from
// map coordinates.
type Emote struct {
	Pos    [2]uint16 `json:"pos"`
	Emote  string    `json:"emote"`
	IsPing bool      `json:"isPing"`
}

// MapSize bounds the emote position on both axes.
const MapSize = 1024

const emotePosBits = 16

// EmotePosGrid is the grid of both Emote position axes.
var EmotePosGrid = bitstream.Grid{Min: 0, Max: MapSize, Bits: emotePosBits}

// SetPosition stores p as its nearest grid codes. Coordinates outside
// [0, MapSize] fail with bitstream.ErrValueOutOfRange.
func (m *Emote) SetPosition(p bitstream.Vec2) error {
	x, err := EmotePosGrid.Code(p.X)
	if err != nil {
		return err
	}
	y, err := EmotePosGrid.Code(p.Y)
	if err != nil {
		return err
	}
	m.Pos = [2]uint16{uint16(x), uint16(y)}
	return nil
}

// Position returns the map coordinates held in Pos.
func (m *Emote) Position() bitstream.Vec2 {
	return bitstream.Vec2{
		X: EmotePosGrid.Value(uint64(m.Pos[0])),
		Y: EmotePosGrid.Value(uint64(m.Pos[1])),
	}
}

func (*Emote) Type() Type { return TypeEmote }

func (m *Emote) Serialize(s *bitstream.Stream) error {
	for _, c := range m.Pos {
		if err := s.WriteUint16(c); err != nil {
			return err
		}
	}
	if err := s.WriteTypeOf(gametype.Emote, m.Emote); err != nil {
		return err
	}
	if err := s.WriteBoolean(m.IsPing); err != nil {
		return err
	}
	return s.WriteAlignToNextByte()
}

func (m *Emote) Deserialize(s *bitstream.Stream) error {
	var err error
	for i := range m.Pos {
		if m.Pos[i], err = s.ReadUint16(); err != nil {
			return err
		}
	}
	if m.Emote, err = s.ReadTypeOf(gametype.Emote); err != nil {
		return err
	}
	if m.IsPing, err = s.ReadBoolean(); err != nil {
		return err
	}
	return s.ReadAlignToNextByte()
}

// Spectate carries spectator controls.
type Spectate struct {
	SpecBegin bool `json:"specBegin"`
	SpecNext  bool `json:"specNext"`
	SpecPrev  bool `json:"specPrev"`
	SpecForce bool `json:"specForce"`
}

func (*Spectate) Type() Type { return TypeSpectate }

func (m *Spectate) Serialize(s *bitstream.Stream) error {
	for _, b := range []bool{m.SpecBegin, m.SpecNext, m.SpecPrev, m.SpecForce} {
		if err := s.WriteBoolean(b); err != nil {
			return err
		}
	}
	return s.WriteAlignToNextByte()
}

func (m *Spectate) Deserialize(s *bitstream.Stream) error {
	var err error
	for _, b := range []*bool{&m.SpecBegin, &m.SpecNext, &m.SpecPrev, &m.SpecForce} {
		if *b, err = s.ReadBoolean(); err != nil {
			return err
		}
	}
	return s.ReadAlignToNextByte()
}
