package msg

import (
	"github.com/vango-dev/gamewire/pkg/bitstream"
)

// DamageType says what dealt the final blow of a Kill.
type DamageType uint8

const (
	DamagePlayer    DamageType = 0x00
	DamageBleeding  DamageType = 0x01
	DamageGas       DamageType = 0x02
	DamageAirdrop   DamageType = 0x03
	DamageAirstrike DamageType = 0x04
)

// String returns the name of the damage type.
func (d DamageType) String() string {
	switch d {
	case DamagePlayer:
		return "Player"
	case DamageBleeding:
		return "Bleeding"
	case DamageGas:
		return "Gas"
	case DamageAirdrop:
		return "Airdrop"
	case DamageAirstrike:
		return "Airstrike"
	default:
		return "Unknown"
	}
}

// Kill feeds one knock-down or kill into the kill feed.
type Kill struct {
	DamageType     DamageType `json:"damageType"`
	ItemSourceType string     `json:"itemSourceType,omitempty"`
	TargetID       uint16     `json:"targetId"`
	KillerID       uint16     `json:"killerId"`
	KillCreditID   uint16     `json:"killCreditId"`
	KillerKills    uint8      `json:"killerKills"`
	Downed         bool       `json:"downed"`
	Killed         bool       `json:"killed"`
}

func (*Kill) Type() Type { return TypeKill }

func (m *Kill) Serialize(s *bitstream.Stream) error {
	if err := s.WriteUint8(uint8(m.DamageType)); err != nil {
		return err
	}
	if err := s.WriteGameType(m.ItemSourceType); err != nil {
		return err
	}
	if err := s.WriteUint16(m.TargetID); err != nil {
		return err
	}
	if err := s.WriteUint16(m.KillerID); err != nil {
		return err
	}
	if err := s.WriteUint16(m.KillCreditID); err != nil {
		return err
	}
	if err := s.WriteUint8(m.KillerKills); err != nil {
		return err
	}
	if err := s.WriteBoolean(m.Downed); err != nil {
		return err
	}
	if err := s.WriteBoolean(m.Killed); err != nil {
		return err
	}
	return s.WriteAlignToNextByte()
}

func (m *Kill) Deserialize(s *bitstream.Stream) error {
	dt, err := s.ReadUint8()
	if err != nil {
		return err
	}
	m.DamageType = DamageType(dt)
	if m.ItemSourceType, err = s.ReadGameType(); err != nil {
		return err
	}
	if m.TargetID, err = s.ReadUint16(); err != nil {
		return err
	}
	if m.KillerID, err = s.ReadUint16(); err != nil {
		return err
	}
	if m.KillCreditID, err = s.ReadUint16(); err != nil {
		return err
	}
	if m.KillerKills, err = s.ReadUint8(); err != nil {
		return err
	}
	if m.Downed, err = s.ReadBoolean(); err != nil {
		return err
	}
	if m.Killed, err = s.ReadBoolean(); err != nil {
		return err
	}
	return s.ReadAlignToNextByte()
}
