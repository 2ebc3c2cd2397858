package msg

import (
	"github.com/vango-dev/gamewire/pkg/bitstream"
	"github.com/vango-dev/gamewire/pkg/gametype"
)

// RoleAnnouncement tells every client that a player received a role or
// that a role holder was killed.
//
// Wire format (protocol v1, 5 bytes):
//
//	[PlayerID: 16][KillerID: 16][Role: 5][Assigned: 1][Killed: 1][pad: 1]
type RoleAnnouncement struct {
	PlayerID uint16 `json:"playerId"`
	KillerID uint16 `json:"killerId"` // 0 if none
	Role     string `json:"role"`
	Assigned bool   `json:"assigned"`
	Killed   bool   `json:"killed"`
}

func (*RoleAnnouncement) Type() Type { return TypeRoleAnnouncement }

func (m *RoleAnnouncement) Serialize(s *bitstream.Stream) error {
	if err := s.WriteUint16(m.PlayerID); err != nil {
		return err
	}
	if err := s.WriteUint16(m.KillerID); err != nil {
		return err
	}
	if err := s.WriteTypeOf(gametype.Role, m.Role); err != nil {
		return err
	}
	if err := s.WriteBoolean(m.Assigned); err != nil {
		return err
	}
	if err := s.WriteBoolean(m.Killed); err != nil {
		return err
	}
	return s.WriteAlignToNextByte()
}

func (m *RoleAnnouncement) Deserialize(s *bitstream.Stream) error {
	var err error
	if m.PlayerID, err = s.ReadUint16(); err != nil {
		return err
	}
	if m.KillerID, err = s.ReadUint16(); err != nil {
		return err
	}
	if m.Role, err = s.ReadTypeOf(gametype.Role); err != nil {
		return err
	}
	if m.Assigned, err = s.ReadBoolean(); err != nil {
		return err
	}
	if m.Killed, err = s.ReadBoolean(); err != nil {
		return err
	}
	return s.ReadAlignToNextByte()
}

// PerkModeRoleSelect is sent by a client choosing its role in perk mode.
type PerkModeRoleSelect struct {
	Role string `json:"role"`
}

func (*PerkModeRoleSelect) Type() Type { return TypePerkModeRoleSelect }

func (m *PerkModeRoleSelect) Serialize(s *bitstream.Stream) error {
	if err := s.WriteTypeOf(gametype.Role, m.Role); err != nil {
		return err
	}
	return s.WriteAlignToNextByte()
}

func (m *PerkModeRoleSelect) Deserialize(s *bitstream.Stream) error {
	var err error
	if m.Role, err = s.ReadTypeOf(gametype.Role); err != nil {
		return err
	}
	return s.ReadAlignToNextByte()
}
