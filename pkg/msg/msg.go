package msg

import (
	"errors"
	"fmt"

	"github.com/vango-dev/gamewire/pkg/bitstream"
)

// Type is the discriminator the packet layer writes before a message body.
type Type uint8

const (
	TypeNone               Type = 0x00 // Reserved
	TypeJoin               Type = 0x01 // Client asks to join a game
	TypeDisconnect         Type = 0x02 // Server drops the client
	TypeJoined             Type = 0x03 // Server accepted the join
	TypeInput              Type = 0x04 // Client input snapshot
	TypeKill               Type = 0x05 // Kill feed event
	TypePickup             Type = 0x06 // Pickup result
	TypeSpectate           Type = 0x07 // Spectator controls
	TypeDropItem           Type = 0x08 // Client drops an item
	TypeEmote              Type = 0x09 // Emote or map ping
	TypeAliveCounts        Type = 0x0A // Players alive per team
	TypePlayerStats        Type = 0x0B // Stats of one player
	TypeGameOver           Type = 0x0C // End of game summary
	TypePerkModeRoleSelect Type = 0x0D // Client picks a role
	TypeRoleAnnouncement   Type = 0x0E // Role assigned or role holder killed
)

// Message errors.
var (
	ErrUnknownMsgType = errors.New("msg: unknown message type")
	ErrTooMany        = errors.New("msg: too many elements")
)

// Msg is implemented by every message type. Serialize writes every field
// in declared order and ends at a byte boundary; Deserialize reads the same
// fields in the same order and widths. A message body carries no length
// or type tag of its own.
type Msg interface {
	Type() Type
	Serialize(s *bitstream.Stream) error
	Deserialize(s *bitstream.Stream) error
}

var typeNames = map[Type]string{
	TypeJoin:               "Join",
	TypeDisconnect:         "Disconnect",
	TypeJoined:             "Joined",
	TypeInput:              "Input",
	TypeKill:               "Kill",
	TypePickup:             "Pickup",
	TypeSpectate:           "Spectate",
	TypeDropItem:           "DropItem",
	TypeEmote:              "Emote",
	TypeAliveCounts:        "AliveCounts",
	TypePlayerStats:        "PlayerStats",
	TypeGameOver:           "GameOver",
	TypePerkModeRoleSelect: "PerkModeRoleSelect",
	TypeRoleAnnouncement:   "RoleAnnouncement",
}

// String returns the name of the message type.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "Unknown"
}

// ParseType returns the type with the given name.
func ParseType(name string) (Type, error) {
	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}
	return TypeNone, fmt.Errorf("%w: %q", ErrUnknownMsgType, name)
}

// Types returns every known message type in ascending order.
func Types() []Type {
	out := make([]Type, 0, len(typeNames))
	for t := TypeJoin; t <= TypeRoleAnnouncement; t++ {
		out = append(out, t)
	}
	return out
}

// New returns an empty message of type t, ready for Deserialize.
func New(t Type) (Msg, error) {
	switch t {
	case TypeJoin:
		return &Join{}, nil
	case TypeDisconnect:
		return &Disconnect{}, nil
	case TypeJoined:
		return &Joined{}, nil
	case TypeInput:
		return &Input{}, nil
	case TypeKill:
		return &Kill{}, nil
	case TypePickup:
		return &Pickup{}, nil
	case TypeSpectate:
		return &Spectate{}, nil
	case TypeDropItem:
		return &DropItem{}, nil
	case TypeEmote:
		return &Emote{}, nil
	case TypeAliveCounts:
		return &AliveCounts{}, nil
	case TypePlayerStats:
		return &PlayerStats{}, nil
	case TypeGameOver:
		return &GameOver{}, nil
	case TypePerkModeRoleSelect:
		return &PerkModeRoleSelect{}, nil
	case TypeRoleAnnouncement:
		return &RoleAnnouncement{}, nil
	default:
		return nil, fmt.Errorf("%w: 0x%02x", ErrUnknownMsgType, uint8(t))
	}
}
