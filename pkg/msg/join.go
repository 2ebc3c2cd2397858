package msg

import (
	"github.com/vango-dev/gamewire/pkg/bitstream"
	"github.com/vango-dev/gamewire/pkg/gametype"
)

const (
	// EmoteSlots is the number of emotes a player brings into a game.
	EmoteSlots = 6

	// MaxNameLen is the longest player name in bytes.
	MaxNameLen = 16

	// MaxReasonLen is the longest disconnect reason in bytes.
	MaxReasonLen = 64
)

// Join is the first message a client sends after connecting.
type Join struct {
	Protocol uint32             `json:"protocol"`
	Name     string             `json:"name"`
	UseTouch bool               `json:"useTouch"`
	IsMobile bool               `json:"isMobile"`
	Bot      bool               `json:"bot"`
	Emotes   [EmoteSlots]string `json:"emotes"`
}

func (*Join) Type() Type { return TypeJoin }

func (m *Join) Serialize(s *bitstream.Stream) error {
	if err := s.WriteUint32(m.Protocol); err != nil {
		return err
	}
	if err := s.WriteString(m.Name, MaxNameLen); err != nil {
		return err
	}
	if err := s.WriteBoolean(m.UseTouch); err != nil {
		return err
	}
	if err := s.WriteBoolean(m.IsMobile); err != nil {
		return err
	}
	if err := s.WriteBoolean(m.Bot); err != nil {
		return err
	}
	if err := writeEmotes(s, &m.Emotes); err != nil {
		return err
	}
	return s.WriteAlignToNextByte()
}

func (m *Join) Deserialize(s *bitstream.Stream) error {
	var err error
	if m.Protocol, err = s.ReadUint32(); err != nil {
		return err
	}
	if m.Name, err = s.ReadString(MaxNameLen); err != nil {
		return err
	}
	if m.UseTouch, err = s.ReadBoolean(); err != nil {
		return err
	}
	if m.IsMobile, err = s.ReadBoolean(); err != nil {
		return err
	}
	if m.Bot, err = s.ReadBoolean(); err != nil {
		return err
	}
	if err := readEmotes(s, &m.Emotes); err != nil {
		return err
	}
	return s.ReadAlignToNextByte()
}

// Disconnect tells a client why the server is dropping it.
type Disconnect struct {
	Reason string `json:"reason"`
}

func (*Disconnect) Type() Type { return TypeDisconnect }

func (m *Disconnect) Serialize(s *bitstream.Stream) error {
	if err := s.WriteString(m.Reason, MaxReasonLen); err != nil {
		return err
	}
	return s.WriteAlignToNextByte()
}

func (m *Disconnect) Deserialize(s *bitstream.Stream) error {
	var err error
	if m.Reason, err = s.ReadString(MaxReasonLen); err != nil {
		return err
	}
	return s.ReadAlignToNextByte()
}

// Joined confirms a join and hands the client its player id.
type Joined struct {
	TeamMode uint8              `json:"teamMode"`
	PlayerID uint16             `json:"playerId"`
	Started  bool               `json:"started"`
	Emotes   [EmoteSlots]string `json:"emotes"`
}

func (*Joined) Type() Type { return TypeJoined }

func (m *Joined) Serialize(s *bitstream.Stream) error {
	if err := s.WriteUint8(m.TeamMode); err != nil {
		return err
	}
	if err := s.WriteUint16(m.PlayerID); err != nil {
		return err
	}
	if err := s.WriteBoolean(m.Started); err != nil {
		return err
	}
	if err := writeEmotes(s, &m.Emotes); err != nil {
		return err
	}
	return s.WriteAlignToNextByte()
}

func (m *Joined) Deserialize(s *bitstream.Stream) error {
	var err error
	if m.TeamMode, err = s.ReadUint8(); err != nil {
		return err
	}
	if m.PlayerID, err = s.ReadUint16(); err != nil {
		return err
	}
	if m.Started, err = s.ReadBoolean(); err != nil {
		return err
	}
	if err := readEmotes(s, &m.Emotes); err != nil {
		return err
	}
	return s.ReadAlignToNextByte()
}

func writeEmotes(s *bitstream.Stream, emotes *[EmoteSlots]string) error {
	for _, e := range emotes {
		if err := s.WriteTypeOf(gametype.Emote, e); err != nil {
			return err
		}
	}
	return nil
}

func readEmotes(s *bitstream.Stream, emotes *[EmoteSlots]string) error {
	for i := range emotes {
		e, err := s.ReadTypeOf(gametype.Emote)
		if err != nil {
			return err
		}
		emotes[i] = e
	}
	return nil
}
