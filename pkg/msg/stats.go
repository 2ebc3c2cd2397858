package msg

import (
	"fmt"

	"github.com/vango-dev/gamewire/pkg/bitstream"
)

const (
	// MaxTeams is the number of teams AliveCounts can report.
	MaxTeams = 8

	// MaxGameOverStats is the number of player summaries one GameOver holds.
	MaxGameOverStats = 255
)

// AliveCounts reports how many players are alive on each team.
type AliveCounts struct {
	TeamAliveCounts []uint8 `json:"teamAliveCounts"`
}

func (*AliveCounts) Type() Type { return TypeAliveCounts }

func (m *AliveCounts) Serialize(s *bitstream.Stream) error {
	if len(m.TeamAliveCounts) > MaxTeams {
		return fmt.Errorf("%w: %d teams, max %d", ErrTooMany, len(m.TeamAliveCounts), MaxTeams)
	}
	if err := s.WriteUint8(uint8(len(m.TeamAliveCounts))); err != nil {
		return err
	}
	for _, c := range m.TeamAliveCounts {
		if err := s.WriteUint8(c); err != nil {
			return err
		}
	}
	return s.WriteAlignToNextByte()
}

func (m *AliveCounts) Deserialize(s *bitstream.Stream) error {
	n, err := s.ReadUint8()
	if err != nil {
		return err
	}
	if n > MaxTeams {
		return fmt.Errorf("%w: %d teams, max %d", ErrTooMany, n, MaxTeams)
	}
	m.TeamAliveCounts = nil
	if n > 0 {
		m.TeamAliveCounts = make([]uint8, n)
		for i := range m.TeamAliveCounts {
			if m.TeamAliveCounts[i], err = s.ReadUint8(); err != nil {
				return err
			}
		}
	}
	return s.ReadAlignToNextByte()
}

// PlayerStats is the end-of-life summary of one player.
type PlayerStats struct {
	PlayerID    uint16 `json:"playerId"`
	TimeAlive   uint16 `json:"timeAlive"`
	Kills       uint8  `json:"kills"`
	Dead        bool   `json:"dead"`
	DamageDealt uint16 `json:"damageDealt"`
	DamageTaken uint16 `json:"damageTaken"`
}

func (*PlayerStats) Type() Type { return TypePlayerStats }

func (m *PlayerStats) Serialize(s *bitstream.Stream) error {
	if err := m.write(s); err != nil {
		return err
	}
	return s.WriteAlignToNextByte()
}

func (m *PlayerStats) Deserialize(s *bitstream.Stream) error {
	if err := m.read(s); err != nil {
		return err
	}
	return s.ReadAlignToNextByte()
}

// write and read carry the fields without alignment so GameOver can pack
// several summaries back to back.
func (m *PlayerStats) write(s *bitstream.Stream) error {
	if err := s.WriteUint16(m.PlayerID); err != nil {
		return err
	}
	if err := s.WriteUint16(m.TimeAlive); err != nil {
		return err
	}
	if err := s.WriteUint8(m.Kills); err != nil {
		return err
	}
	if err := s.WriteBoolean(m.Dead); err != nil {
		return err
	}
	if err := s.WriteUint16(m.DamageDealt); err != nil {
		return err
	}
	return s.WriteUint16(m.DamageTaken)
}

func (m *PlayerStats) read(s *bitstream.Stream) error {
	var err error
	if m.PlayerID, err = s.ReadUint16(); err != nil {
		return err
	}
	if m.TimeAlive, err = s.ReadUint16(); err != nil {
		return err
	}
	if m.Kills, err = s.ReadUint8(); err != nil {
		return err
	}
	if m.Dead, err = s.ReadBoolean(); err != nil {
		return err
	}
	if m.DamageDealt, err = s.ReadUint16(); err != nil {
		return err
	}
	m.DamageTaken, err = s.ReadUint16()
	return err
}

// GameOver closes a game for one team.
type GameOver struct {
	TeamID        uint8         `json:"teamId"`
	TeamRank      uint8         `json:"teamRank"`
	GameOver      bool          `json:"gameOver"`
	WinningTeamID uint8         `json:"winningTeamId"`
	PlayerStats   []PlayerStats `json:"playerStats,omitempty"`
}

func (*GameOver) Type() Type { return TypeGameOver }

func (m *GameOver) Serialize(s *bitstream.Stream) error {
	if len(m.PlayerStats) > MaxGameOverStats {
		return fmt.Errorf("%w: %d player stats, max %d", ErrTooMany, len(m.PlayerStats), MaxGameOverStats)
	}
	if err := s.WriteUint8(m.TeamID); err != nil {
		return err
	}
	if err := s.WriteUint8(m.TeamRank); err != nil {
		return err
	}
	if err := s.WriteBoolean(m.GameOver); err != nil {
		return err
	}
	if err := s.WriteUint8(m.WinningTeamID); err != nil {
		return err
	}
	if err := s.WriteUint8(uint8(len(m.PlayerStats))); err != nil {
		return err
	}
	for i := range m.PlayerStats {
		if err := m.PlayerStats[i].write(s); err != nil {
			return err
		}
	}
	return s.WriteAlignToNextByte()
}

func (m *GameOver) Deserialize(s *bitstream.Stream) error {
	var err error
	if m.TeamID, err = s.ReadUint8(); err != nil {
		return err
	}
	if m.TeamRank, err = s.ReadUint8(); err != nil {
		return err
	}
	if m.GameOver, err = s.ReadBoolean(); err != nil {
		return err
	}
	if m.WinningTeamID, err = s.ReadUint8(); err != nil {
		return err
	}
	n, err := s.ReadUint8()
	if err != nil {
		return err
	}
	m.PlayerStats = nil
	if n > 0 {
		m.PlayerStats = make([]PlayerStats, n)
		for i := range m.PlayerStats {
			if err := m.PlayerStats[i].read(s); err != nil {
				return err
			}
		}
	}
	return s.ReadAlignToNextByte()
}
