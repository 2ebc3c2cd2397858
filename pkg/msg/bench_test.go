package msg

import (
	"testing"

	"github.com/vango-dev/gamewire/pkg/bitstream"
)

func BenchmarkRoleAnnouncementSerialize(b *testing.B) {
	m := &RoleAnnouncement{PlayerID: 42, KillerID: 7, Role: "leader", Assigned: true}
	s := bitstream.New(8)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Reset()
		if err := m.Serialize(s); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRoleAnnouncementDeserialize(b *testing.B) {
	data := []byte{0x00, 0x2A, 0x00, 0x07, 0x0C}
	var m RoleAnnouncement
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := m.Deserialize(bitstream.FromBytes(data)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkGameOverSerialize(b *testing.B) {
	m := &GameOver{TeamID: 1, TeamRank: 1, GameOver: true, WinningTeamID: 1, PlayerStats: make([]PlayerStats, 4)}
	s := bitstream.New(64)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Reset()
		if err := m.Serialize(s); err != nil {
			b.Fatal(err)
		}
	}
}
