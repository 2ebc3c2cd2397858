// Package msg defines the gamewire message set.
//
// Every message implements Msg: a Type discriminator plus a Serialize and
// Deserialize pair over a bitstream.Stream. Fields are written in declared
// order using the narrowest width that holds them, and each body ends at a
// byte boundary, so bodies can be concatenated in one packet. Neither the
// type nor the body length is part of the body; the packet layer writes
// the type and New builds the matching empty message when decoding.
//
// Game types are written against a category table where the field can only
// hold one category (roles, emotes), and against the flat table where it
// can hold any item. A role costs 5 bits in protocol v1, any item 7 bits.
//
// # Usage
//
//	s := bitstream.New(64)
//	m := &msg.RoleAnnouncement{PlayerID: 42, KillerID: 7, Role: "leader", Assigned: true}
//	if err := m.Serialize(s); err != nil {
//		return err
//	}
//	// s.Bytes() == 00 2a 00 07 0c
package msg
