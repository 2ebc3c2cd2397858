// Package packet frames gamewire messages for transport.
//
// A packet is a 4-byte header followed by a payload:
//
//	[version: 8][flags: 8][payload length: 16, big-endian][payload]
//
// The payload is a sequence of messages, each one the 8-bit message type
// followed by the byte-aligned message body. A body carries no length of
// its own, so the decoder relies on the type to build the right message
// (msg.New) and on each body to consume exactly its fields.
//
// The version byte is the version of the type table the messages are
// coded against; a peer on another table is rejected with
// ErrVersionMismatch before any body is read.
//
// Payloads can be brotli compressed (FlagCompressed). Decompressed
// payloads are capped at the Codec's MaxPayload.
//
// # Usage
//
//	c := packet.NewCodec(packet.WithCompression(0))
//	data, err := c.Encode(&msg.RoleAnnouncement{PlayerID: 42, Role: "leader"})
//	...
//	msgs, err := c.Decode(data)
package packet
