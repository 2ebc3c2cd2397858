// Package bitstream implements the bit-addressable cursor that every
// gamewire message is serialized through.
//
// A Stream wraps a fixed byte buffer and a cursor measured in bits. Writes
// and reads come in symmetric pairs: writing a field with N bits and later
// reading N bits returns exactly the written value.
//
// # Bit order
//
// Fields are packed most significant bit first, both inside a byte and
// across byte boundaries. A 16-bit 42 followed by a single true bit
// encodes as:
//
//	00000000 00101010 1.......
//
// # Alignment
//
// Messages end at a byte boundary (WriteAlignToNextByte / ReadAlignToNextByte)
// so several of them can be packed back to back in one packet while still
// using sub-byte fields internally. Padding bits are zero.
//
// # Errors
//
//   - ErrBufferOverflow: a write would pass the buffer capacity
//   - ErrBufferUnderflow: a read would pass the written data
//   - ErrUnknownType: a game type name or code is not in the type table
//   - ErrValueOutOfRange: a value does not fit its declared width or range
//
// A failed write or read leaves the cursor where it was, but the message in
// flight is lost: callers drop it, they do not try to resynchronize.
//
// # Usage
//
//	s := bitstream.New(8)
//	s.WriteUint16(42)
//	s.WriteTypeOf(gametype.Role, "leader")
//	s.WriteBoolean(true)
//	s.WriteAlignToNextByte()
//
//	r := bitstream.FromBytes(s.Bytes())
//	id, _ := r.ReadUint16()
package bitstream
