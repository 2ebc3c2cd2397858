package packet

import (
	"testing"
)

// FuzzDecode must never panic and never return messages with an error.
func FuzzDecode(f *testing.F) {
	f.Add([]byte{0x01, 0x00, 0x00, 0x06, 0x0E, 0x00, 0x2A, 0x00, 0x07, 0x0C})
	f.Add([]byte{0x01, 0x01, 0x00, 0x02, 0xFF, 0xFF})
	f.Add([]byte{0x01, 0x00, 0x00, 0x00})

	c := NewCodec()
	f.Fuzz(func(t *testing.T, data []byte) {
		msgs, err := c.Decode(data)
		if err != nil && msgs != nil {
			t.Fatalf("Decode() returned %d messages with error %v", len(msgs), err)
		}
		if err != nil {
			return
		}
		again, err := c.Encode(msgs...)
		if err != nil {
			t.Fatalf("Encode() after Decode() error = %v", err)
		}
		if _, err := c.Decode(again); err != nil {
			t.Fatalf("Decode() of re-encoded packet error = %v", err)
		}
	})
}
