package packet

import (
	"bytes"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
)

func compress(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := brotli.NewWriterLevel(&buf, brotli.DefaultCompression)
	if _, err := w.Write(b); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decompress inflates b, failing with ErrPacketTooLarge past max bytes.
func decompress(b []byte, max int) ([]byte, error) {
	r := brotli.NewReader(bytes.NewReader(b))
	out, err := io.ReadAll(io.LimitReader(r, int64(max)+1))
	if err != nil {
		return nil, fmt.Errorf("packet: decompress: %w", err)
	}
	if len(out) > max {
		return nil, fmt.Errorf("%w: decompressed payload exceeds %d bytes", ErrPacketTooLarge, max)
	}
	return out, nil
}
