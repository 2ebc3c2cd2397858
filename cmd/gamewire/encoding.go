package main

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vango-dev/gamewire/internal/errors"
)

// Packet text formats accepted by encode and decode.
const (
	formatHex    = "hex"
	formatBase64 = "base64"
	formatRaw    = "raw"
)

func checkFormat(f string) error {
	switch f {
	case formatHex, formatBase64, formatRaw:
		return nil
	}
	return errors.New("W100").
		WithDetail(fmt.Sprintf("unknown format %q", f)).
		WithSuggestion("Use hex, base64 or raw")
}

// readInput returns the contents of the named file, or of in when name is
// empty or "-".
func readInput(in io.Reader, name string) ([]byte, error) {
	if name == "" || name == "-" {
		return io.ReadAll(in)
	}
	return os.ReadFile(name)
}

// parsePacket converts packet text in the given format to bytes.
// Whitespace is ignored in hex and base64 input.
func parsePacket(data []byte, format string) ([]byte, error) {
	if format == formatRaw {
		return data, nil
	}
	text := strings.Join(strings.Fields(string(data)), "")
	var (
		out []byte
		err error
	)
	switch format {
	case formatHex:
		out, err = hex.DecodeString(text)
	case formatBase64:
		out, err = base64.StdEncoding.DecodeString(text)
	}
	if err != nil {
		return nil, errors.New("W100").
			WithDetail("the packet is not valid " + format).
			Wrap(err)
	}
	return out, nil
}

// formatPacket renders packet bytes in the given format.
func formatPacket(w io.Writer, packet []byte, format string) error {
	var err error
	switch format {
	case formatHex:
		_, err = fmt.Fprintln(w, spacedHex(packet))
	case formatBase64:
		_, err = fmt.Fprintln(w, base64.StdEncoding.EncodeToString(packet))
	case formatRaw:
		_, err = w.Write(packet)
	}
	return err
}

// spacedHex renders b as space separated hex pairs: "00 2a 00 07 0c".
func spacedHex(b []byte) string {
	var buf bytes.Buffer
	for i, v := range b {
		if i > 0 {
			buf.WriteByte(' ')
		}
		fmt.Fprintf(&buf, "%02x", v)
	}
	return buf.String()
}
