package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/gamewire/pkg/bitstream"
	"github.com/vango-dev/gamewire/pkg/capture"
	"github.com/vango-dev/gamewire/pkg/msg"
	"github.com/vango-dev/gamewire/pkg/packet"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{"codec", "W001", "Bit stream overflow", CategoryCodec},
		{"packet", "W020", "Protocol version mismatch", CategoryPacket},
		{"config", "W061", "Invalid config file", CategoryConfig},
		{"capture", "W081", "Capture not found", CategoryCapture},
		{"unknown", "W999", "Unknown error", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryCLI, "bad hex at offset %d", 3)
	if err.Message != "bad hex at offset 3" {
		t.Errorf("Message = %q, want %q", err.Message, "bad hex at offset 3")
	}
	if err.Category != CategoryCLI {
		t.Errorf("Category = %q, want %q", err.Category, CategoryCLI)
	}
	if err.Error() != "bad hex at offset 3" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestError_Error(t *testing.T) {
	err := New("W002")
	if got, want := err.Error(), "W002: Bit stream underflow"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	err.Wrap(bitstream.ErrBufferUnderflow)
	if got, want := err.Error(), "W002: Bit stream underflow: bitstream: buffer underflow"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !stderrors.Is(err, bitstream.ErrBufferUnderflow) {
		t.Error("errors.Is(wrapped sentinel) = false")
	}
}

func TestError_WithLocation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gamewire.json")
	content := "{\n  \"protocolVersion\": 1,\n  \"listen\": \":8080\",\n  \"logLevel\": info\n}\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	err := New("W061").WithLocation(path, 4, 15)
	if err.Location == nil {
		t.Fatal("Location is nil")
	}
	if got, want := err.Location.String(), path+":4:15"; got != want {
		t.Errorf("Location.String() = %q, want %q", got, want)
	}
	if len(err.Context) != 4 {
		t.Fatalf("len(Context) = %d, want 4", len(err.Context))
	}
	if err.Context[2] != `  "logLevel": info` {
		t.Errorf("Context[2] = %q", err.Context[2])
	}
}

func TestError_WithOffset(t *testing.T) {
	data := []byte("{\n  \"listen\": \":8080\",\n  \"logLevel\": info\n}\n")
	var v map[string]any
	jerr := json.Unmarshal(data, &v)
	var syn *json.SyntaxError
	if !stderrors.As(jerr, &syn) {
		t.Fatalf("json.Unmarshal error = %v, want *json.SyntaxError", jerr)
	}

	err := New("W061").WithOffset("gamewire.json", data, syn.Offset)
	if err.Location == nil {
		t.Fatal("Location is nil")
	}
	if err.Location.Line != 3 {
		t.Errorf("Location.Line = %d, want 3", err.Location.Line)
	}
	if err.Location.Column < 1 {
		t.Errorf("Location.Column = %d, want > 0", err.Location.Column)
	}

	if New("W061").WithOffset("x", data, -1).Location != nil {
		t.Error("negative offset should not set a location")
	}
}

func TestError_Builders(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := New("W062").
		WithDetail("detail").
		WithSuggestion("set packet.maxPayload").
		WithExample(`"maxPayload": 4096`).
		Wrap(cause)

	if err.Detail != "detail" {
		t.Errorf("Detail = %q", err.Detail)
	}
	if err.Suggestion != "set packet.maxPayload" {
		t.Errorf("Suggestion = %q", err.Suggestion)
	}
	if err.Example != `"maxPayload": 4096` {
		t.Errorf("Example = %q", err.Example)
	}
	if err.Unwrap() != cause {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), cause)
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "W100") != nil {
		t.Error("FromError(nil) != nil")
	}

	orig := New("W060")
	if FromError(orig, "W100") != orig {
		t.Error("FromError should return an existing *Error unchanged")
	}

	e := FromError(io.EOF, "W100")
	if e.Code != "W100" || e.Wrapped != io.EOF {
		t.Errorf("FromError(io.EOF) = %+v", e)
	}
}

func TestFromWire(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"overflow", bitstream.ErrBufferOverflow, "W001"},
		{"underflow", fmt.Errorf("msg: %w", bitstream.ErrBufferUnderflow), "W002"},
		{"unknown_type", bitstream.ErrUnknownType, "W003"},
		{"out_of_range", bitstream.ErrValueOutOfRange, "W004"},
		{"unknown_msg", msg.ErrUnknownMsgType, "W005"},
		{"too_many", msg.ErrTooMany, "W006"},
		{"version", packet.ErrVersionMismatch, "W020"},
		{"too_large_overflow", fmt.Errorf("%w: %w", packet.ErrPacketTooLarge, bitstream.ErrBufferOverflow), "W021"},
		{"truncated", fmt.Errorf("packet: %w", io.ErrUnexpectedEOF), "W022"},
		{"flags", packet.ErrInvalidFlags, "W023"},
		{"trailing", packet.ErrTrailingData, "W024"},
		{"bad_magic", capture.ErrBadMagic, "W080"},
		{"not_found", capture.ErrNotFound, "W081"},
		{"other", fmt.Errorf("something else"), "W101"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromWire(tt.err)
			if got.Code != tt.want {
				t.Errorf("FromWire(%v).Code = %q, want %q", tt.err, got.Code, tt.want)
			}
			if !stderrors.Is(got, tt.err) {
				t.Errorf("FromWire(%v) does not wrap the original error", tt.err)
			}
		})
	}

	if FromWire(nil) != nil {
		t.Error("FromWire(nil) != nil")
	}
	orig := New("W040")
	if FromWire(fmt.Errorf("dial: %w", orig)) != orig {
		t.Error("FromWire should unwrap to an existing *Error")
	}
}

func TestRegistryCodes(t *testing.T) {
	for _, code := range GetAllCodes() {
		tmpl, ok := GetTemplate(code)
		if !ok {
			t.Errorf("GetTemplate(%q) not found", code)
			continue
		}
		if !strings.HasPrefix(code, "W") || len(code) != 4 {
			t.Errorf("code %q is not of the form Wnnn", code)
		}
		if tmpl.Category == "" || tmpl.Message == "" {
			t.Errorf("template %q is incomplete: %+v", code, tmpl)
		}
	}
	for _, wc := range wireCodes {
		if _, ok := GetTemplate(wc.code); !ok {
			t.Errorf("FromWire maps %v to unregistered code %q", wc.target, wc.code)
		}
	}
}

func TestRegister(t *testing.T) {
	Register("W119", ErrorTemplate{Category: CategoryCLI, Message: "Custom"})
	t.Cleanup(func() { delete(registry, "W119") })

	if got := New("W119").Message; got != "Custom" {
		t.Errorf("New(W119).Message = %q, want Custom", got)
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	t.Cleanup(EnableColors)

	path := filepath.Join(t.TempDir(), "gamewire.json")
	if err := os.WriteFile(path, []byte("{\n  \"listen\": 8080\n}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := New("W062").
		WithLocation(path, 2, 13).
		WithSuggestion(`use a string such as ":8080"`).
		Wrap(fmt.Errorf("listen must be a string"))

	out := err.Format()
	for _, want := range []string{
		"ERROR W062: Invalid config value",
		path + ":2:13",
		`→    2 │   "listen": 8080`,
		"Cause: listen must be a string",
		`Hint: use a string such as ":8080"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("Format() contains ANSI codes with colors disabled")
	}
}

func TestFormatCompact(t *testing.T) {
	err := New("W061")
	err.Location = &Location{File: "gamewire.json", Line: 3}
	if got, want := err.FormatCompact(), "gamewire.json:3: W061: Invalid config file"; got != want {
		t.Errorf("FormatCompact() = %q, want %q", got, want)
	}
}

func TestFormatJSON(t *testing.T) {
	err := New("W020").Wrap(packet.ErrVersionMismatch)
	err.Location = &Location{File: "a.json", Line: 1, Column: 2}

	var got map[string]any
	if jerr := json.Unmarshal([]byte(err.FormatJSON()), &got); jerr != nil {
		t.Fatalf("FormatJSON() is not valid JSON: %v", jerr)
	}
	if got["code"] != "W020" {
		t.Errorf("code = %v, want W020", got["code"])
	}
	if got["category"] != string(CategoryPacket) {
		t.Errorf("category = %v, want packet", got["category"])
	}
	if got["cause"] != packet.ErrVersionMismatch.Error() {
		t.Errorf("cause = %v", got["cause"])
	}
	loc, ok := got["location"].(map[string]any)
	if !ok || loc["file"] != "a.json" {
		t.Errorf("location = %v", got["location"])
	}
}

func TestFprint(t *testing.T) {
	DisableColors()
	t.Cleanup(EnableColors)

	var b strings.Builder
	Fprint(&b, packet.ErrTrailingData)
	if !strings.Contains(b.String(), "ERROR W024: Trailing data after payload") {
		t.Errorf("Fprint() = %q", b.String())
	}

	b.Reset()
	Fprint(&b, nil)
	if b.Len() != 0 {
		t.Errorf("Fprint(nil) wrote %q", b.String())
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText(strings.Repeat("word ", 30), 20)
	for _, l := range lines {
		if len(l) > 20 {
			t.Errorf("line %q longer than 20", l)
		}
	}
	if wrapText("", 10) != nil {
		t.Error("wrapText(\"\") != nil")
	}
}
