package capture

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestRecordAndRead(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_123)
	var buf bytes.Buffer
	rec := NewRecorder(&buf)
	rec.now = fixedClock(now)

	want := []Record{
		{Time: now, Dir: Outbound, Packet: []byte{0x01, 0x00, 0x00, 0x00}},
		{Time: now, Dir: Inbound, Packet: []byte{0x01, 0x00, 0x00, 0x06, 0x0E, 0x00, 0x2A, 0x00, 0x07, 0x0C}},
		{Time: now, Dir: Inbound, Packet: []byte{}},
	}
	for _, r := range want {
		if err := rec.Record(r.Dir, r.Packet); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}
	if rec.Count() != 3 {
		t.Errorf("Count() = %d, want 3", rec.Count())
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("GWCP\x01")) {
		t.Errorf("file header = % x, want GWCP 01", buf.Bytes()[:5])
	}

	got, err := ReadAll(&buf)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	opt := cmp.Comparer(func(a, b time.Time) bool { return a.Equal(b) })
	if diff := cmp.Diff(want, got, opt); diff != "" {
		t.Errorf("ReadAll() mismatch (-want +got):\n%s", diff)
	}
}

func TestRecorderConcurrent(t *testing.T) {
	var buf bytes.Buffer
	rec := NewRecorder(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				rec.Record(Outbound, bytes.Repeat([]byte{byte(i)}, 10+i))
			}
		}(i)
	}
	wg.Wait()

	got, err := ReadAll(&buf)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(got) != 400 {
		t.Fatalf("ReadAll() = %d records, want 400", len(got))
	}
	for _, r := range got {
		i := int(r.Packet[0])
		if len(r.Packet) != 10+i || !bytes.Equal(r.Packet, bytes.Repeat([]byte{byte(i)}, 10+i)) {
			t.Fatalf("interleaved record % x", r.Packet)
		}
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRecordErrors(t *testing.T) {
	rec := NewRecorder(io.Discard)
	if err := rec.Record(0, nil); !errors.Is(err, ErrInvalidDirection) {
		t.Errorf("Record(dir 0) error = %v, want ErrInvalidDirection", err)
	}
	if err := rec.Record(Inbound, make([]byte, MaxRecordSize+1)); !errors.Is(err, ErrRecordTooLarge) {
		t.Errorf("Record(huge) error = %v, want ErrRecordTooLarge", err)
	}

	bad := NewRecorder(failWriter{})
	first := bad.Record(Inbound, []byte{1})
	if first == nil {
		t.Fatal("Record() error = nil, want write error")
	}
	if err := bad.Record(Inbound, []byte{1}); err != first {
		t.Errorf("second Record() error = %v, want %v", err, first)
	}
}

func TestReaderErrors(t *testing.T) {
	valid := func() []byte {
		var buf bytes.Buffer
		NewRecorder(&buf).Record(Inbound, []byte{1, 2, 3})
		return buf.Bytes()
	}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrBadMagic},
		{"magic", []byte("PCAP\x01"), ErrBadMagic},
		{"version", []byte("GWCP\x09"), ErrUnsupportedVersion},
		{"truncated_header", valid()[:10], io.ErrUnexpectedEOF},
		{"truncated_packet", valid()[:len(valid())-1], io.ErrUnexpectedEOF},
		{"direction", func() []byte { b := valid(); b[13] = 7; return b }(), ErrInvalidDirection},
		{"too_large", func() []byte { b := valid(); b[14] = 0xFF; return b }(), ErrRecordTooLarge},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadAll(bytes.NewReader(tc.data))
			if !errors.Is(err, tc.want) {
				t.Errorf("ReadAll() error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestDirectionString(t *testing.T) {
	if Inbound.String() != "in" || Outbound.String() != "out" || Direction(9).String() != "unknown" {
		t.Errorf("Direction strings = %q %q %q", Inbound, Outbound, Direction(9))
	}
}

func TestDirStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewDirStore(filepath.Join(t.TempDir(), "captures"))
	if err != nil {
		t.Fatalf("NewDirStore() error = %v", err)
	}

	for _, key := range []string{"2024/b.gwcp", "2024/a.gwcp", "other.gwcp"} {
		if err := store.Put(ctx, key, strings.NewReader(key)); err != nil {
			t.Fatalf("Put(%q) error = %v", key, err)
		}
	}

	rc, err := store.Get(ctx, "2024/a.gwcp")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "2024/a.gwcp" {
		t.Errorf("Get() = %q, want %q", data, "2024/a.gwcp")
	}

	keys, err := store.List(ctx, "2024/")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if diff := cmp.Diff([]string{"2024/a.gwcp", "2024/b.gwcp"}, keys); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
	for _, key := range []string{"", ".", "../escape", "/abs", "a//b"} {
		if err := store.Put(ctx, key, strings.NewReader("x")); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Put(%q) error = %v, want ErrInvalidKey", key, err)
		}
	}
}

func TestUploadAndOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	src := filepath.Join(dir, "session.gwcp")
	f, err := os.Create(src)
	if err != nil {
		t.Fatal(err)
	}
	rec := NewRecorder(f)
	rec.Record(Outbound, []byte{0xAA})
	rec.Record(Inbound, []byte{0xBB, 0xCC})
	f.Close()

	store, err := NewDirStore(filepath.Join(dir, "store"))
	if err != nil {
		t.Fatal(err)
	}
	if err := Upload(ctx, store, "s/session.gwcp", src); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	r, closer, err := Open(ctx, store, "s/session.gwcp")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer closer.Close()
	var got [][]byte
	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		got = append(got, rec.Packet)
	}
	if diff := cmp.Diff([][]byte{{0xAA}, {0xBB, 0xCC}}, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}

	if err := Upload(ctx, store, "x", filepath.Join(dir, "nope")); err == nil {
		t.Error("Upload(missing file) error = nil")
	}
	if err := store.Put(ctx, "junk", strings.NewReader("junk")); err != nil {
		t.Fatal(err)
	}
	if _, _, err := Open(ctx, store, "junk"); !errors.Is(err, ErrBadMagic) {
		t.Errorf("Open(junk) error = %v, want ErrBadMagic", err)
	}
}
