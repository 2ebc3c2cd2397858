package main

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/vango-dev/gamewire/internal/config"
	"github.com/vango-dev/gamewire/internal/errors"
	"github.com/vango-dev/gamewire/pkg/bitstream"
	"github.com/vango-dev/gamewire/pkg/capture"
	"github.com/vango-dev/gamewire/pkg/gametype"
	"github.com/vango-dev/gamewire/pkg/msg"
	"github.com/vango-dev/gamewire/pkg/packet"
	"github.com/vango-dev/gamewire/pkg/transport"
)

const roleJSON = `[{"type":"RoleAnnouncement","msg":{"playerId":42,"killerId":7,"role":"leader","assigned":true}}]`

const rolePacketHex = "01 00 00 06 0e 00 2a 00 07 0c"

// testDir writes a gamewire.json with a local capture store and returns
// its directory.
func testDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := `{"logLevel": "warn", "capture": {"dir": "captures"}}`
	if err := os.WriteFile(filepath.Join(dir, config.ConfigFileName), []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func runCLI(t *testing.T, dir, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	c := &cli{stdin: strings.NewReader(stdin), stdout: &stdout, stderr: &stderr}
	root := c.rootCmd()
	root.SetArgs(append([]string{"--config", filepath.Join(dir, config.ConfigFileName)}, args...))
	err := root.Execute()
	return stdout.String(), err
}

func TestEncode(t *testing.T) {
	dir := testDir(t)

	out, err := runCLI(t, dir, roleJSON, "encode")
	if err != nil {
		t.Fatalf("encode error = %v", err)
	}
	if got := strings.TrimSpace(out); got != rolePacketHex {
		t.Errorf("encode = %q, want %q", got, rolePacketHex)
	}

	input := filepath.Join(dir, "msgs.json")
	if err := os.WriteFile(input, []byte(roleJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err = runCLI(t, dir, "", "encode", "--format=base64", input)
	if err != nil {
		t.Fatalf("encode --format=base64 error = %v", err)
	}
	if got, want := strings.TrimSpace(out), "AQAABg4AKgAHDA=="; got != want {
		t.Errorf("encode base64 = %q, want %q", got, want)
	}
}

func TestEncodeErrors(t *testing.T) {
	dir := testDir(t)
	tests := []struct {
		name  string
		input string
		args  []string
		want  error
	}{
		{"bad_json", `[{"type":`, nil, msg.ErrInvalidJSON},
		{"unknown_msg", `[{"type":"Teleport"}]`, nil, msg.ErrUnknownMsgType},
		{"unknown_role", `[{"type":"RoleAnnouncement","msg":{"role":"wizard"}}]`, nil, bitstream.ErrUnknownType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, dir, tt.input, append([]string{"encode"}, tt.args...)...)
			if !stderrors.Is(err, tt.want) {
				t.Errorf("encode error = %v, want %v", err, tt.want)
			}
		})
	}

	_, err := runCLI(t, dir, roleJSON, "encode", "--format=octal")
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Code != "W100" {
		t.Errorf("encode --format=octal error = %v, want W100", err)
	}
}

func TestDecode(t *testing.T) {
	dir := testDir(t)

	out, err := runCLI(t, dir, rolePacketHex+"\n", "decode", "--header")
	if err != nil {
		t.Fatalf("decode error = %v", err)
	}
	lines := strings.SplitN(out, "\n", 2)
	if lines[0] != "version=1 flags=0x00 length=6" {
		t.Errorf("header line = %q", lines[0])
	}
	got, err := msg.UnmarshalJSONList([]byte(lines[1]))
	if err != nil {
		t.Fatalf("decode output is not a message list: %v\n%s", err, lines[1])
	}
	want := []msg.Msg{&msg.RoleAnnouncement{PlayerID: 42, KillerID: 7, Role: "leader", Assigned: true}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decode mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeErrors(t *testing.T) {
	dir := testDir(t)
	tests := []struct {
		name     string
		input    string
		wantCode string
	}{
		{"not_hex", "zz", "W100"},
		{"version", "02 00 00 00", "W020"},
		{"truncated", "01 00 00 06 0e 00", "W022"},
		{"trailing", rolePacketHex + " ff", "W024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, dir, tt.input, "decode")
			if err == nil {
				t.Fatal("decode error = nil")
			}
			if got := errors.FromWire(err).Code; got != tt.wantCode {
				t.Errorf("FromWire(%v).Code = %q, want %q", err, got, tt.wantCode)
			}
		})
	}
}

func TestTypes(t *testing.T) {
	dir := testDir(t)

	out, err := runCLI(t, dir, "", "types", "--category=role")
	if err != nil {
		t.Fatalf("types error = %v", err)
	}
	if !strings.Contains(out, "leader") {
		t.Errorf("types --category=role missing leader:\n%s", out)
	}
	if strings.Contains(out, "emote/") {
		t.Errorf("types --category=role lists other categories:\n%s", out)
	}

	out, err = runCLI(t, dir, "", "types", "--json")
	if err != nil {
		t.Fatalf("types --json error = %v", err)
	}
	var d gametype.Description
	if err := json.Unmarshal([]byte(out), &d); err != nil {
		t.Fatalf("types --json output: %v", err)
	}
	if diff := cmp.Diff(gametype.Default().Describe(), d); diff != "" {
		t.Errorf("types --json mismatch (-want +got):\n%s", diff)
	}

	if _, err := runCLI(t, dir, "", "types", "--category=vehicle"); err == nil {
		t.Error("types --category=vehicle error = nil")
	}
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, testDir(t), "", "version", "--short")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if strings.TrimSpace(out) != version {
		t.Errorf("version --short = %q, want %q", out, version)
	}
}

func TestInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.ConfigFileName)
	if err := os.WriteFile(path, []byte(`{"packet": {"maxPayload": 70000}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := runCLI(t, dir, "", "types")
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Code != "W062" {
		t.Errorf("types with invalid config error = %v, want W062", err)
	}
}

// writeCapture records one inbound and one outbound packet into a
// capture file.
func writeCapture(t *testing.T, path string) {
	t.Helper()
	p, err := packet.NewCodec().Encode(&msg.RoleAnnouncement{PlayerID: 42, KillerID: 7, Role: "leader", Assigned: true})
	if err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	rec := capture.NewRecorder(f)
	if err := rec.Record(capture.Inbound, p); err != nil {
		t.Fatal(err)
	}
	if err := rec.Record(capture.Outbound, p); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestReplay(t *testing.T) {
	dir := testDir(t)
	file := filepath.Join(dir, "session.gwcp")
	writeCapture(t, file)

	out, err := runCLI(t, dir, "", "replay", file)
	if err != nil {
		t.Fatalf("replay error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("replay printed %d lines, want 2:\n%s", len(lines), out)
	}
	var first struct {
		Dir   string `json:"dir"`
		Bytes int    `json:"bytes"`
		Msgs  []struct {
			Type string `json:"type"`
		} `json:"msgs"`
	}
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatal(err)
	}
	if first.Dir != "in" || first.Bytes != 10 || len(first.Msgs) != 1 || first.Msgs[0].Type != "RoleAnnouncement" {
		t.Errorf("first replay line = %+v", first)
	}

	out, err = runCLI(t, dir, "", "replay", "--direction=out", file)
	if err != nil {
		t.Fatalf("replay --direction=out error = %v", err)
	}
	if n := strings.Count(out, "\n"); n != 1 || !strings.Contains(out, `"dir":"out"`) {
		t.Errorf("replay --direction=out = %q", out)
	}

	if _, err := runCLI(t, dir, "", "replay", "--direction=sideways", file); err == nil {
		t.Error("replay --direction=sideways error = nil")
	}
}

func TestReplayFromStore(t *testing.T) {
	dir := testDir(t)
	file := filepath.Join(dir, "session.gwcp")
	writeCapture(t, file)

	store, err := capture.NewDirStore(filepath.Join(dir, "captures"))
	if err != nil {
		t.Fatal(err)
	}
	if err := capture.Upload(context.Background(), store, "2024/06/01/a.gwcp", file); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, dir, "", "replay", "--store", "--list", "2024/")
	if err != nil {
		t.Fatalf("replay --list error = %v", err)
	}
	if strings.TrimSpace(out) != "2024/06/01/a.gwcp" {
		t.Errorf("replay --list = %q", out)
	}

	out, err = runCLI(t, dir, "", "replay", "--store", "2024/06/01/a.gwcp")
	if err != nil {
		t.Fatalf("replay --store error = %v", err)
	}
	if strings.Count(out, "RoleAnnouncement") != 2 {
		t.Errorf("replay --store output:\n%s", out)
	}

	_, err = runCLI(t, dir, "", "replay", "--store", "2024/06/02/missing.gwcp")
	if !stderrors.Is(err, capture.ErrNotFound) {
		t.Errorf("replay missing key error = %v, want ErrNotFound", err)
	}
}

func TestCaptureKey(t *testing.T) {
	id := uuid.MustParse("9f1c0e52-7d4b-4a57-9f5e-8a3c2d8e6b10")
	started := time.Date(2024, 6, 1, 23, 30, 0, 0, time.FixedZone("X", -3*3600))
	if got, want := captureKey(started, id), "2024/06/02/9f1c0e52-7d4b-4a57-9f5e-8a3c2d8e6b10.gwcp"; got != want {
		t.Errorf("captureKey() = %q, want %q", got, want)
	}
}

func TestRelay(t *testing.T) {
	dir := t.TempDir()
	cfg := config.New()
	cfg.Capture.Dir = dir
	c := &cli{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	r, err := c.newRelay(context.Background(), true)
	if err != nil {
		t.Fatalf("newRelay() error = %v", err)
	}
	ts := httptest.NewServer(r.handler)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := transport.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", packet.NewCodec(), nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	sent := &msg.Emote{Emote: "emote_thumbsup", IsPing: false}
	if err := conn.Send(ctx, sent); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	got, err := conn.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	if diff := cmp.Diff([]msg.Msg{sent}, got); diff != "" {
		t.Errorf("echo mismatch (-want +got):\n%s", diff)
	}

	resp, err := http.Get(ts.URL + config.DefaultMetricsPath)
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), `gamewire_messages_total{direction="in",type="Emote"} 1`) {
		t.Errorf("/metrics missing inbound Emote counter:\n%s", body)
	}
	if !strings.Contains(string(body), "# TYPE gamewire_handler_duration_seconds histogram") {
		t.Errorf("/metrics missing handler duration histogram:\n%s", body)
	}

	conn.Close()
	if err := r.close(ctx); err != nil {
		t.Fatalf("close() error = %v", err)
	}

	store, _ := capture.NewDirStore(dir)
	keys, err := store.List(ctx, "")
	if err != nil || len(keys) != 1 {
		t.Fatalf("store.List() = %v, %v, want one capture", keys, err)
	}
	cr, closer, err := capture.Open(ctx, store, keys[0])
	if err != nil {
		t.Fatal(err)
	}
	defer closer.Close()
	var dirs []string
	for {
		rec, err := cr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		dirs = append(dirs, rec.Dir.String())
	}
	if diff := cmp.Diff([]string{"in", "out"}, dirs); diff != "" {
		t.Errorf("captured directions mismatch (-want +got):\n%s", diff)
	}
}

func TestRelayRecordWithoutStore(t *testing.T) {
	c := &cli{cfg: config.New(), logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	_, err := c.newRelay(context.Background(), true)
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Code != "W062" {
		t.Errorf("newRelay(record) without store error = %v, want W062", err)
	}
}

func TestBench(t *testing.T) {
	dir := testDir(t)

	out, err := runCLI(t, dir, "", "bench", "--profile=fast", "--clients=2", "--duration=300ms", "--rate=50", "--json=-")
	if err != nil {
		t.Fatalf("bench error = %v", err)
	}
	var report benchReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("report is not JSON: %v\n%s", err, out)
	}
	if report.Workload.Profile != "fast" || report.Workload.Clients != 2 || report.Workload.RatePerClient != 50 {
		t.Errorf("workload = %+v", report.Workload)
	}
	if report.Throughput.PacketsEchoed == 0 {
		t.Error("no packets echoed")
	}
	if report.Errors.Total != 0 {
		t.Errorf("errors = %+v, want none", report.Errors)
	}
	if report.LatencyMS.Min > report.LatencyMS.Max {
		t.Errorf("latency min %v > max %v", report.LatencyMS.Min, report.LatencyMS.Max)
	}
}

func TestBenchInvalidOptions(t *testing.T) {
	dir := testDir(t)
	for _, args := range [][]string{
		{"bench", "--profile=huge"},
		{"bench", "--clients=0"},
		{"bench", "--rate=-1"},
	} {
		_, err := runCLI(t, dir, "", args...)
		if e := errors.FromWire(err); e == nil || e.Code != "W100" {
			t.Errorf("%v: error = %v, want W100", args, err)
		}
	}
}

func TestPercentile(t *testing.T) {
	sorted := make([]time.Duration, 100)
	for i := range sorted {
		sorted[i] = time.Duration(i+1) * time.Millisecond
	}
	tests := []struct {
		p    float64
		want time.Duration
	}{
		{0, time.Millisecond},
		{0.5, 50 * time.Millisecond},
		{0.95, 95 * time.Millisecond},
		{0.99, 99 * time.Millisecond},
		{1, 100 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := percentile(sorted, tt.p); got != tt.want {
			t.Errorf("percentile(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
	if got := percentile(nil, 0.5); got != 0 {
		t.Errorf("percentile(nil) = %v, want 0", got)
	}
}

func TestInit(t *testing.T) {
	dir := testDir(t)
	target := filepath.Join(dir, "relay")

	if _, err := runCLI(t, dir, "", "init", target, "--listen=:9000", "--capture-dir=caps"); err != nil {
		t.Fatalf("init error = %v", err)
	}
	cfg, err := config.Load(target)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Listen != ":9000" || cfg.Capture.Dir != "caps" || cfg.ProtocolVersion != config.DefaultProtocolVersion {
		t.Errorf("config = %+v", cfg)
	}

	_, err = runCLI(t, dir, "", "init", target)
	if e := errors.FromWire(err); e == nil || e.Code != "W062" {
		t.Errorf("second init error = %v, want W062", err)
	}
	if _, err := runCLI(t, dir, "", "init", target, "--force"); err != nil {
		t.Errorf("init --force error = %v", err)
	}

	_, err = runCLI(t, dir, "", "init", filepath.Join(dir, "bad"), "--protocol=0")
	if e := errors.FromWire(err); e == nil || e.Code != "W062" {
		t.Errorf("init --protocol=0 error = %v, want W062", err)
	}
}
