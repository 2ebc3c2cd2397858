package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/gamewire/internal/errors"
	"github.com/vango-dev/gamewire/pkg/bitstream"
	"github.com/vango-dev/gamewire/pkg/msg"
	"github.com/vango-dev/gamewire/pkg/packet"
	"github.com/vango-dev/gamewire/pkg/transport"
)

type benchProfile struct {
	Name     string
	Clients  int
	Duration time.Duration
	Rate     float64
}

var benchProfiles = map[string]benchProfile{
	"fast":     {Name: "fast", Clients: 50, Duration: 10 * time.Second, Rate: 2},
	"standard": {Name: "standard", Clients: 200, Duration: 30 * time.Second, Rate: 5},
	"stress":   {Name: "stress", Clients: 500, Duration: 60 * time.Second, Rate: 10},
}

type benchOptions struct {
	profile  string
	url      string
	clients  int
	duration time.Duration
	rate     float64
	timeout  time.Duration
	jsonOut  string
}

func (c *cli) benchCmd() *cobra.Command {
	var opts benchOptions

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure relay round-trip latency",
		Long: `Run concurrent clients that send Input packets to a relay and wait
for each echo. Without --url an in-process relay is started.

Profiles set clients, duration and rate; explicit flags override them.

Examples:
  gamewire bench --profile=fast
  gamewire bench --url=ws://localhost:8080/ws --clients=20 --duration=5s
  gamewire bench --json=report.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			base, ok := benchProfiles[strings.ToLower(opts.profile)]
			if !ok {
				return errors.New("W100").
					WithDetail(fmt.Sprintf("unknown profile %q", opts.profile)).
					WithSuggestion("Use fast, standard or stress")
			}
			flags := cmd.Flags()
			if !flags.Changed("clients") {
				opts.clients = base.Clients
			}
			if !flags.Changed("duration") {
				opts.duration = base.Duration
			}
			if !flags.Changed("rate") {
				opts.rate = base.Rate
			}
			opts.profile = base.Name
			if err := opts.validate(); err != nil {
				return err
			}
			return c.runBench(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.profile, "profile", "standard", "Profile: fast, standard or stress")
	cmd.Flags().StringVar(&opts.url, "url", "", "Relay WebSocket URL (default: start an in-process relay)")
	cmd.Flags().IntVar(&opts.clients, "clients", 0, "Number of concurrent clients")
	cmd.Flags().DurationVar(&opts.duration, "duration", 0, "How long to run")
	cmd.Flags().Float64Var(&opts.rate, "rate", 0, "Packets per second per client")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 5*time.Second, "How long to wait for each echo")
	cmd.Flags().StringVar(&opts.jsonOut, "json", "", "Write a JSON report to this path ('-' for stdout)")

	return cmd
}

func (o benchOptions) validate() error {
	bad := func(detail string) error {
		return errors.New("W100").WithDetail(detail)
	}
	switch {
	case o.clients <= 0:
		return bad("--clients must be > 0")
	case o.duration <= 0:
		return bad("--duration must be > 0")
	case o.rate <= 0:
		return bad("--rate must be > 0")
	case o.timeout <= 0:
		return bad("--timeout must be > 0")
	}
	return nil
}

type benchStats struct {
	sent       atomic.Uint64
	echoed     atomic.Uint64
	bytesOut   atomic.Uint64
	dialFails  atomic.Uint64
	sendFails  atomic.Uint64
	recvFails  atomic.Uint64
	mismatches atomic.Uint64

	mu        sync.Mutex
	latencies []time.Duration
}

func (s *benchStats) observe(rtt time.Duration) {
	s.echoed.Add(1)
	s.mu.Lock()
	s.latencies = append(s.latencies, rtt)
	s.mu.Unlock()
}

func (c *cli) runBench(ctx context.Context, opts benchOptions) error {
	logger := c.logger.With("component", "bench")

	url := opts.url
	if url == "" {
		r, err := c.newRelay(ctx, false)
		if err != nil {
			return err
		}
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return errors.New("W042").Wrap(err)
		}
		httpSrv := &http.Server{Handler: r.handler, ReadHeaderTimeout: 10 * time.Second}
		go httpSrv.Serve(ln)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			httpSrv.Shutdown(shutdownCtx)
			r.close(shutdownCtx)
		}()
		url = "ws://" + ln.Addr().String() + "/ws"
	}

	codec, err := c.codec()
	if err != nil {
		return err
	}
	logger.Info("benchmark starting", "target", url, "clients", opts.clients, "duration", opts.duration, "rate", opts.rate)

	runCtx, cancel := context.WithTimeout(ctx, opts.duration)
	defer cancel()

	var stats benchStats
	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(opts.clients)
	for i := 0; i < opts.clients; i++ {
		go func() {
			defer wg.Done()
			if err := runBenchClient(runCtx, url, codec, opts, &stats); err != nil {
				logger.Debug("client stopped", "error", err)
			}
		}()
	}
	wg.Wait()

	report := buildBenchReport(opts, url, time.Since(start), &stats)
	writeBenchSummary(c.stderr, report)
	return c.writeBenchJSON(opts.jsonOut, report)
}

// runBenchClient sends one Input at a time and waits for its echo before
// pacing to the next. It returns nil when ctx ends.
func runBenchClient(ctx context.Context, url string, codec *packet.Codec, opts benchOptions, stats *benchStats) error {
	dialCtx, cancel := context.WithTimeout(ctx, opts.timeout)
	conn, err := transport.Dial(dialCtx, url, codec, nil)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		stats.dialFails.Add(1)
		return err
	}
	defer conn.Close()

	period := time.Duration(float64(time.Second) / opts.rate)
	in := &msg.Input{MoveUp: true}
	if err := in.SetMouse(bitstream.Vec2{X: 1}, msg.MaxMouseLen/2); err != nil {
		return err
	}
	for seq := uint8(1); ; seq++ {
		if ctx.Err() != nil {
			return nil
		}
		in.Seq = seq
		data, err := codec.Encode(in)
		if err != nil {
			return err
		}

		start := time.Now()
		if err := conn.SendPacket(ctx, data); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			stats.sendFails.Add(1)
			return err
		}
		stats.sent.Add(1)
		stats.bytesOut.Add(uint64(len(data)))

		recvCtx, cancel := context.WithTimeout(ctx, opts.timeout)
		msgs, err := conn.Receive(recvCtx)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			stats.recvFails.Add(1)
			return err
		}
		if !isEcho(msgs, seq) {
			stats.mismatches.Add(1)
			return fmt.Errorf("bench: echo mismatch for seq %d", seq)
		}
		stats.observe(time.Since(start))

		if sleep := period - time.Since(start); sleep > 0 {
			timer := time.NewTimer(sleep)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil
			case <-timer.C:
			}
		}
	}
}

func isEcho(msgs []msg.Msg, seq uint8) bool {
	if len(msgs) != 1 {
		return false
	}
	in, ok := msgs[0].(*msg.Input)
	return ok && in.Seq == seq
}

type benchReport struct {
	Version    string          `json:"version"`
	Run        benchRunInfo    `json:"run"`
	Workload   benchWorkload   `json:"workload"`
	LatencyMS  benchLatency    `json:"latency_ms"`
	Throughput benchThroughput `json:"throughput"`
	Errors     benchErrors     `json:"errors"`
}

type benchRunInfo struct {
	Timestamp string `json:"timestamp"`
	Go        string `json:"go"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	CPUCount  int    `json:"cpu_count"`
	Version   string `json:"gamewire_version"`
}

type benchWorkload struct {
	Profile       string  `json:"profile"`
	Target        string  `json:"target"`
	Clients       int     `json:"clients"`
	DurationMS    int64   `json:"duration_ms"`
	RatePerClient float64 `json:"rate_per_client"`
	TimeoutMS     int64   `json:"timeout_ms"`
}

type benchLatency struct {
	Min float64 `json:"min"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
	Max float64 `json:"max"`
}

type benchThroughput struct {
	PacketsSent     uint64  `json:"packets_sent"`
	PacketsEchoed   uint64  `json:"packets_echoed"`
	PacketsPerSec   float64 `json:"packets_per_sec"`
	PerClientPerSec float64 `json:"packets_per_sec_per_client"`
	AvgPacketBytes  float64 `json:"avg_packet_bytes"`
	BytesSentTotal  uint64  `json:"bytes_sent_total"`
}

type benchErrors struct {
	Total      uint64 `json:"total"`
	Dial       uint64 `json:"dial"`
	Send       uint64 `json:"send"`
	Receive    uint64 `json:"receive"`
	Mismatches uint64 `json:"mismatches"`
}

func buildBenchReport(opts benchOptions, target string, elapsed time.Duration, stats *benchStats) benchReport {
	stats.mu.Lock()
	latencies := append([]time.Duration(nil), stats.latencies...)
	stats.mu.Unlock()
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var latency benchLatency
	if len(latencies) > 0 {
		latency = benchLatency{
			Min: ms(latencies[0]),
			P50: ms(percentile(latencies, 0.50)),
			P95: ms(percentile(latencies, 0.95)),
			P99: ms(percentile(latencies, 0.99)),
			Max: ms(latencies[len(latencies)-1]),
		}
	}

	sent, echoed, bytesOut := stats.sent.Load(), stats.echoed.Load(), stats.bytesOut.Load()
	perSec := float64(echoed) / math.Max(0.001, elapsed.Seconds())
	avgBytes := 0.0
	if sent > 0 {
		avgBytes = float64(bytesOut) / float64(sent)
	}

	errs := benchErrors{
		Dial:       stats.dialFails.Load(),
		Send:       stats.sendFails.Load(),
		Receive:    stats.recvFails.Load(),
		Mismatches: stats.mismatches.Load(),
	}
	errs.Total = errs.Dial + errs.Send + errs.Receive + errs.Mismatches

	return benchReport{
		Version: "1",
		Run: benchRunInfo{
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Go:        runtime.Version(),
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
			CPUCount:  runtime.NumCPU(),
			Version:   version,
		},
		Workload: benchWorkload{
			Profile:       opts.profile,
			Target:        target,
			Clients:       opts.clients,
			DurationMS:    opts.duration.Milliseconds(),
			RatePerClient: opts.rate,
			TimeoutMS:     opts.timeout.Milliseconds(),
		},
		LatencyMS: latency,
		Throughput: benchThroughput{
			PacketsSent:     sent,
			PacketsEchoed:   echoed,
			PacketsPerSec:   perSec,
			PerClientPerSec: perSec / float64(opts.clients),
			AvgPacketBytes:  avgBytes,
			BytesSentTotal:  bytesOut,
		},
		Errors: errs,
	}
}

// percentile returns the nearest-rank percentile of sorted.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	idx := int(math.Ceil(float64(len(sorted))*p)) - 1
	if idx < 0 {
		idx = 0
	}
	return sorted[idx]
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func writeBenchSummary(w io.Writer, report benchReport) {
	fmt.Fprintln(w, "=== gamewire relay benchmark ===")
	fmt.Fprintf(w, "Profile: %s\n", report.Workload.Profile)
	fmt.Fprintf(w, "Target: %s\n", report.Workload.Target)
	fmt.Fprintf(w, "Clients: %d\n", report.Workload.Clients)
	fmt.Fprintf(w, "Duration: %s\n", time.Duration(report.Workload.DurationMS)*time.Millisecond)
	fmt.Fprintf(w, "Target per-client rate: %.2f packets/s\n", report.Workload.RatePerClient)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Packets echoed: %d of %d\n", report.Throughput.PacketsEchoed, report.Throughput.PacketsSent)
	fmt.Fprintf(w, "Throughput: %.1f packets/s (%.2f per client)\n", report.Throughput.PacketsPerSec, report.Throughput.PerClientPerSec)
	fmt.Fprintf(w, "Avg packet: %.1f bytes\n", report.Throughput.AvgPacketBytes)
	fmt.Fprintf(w, "Errors: %d\n", report.Errors.Total)
	fmt.Fprintln(w)

	if report.Throughput.PacketsEchoed == 0 {
		fmt.Fprintln(w, "No latency samples recorded.")
		return
	}
	fmt.Fprintln(w, "RTT (encode -> relay -> receive+decode):")
	fmt.Fprintf(w, "  min: %.2f ms\n", report.LatencyMS.Min)
	fmt.Fprintf(w, "  p50: %.2f ms\n", report.LatencyMS.P50)
	fmt.Fprintf(w, "  p95: %.2f ms\n", report.LatencyMS.P95)
	fmt.Fprintf(w, "  p99: %.2f ms\n", report.LatencyMS.P99)
	fmt.Fprintf(w, "  max: %.2f ms\n", report.LatencyMS.Max)
}

func (c *cli) writeBenchJSON(path string, report benchReport) error {
	if path == "" {
		return nil
	}
	out := c.stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return errors.New("W100").Wrap(err)
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
