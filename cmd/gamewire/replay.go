package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/gamewire/internal/errors"
	"github.com/vango-dev/gamewire/pkg/capture"
	"github.com/vango-dev/gamewire/pkg/msg"
)

type replayOptions struct {
	fromStore bool
	list      bool
	dir       string
	workers   int
}

func (c *cli) replayCmd() *cobra.Command {
	var opts replayOptions

	cmd := &cobra.Command{
		Use:   "replay <file|key>",
		Short: "Decode a capture file",
		Long: `Decode every packet of a capture and print one JSON line per packet.

The capture is read from a local file, or with --store from the configured
capture store (capture.dir or capture.s3Bucket).

Examples:
  gamewire replay session.gwcp
  gamewire replay --store 2024/06/01/9f1c0e52-7d4b-4a57-9f5e-8a3c2d8e6b10.gwcp
  gamewire replay --store --list 2024/06/
  gamewire replay --direction=in session.gwcp`,
		Args: func(cmd *cobra.Command, args []string) error {
			if opts.list {
				return cobra.MaximumNArgs(1)(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var target string
			if len(args) > 0 {
				target = args[0]
			}
			return c.runReplay(cmd.Context(), target, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.fromStore, "store", false, "Read from the configured capture store instead of a local file")
	cmd.Flags().BoolVar(&opts.list, "list", false, "List the captures in the store under the given prefix")
	cmd.Flags().StringVar(&opts.dir, "direction", "", "Only show packets travelling in this direction: in or out")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", runtime.GOMAXPROCS(0), "Packets decoded in parallel")

	return cmd
}

// replayLine is the JSON form of one replayed packet.
type replayLine struct {
	Time  time.Time      `json:"time"`
	Dir   string         `json:"dir"`
	Bytes int            `json:"bytes"`
	Msgs  []msg.Envelope `json:"msgs"`
}

func (c *cli) runReplay(ctx context.Context, target string, opts replayOptions) error {
	if opts.dir != "" && opts.dir != capture.Inbound.String() && opts.dir != capture.Outbound.String() {
		return errors.New("W100").
			WithDetail(fmt.Sprintf("unknown direction %q", opts.dir)).
			WithSuggestion("Use in or out")
	}

	if opts.fromStore || opts.list {
		store, err := c.cfg.CaptureStore(ctx)
		if err != nil {
			return err
		}
		if store == nil {
			return errors.New("W062").
				WithDetail("capture: no capture store configured").
				WithSuggestion("Set capture.dir or capture.s3Bucket in gamewire.json")
		}
		if opts.list {
			return c.listCaptures(ctx, store, target)
		}
		r, closer, err := capture.Open(ctx, store, target)
		if err != nil {
			return err
		}
		defer closer.Close()
		return c.replay(ctx, r, opts)
	}

	f, err := os.Open(target)
	if err != nil {
		return err
	}
	defer f.Close()
	r, err := capture.NewReader(f)
	if err != nil {
		return fmt.Errorf("%s: %w", target, err)
	}
	return c.replay(ctx, r, opts)
}

func (c *cli) listCaptures(ctx context.Context, store capture.Store, prefix string) error {
	keys, err := store.List(ctx, prefix)
	if err != nil {
		return errors.New("W082").Wrap(err)
	}
	for _, k := range keys {
		fmt.Fprintln(c.stdout, k)
	}
	return nil
}

func (c *cli) replay(ctx context.Context, r *capture.Reader, opts replayOptions) error {
	var records []capture.Record
	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if opts.dir != "" && rec.Dir.String() != opts.dir {
			continue
		}
		records = append(records, rec)
	}

	codec, err := c.codec()
	if err != nil {
		return err
	}
	packets := make([][]byte, len(records))
	for i, rec := range records {
		packets[i] = rec.Packet
	}
	decoded, err := codec.DecodeAll(ctx, packets, opts.workers)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(c.stdout)
	for i, rec := range records {
		line := replayLine{
			Time:  rec.Time.UTC(),
			Dir:   rec.Dir.String(),
			Bytes: len(rec.Packet),
			Msgs:  make([]msg.Envelope, len(decoded[i])),
		}
		for j, m := range decoded[i] {
			line.Msgs[j] = msg.Envelope{Type: m.Type().String(), Msg: m}
		}
		if err := enc.Encode(line); err != nil {
			return err
		}
	}
	c.logger.Debug("replayed capture", "packets", len(records))
	return nil
}
