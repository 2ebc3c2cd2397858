package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/vango-dev/gamewire/internal/config"
	"github.com/vango-dev/gamewire/internal/errors"
	"github.com/vango-dev/gamewire/pkg/gametype"
	"github.com/vango-dev/gamewire/pkg/packet"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// cli is the state shared by every subcommand.
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configPath string
	logLevel   string

	cfg    *config.Config
	types  *gametype.Set
	logger *slog.Logger
}

func main() {
	c := &cli{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	if !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		errors.DisableColors()
	}
	if err := c.rootCmd().Execute(); err != nil {
		errors.Fprint(c.stderr, err)
		os.Exit(1)
	}
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gamewire",
		Short: "Encode, decode and relay gamewire packets",
		Long: `gamewire works with the bit-packed game wire format.

It converts packets to and from JSON, lists the game type table of a
protocol version, runs a WebSocket relay with metrics and packet capture,
benchmarks a relay, and replays captured sessions from disk or S3.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "Path to gamewire.json (default: search upward from the working directory)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn or error (default from gamewire.json)")

	root.AddCommand(
		c.encodeCmd(),
		c.decodeCmd(),
		c.typesCmd(),
		c.serveCmd(),
		c.replayCmd(),
		c.benchCmd(),
		c.initCmd(),
		versionCmd(c),
	)
	root.SetIn(c.stdin)
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)
	return root
}

// setup loads the config, applies flag overrides and installs the logger.
func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.Resolve(cmd.Context(), c.configPath)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	level, _ := cfg.SlogLevel()

	c.cfg = cfg
	c.logger = slog.New(slog.NewTextHandler(c.stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(c.logger)
	return nil
}

// codec builds a packet codec from the config. Extra options are applied
// after the configured ones.
func (c *cli) codec(extra ...packet.Option) (*packet.Codec, error) {
	if c.types == nil {
		types, err := c.cfg.Types()
		if err != nil {
			return nil, err
		}
		c.types = types
	}
	opts := append(c.cfg.CodecOptions(c.types), extra...)
	return packet.NewCodec(opts...), nil
}

// success prints a success message to stderr.
func (c *cli) success(format string, args ...any) {
	fmt.Fprintf(c.stderr, "✓ %s\n", fmt.Sprintf(format, args...))
}
