package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/gamewire/internal/config"
	"github.com/vango-dev/gamewire/internal/errors"
)

type initOptions struct {
	force      bool
	protocol   int
	listen     string
	captureDir string
}

func (c *cli) initCmd() *cobra.Command {
	var opts initOptions

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a default gamewire.json",
		Long: `Write a gamewire.json with default settings into dir (default: the
working directory).

Examples:
  gamewire init
  gamewire init ./relay --listen=:9000 --capture-dir=captures
  gamewire init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return c.runInit(dir, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "Overwrite an existing gamewire.json")
	cmd.Flags().IntVar(&opts.protocol, "protocol", config.DefaultProtocolVersion, "Protocol version")
	cmd.Flags().StringVar(&opts.listen, "listen", config.DefaultListen, "Relay listen address")
	cmd.Flags().StringVar(&opts.captureDir, "capture-dir", "", "Directory for local captures")

	return cmd
}

func (c *cli) runInit(dir string, opts initOptions) error {
	path := filepath.Join(dir, config.ConfigFileName)
	if _, err := os.Stat(path); err == nil && !opts.force {
		return errors.New("W062").
			WithDetail(fmt.Sprintf("%s already exists", path)).
			WithSuggestion("Use --force to overwrite it")
	}

	cfg := config.New()
	cfg.ProtocolVersion = opts.protocol
	cfg.Listen = opts.listen
	cfg.Capture.Dir = opts.captureDir
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.New("W062").Wrap(err)
	}
	if err := cfg.SaveTo(path); err != nil {
		return err
	}
	c.success("Wrote %s", path)
	return nil
}
