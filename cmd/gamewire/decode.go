package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/gamewire/pkg/msg"
	"github.com/vango-dev/gamewire/pkg/packet"
)

func (c *cli) decodeCmd() *cobra.Command {
	var (
		format     string
		showHeader bool
	)

	cmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Decode a packet into JSON messages",
		Long: `Decode one packet and print its messages as JSON.

Input is read from the file argument or stdin. Hex input may contain
spaces and newlines.

Examples:
  echo 01 00 00 06 0e 00 2a 00 07 0c | gamewire decode
  gamewire decode --format=raw packet.bin
  gamewire decode --header packet.hex`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			if len(args) > 0 {
				name = args[0]
			}
			return c.runDecode(name, format, showHeader)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatHex, "Input format: hex, base64 or raw")
	cmd.Flags().BoolVar(&showHeader, "header", false, "Print the packet header before the messages")

	return cmd
}

func (c *cli) runDecode(name, format string, showHeader bool) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	data, err := readInput(c.stdin, name)
	if err != nil {
		return err
	}
	data, err = parsePacket(data, format)
	if err != nil {
		return err
	}
	if showHeader {
		h, err := packet.ParseHeader(data)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "version=%d flags=0x%02x length=%d\n", h.Version, uint8(h.Flags), h.Length)
	}
	codec, err := c.codec()
	if err != nil {
		return err
	}
	msgs, err := codec.Decode(data)
	if err != nil {
		return err
	}
	out, err := msg.MarshalJSONList(msgs)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.stdout, "%s\n", out)
	return err
}
