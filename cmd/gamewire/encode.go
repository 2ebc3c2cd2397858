package main

import (
	"github.com/spf13/cobra"

	"github.com/vango-dev/gamewire/pkg/msg"
)

func (c *cli) encodeCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "encode [file]",
		Short: "Encode JSON messages into a packet",
		Long: `Encode a JSON list of messages into one packet.

Input is read from the file argument or stdin. Each element names the
message type and carries its fields:

  [
    {"type": "RoleAnnouncement",
     "msg": {"playerId": 42, "killerId": 7, "role": "leader", "assigned": true}}
  ]

Examples:
  gamewire encode msgs.json
  echo '{"type":"Spectate","msg":{"specNext":true}}' | gamewire encode
  gamewire encode --format=base64 msgs.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			if len(args) > 0 {
				name = args[0]
			}
			return c.runEncode(name, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatHex, "Output format: hex, base64 or raw")

	return cmd
}

func (c *cli) runEncode(name, format string) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	data, err := readInput(c.stdin, name)
	if err != nil {
		return err
	}
	msgs, err := msg.UnmarshalJSONList(data)
	if err != nil {
		return err
	}
	codec, err := c.codec()
	if err != nil {
		return err
	}
	packet, err := codec.Encode(msgs...)
	if err != nil {
		return err
	}
	c.logger.Debug("encoded packet", "messages", len(msgs), "bytes", len(packet))
	return formatPacket(c.stdout, packet, format)
}
