package transport

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gorilla/websocket"
	"github.com/vango-dev/gamewire/pkg/packet"
)

// Dial connects to a gamewire WebSocket endpoint. A nil config uses
// DefaultConfig.
func Dial(ctx context.Context, url string, codec *packet.Codec, config *Config) (*Conn, error) {
	config = config.withDefaults()
	dialer := websocket.Dialer{
		ReadBufferSize:  config.ReadBufferSize,
		WriteBufferSize: config.WriteBufferSize,
	}
	ws, resp, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("transport: dial %s: %w (status %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("transport: dial %s: %w", url, err)
	}
	return newConn(ws, codec, config, nil, slog.Default().With("component", "transport")), nil
}
