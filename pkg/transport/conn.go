package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vango-dev/gamewire/pkg/capture"
	"github.com/vango-dev/gamewire/pkg/metrics"
	"github.com/vango-dev/gamewire/pkg/msg"
	"github.com/vango-dev/gamewire/pkg/packet"
)

// Transport errors.
var (
	ErrClosed    = errors.New("transport: connection closed")
	ErrNotBinary = errors.New("transport: non-binary message")
)

// Recorder captures raw packets. *capture.Recorder implements it.
type Recorder interface {
	Record(dir capture.Direction, packet []byte) error
}

// Conn is a message connection over one WebSocket. Send may be called
// from any goroutine; Receive must be called from a single goroutine.
type Conn struct {
	ws       *websocket.Conn
	codec    *packet.Codec
	config   *Config
	recorder Recorder
	logger   *slog.Logger

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    chan struct{}
}

func newConn(ws *websocket.Conn, codec *packet.Codec, config *Config, recorder Recorder, logger *slog.Logger) *Conn {
	ws.SetReadLimit(config.MaxMessageSize)
	return &Conn{
		ws:       ws,
		codec:    codec,
		config:   config,
		recorder: recorder,
		logger:   logger.With("remote", ws.RemoteAddr().String()),
		closed:   make(chan struct{}),
	}
}

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() string {
	return c.ws.RemoteAddr().String()
}

// Codec returns the codec the connection encodes with.
func (c *Conn) Codec() *packet.Codec {
	return c.codec
}

// Send encodes msgs into one packet and writes it.
func (c *Conn) Send(ctx context.Context, msgs ...msg.Msg) error {
	data, err := c.codec.EncodeContext(ctx, msgs...)
	if err != nil {
		return err
	}
	return c.SendPacket(ctx, data)
}

// SendPacket writes an already encoded packet.
func (c *Conn) SendPacket(ctx context.Context, data []byte) error {
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.ws.SetWriteDeadline(c.deadline(ctx, c.config.WriteTimeout))
	if err := c.ws.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return fmt.Errorf("transport: write: %w", err)
	}
	c.record(capture.Outbound, data)
	return nil
}

// Receive reads and decodes the next packet. A packet that fails to decode
// closes the connection with a policy violation and returns the decode
// error.
func (c *Conn) Receive(ctx context.Context) ([]msg.Msg, error) {
	stop := context.AfterFunc(ctx, func() {
		c.ws.SetReadDeadline(time.Now())
	})
	defer stop()

	c.ws.SetReadDeadline(c.deadline(ctx, c.config.ReadTimeout))
	mt, data, err := c.ws.ReadMessage()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	if mt != websocket.BinaryMessage {
		c.CloseWith(websocket.CloseUnsupportedData, "binary packets only")
		return nil, ErrNotBinary
	}
	c.record(capture.Inbound, data)

	msgs, err := c.codec.DecodeContext(ctx, data)
	if err != nil {
		c.logger.Warn("packet decode failed", "error", err, "size", len(data))
		c.CloseWith(websocket.ClosePolicyViolation, metrics.ErrorKind(err))
		return nil, err
	}
	return msgs, nil
}

// Close sends a normal close frame and closes the connection.
func (c *Conn) Close() error {
	return c.CloseWith(websocket.CloseNormalClosure, "")
}

// CloseWith sends a close frame with the given code and reason, then
// closes the connection. Only the first call has any effect.
func (c *Conn) CloseWith(code int, reason string) error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		c.writeMu.Lock()
		c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(code, reason),
			time.Now().Add(c.config.WriteTimeout))
		c.writeMu.Unlock()
		err = c.ws.Close()
	})
	return err
}

// Done is closed once the connection is closed locally.
func (c *Conn) Done() <-chan struct{} {
	return c.closed
}

func (c *Conn) record(dir capture.Direction, data []byte) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.Record(dir, data); err != nil {
		c.logger.Error("capture failed", "error", err)
	}
}

func (c *Conn) deadline(ctx context.Context, timeout time.Duration) time.Time {
	d := time.Now().Add(timeout)
	if cd, ok := ctx.Deadline(); ok && cd.Before(d) {
		return cd
	}
	return d
}
