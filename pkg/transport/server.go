package transport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/vango-dev/gamewire/pkg/msg"
	"github.com/vango-dev/gamewire/pkg/packet"
)

// Handler processes the messages of one inbound packet. Returning an
// error closes the connection.
type Handler interface {
	HandleMsgs(ctx context.Context, c *Conn, msgs []msg.Msg) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, c *Conn, msgs []msg.Msg) error

// HandleMsgs calls f(ctx, c, msgs).
func (f HandlerFunc) HandleMsgs(ctx context.Context, c *Conn, msgs []msg.Msg) error {
	return f(ctx, c, msgs)
}

// Echo sends every inbound packet's messages back to the sender.
var Echo = HandlerFunc(func(ctx context.Context, c *Conn, msgs []msg.Msg) error {
	return c.Send(ctx, msgs...)
})

// ConnMetrics is told when connections open and close.
// *metrics.Collector implements it.
type ConnMetrics interface {
	ConnOpened()
	ConnClosed()
}

// Server upgrades HTTP requests to WebSocket connections and runs a read
// loop per connection.
type Server struct {
	codec    *packet.Codec
	handler  Handler
	config   *Config
	upgrader websocket.Upgrader
	logger   *slog.Logger
	metrics  ConnMetrics
	recorder Recorder

	mu       sync.Mutex
	conns    map[*Conn]struct{}
	shutdown bool
	wg       sync.WaitGroup
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithConfig sets the connection configuration.
func WithConfig(config *Config) ServerOption {
	return func(s *Server) {
		s.config = config
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics sets the connection metrics.
func WithMetrics(m ConnMetrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithRecorder captures every packet of every connection.
func WithRecorder(r Recorder) ServerOption {
	return func(s *Server) {
		s.recorder = r
	}
}

// NewServer creates a Server that decodes with codec and passes each
// inbound packet to handler.
func NewServer(codec *packet.Codec, handler Handler, opts ...ServerOption) *Server {
	s := &Server{
		codec:   codec,
		handler: handler,
		logger:  slog.Default().With("component", "transport"),
		conns:   make(map[*Conn]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.config = s.config.withDefaults()
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  s.config.ReadBufferSize,
		WriteBufferSize: s.config.WriteBufferSize,
		CheckOrigin:     s.config.CheckOrigin,
	}
	return s
}

// ServeHTTP upgrades the request and serves the connection until it
// closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		s.logger.Debug("upgrade failed", "error", err)
		return
	}

	c := newConn(ws, s.codec, s.config, s.recorder, s.logger)
	if !s.track(c) {
		c.CloseWith(websocket.CloseGoingAway, "server shutting down")
		return
	}
	defer s.untrack(c)

	s.serve(r.Context(), c)
}

func (s *Server) serve(ctx context.Context, c *Conn) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer c.Close()

	s.logger.Debug("connection opened", "remote", c.RemoteAddr())
	for {
		msgs, err := c.Receive(ctx)
		if err != nil {
			if !isClosed(err) {
				s.logger.Warn("read failed", "remote", c.RemoteAddr(), "error", err)
			}
			return
		}
		if err := s.handler.HandleMsgs(ctx, c, msgs); err != nil {
			s.logger.Error("handler failed", "remote", c.RemoteAddr(), "error", err)
			c.CloseWith(websocket.CloseInternalServerErr, "handler error")
			return
		}
	}
}

func isClosed(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, context.Canceled) ||
		websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}

func (s *Server) track(c *Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutdown {
		return false
	}
	s.conns[c] = struct{}{}
	s.wg.Add(1)
	if s.metrics != nil {
		s.metrics.ConnOpened()
	}
	return true
}

func (s *Server) untrack(c *Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	if s.metrics != nil {
		s.metrics.ConnClosed()
	}
	s.mu.Unlock()
	s.wg.Done()
}

// ConnCount returns the number of open connections.
func (s *Server) ConnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Shutdown closes every connection with a going-away frame and waits for
// their read loops to end, or for ctx to be done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.shutdown = true
	conns := make([]*Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.CloseWith(websocket.CloseGoingAway, "server shutting down")
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
