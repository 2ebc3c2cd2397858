package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/vango-dev/gamewire/pkg/msg"
	"github.com/vango-dev/gamewire/pkg/transport"
)

// Middleware wraps a transport.Handler.
type Middleware func(next transport.Handler) transport.Handler

// Chain wraps h with mws. The first middleware is the outermost.
func Chain(h transport.Handler, mws ...Middleware) transport.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// PanicError is returned by Recover when the wrapped handler panics.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("middleware: handler panic: %v", e.Value)
}

// Recover turns a handler panic into a *PanicError, so the server closes
// only the offending connection.
func Recover(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default().With("component", "middleware")
	}
	return func(next transport.Handler) transport.Handler {
		return transport.HandlerFunc(func(ctx context.Context, c *transport.Conn, msgs []msg.Msg) (err error) {
			defer func() {
				if v := recover(); v != nil {
					pe := &PanicError{Value: v, Stack: debug.Stack()}
					logger.Error("handler panic", "remote", c.RemoteAddr(), "panic", v, "stack", string(pe.Stack))
					err = pe
				}
			}()
			return next.HandleMsgs(ctx, c, msgs)
		})
	}
}

// Logging logs every handled packet at debug level and every handler
// error at warn level.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default().With("component", "middleware")
	}
	return func(next transport.Handler) transport.Handler {
		return transport.HandlerFunc(func(ctx context.Context, c *transport.Conn, msgs []msg.Msg) error {
			start := time.Now()
			err := next.HandleMsgs(ctx, c, msgs)
			if err != nil {
				logger.WarnContext(ctx, "handler failed",
					"remote", c.RemoteAddr(),
					"messages", len(msgs),
					"error", err)
				return err
			}
			logger.DebugContext(ctx, "handled packet",
				"remote", c.RemoteAddr(),
				"messages", len(msgs),
				"duration", time.Since(start))
			return nil
		})
	}
}
