package transport

import (
	"net/http"
	"time"
)

// Config holds connection settings shared by Server and Dial.
type Config struct {
	// ReadTimeout is the longest wait for the next inbound packet.
	// Default: 60s
	ReadTimeout time.Duration

	// WriteTimeout bounds each outbound write.
	// Default: 10s
	WriteTimeout time.Duration

	// MaxMessageSize is the largest WebSocket message accepted, in bytes.
	// Default: 64KB plus the packet header.
	MaxMessageSize int64

	// ReadBufferSize and WriteBufferSize size the WebSocket buffers.
	ReadBufferSize  int
	WriteBufferSize int

	// CheckOrigin validates the Origin header on upgrade.
	// Default: allow same-origin and requests without an Origin header.
	CheckOrigin func(r *http.Request) bool
}

// DefaultConfig returns the default transport configuration.
func DefaultConfig() *Config {
	return &Config{
		ReadTimeout:     60 * time.Second,
		WriteTimeout:    10 * time.Second,
		MaxMessageSize:  65535 + 4,
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
	}
}

// withDefaults fills unset fields from DefaultConfig.
func (c *Config) withDefaults() *Config {
	defaults := DefaultConfig()
	if c == nil {
		return defaults
	}
	out := *c
	if out.ReadTimeout == 0 {
		out.ReadTimeout = defaults.ReadTimeout
	}
	if out.WriteTimeout == 0 {
		out.WriteTimeout = defaults.WriteTimeout
	}
	if out.MaxMessageSize == 0 {
		out.MaxMessageSize = defaults.MaxMessageSize
	}
	if out.ReadBufferSize == 0 {
		out.ReadBufferSize = defaults.ReadBufferSize
	}
	if out.WriteBufferSize == 0 {
		out.WriteBufferSize = defaults.WriteBufferSize
	}
	return &out
}
