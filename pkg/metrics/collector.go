package metrics

import (
	"context"
	"errors"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vango-dev/gamewire/pkg/bitstream"
	"github.com/vango-dev/gamewire/pkg/msg"
	"github.com/vango-dev/gamewire/pkg/packet"
)

// Direction label values.
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// Config configures a Collector.
type Config struct {
	// Namespace is the metrics namespace (default: "gamewire").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for packet sizes in bytes.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures a Collector.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the packet size histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

// NewConfig returns the default configuration with opts applied.
func NewConfig(opts ...Option) Config {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return config
}

func defaultConfig() Config {
	return Config{
		Namespace: "gamewire",
		Buckets:   []float64{8, 32, 128, 512, 2048, 8192, 32768},
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Collector records codec and connection metrics. It implements
// packet.Observer.
//
// Metrics collected:
//   - gamewire_messages_total: Counter of messages by type and direction
//   - gamewire_packet_bytes: Histogram of packet sizes by direction
//   - gamewire_codec_errors_total: Counter of codec errors by kind
//   - gamewire_connections: Gauge of open connections
type Collector struct {
	messages    *prometheus.CounterVec
	packetBytes *prometheus.HistogramVec
	errors      *prometheus.CounterVec
	connections prometheus.Gauge
}

var _ packet.Observer = (*Collector)(nil)

// NewCollector registers the gamewire metrics and returns their collector.
// Registering twice against the same registry panics, as promauto does.
func NewCollector(opts ...Option) *Collector {
	config := NewConfig(opts...)
	factory := promauto.With(config.Registry)

	return &Collector{
		messages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "messages_total",
			Help:        "Total number of messages encoded or decoded",
			ConstLabels: config.ConstLabels,
		}, []string{"type", "direction"}),

		packetBytes: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "packet_bytes",
			Help:        "Packet size in bytes, header included",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"direction"}),

		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "codec_errors_total",
			Help:        "Total number of packets that failed to encode or decode",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		connections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "connections",
			Help:        "Number of open WebSocket connections",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// PacketEncoded records an outbound packet.
func (c *Collector) PacketEncoded(msgs []msg.Msg, size int) {
	c.record(DirectionOut, msgs, size)
}

// PacketDecoded records an inbound packet.
func (c *Collector) PacketDecoded(msgs []msg.Msg, size int) {
	c.record(DirectionIn, msgs, size)
}

func (c *Collector) record(dir string, msgs []msg.Msg, size int) {
	for _, m := range msgs {
		c.messages.WithLabelValues(m.Type().String(), dir).Inc()
	}
	c.packetBytes.WithLabelValues(dir).Observe(float64(size))
}

// CodecError records a failed encode or decode.
func (c *Collector) CodecError(op string, err error) {
	c.errors.WithLabelValues(ErrorKind(err)).Inc()
}

// ConnOpened records a new connection.
func (c *Collector) ConnOpened() {
	c.connections.Inc()
}

// ConnClosed records a closed connection.
func (c *Collector) ConnClosed() {
	c.connections.Dec()
}

// ErrorKind returns a low-cardinality label for a codec error.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, packet.ErrPacketTooLarge):
		return "too_large"
	case errors.Is(err, bitstream.ErrBufferOverflow):
		return "overflow"
	case errors.Is(err, bitstream.ErrBufferUnderflow):
		return "underflow"
	case errors.Is(err, bitstream.ErrUnknownType):
		return "unknown_type"
	case errors.Is(err, bitstream.ErrValueOutOfRange):
		return "out_of_range"
	case errors.Is(err, msg.ErrUnknownMsgType):
		return "unknown_msg"
	case errors.Is(err, msg.ErrTooMany):
		return "too_many"
	case errors.Is(err, packet.ErrVersionMismatch):
		return "version"
	case errors.Is(err, io.ErrUnexpectedEOF):
		return "truncated"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "other"
	}
}
