package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/gamewire/pkg/msg"
	"github.com/vango-dev/gamewire/pkg/transport"
)

const defaultTracerName = "gamewire"

// Span attribute keys.
const (
	AttrRemote   = attribute.Key("gamewire.remote")
	AttrMsgTypes = attribute.Key("gamewire.msg_types")
)

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "gamewire").
	TracerName string

	// TracerProvider defaults to the global provider.
	TracerProvider trace.TracerProvider

	// Filter decides which packets are traced. Nil traces all.
	Filter func(msgs []msg.Msg) bool

	// AttributeExtractor adds custom attributes to each span.
	AttributeExtractor func(c *transport.Conn, msgs []msg.Msg) []attribute.KeyValue
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithFilter sets a filter function for packets.
func WithFilter(filter func(msgs []msg.Msg) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(c *transport.Conn, msgs []msg.Msg) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

// OpenTelemetry creates middleware that wraps every handled packet in a
// server span named "gamewire.handle". The span carries the remote
// address and the message type names; handler errors are recorded on it.
// The span context is passed to the handler through ctx, so codec spans
// started by replies become its children.
func OpenTelemetry(opts ...OTelOption) Middleware {
	config := OTelConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	if config.TracerProvider == nil {
		config.TracerProvider = otel.GetTracerProvider()
	}
	tracer := config.TracerProvider.Tracer(config.TracerName)

	return func(next transport.Handler) transport.Handler {
		return transport.HandlerFunc(func(ctx context.Context, c *transport.Conn, msgs []msg.Msg) error {
			if config.Filter != nil && !config.Filter(msgs) {
				return next.HandleMsgs(ctx, c, msgs)
			}

			names := make([]string, len(msgs))
			for i, m := range msgs {
				names[i] = m.Type().String()
			}
			attrs := []attribute.KeyValue{
				AttrRemote.String(c.RemoteAddr()),
				AttrMsgTypes.StringSlice(names),
			}
			if config.AttributeExtractor != nil {
				attrs = append(attrs, config.AttributeExtractor(c, msgs)...)
			}

			ctx, span := tracer.Start(ctx, "gamewire.handle",
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(attrs...),
			)
			defer span.End()

			err := next.HandleMsgs(ctx, c, msgs)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			} else {
				span.SetStatus(codes.Ok, "")
			}
			return err
		})
	}
}
