package metrics

import (
	"context"

	"github.com/vango-dev/gamewire/pkg/packet"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name.
const defaultTracerName = "gamewire"

// Span attribute keys.
const (
	AttrMessages = attribute.Key("gamewire.messages")
	AttrBytes    = attribute.Key("gamewire.bytes")
)

// Tracer creates an OpenTelemetry span around each packet encode or
// decode. It implements packet.Tracer.
//
// The tracer uses the global OpenTelemetry tracer provider unless one is
// given. Configure it in main() before building codecs:
//
//	otel.SetTracerProvider(tp)
type Tracer struct {
	tracer trace.Tracer
}

var _ packet.Tracer = (*Tracer)(nil)

// NewTracer returns a Tracer using tp, or the global provider when tp is
// nil. An empty name uses "gamewire".
func NewTracer(name string, tp trace.TracerProvider) *Tracer {
	if name == "" {
		name = defaultTracerName
	}
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Tracer{tracer: tp.Tracer(name)}
}

// Start starts a span named "gamewire.<op>".
func (t *Tracer) Start(ctx context.Context, op string) (context.Context, packet.Span) {
	ctx, s := t.tracer.Start(ctx, "gamewire."+op, trace.WithSpanKind(trace.SpanKindInternal))
	return ctx, span{s}
}

type span struct {
	s trace.Span
}

// End records the packet attributes and the error, if any, then ends the
// span.
func (s span) End(msgs, size int, err error) {
	s.s.SetAttributes(AttrMessages.Int(msgs), AttrBytes.Int(size))
	if err != nil {
		s.s.RecordError(err)
		s.s.SetStatus(codes.Error, ErrorKind(err))
	} else {
		s.s.SetStatus(codes.Ok, "")
	}
	s.s.End()
}
