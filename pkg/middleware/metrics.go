package middleware

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/gamewire/pkg/metrics"
	"github.com/vango-dev/gamewire/pkg/msg"
	"github.com/vango-dev/gamewire/pkg/transport"
)

type handlerMetrics struct {
	calls    *prometheus.CounterVec
	duration prometheus.Histogram
	errors   *prometheus.CounterVec
}

// Prometheus creates middleware that measures the wrapped handler. It
// takes the same options as metrics.NewCollector; Buckets is ignored in
// favour of prometheus.DefBuckets, since the histogram is in seconds.
//
// Metrics collected:
//   - gamewire_handler_calls_total: Counter of handled packets by status
//   - gamewire_handler_duration_seconds: Histogram of handler duration
//   - gamewire_handler_errors_total: Counter of handler errors by kind
//
// Each call registers new metrics, so build it once per registry.
func Prometheus(opts ...metrics.Option) Middleware {
	config := metrics.NewConfig(opts...)
	factory := promauto.With(config.Registry)

	m := &handlerMetrics{
		calls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "handler_calls_total",
			Help:        "Total number of packets passed to the handler",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "handler_duration_seconds",
			Help:        "Handler duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     prometheus.DefBuckets,
		}),

		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "handler_errors_total",
			Help:        "Total number of handler errors by kind",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),
	}

	return func(next transport.Handler) transport.Handler {
		return transport.HandlerFunc(func(ctx context.Context, c *transport.Conn, msgs []msg.Msg) error {
			start := time.Now()
			err := next.HandleMsgs(ctx, c, msgs)
			m.duration.Observe(time.Since(start).Seconds())

			status := "success"
			if err != nil {
				status = "error"
				m.errors.WithLabelValues(categorizeError(err)).Inc()
			}
			m.calls.WithLabelValues(status).Inc()
			return err
		})
	}
}

// categorizeError keeps the error label low-cardinality.
func categorizeError(err error) string {
	if _, ok := err.(*PanicError); ok {
		return "panic"
	}
	return metrics.ErrorKind(err)
}
