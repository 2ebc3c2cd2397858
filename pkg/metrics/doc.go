// Package metrics provides Prometheus metrics and OpenTelemetry tracing for
// gamewire codecs and connections.
//
// Both plug into a packet.Codec:
//
//	reg := prometheus.NewRegistry()
//	codec := packet.NewCodec(
//	    packet.WithObserver(metrics.NewCollector(metrics.WithRegistry(reg))),
//	    packet.WithTracer(metrics.NewTracer("", nil)),
//	)
//
//	// Expose metrics endpoint
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package metrics
