// Package middleware provides composable wrappers for transport.Handler.
//
// Middleware wraps the handler that receives decoded packets on a relay
// connection. Wrappers run in the order given to Chain:
//
//	h := middleware.Chain(transport.Echo,
//		middleware.Recover(logger),
//		middleware.OpenTelemetry(),
//		middleware.Prometheus(metrics.WithRegistry(reg)),
//		middleware.Logging(logger),
//	)
//	srv := transport.NewServer(codec, h)
//
// # OpenTelemetry
//
// OpenTelemetry starts a server span per handled packet. Codec spans
// started by replies sent through the span context become children of it.
//
// # Prometheus
//
// Prometheus counts handled packets, observes handler duration and counts
// handler errors by kind. It takes the same options as metrics.NewCollector.
package middleware
