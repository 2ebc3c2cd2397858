package main

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/vango-dev/gamewire/internal/errors"
	"github.com/vango-dev/gamewire/pkg/metrics"
	"github.com/vango-dev/gamewire/pkg/middleware"
	"github.com/vango-dev/gamewire/pkg/packet"
	"github.com/vango-dev/gamewire/pkg/transport"
)

type serveOptions struct {
	listen          string
	record          bool
	shutdownTimeout time.Duration
}

func (c *cli) serveCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a WebSocket echo relay",
		Long: `Run a WebSocket relay that decodes every inbound packet and echoes
its messages back to the sender.

Endpoints:
  GET /ws       WebSocket, one packet per binary message
  GET /types    the game type table as JSON
  GET /metrics  Prometheus metrics (when metrics are enabled)

With --record every packet is captured, and the capture is uploaded to
the configured capture store on shutdown.

Examples:
  gamewire serve
  gamewire serve --listen=:9000
  gamewire serve --record`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.listen, "listen", "l", "", "Address to listen on (default from gamewire.json)")
	cmd.Flags().BoolVar(&opts.record, "record", false, "Capture every packet and upload the capture on shutdown")
	cmd.Flags().DurationVar(&opts.shutdownTimeout, "shutdown-timeout", 10*time.Second, "How long to wait for connections to close")

	return cmd
}

// relay is the HTTP side of serve, separated from listening so it can be
// driven by httptest.
type relay struct {
	server  *transport.Server
	handler http.Handler
	session *captureSession
}

func (c *cli) newRelay(ctx context.Context, record bool) (*relay, error) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(append(c.cfg.MetricsOptions(), metrics.WithRegistry(reg))...)
	codec, err := c.codec(
		packet.WithObserver(collector),
		packet.WithTracer(metrics.NewTracer("gamewire", nil)),
	)
	if err != nil {
		return nil, err
	}

	r := &relay{}
	srvOpts := []transport.ServerOption{
		transport.WithConfig(c.cfg.TransportConfig()),
		transport.WithLogger(c.logger.With("component", "transport")),
		transport.WithMetrics(collector),
	}
	if record {
		store, err := c.cfg.CaptureStore(ctx)
		if err != nil {
			return nil, err
		}
		if store == nil {
			return nil, errors.New("W062").
				WithDetail("capture: --record needs a capture store").
				WithSuggestion(`Set capture.dir or capture.s3Bucket in gamewire.json`)
		}
		if r.session, err = startCapture(store, c.logger.With("component", "capture")); err != nil {
			return nil, err
		}
		srvOpts = append(srvOpts, transport.WithRecorder(r.session.recorder))
	}
	mwLogger := c.logger.With("component", "middleware")
	handler := middleware.Chain(transport.Echo,
		middleware.Recover(mwLogger),
		middleware.OpenTelemetry(),
		middleware.Prometheus(append(c.cfg.MetricsOptions(), metrics.WithRegistry(reg))...),
		middleware.Logging(mwLogger),
	)
	r.server = transport.NewServer(codec, handler, srvOpts...)

	var routerOpts []transport.RouterOption
	if c.cfg.Metrics.Enabled {
		routerOpts = append(routerOpts, transport.MetricsAt(c.cfg.Metrics.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))
	}
	r.handler = transport.NewRouter(r.server, c.types, routerOpts...)
	return r, nil
}

// close shuts down every connection and finishes the capture session.
func (r *relay) close(ctx context.Context) error {
	err := r.server.Shutdown(ctx)
	if r.session != nil {
		if ferr := r.session.finish(ctx); ferr != nil && err == nil {
			err = ferr
		}
	}
	return err
}

func (c *cli) runServe(ctx context.Context, opts serveOptions) error {
	addr := opts.listen
	if addr == "" {
		addr = c.cfg.Addr()
	}
	logger := c.logger.With("component", "serve")

	r, err := c.newRelay(ctx, opts.record)
	if err != nil {
		return err
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		r.close(ctx)
		return errors.New("W042").Wrap(err)
	}
	httpSrv := &http.Server{
		Handler:           r.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var g run.Group
	g.Add(func() error {
		logger.Info("listening",
			"addr", ln.Addr().String(),
			"protocol", c.types.Version(),
			"metrics", c.cfg.Metrics.Enabled,
			"record", opts.record)
		if err := httpSrv.Serve(ln); !stderrors.Is(err, http.ErrServerClosed) {
			return errors.New("W042").Wrap(err)
		}
		return nil
	}, func(error) {
		sctx, cancel := context.WithTimeout(context.Background(), opts.shutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(sctx); err != nil {
			logger.Warn("http shutdown", "error", err)
		}
		if err := r.close(sctx); err != nil {
			logger.Warn("relay shutdown", "error", err)
		}
	})
	{
		sigCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		g.Add(func() error {
			<-sigCtx.Done()
			logger.Info("shutting down", "connections", r.server.ConnCount())
			return nil
		}, func(error) {
			cancel()
		})
	}
	return g.Run()
}
