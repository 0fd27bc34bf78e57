package app

import (
	"context"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-relay/internal/config"
	"github.com/vovakirdan/wirechat-relay/internal/core"
	"github.com/vovakirdan/wirechat-relay/internal/metrics"
	transporthttp "github.com/vovakirdan/wirechat-relay/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	gateway         *core.Gateway
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) *App {
	var (
		m              *metrics.Metrics
		metricsHandler stdhttp.Handler
	)
	if cfg.MetricsEnabled {
		m = metrics.New(metrics.DefaultNamespace)
		metricsHandler = m.Handler()
	}

	hub := core.NewHub(cfg.HistoryCapacity)
	gateway := core.NewGateway(hub, cfg.TypingDebounce, logger, m)
	server := transporthttp.NewServer(gateway, hub, metricsHandler, cfg, logger)

	logger.Info().
		Int("history_capacity", cfg.HistoryCapacity).
		Int("send_buffer", cfg.SendBuffer).
		Bool("metrics", cfg.MetricsEnabled).
		Msg("relay initialized")

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		gateway:         gateway,
		log:             logger,
	}
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() stdhttp.Handler {
	return a.server.Handler
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.gateway.Shutdown()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		// Hijacked WebSocket connections are not tracked by http.Server;
		// closing the outboxes lets their handlers return.
		a.gateway.Shutdown()

		a.log.Info().Int("connections", a.hub.Count()).Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-serverErr
	}
}
