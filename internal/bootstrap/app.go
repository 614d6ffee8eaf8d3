package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	apperrors "github.com/roamgrid/roamgrid/pkg/errors"

	"github.com/roamgrid/roamgrid/internal/infra/config"
)

const shutdownGrace = 15 * time.Second

// App owns the HTTP server lifecycle. Everything behind the router is wired
// before NewApp is called, so Run only has to serve and drain.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	server *http.Server
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server) *App {
	return &App{cfg: cfg, logger: logger.With("component", "bootstrap"), server: server}
}

// Run serves until ctx is cancelled, then drains in-flight requests within
// the shutdown grace period.
func (a *App) Run(ctx context.Context) error {
	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("server listening", "address", a.cfg.HTTP.Address, "production", a.cfg.Auth.Production)
		serveErr <- a.server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return apperrors.Wrap("serve_failed", "http server stopped unexpectedly", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down", "grace", shutdownGrace.String())
	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := a.server.Shutdown(drainCtx); err != nil {
		return apperrors.Wrap("shutdown_failed", "http server did not drain cleanly", err)
	}
	return nil
}
