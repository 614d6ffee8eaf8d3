package http

import (
	"log/slog"

	"github.com/roamgrid/roamgrid/internal/domain/auth"
	"github.com/roamgrid/roamgrid/internal/domain/wifi"
	"github.com/roamgrid/roamgrid/internal/infra/config"
)

// Handler wires the HTTP transport to domain services.
type Handler struct {
	authSvc           auth.Service
	wifiSvc           wifi.Service
	guard             *auth.Guard
	cfg               config.AuthConfig
	postLoginRedirect string
	policy            cookiePolicy
	logger            *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(authSvc auth.Service, wifiSvc wifi.Service, guard *auth.Guard, cfg *config.Config, logger *slog.Logger) *Handler {
	return &Handler{
		authSvc:           authSvc,
		wifiSvc:           wifiSvc,
		guard:             guard,
		cfg:               cfg.Auth,
		postLoginRedirect: cfg.Google.PostLoginRedirectURL,
		policy:            cookiePolicy{secure: cfg.Auth.Production},
		logger:            logger.With("component", "http.handler"),
	}
}
