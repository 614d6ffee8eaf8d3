//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/roamgrid/roamgrid/internal/bootstrap"
	"github.com/roamgrid/roamgrid/internal/domain/auth"
	"github.com/roamgrid/roamgrid/internal/domain/wifi"
	"github.com/roamgrid/roamgrid/internal/infra/config"
	httpiface "github.com/roamgrid/roamgrid/internal/interface/http"
	"github.com/roamgrid/roamgrid/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideAuthConfig,
		providePostgresPool,
		provideUserRepository,
		provideWifiRepository,
		provideNonceStore,
		provideAvatarStorage,
		provideRuleset,
		provideAuthorizer,
		auth.NewCodec,
		auth.NewGuard,
		auth.NewService,
		wifi.NewService,
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
