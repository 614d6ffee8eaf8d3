package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/roamgrid/roamgrid/internal/domain/access"
	"github.com/roamgrid/roamgrid/internal/domain/auth"
	"github.com/roamgrid/roamgrid/internal/domain/wifi"
	"github.com/roamgrid/roamgrid/internal/infra/avatarstore"
	"github.com/roamgrid/roamgrid/internal/infra/config"
	"github.com/roamgrid/roamgrid/internal/infra/noncestore"
	"github.com/roamgrid/roamgrid/internal/infra/userrepo"
	"github.com/roamgrid/roamgrid/internal/infra/wifirepo"
)

// devSecret keeps local development working without configuration. The
// config loader rejects an empty secret in production.
const devSecret = "roamgrid-dev-secret-do-not-use"

func provideAuthConfig(cfg *config.Config, logger *slog.Logger) auth.Config {
	secret := strings.TrimSpace(cfg.Auth.Secret)
	if secret == "" {
		logger.Warn("auth secret not set, using development fallback")
		secret = devSecret
	}
	return auth.Config{
		Secret:     secret,
		TokenTTL:   cfg.Auth.TokenTTL,
		CSRFTTL:    cfg.Auth.CSRFTTL,
		WalletTTL:  cfg.Auth.WalletTTL,
		Production: cfg.Auth.Production,
		Google: auth.GoogleConfig{
			ClientID:             cfg.Google.ClientID,
			ClientSecret:         cfg.Google.ClientSecret,
			RedirectURL:          cfg.Google.RedirectURL,
			TokenEncryptionKey:   cfg.Google.TokenEncryptionKey,
			PostLoginRedirectURL: cfg.Google.PostLoginRedirectURL,
		},
	}
}

func providePostgresPool(cfg *config.Config, logger *slog.Logger) *pgxpool.Pool {
	dsn := strings.TrimSpace(cfg.Postgres.DSN)
	if dsn == "" {
		logger.Info("postgres dsn not set, using memory repositories")
		return nil
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory repositories", "error", err)
		return nil
	}
	if cfg.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Postgres.MaxConns
	}
	if cfg.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory repositories", "error", err)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory repositories", "error", err)
		pool.Close()
		return nil
	}
	logger.Info("postgres enabled")
	return pool
}

func provideUserRepository(pool *pgxpool.Pool) auth.Repository {
	if pool == nil {
		return userrepo.NewMemoryRepository()
	}
	return userrepo.NewPostgresRepository(pool)
}

func provideWifiRepository(pool *pgxpool.Pool) wifi.Repository {
	if pool == nil {
		return wifirepo.NewMemoryRepository()
	}
	return wifirepo.NewPostgresRepository(pool)
}

func provideNonceStore(cfg *config.Config, logger *slog.Logger) auth.NonceStore {
	if !cfg.Valkey.Enabled {
		return noncestore.NewMemoryStore()
	}
	opt, err := buildValkeyOptions(cfg.Valkey.Addr)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to memory nonce store", "error", err)
		return noncestore.NewMemoryStore()
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to memory nonce store", "error", err)
		return noncestore.NewMemoryStore()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back to memory nonce store", "error", err)
		return noncestore.NewMemoryStore()
	}
	logger.Info("valkey nonce store enabled", "addr", cfg.Valkey.Addr)
	return noncestore.NewValkeyStore(client, "wallet-nonce")
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

func provideAvatarStorage(cfg *config.Config, logger *slog.Logger) auth.AvatarStorage {
	if strings.TrimSpace(cfg.Storage.Endpoint) == "" || strings.TrimSpace(cfg.Storage.Bucket) == "" {
		logger.Info("object storage not configured, using memory avatar storage")
		return avatarstore.NewMemoryStorage()
	}
	storage, err := avatarstore.NewS3Storage(cfg.Storage.Endpoint, cfg.Storage.AccessKey, cfg.Storage.SecretKey, cfg.Storage.Bucket, cfg.Storage.Region, logger)
	if err != nil {
		logger.Error("failed to initialize object storage, using memory avatar storage", "error", err)
		return avatarstore.NewMemoryStorage()
	}
	return storage
}

func provideRuleset() access.Ruleset {
	return access.DefaultRuleset()
}

func provideAuthorizer(cfg *config.Config, rules access.Ruleset, codec *auth.Codec, guard *auth.Guard, users auth.Repository, logger *slog.Logger) *access.Authorizer {
	return access.NewAuthorizer(rules, codec, guard, users, cfg.Auth.SystemToken, logger)
}
