package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront-service/internal/config"
	"storefront-service/internal/handler"
	"storefront-service/internal/rate"
	"storefront-service/internal/repository"
	"storefront-service/internal/router"
	"storefront-service/internal/tenant"
	"storefront-service/internal/token"
	"storefront-service/internal/usecase"
	"storefront-service/internal/verify"
	"storefront-service/pkg/cache"
	"storefront-service/pkg/email"
	"storefront-service/pkg/sms"
)

// Server owns every long-lived dependency so shutdown can release them in one
// place.
type Server struct {
	HTTP *http.Server

	mainDB   *pgxpool.Pool
	registry *tenant.Registry
	cache    *cache.Cache
	logger   *zap.Logger
}

func New(ctx context.Context, cfg config.AppConfig, logger *zap.Logger) (*Server, error) {
	mainDB, err := pgxpool.New(ctx, cfg.MainDSN)
	if err != nil {
		return nil, fmt.Errorf("connect main db: %w", err)
	}
	if err := mainDB.Ping(ctx); err != nil {
		mainDB.Close()
		return nil, fmt.Errorf("ping main db: %w", err)
	}

	registry := tenant.NewRegistry(cfg.TenantDSNTemplate, logger)

	redisCache := cache.NewCache([]string{cfg.RedisAddr}, cfg.RedisPass, false)
	limiter := rate.NewLimiter(redisCache, cfg.OTPWindow, cfg.OTPMaxPerWindow, cfg.OTPCooldown)

	var smsSender sms.Sender
	if cfg.SMSEnabled() {
		smsSender = sms.NewClient(cfg.SMS.BaseURL, cfg.SMS.AuthKey, cfg.SMS.SenderID, cfg.SMS.TemplateID)
	}

	var mailer email.Sender
	if cfg.Email.BaseURL != "" && cfg.Email.APIKey != "" {
		mailer = email.NewClient(cfg.Email.BaseURL, cfg.Email.APIKey, cfg.Email.FromEmail, cfg.Email.FromName)
	} else {
		mailer = &email.LogSender{Logger: logger}
	}

	gateway, err := verify.NewGateway(cfg, smsSender, logger)
	if err != nil {
		mainDB.Close()
		return nil, fmt.Errorf("build verification gateway: %w", err)
	}

	tokens, err := token.NewIssuer(cfg.JWTSecret, cfg.TokenIssuer, cfg.SessionTTL, cfg.SessionTTLLong, cfg.TokenRefreshWin)
	if err != nil {
		mainDB.Close()
		return nil, fmt.Errorf("build token issuer: %w", err)
	}

	stores := repository.NewStoresRepository(mainDB)
	settings := repository.NewSettingsRepository()
	loader := tenant.NewLoader(stores, registry, settings, logger)

	uc := usecase.NewCustomerUsecase(gateway, limiter, mailer, logger)
	h := handler.NewAuthHandler(uc, tokens, logger)

	return &Server{
		HTTP: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      router.New(h, loader, tokens, redisCache, logger),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		mainDB:   mainDB,
		registry: registry,
		cache:    redisCache,
		logger:   logger,
	}, nil
}

// Shutdown drains the HTTP server and closes every pool and client.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.HTTP.Shutdown(ctx)

	s.registry.Close()
	s.mainDB.Close()
	if cerr := s.cache.Close(); cerr != nil {
		s.logger.Warn("redis close failed", zap.Error(cerr))
	}

	return err
}
