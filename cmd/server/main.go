package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	httpapi "github.com/barterhub/barterhub/internal/api/http"
	appAuth "github.com/barterhub/barterhub/internal/application/auth"
	appDelivery "github.com/barterhub/barterhub/internal/application/delivery"
	appMessage "github.com/barterhub/barterhub/internal/application/message"
	appNotifier "github.com/barterhub/barterhub/internal/application/notifier"
	appObject "github.com/barterhub/barterhub/internal/application/object"
	appQuota "github.com/barterhub/barterhub/internal/application/quota"
	appTrade "github.com/barterhub/barterhub/internal/application/trade"
	appUser "github.com/barterhub/barterhub/internal/application/user"
	"github.com/barterhub/barterhub/internal/config"
	"github.com/barterhub/barterhub/internal/infrastructure/email"
	"github.com/barterhub/barterhub/internal/infrastructure/postgres"
	"github.com/barterhub/barterhub/internal/infrastructure/sse"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db error: %v", err)
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool, "internal/migrations"); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	// repositories
	tradeRepo := postgres.NewTradeRepository(pool)
	messageRepo := postgres.NewMessageRepository(pool)
	objectRepo := postgres.NewObjectRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	sessionRepo := postgres.NewSessionRepository(pool)

	// infrastructure
	sseHub := sse.NewHub()
	var sender email.Sender
	if cfg.SMTPHost != "" {
		sender = email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	} else {
		sender = email.NewLogSender(logger)
	}

	// services
	notifierSvc := appNotifier.NewService(userRepo, sseHub, sender, logger)
	quotaSvc := appQuota.NewService(tradeRepo, userRepo, nil, logger)
	tradeSvc := appTrade.NewService(tradeRepo, objectRepo, objectRepo, quotaSvc, notifierSvc, logger)
	messageSvc := appMessage.NewService(tradeRepo, messageRepo, notifierSvc, logger)
	deliverySvc := appDelivery.NewService(tradeRepo, logger)
	objectSvc := appObject.NewService(objectRepo, logger)
	userSvc := appUser.NewService(userRepo, logger)
	authSvc := appAuth.NewService(userRepo, sessionRepo, cfg.SessionTTL, logger)

	// API server
	apiServer := httpapi.NewServer(tradeSvc, messageSvc, deliverySvc, objectSvc, userSvc, authSvc, sseHub, cfg.SessionCookieName, cfg.SessionCookieSecure, cfg.TrackingWebhookToken)

	httpServer := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      apiServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// background loops
	go func() {
		ticker := time.NewTicker(cfg.StaleSweepInterval)
		defer ticker.Stop()
		for range ticker.C {
			swept, err := tradeSvc.SweepStale(context.Background(), cfg.StaleTradeTTL, 100)
			if err != nil {
				logger.Warn().Err(err).Msg("stale trade sweep failed")
				continue
			}
			if swept > 0 {
				logger.Info().Int("swept", swept).Msg("stale trades cancelled")
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			_, _ = sessionRepo.DeleteExpired(context.Background())
		}
	}()

	// start server
	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctxShutdown)
	sseHub.Stop()
}
