package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/tralhotec/tralhobot-go/internal/config"
	"github.com/tralhotec/tralhobot-go/internal/domain"
	"github.com/tralhotec/tralhobot-go/internal/handler"
	"github.com/tralhotec/tralhobot-go/internal/infra/channel"
	"github.com/tralhotec/tralhobot-go/internal/infra/clu"
	"github.com/tralhotec/tralhobot-go/internal/infra/mailer"
	"github.com/tralhotec/tralhobot-go/internal/infra/observability"
	"github.com/tralhotec/tralhobot-go/internal/infra/resilience"
	"github.com/tralhotec/tralhobot-go/internal/infra/statestore"
	"github.com/tralhotec/tralhobot-go/internal/port"
	"github.com/tralhotec/tralhobot-go/internal/service"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Bool("classifier_configured", cfg.ClassifierConfigured()),
		zap.Bool("mailer_configured", cfg.MailerConfigured()),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("clu_timeout", cfg.CLUTimeout),
		zap.Duration("state_ttl", cfg.StateTTL),
		zap.Int("max_concurrency", cfg.MaxConcurrency),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "tralhobot")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Turn state store ---
	store := statestore.New[*domain.Conversation](cfg.StateTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	bulkhead := resilience.NewBulkhead(cfg.MaxConcurrency)

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	cluHTTPClient := &http.Client{Timeout: cfg.CLUTimeout}

	connector := channel.NewConnector(
		httpClient,
		cfg.AppID,
		cfg.AppPassword,
		resilience.NewCircuitBreaker("channel"),
		resilienceCfg,
		logger,
	)

	// --- Resolver pipeline (priority order) ---
	resolvers := []service.TurnResolver{
		service.NewSupportFlow(logger),
		service.NewSDRFlow(domain.SizeKeywordPredicate, logger),
	}

	if cfg.ClassifierConfigured() {
		classifier := clu.NewClient(
			cluHTTPClient,
			cfg.CLUEndpoint,
			cfg.CLUKey,
			cfg.CLUProjectName,
			cfg.CLUDeploymentName,
			resilience.NewCircuitBreaker("clu"),
		)
		resolvers = append(resolvers, service.NewClassifierResolver(classifier, metrics, logger))
		logger.Info("intent classifier enabled",
			zap.String("project", cfg.CLUProjectName),
			zap.String("deployment", cfg.CLUDeploymentName),
		)
	} else {
		logger.Warn("intent classifier not configured, turns fall through to FAQ")
	}

	resolvers = append(resolvers, service.NewFAQResolver(logger))

	// --- Notification sink ---
	var notifier port.LeadNotifier
	if cfg.MailerConfigured() {
		notifier = mailer.New(mailer.Config{
			FromAddress: cfg.EmailFromAddress,
			ToAddress:   cfg.EmailToAddress,
			Password:    cfg.EmailPassword,
			SMTPServer:  cfg.EmailSMTPServer,
			SMTPPort:    cfg.EmailSMTPPort,
		}, resilience.NewCircuitBreaker("smtp"), logger)
		logger.Info("lead notification sink enabled", zap.String("smtp_server", cfg.EmailSMTPServer))
	} else {
		logger.Warn("e-mail not configured, lead notifications will be skipped")
	}

	// --- Dispatcher ---
	dispatcher := service.NewDispatcher(store, resolvers, notifier, bulkhead, metrics, logger)

	// --- Router ---
	router := handler.NewRouter(dispatcher, connector, cfg.AppID, cfg.AppPassword, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
