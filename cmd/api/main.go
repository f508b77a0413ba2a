package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/alltechdigital/leads-api/cmd/mainconfig"
	"github.com/alltechdigital/leads-api/internal/api/router"
	appconfig "github.com/alltechdigital/leads-api/internal/config"
	"github.com/alltechdigital/leads-api/internal/contact"
	"github.com/alltechdigital/leads-api/internal/csrf"
	"github.com/alltechdigital/leads-api/internal/leads"
	"github.com/alltechdigital/leads-api/internal/notify"
	"github.com/alltechdigital/leads-api/internal/observability/metrics"
	"github.com/alltechdigital/leads-api/internal/ratelimit"
	"github.com/alltechdigital/leads-api/internal/security"
	"github.com/alltechdigital/leads-api/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger.Info("starting leads API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()
	m := metrics.NewContactMetrics(nil)

	// Data layer. Without DATABASE_URL the service runs on an in-memory
	// repository, which is only useful for local frontend work.
	var (
		repo   leads.Repository
		pinger contact.Pinger
		pool   *pgxpool.Pool
	)
	if cfg.DatabaseURL != "" {
		var err error
		pool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to create database pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		repo = leads.NewPostgresRepository(pool, logger, cfg.NotifyOutboxEnabled)
		pinger = pool
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory lead repository")
		repo = leads.NewInMemoryRepository()
	}

	// Rate-limit counters live in Redis when configured so multiple
	// instances share one window.
	var store ratelimit.CounterStore = ratelimit.NewMemoryStore()
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		store = ratelimit.NewRedisStore(redis.NewClient(opts), "")
		logger.Info("rate limiting backed by redis", "addr", cfg.RedisAddr)
	}
	limiter := ratelimit.NewLimiter(store, cfg.RateLimitWindow, cfg.RateLimitMaxRequests, logger)

	events := security.NewEventLogger(logger, cfg.SecurityAlertWebhookURL)
	csrfService := csrf.NewService(cfg.CSRFSecret, cfg.CSRFTokenTTL)
	csrfHandler := csrf.NewHandler(csrfService, logger, cfg.IsProduction())

	sender := buildEmailSender(ctx, cfg, logger)
	notifier := notify.NewService(sender, logger, m)

	validator := &contact.Validator{AcceptTestCNPJs: !cfg.IsProduction()}

	// With the outbox on, the repository queues notification rows in the
	// lead transaction and the deliverer sends them; otherwise the handler
	// fires emails directly after commit.
	inlineNotifier := notifier
	if cfg.NotifyOutboxEnabled {
		inlineNotifier = nil
	}
	contactHandler := contact.NewHandler(validator, repo, inlineNotifier, events, m, logger)
	if pinger != nil {
		contactHandler = contactHandler.WithPinger(pinger)
	}

	if cfg.NotifyOutboxEnabled && pool != nil {
		outboxStore := notify.NewOutboxStore(pool)
		deliverer := notify.NewDeliverer(outboxStore, notifier, logger).
			WithInterval(cfg.NotifyOutboxInterval)
		deliverCtx, stopDeliverer := context.WithCancel(ctx)
		defer stopDeliverer()
		go deliverer.Start(deliverCtx)
		logger.Info("notification outbox deliverer started", "interval", cfg.NotifyOutboxInterval.String())
	}

	routerCfg := &router.Config{
		Logger:             logger,
		ContactHandler:     contactHandler,
		CSRFHandler:        csrfHandler,
		Events:             events,
		Limiter:            limiter,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.AllowedOrigins,
		MaxBodyBytes:       cfg.MaxPayloadBytes,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// buildEmailSender picks the configured provider. A nil return disables
// notifications, which Validate only permits outside production.
func buildEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	switch cfg.EmailProvider {
	case "ses":
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		return notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger)
	case "stub":
		return notify.NewStubEmailSender(logger)
	default:
		if cfg.SendGridAPIKey == "" {
			logger.Warn("SENDGRID_API_KEY not set, email notifications disabled")
			return nil
		}
		return notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
	}
}
