package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/systemsmatic/backend/cmd/mainconfig"
	"github.com/systemsmatic/backend/internal/api/router"
	"github.com/systemsmatic/backend/internal/appointments"
	"github.com/systemsmatic/backend/internal/auth"
	appconfig "github.com/systemsmatic/backend/internal/config"
	"github.com/systemsmatic/backend/internal/contacts"
	"github.com/systemsmatic/backend/internal/emailactions"
	"github.com/systemsmatic/backend/internal/http/handlers"
	"github.com/systemsmatic/backend/internal/jobqueue"
	"github.com/systemsmatic/backend/internal/mailer"
	"github.com/systemsmatic/backend/internal/observability/metrics"
	"github.com/systemsmatic/backend/internal/quotes"
	"github.com/systemsmatic/backend/internal/reminders"
	"github.com/systemsmatic/backend/internal/tokens"
	"github.com/systemsmatic/backend/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel, cfg.Env)
	logger.Info("starting systemsmatic API server", "env", cfg.Env, "port", cfg.Port)

	ctx := context.Background()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	// Storage: Postgres when DATABASE_URL is set, in-memory otherwise so the
	// server still runs for local development.
	var (
		contactRepo     contacts.Repository
		appointmentRepo appointments.Repository
		quoteRepo       quotes.Repository
		tokenStore      tokens.Store
		reminderStore   reminders.Store
		userRepo        auth.Repository
		emailLog        mailer.LogStore
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		contactRepo = contacts.NewPostgresRepository(pool)
		appointmentRepo = appointments.NewPostgresRepository(pool)
		quoteRepo = quotes.NewPostgresRepository(pool)
		tokenStore = tokens.NewPostgresStore(pool)
		reminderStore = reminders.NewPostgresStore(pool)
		userRepo = auth.NewPostgresRepository(pool)
		emailLog = mailer.NewPostgresLogStore(pool)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory storage")
		contactRepo = contacts.NewInMemoryRepository()
		appointmentRepo = appointments.NewInMemoryRepository()
		quoteRepo = quotes.NewInMemoryRepository()
		tokenStore = tokens.NewInMemoryStore()
		reminderStore = reminders.NewInMemoryStore()
		userRepo = auth.NewInMemoryRepository()
		emailLog = mailer.NewInMemoryLogStore()
	}

	var queue jobqueue.Scheduler
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		queue = jobqueue.NewRedisScheduler(redisClient, logger)
	} else {
		logger.Warn("REDIS_ADDR not set, using in-memory reminder queue")
		queue = jobqueue.NewInMemoryScheduler()
	}

	sender, err := mainconfig.NewEmailSender(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build email sender", "error", err)
		os.Exit(1)
	}

	issuer := tokens.NewIssuer(tokenStore, time.Duration(cfg.TokenDefaultTTLHours)*time.Hour, logger)
	mailerSvc := mailer.NewService(sender, emailLog, issuer, mailer.Config{
		PublicBaseURL: cfg.PublicBaseURL,
		AdminEmail:    cfg.AdminEmail,
	}, m, logger)

	reminderSvc := reminders.NewService(reminderStore, queue, cfg.ReminderLeadTime, logger)
	appointmentSvc := appointments.NewService(appointmentRepo, contactRepo, mailerSvc, reminderSvc, logger)
	quoteSvc := quotes.NewService(quoteRepo, contactRepo, mailerSvc, logger)
	actionSvc := emailactions.NewService(tokens.NewVerifier(tokenStore), appointmentSvc, quoteSvc, m, logger)
	authSvc := auth.NewService(userRepo, cfg.AdminJWTSecret, cfg.AdminJWTTTL, logger)

	r := router.New(&router.Config{
		Logger:             logger,
		PublicHandler:      handlers.NewPublicHandler(appointmentSvc, quoteSvc, logger),
		EmailActions:       handlers.NewEmailActionsHandler(actionSvc, issuer, cfg.Env, logger),
		AuthHandler:        handlers.NewAuthHandler(authSvc, logger),
		AdminAppointments:  handlers.NewAdminAppointmentsHandler(appointmentSvc, logger),
		AdminQuotes:        handlers.NewAdminQuotesHandler(quoteSvc, logger),
		AdminDashboard:     handlers.NewAdminDashboardHandler(appointmentSvc, quoteSvc, mailerSvc, queue, logger),
		AdminJWTSecret:     cfg.AdminJWTSecret,
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		FormRatePerSecond:  1,
		FormBurst:          5,
	})

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
