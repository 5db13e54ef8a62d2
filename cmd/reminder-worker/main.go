package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/systemsmatic/backend/cmd/mainconfig"
	"github.com/systemsmatic/backend/internal/appointments"
	appconfig "github.com/systemsmatic/backend/internal/config"
	"github.com/systemsmatic/backend/internal/contacts"
	"github.com/systemsmatic/backend/internal/jobqueue"
	"github.com/systemsmatic/backend/internal/mailer"
	"github.com/systemsmatic/backend/internal/observability/metrics"
	"github.com/systemsmatic/backend/internal/reminders"
	"github.com/systemsmatic/backend/internal/tokens"
	"github.com/systemsmatic/backend/pkg/logging"
)

// The reminder worker drains the due-reminder queue and sends the
// day-before emails. It shares storage and the redis queue with the API
// server and can run as several replicas; the queue hands each job to
// exactly one of them.
func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel, cfg.Env)
	logger.Info("starting systemsmatic reminder worker", "env", cfg.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required for the reminder worker")
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	queue := jobqueue.NewRedisScheduler(redisClient, logger)

	sender, err := mainconfig.NewEmailSender(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build email sender", "error", err)
		os.Exit(1)
	}

	tokenStore := tokens.NewPostgresStore(pool)
	issuer := tokens.NewIssuer(tokenStore, time.Duration(cfg.TokenDefaultTTLHours)*time.Hour, logger)
	mailerSvc := mailer.NewService(sender, mailer.NewPostgresLogStore(pool), issuer, mailer.Config{
		PublicBaseURL: cfg.PublicBaseURL,
		AdminEmail:    cfg.AdminEmail,
	}, nil, logger)

	reminderSvc := reminders.NewService(reminders.NewPostgresStore(pool), queue, cfg.ReminderLeadTime, logger)
	appointmentSvc := appointments.NewService(
		appointments.NewPostgresRepository(pool),
		contacts.NewPostgresRepository(pool),
		mailerSvc,
		reminderSvc,
		logger,
	)

	m := metrics.New(prometheus.NewRegistry())
	worker := reminders.NewWorker(queue, reminderSvc, appointmentSvc, m, logger, reminders.WorkerConfig{
		PollPeriod: cfg.ReminderPollPeriod,
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down reminder worker...")
		cancel()
	}()

	worker.Run(ctx)
	logger.Info("reminder worker stopped")
}
