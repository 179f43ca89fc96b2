package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gymdesk/internal/config"
	"gymdesk/internal/db"
	"gymdesk/internal/expiry"
	"gymdesk/internal/logger"
	"gymdesk/internal/notify"
	"gymdesk/internal/server"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// @title GymDesk API
// @version 1.0
// @description Gym memberships, personal training and dues.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init()
		logger.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	defer logger.Sync()
	logger.Info("Starting GymDesk application", "port", cfg.Port)

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	queue := notify.NewQueue(rdb, notify.NewSMTPSender(notify.SMTPConfig{
		From:     cfg.EmailFrom,
		FromName: cfg.EmailFromName,
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Pass:     cfg.SMTPPass,
	}))

	srv := server.New(database, rdb, cfg, queue)

	scheduler, err := expiry.NewScheduler(cfg.ExpirySchedule, srv.Sweeper())
	if err != nil {
		logger.Fatalf("Failed to build expiry scheduler: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		queue.Start(gctx)
		return nil
	})
	g.Go(func() error {
		queue.ReportQueueLength(gctx, 15*time.Second)
		return nil
	})
	g.Go(func() error {
		scheduler.Start(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Infof("Server listening on :%s", cfg.Port)
		return srv.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Errorf("Server error: %v", err)
	}
	logger.Info("Server stopped")
}
