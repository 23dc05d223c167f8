package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/gartanggali/resort-backend/config"
	"github.com/gartanggali/resort-backend/internal/email"
	"github.com/gartanggali/resort-backend/internal/kafka"
	"github.com/gartanggali/resort-backend/internal/logger"
	"github.com/gartanggali/resort-backend/internal/repository"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zapLogger, err := logger.New("resort-worker")
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic, zapLogger)
	defer func() { _ = consumer.Close() }()

	emailSender := email.NewSender(cfg.SMTP)

	go func() {
		if err := consumer.Consume(ctx, func(ctx context.Context, event kafka.Event) error {
			if err := emailSender.Send(ctx, event); err != nil {
				zapLogger.Error("send notification", zap.String("type", event.Type), zap.Error(err))
			}
			return nil
		}); err != nil && ctx.Err() == nil {
			zapLogger.Error("consumer stopped", zap.Error(err))
		}
	}()

	cleanupEvery := time.Duration(cfg.Worker.OTPCleanupMinutes) * time.Minute
	if cleanupEvery <= 0 {
		cleanupEvery = 5 * time.Minute
	}
	cleanupTicker := time.NewTicker(cleanupEvery)
	defer cleanupTicker.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	zapLogger.Info("worker started",
		zap.String("topic", cfg.Kafka.NotificationsTopic),
		zap.Duration("otp_cleanup_every", cleanupEvery),
	)

	for {
		select {
		case <-cleanupTicker.C:
			cleared, err := userRepo.ClearExpiredResetOTPs(ctx, time.Now())
			if err != nil {
				zapLogger.Error("clear expired otps", zap.Error(err))
				continue
			}
			if cleared > 0 {
				zapLogger.Info("cleared expired otps", zap.Int64("count", cleared))
			}
		case <-sig:
			zapLogger.Info("worker shutting down")
			cancel()
			return
		}
	}
}
