package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gartanggali/resort-backend/api"
	"github.com/gartanggali/resort-backend/config"
	"github.com/gartanggali/resort-backend/internal/bootstrap"
	"github.com/gartanggali/resort-backend/internal/cache"
	"github.com/gartanggali/resort-backend/internal/kafka"
	"github.com/gartanggali/resort-backend/internal/logger"
	"github.com/gartanggali/resort-backend/internal/repository"
	"github.com/gartanggali/resort-backend/internal/service/auth"
	"github.com/gartanggali/resort-backend/internal/service/booking"
	"github.com/gartanggali/resort-backend/internal/service/user"
	"github.com/gartanggali/resort-backend/internal/service/visit"
	"github.com/gartanggali/resort-backend/internal/ticket"
	"github.com/gartanggali/resort-backend/internal/token"
	"github.com/gartanggali/resort-backend/migrations"
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

	zapLogger, err := logger.New("resort-backend")
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := migrations.Apply(ctx, pool); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	redisCache := cache.NewRedisCache(cfg.Redis)
	defer func() { _ = redisCache.Close() }()

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer func() { _ = producer.Close() }()

	codec := token.NewCodec(cfg.Auth.JWTSecret)
	renderer := ticket.NewRenderer(cfg.HTTP.ClientURL)

	userRepo := repository.NewUserRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	visitRepo := repository.NewVisitRepository(pool)

	authService := auth.NewAuthService(
		userRepo,
		codec,
		redisCache,
		producer,
		zapLogger,
		auth.WithSessionTTL(time.Duration(cfg.Auth.SessionTTLHours)*time.Hour),
		auth.WithOTPTTL(time.Duration(cfg.Auth.OTPTTLMinutes)*time.Minute),
		auth.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		auth.WithGoogle(cfg.Auth.Google),
	)
	userService := user.NewUserService(userRepo)
	bookingService := booking.NewBookingService(
		bookingRepo,
		codec,
		renderer,
		producer,
		cfg.Kafka.BookingTopic,
		zapLogger,
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		booking.WithVerifyTTL(time.Duration(cfg.Ticket.VerifyTTLDays)*24*time.Hour),
	)
	visitService := visit.NewVisitService(visitRepo, redisCache, zapLogger)

	handlers := bootstrap.Handlers{
		Auth:     api.NewAuthHandler(authService, cfg.HTTP.ClientURL, cfg.HTTP.SecureCookies, zapLogger),
		Users:    api.NewUserHandler(userService, zapLogger),
		Bookings: api.NewBookingHandler(bookingService, zapLogger),
		Visits:   api.NewVisitHandler(visitService, zapLogger),
	}

	router := bootstrap.NewRouter(cfg, zapLogger, codec, userService, handlers)
	if err := bootstrap.Run(ctx, cfg, zapLogger, router); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
