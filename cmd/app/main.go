package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dakshgarg/flightdesk/config"
	"github.com/dakshgarg/flightdesk/internal/bootstrap"
	"github.com/dakshgarg/flightdesk/internal/cache"
	"github.com/dakshgarg/flightdesk/internal/kafka"
	"github.com/dakshgarg/flightdesk/internal/repository"
	"github.com/dakshgarg/flightdesk/internal/service/booking"
	"github.com/dakshgarg/flightdesk/internal/service/flights"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err == nil {
		log.Println("loaded .env")
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.FlightsCacheTTL)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	inventoryRepo := repository.NewInventoryRepository(pool)
	ledgerRepo := repository.NewLedgerRepository(pool)
	referenceRepo := repository.NewReferenceRepository(pool)

	flightService := flights.NewFlightService(inventoryRepo, referenceRepo, redisCache)

	opts := []booking.BookingServiceOption{
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	}
	if cfg.Booking.MaxRefAttempts > 0 {
		opts = append(opts, booking.WithMaxRefAttempts(cfg.Booking.MaxRefAttempts))
	}
	bookingService := booking.NewBookingService(
		pool,
		inventoryRepo,
		ledgerRepo,
		redisCache,
		producer,
		cfg.Kafka.BookingTopic,
		opts...,
	)

	if err := bootstrap.Run(ctx, cfg, flightService, bookingService); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
