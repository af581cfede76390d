package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tdunlap/stockwatch/internal/api"
	"github.com/tdunlap/stockwatch/internal/config"
	"github.com/tdunlap/stockwatch/internal/database"
	"github.com/tdunlap/stockwatch/internal/engine"
	"github.com/tdunlap/stockwatch/internal/kafka"
	"github.com/tdunlap/stockwatch/internal/logger"
	"github.com/tdunlap/stockwatch/internal/notify"
	"github.com/tdunlap/stockwatch/internal/prices"
	"github.com/tdunlap/stockwatch/internal/scheduler"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel)
	log := logger.WithComponent("main")

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		// Cache is optional; the price source falls back to Postgres.
		log.Warn().Err(err).Msg("redis unavailable, price cache disabled")
		redisClient = nil
	}

	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.NotificationTopic)
	defer producer.Close()

	priceSource := prices.New(db, redisClient, cfg.Redis.PriceTTL)
	sink := notify.New(db, producer)
	eng := engine.New(db, priceSource, sink, engine.Config{Workers: cfg.Engine.Workers})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := kafka.NewPriceConsumer(
		cfg.Kafka.Brokers, cfg.Kafka.PriceTopic, cfg.Kafka.ConsumerGroup, db, priceSource,
	)
	go func() {
		if err := consumer.Start(ctx); err != nil {
			log.Error().Err(err).Msg("price consumer stopped")
		}
	}()

	retention := time.Duration(cfg.Engine.RetentionDays) * 24 * time.Hour
	sched := scheduler.New(eng, db, cfg.Engine.EvalInterval, retention)
	go sched.Run(ctx)

	handler := api.NewHandler(db, eng, retention)
	server := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.Port,
		Handler: api.SetupRoutes(handler),
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown failed")
	}
}
