package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/tdunlap/stockwatch/internal/logger"
	"github.com/tdunlap/stockwatch/internal/models"
)

// PriceRepository writes price updates to storage
type PriceRepository interface {
	UpdateStockPrice(ctx context.Context, symbol string, price decimal.Decimal, asOf time.Time) error
}

// CacheInvalidator drops cached prices after a storage write
type CacheInvalidator interface {
	Invalidate(ctx context.Context, symbol string)
}

// PriceConsumer consumes price update events and keeps the stocks table
// current. It is the only writer of last-known prices; where prices come
// from upstream is not its concern.
type PriceConsumer struct {
	reader *kafka.Reader
	repo   PriceRepository
	cache  CacheInvalidator
	log    zerolog.Logger
}

// NewPriceConsumer creates a Kafka consumer for price update events
func NewPriceConsumer(brokers []string, topic, groupID string, repo PriceRepository, cache CacheInvalidator) *PriceConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
	})

	return &PriceConsumer{
		reader: reader,
		repo:   repo,
		cache:  cache,
		log:    logger.WithComponent("price_consumer"),
	}
}

// Start begins consuming messages until the context is cancelled
func (c *PriceConsumer) Start(ctx context.Context) error {
	c.log.Info().Str("topic", c.reader.Config().Topic).Msg("starting price consumer")

	for {
		select {
		case <-ctx.Done():
			c.log.Info().Msg("price consumer shutting down")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				c.log.Error().Err(err).Msg("error reading message")
				continue
			}

			if err := c.processMessage(ctx, msg); err != nil {
				c.log.Error().Err(err).Msg("error processing message")
				// Continue processing other messages
			}
		}
	}
}

// processMessage handles a single price update
func (c *PriceConsumer) processMessage(ctx context.Context, msg kafka.Message) error {
	var event models.PriceEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal price event: %w", err)
	}

	if event.EventType != models.EventPriceUpdated {
		c.log.Debug().Str("event_type", event.EventType).Msg("ignoring event")
		return nil
	}
	if event.Symbol == "" {
		return fmt.Errorf("price event missing symbol")
	}

	asOf := event.Timestamp
	if asOf.IsZero() {
		asOf = time.Now()
	}

	err := c.repo.UpdateStockPrice(ctx, event.Symbol, event.Price, asOf)
	if errors.Is(err, models.ErrStockNotFound) {
		c.log.Debug().Str("symbol", event.Symbol).Msg("price update for untracked symbol, skipping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to store price update: %w", err)
	}

	if c.cache != nil {
		c.cache.Invalidate(ctx, event.Symbol)
	}

	c.log.Debug().
		Str("symbol", event.Symbol).
		Str("price", event.Price.String()).
		Msg("stored price update")

	return nil
}
