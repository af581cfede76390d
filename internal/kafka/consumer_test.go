package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tdunlap/stockwatch/internal/models"
)

// MockPriceRepository implements PriceRepository for testing
type MockPriceRepository struct {
	mu      sync.Mutex
	prices  map[string]decimal.Decimal
	updates int
}

func NewMockPriceRepository(symbols ...string) *MockPriceRepository {
	m := &MockPriceRepository{prices: make(map[string]decimal.Decimal)}
	for _, s := range symbols {
		m.prices[s] = decimal.Zero
	}
	return m
}

func (m *MockPriceRepository) UpdateStockPrice(ctx context.Context, symbol string, price decimal.Decimal, asOf time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.prices[symbol]; !ok {
		return models.ErrStockNotFound
	}
	m.prices[symbol] = price
	m.updates++
	return nil
}

// MockInvalidator implements CacheInvalidator for testing
type MockInvalidator struct {
	invalidated []string
}

func (m *MockInvalidator) Invalidate(ctx context.Context, symbol string) {
	m.invalidated = append(m.invalidated, symbol)
}

func priceMessage(t *testing.T, event models.PriceEvent) kafka.Message {
	t.Helper()
	data, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Key: []byte(event.Symbol), Value: data}
}

func TestProcessMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("stores price update and invalidates cache", func(t *testing.T) {
		repo := NewMockPriceRepository("AAPL")
		invalidator := &MockInvalidator{}
		consumer := &PriceConsumer{repo: repo, cache: invalidator}

		msg := priceMessage(t, models.PriceEvent{
			EventType: models.EventPriceUpdated,
			Symbol:    "AAPL",
			Price:     decimal.RequireFromString("187.23"),
			Timestamp: time.Now(),
		})

		err := consumer.processMessage(ctx, msg)
		require.NoError(t, err)
		assert.True(t, repo.prices["AAPL"].Equal(decimal.RequireFromString("187.23")))
		assert.Equal(t, []string{"AAPL"}, invalidator.invalidated)
	})

	t.Run("skips untracked symbols", func(t *testing.T) {
		repo := NewMockPriceRepository("AAPL")
		invalidator := &MockInvalidator{}
		consumer := &PriceConsumer{repo: repo, cache: invalidator}

		msg := priceMessage(t, models.PriceEvent{
			EventType: models.EventPriceUpdated,
			Symbol:    "UNKNOWN",
			Price:     decimal.RequireFromString("1.00"),
		})

		err := consumer.processMessage(ctx, msg)
		require.NoError(t, err)
		assert.Equal(t, 0, repo.updates)
		assert.Empty(t, invalidator.invalidated)
	})

	t.Run("ignores other event types", func(t *testing.T) {
		repo := NewMockPriceRepository("AAPL")
		consumer := &PriceConsumer{repo: repo}

		msg := priceMessage(t, models.PriceEvent{
			EventType: "STOCK_ADDED",
			Symbol:    "AAPL",
			Price:     decimal.RequireFromString("1.00"),
		})

		err := consumer.processMessage(ctx, msg)
		require.NoError(t, err)
		assert.Equal(t, 0, repo.updates)
	})

	t.Run("rejects malformed payloads", func(t *testing.T) {
		consumer := &PriceConsumer{repo: NewMockPriceRepository()}
		err := consumer.processMessage(ctx, kafka.Message{Value: []byte("not json")})
		assert.Error(t, err)
	})

	t.Run("rejects events without a symbol", func(t *testing.T) {
		consumer := &PriceConsumer{repo: NewMockPriceRepository()}
		msg := priceMessage(t, models.PriceEvent{EventType: models.EventPriceUpdated})
		err := consumer.processMessage(ctx, msg)
		assert.Error(t, err)
	})

	t.Run("works without a cache", func(t *testing.T) {
		repo := NewMockPriceRepository("AAPL")
		consumer := &PriceConsumer{repo: repo}

		msg := priceMessage(t, models.PriceEvent{
			EventType: models.EventPriceUpdated,
			Symbol:    "AAPL",
			Price:     decimal.RequireFromString("2.00"),
		})

		err := consumer.processMessage(ctx, msg)
		require.NoError(t, err)
		assert.Equal(t, 1, repo.updates)
	})
}
