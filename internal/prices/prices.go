package prices

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tdunlap/stockwatch/internal/logger"
	"github.com/tdunlap/stockwatch/internal/metrics"
	"github.com/tdunlap/stockwatch/internal/models"
)

// StockRepository reads the last known price from storage
type StockRepository interface {
	GetStock(ctx context.Context, symbol string) (*models.Stock, error)
}

// Service serves current prices from a Redis read-through cache backed by
// the stocks table. A cache outage degrades to direct reads; it is never
// an error surfaced to the engine.
type Service struct {
	repo  StockRepository
	cache *redis.Client
	ttl   time.Duration
	log   zerolog.Logger
}

// New creates a price source. The cache client may be nil, in which case
// every read goes to storage.
func New(repo StockRepository, cache *redis.Client, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Service{
		repo:  repo,
		cache: cache,
		ttl:   ttl,
		log:   logger.WithComponent("prices"),
	}
}

// CurrentPrice returns the last known price for a symbol.
// models.ErrStockNotFound is returned for symbols never seen.
func (s *Service) CurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if s.cache != nil {
		val, err := s.cache.Get(ctx, cacheKey(symbol)).Result()
		if err == nil {
			price, perr := decimal.NewFromString(val)
			if perr == nil {
				metrics.PriceCacheHits.Inc()
				return price, nil
			}
			s.log.Warn().Str("symbol", symbol).Str("value", val).Msg("discarding unparseable cached price")
		} else if err != redis.Nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("price cache read failed")
		}
		metrics.PriceCacheMisses.Inc()
	}

	stock, err := s.repo.GetStock(ctx, symbol)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to read price for %s: %w", symbol, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey(symbol), stock.CurrentPrice.String(), s.ttl).Err(); err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("price cache write failed")
		}
	}

	return stock.CurrentPrice, nil
}

// Invalidate drops the cached price for a symbol. Called after a price
// update lands in storage.
func (s *Service) Invalidate(ctx context.Context, symbol string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cacheKey(symbol)).Err(); err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("price cache invalidation failed")
	}
}

func cacheKey(symbol string) string {
	return "price:" + symbol
}
