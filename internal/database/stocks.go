package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tdunlap/stockwatch/internal/models"
)

// SaveStock inserts or refreshes a tracked stock
func (db *DB) SaveStock(ctx context.Context, s *models.Stock) error {
	query := `
		INSERT INTO stocks (symbol, name, current_price, last_updated, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (symbol) DO UPDATE SET
			name = EXCLUDED.name,
			current_price = EXCLUDED.current_price,
			last_updated = EXCLUDED.last_updated
	`
	now := time.Now()
	if s.LastUpdated.IsZero() {
		s.LastUpdated = now
	}
	_, err := db.conn.ExecContext(ctx, query, s.Symbol, s.Name, s.CurrentPrice, s.LastUpdated, now)
	if err != nil {
		return fmt.Errorf("failed to save stock: %w", err)
	}
	return nil
}

// UpdateStockPrice writes the latest observed price for a symbol
func (db *DB) UpdateStockPrice(ctx context.Context, symbol string, price decimal.Decimal, asOf time.Time) error {
	query := `UPDATE stocks SET current_price = $2, last_updated = $3 WHERE symbol = $1`
	result, err := db.conn.ExecContext(ctx, query, symbol, price, asOf)
	if err != nil {
		return fmt.Errorf("failed to update stock price: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return models.ErrStockNotFound
	}
	return nil
}

// GetStock retrieves a stock by symbol
func (db *DB) GetStock(ctx context.Context, symbol string) (*models.Stock, error) {
	query := `
		SELECT symbol, name, current_price, last_updated, created_at
		FROM stocks
		WHERE symbol = $1
	`
	var s models.Stock
	err := db.conn.QueryRowContext(ctx, query, symbol).Scan(
		&s.Symbol, &s.Name, &s.CurrentPrice, &s.LastUpdated, &s.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, models.ErrStockNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stock: %w", err)
	}
	return &s, nil
}

// GetAllStocks retrieves every tracked stock
func (db *DB) GetAllStocks(ctx context.Context) ([]*models.Stock, error) {
	query := `
		SELECT symbol, name, current_price, last_updated, created_at
		FROM stocks
		ORDER BY symbol
	`
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query stocks: %w", err)
	}
	defer rows.Close()

	var stocks []*models.Stock
	for rows.Next() {
		var s models.Stock
		err := rows.Scan(&s.Symbol, &s.Name, &s.CurrentPrice, &s.LastUpdated, &s.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock: %w", err)
		}
		stocks = append(stocks, &s)
	}

	return stocks, rows.Err()
}
