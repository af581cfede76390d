package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock holds the last known price for a tracked instrument
type Stock struct {
	Symbol       string          `json:"symbol"`
	Name         string          `json:"name"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	LastUpdated  time.Time       `json:"last_updated"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Event type constants
const (
	EventPriceUpdated   = "PRICE_UPDATED"
	EventAlertTriggered = "ALERT_TRIGGERED"
)

// PriceEvent is the Kafka event carrying a price update for a symbol
type PriceEvent struct {
	EventType string          `json:"event_type"`
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp"`
}

// AlertTriggeredEvent is published when an alert fires; downstream
// notification workers render and deliver it.
type AlertTriggeredEvent struct {
	EventType        string          `json:"event_type"`
	TriggeredAlertID int             `json:"triggered_alert_id"`
	AlertID          int             `json:"alert_id"`
	UserID           int             `json:"user_id"`
	Symbol           string          `json:"symbol"`
	Kind             string          `json:"kind"`
	Comparator       string          `json:"comparator"`
	ThresholdPrice   decimal.Decimal `json:"threshold_price"`
	StockPrice       decimal.Decimal `json:"stock_price"`
	TriggeredAt      time.Time       `json:"triggered_at"`
}
