package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Alert kind constants
const (
	KindThreshold = "THRESHOLD"
	KindDuration  = "DURATION"
)

// Comparator constants
const (
	ComparatorGT  = "GT"
	ComparatorLT  = "LT"
	ComparatorGTE = "GTE"
	ComparatorLTE = "LTE"
)

// MaxDurationMinutes caps duration alerts at 30 days.
const MaxDurationMinutes = 43200

// MaxThresholdPrice is the largest storable threshold (numeric(10,2)).
var MaxThresholdPrice = decimal.RequireFromString("999999.99")

// Alert represents a user-defined price alert together with its
// engine-owned evaluation state.
type Alert struct {
	ID              int             `json:"id"`
	UserID          int             `json:"user_id"`
	Symbol          string          `json:"symbol"`
	Kind            string          `json:"kind"`
	Comparator      string          `json:"comparator"`
	ThresholdPrice  decimal.Decimal `json:"threshold_price"`
	DurationMinutes *int            `json:"duration_minutes,omitempty"`

	// Evaluation state. ConditionMetSince is non-nil only while the alert
	// is an active duration alert whose condition held on the last
	// observed price.
	IsActive          bool       `json:"is_active"`
	ConditionMetSince *time.Time `json:"condition_met_since,omitempty"`

	// StateVersion increments on every state save; concurrent writers
	// detect each other through it.
	StateVersion int `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the alert definition against storage constraints.
func (a *Alert) Validate() error {
	if a.UserID <= 0 {
		return fmt.Errorf("user_id is required")
	}
	if a.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}

	switch a.Comparator {
	case ComparatorGT, ComparatorLT, ComparatorGTE, ComparatorLTE:
	default:
		return fmt.Errorf("invalid comparator: %q", a.Comparator)
	}

	if a.ThresholdPrice.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("threshold_price must be positive")
	}
	if a.ThresholdPrice.GreaterThan(MaxThresholdPrice) {
		return fmt.Errorf("threshold_price exceeds maximum %s", MaxThresholdPrice)
	}

	switch a.Kind {
	case KindThreshold:
		if a.DurationMinutes != nil {
			return fmt.Errorf("duration_minutes is not allowed for threshold alerts")
		}
	case KindDuration:
		if a.DurationMinutes == nil {
			return fmt.Errorf("duration_minutes is required for duration alerts")
		}
		if *a.DurationMinutes <= 0 || *a.DurationMinutes > MaxDurationMinutes {
			return fmt.Errorf("duration_minutes must be between 1 and %d", MaxDurationMinutes)
		}
	default:
		return fmt.Errorf("invalid kind: %q", a.Kind)
	}

	return nil
}

// Duration returns the configured streak length for duration alerts.
func (a *Alert) Duration() time.Duration {
	if a.DurationMinutes == nil {
		return 0
	}
	return time.Duration(*a.DurationMinutes) * time.Minute
}

// TriggeredAlert is the append-only record of a single trigger event.
type TriggeredAlert struct {
	ID               int             `json:"id"`
	AlertID          int             `json:"alert_id"`
	StockPrice       decimal.Decimal `json:"stock_price"`
	TriggeredAt      time.Time       `json:"triggered_at"`
	NotificationSent bool            `json:"notification_sent"`
}
