package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func validThresholdAlert() *Alert {
	return &Alert{
		UserID:         1,
		Symbol:         "AAPL",
		Kind:           KindThreshold,
		Comparator:     ComparatorGT,
		ThresholdPrice: decimal.RequireFromString("200.00"),
	}
}

func validDurationAlert() *Alert {
	minutes := 30
	a := validThresholdAlert()
	a.Kind = KindDuration
	a.DurationMinutes = &minutes
	return a
}

func TestAlertValidate(t *testing.T) {
	t.Run("valid threshold alert", func(t *testing.T) {
		assert.NoError(t, validThresholdAlert().Validate())
	})

	t.Run("valid duration alert", func(t *testing.T) {
		assert.NoError(t, validDurationAlert().Validate())
	})

	t.Run("missing user", func(t *testing.T) {
		a := validThresholdAlert()
		a.UserID = 0
		assert.Error(t, a.Validate())
	})

	t.Run("missing symbol", func(t *testing.T) {
		a := validThresholdAlert()
		a.Symbol = ""
		assert.Error(t, a.Validate())
	})

	t.Run("invalid comparator", func(t *testing.T) {
		a := validThresholdAlert()
		a.Comparator = ">"
		assert.Error(t, a.Validate())
	})

	t.Run("invalid kind", func(t *testing.T) {
		a := validThresholdAlert()
		a.Kind = "INTERVAL"
		assert.Error(t, a.Validate())
	})

	t.Run("zero threshold price", func(t *testing.T) {
		a := validThresholdAlert()
		a.ThresholdPrice = decimal.Zero
		assert.Error(t, a.Validate())
	})

	t.Run("negative threshold price", func(t *testing.T) {
		a := validThresholdAlert()
		a.ThresholdPrice = decimal.RequireFromString("-1.00")
		assert.Error(t, a.Validate())
	})

	t.Run("threshold price at the cap", func(t *testing.T) {
		a := validThresholdAlert()
		a.ThresholdPrice = decimal.RequireFromString("999999.99")
		assert.NoError(t, a.Validate())
	})

	t.Run("threshold price over the cap", func(t *testing.T) {
		a := validThresholdAlert()
		a.ThresholdPrice = decimal.RequireFromString("1000000.00")
		assert.Error(t, a.Validate())
	})

	t.Run("duration forbidden on threshold alerts", func(t *testing.T) {
		minutes := 30
		a := validThresholdAlert()
		a.DurationMinutes = &minutes
		assert.Error(t, a.Validate())
	})

	t.Run("duration required on duration alerts", func(t *testing.T) {
		a := validDurationAlert()
		a.DurationMinutes = nil
		assert.Error(t, a.Validate())
	})

	t.Run("duration bounds", func(t *testing.T) {
		a := validDurationAlert()

		zero := 0
		a.DurationMinutes = &zero
		assert.Error(t, a.Validate())

		max := MaxDurationMinutes
		a.DurationMinutes = &max
		assert.NoError(t, a.Validate())

		over := MaxDurationMinutes + 1
		a.DurationMinutes = &over
		assert.Error(t, a.Validate())
	})
}

func TestAlertDuration(t *testing.T) {
	a := validDurationAlert()
	assert.Equal(t, 30*time.Minute, a.Duration())

	a.DurationMinutes = nil
	assert.Equal(t, time.Duration(0), a.Duration())
}
