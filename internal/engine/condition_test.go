package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/tdunlap/stockwatch/internal/models"
)

func TestConditionHolds(t *testing.T) {
	tests := []struct {
		name       string
		comparator string
		current    string
		threshold  string
		want       bool
	}{
		{"GT above", models.ComparatorGT, "200.01", "200.00", true},
		{"GT equal", models.ComparatorGT, "200.00", "200.00", false},
		{"GT below", models.ComparatorGT, "199.99", "200.00", false},
		{"LT below", models.ComparatorLT, "149.99", "150.00", true},
		{"LT equal", models.ComparatorLT, "150.00", "150.00", false},
		{"LT above", models.ComparatorLT, "150.01", "150.00", false},
		{"GTE above", models.ComparatorGTE, "100.01", "100.00", true},
		{"GTE equal", models.ComparatorGTE, "100.00", "100.00", true},
		{"GTE below", models.ComparatorGTE, "99.99", "100.00", false},
		{"LTE below", models.ComparatorLTE, "99.99", "100.00", true},
		{"LTE equal", models.ComparatorLTE, "100.00", "100.00", true},
		{"LTE above", models.ComparatorLTE, "100.01", "100.00", false},
		{"one cent difference", models.ComparatorGT, "0.02", "0.01", true},
		{"trailing zeros equal", models.ComparatorGTE, "100.0", "100.00", true},
		{"unknown comparator never holds", "BETWEEN", "100.00", "100.00", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current := decimal.RequireFromString(tt.current)
			threshold := decimal.RequireFromString(tt.threshold)
			assert.Equal(t, tt.want, ConditionHolds(tt.comparator, current, threshold))
		})
	}
}
