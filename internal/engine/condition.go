package engine

import (
	"github.com/shopspring/decimal"

	"github.com/tdunlap/stockwatch/internal/models"
)

// ConditionHolds reports whether the comparator is currently satisfied for
// the observed price. Comparison is exact decimal comparison at the stored
// 2-decimal price precision; unknown comparators never hold.
func ConditionHolds(comparator string, current, threshold decimal.Decimal) bool {
	switch comparator {
	case models.ComparatorGT:
		return current.GreaterThan(threshold)
	case models.ComparatorLT:
		return current.LessThan(threshold)
	case models.ComparatorGTE:
		return current.GreaterThanOrEqual(threshold)
	case models.ComparatorLTE:
		return current.LessThanOrEqual(threshold)
	default:
		return false
	}
}
