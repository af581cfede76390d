package models

import "errors"

var (
	// ErrStockNotFound means no price has ever been recorded for a symbol.
	ErrStockNotFound = errors.New("stock not found")

	// ErrAlertNotFound means the alert id does not exist.
	ErrAlertNotFound = errors.New("alert not found")

	// ErrStateConflict means a concurrent writer updated the alert state
	// between read and save.
	ErrStateConflict = errors.New("alert state conflict")
)
