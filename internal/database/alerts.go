package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tdunlap/stockwatch/internal/models"
)

const alertColumns = `id, user_id, symbol, kind, comparator, threshold_price,
	       duration_minutes, is_active, condition_met_since, state_version,
	       created_at, updated_at`

// CreateAlert inserts a new alert with a fresh evaluation state
func (db *DB) CreateAlert(ctx context.Context, a *models.Alert) error {
	query := `
		INSERT INTO alerts (
			user_id, symbol, kind, comparator, threshold_price,
			duration_minutes, is_active, state_version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, $8)
		RETURNING id
	`
	now := time.Now()
	err := db.conn.QueryRowContext(ctx, query,
		a.UserID, a.Symbol, a.Kind, a.Comparator, a.ThresholdPrice,
		a.DurationMinutes, a.IsActive, now,
	).Scan(&a.ID)

	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}
	a.StateVersion = 0
	a.CreatedAt = now
	a.UpdatedAt = now
	return nil
}

// GetAlertByID retrieves a single alert with its evaluation state
func (db *DB) GetAlertByID(ctx context.Context, id int) (*models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id = $1`
	return db.scanSingleAlert(db.conn.QueryRowContext(ctx, query, id))
}

// GetAlertsByUser retrieves all alerts owned by a user
func (db *DB) GetAlertsByUser(ctx context.Context, userID int) ([]*models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE user_id = $1 ORDER BY created_at DESC`
	return db.scanAlerts(db.conn.QueryContext(ctx, query, userID))
}

// ListActiveAlerts retrieves every alert eligible for evaluation
func (db *DB) ListActiveAlerts(ctx context.Context) ([]*models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE is_active = true ORDER BY id`
	return db.scanAlerts(db.conn.QueryContext(ctx, query))
}

// UpdateAlert replaces the user-editable definition fields of an alert.
// Any in-flight duration streak is cleared: the edited condition may no
// longer be the one that has been holding.
func (db *DB) UpdateAlert(ctx context.Context, a *models.Alert) error {
	query := `
		UPDATE alerts SET
			symbol = $2, kind = $3, comparator = $4, threshold_price = $5,
			duration_minutes = $6, condition_met_since = NULL,
			state_version = state_version + 1, updated_at = $7
		WHERE id = $1
	`
	a.UpdatedAt = time.Now()
	result, err := db.conn.ExecContext(ctx, query,
		a.ID, a.Symbol, a.Kind, a.Comparator, a.ThresholdPrice,
		a.DurationMinutes, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update alert: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return models.ErrAlertNotFound
	}
	return nil
}

// SaveAlertState persists the evaluation state of an alert. The update is
// guarded by the state version read alongside the state; if a concurrent
// writer got there first the save fails with ErrStateConflict and no row
// is changed.
func (db *DB) SaveAlertState(ctx context.Context, a *models.Alert) error {
	query := `
		UPDATE alerts SET
			is_active = $2,
			condition_met_since = $3,
			state_version = state_version + 1,
			updated_at = $4
		WHERE id = $1 AND state_version = $5
	`
	now := time.Now()
	result, err := db.conn.ExecContext(ctx, query,
		a.ID, a.IsActive, a.ConditionMetSince, now, a.StateVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to save alert state: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		exists, err := db.alertExists(ctx, a.ID)
		if err != nil {
			return err
		}
		if !exists {
			return models.ErrAlertNotFound
		}
		return models.ErrStateConflict
	}

	a.StateVersion++
	a.UpdatedAt = now
	return nil
}

// SetAlertActive toggles an alert on or off. Deactivating (and reactivating)
// always clears condition_met_since in the same statement so a duration
// streak never survives a toggle.
func (db *DB) SetAlertActive(ctx context.Context, id int, active bool) error {
	query := `
		UPDATE alerts SET
			is_active = $2,
			condition_met_since = NULL,
			state_version = state_version + 1,
			updated_at = $3
		WHERE id = $1
	`
	result, err := db.conn.ExecContext(ctx, query, id, active, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set alert active: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return models.ErrAlertNotFound
	}
	return nil
}

// DeleteAlert removes an alert and, through the FK cascade, its trigger history
func (db *DB) DeleteAlert(ctx context.Context, id int) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM alerts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete alert: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return models.ErrAlertNotFound
	}
	return nil
}

// AlertSummary aggregates a user's alerts by kind and status
type AlertSummary struct {
	TotalAlerts     int `json:"total_alerts"`
	ActiveAlerts    int `json:"active_alerts"`
	ThresholdAlerts int `json:"threshold_alerts"`
	DurationAlerts  int `json:"duration_alerts"`
}

// GetAlertSummary returns per-user alert counts
func (db *DB) GetAlertSummary(ctx context.Context, userID int) (*AlertSummary, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_active),
		       COUNT(*) FILTER (WHERE is_active AND kind = $2),
		       COUNT(*) FILTER (WHERE is_active AND kind = $3)
		FROM alerts
		WHERE user_id = $1
	`
	var s AlertSummary
	err := db.conn.QueryRowContext(ctx, query, userID, models.KindThreshold, models.KindDuration).Scan(
		&s.TotalAlerts, &s.ActiveAlerts, &s.ThresholdAlerts, &s.DurationAlerts,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get alert summary: %w", err)
	}
	return &s, nil
}

func (db *DB) alertExists(ctx context.Context, id int) (bool, error) {
	var exists bool
	err := db.conn.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM alerts WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check alert existence: %w", err)
	}
	return exists, nil
}

func (db *DB) scanSingleAlert(row *sql.Row) (*models.Alert, error) {
	a, err := scanAlertRow(row.Scan)
	if err == sql.ErrNoRows {
		return nil, models.ErrAlertNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}
	return a, nil
}

func (db *DB) scanAlerts(rows *sql.Rows, err error) ([]*models.Alert, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*models.Alert
	for rows.Next() {
		a, err := scanAlertRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}

	return alerts, rows.Err()
}

func scanAlertRow(scan func(dest ...any) error) (*models.Alert, error) {
	var a models.Alert
	var durationMinutes sql.NullInt64
	var conditionMetSince sql.NullTime

	err := scan(
		&a.ID, &a.UserID, &a.Symbol, &a.Kind, &a.Comparator, &a.ThresholdPrice,
		&durationMinutes, &a.IsActive, &conditionMetSince, &a.StateVersion,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if durationMinutes.Valid {
		minutes := int(durationMinutes.Int64)
		a.DurationMinutes = &minutes
	}
	if conditionMetSince.Valid {
		a.ConditionMetSince = &conditionMetSince.Time
	}

	return &a, nil
}
