package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tdunlap/stockwatch/internal/models"
)

// CreateTriggeredAlert appends a trigger record
func (db *DB) CreateTriggeredAlert(ctx context.Context, t *models.TriggeredAlert) error {
	query := `
		INSERT INTO triggered_alerts (alert_id, stock_price, triggered_at, notification_sent)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := db.conn.QueryRowContext(ctx, query,
		t.AlertID, t.StockPrice, t.TriggeredAt, t.NotificationSent,
	).Scan(&t.ID)

	if err != nil {
		return fmt.Errorf("failed to create triggered alert: %w", err)
	}
	return nil
}

// GetTriggeredAlertByID retrieves a trigger record by ID
func (db *DB) GetTriggeredAlertByID(ctx context.Context, id int) (*models.TriggeredAlert, error) {
	query := `
		SELECT id, alert_id, stock_price, triggered_at, notification_sent
		FROM triggered_alerts
		WHERE id = $1
	`
	var t models.TriggeredAlert
	err := db.conn.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.AlertID, &t.StockPrice, &t.TriggeredAt, &t.NotificationSent,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("triggered alert not found: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get triggered alert: %w", err)
	}
	return &t, nil
}

// GetTriggeredAlertsByAlertID retrieves the trigger history of one alert
func (db *DB) GetTriggeredAlertsByAlertID(ctx context.Context, alertID int, limit int) ([]*models.TriggeredAlert, error) {
	query := `
		SELECT id, alert_id, stock_price, triggered_at, notification_sent
		FROM triggered_alerts
		WHERE alert_id = $1
		ORDER BY triggered_at DESC
		LIMIT $2
	`
	return db.scanTriggeredAlerts(db.conn.QueryContext(ctx, query, alertID, limit))
}

// GetRecentTriggeredAlerts retrieves the most recent trigger records
func (db *DB) GetRecentTriggeredAlerts(ctx context.Context, limit int) ([]*models.TriggeredAlert, error) {
	query := `
		SELECT id, alert_id, stock_price, triggered_at, notification_sent
		FROM triggered_alerts
		ORDER BY triggered_at DESC
		LIMIT $1
	`
	return db.scanTriggeredAlerts(db.conn.QueryContext(ctx, query, limit))
}

// MarkNotificationSent flags a trigger record after a successful dispatch
func (db *DB) MarkNotificationSent(ctx context.Context, id int) error {
	query := `UPDATE triggered_alerts SET notification_sent = true WHERE id = $1`
	_, err := db.conn.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification sent: %w", err)
	}
	return nil
}

// DeleteTriggeredAlertsOlderThan purges trigger records past the retention
// window and reports how many were removed. Safe to run repeatedly.
func (db *DB) DeleteTriggeredAlertsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM triggered_alerts WHERE triggered_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old triggered alerts: %w", err)
	}
	return result.RowsAffected()
}

func (db *DB) scanTriggeredAlerts(rows *sql.Rows, err error) ([]*models.TriggeredAlert, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to query triggered alerts: %w", err)
	}
	defer rows.Close()

	var records []*models.TriggeredAlert
	for rows.Next() {
		var t models.TriggeredAlert
		err := rows.Scan(&t.ID, &t.AlertID, &t.StockPrice, &t.TriggeredAt, &t.NotificationSent)
		if err != nil {
			return nil, fmt.Errorf("failed to scan triggered alert: %w", err)
		}
		records = append(records, &t)
	}

	return records, rows.Err()
}
