package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tdunlap/stockwatch/internal/logger"
	"github.com/tdunlap/stockwatch/internal/models"
)

// TriggerRecorder persists trigger records
type TriggerRecorder interface {
	CreateTriggeredAlert(ctx context.Context, t *models.TriggeredAlert) error
	MarkNotificationSent(ctx context.Context, id int) error
}

// Publisher hands a triggered-alert event to the notification pipeline
type Publisher interface {
	PublishAlertTriggered(ctx context.Context, event models.AlertTriggeredEvent) error
}

// Sink records trigger events and dispatches notifications. Recording and
// notifying are decoupled: once the record exists, a dispatch failure only
// leaves notification_sent false and is never retried here.
type Sink struct {
	recorder  TriggerRecorder
	publisher Publisher
	log       zerolog.Logger
}

// New creates a trigger sink
func New(recorder TriggerRecorder, publisher Publisher) *Sink {
	return &Sink{
		recorder:  recorder,
		publisher: publisher,
		log:       logger.WithComponent("notify"),
	}
}

// RecordAndNotify appends the trigger record, publishes the notification
// event, and flags the record if dispatch succeeded.
func (s *Sink) RecordAndNotify(ctx context.Context, alert *models.Alert, price decimal.Decimal, at time.Time) (*models.TriggeredAlert, error) {
	record := &models.TriggeredAlert{
		AlertID:     alert.ID,
		StockPrice:  price,
		TriggeredAt: at,
	}
	if err := s.recorder.CreateTriggeredAlert(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record triggered alert: %w", err)
	}

	event := models.AlertTriggeredEvent{
		EventType:        models.EventAlertTriggered,
		TriggeredAlertID: record.ID,
		AlertID:          alert.ID,
		UserID:           alert.UserID,
		Symbol:           alert.Symbol,
		Kind:             alert.Kind,
		Comparator:       alert.Comparator,
		ThresholdPrice:   alert.ThresholdPrice,
		StockPrice:       price,
		TriggeredAt:      at,
	}
	if err := s.publisher.PublishAlertTriggered(ctx, event); err != nil {
		s.log.Error().Err(err).Int("alert_id", alert.ID).Int("triggered_alert_id", record.ID).
			Msg("notification dispatch failed")
		return record, nil
	}

	if err := s.recorder.MarkNotificationSent(ctx, record.ID); err != nil {
		s.log.Error().Err(err).Int("triggered_alert_id", record.ID).
			Msg("failed to flag notification as sent")
		return record, nil
	}
	record.NotificationSent = true

	return record, nil
}
