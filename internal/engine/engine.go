package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tdunlap/stockwatch/internal/logger"
	"github.com/tdunlap/stockwatch/internal/metrics"
	"github.com/tdunlap/stockwatch/internal/models"
)

// AlertStore loads alerts for evaluation and persists their state.
// SaveAlertState must fail with models.ErrStateConflict when a concurrent
// writer updated the alert since it was read.
type AlertStore interface {
	ListActiveAlerts(ctx context.Context) ([]*models.Alert, error)
	GetAlertByID(ctx context.Context, id int) (*models.Alert, error)
	SaveAlertState(ctx context.Context, a *models.Alert) error
}

// PriceSource supplies the last known price for a symbol. Any error,
// unknown symbol included, makes the engine skip the alert for the cycle.
type PriceSource interface {
	CurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// TriggerSink records a trigger event and dispatches the notification.
// The returned record carries whether dispatch succeeded; the engine never
// retries dispatch itself.
type TriggerSink interface {
	RecordAndNotify(ctx context.Context, alert *models.Alert, price decimal.Decimal, at time.Time) (*models.TriggeredAlert, error)
}

// Result summarizes one evaluation cycle
type Result struct {
	Processed int `json:"processed"`
	Triggered int `json:"triggered"`
	Errors    int `json:"errors"`
}

// Config holds engine tuning knobs
type Config struct {
	// Workers bounds the number of alerts evaluated in parallel
	Workers int

	// Now overrides the clock, for tests
	Now func() time.Time
}

// Engine evaluates all active alerts against current prices and advances
// each alert's state machine. Alerts are independent: one alert's failure
// never affects another's evaluation.
type Engine struct {
	store   AlertStore
	prices  PriceSource
	sink    TriggerSink
	workers int
	now     func() time.Time
	log     zerolog.Logger
}

// New creates an evaluation engine
func New(store AlertStore, prices PriceSource, sink TriggerSink, cfg Config) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Engine{
		store:   store,
		prices:  prices,
		sink:    sink,
		workers: cfg.Workers,
		now:     cfg.Now,
		log:     logger.WithComponent("engine"),
	}
}

// RunCycle performs one evaluation pass over all active alerts. Only a
// failure to load the active alert list aborts the cycle; every other
// failure is contained to its alert and counted.
func (e *Engine) RunCycle(ctx context.Context) (Result, error) {
	cycleID := uuid.NewString()
	log := e.log.With().Str("cycle_id", cycleID).Logger()

	alerts, err := e.store.ListActiveAlerts(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load active alerts: %w", err)
	}

	log.Info().Int("alerts", len(alerts)).Msg("starting evaluation cycle")
	metrics.CyclesTotal.Inc()

	var triggered, evalErrors atomic.Int64
	sem := make(chan struct{}, e.workers)
	var wg sync.WaitGroup

	for _, alert := range alerts {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return e.collect(len(alerts), &triggered, &evalErrors), ctx.Err()
		}

		wg.Add(1)
		go func(alert *models.Alert) {
			defer wg.Done()
			defer func() { <-sem }()

			fired, err := e.evaluateAlert(ctx, log, alert)
			if fired {
				triggered.Add(1)
				metrics.AlertsTriggered.Inc()
			}
			if err != nil {
				evalErrors.Add(1)
				metrics.EvaluationErrors.Inc()
				log.Error().Err(err).Int("alert_id", alert.ID).Str("symbol", alert.Symbol).
					Msg("alert evaluation failed")
			}
			metrics.AlertsProcessed.Inc()
		}(alert)
	}

	wg.Wait()

	result := e.collect(len(alerts), &triggered, &evalErrors)
	log.Info().
		Int("processed", result.Processed).
		Int("triggered", result.Triggered).
		Int("errors", result.Errors).
		Msg("evaluation cycle complete")
	return result, nil
}

func (e *Engine) collect(processed int, triggered, evalErrors *atomic.Int64) Result {
	return Result{
		Processed: processed,
		Triggered: int(triggered.Load()),
		Errors:    int(evalErrors.Load()),
	}
}

// evaluateAlert advances one alert's state machine against the latest
// price. It reports whether the alert fired this cycle. A returned error
// with fired=true means the trigger record exists but the post-trigger
// state could not be persisted.
func (e *Engine) evaluateAlert(ctx context.Context, log zerolog.Logger, alert *models.Alert) (bool, error) {
	if !alert.IsActive {
		return false, nil
	}

	price, err := e.prices.CurrentPrice(ctx, alert.Symbol)
	if err != nil {
		// NotFound and transport failures are the same to the engine:
		// skip the alert this cycle, touch nothing.
		return false, fmt.Errorf("price unavailable for %s: %w", alert.Symbol, err)
	}

	now := e.now()
	holds := ConditionHolds(alert.Comparator, price, alert.ThresholdPrice)

	switch alert.Kind {
	case models.KindThreshold:
		if !holds {
			return false, nil
		}
		return e.trigger(ctx, log, alert, price, now, func(a *models.Alert) {
			a.IsActive = false
			a.ConditionMetSince = nil
		})

	case models.KindDuration:
		return e.evaluateDuration(ctx, log, alert, price, now, holds)

	default:
		return false, fmt.Errorf("unknown alert kind %q for alert %d", alert.Kind, alert.ID)
	}
}

func (e *Engine) evaluateDuration(ctx context.Context, log zerolog.Logger, alert *models.Alert, price decimal.Decimal, now time.Time, holds bool) (bool, error) {
	if !holds {
		// Clearing an already-nil timestamp is a no-op; nothing is saved.
		if alert.ConditionMetSince == nil {
			return false, nil
		}
		return false, e.saveStateWithRetry(ctx, alert, func(a *models.Alert) {
			a.ConditionMetSince = nil
		})
	}

	if alert.ConditionMetSince == nil {
		// First true observation of a streak; the timestamp is the instant
		// of observation, never back-dated.
		return false, e.saveStateWithRetry(ctx, alert, func(a *models.Alert) {
			a.ConditionMetSince = &now
		})
	}

	if now.Sub(*alert.ConditionMetSince) < alert.Duration() {
		return false, nil
	}

	// Streak long enough; duration alerts stay active and re-arm.
	return e.trigger(ctx, log, alert, price, now, func(a *models.Alert) {
		a.ConditionMetSince = nil
	})
}

// trigger records the event, dispatches the notification, then durably
// applies the post-trigger transition. A failed dispatch does not block
// the transition; a failed record insert aborts before any state change
// so the alert stays eligible next cycle.
func (e *Engine) trigger(ctx context.Context, log zerolog.Logger, alert *models.Alert, price decimal.Decimal, now time.Time, transition func(*models.Alert)) (bool, error) {
	record, err := e.sink.RecordAndNotify(ctx, alert, price, now)
	if err != nil {
		return false, fmt.Errorf("failed to record trigger for alert %d: %w", alert.ID, err)
	}

	log.Info().
		Int("alert_id", alert.ID).
		Str("symbol", alert.Symbol).
		Str("price", price.String()).
		Bool("notification_sent", record.NotificationSent).
		Msg("alert triggered")

	if err := e.saveStateWithRetry(ctx, alert, transition); err != nil {
		return true, fmt.Errorf("failed to persist post-trigger state for alert %d: %w", alert.ID, err)
	}
	return true, nil
}

// saveStateWithRetry applies a state mutation and persists it. On a version
// conflict it re-reads the row and re-applies the mutation once; if the
// re-read shows the alert was deactivated externally the mutation is
// dropped, since deactivation already cleared the streak timestamp.
func (e *Engine) saveStateWithRetry(ctx context.Context, alert *models.Alert, mutate func(*models.Alert)) error {
	mutate(alert)
	err := e.store.SaveAlertState(ctx, alert)
	if err == nil || !errors.Is(err, models.ErrStateConflict) {
		return err
	}

	fresh, err := e.store.GetAlertByID(ctx, alert.ID)
	if err != nil {
		return fmt.Errorf("failed to reload alert %d after conflict: %w", alert.ID, err)
	}

	*alert = *fresh
	if !alert.IsActive {
		return nil
	}

	mutate(alert)
	return e.store.SaveAlertState(ctx, alert)
}
