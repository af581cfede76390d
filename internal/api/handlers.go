package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/tdunlap/stockwatch/internal/database"
	"github.com/tdunlap/stockwatch/internal/engine"
	"github.com/tdunlap/stockwatch/internal/models"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	db        *database.DB
	engine    *engine.Engine
	retention time.Duration
}

// NewHandler creates a new Handler
func NewHandler(db *database.DB, eng *engine.Engine, retention time.Duration) *Handler {
	return &Handler{
		db:        db,
		engine:    eng,
		retention: retention,
	}
}

type alertRequest struct {
	UserID          int             `json:"user_id"`
	Symbol          string          `json:"symbol"`
	Kind            string          `json:"kind"`
	Comparator      string          `json:"comparator"`
	ThresholdPrice  decimal.Decimal `json:"threshold_price"`
	DurationMinutes *int            `json:"duration_minutes,omitempty"`
}

// ListAlerts handles GET /alerts?user_id=
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(r.URL.Query().Get("user_id"))
	if err != nil || userID <= 0 {
		http.Error(w, "user_id query parameter is required", http.StatusBadRequest)
		return
	}

	alerts, err := h.db.GetAlertsByUser(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, alerts)
}

// CreateAlert handles POST /alerts
func (h *Handler) CreateAlert(w http.ResponseWriter, r *http.Request) {
	var req alertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	alert := &models.Alert{
		UserID:          req.UserID,
		Symbol:          req.Symbol,
		Kind:            req.Kind,
		Comparator:      req.Comparator,
		ThresholdPrice:  req.ThresholdPrice,
		DurationMinutes: req.DurationMinutes,
		IsActive:        true,
	}
	if err := alert.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := h.db.GetStock(r.Context(), alert.Symbol); err != nil {
		if errors.Is(err, models.ErrStockNotFound) {
			http.Error(w, "unknown stock symbol: "+alert.Symbol, http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := h.db.CreateAlert(r.Context(), alert); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusCreated, alert)
}

// GetAlert handles GET /alerts/{id}
func (h *Handler) GetAlert(w http.ResponseWriter, r *http.Request) {
	id, ok := alertID(w, r)
	if !ok {
		return
	}

	alert, err := h.db.GetAlertByID(r.Context(), id)
	if err != nil {
		respondAlertError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, alert)
}

// UpdateAlert handles PUT /alerts/{id}
func (h *Handler) UpdateAlert(w http.ResponseWriter, r *http.Request) {
	id, ok := alertID(w, r)
	if !ok {
		return
	}

	existing, err := h.db.GetAlertByID(r.Context(), id)
	if err != nil {
		respondAlertError(w, err)
		return
	}

	var req alertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	updated := &models.Alert{
		ID:              id,
		UserID:          existing.UserID,
		Symbol:          req.Symbol,
		Kind:            req.Kind,
		Comparator:      req.Comparator,
		ThresholdPrice:  req.ThresholdPrice,
		DurationMinutes: req.DurationMinutes,
	}
	if err := updated.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.db.UpdateAlert(r.Context(), updated); err != nil {
		respondAlertError(w, err)
		return
	}

	alert, err := h.db.GetAlertByID(r.Context(), id)
	if err != nil {
		respondAlertError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, alert)
}

// DeleteAlert handles DELETE /alerts/{id}
func (h *Handler) DeleteAlert(w http.ResponseWriter, r *http.Request) {
	id, ok := alertID(w, r)
	if !ok {
		return
	}

	if err := h.db.DeleteAlert(r.Context(), id); err != nil {
		respondAlertError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ActivateAlert handles POST /alerts/{id}/activate
func (h *Handler) ActivateAlert(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

// DeactivateAlert handles POST /alerts/{id}/deactivate
func (h *Handler) DeactivateAlert(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, ok := alertID(w, r)
	if !ok {
		return
	}

	if err := h.db.SetAlertActive(r.Context(), id, active); err != nil {
		respondAlertError(w, err)
		return
	}

	alert, err := h.db.GetAlertByID(r.Context(), id)
	if err != nil {
		respondAlertError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, alert)
}

// GetAlertSummary handles GET /alerts/summary?user_id=
func (h *Handler) GetAlertSummary(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(r.URL.Query().Get("user_id"))
	if err != nil || userID <= 0 {
		http.Error(w, "user_id query parameter is required", http.StatusBadRequest)
		return
	}

	summary, err := h.db.GetAlertSummary(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// ProcessAlerts handles POST /alerts/process, running one evaluation cycle
func (h *Handler) ProcessAlerts(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.RunCycle(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// ListTriggeredAlerts handles GET /triggered-alerts?alert_id=&limit=
func (h *Handler) ListTriggeredAlerts(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	var records []*models.TriggeredAlert
	var err error
	if v := r.URL.Query().Get("alert_id"); v != "" {
		alertID, aerr := strconv.Atoi(v)
		if aerr != nil {
			http.Error(w, "invalid alert_id", http.StatusBadRequest)
			return
		}
		records, err = h.db.GetTriggeredAlertsByAlertID(r.Context(), alertID, limit)
	} else {
		records, err = h.db.GetRecentTriggeredAlerts(r.Context(), limit)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, records)
}

// CleanupTriggeredAlerts handles POST /triggered-alerts/cleanup
func (h *Handler) CleanupTriggeredAlerts(w http.ResponseWriter, r *http.Request) {
	cutoff := time.Now().Add(-h.retention)
	deleted, err := h.db.DeleteTriggeredAlertsOlderThan(r.Context(), cutoff)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

// GetAllStocks handles GET /stocks
func (h *Handler) GetAllStocks(w http.ResponseWriter, r *http.Request) {
	stocks, err := h.db.GetAllStocks(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, stocks)
}

// GetStock handles GET /stocks/{symbol}
func (h *Handler) GetStock(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	symbol := vars["symbol"]

	stock, err := h.db.GetStock(r.Context(), symbol)
	if err != nil {
		if errors.Is(err, models.ErrStockNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, stock)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func alertID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid alert id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func respondAlertError(w http.ResponseWriter, err error) {
	if errors.Is(err, models.ErrAlertNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
