package api

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check and metrics
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	// Alert routes
	api.HandleFunc("/alerts", handler.ListAlerts).Methods("GET")
	api.HandleFunc("/alerts", handler.CreateAlert).Methods("POST")
	api.HandleFunc("/alerts/summary", handler.GetAlertSummary).Methods("GET")
	api.HandleFunc("/alerts/process", handler.ProcessAlerts).Methods("POST")
	api.HandleFunc("/alerts/{id:[0-9]+}", handler.GetAlert).Methods("GET")
	api.HandleFunc("/alerts/{id:[0-9]+}", handler.UpdateAlert).Methods("PUT")
	api.HandleFunc("/alerts/{id:[0-9]+}", handler.DeleteAlert).Methods("DELETE")
	api.HandleFunc("/alerts/{id:[0-9]+}/activate", handler.ActivateAlert).Methods("POST")
	api.HandleFunc("/alerts/{id:[0-9]+}/deactivate", handler.DeactivateAlert).Methods("POST")

	// Triggered alert routes
	api.HandleFunc("/triggered-alerts", handler.ListTriggeredAlerts).Methods("GET")
	api.HandleFunc("/triggered-alerts/cleanup", handler.CleanupTriggeredAlerts).Methods("POST")

	// Stock routes
	api.HandleFunc("/stocks", handler.GetAllStocks).Methods("GET")
	api.HandleFunc("/stocks/{symbol}", handler.GetStock).Methods("GET")

	return r
}
