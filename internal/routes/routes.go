package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/warehop/bulkpick-api/internal/handlers"
)

// NewRouter sets up the API routes
func NewRouter(auth *handlers.AuthHandler, pick *handlers.PickHandler, repl *handlers.ReplicationHandler) *mux.Router {
	router := mux.NewRouter()

	// Health check and metrics
	router.HandleFunc("/health", handlers.HealthCheck).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// Public auth endpoint
	router.HandleFunc("/api/login", auth.Login).Methods(http.MethodPost)

	// Everything below requires a valid token
	api := router.PathPrefix("/api").Subrouter()
	api.Use(auth.JWTMiddleware)

	// Pick confirmation and run status
	api.HandleFunc("/runs/{runNo}/picks", pick.ConfirmPick).Methods(http.MethodPost)
	api.HandleFunc("/runs/{runNo}/complete", pick.CompleteRun).Methods(http.MethodPut)
	api.HandleFunc("/runs/{runNo}/revert", pick.RevertRun).Methods(http.MethodPut)

	// Operator-triggered replication diagnostics
	api.HandleFunc("/replication/runs/{runNo}/backfill", repl.Backfill).Methods(http.MethodPost)
	api.HandleFunc("/replication/runs/{runNo}/health", repl.Health).Methods(http.MethodGet)

	return router
}
