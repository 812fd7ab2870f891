package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/dkwon/alphadesk/internal/api/handlers"
	"github.com/dkwon/alphadesk/pkg/database"
	"github.com/dkwon/alphadesk/pkg/logger"
)

// NewRouter creates and configures the HTTP router. The sentiment
// handler and database are optional; routes depending on them are only
// registered when they are wired.
func NewRouter(predictHandler *handlers.PredictHandler, sentimentHandler *handlers.SentimentHandler, db *database.DB, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler(db)).Methods("GET")

	// API v1
	api := r.PathPrefix("/api").Subrouter()

	// Prediction endpoints
	api.HandleFunc("/predict/{ticker}", predictHandler.Predict).Methods("GET")
	api.HandleFunc("/train/{ticker}", predictHandler.Train).Methods("POST")
	api.HandleFunc("/models/{ticker}", predictHandler.Models).Methods("GET")

	if sentimentHandler != nil {
		api.HandleFunc("/sentiment/{ticker}", sentimentHandler.Sentiment).Methods("GET")
	}

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status, including the
// database pool when one is attached.
func healthCheckHandler(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]interface{}{
			"status":  "ok",
			"service": "alphadesk-api",
		}

		status := http.StatusOK
		if db != nil {
			health, err := db.HealthCheck(r.Context())
			payload["database"] = health
			if err != nil {
				payload["status"] = "degraded"
				status = http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(payload)
	}
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Call next handler
			next.ServeHTTP(w, r)

			// Log request
			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
