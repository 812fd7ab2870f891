package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dkwon/alphadesk/internal/contracts"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// statusFor maps the sentinel error taxonomy to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, contracts.ErrArtifactNotFound):
		return http.StatusNotFound
	case errors.Is(err, contracts.ErrDataUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, contracts.ErrInsufficientHistory):
		return http.StatusUnprocessableEntity
	case errors.Is(err, contracts.ErrNoViableModel),
		errors.Is(err, contracts.ErrModelFit),
		errors.Is(err, contracts.ErrArtifactMismatch):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
