package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dkwon/alphadesk/internal/predict"
	"github.com/dkwon/alphadesk/pkg/logger"
)

// PredictHandler serves forecast and training endpoints
type PredictHandler struct {
	service *predict.Service
	logger  *logger.Logger
}

// NewPredictHandler creates a new predict handler
func NewPredictHandler(service *predict.Service, log *logger.Logger) *PredictHandler {
	return &PredictHandler{service: service, logger: log}
}

// Predict returns the next-period forecast for a ticker, training a
// pipeline on demand when none exists.
// GET /api/predict/{ticker}
func (h *PredictHandler) Predict(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]
	if ticker == "" {
		respondError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	prediction, err := h.service.Predict(r.Context(), ticker)
	if err != nil {
		h.logger.WithError(err).WithField("ticker", ticker).Error("Prediction failed")
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, prediction)
}

// Train forces a fresh training run for a ticker
// POST /api/train/{ticker}
func (h *PredictHandler) Train(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]
	if ticker == "" {
		respondError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	pipeline, err := h.service.Train(r.Context(), ticker)
	if err != nil {
		h.logger.WithError(err).WithField("ticker", ticker).Error("Training failed")
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, pipelineView(pipeline))
}

// Models returns the trained pipeline scorecard for a ticker without
// triggering a training run.
// GET /api/models/{ticker}
func (h *PredictHandler) Models(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]
	if ticker == "" {
		respondError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	pipeline, err := h.service.Pipeline(r.Context(), ticker)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, pipelineView(pipeline))
}
