package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/permupdate/permtrack/backend/internal/analytics"
	"github.com/permupdate/permtrack/backend/internal/predictor"
	"github.com/permupdate/permtrack/backend/internal/storage"
	"github.com/permupdate/permtrack/backend/internal/types"
	"github.com/rs/zerolog"
)

const dateLayout = "2006-01-02"

// PredictionHandler provides REST endpoints for completion-date estimates
// and the prediction-request audit trail
type PredictionHandler struct {
	predictor *predictor.Predictor
	accessor  *analytics.Accessor
	store     storage.Store
	logger    zerolog.Logger
}

// NewPredictionHandler creates a new PredictionHandler
func NewPredictionHandler(p *predictor.Predictor, accessor *analytics.Accessor, store storage.Store, logger zerolog.Logger) *PredictionHandler {
	return &PredictionHandler{
		predictor: p,
		accessor:  accessor,
		store:     store,
		logger:    logger.With().Str("component", "prediction_handler").Logger(),
	}
}

type predictRequest struct {
	SubmitDate          string `json:"submitDate"`
	EmployerFirstLetter string `json:"employerFirstLetter"`
	CaseNumber          string `json:"caseNumber,omitempty"`
}

// Predict runs the queue-position estimate
// POST /api/predictions/from-date
func (h *PredictionHandler) Predict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	submitDate, err := time.Parse(dateLayout, req.SubmitDate)
	if err != nil {
		http.Error(w, `{"error":"submitDate must be YYYY-MM-DD"}`, http.StatusBadRequest)
		return
	}

	result, err := h.predictor.Estimate(submitDate, req.EmployerFirstLetter, req.CaseNumber)
	if err != nil {
		if errors.Is(err, predictor.ErrInvalidLetter) || errors.Is(err, predictor.ErrFutureSubmitDate) {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error().Err(err).Msg("estimate failed")
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// PercentileEstimate runs the percentile-only estimate
// GET /api/predictions/percentile-estimate?submit_date=YYYY-MM-DD
func (h *PredictionHandler) PercentileEstimate(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("submit_date")
	if raw == "" {
		http.Error(w, `{"error":"submit_date query parameter is required (YYYY-MM-DD)"}`, http.StatusBadRequest)
		return
	}

	submitDate, err := time.Parse(dateLayout, raw)
	if err != nil {
		http.Error(w, `{"error":"submit_date must be YYYY-MM-DD"}`, http.StatusBadRequest)
		return
	}

	result, err := h.predictor.EstimateFromPercentiles(submitDate)
	if err != nil {
		if errors.Is(err, predictor.ErrFutureSubmitDate) {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error().Err(err).Msg("percentile estimate failed")
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// ExpectedTime returns the latest processing-time percentile snapshot
// GET /api/predictions/expected-time
func (h *PredictionHandler) ExpectedTime(w http.ResponseWriter, r *http.Request) {
	pt := h.accessor.LatestProcessingTimes()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(pt)
}

// ListRequests returns the prediction audit records for one day
// GET /api/predictions/requests?date=YYYY-MM-DD
func (h *PredictionHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		http.Error(w, `{"error":"date query parameter is required (YYYY-MM-DD)"}`, http.StatusBadRequest)
		return
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		http.Error(w, `{"error":"date must be YYYY-MM-DD"}`, http.StatusBadRequest)
		return
	}

	records, err := h.store.GetPredictionRequests(date)
	if err != nil {
		h.logger.Error().Err(err).Str("date", date).Msg("failed to list prediction requests")
		http.Error(w, `{"error":"failed to retrieve requests"}`, http.StatusInternalServerError)
		return
	}

	if records == nil {
		records = []types.PredictionRequestRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

// GetRequest returns one prediction audit record
// GET /api/predictions/requests/{date}/{id}
func (h *PredictionHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	id := chi.URLParam(r, "id")
	if date == "" || id == "" {
		http.Error(w, `{"error":"date and id are required"}`, http.StatusBadRequest)
		return
	}

	record, err := h.store.GetPredictionRequest(date, id)
	if err != nil {
		h.logger.Error().Err(err).Str("date", date).Str("id", id).Msg("failed to get prediction request")
		http.Error(w, `{"error":"failed to retrieve request"}`, http.StatusInternalServerError)
		return
	}
	if record == nil {
		http.Error(w, `{"error":"request not found"}`, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(record)
}

func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
