package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"upscaler/internal/domain"
)

// UpscaleSingle runs one artwork through the upscaling pipeline and returns
// the full outcome inline.
func (a *App) UpscaleSingle(w http.ResponseWriter, r *http.Request) {
	var req domain.ArtworkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := req.Validate(); err != nil {
		a.error(w, http.StatusBadRequest, err.Error())
		return
	}

	result := a.Processor.Process(r.Context(), req)
	a.countJob(result.Status)

	if result.Status == domain.StatusFailed {
		a.error(w, http.StatusInternalServerError, result.Error)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"success": true,
		"result":  result,
	})
}

type batchRequest struct {
	Artworks []domain.ArtworkRequest `json:"artworks"`
}

// UpscaleBatch processes a list of artworks. Item failures are isolated and
// reported per position; the response list is 1:1 with the request list.
func (a *App) UpscaleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if len(req.Artworks) == 0 {
		a.error(w, http.StatusBadRequest, "artworks is required")
		return
	}

	results := a.Processor.ProcessBatch(r.Context(), req.Artworks)
	for _, result := range results {
		a.countJob(result.Status)
	}

	a.json(w, http.StatusOK, map[string]any{
		"success":         true,
		"results":         results,
		"total_processed": len(results),
	})
}

// UpscaleStatus returns the last persisted state of a request.
func (a *App) UpscaleStatus(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "request_id")
	if requestID == "" {
		a.error(w, http.StatusBadRequest, "request_id is required")
		return
	}

	record, err := a.Store.GetStatus(r.Context(), requestID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "artwork request not found")
			return
		}
		a.Logger.Error().Err(err).Str("request_id", requestID).Msg("status lookup failed")
		a.error(w, http.StatusInternalServerError, "failed to load status")
		return
	}

	a.json(w, http.StatusOK, map[string]any{
		"success":                 true,
		"request_id":              record.RequestID,
		"status":                  record.Status,
		"artwork_url":             record.ArtworkURL,
		"production_url":          record.ProductionURL,
		"quality_metrics":         record.QualityMetrics,
		"error_message":           record.ErrorMessage,
		"processing_completed_at": record.CompletedAt,
	})
}
