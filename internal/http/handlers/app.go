package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"upscaler/internal/domain"
	"upscaler/internal/infra"
	"upscaler/internal/middleware"
	"upscaler/internal/store"
	"upscaler/internal/upscale"
)

// JobProcessor runs upscaling attempts. Satisfied by *upscale.Processor.
type JobProcessor interface {
	Process(ctx context.Context, req domain.ArtworkRequest) upscale.JobResult
	ProcessBatch(ctx context.Context, reqs []domain.ArtworkRequest) []upscale.JobResult
}

// App carries the handler dependencies.
type App struct {
	Logger    infra.Logger
	Store     store.ArtworkStore
	Processor JobProcessor
	Metrics   *middleware.Metrics
	Version   string
}

func NewApp(logger infra.Logger, artworkStore store.ArtworkStore, processor JobProcessor, metrics *middleware.Metrics, version string) *App {
	return &App{
		Logger:    logger,
		Store:     artworkStore,
		Processor: processor,
		Metrics:   metrics,
		Version:   version,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// error writes the structured failure shape. Internal detail never leaks:
// callers pass a message fit for the client.
func (a *App) error(w http.ResponseWriter, code int, message string) {
	a.json(w, code, map[string]any{
		"success":     false,
		"error":       message,
		"status_code": code,
	})
}

func (a *App) countJob(status domain.Status) {
	if a.Metrics != nil {
		a.Metrics.JobsProcessed.WithLabelValues(string(status)).Inc()
	}
}
