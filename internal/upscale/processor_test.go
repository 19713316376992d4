package upscale

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"upscaler/internal/domain"
	"upscaler/internal/store"
)

type stubProvider struct {
	mu        sync.Mutex
	info      domain.ImageInfo
	infoErr   error
	result    domain.TransformationResult
	uploadErr error
	uploads   []string
}

func (p *stubProvider) Upload(_ context.Context, _, requestID string, _ domain.UpscalingStrategy) (domain.TransformationResult, error) {
	p.mu.Lock()
	p.uploads = append(p.uploads, requestID)
	p.mu.Unlock()
	if p.uploadErr != nil {
		return domain.TransformationResult{}, p.uploadErr
	}
	return p.result, nil
}

func (p *stubProvider) Resource(_ context.Context, _ string) (domain.ImageInfo, error) {
	if p.infoErr != nil {
		return domain.ImageInfo{}, p.infoErr
	}
	return p.info, nil
}

type stubNotifier struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (n *stubNotifier) NotifyCompleted(_ context.Context, req domain.ArtworkRequest, _ domain.TransformationResult, _ domain.UpscalingStrategy) error {
	n.mu.Lock()
	n.calls = append(n.calls, req.RequestID)
	n.mu.Unlock()
	return n.err
}

type failingStore struct {
	store.ArtworkStore
}

func (failingStore) UpdateStatus(context.Context, string, domain.Status, string) error {
	return errors.New("table unavailable")
}

func (failingStore) RecordProduction(context.Context, string, domain.TransformationResult, domain.UpscalingStrategy, domain.ValidationResult, domain.Status) error {
	return errors.New("table unavailable")
}

func goodResult() domain.TransformationResult {
	return domain.TransformationResult{
		Width:     2500,
		Height:    2500,
		Bytes:     8 * 1024 * 1024,
		Format:    "png",
		AssetID:   "asset-1",
		SecureURL: "https://res.example.com/req-1_production.png",
	}
}

func validRequest(id string) domain.ArtworkRequest {
	return domain.ArtworkRequest{
		RequestID:      id,
		ShopifyOrderID: "order-9",
		ProductTitle:   "Custom Hoodie Portrait",
		ArtworkURL:     "https://cdn.example.com/" + id + ".png",
	}
}

func newTestProcessor(provider *stubProvider, artworkStore store.ArtworkStore, notifier *stubNotifier) *Processor {
	return NewProcessor(provider, artworkStore, notifier, nil, zerolog.Nop(), Options{BatchWorkers: 2})
}

func TestProcessCompletedWithWebhook(t *testing.T) {
	provider := &stubProvider{info: domain.ImageInfo{Width: 1500, Height: 1500, Format: "png"}, result: goodResult()}
	notifier := &stubNotifier{}
	memStore := store.NewMemoryStore()
	p := newTestProcessor(provider, memStore, notifier)

	result := p.Process(context.Background(), validRequest("req-1"))

	if result.Status != domain.StatusCompleted {
		t.Fatalf("expected completed, got %s (%s)", result.Status, result.Error)
	}
	if result.ProductionURL != "https://res.example.com/req-1_production.png" {
		t.Fatalf("unexpected production url: %s", result.ProductionURL)
	}
	if result.Strategy == nil || result.Strategy.ProductType != domain.CategoryApparel {
		t.Fatalf("expected apparel strategy, got %+v", result.Strategy)
	}
	if result.Validation == nil || !result.Validation.IsValid {
		t.Fatalf("expected valid validation, got %+v", result.Validation)
	}
	if len(notifier.calls) != 1 || notifier.calls[0] != "req-1" {
		t.Fatalf("expected one webhook for req-1, got %v", notifier.calls)
	}

	record, err := memStore.GetStatus(context.Background(), "req-1")
	if err != nil {
		t.Fatalf("status lookup failed: %v", err)
	}
	if record.Status != domain.StatusCompleted {
		t.Fatalf("stored status is %s", record.Status)
	}
	if record.QualityMetrics == nil {
		t.Fatal("expected quality metrics to be recorded")
	}
}

func TestProcessQualityIssuesSkipsWebhook(t *testing.T) {
	result := goodResult()
	result.Width = 1000
	result.Height = 1000
	provider := &stubProvider{info: domain.ImageInfo{Width: 1500, Height: 1500, Format: "png"}, result: result}
	notifier := &stubNotifier{}
	memStore := store.NewMemoryStore()
	p := newTestProcessor(provider, memStore, notifier)

	out := p.Process(context.Background(), validRequest("req-2"))

	if out.Status != domain.StatusQualityIssues {
		t.Fatalf("expected quality_issues, got %s", out.Status)
	}
	if len(notifier.calls) != 0 {
		t.Fatalf("webhook must not fire on quality issues, got %v", notifier.calls)
	}

	record, err := memStore.GetStatus(context.Background(), "req-2")
	if err != nil {
		t.Fatalf("status lookup failed: %v", err)
	}
	if record.Status != domain.StatusQualityIssues {
		t.Fatalf("stored status is %s", record.Status)
	}
}

func TestProcessUploadFailure(t *testing.T) {
	provider := &stubProvider{
		info:      domain.ImageInfo{Width: 1500, Height: 1500, Format: "png"},
		uploadErr: errors.New("provider timeout"),
	}
	notifier := &stubNotifier{}
	memStore := store.NewMemoryStore()
	p := newTestProcessor(provider, memStore, notifier)

	out := p.Process(context.Background(), validRequest("req-3"))

	if out.Status != domain.StatusFailed {
		t.Fatalf("expected failed, got %s", out.Status)
	}
	if !strings.Contains(out.Error, "provider timeout") {
		t.Fatalf("expected cause in error, got %q", out.Error)
	}
	if len(notifier.calls) != 0 {
		t.Fatal("webhook must not fire on failure")
	}

	record, err := memStore.GetStatus(context.Background(), "req-3")
	if err != nil {
		t.Fatalf("status lookup failed: %v", err)
	}
	if record.Status != domain.StatusFailed {
		t.Fatalf("stored status is %s", record.Status)
	}
	if record.ErrorMessage == "" {
		t.Fatal("expected stored error message")
	}
}

func TestProcessInfoLookupFailureUsesDefaults(t *testing.T) {
	provider := &stubProvider{infoErr: errors.New("resource not found"), result: goodResult()}
	p := newTestProcessor(provider, store.NewMemoryStore(), &stubNotifier{})

	out := p.Process(context.Background(), validRequest("req-4"))

	if out.Status != domain.StatusCompleted {
		t.Fatalf("expected completed, got %s (%s)", out.Status, out.Error)
	}
	// 1024x1024 defaults are below the pixel limit.
	if !out.Strategy.CanUpscale {
		t.Fatal("default dimensions must select the upscale path")
	}
}

func TestProcessSwallowsStoreErrors(t *testing.T) {
	provider := &stubProvider{info: domain.ImageInfo{Width: 1500, Height: 1500, Format: "png"}, result: goodResult()}
	notifier := &stubNotifier{}
	p := newTestProcessor(provider, failingStore{}, notifier)

	out := p.Process(context.Background(), validRequest("req-5"))

	if out.Status != domain.StatusCompleted {
		t.Fatalf("store errors must not fail the job, got %s (%s)", out.Status, out.Error)
	}
	if len(notifier.calls) != 1 {
		t.Fatal("webhook must still fire when the store is down")
	}
}

func TestProcessSwallowsWebhookErrors(t *testing.T) {
	provider := &stubProvider{info: domain.ImageInfo{Width: 1500, Height: 1500, Format: "png"}, result: goodResult()}
	notifier := &stubNotifier{err: errors.New("webhook down")}
	p := newTestProcessor(provider, store.NewMemoryStore(), notifier)

	out := p.Process(context.Background(), validRequest("req-6"))

	if out.Status != domain.StatusCompleted {
		t.Fatalf("webhook errors must not fail the job, got %s", out.Status)
	}
}

func TestProcessBatchIsolatesFailures(t *testing.T) {
	provider := &stubProvider{info: domain.ImageInfo{Width: 1500, Height: 1500, Format: "png"}, result: goodResult()}
	p := newTestProcessor(provider, store.NewMemoryStore(), &stubNotifier{})

	reqs := []domain.ArtworkRequest{
		validRequest("batch-1"),
		{RequestID: "batch-2"}, // missing required fields
		validRequest("batch-3"),
	}
	results := p.ProcessBatch(context.Background(), reqs)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].RequestID != "batch-1" || results[0].Status != domain.StatusCompleted {
		t.Fatalf("unexpected first result: %+v", results[0])
	}
	if results[1].Status != domain.StatusFailed {
		t.Fatalf("malformed item must fail, got %+v", results[1])
	}
	if !strings.Contains(results[1].Error, "shopify_order_id") {
		t.Fatalf("expected missing field in error, got %q", results[1].Error)
	}
	if results[2].RequestID != "batch-3" || results[2].Status != domain.StatusCompleted {
		t.Fatalf("unexpected third result: %+v", results[2])
	}

	// The malformed item never reaches the provider.
	provider.mu.Lock()
	defer provider.mu.Unlock()
	if len(provider.uploads) != 2 {
		t.Fatalf("expected 2 uploads, got %v", provider.uploads)
	}
}
