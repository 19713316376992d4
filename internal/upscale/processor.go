package upscale

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"upscaler/internal/domain"
	"upscaler/internal/product"
	"upscaler/internal/store"
)

// TransformationProvider is the external image CDN. Upload issues exactly one
// transformation request and does not retry internally.
type TransformationProvider interface {
	Upload(ctx context.Context, sourceURL, requestID string, strategy domain.UpscalingStrategy) (domain.TransformationResult, error)
	Resource(ctx context.Context, publicID string) (domain.ImageInfo, error)
}

// Notifier delivers the completion webhook. Delivery failures are the
// notifier's to report and the processor's to swallow.
type Notifier interface {
	NotifyCompleted(ctx context.Context, req domain.ArtworkRequest, result domain.TransformationResult, strategy domain.UpscalingStrategy) error
}

// InfoCache caches provider resource lookups between attempts.
type InfoCache interface {
	Get(ctx context.Context, publicID string) (domain.ImageInfo, bool)
	Set(ctx context.Context, publicID string, info domain.ImageInfo)
}

// JobResult is the per-request outcome returned to the HTTP boundary. A failed
// attempt carries only an error message; completed and quality_issues attempts
// carry exactly one strategy/result/validation triple.
type JobResult struct {
	RequestID     string                    `json:"request_id"`
	Status        domain.Status             `json:"status"`
	ProductionURL string                    `json:"production_url,omitempty"`
	Strategy      *domain.UpscalingStrategy `json:"strategy,omitempty"`
	Validation    *domain.ValidationResult  `json:"validation,omitempty"`
	Error         string                    `json:"error,omitempty"`
}

type Options struct {
	Limits         Limits
	BatchWorkers   int
	UploadTimeout  time.Duration
	WebhookTimeout time.Duration
}

type Processor struct {
	provider       TransformationProvider
	store          store.ArtworkStore
	notifier       Notifier
	cache          InfoCache
	logger         zerolog.Logger
	limits         Limits
	batchWorkers   int
	uploadTimeout  time.Duration
	webhookTimeout time.Duration
}

func NewProcessor(provider TransformationProvider, artworkStore store.ArtworkStore, notifier Notifier, cache InfoCache, logger zerolog.Logger, opts Options) *Processor {
	limits := opts.Limits
	if limits.PixelLimit <= 0 {
		limits = DefaultLimits()
	}
	batchWorkers := opts.BatchWorkers
	if batchWorkers < 1 {
		batchWorkers = 1
	}
	uploadTimeout := opts.UploadTimeout
	if uploadTimeout <= 0 {
		uploadTimeout = 60 * time.Second
	}
	webhookTimeout := opts.WebhookTimeout
	if webhookTimeout <= 0 {
		webhookTimeout = 30 * time.Second
	}

	return &Processor{
		provider:       provider,
		store:          artworkStore,
		notifier:       notifier,
		cache:          cache,
		logger:         logger,
		limits:         limits,
		batchWorkers:   batchWorkers,
		uploadTimeout:  uploadTimeout,
		webhookTimeout: webhookTimeout,
	}
}

// Process runs one request attempt through the pipeline:
// processing -> provider upload -> validation -> completed | quality_issues,
// with any provider error landing the attempt in failed. Store and webhook
// failures are logged and never fail the job.
func (p *Processor) Process(ctx context.Context, req domain.ArtworkRequest) JobResult {
	p.updateStatus(ctx, req.RequestID, domain.StatusProcessing, "")

	category := product.Classify(req.ProductTitle, req.VariantTitle)
	info := p.imageInfo(ctx, req.RequestID)

	strategy, err := SelectStrategy(p.limits, category, info.Width, info.Height)
	if err != nil {
		return p.fail(ctx, req, err)
	}
	p.logger.Info().
		Str("request_id", req.RequestID).
		Str("category", string(category)).
		Str("quality_level", strategy.QualityLevel).
		Msg("upscaling strategy selected")

	uploadCtx, cancel := context.WithTimeout(ctx, p.uploadTimeout)
	defer cancel()
	result, err := p.provider.Upload(uploadCtx, req.ArtworkURL, req.RequestID, strategy)
	if err != nil {
		return p.fail(ctx, req, err)
	}

	validation := Validate(p.limits, result, strategy)
	finalStatus := domain.StatusCompleted
	if !validation.IsValid {
		finalStatus = domain.StatusQualityIssues
	}

	if err := p.store.RecordProduction(ctx, req.RequestID, result, strategy, validation, finalStatus); err != nil {
		p.logger.Error().Err(err).Str("request_id", req.RequestID).Msg("failed to record production data")
	}

	if finalStatus == domain.StatusCompleted && p.notifier != nil {
		notifyCtx, cancelNotify := context.WithTimeout(context.WithoutCancel(ctx), p.webhookTimeout)
		defer cancelNotify()
		if err := p.notifier.NotifyCompleted(notifyCtx, req, result, strategy); err != nil {
			p.logger.Error().Err(err).Str("request_id", req.RequestID).Msg("completion webhook failed")
		}
	}

	return JobResult{
		RequestID:     req.RequestID,
		Status:        finalStatus,
		ProductionURL: result.SecureURL,
		Strategy:      &strategy,
		Validation:    &validation,
	}
}

// ProcessBatch runs requests through a bounded worker pool. One item's failure
// never aborts its siblings; results are 1:1 with the input order.
func (p *Processor) ProcessBatch(ctx context.Context, reqs []domain.ArtworkRequest) []JobResult {
	results := make([]JobResult, len(reqs))
	sem := make(chan struct{}, p.batchWorkers)
	var wg sync.WaitGroup

	for i, req := range reqs {
		wg.Add(1)
		go func(i int, req domain.ArtworkRequest) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := req.Validate(); err != nil {
				results[i] = JobResult{RequestID: req.RequestID, Status: domain.StatusFailed, Error: err.Error()}
				return
			}
			results[i] = p.Process(ctx, req)
		}(i, req)
	}

	wg.Wait()
	return results
}

func (p *Processor) fail(ctx context.Context, req domain.ArtworkRequest, cause error) JobResult {
	p.logger.Error().Err(cause).Str("request_id", req.RequestID).Msg("upscaling failed")
	p.updateStatus(ctx, req.RequestID, domain.StatusFailed, cause.Error())
	return JobResult{RequestID: req.RequestID, Status: domain.StatusFailed, Error: cause.Error()}
}

func (p *Processor) updateStatus(ctx context.Context, requestID string, status domain.Status, errorMessage string) {
	if err := p.store.UpdateStatus(ctx, requestID, status, errorMessage); err != nil {
		p.logger.Error().Err(err).Str("request_id", requestID).Str("status", string(status)).Msg("failed to update request status")
	}
}

// imageInfo resolves the source asset's current dimensions, consulting the
// cache first. A failed lookup falls back to documented defaults rather than
// failing the attempt; the provider remains the authority on the final result.
func (p *Processor) imageInfo(ctx context.Context, publicID string) domain.ImageInfo {
	if p.cache != nil {
		if info, ok := p.cache.Get(ctx, publicID); ok {
			return info
		}
	}

	info, err := p.provider.Resource(ctx, publicID)
	if err != nil {
		p.logger.Warn().Err(err).Str("public_id", publicID).Msg("image info lookup failed, using defaults")
		return domain.ImageInfo{Width: 1024, Height: 1024, Format: "png"}
	}

	if p.cache != nil {
		p.cache.Set(ctx, publicID, info)
	}
	return info
}
