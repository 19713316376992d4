package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"upscaler/internal/domain"
)

type Config struct {
	WebhookURL     string
	APIKey         string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Client posts completion notifications to the Gelato production webhook.
// Delivery is best-effort: the caller logs errors and never fails the job on
// them. An empty webhook URL disables the client.
type Client struct {
	httpClient     *http.Client
	webhookURL     string
	apiKey         string
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	initialBackoff := cfg.InitialBackoff
	if initialBackoff <= 0 {
		initialBackoff = 1 * time.Second
	}
	maxBackoff := cfg.MaxBackoff
	if maxBackoff < initialBackoff {
		maxBackoff = initialBackoff
	}

	return &Client{
		httpClient:     &http.Client{Timeout: timeout},
		webhookURL:     strings.TrimSpace(cfg.WebhookURL),
		apiKey:         cfg.APIKey,
		maxAttempts:    maxAttempts,
		initialBackoff: initialBackoff,
		maxBackoff:     maxBackoff,
	}
}

type notification struct {
	RequestID          string            `json:"request_id"`
	ShopifyOrderID     string            `json:"shopify_order_id"`
	ProductionImageURL string            `json:"production_image_url"`
	ProductType        string            `json:"product_type"`
	Dimensions         domain.Dimensions `json:"dimensions"`
	QualityLevel       string            `json:"quality_level"`
}

// NotifyCompleted sends one JSON POST with bearer auth for a completed
// request, retrying transient failures with doubling backoff up to the
// configured attempt budget.
func (c *Client) NotifyCompleted(ctx context.Context, req domain.ArtworkRequest, result domain.TransformationResult, strategy domain.UpscalingStrategy) error {
	if c.webhookURL == "" {
		return nil
	}

	body, err := json.Marshal(notification{
		RequestID:          req.RequestID,
		ShopifyOrderID:     req.ShopifyOrderID,
		ProductionImageURL: result.SecureURL,
		ProductType:        string(strategy.ProductType),
		Dimensions:         strategy.Target,
		QualityLevel:       strategy.QualityLevel,
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	backoff := c.initialBackoff
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("build notification request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(httpReq)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return nil
			}
			lastErr = fmt.Errorf("webhook returned status %d", resp.StatusCode)
		} else {
			lastErr = err
		}

		if attempt == c.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > c.maxBackoff {
			backoff = c.maxBackoff
		}
	}

	return fmt.Errorf("webhook delivery failed after %d attempts: %w", c.maxAttempts, lastErr)
}
