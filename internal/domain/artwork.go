package domain

import (
	"fmt"
	"strings"
	"time"
)

// Status enumerates the upscaling lifecycle of an artwork request.
type Status string

const (
	StatusPending       Status = "pending"
	StatusProcessing    Status = "processing"
	StatusCompleted     Status = "completed"
	StatusFailed        Status = "failed"
	StatusQualityIssues Status = "quality_issues"
)

// ProductCategory is derived from product/variant titles and never stored.
type ProductCategory string

const (
	CategoryPoster  ProductCategory = "poster"
	CategoryApparel ProductCategory = "apparel"
	CategoryCanvas  ProductCategory = "canvas"
)

// ArtworkRequest identifies one upscaling job submitted by the caller.
type ArtworkRequest struct {
	RequestID      string `json:"request_id"`
	ShopifyOrderID string `json:"shopify_order_id"`
	ProductTitle   string `json:"product_title"`
	VariantTitle   string `json:"variant_title,omitempty"`
	ArtworkURL     string `json:"artwork_url"`
	Status         Status `json:"status,omitempty"`
}

// Validate checks the fields a job cannot run without. It fails fast so a
// malformed request never touches the store or the provider.
func (r ArtworkRequest) Validate() error {
	var missing []string
	if strings.TrimSpace(r.RequestID) == "" {
		missing = append(missing, "request_id")
	}
	if strings.TrimSpace(r.ShopifyOrderID) == "" {
		missing = append(missing, "shopify_order_id")
	}
	if strings.TrimSpace(r.ProductTitle) == "" {
		missing = append(missing, "product_title")
	}
	if strings.TrimSpace(r.ArtworkURL) == "" {
		missing = append(missing, "artwork_url")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidRequest, strings.Join(missing, ", "))
	}
	return nil
}

// Dimensions is a target pixel box for a transformation.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// UpscalingStrategy is the decision output for one request attempt. It is
// immutable once computed.
type UpscalingStrategy struct {
	CanUpscale     bool            `json:"can_upscale"`
	ProductType    ProductCategory `json:"product_type"`
	CurrentPixels  int64           `json:"current_pixels"`
	Transformation string          `json:"recommended_transformation"`
	Target         Dimensions      `json:"target_dimensions"`
	QualityLevel   string          `json:"quality_level"`
	EstimatedTime  int             `json:"estimated_processing_time"`
}

// ImageInfo is the provider's view of an asset's current pixels and encoding.
type ImageInfo struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
	Bytes  int64  `json:"bytes"`
}

// TransformationResult is the normalized provider response for a produced
// asset. It is authoritative ground truth for validation and never recomputed
// locally.
type TransformationResult struct {
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Bytes     int64  `json:"bytes"`
	Format    string `json:"format"`
	AssetID   string `json:"asset_id"`
	SecureURL string `json:"secure_url"`
}

// QualityMetrics is the measured slice of a TransformationResult kept with the
// validation outcome.
type QualityMetrics struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Format     string  `json:"format"`
	FileSizeMB float64 `json:"file_size_mb"`
	URL        string  `json:"url"`
}

// ValidationResult is computed once per TransformationResult. A retry produces
// a fresh one.
type ValidationResult struct {
	IsValid      bool           `json:"is_valid"`
	Issues       []string       `json:"issues"`
	Metrics      QualityMetrics `json:"metrics"`
	QualityScore float64        `json:"quality_score"`
}

// StatusRecord is the persisted view of a request returned by status queries.
type StatusRecord struct {
	RequestID      string            `json:"request_id"`
	Status         Status            `json:"status"`
	ArtworkURL     string            `json:"artwork_url,omitempty"`
	ProductionURL  string            `json:"production_url,omitempty"`
	QualityMetrics *ValidationResult `json:"quality_metrics,omitempty"`
	ErrorMessage   string            `json:"error_message,omitempty"`
	CompletedAt    *time.Time        `json:"processing_completed_at,omitempty"`
}
