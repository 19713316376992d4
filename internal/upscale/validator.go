package upscale

import (
	"fmt"
	"strings"

	"upscaler/internal/domain"
)

var allowedFormats = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
}

// Validate inspects a provider result against the strategy's category
// thresholds. It never fails: missing data is treated as zero and surfaced as
// an issue.
func Validate(limits Limits, result domain.TransformationResult, strategy domain.UpscalingStrategy) domain.ValidationResult {
	var issues []string

	minDim := limits.minDimension(strategy.ProductType)
	if result.Width < minDim || result.Height < minDim {
		issues = append(issues, fmt.Sprintf("resolution too low: %dx%d (min: %d)", result.Width, result.Height, minDim))
	}

	fileSizeMB := float64(result.Bytes) / (1024 * 1024)
	if fileSizeMB > limits.MaxFileSizeMB {
		issues = append(issues, fmt.Sprintf("file too large: %.1fMB (max: %.0fMB)", fileSizeMB, limits.MaxFileSizeMB))
	}

	format := strings.ToLower(result.Format)
	if _, ok := allowedFormats[format]; !ok {
		issues = append(issues, fmt.Sprintf("unexpected format: %s", format))
	}

	return domain.ValidationResult{
		IsValid: len(issues) == 0,
		Issues:  issues,
		Metrics: domain.QualityMetrics{
			Width:      result.Width,
			Height:     result.Height,
			Format:     format,
			FileSizeMB: fileSizeMB,
			URL:        result.SecureURL,
		},
		QualityScore: qualityScore(limits, result, strategy),
	}
}

// qualityScore starts at 100 and applies three independent, additive
// penalties: resolution shortfall against the target box, near-cap file size,
// and any non-png output. Floored at 0.
func qualityScore(limits Limits, result domain.TransformationResult, strategy domain.UpscalingStrategy) float64 {
	score := 100.0

	widthRatio := float64(result.Width) / float64(strategy.Target.Width)
	heightRatio := float64(result.Height) / float64(strategy.Target.Height)
	resolutionRatio := widthRatio
	if heightRatio < widthRatio {
		resolutionRatio = heightRatio
	}
	if resolutionRatio < 0.8 {
		score -= 30
	} else if resolutionRatio < 0.9 {
		score -= 15
	}

	fileSizeMB := float64(result.Bytes) / (1024 * 1024)
	if fileSizeMB > limits.MaxFileSizeMB*0.8 {
		score -= 10
	}

	if strings.ToLower(result.Format) != "png" {
		score -= 5
	}

	if score < 0 {
		score = 0
	}
	return score
}
