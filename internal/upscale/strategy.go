package upscale

import (
	"fmt"

	"upscaler/internal/domain"
)

// Limits groups the quality thresholds that drive strategy selection and
// validation. Values come from configuration; DefaultLimits matches the
// production catalog defaults.
type Limits struct {
	PixelLimit          int64
	MinDimensionPoster  int
	MinDimensionApparel int
	MaxFileSizeMB       float64
}

func DefaultLimits() Limits {
	return Limits{
		PixelLimit:          4_200_000,
		MinDimensionPoster:  2000,
		MinDimensionApparel: 1500,
		MaxFileSizeMB:       50,
	}
}

type transformationSet struct {
	upscale string
	enhance string
	target  domain.Dimensions
}

// transformations is exhaustive over the three categories. A category missing
// here is a configuration error, not a runtime fallback.
var transformations = map[domain.ProductCategory]transformationSet{
	domain.CategoryApparel: {
		upscale: "e_upscale,w_2500,h_2500,c_fit,q_100,f_png",
		enhance: "e_enhance,w_2500,h_2500,c_fit,q_100,f_png",
		target:  domain.Dimensions{Width: 2500, Height: 2500},
	},
	domain.CategoryPoster: {
		upscale: "e_upscale,w_3000,h_3000,c_fit,q_100,f_png",
		enhance: "e_enhance,w_3000,h_3000,c_fit,q_100,f_png",
		target:  domain.Dimensions{Width: 3000, Height: 3000},
	},
	domain.CategoryCanvas: {
		upscale: "e_upscale,w_4000,h_4000,c_fit,q_100,f_png",
		enhance: "e_enhance,w_4000,h_4000,c_fit,q_100,f_png",
		target:  domain.Dimensions{Width: 4000, Height: 4000},
	},
}

const (
	qualityLevelUpscaled = "upscaled_4x"
	qualityLevelEnhanced = "enhanced"

	estimatedUpscaleSeconds = 60
	estimatedEnhanceSeconds = 30
)

// SelectStrategy decides between AI upscaling and simple enhancement for the
// given category and current pixel dimensions. Below the pixel limit the
// source is small enough to benefit from an AI upscale; at or above it only
// an enhance pass is requested. Pure; dimensions are supplied by the caller.
func SelectStrategy(limits Limits, category domain.ProductCategory, width, height int) (domain.UpscalingStrategy, error) {
	set, ok := transformations[category]
	if !ok {
		return domain.UpscalingStrategy{}, fmt.Errorf("no transformation configured for category %q", category)
	}

	currentPixels := int64(width) * int64(height)
	canUpscale := currentPixels < limits.PixelLimit

	strategy := domain.UpscalingStrategy{
		CanUpscale:    canUpscale,
		ProductType:   category,
		CurrentPixels: currentPixels,
		Target:        set.target,
	}
	if canUpscale {
		strategy.Transformation = set.upscale
		strategy.QualityLevel = qualityLevelUpscaled
		strategy.EstimatedTime = estimatedUpscaleSeconds
	} else {
		strategy.Transformation = set.enhance
		strategy.QualityLevel = qualityLevelEnhanced
		strategy.EstimatedTime = estimatedEnhanceSeconds
	}
	return strategy, nil
}

// minDimension returns the resolution floor for a category. Posters print
// larger, so they carry the higher floor.
func (l Limits) minDimension(category domain.ProductCategory) int {
	if category == domain.CategoryPoster {
		return l.MinDimensionPoster
	}
	return l.MinDimensionApparel
}
