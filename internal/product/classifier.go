package product

import (
	"strings"

	"upscaler/internal/domain"
)

// Keyword sets are checked in order; apparel wins over canvas when both match.
var (
	apparelKeywords = []string{"hoodie", "t-shirt", "tshirt", "sweatshirt", "shirt", "apparel"}
	canvasKeywords  = []string{"canvas", "leinwand"}
)

// Classify derives the product category from free-text product and variant
// titles. A missing variant is treated as empty; no match falls back to
// poster. Pure and total.
func Classify(productTitle, variantTitle string) domain.ProductCategory {
	fullTitle := strings.ToLower(productTitle + " " + variantTitle)

	for _, keyword := range apparelKeywords {
		if strings.Contains(fullTitle, keyword) {
			return domain.CategoryApparel
		}
	}
	for _, keyword := range canvasKeywords {
		if strings.Contains(fullTitle, keyword) {
			return domain.CategoryCanvas
		}
	}
	return domain.CategoryPoster
}
