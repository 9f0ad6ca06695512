/**
 * @description
 * Store and line-item classification for the receipt economy pipeline. Both are
 * pure functions over the static directories in catalog.go.
 */

package app

import (
	"strings"

	"github.com/toucanwin/rewards-service/internal/domain"
)

// Defaults applied when nothing in a directory matches.
const (
	defaultStoreCategory = "other"
	defaultItemCategory  = "unknown"
	defaultItemPoints    = 1
	defaultItemHealth    = 5
)

// normalizeName lowercases and collapses whitespace for substring matching.
func normalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// ClassifyStore resolves a store name against the store directory. The first
// matching pattern wins; unmatched stores are category "other", non-partner,
// multiplier 1.0.
func ClassifyStore(storeName string) (domain.StoreInfo, float64) {
	normalized := normalizeName(storeName)
	for _, entry := range storeDirectory {
		if strings.Contains(normalized, entry.Pattern) {
			return domain.StoreInfo{
				Name:              storeName,
				Category:          entry.Category,
				IsPartner:         entry.IsPartner,
				PartnerMultiplier: entry.PartnerMultiplier,
			}, entry.CategoryMultiplier
		}
	}
	return domain.StoreInfo{
		Name:              storeName,
		Category:          defaultStoreCategory,
		IsPartner:         false,
		PartnerMultiplier: 1.0,
	}, 1.0
}

// ClassifyItems resolves every line item against the product directory.
func ClassifyItems(items []domain.ReceiptItem) []domain.ItemClassification {
	out := make([]domain.ItemClassification, 0, len(items))
	for _, item := range items {
		out = append(out, classifyItem(item))
	}
	return out
}

func classifyItem(item domain.ReceiptItem) domain.ItemClassification {
	normalized := normalizeName(item.Name)
	for _, entry := range productDirectory {
		if strings.Contains(normalized, entry.Pattern) {
			return domain.ItemClassification{
				Name:        item.Name,
				Category:    entry.Category,
				BasePoints:  entry.BasePoints,
				HealthScore: entry.HealthScore,
			}
		}
	}
	return domain.ItemClassification{
		Name:        item.Name,
		Category:    defaultItemCategory,
		BasePoints:  defaultItemPoints,
		HealthScore: defaultItemHealth,
	}
}

// AverageHealthScore computes the mean health score across classified items.
// An empty receipt reads as the neutral default.
func AverageHealthScore(items []domain.ItemClassification) float64 {
	if len(items) == 0 {
		return defaultItemHealth
	}
	var sum float64
	for _, item := range items {
		sum += item.HealthScore
	}
	return sum / float64(len(items))
}
