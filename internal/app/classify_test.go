package app

import (
	"testing"

	"github.com/toucanwin/rewards-service/internal/domain"
)

func TestClassifyStore(t *testing.T) {
	tests := []struct {
		name           string
		storeName      string
		wantCategory   string
		wantPartner    bool
		wantMultiplier float64
		wantCategoryX  float64
	}{
		{
			name:           "partner grocery",
			storeName:      "Whole Foods Market #123",
			wantCategory:   "grocery",
			wantPartner:    true,
			wantMultiplier: 1.2,
			wantCategoryX:  1.0,
		},
		{
			name:           "case and whitespace insensitive",
			storeName:      "  WHOLE   FOODS  ",
			wantCategory:   "grocery",
			wantPartner:    true,
			wantMultiplier: 1.2,
			wantCategoryX:  1.0,
		},
		{
			name:           "partner pharmacy carries a category multiplier",
			storeName:      "Walgreens",
			wantCategory:   "pharmacy",
			wantPartner:    true,
			wantMultiplier: 1.15,
			wantCategoryX:  1.1,
		},
		{
			name:           "non-partner grocery",
			storeName:      "Trader Joe's",
			wantCategory:   "grocery",
			wantPartner:    false,
			wantMultiplier: 1.0,
			wantCategoryX:  1.0,
		},
		{
			name:           "unknown store falls back to other",
			storeName:      "Bob's Corner Shop",
			wantCategory:   "other",
			wantPartner:    false,
			wantMultiplier: 1.0,
			wantCategoryX:  1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, categoryMultiplier := ClassifyStore(tt.storeName)
			if info.Category != tt.wantCategory {
				t.Fatalf("expected category=%q, got %q", tt.wantCategory, info.Category)
			}
			if info.IsPartner != tt.wantPartner {
				t.Fatalf("expected partner=%t, got %t", tt.wantPartner, info.IsPartner)
			}
			if info.PartnerMultiplier != tt.wantMultiplier {
				t.Fatalf("expected partner multiplier=%v, got %v", tt.wantMultiplier, info.PartnerMultiplier)
			}
			if categoryMultiplier != tt.wantCategoryX {
				t.Fatalf("expected category multiplier=%v, got %v", tt.wantCategoryX, categoryMultiplier)
			}
		})
	}
}

func TestClassifyItems(t *testing.T) {
	items := ClassifyItems([]domain.ReceiptItem{
		{Name: "Organic Bananas", PriceCents: 199},
		{Name: "Cola Soda 2L", PriceCents: 299},
		{Name: "Mystery Object", PriceCents: 999},
	})
	if len(items) != 3 {
		t.Fatalf("expected 3 classifications, got %d", len(items))
	}
	if items[0].Category != "produce" {
		t.Fatalf("expected bananas to classify as produce, got %q", items[0].Category)
	}
	if items[1].Category == "produce" {
		t.Fatalf("soda must not classify as produce")
	}
	if items[2].Category != defaultItemCategory {
		t.Fatalf("expected unknown item to fall back to %q, got %q", defaultItemCategory, items[2].Category)
	}
	if items[2].HealthScore != defaultItemHealth {
		t.Fatalf("expected default health score %v, got %v", float64(defaultItemHealth), items[2].HealthScore)
	}
}

func TestAverageHealthScore(t *testing.T) {
	if got := AverageHealthScore(nil); got != defaultItemHealth {
		t.Fatalf("expected neutral default %v for empty receipt, got %v", float64(defaultItemHealth), got)
	}

	items := []domain.ItemClassification{
		{HealthScore: 9},
		{HealthScore: 7},
		{HealthScore: 2},
	}
	if got := AverageHealthScore(items); got != 6 {
		t.Fatalf("expected average 6, got %v", got)
	}
}
