package extraction

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtractSuccess(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.Method != http.MethodPost || r.URL.Path != "/v1/extract" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": true,
			"receipt": {
				"store_name": "Whole Foods Market",
				"total": 199.99,
				"date": "2026-06-10",
				"items": [
					{"name": "Bananas", "price": 1.49},
					{"name": "Sparkling Water", "price": 3.50}
				]
			},
			"confidence": 0.94
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	receipt, suggestions, err := client.Extract(context.Background(), "https://cdn.example.com/receipt.jpg")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(suggestions) != 0 {
		t.Fatalf("expected no suggestions on success, got %v", suggestions)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("expected Authorization 'Bearer test-key', got %q", gotAuth)
	}
	if receipt.StoreName != "Whole Foods Market" {
		t.Fatalf("expected store name 'Whole Foods Market', got %q", receipt.StoreName)
	}
	if receipt.TotalCents != 19999 {
		t.Fatalf("expected total 19999 cents, got %d", receipt.TotalCents)
	}
	if receipt.Confidence != 0.94 {
		t.Fatalf("expected confidence 0.94, got %f", receipt.Confidence)
	}
	if receipt.Date == nil || receipt.Date.Format("2006-01-02") != "2026-06-10" {
		t.Fatalf("expected date 2026-06-10, got %v", receipt.Date)
	}
	if len(receipt.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(receipt.Items))
	}
	if receipt.Items[0].PriceCents != 149 || receipt.Items[1].PriceCents != 350 {
		t.Fatalf("expected item prices 149 and 350, got %d and %d",
			receipt.Items[0].PriceCents, receipt.Items[1].PriceCents)
	}
}

func TestExtractPoorQuality(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": false,
			"error": "image too blurry",
			"suggestions": ["hold the camera steady", "move closer to the receipt"]
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	receipt, suggestions, err := client.Extract(context.Background(), "https://cdn.example.com/blurry.jpg")
	if !errors.Is(err, ErrPoorQuality) {
		t.Fatalf("expected ErrPoorQuality, got %v", err)
	}
	if receipt != nil {
		t.Fatalf("expected nil receipt, got %+v", receipt)
	}
	if len(suggestions) != 2 || suggestions[0] != "hold the camera steady" {
		t.Fatalf("expected upstream suggestions, got %v", suggestions)
	}
}

func TestExtractPoorQualityDefaultSuggestions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": false, "error": "unreadable"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	_, suggestions, err := client.Extract(context.Background(), "https://cdn.example.com/unreadable.jpg")
	if !errors.Is(err, ErrPoorQuality) {
		t.Fatalf("expected ErrPoorQuality, got %v", err)
	}
	if len(suggestions) != len(DefaultSuggestions) {
		t.Fatalf("expected default suggestions, got %v", suggestions)
	}
}

func TestExtractUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	receipt, suggestions, err := client.Extract(context.Background(), "https://cdn.example.com/receipt.jpg")
	if err == nil {
		t.Fatal("expected an error for a 500 response, got nil")
	}
	if errors.Is(err, ErrPoorQuality) {
		t.Fatalf("expected a transport error, not ErrPoorQuality: %v", err)
	}
	if receipt != nil {
		t.Fatalf("expected nil receipt, got %+v", receipt)
	}
	if len(suggestions) != len(DefaultSuggestions) {
		t.Fatalf("expected default suggestions on upstream failure, got %v", suggestions)
	}
}
