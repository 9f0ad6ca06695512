/**
 * @description
 * This package provides a client for the upstream Receipt Extraction Service,
 * which turns an uploaded receipt image into structured fields plus a
 * confidence score. The rewards-service never performs OCR itself.
 *
 * @notes
 * - A single awaited call with a bounded timeout; no automatic retries. When
 *   extraction fails the caller receives improvement suggestions and may
 *   resubmit a better image.
 */
package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/toucanwin/rewards-service/internal/domain"
)

// ErrPoorQuality is returned when the extraction service could not read the
// image well enough to produce structured fields.
var ErrPoorQuality = errors.New("extraction rejected: poor image quality")

// DefaultSuggestions accompany a poor-quality rejection.
var DefaultSuggestions = []string{
	"retake the photo in better lighting",
	"flatten the receipt and avoid glare",
	"make sure the total and store name are visible",
}

// Client is a client for the Receipt Extraction Service API.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a new extraction client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type extractRequest struct {
	ImageURL string `json:"image_url"`
}

type extractResponse struct {
	Success bool `json:"success"`
	Receipt struct {
		StoreName  string  `json:"store_name"`
		Total      float64 `json:"total"`
		Date       string  `json:"date,omitempty"`
		Time       string  `json:"time,omitempty"`
		Items      []struct {
			Name  string  `json:"name"`
			Price float64 `json:"price"`
		} `json:"items"`
	} `json:"receipt"`
	Confidence  float64  `json:"confidence"`
	Error       string   `json:"error,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Extract asks the upstream service to read a receipt image and returns the
// structured receipt. A low-confidence or failed extraction surfaces as
// ErrPoorQuality with suggestions; the caller decides whether to resubmit.
func (c *Client) Extract(ctx context.Context, imageURL string) (*domain.StructuredReceipt, []string, error) {
	payload, err := json.Marshal(extractRequest{ImageURL: imageURL})
	if err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/extract", bytes.NewReader(payload))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("extraction request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read extraction response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, DefaultSuggestions, fmt.Errorf("extraction service returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed extractResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, nil, fmt.Errorf("decode extraction response: %w", err)
	}

	if !parsed.Success {
		suggestions := parsed.Suggestions
		if len(suggestions) == 0 {
			suggestions = DefaultSuggestions
		}
		return nil, suggestions, ErrPoorQuality
	}

	receipt := &domain.StructuredReceipt{
		StoreName:  parsed.Receipt.StoreName,
		TotalCents: int64(math.Round(parsed.Receipt.Total * 100)),
		Confidence: parsed.Confidence,
	}
	for _, item := range parsed.Receipt.Items {
		receipt.Items = append(receipt.Items, domain.ReceiptItem{
			Name:       item.Name,
			PriceCents: int64(math.Round(item.Price * 100)),
		})
	}
	if parsed.Receipt.Date != "" {
		if day, err := time.Parse("2006-01-02", parsed.Receipt.Date); err == nil {
			receipt.Date = &day
		}
	}
	return receipt, nil, nil
}
