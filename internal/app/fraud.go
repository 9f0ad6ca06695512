/**
 * @description
 * Fraud and validity scoring for submitted receipts. The assessment accumulates
 * independent risk contributions and the service rejects anything at or above
 * the configured threshold before any state is touched.
 */

package app

import (
	"time"

	"github.com/toucanwin/rewards-service/internal/domain"
)

// Risk contributions per signal.
const (
	riskShortStoreName = 0.3
	riskMissingDate    = 0.2
	riskInvalidTotal   = 0.4
	riskOverDailyCap   = 0.5
	riskStaleReceipt   = 0.2
	riskFutureReceipt  = 0.6
)

// Risk level bounds.
const (
	riskLevelLow    = "low"
	riskLevelMedium = "medium"
	riskLevelHigh   = "high"
)

const staleReceiptAge = 90 * 24 * time.Hour

// DefaultFraudRejectThreshold rejects receipts scoring at or above it.
const DefaultFraudRejectThreshold = 0.5

// AssessReceipt scores a structured receipt. `now` anchors the stale/future
// checks; dailyCapCents bounds a plausible single-receipt total.
func AssessReceipt(receipt domain.StructuredReceipt, now time.Time, dailyCapCents int64) domain.RiskAssessment {
	var assessment domain.RiskAssessment

	if len(normalizeName(receipt.StoreName)) < 3 {
		assessment.Score += riskShortStoreName
		assessment.Issues = append(assessment.Issues, "store name missing or too short")
	}
	if receipt.Date == nil {
		assessment.Score += riskMissingDate
		assessment.Issues = append(assessment.Issues, "receipt date missing")
	}
	if receipt.TotalCents <= 0 {
		assessment.Score += riskInvalidTotal
		assessment.Issues = append(assessment.Issues, "total amount missing or not positive")
	}
	if dailyCapCents > 0 && receipt.TotalCents > dailyCapCents {
		assessment.Score += riskOverDailyCap
		assessment.Issues = append(assessment.Issues, "total exceeds the daily cap")
	}
	if receipt.Date != nil {
		day := dayOf(*receipt.Date)
		today := dayOf(now)
		if day.After(today) {
			assessment.Score += riskFutureReceipt
			assessment.Issues = append(assessment.Issues, "receipt is dated in the future")
		} else if today.Sub(day) > staleReceiptAge {
			assessment.Score += riskStaleReceipt
			assessment.Issues = append(assessment.Issues, "receipt is older than 90 days")
		}
	}

	switch {
	case assessment.Score < 0.4:
		assessment.Level = riskLevelLow
	case assessment.Score <= 0.7:
		assessment.Level = riskLevelMedium
	default:
		assessment.Level = riskLevelHigh
	}
	return assessment
}
