package services

import (
	"math"
	"regexp"
	"strconv"
	"time"

	"github.com/Harrypapa1/patchwork-trades-backend/models"
)

// Fallback price in currency units when neither a parseable display price nor
// an hourly rate is available. Kept for behavioural compatibility with the
// original fee rules.
const defaultBasePrice = 200

// Two-hour minimum applied to rate-only jobs.
const minimumBillableHours = 2

var leadingPriceRe = regexp.MustCompile(`^\s*[£$€]?\s*(\d+(?:\.\d+)?)`)

// CancellationOutcome is what cancelling a job costs and refunds.
type CancellationOutcome struct {
	FeePercent   int
	FeeAmount    float64
	RefundAmount float64
}

// ComputeCancellation applies the customer cancellation fee tiers. Tradesman
// cancellations carry no fee, only a reputational warning recorded elsewhere.
// FeeAmount + RefundAmount always equals basePrice.
func ComputeCancellation(basePrice float64, cancellingParty models.UserType, daysUntilJob int) CancellationOutcome {
	if cancellingParty != models.UserTypeCustomer {
		return CancellationOutcome{FeePercent: 0, FeeAmount: 0, RefundAmount: basePrice}
	}

	var percent int
	switch {
	case daysUntilJob > 7:
		percent = 10
	case daysUntilJob > 2:
		percent = 20
	default:
		percent = 50
	}

	fee := math.Round(basePrice * float64(percent) / 100)
	return CancellationOutcome{
		FeePercent:   percent,
		FeeAmount:    fee,
		RefundAmount: basePrice - fee,
	}
}

// ExtractBasePrice derives a numeric price from a display string such as
// "£150 fixed". A leading number wins; without one a rate-only job is charged
// the two-hour minimum; with neither, the default of 200 applies.
func ExtractBasePrice(display string, hourlyRate float64) float64 {
	if m := leadingPriceRe.FindStringSubmatch(display); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return v
		}
	}
	if hourlyRate > 0 {
		return hourlyRate * minimumBillableHours
	}
	return defaultBasePrice
}

// DaysUntil counts whole days from now until the scheduled date, rounding up
// so a job later today counts as 0 and tomorrow morning as 1.
func DaysUntil(scheduled, now time.Time) int {
	diff := scheduled.Sub(now)
	if diff <= 0 {
		return 0
	}
	return int(math.Ceil(diff.Hours() / 24))
}
