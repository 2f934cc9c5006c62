package utils

import (
	"math"

	"github.com/ecosort/waste-bank/internal/config"
)

// MaxSubmissionWeightKG bounds a single category weight accepted from a
// device.  No real intake approaches this; the bound keeps the point
// arithmetic inside the exactly-representable float64 range so ledger
// entries always sum to the balance delta.
const MaxSubmissionWeightKG = 10000.0

// maxEntryPoints caps one entry's points so the float64 to uint64
// conversion is exact and a three-part total can never wrap.
const maxEntryPoints = uint64(1) << 53

// PointBreakdown carries the per-category points computed for one waste
// submission.  The total a user's balance is incremented by is always the
// exact sum of the three parts, which in turn equal the ledger entries
// written for the submission.
type PointBreakdown struct {
	Organic    uint64 `json:"organic_points"`
	Recyclable uint64 `json:"recyclable_points"`
	Hazardous  uint64 `json:"hazardous_points"`
}

// Total returns the summed points across all categories.
func (b PointBreakdown) Total() uint64 {
	return b.Organic + b.Recyclable + b.Hazardous
}

// CalculatePoints computes reward points for a submission: each category
// earns floor(weight_kg * rate) points independently.  A zero weight earns
// zero points; fractional points are always truncated, never rounded up.
// Weights must already be validated as non-negative and at most
// MaxSubmissionWeightKG by the caller; the internal cap only backstops a
// caller that skipped validation.
func CalculatePoints(organic, recyclable, hazardous float64, rates config.RewardRates) PointBreakdown {
	return PointBreakdown{
		Organic:    pointsFor(organic, rates.Organic),
		Recyclable: pointsFor(recyclable, rates.Recyclable),
		Hazardous:  pointsFor(hazardous, rates.Hazardous),
	}
}

func pointsFor(weight float64, rate int) uint64 {
	if weight <= 0 || rate <= 0 {
		return 0
	}
	p := math.Floor(weight * float64(rate))
	if p >= float64(maxEntryPoints) {
		return maxEntryPoints
	}
	return uint64(p)
}
