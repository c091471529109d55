// Package metrics derives summary statistics from reading sets. Everything
// here is pure: same inputs, same outputs, no side effects.
package metrics

import (
	"math"

	"github.com/mpetrov/glucolog/internal/domain"
)

// MmolFactor converts mmol/L to mg/dL.
const MmolFactor = 18.0182

// ADAG linear approximation constants for estimating A1C from average
// glucose.
const (
	a1cOffset  = 46.7
	a1cDivisor = 28.7
)

// A1C status thresholds. Lower bounds are inclusive.
const (
	A1CPreDiabeticFloor   = 5.7
	A1CDiabeticFloor      = 6.5
	A1CExtremelyHighFloor = 9.0
)

// MmolToMgdl converts a mmol/L value to mg/dL, rounded to the nearest
// integer.
func MmolToMgdl(value float64) float64 {
	return math.Round(value * MmolFactor)
}

// ValueMgdl returns the reading's value normalized to mg/dL.
func ValueMgdl(r domain.Reading) float64 {
	if r.Unit == domain.UnitMmol {
		return MmolToMgdl(r.Value)
	}
	return r.Value
}

// Average returns the arithmetic mean glucose in mg/dL. ok is false for an
// empty input.
func Average(readings []domain.Reading) (avg float64, ok bool) {
	if len(readings) == 0 {
		return 0, false
	}
	var sum float64
	for _, r := range readings {
		sum += ValueMgdl(r)
	}
	return sum / float64(len(readings)), true
}

// EstimatedA1C returns the ADAG estimate (avg+46.7)/28.7, rounded to one
// decimal place. ok is false for an empty input. This is an estimate, not a
// clinical measurement.
func EstimatedA1C(readings []domain.Reading) (a1c float64, ok bool) {
	avg, ok := Average(readings)
	if !ok {
		return 0, false
	}
	return math.Round((avg+a1cOffset)/a1cDivisor*10) / 10, true
}

// ClassifyA1C buckets an estimated A1C value.
func ClassifyA1C(a1c float64) domain.A1CStatus {
	switch {
	case a1c < A1CPreDiabeticFloor:
		return domain.A1CNormal
	case a1c < A1CDiabeticFloor:
		return domain.A1CPreDiabetic
	case a1c < A1CExtremelyHighFloor:
		return domain.A1CDiabetic
	default:
		return domain.A1CExtremelyHigh
	}
}

// Percentages classifies each reading against the given thresholds and
// returns the share per range. Empty input yields all zeros; non-empty
// results sum to 100 up to rounding.
func Percentages(readings []domain.Reading, ranges domain.BloodGlucoseRanges) domain.RangePercentages {
	if len(readings) == 0 {
		return domain.RangePercentages{}
	}

	var low, normal, high int
	for _, r := range readings {
		switch ranges.Classify(ValueMgdl(r)) {
		case domain.RangeLow:
			low++
		case domain.RangeHigh:
			high++
		default:
			normal++
		}
	}

	total := float64(len(readings))
	return domain.RangePercentages{
		Low:     float64(low) / total * 100,
		InRange: float64(normal) / total * 100,
		High:    float64(high) / total * 100,
	}
}

// Summarize computes the full statistics bundle for a reading set.
func Summarize(readings []domain.Reading, ranges domain.BloodGlucoseRanges) domain.Summary {
	summary := domain.Summary{
		Count:       len(readings),
		A1CStatus:   domain.A1CNotAvailable,
		Percentages: Percentages(readings, ranges),
	}

	if avg, ok := Average(readings); ok {
		summary.Average = &avg
	}
	if a1c, ok := EstimatedA1C(readings); ok {
		summary.EstimatedA1C = &a1c
		summary.A1CStatus = ClassifyA1C(a1c)
	}

	return summary
}
