package domain

import (
	"time"
)

// Unit is the measurement unit of a glucose value.
type Unit string

const (
	UnitMgdl Unit = "mg/dL"
	UnitMmol Unit = "mmol/L"
)

// Valid reports whether the unit is one of the known units.
func (u Unit) Valid() bool {
	return u == UnitMgdl || u == UnitMmol
}

// Source names distinguishing user-authored readings from imported ones.
const (
	SourceManual      = "Manual Entry"
	SourceAppleHealth = "Apple Health"
	SourceGoogleFit   = "Google Fit"
	SourceDexcom      = "Dexcom"
)

// Reading represents a single blood glucose measurement.
type Reading struct {
	ID         string    `gorm:"primaryKey"`
	Value      float64   `gorm:"not null"`
	Unit       Unit      `gorm:"not null"`
	Timestamp  time.Time `gorm:"not null;index"`
	SourceName string    `gorm:"not null"`
	Notes      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsManual reports whether the reading was entered by the user rather than
// imported from an external source.
func (r Reading) IsManual() bool {
	return r.SourceName == SourceManual
}

// NewReading is the input shape for creating a reading; the store assigns
// the id.
type NewReading struct {
	Value      float64
	Unit       Unit
	Timestamp  time.Time
	SourceName string
	Notes      string
}

// AppSetting is a persisted key-value configuration entry.
type AppSetting struct {
	Key       string `gorm:"primaryKey"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

// Default glucose thresholds in mg/dL.
const (
	DefaultLowThreshold  = 70
	DefaultHighThreshold = 180
)

// BloodGlucoseRanges holds the user's glucose thresholds. Custom thresholds
// apply only while UseCustomRanges is set; absent custom values fall back to
// the base thresholds.
type BloodGlucoseRanges struct {
	Low             float64  `json:"low"`
	High            float64  `json:"high"`
	CustomLow       *float64 `json:"customLow,omitempty"`
	CustomHigh      *float64 `json:"customHigh,omitempty"`
	UseCustomRanges bool     `json:"useCustomRanges"`
}

// DefaultRanges returns the compiled-in threshold configuration.
func DefaultRanges() BloodGlucoseRanges {
	return BloodGlucoseRanges{
		Low:  DefaultLowThreshold,
		High: DefaultHighThreshold,
	}
}

// EffectiveLow returns the low threshold currently in force.
func (r BloodGlucoseRanges) EffectiveLow() float64 {
	if r.UseCustomRanges && r.CustomLow != nil {
		return *r.CustomLow
	}
	return r.Low
}

// EffectiveHigh returns the high threshold currently in force.
func (r BloodGlucoseRanges) EffectiveHigh() float64 {
	if r.UseCustomRanges && r.CustomHigh != nil {
		return *r.CustomHigh
	}
	return r.High
}

// RangesUpdate is a partial update of BloodGlucoseRanges; nil fields keep
// their current value.
type RangesUpdate struct {
	Low             *float64
	High            *float64
	CustomLow       *float64
	CustomHigh      *float64
	UseCustomRanges *bool
}

// RangeLevel classifies a glucose value against the active thresholds.
type RangeLevel string

const (
	RangeLow    RangeLevel = "low"
	RangeNormal RangeLevel = "normal"
	RangeHigh   RangeLevel = "high"
)

// Classify maps a mg/dL value to a range level. The low boundary is
// inclusive on the normal side, the high boundary belongs to the high range.
func (r BloodGlucoseRanges) Classify(value float64) RangeLevel {
	if value < r.EffectiveLow() {
		return RangeLow
	}
	if value >= r.EffectiveHigh() {
		return RangeHigh
	}
	return RangeNormal
}

// A1CStatus buckets an estimated A1C value.
type A1CStatus string

const (
	A1CNormal        A1CStatus = "Normal"
	A1CPreDiabetic   A1CStatus = "Pre-Diabetic"
	A1CDiabetic      A1CStatus = "Diabetic"
	A1CExtremelyHigh A1CStatus = "Extremely High"
	A1CNotAvailable  A1CStatus = "N/A"
)

// RangePercentages is the share of readings in each range. Values sum to
// 100 for non-empty inputs and are all zero for empty ones.
type RangePercentages struct {
	Low     float64
	InRange float64
	High    float64
}

// Summary aggregates the derived statistics for a reading set. Average and
// EstimatedA1C are nil when no readings were available; the A1C estimate is
// the ADAG linear approximation, not a clinical measurement.
type Summary struct {
	Count        int
	Average      *float64
	EstimatedA1C *float64
	A1CStatus    A1CStatus
	Percentages  RangePercentages
}

// ExternalReading is a record fetched from an external health source before
// normalization into a Reading.
type ExternalReading struct {
	Value     float64
	Unit      Unit
	Timestamp time.Time
}

// ImportResult reports the outcome of one import run.
type ImportResult struct {
	SourceName    string
	NoData        bool
	Imported      int
	Duplicates    int
	SkippedManual int
}

// Total returns the number of external records examined.
func (r ImportResult) Total() int {
	return r.Imported + r.Duplicates + r.SkippedManual
}

// ImportProgress is delivered to the progress callback after each record.
type ImportProgress struct {
	Processed int
	Total     int
}
