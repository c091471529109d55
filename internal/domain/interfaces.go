package domain

import (
	"context"
	"time"
)

// ReadingStore handles durable access to blood glucose readings.
type ReadingStore interface {
	AddReading(ctx context.Context, input NewReading) (*Reading, error)
	GetAllReadings(ctx context.Context) ([]Reading, error)
	GetReadingsByDateRange(ctx context.Context, start, end time.Time) ([]Reading, error)
	GetReadingByID(ctx context.Context, id string) (*Reading, error)
	UpdateReading(ctx context.Context, reading Reading) error
	DeleteReading(ctx context.Context, id string) error
	DeleteAllReadings(ctx context.Context) error
}

// SettingsStore handles persisted threshold configuration with change
// notification.
type SettingsStore interface {
	Ranges() BloodGlucoseRanges
	SetRanges(ctx context.Context, ranges BloodGlucoseRanges) error
	UpdateRanges(ctx context.Context, update RangesUpdate) (BloodGlucoseRanges, error)
	ClassifyValue(value float64) RangeLevel
	Subscribe(fn func(BloodGlucoseRanges)) func()
	SyncEnabled() bool
	SetSyncEnabled(ctx context.Context, enabled bool) error
}

// HealthSource is an external platform health API the import adapter pulls
// glucose records from.
type HealthSource interface {
	Name() string
	// OldestRecordTime returns the timestamp of the oldest available record;
	// ok is false when the source holds no glucose data at all.
	OldestRecordTime(ctx context.Context) (t time.Time, ok bool, err error)
	FetchReadings(ctx context.Context, start, end time.Time) ([]ExternalReading, error)
}
