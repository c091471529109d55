package services

import (
	"context"
	"testing"
	"time"

	"github.com/mpetrov/glucolog/internal/database"
	"github.com/mpetrov/glucolog/internal/domain"
	apperrors "github.com/mpetrov/glucolog/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewMemoryDB()
	require.NoError(t, err)
	return db
}

func newTestReadingService(t *testing.T) *ReadingService {
	return NewReadingService(newTestDB(t))
}

func manualReading(value float64, ts time.Time) domain.NewReading {
	return domain.NewReading{
		Value:      value,
		Unit:       domain.UnitMgdl,
		Timestamp:  ts,
		SourceName: domain.SourceManual,
	}
}

func TestAddReadingRoundTrip(t *testing.T) {
	svc := newTestReadingService(t)
	ctx := context.Background()

	input := domain.NewReading{
		Value:      125,
		Unit:       domain.UnitMgdl,
		Timestamp:  time.Date(2024, 3, 20, 8, 30, 0, 0, time.UTC),
		SourceName: domain.SourceManual,
		Notes:      "before breakfast",
	}

	stored, err := svc.AddReading(ctx, input)
	require.NoError(t, err)
	require.NotEmpty(t, stored.ID)

	got, err := svc.GetReadingByID(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, input.Value, got.Value)
	assert.Equal(t, input.Unit, got.Unit)
	assert.True(t, got.Timestamp.Equal(input.Timestamp))
	assert.Equal(t, input.SourceName, got.SourceName)
	assert.Equal(t, input.Notes, got.Notes)
}

func TestAddReadingGeneratesUniqueIDs(t *testing.T) {
	svc := newTestReadingService(t)
	ctx := context.Background()
	ts := time.Now()

	first, err := svc.AddReading(ctx, manualReading(100, ts))
	require.NoError(t, err)
	second, err := svc.AddReading(ctx, manualReading(100, ts))
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
}

func TestAddReadingValidation(t *testing.T) {
	svc := newTestReadingService(t)
	ctx := context.Background()
	now := time.Now()

	tests := []struct {
		name  string
		input domain.NewReading
	}{
		{"zero value", domain.NewReading{Unit: domain.UnitMgdl, Timestamp: now, SourceName: domain.SourceManual}},
		{"negative value", domain.NewReading{Value: -5, Unit: domain.UnitMgdl, Timestamp: now, SourceName: domain.SourceManual}},
		{"missing unit", domain.NewReading{Value: 100, Timestamp: now, SourceName: domain.SourceManual}},
		{"bad unit", domain.NewReading{Value: 100, Unit: "lbs", Timestamp: now, SourceName: domain.SourceManual}},
		{"missing timestamp", domain.NewReading{Value: 100, Unit: domain.UnitMgdl, SourceName: domain.SourceManual}},
		{"missing source", domain.NewReading{Value: 100, Unit: domain.UnitMgdl, Timestamp: now}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddReading(ctx, tt.input)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		})
	}
}

func TestGetAllReadingsOrder(t *testing.T) {
	svc := newTestReadingService(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

	// Insert out of timestamp order.
	_, err := svc.AddReading(ctx, manualReading(100, base.Add(-2*time.Hour)))
	require.NoError(t, err)
	_, err = svc.AddReading(ctx, manualReading(110, base))
	require.NoError(t, err)
	_, err = svc.AddReading(ctx, manualReading(120, base.Add(-time.Hour)))
	require.NoError(t, err)

	readings, err := svc.GetAllReadings(ctx)
	require.NoError(t, err)
	require.Len(t, readings, 3)
	assert.Equal(t, 110.0, readings[0].Value)
	assert.Equal(t, 120.0, readings[1].Value)
	assert.Equal(t, 100.0, readings[2].Value)
}

func TestGetAllReadingsEmpty(t *testing.T) {
	svc := newTestReadingService(t)

	readings, err := svc.GetAllReadings(context.Background())
	require.NoError(t, err)
	assert.Empty(t, readings)
}

func TestGetReadingsByDateRangeInclusive(t *testing.T) {
	svc := newTestReadingService(t)
	ctx := context.Background()
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)

	_, err := svc.AddReading(ctx, manualReading(90, start.Add(-time.Second)))
	require.NoError(t, err)
	_, err = svc.AddReading(ctx, manualReading(100, start))
	require.NoError(t, err)
	_, err = svc.AddReading(ctx, manualReading(110, end))
	require.NoError(t, err)
	_, err = svc.AddReading(ctx, manualReading(120, end.Add(time.Second)))
	require.NoError(t, err)

	readings, err := svc.GetReadingsByDateRange(ctx, start, end)
	require.NoError(t, err)
	require.Len(t, readings, 2)
	assert.Equal(t, 110.0, readings[0].Value)
	assert.Equal(t, 100.0, readings[1].Value)
}

func TestGetReadingsSince(t *testing.T) {
	svc := newTestReadingService(t)
	ctx := context.Background()
	now := time.Now()

	_, err := svc.AddReading(ctx, manualReading(100, now.Add(-time.Hour)))
	require.NoError(t, err)
	_, err = svc.AddReading(ctx, manualReading(110, now.Add(-8*24*time.Hour)))
	require.NoError(t, err)

	readings, err := svc.GetReadingsSince(ctx, "7days", now)
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, 100.0, readings[0].Value)

	_, err = svc.GetReadingsSince(ctx, "fortnight", now)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestGetReadingByIDNotFound(t *testing.T) {
	svc := newTestReadingService(t)

	_, err := svc.GetReadingByID(context.Background(), "nonexistent")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUpdateReading(t *testing.T) {
	svc := newTestReadingService(t)
	ctx := context.Background()

	stored, err := svc.AddReading(ctx, manualReading(100, time.Now()))
	require.NoError(t, err)

	stored.Value = 140
	stored.Notes = "corrected"
	require.NoError(t, svc.UpdateReading(ctx, *stored))

	got, err := svc.GetReadingByID(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, 140.0, got.Value)
	assert.Equal(t, "corrected", got.Notes)
}

func TestUpdateReadingNotFound(t *testing.T) {
	svc := newTestReadingService(t)

	err := svc.UpdateReading(context.Background(), domain.Reading{
		ID:         "nonexistent",
		Value:      100,
		Unit:       domain.UnitMgdl,
		Timestamp:  time.Now(),
		SourceName: domain.SourceManual,
	})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUpdateReadingImportedIsImmutable(t *testing.T) {
	svc := newTestReadingService(t)
	ctx := context.Background()

	stored, err := svc.AddReading(ctx, domain.NewReading{
		Value:      115,
		Unit:       domain.UnitMgdl,
		Timestamp:  time.Now(),
		SourceName: domain.SourceAppleHealth,
	})
	require.NoError(t, err)

	stored.Value = 200
	err = svc.UpdateReading(ctx, *stored)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	got, err := svc.GetReadingByID(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, 115.0, got.Value)
}

func TestDeleteReading(t *testing.T) {
	svc := newTestReadingService(t)
	ctx := context.Background()

	stored, err := svc.AddReading(ctx, manualReading(100, time.Now()))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteReading(ctx, stored.ID))

	_, err = svc.GetReadingByID(ctx, stored.ID)
	assert.True(t, apperrors.IsNotFound(err))

	err = svc.DeleteReading(ctx, stored.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestDeleteAllReadingsIdempotent(t *testing.T) {
	svc := newTestReadingService(t)
	ctx := context.Background()

	_, err := svc.AddReading(ctx, manualReading(100, time.Now()))
	require.NoError(t, err)
	_, err = svc.AddReading(ctx, manualReading(110, time.Now()))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAllReadings(ctx))
	readings, err := svc.GetAllReadings(ctx)
	require.NoError(t, err)
	assert.Empty(t, readings)

	// Second call against the empty store is not an error.
	require.NoError(t, svc.DeleteAllReadings(ctx))
}
