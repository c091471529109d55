package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mpetrov/glucolog/internal/domain"
	apperrors "github.com/mpetrov/glucolog/internal/errors"
	"github.com/mpetrov/glucolog/internal/utils"
	"gorm.io/gorm"
)

// ReadingService provides durable CRUD access to blood glucose readings.
type ReadingService struct {
	db *gorm.DB
}

var _ domain.ReadingStore = (*ReadingService)(nil)

func NewReadingService(db *gorm.DB) *ReadingService {
	return &ReadingService{
		db: db,
	}
}

func validateNewReading(input domain.NewReading) error {
	if input.Value <= 0 {
		return apperrors.NewValidationError("reading value must be a positive number")
	}
	if !input.Unit.Valid() {
		return apperrors.NewValidationError("reading unit must be mg/dL or mmol/L")
	}
	if input.Timestamp.IsZero() {
		return apperrors.NewValidationError("reading timestamp is required")
	}
	if input.SourceName == "" {
		return apperrors.NewValidationError("reading source name is required")
	}
	return nil
}

// AddReading validates the input, assigns an id and persists the reading.
func (s *ReadingService) AddReading(ctx context.Context, input domain.NewReading) (*domain.Reading, error) {
	if err := validateNewReading(input); err != nil {
		return nil, err
	}

	reading := domain.Reading{
		ID:         uuid.NewString(),
		Value:      input.Value,
		Unit:       input.Unit,
		Timestamp:  input.Timestamp,
		SourceName: input.SourceName,
		Notes:      input.Notes,
	}

	if err := s.db.WithContext(ctx).Create(&reading).Error; err != nil {
		return nil, apperrors.NewStorageError(err).WithContext("operation", "add_reading")
	}

	return &reading, nil
}

// GetAllReadings returns every reading, most recent first.
func (s *ReadingService) GetAllReadings(ctx context.Context) ([]domain.Reading, error) {
	var readings []domain.Reading
	if err := s.db.WithContext(ctx).
		Order("timestamp DESC").
		Find(&readings).Error; err != nil {
		return nil, apperrors.NewStorageError(err).WithContext("operation", "get_all_readings")
	}
	return readings, nil
}

// GetReadingsByDateRange returns readings with start <= timestamp <= end,
// most recent first.
func (s *ReadingService) GetReadingsByDateRange(ctx context.Context, start, end time.Time) ([]domain.Reading, error) {
	var readings []domain.Reading
	if err := s.db.WithContext(ctx).
		Where("timestamp >= ? AND timestamp <= ?", start, end).
		Order("timestamp DESC").
		Find(&readings).Error; err != nil {
		return nil, apperrors.NewStorageError(err).WithContext("operation", "get_readings_by_date_range")
	}
	return readings, nil
}

// GetReadingsSince returns readings inside the given time frame tag
// (e.g. "7days"), counted back from now.
func (s *ReadingService) GetReadingsSince(ctx context.Context, timeFrame string, now time.Time) ([]domain.Reading, error) {
	cutoff, err := utils.TimeFrameCutoff(timeFrame, now)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	return s.GetReadingsByDateRange(ctx, cutoff, now)
}

// GetReadingByID returns the reading with the given id.
func (s *ReadingService) GetReadingByID(ctx context.Context, id string) (*domain.Reading, error) {
	var reading domain.Reading
	err := s.db.WithContext(ctx).First(&reading, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewNotFoundError("reading", id)
	}
	if err != nil {
		return nil, apperrors.NewStorageError(err).WithContext("operation", "get_reading_by_id")
	}
	return &reading, nil
}

// UpdateReading overwrites the stored row with the given reading. Imported
// readings are immutable; only manual entries may be edited.
func (s *ReadingService) UpdateReading(ctx context.Context, reading domain.Reading) error {
	existing, err := s.GetReadingByID(ctx, reading.ID)
	if err != nil {
		return err
	}
	if !existing.IsManual() {
		return apperrors.NewValidationError("imported readings cannot be edited").
			WithContext("source", existing.SourceName)
	}
	if err := validateNewReading(domain.NewReading{
		Value:      reading.Value,
		Unit:       reading.Unit,
		Timestamp:  reading.Timestamp,
		SourceName: reading.SourceName,
	}); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Save(&reading).Error; err != nil {
		return apperrors.NewStorageError(err).WithContext("operation", "update_reading")
	}
	return nil
}

// DeleteReading removes one reading; missing ids fail with not found.
func (s *ReadingService) DeleteReading(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&domain.Reading{}, "id = ?", id)
	if result.Error != nil {
		return apperrors.NewStorageError(result.Error).WithContext("operation", "delete_reading")
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("reading", id)
	}
	return nil
}

// DeleteAllReadings removes every reading. Idempotent: an empty store is
// not an error.
func (s *ReadingService) DeleteAllReadings(ctx context.Context) error {
	if err := s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&domain.Reading{}).Error; err != nil {
		return apperrors.NewStorageError(err).WithContext("operation", "delete_all_readings")
	}
	return nil
}
