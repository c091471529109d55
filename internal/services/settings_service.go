package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/mpetrov/glucolog/internal/database"
	"github.com/mpetrov/glucolog/internal/domain"
	apperrors "github.com/mpetrov/glucolog/internal/errors"
	"gorm.io/gorm"
)

// Setting keys in the app_settings table.
const (
	syncEnabledKey = "health_sync_enabled"
	lastSyncKey    = "health_last_sync"
)

// SettingsService persists the threshold configuration and notifies
// subscribers on change. Subscribers are invoked synchronously, in
// registration order, after a successful write.
type SettingsService struct {
	db *gorm.DB

	mu          sync.RWMutex
	ranges      domain.BloodGlucoseRanges
	subscribers []subscriber
	nextSubID   int
}

type subscriber struct {
	id int
	fn func(domain.BloodGlucoseRanges)
}

var _ domain.SettingsStore = (*SettingsService)(nil)

// NewSettingsService loads the persisted configuration, falling back to the
// defaults when none is stored.
func NewSettingsService(db *gorm.DB) (*SettingsService, error) {
	s := &SettingsService{db: db, ranges: domain.DefaultRanges()}

	var setting domain.AppSetting
	err := db.First(&setting, "key = ?", database.RangesSettingKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s, nil
	}
	if err != nil {
		return nil, apperrors.NewStorageError(err).WithContext("operation", "load_settings")
	}

	var ranges domain.BloodGlucoseRanges
	if err := json.Unmarshal([]byte(setting.Value), &ranges); err != nil {
		return nil, apperrors.NewStorageError(err).WithContext("operation", "decode_settings")
	}
	s.ranges = ranges
	return s, nil
}

func validateRanges(ranges domain.BloodGlucoseRanges) error {
	if ranges.Low <= 0 || ranges.High <= 0 {
		return apperrors.NewValidationError("thresholds must be positive")
	}
	if ranges.EffectiveLow() >= ranges.EffectiveHigh() {
		return apperrors.NewValidationError("low threshold must be below high threshold")
	}
	return nil
}

// Ranges returns the current threshold configuration.
func (s *SettingsService) Ranges() domain.BloodGlucoseRanges {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ranges
}

// SetRanges validates and persists a full threshold configuration, then
// notifies subscribers.
func (s *SettingsService) SetRanges(ctx context.Context, ranges domain.BloodGlucoseRanges) error {
	if err := validateRanges(ranges); err != nil {
		return err
	}

	data, err := json.Marshal(ranges)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := s.saveSetting(ctx, database.RangesSettingKey, string(data)); err != nil {
		return err
	}

	s.mu.Lock()
	s.ranges = ranges
	subs := make([]subscriber, len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(ranges)
	}
	return nil
}

// UpdateRanges merges a partial update into the current configuration and
// persists the result.
func (s *SettingsService) UpdateRanges(ctx context.Context, update domain.RangesUpdate) (domain.BloodGlucoseRanges, error) {
	ranges := s.Ranges()

	if update.Low != nil {
		ranges.Low = *update.Low
	}
	if update.High != nil {
		ranges.High = *update.High
	}
	if update.CustomLow != nil {
		ranges.CustomLow = update.CustomLow
	}
	if update.CustomHigh != nil {
		ranges.CustomHigh = update.CustomHigh
	}
	if update.UseCustomRanges != nil {
		ranges.UseCustomRanges = *update.UseCustomRanges
	}

	if err := s.SetRanges(ctx, ranges); err != nil {
		return domain.BloodGlucoseRanges{}, err
	}
	return ranges, nil
}

// ClassifyValue classifies a mg/dL value against the effective thresholds.
func (s *SettingsService) ClassifyValue(value float64) domain.RangeLevel {
	return s.Ranges().Classify(value)
}

// Subscribe registers a change listener and returns its disposer.
func (s *SettingsService) Subscribe(fn func(domain.BloodGlucoseRanges)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers = append(s.subscribers, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subscribers {
			if sub.id == id {
				s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
				return
			}
		}
	}
}

// SyncEnabled reports whether external health import is enabled.
func (s *SettingsService) SyncEnabled() bool {
	value, err := s.loadSetting(syncEnabledKey)
	if err != nil {
		return false
	}
	enabled, _ := strconv.ParseBool(value)
	return enabled
}

// SetSyncEnabled persists the external sync toggle.
func (s *SettingsService) SetSyncEnabled(ctx context.Context, enabled bool) error {
	return s.saveSetting(ctx, syncEnabledKey, strconv.FormatBool(enabled))
}

// LastSyncTime returns the watermark of the last successful import; ok is
// false when no import has completed yet.
func (s *SettingsService) LastSyncTime() (time.Time, bool) {
	value, err := s.loadSetting(lastSyncKey)
	if err != nil {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// SetLastSyncTime records the import watermark.
func (s *SettingsService) SetLastSyncTime(ctx context.Context, t time.Time) error {
	return s.saveSetting(ctx, lastSyncKey, t.UTC().Format(time.RFC3339))
}

func (s *SettingsService) saveSetting(ctx context.Context, key, value string) error {
	setting := domain.AppSetting{Key: key, Value: value}
	err := s.db.WithContext(ctx).
		Where(domain.AppSetting{Key: key}).
		Assign(domain.AppSetting{Value: value}).
		FirstOrCreate(&setting).Error
	if err != nil {
		return apperrors.NewStorageError(err).WithContext("setting_key", key)
	}
	return nil
}

func (s *SettingsService) loadSetting(key string) (string, error) {
	var setting domain.AppSetting
	if err := s.db.First(&setting, "key = ?", key).Error; err != nil {
		return "", err
	}
	return setting.Value, nil
}
