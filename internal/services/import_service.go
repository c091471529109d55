package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/mpetrov/glucolog/internal/domain"
	apperrors "github.com/mpetrov/glucolog/internal/errors"
	"github.com/mpetrov/glucolog/internal/logger"
	"github.com/mpetrov/glucolog/internal/metrics"
)

// dedupBucket is the window within which two readings of the same value are
// considered the same measurement regardless of source.
const dedupBucket = 5 * time.Minute

// ImportService merges readings from an external health source into the
// store without duplicating records or overwriting user-authored entries.
type ImportService struct {
	source   domain.HealthSource
	readings *ReadingService
	settings *SettingsService
}

func NewImportService(source domain.HealthSource, readings *ReadingService, settings *SettingsService) *ImportService {
	return &ImportService{
		source:   source,
		readings: readings,
		settings: settings,
	}
}

// dedupKey collapses near-simultaneous readings into one comparison key:
// the 5-minute time bucket combined with the rounded mg/dL value.
func dedupKey(t time.Time, valueMgdl float64) string {
	return fmt.Sprintf("%d|%d", t.UTC().Truncate(dedupBucket).Unix(), int(math.Round(valueMgdl)))
}

// Sync imports external readings for the [start, end] window. A zero start
// falls back to the last successful sync, then to the oldest available
// external record. Progress is reported per record when the callback is
// non-nil. A mid-batch failure returns the counts accumulated so far along
// with an import error.
func (s *ImportService) Sync(ctx context.Context, start, end time.Time, progress func(domain.ImportProgress)) (*domain.ImportResult, error) {
	result := &domain.ImportResult{SourceName: s.source.Name()}

	oldest, hasData, err := s.source.OldestRecordTime(ctx)
	if err != nil {
		return result, err
	}
	if !hasData {
		result.NoData = true
		logger.Info("External source has no glucose data", "source", s.source.Name())
		return result, nil
	}

	if start.IsZero() {
		if watermark, ok := s.settings.LastSyncTime(); ok {
			start = watermark
		}
	}
	if start.Before(oldest) {
		start = oldest
	}
	if end.IsZero() {
		end = time.Now()
	}

	records, err := s.source.FetchReadings(ctx, start, end)
	if err != nil {
		return result, err
	}

	index, err := s.buildDedupIndex(ctx, start, end)
	if err != nil {
		return result, err
	}

	for i, record := range records {
		valueMgdl := record.Value
		if record.Unit == domain.UnitMmol {
			valueMgdl = metrics.MmolToMgdl(record.Value)
		}

		key := dedupKey(record.Timestamp, valueMgdl)
		if existing, found := index[key]; found {
			// Never overwrite user data with imported data.
			if existing.IsManual() {
				result.SkippedManual++
			} else {
				result.Duplicates++
			}
			s.reportProgress(progress, i+1, len(records))
			continue
		}

		stored, err := s.readings.AddReading(ctx, domain.NewReading{
			Value:      valueMgdl,
			Unit:       domain.UnitMgdl,
			Timestamp:  record.Timestamp,
			SourceName: s.source.Name(),
		})
		if err != nil {
			return result, apperrors.NewImportError(err, s.source.Name(), result.Imported)
		}
		index[key] = *stored
		result.Imported++
		s.reportProgress(progress, i+1, len(records))
	}

	if err := s.settings.SetLastSyncTime(ctx, end); err != nil {
		logger.Warn("Failed to record sync watermark", "error", err)
	}

	logger.Info("Import completed",
		"source", result.SourceName,
		"imported", result.Imported,
		"duplicates", result.Duplicates,
		"skipped_manual", result.SkippedManual)
	return result, nil
}

// buildDedupIndex loads stored readings around the import window, widened by
// one bucket so boundary records still collide.
func (s *ImportService) buildDedupIndex(ctx context.Context, start, end time.Time) (map[string]domain.Reading, error) {
	existing, err := s.readings.GetReadingsByDateRange(ctx, start.Add(-dedupBucket), end.Add(dedupBucket))
	if err != nil {
		return nil, err
	}

	index := make(map[string]domain.Reading, len(existing))
	for _, r := range existing {
		key := dedupKey(r.Timestamp, metrics.ValueMgdl(r))
		// Manual entries win the bucket: they must never be shadowed by a
		// previously imported row.
		if current, found := index[key]; found && current.IsManual() {
			continue
		}
		index[key] = r
	}
	return index, nil
}

func (s *ImportService) reportProgress(progress func(domain.ImportProgress), processed, total int) {
	if progress != nil {
		progress(domain.ImportProgress{Processed: processed, Total: total})
	}
}
