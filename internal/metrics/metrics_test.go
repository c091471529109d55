package metrics

import (
	"testing"
	"time"

	"github.com/mpetrov/glucolog/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mgdl(value float64, ts time.Time) domain.Reading {
	return domain.Reading{Value: value, Unit: domain.UnitMgdl, Timestamp: ts}
}

func TestAverage(t *testing.T) {
	now := time.Now()
	readings := []domain.Reading{
		mgdl(120, now),
		mgdl(150, now.Add(2*time.Hour)),
	}

	avg, ok := Average(readings)
	require.True(t, ok)
	assert.InDelta(t, 135.0, avg, 0.0001)
}

func TestAverageEmpty(t *testing.T) {
	_, ok := Average(nil)
	assert.False(t, ok)
}

func TestAverageConvertsMmol(t *testing.T) {
	readings := []domain.Reading{
		{Value: 5.5, Unit: domain.UnitMmol, Timestamp: time.Now()},
	}

	avg, ok := Average(readings)
	require.True(t, ok)
	// 5.5 * 18.0182 = 99.1001, rounded to 99
	assert.InDelta(t, 99.0, avg, 0.0001)
}

func TestMmolToMgdl(t *testing.T) {
	assert.Equal(t, 99.0, MmolToMgdl(5.5))
	assert.Equal(t, 180.0, MmolToMgdl(9.99))
}

func TestEstimatedA1C(t *testing.T) {
	now := time.Now()
	readings := []domain.Reading{
		mgdl(120, now),
		mgdl(150, now.Add(2*time.Hour)),
	}

	a1c, ok := EstimatedA1C(readings)
	require.True(t, ok)
	// (135 + 46.7) / 28.7 = 6.331..., rounded to one decimal
	assert.Equal(t, 6.3, a1c)
	assert.Equal(t, domain.A1CDiabetic, ClassifyA1C(a1c))
}

func TestEstimatedA1CEmpty(t *testing.T) {
	_, ok := EstimatedA1C(nil)
	assert.False(t, ok)
}

func TestClassifyA1CBoundaries(t *testing.T) {
	tests := []struct {
		a1c  float64
		want domain.A1CStatus
	}{
		{5.6, domain.A1CNormal},
		{5.7, domain.A1CPreDiabetic},
		{6.4, domain.A1CPreDiabetic},
		{6.5, domain.A1CDiabetic},
		{8.9, domain.A1CDiabetic},
		{9.0, domain.A1CExtremelyHigh},
		{12.0, domain.A1CExtremelyHigh},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyA1C(tt.a1c), "a1c %v", tt.a1c)
	}
}

func TestPercentages(t *testing.T) {
	now := time.Now()
	ranges := domain.DefaultRanges()
	readings := []domain.Reading{
		mgdl(60, now),  // low
		mgdl(100, now), // in range
		mgdl(150, now), // in range
		mgdl(200, now), // high
	}

	p := Percentages(readings, ranges)
	assert.InDelta(t, 25.0, p.Low, 0.0001)
	assert.InDelta(t, 50.0, p.InRange, 0.0001)
	assert.InDelta(t, 25.0, p.High, 0.0001)
	assert.InDelta(t, 100.0, p.Low+p.InRange+p.High, 0.0001)
}

func TestPercentagesBoundaries(t *testing.T) {
	now := time.Now()
	ranges := domain.DefaultRanges()

	// 70 is normal (low boundary inclusive), 180 is high (high boundary
	// exclusive on the normal side).
	p := Percentages([]domain.Reading{mgdl(70, now)}, ranges)
	assert.Equal(t, 100.0, p.InRange)

	p = Percentages([]domain.Reading{mgdl(180, now)}, ranges)
	assert.Equal(t, 100.0, p.High)
}

func TestPercentagesEmpty(t *testing.T) {
	p := Percentages(nil, domain.DefaultRanges())
	assert.Zero(t, p.Low)
	assert.Zero(t, p.InRange)
	assert.Zero(t, p.High)
}

func TestPercentagesCustomRanges(t *testing.T) {
	now := time.Now()
	customLow := 80.0
	customHigh := 160.0
	ranges := domain.BloodGlucoseRanges{
		Low:             70,
		High:            180,
		CustomLow:       &customLow,
		CustomHigh:      &customHigh,
		UseCustomRanges: true,
	}

	p := Percentages([]domain.Reading{mgdl(75, now)}, ranges)
	assert.Equal(t, 100.0, p.Low)

	p = Percentages([]domain.Reading{mgdl(170, now)}, ranges)
	assert.Equal(t, 100.0, p.High)
}

func TestSummarize(t *testing.T) {
	now := time.Now()
	readings := []domain.Reading{
		mgdl(120, now),
		mgdl(150, now.Add(2*time.Hour)),
	}

	summary := Summarize(readings, domain.DefaultRanges())
	require.NotNil(t, summary.Average)
	require.NotNil(t, summary.EstimatedA1C)
	assert.Equal(t, 2, summary.Count)
	assert.InDelta(t, 135.0, *summary.Average, 0.0001)
	assert.Equal(t, 6.3, *summary.EstimatedA1C)
	assert.Equal(t, domain.A1CDiabetic, summary.A1CStatus)
	assert.Equal(t, 100.0, summary.Percentages.InRange)
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil, domain.DefaultRanges())
	assert.Zero(t, summary.Count)
	assert.Nil(t, summary.Average)
	assert.Nil(t, summary.EstimatedA1C)
	assert.Equal(t, domain.A1CNotAvailable, summary.A1CStatus)
	assert.Zero(t, summary.Percentages.InRange)
}
