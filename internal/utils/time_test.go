package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeFrameCutoff(t *testing.T) {
	ref := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		tag  string
		want time.Time
	}{
		{"24hours", time.Date(2024, 3, 19, 12, 0, 0, 0, time.UTC)},
		{"7days", time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC)},
		{"30days", time.Date(2024, 2, 19, 12, 0, 0, 0, time.UTC)},
		// Month tags are 30-day blocks, not calendar months.
		{"3months", ref.Add(-90 * 24 * time.Hour)},
		{"6months", ref.Add(-180 * 24 * time.Hour)},
		{"12months", ref.Add(-360 * 24 * time.Hour)},
		{"14", time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		got, err := TimeFrameCutoff(tt.tag, ref)
		require.NoError(t, err, "tag %q", tt.tag)
		assert.True(t, got.Equal(tt.want), "tag %q: got %v, want %v", tt.tag, got, tt.want)
	}
}

func TestTimeFrameCutoffUnknown(t *testing.T) {
	ref := time.Now()

	for _, tag := range []string{"", "yesterday", "0", "-5", "7d"} {
		_, err := TimeFrameCutoff(tag, ref)
		assert.Error(t, err, "tag %q", tag)
	}
}
