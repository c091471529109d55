package utils

import (
	"fmt"
	"strconv"
	"time"
)

// Day counts behind the symbolic time frame tags. Month tags are 30-day
// blocks, not calendar months; stored expectations depend on that.
var timeFrameDays = map[string]int{
	"24hours":  1,
	"7days":    7,
	"30days":   30,
	"3months":  90,
	"6months":  180,
	"12months": 360,
}

// TimeFrameCutoff maps a time frame tag (or a plain integer day count) to
// the instant that many days before ref.
func TimeFrameCutoff(tag string, ref time.Time) (time.Time, error) {
	days, ok := timeFrameDays[tag]
	if !ok {
		n, err := strconv.Atoi(tag)
		if err != nil || n < 1 {
			return time.Time{}, fmt.Errorf("unknown time frame: %q", tag)
		}
		days = n
	}
	return ref.Add(-time.Duration(days) * 24 * time.Hour), nil
}
