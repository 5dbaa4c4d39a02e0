package quality

import (
	"math"
	"time"
)

// ExpectedSamplesPerDay is a conservative lower bound on how many samples
// a healthy identifier produces per day, regardless of resolution. A
// 60-minute feed yields 24; 20 leaves slack for late publication.
const ExpectedSamplesPerDay = 20

// ExpectedMinimumSamples returns the minimum sample count an identifier
// should have stored over [start, end). Partial days round up.
func ExpectedMinimumSamples(start, end time.Time) int {
	if !end.After(start) {
		return 0
	}
	days := math.Ceil(end.Sub(start).Hours() / 24)
	return int(days) * ExpectedSamplesPerDay
}
