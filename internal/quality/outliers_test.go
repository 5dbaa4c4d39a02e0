package quality

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagCapacityExceeded(t *testing.T) {
	flags := Flag(120, 100)

	require.Len(t, flags, 1)
	assert.Equal(t, RuleCapacityExceeded, flags[0].Rule)
	assert.Equal(t, SeverityWarning, flags[0].Severity)
	assert.InDelta(t, 1.2, flags[0].Ratio, 1e-9)
}

func TestFlagWithinTolerance(t *testing.T) {
	assert.Empty(t, Flag(105, 100))
	assert.Empty(t, Flag(110, 100))
}

func TestFlagAbsoluteCeiling(t *testing.T) {
	flags := Flag(12000, 0)

	require.Len(t, flags, 1)
	assert.Equal(t, RuleAbsoluteCeiling, flags[0].Rule)
	assert.Equal(t, SeverityCritical, flags[0].Severity)
}

func TestFlagComposable(t *testing.T) {
	// Over capacity and over the ceiling at once.
	flags := Flag(12000, 5000)

	require.Len(t, flags, 2)
	assert.Equal(t, RuleCapacityExceeded, flags[0].Rule)
	assert.InDelta(t, 2.4, flags[0].Ratio, 1e-9)
	assert.Equal(t, RuleAbsoluteCeiling, flags[1].Rule)
}

func TestFlagUnknownCapacitySkipsCapacityCheck(t *testing.T) {
	assert.Empty(t, Flag(9500, 0))
	assert.Empty(t, Flag(9500, -1))
}

func TestFlagNaNNotFlagged(t *testing.T) {
	assert.Nil(t, Flag(math.NaN(), 100))
	assert.Nil(t, Flag(math.Inf(1), 100))
}

func TestExpectedMinimumSamples(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 40, ExpectedMinimumSamples(start, start.AddDate(0, 0, 2)))
	assert.Equal(t, 20, ExpectedMinimumSamples(start, start.Add(6*time.Hour)))
	assert.Equal(t, 0, ExpectedMinimumSamples(start, start))
}
