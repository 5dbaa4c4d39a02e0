package domain

import "time"

// PeriodType is the sampling resolution of an observation interval.
type PeriodType string

const (
	PeriodPT10M PeriodType = "PT10M"
	PeriodPT15M PeriodType = "PT15M"
	PeriodPT30M PeriodType = "PT30M"
	PeriodPT60M PeriodType = "PT60M"
	PeriodMonth PeriodType = "month"
)

// String returns the string representation of PeriodType.
func (p PeriodType) String() string {
	return string(p)
}

// IsValid checks if the period type is a valid value.
func (p PeriodType) IsValid() bool {
	switch p {
	case PeriodPT10M, PeriodPT15M, PeriodPT30M, PeriodPT60M, PeriodMonth:
		return true
	}
	return false
}

// Duration returns the fixed length of the period. Monthly periods have no
// fixed length; use End for calendar-aware arithmetic.
func (p PeriodType) Duration() time.Duration {
	switch p {
	case PeriodPT10M:
		return 10 * time.Minute
	case PeriodPT15M:
		return 15 * time.Minute
	case PeriodPT30M:
		return 30 * time.Minute
	case PeriodPT60M:
		return time.Hour
	default:
		return 0
	}
}

// End returns the exclusive end of a period starting at start.
func (p PeriodType) End(start time.Time) time.Time {
	if p == PeriodMonth {
		return start.AddDate(0, 1, 0)
	}
	return start.Add(p.Duration())
}
