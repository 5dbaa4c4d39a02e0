package normalization

import (
	"fmt"
	"time"
)

const settlementPeriodLength = 30 * time.Minute

// SettlementPeriodStart resolves a local settlement date and 1-based
// half-hour period to the period's start instant in UTC. The date is
// anchored at civil midnight in loc, so days with a DST transition keep
// every period aligned with the local half-hour grid: a 23-hour day has
// 46 periods and a 25-hour day has 50.
func SettlementPeriodStart(dateISO string, period int, loc *time.Location) (time.Time, error) {
	if period < 1 {
		return time.Time{}, fmt.Errorf("settlement period must be >= 1, got %d", period)
	}
	day, err := time.ParseInLocation("2006-01-02", dateISO, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse settlement date %q: %w", dateISO, err)
	}
	return day.UTC().Add(time.Duration(period-1) * settlementPeriodLength), nil
}

// SettlementPeriodsInDay returns the number of half-hour settlement
// periods in the given local date: 48 normally, 46 on the spring-forward
// day and 50 on the fall-back day.
func SettlementPeriodsInDay(dateISO string, loc *time.Location) (int, error) {
	day, err := time.ParseInLocation("2006-01-02", dateISO, loc)
	if err != nil {
		return 0, fmt.Errorf("parse settlement date %q: %w", dateISO, err)
	}
	next := day.AddDate(0, 0, 1)
	return int(next.UTC().Sub(day.UTC()) / settlementPeriodLength), nil
}
