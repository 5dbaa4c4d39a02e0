package quality

import (
	"math"

	"grid-ingest-lab/internal/domain"
)

const (
	// CapacityTolerance is the headroom allowed above installed capacity
	// before a reading is flagged. Brief overshoots are normal.
	CapacityTolerance = 1.1

	// AbsoluteCeiling is the hard plausibility bound in MW. No single
	// generation unit in any covered market produces more.
	AbsoluteCeiling = 10000.0
)

const (
	RuleCapacityExceeded = "capacity_exceeded"
	RuleAbsoluteCeiling  = "absolute_ceiling"

	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Flag evaluates one reading against plausibility bounds and returns the
// flags it violates. The reading is kept either way; flags are annotations,
// not rejections. A capacityMW of zero or below disables the capacity
// check for units with unknown capacity.
func Flag(value, capacityMW float64) []domain.OutlierFlag {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil
	}

	var flags []domain.OutlierFlag
	if capacityMW > 0 && value > capacityMW*CapacityTolerance {
		flags = append(flags, domain.OutlierFlag{
			Rule:     RuleCapacityExceeded,
			Severity: SeverityWarning,
			Ratio:    value / capacityMW,
		})
	}
	if value > AbsoluteCeiling {
		flags = append(flags, domain.OutlierFlag{
			Rule:     RuleAbsoluteCeiling,
			Severity: SeverityCritical,
		})
	}
	return flags
}
