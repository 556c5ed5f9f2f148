package calculation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/paystream/payroll/internal/domain"
)

// WarnSubminimumOvertimeRate flags a configured overtime multiplier below the
// statutory time-and-a-half.
const WarnSubminimumOvertimeRate = "subminimum_overtime_rate"

var statutoryOvertimeMultiplier = decimal.RequireFromString("1.5")

// DefaultOvertimeRule is the statutory rule applied when an eligible employee
// has no rule configured: time and a half past 40 hours, no double time.
func DefaultOvertimeRule() domain.OvertimeRule {
	return domain.OvertimeRule{
		WeeklyThreshold:      decimal.NewFromInt(40),
		OvertimeMultiplier:   statutoryOvertimeMultiplier,
		DoubleTimeMultiplier: decimal.NewFromInt(2),
	}
}

// HourBuckets is worked time split by pay multiplier.
type HourBuckets struct {
	Regular    decimal.Decimal
	Overtime   decimal.Decimal
	DoubleTime decimal.Decimal
}

// SplitHours divides total worked hours per the rule. Hours at or under the
// weekly threshold are regular; the remainder is overtime until the
// double-time threshold (hours past the weekly threshold) is exceeded, and
// double time beyond that.
func SplitHours(worked decimal.Decimal, rule domain.OvertimeRule) HourBuckets {
	b := HourBuckets{Regular: worked, Overtime: decimal.Zero, DoubleTime: decimal.Zero}
	if worked.LessThanOrEqual(rule.WeeklyThreshold) {
		return b
	}
	b.Regular = rule.WeeklyThreshold
	remaining := worked.Sub(rule.WeeklyThreshold)

	if rule.DoubleTimeAfter != nil && remaining.GreaterThan(*rule.DoubleTimeAfter) {
		b.Overtime = *rule.DoubleTimeAfter
		b.DoubleTime = remaining.Sub(*rule.DoubleTimeAfter)
		return b
	}
	b.Overtime = remaining
	return b
}

// CheckOvertimeRule returns a reconciliation warning when the configured rule
// pays below the statutory overtime multiplier.
func CheckOvertimeRule(employeeID string, rule domain.OvertimeRule) []domain.Warning {
	if rule.OvertimeMultiplier.GreaterThanOrEqual(statutoryOvertimeMultiplier) {
		return nil
	}
	return []domain.Warning{{
		Code:       WarnSubminimumOvertimeRate,
		EmployeeID: employeeID,
		Message: fmt.Sprintf("overtime multiplier %s is below the statutory %s",
			rule.OvertimeMultiplier, statutoryOvertimeMultiplier),
	}}
}
