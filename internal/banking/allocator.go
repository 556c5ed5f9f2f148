package banking

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/paystream/payroll/internal/domain"
	"github.com/paystream/payroll/pkg/money"
)

// Warning codes raised when the waterfall does not land exactly on net pay.
const (
	WarnAllocationShortfall = "allocation_shortfall"
	WarnAllocationOverflow  = "allocation_overflow"
)

// AllocationResult is the resolved deposit waterfall for one employee.
type AllocationResult struct {
	Distributions []domain.Distribution
	Remaining     decimal.Decimal
	Warnings      []domain.Warning
}

// Allocate distributes net pay across the employee's allocations in priority
// order. Each allocation draws against the remaining balance, not the
// original: fixed amounts and percentages clamp to what is left, a remainder
// allocation takes everything left, and distribution stops once remaining
// reaches zero. A waterfall that does not land exactly on net pay surfaces
// the delta as a warning rather than silently truncating.
func Allocate(employeeID string, netPay decimal.Decimal, allocations []domain.DepositAllocation) (AllocationResult, error) {
	res := AllocationResult{Remaining: netPay}
	if netPay.IsNegative() {
		return res, fmt.Errorf("cannot allocate negative net pay %s", netPay.StringFixed(2))
	}

	ordered := make([]domain.DepositAllocation, 0, len(allocations))
	for _, a := range allocations {
		if a.Active {
			ordered = append(ordered, a)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Priority < ordered[j].Priority })

	clamped := false
	for _, a := range ordered {
		if res.Remaining.LessThanOrEqual(decimal.Zero) {
			if netPay.IsPositive() {
				clamped = true
			}
			break
		}
		var amount decimal.Decimal
		switch a.Type {
		case domain.AllocateFixed:
			amount = decimal.Min(money.RoundToCents(a.Amount), res.Remaining)
			if money.RoundToCents(a.Amount).GreaterThan(res.Remaining) {
				clamped = true
			}
		case domain.AllocatePercentage:
			want := money.RoundToCents(money.Percent(netPay, a.Amount))
			amount = decimal.Min(want, res.Remaining)
			if want.GreaterThan(res.Remaining) {
				clamped = true
			}
		case domain.AllocateRemainder:
			amount = res.Remaining
		default:
			return AllocationResult{}, fmt.Errorf("allocation for account %s: unknown type %q", a.BankAccountID, a.Type)
		}
		if amount.LessThanOrEqual(decimal.Zero) {
			continue
		}
		res.Distributions = append(res.Distributions, domain.Distribution{
			BankAccountID: a.BankAccountID,
			Amount:        amount,
		})
		res.Remaining = res.Remaining.Sub(amount)
	}

	if res.Remaining.IsPositive() {
		res.Warnings = append(res.Warnings, domain.Warning{
			Code:       WarnAllocationShortfall,
			EmployeeID: employeeID,
			Message: fmt.Sprintf("allocations leave %s of net pay %s undistributed",
				res.Remaining.StringFixed(2), netPay.StringFixed(2)),
		})
	} else if clamped {
		res.Warnings = append(res.Warnings, domain.Warning{
			Code:       WarnAllocationOverflow,
			EmployeeID: employeeID,
			Message:    fmt.Sprintf("allocations exceed net pay %s and were clamped", netPay.StringFixed(2)),
		})
	}
	return res, nil
}
