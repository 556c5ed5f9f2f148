package calculation

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/paystream/payroll/internal/domain"
	"github.com/paystream/payroll/pkg/money"
)

// DeductionResult is the evaluated deduction set for one period, split into
// the pre-tax total (subtracted from gross before the tax engine runs) and
// the post-tax total (subtracted from net pay afterwards).
type DeductionResult struct {
	Lines        []domain.DeductionLine
	PreTaxTotal  decimal.Decimal
	PostTaxTotal decimal.Decimal
}

// EvaluateDeductions computes every active deduction in effect on the pay
// date, in priority order. Amounts clamp first to the per-period cap, then to
// the remaining annual headroom; a deduction with exhausted headroom yields
// zero. Evaluation must stay sequential: later deductions see the headroom
// consumed by earlier ones.
func EvaluateDeductions(deductions []domain.Deduction, gross decimal.Decimal, payDate time.Time, ytd map[string]decimal.Decimal) (DeductionResult, error) {
	res := DeductionResult{
		PreTaxTotal:  decimal.Zero,
		PostTaxTotal: decimal.Zero,
	}

	ordered := make([]domain.Deduction, len(deductions))
	copy(ordered, deductions)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority < ordered[j].Priority
		}
		return ordered[i].ID < ordered[j].ID
	})

	for _, d := range ordered {
		if err := d.Validate(); err != nil {
			return DeductionResult{}, fmt.Errorf("evaluating deductions: %w", err)
		}
		if !d.InEffect(payDate) {
			continue
		}

		var amount decimal.Decimal
		if d.Percentage.IsPositive() {
			amount = money.RoundToCents(money.Percent(gross, d.Percentage))
		} else {
			amount = money.RoundToCents(d.Amount)
		}

		if d.PerPeriodMax != nil && amount.GreaterThan(*d.PerPeriodMax) {
			amount = *d.PerPeriodMax
		}

		ytdBefore := ytd[d.ID]
		if d.AnnualMax != nil {
			headroom := money.FloorZero(d.AnnualMax.Sub(ytdBefore))
			amount = decimal.Min(amount, headroom)
		}
		if amount.IsNegative() {
			amount = decimal.Zero
		}

		res.Lines = append(res.Lines, domain.DeductionLine{
			DeductionID: d.ID,
			Name:        d.Name,
			Type:        d.Type,
			Amount:      amount,
			YTDAfter:    ytdBefore.Add(amount),
		})
		if d.Type.ReducesTaxableWages() {
			res.PreTaxTotal = res.PreTaxTotal.Add(amount)
		} else {
			res.PostTaxTotal = res.PostTaxTotal.Add(amount)
		}
	}
	return res, nil
}
