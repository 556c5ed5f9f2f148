package calculation

import (
	"github.com/shopspring/decimal"

	"github.com/paystream/payroll/internal/domain"
	"github.com/paystream/payroll/pkg/money"
)

// FEDERAL WITHHOLDING ASSUMPTIONS:
//
// 1. Income tax uses the annualized-wage method: period wages are projected
//    to a full year, taxed through the filing-status bracket table, and the
//    result is divided back into the period.
// 2. Bracket tables and standard deductions are the 2025 figures and are not
//    inflation-indexed; callers needing other years supply a FederalConfig.
// 3. Social Security stops at the annual wage base per employee; Medicare has
//    no cap; Additional Medicare applies to wages past the filing-status
//    threshold, computed on the year-to-date crossing point.

// FederalConfig carries the overridable federal tax parameters.
type FederalConfig struct {
	StandardDeductions   map[domain.FilingStatus]decimal.Decimal
	Brackets             map[domain.FilingStatus]*BracketTable
	SSWageBase           decimal.Decimal
	SSRate               decimal.Decimal
	MedicareRate         decimal.Decimal
	AdditionalRate       decimal.Decimal
	AdditionalThresholds map[domain.FilingStatus]decimal.Decimal
}

// FederalCalculator computes the six independent federal withholding
// components; the tax engine sums them.
type FederalCalculator struct {
	Year   int
	Config FederalConfig
}

// NewFederalCalculator2025 returns a calculator loaded with the 2025 tables.
func NewFederalCalculator2025() *FederalCalculator {
	return &FederalCalculator{
		Year: 2025,
		Config: FederalConfig{
			StandardDeductions: map[domain.FilingStatus]decimal.Decimal{
				domain.Single:            decimal.NewFromInt(15000),
				domain.MarriedJointly:    decimal.NewFromInt(30000),
				domain.MarriedSeparately: decimal.NewFromInt(15000),
				domain.HeadOfHousehold:   decimal.NewFromInt(22500),
			},
			Brackets: map[domain.FilingStatus]*BracketTable{
				domain.Single: MustBracketTable([]Bracket{
					bracket(0, 11925, "0.10"),
					bracket(11925, 48475, "0.12"),
					bracket(48475, 103350, "0.22"),
					bracket(103350, 197300, "0.24"),
					bracket(197300, 250525, "0.32"),
					bracket(250525, 626350, "0.35"),
					bracket(626350, 0, "0.37"),
				}),
				domain.MarriedJointly: MustBracketTable([]Bracket{
					bracket(0, 23850, "0.10"),
					bracket(23850, 96950, "0.12"),
					bracket(96950, 206700, "0.22"),
					bracket(206700, 394600, "0.24"),
					bracket(394600, 501050, "0.32"),
					bracket(501050, 751600, "0.35"),
					bracket(751600, 0, "0.37"),
				}),
				domain.MarriedSeparately: MustBracketTable([]Bracket{
					bracket(0, 11925, "0.10"),
					bracket(11925, 48475, "0.12"),
					bracket(48475, 103350, "0.22"),
					bracket(103350, 197300, "0.24"),
					bracket(197300, 250525, "0.32"),
					bracket(250525, 375800, "0.35"),
					bracket(375800, 0, "0.37"),
				}),
				domain.HeadOfHousehold: MustBracketTable([]Bracket{
					bracket(0, 17000, "0.10"),
					bracket(17000, 64850, "0.12"),
					bracket(64850, 103350, "0.22"),
					bracket(103350, 197300, "0.24"),
					bracket(197300, 250500, "0.32"),
					bracket(250500, 626350, "0.35"),
					bracket(626350, 0, "0.37"),
				}),
			},
			SSWageBase:     decimal.NewFromInt(176100),
			SSRate:         decimal.RequireFromString("0.062"),
			MedicareRate:   decimal.RequireFromString("0.0145"),
			AdditionalRate: decimal.RequireFromString("0.009"),
			AdditionalThresholds: map[domain.FilingStatus]decimal.Decimal{
				domain.Single:            decimal.NewFromInt(200000),
				domain.MarriedJointly:    decimal.NewFromInt(250000),
				domain.MarriedSeparately: decimal.NewFromInt(125000),
				domain.HeadOfHousehold:   decimal.NewFromInt(200000),
			},
		},
	}
}

// NewFederalCalculator returns a calculator with caller-supplied parameters;
// any zero field falls back to the 2025 default.
func NewFederalCalculator(cfg FederalConfig) *FederalCalculator {
	base := NewFederalCalculator2025()
	if cfg.StandardDeductions != nil {
		base.Config.StandardDeductions = cfg.StandardDeductions
	}
	if cfg.Brackets != nil {
		base.Config.Brackets = cfg.Brackets
	}
	if !cfg.SSWageBase.IsZero() {
		base.Config.SSWageBase = cfg.SSWageBase
	}
	if !cfg.SSRate.IsZero() {
		base.Config.SSRate = cfg.SSRate
	}
	if !cfg.MedicareRate.IsZero() {
		base.Config.MedicareRate = cfg.MedicareRate
	}
	if !cfg.AdditionalRate.IsZero() {
		base.Config.AdditionalRate = cfg.AdditionalRate
	}
	if cfg.AdditionalThresholds != nil {
		base.Config.AdditionalThresholds = cfg.AdditionalThresholds
	}
	return base
}

// statusOrDefault maps a missing filing status to single.
func statusOrDefault(s domain.FilingStatus) domain.FilingStatus {
	if !s.IsValid() {
		return domain.Single
	}
	return s
}

// IncomeTax computes per-period federal income tax withholding using the
// annualized-wage method. Exempt employees owe zero regardless of wages.
func (fc *FederalCalculator) IncomeTax(periodGross decimal.Decimal, periodsPerYear int, w domain.WithholdingElections, exempt bool) decimal.Decimal {
	if exempt || w.Exempt || periodsPerYear <= 0 {
		return decimal.Zero
	}
	status := statusOrDefault(w.FilingStatus)
	periods := decimal.NewFromInt(int64(periodsPerYear))

	annual := periodGross.Mul(periods).
		Add(w.OtherIncome).
		Sub(w.Deductions).
		Sub(fc.Config.StandardDeductions[status])
	annual = money.FloorZero(annual)

	tax := fc.Config.Brackets[status].Evaluate(annual)
	tax = money.FloorZero(tax.Sub(w.DependentsCredit))

	return money.RoundToCents(tax.Div(periods).Add(w.ExtraWithholding))
}

// SocialSecurity taxes the period's wages up to the remaining headroom under
// the annual wage base. Once year-to-date gross reaches the base, further
// periods owe nothing.
func (fc *FederalCalculator) SocialSecurity(gross, ytdGross decimal.Decimal) decimal.Decimal {
	headroom := money.FloorZero(fc.Config.SSWageBase.Sub(ytdGross))
	taxable := decimal.Min(gross, headroom)
	if taxable.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return money.RoundToCents(taxable.Mul(fc.Config.SSRate))
}

// Medicare is a flat rate with no wage cap.
func (fc *FederalCalculator) Medicare(gross decimal.Decimal) decimal.Decimal {
	if gross.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return money.RoundToCents(gross.Mul(fc.Config.MedicareRate))
}

// AdditionalMedicare applies the surtax only to the portion of this period's
// wages that pushes cumulative wages past the filing-status threshold.
func (fc *FederalCalculator) AdditionalMedicare(gross, ytdGross decimal.Decimal, status domain.FilingStatus) decimal.Decimal {
	threshold := fc.Config.AdditionalThresholds[statusOrDefault(status)]
	newYTD := ytdGross.Add(gross)

	var excess decimal.Decimal
	switch {
	case ytdGross.GreaterThanOrEqual(threshold):
		excess = gross
	case newYTD.GreaterThan(threshold):
		excess = newYTD.Sub(threshold)
	default:
		return decimal.Zero
	}
	return money.RoundToCents(excess.Mul(fc.Config.AdditionalRate))
}
