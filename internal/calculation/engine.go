package calculation

import (
	"github.com/shopspring/decimal"

	"github.com/paystream/payroll/internal/domain"
	"github.com/paystream/payroll/pkg/money"
)

// TaxInput is everything the tax engine needs for one employee's period,
// fully resolved before the calculation starts.
type TaxInput struct {
	TaxableWages   decimal.Decimal // period gross after pre-tax deductions
	YTDWages       decimal.Decimal // year-to-date taxable wages before this period
	PeriodsPerYear int
	State          string
	LocalRate      decimal.Decimal // optional flat local rate, fraction
	Elections      domain.WithholdingElections
	Exempt         bool
}

// TaxEngine composes the federal and state calculators into one withholding
// result per pay period. It is the only tax component the payroll processor
// calls.
type TaxEngine struct {
	Federal *FederalCalculator
	State   *StateCalculator
}

// NewTaxEngine returns an engine loaded with the 2025 tables.
func NewTaxEngine() *TaxEngine {
	return &TaxEngine{
		Federal: NewFederalCalculator2025(),
		State:   NewStateCalculator2025(),
	}
}

// NewTaxEngineWithConfig returns an engine with caller-supplied federal
// parameters and optional extra flat state rates layered over the defaults.
func NewTaxEngineWithConfig(federal FederalConfig, extraFlatStates map[string]decimal.Decimal) *TaxEngine {
	state := NewStateCalculator2025()
	for code, rate := range extraFlatStates {
		state.FlatRates[code] = rate
	}
	return &TaxEngine{
		Federal: NewFederalCalculator(federal),
		State:   state,
	}
}

// Calculate produces the full withholding for one period. Each component is
// rounded to cents independently; Total is the sum of the rounded components.
func (te *TaxEngine) Calculate(in TaxInput) (domain.TaxWithholding, []domain.Warning) {
	var w domain.TaxWithholding
	var warnings []domain.Warning

	w.FederalIncomeTax = te.Federal.IncomeTax(in.TaxableWages, in.PeriodsPerYear, in.Elections, in.Exempt)
	w.SocialSecurity = te.Federal.SocialSecurity(in.TaxableWages, in.YTDWages)
	w.Medicare = te.Federal.Medicare(in.TaxableWages)
	w.AdditionalMedicare = te.Federal.AdditionalMedicare(in.TaxableWages, in.YTDWages, in.Elections.FilingStatus)

	stateTax, stateWarnings := te.State.IncomeTax(in.TaxableWages, in.PeriodsPerYear, in.State)
	w.StateIncomeTax = stateTax
	warnings = append(warnings, stateWarnings...)

	w.StateDisability = te.State.DisabilityInsurance(in.TaxableWages, in.YTDWages, in.State)

	if in.LocalRate.IsPositive() && in.TaxableWages.IsPositive() {
		w.LocalTax = money.RoundToCents(in.TaxableWages.Mul(in.LocalRate))
	}

	w.Total = w.Sum()
	return w, warnings
}
