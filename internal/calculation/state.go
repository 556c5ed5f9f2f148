package calculation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/paystream/payroll/internal/domain"
	"github.com/paystream/payroll/pkg/money"
)

// STATE WITHHOLDING ASSUMPTIONS:
//
// 1. Three jurisdiction classes dispatched by state code: no-income-tax
//    states, flat-rate states, and progressive-bracket states.
// 2. Progressive states use one bracket table regardless of filing status;
//    the listed tables are the 2025 single-filer schedules.
// 3. A state missing from all three classes falls back to a conservative
//    default flat rate and the fallback is reported to the caller as a
//    warning, never applied silently.
// 4. State disability insurance has its own rate and optional annual wage
//    base per jurisdiction and defaults to zero elsewhere.

// WarnUnlistedJurisdiction is the warning code for the default-rate fallback.
const WarnUnlistedJurisdiction = "unlisted_jurisdiction"

// SDIConfig is one jurisdiction's disability insurance schedule. A zero
// WageBase means the tax is uncapped.
type SDIConfig struct {
	Rate     decimal.Decimal
	WageBase decimal.Decimal
}

// StateCalculator dispatches per-jurisdiction state income tax and SDI.
type StateCalculator struct {
	NoTax       map[string]bool
	FlatRates   map[string]decimal.Decimal
	Progressive map[string]*BracketTable
	SDI         map[string]SDIConfig
	DefaultRate decimal.Decimal
}

// NewStateCalculator2025 returns the compiled-in 2025 jurisdiction tables.
func NewStateCalculator2025() *StateCalculator {
	flat := func(s string) decimal.Decimal { return decimal.RequireFromString(s) }
	return &StateCalculator{
		NoTax: map[string]bool{
			"AK": true, "FL": true, "NV": true, "NH": true, "SD": true,
			"TN": true, "TX": true, "WA": true, "WY": true,
		},
		FlatRates: map[string]decimal.Decimal{
			"AZ": flat("0.025"),
			"CO": flat("0.044"),
			"GA": flat("0.0539"),
			"ID": flat("0.058"),
			"IL": flat("0.0495"),
			"IN": flat("0.0305"),
			"KY": flat("0.04"),
			"MA": flat("0.05"),
			"MI": flat("0.0425"),
			"MS": flat("0.047"),
			"NC": flat("0.045"),
			"PA": flat("0.0307"),
			"UT": flat("0.0465"),
		},
		Progressive: map[string]*BracketTable{
			"CA": MustBracketTable([]Bracket{
				bracket(0, 10756, "0.01"),
				bracket(10756, 25499, "0.02"),
				bracket(25499, 40245, "0.04"),
				bracket(40245, 55866, "0.06"),
				bracket(55866, 70606, "0.08"),
				bracket(70606, 360659, "0.093"),
				bracket(360659, 432787, "0.103"),
				bracket(432787, 721314, "0.113"),
				bracket(721314, 0, "0.123"),
			}),
			"NY": MustBracketTable([]Bracket{
				bracket(0, 8500, "0.04"),
				bracket(8500, 11700, "0.045"),
				bracket(11700, 13900, "0.0525"),
				bracket(13900, 80650, "0.055"),
				bracket(80650, 215400, "0.06"),
				bracket(215400, 1077550, "0.0685"),
				bracket(1077550, 0, "0.0965"),
			}),
			"NJ": MustBracketTable([]Bracket{
				bracket(0, 20000, "0.014"),
				bracket(20000, 35000, "0.0175"),
				bracket(35000, 40000, "0.035"),
				bracket(40000, 75000, "0.05525"),
				bracket(75000, 500000, "0.0637"),
				bracket(500000, 1000000, "0.0897"),
				bracket(1000000, 0, "0.1075"),
			}),
			"OR": MustBracketTable([]Bracket{
				bracket(0, 4300, "0.0475"),
				bracket(4300, 10750, "0.0675"),
				bracket(10750, 125000, "0.0875"),
				bracket(125000, 0, "0.099"),
			}),
			"MN": MustBracketTable([]Bracket{
				bracket(0, 31690, "0.0535"),
				bracket(31690, 104090, "0.068"),
				bracket(104090, 193240, "0.0785"),
				bracket(193240, 0, "0.0985"),
			}),
		},
		SDI: map[string]SDIConfig{
			"CA": {Rate: flat("0.012")},
			"NJ": {Rate: flat("0.0023"), WageBase: decimal.NewFromInt(165400)},
			"NY": {Rate: flat("0.005"), WageBase: decimal.NewFromInt(120000)},
			"RI": {Rate: flat("0.012"), WageBase: decimal.NewFromInt(87000)},
			"HI": {Rate: flat("0.005"), WageBase: decimal.NewFromInt(70000)},
		},
		DefaultRate: flat("0.05"),
	}
}

// IncomeTax computes the per-period state income tax. For unlisted
// jurisdictions the conservative default rate applies and a warning is
// returned alongside the amount.
func (sc *StateCalculator) IncomeTax(periodGross decimal.Decimal, periodsPerYear int, state string) (decimal.Decimal, []domain.Warning) {
	if periodsPerYear <= 0 || periodGross.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, nil
	}
	code := strings.ToUpper(strings.TrimSpace(state))
	periods := decimal.NewFromInt(int64(periodsPerYear))
	annual := periodGross.Mul(periods)

	if sc.NoTax[code] {
		return decimal.Zero, nil
	}
	if rate, ok := sc.FlatRates[code]; ok {
		return money.RoundToCents(annual.Mul(rate).Div(periods)), nil
	}
	if table, ok := sc.Progressive[code]; ok {
		return money.RoundToCents(table.Evaluate(annual).Div(periods)), nil
	}

	warn := domain.Warning{
		Code:    WarnUnlistedJurisdiction,
		Message: fmt.Sprintf("state %q has no tax table, withholding at default rate %s", code, sc.DefaultRate),
	}
	return money.RoundToCents(annual.Mul(sc.DefaultRate).Div(periods)), []domain.Warning{warn}
}

// DisabilityInsurance computes per-period SDI for jurisdictions that levy it,
// honoring the jurisdiction's wage base the same way Social Security does.
func (sc *StateCalculator) DisabilityInsurance(gross, ytdGross decimal.Decimal, state string) decimal.Decimal {
	cfg, ok := sc.SDI[strings.ToUpper(strings.TrimSpace(state))]
	if !ok || gross.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	taxable := gross
	if !cfg.WageBase.IsZero() {
		headroom := money.FloorZero(cfg.WageBase.Sub(ytdGross))
		taxable = decimal.Min(gross, headroom)
	}
	if taxable.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return money.RoundToCents(taxable.Mul(cfg.Rate))
}
