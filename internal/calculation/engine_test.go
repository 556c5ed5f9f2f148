package calculation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paystream/payroll/internal/domain"
)

func TestTaxEngine_Calculate(t *testing.T) {
	engine := NewTaxEngine()

	t.Run("single biweekly in a no-tax state", func(t *testing.T) {
		w, warnings := engine.Calculate(TaxInput{
			TaxableWages:   dec("2711.54"),
			YTDWages:       decimal.Zero,
			PeriodsPerYear: 26,
			State:          "TX",
			Elections:      domain.WithholdingElections{FilingStatus: domain.Single},
		})
		assert.Empty(t, warnings)
		assertDecEqual(t, dec("274.00"), w.FederalIncomeTax)
		assertDecEqual(t, dec("168.12"), w.SocialSecurity)
		assertDecEqual(t, dec("39.32"), w.Medicare)
		assert.True(t, w.AdditionalMedicare.IsZero())
		assert.True(t, w.StateIncomeTax.IsZero())
		assert.True(t, w.StateDisability.IsZero())
		assert.True(t, w.LocalTax.IsZero())
		assertDecEqual(t, dec("481.44"), w.Total)
	})

	t.Run("california adds state tax and SDI", func(t *testing.T) {
		w, warnings := engine.Calculate(TaxInput{
			TaxableWages:   dec("2711.54"),
			PeriodsPerYear: 26,
			State:          "CA",
			Elections:      domain.WithholdingElections{FilingStatus: domain.Single},
		})
		assert.Empty(t, warnings)
		assertDecEqual(t, dec("119.24"), w.StateIncomeTax)
		assertDecEqual(t, dec("32.54"), w.StateDisability)
		assertDecEqual(t, w.Sum(), w.Total)
	})

	t.Run("local rate applies to taxable wages", func(t *testing.T) {
		w, _ := engine.Calculate(TaxInput{
			TaxableWages:   dec("2000"),
			PeriodsPerYear: 26,
			State:          "PA",
			LocalRate:      dec("0.01"),
			Elections:      domain.WithholdingElections{FilingStatus: domain.Single},
		})
		assertDecEqual(t, dec("20.00"), w.LocalTax)
	})

	t.Run("exempt skips income tax but not FICA", func(t *testing.T) {
		w, _ := engine.Calculate(TaxInput{
			TaxableWages:   dec("2711.54"),
			PeriodsPerYear: 26,
			State:          "TX",
			Exempt:         true,
			Elections:      domain.WithholdingElections{FilingStatus: domain.Single},
		})
		assert.True(t, w.FederalIncomeTax.IsZero())
		assertDecEqual(t, dec("168.12"), w.SocialSecurity)
		assertDecEqual(t, dec("39.32"), w.Medicare)
	})

	t.Run("unlisted jurisdiction warning propagates", func(t *testing.T) {
		_, warnings := engine.Calculate(TaxInput{
			TaxableWages:   dec("2000"),
			PeriodsPerYear: 26,
			State:          "ZZ",
			Elections:      domain.WithholdingElections{FilingStatus: domain.Single},
		})
		require.Len(t, warnings, 1)
		assert.Equal(t, WarnUnlistedJurisdiction, warnings[0].Code)
	})
}

func TestNewTaxEngineWithConfig(t *testing.T) {
	engine := NewTaxEngineWithConfig(FederalConfig{
		SSWageBase: dec("100000"),
	}, map[string]decimal.Decimal{
		"ZZ": dec("0.02"),
	})

	assertDecEqual(t, dec("100000"), engine.Federal.Config.SSWageBase)

	w, warnings := engine.Calculate(TaxInput{
		TaxableWages:   dec("2000"),
		PeriodsPerYear: 26,
		State:          "ZZ",
		Elections:      domain.WithholdingElections{FilingStatus: domain.Single},
	})
	assert.Empty(t, warnings, "overridden jurisdiction is no longer unlisted")
	assertDecEqual(t, dec("40.00"), w.StateIncomeTax)
}
