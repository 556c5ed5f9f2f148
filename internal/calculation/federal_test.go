package calculation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/paystream/payroll/internal/domain"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDecEqual(t *testing.T, want, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, want.Equal(got), "want %s, got %s: %v", want, got, msgAndArgs)
}

func TestFederalIncomeTax_SingleBiweekly(t *testing.T) {
	fc := NewFederalCalculator2025()
	// 2711.54 per period annualizes to 70500.04; less the 15000 standard
	// deduction that lands in the 22% bracket at 7124.0088 for the year.
	got := fc.IncomeTax(dec("2711.54"), 26, domain.WithholdingElections{
		FilingStatus: domain.Single,
	}, false)
	assertDecEqual(t, dec("274.00"), got)
}

func TestFederalIncomeTax_Elections(t *testing.T) {
	fc := NewFederalCalculator2025()
	base := domain.WithholdingElections{FilingStatus: domain.Single}

	t.Run("exempt employee owes nothing", func(t *testing.T) {
		got := fc.IncomeTax(dec("2711.54"), 26, base, true)
		assert.True(t, got.IsZero())
	})

	t.Run("dependents credit reduces annual liability", func(t *testing.T) {
		w := base
		w.DependentsCredit = dec("2000")
		// 7124.0088 - 2000 = 5124.0088 annually, 197.08 per period.
		got := fc.IncomeTax(dec("2711.54"), 26, w, false)
		assertDecEqual(t, dec("197.08"), got)
	})

	t.Run("credit larger than liability floors at zero", func(t *testing.T) {
		w := base
		w.DependentsCredit = dec("100000")
		got := fc.IncomeTax(dec("2711.54"), 26, w, false)
		assert.True(t, got.IsZero())
	})

	t.Run("extra withholding is added after the per-period split", func(t *testing.T) {
		w := base
		w.ExtraWithholding = dec("50")
		got := fc.IncomeTax(dec("2711.54"), 26, w, false)
		assertDecEqual(t, dec("324.00"), got)
	})

	t.Run("income below the standard deduction owes nothing", func(t *testing.T) {
		got := fc.IncomeTax(dec("500"), 26, base, false)
		assert.True(t, got.IsZero())
	})

	t.Run("unknown filing status falls back to single", func(t *testing.T) {
		got := fc.IncomeTax(dec("2711.54"), 26, domain.WithholdingElections{}, false)
		assertDecEqual(t, dec("274.00"), got)
	})
}

func TestSocialSecurity_WageBaseCap(t *testing.T) {
	fc := NewFederalCalculator2025()

	t.Run("below the base", func(t *testing.T) {
		got := fc.SocialSecurity(dec("2711.54"), decimal.Zero)
		assertDecEqual(t, dec("168.12"), got)
	})

	t.Run("straddling the base taxes only the headroom", func(t *testing.T) {
		// 176100 base, 150000 already earned: 26100 of the 50000 is taxable.
		got := fc.SocialSecurity(dec("50000"), dec("150000"))
		assertDecEqual(t, dec("1618.20"), got)
	})

	t.Run("past the base owes nothing", func(t *testing.T) {
		got := fc.SocialSecurity(dec("50000"), dec("200000"))
		assert.True(t, got.IsZero())
	})

	t.Run("year total never exceeds base times rate", func(t *testing.T) {
		ytd := decimal.Zero
		total := decimal.Zero
		for i := 0; i < 4; i++ {
			gross := dec("50000")
			total = total.Add(fc.SocialSecurity(gross, ytd))
			ytd = ytd.Add(gross)
		}
		assertDecEqual(t, dec("10918.20"), total) // 176100 * 0.062
	})
}

func TestMedicare(t *testing.T) {
	fc := NewFederalCalculator2025()
	assertDecEqual(t, dec("39.32"), fc.Medicare(dec("2711.54")))
}

func TestAdditionalMedicare(t *testing.T) {
	fc := NewFederalCalculator2025()

	t.Run("below the threshold", func(t *testing.T) {
		got := fc.AdditionalMedicare(dec("5000"), dec("100000"), domain.Single)
		assert.True(t, got.IsZero())
	})

	t.Run("crossing the threshold taxes only the excess", func(t *testing.T) {
		// 195000 + 10000 crosses 200000 by 5000.
		got := fc.AdditionalMedicare(dec("10000"), dec("195000"), domain.Single)
		assertDecEqual(t, dec("45.00"), got)
	})

	t.Run("already past the threshold taxes the whole period", func(t *testing.T) {
		got := fc.AdditionalMedicare(dec("1000"), dec("205000"), domain.Single)
		assertDecEqual(t, dec("9.00"), got)
	})

	t.Run("married filing jointly uses the higher threshold", func(t *testing.T) {
		got := fc.AdditionalMedicare(dec("10000"), dec("195000"), domain.MarriedJointly)
		assert.True(t, got.IsZero(), "250000 threshold not yet reached")
	})

	t.Run("married filing separately uses the lower threshold", func(t *testing.T) {
		got := fc.AdditionalMedicare(dec("10000"), dec("120000"), domain.MarriedSeparately)
		assertDecEqual(t, dec("45.00"), got) // crosses 125000 by 5000
	})
}

func TestNewFederalCalculator_OverridesFallBack(t *testing.T) {
	fc := NewFederalCalculator(FederalConfig{
		SSWageBase: dec("100000"),
	})
	defaults := NewFederalCalculator2025()

	assertDecEqual(t, dec("100000"), fc.Config.SSWageBase)
	assertDecEqual(t, defaults.Config.SSRate, fc.Config.SSRate)
	assertDecEqual(t, defaults.Config.MedicareRate, fc.Config.MedicareRate)
	assert.NotNil(t, fc.Config.Brackets[domain.Single])
}
