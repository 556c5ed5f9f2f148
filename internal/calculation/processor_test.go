package calculation

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paystream/payroll/internal/domain"
	"github.com/paystream/payroll/internal/store"
)

func biweeklyPeriod() domain.PayPeriod {
	return domain.PayPeriod{
		Start:     time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		End:       time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC),
		PayDate:   time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC),
		Frequency: domain.Biweekly,
	}
}

func salariedEmployee(id string) domain.Employee {
	return domain.Employee{
		ID:           id,
		FirstName:    "Ada",
		LastName:     "Lovelace",
		PayFrequency: domain.Biweekly,
		HireDate:     time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		Salaried:     true,
		AnnualSalary: dec("75000"),
		Currency:     "USD",
		TaxState:     "TX",
		Deductions: []domain.Deduction{
			{ID: "401k", Name: "401(k)", Type: domain.PreTax, Percentage: dec("6"), Priority: 1, Active: true},
		},
		Withholding: domain.WithholdingElections{FilingStatus: domain.Single},
	}
}

func hourlyEmployee(id string) domain.Employee {
	return domain.Employee{
		ID:               id,
		FirstName:        "Grace",
		LastName:         "Hopper",
		PayFrequency:     domain.Biweekly,
		HireDate:         time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC),
		HourlyRate:       dec("20"),
		Currency:         "USD",
		OvertimeEligible: true,
		TaxState:         "TX",
		Withholding:      domain.WithholdingElections{FilingStatus: domain.Single},
	}
}

func newTestProcessor(t *testing.T, employees ...domain.Employee) (*Processor, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	for _, e := range employees {
		require.NoError(t, mem.PutEmployee(context.Background(), e))
	}
	return NewProcessor(mem, mem, mem), mem
}

func TestProcessRun_SalariedGrossToNet(t *testing.T) {
	p, _ := newTestProcessor(t, salariedEmployee("e1"))

	run, err := p.ProcessRun(context.Background(), biweeklyPeriod(), nil)
	require.NoError(t, err)
	require.Len(t, run.Records, 1)
	assert.Equal(t, domain.RunPendingApproval, run.Status)

	rec := run.Records[0]
	assert.Equal(t, domain.PaymentCalculated, rec.Status)
	assertDecEqual(t, dec("2884.62"), rec.GrossPay)
	assertDecEqual(t, dec("173.08"), rec.PreTaxDeductions)
	assertDecEqual(t, dec("2711.54"), rec.TaxableWages)
	assertDecEqual(t, dec("274.00"), rec.Taxes.FederalIncomeTax)
	assertDecEqual(t, dec("168.12"), rec.Taxes.SocialSecurity)
	assertDecEqual(t, dec("39.32"), rec.Taxes.Medicare)
	assertDecEqual(t, dec("481.44"), rec.Taxes.Total)
	assertDecEqual(t, dec("2230.10"), rec.NetPay)

	assertDecEqual(t, rec.GrossPay, run.Totals.GrossPay)
	assertDecEqual(t, rec.NetPay, run.Totals.NetPay)
	assert.Equal(t, 1, run.Totals.SucceededCount)
	assert.Zero(t, run.Totals.FailedCount)
}

func TestProcessRun_HourlyOvertime(t *testing.T) {
	p, mem := newTestProcessor(t, hourlyEmployee("e1"))
	ctx := context.Background()

	// 45 worked hours plus a day of PTO; only approved entries count.
	entries := []domain.TimeEntry{
		{ID: "t1", EmployeeID: "e1", Date: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), RegularHours: dec("25"), Approved: true},
		{ID: "t2", EmployeeID: "e1", Date: time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC), RegularHours: dec("20"), PTOHours: dec("8"), Approved: true},
		{ID: "t3", EmployeeID: "e1", Date: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), RegularHours: dec("12")},
	}
	for _, e := range entries {
		require.NoError(t, mem.PutEntry(ctx, e))
	}

	run, err := p.ProcessRun(ctx, biweeklyPeriod(), nil)
	require.NoError(t, err)
	require.Len(t, run.Records, 1)

	rec := run.Records[0]
	assertDecEqual(t, dec("40"), rec.RegularHours)
	assertDecEqual(t, dec("5"), rec.OvertimeHours)
	assertDecEqual(t, dec("8"), rec.PaidLeaveHours)
	assertDecEqual(t, dec("960.00"), rec.RegularPay) // (40 + 8 leave) * 20
	assertDecEqual(t, dec("150.00"), rec.OvertimePay)
	assertDecEqual(t, dec("1110.00"), rec.GrossPay)
	assertDecEqual(t, dec("970.28"), rec.NetPay)
}

func TestProcessRun_OvertimeIneligible(t *testing.T) {
	emp := hourlyEmployee("e1")
	emp.OvertimeEligible = false
	p, mem := newTestProcessor(t, emp)
	ctx := context.Background()

	require.NoError(t, mem.PutEntry(ctx, domain.TimeEntry{
		ID: "t1", EmployeeID: "e1",
		Date:         time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		RegularHours: dec("45"), Approved: true,
	}))

	run, err := p.ProcessRun(ctx, biweeklyPeriod(), nil)
	require.NoError(t, err)
	rec := run.Records[0]
	assertDecEqual(t, dec("45"), rec.RegularHours)
	assert.True(t, rec.OvertimeHours.IsZero())
	assertDecEqual(t, dec("900.00"), rec.GrossPay)
}

func TestProcessRun_BonusAddsToGross(t *testing.T) {
	p, _ := newTestProcessor(t, salariedEmployee("e1"))

	run, err := p.ProcessRun(context.Background(), biweeklyPeriod(),
		map[string]decimal.Decimal{"e1": dec("1000")})
	require.NoError(t, err)
	rec := run.Records[0]
	assertDecEqual(t, dec("1000.00"), rec.BonusPay)
	assertDecEqual(t, dec("3884.62"), rec.GrossPay)
}

func TestProcessRun_NoEmployees(t *testing.T) {
	p, _ := newTestProcessor(t)

	run, err := p.ProcessRun(context.Background(), biweeklyPeriod(), nil)
	require.NoError(t, err)
	assert.Equal(t, domain.RunFailed, run.Status)
	assert.Contains(t, run.Errors, "no employees to process")
	assert.Empty(t, run.Records)
}

func TestProcessRun_InvalidPeriod(t *testing.T) {
	p, _ := newTestProcessor(t, salariedEmployee("e1"))
	period := biweeklyPeriod()
	period.End = period.Start.AddDate(0, 0, -1)

	_, err := p.ProcessRun(context.Background(), period, nil)
	assert.Error(t, err)
}

// failingEmployeeStore lets invalid employees through so partial-failure
// semantics can be exercised; the memory store validates on write.
type failingEmployeeStore struct {
	*store.Memory
	employees []domain.Employee
}

func (s *failingEmployeeStore) ActiveEmployees(_ context.Context, _ time.Time) ([]domain.Employee, error) {
	return s.employees, nil
}

func TestProcessRun_PartialFailure(t *testing.T) {
	good := salariedEmployee("e1")
	bad := salariedEmployee("e2")
	bad.AnnualSalary = dec("-1") // fails employee validation inside the pipeline

	mem := store.NewMemory()
	p := NewProcessor(&failingEmployeeStore{Memory: mem, employees: []domain.Employee{good, bad}}, mem, mem)

	run, err := p.ProcessRun(context.Background(), biweeklyPeriod(), nil)
	require.NoError(t, err, "individual failures must not fail the call")
	require.Len(t, run.Records, 2)

	assert.Equal(t, domain.RunFailed, run.Status)
	assert.Contains(t, run.Errors, "1 of 2 payment records failed")
	assert.Equal(t, 1, run.Totals.SucceededCount)
	assert.Equal(t, 1, run.Totals.FailedCount)

	// Records come back ordered by employee ID regardless of completion order.
	assert.Equal(t, "e1", run.Records[0].EmployeeID)
	assert.Equal(t, "e2", run.Records[1].EmployeeID)
	assert.Equal(t, domain.PaymentCalculated, run.Records[0].Status)
	assert.Equal(t, domain.PaymentFailed, run.Records[1].Status)
	assert.NotEmpty(t, run.Records[1].Errors)

	// The failed record contributes nothing to the money totals.
	assertDecEqual(t, run.Records[0].GrossPay, run.Totals.GrossPay)
	assertDecEqual(t, run.Records[0].NetPay, run.Totals.NetPay)
}

func TestProcessRun_AllFailed(t *testing.T) {
	bad := salariedEmployee("e1")
	bad.AnnualSalary = dec("-1")

	mem := store.NewMemory()
	p := NewProcessor(&failingEmployeeStore{Memory: mem, employees: []domain.Employee{bad}}, mem, mem)

	run, err := p.ProcessRun(context.Background(), biweeklyPeriod(), nil)
	require.NoError(t, err)
	assert.Equal(t, domain.RunFailed, run.Status)
	assert.Contains(t, run.Errors, "all payment records failed")
}

func TestProcessRun_SocialSecurityUsesYTD(t *testing.T) {
	emp := salariedEmployee("e1")
	emp.Deductions = nil
	p, mem := newTestProcessor(t, emp)
	ctx := context.Background()

	// Past the 176100 wage base: no further social security withheld.
	require.NoError(t, mem.PutFigures(ctx, "e1", store.YTDFigures{
		GrossWages: dec("180000"),
	}))

	run, err := p.ProcessRun(ctx, biweeklyPeriod(), nil)
	require.NoError(t, err)
	assert.True(t, run.Records[0].Taxes.SocialSecurity.IsZero())
	assert.True(t, run.Records[0].Taxes.AdditionalMedicare.IsZero())
}

func TestProcessRun_DeterministicAcrossWorkerCounts(t *testing.T) {
	ctx := context.Background()
	employees := []domain.Employee{
		salariedEmployee("e1"), hourlyEmployee("e2"), salariedEmployee("e3"),
		hourlyEmployee("e4"), salariedEmployee("e5"),
	}

	runWith := func(workers int) *domain.PayrollRun {
		p, mem := newTestProcessor(t, employees...)
		for _, id := range []string{"e2", "e4"} {
			require.NoError(t, mem.PutEntry(ctx, domain.TimeEntry{
				ID: id + "-t", EmployeeID: id,
				Date:         time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
				RegularHours: dec("45"), Approved: true,
			}))
		}
		p.Workers = workers
		run, err := p.ProcessRun(ctx, biweeklyPeriod(), nil)
		require.NoError(t, err)
		return run
	}

	serial := runWith(1)
	parallel := runWith(4)

	require.Equal(t, len(serial.Records), len(parallel.Records))
	for i := range serial.Records {
		assert.Equal(t, serial.Records[i].EmployeeID, parallel.Records[i].EmployeeID)
		assertDecEqual(t, serial.Records[i].NetPay, parallel.Records[i].NetPay)
	}
	assertDecEqual(t, serial.Totals.NetPay, parallel.Totals.NetPay)
	assertDecEqual(t, serial.Totals.GrossPay, parallel.Totals.GrossPay)
}

func TestProcessRun_NegativeNetWarning(t *testing.T) {
	emp := hourlyEmployee("e1")
	emp.Deductions = []domain.Deduction{
		{ID: "garn", Name: "Garnishment", Type: domain.Garnishment, Amount: dec("500"), Active: true},
	}
	p, mem := newTestProcessor(t, emp)
	ctx := context.Background()

	require.NoError(t, mem.PutEntry(ctx, domain.TimeEntry{
		ID: "t1", EmployeeID: "e1",
		Date:         time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		RegularHours: dec("20"), Approved: true,
	}))

	run, err := p.ProcessRun(ctx, biweeklyPeriod(), nil)
	require.NoError(t, err)
	rec := run.Records[0]
	assert.True(t, rec.NetPay.IsNegative())
	assert.Equal(t, domain.PaymentCalculated, rec.Status, "negative net is a warning, not a failure")

	found := false
	for _, w := range run.Warnings {
		if w.Code == WarnNegativeNetPay {
			found = true
		}
	}
	assert.True(t, found, "expected a %s warning on the run", WarnNegativeNetPay)
}

func TestRunApprovalGate(t *testing.T) {
	p, _ := newTestProcessor(t, salariedEmployee("e1"))
	run, err := p.ProcessRun(context.Background(), biweeklyPeriod(), nil)
	require.NoError(t, err)
	require.Equal(t, domain.RunPendingApproval, run.Status)

	t.Run("approval requires an actor", func(t *testing.T) {
		err := run.Approve("", time.Now())
		assert.Error(t, err)
		assert.Equal(t, domain.RunPendingApproval, run.Status, "rejected approval must not mutate the run")
	})

	t.Run("approved run moves through processing to completed", func(t *testing.T) {
		require.NoError(t, run.Approve("controller@example.com", time.Now()))
		assert.Equal(t, domain.RunApproved, run.Status)
		assert.Equal(t, "controller@example.com", run.ApprovedBy)

		require.NoError(t, run.BeginProcessing())
		require.NoError(t, run.Complete())
		assert.Equal(t, domain.RunCompleted, run.Status)
		for _, rec := range run.Records {
			assert.Equal(t, domain.PaymentPaid, rec.Status)
		}
	})

	t.Run("completed run cannot be cancelled", func(t *testing.T) {
		assert.Error(t, run.Cancel("too late"))
	})
}
