package calculation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/paystream/payroll/internal/domain"
	"github.com/paystream/payroll/internal/store"
	"github.com/paystream/payroll/pkg/money"
)

// WarnNegativeNetPay flags a record whose deductions and taxes exceed gross.
const WarnNegativeNetPay = "negative_net_pay"

// Processor runs the per-employee gross-to-net pipeline and the per-run batch
// orchestration. Stores are injected; the processor holds no global state.
type Processor struct {
	Employees store.EmployeeStore
	Entries   store.TimeEntryStore
	YTD       store.YTDStore
	Taxes     *TaxEngine
	Logger    Logger
	// Workers bounds the per-employee calculation pool; <= 0 means one
	// worker per employee.
	Workers int
}

// NewProcessor wires a processor with the 2025 tax engine and a no-op logger.
func NewProcessor(employees store.EmployeeStore, entries store.TimeEntryStore, ytd store.YTDStore) *Processor {
	return &Processor{
		Employees: employees,
		Entries:   entries,
		YTD:       ytd,
		Taxes:     NewTaxEngine(),
		Logger:    NopLogger{},
	}
}

// SetLogger replaces the processor's logger; nil restores the no-op logger.
func (p *Processor) SetLogger(l Logger) {
	if l == nil {
		p.Logger = NopLogger{}
		return
	}
	p.Logger = l
}

// employeeInput is one employee's fully resolved calculation input. All
// store reads happen before the pure calculation begins.
type employeeInput struct {
	employee domain.Employee
	entries  []domain.TimeEntry
	ytd      store.YTDFigures
	bonus    decimal.Decimal
}

// ProcessRun resolves inputs for every active employee, calculates records in
// parallel, and aggregates totals behind a reduction barrier. A run with any
// hard failure finishes FAILED overall, but its completed records remain
// usable; a clean run finishes PENDING_APPROVAL awaiting a human actor.
func (p *Processor) ProcessRun(ctx context.Context, period domain.PayPeriod, bonuses map[string]decimal.Decimal) (*domain.PayrollRun, error) {
	if err := period.Validate(); err != nil {
		return nil, fmt.Errorf("process run: %w", err)
	}

	run := &domain.PayrollRun{
		ID:        uuid.NewString(),
		Period:    period,
		Status:    domain.RunDraft,
		CreatedAt: time.Now().UTC(),
	}

	employees, err := p.Employees.ActiveEmployees(ctx, period.End)
	if err != nil {
		return nil, fmt.Errorf("process run: resolving employees: %w", err)
	}
	if len(employees) == 0 {
		run.Status = domain.RunFailed
		run.Errors = append(run.Errors, "no employees to process")
		return run, nil
	}

	inputs := make([]employeeInput, 0, len(employees))
	for _, emp := range employees {
		entries, err := p.Entries.ApprovedEntries(ctx, emp.ID, period.Start, period.End)
		if err != nil {
			return nil, fmt.Errorf("process run: resolving time entries for %s: %w", emp.ID, err)
		}
		ytd, err := p.YTD.Figures(ctx, emp.ID)
		if err != nil {
			return nil, fmt.Errorf("process run: resolving ytd for %s: %w", emp.ID, err)
		}
		inputs = append(inputs, employeeInput{
			employee: emp,
			entries:  entries,
			ytd:      ytd,
			bonus:    bonuses[emp.ID],
		})
	}

	workers := p.Workers
	if workers <= 0 || workers > len(inputs) {
		workers = len(inputs)
	}

	jobs := make(chan employeeInput, len(inputs))
	results := make(chan domain.PaymentRecord, len(inputs))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for in := range jobs {
				results <- p.calculateEmployee(in, period)
			}
		}()
	}
	for _, in := range inputs {
		jobs <- in
	}
	close(jobs)

	// Reduction barrier: totals are aggregated only after every individual
	// calculation has completed.
	wg.Wait()
	close(results)

	records := make([]domain.PaymentRecord, 0, len(inputs))
	for rec := range results {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].EmployeeID < records[j].EmployeeID })

	run.Records = records
	p.aggregate(run)

	if run.Totals.FailedCount == len(records) {
		run.Status = domain.RunFailed
		run.Errors = append(run.Errors, "all payment records failed")
	} else if run.Totals.FailedCount > 0 {
		run.Status = domain.RunFailed
		run.Errors = append(run.Errors, fmt.Sprintf("%d of %d payment records failed", run.Totals.FailedCount, len(records)))
	} else {
		run.Status = domain.RunPendingApproval
	}

	p.Logger.Infof("payroll %s", run.Summary())
	return run, nil
}

// aggregate fills run totals and hoists record warnings. Failed records
// contribute nothing to the money totals.
func (p *Processor) aggregate(run *domain.PayrollRun) {
	t := domain.RunTotals{
		GrossPay:   decimal.Zero,
		Deductions: decimal.Zero,
		Taxes:      decimal.Zero,
		NetPay:     decimal.Zero,
	}
	for i := range run.Records {
		rec := &run.Records[i]
		t.EmployeeCount++
		run.Warnings = append(run.Warnings, rec.Warnings...)
		if rec.Failed() {
			t.FailedCount++
			for _, msg := range rec.Errors {
				run.Errors = append(run.Errors, fmt.Sprintf("employee %s: %s", rec.EmployeeID, msg))
			}
			continue
		}
		t.SucceededCount++
		t.GrossPay = t.GrossPay.Add(rec.GrossPay)
		t.Deductions = t.Deductions.Add(rec.PreTaxDeductions).Add(rec.PostTaxDeductions)
		t.Taxes = t.Taxes.Add(rec.Taxes.Total)
		t.NetPay = t.NetPay.Add(rec.NetPay)
	}
	run.Totals = t
}

// calculateEmployee is the gross-to-net pipeline for one employee. It never
// lets a failure escape its own boundary: any error is captured on the record
// and the record is marked failed, so the run continues with the rest.
func (p *Processor) calculateEmployee(in employeeInput, period domain.PayPeriod) domain.PaymentRecord {
	rec := domain.PaymentRecord{
		ID:          uuid.NewString(),
		EmployeeID:  in.employee.ID,
		PeriodStart: period.Start,
		PeriodEnd:   period.End,
		PayDate:     period.PayDate,
		Currency:    in.employee.Currency,
		Status:      domain.PaymentPending,
	}
	if err := p.fillRecord(&rec, in, period); err != nil {
		p.Logger.Warnf("employee %s failed: %v", in.employee.ID, err)
		rec.Status = domain.PaymentFailed
		rec.Errors = append(rec.Errors, err.Error())
		return rec
	}
	rec.Status = domain.PaymentCalculated
	return rec
}

func (p *Processor) fillRecord(rec *domain.PaymentRecord, in employeeInput, period domain.PayPeriod) error {
	emp := in.employee
	if err := emp.Validate(); err != nil {
		return err
	}
	periods := period.Frequency.PeriodsPerYear()

	if err := p.fillEarnings(rec, in, periods); err != nil {
		return err
	}
	rec.BonusPay = money.RoundToCents(in.bonus)
	rec.GrossPay = rec.RegularPay.Add(rec.OvertimePay).Add(rec.DoubleTimePay).Add(rec.BonusPay)

	// Pre-tax deductions reduce taxable wages, so they must be evaluated
	// before the tax engine runs.
	deds, err := EvaluateDeductions(emp.Deductions, rec.GrossPay, period.PayDate, in.ytd.Deductions)
	if err != nil {
		return err
	}
	rec.DeductionLines = deds.Lines
	rec.PreTaxDeductions = deds.PreTaxTotal
	rec.PostTaxDeductions = deds.PostTaxTotal
	rec.TaxableWages = rec.GrossPay.Sub(deds.PreTaxTotal)

	taxes, warnings := p.Taxes.Calculate(TaxInput{
		TaxableWages:   rec.TaxableWages,
		YTDWages:       in.ytd.GrossWages,
		PeriodsPerYear: periods,
		State:          emp.TaxState,
		LocalRate:      emp.LocalTaxRate,
		Elections:      emp.Withholding,
		Exempt:         emp.TaxExempt,
	})
	for i := range warnings {
		warnings[i].EmployeeID = emp.ID
	}
	rec.Taxes = taxes
	rec.Warnings = append(rec.Warnings, warnings...)

	rec.NetPay = rec.TaxableWages.Sub(taxes.Total).Sub(deds.PostTaxTotal)
	if rec.NetPay.IsNegative() {
		rec.Warnings = append(rec.Warnings, domain.Warning{
			Code:       WarnNegativeNetPay,
			EmployeeID: emp.ID,
			Message:    fmt.Sprintf("net pay %s is negative", rec.NetPay.StringFixed(2)),
		})
	}
	return nil
}

// fillEarnings computes the hour buckets and earnings components. Salaried
// employees draw a fixed fraction of annual salary with zero computed hours;
// hourly employees run their approved time entries through the overtime rule.
func (p *Processor) fillEarnings(rec *domain.PaymentRecord, in employeeInput, periods int) error {
	emp := in.employee
	if emp.Salaried {
		if periods <= 0 {
			return fmt.Errorf("employee %s: invalid pay frequency", emp.ID)
		}
		rec.RegularPay = money.RoundToCents(emp.AnnualSalary.Div(decimal.NewFromInt(int64(periods))))
		rec.OvertimePay = decimal.Zero
		rec.DoubleTimePay = decimal.Zero
		return nil
	}

	worked := decimal.Zero
	preOT := decimal.Zero
	preDT := decimal.Zero
	leave := decimal.Zero
	for _, e := range in.entries {
		worked = worked.Add(e.RegularHours)
		preOT = preOT.Add(e.OvertimeHours)
		preDT = preDT.Add(e.DoubleTimeHours)
		leave = leave.Add(e.PaidLeaveHours())
	}

	rule := DefaultOvertimeRule()
	if emp.OvertimeRule != nil {
		rule = *emp.OvertimeRule
		rec.Warnings = append(rec.Warnings, CheckOvertimeRule(emp.ID, rule)...)
	}

	var buckets HourBuckets
	if emp.OvertimeEligible {
		buckets = SplitHours(worked, rule)
	} else {
		buckets = HourBuckets{Regular: worked, Overtime: decimal.Zero, DoubleTime: decimal.Zero}
	}
	buckets.Overtime = buckets.Overtime.Add(preOT)
	buckets.DoubleTime = buckets.DoubleTime.Add(preDT)

	rec.RegularHours = buckets.Regular
	rec.OvertimeHours = buckets.Overtime
	rec.DoubleTimeHours = buckets.DoubleTime
	rec.PaidLeaveHours = leave

	rate := emp.HourlyRate
	// Paid leave rides on the regular bucket at the straight rate.
	rec.RegularPay = money.RoundToCents(buckets.Regular.Add(leave).Mul(rate))
	rec.OvertimePay = money.RoundToCents(buckets.Overtime.Mul(rate).Mul(rule.OvertimeMultiplier))
	rec.DoubleTimePay = money.RoundToCents(buckets.DoubleTime.Mul(rate).Mul(rule.DoubleTimeMultiplier))
	return nil
}
