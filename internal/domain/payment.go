package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Warning is a non-fatal condition surfaced to the human approver alongside a
// run or allocation result.
type Warning struct {
	Code       string `json:"code"`
	EmployeeID string `json:"employee_id,omitempty"`
	Message    string `json:"message"`
}

func (w Warning) String() string {
	if w.EmployeeID != "" {
		return fmt.Sprintf("[%s] %s: %s", w.Code, w.EmployeeID, w.Message)
	}
	return fmt.Sprintf("[%s] %s", w.Code, w.Message)
}

// TaxWithholding is the per-period withholding result. It is derived by the
// tax engine and never persisted independently of a PaymentRecord.
type TaxWithholding struct {
	FederalIncomeTax   decimal.Decimal `json:"federal_income_tax"`
	StateIncomeTax     decimal.Decimal `json:"state_income_tax"`
	LocalTax           decimal.Decimal `json:"local_tax"`
	SocialSecurity     decimal.Decimal `json:"social_security"`
	Medicare           decimal.Decimal `json:"medicare"`
	AdditionalMedicare decimal.Decimal `json:"additional_medicare"`
	StateDisability    decimal.Decimal `json:"state_disability"`
	Total              decimal.Decimal `json:"total"`
}

// Sum recomputes Total from the component taxes.
func (t *TaxWithholding) Sum() decimal.Decimal {
	return t.FederalIncomeTax.
		Add(t.StateIncomeTax).
		Add(t.LocalTax).
		Add(t.SocialSecurity).
		Add(t.Medicare).
		Add(t.AdditionalMedicare).
		Add(t.StateDisability)
}

// DeductionLine is one evaluated deduction on a payment record, with the
// employee's year-to-date amount after this period is applied.
type DeductionLine struct {
	DeductionID string          `json:"deduction_id"`
	Name        string          `json:"name"`
	Type        DeductionType   `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	YTDAfter    decimal.Decimal `json:"ytd_after"`
}

// PaymentStatus is the lifecycle state of a single payment record.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentCalculated PaymentStatus = "calculated"
	PaymentFailed     PaymentStatus = "failed"
	PaymentPaid       PaymentStatus = "paid"
)

// PaymentRecord is one employee's result for one pay period. Records are
// created only by the payroll processor and become immutable once their run
// is approved.
type PaymentRecord struct {
	ID          string    `json:"id"`
	EmployeeID  string    `json:"employee_id"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	PayDate     time.Time `json:"pay_date"`

	RegularHours    decimal.Decimal `json:"regular_hours"`
	OvertimeHours   decimal.Decimal `json:"overtime_hours"`
	DoubleTimeHours decimal.Decimal `json:"double_time_hours"`
	PaidLeaveHours  decimal.Decimal `json:"paid_leave_hours"`

	RegularPay    decimal.Decimal `json:"regular_pay"`
	OvertimePay   decimal.Decimal `json:"overtime_pay"`
	DoubleTimePay decimal.Decimal `json:"double_time_pay"`
	BonusPay      decimal.Decimal `json:"bonus_pay"`
	GrossPay      decimal.Decimal `json:"gross_pay"`

	DeductionLines    []DeductionLine `json:"deduction_lines"`
	PreTaxDeductions  decimal.Decimal `json:"pre_tax_deductions"`
	PostTaxDeductions decimal.Decimal `json:"post_tax_deductions"`
	TaxableWages      decimal.Decimal `json:"taxable_wages"`
	Taxes             TaxWithholding  `json:"taxes"`
	NetPay            decimal.Decimal `json:"net_pay"`

	Currency string        `json:"currency"`
	Status   PaymentStatus `json:"status"`
	Errors   []string      `json:"errors,omitempty"`
	Warnings []Warning     `json:"warnings,omitempty"`
}

// Failed reports whether the record is a hard failure.
func (r *PaymentRecord) Failed() bool { return r.Status == PaymentFailed }

// PayPeriod is the date window a payroll run covers.
type PayPeriod struct {
	Start     time.Time    `yaml:"start" json:"start"`
	End       time.Time    `yaml:"end" json:"end"`
	PayDate   time.Time    `yaml:"pay_date" json:"pay_date"`
	Frequency PayFrequency `yaml:"frequency" json:"frequency"`
}

// Validate checks the period's bounds.
func (p PayPeriod) Validate() error {
	if p.End.Before(p.Start) {
		return fmt.Errorf("pay period end %s before start %s", p.End.Format("2006-01-02"), p.Start.Format("2006-01-02"))
	}
	if !p.Frequency.IsValid() {
		return fmt.Errorf("unknown pay frequency %q", p.Frequency)
	}
	return nil
}

// Contains reports whether a date falls inside the period, inclusive.
func (p PayPeriod) Contains(d time.Time) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

// RunStatus is the payroll run state machine.
type RunStatus string

const (
	RunDraft           RunStatus = "draft"
	RunPendingApproval RunStatus = "pending_approval"
	RunApproved        RunStatus = "approved"
	RunProcessing      RunStatus = "processing"
	RunCompleted       RunStatus = "completed"
	RunFailed          RunStatus = "failed"
	RunCancelled       RunStatus = "cancelled"
)

// runTransitions enumerates the legal forward edges. Failed and cancelled are
// terminal off-ramps reachable from any non-terminal state.
var runTransitions = map[RunStatus][]RunStatus{
	RunDraft:           {RunPendingApproval, RunFailed, RunCancelled},
	RunPendingApproval: {RunApproved, RunFailed, RunCancelled},
	RunApproved:        {RunProcessing, RunFailed, RunCancelled},
	RunProcessing:      {RunCompleted, RunFailed},
}

// CanTransitionTo reports whether the state machine permits the move.
func (s RunStatus) CanTransitionTo(next RunStatus) bool {
	for _, t := range runTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s RunStatus) Terminal() bool {
	return s == RunCompleted || s == RunFailed || s == RunCancelled
}

// RunTotals aggregates the non-failed records of a run.
type RunTotals struct {
	GrossPay        decimal.Decimal `json:"gross_pay"`
	Deductions      decimal.Decimal `json:"deductions"`
	Taxes           decimal.Decimal `json:"taxes"`
	NetPay          decimal.Decimal `json:"net_pay"`
	EmployeeCount   int             `json:"employee_count"`
	SucceededCount  int             `json:"succeeded_count"`
	FailedCount     int             `json:"failed_count"`
}

// PayrollRun is one batch of payment records. The processor owns it
// exclusively until approval; afterwards it is read-only.
type PayrollRun struct {
	ID         string          `json:"id"`
	Period     PayPeriod       `json:"period"`
	Records    []PaymentRecord `json:"records"`
	Totals     RunTotals       `json:"totals"`
	Status     RunStatus       `json:"status"`
	ApprovedBy string          `json:"approved_by,omitempty"`
	ApprovedAt *time.Time      `json:"approved_at,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	Errors     []string        `json:"errors,omitempty"`
	Warnings   []Warning       `json:"warnings,omitempty"`
}

// transition moves the run to next or fails without mutating anything.
func (r *PayrollRun) transition(next RunStatus) error {
	if !r.Status.CanTransitionTo(next) {
		return fmt.Errorf("invalid run transition %s -> %s", r.Status, next)
	}
	r.Status = next
	return nil
}

// Approve is the one-way approval gate. It requires an authorized actor and a
// run currently pending approval; on rejection no state is mutated.
func (r *PayrollRun) Approve(actor string, at time.Time) error {
	if actor == "" {
		return fmt.Errorf("approval requires an authorized actor")
	}
	if r.Status != RunPendingApproval {
		return fmt.Errorf("cannot approve run in status %s, must be %s", r.Status, RunPendingApproval)
	}
	r.Status = RunApproved
	r.ApprovedBy = actor
	r.ApprovedAt = &at
	return nil
}

// BeginProcessing marks disbursement as started.
func (r *PayrollRun) BeginProcessing() error { return r.transition(RunProcessing) }

// Complete marks disbursement as finished and flips records to paid.
func (r *PayrollRun) Complete() error {
	if err := r.transition(RunCompleted); err != nil {
		return err
	}
	for i := range r.Records {
		if !r.Records[i].Failed() {
			r.Records[i].Status = PaymentPaid
		}
	}
	return nil
}

// Cancel abandons the run before completion.
func (r *PayrollRun) Cancel(reason string) error {
	if r.Status.Terminal() {
		return fmt.Errorf("cannot cancel run in terminal status %s", r.Status)
	}
	r.Status = RunCancelled
	if reason != "" {
		r.Errors = append(r.Errors, "cancelled: "+reason)
	}
	return nil
}

// Summary is the run outcome a caller always receives: succeeded and failed
// counts plus every warning, never a bare success boolean.
func (r *PayrollRun) Summary() string {
	return fmt.Sprintf("run %s: %s, %d succeeded, %d failed, %d warnings",
		r.ID, r.Status, r.Totals.SucceededCount, r.Totals.FailedCount, len(r.Warnings))
}
