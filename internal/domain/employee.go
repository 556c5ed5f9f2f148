package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PayFrequency is how often an employee is paid.
type PayFrequency string

const (
	Weekly      PayFrequency = "weekly"
	Biweekly    PayFrequency = "biweekly"
	Semimonthly PayFrequency = "semimonthly"
	Monthly     PayFrequency = "monthly"
	Quarterly   PayFrequency = "quarterly"
	Annual      PayFrequency = "annual"
)

// PeriodsPerYear returns the number of pay periods in a year for the frequency.
func (f PayFrequency) PeriodsPerYear() int {
	switch f {
	case Weekly:
		return 52
	case Biweekly:
		return 26
	case Semimonthly:
		return 24
	case Monthly:
		return 12
	case Quarterly:
		return 4
	case Annual:
		return 1
	default:
		return 0
	}
}

// IsValid reports whether the frequency is one of the known values.
func (f PayFrequency) IsValid() bool { return f.PeriodsPerYear() > 0 }

// EmploymentType classifies the employment relationship.
type EmploymentType string

const (
	FullTime   EmploymentType = "full_time"
	PartTime   EmploymentType = "part_time"
	Contractor EmploymentType = "contractor"
	Seasonal   EmploymentType = "seasonal"
)

// FilingStatus is the federal tax filing status used for withholding.
type FilingStatus string

const (
	Single            FilingStatus = "single"
	MarriedJointly    FilingStatus = "married_jointly"
	MarriedSeparately FilingStatus = "married_separately"
	HeadOfHousehold   FilingStatus = "head_of_household"
)

// IsValid reports whether the filing status is a known value.
func (s FilingStatus) IsValid() bool {
	switch s {
	case Single, MarriedJointly, MarriedSeparately, HeadOfHousehold:
		return true
	}
	return false
}

// WithholdingElections are the employee's W-4 style federal elections.
type WithholdingElections struct {
	FilingStatus     FilingStatus    `yaml:"filing_status" json:"filing_status"`
	DependentsCredit decimal.Decimal `yaml:"dependents_credit" json:"dependents_credit"` // annual credit amount
	ExtraWithholding decimal.Decimal `yaml:"extra_withholding" json:"extra_withholding"` // per period
	OtherIncome      decimal.Decimal `yaml:"other_income" json:"other_income"`           // annual
	Deductions       decimal.Decimal `yaml:"deductions" json:"deductions"`               // annual, beyond standard
	Exempt           bool            `yaml:"exempt" json:"exempt"`
}

// DeductionType classifies a payroll deduction. Pre-tax and benefit deductions
// reduce taxable wages; the others come out of net pay.
type DeductionType string

const (
	PreTax      DeductionType = "pre_tax"
	PostTax     DeductionType = "post_tax"
	Benefit     DeductionType = "benefit"
	Loan        DeductionType = "loan"
	Garnishment DeductionType = "garnishment"
)

// ReducesTaxableWages reports whether the deduction comes out before taxes.
func (t DeductionType) ReducesTaxableWages() bool {
	return t == PreTax || t == Benefit
}

// IsValid reports whether the deduction type is a known value.
func (t DeductionType) IsValid() bool {
	switch t {
	case PreTax, PostTax, Benefit, Loan, Garnishment:
		return true
	}
	return false
}

// Deduction is one configured payroll deduction. Either Percentage (of gross,
// 0-100) or Amount applies; Percentage wins when both are set.
type Deduction struct {
	ID            string           `yaml:"id" json:"id"`
	Name          string           `yaml:"name" json:"name"`
	Type          DeductionType    `yaml:"type" json:"type"`
	Amount        decimal.Decimal  `yaml:"amount" json:"amount"`
	Percentage    decimal.Decimal  `yaml:"percentage" json:"percentage"`
	PerPeriodMax  *decimal.Decimal `yaml:"per_period_max,omitempty" json:"per_period_max,omitempty"`
	AnnualMax     *decimal.Decimal `yaml:"annual_max,omitempty" json:"annual_max,omitempty"`
	Priority      int              `yaml:"priority" json:"priority"` // lower runs first
	Active        bool             `yaml:"active" json:"active"`
	EffectiveFrom time.Time        `yaml:"effective_from" json:"effective_from"`
	EffectiveTo   *time.Time       `yaml:"effective_to,omitempty" json:"effective_to,omitempty"`
}

// InEffect reports whether the deduction applies on the given pay date.
func (d Deduction) InEffect(payDate time.Time) bool {
	if !d.Active {
		return false
	}
	if !d.EffectiveFrom.IsZero() && payDate.Before(d.EffectiveFrom) {
		return false
	}
	if d.EffectiveTo != nil && payDate.After(*d.EffectiveTo) {
		return false
	}
	return true
}

// Validate checks the deduction's configuration invariants.
func (d Deduction) Validate() error {
	if !d.Type.IsValid() {
		return fmt.Errorf("deduction %s: unknown type %q", d.ID, d.Type)
	}
	if d.Percentage.IsNegative() || d.Percentage.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("deduction %s: percentage must be between 0 and 100, got %s", d.ID, d.Percentage)
	}
	if d.Amount.IsNegative() {
		return fmt.Errorf("deduction %s: amount cannot be negative", d.ID)
	}
	return nil
}

// OvertimeRule controls how worked hours split into pay buckets.
type OvertimeRule struct {
	WeeklyThreshold      decimal.Decimal  `yaml:"weekly_threshold" json:"weekly_threshold"`
	OvertimeMultiplier   decimal.Decimal  `yaml:"overtime_multiplier" json:"overtime_multiplier"`
	DoubleTimeAfter      *decimal.Decimal `yaml:"double_time_after,omitempty" json:"double_time_after,omitempty"` // hours above threshold before double time
	DoubleTimeMultiplier decimal.Decimal  `yaml:"double_time_multiplier" json:"double_time_multiplier"`
}

// Validate checks the rule's invariants.
func (r OvertimeRule) Validate() error {
	one := decimal.NewFromInt(1)
	if r.OvertimeMultiplier.LessThan(one) {
		return fmt.Errorf("overtime multiplier must be >= 1.0, got %s", r.OvertimeMultiplier)
	}
	if r.DoubleTimeAfter != nil && r.DoubleTimeMultiplier.LessThan(one) {
		return fmt.Errorf("double time multiplier must be >= 1.0, got %s", r.DoubleTimeMultiplier)
	}
	if r.WeeklyThreshold.IsNegative() {
		return fmt.Errorf("weekly threshold cannot be negative, got %s", r.WeeklyThreshold)
	}
	return nil
}

// Employee is the compensation configuration supplied by the employee/comp
// directory collaborator.
type Employee struct {
	ID               string               `yaml:"id" json:"id"`
	FirstName        string               `yaml:"first_name" json:"first_name"`
	LastName         string               `yaml:"last_name" json:"last_name"`
	EmploymentType   EmploymentType       `yaml:"employment_type" json:"employment_type"`
	HireDate         time.Time            `yaml:"hire_date" json:"hire_date"`
	TerminationDate  *time.Time           `yaml:"termination_date,omitempty" json:"termination_date,omitempty"`
	PayFrequency     PayFrequency         `yaml:"pay_frequency" json:"pay_frequency"`
	Salaried         bool                 `yaml:"salaried" json:"salaried"`
	AnnualSalary     decimal.Decimal      `yaml:"annual_salary" json:"annual_salary"`
	HourlyRate       decimal.Decimal      `yaml:"hourly_rate" json:"hourly_rate"`
	Currency         string               `yaml:"currency" json:"currency"`
	OvertimeEligible bool                 `yaml:"overtime_eligible" json:"overtime_eligible"`
	OvertimeRule     *OvertimeRule        `yaml:"overtime_rule,omitempty" json:"overtime_rule,omitempty"`
	Deductions       []Deduction          `yaml:"deductions" json:"deductions"`
	Withholding      WithholdingElections `yaml:"withholding" json:"withholding"`
	TaxState         string               `yaml:"tax_state" json:"tax_state"`
	LocalTaxRate     decimal.Decimal      `yaml:"local_tax_rate" json:"local_tax_rate"` // flat fraction, e.g. 0.01
	TaxExempt        bool                 `yaml:"tax_exempt" json:"tax_exempt"`
	BankAccounts     []BankAccount        `yaml:"bank_accounts" json:"bank_accounts"`
	Allocations      []DepositAllocation  `yaml:"allocations" json:"allocations"`
}

// FullName returns the display name used on payment records and ACH entries.
func (e *Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

// ActiveOn reports whether the employee is payable for a period ending at the
// given date. Terminated employees stop accruing pay periods after their
// termination date.
func (e *Employee) ActiveOn(asOf time.Time) bool {
	if e.HireDate.After(asOf) {
		return false
	}
	if e.TerminationDate != nil && e.TerminationDate.Before(asOf) {
		return false
	}
	return true
}

// BaseCompensation returns the employee's configured base pay figure: annual
// salary when salaried, hourly rate otherwise.
func (e *Employee) BaseCompensation() decimal.Decimal {
	if e.Salaried {
		return e.AnnualSalary
	}
	return e.HourlyRate
}

// Validate checks the employee's configuration invariants.
func (e *Employee) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("employee id is required")
	}
	if !e.PayFrequency.IsValid() {
		return fmt.Errorf("employee %s: unknown pay frequency %q", e.ID, e.PayFrequency)
	}
	if e.BaseCompensation().IsNegative() {
		return fmt.Errorf("employee %s: base compensation cannot be negative", e.ID)
	}
	if e.Withholding.FilingStatus != "" && !e.Withholding.FilingStatus.IsValid() {
		return fmt.Errorf("employee %s: unknown filing status %q", e.ID, e.Withholding.FilingStatus)
	}
	if e.OvertimeRule != nil {
		if err := e.OvertimeRule.Validate(); err != nil {
			return fmt.Errorf("employee %s: %w", e.ID, err)
		}
	}
	for _, d := range e.Deductions {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("employee %s: %w", e.ID, err)
		}
	}
	return nil
}

// TimeEntry is one day's hours from the time tracking collaborator. Only
// approved entries dated within the pay period are consumed.
type TimeEntry struct {
	ID              string          `yaml:"id" json:"id"`
	EmployeeID      string          `yaml:"employee_id" json:"employee_id"`
	Date            time.Time       `yaml:"date" json:"date"`
	RegularHours    decimal.Decimal `yaml:"regular_hours" json:"regular_hours"`
	OvertimeHours   decimal.Decimal `yaml:"overtime_hours" json:"overtime_hours"`
	DoubleTimeHours decimal.Decimal `yaml:"double_time_hours" json:"double_time_hours"`
	PTOHours        decimal.Decimal `yaml:"pto_hours" json:"pto_hours"`
	SickHours       decimal.Decimal `yaml:"sick_hours" json:"sick_hours"`
	HolidayHours    decimal.Decimal `yaml:"holiday_hours" json:"holiday_hours"`
	Approved        bool            `yaml:"approved" json:"approved"`
}

// PaidLeaveHours returns hours paid at the straight rate without being worked.
func (t TimeEntry) PaidLeaveHours() decimal.Decimal {
	return t.PTOHours.Add(t.SickHours).Add(t.HolidayHours)
}
