package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// EmployeePatch is a typed partial update for an employee record. Nil fields
// are left untouched; set fields are validated before anything is applied, so
// a rejected patch never half-mutates the employee.
type EmployeePatch struct {
	FirstName       *string             `json:"first_name,omitempty"`
	LastName        *string             `json:"last_name,omitempty"`
	EmploymentType  *EmploymentType     `json:"employment_type,omitempty"`
	TerminationDate *time.Time          `json:"termination_date,omitempty"`
	PayFrequency    *PayFrequency       `json:"pay_frequency,omitempty"`
	AnnualSalary    *decimal.Decimal    `json:"annual_salary,omitempty"`
	HourlyRate      *decimal.Decimal    `json:"hourly_rate,omitempty"`
	TaxState        *string             `json:"tax_state,omitempty"`
	TaxExempt       *bool               `json:"tax_exempt,omitempty"`
	Deductions      []Deduction         `json:"deductions,omitempty"`
	Allocations     []DepositAllocation `json:"allocations,omitempty"`
}

// Apply returns a copy of the employee with the patch applied. The original
// is not modified on validation failure.
func (p EmployeePatch) Apply(e Employee) (Employee, error) {
	if p.PayFrequency != nil && !p.PayFrequency.IsValid() {
		return e, fmt.Errorf("patch: unknown pay frequency %q", *p.PayFrequency)
	}
	if p.AnnualSalary != nil && p.AnnualSalary.IsNegative() {
		return e, fmt.Errorf("patch: annual salary cannot be negative")
	}
	if p.HourlyRate != nil && p.HourlyRate.IsNegative() {
		return e, fmt.Errorf("patch: hourly rate cannot be negative")
	}
	for _, d := range p.Deductions {
		if err := d.Validate(); err != nil {
			return e, fmt.Errorf("patch: %w", err)
		}
	}

	out := e
	if p.FirstName != nil {
		out.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		out.LastName = *p.LastName
	}
	if p.EmploymentType != nil {
		out.EmploymentType = *p.EmploymentType
	}
	if p.TerminationDate != nil {
		t := *p.TerminationDate
		out.TerminationDate = &t
	}
	if p.PayFrequency != nil {
		out.PayFrequency = *p.PayFrequency
	}
	if p.AnnualSalary != nil {
		out.AnnualSalary = *p.AnnualSalary
	}
	if p.HourlyRate != nil {
		out.HourlyRate = *p.HourlyRate
	}
	if p.TaxState != nil {
		out.TaxState = *p.TaxState
	}
	if p.TaxExempt != nil {
		out.TaxExempt = *p.TaxExempt
	}
	if p.Deductions != nil {
		out.Deductions = p.Deductions
	}
	if p.Allocations != nil {
		out.Allocations = p.Allocations
	}
	return out, nil
}
