// Package config parses and validates the YAML run-input files that carry
// everything the engine needs: company metadata, the pay period, employee
// configuration, approved time entries and year-to-date figures.
package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/paystream/payroll/internal/banking"
	"github.com/paystream/payroll/internal/domain"
)

// YTDInput carries one employee's year-to-date figures.
type YTDInput struct {
	GrossWages decimal.Decimal            `yaml:"gross_wages"`
	Deductions map[string]decimal.Decimal `yaml:"deductions"`
}

// TaxOverrides optionally adjusts the compiled-in tax tables.
type TaxOverrides struct {
	SSWageBase       decimal.Decimal            `yaml:"ss_wage_base"`
	SSRate           decimal.Decimal            `yaml:"ss_rate"`
	MedicareRate     decimal.Decimal            `yaml:"medicare_rate"`
	AdditionalRate   decimal.Decimal            `yaml:"additional_medicare_rate"`
	FlatStateRates   map[string]decimal.Decimal `yaml:"flat_state_rates"`
	DefaultStateRate decimal.Decimal            `yaml:"default_state_rate"`
}

// RunInput is the complete input for one payroll run.
type RunInput struct {
	Company     domain.CompanyInfo         `yaml:"company"`
	Period      domain.PayPeriod           `yaml:"period"`
	Employees   []domain.Employee          `yaml:"employees"`
	TimeEntries []domain.TimeEntry         `yaml:"time_entries"`
	Bonuses     map[string]decimal.Decimal `yaml:"bonuses"`
	YTD         map[string]YTDInput        `yaml:"ytd"`
	Taxes       *TaxOverrides              `yaml:"taxes,omitempty"`
}

// InputParser loads and validates run-input files.
type InputParser struct{}

// NewInputParser creates a new input parser.
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadFromFile loads a run input from a YAML file and validates it.
func (ip *InputParser) LoadFromFile(filename string) (*RunInput, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	var input RunInput
	if err := yaml.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := ip.ValidateInput(&input); err != nil {
		return nil, fmt.Errorf("input validation failed: %w", err)
	}
	return &input, nil
}

// ValidateInput checks the run input against the engine's invariants. Bank
// account validation happens here, at registration time, so a bad routing or
// account number blocks the run before any money movement is attempted.
func (ip *InputParser) ValidateInput(input *RunInput) error {
	if err := input.Period.Validate(); err != nil {
		return err
	}
	if len(input.Employees) == 0 {
		return fmt.Errorf("no employees provided")
	}
	if input.Company.ODFIRouting != "" {
		if err := banking.ValidateRoutingNumber(input.Company.ODFIRouting); err != nil {
			return fmt.Errorf("company odfi routing: %w", err)
		}
	}

	seen := make(map[string]bool, len(input.Employees))
	for i := range input.Employees {
		e := &input.Employees[i]
		if err := ip.validateEmployee(e); err != nil {
			return err
		}
		if seen[e.ID] {
			return fmt.Errorf("duplicate employee id %s", e.ID)
		}
		seen[e.ID] = true
	}

	for _, t := range input.TimeEntries {
		if !seen[t.EmployeeID] {
			return fmt.Errorf("time entry %s references unknown employee %s", t.ID, t.EmployeeID)
		}
	}
	for id := range input.Bonuses {
		if !seen[id] {
			return fmt.Errorf("bonus references unknown employee %s", id)
		}
	}
	for id := range input.YTD {
		if !seen[id] {
			return fmt.Errorf("ytd figures reference unknown employee %s", id)
		}
	}
	return nil
}

func (ip *InputParser) validateEmployee(e *domain.Employee) error {
	if err := e.Validate(); err != nil {
		return err
	}

	accounts := make(map[string]bool, len(e.BankAccounts))
	for _, a := range e.BankAccounts {
		if err := banking.ValidateBankAccount(a); err != nil {
			return fmt.Errorf("employee %s: %w", e.ID, err)
		}
		accounts[a.ID] = true
	}

	remainders := 0
	for _, alloc := range e.Allocations {
		if !accounts[alloc.BankAccountID] {
			return fmt.Errorf("employee %s: allocation references unknown bank account %s", e.ID, alloc.BankAccountID)
		}
		switch alloc.Type {
		case domain.AllocatePercentage:
			if alloc.Amount.IsNegative() || alloc.Amount.GreaterThan(decimal.NewFromInt(100)) {
				return fmt.Errorf("employee %s: allocation percentage must be between 0 and 100, got %s", e.ID, alloc.Amount)
			}
		case domain.AllocateFixed:
			if alloc.Amount.IsNegative() {
				return fmt.Errorf("employee %s: allocation amount cannot be negative", e.ID)
			}
		case domain.AllocateRemainder:
			if alloc.Active {
				remainders++
			}
		default:
			return fmt.Errorf("employee %s: unknown allocation type %q", e.ID, alloc.Type)
		}
	}
	if remainders > 1 {
		return fmt.Errorf("employee %s: at most one remainder allocation is allowed", e.ID)
	}
	return nil
}
