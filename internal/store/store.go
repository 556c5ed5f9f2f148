// Package store defines the repository interfaces the payroll processor is
// given at construction time, plus the in-memory and SQLite implementations.
// The calculation core reads employees, time entries and year-to-date figures
// only through these interfaces; nothing in the engine touches process-wide
// state.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/paystream/payroll/internal/domain"
)

// ErrNotFound is returned for lookups of unknown entities.
var ErrNotFound = errors.New("not found")

// YTDFigures are an employee's year-to-date amounts before the current
// period, resolved up front so the calculation stays a pure function.
type YTDFigures struct {
	GrossWages decimal.Decimal            `json:"gross_wages"`
	Deductions map[string]decimal.Decimal `json:"deductions"` // keyed by deduction ID
}

// EmployeeStore is the employee/comp directory collaborator surface.
type EmployeeStore interface {
	Employee(ctx context.Context, id string) (domain.Employee, error)
	// ActiveEmployees returns employees payable for a period ending asOf,
	// ordered by ID.
	ActiveEmployees(ctx context.Context, asOf time.Time) ([]domain.Employee, error)
	PutEmployee(ctx context.Context, e domain.Employee) error
	// UpdateEmployee applies a validated patch and returns the result. A
	// rejected patch leaves the stored employee untouched.
	UpdateEmployee(ctx context.Context, id string, p domain.EmployeePatch) (domain.Employee, error)
}

// TimeEntryStore is the time tracking collaborator surface.
type TimeEntryStore interface {
	// ApprovedEntries returns approved entries for the employee dated within
	// [from, to], ordered by date.
	ApprovedEntries(ctx context.Context, employeeID string, from, to time.Time) ([]domain.TimeEntry, error)
	PutEntry(ctx context.Context, e domain.TimeEntry) error
}

// YTDStore resolves year-to-date figures per employee.
type YTDStore interface {
	Figures(ctx context.Context, employeeID string) (YTDFigures, error)
	PutFigures(ctx context.Context, employeeID string, f YTDFigures) error
}

// RunStore persists completed payroll runs for downstream consumers.
type RunStore interface {
	SaveRun(ctx context.Context, run *domain.PayrollRun) error
	Run(ctx context.Context, id string) (*domain.PayrollRun, error)
}
