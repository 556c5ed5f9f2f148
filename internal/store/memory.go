package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/paystream/payroll/internal/domain"
)

// Memory is the in-memory store used by tests and single-run CLI invocations
// where the inputs arrive fully materialized from a config file.
type Memory struct {
	mu        sync.RWMutex
	employees map[string]domain.Employee
	entries   map[string][]domain.TimeEntry // keyed by employee ID
	ytd       map[string]YTDFigures
	runs      map[string]*domain.PayrollRun
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		employees: make(map[string]domain.Employee),
		entries:   make(map[string][]domain.TimeEntry),
		ytd:       make(map[string]YTDFigures),
		runs:      make(map[string]*domain.PayrollRun),
	}
}

// Employee returns one employee by ID.
func (m *Memory) Employee(_ context.Context, id string) (domain.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.employees[id]
	if !ok {
		return domain.Employee{}, ErrNotFound
	}
	return e, nil
}

// ActiveEmployees returns employees payable as of the given date, ordered by
// ID for deterministic run output.
func (m *Memory) ActiveEmployees(_ context.Context, asOf time.Time) ([]domain.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Employee
	for _, e := range m.employees {
		if e.ActiveOn(asOf) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// PutEmployee inserts or replaces an employee.
func (m *Memory) PutEmployee(_ context.Context, e domain.Employee) error {
	if err := e.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[e.ID] = e
	return nil
}

// UpdateEmployee applies a typed patch. Validation failure leaves the stored
// record untouched.
func (m *Memory) UpdateEmployee(_ context.Context, id string, p domain.EmployeePatch) (domain.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.employees[id]
	if !ok {
		return domain.Employee{}, ErrNotFound
	}
	patched, err := p.Apply(e)
	if err != nil {
		return domain.Employee{}, err
	}
	m.employees[id] = patched
	return patched, nil
}

// ApprovedEntries returns approved entries in [from, to], ordered by date.
func (m *Memory) ApprovedEntries(_ context.Context, employeeID string, from, to time.Time) ([]domain.TimeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.TimeEntry
	for _, e := range m.entries[employeeID] {
		if !e.Approved {
			continue
		}
		if e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// PutEntry inserts a time entry, replacing any existing entry with the same
// ID so a re-put never double-counts hours.
func (m *Memory) PutEntry(_ context.Context, e domain.TimeEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.entries[e.EmployeeID] {
		if existing.ID == e.ID {
			m.entries[e.EmployeeID][i] = e
			return nil
		}
	}
	m.entries[e.EmployeeID] = append(m.entries[e.EmployeeID], e)
	return nil
}

// Figures returns the employee's year-to-date figures; unknown employees have
// zero YTD.
func (m *Memory) Figures(_ context.Context, employeeID string) (YTDFigures, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.ytd[employeeID]
	if !ok {
		return YTDFigures{GrossWages: decimal.Zero, Deductions: map[string]decimal.Decimal{}}, nil
	}
	return f, nil
}

// PutFigures stores year-to-date figures for an employee.
func (m *Memory) PutFigures(_ context.Context, employeeID string, f YTDFigures) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ytd[employeeID] = f
	return nil
}

// SaveRun stores a payroll run by ID.
func (m *Memory) SaveRun(_ context.Context, run *domain.PayrollRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = run
	return nil
}

// Run returns a stored payroll run.
func (m *Memory) Run(_ context.Context, id string) (*domain.PayrollRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r, nil
}
