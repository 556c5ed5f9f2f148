package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/paystream/payroll/internal/domain"
)

// Sqlite is the durable store handed to the processor when runs must survive
// the process. Entities are stored as JSON documents with the columns needed
// for filtering pulled out; the calculation core never sees SQL.
type Sqlite struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS employees (
	id               TEXT PRIMARY KEY,
	hire_date        TEXT NOT NULL,
	termination_date TEXT,
	doc              TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS time_entries (
	id          TEXT PRIMARY KEY,
	employee_id TEXT NOT NULL,
	entry_date  TEXT NOT NULL,
	approved    INTEGER NOT NULL,
	doc         TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_time_entries_employee_date
	ON time_entries (employee_id, entry_date);
CREATE TABLE IF NOT EXISTS ytd_figures (
	employee_id TEXT PRIMARY KEY,
	doc         TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS payroll_runs (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL,
	created_at TEXT NOT NULL,
	doc        TEXT NOT NULL
);
`

// NewSqlite opens (and migrates) a SQLite store at the given path. Use
// ":memory:" for an ephemeral database.
func NewSqlite(path string) (*Sqlite, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite store: %w", err)
	}
	return &Sqlite{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Sqlite) Close() error { return s.db.Close() }

const dateLayout = "2006-01-02"

// Employee returns one employee by ID.
func (s *Sqlite) Employee(ctx context.Context, id string) (domain.Employee, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM employees WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Employee{}, ErrNotFound
	}
	if err != nil {
		return domain.Employee{}, fmt.Errorf("load employee %s: %w", id, err)
	}
	var e domain.Employee
	if err := json.Unmarshal([]byte(doc), &e); err != nil {
		return domain.Employee{}, fmt.Errorf("decode employee %s: %w", id, err)
	}
	return e, nil
}

// ActiveEmployees returns employees payable as of the given date, ordered by ID.
func (s *Sqlite) ActiveEmployees(ctx context.Context, asOf time.Time) ([]domain.Employee, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT doc FROM employees
		WHERE hire_date <= ?
		  AND (termination_date IS NULL OR termination_date >= ?)
		ORDER BY id`,
		asOf.Format(dateLayout), asOf.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("load active employees: %w", err)
	}
	defer rows.Close()

	var out []domain.Employee
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var e domain.Employee
		if err := json.Unmarshal([]byte(doc), &e); err != nil {
			return nil, fmt.Errorf("decode employee: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// PutEmployee inserts or replaces an employee.
func (s *Sqlite) PutEmployee(ctx context.Context, e domain.Employee) error {
	if err := e.Validate(); err != nil {
		return err
	}
	doc, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode employee %s: %w", e.ID, err)
	}
	var term any
	if e.TerminationDate != nil {
		term = e.TerminationDate.Format(dateLayout)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO employees (id, hire_date, termination_date, doc) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET hire_date=excluded.hire_date,
			termination_date=excluded.termination_date, doc=excluded.doc`,
		e.ID, e.HireDate.Format(dateLayout), term, string(doc))
	if err != nil {
		return fmt.Errorf("store employee %s: %w", e.ID, err)
	}
	return nil
}

// UpdateEmployee applies a typed patch inside a transaction so a rejected
// patch never half-mutates the stored record.
func (s *Sqlite) UpdateEmployee(ctx context.Context, id string, p domain.EmployeePatch) (domain.Employee, error) {
	e, err := s.Employee(ctx, id)
	if err != nil {
		return domain.Employee{}, err
	}
	patched, err := p.Apply(e)
	if err != nil {
		return domain.Employee{}, err
	}
	if err := s.PutEmployee(ctx, patched); err != nil {
		return domain.Employee{}, err
	}
	return patched, nil
}

// ApprovedEntries returns approved entries in [from, to], ordered by date.
func (s *Sqlite) ApprovedEntries(ctx context.Context, employeeID string, from, to time.Time) ([]domain.TimeEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT doc FROM time_entries
		WHERE employee_id = ? AND approved = 1 AND entry_date >= ? AND entry_date <= ?
		ORDER BY entry_date`,
		employeeID, from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("load time entries for %s: %w", employeeID, err)
	}
	defer rows.Close()

	var out []domain.TimeEntry
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var e domain.TimeEntry
		if err := json.Unmarshal([]byte(doc), &e); err != nil {
			return nil, fmt.Errorf("decode time entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// PutEntry inserts or replaces a time entry.
func (s *Sqlite) PutEntry(ctx context.Context, e domain.TimeEntry) error {
	doc, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode time entry %s: %w", e.ID, err)
	}
	approved := 0
	if e.Approved {
		approved = 1
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO time_entries (id, employee_id, entry_date, approved, doc) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET employee_id=excluded.employee_id,
			entry_date=excluded.entry_date, approved=excluded.approved, doc=excluded.doc`,
		e.ID, e.EmployeeID, e.Date.Format(dateLayout), approved, string(doc))
	if err != nil {
		return fmt.Errorf("store time entry %s: %w", e.ID, err)
	}
	return nil
}

// Figures returns the employee's year-to-date figures; unknown employees have
// zero YTD.
func (s *Sqlite) Figures(ctx context.Context, employeeID string) (YTDFigures, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM ytd_figures WHERE employee_id = ?`, employeeID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return YTDFigures{GrossWages: decimal.Zero, Deductions: map[string]decimal.Decimal{}}, nil
	}
	if err != nil {
		return YTDFigures{}, fmt.Errorf("load ytd for %s: %w", employeeID, err)
	}
	var f YTDFigures
	if err := json.Unmarshal([]byte(doc), &f); err != nil {
		return YTDFigures{}, fmt.Errorf("decode ytd for %s: %w", employeeID, err)
	}
	return f, nil
}

// PutFigures stores year-to-date figures for an employee.
func (s *Sqlite) PutFigures(ctx context.Context, employeeID string, f YTDFigures) error {
	doc, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode ytd for %s: %w", employeeID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO ytd_figures (employee_id, doc) VALUES (?, ?)
		ON CONFLICT(employee_id) DO UPDATE SET doc=excluded.doc`,
		employeeID, string(doc))
	if err != nil {
		return fmt.Errorf("store ytd for %s: %w", employeeID, err)
	}
	return nil
}

// SaveRun stores a payroll run by ID.
func (s *Sqlite) SaveRun(ctx context.Context, run *domain.PayrollRun) error {
	doc, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("encode run %s: %w", run.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO payroll_runs (id, status, created_at, doc) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET status=excluded.status, doc=excluded.doc`,
		run.ID, string(run.Status), run.CreatedAt.Format(time.RFC3339), string(doc))
	if err != nil {
		return fmt.Errorf("store run %s: %w", run.ID, err)
	}
	return nil
}

// Run returns a stored payroll run.
func (s *Sqlite) Run(ctx context.Context, id string) (*domain.PayrollRun, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM payroll_runs WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", id, err)
	}
	var run domain.PayrollRun
	if err := json.Unmarshal([]byte(doc), &run); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", id, err)
	}
	return &run, nil
}
