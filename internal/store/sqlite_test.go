package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paystream/payroll/internal/domain"
)

func newTestSqlite(t *testing.T) *Sqlite {
	t.Helper()
	s, err := NewSqlite(filepath.Join(t.TempDir(), "payroll.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSqlite_EmployeeRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestSqlite(t)

	emp := testEmployee("e1")
	emp.Deductions = []domain.Deduction{
		{ID: "401k", Name: "401(k)", Type: domain.PreTax, Percentage: dec("6"), Active: true},
	}
	require.NoError(t, s.PutEmployee(ctx, emp))

	got, err := s.Employee(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.FirstName)
	require.Len(t, got.Deductions, 1)
	assert.True(t, got.Deductions[0].Percentage.Equal(dec("6")), "decimals survive the JSON document")

	_, err = s.Employee(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSqlite_ActiveEmployees(t *testing.T) {
	ctx := context.Background()
	s := newTestSqlite(t)
	asOf := time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)

	future := testEmployee("future")
	future.HireDate = asOf.AddDate(0, 1, 0)
	termDate := asOf.AddDate(0, -1, 0)
	gone := testEmployee("gone")
	gone.TerminationDate = &termDate

	for _, e := range []domain.Employee{testEmployee("b"), testEmployee("a"), future, gone} {
		require.NoError(t, s.PutEmployee(ctx, e))
	}

	active, err := s.ActiveEmployees(ctx, asOf)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "a", active[0].ID)
	assert.Equal(t, "b", active[1].ID)
}

func TestSqlite_UpdateEmployee(t *testing.T) {
	ctx := context.Background()
	s := newTestSqlite(t)
	require.NoError(t, s.PutEmployee(ctx, testEmployee("e1")))

	state := "CA"
	got, err := s.UpdateEmployee(ctx, "e1", domain.EmployeePatch{TaxState: &state})
	require.NoError(t, err)
	assert.Equal(t, "CA", got.TaxState)

	stored, err := s.Employee(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "CA", stored.TaxState)

	negative := dec("-5")
	_, err = s.UpdateEmployee(ctx, "e1", domain.EmployeePatch{AnnualSalary: &negative})
	assert.Error(t, err)
}

func TestSqlite_ApprovedEntries(t *testing.T) {
	ctx := context.Background()
	s := newTestSqlite(t)
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)

	entries := []domain.TimeEntry{
		{ID: "late", EmployeeID: "e1", Date: from.AddDate(0, 0, 8), RegularHours: dec("8"), Approved: true},
		{ID: "early", EmployeeID: "e1", Date: from.AddDate(0, 0, 1), RegularHours: dec("8"), Approved: true},
		{ID: "unapproved", EmployeeID: "e1", Date: from.AddDate(0, 0, 2), RegularHours: dec("8")},
		{ID: "outside", EmployeeID: "e1", Date: to.AddDate(0, 0, 1), RegularHours: dec("8"), Approved: true},
	}
	for _, e := range entries {
		require.NoError(t, s.PutEntry(ctx, e))
	}

	got, err := s.ApprovedEntries(ctx, "e1", from, to)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "early", got[0].ID)
	assert.Equal(t, "late", got[1].ID)
}

func TestSqlite_FiguresAndRuns(t *testing.T) {
	ctx := context.Background()
	s := newTestSqlite(t)

	f, err := s.Figures(ctx, "nope")
	require.NoError(t, err)
	assert.True(t, f.GrossWages.IsZero())

	require.NoError(t, s.PutFigures(ctx, "e1", YTDFigures{
		GrossWages: dec("50000"),
		Deductions: map[string]decimal.Decimal{"401k": dec("3000")},
	}))
	f, err = s.Figures(ctx, "e1")
	require.NoError(t, err)
	assert.True(t, f.GrossWages.Equal(dec("50000")))
	assert.True(t, f.Deductions["401k"].Equal(dec("3000")))

	run := &domain.PayrollRun{ID: "run1", Status: domain.RunCompleted, CreatedAt: time.Now().UTC()}
	require.NoError(t, s.SaveRun(ctx, run))
	got, err := s.Run(ctx, "run1")
	require.NoError(t, err)
	assert.Equal(t, domain.RunCompleted, got.Status)

	_, err = s.Run(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
