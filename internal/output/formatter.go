// Package output renders payroll run results for their downstream consumers:
// the human approver (console), machine consumers (json) and spreadsheet
// imports (csv). Decimals are converted to display strings only here, at the
// presentation boundary.
package output

import (
	"github.com/paystream/payroll/internal/domain"
)

// Formatter renders a payroll run.
type Formatter interface {
	Format(run *domain.PayrollRun) ([]byte, error)
}

// GetFormatterByName returns a formatter for the given name, or nil for an
// unknown name.
func GetFormatterByName(name string) Formatter {
	switch name {
	case "console", "":
		return ConsoleFormatter{}
	case "json":
		return JSONFormatter{}
	case "csv":
		return CSVFormatter{}
	default:
		return nil
	}
}
