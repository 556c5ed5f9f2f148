package output

import (
	"fmt"
	"strings"

	"github.com/paystream/payroll/internal/domain"
)

// ConsoleFormatter renders the approver's view of a run: totals, one line per
// payment record, then every warning and error. A run summary never collapses
// to a bare success flag.
type ConsoleFormatter struct{}

// Format renders the run as plain text.
func (c ConsoleFormatter) Format(run *domain.PayrollRun) ([]byte, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "PAYROLL RUN %s\n", run.ID)
	fmt.Fprintf(&b, "Period:    %s to %s, paid %s (%s)\n",
		run.Period.Start.Format("2006-01-02"),
		run.Period.End.Format("2006-01-02"),
		run.Period.PayDate.Format("2006-01-02"),
		run.Period.Frequency)
	fmt.Fprintf(&b, "Status:    %s", run.Status)
	if run.ApprovedBy != "" {
		fmt.Fprintf(&b, " (approved by %s)", run.ApprovedBy)
	}
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Employees: %d processed, %d succeeded, %d failed\n",
		run.Totals.EmployeeCount, run.Totals.SucceededCount, run.Totals.FailedCount)
	fmt.Fprintf(&b, "Gross:      %12s\n", run.Totals.GrossPay.StringFixed(2))
	fmt.Fprintf(&b, "Deductions: %12s\n", run.Totals.Deductions.StringFixed(2))
	fmt.Fprintf(&b, "Taxes:      %12s\n", run.Totals.Taxes.StringFixed(2))
	fmt.Fprintf(&b, "Net:        %12s\n\n", run.Totals.NetPay.StringFixed(2))

	fmt.Fprintf(&b, "%-12s %-10s %12s %12s %12s %12s\n",
		"EMPLOYEE", "STATUS", "GROSS", "DEDUCTIONS", "TAXES", "NET")
	for i := range run.Records {
		r := &run.Records[i]
		if r.Failed() {
			fmt.Fprintf(&b, "%-12s %-10s %s\n", r.EmployeeID, r.Status, strings.Join(r.Errors, "; "))
			continue
		}
		fmt.Fprintf(&b, "%-12s %-10s %12s %12s %12s %12s\n",
			r.EmployeeID, r.Status,
			r.GrossPay.StringFixed(2),
			r.PreTaxDeductions.Add(r.PostTaxDeductions).StringFixed(2),
			r.Taxes.Total.StringFixed(2),
			r.NetPay.StringFixed(2))
	}

	if len(run.Warnings) > 0 {
		b.WriteString("\nWARNINGS:\n")
		for _, w := range run.Warnings {
			fmt.Fprintf(&b, "  %s\n", w)
		}
	}
	if len(run.Errors) > 0 {
		b.WriteString("\nERRORS:\n")
		for _, e := range run.Errors {
			fmt.Fprintf(&b, "  %s\n", e)
		}
	}
	return []byte(b.String()), nil
}
