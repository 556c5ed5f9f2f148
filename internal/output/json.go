package output

import (
	"encoding/json"
	"fmt"

	"github.com/paystream/payroll/internal/domain"
)

// JSONFormatter renders a machine-readable run summary. Monetary amounts are
// emitted as fixed two-decimal strings; floats never carry money out of the
// engine.
type JSONFormatter struct{}

type jsonRecord struct {
	EmployeeID        string   `json:"employee_id"`
	Status            string   `json:"status"`
	GrossPay          string   `json:"gross_pay"`
	PreTaxDeductions  string   `json:"pre_tax_deductions"`
	PostTaxDeductions string   `json:"post_tax_deductions"`
	TaxableWages      string   `json:"taxable_wages"`
	TotalTaxes        string   `json:"total_taxes"`
	NetPay            string   `json:"net_pay"`
	Errors            []string `json:"errors,omitempty"`
}

type jsonRun struct {
	ID             string       `json:"id"`
	Status         string       `json:"status"`
	PeriodStart    string       `json:"period_start"`
	PeriodEnd      string       `json:"period_end"`
	PayDate        string       `json:"pay_date"`
	ApprovedBy     string       `json:"approved_by,omitempty"`
	GrossPay       string       `json:"gross_pay"`
	Deductions     string       `json:"deductions"`
	Taxes          string       `json:"taxes"`
	NetPay         string       `json:"net_pay"`
	EmployeeCount  int          `json:"employee_count"`
	SucceededCount int          `json:"succeeded_count"`
	FailedCount    int          `json:"failed_count"`
	Records        []jsonRecord `json:"records"`
	Warnings       []string     `json:"warnings,omitempty"`
	Errors         []string     `json:"errors,omitempty"`
}

// Format renders the run as indented JSON.
func (j JSONFormatter) Format(run *domain.PayrollRun) ([]byte, error) {
	out := jsonRun{
		ID:             run.ID,
		Status:         string(run.Status),
		PeriodStart:    run.Period.Start.Format("2006-01-02"),
		PeriodEnd:      run.Period.End.Format("2006-01-02"),
		PayDate:        run.Period.PayDate.Format("2006-01-02"),
		ApprovedBy:     run.ApprovedBy,
		GrossPay:       run.Totals.GrossPay.StringFixed(2),
		Deductions:     run.Totals.Deductions.StringFixed(2),
		Taxes:          run.Totals.Taxes.StringFixed(2),
		NetPay:         run.Totals.NetPay.StringFixed(2),
		EmployeeCount:  run.Totals.EmployeeCount,
		SucceededCount: run.Totals.SucceededCount,
		FailedCount:    run.Totals.FailedCount,
		Errors:         run.Errors,
	}
	for _, w := range run.Warnings {
		out.Warnings = append(out.Warnings, w.String())
	}
	for i := range run.Records {
		r := &run.Records[i]
		out.Records = append(out.Records, jsonRecord{
			EmployeeID:        r.EmployeeID,
			Status:            string(r.Status),
			GrossPay:          r.GrossPay.StringFixed(2),
			PreTaxDeductions:  r.PreTaxDeductions.StringFixed(2),
			PostTaxDeductions: r.PostTaxDeductions.StringFixed(2),
			TaxableWages:      r.TaxableWages.StringFixed(2),
			TotalTaxes:        r.Taxes.Total.StringFixed(2),
			NetPay:            r.NetPay.StringFixed(2),
			Errors:            r.Errors,
		})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding run summary: %w", err)
	}
	return data, nil
}
