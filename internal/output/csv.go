package output

import (
	"bytes"
	"encoding/csv"
	"strings"

	"github.com/paystream/payroll/internal/domain"
)

// CSVFormatter renders one row per payment record for spreadsheet import.
type CSVFormatter struct{}

// Format renders the run's records as CSV with a header row.
func (c CSVFormatter) Format(run *domain.PayrollRun) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"employee_id", "status", "regular_pay", "overtime_pay", "double_time_pay",
		"bonus_pay", "gross_pay", "pre_tax_deductions", "taxable_wages",
		"federal_income_tax", "state_income_tax", "local_tax", "social_security",
		"medicare", "additional_medicare", "state_disability",
		"post_tax_deductions", "net_pay", "errors",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for i := range run.Records {
		r := &run.Records[i]
		row := []string{
			r.EmployeeID,
			string(r.Status),
			r.RegularPay.StringFixed(2),
			r.OvertimePay.StringFixed(2),
			r.DoubleTimePay.StringFixed(2),
			r.BonusPay.StringFixed(2),
			r.GrossPay.StringFixed(2),
			r.PreTaxDeductions.StringFixed(2),
			r.TaxableWages.StringFixed(2),
			r.Taxes.FederalIncomeTax.StringFixed(2),
			r.Taxes.StateIncomeTax.StringFixed(2),
			r.Taxes.LocalTax.StringFixed(2),
			r.Taxes.SocialSecurity.StringFixed(2),
			r.Taxes.Medicare.StringFixed(2),
			r.Taxes.AdditionalMedicare.StringFixed(2),
			r.Taxes.StateDisability.StringFixed(2),
			r.PostTaxDeductions.StringFixed(2),
			r.NetPay.StringFixed(2),
			strings.Join(r.Errors, "; "),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
