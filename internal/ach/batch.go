// Package ach builds direct-deposit batches from approved payroll runs and
// encodes them as bank-submittable NACHA files.
package ach

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/paystream/payroll/internal/banking"
	"github.com/paystream/payroll/internal/domain"
)

// BuildBatch turns an approved run into an ACH credit batch. Each non-failed
// record's net pay flows through the employee's deposit waterfall, and every
// resulting distribution becomes one transaction with a trace number built
// from the ODFI routing prefix and a file-scoped sequence.
func BuildBatch(run *domain.PayrollRun, employees map[string]domain.Employee, company domain.CompanyInfo, batchNumber int) (*domain.ACHBatch, []domain.Warning, error) {
	if run.Status != domain.RunApproved && run.Status != domain.RunProcessing && run.Status != domain.RunCompleted {
		return nil, nil, fmt.Errorf("cannot build ach batch from run in status %s", run.Status)
	}
	if err := banking.ValidateRoutingNumber(company.ODFIRouting); err != nil {
		return nil, nil, fmt.Errorf("company odfi routing: %w", err)
	}
	// The validator tolerates separators, so strip them here once; the NACHA
	// encoder slices this field into fixed columns and must see bare digits.
	company.ODFIRouting = banking.CleanRoutingNumber(company.ODFIRouting)

	batch := &domain.ACHBatch{
		Company:       company,
		EffectiveDate: run.Period.PayDate,
		BatchNumber:   batchNumber,
	}
	odfiPrefix := company.ODFIRouting[:8]

	var warnings []domain.Warning
	seq := 0
	for i := range run.Records {
		rec := &run.Records[i]
		if rec.Failed() {
			continue
		}
		emp, ok := employees[rec.EmployeeID]
		if !ok {
			return nil, nil, fmt.Errorf("record %s references unknown employee %s", rec.ID, rec.EmployeeID)
		}

		allocation, err := banking.Allocate(emp.ID, rec.NetPay, emp.Allocations)
		if err != nil {
			return nil, nil, fmt.Errorf("allocating net pay for %s: %w", emp.ID, err)
		}
		warnings = append(warnings, allocation.Warnings...)

		accounts := make(map[string]domain.BankAccount, len(emp.BankAccounts))
		for _, a := range emp.BankAccounts {
			accounts[a.ID] = a
		}
		for _, dist := range allocation.Distributions {
			account, ok := accounts[dist.BankAccountID]
			if !ok {
				return nil, nil, fmt.Errorf("employee %s: allocation references unknown bank account %s", emp.ID, dist.BankAccountID)
			}
			if err := banking.ValidateBankAccount(account); err != nil {
				return nil, nil, fmt.Errorf("employee %s: %w", emp.ID, err)
			}

			seq++
			tx := domain.ACHTransaction{
				ID:             uuid.NewString(),
				TraceNumber:    fmt.Sprintf("%s%07d", odfiPrefix, seq),
				RoutingNumber:  banking.CleanRoutingNumber(account.RoutingNumber),
				AccountNumber:  banking.CleanAccountNumber(account.AccountNumber),
				AccountType:    account.Type,
				Amount:         dist.Amount,
				IndividualID:   emp.ID,
				IndividualName: emp.FullName(),
				Status:         domain.ACHPending,
			}
			if err := batch.Append(tx); err != nil {
				return nil, nil, err
			}
		}
	}
	return batch, warnings, nil
}
