package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AccountType distinguishes the ACH transaction code used for a deposit.
type AccountType string

const (
	Checking AccountType = "checking"
	Savings  AccountType = "savings"
)

// BankAccount is a deposit destination registered for an employee. Routing
// and account numbers are validated at registration time, before any money
// movement is attempted.
type BankAccount struct {
	ID            string      `yaml:"id" json:"id"`
	HolderName    string      `yaml:"holder_name" json:"holder_name"`
	RoutingNumber string      `yaml:"routing_number" json:"routing_number"`
	AccountNumber string      `yaml:"account_number" json:"account_number"`
	Type          AccountType `yaml:"type" json:"type"`
	Verified      bool        `yaml:"verified" json:"verified"`
}

// AllocationType is how a deposit allocation claims its share of net pay.
type AllocationType string

const (
	AllocatePercentage AllocationType = "percentage"
	AllocateFixed      AllocationType = "fixed_amount"
	AllocateRemainder  AllocationType = "remainder"
)

// DepositAllocation is one slice of an employee's deposit waterfall. By
// convention the collection either ends in exactly one remainder allocation
// or sums to full net pay; anything else raises a reconciliation warning.
type DepositAllocation struct {
	BankAccountID string          `yaml:"bank_account_id" json:"bank_account_id"`
	Type          AllocationType  `yaml:"type" json:"type"`
	Amount        decimal.Decimal `yaml:"amount" json:"amount"` // percentage 0-100 or fixed dollars
	Priority      int             `yaml:"priority" json:"priority"`
	Active        bool            `yaml:"active" json:"active"`
}

// Distribution is one resolved deposit: this much money to this account.
type Distribution struct {
	BankAccountID string          `json:"bank_account_id"`
	Amount        decimal.Decimal `json:"amount"`
}

// ACHStatus tracks a transaction through the banking network.
type ACHStatus string

const (
	ACHPending   ACHStatus = "pending"
	ACHSubmitted ACHStatus = "submitted"
	ACHCompleted ACHStatus = "completed"
	ACHReturned  ACHStatus = "returned"
	ACHFailed    ACHStatus = "failed"
)

// ACHTransaction is one credit entry destined for the NACHA file.
type ACHTransaction struct {
	ID             string          `json:"id"`
	TraceNumber    string          `json:"trace_number"`
	RoutingNumber  string          `json:"routing_number"`
	AccountNumber  string          `json:"account_number"`
	AccountType    AccountType     `json:"account_type"`
	Amount         decimal.Decimal `json:"amount"`
	IndividualID   string          `json:"individual_id"`
	IndividualName string          `json:"individual_name"`
	Status         ACHStatus       `json:"status"`
}

// CompanyInfo is the originating company metadata carried on an ACH batch.
type CompanyInfo struct {
	Name             string `yaml:"name" json:"name"`
	CompanyID        string `yaml:"company_id" json:"company_id"` // 10-char ACH company identification
	EntryDescription string `yaml:"entry_description" json:"entry_description"`
	ODFIRouting      string `yaml:"odfi_routing" json:"odfi_routing"`
	DestinationName  string `yaml:"destination_name" json:"destination_name"`
	OriginName       string `yaml:"origin_name" json:"origin_name"`
}

// ErrBatchFrozen is returned when appending to a batch already handed to the
// file generator.
var ErrBatchFrozen = fmt.Errorf("ach batch is frozen")

// ACHBatch owns an ordered transaction list plus company and effective-date
// metadata. It is append-only while under construction and frozen once handed
// to the file generator.
type ACHBatch struct {
	Company       CompanyInfo      `json:"company"`
	EffectiveDate time.Time        `json:"effective_date"`
	BatchNumber   int              `json:"batch_number"`
	Transactions  []ACHTransaction `json:"transactions"`

	frozen bool
}

// Append adds a transaction to an unfrozen batch.
func (b *ACHBatch) Append(tx ACHTransaction) error {
	if b.frozen {
		return ErrBatchFrozen
	}
	b.Transactions = append(b.Transactions, tx)
	return nil
}

// Freeze seals the batch; further appends fail.
func (b *ACHBatch) Freeze() { b.frozen = true }

// Frozen reports whether the batch has been sealed.
func (b *ACHBatch) Frozen() bool { return b.frozen }

// TotalCredit sums the credit amounts of all transactions.
func (b *ACHBatch) TotalCredit() decimal.Decimal {
	total := decimal.Zero
	for _, tx := range b.Transactions {
		total = total.Add(tx.Amount)
	}
	return total
}
