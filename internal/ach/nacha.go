package ach

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/paystream/payroll/internal/domain"
	"github.com/paystream/payroll/pkg/money"
)

// NACHA encoding constants. Every line is exactly recordLen characters and
// the file is padded with filler records until the line count is a multiple
// of blockingFactor.
const (
	recordLen      = 94
	blockingFactor = 10

	serviceClassCredits = "220" // credits only
	secCodePPD          = "PPD"

	txCodeCheckingCredit = "22"
	txCodeSavingsCredit  = "32"
)

// Generator encodes a frozen ACH batch as NACHA file text. Now is injectable
// so file creation headers are reproducible in tests.
type Generator struct {
	Now func() time.Time
}

// NewGenerator returns a generator stamped with the wall clock.
func NewGenerator() *Generator {
	return &Generator{Now: time.Now}
}

// record is a fixed-width 94-column line under construction.
type record struct {
	buf []byte
}

func newRecord() *record {
	r := &record{buf: make([]byte, recordLen)}
	for i := range r.buf {
		r.buf[i] = ' '
	}
	return r
}

// put writes s into 1-based inclusive columns [start, end], left-justified
// and space-padded, truncating on overflow.
func (r *record) put(start, end int, s string) {
	width := end - start + 1
	if len(s) > width {
		s = s[:width]
	}
	copy(r.buf[start-1:], s)
}

// putNum writes n zero-padded to the 1-based inclusive columns [start, end].
func (r *record) putNum(start, end int, n int64) {
	width := end - start + 1
	r.put(start, end, fmt.Sprintf("%0*d", width, n))
}

func (r *record) String() string { return string(r.buf) }

// upper normalizes free-text fields the way banks expect them.
func upper(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

// Generate renders the batch as NACHA text and freezes it: File Header (1),
// Batch Header (5), one Entry Detail (6) per transaction, Batch Control (8),
// File Control (9), then 9-filler lines to a multiple of the blocking factor.
func (g *Generator) Generate(batch *domain.ACHBatch) (string, error) {
	if len(batch.Transactions) == 0 {
		return "", fmt.Errorf("cannot generate nacha file for empty batch")
	}
	batch.Freeze()

	var lines []string
	lines = append(lines, g.fileHeader(batch))
	lines = append(lines, g.batchHeader(batch))

	entryHash := int64(0)
	totalCreditCents := int64(0)
	for i := range batch.Transactions {
		tx := &batch.Transactions[i]
		if len(tx.RoutingNumber) != 9 {
			return "", fmt.Errorf("transaction %s: routing number must be 9 digits", tx.ID)
		}
		lines = append(lines, g.entryDetail(tx))
		entryHash += routingPrefixValue(tx.RoutingNumber)
		totalCreditCents += money.Cents(tx.Amount)
		tx.Status = domain.ACHSubmitted
	}

	entryCount := int64(len(batch.Transactions))
	lines = append(lines, g.batchControl(batch, entryCount, entryHash, totalCreditCents))

	// Block count covers the padded file, so it is computed from the final
	// line total.
	recordCount := len(lines) + 1
	blockCount := (recordCount + blockingFactor - 1) / blockingFactor
	lines = append(lines, g.fileControl(batch, entryCount, entryHash, totalCreditCents, int64(blockCount)))

	for len(lines)%blockingFactor != 0 {
		lines = append(lines, strings.Repeat("9", recordLen))
	}
	return strings.Join(lines, "\n") + "\n", nil
}

// Save writes the generated file to path.
func (g *Generator) Save(batch *domain.ACHBatch, path string) error {
	text, err := g.Generate(batch)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("writing nacha file: %w", err)
	}
	return nil
}

// routingPrefixValue is the first-8-digit value summed into the entry hash.
func routingPrefixValue(routing string) int64 {
	var v int64
	for _, r := range routing[:8] {
		v = v*10 + int64(r-'0')
	}
	return v
}

// entryHashField keeps the last 10 digits of the running hash.
func entryHashField(hash int64) int64 {
	return hash % 10_000_000_000
}

func (g *Generator) fileHeader(batch *domain.ACHBatch) string {
	now := g.Now()
	r := newRecord()
	r.put(1, 1, "1")
	r.put(2, 3, "01")
	r.put(4, 13, " "+batch.Company.ODFIRouting) // immediate destination
	r.put(14, 23, fmt.Sprintf("%10s", batch.Company.CompanyID))
	r.put(24, 29, now.Format("060102"))
	r.put(30, 33, now.Format("1504"))
	r.put(34, 34, "A")
	r.put(35, 37, "094")
	r.put(38, 39, "10")
	r.put(40, 40, "1")
	r.put(41, 63, upper(batch.Company.DestinationName))
	r.put(64, 86, upper(batch.Company.OriginName))
	return r.String()
}

func (g *Generator) batchHeader(batch *domain.ACHBatch) string {
	r := newRecord()
	r.put(1, 1, "5")
	r.put(2, 4, serviceClassCredits)
	r.put(5, 20, upper(batch.Company.Name))
	r.put(41, 50, batch.Company.CompanyID)
	r.put(51, 53, secCodePPD)
	r.put(54, 63, upper(batch.Company.EntryDescription))
	r.put(64, 69, batch.EffectiveDate.Format("060102"))
	r.put(70, 75, batch.EffectiveDate.Format("060102"))
	r.put(79, 79, "1")
	r.put(80, 87, batch.Company.ODFIRouting[:8])
	r.putNum(88, 94, int64(batch.BatchNumber))
	return r.String()
}

func (g *Generator) entryDetail(tx *domain.ACHTransaction) string {
	code := txCodeCheckingCredit
	if tx.AccountType == domain.Savings {
		code = txCodeSavingsCredit
	}
	r := newRecord()
	r.put(1, 1, "6")
	r.put(2, 3, code)
	r.put(4, 11, tx.RoutingNumber[:8])
	r.put(12, 12, tx.RoutingNumber[8:])
	r.put(13, 29, tx.AccountNumber) // left-justified, space-padded
	r.putNum(30, 39, money.Cents(tx.Amount))
	r.put(40, 54, tx.IndividualID)
	r.put(55, 76, upper(tx.IndividualName))
	r.put(79, 79, "0") // no addenda
	r.put(80, 94, tx.TraceNumber)
	return r.String()
}

func (g *Generator) batchControl(batch *domain.ACHBatch, entryCount, entryHash, totalCreditCents int64) string {
	r := newRecord()
	r.put(1, 1, "8")
	r.put(2, 4, serviceClassCredits)
	r.putNum(5, 10, entryCount)
	r.putNum(11, 20, entryHashField(entryHash))
	r.putNum(21, 32, 0) // total debit, credits-only batch
	r.putNum(33, 44, totalCreditCents)
	r.put(45, 54, batch.Company.CompanyID)
	r.put(80, 87, batch.Company.ODFIRouting[:8])
	r.putNum(88, 94, int64(batch.BatchNumber))
	return r.String()
}

func (g *Generator) fileControl(batch *domain.ACHBatch, entryCount, entryHash, totalCreditCents, blockCount int64) string {
	r := newRecord()
	r.put(1, 1, "9")
	r.putNum(2, 7, 1) // batch count
	r.putNum(8, 13, blockCount)
	r.putNum(14, 21, entryCount)
	r.putNum(22, 31, entryHashField(entryHash))
	r.putNum(32, 49, 0) // total debit, 18 columns at file level
	r.putNum(50, 67, totalCreditCents)
	return r.String()
}
