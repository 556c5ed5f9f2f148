package calculation

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Bracket is one row of a progressive tax table. Max nil means the bracket is
// unbounded above. BaseTax is the cumulative tax owed at Min, precomputed so
// evaluation is a single lookup plus one multiplication.
type Bracket struct {
	Min     decimal.Decimal
	Max     *decimal.Decimal
	Rate    decimal.Decimal
	BaseTax decimal.Decimal
}

// BracketTable is an ordered, non-overlapping, ascending progressive table.
type BracketTable struct {
	brackets []Bracket
}

// NewBracketTable validates the rows and recomputes each BaseTax from the
// rates below it, so the boundary-continuity property holds by construction:
// tax at a bracket's Min equals the previous bracket evaluated at its Max.
func NewBracketTable(rows []Bracket) (*BracketTable, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("bracket table must have at least one row")
	}
	for i := range rows {
		if rows[i].Rate.IsNegative() {
			return nil, fmt.Errorf("bracket %d: negative rate %s", i, rows[i].Rate)
		}
		if rows[i].Max == nil {
			if i != len(rows)-1 {
				return nil, fmt.Errorf("bracket %d: only the top bracket may be unbounded", i)
			}
			continue
		}
		if !rows[i].Max.GreaterThan(rows[i].Min) {
			return nil, fmt.Errorf("bracket %d: max %s not above min %s", i, rows[i].Max, rows[i].Min)
		}
		if i+1 < len(rows) && !rows[i+1].Min.Equal(*rows[i].Max) {
			return nil, fmt.Errorf("bracket %d: next min %s does not continue from max %s", i, rows[i+1].Min, rows[i].Max)
		}
	}

	out := make([]Bracket, len(rows))
	copy(out, rows)
	out[0].BaseTax = decimal.Zero
	for i := 1; i < len(out); i++ {
		prev := out[i-1]
		width := prev.Max.Sub(prev.Min)
		out[i].BaseTax = prev.BaseTax.Add(width.Mul(prev.Rate))
	}
	return &BracketTable{brackets: out}, nil
}

// MustBracketTable is NewBracketTable for the compiled-in statutory tables.
func MustBracketTable(rows []Bracket) *BracketTable {
	t, err := NewBracketTable(rows)
	if err != nil {
		panic(err)
	}
	return t
}

// Evaluate returns the total tax on the income, unrounded. The caller applies
// the minor-unit rounding once at its own final result. Income at or below
// the first bracket's minimum owes zero.
func (t *BracketTable) Evaluate(income decimal.Decimal) decimal.Decimal {
	if len(t.brackets) == 0 || income.LessThanOrEqual(t.brackets[0].Min) {
		return decimal.Zero
	}
	for _, b := range t.brackets {
		if income.GreaterThan(b.Min) && (b.Max == nil || income.LessThanOrEqual(*b.Max)) {
			return b.BaseTax.Add(income.Sub(b.Min).Mul(b.Rate))
		}
	}
	// Income above every bounded bracket with no unbounded top row.
	top := t.brackets[len(t.brackets)-1]
	return top.BaseTax.Add(top.Max.Sub(top.Min).Mul(top.Rate))
}

// Brackets returns a copy of the table rows.
func (t *BracketTable) Brackets() []Bracket {
	out := make([]Bracket, len(t.brackets))
	copy(out, t.brackets)
	return out
}

// bracket builds a table row from integer dollar bounds and a fractional rate
// string. max 0 means unbounded.
func bracket(min, max int64, rate string) Bracket {
	b := Bracket{
		Min:  decimal.NewFromInt(min),
		Rate: decimal.RequireFromString(rate),
	}
	if max > 0 {
		m := decimal.NewFromInt(max)
		b.Max = &m
	}
	return b
}
