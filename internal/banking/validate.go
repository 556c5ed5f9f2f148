// Package banking validates deposit destinations and distributes net pay
// across an employee's deposit waterfall.
package banking

import (
	"fmt"
	"strings"

	"github.com/paystream/payroll/internal/domain"
)

// Account numbers on the ACH network are 4 to 17 characters.
const (
	minAccountLen = 4
	maxAccountLen = 17
)

// digitsOnly strips everything but ASCII digits.
func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// alnumOnly strips everything but ASCII letters and digits.
func alnumOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateRoutingNumber checks the 9-digit requirement and the ABA checksum
// 3·(d1+d4+d7) + 7·(d2+d5+d8) + 1·(d3+d6+d9) ≡ 0 (mod 10). Failures carry a
// specific human-readable reason.
func ValidateRoutingNumber(routing string) error {
	digits := digitsOnly(routing)
	if len(digits) != 9 {
		return fmt.Errorf("routing number must be exactly 9 digits, got %d", len(digits))
	}
	sum := 0
	weights := [9]int{3, 7, 1, 3, 7, 1, 3, 7, 1}
	for i, r := range digits {
		sum += weights[i] * int(r-'0')
	}
	if sum%10 != 0 {
		return fmt.Errorf("routing number %s fails the ABA checksum", digits)
	}
	return nil
}

// ValidateAccountNumber checks the account number length after stripping
// separators and spaces.
func ValidateAccountNumber(account string) error {
	cleaned := alnumOnly(account)
	if len(cleaned) < minAccountLen {
		return fmt.Errorf("account number must be at least %d characters, got %d", minAccountLen, len(cleaned))
	}
	if len(cleaned) > maxAccountLen {
		return fmt.Errorf("account number must be at most %d characters, got %d", maxAccountLen, len(cleaned))
	}
	return nil
}

// ValidateBankAccount checks both numbers at registration time, before any
// money movement is attempted.
func ValidateBankAccount(a domain.BankAccount) error {
	if err := ValidateRoutingNumber(a.RoutingNumber); err != nil {
		return fmt.Errorf("bank account %s: %w", a.ID, err)
	}
	if err := ValidateAccountNumber(a.AccountNumber); err != nil {
		return fmt.Errorf("bank account %s: %w", a.ID, err)
	}
	return nil
}

// CleanRoutingNumber returns the 9 digits of a routing number that has
// already passed validation.
func CleanRoutingNumber(routing string) string { return digitsOnly(routing) }

// CleanAccountNumber returns the alphanumeric account characters.
func CleanAccountNumber(account string) string { return alnumOnly(account) }
