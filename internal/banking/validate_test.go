package banking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/paystream/payroll/internal/domain"
)

func TestValidateRoutingNumber(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		for _, routing := range []string{
			"121000248", // Wells Fargo
			"011401533",
			"121-000-248", // separators are tolerated
			"121 000 248",
		} {
			assert.NoError(t, ValidateRoutingNumber(routing), routing)
		}
	})

	t.Run("checksum failure", func(t *testing.T) {
		err := ValidateRoutingNumber("123456789")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "checksum")
	})

	t.Run("wrong length", func(t *testing.T) {
		for _, routing := range []string{"", "12100024", "1210002488"} {
			err := ValidateRoutingNumber(routing)
			assert.Error(t, err, routing)
			assert.Contains(t, err.Error(), "9 digits")
		}
	})
}

func TestValidateAccountNumber(t *testing.T) {
	assert.NoError(t, ValidateAccountNumber("1234"))
	assert.NoError(t, ValidateAccountNumber("12-3456-789"))
	assert.NoError(t, ValidateAccountNumber(strings.Repeat("9", 17)))

	assert.Error(t, ValidateAccountNumber("123"))
	assert.Error(t, ValidateAccountNumber(strings.Repeat("9", 18)))
	assert.Error(t, ValidateAccountNumber("--- ---"))
}

func TestValidateBankAccount(t *testing.T) {
	good := domain.BankAccount{
		ID:            "acct1",
		RoutingNumber: "121000248",
		AccountNumber: "123456789",
		Type:          domain.Checking,
	}
	assert.NoError(t, ValidateBankAccount(good))

	bad := good
	bad.RoutingNumber = "123456789"
	err := ValidateBankAccount(bad)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "acct1")
}

func TestCleaners(t *testing.T) {
	assert.Equal(t, "121000248", CleanRoutingNumber("121-000-248"))
	assert.Equal(t, "AB1234", CleanAccountNumber(" AB-12 34 "))
}
