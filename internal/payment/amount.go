package payment

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ToMinorUnits converts a rupee amount to paise. Amounts with sub-paise
// precision are rejected rather than rounded so the charged amount always
// equals the stored total.
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	if amount.IsNegative() {
		return 0, fmt.Errorf("amount %s is negative", amount.String())
	}
	minor := amount.Mul(hundred)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has sub-paise precision", amount.String())
	}
	return minor.IntPart(), nil
}

// FromMinorUnits converts paise to a rupee amount.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

// FormatAmount renders an amount with exactly two decimals, as gateways
// that take major units expect.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
