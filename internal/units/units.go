// Package units converts between on-chain integer base units and
// human-facing decimal amounts. Conversions are exact except for the
// explicit rounding in FromDecimal.
package units

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// ToDecimal returns raw / 10^decimals as an exact decimal value.
func ToDecimal(raw *big.Int, decimals uint8) (decimal.Decimal, error) {
	if raw == nil {
		return decimal.Decimal{}, fmt.Errorf("raw amount is nil")
	}
	if raw.Sign() < 0 {
		return decimal.Decimal{}, fmt.Errorf("raw amount is negative: %s", raw)
	}
	return decimal.NewFromBigInt(new(big.Int).Set(raw), -int32(decimals)), nil
}

// FromDecimal scales amount by 10^decimals, rounds to zero decimal places,
// and returns the result as an unsigned integer. Negative amounts fail.
func FromDecimal(amount decimal.Decimal, decimals uint8) (*big.Int, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("amount is negative: %s", amount)
	}
	scaled := amount.Shift(int32(decimals)).Round(0)
	if scaled.IsNegative() {
		return nil, fmt.Errorf("scaled amount is negative: %s", scaled)
	}
	return scaled.BigInt(), nil
}
