// Package fixedpoint implements checked unsigned arithmetic for ledger
// quantities (lamports, shares, reserves) and scaled prices.
//
// Intermediates are computed in 256 bits so products of two full-range uint64
// values never wrap. Results are narrowed back to uint64 and any value that
// does not fit fails with apperr.ErrMathOverflow. Division always floors.
package fixedpoint

import (
	"math"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"stream-market/internal/apperr"
)

// Precision is the scale of spot prices: a price of Precision means one unit of
// the opposite reserve per unit of the team reserve.
const Precision uint64 = 1_000_000_000

// precisionExp is log10(Precision), used when rendering prices as decimals.
const precisionExp = 9

// Wide widens v to a 256-bit integer.
func Wide(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

// Narrow converts x back to uint64, failing if it does not fit.
func Narrow(x *uint256.Int) (uint64, error) {
	if !x.IsUint64() {
		return 0, apperr.ErrMathOverflow
	}
	return x.Uint64(), nil
}

// Add returns a + b.
func Add(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, apperr.ErrMathOverflow
	}
	return a + b, nil
}

// Sub returns a - b. Underflow is reported as overflow, nothing saturates.
func Sub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, apperr.ErrMathOverflow
	}
	return a - b, nil
}

// Mul returns a * b.
func Mul(a, b uint64) (uint64, error) {
	return Narrow(Mul256(a, b))
}

// Mul256 returns the exact product of a and b.
func Mul256(a, b uint64) *uint256.Int {
	return new(uint256.Int).Mul(Wide(a), Wide(b))
}

// Div returns floor(a / b).
func Div(a, b uint64) (uint64, error) {
	if b == 0 {
		return 0, apperr.ErrMathOverflow
	}
	return a / b, nil
}

// MulDiv returns floor(a * b / d) without overflowing the intermediate product.
func MulDiv(a, b, d uint64) (uint64, error) {
	if d == 0 {
		return 0, apperr.ErrMathOverflow
	}
	return Narrow(new(uint256.Int).Div(Mul256(a, b), Wide(d)))
}

// MulDivSum returns floor(a * b / (c1 + c2)). The divisor is summed in 256 bits
// so c1 + c2 may exceed the uint64 range.
func MulDivSum(a, b, c1, c2 uint64) (uint64, error) {
	d := new(uint256.Int).Add(Wide(c1), Wide(c2))
	if d.IsZero() {
		return 0, apperr.ErrMathOverflow
	}
	return Narrow(new(uint256.Int).Div(Mul256(a, b), d))
}

// ToDecimal renders a Precision-scaled value as a decimal, e.g. 1438848920 ->
// 1.43884892.
func ToDecimal(scaled uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(scaled), -precisionExp)
}

// Lamports renders a lamport amount in SOL.
func Lamports(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), -precisionExp)
}
