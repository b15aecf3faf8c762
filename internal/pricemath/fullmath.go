package pricemath

import (
	"errors"

	"github.com/holiman/uint256"
)

var ErrOverflow = errors.New("mul div overflow")

var (
	// Q96 is 2^96.
	Q96 = new(uint256.Int).Lsh(uint256.NewInt(1), 96)
	// Q128 is 2^128.
	Q128 = new(uint256.Int).Lsh(uint256.NewInt(1), 128)
	// MaxUint128 bounds liquidity and owed-token amounts.
	MaxUint128 = new(uint256.Int).Sub(Q128, uint256.NewInt(1))
)

// MulDiv computes floor(a*b/denominator) with a 512-bit intermediate.
func MulDiv(a, b, denominator *uint256.Int) (*uint256.Int, error) {
	if denominator.IsZero() {
		return nil, ErrOverflow
	}
	result, overflow := new(uint256.Int).MulDivOverflow(a, b, denominator)
	if overflow {
		return nil, ErrOverflow
	}
	return result, nil
}
