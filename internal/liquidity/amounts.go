// Package liquidity converts between token amounts and position liquidity.
//
// The current price is placed in one of three regions relative to the range
// [sqrt(lower), sqrt(upper)]: at or below it the position is all token0, at or
// above it all token1, otherwise both. Every result is floored.
package liquidity

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/xb1002/onchainLpV2/internal/pricemath"
)

var ErrInvalidRange = errors.New("invalid tick range")

// Range is a validated position range expressed as sqrt ratios.
type Range struct {
	TickLower int32
	TickUpper int32
	SqrtLower *uint256.Int
	SqrtUpper *uint256.Int
}

// NewRange checks tickLower < tickUpper and spacing alignment before any arithmetic.
func NewRange(tickLower, tickUpper, spacing int32) (Range, error) {
	if spacing <= 0 {
		return Range{}, fmt.Errorf("%w: spacing %d", ErrInvalidRange, spacing)
	}
	if tickLower >= tickUpper {
		return Range{}, fmt.Errorf("%w: lower %d >= upper %d", ErrInvalidRange, tickLower, tickUpper)
	}
	if tickLower%spacing != 0 || tickUpper%spacing != 0 {
		return Range{}, fmt.Errorf("%w: [%d, %d) not aligned to spacing %d", ErrInvalidRange, tickLower, tickUpper, spacing)
	}
	sqrtLower, err := pricemath.SqrtRatioAtTick(tickLower)
	if err != nil {
		return Range{}, err
	}
	sqrtUpper, err := pricemath.SqrtRatioAtTick(tickUpper)
	if err != nil {
		return Range{}, err
	}
	return Range{TickLower: tickLower, TickUpper: tickUpper, SqrtLower: sqrtLower, SqrtUpper: sqrtUpper}, nil
}

// ForAmounts returns the largest liquidity the given amounts can fund at the current price.
func (r Range) ForAmounts(sqrtPriceX96, amount0, amount1 *uint256.Int) (*uint256.Int, error) {
	switch {
	case !sqrtPriceX96.Gt(r.SqrtLower):
		return forAmount0(r.SqrtLower, r.SqrtUpper, amount0)
	case sqrtPriceX96.Lt(r.SqrtUpper):
		l0, err := forAmount0(sqrtPriceX96, r.SqrtUpper, amount0)
		if err != nil {
			return nil, err
		}
		l1, err := forAmount1(r.SqrtLower, sqrtPriceX96, amount1)
		if err != nil {
			return nil, err
		}
		if l0.Lt(l1) {
			return l0, nil
		}
		return l1, nil
	default:
		return forAmount1(r.SqrtLower, r.SqrtUpper, amount1)
	}
}

// Amount0 returns the token0 held by liquidity at the current price.
func (r Range) Amount0(sqrtPriceX96, liquidity *uint256.Int) (*uint256.Int, error) {
	switch {
	case !sqrtPriceX96.Gt(r.SqrtLower):
		return amount0Delta(r.SqrtLower, r.SqrtUpper, liquidity)
	case sqrtPriceX96.Lt(r.SqrtUpper):
		return amount0Delta(sqrtPriceX96, r.SqrtUpper, liquidity)
	default:
		return new(uint256.Int), nil
	}
}

// Amount1 returns the token1 held by liquidity at the current price.
func (r Range) Amount1(sqrtPriceX96, liquidity *uint256.Int) (*uint256.Int, error) {
	switch {
	case !sqrtPriceX96.Gt(r.SqrtLower):
		return new(uint256.Int), nil
	case sqrtPriceX96.Lt(r.SqrtUpper):
		return amount1Delta(r.SqrtLower, sqrtPriceX96, liquidity)
	default:
		return amount1Delta(r.SqrtLower, r.SqrtUpper, liquidity)
	}
}

// Amounts returns both token amounts held by liquidity at the current price.
func (r Range) Amounts(sqrtPriceX96, liquidity *uint256.Int) (*uint256.Int, *uint256.Int, error) {
	amount0, err := r.Amount0(sqrtPriceX96, liquidity)
	if err != nil {
		return nil, nil, err
	}
	amount1, err := r.Amount1(sqrtPriceX96, liquidity)
	if err != nil {
		return nil, nil, err
	}
	return amount0, amount1, nil
}

// ForAmounts validates the range and computes liquidity in one call.
func ForAmounts(sqrtPriceX96 *uint256.Int, tickLower, tickUpper, spacing int32, amount0, amount1 *uint256.Int) (*uint256.Int, error) {
	r, err := NewRange(tickLower, tickUpper, spacing)
	if err != nil {
		return nil, err
	}
	return r.ForAmounts(sqrtPriceX96, amount0, amount1)
}

// AmountsForLiquidity validates the range and computes both amounts in one call.
func AmountsForLiquidity(sqrtPriceX96 *uint256.Int, tickLower, tickUpper, spacing int32, liquidity *uint256.Int) (*uint256.Int, *uint256.Int, error) {
	r, err := NewRange(tickLower, tickUpper, spacing)
	if err != nil {
		return nil, nil, err
	}
	return r.Amounts(sqrtPriceX96, liquidity)
}

// amount0 * (sa*sb) / (sb-sa), with sqrt ratios in Q96.
func forAmount0(sqrtA, sqrtB, amount0 *uint256.Int) (*uint256.Int, error) {
	intermediate, err := pricemath.MulDiv(sqrtA, sqrtB, pricemath.Q96)
	if err != nil {
		return nil, err
	}
	l, err := pricemath.MulDiv(amount0, intermediate, new(uint256.Int).Sub(sqrtB, sqrtA))
	if err != nil {
		return nil, err
	}
	return toUint128(l)
}

// amount1 / (sb-sa)
func forAmount1(sqrtA, sqrtB, amount1 *uint256.Int) (*uint256.Int, error) {
	l, err := pricemath.MulDiv(amount1, pricemath.Q96, new(uint256.Int).Sub(sqrtB, sqrtA))
	if err != nil {
		return nil, err
	}
	return toUint128(l)
}

// L * (sb-sa) / (sb*sa), rounded down.
func amount0Delta(sqrtA, sqrtB, liquidity *uint256.Int) (*uint256.Int, error) {
	numerator := new(uint256.Int).Lsh(liquidity, 96)
	out, err := pricemath.MulDiv(numerator, new(uint256.Int).Sub(sqrtB, sqrtA), sqrtB)
	if err != nil {
		return nil, err
	}
	return out.Div(out, sqrtA), nil
}

// L * (sb-sa), rounded down.
func amount1Delta(sqrtA, sqrtB, liquidity *uint256.Int) (*uint256.Int, error) {
	return pricemath.MulDiv(liquidity, new(uint256.Int).Sub(sqrtB, sqrtA), pricemath.Q96)
}

func toUint128(v *uint256.Int) (*uint256.Int, error) {
	if v.Gt(pricemath.MaxUint128) {
		return nil, fmt.Errorf("liquidity %s: %w", v.Dec(), pricemath.ErrOverflow)
	}
	return v, nil
}
