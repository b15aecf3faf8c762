package keeper

import (
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"github.com/xb1002/onchainLpV2/internal/pricemath"
)

// SwapPlan moves the wallet toward an equal split of value between the two tokens.
type SwapPlan struct {
	ZeroForOne bool
	AmountIn   *uint256.Int
	// Values are denominated in raw token1 units.
	Value0 decimal.Decimal
	Value1 decimal.Decimal
	Target decimal.Decimal
}

// PlanSwap values both balances at the pool price and swaps the excess of the
// side that exceeds half the total by more than tolerance. It returns nil when
// the wallet is already balanced.
func PlanSwap(balance0, balance1, sqrtPriceX96 *uint256.Int, tolerance decimal.Decimal) *SwapPlan {
	if sqrtPriceX96 == nil || sqrtPriceX96.IsZero() {
		return nil
	}
	price := pricemath.RawPrice(sqrtPriceX96)
	if price.IsZero() {
		return nil
	}
	value0 := toDecimal(balance0).Mul(price)
	value1 := toDecimal(balance1)
	target := value0.Add(value1).Div(decimal.NewFromInt(2))
	limit := target.Mul(decimal.NewFromInt(1).Add(tolerance))

	plan := &SwapPlan{Value0: value0, Value1: value1, Target: target}
	switch {
	case value0.GreaterThan(limit):
		plan.ZeroForOne = true
		plan.AmountIn = fromDecimal(value0.Sub(target).Div(price))
	case value1.GreaterThan(limit):
		plan.AmountIn = fromDecimal(value1.Sub(target))
	default:
		return nil
	}
	if plan.AmountIn.IsZero() {
		return nil
	}
	return plan
}

func toDecimal(v *uint256.Int) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(v.ToBig(), 0)
}

func fromDecimal(d decimal.Decimal) *uint256.Int {
	if d.Sign() <= 0 {
		return new(uint256.Int)
	}
	out, overflow := uint256.FromBig(d.Floor().BigInt())
	if overflow {
		return new(uint256.Int)
	}
	return out
}
