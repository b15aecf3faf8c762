// Package fees computes uncollected swap fees of a position from fee growth snapshots.
package fees

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/xb1002/onchainLpV2/internal/model"
	"github.com/xb1002/onchainLpV2/internal/pricemath"
)

// PoolReader is the subset of pool reads needed to price fees.
type PoolReader interface {
	Slot0(ctx context.Context) (model.Slot0, error)
	Tick(ctx context.Context, tick int32) (model.TickInfo, error)
	FeeGrowthGlobal(ctx context.Context) (*uint256.Int, *uint256.Int, error)
}

// Snapshot is the pool state fee accrual depends on, read at one moment.
type Snapshot struct {
	SqrtPriceX96         *uint256.Int
	Tick                 int32
	FeeGrowthGlobal0X128 *uint256.Int
	FeeGrowthGlobal1X128 *uint256.Int
	Lower                model.TickInfo
	Upper                model.TickInfo
}

// Amounts holds one value per pool token in smallest units.
type Amounts struct {
	Amount0 *uint256.Int `json:"amount0"`
	Amount1 *uint256.Int `json:"amount1"`
}

// Fetch reads a fresh snapshot for the position's range.
func Fetch(ctx context.Context, reader PoolReader, pos model.Position) (Snapshot, error) {
	slot0, err := reader.Slot0(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read slot0: %w", err)
	}
	global0, global1, err := reader.FeeGrowthGlobal(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read fee growth global: %w", err)
	}
	lower, err := reader.Tick(ctx, pos.TickLower)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read tick %d: %w", pos.TickLower, err)
	}
	upper, err := reader.Tick(ctx, pos.TickUpper)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read tick %d: %w", pos.TickUpper, err)
	}
	return Snapshot{
		SqrtPriceX96:         slot0.SqrtPriceX96,
		Tick:                 slot0.Tick,
		FeeGrowthGlobal0X128: global0,
		FeeGrowthGlobal1X128: global1,
		Lower:                lower,
		Upper:                upper,
	}, nil
}

// GrowthInside returns the per-liquidity fee growth inside [tickLower, tickUpper) for both tokens.
func (s Snapshot) GrowthInside(tickLower, tickUpper int32) (*uint256.Int, *uint256.Int) {
	inside0 := growthInside(s.Tick, tickLower, tickUpper,
		s.FeeGrowthGlobal0X128, s.Lower.FeeGrowthOutside0X128, s.Upper.FeeGrowthOutside0X128)
	inside1 := growthInside(s.Tick, tickLower, tickUpper,
		s.FeeGrowthGlobal1X128, s.Lower.FeeGrowthOutside1X128, s.Upper.FeeGrowthOutside1X128)
	return inside0, inside1
}

// All subtractions wrap modulo 2^256.
func growthInside(current, tickLower, tickUpper int32, global, outsideLower, outsideUpper *uint256.Int) *uint256.Int {
	global, outsideLower, outsideUpper = orZero(global), orZero(outsideLower), orZero(outsideUpper)
	switch {
	case current < tickLower:
		return new(uint256.Int).Sub(outsideLower, outsideUpper)
	case current >= tickUpper:
		return new(uint256.Int).Sub(outsideUpper, outsideLower)
	default:
		inside := new(uint256.Int).Sub(global, outsideLower)
		return inside.Sub(inside, outsideUpper)
	}
}

// Unclaimed returns the fees accrued since the position's last checkpoint.
// Tokens already credited to the position (tokensOwed) are not included.
func Unclaimed(pos model.Position, s Snapshot) (Amounts, error) {
	inside0, inside1 := s.GrowthInside(pos.TickLower, pos.TickUpper)
	fee0, err := accrue(pos.Liquidity, inside0, pos.FeeGrowthInside0LastX128, pricemath.Q128)
	if err != nil {
		return Amounts{}, fmt.Errorf("accrue token0: %w", err)
	}
	fee1, err := accrue(pos.Liquidity, inside1, pos.FeeGrowthInside1LastX128, pricemath.Q128)
	if err != nil {
		return Amounts{}, fmt.Errorf("accrue token1: %w", err)
	}
	return Amounts{Amount0: fee0, Amount1: fee1}, nil
}

// Collectable adds the position's already-credited tokens to accrued fees.
func Collectable(pos model.Position, accrued Amounts) Amounts {
	return Amounts{
		Amount0: new(uint256.Int).Add(orZero(pos.TokensOwed0), orZero(accrued.Amount0)),
		Amount1: new(uint256.Int).Add(orZero(pos.TokensOwed1), orZero(accrued.Amount1)),
	}
}

// accrue is floor(liquidity * (insideNow - insideLast) / denominator).
func accrue(liquidity, insideNow, insideLast, denominator *uint256.Int) (*uint256.Int, error) {
	delta := new(uint256.Int).Sub(orZero(insideNow), orZero(insideLast))
	return pricemath.MulDiv(orZero(liquidity), delta, denominator)
}

func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}
