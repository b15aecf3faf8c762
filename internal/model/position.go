package model

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Position mirrors the position manager's record for one token id.
type Position struct {
	ID                       *uint256.Int   `json:"id"`
	Token0                   common.Address `json:"token0"`
	Token1                   common.Address `json:"token1"`
	Fee                      FeeTier        `json:"fee"`
	TickLower                int32          `json:"tick_lower"`
	TickUpper                int32          `json:"tick_upper"`
	Liquidity                *uint256.Int   `json:"liquidity"`
	FeeGrowthInside0LastX128 *uint256.Int   `json:"fee_growth_inside0_last_x128"`
	FeeGrowthInside1LastX128 *uint256.Int   `json:"fee_growth_inside1_last_x128"`
	TokensOwed0              *uint256.Int   `json:"tokens_owed0"`
	TokensOwed1              *uint256.Int   `json:"tokens_owed1"`
}

// HasLiquidity reports whether the position still holds liquidity.
func (p Position) HasLiquidity() bool {
	return p.Liquidity != nil && !p.Liquidity.IsZero()
}

// HasOwed reports whether the position has tokens waiting to be collected.
func (p Position) HasOwed() bool {
	return (p.TokensOwed0 != nil && !p.TokensOwed0.IsZero()) ||
		(p.TokensOwed1 != nil && !p.TokensOwed1.IsZero())
}

// MintParams opens a new position.
type MintParams struct {
	Token0         common.Address
	Token1         common.Address
	Fee            FeeTier
	TickLower      int32
	TickUpper      int32
	Amount0Desired *uint256.Int
	Amount1Desired *uint256.Int
	Amount0Min     *uint256.Int
	Amount1Min     *uint256.Int
	Recipient      common.Address
	Deadline       time.Time
}

// MintResult is decoded from the mint receipt.
type MintResult struct {
	PositionID *uint256.Int
	Liquidity  *uint256.Int
	Amount0    *uint256.Int
	Amount1    *uint256.Int
	TxHash     common.Hash
}

// IncreaseParams adds liquidity to an existing position.
type IncreaseParams struct {
	PositionID     *uint256.Int
	Amount0Desired *uint256.Int
	Amount1Desired *uint256.Int
	Amount0Min     *uint256.Int
	Amount1Min     *uint256.Int
	Deadline       time.Time
}

// DecreaseParams removes liquidity from an existing position.
type DecreaseParams struct {
	PositionID *uint256.Int
	Liquidity  *uint256.Int
	Amount0Min *uint256.Int
	Amount1Min *uint256.Int
	Deadline   time.Time
}

// LiquidityChange is decoded from an increase or decrease receipt.
type LiquidityChange struct {
	Liquidity *uint256.Int
	Amount0   *uint256.Int
	Amount1   *uint256.Int
	TxHash    common.Hash
}

// CollectResult is the amount transferred out of a position.
type CollectResult struct {
	Amount0 *uint256.Int
	Amount1 *uint256.Int
	TxHash  common.Hash
}

// SwapParams describes an exact-input single-pool swap.
type SwapParams struct {
	TokenIn          common.Address
	TokenOut         common.Address
	Fee              FeeTier
	AmountIn         *uint256.Int
	AmountOutMinimum *uint256.Int
	Recipient        common.Address
	Simulate         bool
}

// SwapResult reports the received amount. TxHash is zero for simulations.
type SwapResult struct {
	AmountOut *uint256.Int
	TxHash    common.Hash
}
