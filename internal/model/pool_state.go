package model

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Slot0 is the pool's current price snapshot.
type Slot0 struct {
	SqrtPriceX96 *uint256.Int `json:"sqrt_price_x96"`
	Tick         int32        `json:"tick"`
}

// TickInfo holds the fee growth recorded on the far side of an initialized tick.
type TickInfo struct {
	FeeGrowthOutside0X128 *uint256.Int `json:"fee_growth_outside0_x128"`
	FeeGrowthOutside1X128 *uint256.Int `json:"fee_growth_outside1_x128"`
	Initialized           bool         `json:"initialized"`
}

// PoolInfo is the immutable identity read from the pool contract.
type PoolInfo struct {
	Token0      common.Address `json:"token0"`
	Token1      common.Address `json:"token1"`
	Fee         FeeTier        `json:"fee"`
	TickSpacing int32          `json:"tick_spacing"`
}
