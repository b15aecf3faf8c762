package keeper

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/xb1002/onchainLpV2/internal/model"
)

// PoolReader reads the managed pool.
type PoolReader interface {
	Slot0(ctx context.Context) (model.Slot0, error)
	Tick(ctx context.Context, tick int32) (model.TickInfo, error)
	FeeGrowthGlobal(ctx context.Context) (*uint256.Int, *uint256.Int, error)
}

// PositionManager owns the LP position NFTs.
type PositionManager interface {
	ListPositionIDs(ctx context.Context, owner common.Address) ([]*uint256.Int, error)
	Position(ctx context.Context, id *uint256.Int) (model.Position, error)
	Mint(ctx context.Context, params model.MintParams) (model.MintResult, error)
	IncreaseLiquidity(ctx context.Context, params model.IncreaseParams) (model.LiquidityChange, error)
	DecreaseLiquidity(ctx context.Context, params model.DecreaseParams) (model.LiquidityChange, error)
	Collect(ctx context.Context, id *uint256.Int, recipient common.Address) (model.CollectResult, error)
	Burn(ctx context.Context, id *uint256.Int) (common.Hash, error)
}

// SwapExecutor performs exact-input swaps.
type SwapExecutor interface {
	SwapExactIn(ctx context.Context, params model.SwapParams) (model.SwapResult, error)
}

// Assets reads wallet balances and keeps spending approvals in place.
type Assets interface {
	BalanceOf(ctx context.Context, token, owner common.Address) (*uint256.Int, error)
	EnsureAllowance(ctx context.Context, token, spender common.Address) (bool, error)
}
