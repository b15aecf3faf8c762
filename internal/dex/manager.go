package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/xb1002/onchainLpV2/internal/model"
)

var maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

type mintArgs struct {
	Token0         common.Address
	Token1         common.Address
	Fee            *big.Int
	TickLower      *big.Int
	TickUpper      *big.Int
	Amount0Desired *big.Int
	Amount1Desired *big.Int
	Amount0Min     *big.Int
	Amount1Min     *big.Int
	Recipient      common.Address
	Deadline       *big.Int
}

type increaseArgs struct {
	TokenId        *big.Int
	Amount0Desired *big.Int
	Amount1Desired *big.Int
	Amount0Min     *big.Int
	Amount1Min     *big.Int
	Deadline       *big.Int
}

type decreaseArgs struct {
	TokenId    *big.Int
	Liquidity  *big.Int
	Amount0Min *big.Int
	Amount1Min *big.Int
	Deadline   *big.Int
}

type collectArgs struct {
	TokenId    *big.Int
	Recipient  common.Address
	Amount0Max *big.Int
	Amount1Max *big.Int
}

// PositionManager drives a NonfungiblePositionManager deployment.
type PositionManager struct {
	caller  Caller
	sender  Sender
	address common.Address
	abi     abi.ABI
	logger  *zap.Logger
}

// NewPositionManager returns a client for the manager at address. sender may be nil for read-only use.
func NewPositionManager(caller Caller, sender Sender, address common.Address, logger *zap.Logger) (*PositionManager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	parsed, err := PositionManagerABI()
	if err != nil {
		return nil, fmt.Errorf("parse position manager abi: %w", err)
	}
	return &PositionManager{caller: caller, sender: sender, address: address, abi: parsed, logger: logger}, nil
}

func (m *PositionManager) Address() common.Address {
	return m.address
}

// ListPositionIDs enumerates the owner's position NFTs in index order.
func (m *PositionManager) ListPositionIDs(ctx context.Context, owner common.Address) ([]*uint256.Int, error) {
	values, err := callMethod(ctx, m.caller, m.address, m.abi, "balanceOf", owner)
	if err != nil {
		return nil, err
	}
	count, err := asUint256(values[0])
	if err != nil {
		return nil, err
	}
	if !count.IsUint64() {
		return nil, fmt.Errorf("position count overflow: %s", count.Dec())
	}

	n := count.Uint64()
	ids := make([]*uint256.Int, 0, n)
	for i := uint64(0); i < n; i++ {
		values, err := callMethod(ctx, m.caller, m.address, m.abi, "tokenOfOwnerByIndex", owner, new(big.Int).SetUint64(i))
		if err != nil {
			return nil, err
		}
		id, err := asUint256(values[0])
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Position reads the manager's record for id.
func (m *PositionManager) Position(ctx context.Context, id *uint256.Int) (model.Position, error) {
	values, err := callMethod(ctx, m.caller, m.address, m.abi, "positions", id.ToBig())
	if err != nil {
		return model.Position{}, err
	}
	if len(values) != 12 {
		return model.Position{}, fmt.Errorf("unexpected positions values: %d", len(values))
	}

	pos := model.Position{ID: new(uint256.Int).Set(id)}
	if pos.Token0, err = asAddress(values[2]); err != nil {
		return pos, err
	}
	if pos.Token1, err = asAddress(values[3]); err != nil {
		return pos, err
	}
	fee, err := asBigInt(values[4])
	if err != nil {
		return pos, err
	}
	pos.Fee = model.FeeTier(fee.Uint64())
	if pos.TickLower, err = asInt24(values[5]); err != nil {
		return pos, err
	}
	if pos.TickUpper, err = asInt24(values[6]); err != nil {
		return pos, err
	}
	if pos.Liquidity, err = asUint256(values[7]); err != nil {
		return pos, err
	}
	if pos.FeeGrowthInside0LastX128, err = asUint256(values[8]); err != nil {
		return pos, err
	}
	if pos.FeeGrowthInside1LastX128, err = asUint256(values[9]); err != nil {
		return pos, err
	}
	if pos.TokensOwed0, err = asUint256(values[10]); err != nil {
		return pos, err
	}
	if pos.TokensOwed1, err = asUint256(values[11]); err != nil {
		return pos, err
	}
	return pos, nil
}

// Mint opens a position and decodes the new token id from the receipt.
func (m *PositionManager) Mint(ctx context.Context, params model.MintParams) (model.MintResult, error) {
	args := mintArgs{
		Token0:         params.Token0,
		Token1:         params.Token1,
		Fee:            new(big.Int).SetUint64(uint64(params.Fee)),
		TickLower:      big.NewInt(int64(params.TickLower)),
		TickUpper:      big.NewInt(int64(params.TickUpper)),
		Amount0Desired: bigOrZero(params.Amount0Desired),
		Amount1Desired: bigOrZero(params.Amount1Desired),
		Amount0Min:     bigOrZero(params.Amount0Min),
		Amount1Min:     bigOrZero(params.Amount1Min),
		Recipient:      params.Recipient,
		Deadline:       big.NewInt(params.Deadline.Unix()),
	}
	receipt, err := sendMethod(ctx, m.sender, m.address, m.abi, "mint", args)
	if err != nil {
		return model.MintResult{}, err
	}
	events, err := decodeLiquidityEvents(receipt, m.address, m.abi.Events["IncreaseLiquidity"])
	if err != nil {
		return model.MintResult{}, err
	}
	if len(events) != 1 {
		return model.MintResult{}, fmt.Errorf("mint %s: expected 1 IncreaseLiquidity event, got %d", receipt.TxHash.Hex(), len(events))
	}
	ev := events[0]
	m.logger.Info("position minted",
		zap.String("token_id", ev.TokenID.Dec()),
		zap.String("liquidity", ev.Liquidity.Dec()),
		zap.String("tx", receipt.TxHash.Hex()),
	)
	return model.MintResult{
		PositionID: ev.TokenID,
		Liquidity:  ev.Liquidity,
		Amount0:    ev.Amount0,
		Amount1:    ev.Amount1,
		TxHash:     receipt.TxHash,
	}, nil
}

func (m *PositionManager) IncreaseLiquidity(ctx context.Context, params model.IncreaseParams) (model.LiquidityChange, error) {
	args := increaseArgs{
		TokenId:        params.PositionID.ToBig(),
		Amount0Desired: bigOrZero(params.Amount0Desired),
		Amount1Desired: bigOrZero(params.Amount1Desired),
		Amount0Min:     bigOrZero(params.Amount0Min),
		Amount1Min:     bigOrZero(params.Amount1Min),
		Deadline:       big.NewInt(params.Deadline.Unix()),
	}
	receipt, err := sendMethod(ctx, m.sender, m.address, m.abi, "increaseLiquidity", args)
	if err != nil {
		return model.LiquidityChange{}, err
	}
	return m.liquidityChange(receipt, "IncreaseLiquidity")
}

func (m *PositionManager) DecreaseLiquidity(ctx context.Context, params model.DecreaseParams) (model.LiquidityChange, error) {
	args := decreaseArgs{
		TokenId:    params.PositionID.ToBig(),
		Liquidity:  bigOrZero(params.Liquidity),
		Amount0Min: bigOrZero(params.Amount0Min),
		Amount1Min: bigOrZero(params.Amount1Min),
		Deadline:   big.NewInt(params.Deadline.Unix()),
	}
	receipt, err := sendMethod(ctx, m.sender, m.address, m.abi, "decreaseLiquidity", args)
	if err != nil {
		return model.LiquidityChange{}, err
	}
	return m.liquidityChange(receipt, "DecreaseLiquidity")
}

func (m *PositionManager) liquidityChange(receipt *types.Receipt, name string) (model.LiquidityChange, error) {
	events, err := decodeLiquidityEvents(receipt, m.address, m.abi.Events[name])
	if err != nil {
		return model.LiquidityChange{}, err
	}
	if len(events) != 1 {
		return model.LiquidityChange{}, fmt.Errorf("%s %s: expected 1 event, got %d", name, receipt.TxHash.Hex(), len(events))
	}
	return model.LiquidityChange{
		Liquidity: events[0].Liquidity,
		Amount0:   events[0].Amount0,
		Amount1:   events[0].Amount1,
		TxHash:    receipt.TxHash,
	}, nil
}

// Collect transfers every owed token of the position to recipient.
func (m *PositionManager) Collect(ctx context.Context, id *uint256.Int, recipient common.Address) (model.CollectResult, error) {
	args := collectArgs{
		TokenId:    id.ToBig(),
		Recipient:  recipient,
		Amount0Max: maxUint128,
		Amount1Max: maxUint128,
	}
	receipt, err := sendMethod(ctx, m.sender, m.address, m.abi, "collect", args)
	if err != nil {
		return model.CollectResult{}, err
	}
	events, err := decodeCollectEvents(receipt, m.address, m.abi.Events["Collect"])
	if err != nil {
		return model.CollectResult{}, err
	}
	result := model.CollectResult{Amount0: new(uint256.Int), Amount1: new(uint256.Int), TxHash: receipt.TxHash}
	for _, ev := range events {
		result.Amount0.Add(result.Amount0, ev.Amount0)
		result.Amount1.Add(result.Amount1, ev.Amount1)
	}
	return result, nil
}

// Burn destroys an empty position NFT.
func (m *PositionManager) Burn(ctx context.Context, id *uint256.Int) (common.Hash, error) {
	receipt, err := sendMethod(ctx, m.sender, m.address, m.abi, "burn", id.ToBig())
	if err != nil {
		return common.Hash{}, err
	}
	return receipt.TxHash, nil
}
