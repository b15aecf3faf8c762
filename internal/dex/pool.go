package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/xb1002/onchainLpV2/internal/model"
)

// PoolContract reads state from a V3 pool.
type PoolContract struct {
	caller  Caller
	address common.Address
	abi     abi.ABI
}

func NewPoolContract(caller Caller, address common.Address) (*PoolContract, error) {
	parsed, err := V3PoolABI()
	if err != nil {
		return nil, fmt.Errorf("parse pool abi: %w", err)
	}
	return &PoolContract{caller: caller, address: address, abi: parsed}, nil
}

func (p *PoolContract) Address() common.Address {
	return p.address
}

func (p *PoolContract) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	return callMethod(ctx, p.caller, p.address, p.abi, method, args...)
}

// Slot0 returns the current sqrt price and tick.
func (p *PoolContract) Slot0(ctx context.Context) (model.Slot0, error) {
	values, err := p.call(ctx, "slot0")
	if err != nil {
		return model.Slot0{}, err
	}
	if len(values) < 2 {
		return model.Slot0{}, fmt.Errorf("unexpected slot0 values: %d", len(values))
	}
	sqrtPrice, err := asUint256(values[0])
	if err != nil {
		return model.Slot0{}, fmt.Errorf("slot0 sqrtPriceX96: %w", err)
	}
	tick, err := asInt24(values[1])
	if err != nil {
		return model.Slot0{}, fmt.Errorf("slot0 tick: %w", err)
	}
	return model.Slot0{SqrtPriceX96: sqrtPrice, Tick: tick}, nil
}

// Tick returns the fee growth outside an initialized tick.
func (p *PoolContract) Tick(ctx context.Context, tick int32) (model.TickInfo, error) {
	values, err := p.call(ctx, "ticks", big.NewInt(int64(tick)))
	if err != nil {
		return model.TickInfo{}, err
	}
	if len(values) != 8 {
		return model.TickInfo{}, fmt.Errorf("unexpected ticks values: %d", len(values))
	}
	outside0, err := asUint256(values[2])
	if err != nil {
		return model.TickInfo{}, fmt.Errorf("feeGrowthOutside0X128: %w", err)
	}
	outside1, err := asUint256(values[3])
	if err != nil {
		return model.TickInfo{}, fmt.Errorf("feeGrowthOutside1X128: %w", err)
	}
	initialized, err := asBool(values[7])
	if err != nil {
		return model.TickInfo{}, fmt.Errorf("initialized: %w", err)
	}
	return model.TickInfo{
		FeeGrowthOutside0X128: outside0,
		FeeGrowthOutside1X128: outside1,
		Initialized:           initialized,
	}, nil
}

// FeeGrowthGlobal returns the cumulative fee growth per unit of liquidity for both tokens.
func (p *PoolContract) FeeGrowthGlobal(ctx context.Context) (*uint256.Int, *uint256.Int, error) {
	out := make([]*uint256.Int, 2)
	for i, method := range []string{"feeGrowthGlobal0X128", "feeGrowthGlobal1X128"} {
		values, err := p.call(ctx, method)
		if err != nil {
			return nil, nil, err
		}
		if len(values) != 1 {
			return nil, nil, fmt.Errorf("unexpected %s values: %d", method, len(values))
		}
		v, err := asUint256(values[0])
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", method, err)
		}
		out[i] = v
	}
	return out[0], out[1], nil
}

// PoolInfo reads the pool's immutable identity.
func (p *PoolContract) PoolInfo(ctx context.Context) (model.PoolInfo, error) {
	var info model.PoolInfo

	values, err := p.call(ctx, "token0")
	if err != nil {
		return info, err
	}
	if info.Token0, err = asAddress(values[0]); err != nil {
		return info, err
	}

	values, err = p.call(ctx, "token1")
	if err != nil {
		return info, err
	}
	if info.Token1, err = asAddress(values[0]); err != nil {
		return info, err
	}

	values, err = p.call(ctx, "fee")
	if err != nil {
		return info, err
	}
	feeValue, err := asBigInt(values[0])
	if err != nil {
		return info, err
	}
	if info.Fee, err = model.ParseFeeTier(uint32(feeValue.Uint64())); err != nil {
		return info, err
	}

	values, err = p.call(ctx, "tickSpacing")
	if err != nil {
		return info, err
	}
	if info.TickSpacing, err = asInt24(values[0]); err != nil {
		return info, err
	}
	if info.TickSpacing != info.Fee.TickSpacing() {
		return info, fmt.Errorf("pool %s tick spacing %d does not match fee tier %d", p.address.Hex(), info.TickSpacing, info.Fee)
	}
	return info, nil
}
