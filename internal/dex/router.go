package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/xb1002/onchainLpV2/internal/model"
)

type exactInputSingleArgs struct {
	TokenIn           common.Address
	TokenOut          common.Address
	Fee               *big.Int
	Recipient         common.Address
	AmountIn          *big.Int
	AmountOutMinimum  *big.Int
	SqrtPriceLimitX96 *big.Int
}

// Router executes single-pool swaps through SwapRouter02.
type Router struct {
	caller   Caller
	sender   Sender
	address  common.Address
	abi      abi.ABI
	transfer abi.Event
	logger   *zap.Logger
}

func NewRouter(caller Caller, sender Sender, address common.Address, logger *zap.Logger) (*Router, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	parsed, err := SwapRouterABI()
	if err != nil {
		return nil, fmt.Errorf("parse swap router abi: %w", err)
	}
	erc20, err := erc20ABIStringInstance()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 string abi: %w", err)
	}
	return &Router{
		caller:   caller,
		sender:   sender,
		address:  address,
		abi:      parsed,
		transfer: erc20.Events["Transfer"],
		logger:   logger,
	}, nil
}

func (r *Router) Address() common.Address {
	return r.address
}

// SwapExactIn swaps AmountIn of TokenIn for TokenOut. With Simulate set the swap
// runs as an eth_call and nothing is committed.
func (r *Router) SwapExactIn(ctx context.Context, params model.SwapParams) (model.SwapResult, error) {
	if params.AmountIn == nil || params.AmountIn.IsZero() {
		return model.SwapResult{}, fmt.Errorf("swap amount is zero")
	}
	args := exactInputSingleArgs{
		TokenIn:           params.TokenIn,
		TokenOut:          params.TokenOut,
		Fee:               new(big.Int).SetUint64(uint64(params.Fee)),
		Recipient:         params.Recipient,
		AmountIn:          params.AmountIn.ToBig(),
		AmountOutMinimum:  bigOrZero(params.AmountOutMinimum),
		SqrtPriceLimitX96: new(big.Int),
	}

	if params.Simulate {
		var from common.Address
		if r.sender != nil {
			from = r.sender.From()
		}
		values, err := simulateMethod(ctx, r.caller, from, r.address, r.abi, "exactInputSingle", args)
		if err != nil {
			return model.SwapResult{}, err
		}
		out, err := asUint256(values[0])
		if err != nil {
			return model.SwapResult{}, err
		}
		return model.SwapResult{AmountOut: out}, nil
	}

	receipt, err := sendMethod(ctx, r.sender, r.address, r.abi, "exactInputSingle", args)
	if err != nil {
		return model.SwapResult{}, err
	}
	out, err := transferredTo(receipt, params.TokenOut, params.Recipient, r.transfer)
	if err != nil {
		return model.SwapResult{}, err
	}
	r.logger.Info("swap executed",
		zap.String("token_in", params.TokenIn.Hex()),
		zap.String("token_out", params.TokenOut.Hex()),
		zap.String("amount_in", params.AmountIn.Dec()),
		zap.String("amount_out", out.Dec()),
		zap.String("tx", receipt.TxHash.Hex()),
	)
	return model.SwapResult{AmountOut: out, TxHash: receipt.TxHash}, nil
}
