package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Caller performs read-only contract calls.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Sender submits signed transactions and returns once they are mined.
type Sender interface {
	From() common.Address
	Send(ctx context.Context, to common.Address, data []byte) (*types.Receipt, error)
}

func callMethod(ctx context.Context, caller Caller, to common.Address, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	return simulateMethod(ctx, caller, common.Address{}, to, parsed, method, args...)
}

// simulateMethod runs method as an eth_call from the given account.
func simulateMethod(ctx context.Context, caller Caller, from, to common.Address, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{From: from, To: &to, Data: data}
	resp, err := caller.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

func sendMethod(ctx context.Context, sender Sender, to common.Address, parsed abi.ABI, method string, args ...interface{}) (*types.Receipt, error) {
	if sender == nil {
		return nil, fmt.Errorf("%s: no signer configured", method)
	}
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	receipt, err := sender.Send(ctx, to, data)
	if err != nil {
		return receipt, fmt.Errorf("send %s: %w", method, err)
	}
	return receipt, nil
}
