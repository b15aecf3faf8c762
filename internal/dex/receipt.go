package dex

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
)

// liquidityEvent is the payload shared by IncreaseLiquidity and DecreaseLiquidity.
type liquidityEvent struct {
	TokenID   *uint256.Int
	Liquidity *uint256.Int
	Amount0   *uint256.Int
	Amount1   *uint256.Int
}

type collectEvent struct {
	TokenID   *uint256.Int
	Recipient common.Address
	Amount0   *uint256.Int
	Amount1   *uint256.Int
}

func matchingLogs(receipt *types.Receipt, emitter common.Address, event abi.Event) []*types.Log {
	if receipt == nil {
		return nil
	}
	var out []*types.Log
	for _, log := range receipt.Logs {
		if log.Address != emitter || len(log.Topics) == 0 || log.Topics[0] != event.ID {
			continue
		}
		out = append(out, log)
	}
	return out
}

func decodeLiquidityEvents(receipt *types.Receipt, emitter common.Address, event abi.Event) ([]liquidityEvent, error) {
	logs := matchingLogs(receipt, emitter, event)
	out := make([]liquidityEvent, 0, len(logs))
	for _, log := range logs {
		if len(log.Topics) != 2 {
			return nil, fmt.Errorf("%s: expected 2 topics, got %d", event.Name, len(log.Topics))
		}
		values, err := unpackNonIndexed(event, log.Data)
		if err != nil {
			return nil, err
		}
		if len(values) != 3 {
			return nil, fmt.Errorf("unexpected %s values: %d", event.Name, len(values))
		}
		decoded := liquidityEvent{TokenID: new(uint256.Int).SetBytes(log.Topics[1].Bytes())}
		if decoded.Liquidity, err = asUint256(values[0]); err != nil {
			return nil, err
		}
		if decoded.Amount0, err = asUint256(values[1]); err != nil {
			return nil, err
		}
		if decoded.Amount1, err = asUint256(values[2]); err != nil {
			return nil, err
		}
		out = append(out, decoded)
	}
	return out, nil
}

func decodeCollectEvents(receipt *types.Receipt, emitter common.Address, event abi.Event) ([]collectEvent, error) {
	logs := matchingLogs(receipt, emitter, event)
	out := make([]collectEvent, 0, len(logs))
	for _, log := range logs {
		if len(log.Topics) != 2 {
			return nil, fmt.Errorf("%s: expected 2 topics, got %d", event.Name, len(log.Topics))
		}
		values, err := unpackNonIndexed(event, log.Data)
		if err != nil {
			return nil, err
		}
		if len(values) != 3 {
			return nil, fmt.Errorf("unexpected %s values: %d", event.Name, len(values))
		}
		decoded := collectEvent{TokenID: new(uint256.Int).SetBytes(log.Topics[1].Bytes())}
		if decoded.Recipient, err = asAddress(values[0]); err != nil {
			return nil, err
		}
		if decoded.Amount0, err = asUint256(values[1]); err != nil {
			return nil, err
		}
		if decoded.Amount1, err = asUint256(values[2]); err != nil {
			return nil, err
		}
		out = append(out, decoded)
	}
	return out, nil
}

// transferredTo sums ERC20 Transfer amounts of token received by to.
func transferredTo(receipt *types.Receipt, token, to common.Address, event abi.Event) (*uint256.Int, error) {
	total := new(uint256.Int)
	for _, log := range matchingLogs(receipt, token, event) {
		if len(log.Topics) != 3 {
			continue
		}
		if common.BytesToAddress(log.Topics[2].Bytes()) != to {
			continue
		}
		values, err := unpackNonIndexed(event, log.Data)
		if err != nil {
			return nil, err
		}
		amount, err := asUint256(values[0])
		if err != nil {
			return nil, err
		}
		total.Add(total, amount)
	}
	return total, nil
}

func unpackNonIndexed(event abi.Event, data []byte) ([]interface{}, error) {
	values, err := event.Inputs.NonIndexed().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", event.Name, err)
	}
	return values, nil
}
