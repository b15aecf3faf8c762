package dex

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type sentTx struct {
	to     common.Address
	method string
	args   []interface{}
}

// fakeChain answers eth_calls from per-method handlers and records sent transactions.
type fakeChain struct {
	t        *testing.T
	parsed   abi.ABI
	from     common.Address
	handlers map[string]func(args []interface{}) []interface{}
	receipt  *types.Receipt
	sent     []sentTx
	calls    []ethereum.CallMsg
}

func newFakeChain(t *testing.T, parsed abi.ABI) *fakeChain {
	return &fakeChain{
		t:        t,
		parsed:   parsed,
		from:     common.HexToAddress("0x9999999999999999999999999999999999999999"),
		handlers: make(map[string]func(args []interface{}) []interface{}),
	}
}

func (f *fakeChain) on(method string, fn func(args []interface{}) []interface{}) {
	f.handlers[method] = fn
}

func (f *fakeChain) decode(data []byte) (*abi.Method, []interface{}) {
	method, err := f.parsed.MethodById(data[:4])
	if err != nil {
		f.t.Fatalf("unknown selector: %v", err)
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		f.t.Fatalf("unpack %s args: %v", method.Name, err)
	}
	return method, args
}

func (f *fakeChain) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.calls = append(f.calls, msg)
	method, args := f.decode(msg.Data)
	handler, ok := f.handlers[method.Name]
	if !ok {
		return nil, fmt.Errorf("no handler for %s", method.Name)
	}
	return method.Outputs.Pack(handler(args)...)
}

func (f *fakeChain) From() common.Address {
	return f.from
}

func (f *fakeChain) Send(_ context.Context, to common.Address, data []byte) (*types.Receipt, error) {
	method, args := f.decode(data)
	f.sent = append(f.sent, sentTx{to: to, method: method.Name, args: args})
	if f.receipt == nil {
		return &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: common.HexToHash("0x01")}, nil
	}
	return f.receipt, nil
}

func eventLog(t *testing.T, emitter common.Address, event abi.Event, topics []common.Hash, values ...interface{}) *types.Log {
	t.Helper()
	data, err := event.Inputs.NonIndexed().Pack(values...)
	if err != nil {
		t.Fatalf("pack %s: %v", event.Name, err)
	}
	return &types.Log{
		Address: emitter,
		Topics:  append([]common.Hash{event.ID}, topics...),
		Data:    data,
	}
}

func topicFromAddress(addr common.Address) common.Hash {
	return common.BytesToHash(common.LeftPadBytes(addr.Bytes(), 32))
}
