package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// ErrReverted is returned when a mined transaction has a failed status.
var ErrReverted = errors.New("transaction reverted")

// Transactor signs transactions with a local key and waits for their receipts.
type Transactor struct {
	client  *Client
	key     *ecdsa.PrivateKey
	from    common.Address
	chainID *big.Int
	logger  *zap.Logger
}

// NewTransactor parses a hex private key and binds it to the client's chain.
func NewTransactor(ctx context.Context, client *Client, hexKey string, logger *zap.Logger) (*Transactor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	chainID, err := client.GetChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("get chain id: %w", err)
	}
	return &Transactor{
		client:  client,
		key:     key,
		from:    crypto.PubkeyToAddress(key.PublicKey),
		chainID: chainID,
		logger:  logger,
	}, nil
}

// From returns the signing address.
func (t *Transactor) From() common.Address {
	return t.from
}

// Send submits calldata to the target contract and blocks until the receipt is mined.
// A mined but failed transaction returns the receipt together with ErrReverted.
func (t *Transactor) Send(ctx context.Context, to common.Address, data []byte) (*types.Receipt, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(t.key, t.chainID)
	if err != nil {
		return nil, fmt.Errorf("build transactor: %w", err)
	}
	opts.Context = ctx

	backend := t.client.ethClient
	contract := bind.NewBoundContract(to, abi.ABI{}, backend, backend, backend)
	tx, err := contract.RawTransact(opts, data)
	if err != nil {
		return nil, fmt.Errorf("send transaction to %s: %w", to.Hex(), err)
	}
	t.logger.Debug("transaction sent", zap.String("tx", tx.Hash().Hex()), zap.String("to", to.Hex()))

	receipt, err := bind.WaitMined(ctx, backend, tx)
	if err != nil {
		return nil, fmt.Errorf("wait for %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("%w: %s", ErrReverted, tx.Hash().Hex())
	}
	t.logger.Debug("transaction mined",
		zap.String("tx", tx.Hash().Hex()),
		zap.Uint64("block", receipt.BlockNumber.Uint64()),
		zap.Uint64("gas_used", receipt.GasUsed),
	)
	return receipt, nil
}
