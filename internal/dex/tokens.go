package dex

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/xb1002/onchainLpV2/internal/model"
)

// TokenCache keeps token metadata keyed by address.
type TokenCache struct {
	mu    sync.RWMutex
	items map[common.Address]model.Token
}

func NewTokenCache() *TokenCache {
	return &TokenCache{items: make(map[common.Address]model.Token)}
}

func (c *TokenCache) Get(address common.Address) (model.Token, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	token, ok := c.items[address]
	return token, ok
}

func (c *TokenCache) Set(token model.Token) {
	c.mu.Lock()
	c.items[token.Address] = token
	c.mu.Unlock()
}

// ERC20 is the asset-contract capability shared by every pool token.
type ERC20 struct {
	caller  Caller
	sender  Sender
	cache   *TokenCache
	abi     abi.ABI
	bytes32 abi.ABI
	logger  *zap.Logger
}

// NewERC20 returns a token client. sender may be nil for read-only use.
func NewERC20(caller Caller, sender Sender, logger *zap.Logger) (*ERC20, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	stringABI, err := erc20ABIStringInstance()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 string abi: %w", err)
	}
	bytes32ABI, err := erc20ABIBytes32Instance()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}
	return &ERC20{
		caller:  caller,
		sender:  sender,
		cache:   NewTokenCache(),
		abi:     stringABI,
		bytes32: bytes32ABI,
		logger:  logger,
	}, nil
}

// Token loads decimals and symbol once per address.
func (e *ERC20) Token(ctx context.Context, address common.Address) (model.Token, error) {
	if token, ok := e.cache.Get(address); ok {
		return token, nil
	}
	token := model.Token{Address: address}

	values, err := callMethod(ctx, e.caller, address, e.abi, "decimals")
	if err != nil {
		return token, err
	}
	if token.Decimals, err = asUint8(values[0]); err != nil {
		return token, err
	}

	if values, err := callMethod(ctx, e.caller, address, e.abi, "symbol"); err == nil {
		if symbol, ok := values[0].(string); ok {
			token.Symbol = symbol
		}
	} else if values, err := callMethod(ctx, e.caller, address, e.bytes32, "symbol"); err == nil {
		if symbol, ok := bytes32ToString(values[0]); ok {
			token.Symbol = symbol
		}
	} else {
		e.logger.Debug("symbol call failed", zap.String("token", address.Hex()), zap.Error(err))
	}

	e.cache.Set(token)
	return token, nil
}

func (e *ERC20) BalanceOf(ctx context.Context, token, owner common.Address) (*uint256.Int, error) {
	values, err := callMethod(ctx, e.caller, token, e.abi, "balanceOf", owner)
	if err != nil {
		return nil, err
	}
	return asUint256(values[0])
}

func (e *ERC20) Allowance(ctx context.Context, token, owner, spender common.Address) (*uint256.Int, error) {
	values, err := callMethod(ctx, e.caller, token, e.abi, "allowance", owner, spender)
	if err != nil {
		return nil, err
	}
	return asUint256(values[0])
}

func (e *ERC20) Approve(ctx context.Context, token, spender common.Address, amount *uint256.Int) (common.Hash, error) {
	receipt, err := sendMethod(ctx, e.sender, token, e.abi, "approve", spender, amount.ToBig())
	if err != nil {
		return common.Hash{}, err
	}
	return receipt.TxHash, nil
}

func (e *ERC20) Transfer(ctx context.Context, token, to common.Address, amount *uint256.Int) (common.Hash, error) {
	receipt, err := sendMethod(ctx, e.sender, token, e.abi, "transfer", to, amount.ToBig())
	if err != nil {
		return common.Hash{}, err
	}
	return receipt.TxHash, nil
}

// allowanceFloor is 80% of max uint256; allowances below it are topped back up to max.
var allowanceFloor = new(uint256.Int).Mul(
	new(uint256.Int).Div(new(uint256.Int).SetAllOne(), uint256.NewInt(10)),
	uint256.NewInt(8),
)

// EnsureAllowance approves spender for max uint256 when the current allowance is below
// 80% of max. It reports whether an approval was sent.
func (e *ERC20) EnsureAllowance(ctx context.Context, token, spender common.Address) (bool, error) {
	if e.sender == nil {
		return false, fmt.Errorf("ensure allowance: no signer configured")
	}
	owner := e.sender.From()
	current, err := e.Allowance(ctx, token, owner, spender)
	if err != nil {
		return false, err
	}
	if !current.Lt(allowanceFloor) {
		return false, nil
	}
	hash, err := e.Approve(ctx, token, spender, new(uint256.Int).SetAllOne())
	if err != nil {
		return false, err
	}
	e.logger.Info("allowance approved",
		zap.String("token", token.Hex()),
		zap.String("spender", spender.Hex()),
		zap.String("tx", hash.Hex()),
	)
	return true, nil
}
