package model

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// FeeTier is the pool swap fee in hundredths of a basis point.
type FeeTier uint32

const (
	FeeLow    FeeTier = 500
	FeeMedium FeeTier = 3000
	FeeHigh   FeeTier = 10000
)

// ParseFeeTier validates a raw fee value.
func ParseFeeTier(fee uint32) (FeeTier, error) {
	switch FeeTier(fee) {
	case FeeLow, FeeMedium, FeeHigh:
		return FeeTier(fee), nil
	}
	return 0, fmt.Errorf("unsupported fee tier %d", fee)
}

// TickSpacing returns the minimum tick increment for the fee tier.
func (f FeeTier) TickSpacing() int32 {
	switch f {
	case FeeLow:
		return 10
	case FeeMedium:
		return 60
	case FeeHigh:
		return 200
	}
	return 0
}

// Pool identifies a V3 pool by its canonically ordered token pair and fee tier.
type Pool struct {
	Address common.Address `json:"address"`
	Token0  Token          `json:"token0"`
	Token1  Token          `json:"token1"`
	Fee     FeeTier        `json:"fee"`
}

// NewPool orders the pair so that token0 sorts below token1. Reversed input is swapped.
func NewPool(address common.Address, a, b Token, fee FeeTier) Pool {
	if SortsBefore(b.Address, a.Address) {
		a, b = b, a
	}
	return Pool{Address: address, Token0: a, Token1: b, Fee: fee}
}

// SortsBefore reports whether a orders below b as raw address bytes.
func SortsBefore(a, b common.Address) bool {
	return bytes.Compare(a.Bytes(), b.Bytes()) < 0
}

func (p Pool) TickSpacing() int32 {
	return p.Fee.TickSpacing()
}

// TokenByAddress returns the pool token matching addr.
func (p Pool) TokenByAddress(addr common.Address) (Token, bool) {
	switch addr {
	case p.Token0.Address:
		return p.Token0, true
	case p.Token1.Address:
		return p.Token1, true
	}
	return Token{}, false
}

func (p Pool) String() string {
	return fmt.Sprintf("%s/%s %d", p.Token0, p.Token1, p.Fee)
}
