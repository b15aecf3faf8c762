package model

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

func TestTokenFormatAmount(t *testing.T) {
	usdc := Token{Address: common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"), Symbol: "USDC", Decimals: 6}

	if got := usdc.FormatAmount(uint256.NewInt(1_234_567)); got != "1.234567" {
		t.Fatalf("unexpected amount %q", got)
	}
	if got := usdc.FormatAmount(nil); got != "0.000000" {
		t.Fatalf("unexpected nil amount %q", got)
	}
	if got := usdc.ToDecimal(uint256.NewInt(5)).String(); got != "0.000005" {
		t.Fatalf("unexpected decimal %q", got)
	}
	if got := (Token{Address: usdc.Address}).String(); got != usdc.Address.Hex() {
		t.Fatalf("unnamed token should print its address, got %q", got)
	}
}
