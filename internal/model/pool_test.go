package model

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestNewPoolCanonicalOrder(t *testing.T) {
	usdc := Token{Address: common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"), Symbol: "USDC", Decimals: 6}
	weth := Token{Address: common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"), Symbol: "WETH", Decimals: 18}

	for _, pool := range []Pool{NewPool(common.Address{}, usdc, weth, FeeLow), NewPool(common.Address{}, weth, usdc, FeeLow)} {
		if pool.Token0.Symbol != "USDC" || pool.Token1.Symbol != "WETH" {
			t.Fatalf("expected USDC/WETH, got %s", pool)
		}
	}

	pool := NewPool(common.Address{}, weth, usdc, FeeLow)
	if tok, ok := pool.TokenByAddress(weth.Address); !ok || tok.Decimals != 18 {
		t.Fatalf("lookup weth: %v %v", tok, ok)
	}
	if _, ok := pool.TokenByAddress(common.Address{}); ok {
		t.Fatalf("zero address should not match")
	}
	if got := pool.String(); got != "USDC/WETH 500" {
		t.Fatalf("unexpected string %q", got)
	}
}

func TestFeeTiers(t *testing.T) {
	tests := []struct {
		fee     uint32
		spacing int32
		wantErr bool
	}{
		{fee: 500, spacing: 10},
		{fee: 3000, spacing: 60},
		{fee: 10000, spacing: 200},
		{fee: 100, wantErr: true},
		{fee: 0, wantErr: true},
	}

	for _, tt := range tests {
		tier, err := ParseFeeTier(tt.fee)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("fee %d: expected error", tt.fee)
			}
			continue
		}
		if err != nil {
			t.Fatalf("fee %d: %v", tt.fee, err)
		}
		if tier.TickSpacing() != tt.spacing {
			t.Fatalf("fee %d: spacing %d, want %d", tt.fee, tier.TickSpacing(), tt.spacing)
		}
	}
}
