package keeper

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xb1002/onchainLpV2/internal/pricemath"
)

func TestPlanSwap(t *testing.T) {
	tolerance := decimal.RequireFromString("0.05")
	parity := pricemath.Q96

	tests := []struct {
		name       string
		balance0   uint64
		balance1   uint64
		wantNil    bool
		zeroForOne bool
		amountIn   uint64
	}{
		{name: "excess token0", balance0: 300, balance1: 100, zeroForOne: true, amountIn: 100},
		{name: "excess token1", balance0: 0, balance1: 1000, amountIn: 500},
		{name: "within tolerance", balance0: 100, balance1: 104, wantNil: true},
		{name: "empty wallet", wantNil: true},
		{name: "balanced", balance0: 50, balance1: 50, wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := PlanSwap(uint256.NewInt(tt.balance0), uint256.NewInt(tt.balance1), parity, tolerance)
			if tt.wantNil {
				assert.Nil(t, plan)
				return
			}
			require.NotNil(t, plan)
			assert.Equal(t, tt.zeroForOne, plan.ZeroForOne)
			assert.Equal(t, tt.amountIn, plan.AmountIn.Uint64())
		})
	}
}

func TestPlanSwapPricesToken0(t *testing.T) {
	// sqrt(4) * 2^96: one token0 is worth four token1.
	sqrt := new(uint256.Int).Lsh(uint256.NewInt(2), 96)
	plan := PlanSwap(uint256.NewInt(100), uint256.NewInt(0), sqrt, decimal.Zero)
	require.NotNil(t, plan)
	assert.True(t, plan.ZeroForOne)
	assert.Equal(t, uint64(50), plan.AmountIn.Uint64())
	assert.True(t, plan.Target.Equal(decimal.NewFromInt(200)))
}

func TestMinimumOut(t *testing.T) {
	assert.Equal(t, uint64(99), minimumOut(uint256.NewInt(100), decimal.RequireFromString("0.01")).Uint64())
	assert.True(t, minimumOut(uint256.NewInt(100), decimal.NewFromInt(1)).IsZero())
	assert.True(t, minimumOut(nil, decimal.Zero).IsZero())
}
