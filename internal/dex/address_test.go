package dex

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xb1002/onchainLpV2/internal/model"
)

func TestComputePoolAddressMainnet(t *testing.T) {
	factory := common.HexToAddress("0x1F98431c8aD98523631AE4a59f267346ea31F984")
	usdc := common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	weth := common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")

	tests := []struct {
		fee  model.FeeTier
		want common.Address
	}{
		{fee: model.FeeLow, want: common.HexToAddress("0x88e6A0c2dDD26FEEb64F039a2c41296FcB3f5640")},
		{fee: model.FeeMedium, want: common.HexToAddress("0x8ad599c3A0ff1De082011EFDDc58f1908eb6e6D8")},
	}
	for _, tc := range tests {
		got := ComputePoolAddress(factory, DefaultPoolInitCodeHash, weth, usdc, tc.fee)
		if got != tc.want {
			t.Fatalf("fee %d: want %s got %s", tc.fee, tc.want.Hex(), got.Hex())
		}
		if swapped := ComputePoolAddress(factory, DefaultPoolInitCodeHash, usdc, weth, tc.fee); swapped != got {
			t.Fatalf("fee %d: token order changed address: %s", tc.fee, swapped.Hex())
		}
	}
}
