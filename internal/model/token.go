package model

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// Token is an ERC20 asset with the metadata needed to express amounts in human units.
type Token struct {
	Address  common.Address `json:"address"`
	Symbol   string         `json:"symbol"`
	Decimals uint8          `json:"decimals"`
}

// ToDecimal converts a raw amount in the token's smallest unit to human units.
func (t Token) ToDecimal(amount *uint256.Int) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount.ToBig(), -int32(t.Decimals))
}

// FormatAmount renders a raw amount with the token's full decimal precision.
func (t Token) FormatAmount(amount *uint256.Int) string {
	return t.ToDecimal(amount).StringFixed(int32(t.Decimals))
}

func (t Token) String() string {
	if t.Symbol != "" {
		return t.Symbol
	}
	return t.Address.Hex()
}
