package pricemath

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"github.com/xb1002/onchainLpV2/internal/model"
)

const pricePrecision = 18

var q192 = decimal.NewFromBigInt(new(big.Int).Lsh(big.NewInt(1), 192), 0)

// RawPrice is sqrtPriceX96^2 / 2^192, the ratio of token1 to token0 in smallest units.
func RawPrice(sqrtPriceX96 *uint256.Int) decimal.Decimal {
	x := sqrtPriceX96.ToBig()
	sq := new(big.Int).Mul(x, x)
	return decimal.NewFromBigInt(sq, 0).DivRound(q192, 2*pricePrecision)
}

// AdjustPriceForDecimals scales rawPrice by 10^(decimals1-decimals0).
//
// A price quoted in whole tokens (token1 per token0) maps onto the pool's
// smallest-unit ratio this way. HumanPrice is the inverse direction.
func AdjustPriceForDecimals(rawPrice decimal.Decimal, token0, token1 model.Token) decimal.Decimal {
	return rawPrice.Shift(int32(token1.Decimals) - int32(token0.Decimals))
}

// HumanPrice returns the pool price as whole token1 per whole token0.
func HumanPrice(sqrtPriceX96 *uint256.Int, token0, token1 model.Token) decimal.Decimal {
	x := sqrtPriceX96.ToBig()
	sq := new(big.Int).Mul(x, x)
	scaled := decimal.NewFromBigInt(sq, int32(token0.Decimals)-int32(token1.Decimals))
	return scaled.DivRound(q192, pricePrecision)
}

// TickPrice returns the human price at a tick boundary.
func TickPrice(tick int32, token0, token1 model.Token) (decimal.Decimal, error) {
	sqrtRatio, err := SqrtRatioAtTick(tick)
	if err != nil {
		return decimal.Zero, err
	}
	return HumanPrice(sqrtRatio, token0, token1), nil
}
