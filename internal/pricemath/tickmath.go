package pricemath

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

const (
	// MinTick is the lowest tick whose sqrt ratio fits the Q64.96 encoding.
	MinTick int32 = -887272
	// MaxTick is the highest supported tick.
	MaxTick int32 = -MinTick
)

var (
	ErrTickOutOfRange      = errors.New("tick out of range")
	ErrSqrtPriceOutOfRange = errors.New("sqrt price out of range")
	ErrInvalidSpacing      = errors.New("invalid tick spacing")
)

var (
	// MinSqrtRatio is SqrtRatioAtTick(MinTick).
	MinSqrtRatio = uint256.NewInt(4295128739)
	// MaxSqrtRatio is SqrtRatioAtTick(MaxTick).
	MaxSqrtRatio = mustHex("0xfffd8963efd1fc6a506488495d951d5263988d26")

	oddTickRatio = mustHex("0xfffcb933bd6fad37aa2d162d1a594001")
	q128One      = new(uint256.Int).Lsh(uint256.NewInt(1), 128)
	maxUint256   = new(uint256.Int).SetAllOne()

	// ratioFactors[i] is 1/sqrt(1.0001)^(2^(i+1)) as Q128.128.
	ratioFactors = []*uint256.Int{
		mustHex("0xfff97272373d413259a46990580e213a"),
		mustHex("0xfff2e50f5f656932ef12357cf3c7fdcc"),
		mustHex("0xffe5caca7e10e4e61c3624eaa0941cd0"),
		mustHex("0xffcb9843d60f6159c9db58835c926644"),
		mustHex("0xff973b41fa98c081472e6896dfb254c0"),
		mustHex("0xff2ea16466c96a3843ec78b326b52861"),
		mustHex("0xfe5dee046a99a2a811c461f1969c3053"),
		mustHex("0xfcbe86c7900a88aedcffc83b479aa3a4"),
		mustHex("0xf987a7253ac413176f2b074cf7815e54"),
		mustHex("0xf3392b0822b70005940c7a398e4b70f3"),
		mustHex("0xe7159475a2c29b7443b29c7fa6e889d9"),
		mustHex("0xd097f3bdfd2022b8845ad8f792aa5825"),
		mustHex("0xa9f746462d870fdf8a65dc1f90e061e5"),
		mustHex("0x70d869a156d2a1b890bb3df62baf32f7"),
		mustHex("0x31be135f97d08fd981231505542fcfa6"),
		mustHex("0x9aa508b5b7a84e1c677de54f3e99bc9"),
		mustHex("0x5d6af8dedb81196699c329225ee604"),
		mustHex("0x2216e584f5fa1ea926041bedfe98"),
		mustHex("0x48a170391f7dc42444e8fa2"),
	}
)

func mustHex(s string) *uint256.Int {
	v, err := uint256.FromHex(s)
	if err != nil {
		panic(fmt.Sprintf("pricemath: bad constant %s: %v", s, err))
	}
	return v
}

// SqrtRatioAtTick returns sqrt(1.0001^tick) as a Q64.96 value, rounded up.
func SqrtRatioAtTick(tick int32) (*uint256.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, fmt.Errorf("%w: %d", ErrTickOutOfRange, tick)
	}
	return sqrtRatioAtTick(tick), nil
}

func sqrtRatioAtTick(tick int32) *uint256.Int {
	absTick := uint32(tick)
	if tick < 0 {
		absTick = uint32(-tick)
	}

	ratio := new(uint256.Int)
	if absTick&0x1 != 0 {
		ratio.Set(oddTickRatio)
	} else {
		ratio.Set(q128One)
	}
	for i, factor := range ratioFactors {
		if absTick&(uint32(1)<<(i+1)) != 0 {
			ratio.Mul(ratio, factor)
			ratio.Rsh(ratio, 128)
		}
	}
	if tick > 0 {
		ratio.Div(maxUint256, ratio)
	}

	// Q128.128 to Q64.96, rounding up so the result never undershoots the tick.
	out := new(uint256.Int).Rsh(ratio, 32)
	if ratio.Uint64()&0xffffffff != 0 {
		out.AddUint64(out, 1)
	}
	return out
}

// TickAtSqrtRatio returns the greatest tick whose sqrt ratio is <= sqrtPriceX96.
func TickAtSqrtRatio(sqrtPriceX96 *uint256.Int) (int32, error) {
	if sqrtPriceX96 == nil || sqrtPriceX96.Lt(MinSqrtRatio) || sqrtPriceX96.Gt(MaxSqrtRatio) {
		return 0, fmt.Errorf("%w: %v", ErrSqrtPriceOutOfRange, sqrtPriceX96)
	}
	lo, hi := MinTick, MaxTick
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		if sqrtRatioAtTick(mid).Gt(sqrtPriceX96) {
			hi = mid - 1
		} else {
			lo = mid
		}
	}
	return lo, nil
}

// RoundToSpacing floors tick to the nearest multiple of spacing at or below it.
func RoundToSpacing(tick, spacing int32) (int32, error) {
	if spacing <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidSpacing, spacing)
	}
	q := tick / spacing
	if tick%spacing != 0 && tick < 0 {
		q--
	}
	out := q * spacing
	if out < MinTick || out > MaxTick {
		return 0, fmt.Errorf("%w: %d", ErrTickOutOfRange, out)
	}
	return out, nil
}
