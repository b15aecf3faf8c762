package pricemath

import (
	"errors"
	"fmt"
	"testing"

	"github.com/holiman/uint256"
)

func TestSqrtRatioAtTickKnownValues(t *testing.T) {
	tests := []struct {
		tick int32
		want *uint256.Int
	}{
		{MinTick, MinSqrtRatio},
		{MaxTick, MaxSqrtRatio},
		{0, Q96},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprint(tc.tick), func(t *testing.T) {
			got, err := SqrtRatioAtTick(tc.tick)
			if err != nil {
				t.Fatalf("sqrt ratio: %v", err)
			}
			if !got.Eq(tc.want) {
				t.Fatalf("want=%s got=%s", tc.want.Dec(), got.Dec())
			}
		})
	}
}

func TestSqrtRatioAtTickOutOfRange(t *testing.T) {
	for _, tick := range []int32{MinTick - 1, MaxTick + 1} {
		if _, err := SqrtRatioAtTick(tick); !errors.Is(err, ErrTickOutOfRange) {
			t.Fatalf("tick %d: expected ErrTickOutOfRange, got %v", tick, err)
		}
	}
}

func TestTickAtSqrtRatioRoundTrip(t *testing.T) {
	check := func(tick int32) {
		ratio, err := SqrtRatioAtTick(tick)
		if err != nil {
			t.Fatalf("sqrt ratio %d: %v", tick, err)
		}
		got, err := TickAtSqrtRatio(ratio)
		if err != nil {
			t.Fatalf("tick at ratio %d: %v", tick, err)
		}
		if got != tick {
			t.Fatalf("round trip: want=%d got=%d", tick, got)
		}
		if tick > MinTick {
			below := new(uint256.Int).SubUint64(ratio, 1)
			floor, err := TickAtSqrtRatio(below)
			if err != nil {
				t.Fatalf("tick below ratio %d: %v", tick, err)
			}
			if floor != tick-1 {
				t.Fatalf("floor below %d: got=%d", tick, floor)
			}
		}
	}

	for tick := int32(-300); tick <= 300; tick++ {
		check(tick)
	}
	for tick := MinTick; tick <= MaxTick; tick += 7919 {
		check(tick)
	}
	check(MinTick)
	check(MinTick + 1)
	check(MaxTick - 1)
	check(MaxTick)
}

func TestSqrtRatioAtTickMonotonic(t *testing.T) {
	prev := sqrtRatioAtTick(MinTick)
	for tick := MinTick + 1; tick <= MaxTick; tick += 997 {
		next := sqrtRatioAtTick(tick)
		if !next.Gt(prev) {
			t.Fatalf("not increasing at %d", tick)
		}
		prev = next
	}
	for tick := int32(-50); tick < 50; tick++ {
		if !sqrtRatioAtTick(tick + 1).Gt(sqrtRatioAtTick(tick)) {
			t.Fatalf("not increasing at %d", tick)
		}
	}
}

func TestTickAtSqrtRatioOutOfRange(t *testing.T) {
	tooLow := new(uint256.Int).SubUint64(MinSqrtRatio, 1)
	tooHigh := new(uint256.Int).AddUint64(MaxSqrtRatio, 1)
	for _, v := range []*uint256.Int{tooLow, tooHigh, nil} {
		if _, err := TickAtSqrtRatio(v); !errors.Is(err, ErrSqrtPriceOutOfRange) {
			t.Fatalf("expected ErrSqrtPriceOutOfRange for %v, got %v", v, err)
		}
	}
}

func TestRoundToSpacing(t *testing.T) {
	tests := []struct {
		tick, spacing, want int32
	}{
		{800, 10, 800},
		{805, 10, 800},
		{1199, 10, 1190},
		{-1, 10, -10},
		{-10, 10, -10},
		{-61, 60, -120},
		{59, 60, 0},
		{887272, 200, 887200},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprintf("%d/%d", tc.tick, tc.spacing), func(t *testing.T) {
			got, err := RoundToSpacing(tc.tick, tc.spacing)
			if err != nil {
				t.Fatalf("round: %v", err)
			}
			if got != tc.want {
				t.Fatalf("want=%d got=%d", tc.want, got)
			}
		})
	}
}

func TestRoundToSpacingErrors(t *testing.T) {
	if _, err := RoundToSpacing(100, 0); !errors.Is(err, ErrInvalidSpacing) {
		t.Fatalf("expected ErrInvalidSpacing, got %v", err)
	}
	if _, err := RoundToSpacing(MinTick, 60); !errors.Is(err, ErrTickOutOfRange) {
		t.Fatalf("expected ErrTickOutOfRange, got %v", err)
	}
}
