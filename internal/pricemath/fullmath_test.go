package pricemath

import (
	"errors"
	"fmt"
	"testing"

	"github.com/holiman/uint256"
)

func TestMulDiv(t *testing.T) {
	tests := [][]uint64{
		{0, 500, 1000000, 0},
		{1, 500, 1000000, 0},
		{1000000, 1, 1000000, 1},
		{1000001, 1, 1000000, 1},
		{7, 9, 4, 15},
	}
	for _, arg := range tests {
		t.Run(fmt.Sprint(arg), func(t *testing.T) {
			got, err := MulDiv(uint256.NewInt(arg[0]), uint256.NewInt(arg[1]), uint256.NewInt(arg[2]))
			if err != nil {
				t.Fatalf("mul div: %v", err)
			}
			if !got.Eq(uint256.NewInt(arg[3])) {
				t.Fatalf("want=%d got=%s", arg[3], got.Dec())
			}
		})
	}
}

func TestMulDivWideIntermediate(t *testing.T) {
	max := new(uint256.Int).SetAllOne()
	got, err := MulDiv(max, max, max)
	if err != nil {
		t.Fatalf("mul div: %v", err)
	}
	if !got.Eq(max) {
		t.Fatalf("want max, got %s", got.Hex())
	}
}

func TestMulDivOverflow(t *testing.T) {
	max := new(uint256.Int).SetAllOne()
	if _, err := MulDiv(max, max, uint256.NewInt(1)); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
	if _, err := MulDiv(uint256.NewInt(1), uint256.NewInt(1), uint256.NewInt(0)); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow for zero denominator, got %v", err)
	}
}
