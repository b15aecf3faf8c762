// Package hedge sizes and places the offsetting perpetual position for LP exposure.
package hedge

import (
	"context"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"github.com/xb1002/onchainLpV2/internal/model"
)

// DefaultPlaces is the venue quantity precision; smaller deltas round to zero and are skipped.
const DefaultPlaces int32 = 2

// Venue is the derivatives exchange holding the hedge.
type Venue interface {
	// GetPosition returns the signed position size in base units; shorts are negative.
	GetPosition(ctx context.Context, instrument string) (decimal.Decimal, error)
	SetLeverage(ctx context.Context, instrument string, leverage int) error
	SubmitMarketOrder(ctx context.Context, instrument string, side model.OrderSide, size decimal.Decimal) (string, error)
}

// Sizer turns a base-token balance into the delta order needed on the venue.
type Sizer struct {
	Instrument string
	Multiplier decimal.Decimal
	Places     int32
}

func NewSizer(instrument string, multiplier decimal.Decimal) Sizer {
	return Sizer{Instrument: instrument, Multiplier: multiplier, Places: DefaultPlaces}
}

// Exposure expresses a raw balance of the base token in human units.
func (s Sizer) Exposure(balance *uint256.Int, base model.Token) model.HedgeState {
	return model.HedgeState{Amount: base.ToDecimal(balance)}
}

// Target is the venue position that offsets the LP's long exposure to the base token.
func (s Sizer) Target(state model.HedgeState) decimal.Decimal {
	return state.Amount.Mul(s.Multiplier).Neg()
}

// Order returns the order moving current toward target, or false when the
// rounded delta is zero.
func (s Sizer) Order(state model.HedgeState, current decimal.Decimal) (model.HedgeOrder, bool) {
	target := s.Target(state)
	delta := target.Sub(current).Round(s.Places)
	if delta.IsZero() {
		return model.HedgeOrder{}, false
	}
	side := model.SideBuy
	if delta.IsNegative() {
		side = model.SideSell
	}
	return model.HedgeOrder{
		Instrument: s.Instrument,
		Side:       side,
		Size:       delta.Abs(),
		Target:     target,
		Current:    current,
	}, true
}
