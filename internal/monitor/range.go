// Package monitor decides whether a position is still earning at the current tick.
package monitor

import "github.com/xb1002/onchainLpV2/internal/model"

// InRange reports whether currentTick lies in the half-open range [tickLower, tickUpper).
// The upper boundary itself is out of range.
func InRange(pos model.Position, currentTick int32) bool {
	return currentTick >= pos.TickLower && currentTick < pos.TickUpper
}

// Distance returns how many ticks currentTick lies outside the range, zero when inside.
// Negative values are below the range.
func Distance(pos model.Position, currentTick int32) int32 {
	switch {
	case currentTick < pos.TickLower:
		return currentTick - pos.TickLower
	case currentTick >= pos.TickUpper:
		return currentTick - pos.TickUpper + 1
	}
	return 0
}
