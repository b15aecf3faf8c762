package model

import "github.com/shopspring/decimal"

// OrderSide is the direction of a hedge order.
type OrderSide string

const (
	SideBuy  OrderSide = "BUY"
	SideSell OrderSide = "SELL"
)

// HedgeState is the base-token exposure measured after a rebalance.
type HedgeState struct {
	Amount decimal.Decimal `json:"amount"`
}

// HedgeOrder is the delta order computed against the venue's current position.
type HedgeOrder struct {
	Instrument string          `json:"instrument"`
	Side       OrderSide       `json:"side"`
	Size       decimal.Decimal `json:"size"`
	Target     decimal.Decimal `json:"target"`
	Current    decimal.Decimal `json:"current"`
	OrderID    string          `json:"order_id,omitempty"`
}
