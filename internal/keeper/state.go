package keeper

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/xb1002/onchainLpV2/internal/model"
)

// State is the controller's view of the managed position.
type State int

const (
	StateNoPosition State = iota
	StateInRange
	StateOutOfRange
	StateTransitioning
)

func (s State) String() string {
	switch s {
	case StateNoPosition:
		return "no_position"
	case StateInRange:
		return "in_range"
	case StateOutOfRange:
		return "out_of_range"
	case StateTransitioning:
		return "transitioning"
	}
	return "unknown"
}

// CycleResult summarises one controller cycle.
type CycleResult struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Before     State
	After      State
	PositionID *uint256.Int
	Tick       int32
	TickLower  int32
	TickUpper  int32
	Actions    []string
	TxHashes   []common.Hash
	Hedge      *model.HedgeOrder
}

func (r *CycleResult) record(action string, hash common.Hash) {
	r.Actions = append(r.Actions, action)
	if hash != (common.Hash{}) {
		r.TxHashes = append(r.TxHashes, hash)
	}
}

// Record converts the result into a journal entry.
func (r CycleResult) Record(pool common.Address, cycleErr error) model.CycleRecord {
	rec := model.CycleRecord{
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
		Pool:        pool.Hex(),
		StateBefore: r.Before.String(),
		StateAfter:  r.After.String(),
		Tick:        r.Tick,
		TickLower:   r.TickLower,
		TickUpper:   r.TickUpper,
		Actions:     r.Actions,
		Hedge:       r.Hedge,
	}
	if r.PositionID != nil {
		rec.PositionID = r.PositionID.Dec()
	}
	for _, h := range r.TxHashes {
		rec.TxHashes = append(rec.TxHashes, h.Hex())
	}
	if cycleErr != nil {
		rec.Error = cycleErr.Error()
	}
	return rec
}
