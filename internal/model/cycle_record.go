package model

import "time"

// CycleRecord is the journal entry written after each controller cycle.
type CycleRecord struct {
	StartedAt   time.Time   `json:"started_at"`
	FinishedAt  time.Time   `json:"finished_at"`
	Pool        string      `json:"pool"`
	StateBefore string      `json:"state_before"`
	StateAfter  string      `json:"state_after"`
	PositionID  string      `json:"position_id,omitempty"`
	Tick        int32       `json:"tick"`
	TickLower   int32       `json:"tick_lower,omitempty"`
	TickUpper   int32       `json:"tick_upper,omitempty"`
	Actions     []string    `json:"actions,omitempty"`
	TxHashes    []string    `json:"tx_hashes,omitempty"`
	Hedge       *HedgeOrder `json:"hedge,omitempty"`
	Error       string      `json:"error,omitempty"`
}
