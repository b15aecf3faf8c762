package storage

import (
	"context"

	"github.com/xb1002/onchainLpV2/internal/model"
)

// Storage defines a sink for controller cycle records.
type Storage interface {
	PutCycle(ctx context.Context, record model.CycleRecord) error
}

// Reader returns the most recent cycle records, newest last.
type Reader interface {
	RecentCycles(ctx context.Context, limit int) ([]model.CycleRecord, error)
}
