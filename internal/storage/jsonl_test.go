package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/xb1002/onchainLpV2/internal/model"
)

func TestJsonlStorageRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal", "cycles.jsonl")
	store := NewJsonlStorage(path)
	ctx := context.Background()

	records, err := store.RecentCycles(ctx, 10)
	if err != nil {
		t.Fatalf("read missing journal: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}

	started := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	for i := 0; i < 3; i++ {
		rec := model.CycleRecord{
			StartedAt:   started.Add(time.Duration(i) * time.Minute),
			StateBefore: "in_range",
			StateAfter:  "in_range",
			Tick:        int32(1000 + i),
		}
		if err := store.PutCycle(ctx, rec); err != nil {
			t.Fatalf("put cycle %d: %v", i, err)
		}
	}

	records, err = store.RecentCycles(ctx, 2)
	if err != nil {
		t.Fatalf("read journal: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Tick != 1001 || records[1].Tick != 1002 {
		t.Fatalf("expected newest two records, got ticks %d and %d", records[0].Tick, records[1].Tick)
	}
	if !records[1].StartedAt.Equal(started.Add(2 * time.Minute)) {
		t.Fatalf("unexpected started_at %s", records[1].StartedAt)
	}
}
