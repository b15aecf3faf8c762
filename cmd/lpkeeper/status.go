package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/xb1002/onchainLpV2/internal/fees"
	"github.com/xb1002/onchainLpV2/internal/model"
	"github.com/xb1002/onchainLpV2/internal/monitor"
	"github.com/xb1002/onchainLpV2/internal/pricemath"
	"github.com/xb1002/onchainLpV2/internal/storage"
	"github.com/xb1002/onchainLpV2/internal/storage/postgres"
)

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := cfg.ValidateRead(); err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("cycles")

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	a, err := newApp(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	defer a.Close()

	slot0, err := a.reader.Slot0(ctx)
	if err != nil {
		return fmt.Errorf("read slot0: %w", err)
	}
	balance0, err := a.tokens.BalanceOf(ctx, a.pool.Token0.Address, a.owner)
	if err != nil {
		return err
	}
	balance1, err := a.tokens.BalanceOf(ctx, a.pool.Token1.Address, a.owner)
	if err != nil {
		return err
	}

	fmt.Printf("pool    %s (%s)\n", a.pool.Address.Hex(), a.pool)
	fmt.Printf("tick    %d\n", slot0.Tick)
	fmt.Printf("price   %s %s per %s\n", pricemath.HumanPrice(slot0.SqrtPriceX96, a.pool.Token0, a.pool.Token1).StringFixed(6), a.pool.Token1, a.pool.Token0)
	fmt.Printf("wallet  %s  %s %s  %s %s\n\n", a.owner.Hex(),
		a.pool.Token0.FormatAmount(balance0), a.pool.Token0,
		a.pool.Token1.FormatAmount(balance1), a.pool.Token1)

	if err := printPositions(ctx, a, slot0.Tick); err != nil {
		return err
	}

	var journal storage.Reader
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		journal = store
	} else if cfg.Journal != "" {
		journal = storage.NewJsonlStorage(cfg.Journal)
	}
	if journal == nil {
		return nil
	}
	records, err := journal.RecentCycles(ctx, limit)
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}
	printCycles(records)
	return nil
}

func printPositions(ctx context.Context, a *app, tick int32) error {
	ids, err := a.manager.ListPositionIDs(ctx, a.owner)
	if err != nil {
		return fmt.Errorf("list positions: %w", err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("Positions")
	t.AppendHeader(table.Row{"ID", "Pair", "Range", "Liquidity", "State", "Unclaimed " + a.pool.Token0.String(), "Unclaimed " + a.pool.Token1.String()})
	for _, id := range ids {
		pos, err := a.manager.Position(ctx, id)
		if err != nil {
			return fmt.Errorf("read position %s: %w", id.Dec(), err)
		}
		if pos.Token0 != a.pool.Token0.Address || pos.Token1 != a.pool.Token1.Address || pos.Fee != a.pool.Fee {
			t.AppendRow(table.Row{id.Dec(), "other pool", fmt.Sprintf("[%d, %d)", pos.TickLower, pos.TickUpper), pos.Liquidity.Dec(), "-", "-", "-"})
			continue
		}
		owed0, owed1, err := unclaimed(ctx, a, pos)
		if err != nil {
			return err
		}
		t.AppendRow(table.Row{
			id.Dec(),
			a.pool.String(),
			fmt.Sprintf("[%d, %d)", pos.TickLower, pos.TickUpper),
			pos.Liquidity.Dec(),
			positionState(pos, tick),
			owed0,
			owed1,
		})
	}
	t.Render()
	return nil
}

func positionState(pos model.Position, tick int32) string {
	switch {
	case !pos.HasLiquidity():
		return "empty"
	case monitor.InRange(pos, tick):
		return "in range"
	}
	return fmt.Sprintf("out (%+d)", monitor.Distance(pos, tick))
}

func unclaimed(ctx context.Context, a *app, pos model.Position) (string, string, error) {
	snap, err := fees.Fetch(ctx, a.reader, pos)
	if err != nil {
		return "", "", err
	}
	accrued, err := fees.Unclaimed(pos, snap)
	if err != nil {
		return "", "", fmt.Errorf("unclaimed fees %s: %w", pos.ID.Dec(), err)
	}
	total := fees.Collectable(pos, accrued)
	return a.pool.Token0.FormatAmount(total.Amount0), a.pool.Token1.FormatAmount(total.Amount1), nil
}

func printCycles(records []model.CycleRecord) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("Recent cycles")
	t.AppendHeader(table.Row{"Started", "Before", "After", "Position", "Tick", "Range", "Actions", "Hedge", "Error"})
	for _, rec := range records {
		hedge := ""
		if rec.Hedge != nil {
			hedge = fmt.Sprintf("%s %s", rec.Hedge.Side, rec.Hedge.Size)
		}
		t.AppendRow(table.Row{
			rec.StartedAt.Local().Format(time.DateTime),
			rec.StateBefore,
			rec.StateAfter,
			rec.PositionID,
			rec.Tick,
			fmt.Sprintf("[%d, %d)", rec.TickLower, rec.TickUpper),
			strings.Join(rec.Actions, ","),
			hedge,
			rec.Error,
		})
	}
	t.Render()
}
