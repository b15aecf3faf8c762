package keeper

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/xb1002/onchainLpV2/internal/model"
)

// Prepare grants the position manager and the router a standing allowance on both pool tokens.
func (c *Controller) Prepare(ctx context.Context) error {
	for _, spender := range []common.Address{c.cfg.PositionManager, c.cfg.SwapRouter} {
		if spender == (common.Address{}) {
			continue
		}
		for _, token := range []model.Token{c.pool.Token0, c.pool.Token1} {
			approved, err := c.deps.Assets.EnsureAllowance(ctx, token.Address, spender)
			if err != nil {
				return classify("prepare", fmt.Errorf("allowance %s for %s: %w", token.Symbol, spender.Hex(), err))
			}
			if approved {
				c.emit(EventAllowance, Fields{"token": token.Symbol, "spender": spender.Hex()})
			}
		}
	}
	return nil
}

// Sweep burns every owned position that holds no liquidity, collecting any
// owed tokens first. Positions with liquidity are left alone. Failures on one
// position do not stop the sweep of the others.
func (c *Controller) Sweep(ctx context.Context) ([]*uint256.Int, error) {
	return c.closePositions(ctx, false)
}

// CloseAll withdraws and burns every owned position, managed or not.
func (c *Controller) CloseAll(ctx context.Context) ([]*uint256.Int, error) {
	closed, err := c.closePositions(ctx, true)
	c.forget()
	return closed, err
}

func (c *Controller) closePositions(ctx context.Context, withdraw bool) ([]*uint256.Int, error) {
	ids, err := c.deps.Manager.ListPositionIDs(ctx, c.cfg.Owner)
	if err != nil {
		return nil, classify("sweep", fmt.Errorf("list positions: %w", err))
	}
	var (
		closed []*uint256.Int
		errs   []error
	)
	for _, id := range ids {
		done, err := c.closePosition(ctx, id, withdraw)
		if err != nil {
			errs = append(errs, classify("sweep", err))
			continue
		}
		if done {
			closed = append(closed, id)
		}
	}
	return closed, errors.Join(errs...)
}

func (c *Controller) closePosition(ctx context.Context, id *uint256.Int, withdraw bool) (bool, error) {
	pos, err := c.deps.Manager.Position(ctx, id)
	if err != nil {
		return false, fmt.Errorf("read position %s: %w", id.Dec(), err)
	}
	if pos.HasLiquidity() {
		if !withdraw {
			return false, nil
		}
		if _, err := c.deps.Manager.DecreaseLiquidity(ctx, model.DecreaseParams{
			PositionID: id,
			Liquidity:  pos.Liquidity,
			Amount0Min: new(uint256.Int),
			Amount1Min: new(uint256.Int),
			Deadline:   c.deadline(),
		}); err != nil {
			return false, fmt.Errorf("decrease liquidity %s: %w", id.Dec(), err)
		}
		if pos, err = c.deps.Manager.Position(ctx, id); err != nil {
			return false, fmt.Errorf("read position %s: %w", id.Dec(), err)
		}
	}

	if pos.HasOwed() {
		collected, err := c.deps.Manager.Collect(ctx, id, c.cfg.Owner)
		if err != nil {
			return false, fmt.Errorf("collect %s: %w", id.Dec(), err)
		}
		c.emit(EventFeesCollected, Fields{
			"position_id": id.Dec(),
			"amount0":     decString(collected.Amount0),
			"amount1":     decString(collected.Amount1),
			"tx":          collected.TxHash.Hex(),
		})
		if pos, err = c.deps.Manager.Position(ctx, id); err != nil {
			return false, fmt.Errorf("read position %s: %w", id.Dec(), err)
		}
		if pos.HasOwed() {
			c.emit(EventInconsistency, Fields{
				"position_id": id.Dec(),
				"reason":      "tokens still owed after collect",
			})
			return false, inconsistency("sweep", fmt.Errorf("position %s still owes %s/%s", id.Dec(), decString(pos.TokensOwed0), decString(pos.TokensOwed1)))
		}
	}

	hash, err := c.deps.Manager.Burn(ctx, id)
	if err != nil {
		return false, fmt.Errorf("burn %s: %w", id.Dec(), err)
	}
	c.emit(EventSweepClosed, Fields{"position_id": id.Dec(), "tx": hash.Hex()})
	return true, nil
}
