// Package keeper drives the LP position through its rebalance cycle.
package keeper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xb1002/onchainLpV2/internal/fees"
	"github.com/xb1002/onchainLpV2/internal/hedge"
	"github.com/xb1002/onchainLpV2/internal/liquidity"
	"github.com/xb1002/onchainLpV2/internal/model"
	"github.com/xb1002/onchainLpV2/internal/monitor"
	"github.com/xb1002/onchainLpV2/internal/pricemath"
)

// Config holds the controller's policy knobs.
type Config struct {
	Owner           common.Address
	PositionManager common.Address
	SwapRouter      common.Address

	HalfWidth    int32
	Tolerance    decimal.Decimal
	SwapFee      model.FeeTier
	SwapSlippage decimal.Decimal
	Deadline     time.Duration

	// Zero thresholds disable fee harvesting while in range.
	CollectMinFee0     *uint256.Int
	CollectMinFee1     *uint256.Int
	IncreaseMinAmount0 *uint256.Int
	IncreaseMinAmount1 *uint256.Int

	HedgeEnabled  bool
	HedgeToken    common.Address
	HedgeLeverage int
	Sizer         hedge.Sizer
}

// Deps are the controller's collaborators.
type Deps struct {
	Pool     PoolReader
	Manager  PositionManager
	Router   SwapExecutor
	Assets   Assets
	Venue    hedge.Venue
	Observer Observer
	Logger   *zap.Logger
	Now      func() time.Time
}

// Controller manages a single concentrated-liquidity position on one pool.
// It is not safe for concurrent use; cycles must run one at a time.
type Controller struct {
	cfg      Config
	pool     model.Pool
	deps     Deps
	logger   *zap.Logger
	observer Observer
	now      func() time.Time

	positionID   *uint256.Int
	hedgeState   *model.HedgeState
	hedgePending bool
}

// NewController validates the configuration and wires the collaborators.
func NewController(cfg Config, pool model.Pool, deps Deps) (*Controller, error) {
	switch {
	case cfg.Owner == (common.Address{}):
		return nil, configError("new controller", errors.New("owner address is required"))
	case cfg.HalfWidth <= 0:
		return nil, configError("new controller", fmt.Errorf("half width must be positive, got %d", cfg.HalfWidth))
	case cfg.Tolerance.IsNegative():
		return nil, configError("new controller", errors.New("tolerance must not be negative"))
	case deps.Pool == nil || deps.Manager == nil || deps.Router == nil || deps.Assets == nil:
		return nil, configError("new controller", errors.New("pool, manager, router and assets are required"))
	case cfg.HedgeEnabled && deps.Venue == nil:
		return nil, configError("new controller", errors.New("hedging enabled without a venue"))
	}
	if _, ok := pool.TokenByAddress(cfg.HedgeToken); cfg.HedgeEnabled && !ok {
		return nil, configError("new controller", fmt.Errorf("hedge token %s is not in pool %s", cfg.HedgeToken.Hex(), pool))
	}
	if _, err := model.ParseFeeTier(uint32(pool.Fee)); err != nil {
		return nil, configError("new controller", err)
	}
	if cfg.SwapFee == 0 {
		cfg.SwapFee = pool.Fee
	}
	if cfg.Deadline <= 0 {
		cfg.Deadline = 10 * time.Minute
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	observer := deps.Observer
	if observer == nil {
		observer = NewLogObserver(logger)
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Controller{
		cfg:      cfg,
		pool:     pool,
		deps:     deps,
		logger:   logger,
		observer: observer,
		now:      now,
	}, nil
}

// PositionID returns the id of the managed position, or nil when none is known.
func (c *Controller) PositionID() *uint256.Int {
	if c.positionID == nil {
		return nil
	}
	return new(uint256.Int).Set(c.positionID)
}

// RunCycle observes the pool and, if the managed position has left its range,
// withdraws it, rebalances the wallet and opens a fresh position around the
// current tick. Any failure makes the controller forget the position so that
// the next cycle re-derives it from chain state.
func (c *Controller) RunCycle(ctx context.Context) (CycleResult, error) {
	res := CycleResult{StartedAt: c.now()}
	c.emit(EventCycleStart, Fields{"pool": c.pool.Address.Hex()})

	err := c.runCycle(ctx, &res)
	res.FinishedAt = c.now()
	if err != nil {
		c.forget()
		err = classify("cycle", err)
		c.emit(EventCycleError, Fields{
			"error":  err.Error(),
			"kind":   KindOf(err).String(),
			"before": res.Before.String(),
		})
		return res, err
	}
	c.emit(EventCycleDone, Fields{
		"before":  res.Before.String(),
		"after":   res.After.String(),
		"actions": len(res.Actions),
	})
	return res, nil
}

func (c *Controller) runCycle(ctx context.Context, res *CycleResult) error {
	pos, found, err := c.currentPosition(ctx)
	if err != nil {
		res.Before, res.After = StateNoPosition, StateNoPosition
		return err
	}
	slot0, err := c.deps.Pool.Slot0(ctx)
	if err != nil {
		return fmt.Errorf("read slot0: %w", err)
	}
	res.Tick = slot0.Tick

	if found {
		res.PositionID = pos.ID
		res.TickLower, res.TickUpper = pos.TickLower, pos.TickUpper
		fields := Fields{
			"position_id": pos.ID.Dec(),
			"tick":        slot0.Tick,
			"tick_lower":  pos.TickLower,
			"tick_upper":  pos.TickUpper,
		}
		if monitor.InRange(pos, slot0.Tick) {
			res.Before, res.After = StateInRange, StateInRange
			c.emit(EventRangeIn, fields)
			if err := c.harvest(ctx, pos, res); err != nil {
				return err
			}
			return c.retryHedge(ctx, res)
		}
		res.Before = StateOutOfRange
		fields["distance"] = monitor.Distance(pos, slot0.Tick)
		c.emit(EventRangeOut, fields)
	} else {
		res.Before = StateNoPosition
	}

	res.After = StateTransitioning
	if found {
		if err := c.withdraw(ctx, pos, res); err != nil {
			res.After = StateNoPosition
			return err
		}
	}
	id, err := c.open(ctx, res)
	if err != nil {
		res.After = StateNoPosition
		return err
	}
	c.positionID = id
	res.PositionID = id

	minted, err := c.deps.Manager.Position(ctx, id)
	if err != nil {
		return fmt.Errorf("read minted position %s: %w", id.Dec(), err)
	}
	after, err := c.deps.Pool.Slot0(ctx)
	if err != nil {
		return fmt.Errorf("read slot0: %w", err)
	}
	// A move out of the new range is left for the next cycle.
	if monitor.InRange(minted, after.Tick) {
		res.After = StateInRange
	} else {
		res.After = StateOutOfRange
	}

	return c.rebalanceHedge(ctx, res)
}

func (c *Controller) forget() {
	c.positionID = nil
}

// currentPosition returns the managed position, re-deriving it from the
// owner's holdings when no id is known.
func (c *Controller) currentPosition(ctx context.Context) (model.Position, bool, error) {
	if c.positionID != nil {
		pos, err := c.deps.Manager.Position(ctx, c.positionID)
		if err != nil {
			return model.Position{}, false, fmt.Errorf("read position %s: %w", c.positionID.Dec(), err)
		}
		if pos.HasLiquidity() && c.belongsToPool(pos) {
			return pos, true, nil
		}
		c.emit(EventInconsistency, Fields{
			"position_id": c.positionID.Dec(),
			"reason":      "managed position has no liquidity",
		})
		c.forget()
	}

	ids, err := c.deps.Manager.ListPositionIDs(ctx, c.cfg.Owner)
	if err != nil {
		return model.Position{}, false, fmt.Errorf("list positions: %w", err)
	}
	var (
		selected model.Position
		live     int
	)
	for _, id := range ids {
		pos, err := c.deps.Manager.Position(ctx, id)
		if err != nil {
			return model.Position{}, false, fmt.Errorf("read position %s: %w", id.Dec(), err)
		}
		if !pos.HasLiquidity() || !c.belongsToPool(pos) {
			continue
		}
		live++
		if live == 1 {
			selected = pos
		}
	}
	if live == 0 {
		return model.Position{}, false, nil
	}
	c.positionID = new(uint256.Int).Set(selected.ID)
	c.emit(EventPositionSelected, Fields{
		"position_id": selected.ID.Dec(),
		"live":        live,
	})
	return selected, true, nil
}

func (c *Controller) belongsToPool(pos model.Position) bool {
	return pos.Token0 == c.pool.Token0.Address &&
		pos.Token1 == c.pool.Token1.Address &&
		pos.Fee == c.pool.Fee
}

// TargetRange centres a range of half-width ticks on tick, aligned down to the pool spacing.
func (c *Controller) TargetRange(tick int32) (int32, int32, error) {
	spacing := c.pool.TickSpacing()
	lower, err := pricemath.RoundToSpacing(tick-c.cfg.HalfWidth, spacing)
	if err != nil {
		return 0, 0, inputError("target range", err)
	}
	upper, err := pricemath.RoundToSpacing(tick+c.cfg.HalfWidth, spacing)
	if err != nil {
		return 0, 0, inputError("target range", err)
	}
	if upper <= tick {
		upper += spacing
	}
	if _, err := liquidity.NewRange(lower, upper, spacing); err != nil {
		return 0, 0, inputError("target range", err)
	}
	return lower, upper, nil
}

// withdraw removes all liquidity and collects principal plus fees into the wallet.
func (c *Controller) withdraw(ctx context.Context, pos model.Position, res *CycleResult) error {
	snap, err := fees.Fetch(ctx, c.deps.Pool, pos)
	if err != nil {
		return err
	}
	expected0, expected1, err := liquidity.AmountsForLiquidity(snap.SqrtPriceX96, pos.TickLower, pos.TickUpper, c.pool.TickSpacing(), pos.Liquidity)
	if err != nil {
		return inputError("expected amounts", err)
	}
	accrued, err := fees.Unclaimed(pos, snap)
	if err != nil {
		return inputError("unclaimed fees", err)
	}

	change, err := c.deps.Manager.DecreaseLiquidity(ctx, model.DecreaseParams{
		PositionID: pos.ID,
		Liquidity:  pos.Liquidity,
		Amount0Min: new(uint256.Int),
		Amount1Min: new(uint256.Int),
		Deadline:   c.deadline(),
	})
	if err != nil {
		return fmt.Errorf("decrease liquidity %s: %w", pos.ID.Dec(), err)
	}
	res.record("decrease", change.TxHash)
	c.emit(EventLiquidityRemoved, Fields{
		"position_id": pos.ID.Dec(),
		"liquidity":   pos.Liquidity.Dec(),
		"amount0":     decString(change.Amount0),
		"amount1":     decString(change.Amount1),
		"expected0":   expected0.Dec(),
		"expected1":   expected1.Dec(),
		"tx":          change.TxHash.Hex(),
	})

	collected, err := c.deps.Manager.Collect(ctx, pos.ID, c.cfg.Owner)
	if err != nil {
		return fmt.Errorf("collect %s: %w", pos.ID.Dec(), err)
	}
	res.record("collect", collected.TxHash)
	c.emit(EventFeesCollected, Fields{
		"position_id": pos.ID.Dec(),
		"amount0":     decString(collected.Amount0),
		"amount1":     decString(collected.Amount1),
		"fees0":       accrued.Amount0.Dec(),
		"fees1":       accrued.Amount1.Dec(),
		"tx":          collected.TxHash.Hex(),
	})
	return nil
}

// open rebalances the wallet and mints a position centred on the current tick.
func (c *Controller) open(ctx context.Context, res *CycleResult) (*uint256.Int, error) {
	slot0, err := c.deps.Pool.Slot0(ctx)
	if err != nil {
		return nil, fmt.Errorf("read slot0: %w", err)
	}
	lower, upper, err := c.TargetRange(slot0.Tick)
	if err != nil {
		return nil, err
	}
	res.Tick, res.TickLower, res.TickUpper = slot0.Tick, lower, upper

	balance0, balance1, err := c.balances(ctx)
	if err != nil {
		return nil, err
	}
	if plan := PlanSwap(balance0, balance1, slot0.SqrtPriceX96, c.cfg.Tolerance); plan != nil {
		if err := c.swap(ctx, plan, res); err != nil {
			return nil, err
		}
		if balance0, balance1, err = c.balances(ctx); err != nil {
			return nil, err
		}
	}
	if c.cfg.HedgeEnabled {
		base, _ := c.pool.TokenByAddress(c.cfg.HedgeToken)
		balance := balance0
		if base.Address == c.pool.Token1.Address {
			balance = balance1
		}
		state := c.cfg.Sizer.Exposure(balance, base)
		c.hedgeState = &state
		c.hedgePending = true
	}

	slot0, err = c.deps.Pool.Slot0(ctx)
	if err != nil {
		return nil, fmt.Errorf("read slot0: %w", err)
	}
	expected, err := liquidity.ForAmounts(slot0.SqrtPriceX96, lower, upper, c.pool.TickSpacing(), balance0, balance1)
	if err != nil {
		return nil, inputError("expected liquidity", err)
	}
	if expected.IsZero() {
		return nil, inputError("mint", fmt.Errorf("balances %s/%s provide no liquidity in [%d, %d)", balance0.Dec(), balance1.Dec(), lower, upper))
	}

	minted, err := c.deps.Manager.Mint(ctx, model.MintParams{
		Token0:         c.pool.Token0.Address,
		Token1:         c.pool.Token1.Address,
		Fee:            c.pool.Fee,
		TickLower:      lower,
		TickUpper:      upper,
		Amount0Desired: balance0,
		Amount1Desired: balance1,
		Amount0Min:     new(uint256.Int),
		Amount1Min:     new(uint256.Int),
		Recipient:      c.cfg.Owner,
		Deadline:       c.deadline(),
	})
	if err != nil {
		return nil, fmt.Errorf("mint [%d, %d): %w", lower, upper, err)
	}
	if minted.PositionID == nil {
		return nil, inconsistency("mint", errors.New("mint receipt carried no position id"))
	}
	res.record("mint", minted.TxHash)
	c.emit(EventPositionMinted, Fields{
		"position_id": minted.PositionID.Dec(),
		"tick_lower":  lower,
		"tick_upper":  upper,
		"liquidity":   decString(minted.Liquidity),
		"expected":    expected.Dec(),
		"amount0":     decString(minted.Amount0),
		"amount1":     decString(minted.Amount1),
		"tx":          minted.TxHash.Hex(),
	})
	return minted.PositionID, nil
}

func (c *Controller) swap(ctx context.Context, plan *SwapPlan, res *CycleResult) error {
	params := model.SwapParams{
		TokenIn:   c.pool.Token1.Address,
		TokenOut:  c.pool.Token0.Address,
		Fee:       c.cfg.SwapFee,
		AmountIn:  plan.AmountIn,
		Recipient: c.cfg.Owner,
		Simulate:  true,
	}
	if plan.ZeroForOne {
		params.TokenIn, params.TokenOut = params.TokenOut, params.TokenIn
	}
	c.emit(EventSwapPlanned, Fields{
		"token_in":  params.TokenIn.Hex(),
		"token_out": params.TokenOut.Hex(),
		"amount_in": plan.AmountIn.Dec(),
		"value0":    plan.Value0.StringFixed(0),
		"value1":    plan.Value1.StringFixed(0),
		"target":    plan.Target.StringFixed(0),
	})

	quote, err := c.deps.Router.SwapExactIn(ctx, params)
	if err != nil {
		return fmt.Errorf("simulate swap: %w", err)
	}
	params.Simulate = false
	params.AmountOutMinimum = minimumOut(quote.AmountOut, c.cfg.SwapSlippage)
	out, err := c.deps.Router.SwapExactIn(ctx, params)
	if err != nil {
		return fmt.Errorf("swap: %w", err)
	}
	res.record("swap", out.TxHash)
	c.emit(EventSwapExecuted, Fields{
		"token_in":   params.TokenIn.Hex(),
		"amount_in":  plan.AmountIn.Dec(),
		"amount_out": decString(out.AmountOut),
		"quoted":     decString(quote.AmountOut),
		"tx":         out.TxHash.Hex(),
	})
	return nil
}

func minimumOut(quoted *uint256.Int, slippage decimal.Decimal) *uint256.Int {
	if quoted == nil || slippage.IsNegative() || slippage.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return new(uint256.Int)
	}
	return fromDecimal(toDecimal(quoted).Mul(decimal.NewFromInt(1).Sub(slippage)))
}

func (c *Controller) balances(ctx context.Context) (*uint256.Int, *uint256.Int, error) {
	balance0, err := c.deps.Assets.BalanceOf(ctx, c.pool.Token0.Address, c.cfg.Owner)
	if err != nil {
		return nil, nil, fmt.Errorf("balance %s: %w", c.pool.Token0.Symbol, err)
	}
	balance1, err := c.deps.Assets.BalanceOf(ctx, c.pool.Token1.Address, c.cfg.Owner)
	if err != nil {
		return nil, nil, fmt.Errorf("balance %s: %w", c.pool.Token1.Symbol, err)
	}
	return balance0, balance1, nil
}

// harvest collects accrued fees once they pass the configured thresholds and
// optionally compounds the wallet back into the position.
func (c *Controller) harvest(ctx context.Context, pos model.Position, res *CycleResult) error {
	if isZero(c.cfg.CollectMinFee0) && isZero(c.cfg.CollectMinFee1) {
		return nil
	}
	snap, err := fees.Fetch(ctx, c.deps.Pool, pos)
	if err != nil {
		return err
	}
	accrued, err := fees.Unclaimed(pos, snap)
	if err != nil {
		return inputError("unclaimed fees", err)
	}
	owed := fees.Collectable(pos, accrued)
	c.emit(EventFeesAccrued, Fields{
		"position_id": pos.ID.Dec(),
		"amount0":     owed.Amount0.Dec(),
		"amount1":     owed.Amount1.Dec(),
	})
	if !reached(owed.Amount0, c.cfg.CollectMinFee0) && !reached(owed.Amount1, c.cfg.CollectMinFee1) {
		return nil
	}

	collected, err := c.deps.Manager.Collect(ctx, pos.ID, c.cfg.Owner)
	if err != nil {
		return fmt.Errorf("collect %s: %w", pos.ID.Dec(), err)
	}
	res.record("collect", collected.TxHash)
	c.emit(EventFeesCollected, Fields{
		"position_id": pos.ID.Dec(),
		"amount0":     decString(collected.Amount0),
		"amount1":     decString(collected.Amount1),
		"tx":          collected.TxHash.Hex(),
	})

	if isZero(c.cfg.IncreaseMinAmount0) && isZero(c.cfg.IncreaseMinAmount1) {
		return nil
	}
	balance0, balance1, err := c.balances(ctx)
	if err != nil {
		return err
	}
	if balance0.Lt(orZero(c.cfg.IncreaseMinAmount0)) || balance1.Lt(orZero(c.cfg.IncreaseMinAmount1)) {
		return nil
	}
	change, err := c.deps.Manager.IncreaseLiquidity(ctx, model.IncreaseParams{
		PositionID:     pos.ID,
		Amount0Desired: balance0,
		Amount1Desired: balance1,
		Amount0Min:     new(uint256.Int),
		Amount1Min:     new(uint256.Int),
		Deadline:       c.deadline(),
	})
	if err != nil {
		return fmt.Errorf("increase liquidity %s: %w", pos.ID.Dec(), err)
	}
	res.record("increase", change.TxHash)
	c.emit(EventLiquidityAdded, Fields{
		"position_id": pos.ID.Dec(),
		"liquidity":   decString(change.Liquidity),
		"amount0":     decString(change.Amount0),
		"amount1":     decString(change.Amount1),
		"tx":          change.TxHash.Hex(),
	})
	return nil
}

func (c *Controller) retryHedge(ctx context.Context, res *CycleResult) error {
	if !c.hedgePending {
		return nil
	}
	return c.rebalanceHedge(ctx, res)
}

// rebalanceHedge orders the delta between the target hedge and the venue's
// current position. A failed order stays pending and is recomputed from the
// venue position on the next cycle.
func (c *Controller) rebalanceHedge(ctx context.Context, res *CycleResult) error {
	if !c.cfg.HedgeEnabled || c.hedgeState == nil {
		return nil
	}
	instrument := c.cfg.Sizer.Instrument
	current, err := c.deps.Venue.GetPosition(ctx, instrument)
	if err != nil {
		return fmt.Errorf("hedge position %s: %w", instrument, err)
	}
	order, ok := c.cfg.Sizer.Order(*c.hedgeState, current)
	if !ok {
		c.hedgePending = false
		c.emit(EventHedgeSkip, Fields{
			"instrument": instrument,
			"current":    current.String(),
			"target":     c.cfg.Sizer.Target(*c.hedgeState).String(),
		})
		return nil
	}
	if c.cfg.HedgeLeverage > 0 {
		if err := c.deps.Venue.SetLeverage(ctx, instrument, c.cfg.HedgeLeverage); err != nil {
			return fmt.Errorf("hedge leverage %s: %w", instrument, err)
		}
	}
	orderID, err := c.deps.Venue.SubmitMarketOrder(ctx, instrument, order.Side, order.Size)
	if err != nil {
		return fmt.Errorf("hedge order %s %s %s: %w", order.Side, order.Size, instrument, err)
	}
	order.OrderID = orderID
	res.Hedge = &order
	res.record("hedge", common.Hash{})
	c.hedgePending = false
	c.emit(EventHedgeOrder, Fields{
		"instrument": instrument,
		"side":       string(order.Side),
		"size":       order.Size.String(),
		"target":     order.Target.String(),
		"current":    order.Current.String(),
		"order_id":   orderID,
	})
	return nil
}

func (c *Controller) deadline() time.Time {
	return c.now().Add(c.cfg.Deadline)
}

func (c *Controller) emit(kind string, fields Fields) {
	c.observer.OnEvent(kind, fields)
}

func decString(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}

func isZero(v *uint256.Int) bool {
	return v == nil || v.IsZero()
}

func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}

// reached reports whether a non-zero threshold is met.
func reached(amount, threshold *uint256.Int) bool {
	return !isZero(threshold) && !orZero(amount).Lt(threshold)
}
