package keeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/xb1002/onchainLpV2/internal/model"
	"github.com/xb1002/onchainLpV2/internal/pricemath"
)

var (
	testOwner   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	testManager = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	testRouter  = common.HexToAddress("0x00000000000000000000000000000000000000cc")
	testToken0  = model.Token{Address: common.HexToAddress("0x0000000000000000000000000000000000000001"), Symbol: "WETH", Decimals: 18}
	testToken1  = model.Token{Address: common.HexToAddress("0x0000000000000000000000000000000000000002"), Symbol: "USDX", Decimals: 18}
	testPool    = model.NewPool(common.HexToAddress("0x00000000000000000000000000000000000000dd"), testToken0, testToken1, model.FeeLow)
	errRPC      = errors.New("rpc unavailable")
	oneEther    = uint256.NewInt(1_000_000_000_000_000_000)
)

type fakePool struct {
	t       *testing.T
	tick    int32
	slotErr error
}

func (p *fakePool) Slot0(context.Context) (model.Slot0, error) {
	if p.slotErr != nil {
		return model.Slot0{}, p.slotErr
	}
	sqrt, err := pricemath.SqrtRatioAtTick(p.tick)
	require.NoError(p.t, err)
	return model.Slot0{SqrtPriceX96: sqrt, Tick: p.tick}, nil
}

func (p *fakePool) Tick(context.Context, int32) (model.TickInfo, error) {
	return model.TickInfo{
		FeeGrowthOutside0X128: new(uint256.Int),
		FeeGrowthOutside1X128: new(uint256.Int),
		Initialized:           true,
	}, nil
}

func (p *fakePool) FeeGrowthGlobal(context.Context) (*uint256.Int, *uint256.Int, error) {
	return new(uint256.Int), new(uint256.Int), nil
}

type fakeManager struct {
	positions map[uint64]*model.Position
	order     []uint64
	nextID    uint64

	mintErr   error
	onMint    func(model.MintParams)
	mints     []model.MintParams
	decreases int
	increases int
	collects  int
	burns     []uint64
}

func newFakeManager() *fakeManager {
	return &fakeManager{positions: make(map[uint64]*model.Position), nextID: 100}
}

func (m *fakeManager) add(id uint64, lower, upper int32, liquidity, owed uint64) {
	m.positions[id] = &model.Position{
		ID:                       uint256.NewInt(id),
		Token0:                   testPool.Token0.Address,
		Token1:                   testPool.Token1.Address,
		Fee:                      testPool.Fee,
		TickLower:                lower,
		TickUpper:                upper,
		Liquidity:                uint256.NewInt(liquidity),
		FeeGrowthInside0LastX128: new(uint256.Int),
		FeeGrowthInside1LastX128: new(uint256.Int),
		TokensOwed0:              uint256.NewInt(owed),
		TokensOwed1:              new(uint256.Int),
	}
	m.order = append(m.order, id)
}

func (m *fakeManager) ListPositionIDs(context.Context, common.Address) ([]*uint256.Int, error) {
	ids := make([]*uint256.Int, 0, len(m.order))
	for _, id := range m.order {
		if _, ok := m.positions[id]; ok {
			ids = append(ids, uint256.NewInt(id))
		}
	}
	return ids, nil
}

func (m *fakeManager) Position(_ context.Context, id *uint256.Int) (model.Position, error) {
	pos, ok := m.positions[id.Uint64()]
	if !ok {
		return model.Position{}, errors.New("invalid token id")
	}
	return *pos, nil
}

func (m *fakeManager) Mint(_ context.Context, params model.MintParams) (model.MintResult, error) {
	if m.mintErr != nil {
		return model.MintResult{}, m.mintErr
	}
	m.mints = append(m.mints, params)
	id := m.nextID
	m.nextID++
	m.add(id, params.TickLower, params.TickUpper, 5000, 0)
	if m.onMint != nil {
		m.onMint(params)
	}
	return model.MintResult{
		PositionID: uint256.NewInt(id),
		Liquidity:  uint256.NewInt(5000),
		Amount0:    params.Amount0Desired,
		Amount1:    params.Amount1Desired,
		TxHash:     common.HexToHash("0x01"),
	}, nil
}

func (m *fakeManager) IncreaseLiquidity(_ context.Context, params model.IncreaseParams) (model.LiquidityChange, error) {
	m.increases++
	pos := m.positions[params.PositionID.Uint64()]
	pos.Liquidity = new(uint256.Int).AddUint64(pos.Liquidity, 10)
	return model.LiquidityChange{Liquidity: uint256.NewInt(10), TxHash: common.HexToHash("0x02")}, nil
}

func (m *fakeManager) DecreaseLiquidity(_ context.Context, params model.DecreaseParams) (model.LiquidityChange, error) {
	m.decreases++
	pos := m.positions[params.PositionID.Uint64()]
	pos.Liquidity = new(uint256.Int)
	pos.TokensOwed0 = uint256.NewInt(7)
	pos.TokensOwed1 = uint256.NewInt(9)
	return model.LiquidityChange{Liquidity: params.Liquidity, TxHash: common.HexToHash("0x03")}, nil
}

func (m *fakeManager) Collect(_ context.Context, id *uint256.Int, _ common.Address) (model.CollectResult, error) {
	m.collects++
	pos := m.positions[id.Uint64()]
	res := model.CollectResult{Amount0: pos.TokensOwed0, Amount1: pos.TokensOwed1, TxHash: common.HexToHash("0x04")}
	pos.TokensOwed0 = new(uint256.Int)
	pos.TokensOwed1 = new(uint256.Int)
	return res, nil
}

func (m *fakeManager) Burn(_ context.Context, id *uint256.Int) (common.Hash, error) {
	m.burns = append(m.burns, id.Uint64())
	delete(m.positions, id.Uint64())
	return common.HexToHash("0x05"), nil
}

type fakeRouter struct {
	calls []model.SwapParams
	out   *uint256.Int
}

func (r *fakeRouter) SwapExactIn(_ context.Context, params model.SwapParams) (model.SwapResult, error) {
	r.calls = append(r.calls, params)
	res := model.SwapResult{AmountOut: r.out}
	if !params.Simulate {
		res.TxHash = common.HexToHash("0x06")
	}
	return res, nil
}

type fakeAssets struct {
	balances map[common.Address]*uint256.Int
	approved map[[2]common.Address]bool
}

func newFakeAssets(balance0, balance1 *uint256.Int) *fakeAssets {
	return &fakeAssets{
		balances: map[common.Address]*uint256.Int{
			testPool.Token0.Address: balance0,
			testPool.Token1.Address: balance1,
		},
		approved: make(map[[2]common.Address]bool),
	}
}

func (a *fakeAssets) BalanceOf(_ context.Context, token, _ common.Address) (*uint256.Int, error) {
	return new(uint256.Int).Set(a.balances[token]), nil
}

func (a *fakeAssets) EnsureAllowance(_ context.Context, token, spender common.Address) (bool, error) {
	key := [2]common.Address{token, spender}
	if a.approved[key] {
		return false, nil
	}
	a.approved[key] = true
	return true, nil
}

type fakeVenue struct {
	position decimal.Decimal
	orderErr error
	leverage []int
	orders   []model.HedgeOrder
}

func (v *fakeVenue) GetPosition(context.Context, string) (decimal.Decimal, error) {
	return v.position, nil
}

func (v *fakeVenue) SetLeverage(_ context.Context, _ string, leverage int) error {
	v.leverage = append(v.leverage, leverage)
	return nil
}

func (v *fakeVenue) SubmitMarketOrder(_ context.Context, instrument string, side model.OrderSide, size decimal.Decimal) (string, error) {
	if v.orderErr != nil {
		return "", v.orderErr
	}
	v.orders = append(v.orders, model.HedgeOrder{Instrument: instrument, Side: side, Size: size})
	if side == model.SideSell {
		v.position = v.position.Sub(size)
	} else {
		v.position = v.position.Add(size)
	}
	return "order-1", nil
}

type recorder struct {
	mu     sync.Mutex
	events []string
	hook   func(kind string)
}

func (r *recorder) OnEvent(kind string, _ Fields) {
	r.mu.Lock()
	r.events = append(r.events, kind)
	hook := r.hook
	r.mu.Unlock()
	if hook != nil {
		hook(kind)
	}
}

func (r *recorder) count(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == kind {
			n++
		}
	}
	return n
}

type harness struct {
	pool       *fakePool
	manager    *fakeManager
	router     *fakeRouter
	assets     *fakeAssets
	venue      *fakeVenue
	events     *recorder
	controller *Controller
}

func testConfig() Config {
	return Config{
		Owner:           testOwner,
		PositionManager: testManager,
		SwapRouter:      testRouter,
		HalfWidth:       200,
		Tolerance:       decimal.RequireFromString("0.05"),
		SwapSlippage:    decimal.RequireFromString("0.01"),
		Deadline:        10 * time.Minute,
	}
}

func newHarness(t *testing.T, tick int32, cfg Config) *harness {
	t.Helper()
	h := &harness{
		pool:    &fakePool{t: t, tick: tick},
		manager: newFakeManager(),
		router:  &fakeRouter{out: uint256.NewInt(100)},
		assets:  newFakeAssets(new(uint256.Int).Set(oneEther), new(uint256.Int).Set(oneEther)),
		venue:   &fakeVenue{},
		events:  &recorder{},
	}
	controller, err := NewController(cfg, testPool, Deps{
		Pool:     h.pool,
		Manager:  h.manager,
		Router:   h.router,
		Assets:   h.assets,
		Venue:    h.venue,
		Observer: h.events,
		Now:      func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	h.controller = controller
	return h
}
