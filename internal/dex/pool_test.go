package dex

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xb1002/onchainLpV2/internal/model"
)

func TestPoolContractReads(t *testing.T) {
	poolABI, err := V3PoolABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	fake := newFakeChain(t, poolABI)
	token0 := common.HexToAddress("0x4200000000000000000000000000000000000006")
	token1 := common.HexToAddress("0x833589fcd6edb6e08f4c7c32d4f71b54bda02913")
	sqrtPrice, _ := new(big.Int).SetString("3961408125713216879677197", 10)

	fake.on("slot0", func([]interface{}) []interface{} {
		return []interface{}{sqrtPrice, big.NewInt(-198080), uint16(1), uint16(2), uint16(3), uint8(0), true}
	})
	fake.on("ticks", func(args []interface{}) []interface{} {
		tick := args[0].(*big.Int).Int64()
		return []interface{}{
			big.NewInt(10), big.NewInt(-10),
			big.NewInt(tick * 2), big.NewInt(tick * 3),
			big.NewInt(0), big.NewInt(0), uint32(0), true,
		}
	})
	fake.on("feeGrowthGlobal0X128", func([]interface{}) []interface{} { return []interface{}{big.NewInt(111)} })
	fake.on("feeGrowthGlobal1X128", func([]interface{}) []interface{} { return []interface{}{big.NewInt(222)} })
	fake.on("token0", func([]interface{}) []interface{} { return []interface{}{token0} })
	fake.on("token1", func([]interface{}) []interface{} { return []interface{}{token1} })
	fake.on("fee", func([]interface{}) []interface{} { return []interface{}{big.NewInt(3000)} })
	fake.on("tickSpacing", func([]interface{}) []interface{} { return []interface{}{big.NewInt(60)} })

	pool, err := NewPoolContract(fake, common.HexToAddress("0x1111111111111111111111111111111111111111"))
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	ctx := context.Background()

	slot0, err := pool.Slot0(ctx)
	if err != nil {
		t.Fatalf("slot0: %v", err)
	}
	if slot0.Tick != -198080 || slot0.SqrtPriceX96.ToBig().Cmp(sqrtPrice) != 0 {
		t.Fatalf("unexpected slot0: %+v", slot0)
	}

	info, err := pool.Tick(ctx, 120)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if info.FeeGrowthOutside0X128.Uint64() != 240 || info.FeeGrowthOutside1X128.Uint64() != 360 || !info.Initialized {
		t.Fatalf("unexpected tick info: %+v", info)
	}

	g0, g1, err := pool.FeeGrowthGlobal(ctx)
	if err != nil {
		t.Fatalf("fee growth global: %v", err)
	}
	if g0.Uint64() != 111 || g1.Uint64() != 222 {
		t.Fatalf("unexpected fee growth: %s %s", g0.Dec(), g1.Dec())
	}

	poolInfo, err := pool.PoolInfo(ctx)
	if err != nil {
		t.Fatalf("pool info: %v", err)
	}
	if poolInfo.Token0 != token0 || poolInfo.Token1 != token1 || poolInfo.Fee != model.FeeMedium || poolInfo.TickSpacing != 60 {
		t.Fatalf("unexpected pool info: %+v", poolInfo)
	}
}
