package dex

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/xb1002/onchainLpV2/internal/model"
)

// DefaultPoolInitCodeHash is the keccak of the Uniswap V3 pool creation code.
var DefaultPoolInitCodeHash = common.HexToHash("0xe34f199b19b2b4f47f68442619d555527d244f78a3297ea89325f843f87b8b54")

// ComputePoolAddress derives the CREATE2 address of a factory-deployed pool.
// Token order does not matter.
func ComputePoolAddress(factory common.Address, initCodeHash common.Hash, tokenA, tokenB common.Address, fee model.FeeTier) common.Address {
	if model.SortsBefore(tokenB, tokenA) {
		tokenA, tokenB = tokenB, tokenA
	}
	encoded := make([]byte, 0, 96)
	encoded = append(encoded, common.LeftPadBytes(tokenA.Bytes(), 32)...)
	encoded = append(encoded, common.LeftPadBytes(tokenB.Bytes(), 32)...)
	encoded = append(encoded, common.LeftPadBytes(new(big.Int).SetUint64(uint64(fee)).Bytes(), 32)...)

	var salt [32]byte
	copy(salt[:], crypto.Keccak256(encoded))
	return crypto.CreateAddress2(factory, salt, initCodeHash.Bytes())
}
