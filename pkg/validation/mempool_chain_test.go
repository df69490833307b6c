package validation

import (
	"testing"

	"github.com/pouria-shahmiri/bitcoin-node/pkg/consensus"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/mempool"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/types"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/utxo"
)

func TestMempoolChainVerifyFinal(t *testing.T) {
	mc := NewMempoolChain(nil, nil, consensus.NewRegtestRules())
	tip := mempool.TipInfo{Height: 100, MedianTimePast: 1700000000}

	maxSeqTx := func(lockTime uint32) *types.Transaction {
		return &types.Transaction{
			Version:  1,
			LockTime: lockTime,
			Inputs:   []types.TxInput{{Sequence: 0xFFFFFFFF}},
		}
	}
	lowSeqTx := func(lockTime uint32) *types.Transaction {
		return &types.Transaction{
			Version:  1,
			LockTime: lockTime,
			Inputs:   []types.TxInput{{Sequence: 0}},
		}
	}

	tests := []struct {
		name string
		tx   *types.Transaction
		want bool
	}{
		{"zero locktime", lowSeqTx(0), true},
		{"height locktime passed", lowSeqTx(100), true},
		{"height locktime at cutoff", lowSeqTx(101), false},
		{"height locktime future", lowSeqTx(150), false},
		{"time locktime passed", lowSeqTx(1600000000), true},
		{"time locktime future", lowSeqTx(1800000000), false},
		{"future locktime with max sequences", maxSeqTx(150), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mc.VerifyFinal(tip, tt.tx); got != tt.want {
				t.Errorf("VerifyFinal = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMempoolChainVerifyLocksHeightBased(t *testing.T) {
	mc := NewMempoolChain(nil, nil, consensus.NewRegtestRules())
	tip := mempool.TipInfo{Height: 100, MedianTimePast: 1700000000}

	coinOp := utxo.NewOutPoint(types.Hash{0x01}, 0)
	makeView := func(coinHeight uint64) *mempool.View {
		view := mempool.NewView()
		view.Put(coinOp, utxo.NewUTXO(coinOp.Hash, 0, types.TxOutput{Value: 1000}, coinHeight, false))
		return view
	}
	lockedTx := func(blocks uint32) *types.Transaction {
		return &types.Transaction{
			Version: 2,
			Inputs: []types.TxInput{{
				PrevTxHash:  coinOp.Hash,
				OutputIndex: 0,
				Sequence:    blocks, // type flag clear: height-based lock
			}},
		}
	}

	// Coin confirmed at height 90, tip 100: a 10-block lock is satisfied
	// in the next block, an 12-block lock is not.
	if !mc.VerifyLocks(tip, lockedTx(10), makeView(90)) {
		t.Error("satisfied height lock reported as failing")
	}
	if mc.VerifyLocks(tip, lockedTx(12), makeView(90)) {
		t.Error("unsatisfied height lock reported as passing")
	}

	// Version 1 transactions are exempt from BIP68 entirely.
	v1 := lockedTx(1000)
	v1.Version = 1
	if !mc.VerifyLocks(tip, v1, makeView(90)) {
		t.Error("version 1 transaction subjected to sequence locks")
	}

	// Disable flag set: the input opts out.
	optOut := lockedTx(1000)
	optOut.Inputs[0].Sequence |= types.SequenceLockTimeDisableFlag
	if !mc.VerifyLocks(tip, optOut, makeView(90)) {
		t.Error("disabled sequence lock still enforced")
	}
}
