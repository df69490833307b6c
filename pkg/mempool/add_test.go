package mempool

import (
	"testing"

	"github.com/pouria-shahmiri/bitcoin-node/pkg/types"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/utxo"
)

func TestAddSingleTransaction(t *testing.T) {
	mp, chain, obs := newTestPool(t, nil)

	coin := chain.addCoin(1, 100000)
	tx := makeTx([]utxo.OutPoint{coin}, 90000)
	entry := mustAdd(t, mp, tx)

	if entry.Fee != 10000 {
		t.Errorf("fee = %d, want 10000", entry.Fee)
	}
	if mp.Size() != 1 {
		t.Errorf("pool size = %d, want 1", mp.Size())
	}
	if mp.Bytes() != entry.Size {
		t.Errorf("pool bytes = %d, want %d", mp.Bytes(), entry.Size)
	}
	if !mp.Has(entry.TxHash) {
		t.Error("pool does not report the accepted txid")
	}
	if _, ok := mp.Spender(coin); !ok {
		t.Error("spender index missing the accepted entry's input")
	}
	if len(obs.accepted) != 1 || obs.accepted[0] != entry.TxHash {
		t.Errorf("OnTx fired %v, want exactly the accepted hash", obs.accepted)
	}
	checkInvariants(t, mp)
}

func TestAddChildRollsUpIntoParent(t *testing.T) {
	mp, chain, _ := newTestPool(t, nil)

	coin := chain.addCoin(1, 500000)
	parent := makeTx([]utxo.OutPoint{coin}, 490000)
	parentEntry := mustAdd(t, mp, parent)

	child := makeTx([]utxo.OutPoint{utxo.NewOutPoint(parentEntry.TxHash, 0)}, 485000)
	childEntry := mustAdd(t, mp, child)

	if parentEntry.DescFee != parentEntry.DeltaFee+childEntry.DeltaFee {
		t.Errorf("parent desc_fee = %d, want %d",
			parentEntry.DescFee, parentEntry.DeltaFee+childEntry.DeltaFee)
	}
	if parentEntry.DescSize != parentEntry.Size+childEntry.Size {
		t.Errorf("parent desc_size = %d, want %d",
			parentEntry.DescSize, parentEntry.Size+childEntry.Size)
	}
	if childEntry.DescFee != childEntry.DeltaFee {
		t.Errorf("leaf desc_fee = %d, want its own %d", childEntry.DescFee, childEntry.DeltaFee)
	}
	checkInvariants(t, mp)
}

func TestAddRejectsCoinbase(t *testing.T) {
	mp, _, _ := newTestPool(t, nil)

	coinbase := &types.Transaction{
		Version: 1,
		Inputs: []types.TxInput{{
			PrevTxHash:  types.Hash{},
			OutputIndex: types.CoinbaseOutputIndex,
			Sequence:    0xFFFFFFFF,
		}},
		Outputs: []types.TxOutput{{Value: 5000000000, PubKeyScript: []byte{0x51}}},
	}

	_, err := mp.Add(coinbase, -1)
	if kindOf(t, err) != Coinbase {
		t.Errorf("kind = %v, want COINBASE", kindOf(t, err))
	}
	if mp.Size() != 0 {
		t.Errorf("pool size = %d after rejection, want 0", mp.Size())
	}
}

func TestAddIdempotentReadmission(t *testing.T) {
	mp, chain, _ := newTestPool(t, nil)

	coin := chain.addCoin(1, 100000)
	tx := makeTx([]utxo.OutPoint{coin}, 90000)
	mustAdd(t, mp, tx)

	sizeBefore, bytesBefore := mp.Size(), mp.Bytes()
	_, err := mp.Add(tx, -1)
	if kindOf(t, err) != TxInMempool {
		t.Errorf("kind = %v, want TX_IN_MEMPOOL", kindOf(t, err))
	}
	if mp.Size() != sizeBefore || mp.Bytes() != bytesBefore {
		t.Error("second Add changed pool state")
	}
	// A duplicate must stay retryable: it must not hit the reject filter.
	if mp.Rejects().Has(hashOf(t, tx)) {
		t.Error("duplicate submission was written to the reject filter")
	}
	checkInvariants(t, mp)
}

func TestAddDoubleSpendRejected(t *testing.T) {
	mp, chain, _ := newTestPool(t, nil)

	coin := chain.addCoin(1, 200000)
	original := makeTx([]utxo.OutPoint{coin}, 190000)
	mustAdd(t, mp, original)

	conflict := makeTx([]utxo.OutPoint{coin}, 150000)
	_, err := mp.Add(conflict, -1)
	if kindOf(t, err) != InputsSpent {
		t.Errorf("kind = %v, want INPUTS_SPENT", kindOf(t, err))
	}
	if mp.Size() != 1 {
		t.Errorf("pool size = %d, want 1", mp.Size())
	}
	// A definitive double spend is remembered.
	if !mp.Rejects().Has(hashOf(t, conflict)) {
		t.Error("double spend not recorded in reject filter")
	}
	checkInvariants(t, mp)
}

func TestAddRBFSignalingConflictIsReplacement(t *testing.T) {
	mp, chain, _ := newTestPool(t, nil)

	coin := chain.addCoin(1, 200000)
	mustAdd(t, mp, makeTx([]utxo.OutPoint{coin}, 190000))

	replacement := makeTx([]utxo.OutPoint{coin}, 140000)
	replacement.Inputs[0].Sequence = 0xFFFFFFFD

	_, err := mp.Add(replacement, -1)
	if kindOf(t, err) != Replacement {
		t.Errorf("kind = %v, want REPLACEMENT", kindOf(t, err))
	}
}

func TestAddSanityFailures(t *testing.T) {
	mp, chain, _ := newTestPool(t, nil)
	coin := chain.addCoin(1, 100000)

	tests := []struct {
		name string
		tx   *types.Transaction
		want Kind
	}{
		{
			name: "no inputs",
			tx:   &types.Transaction{Version: 1, Outputs: []types.TxOutput{{Value: 1000}}},
			want: SanityStructure,
		},
		{
			name: "no outputs",
			tx: &types.Transaction{Version: 1, Inputs: []types.TxInput{{
				PrevTxHash: coin.Hash, OutputIndex: 0, Sequence: 0xFFFFFFFF,
			}}},
			want: SanityStructure,
		},
		{
			name: "negative output",
			tx:   makeTx([]utxo.OutPoint{coin}, -1),
			want: SanityNegativeOutput,
		},
		{
			name: "duplicate input",
			tx:   makeTx([]utxo.OutPoint{coin, coin}, 90000),
			want: SanityDuplicateInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := mp.Add(tt.tx, -1)
			if kindOf(t, err) != tt.want {
				t.Errorf("kind = %v, want %v", kindOf(t, err), tt.want)
			}
		})
	}
}

func TestAddOutputsExceedInputs(t *testing.T) {
	mp, chain, _ := newTestPool(t, nil)

	coin := chain.addCoin(1, 1000)
	tx := makeTx([]utxo.OutPoint{coin}, 2000)
	_, err := mp.Add(tx, -1)
	if kindOf(t, err) != SanityNegativeOutput {
		t.Errorf("kind = %v, want SANITY_NEGATIVE_OUTPUT", kindOf(t, err))
	}
}

func TestAddFeeBounds(t *testing.T) {
	t.Run("below floor", func(t *testing.T) {
		mp, chain, _ := newTestPool(t, nil)
		coin := chain.addCoin(1, 100000)
		// Zero fee is under any positive relay floor.
		_, err := mp.Add(makeTx([]utxo.OutPoint{coin}, 100000), -1)
		if kindOf(t, err) != FeeLow {
			t.Errorf("kind = %v, want FEE_LOW", kindOf(t, err))
		}
	})

	t.Run("absurdly high", func(t *testing.T) {
		mp, chain, _ := newTestPool(t, nil)
		coin := chain.addCoin(1, 100000000)
		// A ~60 vbyte tx paying a 99,000,000 sat fee is far past the
		// 10000x floor multiple.
		_, err := mp.Add(makeTx([]utxo.OutPoint{coin}, 1000000), -1)
		if kindOf(t, err) != FeeHigh {
			t.Errorf("kind = %v, want FEE_HIGH", kindOf(t, err))
		}
	})
}

func TestAddPrematureWitness(t *testing.T) {
	mp, chain, _ := newTestPool(t, nil)
	chain.flags &^= DeploymentWitness

	coin := chain.addCoin(1, 100000)
	tx := makeTx([]utxo.OutPoint{coin}, 90000)
	tx.Inputs[0].Witness = [][]byte{{0x01}}

	_, err := mp.Add(tx, -1)
	if kindOf(t, err) != PrematureWitness {
		t.Errorf("kind = %v, want PREMATURE_WITNESS", kindOf(t, err))
	}
}

func TestAddNonFinalRejected(t *testing.T) {
	mp, chain, _ := newTestPool(t, nil)

	coin := chain.addCoin(1, 100000)
	tx := makeTx([]utxo.OutPoint{coin}, 90000)
	tx.LockTime = uint32(chain.height + 50)

	_, err := mp.Add(tx, -1)
	if kindOf(t, err) != Finality {
		t.Errorf("kind = %v, want FINALITY", kindOf(t, err))
	}
}

func TestAddImmatureCoinbaseSpend(t *testing.T) {
	mp, chain, _ := newTestPool(t, nil)

	// Coinbase created at height 90, tip at 100: 89 confirmations short.
	coin := chain.addCoinbaseCoin(1, 5000000000, 90)
	tx := makeTx([]utxo.OutPoint{coin}, 4999990000)

	_, err := mp.Add(tx, -1)
	if kindOf(t, err) != PrematureCSV {
		t.Errorf("kind = %v, want PREMATURE_CSV", kindOf(t, err))
	}
}

func TestAddMatureCoinbaseSpendFlagsEntry(t *testing.T) {
	mp, chain, _ := newTestPool(t, nil)
	chain.height = 300

	coin := chain.addCoinbaseCoin(1, 5000000000, 100)
	entry := mustAdd(t, mp, makeTx([]utxo.OutPoint{coin}, 4999990000))

	if !entry.IsCoinbaseSpend {
		t.Error("entry not flagged as coinbase spend")
	}
}

func TestAddAncestorChainLimit(t *testing.T) {
	mp, chain, _ := newTestPool(t, func(cfg *Config) {
		cfg.MaxAncestors = 3
	})

	coin := chain.addCoin(1, 10000000)
	prev := mustAdd(t, mp, makeTx([]utxo.OutPoint{coin}, 9990000))

	// Three more links are fine; the fourth crosses the ancestor cap.
	value := int64(9990000)
	for i := 0; i < 3; i++ {
		value -= 10000
		prev = mustAdd(t, mp, makeTx([]utxo.OutPoint{utxo.NewOutPoint(prev.TxHash, 0)}, value))
	}

	value -= 10000
	_, err := mp.Add(makeTx([]utxo.OutPoint{utxo.NewOutPoint(prev.TxHash, 0)}, value), -1)
	if kindOf(t, err) != MempoolChain {
		t.Errorf("kind = %v, want MEMPOOL_CHAIN", kindOf(t, err))
	}
	checkInvariants(t, mp)
}

func TestAddKnownConfirmedTransaction(t *testing.T) {
	mp, chain, _ := newTestPool(t, nil)

	funded := chain.addCoin(1, 100000)
	tx := makeTx([]utxo.OutPoint{funded}, 90000)

	// Make the chain report an unspent coin under the candidate's own
	// txid, the signal that it already confirmed.
	txid := hashOf(t, tx)
	chain.coins[utxo.NewOutPoint(txid, 0)] = utxo.NewUTXO(txid, 0, types.TxOutput{
		Value: 1, PubKeyScript: []byte{0x51},
	}, 1, false)

	_, err := mp.Add(tx, -1)
	if kindOf(t, err) != TxKnown {
		t.Errorf("kind = %v, want TX_KNOWN", kindOf(t, err))
	}
}
