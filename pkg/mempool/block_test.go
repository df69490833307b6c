package mempool

import (
	"testing"

	"github.com/pouria-shahmiri/bitcoin-node/pkg/types"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/utxo"
)

// mkBlock assembles a block whose first transaction is a coinbase,
// followed by txs in order.
func mkBlock(txs ...*types.Transaction) *types.Block {
	coinbase := types.Transaction{
		Version: 1,
		Inputs: []types.TxInput{{
			PrevTxHash:  types.Hash{},
			OutputIndex: types.CoinbaseOutputIndex,
			Sequence:    0xFFFFFFFF,
		}},
		Outputs: []types.TxOutput{{Value: 5000000000, PubKeyScript: []byte{0x51}}},
	}
	block := &types.Block{Transactions: []types.Transaction{coinbase}}
	for _, tx := range txs {
		block.Transactions = append(block.Transactions, *tx)
	}
	return block
}

func TestAddBlockRemovesConfirmedEntries(t *testing.T) {
	mp, chain, _ := newTestPool(t, nil)

	coinA := chain.addCoin(1, 100000)
	coinB := chain.addCoin(2, 100000)
	a := makeTx([]utxo.OutPoint{coinA}, 90000)
	b := makeTx([]utxo.OutPoint{coinB}, 90000)
	entryA := mustAdd(t, mp, a)
	entryB := mustAdd(t, mp, b)

	// Seed the reject filter so the reset is observable.
	conflict := makeTx([]utxo.OutPoint{coinA}, 80000)
	conflictHash := hashOf(t, conflict)
	if _, err := mp.Add(conflict, -1); kindOf(t, err) != InputsSpent {
		t.Fatalf("setup: expected INPUTS_SPENT, got %v", err)
	}

	mp.AddBlock(mkBlock(a))

	if mp.Has(entryA.TxHash) {
		t.Error("confirmed entry still in pool")
	}
	if !mp.Has(entryB.TxHash) {
		t.Error("unrelated entry removed by block connect")
	}
	if mp.Rejects().Has(conflictHash) {
		t.Error("reject filter not reset on block connect")
	}
	checkInvariants(t, mp)
}

func TestAddBlockKeepsConfirmedEntrysDescendants(t *testing.T) {
	mp, chain, _ := newTestPool(t, nil)

	coin := chain.addCoin(1, 500000)
	parent := makeTx([]utxo.OutPoint{coin}, 490000)
	parentEntry := mustAdd(t, mp, parent)
	child := makeTx([]utxo.OutPoint{utxo.NewOutPoint(parentEntry.TxHash, 0)}, 480000)
	childEntry := mustAdd(t, mp, child)

	mp.AddBlock(mkBlock(parent))

	if mp.Has(parentEntry.TxHash) {
		t.Error("confirmed parent still in pool")
	}
	if !mp.Has(childEntry.TxHash) {
		t.Error("child of confirmed parent was removed")
	}
	checkInvariants(t, mp)
}

func TestAddBlockEvictsDoubleSpentEntries(t *testing.T) {
	mp, chain, _ := newTestPool(t, nil)

	coin := chain.addCoin(1, 200000)
	loser := mustAdd(t, mp, makeTx([]utxo.OutPoint{coin}, 190000))

	// A different transaction spending the same coin confirms instead.
	winner := makeTx([]utxo.OutPoint{coin}, 195000)
	mp.AddBlock(mkBlock(winner))

	if mp.Has(loser.TxHash) {
		t.Error("chain-outcompeted spend still in pool")
	}
	checkInvariants(t, mp)
}

func TestAddBlockResolvesOrphansOfConfirmedParent(t *testing.T) {
	mp, chain, _ := newTestPool(t, nil)

	coin := chain.addCoin(1, 300000)
	parent := makeTx([]utxo.OutPoint{coin}, 290000)
	parentHash := hashOf(t, parent)

	orphan := makeTx([]utxo.OutPoint{utxo.NewOutPoint(parentHash, 0)}, 280000)
	if entry, err := mp.Add(orphan, -1); err != nil || entry != nil {
		t.Fatalf("expected orphan filing, got entry=%v err=%v", entry, err)
	}

	// The parent confirms directly in a block without ever entering the
	// pool; its output must now be resolvable for the waiting orphan.
	chain.coins[utxo.NewOutPoint(parentHash, 0)] = utxo.NewUTXO(parentHash, 0,
		parent.Outputs[0], chain.height, false)
	mp.AddBlock(mkBlock(parent))

	if mp.OrphanCount() != 0 {
		t.Errorf("orphan count = %d, want 0", mp.OrphanCount())
	}
	if mp.Size() != 1 {
		t.Errorf("pool size = %d, want the resolved orphan only", mp.Size())
	}
	checkInvariants(t, mp)
}

func TestRemoveBlockReadmitsTransactions(t *testing.T) {
	mp, chain, _ := newTestPool(t, nil)

	coin := chain.addCoin(1, 100000)
	tx := makeTx([]utxo.OutPoint{coin}, 90000)
	entry := mustAdd(t, mp, tx)

	block := mkBlock(tx)
	mp.AddBlock(block)
	if mp.Has(entry.TxHash) {
		t.Fatal("setup: entry not removed by connect")
	}

	mp.RemoveBlock(block)

	if !mp.Has(entry.TxHash) {
		t.Error("disconnected transaction not readmitted")
	}
	if mp.Size() != 1 {
		t.Errorf("pool size = %d, want 1", mp.Size())
	}
	checkInvariants(t, mp)
}

func TestRemoveBlockSkipsTransactionsAlreadyPresent(t *testing.T) {
	mp, chain, _ := newTestPool(t, nil)

	coin := chain.addCoin(1, 100000)
	tx := makeTx([]utxo.OutPoint{coin}, 90000)
	mustAdd(t, mp, tx)

	sizeBefore := mp.Bytes()
	mp.RemoveBlock(mkBlock(tx))

	if mp.Size() != 1 || mp.Bytes() != sizeBefore {
		t.Error("RemoveBlock disturbed an entry that was already in the pool")
	}
	checkInvariants(t, mp)
}

func TestHandleReorgEvictsNonFinalEntries(t *testing.T) {
	mp, chain, _ := newTestPool(t, nil)

	coin := chain.addCoin(1, 100000)
	tx := makeTx([]utxo.OutPoint{coin}, 90000)
	tx.LockTime = uint32(chain.height) // final at height+1, barely
	entry := mustAdd(t, mp, tx)

	coin2 := chain.addCoin(2, 100000)
	stable := mustAdd(t, mp, makeTx([]utxo.OutPoint{coin2}, 90000))

	// The reorg lands on a much shorter chain; the locktime is no longer
	// satisfied.
	chain.height = 50
	mp.HandleReorg()

	if mp.Has(entry.TxHash) {
		t.Error("non-final entry survived reorg")
	}
	if !mp.Has(stable.TxHash) {
		t.Error("still-valid entry was evicted")
	}
	checkInvariants(t, mp)
}

func TestHandleReorgEvictsFailedSequenceLocks(t *testing.T) {
	mp, chain, _ := newTestPool(t, nil)

	coin := chain.addCoin(1, 100000)
	tx := makeTx([]utxo.OutPoint{coin}, 90000)
	tx.Version = 2
	tx.Inputs[0].Sequence = 5 // height-based relative lock, disable flag clear
	entry := mustAdd(t, mp, tx)
	if !entry.UsesLocks {
		t.Fatal("setup: entry not flagged as lock-using")
	}

	chain.locksOK = false
	mp.HandleReorg()

	if mp.Has(entry.TxHash) {
		t.Error("entry with failing sequence locks survived reorg")
	}
	checkInvariants(t, mp)
}

func TestHandleReorgEvictsImmatureCoinbaseSpends(t *testing.T) {
	mp, chain, _ := newTestPool(t, nil)
	chain.height = 300

	coin := chain.addCoinbaseCoin(1, 5000000000, 100)
	entry := mustAdd(t, mp, makeTx([]utxo.OutPoint{coin}, 4999990000))
	if !entry.IsCoinbaseSpend {
		t.Fatal("setup: entry not flagged as coinbase spend")
	}

	// The new tip is back inside the maturity window.
	chain.height = 150
	mp.HandleReorg()

	if mp.Has(entry.TxHash) {
		t.Error("immature coinbase spend survived reorg")
	}
	checkInvariants(t, mp)
}
