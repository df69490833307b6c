package mempool

import (
	"testing"

	"github.com/pouria-shahmiri/bitcoin-node/pkg/script"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/serialization"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/types"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/utxo"
)

// testChain is an in-memory Chain double: a flat coin map, a settable tip,
// and all soft forks active unless a test flips them off.
type testChain struct {
	coins   map[utxo.OutPoint]*utxo.UTXO
	height  uint64
	mtp     int64
	flags   DeploymentFlags
	locksOK bool
}

func newTestChain() *testChain {
	return &testChain{
		coins:   make(map[utxo.OutPoint]*utxo.UTXO),
		height:  100,
		mtp:     1700000000,
		flags:   DeploymentWitness | DeploymentCSV,
		locksOK: true,
	}
}

func (c *testChain) Tip() TipInfo {
	return TipInfo{Height: c.height, MedianTimePast: c.mtp}
}

func (c *testChain) State() DeploymentFlags { return c.flags }

func (c *testChain) VerifyFinal(tip TipInfo, tx *types.Transaction) bool {
	return tx.LockTime == 0 || uint64(tx.LockTime) <= tip.Height+1
}

func (c *testChain) VerifyLocks(tip TipInfo, tx *types.Transaction, view *View) bool {
	return c.locksOK
}

func (c *testChain) HasCoins(txid types.Hash) bool {
	for op := range c.coins {
		if op.Hash == txid {
			return true
		}
	}
	return false
}

func (c *testChain) GetCoins(view *View, tx *types.Transaction) {
	for _, in := range tx.Inputs {
		op := utxo.NewOutPoint(in.PrevTxHash, in.OutputIndex)
		if coin, ok := c.coins[op]; ok {
			view.Put(op, coin)
		}
	}
}

func (c *testChain) CoinbaseMaturity() uint64 { return 100 }

// addCoin mints a spendable chain coin and returns its outpoint. Seeds
// must be unique within a test.
func (c *testChain) addCoin(seed byte, value int64) utxo.OutPoint {
	var txid types.Hash
	txid[0] = 0xc0
	txid[1] = seed
	op := utxo.NewOutPoint(txid, 0)
	c.coins[op] = utxo.NewUTXO(txid, 0, types.TxOutput{
		Value:        value,
		PubKeyScript: []byte{script.OP_TRUE},
	}, 1, false)
	return op
}

// addCoinbaseCoin mints a coinbase-flagged coin created at the given
// height, for maturity tests.
func (c *testChain) addCoinbaseCoin(seed byte, value int64, height uint64) utxo.OutPoint {
	var txid types.Hash
	txid[0] = 0xcb
	txid[1] = seed
	op := utxo.NewOutPoint(txid, 0)
	c.coins[op] = utxo.NewUTXO(txid, 0, types.TxOutput{
		Value:        value,
		PubKeyScript: []byte{script.OP_TRUE},
	}, height, true)
	return op
}

// recObserver records callback firings in order.
type recObserver struct {
	accepted   []types.Hash
	badOrphans []types.Hash
}

func (r *recObserver) OnTx(entry *Entry, view *View, arg interface{}) {
	r.accepted = append(r.accepted, entry.TxHash)
}

func (r *recObserver) OnBadOrphan(hash types.Hash, err error, id int64, arg interface{}) {
	r.badOrphans = append(r.badOrphans, hash)
}

// newTestPool builds a pool over a fresh testChain with standardness off
// (fixtures use anyone-can-spend scripts) and a 1 sat/vB floor.
func newTestPool(t *testing.T, mod func(*Config)) (*Mempool, *testChain, *recObserver) {
	t.Helper()
	chain := newTestChain()
	cfg := DefaultConfig()
	if mod != nil {
		mod(&cfg)
	}
	obs := &recObserver{}
	mp := New(cfg, DefaultPolicy(), chain, NetParams{RequireStandard: false, MinRelayFeeRate: 1}, nil, nil, obs)
	return mp, chain, obs
}

// makeTx builds a transaction spending the given outpoints into
// anyone-can-spend outputs of the given values.
func makeTx(inputs []utxo.OutPoint, outputs ...int64) *types.Transaction {
	tx := &types.Transaction{Version: 1}
	for _, op := range inputs {
		tx.Inputs = append(tx.Inputs, types.TxInput{
			PrevTxHash:  op.Hash,
			OutputIndex: op.Index,
			Sequence:    0xFFFFFFFF,
		})
	}
	for _, v := range outputs {
		tx.Outputs = append(tx.Outputs, types.TxOutput{
			Value:        v,
			PubKeyScript: []byte{script.OP_TRUE},
		})
	}
	return tx
}

func hashOf(t *testing.T, tx *types.Transaction) types.Hash {
	t.Helper()
	h, err := serialization.HashTransaction(tx)
	if err != nil {
		t.Fatalf("failed to hash transaction: %v", err)
	}
	return h
}

func mustAdd(t *testing.T, mp *Mempool, tx *types.Transaction) *Entry {
	t.Helper()
	entry, err := mp.Add(tx, -1)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if entry == nil {
		t.Fatalf("Add filed transaction as orphan, expected full admission")
	}
	return entry
}

func kindOf(t *testing.T, err error) Kind {
	t.Helper()
	me, ok := AsMempoolError(err)
	if !ok {
		t.Fatalf("expected *mempool.Error, got %T: %v", err, err)
	}
	return me.Kind
}

// checkInvariants asserts the index, double-spend, rollup and size
// invariants over the pool's current state.
func checkInvariants(t *testing.T, mp *Mempool) {
	t.Helper()

	// Index consistency: every input outpoint of every entry maps back to
	// that entry in the spender index, and nothing else is indexed.
	indexed := 0
	for txid, entry := range mp.entries {
		if entry.TxHash != txid {
			t.Errorf("primary index key %s does not match entry hash %s", txid, entry.TxHash)
		}
		for _, in := range entry.Tx.Inputs {
			op := outpoint{Hash: in.PrevTxHash, Index: in.OutputIndex}
			spender, ok := mp.spenders[op]
			if !ok {
				t.Errorf("input %s of entry %s missing from spender index", op, txid)
				continue
			}
			if spender.TxHash != txid {
				t.Errorf("spender index maps %s to %s, want %s", op, spender.TxHash, txid)
			}
			indexed++
		}
	}
	if len(mp.spenders) != indexed {
		t.Errorf("spender index has %d entries, want %d", len(mp.spenders), indexed)
	}

	// Rollup correctness: recompute each entry's descendant set from the
	// spender index and compare against the incremental accounting.
	for txid, entry := range mp.entries {
		wantFee, wantSize := entry.DeltaFee, entry.Size
		seen := map[types.Hash]struct{}{txid: {}}
		stack := mp.children(entry)
		for len(stack) > 0 {
			d := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if _, dup := seen[d.TxHash]; dup {
				continue
			}
			seen[d.TxHash] = struct{}{}
			wantFee += d.DeltaFee
			wantSize += d.Size
			stack = append(stack, mp.children(d)...)
		}
		if entry.DescFee != wantFee || entry.DescSize != wantSize {
			t.Errorf("entry %s rollup (%d, %d) does not match recomputed (%d, %d)",
				txid, entry.DescFee, entry.DescSize, wantFee, wantSize)
		}
	}

	// Size accounting.
	var total int64
	for _, entry := range mp.entries {
		total += entry.Size
	}
	if mp.size != total {
		t.Errorf("pool size %d does not match entry sum %d", mp.size, total)
	}
}
