package relay

import (
	"testing"

	"github.com/pouria-shahmiri/bitcoin-node/pkg/mempool"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/security"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/serialization"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/types"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/utxo"
)

// stubChain supplies a fixed set of coins and accepts everything else.
type stubChain struct {
	coins map[utxo.OutPoint]*utxo.UTXO
}

func newStubChain() *stubChain {
	return &stubChain{coins: make(map[utxo.OutPoint]*utxo.UTXO)}
}

func (c *stubChain) Tip() mempool.TipInfo           { return mempool.TipInfo{Height: 100} }
func (c *stubChain) State() mempool.DeploymentFlags { return mempool.DeploymentWitness | mempool.DeploymentCSV }
func (c *stubChain) VerifyFinal(mempool.TipInfo, *types.Transaction) bool { return true }
func (c *stubChain) VerifyLocks(mempool.TipInfo, *types.Transaction, *mempool.View) bool {
	return true
}
func (c *stubChain) HasCoins(types.Hash) bool { return false }
func (c *stubChain) GetCoins(view *mempool.View, tx *types.Transaction) {
	for _, in := range tx.Inputs {
		op := utxo.NewOutPoint(in.PrevTxHash, in.OutputIndex)
		if coin, ok := c.coins[op]; ok {
			view.Put(op, coin)
		}
	}
}
func (c *stubChain) CoinbaseMaturity() uint64 { return 100 }

func (c *stubChain) addCoin(seed byte, value int64) utxo.OutPoint {
	var txid types.Hash
	txid[0] = 0xc0
	txid[1] = seed
	op := utxo.NewOutPoint(txid, 0)
	c.coins[op] = utxo.NewUTXO(txid, 0, types.TxOutput{
		Value:        value,
		PubKeyScript: []byte{0x51},
	}, 1, false)
	return op
}

// recAnnouncer records every rebroadcast.
type recAnnouncer struct {
	relayed []*types.Transaction
}

func (r *recAnnouncer) RelayTransaction(tx *types.Transaction, sourceAddr string) {
	r.relayed = append(r.relayed, tx)
}

func spend(op utxo.OutPoint, outValue int64) *types.Transaction {
	return &types.Transaction{
		Version: 1,
		Inputs: []types.TxInput{{
			PrevTxHash:  op.Hash,
			OutputIndex: op.Index,
			Sequence:    0xFFFFFFFF,
		}},
		Outputs: []types.TxOutput{{Value: outValue, PubKeyScript: []byte{0x51}}},
	}
}

func newTestRelay(t *testing.T) (*Relay, *stubChain, *recAnnouncer, *security.DoSProtection) {
	t.Helper()
	chain := newStubChain()
	pool := mempool.New(mempool.DefaultConfig(), mempool.DefaultPolicy(), chain,
		mempool.NetParams{RequireStandard: false, MinRelayFeeRate: 1}, nil, nil, nil)
	dos := security.NewDoSProtection()
	ann := &recAnnouncer{}
	r := New(pool, dos, ann, nil)
	pool.SetObserver(r)
	return r, chain, ann, dos
}

func TestSubmitTxAcceptsAndRebroadcasts(t *testing.T) {
	r, chain, ann, _ := newTestRelay(t)

	id := r.RegisterPeer("192.0.2.1:8333")
	coin := chain.addCoin(1, 100000)
	tx := spend(coin, 90000)

	if err := r.SubmitTx(tx, id); err != nil {
		t.Fatalf("SubmitTx failed: %v", err)
	}
	if len(ann.relayed) != 1 || ann.relayed[0] != tx {
		t.Errorf("rebroadcast %d txs, want exactly the accepted one", len(ann.relayed))
	}
}

func TestSubmitTxPenalizesScoredRejection(t *testing.T) {
	r, chain, _, dos := newTestRelay(t)

	honest := r.RegisterPeer("192.0.2.1:8333")
	hostile := r.RegisterPeer("192.0.2.66:8333")

	coin := chain.addCoin(1, 200000)
	if err := r.SubmitTx(spend(coin, 190000), honest); err != nil {
		t.Fatalf("setup submission failed: %v", err)
	}

	// A non-RBF double spend scores 100 points: instant ban at the
	// default threshold.
	if err := r.SubmitTx(spend(coin, 150000), hostile); err == nil {
		t.Fatal("double spend was accepted")
	}

	banned := dos.GetBannedIPs()
	if len(banned) != 1 || banned[0] != "192.0.2.66" {
		t.Errorf("banned IPs = %v, want the double-spending peer only", banned)
	}
}

func TestSubmitTxOrphanNotPenalizedAndDeduped(t *testing.T) {
	r, _, ann, dos := newTestRelay(t)

	id := r.RegisterPeer("192.0.2.1:8333")

	var missingParent types.Hash
	missingParent[0] = 0xaa
	orphan := spend(utxo.NewOutPoint(missingParent, 0), 1000)

	if err := r.SubmitTx(orphan, id); err != nil {
		t.Fatalf("orphan submission failed: %v", err)
	}
	if len(dos.GetBannedIPs()) != 0 {
		t.Error("orphan submission penalized the peer")
	}
	if len(ann.relayed) != 0 {
		t.Error("orphan was rebroadcast before resolution")
	}

	// A duplicate announcement of the same orphan short-circuits in the
	// recently-seen cache instead of re-running admission.
	if err := r.SubmitTx(orphan, id); err != nil {
		t.Errorf("duplicate orphan announcement errored: %v", err)
	}
}

func TestOrphanResolutionRebroadcastsBoth(t *testing.T) {
	r, chain, ann, _ := newTestRelay(t)

	id := r.RegisterPeer("192.0.2.1:8333")

	coin := chain.addCoin(1, 300000)
	parent := spend(coin, 290000)
	parentHash, err := serialization.HashTransaction(parent)
	if err != nil {
		t.Fatal(err)
	}
	child := spend(utxo.NewOutPoint(parentHash, 0), 280000)

	if err := r.SubmitTx(child, id); err != nil {
		t.Fatalf("child submission failed: %v", err)
	}
	if err := r.SubmitTx(parent, id); err != nil {
		t.Fatalf("parent submission failed: %v", err)
	}

	// Parent admission and the cascaded child admission both rebroadcast.
	if len(ann.relayed) != 2 {
		t.Errorf("rebroadcast %d txs, want 2 (parent then resolved child)", len(ann.relayed))
	}
}
