package mempool

import (
	"testing"

	"github.com/pouria-shahmiri/bitcoin-node/pkg/types"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/utxo"
)

func TestOrphanStoredAndResolved(t *testing.T) {
	mp, chain, obs := newTestPool(t, nil)

	coin := chain.addCoin(1, 300000)
	parent := makeTx([]utxo.OutPoint{coin}, 290000)
	parentHash := hashOf(t, parent)

	// Child first: its parent is unknown everywhere, so it must be filed
	// as an orphan, not rejected.
	child := makeTx([]utxo.OutPoint{utxo.NewOutPoint(parentHash, 0)}, 280000)
	childHash := hashOf(t, child)

	entry, err := mp.Add(child, 7)
	if err != nil {
		t.Fatalf("orphan submission failed: %v", err)
	}
	if entry != nil {
		t.Fatal("orphan submission returned an entry")
	}
	if mp.Size() != 0 {
		t.Errorf("pool size = %d, want 0", mp.Size())
	}
	if mp.OrphanCount() != 1 || !mp.HasOrphan(childHash) {
		t.Error("orphan table does not hold the child")
	}

	missing := mp.Missing()
	if len(missing) != 1 || missing[0] != parentHash {
		t.Errorf("missing parents = %v, want [%s]", missing, parentHash)
	}

	// The parent arrives; both should now be fully admitted, parent first.
	if _, err := mp.Add(parent, -1); err != nil {
		t.Fatalf("parent submission failed: %v", err)
	}
	if mp.Size() != 2 {
		t.Errorf("pool size = %d, want 2", mp.Size())
	}
	if mp.OrphanCount() != 0 {
		t.Errorf("orphan count = %d, want 0", mp.OrphanCount())
	}
	if len(mp.Missing()) != 0 {
		t.Errorf("missing parents = %v, want none", mp.Missing())
	}
	if len(obs.accepted) != 2 || obs.accepted[0] != parentHash || obs.accepted[1] != childHash {
		t.Errorf("OnTx order = %v, want [parent child]", obs.accepted)
	}
	checkInvariants(t, mp)
}

func TestOrphanChainCascades(t *testing.T) {
	mp, chain, _ := newTestPool(t, nil)

	// grandchild -> child -> parent, submitted deepest-first.
	coin := chain.addCoin(1, 1000000)
	parent := makeTx([]utxo.OutPoint{coin}, 990000)
	parentHash := hashOf(t, parent)
	child := makeTx([]utxo.OutPoint{utxo.NewOutPoint(parentHash, 0)}, 980000)
	childHash := hashOf(t, child)
	grandchild := makeTx([]utxo.OutPoint{utxo.NewOutPoint(childHash, 0)}, 970000)

	for _, tx := range []*types.Transaction{grandchild, child} {
		entry, err := mp.Add(tx, -1)
		if err != nil || entry != nil {
			t.Fatalf("expected orphan filing, got entry=%v err=%v", entry, err)
		}
	}
	if mp.OrphanCount() != 2 {
		t.Fatalf("orphan count = %d, want 2", mp.OrphanCount())
	}

	// One parent arrival drains the whole chain.
	if _, err := mp.Add(parent, -1); err != nil {
		t.Fatalf("parent submission failed: %v", err)
	}
	if mp.Size() != 3 {
		t.Errorf("pool size = %d, want 3", mp.Size())
	}
	if mp.OrphanCount() != 0 {
		t.Errorf("orphan count = %d, want 0", mp.OrphanCount())
	}
	checkInvariants(t, mp)
}

func TestOrphanMultipleMissingParents(t *testing.T) {
	mp, chain, _ := newTestPool(t, nil)

	coinA := chain.addCoin(1, 500000)
	coinB := chain.addCoin(2, 500000)
	parentA := makeTx([]utxo.OutPoint{coinA}, 490000)
	parentB := makeTx([]utxo.OutPoint{coinB}, 490000)
	hashA := hashOf(t, parentA)
	hashB := hashOf(t, parentB)

	orphan := makeTx([]utxo.OutPoint{
		utxo.NewOutPoint(hashA, 0),
		utxo.NewOutPoint(hashB, 0),
	}, 970000)

	if entry, err := mp.Add(orphan, -1); err != nil || entry != nil {
		t.Fatalf("expected orphan filing, got entry=%v err=%v", entry, err)
	}
	if got := len(mp.Missing()); got != 2 {
		t.Fatalf("missing parents = %d, want 2", got)
	}

	// First parent alone must not release the orphan.
	if _, err := mp.Add(parentA, -1); err != nil {
		t.Fatalf("parentA failed: %v", err)
	}
	if mp.OrphanCount() != 1 {
		t.Errorf("orphan count = %d after first parent, want 1", mp.OrphanCount())
	}

	if _, err := mp.Add(parentB, -1); err != nil {
		t.Fatalf("parentB failed: %v", err)
	}
	if mp.OrphanCount() != 0 || mp.Size() != 3 {
		t.Errorf("pool=%d orphans=%d after both parents, want 3/0", mp.Size(), mp.OrphanCount())
	}
	checkInvariants(t, mp)
}

func TestOrphanCapEvictsRandomVictim(t *testing.T) {
	mp, _, _ := newTestPool(t, func(cfg *Config) {
		cfg.MaxOrphans = 5
	})
	// Deterministic victim selection: always the oldest slot.
	mp.orphans.rng = func(n int) int { return 0 }

	for i := 0; i < 8; i++ {
		var parentHash types.Hash
		parentHash[0] = 0xee
		parentHash[1] = byte(i)
		orphan := makeTx([]utxo.OutPoint{utxo.NewOutPoint(parentHash, 0)}, 1000)
		if entry, err := mp.Add(orphan, -1); err != nil || entry != nil {
			t.Fatalf("orphan %d: entry=%v err=%v", i, entry, err)
		}
	}

	if mp.OrphanCount() != 5 {
		t.Errorf("orphan count = %d, want cap 5", mp.OrphanCount())
	}
}

func TestOrphanDuplicateSubmission(t *testing.T) {
	mp, _, _ := newTestPool(t, nil)

	var parentHash types.Hash
	parentHash[0] = 0xaa
	orphan := makeTx([]utxo.OutPoint{utxo.NewOutPoint(parentHash, 0)}, 1000)

	if entry, err := mp.Add(orphan, -1); err != nil || entry != nil {
		t.Fatalf("first filing: entry=%v err=%v", entry, err)
	}
	_, err := mp.Add(orphan, -1)
	if kindOf(t, err) != TxInMempool {
		t.Errorf("kind = %v, want TX_IN_MEMPOOL", kindOf(t, err))
	}
	if mp.OrphanCount() != 1 {
		t.Errorf("orphan count = %d, want 1", mp.OrphanCount())
	}
}

func TestOrphanWithRejectedParentIsDuplicate(t *testing.T) {
	mp, chain, _ := newTestPool(t, nil)

	// A double spend gets the conflicting txid into the reject filter.
	coin := chain.addCoin(1, 200000)
	mustAdd(t, mp, makeTx([]utxo.OutPoint{coin}, 190000))
	badParent := makeTx([]utxo.OutPoint{coin}, 150000)
	badParentHash := hashOf(t, badParent)
	if _, err := mp.Add(badParent, -1); kindOf(t, err) != InputsSpent {
		t.Fatalf("setup: expected INPUTS_SPENT, got %v", err)
	}

	// A child of the rejected parent is dropped, not stored.
	child := makeTx([]utxo.OutPoint{utxo.NewOutPoint(badParentHash, 0)}, 1000)
	_, err := mp.Add(child, -1)
	if kindOf(t, err) != Duplicate {
		t.Errorf("kind = %v, want DUPLICATE", kindOf(t, err))
	}
	if mp.OrphanCount() != 0 {
		t.Errorf("orphan count = %d, want 0", mp.OrphanCount())
	}
}

func TestOrphanWeightLimit(t *testing.T) {
	mp, _, _ := newTestPool(t, func(cfg *Config) {
		cfg.MaxTxWeight = 500
	})

	var parentHash types.Hash
	parentHash[0] = 0xbb
	heavy := makeTx([]utxo.OutPoint{utxo.NewOutPoint(parentHash, 0)}, 1000)
	heavy.Inputs[0].SignatureScript = make([]byte, 400)

	_, err := mp.Add(heavy, -1)
	if kindOf(t, err) != TxWeight {
		t.Errorf("kind = %v, want TX_WEIGHT", kindOf(t, err))
	}
	if mp.OrphanCount() != 0 {
		t.Errorf("orphan count = %d, want 0", mp.OrphanCount())
	}
}

func TestResolveCandidatesUnindexesReadyOrphans(t *testing.T) {
	mp, _, _ := newTestPool(t, nil)

	var parentHash types.Hash
	parentHash[0] = 0xcd
	orphan := makeTx([]utxo.OutPoint{utxo.NewOutPoint(parentHash, 0)}, 1000)
	orphanHash := hashOf(t, orphan)

	if entry, err := mp.Add(orphan, -1); err != nil || entry != nil {
		t.Fatalf("expected orphan filing, got entry=%v err=%v", entry, err)
	}

	ready := mp.orphans.resolveCandidates(parentHash)
	if len(ready) != 1 || ready[0].TxHash != orphanHash {
		t.Fatalf("ready = %v, want the single stored orphan", ready)
	}

	// A ready candidate is handed to the caller for resubmission; it must
	// no longer look like a stored orphan while that happens, or its own
	// re-filing as an orphan would collide with the stale record.
	if mp.orphans.has(orphanHash) {
		t.Error("ready candidate still indexed in the orphan table")
	}
	if len(mp.Missing()) != 0 {
		t.Errorf("missing parents = %v, want none", mp.Missing())
	}
	if mp.OrphanCount() != 0 {
		t.Errorf("orphan count = %d, want 0", mp.OrphanCount())
	}
}

func TestBadOrphanFiresCallback(t *testing.T) {
	mp, chain, obs := newTestPool(t, nil)

	coin := chain.addCoin(1, 100000)
	parent := makeTx([]utxo.OutPoint{coin}, 90000)
	parentHash := hashOf(t, parent)

	// The orphan spends the parent's only output into more value than it
	// carries: resolvable only to fail contextual checks.
	bad := makeTx([]utxo.OutPoint{utxo.NewOutPoint(parentHash, 0)}, 95000)
	badHash := hashOf(t, bad)
	if entry, err := mp.Add(bad, 3); err != nil || entry != nil {
		t.Fatalf("expected orphan filing, got entry=%v err=%v", entry, err)
	}

	if _, err := mp.Add(parent, -1); err != nil {
		t.Fatalf("parent failed: %v", err)
	}

	if len(obs.badOrphans) != 1 || obs.badOrphans[0] != badHash {
		t.Errorf("OnBadOrphan fired %v, want [%s]", obs.badOrphans, badHash)
	}
	if mp.Size() != 1 {
		t.Errorf("pool size = %d, want only the parent", mp.Size())
	}
	if mp.OrphanCount() != 0 {
		t.Errorf("orphan count = %d, want 0", mp.OrphanCount())
	}
	checkInvariants(t, mp)
}
