package mempool

import (
	"testing"

	"github.com/pouria-shahmiri/bitcoin-node/pkg/types"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/utxo"
)

// fixedClock is a Timedata double tests can advance by hand.
type fixedClock struct{ now int64 }

func (c *fixedClock) Now() int64 { return c.now }

func TestEvictionShedsCheapestRoots(t *testing.T) {
	mp, chain, _ := newTestPool(t, func(cfg *Config) {
		cfg.HardCapBytes = 300
		cfg.SoftThresholdBytes = 200
	})

	// Cheapest first: later submissions pay strictly better rates.
	var hashes []types.Hash
	for i := 0; i < 6; i++ {
		coin := chain.addCoin(byte(i), 1000000)
		tx := makeTx([]utxo.OutPoint{coin}, 1000000-int64((i+1)*5000))
		entry, err := mp.Add(tx, -1)
		if err != nil {
			// The triggering submission itself may be evicted only if it
			// is the cheapest, which it never is here.
			t.Fatalf("tx %d: %v", i, err)
		}
		hashes = append(hashes, entry.TxHash)
	}

	if mp.Bytes() > 300 {
		t.Errorf("pool bytes = %d, want <= hard cap 300", mp.Bytes())
	}
	// The cheapest (earliest) entries are the ones gone; the most recent,
	// best-paying entry always survives.
	if !mp.Has(hashes[len(hashes)-1]) {
		t.Error("best-paying entry was evicted")
	}
	if mp.Has(hashes[0]) {
		t.Error("cheapest entry survived eviction")
	}
	checkInvariants(t, mp)
}

func TestEvictionTakesDescendantSubtree(t *testing.T) {
	mp, chain, _ := newTestPool(t, func(cfg *Config) {
		cfg.HardCapBytes = 300
		cfg.SoftThresholdBytes = 150
	})

	// A cheap parent with a cheap child: the package rate stays the worst
	// in the pool, so evicting the parent must drag the child along.
	coin := chain.addCoin(1, 1000000)
	parent := mustAdd(t, mp, makeTx([]utxo.OutPoint{coin}, 999900))
	child := mustAdd(t, mp, makeTx([]utxo.OutPoint{utxo.NewOutPoint(parent.TxHash, 0)}, 999800))

	// Three well-paying singles push the pool over the hard cap.
	for i := 2; i < 5; i++ {
		coin := chain.addCoin(byte(i), 1000000)
		if _, err := mp.Add(makeTx([]utxo.OutPoint{coin}, 900000), -1); err != nil {
			t.Fatalf("tx %d: %v", i, err)
		}
	}

	if mp.Has(parent.TxHash) != mp.Has(child.TxHash) {
		t.Error("parent and child were split by eviction")
	}
	if mp.Has(parent.TxHash) {
		t.Error("cheapest package survived eviction")
	}
	if _, ok := mp.Spender(coin); ok {
		t.Error("spender index still holds the evicted parent's input")
	}
	checkInvariants(t, mp)
}

func TestEvictionUsesPackageRateWhenChildSweetens(t *testing.T) {
	mp, chain, _ := newTestPool(t, nil)

	// Low-fee parent, high-fee child: use_desc must kick in.
	coin := chain.addCoin(1, 1000000)
	parent := mustAdd(t, mp, makeTx([]utxo.OutPoint{coin}, 999900))
	mustAdd(t, mp, makeTx([]utxo.OutPoint{utxo.NewOutPoint(parent.TxHash, 0)}, 900000))

	if !parent.useDescendantRate() {
		t.Error("parent should prefer its descendant package rate")
	}
	f, s := parent.evictionRate()
	if f != parent.DescFee || s != parent.DescSize {
		t.Errorf("eviction rate = (%d, %d), want package (%d, %d)",
			f, s, parent.DescFee, parent.DescSize)
	}

	// High-fee parent, low-fee child: own rate stays better.
	coin2 := chain.addCoin(2, 1000000)
	rich := mustAdd(t, mp, makeTx([]utxo.OutPoint{coin2}, 900000))
	mustAdd(t, mp, makeTx([]utxo.OutPoint{utxo.NewOutPoint(rich.TxHash, 0)}, 899900))

	if rich.useDescendantRate() {
		t.Error("rich parent should keep its own rate")
	}
	f, s = rich.evictionRate()
	if f != rich.DeltaFee || s != rich.Size {
		t.Errorf("eviction rate = (%d, %d), want own (%d, %d)", f, s, rich.DeltaFee, rich.Size)
	}
}

func TestExpiryEvictsOldRoots(t *testing.T) {
	clock := &fixedClock{now: 1700000000}
	chain := newTestChain()
	cfg := DefaultConfig()
	cfg.HardCapBytes = 100 // force limitSize on the second submission
	cfg.SoftThresholdBytes = 100
	mp := New(cfg, DefaultPolicy(), chain, NetParams{MinRelayFeeRate: 1}, clock, nil, nil)

	coin := chain.addCoin(1, 1000000)
	stale := mustAdd(t, mp, makeTx([]utxo.OutPoint{coin}, 990000))

	// Fifteen days later a new submission triggers the size cap; the old
	// root is past the expiry horizon and goes unconditionally.
	clock.now += 15 * 24 * 3600
	coin2 := chain.addCoin(2, 1000000)
	fresh, err := mp.Add(makeTx([]utxo.OutPoint{coin2}, 980000), -1)
	if err != nil {
		t.Fatalf("fresh submission: %v", err)
	}

	if mp.Has(stale.TxHash) {
		t.Error("expired entry survived")
	}
	if !mp.Has(fresh.TxHash) {
		t.Error("fresh entry did not survive")
	}
	checkInvariants(t, mp)
}

func TestSelfEvictionReturnsMempoolFull(t *testing.T) {
	mp, chain, _ := newTestPool(t, func(cfg *Config) {
		cfg.HardCapBytes = 100
		cfg.SoftThresholdBytes = 100
	})

	// One well-paying resident, then a cheaper newcomer that busts the
	// cap: the newcomer is the cheapest root and evicts itself.
	coin := chain.addCoin(1, 1000000)
	resident := mustAdd(t, mp, makeTx([]utxo.OutPoint{coin}, 500000))

	coin2 := chain.addCoin(2, 1000000)
	_, err := mp.Add(makeTx([]utxo.OutPoint{coin2}, 999000), -1)
	if kindOf(t, err) != MempoolFull {
		t.Errorf("kind = %v, want MEMPOOL_FULL", kindOf(t, err))
	}
	if !mp.Has(resident.TxHash) {
		t.Error("better-paying resident was evicted instead")
	}
	checkInvariants(t, mp)
}

func TestRemoveDoubleSpendsEvictsConflicts(t *testing.T) {
	mp, chain, _ := newTestPool(t, nil)

	coin := chain.addCoin(1, 200000)
	spender := mustAdd(t, mp, makeTx([]utxo.OutPoint{coin}, 190000))
	child := mustAdd(t, mp, makeTx([]utxo.OutPoint{utxo.NewOutPoint(spender.TxHash, 0)}, 180000))

	// A confirmed transaction spending the same coin invalidates both.
	confirmed := makeTx([]utxo.OutPoint{coin}, 195000)
	mp.removeDoubleSpends(confirmed)

	if mp.Has(spender.TxHash) || mp.Has(child.TxHash) {
		t.Error("double-spent entry or its descendant survived")
	}
	if mp.Size() != 0 || mp.Bytes() != 0 {
		t.Errorf("pool = %d entries / %d bytes, want empty", mp.Size(), mp.Bytes())
	}
	checkInvariants(t, mp)
}
