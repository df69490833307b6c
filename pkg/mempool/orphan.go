package mempool

import (
	"crypto/rand"
	"math/big"

	"github.com/pouria-shahmiri/bitcoin-node/pkg/types"
)

// orphanEntry is a syntactically-valid transaction that can't yet be fully
// admitted because one or more of its inputs point at an outpoint this pool
// has never seen confirmed or produced.
type orphanEntry struct {
	Tx      *types.Transaction
	TxHash  types.Hash
	Missing int   // count of distinct parent txids still unresolved
	ID      int64 // caller-supplied origin tag, propagated to OnBadOrphan
}

// orphanPool owns the orphan table and the waiting index. Like the Mempool
// that owns it, it has no mutex: the host serializes calls, matching the
// pool's single-writer model.
type orphanPool struct {
	byHash  map[types.Hash]*orphanEntry
	waiting map[types.Hash]map[types.Hash]struct{} // missing parent txid -> waiting orphan txids
	order   []types.Hash                           // insertion order, for random-victim eviction
	maxSize int
	rng     func(n int) int
}

func newOrphanPool(maxSize int) *orphanPool {
	return &orphanPool{
		byHash:  make(map[types.Hash]*orphanEntry),
		waiting: make(map[types.Hash]map[types.Hash]struct{}),
		maxSize: maxSize,
		rng:     cryptoRandIntn,
	}
}

func cryptoRandIntn(n int) int {
	if n <= 0 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

func (op *orphanPool) size() int {
	return len(op.byHash)
}

func (op *orphanPool) has(hash types.Hash) bool {
	_, ok := op.byHash[hash]
	return ok
}

func (op *orphanPool) get(hash types.Hash) (*orphanEntry, bool) {
	e, ok := op.byHash[hash]
	return e, ok
}

// add inserts tx as an orphan, enforcing MAX_ORPHANS via uniform
// random-victim eviction, then registers it under every distinct missing
// parent txid derived from view's unresolved inputs.
func (op *orphanPool) add(tx *types.Transaction, txHash types.Hash, view *View, id int64) {
	if op.has(txHash) {
		return
	}

	for op.size() >= op.maxSize && op.size() > 0 {
		victim := op.order[op.rng(len(op.order))]
		op.remove(victim)
	}

	missingParents := make(map[types.Hash]struct{})
	for _, pt := range missingInputs(tx, view) {
		missingParents[pt.Hash] = struct{}{}
	}

	entry := &orphanEntry{Tx: tx, TxHash: txHash, Missing: len(missingParents), ID: id}
	op.byHash[txHash] = entry
	op.order = append(op.order, txHash)

	for parentTxid := range missingParents {
		set, ok := op.waiting[parentTxid]
		if !ok {
			set = make(map[types.Hash]struct{})
			op.waiting[parentTxid] = set
		}
		set[txHash] = struct{}{}
	}
}

// remove destroys an orphan, unregistering it from the waiting index.
func (op *orphanPool) remove(hash types.Hash) {
	entry, ok := op.byHash[hash]
	if !ok {
		return
	}

	for _, in := range entry.Tx.Inputs {
		parentTxid := in.PrevTxHash
		set, ok := op.waiting[parentTxid]
		if !ok {
			continue
		}
		delete(set, hash)
		if len(set) == 0 {
			delete(op.waiting, parentTxid)
		}
	}

	delete(op.byHash, hash)
	for i, h := range op.order {
		if h == hash {
			op.order = append(op.order[:i], op.order[i+1:]...)
			break
		}
	}
}

// missingParents returns the distinct parent txids orphans are waiting on.
func (op *orphanPool) missingParents() []types.Hash {
	out := make([]types.Hash, 0, len(op.waiting))
	for parent := range op.waiting {
		out = append(out, parent)
	}
	return out
}

// resolveCandidates fetches and clears the waiting set for parentTxid,
// decrements Missing on every awaiting orphan, and returns the subset that
// reached zero. Ready candidates are deleted from the orphan table here:
// the caller resubmits them through admission, and an orphan that is about
// to be re-validated must not still look like a stored orphan while that
// happens (its own resubmission may legitimately re-file it).
func (op *orphanPool) resolveCandidates(parentTxid types.Hash) []*orphanEntry {
	set, ok := op.waiting[parentTxid]
	if !ok {
		return nil
	}
	delete(op.waiting, parentTxid)

	var ready []*orphanEntry
	for txid := range set {
		entry, ok := op.byHash[txid]
		if !ok {
			continue
		}
		entry.Missing--
		if entry.Missing <= 0 {
			ready = append(ready, entry)
			op.remove(txid)
		}
	}
	return ready
}
