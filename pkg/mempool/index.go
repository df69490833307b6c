package mempool

import (
	"github.com/pouria-shahmiri/bitcoin-node/pkg/types"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/utxo"
)

// addEntry indexes entry into the primary index and spender index and
// rolls its DeltaFee/Size into every ancestor's DescFee/DescSize. Callers
// must have already computed entry's ancestor set (verify.go does this as
// part of the ancestor-depth check, so add.go reuses it rather than
// re-walking).
func (m *Mempool) addEntry(entry *Entry, ancestors map[types.Hash]*Entry) {
	m.entries[entry.TxHash] = entry
	m.size += entry.Size

	for _, in := range entry.Tx.Inputs {
		op := utxo.NewOutPoint(in.PrevTxHash, in.OutputIndex)
		m.spenders[op] = entry
	}

	m.rollupAdd(ancestors, entry.DeltaFee, entry.Size)
}

// children returns the entries in the pool that spend any output of entry's
// transaction, by probing the spender index for outpoints whose txid is
// entry.TxHash, rather than maintaining a separate child list.
func (m *Mempool) children(entry *Entry) []*Entry {
	var kids []*Entry
	seen := make(map[types.Hash]struct{})
	for i := range entry.Tx.Outputs {
		op := utxo.NewOutPoint(entry.TxHash, uint32(i))
		if child, ok := m.spenders[op]; ok {
			if _, dup := seen[child.TxHash]; !dup {
				seen[child.TxHash] = struct{}{}
				kids = append(kids, child)
			}
		}
	}
	return kids
}

// removeEntry removes a single entry from both indexes and adjusts
// m.size, without touching its descendants or rolling back ancestor
// rollups. Used by add_block (§4.5), where descendants remain valid because
// their own ancestor-of-ancestor ensures correctness once the chain itself
// now supplies the coin.
func (m *Mempool) removeEntry(entry *Entry) {
	delete(m.entries, entry.TxHash)
	m.size -= entry.Size

	for _, in := range entry.Tx.Inputs {
		op := utxo.NewOutPoint(in.PrevTxHash, in.OutputIndex)
		if cur, ok := m.spenders[op]; ok && cur.TxHash == entry.TxHash {
			delete(m.spenders, op)
		}
	}
}

// evictEntry removes entry and its entire descendant subtree, rolling back
// ancestor DescFee/DescSize for every entry that leaves the pool. This is
// the only removal path that keeps the rollups consistent under eviction,
// expiry, and double-spend cleanup.
func (m *Mempool) evictEntry(entry *Entry) {
	for _, child := range m.children(entry) {
		if _, stillPresent := m.entries[child.TxHash]; stillPresent {
			m.evictEntry(child)
		}
	}

	ancestors, _ := m.ancestors(entry.Tx)
	// Exclude any ancestor that is itself being unwound in the same pass
	// (it would have already had its DescFee/DescSize rolled back by its
	// own evictEntry call higher in the recursion).
	live := make(map[types.Hash]*Entry, len(ancestors))
	for h, a := range ancestors {
		if _, ok := m.entries[h]; ok {
			live[h] = a
		}
	}
	m.rollupRemove(live, entry)

	m.removeEntry(entry)
}

// removeDoubleSpends evicts whatever pool entry currently spends any of
// tx's inputs — used by add_block when a confirmed transaction conflicts
// with a pool entry that never confirmed (a double-spend resolved in the
// chain's favor).
func (m *Mempool) removeDoubleSpends(tx *types.Transaction) {
	seen := make(map[types.Hash]struct{})
	for _, in := range tx.Inputs {
		op := utxo.NewOutPoint(in.PrevTxHash, in.OutputIndex)
		entry, ok := m.spenders[op]
		if !ok {
			continue
		}
		if _, dup := seen[entry.TxHash]; dup {
			continue
		}
		seen[entry.TxHash] = struct{}{}
		m.evictEntry(entry)
	}
}
