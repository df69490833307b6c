package mempool

import (
	"github.com/pouria-shahmiri/bitcoin-node/pkg/types"
)

// parentTxids returns the distinct in-pool parent txids of tx, skipping
// coinbase-style null inputs. Used both to seed ancestor traversal and to
// build child/parent bookkeeping at admission time.
func (m *Mempool) parentTxids(tx *types.Transaction) []types.Hash {
	seen := make(map[types.Hash]struct{})
	var parents []types.Hash
	for _, in := range tx.Inputs {
		if in.PrevTxHash.IsZero() {
			continue
		}
		if _, ok := seen[in.PrevTxHash]; ok {
			continue
		}
		if _, ok := m.entries[in.PrevTxHash]; ok {
			seen[in.PrevTxHash] = struct{}{}
			parents = append(parents, in.PrevTxHash)
		}
	}
	return parents
}

// ancestors walks the in-pool ancestor DAG of tx: starting from its
// direct in-pool parents, DFS transitively through each ancestor's own
// inputs, deduplicating diamond shapes with a visited set, and aborting
// once the visited set exceeds MaxAncestors (the caller treats "aborted" as
// a MEMPOOL_CHAIN failure in verify.go, not as a truncated-but-otherwise-
// valid result).
func (m *Mempool) ancestors(tx *types.Transaction) (visited map[types.Hash]*Entry, aborted bool) {
	visited = make(map[types.Hash]*Entry)

	var stack []types.Hash
	for _, p := range m.parentTxids(tx) {
		stack = append(stack, p)
	}

	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, ok := visited[h]; ok {
			continue
		}
		entry, ok := m.entries[h]
		if !ok {
			continue
		}
		visited[h] = entry
		if len(visited) > m.MaxAncestors {
			return visited, true
		}

		for _, p := range m.parentTxids(entry.Tx) {
			if _, ok := visited[p]; !ok {
				stack = append(stack, p)
			}
		}
	}

	return visited, false
}

// rollupAdd adds newEntry's own DeltaFee/Size into every one of its
// ancestors' DescFee/DescSize. Called once, right after newEntry is
// indexed.
func (m *Mempool) rollupAdd(ancestors map[types.Hash]*Entry, deltaFee, size int64) {
	for _, a := range ancestors {
		a.DescFee += deltaFee
		a.DescSize += size
	}
}

// rollupRemove reverses rollupAdd when evicted carries its own (possibly
// non-trivial, if it had descendants of its own) DescFee/DescSize out of
// every remaining ancestor. Must be called before evicted is deleted from
// m.entries, and only for ancestors that are not themselves being removed
// in the same eviction pass.
func (m *Mempool) rollupRemove(ancestors map[types.Hash]*Entry, evicted *Entry) {
	for _, a := range ancestors {
		a.DescFee -= evicted.DescFee
		a.DescSize -= evicted.DescSize
	}
}
