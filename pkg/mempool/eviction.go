package mempool

import (
	"container/heap"

	"github.com/pouria-shahmiri/bitcoin-node/pkg/types"
)

// isRoot reports whether entry has no ancestor still in the pool — only
// roots are directly eligible for eviction or expiry; evicting a root takes
// its whole descendant subtree with it (evictEntry), so there's no need to
// separately consider non-root entries.
func (m *Mempool) isRoot(entry *Entry) bool {
	return len(m.parentTxids(entry.Tx)) == 0
}

// expireOld evicts every root entry older than the configured expiry
// horizon, cascading through its descendants. Runs before fee-ordered
// eviction so stale chains never compete on rate.
func (m *Mempool) expireOld(nowUnix int64) {
	horizon := int64(m.ExpiryHorizon.Seconds())
	var stale []*Entry
	for _, entry := range m.entries {
		if !m.isRoot(entry) {
			continue
		}
		if nowUnix-entry.Time > horizon {
			stale = append(stale, entry)
		}
	}
	for _, entry := range stale {
		if _, ok := m.entries[entry.TxHash]; ok {
			m.evictEntry(entry)
		}
	}
}

// evictionQueue is a min-heap of root entries under the cross-multiplied
// effective-rate comparator: A sorts before B iff A's effective fee rate is
// lower, i.e. A is cheaper to keep and should be popped (evicted) first.
// Ties break on Time, older first.
type evictionQueue []*Entry

func (q evictionQueue) Len() int { return len(q) }

func (q evictionQueue) Less(i, j int) bool {
	fi, si := q[i].evictionRate()
	fj, sj := q[j].evictionRate()
	lhs := fi * sj
	rhs := fj * si
	if lhs != rhs {
		return lhs < rhs
	}
	return q[i].Time < q[j].Time
}

func (q evictionQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *evictionQueue) Push(x interface{}) { *q = append(*q, x.(*Entry)) }

func (q *evictionQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// limitSize enforces HardCapBytes/SoftThresholdBytes: once triggered, it
// expires stale roots first, then pops the cheapest remaining root
// (cross-multiplication order) and evicts its whole subtree until the pool
// is back at or below SoftThresholdBytes. Returns true iff addedTxid is no
// longer present afterward — the caller maps that to MEMPOOL_FULL.
func (m *Mempool) limitSize(addedTxid types.Hash) bool {
	if m.size <= m.HardCapBytes {
		// A nested admission (orphan resolution) may have already evicted
		// the entry this call is accounting for.
		_, present := m.entries[addedTxid]
		return !present
	}

	m.expireOld(m.now())

	if m.size > m.SoftThresholdBytes {
		q := make(evictionQueue, 0, len(m.entries))
		for _, entry := range m.entries {
			if m.isRoot(entry) {
				q = append(q, entry)
			}
		}
		heap.Init(&q)

		for m.size > m.SoftThresholdBytes && q.Len() > 0 {
			cheapest := heap.Pop(&q).(*Entry)
			if _, ok := m.entries[cheapest.TxHash]; !ok {
				continue // already removed as part of an earlier subtree
			}
			m.evictEntry(cheapest)
		}
	}

	_, stillPresent := m.entries[addedTxid]
	return !stillPresent
}
