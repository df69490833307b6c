package mempool

import (
	"sort"

	"github.com/pouria-shahmiri/bitcoin-node/pkg/types"
)

// PriorityQueue orders the pool's entries for block-template building by
// package fee rate (DescFee/DescSize), the same quantity the eviction
// comparator uses at the other end of the pool's lifecycle.
type PriorityQueue struct {
	mempool *Mempool
	entries []*Entry
}

// NewPriorityQueue creates a priority queue bound to mempool.
func NewPriorityQueue(mempool *Mempool) *PriorityQueue {
	return &PriorityQueue{mempool: mempool}
}

// Build snapshots the pool's current entries, sorted by descending package
// fee rate.
func (pq *PriorityQueue) Build() {
	pq.entries = make([]*Entry, 0, len(pq.mempool.entries))
	for _, entry := range pq.mempool.entries {
		pq.entries = append(pq.entries, entry)
	}
	sort.Slice(pq.entries, func(i, j int) bool {
		return packageFeeRate(pq.entries[i]) > packageFeeRate(pq.entries[j])
	})
}

func packageFeeRate(e *Entry) int64 {
	if e.DescSize == 0 {
		return 0
	}
	return e.DescFee / e.DescSize
}

// SelectTransactions greedily fills a block of maxBlockSize bytes in
// priority order, skipping any entry whose parents haven't already been
// selected (so the resulting list is always a valid topological order).
func (pq *PriorityQueue) SelectTransactions(maxBlockSize int64) ([]*types.Transaction, error) {
	pq.Build()

	const coinbaseReserve = 200
	budget := maxBlockSize - coinbaseReserve

	selected := make([]*types.Transaction, 0)
	selectedHashes := make(map[types.Hash]bool)
	var currentSize int64

	for _, entry := range pq.entries {
		if currentSize+entry.Size > budget {
			continue
		}
		parentsOK := true
		for _, p := range pq.mempool.parentTxids(entry.Tx) {
			if !selectedHashes[p] {
				parentsOK = false
				break
			}
		}
		if !parentsOK {
			continue
		}
		selected = append(selected, entry.Tx)
		selectedHashes[entry.TxHash] = true
		currentSize += entry.Size
	}

	return selected, nil
}

// SelectTransactionsWithDependencies behaves like SelectTransactions but
// pulls in any not-yet-selected parent automatically, so a high-fee child
// isn't skipped purely because its low-fee parent sorted later.
func (pq *PriorityQueue) SelectTransactionsWithDependencies(maxBlockSize int64) ([]*types.Transaction, error) {
	pq.Build()

	const coinbaseReserve = 200
	budget := maxBlockSize - coinbaseReserve

	selected := make([]*types.Transaction, 0)
	selectedHashes := make(map[types.Hash]bool)
	var currentSize int64

	for _, entry := range pq.entries {
		if selectedHashes[entry.TxHash] {
			continue
		}

		totalSize := entry.Size
		var requiredParents []*Entry
		for _, p := range pq.mempool.parentTxids(entry.Tx) {
			if selectedHashes[p] {
				continue
			}
			if parent, ok := pq.mempool.entries[p]; ok {
				requiredParents = append(requiredParents, parent)
				totalSize += parent.Size
			}
		}

		if currentSize+totalSize > budget {
			continue
		}

		for _, parent := range requiredParents {
			selected = append(selected, parent.Tx)
			selectedHashes[parent.TxHash] = true
			currentSize += parent.Size
		}
		selected = append(selected, entry.Tx)
		selectedHashes[entry.TxHash] = true
		currentSize += entry.Size
	}

	return selected, nil
}

// GetTopTransactions returns the n highest package-fee-rate entries.
func (pq *PriorityQueue) GetTopTransactions(n int) []*Entry {
	pq.Build()
	if n > len(pq.entries) {
		n = len(pq.entries)
	}
	result := make([]*Entry, n)
	copy(result, pq.entries[:n])
	return result
}

// BlockTemplate is a candidate set of transactions for the next block.
type BlockTemplate struct {
	Transactions []*types.Transaction
	TotalSize    int64
	TotalFees    int64
	TxCount      int
}

// CreateBlockTemplate builds a BlockTemplate honoring parent/child order.
func (pq *PriorityQueue) CreateBlockTemplate(maxBlockSize int64) (*BlockTemplate, error) {
	txs, err := pq.SelectTransactionsWithDependencies(maxBlockSize)
	if err != nil {
		return nil, err
	}

	var totalSize, totalFees int64
	for _, tx := range txs {
		h, err := txHashFor(pq.mempool, tx)
		if err != nil {
			continue
		}
		if entry, ok := pq.mempool.entries[h]; ok {
			totalSize += entry.Size
			totalFees += entry.Fee
		}
	}

	return &BlockTemplate{
		Transactions: txs,
		TotalSize:    totalSize,
		TotalFees:    totalFees,
		TxCount:      len(txs),
	}, nil
}

// txHashFor looks up the pool's own TxHash for tx by identity, avoiding a
// second serialization pass for transactions the caller already admitted.
func txHashFor(m *Mempool, tx *types.Transaction) (types.Hash, error) {
	for h, entry := range m.entries {
		if entry.Tx == tx {
			return h, nil
		}
	}
	return types.Hash{}, newErr(TxKnown, "transaction not tracked by this pool")
}

// PackageSelector groups root entries together with their full descendant
// subtree, so a block builder can include or exclude an entire package as
// a unit rather than accidentally splitting a CPFP chain.
type PackageSelector struct {
	mempool *Mempool
}

// NewPackageSelector creates a package selector bound to mempool.
func NewPackageSelector(mempool *Mempool) *PackageSelector {
	return &PackageSelector{mempool: mempool}
}

// SelectPackages returns root-rooted packages (root plus every descendant)
// ordered by the root's own fee rate, greedily packed under maxBlockSize.
func (ps *PackageSelector) SelectPackages(maxBlockSize int64) ([][]*types.Transaction, error) {
	var roots []*Entry
	for _, entry := range ps.mempool.entries {
		if ps.mempool.isRoot(entry) {
			roots = append(roots, entry)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].FeeRate() > roots[j].FeeRate() })

	var packages [][]*types.Transaction
	processed := make(map[types.Hash]bool)
	var currentSize int64

	for _, root := range roots {
		if processed[root.TxHash] {
			continue
		}

		pkg, pkgSize := ps.collectPackage(root, processed)
		if currentSize+pkgSize > maxBlockSize {
			continue
		}

		packages = append(packages, pkg)
		currentSize += pkgSize
	}

	return packages, nil
}

// collectPackage walks root's descendants via the spender index, marking
// each visited entry processed so later roots don't re-include it.
func (ps *PackageSelector) collectPackage(root *Entry, processed map[types.Hash]bool) ([]*types.Transaction, int64) {
	processed[root.TxHash] = true
	pkg := []*types.Transaction{root.Tx}
	size := root.Size

	for _, child := range ps.mempool.children(root) {
		if processed[child.TxHash] {
			continue
		}
		childPkg, childSize := ps.collectPackage(child, processed)
		pkg = append(pkg, childPkg...)
		size += childSize
	}

	return pkg, size
}
