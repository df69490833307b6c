package mempool

import (
	"github.com/pouria-shahmiri/bitcoin-node/pkg/types"
)

// Entry is the durable record for a transaction accepted into the pool.
// The transaction itself is shared with whichever caller submitted it; the
// entry never mutates it, only the accounting fields around it.
type Entry struct {
	Tx     *types.Transaction
	TxHash types.Hash

	Height uint64 // chain tip height at acceptance
	Size   int64  // virtual size including the sigops adjustment, §4.1 step 10
	Sigops int    // signature operation cost

	Fee      int64 // absolute fee paid, satoshis
	DeltaFee int64 // fee after prioritization; equals Fee unless bumped

	Time int64 // unix seconds at acceptance

	IsCoinbaseSpend bool // spends at least one coinbase output
	UsesLocks       bool // version>=2 with at least one sequence-lock-eligible input

	// DescFee/DescSize are the rolled-up sums of this entry's own
	// DeltaFee/Size plus every descendant currently in the pool. They start
	// out equal to DeltaFee/Size and are adjusted incrementally by
	// rollupAdd/rollupRemove as descendants come and go — see ancestors.go.
	DescFee  int64
	DescSize int64
}

// newEntry builds an Entry whose DescFee/DescSize are seeded to its own
// contribution; the caller is responsible for rolling the new fee/size into
// every ancestor afterward (index.go's addEntry does this).
func newEntry(tx *types.Transaction, txHash types.Hash, height uint64, size int64, sigops int, fee int64, now int64, isCoinbaseSpend, usesLocks bool) *Entry {
	return &Entry{
		Tx:              tx,
		TxHash:          txHash,
		Height:          height,
		Size:            size,
		Sigops:          sigops,
		Fee:             fee,
		DeltaFee:        fee,
		Time:            now,
		IsCoinbaseSpend: isCoinbaseSpend,
		UsesLocks:       usesLocks,
		DescFee:         fee,
		DescSize:        size,
	}
}

// FeeRate returns the entry's own satoshis-per-vbyte rate, ignoring
// descendants. Used for display/estimation, not for eviction ordering
// (which uses the cross-multiplication comparator in eviction.go).
func (e *Entry) FeeRate() int64 {
	if e.Size == 0 {
		return 0
	}
	return e.DeltaFee / e.Size
}

// useDescendantRate reports whether this entry's package (itself plus
// descendants) pays a better effective rate than the entry alone, so
// eviction ordering judges the whole CPFP chain rather than its root.
func (e *Entry) useDescendantRate() bool {
	return e.DescFee*e.Size > e.DeltaFee*e.DescSize
}

// evictionRate returns the (fee, size) pair eviction ordering compares,
// picking the package view when descendants sweeten it and the entry's own
// view otherwise.
func (e *Entry) evictionRate() (fee, size int64) {
	if e.useDescendantRate() {
		return e.DescFee, e.DescSize
	}
	return e.DeltaFee, e.Size
}
