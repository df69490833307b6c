// Package reject implements the mempool's probabilistic "seen-bad" set: a
// Bloom filter that lets the admission pipeline cheaply skip re-validating
// transactions it has already definitively rejected.
package reject

import (
	"sync"

	bloomfilter "github.com/holiman/bloomfilter/v2"

	"github.com/pouria-shahmiri/bitcoin-node/pkg/types"
)

// DefaultCapacity and DefaultFalsePositiveRate size the filter for
// ~120,000 rejected txids at a ~1e-6 false-positive rate.
const (
	DefaultCapacity          = 120000
	DefaultFalsePositiveRate = 1e-6
)

// Filter wraps a Bloom filter with a mutex, since the mempool's admission
// path may share it with read-only queries (has-seen checks) running on
// other goroutines; the pool itself holds no lock.
type Filter struct {
	mu     sync.RWMutex
	bf     *bloomfilter.Filter
	n      uint64
	fpRate float64
}

// New creates a reject filter sized for n items at the given false-positive
// rate. Panics only if n or fpRate are degenerate (0 or negative), which
// would indicate a misconfigured caller, not a runtime condition to recover
// from.
func New(n uint64, fpRate float64) *Filter {
	bf, err := bloomfilter.NewOptimal(n, fpRate)
	if err != nil {
		panic("reject: invalid filter parameters: " + err.Error())
	}
	return &Filter{bf: bf, n: n, fpRate: fpRate}
}

// NewDefault creates a filter with the default tuning.
func NewDefault() *Filter {
	return New(DefaultCapacity, DefaultFalsePositiveRate)
}

// Add records hash as rejected.
func (f *Filter) Add(hash types.Hash) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bf.AddHash(hashToFilterKey(hash))
}

// Has reports whether hash was (probably) added before. False positives are
// expected and tolerated: they only cause the admission pipeline to treat an
// otherwise-novel transaction as a stale duplicate, which is always safe to
// retry later once the caller resubmits through different means (e.g. after
// a block containing it confirms).
func (f *Filter) Has(hash types.Hash) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.bf.ContainsHash(hashToFilterKey(hash))
}

// Reset replaces the filter with a fresh, empty one of the same size. Called
// on every block connect and disconnect, since a new tip changes which
// rejections are still meaningful.
func (f *Filter) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bf, _ = bloomfilter.NewOptimal(f.n, f.fpRate)
}

// hashToFilterKey maps a 32-byte txid onto the uint64 key the filter wants,
// a straight byte-for-byte reinterpretation since our hash is already
// uniformly distributed output of a cryptographic hash.
func hashToFilterKey(hash types.Hash) uint64 {
	var word uint64
	for b := 0; b < 8; b++ {
		word = word<<8 | uint64(hash[b])
	}
	return word
}
