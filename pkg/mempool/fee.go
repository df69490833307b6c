package mempool

import (
	"sort"

	"github.com/pouria-shahmiri/bitcoin-node/pkg/types"
)

// FeeEstimator answers fee-rate questions over the pool's current
// contents. It holds no state of its own beyond the Mempool it was built
// against, and is safe to use exactly when the Mempool itself is (i.e.
// from the single writer, or from a reader once that writer yields).
type FeeEstimator struct {
	mempool *Mempool
}

// NewFeeEstimator creates a fee estimator bound to mempool.
func NewFeeEstimator(mempool *Mempool) *FeeEstimator {
	return &FeeEstimator{mempool: mempool}
}

// EstimateFee estimates the fee (not rate) a txSize-byte transaction needs
// to pay to land within roughly targetBlocks confirmations, based on the
// fee-rate distribution of what's already in the pool.
func (fe *FeeEstimator) EstimateFee(targetBlocks int, txSize int64) int64 {
	m := fe.mempool
	if len(m.entries) == 0 {
		return m.netParams.MinRelayFeeRate * txSize
	}

	rates := make([]int64, 0, len(m.entries))
	for _, entry := range m.entries {
		rates = append(rates, entry.FeeRate())
	}
	sort.Slice(rates, func(i, j int) bool { return rates[i] > rates[j] })

	var percentile int
	switch {
	case targetBlocks <= 1:
		percentile = 10
	case targetBlocks <= 3:
		percentile = 25
	case targetBlocks <= 6:
		percentile = 50
	default:
		percentile = 75
	}

	index := (len(rates) * percentile) / 100
	if index >= len(rates) {
		index = len(rates) - 1
	}

	rate := rates[index]
	if rate < m.netParams.MinRelayFeeRate {
		rate = m.netParams.MinRelayFeeRate
	}
	return rate * txSize
}

// FeeStatistics summarizes the fee-rate distribution across the pool.
type FeeStatistics struct {
	TxCount        int
	MinFeeRate     int64
	MaxFeeRate     int64
	MedianFeeRate  int64
	AverageFeeRate int64
	P25FeeRate     int64
	P75FeeRate     int64
	P90FeeRate     int64
	TotalFees      int64
	TotalSize      int64
}

// GetFeeStatistics computes FeeStatistics over the pool's current entries.
func (fe *FeeEstimator) GetFeeStatistics() *FeeStatistics {
	m := fe.mempool
	stats := &FeeStatistics{TxCount: len(m.entries)}
	if stats.TxCount == 0 {
		return stats
	}

	rates := make([]int64, 0, len(m.entries))
	for _, entry := range m.entries {
		rates = append(rates, entry.FeeRate())
		stats.TotalFees += entry.Fee
		stats.TotalSize += entry.Size
	}
	sort.Slice(rates, func(i, j int) bool { return rates[i] < rates[j] })

	stats.MinFeeRate = rates[0]
	stats.MaxFeeRate = rates[len(rates)-1]
	stats.MedianFeeRate = rates[len(rates)/2]
	if stats.TotalSize > 0 {
		stats.AverageFeeRate = stats.TotalFees / stats.TotalSize
	}
	stats.P25FeeRate = rates[len(rates)/4]
	stats.P75FeeRate = rates[(len(rates)*3)/4]
	stats.P90FeeRate = rates[(len(rates)*9)/10]

	return stats
}

// CalculateAncestorFeeRate returns the package (self+descendant) fee rate
// — the same quantity evictionRate uses to decide whether an entry's
// package beats its own fee rate.
func (fe *FeeEstimator) CalculateAncestorFeeRate(txHash types.Hash) (int64, error) {
	entry, ok := fe.mempool.entries[txHash]
	if !ok {
		return 0, newErr(TxKnown, "transaction not in mempool")
	}
	if entry.DescSize == 0 {
		return 0, nil
	}
	return entry.DescFee / entry.DescSize, nil
}

// GetDescendants returns every descendant of txHash currently in the pool,
// in no particular order.
func (fe *FeeEstimator) GetDescendants(txHash types.Hash) ([]types.Hash, error) {
	m := fe.mempool
	entry, ok := m.entries[txHash]
	if !ok {
		return nil, newErr(TxKnown, "transaction not in mempool")
	}

	visited := make(map[types.Hash]struct{})
	var descendants []types.Hash

	var walk func(*Entry)
	walk = func(e *Entry) {
		for _, child := range m.children(e) {
			if _, seen := visited[child.TxHash]; seen {
				continue
			}
			visited[child.TxHash] = struct{}{}
			descendants = append(descendants, child.TxHash)
			walk(child)
		}
	}
	walk(entry)

	return descendants, nil
}
