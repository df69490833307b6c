package mempool

import (
	"github.com/pouria-shahmiri/bitcoin-node/pkg/serialization"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/types"
)

// AddBlock reconciles the pool with a newly connected block. Transactions
// the block confirmed leave the pool (their descendants stay — the chain
// now supplies the coin they spend); confirmed transactions we never held
// still clear any matching orphan, evict any pool entry they double-spent,
// and may satisfy orphans waiting on them. The reject filter resets, since
// a new tip changes what "definitively rejected" even means.
//
// Iteration runs in reverse block order so a child confirmed in the same
// block is removed before its parent, mirroring the removal order eviction
// uses.
func (m *Mempool) AddBlock(block *types.Block) {
	for i := len(block.Transactions) - 1; i >= 0; i-- {
		tx := &block.Transactions[i]
		if tx.IsCoinbase() {
			continue
		}

		txHash, err := serialization.HashTransaction(tx)
		if err != nil {
			continue
		}

		if entry, ok := m.entries[txHash]; ok {
			m.removeEntry(entry)
			continue
		}

		m.orphans.remove(txHash)
		m.removeDoubleSpends(tx)
		m.resolveOrphans(txHash, -1)
	}

	m.rejects.Reset()
	m.logf("debug", "mempool: connected block with %d transactions, %d entries remain", len(block.Transactions), len(m.entries))
}

// RemoveBlock reconciles the pool with a disconnected block: every
// transaction the chain just un-confirmed is resubmitted through the full
// admission pipeline (forward order, so parents are back in the pool
// before their children arrive). Resubmission failures are expected —
// chain context changed — and are simply dropped. The reject filter
// resets so those transactions aren't remembered as bad.
func (m *Mempool) RemoveBlock(block *types.Block) {
	m.rejects.Reset()

	for i := range block.Transactions {
		tx := &block.Transactions[i]
		if tx.IsCoinbase() {
			continue
		}

		txHash, err := serialization.HashTransaction(tx)
		if err != nil {
			continue
		}
		if _, ok := m.entries[txHash]; ok {
			continue
		}

		if _, err := m.Add(tx, -1); err != nil {
			m.logf("debug", "mempool: disconnected tx %s not readmitted: %v", txHash, err)
		}
	}
}

// HandleReorg re-validates every entry against the new chain context after
// a reorganization has moved the tip: entries that are no longer final,
// whose sequence locks no longer pass, or whose coinbase inputs fell back
// inside the maturity window are evicted together with their descendants.
func (m *Mempool) HandleReorg() {
	tip := m.chain.Tip()

	var invalid []*Entry
	for _, entry := range m.entries {
		if !m.chain.VerifyFinal(tip, entry.Tx) {
			invalid = append(invalid, entry)
			continue
		}
		if entry.UsesLocks || entry.IsCoinbaseSpend {
			if !m.revalidateContext(entry, tip) {
				invalid = append(invalid, entry)
			}
		}
	}

	for _, entry := range invalid {
		if _, ok := m.entries[entry.TxHash]; ok {
			m.evictEntry(entry)
		}
	}

	if len(invalid) > 0 {
		m.logf("warn", "mempool: reorg invalidated %d entries", len(invalid))
	}
}

// revalidateContext rebuilds the entry's coin view against the current
// chain and pool and re-runs the context-sensitive checks a reorg can
// break: coinbase maturity and BIP68 sequence locks.
func (m *Mempool) revalidateContext(entry *Entry, tip TipInfo) bool {
	view := NewView()
	for _, in := range entry.Tx.Inputs {
		op := outpoint{Hash: in.PrevTxHash, Index: in.OutputIndex}
		if parent, ok := m.entries[in.PrevTxHash]; ok {
			if int(in.OutputIndex) < len(parent.Tx.Outputs) {
				view.Put(op, poolCoin(parent, in.OutputIndex))
			}
		}
	}
	m.chain.GetCoins(view, entry.Tx)

	if len(missingInputs(entry.Tx, view)) > 0 {
		// A parent the entry relied on no longer exists on the new chain.
		return false
	}

	if entry.IsCoinbaseSpend {
		maturity := m.chain.CoinbaseMaturity()
		for _, in := range entry.Tx.Inputs {
			op := outpoint{Hash: in.PrevTxHash, Index: in.OutputIndex}
			coin, ok := view.Get(op)
			if !ok {
				return false
			}
			if coin.IsCoinbase && tip.Height+1 < coin.Height+maturity {
				return false
			}
		}
	}

	if entry.UsesLocks && !m.chain.VerifyLocks(tip, entry.Tx, view) {
		return false
	}

	return true
}
