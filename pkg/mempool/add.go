package mempool

import (
	"github.com/pouria-shahmiri/bitcoin-node/pkg/serialization"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/types"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/utxo"
)

// Add runs the full admission pipeline against tx: structural sanity,
// soft-fork gating, standardness, dedup, parent resolution (pool and
// chain), contextual checks, verification, indexing, eviction and orphan
// resolution. id is an opaque origin tag threaded through to Observer
// callbacks (typically the peer id that relayed tx, or -1 for locally
// originated transactions and block-disconnect resubmissions).
//
// Every rejection is logged as one warning carrying reason, score and hash;
// a definitive, non-malleable one also records the txid in the reject
// filter. Add then returns the original error. A nil error with a nil *Entry means tx was
// filed as an orphan, not a rejection — no reject-filter entry, no peer
// penalty.
func (m *Mempool) Add(tx *types.Transaction, id int64) (*Entry, error) {
	entry, txHash, err := m.add(tx, id)
	if err == nil {
		return entry, nil
	}

	if !err.Suppressed() && cacheableReject(err.Kind) {
		m.rejects.Add(txHash)
	}
	m.logf("warn", "mempool: rejected %s: reason=%s score=%d", txHash, err.Error(), err.Kind.DoSScore())
	return nil, err
}

// cacheableReject reports whether a rejection of this kind is definitive
// enough to remember: kinds that merely describe something we already hold
// (or an eviction of our own making) say nothing bad about the transaction
// itself and must stay retryable.
func cacheableReject(kind Kind) bool {
	switch kind {
	case TxInMempool, TxKnown, Duplicate, MempoolFull:
		return false
	}
	return true
}

// add is the admission pipeline proper. It returns the txid it computed so
// the wrapper can cache the reject without re-hashing.
func (m *Mempool) add(tx *types.Transaction, id int64) (*Entry, types.Hash, *Error) {
	// 1. Structural sanity.
	if err := sanityCheck(tx); err != nil {
		return nil, types.Hash{}, err
	}

	txHash, hashErr := serialization.HashTransaction(tx)
	if hashErr != nil {
		return nil, types.Hash{}, newErr(SanityStructure, "failed to hash transaction: %v", hashErr)
	}

	// 2. Coinbase is never individually relayed.
	if tx.IsCoinbase() {
		return nil, txHash, newErr(Coinbase, "coinbase transactions are not relayed")
	}

	// 3. Soft-fork gating: no witness data before segwit activates, no
	// version-2 (BIP68-capable) transactions relayed before CSV activates
	// when the network demands standardness.
	flags := m.chain.State()
	if tx.HasWitness() && !flags.Has(DeploymentWitness) {
		return nil, txHash, newErr(PrematureWitness, "witness data present before segwit activation")
	}
	if m.netParams.RequireStandard && tx.Version >= 2 && !flags.Has(DeploymentCSV) {
		return nil, txHash, newErr(PrematureCSV, "version %d transaction before CSV activation", tx.Version)
	}

	// 4. Standardness.
	if m.netParams.RequireStandard {
		if err := m.policy.checkStandardVersion(tx); err != nil {
			return nil, txHash, err
		}
		if err := m.policy.checkDustOutputs(tx); err != nil {
			return nil, txHash, err
		}
		if err := m.policy.checkStandardScripts(tx); err != nil {
			return nil, txHash, err
		}
		if err := m.policy.checkStandardInputs(tx); err != nil {
			return nil, txHash, err
		}
		if tx.HasWitness() {
			if err := m.policy.checkStandardWitness(tx); err != nil {
				return nil, txHash, err
			}
		}
	}

	// 5. Finality at the block that would confirm this transaction.
	tip := m.chain.Tip()
	if !m.chain.VerifyFinal(tip, tx) {
		return nil, txHash, newErr(Finality, "transaction is not final")
	}

	// 6. Dedup against the pool, the orphan table, the reject filter, and
	// the confirmed chain.
	if _, inPool := m.entries[txHash]; inPool {
		return nil, txHash, newErr(TxInMempool, "already in mempool")
	}
	if m.orphans.has(txHash) {
		return nil, txHash, newErr(TxInMempool, "already held as an orphan")
	}
	if m.rejects.Has(txHash) {
		return nil, txHash, newErr(Duplicate, "previously rejected")
	}
	if m.chain.HasCoins(txHash) {
		return nil, txHash, newErr(TxKnown, "already confirmed with unspent outputs")
	}

	// 7. Conflict detection: a pool-internal double spend is a hard reject.
	// Replacement is recognized (the incoming transaction signals BIP125)
	// but unsupported, so it gets its own code and a zero DoS score.
	for _, in := range tx.Inputs {
		op := outpoint{Hash: in.PrevTxHash, Index: in.OutputIndex}
		if _, conflict := m.spenders[op]; conflict {
			if tx.SignalsRBF() {
				return nil, txHash, newErr(Replacement, "replacement of in-mempool spend of %s is not supported", op)
			}
			return nil, txHash, newErr(InputsSpent, "conflicts with an in-mempool spend of %s", op)
		}
	}

	// 8. Build the coin view: pool parents first, then ask the chain for
	// whatever remains unresolved. Anything still missing makes this an
	// orphan candidate rather than a rejection.
	view := NewView()
	for _, in := range tx.Inputs {
		op := outpoint{Hash: in.PrevTxHash, Index: in.OutputIndex}
		if parent, ok := m.entries[in.PrevTxHash]; ok {
			if int(in.OutputIndex) < len(parent.Tx.Outputs) {
				view.Put(op, poolCoin(parent, in.OutputIndex))
			}
		}
	}
	m.chain.GetCoins(view, tx)

	if missing := missingInputs(tx, view); len(missing) > 0 {
		for _, op := range missing {
			if m.rejects.Has(op.Hash) {
				return nil, txHash, newErr(Duplicate, "parent %s was previously rejected", op.Hash)
			}
			if _, ok := m.entries[op.Hash]; ok {
				// The parent is in the pool but didn't supply this output:
				// the outpoint's index is out of range. An honest wallet
				// never produces this.
				return nil, txHash, newErr(InputsMissing, "parent %s has no output %d", op.Hash, op.Index)
			}
		}
		if tx.Weight() > m.MaxTxWeight {
			return nil, txHash, newErr(TxWeight, "orphan weight %d exceeds maximum %d", tx.Weight(), m.MaxTxWeight)
		}
		m.orphans.add(tx, txHash, view, id)
		return nil, txHash, nil
	}

	// 9. Contextual input checks: maturity, value sanity, fee derivation.
	cc, err := m.checkInputsMature(tx, view, tip)
	if err != nil {
		return nil, txHash, err
	}

	inputValue := cc.inputValue
	outputValue := outputSum(tx)
	if outputValue > inputValue {
		return nil, txHash, newErr(SanityNegativeOutput, "outputs (%d) exceed inputs (%d)", outputValue, inputValue)
	}
	fee := inputValue - outputValue

	// 10. Entry construction inputs: sigops cost and the sigops-adjusted
	// virtual size the fee floor and eviction ordering both use.
	sigops := countSigops(tx)
	if sigops > m.policy.MaxSigopsCost {
		return nil, txHash, newErr(TxSigops, "sigops cost %d exceeds maximum %d", sigops, m.policy.MaxSigopsCost)
	}
	size := tx.VirtualSize()
	if penalized := int64(sigops) * m.SigopsBytesPerSigop; penalized > size {
		size = penalized
	}

	// 11. Contextual verification: sequence locks, fee bounds, ancestor
	// depth, scripts.
	if err := m.checkSequenceLocks(tx, view, tip, cc); err != nil {
		return nil, txHash, err
	}
	if err := m.checkFeeBounds(fee, size); err != nil {
		return nil, txHash, err
	}
	ancestors, err := m.checkAncestry(tx)
	if err != nil {
		return nil, txHash, err
	}
	if err := m.verifyScripts(tx, view, flags); err != nil {
		return nil, txHash, err
	}

	entry := newEntry(tx, txHash, tip.Height, size, sigops, fee, m.now(), cc.isCoinbaseSpend, cc.usesLocks)

	// 12. Index, fire the observer, then cascade orphan resolution. Each
	// resolved orphan re-enters Add, so the call depth grows with the length
	// of a chain of waiting orphans (at most the orphan table's capacity).
	m.addEntry(entry, ancestors)
	m.observer.OnTx(entry, view, id)
	m.resolveOrphans(txHash, id)

	// 13. Enforce the size cap; if the new entry itself was shed, the
	// caller learns the pool is full but keeps the eviction side effects.
	if m.limitSize(txHash) {
		return nil, txHash, newErr(MempoolFull, "evicted immediately: pool over capacity even after eviction")
	}

	return entry, txHash, nil
}

// resolveOrphans drains the orphan pool's waiting index for seedTxid,
// resubmitting every orphan whose last missing parent just arrived, and
// repeating for whatever their own resolution newly admits. Resubmission
// goes through Add, whose own step 12 calls resolveOrphans again before
// returning, so resolution nests one call level per admitted orphan.
func (m *Mempool) resolveOrphans(seedTxid types.Hash, id int64) {
	queue := []types.Hash{seedTxid}

	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]

		candidates := m.orphans.resolveCandidates(parent)
		for _, candidate := range candidates {
			entry, err := m.Add(candidate.Tx, candidate.ID)

			// The resubmission itself can re-orphan the candidate when a
			// pool parent was evicted between indexing and now; it must
			// not be tracked as both resolved and stored.
			if m.orphans.has(candidate.TxHash) {
				m.orphans.remove(candidate.TxHash)
			}

			if err != nil {
				m.observer.OnBadOrphan(candidate.TxHash, err, candidate.ID, nil)
				continue
			}
			if entry != nil {
				queue = append(queue, candidate.TxHash)
			}
		}
	}
}

// poolCoin synthesizes a chain-shaped coin view over a pool parent's
// output, so view resolution doesn't need to special-case pool vs. chain
// origin anywhere downstream. A pool transaction's own outputs are never
// coinbase outputs — only a block can create one of those.
func poolCoin(parent *Entry, index uint32) *utxo.UTXO {
	return utxo.NewUTXO(parent.TxHash, index, parent.Tx.Outputs[index], parent.Height, false)
}

// sanityCheck enforces the structural invariants every transaction must
// satisfy regardless of policy or consensus state: non-empty inputs and
// outputs, weight under the consensus block ceiling, no negative or
// overflowing output values, and no duplicate inputs (a transaction
// spending the same outpoint twice within itself).
func sanityCheck(tx *types.Transaction) *Error {
	const maxBlockWeight = 4000000

	if len(tx.Inputs) == 0 {
		return newErr(SanityStructure, "no inputs")
	}
	if len(tx.Outputs) == 0 {
		return newErr(SanityStructure, "no outputs")
	}
	if tx.Weight() > maxBlockWeight {
		return newErr(SanitySize, "weight %d exceeds block ceiling", tx.Weight())
	}

	var total int64
	for _, out := range tx.Outputs {
		if out.Value < 0 {
			return newErr(SanityNegativeOutput, "negative output value: %d", out.Value)
		}
		total += out.Value
		if total < 0 {
			return newErr(SanityNegativeOutput, "total output value overflows")
		}
	}

	seen := make(map[outpoint]struct{}, len(tx.Inputs))
	for _, in := range tx.Inputs {
		op := outpoint{Hash: in.PrevTxHash, Index: in.OutputIndex}
		if _, dup := seen[op]; dup {
			return newErr(SanityDuplicateInput, "duplicate input: %s", op)
		}
		seen[op] = struct{}{}
	}

	return nil
}

// countSigops gives a conservative (over-)estimate of signature-operation
// cost: each input's scriptSig is assumed to carry up to two checks
// (ordinary single-sig or 2-of-2-shaped multisig), matching the original
// source's policy-time estimate rather than a full script walk.
func countSigops(tx *types.Transaction) int {
	return len(tx.Inputs) * 2
}
