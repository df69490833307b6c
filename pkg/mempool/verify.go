package mempool

import (
	"fmt"

	"github.com/pouria-shahmiri/bitcoin-node/pkg/script"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/transaction"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/types"
)

// contextualCheck holds the results of resolving tx against view that
// verify needs but Add's caller doesn't: the sum of input value, whether
// any input spends a coinbase output, and whether tx carries a relative
// locktime that needs sequence-lock evaluation.
type contextualCheck struct {
	inputValue      int64
	isCoinbaseSpend bool
	usesLocks       bool
}

// checkInputsMature confirms every coinbase input view resolves to has
// cleared CoinbaseMaturity confirmations, and fills in contextualCheck.
func (m *Mempool) checkInputsMature(tx *types.Transaction, view *View, tip TipInfo) (contextualCheck, *Error) {
	var cc contextualCheck
	for _, in := range tx.Inputs {
		op := outpoint{Hash: in.PrevTxHash, Index: in.OutputIndex}
		coin, ok := view.Get(op)
		if !ok {
			return cc, newErr(InputsMissing, "no coin for input %s", op)
		}
		cc.inputValue += coin.Value()
		if coin.IsCoinbase {
			cc.isCoinbaseSpend = true
			maturity := m.chain.CoinbaseMaturity()
			if tip.Height+1 < coin.Height+maturity {
				return cc, newErr(PrematureCSV, "coinbase spend not yet mature: need height %d, have %d", coin.Height+maturity, tip.Height+1)
			}
		}
	}
	if tx.UsesRelativeLocktime() {
		cc.usesLocks = true
	}
	return cc, nil
}

// checkFeeBounds enforces the relay fee floor (MinRelayFeeRate) and the
// "absurdly high fee" ceiling that exists purely to catch fat-fingered
// wallets, not an adversary — a real attacker would never overpay.
func (m *Mempool) checkFeeBounds(fee, size int64) *Error {
	if size == 0 {
		return newErr(SanitySize, "zero virtual size")
	}
	rate := fee / size
	if rate < m.netParams.MinRelayFeeRate {
		return newErr(FeeLow, "fee rate %d below relay minimum %d", rate, m.netParams.MinRelayFeeRate)
	}
	if fee > m.netParams.MinRelayFeeRate*size*m.AbsurdFeeMultiplier {
		return newErr(FeeHigh, "fee %d is absurdly high for size %d", fee, size)
	}
	return nil
}

// checkAncestry runs the DFS in ancestors.go and turns an aborted walk
// (too many in-pool ancestors) into a MEMPOOL_CHAIN failure.
func (m *Mempool) checkAncestry(tx *types.Transaction) (map[types.Hash]*Entry, *Error) {
	visited, aborted := m.ancestors(tx)
	if aborted {
		return nil, newErr(MempoolChain, "too many unconfirmed ancestors (limit %d)", m.MaxAncestors)
	}
	return visited, nil
}

// checkSequenceLocks asks the chain to evaluate tx's BIP68 relative
// locktime constraints, when any apply, against view at tip.
func (m *Mempool) checkSequenceLocks(tx *types.Transaction, view *View, tip TipInfo, cc contextualCheck) *Error {
	if !cc.usesLocks {
		return nil
	}
	if !m.chain.State().Has(DeploymentCSV) {
		return newErr(PrematureCSV, "relative locktime used before CSV activation")
	}
	if !m.chain.VerifyLocks(tip, tx, view) {
		return newErr(Finality, "sequence lock not yet satisfied")
	}
	return nil
}

// verifyScripts runs every input's scriptSig/witness against the coin it
// claims to spend, under the standard relay flag set, with a two-stage
// retry on failure:
//
//  1. Re-verify with the policy-only flag subset cleared. Success means
//     the scripts are consensus-valid and only a standardness rule
//     tripped: SCRIPT_POLICY, zero score, never cached.
//  2. For a witness-less transaction, re-verify with the witness and
//     cleanstack rules also waived. Success means the failure is
//     attributable to witness/cleanstack alone — plausibly a stripped
//     mutation of a valid transaction — so the SCRIPT_CONSENSUS error is
//     returned with its suppression sentinel set and stays out of the
//     reject filter.
//
// Anything else is a plain SCRIPT_CONSENSUS failure.
func (m *Mempool) verifyScripts(tx *types.Transaction, view *View, deployed DeploymentFlags) *Error {
	flags := script.StandardVerifyFlags
	if !deployed.Has(DeploymentWitness) {
		flags &^= script.VerifyWitness
	}

	strictErr := m.runScripts(tx, view, flags)
	if strictErr == nil {
		return nil
	}
	if me, ok := strictErr.(*Error); ok {
		// Not a script failure (e.g. a coin vanished from the view).
		return me
	}

	mandatory := flags &^ script.OnlyStandardVerifyFlags
	if mandatory != flags && m.runScripts(tx, view, mandatory) == nil {
		return newErr(ScriptPolicy, "%v", strictErr)
	}

	if !tx.HasWitness() {
		stripped := mandatory &^ (script.VerifyWitness | script.VerifyCleanStack)
		if stripped != mandatory && m.runScripts(tx, view, stripped) == nil {
			return newSuppressedConsensusErr("%v (valid once witness and cleanstack rules are waived)", strictErr)
		}
	}

	return newErr(ScriptConsensus, "%v", strictErr)
}

// runScripts verifies every input under one flag set, returning the first
// failure. The signature hasher hands the engine the exact digest the
// input's signatures must commit to.
func (m *Mempool) runScripts(tx *types.Transaction, view *View, flags script.VerifyFlags) error {
	for i := range tx.Inputs {
		in := tx.Inputs[i]
		op := outpoint{Hash: in.PrevTxHash, Index: in.OutputIndex}
		coin, ok := view.Get(op)
		if !ok {
			return newErr(InputsMissing, "no coin for input %d", i)
		}

		idx := i
		locking := coin.Output.PubKeyScript
		sigHasher := func(hashType byte) ([]byte, error) {
			return transaction.CalcSignatureHash(tx, idx, locking, transaction.SigHashType(hashType))
		}
		if err := script.VerifyInput(tx, idx, locking, flags, sigHasher); err != nil {
			return fmt.Errorf("input %d: %w", idx, err)
		}
	}
	return nil
}
