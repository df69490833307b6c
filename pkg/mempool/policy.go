package mempool

import (
	"github.com/pouria-shahmiri/bitcoin-node/pkg/script"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/types"
)

// Policy carries the relay-policy knobs add.go enforces on top of the
// structural/consensus checks — the standardness rules an honest peer is
// expected to follow even though a miner could relax them.
type Policy struct {
	DustThreshold   int64 // minimum output value, satoshis
	MaxOpReturnSize int   // bytes, including the OP_RETURN opcode itself
	MaxStandardVersion int32
	MaxSigopsCost   int
}

// DefaultPolicy returns the mainnet-default standardness knobs.
func DefaultPolicy() *Policy {
	return &Policy{
		DustThreshold:      546,
		MaxOpReturnSize:    83,
		MaxStandardVersion: 2,
		MaxSigopsCost:      4000,
	}
}

// checkDustOutputs rejects any output below the dust threshold.
func (p *Policy) checkDustOutputs(tx *types.Transaction) *Error {
	for _, out := range tx.Outputs {
		if out.Value < p.DustThreshold {
			return newErr(StandardScript, "output below dust threshold: %d < %d", out.Value, p.DustThreshold)
		}
	}
	return nil
}

// checkStandardVersion rejects transaction versions the relay policy
// doesn't recognize yet.
func (p *Policy) checkStandardVersion(tx *types.Transaction) *Error {
	if tx.Version < 1 || tx.Version > p.MaxStandardVersion {
		return newErr(StandardVersion, "non-standard version: %d", tx.Version)
	}
	return nil
}

// checkStandardScripts rejects locking scripts outside the recognized
// standard templates, and enforces the single-OP_RETURN / size-capped
// null-data convention miners use to avoid UTXO-set bloat.
func (p *Policy) checkStandardScripts(tx *types.Transaction) *Error {
	nullData := 0
	for _, out := range tx.Outputs {
		if script.IsNullData(out.PubKeyScript) {
			nullData++
			if nullData > 1 {
				return newErr(StandardScript, "multiple OP_RETURN outputs")
			}
			if len(out.PubKeyScript) > p.MaxOpReturnSize {
				return newErr(StandardScript, "OP_RETURN output too large: %d > %d", len(out.PubKeyScript), p.MaxOpReturnSize)
			}
			continue
		}
		if !script.IsStandardScript(out.PubKeyScript) {
			return newErr(StandardScript, "non-standard output script")
		}
	}
	return nil
}

// checkStandardInputs rejects unlocking scripts that carry anything other
// than data pushes — executable opcodes in a scriptSig are a malleability
// and resource-abuse vector no standard wallet produces.
func (p *Policy) checkStandardInputs(tx *types.Transaction) *Error {
	for i, in := range tx.Inputs {
		if !script.IsPushOnly(in.SignatureScript) {
			return newErr(InputsNonstandard, "input %d unlocking script is not push-only", i)
		}
	}
	return nil
}

// checkStandardWitness rejects witness stacks the relay policy doesn't
// recognize as one of the standard spend templates (oversized witness
// items are the classic way to build a harmless-looking but
// UTXO-set-unfriendly transaction).
func (p *Policy) checkStandardWitness(tx *types.Transaction) *Error {
	for _, in := range tx.Inputs {
		if !script.HasStandardWitness(in.Witness) {
			return newErr(WitnessNonstandard, "non-standard witness stack")
		}
	}
	return nil
}
