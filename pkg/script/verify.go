package script

import (
	"fmt"

	"github.com/pouria-shahmiri/bitcoin-node/pkg/types"
)

// VerifyFlags select which verification rules an Engine run enforces on
// top of plain execution. Consensus rules are always on; these bits cover
// the rules that differ between consensus and relay policy, so a caller
// can re-run a failing script under a weaker set and attribute the
// failure.
type VerifyFlags uint32

const (
	// VerifyDERSig requires signatures (minus the trailing hash-type byte)
	// to parse as DER and public keys to parse; the hash-type byte itself
	// is not checked.
	VerifyDERSig VerifyFlags = 1 << iota

	// VerifyMinimalData requires every push to use its shortest encoding.
	VerifyMinimalData

	// VerifyCleanStack requires execution to leave exactly one item on the
	// stack.
	VerifyCleanStack

	// VerifyWitness enforces segwit spend rules: witness programs must be
	// spent with witness data and an empty signature script, and
	// non-witness inputs must not carry witness data.
	VerifyWitness
)

// MandatoryVerifyFlags are the rules a block would be rejected for
// violating once segwit is active.
const MandatoryVerifyFlags = VerifyWitness

// StandardVerifyFlags are the rules the relay layer holds transactions to.
const StandardVerifyFlags = VerifyWitness | VerifyDERSig | VerifyMinimalData | VerifyCleanStack

// OnlyStandardVerifyFlags is the policy-only subset: standard rules a
// miner could legally ignore.
const OnlyStandardVerifyFlags = StandardVerifyFlags &^ MandatoryVerifyFlags

// SigHasher computes the signature hash an OP_CHECKSIG for the input under
// verification must have been signed over. Injected by the caller because
// the sighash algorithm needs the spending transaction and the coin's
// script, which the engine does not own.
type SigHasher func(hashType byte) ([]byte, error)

// VerifyInput executes one input's unlocking script against the coin's
// locking script under flags.
func VerifyInput(tx *types.Transaction, inputIdx int, lockingScript []byte, flags VerifyFlags, sigHasher SigHasher) error {
	in := tx.Inputs[inputIdx]

	if IsWitnessProgram(lockingScript) {
		if flags&VerifyWitness != 0 {
			if len(in.Witness) == 0 {
				return fmt.Errorf("witness program spent without witness data")
			}
			if len(in.SignatureScript) != 0 {
				return fmt.Errorf("witness program spend must have an empty signature script")
			}
			// Witness stack execution is beyond this engine; the spend is
			// accepted structurally and the standardness layer bounds the
			// witness shape.
			return nil
		}
		// With the flag clear a witness program is just a version push and
		// a data push: anyone-can-spend, matching pre-activation
		// semantics. Fall through to plain execution.
	} else if flags&VerifyWitness != 0 && len(in.Witness) != 0 {
		return fmt.Errorf("unexpected witness data on non-witness input")
	}

	combined := append(append([]byte{}, in.SignatureScript...), lockingScript...)
	engine := NewEngine(combined)
	engine.SetTransaction(tx, inputIdx)
	engine.SetFlags(flags)
	engine.SetSigHasher(sigHasher)
	return engine.Execute()
}
