package mempool

import "fmt"

// Kind classifies why an admission attempt failed (or that it succeeded).
// The numeric values are not wire-stable; only the symbol matters to callers.
type Kind int

const (
	OK Kind = iota
	SanityStructure
	SanityNegativeOutput
	SanityDuplicateInput
	SanitySize
	Coinbase
	PrematureWitness
	PrematureCSV
	StandardVersion
	StandardScript
	InputsNonstandard
	WitnessNonstandard
	Finality
	TxInMempool
	TxKnown
	InputsSpent
	Replacement
	InputsMissing
	TxWeight
	TxSigops
	FeeLow
	FeeHigh
	MempoolChain
	ScriptPolicy
	ScriptConsensus
	MempoolFull
	Duplicate
)

var kindNames = map[Kind]string{
	OK:                   "OK",
	SanityStructure:      "SANITY_STRUCTURE",
	SanityNegativeOutput: "SANITY_NEGATIVE_OUTPUT",
	SanityDuplicateInput: "SANITY_DUPLICATE_INPUT",
	SanitySize:           "SANITY_SIZE",
	Coinbase:             "COINBASE",
	PrematureWitness:     "PREMATURE_WITNESS",
	PrematureCSV:         "PREMATURE_CSV",
	StandardVersion:      "STANDARD_VERSION",
	StandardScript:       "STANDARD_SCRIPT",
	InputsNonstandard:    "INPUTS_NONSTANDARD",
	WitnessNonstandard:   "WITNESS_NONSTANDARD",
	Finality:             "FINALITY",
	TxInMempool:          "TX_IN_MEMPOOL",
	TxKnown:              "TX_KNOWN",
	InputsSpent:          "INPUTS_SPENT",
	Replacement:          "REPLACEMENT",
	InputsMissing:        "INPUTS_MISSING",
	TxWeight:             "TX_WEIGHT",
	TxSigops:             "TX_SIGOPS",
	FeeLow:               "FEE_LOW",
	FeeHigh:              "FEE_HIGH",
	MempoolChain:         "MEMPOOL_CHAIN",
	ScriptPolicy:         "SCRIPT_POLICY",
	ScriptConsensus:      "SCRIPT_CONSENSUS",
	MempoolFull:          "MEMPOOL_FULL",
	Duplicate:            "DUPLICATE",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("KIND(%d)", int(k))
}

// DoSScore returns the peer ban-score weight carried by this error kind.
// Structural/consensus violations a valid node would never produce score
// high; policy rejections that an honest, slightly-out-of-sync peer could
// legitimately trigger score zero.
func (k Kind) DoSScore() int {
	switch k {
	case OK, TxInMempool, TxKnown, Duplicate, MempoolFull, FeeLow, FeeHigh,
		InputsNonstandard, WitnessNonstandard, StandardVersion, StandardScript,
		Replacement, MempoolChain, ScriptPolicy:
		return 0
	case SanityStructure, SanityNegativeOutput, SanityDuplicateInput, SanitySize,
		Coinbase, PrematureWitness, PrematureCSV, Finality, TxWeight, TxSigops:
		return 10
	case InputsSpent, InputsMissing, ScriptConsensus:
		return 100
	default:
		return 0
	}
}

// Malleable reports whether a failure of this kind could plausibly have
// been produced by a third party mutating an otherwise-valid transaction
// (e.g. stripping a witness, re-signing with different but still-valid
// DER encoding). Malleable failures must not be written into the reject
// filter, since the "real" unmutated transaction is still admissible.
func (k Kind) Malleable() bool {
	switch k {
	case ScriptPolicy, WitnessNonstandard, InputsNonstandard:
		return true
	default:
		return false
	}
}

// Error wraps a Kind with a human-readable message and, for
// SCRIPT_CONSENSUS failures produced under the witness/cleanstack fallback
// in verify.go, a suppression sentinel that tells the admission wrapper to
// skip reject-filter insertion without changing the Kind the caller
// observes.
type Error struct {
	Kind     Kind
	Message  string
	suppress bool // true when this failure must not populate the reject filter
	Cause    error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Suppressed reports whether this failure must be kept out of the reject
// filter even though its Kind is not itself Malleable(). A third party can
// produce a strict-flags script failure by mutating a valid transaction, so
// caching such a reject would block the honest original; the wrapper checks
// this, not the Kind, before caching.
func (e *Error) Suppressed() bool {
	return e != nil && (e.suppress || e.Kind.Malleable())
}

func newErr(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// newSuppressedConsensusErr builds the SCRIPT_CONSENSUS variant produced by
// the witness/cleanstack fallback path in verify.go: the Kind returned to
// the caller is the ordinary positive ScriptConsensus, but suppress is set
// so the admission wrapper will not add the txid to the reject filter.
func newSuppressedConsensusErr(format string, args ...interface{}) *Error {
	e := newErr(ScriptConsensus, format, args...)
	e.suppress = true
	return e
}

// AsMempoolError unwraps err into *Error if possible.
func AsMempoolError(err error) (*Error, bool) {
	me, ok := err.(*Error)
	return me, ok
}
