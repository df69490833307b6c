package mempool

import (
	"github.com/pouria-shahmiri/bitcoin-node/pkg/types"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/utxo"
)

// DeploymentFlags is a bitmap of currently active soft-fork deployments,
// consulted for the soft-fork gating step of admission (§4.1 step 3) and
// for script verification flag selection (§4.3).
type DeploymentFlags uint32

const (
	DeploymentWitness DeploymentFlags = 1 << iota
	DeploymentCSV
)

func (f DeploymentFlags) Has(bit DeploymentFlags) bool {
	return f&bit != 0
}

// TipInfo describes the chain tip as the mempool needs to see it.
type TipInfo struct {
	Height         uint64
	MedianTimePast int64
}

// Chain is the external collaborator the mempool consults for anything
// requiring knowledge of the best chain: finality, sequence locks, coin
// lookups and membership. Implemented by pkg/validation's chain adapter in
// this module; a test double is used throughout pkg/mempool's tests.
type Chain interface {
	Tip() TipInfo
	State() DeploymentFlags

	// VerifyFinal reports whether tx would be final if included in the
	// block following tip, given tip's height+1 and median-time-past.
	VerifyFinal(tip TipInfo, tx *types.Transaction) bool

	// VerifyLocks reports whether tx's BIP68 relative-locktime constraints
	// (if any) are satisfied against the coins in view, at tip.
	VerifyLocks(tip TipInfo, tx *types.Transaction, view *View) bool

	// HasCoins reports whether the chain's UTXO set already has any unspent
	// output with this exact txid (used for the TX_KNOWN dedup check).
	HasCoins(txid types.Hash) bool

	// GetCoins resolves tx's non-parent inputs against the chain UTXO set,
	// writing any it finds into view. Inputs viewing neither the pool nor
	// the chain are simply left unresolved.
	GetCoins(view *View, tx *types.Transaction)

	// CoinbaseMaturity returns the confirmation count a coinbase output
	// must clear before it is spendable.
	CoinbaseMaturity() uint64
}

// NetParams carries the network-wide relay policy knobs the mempool needs.
type NetParams struct {
	RequireStandard bool
	MinRelayFeeRate int64 // satoshis per vbyte
}

// Timedata is the wall-clock source used to stamp entry.Time; overridable
// in tests for deterministic expiry-horizon scenarios.
type Timedata interface {
	Now() int64
}

// Logger is the leveled-logging collaborator; satisfied by
// *pkg/monitoring.Logger. Optional — a nil Logger means "don't log".
type Logger interface {
	Warnf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// Observer receives the pool's lifecycle callbacks.
type Observer interface {
	// OnTx fires after an entry has been fully indexed.
	OnTx(entry *Entry, view *View, arg interface{})

	// OnBadOrphan fires when a previously stored orphan fails resubmission
	// during cascaded resolution.
	OnBadOrphan(hash types.Hash, err error, id int64, arg interface{})
}

// NopObserver implements Observer with no-ops, used where the host does not
// need callbacks (and in tests that only assert on pool state).
type NopObserver struct{}

func (NopObserver) OnTx(*Entry, *View, interface{})                   {}
func (NopObserver) OnBadOrphan(types.Hash, error, int64, interface{}) {}

// outpoint is a convenience alias kept local to this package so call sites
// read as "outpoint" rather than the storage-layer "utxo.OutPoint".
type outpoint = utxo.OutPoint
