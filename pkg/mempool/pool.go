// Package mempool implements the in-memory pool of unconfirmed, validated
// transactions sitting between the peer-to-peer network and the block
// template builder: admission, orphan resolution, fee accounting and
// descendant-aware eviction, the reject filter, and reorg reconciliation.
package mempool

import (
	"time"

	"github.com/pouria-shahmiri/bitcoin-node/pkg/reject"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/types"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/utxo"
)

// Config carries the pool's tuning knobs. Defaults match the corresponding
// config.NodeConfig Mempool* defaults; SigopsBytesPerSigop has no NodeConfig
// counterpart, and the relay fee floor and standardness switch live in
// NetParams instead.
type Config struct {
	MaxOrphans           int
	MaxTxWeight          int64
	MaxAncestors         int
	HardCapBytes         int64
	SoftThresholdBytes   int64
	ExpiryHorizon        time.Duration
	SigopsBytesPerSigop  int64
	AbsurdFeeMultiplier  int64
	RejectFilterCapacity uint64
	RejectFilterFPRate   float64
}

// DefaultConfig returns the mainnet-default tuning.
func DefaultConfig() Config {
	return Config{
		MaxOrphans:           100,
		MaxTxWeight:          400000,
		MaxAncestors:         25,
		HardCapBytes:         300 * 1000 * 1000,
		SoftThresholdBytes:   290 * 1000 * 1000,
		ExpiryHorizon:        14 * 24 * time.Hour,
		SigopsBytesPerSigop:  20,
		AbsurdFeeMultiplier:  10000,
		RejectFilterCapacity: reject.DefaultCapacity,
		RejectFilterFPRate:   reject.DefaultFalsePositiveRate,
	}
}

// Mempool is the single-writer, externally-serialized pool core. It holds
// no internal mutex: the host (pkg/relay, or a test) is expected to
// serialize calls to the mutating operations behind a caller-held lock or a
// single-threaded dispatcher. Pure queries (Size, Has, Get) are safe to
// call without extra coordination once the writer side of the contract is
// respected.
type Mempool struct {
	Config

	entries  map[types.Hash]*Entry
	spenders map[utxo.OutPoint]*Entry
	size     int64

	orphans *orphanPool
	rejects *reject.Filter

	policy    *Policy
	chain     Chain
	netParams NetParams
	timedata  Timedata
	logger    Logger
	observer  Observer
}

// New builds a Mempool wired to its external collaborators. observer may be
// NopObserver{} when the host doesn't need on_tx/on_badorphan callbacks.
func New(cfg Config, policy *Policy, chain Chain, netParams NetParams, timedata Timedata, logger Logger, observer Observer) *Mempool {
	if observer == nil {
		observer = NopObserver{}
	}
	return &Mempool{
		Config:    cfg,
		entries:   make(map[types.Hash]*Entry),
		spenders:  make(map[utxo.OutPoint]*Entry),
		orphans:   newOrphanPool(cfg.MaxOrphans),
		rejects:   reject.New(cfg.RejectFilterCapacity, cfg.RejectFilterFPRate),
		policy:    policy,
		chain:     chain,
		netParams: netParams,
		timedata:  timedata,
		logger:    logger,
		observer:  observer,
	}
}

// SetObserver swaps the callback sink. Intended for wiring-time use only
// (the relay needs the pool before it can exist, and vice versa); never
// call this while admissions are in flight.
func (m *Mempool) SetObserver(observer Observer) {
	if observer == nil {
		observer = NopObserver{}
	}
	m.observer = observer
}

// Size returns the number of entries currently held.
func (m *Mempool) Size() int {
	return len(m.entries)
}

// Bytes returns the sum of entry.Size over all entries.
func (m *Mempool) Bytes() int64 {
	return m.size
}

// OrphanCount returns the number of orphans currently held.
func (m *Mempool) OrphanCount() int {
	return m.orphans.size()
}

// Has reports whether txid is a fully-admitted entry.
func (m *Mempool) Has(txid types.Hash) bool {
	_, ok := m.entries[txid]
	return ok
}

// HasOrphan reports whether txid is currently stored as an orphan.
func (m *Mempool) HasOrphan(txid types.Hash) bool {
	return m.orphans.has(txid)
}

// Get returns the entry for txid, if admitted.
func (m *Mempool) Get(txid types.Hash) (*Entry, bool) {
	e, ok := m.entries[txid]
	return e, ok
}

// Spender returns the entry currently spending op, if any.
func (m *Mempool) Spender(op utxo.OutPoint) (*Entry, bool) {
	e, ok := m.spenders[op]
	return e, ok
}

// Entries returns a snapshot slice of every entry currently in the pool,
// in no particular order. The entries themselves are shared, not copied;
// callers observe but must not mutate them.
func (m *Mempool) Entries() []*Entry {
	out := make([]*Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	return out
}

// Missing returns the distinct parent txids the orphan table is waiting
// on — the hashes a sync manager should request from peers next.
func (m *Mempool) Missing() []types.Hash {
	return m.orphans.missingParents()
}

// Rejects exposes the reject filter for read-only has-seen queries from the
// relay layer (e.g. to decide whether to re-request a transaction).
func (m *Mempool) Rejects() *reject.Filter {
	return m.rejects
}

func (m *Mempool) logf(level string, format string, args ...interface{}) {
	if m.logger == nil {
		return
	}
	if level == "warn" {
		m.logger.Warnf(format, args...)
	} else {
		m.logger.Debugf(format, args...)
	}
}

func (m *Mempool) now() int64 {
	if m.timedata != nil {
		return m.timedata.Now()
	}
	return time.Now().Unix()
}
