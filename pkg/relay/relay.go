// Package relay is the peer-facing wrapper around the mempool: it maps
// admission failures to peer ban-score penalties, suppresses reprocessing
// of orphans a peer keeps re-announcing, and surfaces accepted
// transactions for rebroadcast.
package relay

import (
	"sync"

	"github.com/decred/dcrd/lru"

	"github.com/pouria-shahmiri/bitcoin-node/pkg/mempool"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/monitoring"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/security"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/serialization"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/types"
)

// recentOrphanLimit bounds the recently-seen-orphan cache. It only has to
// cover the window between a peer's duplicate announcements, not the whole
// orphan table.
const recentOrphanLimit = 1000

// Announcer rebroadcasts an accepted transaction to the rest of the
// network. pkg/network's Node satisfies this.
type Announcer interface {
	RelayTransaction(tx *types.Transaction, sourceAddr string)
}

// Relay sits between the peer manager and the mempool core.
type Relay struct {
	pool      *mempool.Mempool
	dos       *security.DoSProtection
	announcer Announcer
	logger    *monitoring.Logger

	mu            sync.Mutex
	recentOrphans lru.Cache
	peerAddrs     map[int64]string
	nextPeerID    int64
}

// New creates a relay over pool. dos, announcer and logger are each
// optional; a nil collaborator simply disables that side effect.
func New(pool *mempool.Mempool, dos *security.DoSProtection, announcer Announcer, logger *monitoring.Logger) *Relay {
	return &Relay{
		pool:          pool,
		dos:           dos,
		announcer:     announcer,
		logger:        logger,
		recentOrphans: lru.NewCache(recentOrphanLimit),
		peerAddrs:     make(map[int64]string),
	}
}

// RegisterPeer assigns a relay-local id to a peer address. The id is the
// origin tag threaded through mempool admission and orphan callbacks, so a
// bad orphan can be charged to the peer that sent it long after the fact.
func (r *Relay) RegisterPeer(addr string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextPeerID++
	id := r.nextPeerID
	r.peerAddrs[id] = addr
	return id
}

// UnregisterPeer forgets a disconnected peer's id mapping.
func (r *Relay) UnregisterPeer(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.peerAddrs, id)
}

// SubmitTx runs tx from peer id through mempool admission, penalizing the
// peer by the rejection's DoS score on failure and rebroadcasting on
// success. Orphan acceptances are remembered in a small LRU so the same
// peer re-announcing the same orphan doesn't re-run view construction
// before the waiting index would resolve it anyway.
func (r *Relay) SubmitTx(tx *types.Transaction, id int64) error {
	txHash, err := serialization.HashTransaction(tx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	seenOrphan := r.recentOrphans.Contains(txHash)
	r.mu.Unlock()

	if seenOrphan && r.pool.HasOrphan(txHash) {
		return nil
	}

	entry, addErr := r.pool.Add(tx, id)
	if addErr != nil {
		if me, ok := mempool.AsMempoolError(addErr); ok {
			r.mu.Lock()
			addr := r.peerAddrs[id]
			r.mu.Unlock()
			r.penalize(addr, me.Kind.DoSScore())
		}
		return addErr
	}

	// Successful admissions are rebroadcast from OnTx, which also covers
	// orphans admitted later through cascaded resolution.
	if entry == nil {
		r.mu.Lock()
		r.recentOrphans.Add(txHash)
		r.mu.Unlock()
	}
	return nil
}

// OnTx implements mempool.Observer: every admission — direct or via orphan
// resolution — gets rebroadcast to everyone but its source.
func (r *Relay) OnTx(entry *mempool.Entry, view *mempool.View, arg interface{}) {
	if r.announcer == nil {
		return
	}
	var addr string
	if id, ok := arg.(int64); ok {
		r.mu.Lock()
		addr = r.peerAddrs[id]
		r.mu.Unlock()
	}
	r.announcer.RelayTransaction(entry.Tx, addr)
}

// OnBadOrphan implements mempool.Observer: an orphan that failed
// resubmission is charged to the peer that originally sent it.
func (r *Relay) OnBadOrphan(hash types.Hash, err error, id int64, arg interface{}) {
	r.mu.Lock()
	addr := r.peerAddrs[id]
	r.mu.Unlock()

	score := 0
	if me, ok := mempool.AsMempoolError(err); ok {
		score = me.Kind.DoSScore()
	}
	if r.logger != nil {
		r.logger.Warnf("relay: stored orphan %s failed resubmission: %v", hash, err)
	}
	r.penalize(addr, score)
}

func (r *Relay) penalize(addr string, score int) {
	if r.dos == nil || addr == "" || score == 0 {
		return
	}
	r.dos.Penalize(addr, score)
}
