package validation

import (
	"sort"

	"github.com/pouria-shahmiri/bitcoin-node/pkg/consensus"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/mempool"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/storage"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/types"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/utxo"
)

// MempoolChain adapts the node's blockchain storage, UTXO set and
// consensus rules into the mempool.Chain collaborator contract: tip and
// deployment-state queries, finality and sequence-lock evaluation, and
// coin-view resolution for transactions whose parents are already
// confirmed.
type MempoolChain struct {
	blockchain *storage.BlockchainStorage
	utxoSet    *utxo.UTXOSet
	rules      *consensus.ConsensusRules
}

// NewMempoolChain creates the chain collaborator for the mempool.
func NewMempoolChain(blockchain *storage.BlockchainStorage, utxoSet *utxo.UTXOSet, rules *consensus.ConsensusRules) *MempoolChain {
	return &MempoolChain{
		blockchain: blockchain,
		utxoSet:    utxoSet,
		rules:      rules,
	}
}

// Tip returns the best block's height and median-time-past.
func (mc *MempoolChain) Tip() mempool.TipInfo {
	height, err := mc.blockchain.GetBestBlockHeight()
	if err != nil {
		return mempool.TipInfo{}
	}
	return mempool.TipInfo{
		Height:         height,
		MedianTimePast: mc.medianTimePast(height),
	}
}

// medianTimePast computes the median of the last MedianTimeSpan block
// timestamps ending at height.
func (mc *MempoolChain) medianTimePast(height uint64) int64 {
	span := mc.rules.MedianTimeSpan
	times := make([]int64, 0, span)
	for i := 0; i < span; i++ {
		if height < uint64(i) {
			break
		}
		block, err := mc.blockchain.GetBlockByHeight(height - uint64(i))
		if err != nil {
			break
		}
		times = append(times, int64(block.Header.Timestamp))
	}
	if len(times) == 0 {
		return 0
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
	return times[len(times)/2]
}

// State returns the soft-fork deployment bitmap at the current tip.
func (mc *MempoolChain) State() mempool.DeploymentFlags {
	height, err := mc.blockchain.GetBestBlockHeight()
	if err != nil {
		return 0
	}
	var flags mempool.DeploymentFlags
	if mc.rules.IsSegWitActive(height) {
		flags |= mempool.DeploymentWitness
	}
	if mc.rules.IsCSVActive(height) {
		flags |= mempool.DeploymentCSV
	}
	return flags
}

// VerifyFinal reports whether tx would be final in the block following
// tip: a zero locktime is always final, height locktimes compare against
// tip.Height+1, timestamp locktimes against median-time-past, and a
// transaction whose inputs all carry the maximum sequence is final
// regardless of locktime.
func (mc *MempoolChain) VerifyFinal(tip mempool.TipInfo, tx *types.Transaction) bool {
	const locktimeThreshold = 500000000

	if tx.LockTime == 0 {
		return true
	}

	var cutoff int64
	if tx.LockTime < locktimeThreshold {
		cutoff = int64(tip.Height) + 1
	} else {
		cutoff = tip.MedianTimePast
	}
	if int64(tx.LockTime) < cutoff {
		return true
	}

	for _, in := range tx.Inputs {
		if in.Sequence != 0xFFFFFFFF {
			return false
		}
	}
	return true
}

// VerifyLocks evaluates tx's BIP68 relative-locktime constraints against
// the coins in view at tip. Unconfirmed (mempool-parent) coins count as
// confirming in the next block, the same assumption admission itself
// makes.
func (mc *MempoolChain) VerifyLocks(tip mempool.TipInfo, tx *types.Transaction, view *mempool.View) bool {
	if tx.Version < 2 {
		return true
	}

	for _, in := range tx.Inputs {
		if in.Sequence&types.SequenceLockTimeDisableFlag != 0 {
			continue
		}

		coin, ok := view.Get(utxo.NewOutPoint(in.PrevTxHash, in.OutputIndex))
		if !ok {
			return false
		}

		coinHeight := coin.Height
		if coinHeight > tip.Height {
			coinHeight = tip.Height + 1
		}

		value := int64(in.Sequence & types.SequenceLockTimeMask)
		if in.Sequence&types.SequenceLockTimeTypeFlag != 0 {
			// Time-based lock: 512-second granularity measured from the
			// median-time-past of the block before the coin's block.
			lockSeconds := value << 9
			coinTime := mc.coinMedianTime(coinHeight)
			if tip.MedianTimePast < coinTime+lockSeconds {
				return false
			}
		} else {
			if int64(tip.Height)+1 < int64(coinHeight)+value {
				return false
			}
		}
	}
	return true
}

// coinMedianTime returns the median-time-past anchoring a time-based
// sequence lock for a coin created at height.
func (mc *MempoolChain) coinMedianTime(height uint64) int64 {
	if height == 0 {
		return 0
	}
	return mc.medianTimePast(height - 1)
}

// HasCoins reports whether the chain UTXO set still holds any unspent
// output created by txid — the TX_KNOWN dedup signal.
func (mc *MempoolChain) HasCoins(txid types.Hash) bool {
	blockHash, txIndex, err := mc.blockchain.GetTransactionLocation(txid)
	if err != nil {
		return false
	}
	block, err := mc.blockchain.GetBlock(blockHash)
	if err != nil || int(txIndex) >= len(block.Transactions) {
		return false
	}
	tx := &block.Transactions[txIndex]
	for i := range tx.Outputs {
		if mc.utxoSet.Exists(utxo.NewOutPoint(txid, uint32(i))) {
			return true
		}
	}
	return false
}

// GetCoins resolves tx's inputs against the chain UTXO set, writing every
// coin it finds into view. Inputs the pool already resolved are skipped;
// inputs the chain doesn't know stay unresolved for the orphan branch to
// deal with.
func (mc *MempoolChain) GetCoins(view *mempool.View, tx *types.Transaction) {
	for _, in := range tx.Inputs {
		op := utxo.NewOutPoint(in.PrevTxHash, in.OutputIndex)
		if view.Has(op) {
			continue
		}
		coin, err := mc.utxoSet.Get(op)
		if err != nil {
			continue
		}
		view.Put(op, coin)
	}
}

// CoinbaseMaturity returns the consensus maturity window for coinbase
// spends.
func (mc *MempoolChain) CoinbaseMaturity() uint64 {
	return uint64(mc.rules.CoinbaseMaturity)
}
