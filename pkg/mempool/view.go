package mempool

import (
	"github.com/pouria-shahmiri/bitcoin-node/pkg/types"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/utxo"
)

// View is the transient UTXO snapshot built for a single candidate
// transaction: mempool-parent outputs merged with chain UTXOs fetched for
// whatever inputs the pool doesn't already supply. It is owned by whichever
// call built it (Add's stack frame) and discarded on return.
type View struct {
	coins map[utxo.OutPoint]*utxo.UTXO
}

// NewView creates an empty view.
func NewView() *View {
	return &View{coins: make(map[utxo.OutPoint]*utxo.UTXO)}
}

// Put records a coin for an outpoint.
func (v *View) Put(op utxo.OutPoint, coin *utxo.UTXO) {
	v.coins[op] = coin
}

// Get returns the coin for an outpoint, if present.
func (v *View) Get(op utxo.OutPoint) (*utxo.UTXO, bool) {
	c, ok := v.coins[op]
	return c, ok
}

// Has reports whether the view already resolves this outpoint.
func (v *View) Has(op utxo.OutPoint) bool {
	_, ok := v.coins[op]
	return ok
}

// Len returns how many coins the view currently holds.
func (v *View) Len() int {
	return len(v.coins)
}

// missingInputs returns the outpoints of tx that the view does not resolve,
// in input order.
func missingInputs(tx *types.Transaction, v *View) []utxo.OutPoint {
	var missing []utxo.OutPoint
	for _, in := range tx.Inputs {
		op := utxo.NewOutPoint(in.PrevTxHash, in.OutputIndex)
		if !v.Has(op) {
			missing = append(missing, op)
		}
	}
	return missing
}

func outputSum(tx *types.Transaction) int64 {
	var total int64
	for _, out := range tx.Outputs {
		total += out.Value
	}
	return total
}
