package main

import (
	"fmt"

	"github.com/pouria-shahmiri/bitcoin-node/pkg/mempool"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/script"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/serialization"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/types"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/utxo"
)

func main() {
	fmt.Println("=== Bitcoin Learning - Milestone 6 ===")
	fmt.Println("Mempool & Fee Policy")
	fmt.Println()

	// Demo 1: Basic mempool admission
	demoBasicMempool()

	// Demo 2: Fee calculation and estimation
	demoFeeCalculation()

	// Demo 3: Transaction dependencies (CPFP accounting)
	demoTransactionDependencies()

	// Demo 4: Double spends and replacement
	demoDoubleSpend()

	// Demo 5: Orphan transactions
	demoOrphans()

	// Demo 6: Transaction selection for blocks
	demoTransactionSelection()

	// Demo 7: Eviction under a small size cap
	demoEviction()

	fmt.Println("\n=== All demos completed successfully! ===")
}

// demoChain is an in-memory stand-in for the chain collaborator: a flat
// coin map, a fixed tip, and every soft fork active.
type demoChain struct {
	coins  map[utxo.OutPoint]*utxo.UTXO
	height uint64
}

func newDemoChain(height uint64) *demoChain {
	return &demoChain{coins: make(map[utxo.OutPoint]*utxo.UTXO), height: height}
}

func (c *demoChain) Tip() mempool.TipInfo {
	return mempool.TipInfo{Height: c.height, MedianTimePast: 1700000000}
}

func (c *demoChain) State() mempool.DeploymentFlags {
	return mempool.DeploymentWitness | mempool.DeploymentCSV
}

func (c *demoChain) VerifyFinal(tip mempool.TipInfo, tx *types.Transaction) bool {
	return tx.LockTime == 0 || uint64(tx.LockTime) <= tip.Height+1
}

func (c *demoChain) VerifyLocks(tip mempool.TipInfo, tx *types.Transaction, view *mempool.View) bool {
	return true
}

func (c *demoChain) HasCoins(txid types.Hash) bool {
	for op := range c.coins {
		if op.Hash == txid {
			return true
		}
	}
	return false
}

func (c *demoChain) GetCoins(view *mempool.View, tx *types.Transaction) {
	for _, in := range tx.Inputs {
		op := utxo.NewOutPoint(in.PrevTxHash, in.OutputIndex)
		if coin, ok := c.coins[op]; ok {
			view.Put(op, coin)
		}
	}
}

func (c *demoChain) CoinbaseMaturity() uint64 { return 100 }

// fund mints a spendable chain coin of the given value and returns its
// outpoint.
func (c *demoChain) fund(seed byte, value int64) utxo.OutPoint {
	var txid types.Hash
	txid[0] = 0xfc
	txid[1] = seed
	op := utxo.NewOutPoint(txid, 0)
	c.coins[op] = utxo.NewUTXO(txid, 0, types.TxOutput{
		Value:        value,
		PubKeyScript: []byte{script.OP_1},
	}, 1, false)
	return op
}

func newDemoMempool(chain *demoChain) *mempool.Mempool {
	return mempool.New(
		mempool.DefaultConfig(),
		mempool.DefaultPolicy(),
		chain,
		mempool.NetParams{RequireStandard: false, MinRelayFeeRate: 1},
		nil,
		nil,
		nil,
	)
}

// spendTx builds a transaction spending the given outpoints into a single
// anyone-can-spend output. Fee = sum(inputs) - outValue.
func spendTx(inputs []utxo.OutPoint, outValue int64) *types.Transaction {
	tx := &types.Transaction{Version: 1}
	for _, op := range inputs {
		tx.Inputs = append(tx.Inputs, types.TxInput{
			PrevTxHash:  op.Hash,
			OutputIndex: op.Index,
			Sequence:    0xFFFFFFFF,
		})
	}
	tx.Outputs = append(tx.Outputs, types.TxOutput{
		Value:        outValue,
		PubKeyScript: []byte{script.OP_1},
	})
	return tx
}

func txHash(tx *types.Transaction) types.Hash {
	h, _ := serialization.HashTransaction(tx)
	return h
}

func demoBasicMempool() {
	fmt.Println("--- Demo 1: Basic Mempool Admission ---")

	chain := newDemoChain(100)
	mp := newDemoMempool(chain)

	for i := 0; i < 5; i++ {
		coin := chain.fund(byte(i), 100000)
		tx := spendTx([]utxo.OutPoint{coin}, 100000-int64((i+1)*10000))

		entry, err := mp.Add(tx, -1)
		if err != nil {
			fmt.Printf("  tx %d rejected: %v\n", i, err)
			continue
		}
		fmt.Printf("  tx %d accepted: fee=%d size=%d vbytes\n", i, entry.Fee, entry.Size)
	}

	fmt.Printf("Mempool now holds %d transactions, %d bytes total\n\n", mp.Size(), mp.Bytes())
}

func demoFeeCalculation() {
	fmt.Println("--- Demo 2: Fee Calculation and Estimation ---")

	chain := newDemoChain(100)
	mp := newDemoMempool(chain)

	for i := 0; i < 20; i++ {
		coin := chain.fund(byte(i), 1000000)
		tx := spendTx([]utxo.OutPoint{coin}, 1000000-int64((i+1)*5000))
		if _, err := mp.Add(tx, -1); err != nil {
			panic(err)
		}
	}

	estimator := mempool.NewFeeEstimator(mp)
	stats := estimator.GetFeeStatistics()
	fmt.Printf("  Pool: %d txs, total fees %d sat\n", stats.TxCount, stats.TotalFees)
	fmt.Printf("  Fee rates: min=%d median=%d max=%d sat/vB\n",
		stats.MinFeeRate, stats.MedianFeeRate, stats.MaxFeeRate)

	for _, target := range []int{1, 3, 6} {
		fee := estimator.EstimateFee(target, 250)
		fmt.Printf("  250-vbyte tx targeting %d blocks: pay ~%d sat\n", target, fee)
	}
	fmt.Println()
}

func demoTransactionDependencies() {
	fmt.Println("--- Demo 3: Transaction Dependencies (CPFP accounting) ---")

	chain := newDemoChain(100)
	mp := newDemoMempool(chain)

	// Parent pays a low fee...
	coin := chain.fund(1, 500000)
	parent := spendTx([]utxo.OutPoint{coin}, 499000)
	parentEntry, err := mp.Add(parent, -1)
	if err != nil {
		panic(err)
	}
	fmt.Printf("  Parent accepted: fee=%d\n", parentEntry.Fee)

	// ...and the child bumps the package rate.
	child := spendTx([]utxo.OutPoint{utxo.NewOutPoint(parentEntry.TxHash, 0)}, 489000)
	childEntry, err := mp.Add(child, -1)
	if err != nil {
		panic(err)
	}
	fmt.Printf("  Child accepted: fee=%d\n", childEntry.Fee)
	fmt.Printf("  Parent package rollup: desc_fee=%d desc_size=%d\n",
		parentEntry.DescFee, parentEntry.DescSize)
	fmt.Println()
}

func demoDoubleSpend() {
	fmt.Println("--- Demo 4: Double Spends and Replacement ---")

	chain := newDemoChain(100)
	mp := newDemoMempool(chain)

	coin := chain.fund(1, 200000)
	original := spendTx([]utxo.OutPoint{coin}, 190000)
	if _, err := mp.Add(original, -1); err != nil {
		panic(err)
	}
	fmt.Println("  Original spend accepted")

	// Same coin, higher fee, no RBF signal.
	conflict := spendTx([]utxo.OutPoint{coin}, 150000)
	if _, err := mp.Add(conflict, -1); err != nil {
		fmt.Printf("  Conflicting spend rejected: %v\n", err)
	}

	// Same again, but signaling BIP125: recognized, still unsupported.
	rbf := spendTx([]utxo.OutPoint{coin}, 140000)
	rbf.Inputs[0].Sequence = 0xFFFFFFFD
	if _, err := mp.Add(rbf, -1); err != nil {
		fmt.Printf("  RBF replacement rejected: %v\n", err)
	}
	fmt.Println()
}

func demoOrphans() {
	fmt.Println("--- Demo 5: Orphan Transactions ---")

	chain := newDemoChain(100)
	mp := newDemoMempool(chain)

	// The child arrives first, spending an output nobody has seen yet.
	coin := chain.fund(1, 300000)
	parent := spendTx([]utxo.OutPoint{coin}, 290000)
	parentHash := txHash(parent)

	child := spendTx([]utxo.OutPoint{utxo.NewOutPoint(parentHash, 0)}, 280000)
	entry, err := mp.Add(child, 7)
	if err != nil {
		panic(err)
	}
	if entry == nil {
		fmt.Printf("  Child filed as orphan (pool=%d orphans=%d)\n", mp.Size(), mp.OrphanCount())
	}

	// The parent arrives; the orphan resolves in the same call.
	if _, err := mp.Add(parent, -1); err != nil {
		panic(err)
	}
	fmt.Printf("  Parent accepted, orphan resolved (pool=%d orphans=%d)\n",
		mp.Size(), mp.OrphanCount())
	fmt.Println()
}

func demoTransactionSelection() {
	fmt.Println("--- Demo 6: Transaction Selection for Blocks ---")

	chain := newDemoChain(100)
	mp := newDemoMempool(chain)

	for i := 0; i < 10; i++ {
		coin := chain.fund(byte(i), 1000000)
		tx := spendTx([]utxo.OutPoint{coin}, 1000000-int64((i+1)*3000))
		if _, err := mp.Add(tx, -1); err != nil {
			panic(err)
		}
	}

	pq := mempool.NewPriorityQueue(mp)
	template, err := pq.CreateBlockTemplate(1000000)
	if err != nil {
		panic(err)
	}
	fmt.Printf("  Block template: %d txs, %d bytes, %d sat in fees\n",
		template.TxCount, template.TotalSize, template.TotalFees)
	fmt.Println()
}

func demoEviction() {
	fmt.Println("--- Demo 7: Eviction Under a Small Size Cap ---")

	chain := newDemoChain(100)
	cfg := mempool.DefaultConfig()
	cfg.HardCapBytes = 500
	cfg.SoftThresholdBytes = 400
	mp := mempool.New(cfg, mempool.DefaultPolicy(), chain,
		mempool.NetParams{RequireStandard: false, MinRelayFeeRate: 1}, nil, nil, nil)

	for i := 0; i < 12; i++ {
		coin := chain.fund(byte(i), 1000000)
		// Later transactions pay progressively better rates, so the
		// cheapest early ones are the ones eviction sheds.
		tx := spendTx([]utxo.OutPoint{coin}, 1000000-int64((i+1)*2000))
		if _, err := mp.Add(tx, -1); err != nil {
			fmt.Printf("  tx %d: %v\n", i, err)
		}
	}

	fmt.Printf("  After eviction: %d txs, %d bytes (soft threshold %d)\n",
		mp.Size(), mp.Bytes(), cfg.SoftThresholdBytes)
	fmt.Println()
}
