package mempool

import (
	"testing"

	"github.com/pouria-shahmiri/bitcoin-node/pkg/keys"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/script"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/transaction"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/types"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/utxo"
)

// newStandardPool builds a pool with the standardness policy enforced,
// the way a mainnet relay node runs.
func newStandardPool(t *testing.T) (*Mempool, *testChain) {
	t.Helper()
	chain := newTestChain()
	mp := New(DefaultConfig(), DefaultPolicy(), chain,
		NetParams{RequireStandard: true, MinRelayFeeRate: 1}, nil, nil, nil)
	return mp, chain
}

// fundP2PKH mints a chain coin locked to the given key's pubkey hash.
func fundP2PKH(t *testing.T, chain *testChain, seed byte, value int64, key *keys.PrivateKey) (utxo.OutPoint, []byte) {
	t.Helper()
	locking, err := script.P2PKH(key.PublicKey().Hash160())
	if err != nil {
		t.Fatalf("failed to build P2PKH script: %v", err)
	}

	var txid types.Hash
	txid[0] = 0xd0
	txid[1] = seed
	op := utxo.NewOutPoint(txid, 0)
	chain.coins[op] = utxo.NewUTXO(txid, 0, types.TxOutput{
		Value:        value,
		PubKeyScript: locking,
	}, 1, false)
	return op, locking
}

func TestAddSignedP2PKHTransaction(t *testing.T) {
	mp, chain := newStandardPool(t)

	key, err := keys.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	coin, locking := fundP2PKH(t, chain, 1, 100000, key)

	dest, err := keys.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	destScript, err := script.P2PKH(dest.PublicKey().Hash160())
	if err != nil {
		t.Fatalf("failed to build destination script: %v", err)
	}

	tx := &types.Transaction{
		Version: 1,
		Inputs: []types.TxInput{{
			PrevTxHash:  coin.Hash,
			OutputIndex: coin.Index,
			Sequence:    0xFFFFFFFF,
		}},
		Outputs: []types.TxOutput{{Value: 90000, PubKeyScript: destScript}},
	}
	if err := transaction.SignInput(tx, 0, key, locking, transaction.SigHashAll); err != nil {
		t.Fatalf("failed to sign input: %v", err)
	}

	entry := mustAdd(t, mp, tx)
	if entry.Fee != 10000 {
		t.Errorf("fee = %d, want 10000", entry.Fee)
	}
	checkInvariants(t, mp)
}

func TestStandardnessRejectsDustOutput(t *testing.T) {
	mp, chain := newStandardPool(t)

	key, err := keys.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	coin, locking := fundP2PKH(t, chain, 1, 100000, key)
	destScript, _ := script.P2PKH(key.PublicKey().Hash160())

	tx := &types.Transaction{
		Version: 1,
		Inputs: []types.TxInput{{
			PrevTxHash:  coin.Hash,
			OutputIndex: coin.Index,
			Sequence:    0xFFFFFFFF,
		}},
		Outputs: []types.TxOutput{{Value: 100, PubKeyScript: destScript}}, // under the 546 sat threshold
	}
	if err := transaction.SignInput(tx, 0, key, locking, transaction.SigHashAll); err != nil {
		t.Fatalf("failed to sign input: %v", err)
	}

	_, addErr := mp.Add(tx, -1)
	if kindOf(t, addErr) != StandardScript {
		t.Errorf("kind = %v, want STANDARD_SCRIPT", kindOf(t, addErr))
	}
}

func TestStandardnessRejectsNonStandardOutputScript(t *testing.T) {
	mp, chain := newStandardPool(t)

	key, err := keys.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	coin, locking := fundP2PKH(t, chain, 1, 100000, key)

	tx := &types.Transaction{
		Version: 1,
		Inputs: []types.TxInput{{
			PrevTxHash:  coin.Hash,
			OutputIndex: coin.Index,
			Sequence:    0xFFFFFFFF,
		}},
		// A bare OP_TRUE output matches no standard template.
		Outputs: []types.TxOutput{{Value: 90000, PubKeyScript: []byte{script.OP_TRUE}}},
	}
	if err := transaction.SignInput(tx, 0, key, locking, transaction.SigHashAll); err != nil {
		t.Fatalf("failed to sign input: %v", err)
	}

	_, addErr := mp.Add(tx, -1)
	if kindOf(t, addErr) != StandardScript {
		t.Errorf("kind = %v, want STANDARD_SCRIPT", kindOf(t, addErr))
	}
}

func TestStandardnessRejectsNonPushOnlyInput(t *testing.T) {
	mp, chain := newStandardPool(t)

	key, err := keys.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	coin, _ := fundP2PKH(t, chain, 1, 100000, key)
	destScript, _ := script.P2PKH(key.PublicKey().Hash160())

	tx := &types.Transaction{
		Version: 1,
		Inputs: []types.TxInput{{
			PrevTxHash:  coin.Hash,
			OutputIndex: coin.Index,
			// OP_DUP is executable, not a push.
			SignatureScript: []byte{script.OP_DUP},
			Sequence:        0xFFFFFFFF,
		}},
		Outputs: []types.TxOutput{{Value: 90000, PubKeyScript: destScript}},
	}

	_, addErr := mp.Add(tx, -1)
	if kindOf(t, addErr) != InputsNonstandard {
		t.Errorf("kind = %v, want INPUTS_NONSTANDARD", kindOf(t, addErr))
	}
}

func TestStandardnessRejectsUnknownVersion(t *testing.T) {
	mp, chain := newStandardPool(t)

	key, err := keys.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	coin, _ := fundP2PKH(t, chain, 1, 100000, key)
	destScript, _ := script.P2PKH(key.PublicKey().Hash160())

	tx := &types.Transaction{
		Version: 9,
		Inputs: []types.TxInput{{
			PrevTxHash:  coin.Hash,
			OutputIndex: coin.Index,
			Sequence:    0xFFFFFFFF,
		}},
		Outputs: []types.TxOutput{{Value: 90000, PubKeyScript: destScript}},
	}

	_, addErr := mp.Add(tx, -1)
	if kindOf(t, addErr) != StandardVersion {
		t.Errorf("kind = %v, want STANDARD_VERSION", kindOf(t, addErr))
	}
}

func TestStandardnessRejectsOversizedWitnessItem(t *testing.T) {
	mp, chain := newStandardPool(t)

	key, err := keys.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	coin, locking := fundP2PKH(t, chain, 1, 100000, key)
	destScript, _ := script.P2PKH(key.PublicKey().Hash160())

	tx := &types.Transaction{
		Version: 1,
		Inputs: []types.TxInput{{
			PrevTxHash:  coin.Hash,
			OutputIndex: coin.Index,
			Sequence:    0xFFFFFFFF,
			Witness:     [][]byte{make([]byte, 600)}, // over the 520-byte item cap
		}},
		Outputs: []types.TxOutput{{Value: 90000, PubKeyScript: destScript}},
	}
	if err := transaction.SignInput(tx, 0, key, locking, transaction.SigHashAll); err != nil {
		t.Fatalf("failed to sign input: %v", err)
	}

	_, addErr := mp.Add(tx, -1)
	if kindOf(t, addErr) != WitnessNonstandard {
		t.Errorf("kind = %v, want WITNESS_NONSTANDARD", kindOf(t, addErr))
	}
}
