package types

// CoinbaseOutputIndex marks an input as having no real previous output,
// the convention used by coinbase transactions.
const CoinbaseOutputIndex = 0xFFFFFFFF

// SequenceLockTimeDisableFlag, set on Sequence, means this input does not
// participate in BIP68 relative-locktime constraints.
const SequenceLockTimeDisableFlag = 1 << 31

// SequenceLockTimeMask extracts the locktime value from Sequence.
const SequenceLockTimeMask = 0x0000ffff

// SequenceLockTimeTypeFlag, when set, means the relative locktime is in
// units of 512 seconds rather than blocks.
const SequenceLockTimeTypeFlag = 1 << 22

// MaxRBFSequence is the lowest Sequence value that does not signal
// replace-by-fee eligibility (BIP125): signaling values are anything below
// max-1.
const MaxRBFSequence = 0xfffffffe

// TxInput represents where coins come from
type TxInput struct {
	PrevTxHash      Hash     // Which transaction created these coins?
	OutputIndex     uint32   // Which output in that transaction?
	SignatureScript []byte   // Proof you can spend (signature + pubkey)
	Sequence        uint32   // For timelock features (usually 0xFFFFFFFF)
	Witness         [][]byte // SegWit witness stack, empty for legacy inputs
}

// TxOutput represents where coins go
type TxOutput struct {
	Value        int64  // Amount in satoshis (1 BTC = 100,000,000 satoshis)
	PubKeyScript []byte // Conditions to spend (usually "pay to this address")
}

// Transaction is a value transfer
type Transaction struct {
	Version  int32      // Protocol version
	Inputs   []TxInput  // Where coins come from
	Outputs  []TxOutput // Where coins go
	LockTime uint32     // When tx becomes valid (0 = immediately)
}

// IsCoinbase reports whether this transaction is a block reward: exactly
// one input, with a null previous hash and the coinbase output index.
func (tx *Transaction) IsCoinbase() bool {
	if len(tx.Inputs) != 1 {
		return false
	}
	in := tx.Inputs[0]
	return in.PrevTxHash.IsZero() && in.OutputIndex == CoinbaseOutputIndex
}

// HasWitness reports whether any input carries a witness stack.
func (tx *Transaction) HasWitness() bool {
	for _, in := range tx.Inputs {
		if len(in.Witness) > 0 {
			return true
		}
	}
	return false
}

// SignalsRBF reports whether this transaction opts into replace-by-fee
// per BIP125: any input has a sequence number below MaxRBFSequence.
func (tx *Transaction) SignalsRBF() bool {
	for _, in := range tx.Inputs {
		if in.Sequence < MaxRBFSequence {
			return true
		}
	}
	return false
}

// UsesRelativeLocktime reports whether this transaction can carry BIP68
// relative locktime constraints: version 2+ and at least one input whose
// sequence disable flag is clear.
func (tx *Transaction) UsesRelativeLocktime() bool {
	if tx.Version < 2 {
		return false
	}
	for _, in := range tx.Inputs {
		if in.Sequence&SequenceLockTimeDisableFlag == 0 {
			return true
		}
	}
	return false
}

// BaseSize returns the legacy (non-witness) serialized size components: 10
// bytes of version, input/output counts and locktime plus per-input/output
// encoding, excluding witness data. Mirrors the serialization package's
// field-by-field layout, counting every count and script length as a
// one-byte varint.
func (tx *Transaction) BaseSize() int64 {
	size := int64(4 + 1 + 1 + 4) // version + input count + output count + locktime
	for _, in := range tx.Inputs {
		size += 32 + 4 + 1 + int64(len(in.SignatureScript)) + 4
	}
	for _, out := range tx.Outputs {
		size += 8 + 1 + int64(len(out.PubKeyScript))
	}
	return size
}

// WitnessSize returns the serialized size of all witness stacks, 0 for a
// transaction with no witness data.
func (tx *Transaction) WitnessSize() int64 {
	if !tx.HasWitness() {
		return 0
	}
	size := int64(2) // marker + flag byte
	for _, in := range tx.Inputs {
		size += 1 // stack item count
		for _, item := range in.Witness {
			size += 1 + int64(len(item))
		}
	}
	return size
}

// Weight returns the BIP141 transaction weight: base size weighted 4x plus
// witness size weighted 1x.
func (tx *Transaction) Weight() int64 {
	return tx.BaseSize()*4 + tx.WitnessSize()
}

// VirtualSize returns weight/4 rounded up, the standard "vbytes" unit used
// for fee-rate calculations once witness data is taken into account.
func (tx *Transaction) VirtualSize() int64 {
	w := tx.Weight()
	return (w + 3) / 4
}


/*
**Key concepts explained:**

1. **TxInput:**
   - `PrevTxHash`: Points to the transaction that created the coins you're spending
   - `OutputIndex`: Which output from that transaction (transactions can have multiple outputs)
   - `SignatureScript`: Your proof that you own those coins (we'll add signatures in Milestone 3)
   - `Sequence`: Advanced feature for replacing transactions

2. **TxOutput:**
   - `Value`: Amount in satoshis (smallest Bitcoin unit)
   - `PubKeyScript`: A small program that defines how coins can be spent (like "must have signature from this address")

3. **Transaction:**
   - Links inputs (what you're spending) to outputs (where it goes)
   - The difference between input and output values is the miner fee

**Example in your mind:**


Alice has 10 BTC from transaction ABC (output #0)
She wants to send 7 BTC to Bob

Transaction:
  Input: Previous TX = ABC, Output Index = 0
  Output 1: 7 BTC to Bob
  Output 2: 3 BTC back to Alice (change)

*/
