package storage

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"path/filepath"

	"github.com/pouria-shahmiri/bitcoin-node/pkg/serialization"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/types"
)

// MempoolJournal best-effort persists mempool contents across restarts.
// Losing it is harmless — every record is re-validated through the full
// admission pipeline on restore, so stale or now-invalid transactions are
// simply dropped.
type MempoolJournal struct {
	db *Database
}

// JournalRecord is one persisted mempool transaction with the insertion
// timestamp it originally carried.
type JournalRecord struct {
	Tx   *types.Transaction
	Time int64
}

// OpenMempoolJournal opens (or creates) the journal database under
// dataDir at the reserved mempool.dat path.
func OpenMempoolJournal(dataDir string) (*MempoolJournal, error) {
	db, err := OpenDatabase(filepath.Join(dataDir, "mempool.dat"))
	if err != nil {
		return nil, fmt.Errorf("failed to open mempool journal: %w", err)
	}
	return &MempoolJournal{db: db}, nil
}

// NewMempoolJournal wraps an already-open database, for hosts that share
// one database across stores.
func NewMempoolJournal(db *Database) *MempoolJournal {
	return &MempoolJournal{db: db}
}

// Close closes the underlying database.
func (j *MempoolJournal) Close() error {
	return j.db.Close()
}

// Save replaces the journal's contents with records, atomically via a
// single batch.
func (j *MempoolJournal) Save(records []JournalRecord) error {
	batch := j.db.NewBatch()

	it := j.db.NewIterator([]byte{PrefixMempool})
	for it.Next() {
		batch.Delete(append([]byte{}, it.Key()...))
	}
	it.Release()
	if err := it.Error(); err != nil {
		return fmt.Errorf("failed to scan mempool journal: %w", err)
	}

	for _, rec := range records {
		txHash, err := serialization.HashTransaction(rec.Tx)
		if err != nil {
			return fmt.Errorf("failed to hash journal transaction: %w", err)
		}
		value, err := encodeJournalRecord(rec)
		if err != nil {
			return err
		}
		batch.Put(mempoolKey(txHash), value)
	}

	return batch.Write()
}

// Load reads every journal record. Undecodable records are skipped, not
// fatal: the journal is advisory.
func (j *MempoolJournal) Load() ([]JournalRecord, error) {
	var records []JournalRecord

	it := j.db.NewIterator([]byte{PrefixMempool})
	defer it.Release()
	for it.Next() {
		rec, err := decodeJournalRecord(it.Value())
		if err != nil {
			continue
		}
		records = append(records, rec)
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("failed to read mempool journal: %w", err)
	}

	return records, nil
}

// mempoolKey creates key for a journaled mempool transaction
// Format: 'm' + tx_hash
func mempoolKey(hash types.Hash) []byte {
	key := make([]byte, 1+32)
	key[0] = PrefixMempool
	copy(key[1:], hash[:])
	return key
}

func encodeJournalRecord(rec JournalRecord) ([]byte, error) {
	txBytes, err := serialization.SerializeTransaction(rec.Tx)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize journal transaction: %w", err)
	}

	buf := make([]byte, 8, 8+len(txBytes))
	binary.LittleEndian.PutUint64(buf, uint64(rec.Time))
	return append(buf, txBytes...), nil
}

func decodeJournalRecord(data []byte) (JournalRecord, error) {
	if len(data) < 8 {
		return JournalRecord{}, fmt.Errorf("journal record too short: %d bytes", len(data))
	}

	t := int64(binary.LittleEndian.Uint64(data[:8]))
	tx, err := serialization.DeserializeTransaction(bytes.NewReader(data[8:]))
	if err != nil {
		return JournalRecord{}, fmt.Errorf("failed to deserialize journal transaction: %w", err)
	}

	return JournalRecord{Tx: tx, Time: t}, nil
}
