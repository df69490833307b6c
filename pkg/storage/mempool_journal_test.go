package storage

import (
	"testing"

	"github.com/pouria-shahmiri/bitcoin-node/pkg/serialization"
	"github.com/pouria-shahmiri/bitcoin-node/pkg/types"
)

func journalTx(seed byte, value int64) *types.Transaction {
	var prev types.Hash
	prev[0] = seed
	return &types.Transaction{
		Version: 1,
		Inputs: []types.TxInput{{
			PrevTxHash:  prev,
			OutputIndex: 0,
			Sequence:    0xFFFFFFFF,
		}},
		Outputs: []types.TxOutput{{Value: value, PubKeyScript: []byte{0x51}}},
	}
}

func TestMempoolJournalRoundTrip(t *testing.T) {
	journal, err := OpenMempoolJournal(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open journal: %v", err)
	}
	defer journal.Close()

	records := []JournalRecord{
		{Tx: journalTx(1, 90000), Time: 1700000001},
		{Tx: journalTx(2, 80000), Time: 1700000002},
		{Tx: journalTx(3, 70000), Time: 1700000003},
	}
	if err := journal.Save(records); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := journal.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != len(records) {
		t.Fatalf("loaded %d records, want %d", len(loaded), len(records))
	}

	wantTimes := make(map[types.Hash]int64)
	for _, rec := range records {
		h, err := serialization.HashTransaction(rec.Tx)
		if err != nil {
			t.Fatal(err)
		}
		wantTimes[h] = rec.Time
	}
	for _, rec := range loaded {
		h, err := serialization.HashTransaction(rec.Tx)
		if err != nil {
			t.Fatal(err)
		}
		want, ok := wantTimes[h]
		if !ok {
			t.Errorf("loaded unexpected transaction %s", h)
			continue
		}
		if rec.Time != want {
			t.Errorf("transaction %s time = %d, want %d", h, rec.Time, want)
		}
	}
}

func TestMempoolJournalSaveReplacesContents(t *testing.T) {
	journal, err := OpenMempoolJournal(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open journal: %v", err)
	}
	defer journal.Close()

	if err := journal.Save([]JournalRecord{{Tx: journalTx(1, 90000), Time: 1}}); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}
	if err := journal.Save([]JournalRecord{{Tx: journalTx(2, 80000), Time: 2}}); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	loaded, err := journal.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("loaded %d records after replace, want 1", len(loaded))
	}
	if loaded[0].Time != 2 {
		t.Errorf("surviving record time = %d, want the replacement's 2", loaded[0].Time)
	}
}

func TestMempoolJournalEmptyLoad(t *testing.T) {
	journal, err := OpenMempoolJournal(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open journal: %v", err)
	}
	defer journal.Close()

	loaded, err := journal.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("fresh journal loaded %d records, want 0", len(loaded))
	}
}
