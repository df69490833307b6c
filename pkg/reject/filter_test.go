package reject

import (
	"testing"

	"github.com/pouria-shahmiri/bitcoin-node/pkg/types"
)

func hashFromByte(b byte) types.Hash {
	var h types.Hash
	h[0] = b
	h[31] = ^b
	return h
}

func TestFilterAddHas(t *testing.T) {
	f := NewDefault()

	h := hashFromByte(1)
	if f.Has(h) {
		t.Error("fresh filter reports a hash it never saw")
	}

	f.Add(h)
	if !f.Has(h) {
		t.Error("filter forgot an added hash (bloom filters never false-negative)")
	}
}

func TestFilterNoFalseNegatives(t *testing.T) {
	f := New(1000, 1e-6)

	for i := 0; i < 200; i++ {
		f.Add(hashFromByte(byte(i)))
	}
	for i := 0; i < 200; i++ {
		if !f.Has(hashFromByte(byte(i))) {
			t.Fatalf("hash %d missing after insertion", i)
		}
	}
}

func TestFilterReset(t *testing.T) {
	f := NewDefault()

	for i := 0; i < 50; i++ {
		f.Add(hashFromByte(byte(i)))
	}
	f.Reset()

	hits := 0
	for i := 0; i < 50; i++ {
		if f.Has(hashFromByte(byte(i))) {
			hits++
		}
	}
	if hits != 0 {
		t.Errorf("%d hashes survived a reset", hits)
	}

	// The reset filter keeps working at the same capacity.
	h := hashFromByte(200)
	f.Add(h)
	if !f.Has(h) {
		t.Error("filter unusable after reset")
	}
}
