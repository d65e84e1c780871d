package testutil

import (
	"fmt"
	"math/big"
	"math/rand/v2"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/roach88/bitheap/internal/bitheap"
)

// RandomBit is one bit of a HeapSpec.
type RandomBit struct {
	Weight       int
	Value        bool
	Stage        int
	TimingOffset float64
}

// HeapSpec is a reproducible set of bits for a heap of MaxWeight columns.
type HeapSpec struct {
	MaxWeight int
	Bits      []RandomBit
	Constants []int // weights of constant one bits
}

// RandomHeap draws n bits over maxWeight columns from a fixed-seed PCG
// source. The same seed always yields the same heap. Stages are drawn from
// [0, 4) so that insertion order differs from arrival order.
func RandomHeap(seed uint64, maxWeight, n int) HeapSpec {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	spec := HeapSpec{MaxWeight: maxWeight, Bits: make([]RandomBit, n)}
	for i := range spec.Bits {
		spec.Bits[i] = RandomBit{
			Weight:       r.IntN(maxWeight),
			Value:        r.IntN(2) == 1,
			Stage:        r.IntN(4),
			TimingOffset: float64(r.IntN(8)) * 0.25,
		}
	}
	for i := r.IntN(3); i > 0; i-- {
		spec.Constants = append(spec.Constants, r.IntN(maxWeight))
	}
	return spec
}

// Build adds the bits of spec to h and returns the IDs of the bits whose
// value is 1.
func (s HeapSpec) Build(h *bitheap.BitHeap) (*roaring.Bitmap, error) {
	ones := roaring.New()
	for i, b := range s.Bits {
		id, err := h.AddBitAt(b.Weight, fmt.Sprintf("x(%d)", i), "", b.Stage, b.TimingOffset)
		if err != nil {
			return nil, err
		}
		if b.Value {
			ones.Add(uint32(id))
		}
	}
	for _, w := range s.Constants {
		if _, err := h.AddConstantOneBit(w); err != nil {
			return nil, err
		}
	}
	return ones, nil
}

// Sum is the weighted sum of the set bits and constants modulo 2^MaxWeight.
func (s HeapSpec) Sum() *big.Int {
	sum := new(big.Int)
	one := big.NewInt(1)
	for _, b := range s.Bits {
		if b.Value {
			sum.Add(sum, new(big.Int).Lsh(one, uint(b.Weight)))
		}
	}
	for _, w := range s.Constants {
		sum.Add(sum, new(big.Int).Lsh(one, uint(w)))
	}
	return sum.Mod(sum, new(big.Int).Lsh(one, uint(s.MaxWeight)))
}
