// Package sim evaluates a bit heap reduction plan on concrete bit values.
//
// It is the software model of the emitted hardware: each step of the plan is
// computed exactly as the generated structure computes it, so a mismatch
// between Evaluate and the arithmetic sum of the source bits points at the
// scheduler, not at the test.
package sim

import (
	"fmt"
	"math/big"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/roach88/bitheap/internal/bitheap"
)

// Evaluate returns the word produced by plan when the source bits listed in
// ones are 1 and every other source bit is 0. Constant sources are always 1.
func Evaluate(plan *bitheap.Plan, ones *roaring.Bitmap) (*big.Int, error) {
	values := make([]bool, plan.ArenaSize)
	isSource := make([]bool, plan.ArenaSize)
	for _, s := range plan.Sources {
		if int(s.ID) >= plan.ArenaSize {
			return nil, fmt.Errorf("sim: source bit %d outside arena of %d", s.ID, plan.ArenaSize)
		}
		isSource[s.ID] = true
		if s.Constant {
			values[s.ID] = true
		}
	}

	if ones != nil {
		it := ones.Iterator()
		for it.HasNext() {
			id := it.Next()
			if int(id) >= plan.ArenaSize || !isSource[id] {
				return nil, fmt.Errorf("sim: bit %d is not a source bit", id)
			}
			values[id] = true
		}
	}

	sum := new(big.Int)
	for _, step := range plan.Steps {
		switch step.Kind {
		case bitheap.StepPassThrough:
			for i, id := range step.Bits {
				if bitValue(values, id) {
					sum.SetBit(sum, step.Weight+i, 1)
				}
			}

		case bitheap.StepCompress:
			count := step.Compressor.Count(countOnes(values, step.Inputs0), countOnes(values, step.Inputs1))
			for i, id := range step.Outputs {
				if id != bitheap.NoBit {
					values[id] = count>>i&1 == 1
				}
			}

		case bitheap.StepAdd:
			a := rowValue(values, step.Inputs0)
			b := rowValue(values, step.Inputs1)
			a.Add(a, b)
			for i := 0; i < step.Width; i++ {
				if a.Bit(i) == 1 {
					sum.SetBit(sum, step.Weight+i, 1)
				}
			}

		default:
			return nil, fmt.Errorf("sim: unknown step kind %q", step.Kind)
		}
	}
	return sum, nil
}

// Expected returns the arithmetic sum of the source bits modulo
// 2^plan.MaxWeight, which Evaluate must reproduce.
func Expected(plan *bitheap.Plan, ones *roaring.Bitmap) *big.Int {
	sum := new(big.Int)
	one := big.NewInt(1)
	for _, s := range plan.Sources {
		if s.Constant || (ones != nil && ones.Contains(uint32(s.ID))) {
			sum.Add(sum, new(big.Int).Lsh(one, uint(s.Weight)))
		}
	}
	mod := new(big.Int).Lsh(one, uint(plan.MaxWeight))
	return sum.Mod(sum, mod)
}

func bitValue(values []bool, id bitheap.BitID) bool {
	return id != bitheap.NoBit && values[id]
}

func countOnes(values []bool, ids []bitheap.BitID) int {
	n := 0
	for _, id := range ids {
		if bitValue(values, id) {
			n++
		}
	}
	return n
}

func rowValue(values []bool, row []bitheap.BitID) *big.Int {
	v := new(big.Int)
	for i, id := range row {
		if bitValue(values, id) {
			v.SetBit(v, i, 1)
		}
	}
	return v
}
