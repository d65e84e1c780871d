package operator

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/bitheap/internal/sim"
)

// MismatchError reports an input vector on which the reduction plan and the
// emulation disagree.
type MismatchError struct {
	Operator string
	Vector   int
	Inputs   []string
	Want     string
	Got      string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s: vector %d %v: plan computes %s, emulation %s", e.Operator, e.Vector, e.Inputs, e.Got, e.Want)
}

// Check simulates n random input vectors through the reduction plan of g and
// compares each with g's emulation. Vector i is drawn from a PCG source
// seeded with (seed, i), so results do not depend on scheduling. Vectors
// are checked concurrently; the plan is only read.
func Check(ctx context.Context, g Generator, n int, seed uint64) error {
	res := g.Result()
	if res == nil {
		return fmt.Errorf("%s: heap not compressed", g.Name())
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < n; i++ {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			inputs := RandomInputs(g, rand.New(rand.NewPCG(seed, uint64(i))))
			ones, err := g.Assign(inputs)
			if err != nil {
				return err
			}
			got, err := sim.Evaluate(res.Plan, ones)
			if err != nil {
				return err
			}
			want, err := g.Emulate(inputs)
			if err != nil {
				return err
			}
			if got.Cmp(want) != 0 {
				in := make([]string, len(inputs))
				for k, v := range inputs {
					in[k] = v.String()
				}
				return &MismatchError{Operator: g.Name(), Vector: i, Inputs: in, Want: want.String(), Got: got.String()}
			}
			return nil
		})
	}
	return eg.Wait()
}
