package bitheap

import "fmt"

// StepBudget bounds the number of compressor applications in one Compress.
//
// Every application removes at least one unconsumed bit from the heap, so a
// budget of (unconsumed bits + 1) is never reached by a correct reduction.
// The budget turns a scheduling defect into an error instead of a hang.
type StepBudget struct {
	max     int
	current int
}

// NewStepBudget creates a budget allowing max applications.
func NewStepBudget(max int) *StepBudget {
	return &StepBudget{max: max}
}

// Check counts one application at the given column.
func (b *StepBudget) Check(weight, maxWeight int) error {
	b.current++
	if b.current > b.max {
		return &ContractError{
			Code:      ErrCodeStepBudgetExceeded,
			Message:   fmt.Sprintf("compressor applications exceeded budget (%d > %d)", b.current, b.max),
			Weight:    weight,
			MaxWeight: maxWeight,
			Limit:     b.max,
		}
	}
	return nil
}

// Current returns the number of applications counted so far.
func (b *StepBudget) Current() int {
	return b.current
}

// Max returns the budget limit.
func (b *StepBudget) Max() int {
	return b.max
}
