package bitheap

import (
	"errors"
	"fmt"
)

// ContractError reports a bit heap operation that was called against its
// contract, or a reduction that could not complete.
type ContractError struct {
	// Code identifies the error category.
	Code ContractErrorCode

	// Message is a human-readable description.
	Message string

	// Weight is the column involved, or -1.
	Weight int

	// MaxWeight is the heap size at the time of the error.
	MaxWeight int

	// Limit is the exhausted step budget (STEP_BUDGET_EXCEEDED only).
	Limit int
}

// ContractErrorCode categorizes contract errors.
type ContractErrorCode string

const (
	// ErrCodeInvalidMaxWeight indicates a heap size below 1.
	ErrCodeInvalidMaxWeight ContractErrorCode = "INVALID_MAX_WEIGHT"

	// ErrCodeWeightOutOfRange indicates a bit weight outside [0, maxWeight).
	ErrCodeWeightOutOfRange ContractErrorCode = "WEIGHT_OUT_OF_RANGE"

	// ErrCodeInvalidTiming indicates a negative arrival stage or a timing
	// offset that is negative or not finite.
	ErrCodeInvalidTiming ContractErrorCode = "INVALID_TIMING"

	// ErrCodeAlreadyCompressed indicates a second call to Compress.
	ErrCodeAlreadyCompressed ContractErrorCode = "ALREADY_COMPRESSED"

	// ErrCodeHeapFinalized indicates a bit added after Compress.
	ErrCodeHeapFinalized ContractErrorCode = "HEAP_FINALIZED"

	// ErrCodeNoProgress indicates a column taller than two for which no
	// catalog entry applies.
	ErrCodeNoProgress ContractErrorCode = "NO_PROGRESS"

	// ErrCodeStepBudgetExceeded indicates more compressor applications than
	// the step budget allows.
	ErrCodeStepBudgetExceeded ContractErrorCode = "STEP_BUDGET_EXCEEDED"
)

// Error implements the error interface.
func (e *ContractError) Error() string {
	if e.Weight >= 0 {
		return fmt.Sprintf("%s: %s (weight=%d, max_weight=%d)", e.Code, e.Message, e.Weight, e.MaxWeight)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsContractError returns true if err is a ContractError with the given code.
// Uses errors.As to handle wrapped errors.
func IsContractError(err error, code ContractErrorCode) bool {
	var ce *ContractError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// IsInfeasibleError returns true if err means the catalog could not reduce
// the heap, as opposed to a misuse of the API.
func IsInfeasibleError(err error) bool {
	return IsContractError(err, ErrCodeNoProgress) || IsContractError(err, ErrCodeStepBudgetExceeded)
}

func newWeightError(weight, maxWeight int) *ContractError {
	return &ContractError{
		Code:      ErrCodeWeightOutOfRange,
		Message:   "bit weight outside heap",
		Weight:    weight,
		MaxWeight: maxWeight,
	}
}

func newNoProgressError(weight, height, maxWeight int) *ContractError {
	return &ContractError{
		Code:      ErrCodeNoProgress,
		Message:   fmt.Sprintf("no compressor in catalog reduces a column of height %d", height),
		Weight:    weight,
		MaxWeight: maxWeight,
	}
}
