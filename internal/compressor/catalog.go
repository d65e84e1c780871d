package compressor

import (
	"errors"
	"fmt"
)

// MinLimit is the smallest logic-cell input count that admits a compressor.
const MinLimit = 3

// LimitError is returned when a catalog is requested for a resource limit
// that admits no compressor.
type LimitError struct {
	Limit int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("compressor catalog: logic-cell input limit %d is below the minimum of %d", e.Limit, MinLimit)
}

// IsLimitError reports whether err is a LimitError.
func IsLimitError(err error) bool {
	var le *LimitError
	return errors.As(err, &le)
}

// Catalog is an immutable, ordered list of compressors for one resource limit.
// The order is the greedy preference order: descending inputs0, then
// descending inputs1. A Catalog may be shared read-only by many heaps.
type Catalog struct {
	limit   int
	entries []Compressor
}

// Build generates every compressor (c0, c1) with c0 from limit down to 3 and,
// for each c0, c1 from c0 down to 0, keeping those with c0 + 2*c1 <= limit.
func Build(limit int) (*Catalog, error) {
	if limit < MinLimit {
		return nil, &LimitError{Limit: limit}
	}

	var entries []Compressor
	for c0 := limit; c0 >= MinLimit; c0-- {
		for c1 := c0; c1 >= 0; c1-- {
			c := Compressor{Inputs0: c0, Inputs1: c1}
			if c.Fits(limit) {
				entries = append(entries, c)
			}
		}
	}

	return &Catalog{limit: limit, entries: entries}, nil
}

// MustBuild is like Build but panics on error.
// Use only in tests or when the limit is known to be valid.
func MustBuild(limit int) *Catalog {
	c, err := Build(limit)
	if err != nil {
		panic(err)
	}
	return c
}

// NewCustom creates a catalog from an explicit entry list, in the given order.
// Every entry must fit the limit. Used to model restricted primitive libraries.
func NewCustom(limit int, entries []Compressor) (*Catalog, error) {
	if limit < MinLimit {
		return nil, &LimitError{Limit: limit}
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("compressor catalog: no entries for limit %d", limit)
	}
	for i, c := range entries {
		if !c.Fits(limit) {
			return nil, fmt.Errorf("compressor catalog: entry %d %s does not fit limit %d", i, c, limit)
		}
	}

	cp := make([]Compressor, len(entries))
	copy(cp, entries)
	return &Catalog{limit: limit, entries: cp}, nil
}

// Limit returns the logic-cell input limit the catalog was built for.
func (c *Catalog) Limit() int {
	return c.limit
}

// Len returns the number of compressors.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// At returns the i-th compressor in preference order.
func (c *Catalog) At(i int) Compressor {
	return c.entries[i]
}

// Widest returns the first (most preferred) compressor.
func (c *Catalog) Widest() Compressor {
	return c.entries[0]
}

// Entries returns a copy of the catalog entries in preference order.
func (c *Catalog) Entries() []Compressor {
	out := make([]Compressor, len(c.entries))
	copy(out, c.entries)
	return out
}
