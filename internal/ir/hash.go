package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix enables future algorithm migration.
const (
	DomainHeap = "bitheap/heap/v1"
	DomainPlan = "bitheap/plan/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// HeapHash identifies a bit heap by its contributed bits and size.
// Two heaps with the same hash reduce to the same plan on the same catalog.
func HeapHash(heap map[string]any) (string, error) {
	canonical, err := MarshalCanonical(heap)
	if err != nil {
		return "", fmt.Errorf("HeapHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainHeap, canonical), nil
}

// PlanHash identifies a reduction plan.
func PlanHash(plan map[string]any) (string, error) {
	canonical, err := MarshalCanonical(plan)
	if err != nil {
		return "", fmt.Errorf("PlanHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainPlan, canonical), nil
}

// Picoseconds converts a delay in nanoseconds to integer picoseconds, the
// only form in which delays enter canonical JSON.
func Picoseconds(ns float64) int64 {
	if ns >= 0 {
		return int64(ns*1000 + 0.5)
	}
	return int64(ns*1000 - 0.5)
}
