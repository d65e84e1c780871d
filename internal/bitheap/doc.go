// Package bitheap collects weighted bits contributed by arithmetic operators
// and reduces them to a single binary word.
//
// A bit heap holds maxWeight columns. Column w holds bits of weight 2^w,
// kept sorted by arrival time (pipeline stage, then timing offset inside the
// stage). Operators add bits with AddBit and AddConstantOneBit, then call
// Compress exactly once.
//
// Compress runs in three steps:
//
//  1. Prefix pass-through. Low columns holding at most one bit are copied to
//     the result unchanged. The first taller column is the minimum weight.
//  2. Greedy compression. Columns are visited from the minimum weight upward.
//     Each column is first reduced with the widest compressor of the catalog
//     while it is taller than that compressor's primary input count, then with
//     any catalog entry whose primary input count equals the column height,
//     until the column holds at most two bits. Compressor outputs land in the
//     current and higher columns and are processed when those are visited.
//  3. Final addition. The remaining columns, each at most two bits high, are
//     summed by one carry-propagate adder.
//
// Every structural artifact is emitted through the Operator the heap was
// created with. The reduction itself is recorded as a Plan, which sim can
// evaluate on concrete inputs and which hashes to a stable identity.
//
// The heap computes its sum modulo 2^maxWeight: compressor outputs whose
// weight is at or above maxWeight are discarded and the adder carry-out is
// not kept.
package bitheap
