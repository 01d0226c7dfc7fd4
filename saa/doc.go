// Package saa allocates a fixed paved area among interlocking pavers,
// reinforced concrete and pervious concrete so as to minimize expected
// embodied carbon, and certifies the allocation with Sample Average
// Approximation (SAA) bounds.
//
// # Reading Guide
//
// Start with these files to understand the engine:
//   - scenario.go: triangular emission scenarios and batches
//   - solver.go: the fixed LP constraint system and the allocation solve
//   - estimator.go: M lower-bound batches, the candidate, and the validation upper bound
//   - risk.go: realized-emission distribution of a fixed allocation
//
// run.go wires them into one pipeline; constraints.go verifies allocations
// and explains infeasible parameter sets.
//
// # Architecture
//
// Sub-packages:
//   - saa/linprog/: the LP collaborator interface and a gonum simplex backend
//   - saa/trace/: per-batch outcome recording
//
// # Randomness
//
// All sampling draws from PartitionedRNG streams derived from one RunKey:
// "reference" for the best-estimate sample, "batch_<i>" for lower-bound
// batch i and "validation" for the upper-bound sample. Results are therefore
// identical for any worker count.
package saa
