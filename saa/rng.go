package saa

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
)

// === RunKey ===

// RunKey uniquely identifies a reproducible SAA run.
// Two runs with the same RunKey and identical configuration MUST produce
// bit-for-bit identical results, regardless of worker count.
type RunKey int64

// NewRunKey creates a RunKey from a seed value.
func NewRunKey(seed int64) RunKey {
	return RunKey(seed)
}

// RandomRunKey draws a fresh key from the runtime's entropy source. Callers
// should log it so the run can be replayed with --seed.
func RandomRunKey() RunKey {
	return RunKey(rand.Int64())
}

// === Subsystem Constants ===

const (
	// SubsystemReference draws the best-estimate scenario sample.
	SubsystemReference = "reference"

	// SubsystemValidation draws the out-of-sample batch used for the upper bound.
	SubsystemValidation = "validation"
)

// SubsystemBatch returns the subsystem name for lower-bound batch i.
// Each batch owns its stream so batches can run on any goroutine.
func SubsystemBatch(i int) string {
	return fmt.Sprintf("batch_%d", i)
}

// pcgStream is the fixed PCG increment; the seed alone selects the stream.
const pcgStream = 0x9e3779b97f4a7c15

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation formula: masterSeed XOR fnv1a64(subsystemName), fed to a PCG
// source.
//
// Thread-safety: NOT thread-safe. Derive every stream on one goroutine, then
// hand each *rand.Rand to exactly one worker.
type PartitionedRNG struct {
	key        RunKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a RunKey.
func NewPartitionedRNG(key RunKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	derivedSeed := int64(p.key) ^ fnv1a64(name)
	rng := rand.New(rand.NewPCG(uint64(derivedSeed), pcgStream))
	p.subsystems[name] = rng
	return rng
}

// Key returns the RunKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() RunKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
