package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// === SimulationKey ===

// SimulationKey uniquely identifies a reproducible simulation run.
// Two runs with the same SimulationKey and identical configuration
// MUST produce bit-for-bit identical realizations.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// === Subsystem Names ===

const (
	// StreamPath drives the random path permutation, head/tail coin flips and the
	// category draws of one realization.
	StreamPath = "path"

	// StreamHyper drives the Bayesian hyperparameter draws of one realization.
	StreamHyper = "hyper"
)

// SubsystemRealization returns the subsystem name of a stream of realization i.
func SubsystemRealization(i int, stream string) string {
	return fmt.Sprintf("realization_%d/%s", i, stream)
}

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation formula: masterSeed XOR fnv1a64(subsystemName).
// A realization's streams depend only on (seed, realization index), so the worker
// that runs it and the number of threads do not change its result.
//
// Thread-safety: NOT thread-safe. Each worker owns its own PartitionedRNG.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
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
	rng := rand.New(rand.NewSource(int64(p.key) ^ fnv1a64(name)))
	p.subsystems[name] = rng
	return rng
}

// ForRealization returns the named stream of realization i.
func (p *PartitionedRNG) ForRealization(i int, stream string) *rand.Rand {
	return p.ForSubsystem(SubsystemRealization(i, stream))
}

// Release drops the cached streams of realization i once it is finished.
func (p *PartitionedRNG) Release(i int) {
	delete(p.subsystems, SubsystemRealization(i, StreamPath))
	delete(p.subsystems, SubsystemRealization(i, StreamHyper))
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
