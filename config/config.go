// Package config holds the runtime-enum knobs that the original source
// encoded as compile-time template parameters (spec §9 "Optimization
// knobs as runtime enum"): the coloring engine's rebalancing strategy,
// whether pointer doubling is enabled, the BFS iteration budget, and the
// degree profiler's Kolmogorov-Smirnov decision threshold. They are
// grouped into one tagged-variant record that is passed explicitly to
// each component; the coloring engine reads its two knobs on every
// Round call.
package config

import "fmt"

// OptimizationLevel selects the coloring engine's active-suffix
// bookkeeping strategy for spec §4.5 step 5 ("Rebalancing").
type OptimizationLevel int

const (
	// Naive never moves stable (Pn == MAX_PID) tuples out of Active, so
	// every round reprocesses the whole growing active set, exactly as
	// the reference implementation's opt_level::naive does.
	Naive OptimizationLevel = iota
	// StablePartitionRemoved moves stable tuples out of Active for good
	// each round, compacting each rank's local active slice in place, but
	// does not redistribute across ranks.
	StablePartitionRemoved
	// LoadBalanced additionally block-redistributes the active suffix
	// across ranks every round, per spec §4.5 step 5.
	LoadBalanced
)

func (o OptimizationLevel) String() string {
	switch o {
	case Naive:
		return "naive"
	case StablePartitionRemoved:
		return "stable_partition_removed"
	case LoadBalanced:
		return "loadbalanced"
	default:
		return fmt.Sprintf("optimization(%d)", int(o))
	}
}

// ParseOptimizationLevel maps the CLI's spelling onto an OptimizationLevel.
func ParseOptimizationLevel(s string) (OptimizationLevel, error) {
	switch s {
	case "naive":
		return Naive, nil
	case "stable", "stable_partition_removed":
		return StablePartitionRemoved, nil
	case "loadbalanced":
		return LoadBalanced, nil
	default:
		return Naive, fmt.Errorf("config: unknown optimization level %q", s)
	}
}

// Config is the tagged-variant record every core component receives
// instead of touching global mutable state (spec §9).
type Config struct {
	// Optimization is the coloring engine's rebalancing strategy.
	Optimization OptimizationLevel
	// PointerDoubling enables the UNION-FIND-style path-halving round
	// described in spec §4.5 step 3.
	PointerDoubling bool
	// RunBFSThreshold is the Kolmogorov-Smirnov statistic cutoff below
	// which the degree profiler recommends the BFS peeler (spec §4.3);
	// a magic constant with no cross-validation in the source, kept as
	// a tunable default of 0.05.
	RunBFSThreshold float64
	// MaxBFSIterations bounds how many giant components the BFS peeler
	// will remove before handing the remainder to coloring. The source
	// runs "one (or few)" iterations; 0 means no bound: the orchestrator
	// keeps peeling until no unvisited vertex is left or the filtered
	// edge bus is empty. The profiler is not consulted again.
	MaxBFSIterations int
	// PermutationSeed seeds the compactor's Thomas-Wang-style bijective
	// hash (spec §4.2 "Permute"); fixed by default so runs are
	// deterministic (spec §8 invariant 6).
	PermutationSeed uint64
	// RoundCeiling guards against non-convergence (spec §7.5); the
	// coloring engine is only ever supposed to terminate by
	// convergence, so hitting this is a bug, not a normal outcome.
	RoundCeiling int
}

// Default returns the engine's default configuration.
func Default() Config {
	return Config{
		Optimization:     LoadBalanced,
		PointerDoubling:  true,
		RunBFSThreshold:  0.05,
		MaxBFSIterations: 1,
		PermutationSeed:  0x9e3779b97f4a7c15,
		RoundCeiling:     100000,
	}
}
