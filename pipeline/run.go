// Package pipeline wires the Edge Bus, Id Permuter & Compactor, Degree
// Profiler, BFS Peeler and Coloring Engine into the single Run entry
// point (spec §2 "Control flow"). It lives apart from engine because it
// depends on every other core package, while they all depend on engine
// for Edge/EdgeBus/Result — putting Run in engine itself would be an
// import cycle.
package pipeline

import (
	"context"

	"github.com/ScottSallinen/parconnect/bfsengine"
	"github.com/ScottSallinen/parconnect/coloring"
	"github.com/ScottSallinen/parconnect/comm"
	"github.com/ScottSallinen/parconnect/compact"
	"github.com/ScottSallinen/parconnect/config"
	"github.com/ScottSallinen/parconnect/engine"
	"github.com/ScottSallinen/parconnect/mathutils"
	"github.com/ScottSallinen/parconnect/profiler"
	"github.com/ScottSallinen/parconnect/telemetry"
)

// Run wires the whole pipeline together (spec §2 "Control flow"): the
// Id Permuter & Compactor (C2), the Degree Profiler (C3), the BFS Peeler
// (C4, only if the profiler recommends it), and the Coloring Engine
// (C5), returning the final component count as a Result. rec receives a
// BeginPhase/EndPhase pair around every stage, a BFSIteration call per
// C4 iteration and a ColoringRound call per C5 round (spec §6.3); rec
// may be nil, in which case every call is a no-op — callers only need a
// live Recorder on the rank that will print it.
func Run(ctx context.Context, c *comm.Communicator, producer engine.Producer, cfg config.Config, rec *telemetry.Recorder) engine.Result {
	rec.BeginPhase("produce")
	bus, err := engine.Produce(c, producer)
	rec.EndPhase()
	if err != nil {
		return engine.InputError(err)
	}
	if bus.GlobalSize() == 0 {
		return engine.InputError(errZeroSizeGraph)
	}

	rec.BeginPhase("permute")
	compact.Permute(bus, cfg.PermutationSeed)
	rec.EndPhase()

	rec.BeginPhase("compact")
	numVertices := compact.Compact(bus)
	rec.EndPhase()
	if numVertices == 0 {
		return engine.InputError(errZeroSizeGraph)
	}

	rec.BeginPhase("profile")
	runBFS, _ := profiler.Profile(bus, cfg.RunBFSThreshold)
	rec.EndPhase()

	var bfsIterations int
	if runBFS {
		rec.BeginPhase("bfs")
		peeler := bfsengine.NewPeeler(bus, cfg)
		max := cfg.MaxBFSIterations
		for max <= 0 || bfsIterations < max {
			var iterWatch mathutils.Watch
			iterWatch.Start()
			visited, edgesTraversed, done := peeler.RunOneIteration()
			elapsed := iterWatch.Elapsed().Seconds()
			if done {
				break
			}
			rec.BFSIteration(bfsIterations, visited, edgesTraversed, elapsed)
			bfsIterations++
			bus = peeler.FilterEdgeBus(bus)
			if bus.GlobalSize() == 0 {
				break
			}
		}
		rec.EndPhase()
	}

	rec.BeginPhase("coloring")
	bag := coloring.NewBag(bus)
	for round := 0; round < cfg.RoundCeiling; round++ {
		converged := bag.Round(cfg)
		rec.ColoringRound(round, len(bag.Active))
		if converged {
			rec.EndPhase()
			count, overflow := bag.ComponentCount()
			if overflow {
				return engine.Overflow(errComponentCountOverflow)
			}
			// spec §2 "Control flow": the final component count is the
			// number of C4 iterations actually executed (each peels
			// exactly one giant component) plus whatever C5 reports for
			// the residue.
			total := count + uint64(bfsIterations)
			if total < count {
				return engine.Overflow(errComponentCountOverflow)
			}
			return engine.ComponentCount(total, bfsIterations)
		}
	}
	rec.EndPhase()
	return engine.OperatorError(errRoundCeilingExceeded)
}
