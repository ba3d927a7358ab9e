// Package telemetry implements spec §6's optional operator-facing
// progress and timing output: one stdout line per pipeline event from
// rank 0, and a timing summary on stderr at the end of a run. Grounded
// on the teacher's utils/logging.go zerolog console-writer setup for
// the stdout/stderr split, mathutils.Watch for phase timing (the same
// pause/resume stopwatch the teacher's cmd/lp-* binaries used), and
// utils.MinSlice/Median/MaxSlice for the per-round active-tuple
// distribution.
package telemetry

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/ScottSallinen/parconnect/mathutils"
	"github.com/ScottSallinen/parconnect/utils"
)

// phaseTiming records one named phase's elapsed time once it is closed.
type phaseTiming struct {
	name    string
	elapsed float64 // seconds
}

// roundTelemetry records the coloring engine's active-tuple count for
// one round, sourced by the caller from len(bag.Active) after each
// Round call.
type roundTelemetry struct {
	round  int
	active int
}

// Recorder accumulates per-run telemetry and prints it the way the
// teacher's cmd/lp-* binaries do: progress lines to stdout as events
// happen, and a final timing dump to stderr. Only rank 0 ever writes;
// every other rank's Recorder records the same events but stays silent,
// so callers don't need to guard every call with "if rank == 0".
type Recorder struct {
	rank int

	watch    mathutils.Watch
	phases   []phaseTiming
	current  string
	rounds   []roundTelemetry
	bfsIters int
	bfsVerts uint64
	bfsEdges uint64

	out *zerolog.Logger
	err *zerolog.Logger
}

// NewRecorder builds a Recorder for the given rank. Non-zero ranks
// still track phase timings internally (useful if a caller wants to
// inspect them programmatically) but never print, since spec §6's
// progress output is defined as a rank-0 responsibility.
func NewRecorder(rank int) *Recorder {
	stdout := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, NoColor: false}).With().Timestamp().Logger()
	stderr := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: false}).With().Timestamp().Logger()
	return &Recorder{rank: rank, out: &stdout, err: &stderr}
}

// BeginPhase starts (or restarts) the stopwatch for a named pipeline
// stage: "produce", "permute", "compact", "profile", "bfs", "coloring".
// A nil Recorder is a silent no-op, so callers on ranks that don't own
// the shared Recorder (every rank but 0) can pass nil unconditionally.
func (r *Recorder) BeginPhase(name string) {
	if r == nil {
		return
	}
	if r.current != "" {
		r.EndPhase()
	}
	r.current = name
	r.watch.Start()
	if r.rank == 0 {
		r.out.Info().Str("phase", name).Msg("phase started")
	}
}

// EndPhase closes the currently open phase and records its elapsed time.
func (r *Recorder) EndPhase() {
	if r == nil || r.current == "" {
		return
	}
	elapsed := r.watch.Elapsed().Seconds()
	r.phases = append(r.phases, phaseTiming{name: r.current, elapsed: elapsed})
	if r.rank == 0 {
		r.out.Info().Str("phase", r.current).Float64("seconds", elapsed).Msg("phase finished")
	}
	r.current = ""
}

// BFSIteration reports one completed BFS peeler iteration: the number
// of vertices it visited, the number of edges it traversed to do so,
// and the elapsed wall time, used to derive an MTEPS (millions of
// traversed edges per second) figure the way the teacher's cmd/lp-*
// timing output does.
func (r *Recorder) BFSIteration(iteration int, visited uint64, edgesTraversed uint64, elapsed float64) {
	if r == nil {
		return
	}
	r.bfsIters++
	r.bfsVerts += visited
	r.bfsEdges += edgesTraversed
	if r.rank == 0 {
		mteps := 0.0
		if elapsed > 0 {
			mteps = float64(edgesTraversed) / elapsed / 1e6
		}
		r.out.Info().
			Int("iteration", iteration).
			Uint64("visited", visited).
			Uint64("edges_traversed", edgesTraversed).
			Float64("mteps", mteps).
			Msg("bfs iteration")
	}
}

// ColoringRound records one coloring round's local active-tuple count.
// Callers pass len(bag.Active) as measured on their own rank; the
// Recorder does not reach across ranks to gather a global figure since
// spec §6's telemetry contract is best-effort and per-rank noise is
// expected.
func (r *Recorder) ColoringRound(round int, activeLocal int) {
	if r == nil {
		return
	}
	r.rounds = append(r.rounds, roundTelemetry{round: round, active: activeLocal})
	if r.rank == 0 {
		r.out.Info().Int("round", round).Int("active", activeLocal).Msg("coloring round")
	}
}

// Finish prints the final component count and, on stderr, the timing
// and per-round summary (spec §6: "stderr receives a final timing
// section dump").
func (r *Recorder) Finish(componentCount uint64, bfsIterations int) {
	if r == nil || r.rank != 0 {
		return
	}
	r.out.Info().
		Uint64("components", componentCount).
		Int("bfs_iterations", bfsIterations).
		Msg("run finished")

	for _, p := range r.phases {
		r.err.Info().Str("phase", p.name).Float64("seconds", p.elapsed).Msg("timing")
	}
	if len(r.rounds) > 0 {
		counts := make([]int, len(r.rounds))
		sum := 0
		for i, rt := range r.rounds {
			counts[i] = rt.active
			sum += rt.active
		}
		r.err.Info().
			Int("rounds", len(r.rounds)).
			Int("min_active", utils.MinSlice(counts)).
			Float64("mean_active", float64(sum)/float64(len(counts))).
			Int("median_active", utils.Median(counts)).
			Int("max_active", utils.MaxSlice(counts)).
			Msg("coloring round summary")
	}
	if r.bfsIters > 0 {
		r.err.Info().
			Int("bfs_iterations", r.bfsIters).
			Uint64("bfs_vertices_visited", r.bfsVerts).
			Uint64("bfs_edges_traversed", r.bfsEdges).
			Msg("bfs summary")
	}
}

// String renders a short human-readable summary line (phase, round and
// BFS-iteration counts) for callers that want the outcome without the
// logger's own output. A nil Recorder renders as the zero-value summary
// rather than panicking.
func (r *Recorder) String() string {
	if r == nil {
		return "phases=0 rounds=0 bfs_iterations=0"
	}
	return fmt.Sprintf("phases=%d rounds=%d bfs_iterations=%d", len(r.phases), len(r.rounds), r.bfsIters)
}
