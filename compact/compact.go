package compact

import (
	"github.com/ScottSallinen/parconnect/comm"
	"github.com/ScottSallinen/parconnect/engine"
)

// boundaryKey is shifted between neighbouring ranks so each rank can
// tell whether its last local key continues onto the next rank's first
// local key (spec §4.2 step 3, "boundary dedup").
type boundaryKey struct {
	hasAny bool
	key    uint64
}

// Compact remaps the set of distinct ids appearing in bus's edges onto a
// dense [0,|V|) range, without ever materializing a global vertex table
// (spec §4.2 "Compact"). It runs the two symmetric passes — once keyed
// on Dst, once on Src — and returns the resulting |V|.
//
// Idempotent: running Compact twice on the same graph is the identity on
// the second run, because the ids are already dense (spec §8 invariant
// 7) — exercised directly in compact_test.go.
func Compact(bus *engine.EdgeBus) (numVertices uint64) {
	numVertices = compactLayer(bus, func(e engine.Edge) uint64 { return e.Dst }, func(e *engine.Edge, v uint64) { e.Dst = v })
	compactLayer(bus, func(e engine.Edge) uint64 { return e.Src }, func(e *engine.Edge, v uint64) { e.Src = v })
	return numVertices
}

// compactLayer implements spec §4.2 steps 1-5 for one endpoint layer.
func compactLayer(bus *engine.EdgeBus, get func(engine.Edge) uint64, set func(*engine.Edge, uint64)) uint64 {
	c := bus.Comm

	// 1. Samplesort edges by the chosen layer.
	sorted := comm.SampleSort(c, bus.Edges, func(a, b engine.Edge) bool { return get(a) < get(b) })

	// 2. Scan the local run: each maximal run of equal keys is one
	// logical vertex, assigned a raw local group index counted from 0.
	groupOf := make([]uint64, len(sorted))
	rawUnique := uint64(0)
	if len(sorted) > 0 {
		rawUnique = 1
		groupOf[0] = 0
		for i := 1; i < len(sorted); i++ {
			if get(sorted[i]) != get(sorted[i-1]) {
				rawUnique++
			}
			groupOf[i] = rawUnique - 1
		}
	}

	// 3. Deduct one from the local unique count if the first key on the
	// next rank equals the last key here (boundary dedup, via a
	// left-shift of the first key).
	var mine boundaryKey
	if len(sorted) > 0 {
		mine = boundaryKey{hasAny: true, key: get(sorted[0])}
	}
	next, hasRight := comm.LeftShift(c, mine)
	straddles := len(sorted) > 0 && hasRight && next.hasAny && next.key == get(sorted[len(sorted)-1])

	adjustedUnique := rawUnique
	if straddles {
		adjustedUnique--
	}

	// 4. Exclusive-scan the adjusted local counts to obtain each rank's
	// base index.
	base := comm.ExclusiveScan(c, adjustedUnique)

	// 5. Rewrite the chosen layer of every edge to base + k. Using the
	// *raw* (unadjusted) group index here is what makes this correct
	// even for the straddling group: on this rank, the straddling
	// group's raw index is rawUnique-1 = adjustedUnique, so its
	// rewritten value is base+adjustedUnique, i.e. exactly the base of
	// the next rank — which independently computes the very same value
	// for its own first (raw index 0) group of the same key.
	for i := range sorted {
		set(&sorted[i], base+groupOf[i])
	}

	bus.Edges = sorted
	return comm.AllReduceSum(c, adjustedUnique)
}
