// Package coloring implements the Coloring Engine (spec §4.5, component
// C5): a distributed label-propagation algorithm over (Pc,Pn,Node)
// tuples, with optional UNION-FIND-style pointer doubling, that drives
// every vertex's partition id Pc down to a per-component representative.
package coloring

import (
	"sort"

	"github.com/ScottSallinen/parconnect/comm"
	"github.com/ScottSallinen/parconnect/config"
	"github.com/ScottSallinen/parconnect/engine"
)

const (
	// MaxPID marks a tuple's Pc/Pn as "nothing smaller has been found" —
	// for Pn, partition-stable forever; it also tags a pointer-doubling
	// request tuple's Pc before it is flipped.
	MaxPID = ^uint64(0)
	// MaxPID2 marks a bucket as merely stable *this round* (distinct from
	// MaxPID's "stable forever"), per spec §4.5 step 1.
	MaxPID2 = MaxPID - 1
	// MaxNID tags a flipped pointer-doubling request tuple so it can be
	// found and deleted at the end of the round (spec §4.5 step 3).
	MaxNID = ^uint64(0)
)

// Tuple is one (Pc,Pn,Node) record: Pc is the vertex's current
// provisional component label, Node is the original edge's destination
// endpoint this tuple represents, and Pn is the in-flight "next label"
// computed each round from Node's neighborhood.
type Tuple struct {
	Pc, Pn, Node uint64
}

// Bag is the distributed tuple bag: Active still participates in
// rounds, Stable has been moved out of them for good (spec §4.5 step 4
// "Partitioning").
type Bag struct {
	Comm           *comm.Communicator
	Active, Stable []Tuple
}

// NewBag builds the initial tuple bag from bus (spec §4.5 "Tuple
// initialization"): sort by Src, emit (u, MAX_PID, v) per edge,
// block-redistribute.
func NewBag(bus *engine.EdgeBus) *Bag {
	bus.SortBy(func(e engine.Edge) uint64 { return e.Src })
	tuples := make([]Tuple, len(bus.Edges))
	for i, e := range bus.Edges {
		tuples[i] = Tuple{Pc: e.Src, Pn: MaxPID, Node: e.Dst}
	}
	return &Bag{
		Comm:   bus.Comm,
		Active: engine.RedistributeSlice(bus.Comm, tuples),
	}
}

// boundaryReport carries one rank's first or last local run (grouped by
// key) to rank 0 for merging, the same shape as compact's boundaryKey
// but carrying a min/max pair instead of a presence flag, since a
// coloring bucket's true global extremes may come from a rank other
// than the one asking.
type boundaryReport struct {
	Key      uint64
	Min, Max uint64
}

// resolveBoundaries scans sorted (already globally sorted by keyOf) for
// its local runs, and for the first and last run only — the only ones
// that can possibly straddle a rank boundary, since every run strictly
// between them is complete by construction — reports (key,min,max) of
// valOf to rank 0, which merges same-key reports from every rank and
// broadcasts the result back. Returns the local run boundaries alongside
// the resolved map, so the caller can apply interior runs' min/max
// directly and only consult the map for the first/last run.
func resolveBoundaries(c *comm.Communicator, sorted []Tuple, keyOf, valOf func(Tuple) uint64) (runStart []int, resolved map[uint64][2]uint64) {
	n := len(sorted)
	starts := make([]int, 0, n+1)
	for i := 0; i < n; i++ {
		if i == 0 || keyOf(sorted[i]) != keyOf(sorted[i-1]) {
			starts = append(starts, i)
		}
	}
	starts = append(starts, n)
	numRuns := len(starts) - 1

	var reports []boundaryReport
	for ri := 0; ri < numRuns; ri++ {
		if ri != 0 && ri != numRuns-1 {
			continue
		}
		s, e := starts[ri], starts[ri+1]
		mn, mx := valOf(sorted[s]), valOf(sorted[s])
		for i := s + 1; i < e; i++ {
			if v := valOf(sorted[i]); v < mn {
				mn = v
			} else if v > mx {
				mx = v
			}
		}
		reports = append(reports, boundaryReport{Key: keyOf(sorted[s]), Min: mn, Max: mx})
	}

	gathered := comm.GatherV(c, reports, 0)
	merged := map[uint64][2]uint64{}
	if c.Rank == 0 {
		for _, r := range gathered {
			cur, ok := merged[r.Key]
			if !ok {
				merged[r.Key] = [2]uint64{r.Min, r.Max}
				continue
			}
			mn, mx := cur[0], cur[1]
			if r.Min < mn {
				mn = r.Min
			}
			if r.Max > mx {
				mx = r.Max
			}
			merged[r.Key] = [2]uint64{mn, mx}
		}
	}
	merged = comm.Broadcast(c, merged, 0)
	return starts, merged
}

// pnUpdate implements spec §4.5 step 1.
func (b *Bag) pnUpdate() {
	c := b.Comm
	b.Active = comm.SampleSort(c, b.Active, func(a, x Tuple) bool {
		if a.Node != x.Node {
			return a.Node < x.Node
		}
		return a.Pc < x.Pc
	})

	starts, boundary := resolveBoundaries(c, b.Active, func(t Tuple) uint64 { return t.Node }, func(t Tuple) uint64 { return t.Pc })
	numRuns := len(starts) - 1
	for ri := 0; ri < numRuns; ri++ {
		s, e := starts[ri], starts[ri+1]
		node := b.Active[s].Node
		var minPc, maxPc uint64
		if ri == 0 || ri == numRuns-1 {
			mm := boundary[node]
			minPc, maxPc = mm[0], mm[1]
		} else {
			// Interior run: Pc is the secondary sort key, so the local
			// extremes are already the global ones.
			minPc, maxPc = b.Active[s].Pc, b.Active[e-1].Pc
		}
		m := minPc
		if node < m {
			m = node
		}
		newPn := MaxPID2
		if m < maxPc {
			newPn = m
		}
		for i := s; i < e; i++ {
			b.Active[i].Pn = newPn
		}
	}
}

// pcUpdate implements spec §4.5 step 2. It returns whether any tuple's
// Pc was rewritten, and the deduplicated set of new Pc values assigned
// to buckets that remain active (fed to pointer doubling).
func (b *Bag) pcUpdate() (wroteAny bool, activePcs []uint64) {
	c := b.Comm
	b.Active = comm.SampleSort(c, b.Active, func(a, x Tuple) bool {
		if a.Pc != x.Pc {
			return a.Pc < x.Pc
		}
		return a.Pn < x.Pn
	})

	starts, boundary := resolveBoundaries(c, b.Active, func(t Tuple) uint64 { return t.Pc }, func(t Tuple) uint64 { return t.Pn })
	numRuns := len(starts) - 1
	for ri := 0; ri < numRuns; ri++ {
		s, e := starts[ri], starts[ri+1]
		pc := b.Active[s].Pc
		var minPn uint64
		if ri == 0 || ri == numRuns-1 {
			minPn = boundary[pc][0]
		} else {
			minPn = b.Active[s].Pn
		}
		if minPn < MaxPID2 {
			for i := s; i < e; i++ {
				b.Active[i].Pc = minPn
			}
			wroteAny = true
			activePcs = append(activePcs, minPn)
		} else {
			for i := s; i < e; i++ {
				b.Active[i].Pn = MaxPID
			}
		}
	}
	return wroteAny, dedupUint64(activePcs)
}

// pointerDouble implements spec §4.5 step 3: one parent-request tuple
// per non-stable bucket, a pnUpdate rerun to discover the current
// minimum label reachable from each requested vertex, a "flip" that
// makes each request look like an ordinary tuple of its requested Pc
// bucket, a pcUpdate rerun that folds the discovery into that bucket,
// and deletion of the (now MAX_NID-tagged) request tuples.
func (b *Bag) pointerDouble(activePcs []uint64) (wroteAny bool) {
	requests := make([]Tuple, len(activePcs))
	for i, pc := range activePcs {
		requests[i] = Tuple{Pc: MaxPID, Pn: MaxPID, Node: pc}
	}
	b.Active = append(b.Active, requests...)

	b.pnUpdate()

	for i := range b.Active {
		if b.Active[i].Pc == MaxPID {
			b.Active[i].Pc = b.Active[i].Node
			b.Active[i].Node = MaxNID
		}
	}

	wroteAny, _ = b.pcUpdate()

	kept := b.Active[:0]
	for _, t := range b.Active {
		if t.Node != MaxNID {
			kept = append(kept, t)
		}
	}
	b.Active = kept
	return wroteAny
}

// partition implements spec §4.5 step 4: stable tuples (Pn == MAX_PID)
// move out of Active for good.
func (b *Bag) partition() {
	active := b.Active[:0]
	var stable []Tuple
	for _, t := range b.Active {
		if t.Pn == MaxPID {
			stable = append(stable, t)
		} else {
			active = append(active, t)
		}
	}
	b.Active = active
	b.Stable = append(b.Stable, stable...)
}

// Round runs one full coloring round (spec §4.5 steps 1-5) and reports
// whether this rank's activity, AND-reduced across every rank, means the
// whole bag has converged.
func (b *Bag) Round(cfg config.Config) (converged bool) {
	c := b.Comm

	b.pnUpdate()
	wrote, activePcs := b.pcUpdate()

	if cfg.PointerDoubling {
		wroteDoubling := b.pointerDouble(activePcs)
		wrote = wrote || wroteDoubling
	}

	// Naive never partitions active tuples out to stable, so it keeps
	// reprocessing the whole growing active set every round; only
	// StablePartitionRemoved and LoadBalanced move Pn==MAX_PID tuples out
	// of Active for good (spec §4.5 step 5, opt_level::naive vs.
	// opt_level::stable_partition_removed in the reference).
	if cfg.Optimization != config.Naive {
		b.partition()
		if cfg.Optimization == config.LoadBalanced {
			b.Active = engine.RedistributeSlice(c, b.Active)
		}
	}

	return comm.AllReduceAnd(c, !wrote)
}

// ComponentCount implements spec §4.5 "Component count": sort by Pc,
// count unique values globally with a boundary-aware skip, and detect
// accumulator overflow explicitly (spec §7.4).
func (b *Bag) ComponentCount() (count uint64, overflow bool) {
	c := b.Comm
	all := make([]Tuple, 0, len(b.Stable)+len(b.Active))
	all = append(all, b.Stable...)
	all = append(all, b.Active...)
	sorted := comm.SampleSort(c, all, func(a, x Tuple) bool { return a.Pc < x.Pc })

	var local uint64
	if len(sorted) > 0 {
		local = 1
		for i := 1; i < len(sorted); i++ {
			if sorted[i].Pc != sorted[i-1].Pc {
				local++
			}
		}
	}

	type boundaryKey struct {
		HasAny bool
		Key    uint64
	}
	var mine boundaryKey
	if len(sorted) > 0 {
		mine = boundaryKey{HasAny: true, Key: sorted[0].Pc}
	}
	next, hasRight := comm.LeftShift(c, mine)
	if len(sorted) > 0 && hasRight && next.HasAny && next.Key == sorted[len(sorted)-1].Pc {
		local--
	}

	counts := comm.GatherV(c, []uint64{local}, 0)
	var total uint64
	if c.Rank == 0 {
		for _, v := range counts {
			next := total + v
			if next < total {
				overflow = true
			}
			total = next
		}
	}
	total = comm.Broadcast(c, total, 0)
	overflow = comm.Broadcast(c, overflow, 0)
	return total, overflow
}

func dedupUint64(xs []uint64) []uint64 {
	if len(xs) == 0 {
		return xs
	}
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	out := xs[:0]
	for i, x := range xs {
		if i == 0 || x != out[len(out)-1] {
			out = append(out, x)
		}
	}
	return out
}
