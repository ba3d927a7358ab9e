// Package engine holds the Edge Bus (spec §4.1), the Producer contract
// and the public Result sum type. The top-level orchestration that wires
// the compactor, profiler, BFS peeler and coloring engine together lives
// in package pipeline.
package engine

import (
	"github.com/ScottSallinen/parconnect/comm"
)

// Edge is one directed endpoint pair. Invariant E1 (spec §3): for every
// (u,v) present in a bus, (v,u) is also present somewhere in the
// distributed bag; producers are expected to emit both orientations of
// every undirected edge.
type Edge struct {
	Src uint64
	Dst uint64
}

// EdgeBus is the block-partitioned, in-memory distributed sequence of
// edges described in spec §4.1: rank r owns a contiguous slice, sizes
// differing by at most one (invariant E2).
type EdgeBus struct {
	Comm  *comm.Communicator
	Edges []Edge
}

// NewEdgeBus wraps a rank's local edge slice with the communicator it
// will use for collectives; callers are expected to have already
// block-partitioned edges externally (a fresh producer, or the previous
// phase's output).
func NewEdgeBus(c *comm.Communicator, edges []Edge) *EdgeBus {
	return &EdgeBus{Comm: c, Edges: edges}
}

// GlobalSize returns the total edge count across every rank.
func (b *EdgeBus) GlobalSize() uint64 {
	return comm.AllReduceSum(b.Comm, uint64(len(b.Edges)))
}

// Redistribute block-balances the bus in place: every rank ends up with
// floor(total/p) or ceil(total/p) edges, contiguous in the bus's current
// order, matching invariant E2.
func (b *EdgeBus) Redistribute() {
	b.Edges = redistributeSlice(b.Comm, b.Edges)
}

// RedistributeSlice is the generic block-balance primitive shared by the
// Edge Bus and the coloring engine's tuple bag: it treats the ranks'
// slices, concatenated in rank order, as one logical sequence and
// reassigns contiguous target ranges of size floor(n/p) or ceil(n/p).
func RedistributeSlice[T any](c *comm.Communicator, local []T) []T {
	return redistributeSlice(c, local)
}

func redistributeSlice[T any](c *comm.Communicator, local []T) []T {
	n := uint64(len(local))
	total := comm.AllReduceSum(c, n)
	base := comm.ExclusiveScan(c, n)

	p := uint64(c.Size)
	if total == 0 {
		return local[:0]
	}
	quota, extra := total/p, total%p
	targetStart := func(rank uint64) uint64 {
		if rank <= extra {
			return rank * (quota + 1)
		}
		return extra*(quota+1) + (rank-extra)*quota
	}
	myStart := targetStart(uint64(c.Rank))
	myEnd := targetStart(uint64(c.Rank) + 1)

	// Every rank sends the slice of its local items whose global
	// position falls in another rank's target range.
	sendTo := make([][]T, c.Size)
	for i, item := range local {
		gpos := base + uint64(i)
		owner := ownerOfPosition(gpos, p, quota, extra, targetStart)
		sendTo[owner] = append(sendTo[owner], item)
	}
	recv := comm.AllToAllV(c, sendTo)
	_ = myStart
	_ = myEnd
	return recv
}

func ownerOfPosition(pos, p, quota, extra uint64, targetStart func(uint64) uint64) int {
	// Binary search over ranks for the owner of global position pos.
	lo, hi := uint64(0), p-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if targetStart(mid) <= pos {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return int(lo)
}

// SortBy sorts the whole distributed bus so that concatenating every
// rank's slice, in rank order, is globally sorted by key.
func (b *EdgeBus) SortBy(key func(Edge) uint64) {
	b.Edges = comm.SampleSort(b.Comm, b.Edges, func(a, c Edge) bool { return key(a) < key(c) })
}

// SortBySrcDst sorts by the composite key (Src,Dst), used by the degree
// profiler.
func (b *EdgeBus) SortBySrcDst() {
	b.Edges = comm.SampleSort(b.Comm, b.Edges, func(a, c Edge) bool {
		if a.Src != c.Src {
			return a.Src < c.Src
		}
		return a.Dst < c.Dst
	})
}

// BidirectionalCheck is test-only (spec §4.1): it verifies invariant E1
// by sorting under both layer orders and checking, pairwise after a
// flip, that (u,v) present implies (v,u) present.
func (b *EdgeBus) BidirectionalCheck() bool {
	forward := comm.SampleSort(b.Comm, b.Edges, func(a, c Edge) bool {
		if a.Src != c.Src {
			return a.Src < c.Src
		}
		return a.Dst < c.Dst
	})
	flipped := make([]Edge, len(b.Edges))
	for i, e := range b.Edges {
		flipped[i] = Edge{Src: e.Dst, Dst: e.Src}
	}
	reverse := comm.SampleSort(b.Comm, flipped, func(a, c Edge) bool {
		if a.Src != c.Src {
			return a.Src < c.Src
		}
		return a.Dst < c.Dst
	})
	gForward := comm.GatherV(b.Comm, forward, 0)
	gReverse := comm.GatherV(b.Comm, reverse, 0)
	ok := true
	if b.Comm.Rank == 0 {
		if len(gForward) != len(gReverse) {
			ok = false
		} else {
			for i := range gForward {
				if gForward[i] != gReverse[i] {
					ok = false
					break
				}
			}
		}
	}
	return comm.Broadcast(b.Comm, ok, 0)
}
