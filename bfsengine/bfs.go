// Package bfsengine implements the BFS Peeler (spec §4.4, component
// C4): a sparse-matrix-vector-product frontier expansion over a
// (max,AND) boolean semiring, used to strip one or a few giant
// components out of the graph before handing the remainder to the
// coloring engine.
package bfsengine

import (
	"github.com/ScottSallinen/parconnect/comm"
	"github.com/ScottSallinen/parconnect/config"
	"github.com/ScottSallinen/parconnect/engine"
)

// Matrix is the distributed boolean adjacency: row v's neighbors are
// stored exactly on the rank RowOwner(v) selects. This rewrite picks
// RowOwner = vertexID % p rather than a 2-D block-cyclic layout (spec
// §4.4's "2-D block-cyclic boolean sparse matrix"), a deliberate
// deviation recorded as Open Question 3 in SPEC_FULL.md: it is
// well-defined for any rank count, not only a perfect square.
type Matrix struct {
	Comm     *comm.Communicator
	RowOwner func(uint64) int
	Rows     map[uint64][]uint64
}

type candidate struct {
	V, Val uint64
}

// spmv propagates fringe (vertex -> carried parent-candidate value)
// across one hop of A under the (max,AND) semiring: v enters the
// result if some u in fringe has an edge u->v, with carried value the
// max over all such u's contributions.
func (m *Matrix) spmv(c *comm.Communicator, fringe map[uint64]uint64) map[uint64]uint64 {
	sendTo := make([][]candidate, c.Size)
	for u, val := range fringe {
		for _, v := range m.Rows[u] {
			owner := m.RowOwner(v)
			sendTo[owner] = append(sendTo[owner], candidate{V: v, Val: val})
		}
	}
	recv := comm.AllToAllV(c, sendTo)
	out := make(map[uint64]uint64, len(recv))
	for _, cd := range recv {
		if cur, ok := out[cd.V]; !ok || cd.Val > cur {
			out[cd.V] = cd.Val
		}
	}
	return out
}

// buildMatrix routes every edge to the rank owning its Src and
// deduplicates each row's neighbor list.
func buildMatrix(bus *engine.EdgeBus) *Matrix {
	c := bus.Comm
	rowOwner := func(v uint64) int { return int(v % uint64(c.Size)) }

	sendTo := make([][]engine.Edge, c.Size)
	for _, e := range bus.Edges {
		sendTo[rowOwner(e.Src)] = append(sendTo[rowOwner(e.Src)], e)
	}
	recv := comm.AllToAllV(c, sendTo)

	rows := map[uint64][]uint64{}
	for _, e := range recv {
		rows[e.Src] = append(rows[e.Src], e.Dst)
	}
	for v, nbrs := range rows {
		rows[v] = dedupUint64(nbrs)
	}
	return &Matrix{Comm: c, RowOwner: rowOwner, Rows: rows}
}

func dedupUint64(xs []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(xs))
	out := xs[:0]
	for _, x := range xs {
		if _, ok := seen[x]; !ok {
			seen[x] = struct{}{}
			out = append(out, x)
		}
	}
	return out
}

// Peeler owns one phase's worth of matrix, parent map and unvisited
// set (spec §4.4 "Construction"); all three are keyed by vertex id and
// live only for the phase, matching "memory pressure is bounded
// because parents and A live only during the phase".
type Peeler struct {
	Comm      *comm.Communicator
	Matrix    *Matrix
	Parents   map[uint64]int64
	Unvisited map[uint64]struct{}
	Degree    map[uint64]uint64
}

// NewPeeler builds the adjacency, row-degree totals, and the initial
// unvisited set from bus's current (arbitrary) partitioning.
func NewPeeler(bus *engine.EdgeBus, cfg config.Config) *Peeler {
	m := buildMatrix(bus)
	p := &Peeler{
		Comm:      m.Comm,
		Matrix:    m,
		Parents:   make(map[uint64]int64, len(m.Rows)),
		Unvisited: make(map[uint64]struct{}, len(m.Rows)),
		Degree:    make(map[uint64]uint64, len(m.Rows)),
	}
	for v, nbrs := range m.Rows {
		p.Parents[v] = -1
		p.Unvisited[v] = struct{}{}
		p.Degree[v] = uint64(len(nbrs))
	}
	return p
}

// selectSource implements spec §4.4 "Source selection": each rank
// reports its smallest unvisited id, or the sentinel MaxUint64, and an
// all-reduce min picks the global source.
func (p *Peeler) selectSource() (src uint64, ok bool) {
	const sentinel = ^uint64(0)
	mine := sentinel
	for v := range p.Unvisited {
		if v < mine {
			mine = v
		}
	}
	global := comm.AllReduceMin(p.Comm, mine)
	return global, global != sentinel
}

// RunOneIteration implements spec §4.4 "One iteration" exactly: a
// frontier expansion rooted at the globally-selected source, carrying
// the proposing parent id at every hop, filtered against Unvisited so
// every vertex is claimed by exactly one parent. Returns done=true
// (with visited=0) once every rank's unvisited set is empty.
// edgesTraversed sums Degree over every vertex claimed this iteration
// (spec §6.3's MTEPS figure counts traversed edges, not just visited
// vertices).
func (p *Peeler) RunOneIteration() (visited uint64, edgesTraversed uint64, done bool) {
	c := p.Comm
	src, ok := p.selectSource()
	if !ok {
		return 0, 0, true
	}

	var localVisited, localTraversed uint64
	fringe := map[uint64]uint64{}
	if _, owns := p.Unvisited[src]; owns {
		p.Parents[src] = int64(src)
		delete(p.Unvisited, src)
		localVisited++
		localTraversed += p.Degree[src]
		fringe[src] = src
	}

	for {
		globalSize := comm.AllReduceSum(c, uint64(len(fringe)))
		if globalSize == 0 {
			break
		}
		raw := p.Matrix.spmv(c, fringe)

		// EWiseMult(fringe, parents, invert=true, -1): keep only entries
		// whose parents slot is still unassigned.
		filtered := make(map[uint64]uint64, len(raw))
		for v, val := range raw {
			if _, unvisited := p.Unvisited[v]; unvisited {
				filtered[v] = val
			}
		}
		for v, val := range filtered {
			p.Parents[v] = int64(val)
			delete(p.Unvisited, v)
			localTraversed += p.Degree[v]
		}
		localVisited += uint64(len(filtered))

		// Set numeric values of the next fringe to their own indices,
		// so the following SpMV hop attributes parentage to this hop's
		// vertices rather than the original source.
		next := make(map[uint64]uint64, len(filtered))
		for v := range filtered {
			next[v] = v
		}
		fringe = next
	}

	totalVisited := comm.AllReduceSum(c, localVisited)
	totalTraversed := comm.AllReduceSum(c, localTraversed)
	return totalVisited, totalTraversed, false
}

// FilterEdgeBus shrinks bus to edges whose source is still unvisited
// (spec §4.4 "Edge filtering"). Rather than the sort-and-splitter
// procedure described for a block partition, this routes each edge to
// its Src's RowOwner — the same function Matrix already uses — since
// that rank holds the authoritative Unvisited membership for that
// vertex; this is the edge-filtering analogue of the Matrix's Open
// Question 3 deviation.
func (p *Peeler) FilterEdgeBus(bus *engine.EdgeBus) *engine.EdgeBus {
	c := bus.Comm
	sendTo := make([][]engine.Edge, c.Size)
	for _, e := range bus.Edges {
		owner := p.Matrix.RowOwner(e.Src)
		sendTo[owner] = append(sendTo[owner], e)
	}
	routed := comm.AllToAllV(c, sendTo)

	kept := make([]engine.Edge, 0, len(routed))
	for _, e := range routed {
		if _, stillUnvisited := p.Unvisited[e.Src]; stillUnvisited {
			kept = append(kept, e)
		}
	}
	out := engine.NewEdgeBus(c, kept)
	out.Redistribute()
	return out
}
