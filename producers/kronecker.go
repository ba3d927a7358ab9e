package producers

import (
	"math/rand"

	"gonum.org/v1/gonum/graph/simple"

	"github.com/ScottSallinen/parconnect/comm"
	"github.com/ScottSallinen/parconnect/engine"
)

// rmatProbabilities are the Graph500 defaults (spec §6 "Kronecker").
const (
	rmatA = 0.57
	rmatB = 0.19
	rmatC = 0.19
	rmatD = 0.05
)

// Kronecker is the --input kronecker producer (spec §6; scenario S6): a
// Graph500-style RMAT generator. Each rank independently samples its
// share of the globally-requested edge count using a deterministic,
// rank-seeded generator, so no inter-rank communication is needed at
// generation time and the result is not block-balanced here; the
// compactor's samplesort later redistributes the edges by key. Local
// dedup/self-loop avoidance is done with a gonum/v1/gonum/graph/simple
// directed graph, the same way the teacher builds test graphs in
// cmd/lp-sssp/rand-graph.go.
func Kronecker(scale, edgefactor uint) engine.Producer {
	return func(c *comm.Communicator) ([]engine.Edge, error) {
		numVertices := uint64(1) << scale
		totalEdges := numVertices * uint64(edgefactor)
		p := uint64(c.Size)
		quota, extra := totalEdges/p, totalEdges%p
		myCount := quota
		if uint64(c.Rank) < extra {
			myCount++
		}

		rng := rand.New(rand.NewSource(int64(0x2545F4914F6CDD1D) ^ int64(c.Rank)))
		g := simple.NewDirectedGraph()

		edges := make([]engine.Edge, 0, 2*myCount)
		for i := uint64(0); i < myCount; i++ {
			src, dst := rmatSample(rng, scale)
			if src == dst {
				dst = (dst + 1) % numVertices
			}
			from, to := g.Node(int64(src)), g.Node(int64(dst))
			if from != nil && to != nil && g.HasEdgeFromTo(int64(src), int64(dst)) {
				continue
			}
			if from == nil {
				from = simple.Node(int64(src))
				g.AddNode(from)
			}
			if to == nil {
				to = simple.Node(int64(dst))
				g.AddNode(to)
			}
			g.SetEdge(simple.Edge{F: from, T: to})
			edges = append(edges, engine.Edge{Src: src, Dst: dst}, engine.Edge{Src: dst, Dst: src})
		}
		return edges, nil
	}
}

// rmatSample recursively partitions a 2^scale x 2^scale adjacency
// matrix into quadrants weighted (a,b,c,d), descending scale times to
// pick one (src,dst) pair — the standard Graph500 Kronecker generator.
func rmatSample(rng *rand.Rand, scale uint) (src, dst uint64) {
	for level := uint(0); level < scale; level++ {
		quadrant := rng.Float64()
		bit := uint64(1) << (scale - 1 - level)
		switch {
		case quadrant < rmatA:
			// top-left: (0,0)
		case quadrant < rmatA+rmatB:
			dst |= bit
		case quadrant < rmatA+rmatB+rmatC:
			src |= bit
		default:
			src |= bit
			dst |= bit
		}
	}
	return src, dst
}
