package producers

import (
	"github.com/ScottSallinen/parconnect/comm"
	"github.com/ScottSallinen/parconnect/engine"
)

// Chain is the --chainLength producer (spec §6; scenario S1): the
// bidirectional path 1-2-...-length, block-divided across ranks so
// every rank builds only its own share with no inter-rank
// communication.
func Chain(length uint64) engine.Producer {
	return func(c *comm.Communicator) ([]engine.Edge, error) {
		if length == 0 {
			return nil, nil
		}
		p := uint64(c.Size)
		numEdges := length - 1 // vertices 1..length, edges (i,i+1) for 1<=i<length
		quota, extra := numEdges/p, numEdges%p
		start := uint64(c.Rank) * quota
		if uint64(c.Rank) < extra {
			start += uint64(c.Rank)
		} else {
			start += extra
		}
		count := quota
		if uint64(c.Rank) < extra {
			count++
		}

		edges := make([]engine.Edge, 0, 2*count)
		for k := uint64(0); k < count; k++ {
			i := 1 + start + k
			edges = append(edges, engine.Edge{Src: i, Dst: i + 1}, engine.Edge{Src: i + 1, Dst: i})
		}
		return edges, nil
	}
}
