// Package comm implements the bulk-synchronous "communicator": a fixed
// set of logical ranks, coordinated by named collectives, running as
// goroutines rather than as separate OS processes, rendezvousing on
// channel-backed barriers instead of a real network transport.
//
// This mirrors the message-queue-per-worker pattern already used
// elsewhere in this codebase (one channel per graph thread) but repurposes
// it for a rank-parallel, edge-partitioned engine: every public entry
// point in engine/compact/profiler/bfsengine/coloring takes a
// *Communicator explicitly instead of touching package-level state.
package comm

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// hub is the shared rendezvous point for one communicator's ranks. Every
// named collective is built out of one "exchange": each rank deposits a
// contribution into its own slot, all ranks cross an entry barrier (so
// every slot is guaranteed written), every rank takes a private snapshot
// of the whole slot array, and all ranks cross an exit barrier before the
// slots are reused by the next collective call.
type hub struct {
	size  int
	entry *cyclicBarrier
	exit  *cyclicBarrier
	slots []any
}

func newHub(size int) *hub {
	return &hub{
		size:  size,
		entry: newCyclicBarrier(size),
		exit:  newCyclicBarrier(size),
		slots: make([]any, size),
	}
}

// Communicator is one rank's view of the world: its own index, the total
// rank count, and the shared hub used to realize collectives. A
// Communicator is owned exclusively by the code running on that rank; no
// other rank ever touches another rank's Communicator value directly —
// only the shared hub is common state, and it is only ever touched
// through Exchange, which is safe for concurrent per-rank use by
// construction (each rank only writes its own slot).
type Communicator struct {
	Rank int
	Size int
	h    *hub
}

// World builds Size Communicators sharing one hub, indexed by rank. This
// is the in-process analogue of an MPI_COMM_WORLD split across p
// processes.
func World(size int) []*Communicator {
	if size <= 0 {
		panic("comm: world size must be positive")
	}
	h := newHub(size)
	out := make([]*Communicator, size)
	for r := 0; r < size; r++ {
		out[r] = &Communicator{Rank: r, Size: size, h: h}
	}
	return out
}

// Exchange deposits contribution into this rank's slot and returns a
// snapshot of every rank's contribution, in rank order. It is the single
// primitive every collective in this package (AllReduce, AllToAllV,
// ExclusiveScan, LeftShift, GatherV, Broadcast, Barrier, SampleSort) is
// built from.
func (c *Communicator) Exchange(contribution any) []any {
	c.h.slots[c.Rank] = contribution
	c.h.entry.Wait()
	snapshot := make([]any, c.h.size)
	copy(snapshot, c.h.slots)
	c.h.exit.Wait()
	return snapshot
}

// WithSubset runs fn on a fresh Communicator scoped to only the ranks
// where predicate is true, matching spec's "with_subset(predicate)"
// nested-scope rule: collectives inside fn are over the subset only, and
// the subset is discarded when fn returns. Every rank in the parent
// scope — including those with predicate false — must call WithSubset,
// so that the membership collective below always completes; ranks with
// predicate false simply never invoke fn.
func (c *Communicator) WithSubset(ctx context.Context, predicate bool, fn func(sub *Communicator) error) error {
	members := c.Exchange(predicate)
	// Assign subset ranks by ascending parent-rank order, identically
	// computed by every parent rank from the same membership snapshot.
	subRank, subSize, leader := -1, 0, -1
	for r, m := range members {
		if m.(bool) {
			if leader == -1 {
				leader = r
			}
			if r == c.Rank {
				subRank = subSize
			}
			subSize++
		}
	}
	// The lowest-ranked member allocates the subset's hub and every
	// rank in the parent scope (member or not) round-trips it through
	// one more Exchange, so every member ends up sharing the same one.
	var mine *hub
	if predicate && c.Rank == leader {
		mine = newHub(subSize)
	}
	hubs := c.Exchange(mine)
	if !predicate || subSize == 0 {
		return nil
	}
	sub := &Communicator{Rank: subRank, Size: subSize, h: hubs[leader].(*hub)}
	return fn(sub)
}

// RunRanks runs body once per rank of a p-rank world, joined by an
// errgroup: the first rank to return a non-nil error cancels every
// other rank's context and the whole call aborts, matching "a failed
// collective is fatal; the process group aborts" (spec §5, §7.3).
func RunRanks(ctx context.Context, size int, body func(ctx context.Context, c *Communicator) error) error {
	comms := World(size)
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range comms {
		c := c
		g.Go(func() error {
			if err := body(gctx, c); err != nil {
				return fmt.Errorf("rank %d: %w", c.Rank, err)
			}
			return nil
		})
	}
	return g.Wait()
}
