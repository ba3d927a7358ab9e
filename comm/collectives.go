package comm

import "golang.org/x/exp/constraints"

// Barrier is a pure synchronization point: no data crosses it.
func (c *Communicator) Barrier() {
	c.Exchange(struct{}{})
}

// AllReduceMin returns the minimum of every rank's contribution, visible
// identically to every rank.
func AllReduceMin[T constraints.Ordered](c *Communicator, v T) T {
	all := c.Exchange(v)
	m := all[0].(T)
	for _, x := range all[1:] {
		if xv := x.(T); xv < m {
			m = xv
		}
	}
	return m
}

// AllReduceMax returns the maximum of every rank's contribution.
func AllReduceMax[T constraints.Ordered](c *Communicator, v T) T {
	all := c.Exchange(v)
	m := all[0].(T)
	for _, x := range all[1:] {
		if xv := x.(T); xv > m {
			m = xv
		}
	}
	return m
}

// AllReduceSum returns the sum of every rank's contribution.
func AllReduceSum[T constraints.Integer | constraints.Float](c *Communicator, v T) T {
	all := c.Exchange(v)
	var sum T
	for _, x := range all {
		sum += x.(T)
	}
	return sum
}

// AllReduceAnd returns the logical AND of every rank's contribution,
// used for the coloring engine's global convergence test (spec §4.5
// "Termination").
func AllReduceAnd(c *Communicator, v bool) bool {
	all := c.Exchange(v)
	for _, x := range all {
		if !x.(bool) {
			return false
		}
	}
	return true
}

// ExclusiveScan returns the sum of every lower-ranked contribution
// (spec's "exscan"), used to turn per-rank local counts into per-rank
// base offsets.
func ExclusiveScan[T constraints.Integer](c *Communicator, v T) T {
	all := c.Exchange(v)
	var sum T
	for r := 0; r < c.Rank; r++ {
		sum += all[r].(T)
	}
	return sum
}

// LeftShift reports the value contributed by rank+1 ("the first key on
// the next rank"), used by the compactor's boundary-dedup step and by
// the coloring engine's boundary-aware component count. The highest
// rank has no right neighbour and gets ok=false.
func LeftShift[T any](c *Communicator, v T) (fromRight T, ok bool) {
	all := c.Exchange(v)
	if c.Rank+1 < c.Size {
		return all[c.Rank+1].(T), true
	}
	var zero T
	return zero, false
}

// RightShift is LeftShift's mirror: it reports the value contributed by
// rank-1 ("the last entry on the previous rank"). The lowest rank has no
// left neighbour and gets ok=false.
func RightShift[T any](c *Communicator, v T) (fromLeft T, ok bool) {
	all := c.Exchange(v)
	if c.Rank-1 >= 0 {
		return all[c.Rank-1].(T), true
	}
	var zero T
	return zero, false
}

// GatherV concatenates every rank's slice, in rank order, on root; every
// other rank gets nil.
func GatherV[T any](c *Communicator, v []T, root int) []T {
	all := c.Exchange(v)
	if c.Rank != root {
		return nil
	}
	var out []T
	for _, x := range all {
		out = append(out, x.([]T)...)
	}
	return out
}

// Broadcast distributes root's contribution to every rank. Non-root
// ranks may pass the zero value; it is ignored.
func Broadcast[T any](c *Communicator, v T, root int) T {
	all := c.Exchange(v)
	return all[root].(T)
}

// AllToAllV realizes the "every rank sends a variable-size buffer to
// every other rank" collective: sendTo must have length c.Size, and
// sendTo[r] holds the items this rank is sending to rank r. The
// returned slice is everything sent to this rank, concatenated in
// sender-rank order.
func AllToAllV[T any](c *Communicator, sendTo [][]T) []T {
	if len(sendTo) != c.Size {
		panic("comm: AllToAllV requires one bucket per rank")
	}
	all := c.Exchange(sendTo)
	var recv []T
	for r := 0; r < c.Size; r++ {
		buckets := all[r].([][]T)
		recv = append(recv, buckets[c.Rank]...)
	}
	return recv
}
