package comm

import "sort"

// SampleSort distributes items so that every rank's local slice, when
// concatenated in rank order, is fully sorted by less: pick p-1 global
// splitters by sampling, bucketize locally, all-to-all the buckets, then
// sort what arrives (glossary "Samplesort"). Used by the Edge Bus's
// SortBy, the compactor's two passes, the degree profiler, and the
// coloring engine's per-round (node,Pc)/(Pc,Pn) sorts.
func SampleSort[T any](c *Communicator, items []T, less func(a, b T) bool) []T {
	local := make([]T, len(items))
	copy(local, items)
	sort.Slice(local, func(i, j int) bool { return less(local[i], local[j]) })

	if c.Size == 1 {
		return local
	}

	// Sample every rank's local order and gather the samples to rank 0,
	// which picks p-1 evenly-spaced splitters from the pooled, sorted
	// sample set.
	const oversample = 8
	samples := sampleEvenly(local, oversample)
	pooled := GatherV(c, samples, 0)

	var splitters []T
	if c.Rank == 0 {
		sort.Slice(pooled, func(i, j int) bool { return less(pooled[i], pooled[j]) })
		splitters = pickSplitters(pooled, c.Size-1, less)
	}
	splitters = Broadcast(c, splitters, 0)
	if len(splitters) == 0 {
		// The pooled sample set was empty, so every rank's input was
		// empty: there is nothing to exchange.
		return local
	}

	buckets := bucketize(local, splitters, less)
	recv := AllToAllV(c, buckets)
	sort.Slice(recv, func(i, j int) bool { return less(recv[i], recv[j]) })
	return recv
}

func sampleEvenly[T any](sorted []T, count int) []T {
	if len(sorted) == 0 || count <= 0 {
		return nil
	}
	if count >= len(sorted) {
		out := make([]T, len(sorted))
		copy(out, sorted)
		return out
	}
	out := make([]T, count)
	stride := float64(len(sorted)) / float64(count)
	for i := 0; i < count; i++ {
		out[i] = sorted[int(float64(i)*stride)]
	}
	return out
}

// pickSplitters chooses n evenly-spaced values from a sorted pool to act
// as the p-1 global bucket boundaries.
func pickSplitters[T any](pool []T, n int, less func(a, b T) bool) []T {
	if len(pool) == 0 || n <= 0 {
		return nil
	}
	out := make([]T, 0, n)
	stride := float64(len(pool)) / float64(n+1)
	for i := 1; i <= n; i++ {
		idx := int(float64(i) * stride)
		if idx >= len(pool) {
			idx = len(pool) - 1
		}
		out = append(out, pool[idx])
	}
	return out
}

// bucketize splits a locally-sorted slice into len(splitters)+1 buckets
// using binary search against the global splitters, so that everything
// in bucket b sorts before everything in bucket b+1.
func bucketize[T any](sorted []T, splitters []T, less func(a, b T) bool) [][]T {
	buckets := make([][]T, len(splitters)+1)
	for _, item := range sorted {
		b := sort.Search(len(splitters), func(i int) bool { return less(item, splitters[i]) })
		buckets[b] = append(buckets[b], item)
	}
	return buckets
}
