// Package profiler implements the Degree Profiler (spec §4.3,
// component C3): a distributed degree histogram, a discrete power-law
// maximum-likelihood fit via L-BFGS, and the resulting
// Kolmogorov-Smirnov decision of whether the BFS peeler is worth
// running.
package profiler

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/optimize"

	"github.com/ScottSallinen/parconnect/comm"
	"github.com/ScottSallinen/parconnect/engine"
)

// boundaryGroup carries one rank's first or last local src-group (which
// may be incomplete, split across a rank boundary) to rank 0 for
// merging, per spec §4.3 "Handle the first and last local bucket
// specially".
type boundaryGroup struct {
	Src  uint64
	Dsts []uint64
}

// Profile sorts bus by (Src,Dst), computes the per-source out-degree as
// the count of unique Dst values, fits a discrete power law to the
// resulting histogram, and returns the RunBFS decision (spec §4.3
// "Decision rule"): RunBFS = D < threshold.
func Profile(bus *engine.EdgeBus, threshold float64) (runBFS bool, ksStat float64) {
	c := bus.Comm
	bus.SortBySrcDst()
	edges := bus.Edges

	groupStart := make([]int, 0, len(edges)+1)
	for i := range edges {
		if i == 0 || edges[i].Src != edges[i-1].Src {
			groupStart = append(groupStart, i)
		}
	}
	groupStart = append(groupStart, len(edges))
	numGroups := len(groupStart) - 1

	var interiorDegrees []uint64
	var boundaries []boundaryGroup
	for gi := 0; gi < numGroups; gi++ {
		s, e := groupStart[gi], groupStart[gi+1]
		dsts := make([]uint64, e-s)
		for i := s; i < e; i++ {
			dsts[i-s] = edges[i].Dst
		}
		unique := dedupSorted(dsts)
		// Only the first and last local group can possibly straddle a
		// rank boundary; every group strictly between them is complete
		// by construction (the bus is globally sorted by Src).
		if gi == 0 || gi == numGroups-1 {
			boundaries = append(boundaries, boundaryGroup{Src: edges[s].Src, Dsts: unique})
		} else {
			interiorDegrees = append(interiorDegrees, uint64(len(unique)))
		}
	}

	allInterior := comm.GatherV(c, interiorDegrees, 0)
	allBoundary := comm.GatherV(c, boundaries, 0)

	var d float64
	if c.Rank == 0 {
		merged := map[uint64]map[uint64]struct{}{}
		for _, bg := range allBoundary {
			set, ok := merged[bg.Src]
			if !ok {
				set = map[uint64]struct{}{}
				merged[bg.Src] = set
			}
			for _, dst := range bg.Dsts {
				set[dst] = struct{}{}
			}
		}
		degrees := make([]uint64, 0, len(allInterior)+len(merged))
		degrees = append(degrees, allInterior...)
		for _, set := range merged {
			degrees = append(degrees, uint64(len(set)))
		}

		hist := map[uint64]uint64{}
		for _, deg := range degrees {
			hist[deg]++
		}
		// Pad each bin by +1 for numerical stability (spec §4.3).
		for k := range hist {
			hist[k]++
		}

		alpha, xmin := fitPowerLaw(hist)
		d = ksStatistic(hist, alpha, xmin)
	}
	d = comm.Broadcast(c, d, 0)
	return d < threshold, d
}

func dedupSorted(dsts []uint64) []uint64 {
	if len(dsts) == 0 {
		return nil
	}
	out := dsts[:1]
	for _, v := range dsts[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

// fitPowerLaw maximizes the discrete power-law log-likelihood
// (no finite-size correction, no p-value estimation, per spec §4.3)
// over the exponent alpha via gonum's L-BFGS, holding xmin fixed at the
// smallest observed degree. The likelihood and its finite-difference
// gradient are expressed with the Hurwitz zeta function
// (gonum.org/v1/gonum/mathext.Zeta), since the discrete power law's
// normalizing constant is zeta(alpha, xmin).
func fitPowerLaw(hist map[uint64]uint64) (alpha, xmin float64) {
	xmin = math.MaxFloat64
	for x := range hist {
		if xf := float64(x); xf < xmin {
			xmin = xf
		}
	}
	if xmin < 1 {
		xmin = 1
	}

	var n, sumLog float64
	for x, cnt := range hist {
		xf := float64(x)
		if xf < xmin {
			continue
		}
		n += float64(cnt)
		sumLog += float64(cnt) * math.Log(xf)
	}
	if n == 0 {
		return 2.0, xmin
	}

	negLogLikelihood := func(p []float64) float64 {
		a := p[0]
		if a <= 1.0001 {
			return math.Inf(1)
		}
		z := mathext.Zeta(a, xmin)
		if z <= 0 || math.IsNaN(z) {
			return math.Inf(1)
		}
		return n*math.Log(z) + a*sumLog
	}

	problem := optimize.Problem{
		Func: negLogLikelihood,
		Grad: func(grad, p []float64) {
			const h = 1e-6
			f1 := negLogLikelihood([]float64{p[0] + h})
			f0 := negLogLikelihood([]float64{p[0] - h})
			grad[0] = (f1 - f0) / (2 * h)
		},
	}

	result, err := optimize.Minimize(problem, []float64{2.5}, nil, &optimize.LBFGS{})
	if err != nil || result == nil || math.IsInf(result.F, 1) {
		// Fall back to the Clauset-Shalizi-Newman closed-form discrete
		// MLE approximation when the L-BFGS search (started at 2.5)
		// fails.
		return 1 + n/(sumLog-n*math.Log(xmin-0.5)), xmin
	}
	return result.X[0], xmin
}

// ksStatistic computes the sup-norm distance between the empirical CDF
// of degrees >= xmin and the fitted discrete power-law CDF.
func ksStatistic(hist map[uint64]uint64, alpha, xmin float64) float64 {
	var xs []uint64
	var total uint64
	for x, cnt := range hist {
		if float64(x) >= xmin {
			xs = append(xs, x)
			total += cnt
		}
	}
	if total == 0 {
		return 1
	}
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })

	zXmin := mathext.Zeta(alpha, xmin)
	var cum uint64
	var maxD float64
	for _, x := range xs {
		cum += hist[x]
		empCDF := float64(cum) / float64(total)
		fitCDF := 1 - mathext.Zeta(alpha, float64(x)+1)/zXmin
		if d := math.Abs(empCDF - fitCDF); d > maxD {
			maxD = d
		}
	}
	return maxD
}
