package utils

import (
	"sort"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/constraints"
)

func Max[T constraints.Ordered](x, y T) T {
	if x < y {
		return y
	}
	return x
}

func Min[T constraints.Ordered](x, y T) T {
	if y < x {
		return y
	}
	return x
}

func MaxSlice[T constraints.Ordered](slice []T) T {
	max := slice[0]
	for i := range slice {
		max = Max(max, slice[i])
	}
	return max
}

func MinSlice[T constraints.Ordered](slice []T) T {
	min := slice[0]
	for i := range slice {
		min = Min(min, slice[i])
	}
	return min
}

func Median[T constraints.Integer | constraints.Float](n []T) T {
	return Percentile(n, 50)
}

func Percentile[T constraints.Integer | constraints.Float](n []T, percentile int, reverse ...bool) T {
	if len(n) == 0 {
		log.Warn().Msg("WARNING: Percentile called on empty slice")
		return 0
	}
	if len(n) == 1 {
		return n[0]
	}

	copyN := make([]T, len(n))
	copy(copyN, n)

	if reverse != nil && reverse[0] {
		sort.Slice(copyN, func(i, j int) bool { return copyN[i] > copyN[j] })
	} else {
		sort.Slice(copyN, func(i, j int) bool { return copyN[i] < copyN[j] })
	}
	idx := int(((float64(percentile) / 100.0) * float64(len(copyN))))
	if len(copyN)%2 == 0 || idx == 0 { // even number of elements, or the we are targeting the first element
		return copyN[idx]
	} else if copyN[idx-1] == copyN[idx] {
		return copyN[idx] // Just for the silly case where value is two max ints, don't add... TODO: overflow check.
	}
	return (copyN[idx-1] + copyN[idx]) / 2
}
