package pipeline

import "errors"

var (
	errZeroSizeGraph          = errors.New("pipeline: graph has zero vertices after compaction")
	errComponentCountOverflow = errors.New("pipeline: component count accumulator overflowed")
	errRoundCeilingExceeded   = errors.New("pipeline: coloring did not converge within the round ceiling")
)
