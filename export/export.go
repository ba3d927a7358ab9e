// Package export implements the persisted-format utilities named in
// spec §6 as part of the repo's external contract, though out of core
// scope: a per-rank dot fragment and a per-rank binary edge dump, both
// designed to be concatenated in rank order into one valid file.
package export

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ScottSallinen/parconnect/engine"
)

// WriteDot writes this rank's dot fragment (spec §6 "Dot export"): rank
// 0 opens "graph G {", rank worldSize-1 closes "}", and every edge
// (u,v) with u<v is emitted once as "u -- v;" (the other orientation is
// skipped since the bus carries both per invariant E1).
func WriteDot(rank, worldSize int, w io.Writer, edges []engine.Edge) error {
	bw := bufio.NewWriter(w)
	if rank == 0 {
		if _, err := bw.WriteString("graph G {\n"); err != nil {
			return err
		}
	}
	for _, e := range edges {
		if e.Src < e.Dst {
			if _, err := fmt.Fprintf(bw, "%d -- %d;\n", e.Src, e.Dst); err != nil {
				return err
			}
		}
	}
	if rank == worldSize-1 {
		if _, err := bw.WriteString("}\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteBinary writes this rank's binary fragment (spec §6 "Binary
// export"): every u<v edge as a pair of little-endian 64-bit integers.
func WriteBinary(w io.Writer, edges []engine.Edge) error {
	bw := bufio.NewWriter(w)
	var buf [16]byte
	for _, e := range edges {
		if e.Src < e.Dst {
			binary.LittleEndian.PutUint64(buf[0:8], e.Src)
			binary.LittleEndian.PutUint64(buf[8:16], e.Dst)
			if _, err := bw.Write(buf[:]); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}
