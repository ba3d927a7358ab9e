// Package producers implements the edge-producer contract (spec §6):
// callables invoked once per rank at startup to obtain that rank's
// local slice of the block-distributed edge bag. None of this is core
// scope; the engine only ever depends on engine.Producer's signature.
package producers

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ScottSallinen/parconnect/comm"
	"github.com/ScottSallinen/parconnect/engine"
)

// Generic reads a whitespace-separated edge-list text file, skipping
// lines starting with '%' (spec §6; note this differs from the
// teacher's '#'-comment convention — the spec's '%' is authoritative,
// per SPEC_FULL.md's Open Question 1). Every rank opens the same file
// and decodes a disjoint byte range of it ("parallel byte-range
// decoding with boundary fix-up"): rank r reads
// [r*size/p, (r+1)*size/p), plus a bounded overlap past the end to
// complete a possibly-truncated final line, and drops a leading
// partial line by scanning to the first newline at or after the byte
// just before its start offset, so a range that begins exactly on a
// line boundary keeps that line (rank 0's range always starts at
// offset 0, a line boundary).
func Generic(path string) engine.Producer {
	return func(c *comm.Communicator) ([]engine.Edge, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("producers: open %s: %w", path, err)
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("producers: stat %s: %w", path, err)
		}
		size := info.Size()
		p := int64(c.Size)
		start := int64(c.Rank) * size / p
		end := (int64(c.Rank) + 1) * size / p

		if start > 0 {
			if _, err := f.Seek(start-1, io.SeekStart); err != nil {
				return nil, fmt.Errorf("producers: seek %s: %w", path, err)
			}
			r := bufio.NewReader(f)
			skipped, err := r.ReadString('\n')
			if err != nil && err != io.EOF {
				return nil, fmt.Errorf("producers: skip partial line in %s: %w", path, err)
			}
			start = start - 1 + int64(len(skipped))
		}
		if start >= end && c.Rank != c.Size-1 {
			return nil, nil
		}

		if _, err := f.Seek(start, io.SeekStart); err != nil {
			return nil, fmt.Errorf("producers: seek %s: %w", path, err)
		}
		scanner := bufio.NewScanner(f)
		var edges []engine.Edge
		for pos := start; scanner.Scan(); {
			line := scanner.Text()
			pos += int64(len(line)) + 1
			if !strings.HasPrefix(line, "%") && strings.TrimSpace(line) != "" {
				e, ok, err := parseEdgeLine(line)
				if err != nil {
					return nil, fmt.Errorf("producers: %s: %w", path, err)
				}
				if ok {
					edges = append(edges, e, engine.Edge{Src: e.Dst, Dst: e.Src})
				}
			}
			if c.Rank != c.Size-1 && pos >= end {
				break
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("producers: read %s: %w", path, err)
		}
		return edges, nil
	}
}

func parseEdgeLine(line string) (engine.Edge, bool, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return engine.Edge{}, false, nil
	}
	src, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return engine.Edge{}, false, fmt.Errorf("bad src %q: %w", fields[0], err)
	}
	dst, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return engine.Edge{}, false, fmt.Errorf("bad dst %q: %w", fields[1], err)
	}
	return engine.Edge{Src: src, Dst: dst}, true, nil
}
