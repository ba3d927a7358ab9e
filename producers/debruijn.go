package producers

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ScottSallinen/parconnect/comm"
	"github.com/ScottSallinen/parconnect/engine"
)

// DeBruijn is the --input dbg producer (spec §6): reads a FASTQ file
// restricted to the {A,C,G,T} alphabet and emits an edge between every
// pair of consecutive overlapping k-mers (k=31 default) in each read.
// Supplemented from the original de Bruijn graph builder
// (deBruijnGraphGen.hpp), which delegates the distributed k-mer trie to
// the BLISS library; this rewrite keeps the construction's external
// contract (FASTQ in, k-mer-overlap edges out) but encodes each k-mer
// directly as a packed 2-bits-per-base uint64 (valid for k<=31) and
// canonicalizes it against its reverse complement, rather than
// reproducing BLISS's distributed trie.
func DeBruijn(fastqPath string, k int) engine.Producer {
	if k <= 0 {
		k = 31
	}
	return func(c *comm.Communicator) ([]engine.Edge, error) {
		f, err := os.Open(fastqPath)
		if err != nil {
			return nil, fmt.Errorf("producers: open %s: %w", fastqPath, err)
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("producers: stat %s: %w", fastqPath, err)
		}
		size := info.Size()
		p := int64(c.Size)
		start := int64(c.Rank) * size / p
		end := (int64(c.Rank) + 1) * size / p

		if c.Rank != 0 {
			if _, err := f.Seek(start, io.SeekStart); err != nil {
				return nil, err
			}
			if start, err = alignToRecordStart(f, start); err != nil {
				return nil, err
			}
		}
		if _, err := f.Seek(start, io.SeekStart); err != nil {
			return nil, err
		}

		var edges []engine.Edge
		scanner := bufio.NewScanner(f)
		pos := start
		lineNo := 0
		for scanner.Scan() {
			line := scanner.Text()
			pos += int64(len(line)) + 1
			lineNo++
			if lineNo%4 == 2 {
				edges = append(edges, kmerOverlapEdges(line, k)...)
			}
			if c.Rank != c.Size-1 && pos >= end && lineNo%4 == 0 {
				break
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("producers: read %s: %w", fastqPath, err)
		}
		return edges, nil
	}
}

// alignToRecordStart scans forward to the next "@"-prefixed header line
// that begins a FASTQ record, the record-oriented analogue of Generic's
// single-line boundary fix-up.
func alignToRecordStart(f *os.File, from int64) (int64, error) {
	r := bufio.NewReader(f)
	pos := from
	for {
		line, err := r.ReadString('\n')
		pos += int64(len(line))
		if strings.HasPrefix(line, "@") {
			return pos - int64(len(line)), nil
		}
		if err != nil {
			return pos, nil
		}
	}
}

func kmerOverlapEdges(seq string, k int) []engine.Edge {
	seq = strings.ToUpper(strings.TrimSpace(seq))
	if len(seq) < k+1 {
		return nil
	}
	var edges []engine.Edge
	prev, prevOK := packCanonicalKmer(seq[0:k])
	for i := 1; i+k <= len(seq); i++ {
		cur, curOK := packCanonicalKmer(seq[i : i+k])
		if prevOK && curOK && prev != cur {
			edges = append(edges, engine.Edge{Src: prev, Dst: cur}, engine.Edge{Src: cur, Dst: prev})
		}
		prev, prevOK = cur, curOK
	}
	return edges
}

// packCanonicalKmer 2-bit-packs a k<=31 base sequence restricted to
// {A,C,G,T} and returns the lexicographically smaller of itself and its
// reverse complement, matching the original's lex_less canonicalization.
func packCanonicalKmer(s string) (uint64, bool) {
	var fwd, rev uint64
	for i := 0; i < len(s); i++ {
		b, ok := baseCode(s[i])
		if !ok {
			return 0, false
		}
		fwd = fwd<<2 | uint64(b)
		rev |= uint64(3-b) << uint(2*i)
	}
	if rev < fwd {
		return rev, true
	}
	return fwd, true
}

func baseCode(b byte) (uint64, bool) {
	switch b {
	case 'A':
		return 0, true
	case 'C':
		return 1, true
	case 'G':
		return 2, true
	case 'T':
		return 3, true
	default:
		return 0, false
	}
}
