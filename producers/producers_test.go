package producers

import (
	"context"
	"os"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ScottSallinen/parconnect/comm"
	"github.com/ScottSallinen/parconnect/engine"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "producer-*.txt")
	require.NoError(t, err)
	_, err = f.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}

func TestGenericReadsAllEdgesAcrossRanks(t *testing.T) {
	var b strings.Builder
	b.WriteString("% a comment line\n")
	for i := 1; i <= 500; i++ {
		b.WriteString(strconv.Itoa(i))
		b.WriteString(" ")
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString("\n")
	}
	path := writeTempFile(t, b.String())

	const p = 4
	producer := Generic(path)
	var totalLocal [p]int
	err := comm.RunRanks(context.Background(), p, func(ctx context.Context, c *comm.Communicator) error {
		edges, err := producer(c)
		if err != nil {
			return err
		}
		totalLocal[c.Rank] = len(edges)
		return nil
	})
	require.NoError(t, err)

	total := 0
	for _, n := range totalLocal {
		total += n
	}
	require.Equal(t, 500*2, total) // both orientations
}

func TestChainBuildsExactPath(t *testing.T) {
	const p = 3
	const length = 100
	producer := Chain(length)
	var totalLocal [p]int
	err := comm.RunRanks(context.Background(), p, func(ctx context.Context, c *comm.Communicator) error {
		edges, err := producer(c)
		require.NoError(t, err)
		for _, e := range edges {
			require.Less(t, uint64(0), e.Src)
			require.LessOrEqual(t, e.Src, uint64(length))
		}
		totalLocal[c.Rank] = len(edges)
		return nil
	})
	require.NoError(t, err)
	total := 0
	for _, n := range totalLocal {
		total += n
	}
	require.Equal(t, (length-1)*2, total)
}

// TestGenericFileRoundTripMatchesExactByteOrder is scenario S5 (spec
// §8, grounded on
// _examples/original_source/test/test_graphgen.cpp's graphFileIO case):
// a file holding the directed chain 1-2-...-1201, read with the
// reverse-edge addition Generic always applies, must gather to exactly
// 2400 edges, and sorting that gathered set by (Src,Dst) must place the
// forward edge (i+1,i+2) at every even index and the reverse edge
// (i+2,i+1) at every odd index, for 0 <= i < 1200.
func TestGenericFileRoundTripMatchesExactByteOrder(t *testing.T) {
	var b strings.Builder
	for i := 1; i < 1201; i++ {
		b.WriteString(strconv.Itoa(i))
		b.WriteString(" ")
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString("\n")
	}
	path := writeTempFile(t, b.String())

	const p = 3
	producer := Generic(path)
	var gathered []engine.Edge
	err := comm.RunRanks(context.Background(), p, func(ctx context.Context, c *comm.Communicator) error {
		edges, err := producer(c)
		if err != nil {
			return err
		}
		all := comm.GatherV(c, edges, 0)
		if c.Rank == 0 {
			gathered = all
		}
		return nil
	})
	require.NoError(t, err)

	require.Len(t, gathered, 2400)

	sort.Slice(gathered, func(i, j int) bool {
		if gathered[i].Src != gathered[j].Src {
			return gathered[i].Src < gathered[j].Src
		}
		return gathered[i].Dst < gathered[j].Dst
	})

	for i := 0; i < 1200; i++ {
		fwd := gathered[2*i]
		rev := gathered[2*i+1]
		require.Equal(t, engine.Edge{Src: uint64(i + 1), Dst: uint64(i + 2)}, fwd, "forward edge at index %d", 2*i)
		require.Equal(t, engine.Edge{Src: uint64(i + 2), Dst: uint64(i + 1)}, rev, "reverse edge at index %d", 2*i+1)
	}
}

func TestKroneckerStaysWithinRequestedEdgeCount(t *testing.T) {
	const p = 2
	const scale, edgefactor = uint(6), uint(4)
	producer := Kronecker(scale, edgefactor)
	var totalLocal [p]int
	err := comm.RunRanks(context.Background(), p, func(ctx context.Context, c *comm.Communicator) error {
		edges, err := producer(c)
		require.NoError(t, err)
		for _, e := range edges {
			require.Less(t, e.Src, uint64(1)<<scale)
			require.Less(t, e.Dst, uint64(1)<<scale)
		}
		totalLocal[c.Rank] = len(edges)
		return nil
	})
	require.NoError(t, err)
	total := 0
	for _, n := range totalLocal {
		total += n
	}
	// Each accepted RMAT sample emits both orientations.
	require.LessOrEqual(t, total, int((uint64(1)<<scale)*uint64(edgefactor))*2)
	require.Greater(t, total, 0)
}

func TestDeBruijnCanonicalizesKmerOverlaps(t *testing.T) {
	fastq := "@read1\n" +
		"ACGTACGTACGTACGTACGTACGTACGTACGTA\n" +
		"+\n" +
		"IIIIIIIIIIIIIIIIIIIIIIIIIIIIIIIII\n"
	path := writeTempFile(t, fastq)

	producer := DeBruijn(path, 31)
	comms := comm.World(1)
	edges, err := producer(comms[0])
	require.NoError(t, err)
	require.NotEmpty(t, edges)
	for _, e := range edges {
		require.NotEqual(t, e.Src, e.Dst)
	}
}

func TestPackCanonicalKmerReturnsSameFormForReverseComplement(t *testing.T) {
	seq := "ACGTACGGTTAC"
	fwd, ok := packCanonicalKmer(seq)
	require.True(t, ok)
	rev, ok := packCanonicalKmer(reverseComplement(seq))
	require.True(t, ok)
	require.Equal(t, fwd, rev)

	_, ok = packCanonicalKmer("ACGTN")
	require.False(t, ok)
}

func reverseComplement(s string) string {
	comp := map[byte]byte{'A': 'T', 'C': 'G', 'G': 'C', 'T': 'A'}
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		out[len(s)-1-i] = comp[s[i]]
	}
	return string(out)
}
