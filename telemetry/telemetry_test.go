package telemetry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecorderTracksPhaseAndRoundCounts(t *testing.T) {
	r := NewRecorder(0)
	r.BeginPhase("produce")
	r.EndPhase()
	r.BeginPhase("compact")
	r.BeginPhase("profile") // implicitly ends "compact"
	r.EndPhase()

	r.ColoringRound(0, 40)
	r.ColoringRound(1, 12)
	r.BFSIteration(0, 100, 250, 0.5)

	require.Equal(t, "phases=3 rounds=2 bfs_iterations=1", r.String())
}

func TestNilRecorderIsANoOp(t *testing.T) {
	var r *Recorder
	r.BeginPhase("produce")
	r.EndPhase()
	r.ColoringRound(0, 5)
	r.BFSIteration(0, 10, 20, 0.1)
	r.Finish(1, 0)

	require.Equal(t, "phases=0 rounds=0 bfs_iterations=0", r.String())
}

func TestRecorderOnNonZeroRankStillTracksInternally(t *testing.T) {
	r := NewRecorder(1)
	r.BeginPhase("produce")
	r.EndPhase()
	r.ColoringRound(0, 5)
	r.Finish(3, 1) // must not panic even though this rank never prints

	require.Equal(t, "phases=1 rounds=1 bfs_iterations=0", r.String())
}

func TestFinishHandlesNoRoundsOrBFS(t *testing.T) {
	r := NewRecorder(0)
	r.BeginPhase("produce")
	r.EndPhase()
	r.Finish(1, 0)
	require.Equal(t, "phases=1 rounds=0 bfs_iterations=0", r.String())
}
