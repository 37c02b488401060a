package units

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClampDuty(t *testing.T) {
	require.Greater(t, clampDuty(-1), float32(0))
	require.Less(t, clampDuty(2), float32(1))
	require.InDelta(t, 0.5, clampDuty(0.5), 1e-6)
}

func TestSquare_StaysWithinUnitRangeAwayFromEdges(t *testing.T) {
	g := newTestGraph(t, 44100, 64)
	ref, err := g.Add(NewSquare("sq", 220, 0.5))
	require.NoError(t, err)
	outRef, err := g.Add(NewOutput("out"))
	require.NoError(t, err)
	require.NoError(t, g.Connect(ref, outRef, 0))
	require.NoError(t, g.Reschedule())

	out := [][]float32{make([]float32, 64)}
	g.Run(0, nil, out)

	for i, v := range out[0] {
		require.LessOrEqualf(t, v, float32(1.2), "sample %d too high: %v", i, v)
		require.GreaterOrEqualf(t, v, float32(-1.2), "sample %d too low: %v", i, v)
	}
}

func TestSquare_ZeroFrequencySilent(t *testing.T) {
	g := newTestGraph(t, 44100, 16)
	ref, err := g.Add(NewSquare("sq", 0, 0.5))
	require.NoError(t, err)
	outRef, err := g.Add(NewOutput("out"))
	require.NoError(t, err)
	require.NoError(t, g.Connect(ref, outRef, 0))
	require.NoError(t, g.Reschedule())

	out := [][]float32{make([]float32, 16)}
	g.Run(0, nil, out)

	for _, v := range out[0] {
		require.Zero(t, v)
	}
}

func TestPolyBlep_ZeroOutsideEdges(t *testing.T) {
	require.Zero(t, polyBlep(0.5, 0.01))
}
