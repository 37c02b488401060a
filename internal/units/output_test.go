package units

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOutput_SumsMultipleInputs(t *testing.T) {
	g := newTestGraph(t, 44100, 2)
	a, err := g.Add(NewRamp("a", RampParams{From: 1, To: 1, Duration: 1}))
	require.NoError(t, err)
	b, err := g.Add(NewRamp("b", RampParams{From: 2, To: 2, Duration: 1}))
	require.NoError(t, err)
	outRef, err := g.Add(NewOutput("out"))
	require.NoError(t, err)

	require.NoError(t, g.Connect(a, outRef, 0))
	require.NoError(t, g.Connect(b, outRef, 0))
	require.NoError(t, g.Reschedule())

	unitA, _ := g.Unit(a)
	unitB, _ := g.Unit(b)
	RampHandle(unitA).Trigger(0)
	RampHandle(unitB).Trigger(0)

	out := [][]float32{make([]float32, 2)}
	g.Run(0, nil, out)
	for _, v := range out[0] {
		require.InDelta(t, 3, v, 1e-6)
	}
}

func TestOutput_EmptyGraphWritesZeros(t *testing.T) {
	g := newTestGraph(t, 44100, 4)
	out := [][]float32{make([]float32, 4), make([]float32, 4)}
	for i := range out[0] {
		out[0][i], out[1][i] = 1, 1
	}
	g.Run(0, nil, out)
	for _, ch := range out {
		for _, v := range ch {
			require.Zero(t, v)
		}
	}
}
