package units

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApdhsr_CurveMatchesScenario(t *testing.T) {
	g := newTestGraph(t, 44100, 10)
	ref, err := g.Add(NewApdhsr("env", ApdhsrParams{
		Attack: 2, Decay: 2, Hold: 2, Release: 2, Peak: 1, Sustain: 0.5,
	}))
	require.NoError(t, err)
	outRef, err := g.Add(NewOutput("out"))
	require.NoError(t, err)
	require.NoError(t, g.Connect(ref, outRef, 0))
	require.NoError(t, g.Reschedule())

	unit, ok := g.Unit(ref)
	require.True(t, ok)
	ApdhsrHandle(unit).Start(0)

	out := [][]float32{make([]float32, 10)}
	g.Run(0, nil, out)

	want := []float32{0, 0.5, 1, 0.75, 0.5, 0.5, 0.5, 0.25, 0, 0}
	for i, w := range want {
		require.InDeltaf(t, w, out[0][i], 1e-6, "sample %d", i)
	}
}

func TestApdhsr_SilentBeforeStart(t *testing.T) {
	g := newTestGraph(t, 44100, 4)
	ref, err := g.Add(NewApdhsr("env", ApdhsrParams{Attack: 4, Decay: 4, Peak: 1}))
	require.NoError(t, err)
	outRef, err := g.Add(NewOutput("out"))
	require.NoError(t, err)
	require.NoError(t, g.Connect(ref, outRef, 0))
	require.NoError(t, g.Reschedule())

	out := [][]float32{make([]float32, 4)}
	g.Run(0, nil, out)
	for _, v := range out[0] {
		require.Zero(t, v)
	}
}
