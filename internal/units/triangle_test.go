package units

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTriangle_PeakAndTrough(t *testing.T) {
	g := newTestGraph(t, 4, 4)
	ref, err := g.Add(NewTriangle("tri", 1))
	require.NoError(t, err)
	outRef, err := g.Add(NewOutput("out"))
	require.NoError(t, err)
	require.NoError(t, g.Connect(ref, outRef, 0))
	require.NoError(t, g.Reschedule())

	out := [][]float32{make([]float32, 4)}
	g.Run(0, nil, out)

	// v is evaluated at phase 0, 0.25, 0.5, 0.75 (pre-increment each sample)
	want := []float32{1, 0, -1, 0}
	for i, w := range want {
		require.InDeltaf(t, w, out[0][i], 1e-6, "sample %d", i)
	}
}
