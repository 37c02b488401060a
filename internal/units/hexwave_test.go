package units

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/FabianRolfMatthiasNoll/signalgraph/internal/graphcore"
)

func TestHexwave_RunsWithoutNaNAndStaysBounded(t *testing.T) {
	g := newTestGraph(t, 44100, 64)
	ref, err := g.Add(NewHexwave("hw", HexwaveParams{
		Frequency: 220, PeakTime: 0.3, HalfHeight: 0.1, ZeroWait: 0.05,
	}))
	require.NoError(t, err)
	outRef, err := g.Add(NewOutput("out"))
	require.NoError(t, err)
	require.NoError(t, g.Connect(ref, outRef, 0))
	require.NoError(t, g.Reschedule())

	out := [][]float32{make([]float32, 64)}
	for block := 0; block < 20; block++ {
		g.Run(int64(block*64), nil, out)
		for i, v := range out[0] {
			require.Falsef(t, math.IsNaN(float64(v)), "NaN at block %d sample %d", block, i)
			require.LessOrEqualf(t, v, float32(2), "sample too high at block %d[%d]: %v", block, i, v)
			require.GreaterOrEqualf(t, v, float32(-2), "sample too low at block %d[%d]: %v", block, i, v)
		}
	}
}

func TestHexwave_SetShapeStagesPendingChange(t *testing.T) {
	g := newTestGraph(t, 44100, 64)
	ref, err := g.Add(NewHexwave("hw", HexwaveParams{Frequency: 100, PeakTime: 0.3, HalfHeight: 0, ZeroWait: 0}))
	require.NoError(t, err)
	outRef, err := g.Add(NewOutput("out"))
	require.NoError(t, err)
	require.NoError(t, g.Connect(ref, outRef, 0))
	require.NoError(t, g.Reschedule())

	unit, ok := g.Unit(ref)
	require.True(t, ok)
	handle := HexwaveHandle(unit)
	handle.SetShape(true, 0.4, 0.2, 0.1)

	st := graphcore.StateOf[hexwaveState](unit)
	require.True(t, st.hasPending)
	require.InDelta(t, 0.4, st.pendingPeakTime, 1e-6)
}

func TestHexwave_ZeroFrequencyDrainsCarryThenSilent(t *testing.T) {
	g := newTestGraph(t, 44100, 8)
	ref, err := g.Add(NewHexwave("hw", HexwaveParams{Frequency: 0, PeakTime: 0.3, HalfHeight: 0, ZeroWait: 0}))
	require.NoError(t, err)
	outRef, err := g.Add(NewOutput("out"))
	require.NoError(t, err)
	require.NoError(t, g.Connect(ref, outRef, 0))
	require.NoError(t, g.Reschedule())

	out := [][]float32{make([]float32, 8)}
	g.Run(0, nil, out)
	for _, v := range out[0] {
		require.Zero(t, v)
	}
}

