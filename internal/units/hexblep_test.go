package units

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHexBlep_WidthReported(t *testing.T) {
	h := NewHexBlep(8, 16)
	require.Equal(t, 8, h.Width())
}

func TestHexBlep_OddWidthRoundedUp(t *testing.T) {
	h := NewHexBlep(7, 8)
	require.Equal(t, 8, h.Width())
}

func TestHexBlep_BlepResidualDecaysToZeroAtEdges(t *testing.T) {
	h := NewHexBlep(8, 16)
	out := make([]float32, 8)
	h.Blep(out, 0.5, 1.0)

	// Far from the discontinuity the correction should be small relative
	// to the step itself (unit scale).
	require.Less(t, absFloat32(out[len(out)-1]), float32(0.5))
}

func TestHexBlep_ZeroScaleProducesNoResidual(t *testing.T) {
	h := NewHexBlep(8, 16)
	out := make([]float32, 8)
	h.Blamp(out, 0.25, 0)
	for _, v := range out {
		require.Zero(t, v)
	}
}

func absFloat32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
