package units

import "github.com/FabianRolfMatthiasNoll/signalgraph/internal/graphcore"

type triangleState struct {
	frequency float32
	phase     float64
}

var _ = checkStateSize[triangleState]()

// NewTriangle returns a naive (non-bandlimited) triangle oscillator:
// 2*|2*phase-1|-1.
func NewTriangle(name string, frequency float32) graphcore.Unit {
	u := graphcore.Unit{
		Name:       name,
		MaxOutputs: graphcore.MaxPorts,
		Run:        runTriangle,
	}
	graphcore.StateOf[triangleState](&u).frequency = frequency
	return u
}

type Triangle struct{ u *graphcore.Unit }

func TriangleHandle(u *graphcore.Unit) Triangle { return Triangle{u} }

func (t Triangle) SetFrequency(hz float32) { graphcore.StateOf[triangleState](t.u).frequency = hz }

func runTriangle(u *graphcore.Unit, time int64, inputs [][]float32, outputs [][]float32) {
	st := graphcore.StateOf[triangleState](u)
	n := blockLenOf(outputs)

	if st.frequency == 0 {
		return
	}

	dt := float64(st.frequency) / float64(u.SampleRate)

	for i := 0; i < n; i++ {
		v := 2*absFloat64(2*st.phase-1) - 1
		addSample(outputs, i, float32(v))

		st.phase += dt
		if st.phase >= 1 {
			st.phase -= 1
		}
	}
}

func absFloat64(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
