package units

import "github.com/FabianRolfMatthiasNoll/signalgraph/internal/graphcore"

type squareState struct {
	frequency float32
	duty      float32
	phase     float64
}

var _ = checkStateSize[squareState]()

// NewSquare returns a PolyBLEP-smoothed pulse oscillator. duty must be in
// (0,1); values outside that range are clamped at construction.
func NewSquare(name string, frequency, duty float32) graphcore.Unit {
	u := graphcore.Unit{
		Name:       name,
		MaxOutputs: graphcore.MaxPorts,
		Run:        runSquare,
	}
	st := graphcore.StateOf[squareState](&u)
	st.frequency = frequency
	st.duty = clampDuty(duty)
	return u
}

func clampDuty(d float32) float32 {
	const eps = 1e-4
	if d < eps {
		return eps
	}
	if d > 1-eps {
		return 1 - eps
	}
	return d
}

// Square is a typed handle for a square-oscillator unit's parameters.
type Square struct{ u *graphcore.Unit }

func SquareHandle(u *graphcore.Unit) Square { return Square{u} }

func (s Square) SetFrequency(hz float32) { graphcore.StateOf[squareState](s.u).frequency = hz }
func (s Square) SetDuty(duty float32) {
	graphcore.StateOf[squareState](s.u).duty = clampDuty(duty)
}

func runSquare(u *graphcore.Unit, time int64, inputs [][]float32, outputs [][]float32) {
	st := graphcore.StateOf[squareState](u)
	n := blockLenOf(outputs)

	if st.frequency == 0 {
		return // emits silence; buses already start zeroed
	}

	dt := float64(st.frequency) / float64(u.SampleRate)
	duty := float64(st.duty)

	for i := 0; i < n; i++ {
		naive := -1.0
		if st.phase < duty {
			naive = 1.0
		}

		v := naive + polyBlep(st.phase, dt)

		fallPhase := st.phase - duty
		if fallPhase < 0 {
			fallPhase += 1
		}
		v -= polyBlep(fallPhase, dt)

		addSample(outputs, i, float32(v))

		st.phase += dt
		if st.phase >= 1 {
			st.phase -= 1
		}
	}
}

// polyBlep is the standard cheap polynomial approximation to a
// bandlimited step, t + t - t^2 near the edge, used for oscillators where
// a full HexBlep table is overkill.
func polyBlep(t, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	if t < dt {
		t /= dt
		return t + t - t*t - 1
	}
	if t > 1-dt {
		t = (t - 1) / dt
		return t*t + t + t + 1
	}
	return 0
}
