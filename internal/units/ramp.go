package units

import "github.com/FabianRolfMatthiasNoll/signalgraph/internal/graphcore"

// rampState implements the Ramp unit SPEC_FULL.md adds to fill in the
// unit-library row's bare mention of a "Ramp" unit that spec.md never
// gives a separate contract: a single linear segment from From to To over
// Duration samples, triggered like APDHSR's Start, used when a full
// envelope is overkill (portamento, a simple fade).
type rampState struct {
	from, to float32
	duration int64
	looping  bool

	t0      int64
	started bool
}

var _ = checkStateSize[rampState]()

// RampParams configures a new ramp unit.
type RampParams struct {
	From, To float32
	Duration int64
	Looping  bool
}

// NewRamp returns a unit that emits a linear ramp from From to To over
// Duration samples once triggered, holding at To afterward (or
// re-triggering at the span's end if Looping).
func NewRamp(name string, p RampParams) graphcore.Unit {
	u := graphcore.Unit{
		Name:       name,
		MaxOutputs: graphcore.MaxPorts,
		Run:        runRamp,
	}
	st := graphcore.StateOf[rampState](&u)
	st.from, st.to, st.duration, st.looping = p.From, p.To, p.Duration, p.Looping
	return u
}

// Ramp is a typed handle for triggering and retuning a ramp unit.
type Ramp struct{ u *graphcore.Unit }

func RampHandle(u *graphcore.Unit) Ramp { return Ramp{u} }

// Trigger starts (or restarts) the ramp at absolute sample time t0.
func (r Ramp) Trigger(t0 int64) {
	st := graphcore.StateOf[rampState](r.u)
	st.t0 = t0
	st.started = true
}

func (r Ramp) SetSpan(from, to float32, duration int64) {
	st := graphcore.StateOf[rampState](r.u)
	st.from, st.to, st.duration = from, to, duration
}

func runRamp(u *graphcore.Unit, time int64, inputs [][]float32, outputs [][]float32) {
	st := graphcore.StateOf[rampState](u)
	n := blockLenOf(outputs)

	for i := 0; i < n; i++ {
		addSample(outputs, i, st.valueAt(time+int64(i)))
	}
}

func (st *rampState) valueAt(t int64) float32 {
	if !st.started || t < st.t0 || st.duration <= 0 {
		if st.started && st.duration <= 0 {
			return st.to
		}
		return st.from
	}

	elapsed := t - st.t0
	if st.looping {
		elapsed %= st.duration
	} else if elapsed >= st.duration {
		return st.to
	}

	frac := float32(elapsed) / float32(st.duration)
	return st.from + frac*(st.to-st.from)
}
