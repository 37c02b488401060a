package units

import "github.com/FabianRolfMatthiasNoll/signalgraph/internal/graphcore"

// apdhsrState holds the Attack-Peak-Decay-Hold-Sustain-Release envelope's
// parameters (attack/decay/hold/release as sample counts, peak/sustain as
// levels) plus the four absolute phase-end times Start precomputes.
type apdhsrState struct {
	attack, decay, hold, release int64
	peak, sustain                float32

	t0                                        int64
	attackEnd, decayEnd, holdEnd, releaseEnd  int64
	started                                   bool
}

var _ = checkStateSize[apdhsrState]()

// ApdhsrParams configures a new envelope unit. Attack/Decay/Hold/Release
// are durations in samples; Peak/Sustain are levels.
type ApdhsrParams struct {
	Attack, Decay, Hold, Release int64
	Peak, Sustain                float32
}

// NewApdhsr returns an envelope unit that multiplies its input by the
// envelope value and accumulates the result into its outputs.
func NewApdhsr(name string, p ApdhsrParams) graphcore.Unit {
	u := graphcore.Unit{
		Name:       name,
		MaxInputs:  1,
		MaxOutputs: graphcore.MaxPorts,
		Run:        runApdhsr,
	}
	st := graphcore.StateOf[apdhsrState](&u)
	st.attack, st.decay, st.hold, st.release = p.Attack, p.Decay, p.Hold, p.Release
	st.peak, st.sustain = p.Peak, p.Sustain
	return u
}

// Apdhsr is a typed handle for triggering and retuning an envelope unit.
type Apdhsr struct{ u *graphcore.Unit }

func ApdhsrHandle(u *graphcore.Unit) Apdhsr { return Apdhsr{u} }

// Start precomputes the four absolute phase-end times from t0.
func (e Apdhsr) Start(t0 int64) {
	st := graphcore.StateOf[apdhsrState](e.u)
	st.t0 = t0
	st.attackEnd = t0 + st.attack
	st.decayEnd = st.attackEnd + st.decay
	st.holdEnd = st.decayEnd + st.hold
	st.releaseEnd = st.holdEnd + st.release
	st.started = true
}

func (e Apdhsr) SetParams(p ApdhsrParams) {
	st := graphcore.StateOf[apdhsrState](e.u)
	st.attack, st.decay, st.hold, st.release = p.Attack, p.Decay, p.Hold, p.Release
	st.peak, st.sustain = p.Peak, p.Sustain
}

// sampleAt evaluates the envelope at absolute sample time t: a piecewise
// linear ramp through attack (0 -> peak), decay (peak -> sustain), a
// constant hold at sustain, a release ramp (sustain -> 0), then zero.
func (st *apdhsrState) sampleAt(t int64) float32 {
	if !st.started || t < st.t0 {
		return 0
	}
	switch {
	case t < st.attackEnd:
		return lerpEnvelope(t, st.t0, st.attack, 0, st.peak)
	case t < st.decayEnd:
		return lerpEnvelope(t, st.attackEnd, st.decay, st.peak, st.sustain)
	case t < st.holdEnd:
		return st.sustain
	case t < st.releaseEnd:
		return lerpEnvelope(t, st.holdEnd, st.release, st.sustain, 0)
	default:
		return 0
	}
}

func lerpEnvelope(t, phaseStart, phaseLen int64, from, to float32) float32 {
	if phaseLen <= 0 {
		return to
	}
	frac := float32(t-phaseStart) / float32(phaseLen)
	return from + frac*(to-from)
}

func runApdhsr(u *graphcore.Unit, time int64, inputs [][]float32, outputs [][]float32) {
	st := graphcore.StateOf[apdhsrState](u)
	n := blockLenOf(outputs)

	var in []float32
	if len(inputs) > 0 {
		in = inputs[0]
	}

	for i := 0; i < n; i++ {
		env := st.sampleAt(time + int64(i))
		var x float32 = 1
		if in != nil {
			x = in[i]
		}
		addSample(outputs, i, x*env)
	}
}
