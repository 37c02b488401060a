package units

import "github.com/FabianRolfMatthiasNoll/signalgraph/internal/graphcore"

const (
	hexwaveBlepWidth  = 8
	hexwaveOversample = 16
	hexwaveCarryLen   = hexwaveBlepWidth
	hexwaveVertCount  = 8
)

// sharedHexBlep is the one bandlimited-step/-ramp table every Hexwave
// instance reads from; it is package-level (not per-unit state) because
// spec.md describes HexBlep as "a shared read-only table, not a unit".
var sharedHexBlep = NewHexBlep(hexwaveBlepWidth, hexwaveOversample)

// hexwaveState holds the pending shape parameters, the precomputed vertex
// table for the in-force shape, the phase accumulator, and the carry
// buffer that lets a blep/blamp tail computed near the end of block N land
// on the head of block N+1.
//
// The vertex table is stored as two parallel [8]float32 arrays (time,
// value) rather than an [8]struct{t float64; v float32}: a float64 time
// field would force 8-byte alignment and pad each vertex out to 16 bytes,
// doubling the table's footprint for no precision this oscillator needs
// (the phase accumulator itself is float32, so boundary times held in
// float32 lose nothing against it). The in-force shape parameters themselves
// (reflect/peakTime/halfHeight/zeroWait) are not kept — once computed into
// vertTimes/vertValues they are never read again, so only the pending copy
// staged by SetShape survives for the one comparison at wrap time.
type hexwaveState struct {
	frequency         float32
	pendingPeakTime   float32
	pendingHalfHeight float32
	pendingZeroWait   float32

	vertTimes  [hexwaveVertCount]float32
	vertValues [hexwaveVertCount]float32

	phase  float32
	prevDt float32

	carry [hexwaveCarryLen]float32

	pendingReflect bool
	hasPending     bool
}

var _ = checkStateSize[hexwaveState]()

// HexwaveParams configures a new Hexwave unit.
type HexwaveParams struct {
	Frequency  float32
	Reflect    bool
	PeakTime   float32
	HalfHeight float32
	ZeroWait   float32
}

// NewHexwave returns a six-segment, bandlimited oscillator.
func NewHexwave(name string, p HexwaveParams) graphcore.Unit {
	u := graphcore.Unit{
		Name:       name,
		MaxOutputs: graphcore.MaxPorts,
		Run:        runHexwave,
	}
	st := graphcore.StateOf[hexwaveState](&u)
	st.frequency = p.Frequency
	st.vertTimes, st.vertValues = computeHexVertices(p.Reflect, p.PeakTime, p.HalfHeight, p.ZeroWait)
	return u
}

// Hexwave is a typed handle for retuning a Hexwave unit. Shape parameter
// changes are staged and applied at the next period boundary (the wrap
// path), matching spec.md's decision to defer pending parameters only on
// wrap; frequency changes take effect immediately since they do not by
// themselves move the current segment's vertices.
type Hexwave struct{ u *graphcore.Unit }

func HexwaveHandle(u *graphcore.Unit) Hexwave { return Hexwave{u} }

func (h Hexwave) SetFrequency(hz float32) {
	graphcore.StateOf[hexwaveState](h.u).frequency = hz
}

func (h Hexwave) SetShape(reflect bool, peakTime, halfHeight, zeroWait float32) {
	st := graphcore.StateOf[hexwaveState](h.u)
	st.pendingReflect, st.pendingPeakTime, st.pendingHalfHeight, st.pendingZeroWait = reflect, peakTime, halfHeight, zeroWait
	st.hasPending = true
}

func clamp01(x float32) float32 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// computeHexVertices derives the period's boundary points from the shape
// parameters. The period is built as three segments in [0,0.5] (a
// zero-wait hold, a rise to the positive peak, a fall to halfHeight) and
// a second copy of that shape in [0.5,1] that is sign-flipped when
// reflect is set (giving the usual odd-symmetric waveform families) or
// left as-is otherwise. The two points where the shape restarts (t=0.5
// and the period wrap back to t=0) are stored twice, once with the value
// the preceding segment ends on and once with the value the following
// segment starts from, so the evaluator can tell a true value
// discontinuity (a "zero-length segment") from an ordinary slope-only
// kink.
func computeHexVertices(reflect bool, peakTime, halfHeight, zeroWait float32) (times, values [hexwaveVertCount]float32) {
	zw := clamp01(zeroWait)
	half := zw / 2

	lo := half + 1e-4
	hi := float32(0.5) - 1e-4
	pt := peakTime
	if pt < lo {
		pt = lo
	}
	if pt > hi {
		pt = hi
	}

	sign := float32(1)
	if reflect {
		sign = -1
	}

	times = [hexwaveVertCount]float32{0, half, pt, 0.5, 0.5, 0.5 + half, 0.5 + pt, 1.0}
	values = [hexwaveVertCount]float32{0, 0, 1, halfHeight, 0, 0, sign, sign * halfHeight}
	return times, values
}

// segmentAt returns the naive (non-bandlimited) value at phase t and the
// index of the vertex pair (i, i+1) the phase currently falls within,
// skipping the zero-length discontinuity pair (indices 3,4).
func segmentAt(times, values *[hexwaveVertCount]float32, t float32) (value float32, segIdx int) {
	for i := 0; i < 7; i++ {
		at, bt := times[i], times[i+1]
		if at == bt {
			continue // the value-discontinuity pair; not a segment
		}
		if t >= at && t < bt {
			frac := (t - at) / (bt - at)
			return values[i] + frac*(values[i+1]-values[i]), i
		}
	}
	// past the last boundary (shouldn't normally happen since phase wraps
	// before reaching 1.0); hold the final value.
	return values[7], 6
}

func segmentSlope(times, values *[hexwaveVertCount]float32, segIdx int, periodSamples float64) float32 {
	at, bt := times[segIdx], times[segIdx+1]
	if bt == at || periodSamples == 0 {
		return 0
	}
	return (values[segIdx+1] - values[segIdx]) / (float32(bt-at) * float32(periodSamples))
}

func runHexwave(u *graphcore.Unit, time int64, inputs [][]float32, outputs [][]float32) {
	st := graphcore.StateOf[hexwaveState](u)
	n := blockLenOf(outputs)

	dt := float64(st.frequency) / float64(u.SampleRate)
	if dt <= 0 {
		drainCarry(st, outputs, n)
		return
	}
	if st.prevDt == 0 {
		st.prevDt = float32(dt)
	}

	for i := 0; i < n; i++ {
		// Drain one carried correction sample before adding the naive
		// waveform, so a blep/blamp tail from the previous block lands
		// correctly on the head of this one.
		addSample(outputs, i, st.carry[0])
		copy(st.carry[:], st.carry[1:])
		st.carry[hexwaveCarryLen-1] = 0

		prevPhase := st.phase
		st.phase += float32(dt)
		wrapped := st.phase >= 1
		if wrapped {
			st.phase -= 1
			if st.hasPending {
				st.vertTimes, st.vertValues = computeHexVertices(st.pendingReflect, st.pendingPeakTime, st.pendingHalfHeight, st.pendingZeroWait)
				st.hasPending = false
			}
		}

		value, segIdx := segmentAt(&st.vertTimes, &st.vertValues, st.phase)
		addSample(outputs, i, value)

		periodSamples := 1 / dt

		if wrapped {
			// The period-wrap discontinuity: jump from the previous
			// period's final value to this period's value at phase 0.
			prevEnd := st.vertValues[7]
			newStart := st.vertValues[0]
			applyTransition(st, outputs, i, n, prevEnd, newStart, segIdx, periodSamples, dt)
		} else {
			// Did we cross an internal vertex boundary within this sample?
			for k := 0; k < 7; k++ {
				at, bt := st.vertTimes[k], st.vertTimes[k+1]
				if prevPhase < at && st.phase >= at && at > 0 {
					isJump := at == bt
					var after float32
					if isJump {
						after = st.vertValues[k+1]
					} else {
						after = st.vertValues[k]
					}
					before := st.vertValues[k]
					applyTransition(st, outputs, i, n, before, after, segIdx, periodSamples, dt)
				}
			}
		}

		if wrapped && float32(dt) != st.prevDt {
			slope := segmentSlope(&st.vertTimes, &st.vertValues, segIdx, periodSamples)
			injectBlamp(st, outputs, i, n, 0, (float32(dt)-st.prevDt)*slope*float32(periodSamples))
			st.prevDt = float32(dt)
		}
	}
}

func drainCarry(st *hexwaveState, outputs [][]float32, n int) {
	for i := 0; i < n; i++ {
		addSample(outputs, i, st.carry[0])
		copy(st.carry[:], st.carry[1:])
		st.carry[hexwaveCarryLen-1] = 0
	}
}

// applyTransition adds a blep (if the vertex is a value discontinuity)
// and a blamp (always, scaled by the slope change across the vertex) at
// the fractional offset within the current sample, spilling whatever
// extends past the end of the block into the carry buffer.
func applyTransition(st *hexwaveState, outputs [][]float32, i, n int, before, after float32, segIdx int, periodSamples, dt float64) {
	t := 0.0 // the transition is treated as occurring at the start of sample i for table lookup purposes.

	if before != after {
		injectBlep(st, outputs, i, n, t, after-before)
	}

	slope := segmentSlope(&st.vertTimes, &st.vertValues, segIdx, periodSamples)
	injectBlamp(st, outputs, i, n, t, slope*float32(dt))
}

func injectBlep(st *hexwaveState, outputs [][]float32, i, n int, t float64, scale float32) {
	var tmp [hexwaveBlepWidth]float32
	sharedHexBlep.Blep(tmp[:], t, float64(scale))
	spillCorrection(st, outputs, i, n, tmp[:])
}

func injectBlamp(st *hexwaveState, outputs [][]float32, i, n int, t float64, scale float32) {
	var tmp [hexwaveBlepWidth]float32
	sharedHexBlep.Blamp(tmp[:], t, float64(scale))
	spillCorrection(st, outputs, i, n, tmp[:])
}

// spillCorrection adds tmp[0] into the sample currently being emitted and
// the remainder into the carry buffer (or, if it would still land inside
// this block, directly into the relevant future sample of outputs).
func spillCorrection(st *hexwaveState, outputs [][]float32, i, n int, tmp []float32) {
	addSample(outputs, i, tmp[0])
	for k := 1; k < len(tmp); k++ {
		future := i + k
		if future < n {
			addSample(outputs, future, tmp[k])
		} else {
			carryIdx := future - n
			if carryIdx < hexwaveCarryLen {
				st.carry[carryIdx] += tmp[k]
			}
		}
	}
}
