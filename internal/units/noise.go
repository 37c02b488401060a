package units

import "github.com/FabianRolfMatthiasNoll/signalgraph/internal/graphcore"

type noiseState struct {
	frequency float32
	lfsr      uint16
	current   float32
	phase     float64
}

var _ = checkStateSize[noiseState]()

// NewNoise returns a Xorshift-16 LFSR noise generator. seed must be
// nonzero (a zero xorshift state never changes); a zero seed is coerced
// to 1.
func NewNoise(name string, frequency float32, seed uint16) graphcore.Unit {
	if seed == 0 {
		seed = 1
	}
	u := graphcore.Unit{
		Name:       name,
		MaxOutputs: graphcore.MaxPorts,
		Run:        runNoise,
	}
	st := graphcore.StateOf[noiseState](&u)
	st.frequency = frequency
	st.lfsr = seed
	st.current = signOf(seed)
	return u
}

type Noise struct{ u *graphcore.Unit }

func NoiseHandle(u *graphcore.Unit) Noise { return Noise{u} }

func (n Noise) SetFrequency(hz float32) { graphcore.StateOf[noiseState](n.u).frequency = hz }

func runNoise(u *graphcore.Unit, time int64, inputs [][]float32, outputs [][]float32) {
	st := graphcore.StateOf[noiseState](u)
	n := blockLenOf(outputs)

	// The sample-rate factor cancels algebraically ((1e6/sr)*sr == 1e6);
	// the increment is kept in this form because that is how it is
	// specified, not simplified to f*f/1e6, to keep the sample-rate term
	// visible at the call site that tunes it.
	inc := float64(st.frequency) * float64(st.frequency) / ((1e6 / float64(u.SampleRate)) * float64(u.SampleRate))

	for i := 0; i < n; i++ {
		st.phase += inc
		if st.phase >= 1 {
			st.phase -= 1
			st.lfsr = xorshift16(st.lfsr)
			st.current = signOf(st.lfsr)
		}
		addSample(outputs, i, st.current)
	}
}

func signOf(x uint16) float32 {
	if x&1 == 1 {
		return 1
	}
	return -1
}

// xorshift16 is a 16-bit xorshift step, used here purely as a cheap,
// deterministic pseudo-random bit source rather than for any
// cryptographic property.
func xorshift16(x uint16) uint16 {
	x ^= x << 7
	x ^= x >> 9
	x ^= x << 8
	return x
}
