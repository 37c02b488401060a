package units

import "github.com/FabianRolfMatthiasNoll/signalgraph/internal/graphcore"

type phasorState struct {
	frequency float32
	phase     float32
}

var _ = checkStateSize[phasorState]()

// NewPhasor returns a Unit that emits a rising phase ramp in [0,1),
// advancing by frequency/sampleRate each sample.
func NewPhasor(name string, frequency float32) graphcore.Unit {
	u := graphcore.Unit{
		Name:       name,
		MaxOutputs: graphcore.MaxPorts,
		Run:        runPhasor,
	}
	st := graphcore.StateOf[phasorState](&u)
	st.frequency = frequency
	return u
}

// Phasor is a typed handle for mutating a phasor unit's parameters after
// it has been added to a graph.
type Phasor struct{ u *graphcore.Unit }

// PhasorHandle wraps u for parameter access; u must have been built with
// NewPhasor.
func PhasorHandle(u *graphcore.Unit) Phasor { return Phasor{u} }

// SetFrequency changes the oscillator frequency in Hz. Takes effect on
// the next block.
func (p Phasor) SetFrequency(hz float32) {
	graphcore.StateOf[phasorState](p.u).frequency = hz
}

func runPhasor(u *graphcore.Unit, time int64, inputs [][]float32, outputs [][]float32) {
	st := graphcore.StateOf[phasorState](u)
	inc := st.frequency / float32(u.SampleRate)

	for i := 0; i < blockLenOf(outputs); i++ {
		st.phase += inc
		if st.phase >= 1 {
			st.phase -= 1
		}
		addSample(outputs, i, st.phase)
	}
}

// blockLenOf returns the frame count for this call, inferred from the
// first output bus (Output units instead infer it from outputs too, since
// the host buffer is itself the output).
func blockLenOf(buses [][]float32) int {
	if len(buses) == 0 {
		return 0
	}
	return len(buses[0])
}

func addSample(buses [][]float32, i int, v float32) {
	for _, b := range buses {
		b[i] += v
	}
}
