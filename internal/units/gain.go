package units

import "github.com/FabianRolfMatthiasNoll/signalgraph/internal/graphcore"

type gainState struct {
	level float32
}

var _ = checkStateSize[gainState]()

// NewGain returns a unit that multiplies its (summed) input by level and
// accumulates into each output.
func NewGain(name string, level float32) graphcore.Unit {
	u := graphcore.Unit{
		Name:       name,
		MaxInputs:  graphcore.MaxPorts,
		MaxOutputs: graphcore.MaxPorts,
		Run:        runGain,
	}
	graphcore.StateOf[gainState](&u).level = level
	return u
}

type Gain struct{ u *graphcore.Unit }

func GainHandle(u *graphcore.Unit) Gain { return Gain{u} }

func (g Gain) SetLevel(level float32) { graphcore.StateOf[gainState](g.u).level = level }

func runGain(u *graphcore.Unit, time int64, inputs [][]float32, outputs [][]float32) {
	st := graphcore.StateOf[gainState](u)
	n := blockLenOf(outputs)

	for i := 0; i < n; i++ {
		var sum float32
		for _, in := range inputs {
			sum += in[i]
		}
		addSample(outputs, i, sum*st.level)
	}
}
