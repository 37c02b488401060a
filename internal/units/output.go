package units

import "github.com/FabianRolfMatthiasNoll/signalgraph/internal/graphcore"

// NewOutput returns a sink unit. The block runner routes its outputs
// directly to the host-provided channels (see graphcore.Run), so it has
// no state of its own: each input channel is already the additive mix of
// every producer connected to it (bus accumulation happens upstream), so
// Output only needs to copy channel i onto host channel i.
func NewOutput(name string) graphcore.Unit {
	return graphcore.Unit{
		Name:       name,
		IsOutput:   true,
		MaxInputs:  graphcore.MaxPorts,
		MaxOutputs: graphcore.MaxPorts,
		Run:        runOutput,
	}
}

func runOutput(u *graphcore.Unit, time int64, inputs [][]float32, outputs [][]float32) {
	n := blockLenOf(outputs)
	for ch, out := range outputs {
		if ch >= len(inputs) {
			continue
		}
		in := inputs[ch]
		for i := 0; i < n; i++ {
			out[i] += in[i]
		}
	}
}
