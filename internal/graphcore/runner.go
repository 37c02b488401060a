package graphcore

// Run fills hostOut with up to len(hostOut[0]) frames, looping internally
// in sub-blocks of at most MaxBlockSize frames. hostIn is split into the
// same sub-blocks but is not handed to any unit, so no unit reads host
// input. time is the sample counter at the start of the
// call and advances by the number of frames written. Run never fails: on
// an invalid graph it emits silence.
func (g *Graph) Run(time int64, hostIn [][]float32, hostOut [][]float32) {
	total := framesOf(hostOut)

	if !g.valid || total == 0 {
		silence(hostOut)
		return
	}

	g.ensureScratch(len(hostIn), len(hostOut))

	offset := 0
	for offset < total {
		n := g.maxBlockSize
		if remaining := total - offset; remaining < n {
			n = remaining
		}

		for i, ch := range hostIn {
			g.hostInScratch[i] = ch[offset : offset+n]
		}
		for i, ch := range hostOut {
			g.hostOutScratch[i] = ch[offset : offset+n]
		}

		g.runBlock(time+int64(offset), n, g.hostInScratch, g.hostOutScratch)
		offset += n
	}
}

// ensureScratch lazily sizes the reusable host channel-slice arrays the
// first time Run observes a given channel count. It must not be called
// with differing channel counts across the lifetime of a graph if the
// zero-allocation guarantee for Run is to hold after the first call.
func (g *Graph) ensureScratch(numIn, numOut int) {
	if len(g.hostInScratch) != numIn {
		g.hostInScratch = make([][]float32, numIn)
	}
	if len(g.hostOutScratch) != numOut {
		g.hostOutScratch = make([][]float32, numOut)
	}
}

func (g *Graph) runBlock(time int64, blockLen int, hostIn, hostOut [][]float32) {
	for i := range g.busPool {
		g.busPool[i] = 0
	}
	silence(hostOut)

	for i := range g.schedule {
		su := &g.schedule[i]

		unit, ok := g.units.Get(su.ref)
		if !ok {
			continue
		}

		for j, id := range su.inputBusIDs {
			su.inputs[j] = g.busSlice(id, blockLen)
		}

		if unit.IsOutput {
			unit.Run(unit, time, su.inputs, hostOut)
			continue
		}

		for j, id := range su.outputBusIDs {
			su.outputs[j] = g.busSlice(id, blockLen)
		}
		unit.Run(unit, time, su.inputs, su.outputs)
	}
}

func (g *Graph) busSlice(id, blockLen int) []float32 {
	base := id * g.maxBlockSize
	return g.busPool[base : base+blockLen]
}

func framesOf(channels [][]float32) int {
	if len(channels) == 0 {
		return 0
	}
	return len(channels[0])
}

func silence(channels [][]float32) {
	for _, ch := range channels {
		for i := range ch {
			ch[i] = 0
		}
	}
}
