package units

import "math"

// HexBlep is a shared, read-only bandlimited-step (blep) and
// bandlimited-ramp (blamp) table. Several oscillators (Hexwave, and in
// principle any future band-limited unit) add its residual onto an
// otherwise naively-generated waveform near a discontinuity or slope
// change to suppress aliasing, instead of paying for a full per-sample
// sinc convolution.
//
// Construction follows the teacher's accumulator style for phase-rate
// state (internal/apu/apu.go's cycAccum/fsCounter), adapted from integer
// ticks to a float phase because the table needs sub-sample precision: a
// fine oversampled grid is integrated twice (impulse -> step -> ramp),
// then decimated, normalised, and de-interleaved for cheap linear
// interpolation at query time.
type HexBlep struct {
	width      int
	oversample int

	// blepRows[j] and rampRows[j], j in [0, oversample], each of length
	// width: the bandlimited residual for phase offset j/oversample.
	blepRows  [][]float32
	rampRows  [][]float32
}

// nuttallOverFactor is the fine-grid oversampling used only during table
// construction; it has no bearing on the query-time interpolation grid.
const nuttallOverFactor = 16

// NewHexBlep builds a table for the given (even) width and oversample
// rate. width bounds how many output samples a single blep/blamp call
// touches; oversample bounds the phase resolution used to bracket a
// fractional sample position.
func NewHexBlep(width, oversample int) *HexBlep {
	if width%2 != 0 {
		width++
	}
	if width < 2 {
		width = 2
	}
	if oversample < 1 {
		oversample = 1
	}

	half := (width / 2) * oversample
	n := 2*half + 1

	step, ramp := integrateNuttallSincTable(n)
	normalizeStepRamp(step, ramp, width)

	h := &HexBlep{width: width, oversample: oversample}
	h.blepRows = deinterleaveResidual(step, oversample, width, half, naiveStep)
	h.rampRows = deinterleaveResidual(ramp, oversample, width, half, naiveRamp)
	return h
}

// integrateNuttallSincTable builds the coarse step/ramp arrays of length n
// by integrating a Nuttall-windowed sinc on a nuttallOverFactor-times
// finer grid (impulse -> step), then decimating back to the coarse grid
// and integrating once more (step -> ramp).
func integrateNuttallSincTable(n int) (step, ramp []float64) {
	fineN := n * nuttallOverFactor

	impulse := make([]float64, fineN)
	center := float64(fineN-1) / 2
	for i := range impulse {
		x := (float64(i) - center) / float64(nuttallOverFactor)
		impulse[i] = sinc(x) * nuttallWindow(float64(i)/float64(fineN-1))
	}
	normalizeToUnitArea(impulse)

	fineStep := make([]float64, fineN)
	acc := 0.0
	for i, v := range impulse {
		acc += v
		fineStep[i] = acc
	}

	step = make([]float64, n)
	ramp = make([]float64, n)
	rampAcc := 0.0
	for i := 0; i < n; i++ {
		base := i * nuttallOverFactor
		sum, cnt := 0.0, 0
		for k := 0; k < nuttallOverFactor && base+k < fineN; k++ {
			sum += fineStep[base+k]
			cnt++
		}
		if cnt > 0 {
			sum /= float64(cnt)
		}
		step[i] = sum
		rampAcc += sum
		ramp[i] = rampAcc
	}
	return step, ramp
}

func normalizeToUnitArea(xs []float64) {
	sum := 0.0
	for _, v := range xs {
		sum += v
	}
	if sum == 0 {
		return
	}
	for i := range xs {
		xs[i] /= sum
	}
}

func normalizeStepRamp(step, ramp []float64, width int) {
	n := len(step)
	if n == 0 {
		return
	}
	if last := step[n-1]; last != 0 {
		for i := range step {
			step[i] /= last
		}
	}
	if last := ramp[n-1]; last != 0 {
		target := float64(width) / 2
		for i := range ramp {
			ramp[i] = ramp[i] / last * target
		}
	}
}

// naiveStep/naiveRamp are the un-antialiased reference functions whose
// residual against the bandlimited table is what actually gets stored:
// adding the residual to a naively-generated waveform reconstructs the
// bandlimited result without carrying the naive part through the table.
func naiveStep(idxFromHalf int) float64 {
	if idxFromHalf >= 0 {
		return 1
	}
	return 0
}

func naiveRamp(idxFromHalf int) float64 {
	if idxFromHalf < 0 {
		return 0
	}
	return float64(idxFromHalf)
}

// deinterleaveResidual reshapes a length-n coarse array into
// (oversample+1) rows of width samples each, row j holding samples
// j, j+oversample, j+2*oversample, ..., with the naive reference function
// subtracted out per element.
func deinterleaveResidual(coarse []float64, oversample, width, half int, naive func(int) float64) [][]float32 {
	rows := make([][]float32, oversample+1)
	for j := 0; j <= oversample; j++ {
		row := make([]float32, width)
		for k := 0; k < width; k++ {
			idx := j + k*oversample
			var v float64
			if idx >= 0 && idx < len(coarse) {
				v = coarse[idx]
			} else if idx >= len(coarse) {
				v = coarse[len(coarse)-1]
			}
			row[k] = float32(v - naive(idx-half))
		}
		rows[j] = row
	}
	return rows
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	px := math.Pi * x
	return math.Sin(px) / px
}

// nuttallWindow is the 4-term Nuttall window evaluated at t in [0,1].
func nuttallWindow(t float64) float64 {
	const (
		a0 = 0.355768
		a1 = 0.487396
		a2 = 0.144232
		a3 = 0.012604
	)
	theta := 2 * math.Pi * t
	return a0 - a1*math.Cos(theta) + a2*math.Cos(2*theta) - a3*math.Cos(3*theta)
}

// Width reports the number of output samples a single Blep/Blamp call
// touches.
func (h *HexBlep) Width() int { return h.width }

// Blep adds a bandlimited step correction scaled by scale into output,
// for a discontinuity occurring at fractional sample offset t (t in
// [0,1) measured from output[0]).
func (h *HexBlep) Blep(output []float32, t, scale float64) {
	addResidual(h.blepRows, h.oversample, output, t, scale)
}

// Blamp adds a bandlimited ramp (slope-change) correction scaled by scale
// into output, for a slope change occurring at fractional sample offset t.
func (h *HexBlep) Blamp(output []float32, t, scale float64) {
	addResidual(h.rampRows, h.oversample, output, t, scale)
}

func addResidual(rows [][]float32, oversample int, output []float32, t, scale float64) {
	if t < 0 {
		t = 0
	}
	if t >= 1 {
		t = math.Nextafter(1, 0)
	}
	pos := t * float64(oversample)
	row0 := int(pos)
	if row0 >= oversample {
		row0 = oversample - 1
	}
	frac := pos - float64(row0)
	r0, r1 := rows[row0], rows[row0+1]

	n := len(r0)
	if n > len(output) {
		n = len(output)
	}
	for k := 0; k < n; k++ {
		v := float64(r0[k])*(1-frac) + float64(r1[k])*frac
		output[k] += float32(v * scale)
	}
}
