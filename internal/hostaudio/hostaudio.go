// Package hostaudio adapts graphcore.Graph to ebiten/v2's pull-based
// audio.Player model, the same shape the teacher's internal/ui/audio.go
// apuStream gave the Game Boy APU: an io.Reader that converts whatever
// the underlying engine produces into interleaved little-endian PCM on
// demand.
package hostaudio

import (
	"encoding/binary"

	"github.com/FabianRolfMatthiasNoll/signalgraph/internal/graphcore"
)

// BytesPerFrame is the frame size ebiten's stereo 16-bit player expects.
const BytesPerFrame = 4

// Stream implements io.Reader by pulling float32 blocks from a graph and
// converting them to 16-bit little-endian stereo frames, mirroring the
// teacher's apuStream.Read conversion step but sourcing samples from
// graphcore.Graph.Run instead of an APU ring buffer.
type Stream struct {
	g          *graphcore.Graph
	sampleRate int
	time       int64

	left, right []float32
	outs        [2][]float32
}

// NewStream returns a Stream that reads two-channel output from g.
func NewStream(g *graphcore.Graph, sampleRate int) *Stream {
	return &Stream{g: g, sampleRate: sampleRate}
}

func (s *Stream) Read(p []byte) (int, error) {
	if len(p) < BytesPerFrame {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	frames := len(p) / BytesPerFrame
	if cap(s.left) < frames {
		s.left = make([]float32, frames)
		s.right = make([]float32, frames)
	}
	left := s.left[:frames]
	right := s.right[:frames]
	for i := range left {
		left[i], right[i] = 0, 0
	}

	s.outs[0] = left
	s.outs[1] = right
	s.g.Run(s.time, nil, s.outs[:])
	s.time += int64(frames)

	i := 0
	for f := 0; f < frames; f++ {
		binary.LittleEndian.PutUint16(p[i:], floatToPCM16(left[f]))
		binary.LittleEndian.PutUint16(p[i+2:], floatToPCM16(right[f]))
		i += BytesPerFrame
	}
	return i, nil
}

func floatToPCM16(v float32) uint16 {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return uint16(int16(v * 32767))
}
