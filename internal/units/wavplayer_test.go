package units

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/FabianRolfMatthiasNoll/signalgraph/internal/graphcore"
)

// buildMonoWav16 assembles a minimal 16-bit PCM mono WAV file in memory
// from the given sample values (each in [-1, 1]).
func buildMonoWav16(t *testing.T, sampleRate uint32, samples []int16) []byte {
	t.Helper()
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	return buildWavFixture(t, sampleRate, 1, 16, data)
}

// buildStereoWav16 interleaves left/right sample slices of equal length
// into a 16-bit PCM stereo WAV file.
func buildStereoWav16(t *testing.T, sampleRate uint32, left, right []int16) []byte {
	t.Helper()
	require.Equal(t, len(left), len(right))
	data := make([]byte, len(left)*4)
	for i := range left {
		binary.LittleEndian.PutUint16(data[i*4:], uint16(left[i]))
		binary.LittleEndian.PutUint16(data[i*4+2:], uint16(right[i]))
	}
	return buildWavFixture(t, sampleRate, 2, 16, data)
}

func buildWavFixture(t *testing.T, sampleRate uint32, numChannels, bitsPerSample int, data []byte) []byte {
	t.Helper()
	blockAlign := numChannels * bitsPerSample / 8
	byteRate := sampleRate * uint32(blockAlign)

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(4+8+16+8+len(data)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(numChannels))
	binary.Write(&buf, binary.LittleEndian, sampleRate)
	binary.Write(&buf, binary.LittleEndian, byteRate)
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)
	return buf.Bytes()
}

func TestWavPlayer_MonoBroadcastsToAllOutputs(t *testing.T) {
	wav := buildMonoWav16(t, 44100, []int16{32767, -32768, 0, 16384})

	g := newTestGraph(t, 44100, 4)
	ref, err := g.Add(mustWavPlayer(t, "p", wav, false))
	require.NoError(t, err)
	outRef, err := g.Add(NewOutput("out"))
	require.NoError(t, err)
	require.NoError(t, g.Connect(ref, outRef, 0))
	require.NoError(t, g.Connect(ref, outRef, 1))
	require.NoError(t, g.Reschedule())

	out := [][]float32{make([]float32, 4), make([]float32, 4)}
	g.Run(0, nil, out)

	want := []float32{1, -1, 0, 16384.0 / 32767}
	for i, w := range want {
		require.InDeltaf(t, w, out[0][i], 1e-4, "left sample %d", i)
		require.InDeltaf(t, w, out[1][i], 1e-4, "right sample %d", i)
	}
}

func TestWavPlayer_StereoMapsEvenOddChannels(t *testing.T) {
	wav := buildStereoWav16(t, 44100, []int16{32767, 0, -32768}, []int16{-32768, 32767, 0})

	g := newTestGraph(t, 44100, 3)
	ref, err := g.Add(mustWavPlayer(t, "p", wav, false))
	require.NoError(t, err)
	outRef, err := g.Add(NewOutput("out"))
	require.NoError(t, err)
	require.NoError(t, g.Connect(ref, outRef, 0))
	require.NoError(t, g.Connect(ref, outRef, 1))
	require.NoError(t, g.Reschedule())

	out := [][]float32{make([]float32, 3), make([]float32, 3)}
	g.Run(0, nil, out)

	require.InDelta(t, 1, out[0][0], 1e-4)
	require.InDelta(t, -1, out[1][0], 1e-4)
	require.InDelta(t, 0, out[0][1], 1e-4)
	require.InDelta(t, 1, out[1][1], 1e-4)
	require.InDelta(t, -1, out[0][2], 1e-4)
	require.InDelta(t, 0, out[1][2], 1e-4)
}

func TestWavPlayer_FinishesWithoutLooping(t *testing.T) {
	wav := buildMonoWav16(t, 44100, []int16{100, 200})

	g := newTestGraph(t, 44100, 4)
	ref, err := g.Add(mustWavPlayer(t, "p", wav, false))
	require.NoError(t, err)
	outRef, err := g.Add(NewOutput("out"))
	require.NoError(t, err)
	require.NoError(t, g.Connect(ref, outRef, 0))
	require.NoError(t, g.Reschedule())

	unit, ok := g.Unit(ref)
	require.True(t, ok)
	handle := WavPlayerHandle(unit)
	require.False(t, handle.IsFinished())

	out := [][]float32{make([]float32, 4)}
	g.Run(0, nil, out)
	require.True(t, handle.IsFinished())

	// Once finished and not looping, further blocks stay silent.
	g.Run(4, nil, out)
	for _, v := range out[0] {
		require.Zero(t, v)
	}
}

func TestWavPlayer_LoopsIndefinitely(t *testing.T) {
	wav := buildMonoWav16(t, 44100, []int16{32767, 0})

	g := newTestGraph(t, 44100, 6)
	ref, err := g.Add(mustWavPlayer(t, "p", wav, true))
	require.NoError(t, err)
	outRef, err := g.Add(NewOutput("out"))
	require.NoError(t, err)
	require.NoError(t, g.Connect(ref, outRef, 0))
	require.NoError(t, g.Reschedule())

	unit, ok := g.Unit(ref)
	require.True(t, ok)
	handle := WavPlayerHandle(unit)

	out := [][]float32{make([]float32, 6)}
	g.Run(0, nil, out)

	want := []float32{1, 0, 1, 0, 1, 0}
	for i, w := range want {
		require.InDeltaf(t, w, out[0][i], 1e-4, "sample %d", i)
	}
	require.False(t, handle.IsFinished())
}

func mustWavPlayer(t *testing.T, name string, wav []byte, looping bool) graphcore.Unit {
	t.Helper()
	u, err := NewWavPlayerFromMemory(name, wav, looping)
	require.NoError(t, err)
	return u
}
