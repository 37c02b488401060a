package wavfile

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildWav assembles a minimal RIFF/WAVE byte buffer for the given PCM
// format and sample payload, used as a synthetic fixture in place of a
// real .wav file on disk.
func buildWav(t *testing.T, sampleRate uint32, numChannels, bitsPerSample int, data []byte) []byte {
	t.Helper()

	blockAlign := numChannels * bitsPerSample / 8
	byteRate := sampleRate * uint32(blockAlign)

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(4+8+16+8+len(data)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
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

func TestDecode_16BitStereoRoundTrips(t *testing.T) {
	samples := []int16{0, 0, 32767, -32768, -1, 1}
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}

	wav := buildWav(t, 44100, 2, 16, data)
	stream, err := DecodeBytes(wav)
	require.NoError(t, err)
	require.Equal(t, 44100, int(stream.SampleRate))
	require.Equal(t, 2, stream.NumChannels)
	require.Equal(t, 16, stream.BitsPerSample)
	require.Equal(t, 3, stream.NumSamples)

	l := make([]float32, 3)
	r := make([]float32, 3)
	n, err := stream.Read([][]float32{l, r})
	require.ErrorIs(t, err, io.EOF)
	require.Equal(t, 3, n)
	require.InDelta(t, 0, l[0], 1e-6)
	require.InDelta(t, 1, l[1], 1e-6)
	require.InDelta(t, -1.0/32767, l[2], 1e-6)
}

func TestDecode_8BitMono(t *testing.T) {
	data := []byte{0, 128, 255}
	wav := buildWav(t, 8000, 1, 8, data)

	stream, err := DecodeBytes(wav)
	require.NoError(t, err)
	require.Equal(t, 3, stream.NumSamples)

	out := make([]float32, 3)
	_, err = stream.Read([][]float32{out})
	require.ErrorIs(t, err, io.EOF)

	require.InDelta(t, -1, out[0], 1e-6)
	require.InDelta(t, 128.0/255*2-1, out[1], 1e-3)
	require.InDelta(t, 1, out[2], 1e-6)
}

func TestDecode_NotARiffFile(t *testing.T) {
	_, err := DecodeBytes([]byte("XXXXsize12WAVE"))
	require.ErrorIs(t, err, ErrNotARiffFile)
}

func TestDecode_NotAWaveFile(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(4))
	buf.WriteString("JUNK")
	_, err := DecodeBytes(buf.Bytes())
	require.ErrorIs(t, err, ErrNotAWavFile)
}

func TestDecode_UnsupportedBitsPerSample(t *testing.T) {
	wav := buildWav(t, 44100, 1, 24, []byte{1, 2, 3})
	_, err := DecodeBytes(wav)
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestDecode_MismatchedByteRate(t *testing.T) {
	wav := buildWav(t, 44100, 2, 16, []byte{0, 0, 0, 0})
	// Corrupt the byte rate field (offset of fmt chunk's ByteRate: RIFF(12)+fmt header(8)+8(fields)=28)
	wav[28] ^= 0xFF
	_, err := DecodeBytes(wav)
	require.ErrorIs(t, err, ErrMismatchedByteRate)
}
