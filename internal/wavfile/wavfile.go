// Package wavfile parses the RIFF/WAVE container used by units.WavPlayer,
// in the same spirit as cart.ParseHeader: read a fixed binary header into a
// Go struct, validate every field, and return a typed error the moment
// something doesn't match rather than propagating garbage downstream.
package wavfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Decode error kinds. Checked with errors.Is; callers that add context wrap
// with fmt.Errorf("...: %w", err).
var (
	ErrNotARiffFile         = errors.New("wavfile: not a RIFF file")
	ErrNotAWavFile          = errors.New("wavfile: not a WAVE file")
	ErrUnsupportedFormatLen = errors.New("wavfile: unsupported fmt chunk length")
	ErrCompressedWavFile    = errors.New("wavfile: compressed WAV files are not supported")
	ErrMismatchedByteRate   = errors.New("wavfile: byte rate does not match format fields")
	ErrMismatchedBlockAlign = errors.New("wavfile: block align does not match format fields")
	ErrInvalidDataHeader    = errors.New("wavfile: invalid data subchunk header")
	ErrUnexpectedEOF        = errors.New("wavfile: unexpected end of file")
	ErrUnsupported          = errors.New("wavfile: unsupported bits-per-sample or channel count")
	ErrInsufficientBuffer   = errors.New("wavfile: destination buffer too small")
)

const (
	pcmFormat  = 1
	fmtChunkLen = 16
)

// Format describes the decoded WAV's layout: bits-per-sample and channel
// count are kept as independent, orthogonal fields (not a legacy
// mono/stereo-by-bit-depth enum), matching the newer of the two divergent
// shapes the source carried.
type Format struct {
	SampleRate    uint32
	NumChannels   int
	BitsPerSample int
}

// Stream is a decoded WAV file ready to be pulled sample-by-sample in
// planar float32 form. NumSamples is the per-channel frame count.
type Stream struct {
	Format
	NumSamples int

	raw    []byte // interleaved PCM payload, as read from the data subchunk
	cursor int     // next frame index to read
}

type riffHeader struct {
	ChunkID   [4]byte
	ChunkSize uint32
	Format    [4]byte
}

type fmtChunk struct {
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// DecodeBytes decodes a complete in-memory WAV file.
func DecodeBytes(b []byte) (*Stream, error) {
	return Decode(bytes.NewReader(b))
}

// Decode parses a RIFF/WAVE container: the RIFF header, a `fmt ` subchunk
// of length 16, and a `data` subchunk of PCM 8-bit unsigned or 16-bit
// signed samples (mono or stereo).
func Decode(r io.Reader) (*Stream, error) {
	var rh riffHeader
	if err := binary.Read(r, binary.LittleEndian, &rh); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("wavfile: read riff header: %w", err)
	}
	if rh.ChunkID != [4]byte{'R', 'I', 'F', 'F'} {
		return nil, ErrNotARiffFile
	}
	if rh.Format != [4]byte{'W', 'A', 'V', 'E'} {
		return nil, ErrNotAWavFile
	}

	var fc fmtChunk
	var haveFmt bool
	var dataLen uint32
	var dataBuf []byte

	for {
		var id [4]byte
		var size uint32
		if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, ErrUnexpectedEOF
		}
		if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
			return nil, ErrUnexpectedEOF
		}

		switch id {
		case [4]byte{'f', 'm', 't', ' '}:
			if size != fmtChunkLen {
				return nil, ErrUnsupportedFormatLen
			}
			if err := binary.Read(r, binary.LittleEndian, &fc); err != nil {
				return nil, ErrUnexpectedEOF
			}
			if fc.AudioFormat != pcmFormat {
				return nil, ErrCompressedWavFile
			}
			wantByteRate := fc.SampleRate * uint32(fc.NumChannels) * uint32(fc.BitsPerSample) / 8
			if fc.ByteRate != wantByteRate {
				return nil, ErrMismatchedByteRate
			}
			wantBlockAlign := uint16(fc.NumChannels) * fc.BitsPerSample / 8
			if fc.BlockAlign != wantBlockAlign {
				return nil, ErrMismatchedBlockAlign
			}
			haveFmt = true

		case [4]byte{'d', 'a', 't', 'a'}:
			if !haveFmt {
				return nil, ErrInvalidDataHeader
			}
			dataLen = size
			dataBuf = make([]byte, size)
			if _, err := io.ReadFull(r, dataBuf); err != nil {
				return nil, ErrUnexpectedEOF
			}
			if size%2 == 1 {
				// chunks are word-aligned; skip the pad byte
				var pad [1]byte
				io.ReadFull(r, pad[:])
			}

		default:
			if _, err := io.CopyN(io.Discard, r, int64(size)); err != nil && !errors.Is(err, io.EOF) {
				return nil, ErrUnexpectedEOF
			}
			if size%2 == 1 {
				io.CopyN(io.Discard, r, 1)
			}
		}

		if haveFmt && dataBuf != nil {
			break
		}
	}

	if !haveFmt || dataBuf == nil {
		return nil, ErrInvalidDataHeader
	}

	switch fc.BitsPerSample {
	case 8, 16:
	default:
		return nil, ErrUnsupported
	}
	if fc.NumChannels != 1 && fc.NumChannels != 2 {
		return nil, ErrUnsupported
	}

	blockAlign := int(fc.NumChannels) * int(fc.BitsPerSample) / 8
	if blockAlign == 0 || int(dataLen)%blockAlign != 0 {
		return nil, ErrInvalidDataHeader
	}

	return &Stream{
		Format: Format{
			SampleRate:    fc.SampleRate,
			NumChannels:   int(fc.NumChannels),
			BitsPerSample: int(fc.BitsPerSample),
		},
		NumSamples: int(dataLen) / blockAlign,
		raw:        dataBuf,
	}, nil
}

// Read fills out (one []float32 slice per channel) with up to the
// shortest channel's length worth of frames, converting 16-bit signed via
// x/32767 and 8-bit unsigned via (x/255)*2-1. It returns io.EOF once the
// stream is exhausted.
func (s *Stream) Read(out [][]float32) (int, error) {
	if len(out) != s.NumChannels {
		return 0, ErrInsufficientBuffer
	}
	want := len(out[0])
	for _, ch := range out {
		if len(ch) < want {
			want = len(ch)
		}
	}

	remaining := s.NumSamples - s.cursor
	if remaining <= 0 {
		return 0, io.EOF
	}
	if want > remaining {
		want = remaining
	}

	bytesPerSample := s.BitsPerSample / 8
	frameBytes := bytesPerSample * s.NumChannels

	for i := 0; i < want; i++ {
		base := (s.cursor + i) * frameBytes
		for c := 0; c < s.NumChannels; c++ {
			off := base + c*bytesPerSample
			var v float32
			if s.BitsPerSample == 16 {
				raw := int16(binary.LittleEndian.Uint16(s.raw[off:]))
				v = float32(raw) / 32767
			} else {
				raw := s.raw[off]
				v = (float32(raw)/255)*2 - 1
			}
			out[c][i] = v
		}
	}

	s.cursor += want
	var err error
	if s.cursor >= s.NumSamples {
		err = io.EOF
	}
	return want, err
}

// Reset rewinds the stream to its first frame, used when a WavPlayer unit
// loops.
func (s *Stream) Reset() { s.cursor = 0 }
