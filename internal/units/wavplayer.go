package units

import (
	"bytes"
	"io"
	"sync"

	"github.com/FabianRolfMatthiasNoll/signalgraph/internal/graphcore"
	"github.com/FabianRolfMatthiasNoll/signalgraph/internal/wavfile"
)

// wavResource bundles a decoded stream with the planar scratch buffers its
// unit pulls into each block. It is kept in wavResources rather than
// inside wavplayerState because a Unit's opaque state area is a plain
// [128]byte array as far as the garbage collector's type information is
// concerned (see graphcore.Unit.state): a live pointer or slice header
// stashed there by unsafe type-punning would be invisible to the
// collector. wavplayerState instead stores an index into this slice;
// the index is stable for the unit's lifetime. The only allocation on the
// audio path is the one-time sizing of the scratch buffers on the first
// run; later blocks reuse them.
type wavResource struct {
	stream  *wavfile.Stream
	scratch [2][]float32 // sized to the owning graph's MaxBlockSize on first run
	chans   [2][]float32 // reusable planar view passed to stream.Read
	window  [2][]float32 // reusable offset view within chans
}

// wavResources is a package-level registry shared by every graph, since a
// wavplayerState only has room for an index, not a pointer. registerStream
// and releaseStream are the only writers, both called from graph
// construction/mutation (never the audio path), but nothing stops two
// goroutines from building graphs concurrently, so both are guarded by
// wavResourcesMu. releaseStream (wired as each unit's Release hook, see
// newWavPlayer) frees the slot on Graph.Remove and wavFreeList lets
// registerStream reuse it instead of growing the registry forever.
var (
	wavResourcesMu sync.Mutex
	wavResources   []*wavResource
	wavFreeList    []int
)

func registerStream(s *wavfile.Stream) int {
	wavResourcesMu.Lock()
	defer wavResourcesMu.Unlock()

	if n := len(wavFreeList); n > 0 {
		idx := wavFreeList[n-1]
		wavFreeList = wavFreeList[:n-1]
		wavResources[idx] = &wavResource{stream: s}
		return idx
	}
	wavResources = append(wavResources, &wavResource{stream: s})
	return len(wavResources) - 1
}

// releaseStream drops the registry's reference to resourceIdx's resource
// (letting the decoded stream and its scratch buffers be collected) and
// returns the slot to the free list.
func releaseStream(resourceIdx int) {
	wavResourcesMu.Lock()
	defer wavResourcesMu.Unlock()

	wavResources[resourceIdx] = nil
	wavFreeList = append(wavFreeList, resourceIdx)
}

type wavplayerState struct {
	resourceIdx int
	looping     bool
	finished    bool
}

var _ = checkStateSize[wavplayerState]()

// NewWavPlayerFromMemory decodes an in-memory WAV file and returns a unit
// that streams it into its outputs (summing onto each output channel,
// mono source broadcast to every output, stereo source mapped onto
// even/odd output channels) until exhausted, at which point it holds
// silence (or loops, if configured).
func NewWavPlayerFromMemory(name string, data []byte, looping bool) (graphcore.Unit, error) {
	return newWavPlayer(name, bytes.NewReader(data), looping)
}

// NewWavPlayerFromReader decodes a WAV stream read from r.
func NewWavPlayerFromReader(name string, r io.Reader, looping bool) (graphcore.Unit, error) {
	return newWavPlayer(name, r, looping)
}

func newWavPlayer(name string, r io.Reader, looping bool) (graphcore.Unit, error) {
	stream, err := wavfile.Decode(r)
	if err != nil {
		return graphcore.Unit{}, err
	}

	u := graphcore.Unit{
		Name:       name,
		MaxOutputs: graphcore.MaxPorts,
		Run:        runWavPlayer,
		Release:    releaseWavPlayer,
	}
	st := graphcore.StateOf[wavplayerState](&u)
	st.resourceIdx = registerStream(stream)
	st.looping = looping
	return u, nil
}

// releaseWavPlayer is wired as the unit's Release hook so Graph.Remove
// frees the registry slot instead of leaking the decoded stream and its
// scratch buffers for the life of the process.
func releaseWavPlayer(u *graphcore.Unit) {
	st := graphcore.StateOf[wavplayerState](u)
	releaseStream(st.resourceIdx)
}

// WavPlayer is a typed handle for querying playback state.
type WavPlayer struct{ u *graphcore.Unit }

func WavPlayerHandle(u *graphcore.Unit) WavPlayer { return WavPlayer{u} }

// IsFinished reports whether a non-looping player has exhausted its
// source material.
func (w WavPlayer) IsFinished() bool {
	return graphcore.StateOf[wavplayerState](w.u).finished
}

func runWavPlayer(u *graphcore.Unit, time int64, inputs [][]float32, outputs [][]float32) {
	st := graphcore.StateOf[wavplayerState](u)
	res := wavResources[st.resourceIdx]
	n := blockLenOf(outputs)

	if st.finished && !st.looping {
		return
	}

	if cap(res.scratch[0]) < u.MaxBlockSize {
		res.scratch[0] = make([]float32, u.MaxBlockSize)
		res.scratch[1] = make([]float32, u.MaxBlockSize)
	}
	l := res.scratch[0][:n]
	r := res.scratch[1][:n]
	for i := range l {
		l[i], r[i] = 0, 0
	}

	numCh := res.stream.NumChannels
	res.chans[0] = l
	if numCh > 1 {
		res.chans[1] = r
	}
	planar := res.chans[:numCh]

	filled := 0
	for filled < n && !(st.finished && !st.looping) {
		for i, ch := range planar {
			res.window[i] = ch[filled:]
		}
		got, err := res.stream.Read(res.window[:numCh])
		filled += got
		if err == io.EOF {
			if st.looping {
				res.stream.Reset()
				continue
			}
			st.finished = true
			break
		}
		if got == 0 {
			break
		}
	}

	for i := 0; i < n; i++ {
		var lv, rv float32
		if i < filled {
			lv = l[i]
			if res.stream.NumChannels > 1 {
				rv = r[i]
			} else {
				rv = lv
			}
		}
		for ch, out := range outputs {
			if res.stream.NumChannels == 1 {
				out[i] += lv
			} else if ch%2 == 0 {
				out[i] += lv
			} else {
				out[i] += rv
			}
		}
	}
}

