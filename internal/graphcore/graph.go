// Package graphcore implements the audio-graph processing engine: the
// unit abstraction, the graph of units and connections, the topological
// scheduler, the shared bus-buffer pool, and the block runner that fills
// host buffers from the scheduled units.
package graphcore

import "github.com/FabianRolfMatthiasNoll/signalgraph/internal/pool"

// Ref is a stable handle to a unit in a Graph. It is cheap to copy and
// stays valid until the referenced unit is removed.
type Ref = pool.Ref

// Connection is a (producer, consumer, channel) triple. The same triple
// may be recorded more than once; the scheduler treats the
// (consumer, channel) pair as the key when minting buses, so duplicates
// are idempotent in their effect on the schedule even though they are not
// collapsed in the connection list itself.
type Connection struct {
	Producer Ref
	Consumer Ref
	Channel  int
}

const (
	defaultUnitCapacity       = 128
	defaultConnectionCapacity = 256
	defaultMaxOutputs         = 16
	defaultScratchBytes       = 4096
	defaultBusCapacity        = 64
)

// Option configures a Graph at construction time.
type Option func(*config)

type config struct {
	unitCapacity       int
	connectionCapacity int
	maxOutputs         int
	scratchBytes       int
	busCapacity        int
}

// WithUnitCapacity overrides the default pool capacity (128) for units.
func WithUnitCapacity(n int) Option { return func(c *config) { c.unitCapacity = n } }

// WithConnectionCapacity overrides the default reserved capacity (256)
// for the connection list.
func WithConnectionCapacity(n int) Option { return func(c *config) { c.connectionCapacity = n } }

// WithMaxOutputs overrides the default reserved capacity (16) for the list
// of sink units. It is not a hard limit: Add still records further sinks
// by growing the list.
func WithMaxOutputs(n int) Option { return func(c *config) { c.maxOutputs = n } }

// WithScratchBytes overrides the default scheduling scratch budget (4 KiB).
func WithScratchBytes(n int) Option { return func(c *config) { c.scratchBytes = n } }

// WithBusCapacity overrides the default number (64) of buses the bus pool
// can hold per block.
func WithBusCapacity(n int) Option { return func(c *config) { c.busCapacity = n } }

// Graph owns a pool of units, their connections, the derived schedule, and
// the bus-buffer pool used to ferry samples between units within a block.
type Graph struct {
	sampleRate   int
	maxBlockSize int

	units       *pool.Pool[Unit]
	connections []Connection
	outputs     []Ref

	schedule        []scheduledUnit
	modCount        uint64
	scheduleValidAt uint64
	valid           bool
	everScheduled   bool

	busCapacity int
	busPool     []float32

	scratchBudget int

	hostInScratch  [][]float32
	hostOutScratch [][]float32
}

// scheduledUnit caches, for one position in the run order, the
// pre-sized input/output bus-slice arrays so that Run only has to rewrite
// slice headers in place (no heap traffic) once a schedule is in force.
type scheduledUnit struct {
	ref Ref

	inputs      [][]float32
	inputBusIDs []int

	outputs      [][]float32
	outputBusIDs []int
}

// New constructs a Graph at the given sample rate and maximum block size.
func New(sampleRate, maxBlockSize int, opts ...Option) *Graph {
	cfg := config{
		unitCapacity:       defaultUnitCapacity,
		connectionCapacity: defaultConnectionCapacity,
		maxOutputs:         defaultMaxOutputs,
		scratchBytes:       defaultScratchBytes,
		busCapacity:        defaultBusCapacity,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	g := &Graph{
		sampleRate:    sampleRate,
		maxBlockSize:  maxBlockSize,
		units:         pool.New[Unit](cfg.unitCapacity),
		connections:   make([]Connection, 0, cfg.connectionCapacity),
		outputs:       make([]Ref, 0, cfg.maxOutputs),
		busCapacity:   cfg.busCapacity,
		busPool:       make([]float32, maxBlockSize*cfg.busCapacity),
		scratchBudget: cfg.scratchBytes / scratchEntryBytes,
		valid:         true, // no sinks yet; an empty graph is valid and silent
	}
	return g
}

// SampleRate returns the graph's configured sample rate.
func (g *Graph) SampleRate() int { return g.sampleRate }

// MaxBlockSize returns the graph's configured maximum block length.
func (g *Graph) MaxBlockSize() int { return g.maxBlockSize }

// Schedule returns the unit refs in their current run order (producers
// before consumers, sinks last). It reflects whatever Reschedule last
// computed; call Reschedule first if the graph may have been mutated.
func (g *Graph) Schedule() []Ref {
	refs := make([]Ref, len(g.schedule))
	for i, su := range g.schedule {
		refs[i] = su.ref
	}
	return refs
}

// Valid reports whether the graph has a usable schedule; Run emits
// silence while this is false.
func (g *Graph) Valid() bool { return g.valid }

// Add inserts u into the pool, assigns its sample rate and block size, and
// (if u.IsOutput) records it as a sink. It may grow the pool.
func (g *Graph) Add(u Unit) (Ref, error) {
	return g.add(u, false)
}

// AddRealTime is like Add but fails with ErrOutOfCapacity instead of
// growing the pool; safe to call from a real-time context.
func (g *Graph) AddRealTime(u Unit) (Ref, error) {
	return g.add(u, true)
}

func (g *Graph) add(u Unit, realTime bool) (Ref, error) {
	u.SampleRate = g.sampleRate
	u.MaxBlockSize = g.maxBlockSize

	var ref Ref
	if realTime {
		r, _, err := g.units.NewRealTime()
		if err != nil {
			return Ref{}, ErrOutOfCapacity
		}
		ref = r
	} else {
		r, _ := g.units.New()
		ref = r
	}

	slot, _ := g.units.Get(ref)
	*slot = u

	if u.IsOutput {
		if len(g.outputs) >= cap(g.outputs) {
			// Still record it; outputs is allowed to exceed its initial
			// reservation, it just means one more allocation here (not on
			// the Run path).
		}
		g.outputs = append(g.outputs, ref)
	}

	g.modCount++
	return ref, nil
}

// Unit resolves ref to its live unit, or (nil, false) if ref is stale.
func (g *Graph) Unit(ref Ref) (*Unit, bool) {
	return g.units.Get(ref)
}

// Connect records a connection from producer to consumer on the given
// input channel of consumer. Self-connections are rejected.
func (g *Graph) Connect(producer, consumer Ref, channel int) error {
	if producer == consumer {
		return ErrFeedbackLoop
	}

	g.connections = append(g.connections, Connection{Producer: producer, Consumer: consumer, Channel: channel})

	if pu, ok := g.units.Get(producer); ok {
		pu.OutputsConnected++
	}
	if cu, ok := g.units.Get(consumer); ok {
		cu.InputsConnected++
	}

	g.modCount++
	return nil
}

// Disconnect removes one matching (producer, consumer, channel) record if
// present; it is a silent no-op otherwise. Per the engine's contract, the
// schedule is invalidated unconditionally, whether or not a match was
// found.
func (g *Graph) Disconnect(producer, consumer Ref, channel int) {
	for i, c := range g.connections {
		if c.Producer == producer && c.Consumer == consumer && c.Channel == channel {
			g.connections = append(g.connections[:i], g.connections[i+1:]...)
			if pu, ok := g.units.Get(producer); ok && pu.OutputsConnected > 0 {
				pu.OutputsConnected--
			}
			if cu, ok := g.units.Get(consumer); ok && cu.InputsConnected > 0 {
				cu.InputsConnected--
			}
			break
		}
	}
	g.modCount++
}

// Remove drops every connection touching u and returns its pool slot.
func (g *Graph) Remove(u Ref) {
	kept := g.connections[:0]
	for _, c := range g.connections {
		if c.Producer == u || c.Consumer == u {
			if pu, ok := g.units.Get(c.Producer); ok && pu.OutputsConnected > 0 {
				pu.OutputsConnected--
			}
			if cu, ok := g.units.Get(c.Consumer); ok && cu.InputsConnected > 0 {
				cu.InputsConnected--
			}
			continue
		}
		kept = append(kept, c)
	}
	g.connections = kept

	for i, o := range g.outputs {
		if o == u {
			g.outputs = append(g.outputs[:i], g.outputs[i+1:]...)
			break
		}
	}

	if slot, ok := g.units.Get(u); ok && slot.Release != nil {
		slot.Release(slot)
	}

	g.units.Delete(u)
	g.modCount++
}
