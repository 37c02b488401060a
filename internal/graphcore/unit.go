package graphcore

import "unsafe"

// StateSize is the number of bytes of opaque storage each Unit carries
// inline for its concrete implementation's private state. Concrete units
// (see package units) cast a pointer into this array to their own struct
// rather than allocating on the heap, so the graph can keep units in a
// single pool-backed arena.
const StateSize = 128

// MaxPorts bounds the number of input or output ports a single unit may
// declare.
const MaxPorts = 16

// RunFunc processes exactly one block of audio for a unit. inputs[i] is
// the already-mixed bus for input port i; outputs[j] is the bus the unit
// must add its contribution to (buses start zeroed each block).
type RunFunc func(u *Unit, time int64, inputs [][]float32, outputs [][]float32)

// Unit is one node of the graph. Its address is stable for as long as it
// remains in the graph's pool, so the *Unit that Graph.Unit resolves from a
// Ref (see graph.go), and the typed setter handles built on it in package
// units, stay valid until Remove.
type Unit struct {
	Name         string
	IsOutput     bool
	SampleRate   int
	MaxBlockSize int
	MaxInputs    int
	MaxOutputs   int

	InputsConnected  int
	OutputsConnected int

	// BusIDs[ch] is the bus assigned to input channel ch by the last
	// successful Reschedule; meaningful only for channels actually used
	// by a connection.
	BusIDs [MaxPorts]int

	Run RunFunc

	// Release, if set, is invoked once by Graph.Remove before the unit's
	// pool slot is reused, so a unit holding a resource outside its
	// opaque state area (see StatePtr) can free it. Units with no such
	// resource leave this nil.
	Release func(*Unit)

	state [StateSize]byte
}

// StatePtr exposes the opaque state area for casting by the concrete unit
// package that built this Unit.
func (u *Unit) StatePtr() unsafe.Pointer {
	return unsafe.Pointer(&u.state[0])
}

// StateOf returns a typed view over u's opaque state area. T must fit
// within StateSize; concrete unit packages assert this with a package
// level var initializer that panics at init (see units.checkStateSize).
func StateOf[T any](u *Unit) *T {
	return (*T)(u.StatePtr())
}
