// Package pool implements a fixed-capacity object allocator with a free
// list. Once a slot is handed out its address never moves, even when the
// pool grows: new capacity is appended as an additional backing block
// rather than by reallocating the existing ones.
package pool

import "errors"

// ErrOutOfCapacity is returned by NewRealTime when the pool has no free
// slot and must not grow.
var ErrOutOfCapacity = errors.New("pool: out of capacity")

// Ref is a stable, generation-checked handle to a pooled value. The zero
// Ref never refers to a live slot.
type Ref struct {
	index int32
	gen    uint32
}

// Valid reports whether r was ever minted by a pool (does not by itself
// guarantee the slot is still live; use Pool.Get for that).
func (r Ref) Valid() bool { return r.gen != 0 }

type slotMeta struct {
	gen      uint32
	inUse    bool
	nextFree int32
}

// Pool is a fixed-capacity arena for values of type T. Slots are carved out
// of fixed-size blocks; a block, once allocated, is never resized or
// copied, so pointers returned by Get/New remain valid until Delete.
type Pool[T any] struct {
	blocks   [][]T
	blockCap int
	meta     []slotMeta
	freeHead int32 // -1 means empty
	live     int
}

const noFree = int32(-1)

// New builds a pool eagerly materialised with capacity slots, all on the
// free list (mirrors init_with_capacity).
func New[T any](capacity int) *Pool[T] {
	if capacity < 1 {
		capacity = 1
	}
	p := &Pool[T]{blockCap: capacity, freeHead: noFree}
	p.addBlock(capacity)
	return p
}

func (p *Pool[T]) addBlock(n int) {
	block := make([]T, n)
	base := int32(len(p.meta))
	p.blocks = append(p.blocks, block)
	for i := 0; i < n; i++ {
		p.meta = append(p.meta, slotMeta{gen: 1, nextFree: p.freeHead})
		p.freeHead = base + int32(i)
	}
}

func (p *Pool[T]) slot(index int32) *T {
	remaining := index
	for _, b := range p.blocks {
		if int(remaining) < len(b) {
			return &b[remaining]
		}
		remaining -= int32(len(b))
	}
	return nil
}

// New pops the head of the free list, growing the arena with a new block
// if none is free (the non-real-time entry point).
func (p *Pool[T]) New() (Ref, *T) {
	if p.freeHead == noFree {
		p.addBlock(p.blockCap)
	}
	return p.take()
}

// NewRealTime pops the head of the free list and fails with
// ErrOutOfCapacity instead of growing; safe to call from the audio path
// because it never allocates.
func (p *Pool[T]) NewRealTime() (Ref, *T, error) {
	if p.freeHead == noFree {
		return Ref{}, nil, ErrOutOfCapacity
	}
	ref, v := p.take()
	return ref, v, nil
}

func (p *Pool[T]) take() (Ref, *T) {
	idx := p.freeHead
	m := &p.meta[idx]
	p.freeHead = m.nextFree
	m.inUse = true
	m.nextFree = noFree
	p.live++
	return Ref{index: idx, gen: m.gen}, p.slot(idx)
}

// Delete pushes the slot back onto the free list. Other live refs are
// unaffected; stale refs to this slot will fail Get because the
// generation counter advances.
func (p *Pool[T]) Delete(r Ref) {
	if int(r.index) < 0 || int(r.index) >= len(p.meta) {
		return
	}
	m := &p.meta[r.index]
	if !m.inUse || m.gen != r.gen {
		return
	}
	var zero T
	if v := p.slot(r.index); v != nil {
		*v = zero
	}
	m.inUse = false
	m.gen++
	m.nextFree = p.freeHead
	p.freeHead = r.index
	p.live--
}

// Get returns the live value for r, or (nil, false) if r is stale or was
// never issued by this pool.
func (p *Pool[T]) Get(r Ref) (*T, bool) {
	if int(r.index) < 0 || int(r.index) >= len(p.meta) {
		return nil, false
	}
	m := &p.meta[r.index]
	if !m.inUse || m.gen != r.gen {
		return nil, false
	}
	return p.slot(r.index), true
}

// Len returns the number of currently live slots.
func (p *Pool[T]) Len() int { return p.live }

// Cap returns the total number of slots materialised so far (across all
// blocks), i.e. the high-water mark the pool can hand out without
// growing.
func (p *Pool[T]) Cap() int { return len(p.meta) }
