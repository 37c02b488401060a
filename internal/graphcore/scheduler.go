package graphcore

// scratchEntryBytes approximates the size of one scheduling scratch entry
// (a queue/order slot plus its bookkeeping); used to translate the
// graph's configured scratch byte budget into an entry-count ceiling.
const scratchEntryBytes = 32

type channelKey struct {
	unit Ref
	ch   int
}

// Reschedule recomputes the run order and per-(unit,channel) bus ids by a
// reverse breadth-first traversal rooted at the sinks. If the
// modification counter has not changed since the last successful
// Reschedule, it is a no-op. On failure the previous schedule is left
// untouched.
func (g *Graph) Reschedule() error {
	if g.everScheduled && g.modCount == g.scheduleValidAt {
		return nil
	}

	schedule, err := g.computeSchedule()
	if err != nil {
		if !g.everScheduled {
			g.valid = false
			return ErrInvalidGraph
		}
		return err
	}

	g.schedule = schedule
	g.scheduleValidAt = g.modCount
	g.everScheduled = true
	g.valid = true
	return nil
}

func (g *Graph) computeSchedule() ([]scheduledUnit, error) {
	seen := make(map[Ref]bool, len(g.outputs)*4)
	busIDOf := make(map[channelKey]int, g.busCapacity)
	var order []Ref
	var queue []Ref

	budget := g.scratchBudget
	if budget <= 0 {
		budget = 1
	}

	enqueue := func(r Ref) error {
		if seen[r] {
			return nil
		}
		if len(order) >= budget {
			return ErrOutOfCapacity
		}
		seen[r] = true
		order = append(order, r)
		queue = append(queue, r)
		return nil
	}

	for _, sink := range g.outputs {
		if err := enqueue(sink); err != nil {
			return nil, err
		}
	}

	nextBusID := 0

	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]

		unit, ok := g.units.Get(u)
		if !ok {
			continue
		}

		var usedChannels [MaxPorts]bool
		for _, c := range g.connections {
			if c.Consumer == u && c.Channel >= 0 && c.Channel < MaxPorts {
				usedChannels[c.Channel] = true
			}
		}

		for ch := 0; ch < MaxPorts; ch++ {
			if !usedChannels[ch] {
				continue
			}
			key := channelKey{unit: u, ch: ch}
			if _, ok := busIDOf[key]; !ok {
				if nextBusID >= g.busCapacity {
					return nil, ErrOutOfCapacity
				}
				busIDOf[key] = nextBusID
				nextBusID++
			}
			unit.BusIDs[ch] = busIDOf[key]

			for _, c := range g.connections {
				if c.Consumer == u && c.Channel == ch {
					if err := enqueue(c.Producer); err != nil {
						return nil, err
					}
				}
			}
		}
	}

	reverse(order)

	return g.buildScheduledUnits(order, busIDOf)
}

func reverse(refs []Ref) {
	for i, j := 0, len(refs)-1; i < j; i, j = i+1, j-1 {
		refs[i], refs[j] = refs[j], refs[i]
	}
}

// buildScheduledUnits pre-sizes the per-unit input/output bus-slice arrays
// so the block runner never allocates. This is the one place in
// scheduling that may allocate freely; it never runs on the audio path.
func (g *Graph) buildScheduledUnits(order []Ref, busIDOf map[channelKey]int) ([]scheduledUnit, error) {
	result := make([]scheduledUnit, 0, len(order))

	for _, ref := range order {
		unit, ok := g.units.Get(ref)
		if !ok {
			continue
		}

		su := scheduledUnit{ref: ref}

		for ch := 0; ch < MaxPorts; ch++ {
			if id, ok := busIDOf[channelKey{unit: ref, ch: ch}]; ok {
				su.inputBusIDs = append(su.inputBusIDs, id)
				su.inputs = append(su.inputs, nil)
			}
		}

		if !unit.IsOutput {
			seenEdges := make(map[channelKey]bool)
			for _, c := range g.connections {
				if c.Producer != ref {
					continue
				}
				key := channelKey{unit: c.Consumer, ch: c.Channel}
				if seenEdges[key] {
					continue
				}
				id, ok := busIDOf[key]
				if !ok {
					continue
				}
				seenEdges[key] = true
				su.outputBusIDs = append(su.outputBusIDs, id)
				su.outputs = append(su.outputs, nil)
			}
		}

		result = append(result, su)
	}

	return result, nil
}
