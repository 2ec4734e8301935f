package halfedge

import "fmt"

type slotState uint8

const (
	slotFree slotState = iota
	slotLive
	slotErased
)

type slot[T any] struct {
	rec   T
	gen   uint32
	state slotState
}

// arena stores records of one element kind. Freed slots are recycled with a
// bumped generation so stale handles never resolve to the new occupant.
type arena[T any] struct {
	kind  string
	slots []slot[T]
	free  []uint32
	live  int
}

func (a *arena[T]) alloc(rec T) handle {
	a.live++
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		s := &a.slots[idx]
		s.gen++
		s.state = slotLive
		s.rec = rec
		return handle{idx: idx, gen: s.gen}
	}
	a.slots = append(a.slots, slot[T]{rec: rec, gen: 1, state: slotLive})
	return handle{idx: uint32(len(a.slots) - 1), gen: 1}
}

// lookup resolves h to its slot. Erased slots resolve; freed or recycled
// slots do not.
func (a *arena[T]) lookup(h handle) (*slot[T], bool) {
	if h.gen == 0 || int(h.idx) >= len(a.slots) {
		return nil, false
	}
	s := &a.slots[h.idx]
	if s.gen != h.gen || s.state == slotFree {
		return nil, false
	}
	return s, true
}

func (a *arena[T]) get(h handle) *T {
	s, ok := a.lookup(h)
	if !ok {
		panic(fmt.Sprintf("halfedge: stale %s handle %d#%d", a.kind, h.idx, h.gen))
	}
	return &s.rec
}

func (a *arena[T]) alive(h handle) bool {
	s, ok := a.lookup(h)
	return ok && s.state == slotLive
}

func (a *arena[T]) erased(h handle) bool {
	s, ok := a.lookup(h)
	return ok && s.state == slotErased
}

// erase marks h for removal. Calling it again, or on a stale handle, is a
// no-op.
func (a *arena[T]) erase(h handle) {
	s, ok := a.lookup(h)
	if !ok || s.state != slotLive {
		return
	}
	s.state = slotErased
	a.live--
}

// compact frees every erased slot and returns how many were freed.
func (a *arena[T]) compact() int {
	var zero T
	n := 0
	for i := range a.slots {
		s := &a.slots[i]
		if s.state != slotErased {
			continue
		}
		s.state = slotFree
		s.rec = zero
		a.free = append(a.free, uint32(i))
		n++
	}
	return n
}

func (a *arena[T]) pending() int {
	n := 0
	for i := range a.slots {
		if a.slots[i].state == slotErased {
			n++
		}
	}
	return n
}

// reset frees every slot, keeping generations, so that the next allocations
// fill slots in ascending order and old handles stop resolving.
func (a *arena[T]) reset() {
	var zero T
	a.free = a.free[:0]
	for i := len(a.slots) - 1; i >= 0; i-- {
		a.slots[i].state = slotFree
		a.slots[i].rec = zero
		a.free = append(a.free, uint32(i))
	}
	a.live = 0
}

// handles returns the live, non-erased handles in slot order.
func (a *arena[T]) handles() []handle {
	out := make([]handle, 0, a.live)
	for i := range a.slots {
		if a.slots[i].state == slotLive {
			out = append(out, handle{idx: uint32(i), gen: a.slots[i].gen})
		}
	}
	return out
}

func (a *arena[T]) clone() arena[T] {
	return arena[T]{
		kind:  a.kind,
		slots: append([]slot[T](nil), a.slots...),
		free:  append([]uint32(nil), a.free...),
		live:  a.live,
	}
}
