package resource

import "github.com/wippyai/ownership/ptr"

// cell is the referent the table's ptr handles manage. It carries the
// caller's value so one table can hold values of any type.
type cell struct {
	value  any
	typeID uint32
}

type slot struct {
	unique    *ptr.Unique[cell]
	shared    *ptr.Shared[cell]
	weak      *ptr.Weak[cell]
	typeID    uint32
	borrows   uint32
	ownership Ownership
	valid     bool
}

func (s *slot) cell() *cell {
	switch s.ownership {
	case Exclusive:
		return s.unique.Get()
	case Shared:
		return s.shared.Get()
	default:
		return nil
	}
}

func (s *slot) useCount() int {
	switch s.ownership {
	case Exclusive:
		if s.unique.Empty() {
			return 0
		}
		return 1
	case Shared:
		return s.shared.UseCount()
	case Weak:
		return s.weak.UseCount()
	default:
		return 0
	}
}

// slots is handle-indexed storage with a free list. Handle n lives at
// index n-1. Not synchronized; the Table holds its lock around every call.
type slots struct {
	entries  []slot
	freeList []Handle
	live     int
}

func newSlots(capacity int) *slots {
	if capacity < 0 {
		capacity = 0
	}
	return &slots{
		entries:  make([]slot, 0, capacity),
		freeList: make([]Handle, 0, capacity/4),
	}
}

func (s *slots) insert(e slot) Handle {
	e.valid = true
	s.live++

	if len(s.freeList) > 0 {
		handle := s.freeList[len(s.freeList)-1]
		s.freeList = s.freeList[:len(s.freeList)-1]
		s.entries[handle-1] = e
		return handle
	}

	s.entries = append(s.entries, e)
	return Handle(len(s.entries))
}

func (s *slots) get(handle Handle) (*slot, bool) {
	if handle == 0 {
		return nil, false
	}
	idx := int(handle - 1)
	if idx >= len(s.entries) {
		return nil, false
	}
	e := &s.entries[idx]
	if !e.valid {
		return nil, false
	}
	return e, true
}

// remove invalidates a slot without touching the handle it held.
func (s *slots) remove(handle Handle) {
	e, ok := s.get(handle)
	if !ok {
		return
	}
	*e = slot{}
	s.live--
	s.freeList = append(s.freeList, handle)
}

func (s *slots) each(fn func(Handle, *slot) bool) {
	for i := range s.entries {
		if s.entries[i].valid {
			if !fn(Handle(i+1), &s.entries[i]) {
				break
			}
		}
	}
}
