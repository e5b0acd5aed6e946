package resource

import (
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/ownership/errors"
	"github.com/wippyai/ownership/ptr"
)

// Table maps integer handles to ownership slots so that code which cannot
// hold Go pointers can follow the ptr ownership rules.
//
// Counts change under the table lock. Destructors and observers run after
// the lock is released, so a destructor may call back into the table.
type Table struct {
	slots     *slots
	owners    map[any]Handle
	pending   []cell
	events    []Event
	observers []Observer
	opts      Options
	mu        sync.Mutex
	obsMu     sync.RWMutex
	closed    bool
}

// NewTable creates a table with default options.
func NewTable() *Table {
	return New(DefaultOptions())
}

// New creates a table with the given options.
func New(opts Options) *Table {
	return &Table{
		slots:  newSlots(opts.InitialCapacity),
		owners: make(map[any]Handle),
		opts:   opts,
	}
}

// Options returns the configuration.
func (t *Table) Options() Options {
	return t.opts
}

// Own stores value in an exclusive slot.
func (t *Table) Own(typeID uint32, value any) (Handle, error) {
	return t.create(typeID, value, Exclusive)
}

// Share stores value in a shared slot with a use count of one.
func (t *Table) Share(typeID uint32, value any) (Handle, error) {
	return t.create(typeID, value, Shared)
}

func (t *Table) create(typeID uint32, value any, own Ownership) (Handle, error) {
	if value == nil {
		return 0, errors.InvalidInput(errors.PhaseTable, "cannot own a nil value")
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return 0, errors.Closed(errors.PhaseTable)
	}

	key, tracked := ownerKey(value)
	if tracked && t.opts.DetectDoubleOwnership {
		if existing, ok := t.owners[key]; ok {
			t.mu.Unlock()
			return 0, errors.DoubleOwnership(errors.PhaseTable, fmt.Sprintf("%T", value), uint32(existing))
		}
	}

	c := &cell{value: value, typeID: typeID}
	s := slot{typeID: typeID, ownership: own}
	if own == Exclusive {
		s.unique = ptr.NewUnique(c, t.deleter())
	} else {
		s.shared = ptr.NewShared(c, t.deleter())
	}
	h := t.slots.insert(s)
	if tracked {
		t.owners[key] = h
	}

	t.emit(Event{Type: EventCreated, Handle: h, TypeID: typeID, Value: value, Ownership: own})
	return h, t.unlock()
}

// Clone creates a shared slot co-owning h's referent.
// Exclusive slots cannot be cloned and weak slots must be locked instead.
func (t *Table) Clone(h Handle) (Handle, error) {
	t.mu.Lock()
	s, err := t.lookup(h)
	if err != nil {
		t.mu.Unlock()
		return 0, err
	}

	switch s.ownership {
	case Exclusive:
		t.mu.Unlock()
		return 0, errors.InvalidHandle(errors.PhaseTable, uint32(h), "exclusive handles cannot be cloned")
	case Weak:
		t.mu.Unlock()
		return 0, errors.InvalidHandle(errors.PhaseTable, uint32(h), "weak handles must be locked, not cloned")
	}

	typeID, value := s.typeID, s.cell().value
	nh := t.slots.insert(slot{shared: s.shared.Clone(), typeID: typeID, ownership: Shared})

	t.emit(Event{Type: EventCloned, Handle: nh, Source: h, TypeID: typeID, Value: value, Ownership: Shared})
	return nh, t.unlock()
}

// Transfer moves h's ownership to a new handle. h becomes invalid and
// nothing is destroyed.
func (t *Table) Transfer(h Handle) (Handle, error) {
	t.mu.Lock()
	s, err := t.lookupOwner(h)
	if err != nil {
		t.mu.Unlock()
		return 0, err
	}
	if s.borrows > 0 {
		t.mu.Unlock()
		return 0, errors.OutstandingBorrow(errors.PhaseTable, uint32(h), s.borrows)
	}

	moved := slot{typeID: s.typeID, ownership: s.ownership}
	if s.ownership == Exclusive {
		moved.unique = s.unique.Move()
	} else {
		moved.shared = s.shared.Move()
	}
	nh := t.slots.insert(moved)
	t.slots.remove(h)

	value := moved.cell().value
	if key, ok := ownerKey(value); ok && t.owners[key] == h {
		t.owners[key] = nh
	}

	t.emit(Event{Type: EventTransferred, Handle: nh, Source: h, TypeID: moved.typeID, Value: value, Ownership: moved.ownership})
	return nh, t.unlock()
}

// Downgrade creates a weak slot observing the referent of shared slot h.
func (t *Table) Downgrade(h Handle) (Handle, error) {
	t.mu.Lock()
	s, err := t.lookup(h)
	if err != nil {
		t.mu.Unlock()
		return 0, err
	}
	if s.ownership != Shared {
		t.mu.Unlock()
		return 0, errors.InvalidHandle(errors.PhaseTable, uint32(h), fmt.Sprintf("cannot downgrade %s handle", s.ownership))
	}

	typeID, value := s.typeID, s.cell().value
	nh := t.slots.insert(slot{weak: s.shared.Downgrade(), typeID: typeID, ownership: Weak})

	t.emit(Event{Type: EventDowngraded, Handle: nh, Source: h, TypeID: typeID, Value: value, Ownership: Weak})
	return nh, t.unlock()
}

// Lock creates a shared slot from weak slot w if its referent is still
// alive. The weak slot stays valid either way.
func (t *Table) Lock(w Handle) (Handle, error) {
	t.mu.Lock()
	s, err := t.lookup(w)
	if err != nil {
		t.mu.Unlock()
		return 0, err
	}
	if s.ownership != Weak {
		t.mu.Unlock()
		return 0, errors.InvalidHandle(errors.PhaseTable, uint32(w), fmt.Sprintf("cannot lock %s handle", s.ownership))
	}

	owner := s.weak.Lock()
	if owner.Empty() {
		t.mu.Unlock()
		return 0, errors.Expired(errors.PhaseTable, uint32(w))
	}

	typeID, value := s.typeID, owner.Get().value
	nh := t.slots.insert(slot{shared: owner, typeID: typeID, ownership: Shared})

	t.emit(Event{Type: EventLocked, Handle: nh, Source: w, TypeID: typeID, Value: value, Ownership: Shared})
	return nh, t.unlock()
}

// Drop releases slot h. The referent is destroyed if h was its last owner.
// Any destructor failure is returned after the slot is gone.
func (t *Table) Drop(h Handle) error {
	t.mu.Lock()
	s, err := t.lookup(h)
	if err != nil {
		t.mu.Unlock()
		return err
	}
	if s.borrows > 0 {
		t.mu.Unlock()
		return errors.OutstandingBorrow(errors.PhaseTable, uint32(h), s.borrows)
	}

	t.release(h, s)
	return t.unlock()
}

// Release takes the value out of exclusive slot h without destroying it.
// The caller becomes responsible for the value.
func (t *Table) Release(h Handle) (any, error) {
	t.mu.Lock()
	s, err := t.lookup(h)
	if err != nil {
		t.mu.Unlock()
		return nil, err
	}
	if s.ownership != Exclusive {
		t.mu.Unlock()
		return nil, errors.InvalidHandle(errors.PhaseTable, uint32(h), fmt.Sprintf("cannot release %s handle", s.ownership))
	}
	if s.borrows > 0 {
		t.mu.Unlock()
		return nil, errors.OutstandingBorrow(errors.PhaseTable, uint32(h), s.borrows)
	}

	typeID := s.typeID
	c := s.unique.Release()
	t.slots.remove(h)
	t.forget(c.value)

	t.emit(Event{Type: EventReleased, Handle: h, TypeID: typeID, Value: c.value, Ownership: Exclusive})
	return c.value, t.unlock()
}

// Borrow records temporary non-owning access to h. A borrowed slot cannot be
// dropped, transferred or released until every borrow is returned.
func (t *Table) Borrow(h Handle) error {
	t.mu.Lock()
	s, err := t.lookupOwner(h)
	if err != nil {
		t.mu.Unlock()
		return err
	}
	s.borrows++

	t.emit(Event{Type: EventBorrowed, Handle: h, TypeID: s.typeID, Value: s.cell().value, Ownership: s.ownership})
	return t.unlock()
}

// ReturnBorrow ends one borrow of h.
func (t *Table) ReturnBorrow(h Handle) error {
	t.mu.Lock()
	s, err := t.lookupOwner(h)
	if err != nil {
		t.mu.Unlock()
		return err
	}
	if s.borrows == 0 {
		t.mu.Unlock()
		return errors.InvalidHandle(errors.PhaseTable, uint32(h), "no active borrows")
	}
	s.borrows--

	t.emit(Event{Type: EventBorrowReturned, Handle: h, TypeID: s.typeID, Value: s.cell().value, Ownership: s.ownership})
	return t.unlock()
}

// Get returns the value of an exclusive or shared slot. Weak slots have no
// direct read path; Lock them first.
func (t *Table) Get(h Handle) (any, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.slots.get(h)
	if !ok {
		return nil, false
	}
	c := s.cell()
	if c == nil {
		return nil, false
	}
	return c.value, true
}

// GetTyped is like Get but only succeeds when h holds typeID.
func (t *Table) GetTyped(h Handle, typeID uint32) (any, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.slots.get(h)
	if !ok || s.typeID != typeID {
		return nil, false
	}
	c := s.cell()
	if c == nil {
		return nil, false
	}
	return c.value, true
}

// UseCount returns the number of owners of h's referent: always 1 for
// exclusive slots, the strong count for shared and weak slots.
func (t *Table) UseCount(h Handle) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.slots.get(h)
	if !ok {
		return 0, false
	}
	return s.useCount(), true
}

// Ownership returns how slot h holds its referent.
func (t *Table) Ownership(h Handle) (Ownership, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.slots.get(h)
	if !ok {
		return 0, false
	}
	return s.ownership, true
}

// TypeID returns the type ID slot h was created with.
func (t *Table) TypeID(h Handle) (uint32, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.slots.get(h)
	if !ok {
		return 0, false
	}
	return s.typeID, true
}

// Len returns the number of live slots.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.slots.live
}

// Each iterates over a snapshot of the live slots. Weak slots report a nil
// value. fn may call back into the table.
func (t *Table) Each(fn func(Handle, Ownership, any) bool) {
	type entry struct {
		value     any
		handle    Handle
		ownership Ownership
	}

	t.mu.Lock()
	var snapshot []entry
	t.slots.each(func(h Handle, s *slot) bool {
		e := entry{handle: h, ownership: s.ownership}
		if c := s.cell(); c != nil {
			e.value = c.value
		}
		snapshot = append(snapshot, e)
		return true
	})
	t.mu.Unlock()

	for _, e := range snapshot {
		if !fn(e.handle, e.ownership, e.value) {
			return
		}
	}
}

// Subscribe adds an observer for lifecycle events.
func (t *Table) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *Table) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

// Clear drops every slot, ignoring outstanding borrows.
func (t *Table) Clear() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.releaseAll()
	return t.unlock()
}

// Close drops every slot and stops accepting operations.
// Destructor failures are combined into the returned error.
func (t *Table) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.releaseAll()
	return t.unlock()
}

func (t *Table) releaseAll() {
	// Weak slots first so their control blocks are freed with the referent.
	for _, own := range []Ownership{Weak, Shared, Exclusive} {
		t.slots.each(func(h Handle, s *slot) bool {
			if s.ownership == own {
				t.release(h, s)
			}
			return true
		})
	}
}

// release resets the ptr handle in s and frees the slot. Must hold t.mu.
func (t *Table) release(h Handle, s *slot) {
	e := Event{Type: EventDropped, Handle: h, TypeID: s.typeID, Ownership: s.ownership}
	if c := s.cell(); c != nil {
		e.Value = c.value
		if s.ownership == Shared {
			t.repoint(h, c)
		}
	}

	unique, shared, weak := s.unique, s.shared, s.weak
	t.slots.remove(h)

	switch e.Ownership {
	case Exclusive:
		unique.Reset(nil)
	case Shared:
		shared.Reset()
	case Weak:
		weak.Reset()
	}

	t.emit(e)
}

// deleter queues the referent for destruction once the lock is released.
func (t *Table) deleter() ptr.Option[cell] {
	return ptr.WithDeleter(func(c *cell) {
		t.forget(c.value)
		t.pending = append(t.pending, *c)
	})
}

// repoint moves the double-ownership entry naming h to another shared slot
// still holding c. With none left the deleter forgets the entry instead.
func (t *Table) repoint(h Handle, c *cell) {
	key, ok := ownerKey(c.value)
	if !ok || t.owners[key] != h {
		return
	}
	t.slots.each(func(other Handle, s *slot) bool {
		if other != h && s.ownership == Shared && s.shared.Get() == c {
			t.owners[key] = other
			return false
		}
		return true
	})
}

func (t *Table) forget(value any) {
	if key, ok := ownerKey(value); ok {
		delete(t.owners, key)
	}
}

func (t *Table) lookup(h Handle) (*slot, error) {
	if t.closed {
		return nil, errors.Closed(errors.PhaseTable)
	}
	s, ok := t.slots.get(h)
	if !ok {
		return nil, errors.InvalidHandle(errors.PhaseTable, uint32(h), "unknown or dropped handle")
	}
	return s, nil
}

func (t *Table) lookupOwner(h Handle) (*slot, error) {
	s, err := t.lookup(h)
	if err != nil {
		return nil, err
	}
	if s.ownership == Weak {
		return nil, errors.InvalidHandle(errors.PhaseTable, uint32(h), "weak handles do not own their referent")
	}
	return s, nil
}

func (t *Table) emit(e Event) {
	t.events = append(t.events, e)
}

// unlock releases t.mu, then runs queued destructors and delivers queued
// events. Must be called with t.mu held.
func (t *Table) unlock() error {
	destroyed := t.pending
	events := t.events
	t.pending = nil
	t.events = nil
	t.mu.Unlock()

	for _, e := range events {
		t.notify(e)
	}

	var err error
	for _, c := range destroyed {
		err = multierr.Append(err, runDestructor(c))
		t.notify(Event{Type: EventDestroyed, TypeID: c.typeID, Value: c.value})
	}
	return err
}

func runDestructor(c cell) (err error) {
	d, ok := c.value.(Dropper)
	if !ok {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			Logger().Warn("destructor panicked",
				zap.String("type", fmt.Sprintf("%T", c.value)),
				zap.Any("panic", r))
			err = errors.DestructorPanic(errors.PhaseTable, 0, r)
		}
	}()

	Logger().Debug("running destructor", zap.String("type", fmt.Sprintf("%T", c.value)), zap.Uint32("type_id", c.typeID))
	d.Drop()
	return nil
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnResourceEvent(e)
	}
}

// ownerKey returns the identity used for double-ownership detection.
// Only non-nil pointers have one.
func ownerKey(value any) (any, bool) {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return nil, false
	}
	return value, true
}
