package resource

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	ownerrors "github.com/wippyai/ownership/errors"
)

type testObserver struct {
	events []Event
}

func (o *testObserver) OnResourceEvent(e Event) {
	o.events = append(o.events, e)
}

func (o *testObserver) types() []EventType {
	out := make([]EventType, len(o.events))
	for i, e := range o.events {
		out[i] = e.Type
	}
	return out
}

type item struct {
	onDrop func()
	name   string
	drops  int
}

func (i *item) Drop() {
	i.drops++
	if i.onDrop != nil {
		i.onDrop()
	}
}

func TestTable_OwnAndDrop(t *testing.T) {
	table := NewTable()
	v := &item{name: "a"}

	h, err := table.Own(1, v)
	if err != nil {
		t.Fatalf("Own failed: %v", err)
	}
	if h == 0 {
		t.Fatal("Expected non-zero handle")
	}

	got, ok := table.Get(h)
	if !ok || got != v {
		t.Fatalf("Expected %v, got %v", v, got)
	}
	if _, ok := table.GetTyped(h, 1); !ok {
		t.Fatal("GetTyped with correct type failed")
	}
	if _, ok := table.GetTyped(h, 2); ok {
		t.Fatal("GetTyped with wrong type should fail")
	}
	if n, _ := table.UseCount(h); n != 1 {
		t.Fatalf("Expected UseCount 1, got %d", n)
	}
	if own, _ := table.Ownership(h); own != Exclusive {
		t.Fatalf("Expected own, got %s", own)
	}

	if err := table.Drop(h); err != nil {
		t.Fatalf("Drop failed: %v", err)
	}
	if v.drops != 1 {
		t.Fatalf("Expected 1 drop, got %d", v.drops)
	}
	if table.Len() != 0 {
		t.Fatal("Expected Len() == 0 after Drop")
	}
	if err := table.Drop(h); !errors.Is(err, ownerrors.ErrInvalidHandle) {
		t.Fatalf("Expected invalid handle on second Drop, got %v", err)
	}
	if v.drops != 1 {
		t.Fatal("Value destroyed twice")
	}
}

func TestTable_NilValue(t *testing.T) {
	table := NewTable()
	if _, err := table.Own(1, nil); !errors.Is(err, ownerrors.ErrInvalidInput) {
		t.Fatalf("Expected invalid input, got %v", err)
	}
}

func TestTable_SharedLifecycle(t *testing.T) {
	table := NewTable()
	v := &item{name: "shared"}

	a, err := table.Share(1, v)
	if err != nil {
		t.Fatalf("Share failed: %v", err)
	}
	b, err := table.Clone(a)
	if err != nil {
		t.Fatalf("Clone failed: %v", err)
	}
	c, err := table.Clone(b)
	if err != nil {
		t.Fatalf("Clone failed: %v", err)
	}

	for _, h := range []Handle{a, b, c} {
		if n, _ := table.UseCount(h); n != 3 {
			t.Fatalf("Expected UseCount 3 for %d, got %d", h, n)
		}
	}

	if err := table.Drop(a); err != nil {
		t.Fatal(err)
	}
	if err := table.Drop(c); err != nil {
		t.Fatal(err)
	}
	if v.drops != 0 {
		t.Fatal("Value destroyed while an owner remains")
	}
	if n, _ := table.UseCount(b); n != 1 {
		t.Fatalf("Expected UseCount 1, got %d", n)
	}

	if err := table.Drop(b); err != nil {
		t.Fatal(err)
	}
	if v.drops != 1 {
		t.Fatalf("Expected 1 drop, got %d", v.drops)
	}
}

func TestTable_CloneRules(t *testing.T) {
	table := NewTable()
	own, _ := table.Own(1, &item{})
	shared, _ := table.Share(1, &item{})
	weak, _ := table.Downgrade(shared)

	tests := []struct {
		name string
		h    Handle
	}{
		{"exclusive", own},
		{"weak", weak},
		{"unknown", 999},
		{"zero", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := table.Clone(tt.h); !errors.Is(err, ownerrors.ErrInvalidHandle) {
				t.Fatalf("Expected invalid handle, got %v", err)
			}
		})
	}
}

func TestTable_WeakLock(t *testing.T) {
	table := NewTable()
	v := &item{name: "observed"}

	s, _ := table.Share(1, v)
	w, err := table.Downgrade(s)
	if err != nil {
		t.Fatalf("Downgrade failed: %v", err)
	}
	if own, _ := table.Ownership(w); own != Weak {
		t.Fatalf("Expected weak, got %s", own)
	}
	if _, ok := table.Get(w); ok {
		t.Fatal("Weak handles should not expose their value")
	}
	if n, _ := table.UseCount(w); n != 1 {
		t.Fatalf("Expected UseCount 1 through weak, got %d", n)
	}

	locked, err := table.Lock(w)
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}
	if n, _ := table.UseCount(s); n != 2 {
		t.Fatalf("Expected UseCount 2 after Lock, got %d", n)
	}
	got, _ := table.Get(locked)
	if got != v {
		t.Fatal("Locked handle should reach the same value")
	}

	table.Drop(s)
	table.Drop(locked)
	if v.drops != 1 {
		t.Fatalf("Expected 1 drop, got %d", v.drops)
	}

	if _, err := table.Lock(w); !errors.Is(err, ownerrors.ErrExpired) {
		t.Fatalf("Expected expired, got %v", err)
	}
	if n, ok := table.UseCount(w); !ok || n != 0 {
		t.Fatalf("Expected valid weak handle with UseCount 0, got %d %v", n, ok)
	}
	if err := table.Drop(w); err != nil {
		t.Fatalf("Drop of expired weak failed: %v", err)
	}
}

func TestTable_DowngradeRequiresShared(t *testing.T) {
	table := NewTable()
	h, _ := table.Own(1, &item{})
	if _, err := table.Downgrade(h); !errors.Is(err, ownerrors.ErrInvalidHandle) {
		t.Fatalf("Expected invalid handle, got %v", err)
	}
	if _, err := table.Lock(h); !errors.Is(err, ownerrors.ErrInvalidHandle) {
		t.Fatalf("Expected invalid handle, got %v", err)
	}
}

func TestTable_Transfer(t *testing.T) {
	table := NewTable()
	v := &item{}

	h, _ := table.Own(1, v)
	moved, err := table.Transfer(h)
	if err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}
	if moved == h {
		t.Fatal("Transfer should return a fresh handle")
	}
	if _, ok := table.Get(h); ok {
		t.Fatal("Source handle should be invalid after Transfer")
	}
	if v.drops != 0 {
		t.Fatal("Transfer must not destroy")
	}
	got, ok := table.Get(moved)
	if !ok || got != v {
		t.Fatal("Transferred handle should hold the value")
	}
	if table.Len() != 1 {
		t.Fatalf("Expected Len() == 1, got %d", table.Len())
	}

	// The moved handle still detects double ownership.
	if _, err := table.Own(1, v); !errors.Is(err, ownerrors.ErrDoubleOwnership) {
		t.Fatalf("Expected double ownership, got %v", err)
	}
}

func TestTable_Release(t *testing.T) {
	table := NewTable()
	v := &item{}

	h, _ := table.Own(1, v)
	got, err := table.Release(h)
	if err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if got != v || v.drops != 0 {
		t.Fatal("Release should hand the value back undestroyed")
	}
	if _, ok := table.Get(h); ok {
		t.Fatal("Released handle should be invalid")
	}

	// Released values may be owned again.
	if _, err := table.Own(1, v); err != nil {
		t.Fatalf("Own after Release failed: %v", err)
	}

	s, _ := table.Share(1, &item{})
	if _, err := table.Release(s); !errors.Is(err, ownerrors.ErrInvalidHandle) {
		t.Fatalf("Expected invalid handle for shared release, got %v", err)
	}
}

func TestTable_DoubleOwnership(t *testing.T) {
	v := &item{}

	table := NewTable()
	first, _ := table.Own(1, v)
	_, err := table.Share(1, v)
	if !errors.Is(err, ownerrors.ErrDoubleOwnership) {
		t.Fatalf("Expected double ownership, got %v", err)
	}
	var oe *ownerrors.Error
	if !errors.As(err, &oe) || oe.Handle != uint32(first) {
		t.Fatalf("Expected error to name handle %d, got %v", first, err)
	}

	table.Drop(first)
	if _, err := table.Share(1, v); err != nil {
		t.Fatalf("Share after Drop failed: %v", err)
	}

	// Non-pointer values are never tracked.
	if _, err := table.Own(1, "same"); err != nil {
		t.Fatal(err)
	}
	if _, err := table.Own(1, "same"); err != nil {
		t.Fatal(err)
	}

	loose := New(Options{DetectDoubleOwnership: false})
	w := &item{}
	loose.Own(1, w)
	if _, err := loose.Own(1, w); err != nil {
		t.Fatalf("Detection disabled, got %v", err)
	}
}

func TestTable_DoubleOwnershipNamesLiveHandle(t *testing.T) {
	v := &item{}

	table := NewTable()
	first, _ := table.Share(1, v)
	clone, err := table.Clone(first)
	if err != nil {
		t.Fatal(err)
	}
	if err := table.Drop(first); err != nil {
		t.Fatal(err)
	}

	_, err = table.Own(1, v)
	var oe *ownerrors.Error
	if !errors.As(err, &oe) || oe.Kind != ownerrors.KindDoubleOwnership {
		t.Fatalf("Expected double ownership, got %v", err)
	}
	if oe.Handle != uint32(clone) {
		t.Fatalf("Expected error to name surviving handle %d, got %d", clone, oe.Handle)
	}

	table.Drop(clone)
	if v.drops != 1 {
		t.Fatalf("Expected 1 drop, got %d", v.drops)
	}
	if _, err := table.Own(1, v); err != nil {
		t.Fatalf("Own after last owner dropped failed: %v", err)
	}
}

func TestTable_Borrow(t *testing.T) {
	table := NewTable()
	v := &item{}
	h, _ := table.Own(1, v)

	if err := table.Borrow(h); err != nil {
		t.Fatalf("Borrow failed: %v", err)
	}
	if err := table.Borrow(h); err != nil {
		t.Fatalf("Second borrow failed: %v", err)
	}

	err := table.Drop(h)
	if !errors.Is(err, ownerrors.ErrOutstandingBorrow) {
		t.Fatalf("Expected outstanding borrow, got %v", err)
	}
	if _, err := table.Transfer(h); !errors.Is(err, ownerrors.ErrOutstandingBorrow) {
		t.Fatalf("Expected outstanding borrow on transfer, got %v", err)
	}
	if _, err := table.Release(h); !errors.Is(err, ownerrors.ErrOutstandingBorrow) {
		t.Fatalf("Expected outstanding borrow on release, got %v", err)
	}

	table.ReturnBorrow(h)
	table.ReturnBorrow(h)
	if err := table.ReturnBorrow(h); !errors.Is(err, ownerrors.ErrInvalidHandle) {
		t.Fatalf("Expected unbalanced return to fail, got %v", err)
	}
	if err := table.Drop(h); err != nil {
		t.Fatalf("Drop after returns failed: %v", err)
	}
	if v.drops != 1 {
		t.Fatalf("Expected 1 drop, got %d", v.drops)
	}

	s, _ := table.Share(1, &item{})
	w, _ := table.Downgrade(s)
	if err := table.Borrow(w); !errors.Is(err, ownerrors.ErrInvalidHandle) {
		t.Fatalf("Expected weak borrow to fail, got %v", err)
	}
}

func TestTable_Observer(t *testing.T) {
	table := NewTable()
	obs := &testObserver{}
	table.Subscribe(obs)

	s, _ := table.Share(1, &item{})
	c, _ := table.Clone(s)
	w, _ := table.Downgrade(c)
	table.Drop(s)
	table.Drop(c)
	table.Drop(w)

	want := []EventType{
		EventCreated,
		EventCloned,
		EventDowngraded,
		EventDropped,
		EventDropped,
		EventDestroyed,
		EventDropped,
	}
	if diff := cmp.Diff(want, obs.types()); diff != "" {
		t.Fatalf("event mismatch (-want +got):\n%s", diff)
	}
	if obs.events[1].Source != s || obs.events[1].Handle != c {
		t.Fatalf("Clone event should link %d -> %d", s, c)
	}

	table.Unsubscribe(obs)
	table.Own(1, &item{})
	if len(obs.events) != len(want) {
		t.Fatal("Should not receive events after Unsubscribe")
	}
}

func TestTable_DestructorReentry(t *testing.T) {
	table := NewTable()

	child := &item{name: "child"}
	ch, _ := table.Own(1, child)

	parent := &item{name: "parent"}
	parent.onDrop = func() {
		if err := table.Drop(ch); err != nil {
			t.Errorf("Drop from destructor failed: %v", err)
		}
	}
	ph, _ := table.Own(1, parent)

	if err := table.Drop(ph); err != nil {
		t.Fatalf("Drop failed: %v", err)
	}
	if parent.drops != 1 || child.drops != 1 {
		t.Fatalf("Expected cascade, got parent=%d child=%d", parent.drops, child.drops)
	}
	if table.Len() != 0 {
		t.Fatalf("Expected empty table, got %d", table.Len())
	}
}

func TestTable_DestructorPanic(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	prev := Logger()
	SetLogger(zap.New(core))
	defer SetLogger(prev)

	table := NewTable()
	bad := &item{onDrop: func() { panic("boom") }}
	h, _ := table.Own(1, bad)

	err := table.Drop(h)
	if !errors.Is(err, ownerrors.ErrDestructorPanic) {
		t.Fatalf("Expected destructor panic, got %v", err)
	}
	if table.Len() != 0 {
		t.Fatal("Slot should be gone even when the destructor panics")
	}
	if logs.FilterMessage("destructor panicked").Len() != 1 {
		t.Fatal("Expected a warning for the panic")
	}
}

func TestTable_Clear(t *testing.T) {
	table := NewTable()
	values := []*item{{name: "a"}, {name: "b"}, {name: "c"}}

	table.Own(1, values[0])
	s, _ := table.Share(1, values[1])
	table.Clone(s)
	table.Downgrade(s)
	h, _ := table.Own(1, values[2])
	table.Borrow(h)

	if table.Len() != 5 {
		t.Fatalf("Expected Len() == 5, got %d", table.Len())
	}

	if err := table.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if table.Len() != 0 {
		t.Fatal("Expected Len() == 0 after Clear")
	}
	for _, v := range values {
		if v.drops != 1 {
			t.Fatalf("Expected %s dropped once, got %d", v.name, v.drops)
		}
	}

	// The table stays usable.
	if _, err := table.Own(1, &item{}); err != nil {
		t.Fatalf("Own after Clear failed: %v", err)
	}
}

func TestTable_Close(t *testing.T) {
	table := NewTable()

	a := &item{onDrop: func() { panic("a") }}
	b := &item{onDrop: func() { panic("b") }}
	table.Own(1, a)
	table.Own(1, b)

	err := table.Close()
	if got := len(multierr.Errors(err)); got != 2 {
		t.Fatalf("Expected 2 combined errors, got %d: %v", got, err)
	}

	if err := table.Close(); err != nil {
		t.Fatalf("Second Close should be a no-op: %v", err)
	}
	if _, err := table.Own(1, &item{}); !errors.Is(err, ownerrors.ErrClosed) {
		t.Fatalf("Expected closed, got %v", err)
	}
	if err := table.Drop(1); !errors.Is(err, ownerrors.ErrClosed) {
		t.Fatalf("Expected closed, got %v", err)
	}
}

func TestTable_Each(t *testing.T) {
	table := NewTable()
	table.Own(1, "a")
	s, _ := table.Share(1, "b")
	table.Downgrade(s)

	var seen []Ownership
	table.Each(func(h Handle, own Ownership, value any) bool {
		seen = append(seen, own)
		// Each runs outside the lock.
		table.Get(h)
		return true
	})
	if diff := cmp.Diff([]Ownership{Exclusive, Shared, Weak}, seen); diff != "" {
		t.Fatalf("ownership mismatch (-want +got):\n%s", diff)
	}

	count := 0
	table.Each(func(Handle, Ownership, any) bool {
		count++
		return false
	})
	if count != 1 {
		t.Fatalf("Expected early stop after 1, got %d", count)
	}
}

func TestTable_HandleReuse(t *testing.T) {
	table := NewTable()
	h1, _ := table.Own(1, "a")
	table.Drop(h1)
	h2, _ := table.Own(1, "b")
	if h2 != h1 {
		t.Fatalf("Expected handle %d to be reused, got %d", h1, h2)
	}
}

func TestTable_Concurrent(t *testing.T) {
	table := NewTable()
	v := &item{}
	root, _ := table.Share(1, v)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c, err := table.Clone(root)
				if err != nil {
					t.Error(err)
					return
				}
				w, _ := table.Downgrade(c)
				if l, err := table.Lock(w); err == nil {
					table.Drop(l)
				}
				table.Drop(w)
				table.Drop(c)
			}
		}()
	}
	wg.Wait()

	if n, _ := table.UseCount(root); n != 1 {
		t.Fatalf("Expected UseCount 1, got %d", n)
	}
	table.Drop(root)
	if v.drops != 1 {
		t.Fatalf("Expected 1 drop, got %d", v.drops)
	}
}

func TestTyped(t *testing.T) {
	table := NewTable()
	items := NewTyped[item](table, 7)
	other := NewTyped[item](table, 8)

	v := &item{name: "typed"}
	h, err := items.Own(v)
	if err != nil {
		t.Fatal(err)
	}
	if got, ok := items.Get(h); !ok || got != v {
		t.Fatal("Typed Get failed")
	}
	if _, ok := other.Get(h); ok {
		t.Fatal("Other type ID should not see the value")
	}
	if ok, _ := other.Drop(h); ok {
		t.Fatal("Other type ID should not drop the value")
	}

	s, _ := items.Share(&item{name: "shared"})
	table.Own(7, "not an item")

	var names []string
	items.Each(func(_ Handle, it *item) bool {
		names = append(names, it.name)
		return true
	})
	if diff := cmp.Diff([]string{"typed", "shared"}, names); diff != "" {
		t.Fatalf("Each mismatch (-want +got):\n%s", diff)
	}

	if ok, err := items.Drop(s); !ok || err != nil {
		t.Fatalf("Drop failed: %v %v", ok, err)
	}
	if items.TypeID() != 7 || items.Table() != table {
		t.Fatal("Typed accessors mismatch")
	}
}
