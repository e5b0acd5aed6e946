// Package resource provides a handle table over the ptr ownership types.
//
// Code that cannot hold Go pointers directly, such as a WebAssembly guest,
// refers to values by integer handle. Each slot in the table wraps one of
// the ptr handle kinds, so the same ownership rules apply:
//
//	own     - ptr.Unique, the only owner of its value
//	shared  - ptr.Shared, one of several co-owners
//	weak    - ptr.Weak, a non-owning observer of a shared value
//
// # Handle Table
//
//	table := resource.NewTable()
//
//	// Exclusive ownership
//	h, err := table.Own(typeID, file)
//
//	// Shared ownership
//	s, err := table.Share(typeID, conn)
//	s2, err := table.Clone(s)   // use count 2
//
//	// Weak observation
//	w, err := table.Downgrade(s)
//	locked, err := table.Lock(w) // errors.ErrExpired once the value is gone
//
//	// Release
//	err = table.Drop(s)
//
// Handles are never reused while live. Handle 0 is always invalid.
//
// # Destruction
//
// A value is destroyed when its last owning slot is dropped. Values that
// implement Dropper have Drop called after the table lock is released, so
// a destructor may drop other handles. A panicking destructor is recovered
// and reported as errors.ErrDestructorPanic from the operation that
// triggered it.
//
// Owning the same pointer from two independent slots would destroy it
// twice. With Options.DetectDoubleOwnership set, Own and Share reject a
// pointer some live slot already owns; Clone is the way to add an owner.
//
// # Borrows
//
// Borrow marks a slot as temporarily lent out. A borrowed slot cannot be
// dropped or moved until ReturnBorrow balances it.
//
// # Observers
//
//	table.Subscribe(obs)
//
// Observers see every slot event plus EventDestroyed for each destroyed
// value, delivered outside the table lock.
package resource
