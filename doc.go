// Package ownership provides single-threaded ownership handles for Go
// values whose cleanup must happen at a well-defined point.
//
// Go's garbage collector reclaims memory, but it does not say when a file
// gets closed or a child object torn down. The handles in
// this module decide that moment explicitly: a referent's destructor
// (ptr.Dropper or a custom deleter) runs exactly once, when its last owner
// lets go.
//
// # Architecture Overview
//
//	ownership/
//	├── ptr/                 Unique, Shared and Weak handles and the control block
//	├── resource/            Integer handle table built on the ptr handles
//	├── host/                wazero host module exporting a table to wasm guests
//	├── wat/                 WAT compiler for the guest shim
//	├── errors/              Structured error types
//	├── pair/                Two-value holder
//	├── internal/lifecycle/  Traced referents used by tests and the demo
//	└── cmd/ownership/       Scenario runner with a plain and a TUI mode
//
// # Quick Start
//
// Exclusive ownership:
//
//	u := ptr.NewUnique(openThing())
//	defer u.Reset(nil)
//
// Shared ownership with a weak observer:
//
//	s := ptr.NewShared(conn)
//	w := s.Downgrade()
//	if c := w.Lock(); !c.Empty() {
//		defer c.Reset()
//		use(c.Get())
//	}
//	s.Reset() // last owner: conn.Drop() runs here
//
// Handing values to code that can only hold integers:
//
//	table := resource.NewTable()
//	h, _ := table.Share(typeID, conn)
//	clone, _ := table.Clone(h)
//	_ = table.Drop(h)
//	_ = table.Drop(clone) // destroys conn
//
// # Error Handling
//
// Errors carry a phase and a kind and match sentinels with errors.Is:
//
//	if errors.Is(err, ownerrors.ErrExpired) { ... }
//
// # Thread Safety
//
// ptr handles are not synchronized. resource.Table serializes access with a
// mutex and may be shared across goroutines.
package ownership
