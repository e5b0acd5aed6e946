// Package ptr provides ownership handles with explicit lifetimes.
//
// The garbage collector reclaims memory, but it does not say when a
// resource is finished with. These handles do: a referent's destructor
// (its Drop method, or a deleter passed with WithDeleter) runs exactly once,
// at a well defined point, according to who owns it.
//
// # Handle Kinds
//
//	Unique[T] - sole owner; destroys on Reset/Take, gives up with Release
//	Shared[T] - reference counted co-owner; the last Reset destroys
//	Weak[T]   - observer of a Shared referent; Lock to get an owner
//
// Scope exit is written with defer:
//
//	joe := ptr.NewUnique(&Person{Name: "Joe"})
//	defer joe.Reset(nil)
//
// Shared handles count owners in a control block:
//
//	a := ptr.NewShared(professor)
//	b := a.Clone() // a.UseCount() == 2
//	a.Reset()      // b.UseCount() == 1
//	b.Reset()      // professor.Drop() runs here
//
// A Weak handle never keeps the referent alive:
//
//	w := s.Downgrade()
//	if owner := w.Lock(); !owner.Empty() {
//	    defer owner.Reset()
//	    use(owner.Get())
//	}
//
// # Lifecycle
//
// The control block moves through three states:
//
//	StateLive    -> last Shared reset   -> StateExpired
//	StateExpired -> last Weak reset     -> StateFreed
//
// Lock in StateExpired always yields an empty handle.
//
// # Limitations
//
// Handles are not safe for concurrent use; counts are plain integers.
// Reference cycles between Shared handles are never collected: a referent
// owning a Shared handle to itself keeps a count of one until an external
// Reset breaks the cycle. Wrapping one pointer in two independent owning
// handles runs its destructor twice; avoiding that is the caller's job
// (resource.Table detects it for values it manages).
package ptr
