package ptr

import (
	"fmt"

	"github.com/wippyai/ownership/errors"
)

// Shared is a reference-counted ownership handle. Any number of Shared
// handles may co-own one referent; it is destroyed synchronously when the
// last of them is reset.
//
// A referent that holds a Shared handle to itself, directly or through
// other referents, never reaches a zero count and leaks until an external
// Reset breaks the cycle. Back-references should be Weak.
type Shared[T any] struct {
	_  noCopy
	p  *T
	cb *control
}

// NewShared takes ownership of p with a fresh control block (count 1).
// A nil p yields an empty handle.
func NewShared[T any](p *T, opts ...Option[T]) *Shared[T] {
	if p == nil {
		return &Shared[T]{}
	}
	o := buildOptions(opts)
	return &Shared[T]{
		p:  p,
		cb: newControl(func() { destroy(p, o.deleter) }),
	}
}

// Get returns the referent, or nil when empty.
func (s *Shared[T]) Get() *T {
	if s == nil {
		return nil
	}
	return s.p
}

// Deref returns the referent or a null dereference error when empty.
func (s *Shared[T]) Deref() (*T, error) {
	if s == nil || s.cb == nil {
		return nil, errors.NullDereference(errors.PhaseShare, typeName[T]())
	}
	return s.p, nil
}

// MustDeref is like Deref but panics on an empty handle.
func (s *Shared[T]) MustDeref() *T {
	p, err := s.Deref()
	if err != nil {
		panic(err)
	}
	return p
}

// Empty reports whether the handle owns nothing.
func (s *Shared[T]) Empty() bool {
	return s == nil || s.cb == nil
}

// UseCount returns the number of Shared handles owning the referent,
// or 0 when empty.
func (s *Shared[T]) UseCount() int {
	if s == nil || s.cb == nil {
		return 0
	}
	return s.cb.strong
}

// WeakCount returns the number of Weak handles observing the referent.
func (s *Shared[T]) WeakCount() int {
	if s == nil || s.cb == nil {
		return 0
	}
	return s.cb.weak
}

// Clone returns a new handle co-owning the referent.
// Cloning an empty handle returns an empty handle.
func (s *Shared[T]) Clone() *Shared[T] {
	if s == nil || s.cb == nil {
		return &Shared[T]{}
	}
	s.cb.acquireStrong()
	return &Shared[T]{p: s.p, cb: s.cb}
}

// Assign releases s's referent, destroying it if s was the last owner,
// and then co-owns other's referent.
func (s *Shared[T]) Assign(other *Shared[T]) {
	if s == nil || s == other {
		return
	}
	var (
		p  *T
		cb *control
	)
	if other != nil && other.cb != nil {
		p, cb = other.p, other.cb
		// Acquire before releasing so assigning from a co-owner never
		// passes through zero.
		cb.acquireStrong()
	}
	s.Reset()
	s.p, s.cb = p, cb
}

// Take releases s's referent and takes over other's share, leaving other
// empty. Counts only change for the referent s let go of.
func (s *Shared[T]) Take(other *Shared[T]) {
	if s == nil || s == other {
		return
	}
	var (
		p  *T
		cb *control
	)
	if other != nil {
		p, cb = other.p, other.cb
		other.p, other.cb = nil, nil
	}
	s.Reset()
	s.p, s.cb = p, cb
}

// Move transfers s's share to a new handle and empties s.
func (s *Shared[T]) Move() *Shared[T] {
	if s == nil {
		return &Shared[T]{}
	}
	moved := &Shared[T]{p: s.p, cb: s.cb}
	s.p, s.cb = nil, nil
	return moved
}

// Reset drops s's ownership. When s was the last owner the referent is
// destroyed before Reset returns.
func (s *Shared[T]) Reset() {
	if s == nil || s.cb == nil {
		return
	}
	cb := s.cb
	s.p, s.cb = nil, nil
	cb.releaseStrong()
}

// Swap exchanges referents and control blocks. Counts are unchanged.
func (s *Shared[T]) Swap(other *Shared[T]) {
	if s == nil || other == nil || s == other {
		return
	}
	s.p, other.p = other.p, s.p
	s.cb, other.cb = other.cb, s.cb
}

// Downgrade returns a Weak handle observing s's referent.
func (s *Shared[T]) Downgrade() *Weak[T] {
	return NewWeak(s)
}

// State reports the control block state; an empty handle reports StateFreed.
func (s *Shared[T]) State() State {
	if s == nil || s.cb == nil {
		return StateFreed
	}
	return s.cb.state
}

// Owns reports whether s and other co-own the same referent.
func (s *Shared[T]) Owns(other *Shared[T]) bool {
	return !s.Empty() && !other.Empty() && s.cb == other.cb
}

func (s *Shared[T]) String() string {
	if s.Empty() {
		return fmt.Sprintf("shared<%s>(empty)", typeName[T]())
	}
	return fmt.Sprintf("shared<%s>(%p, use_count=%d)", typeName[T](), s.p, s.cb.strong)
}
