package ptr

import "fmt"

// Weak observes a referent owned by Shared handles without keeping it
// alive. The referent can only be reached through Lock.
type Weak[T any] struct {
	_  noCopy
	p  *T
	cb *control
}

// NewWeak returns a handle observing s's referent. Observing an empty
// Shared yields an empty, already expired Weak.
func NewWeak[T any](s *Shared[T]) *Weak[T] {
	if s == nil || s.cb == nil {
		return &Weak[T]{}
	}
	s.cb.acquireWeak()
	return &Weak[T]{p: s.p, cb: s.cb}
}

// Lock returns a new owning handle if the referent is still alive,
// otherwise an empty Shared.
func (w *Weak[T]) Lock() *Shared[T] {
	if w == nil || w.cb == nil || w.cb.strong == 0 {
		return &Shared[T]{}
	}
	w.cb.acquireStrong()
	return &Shared[T]{p: w.p, cb: w.cb}
}

// UseCount returns the strong count of the observed referent, 0 once it
// has been destroyed.
func (w *Weak[T]) UseCount() int {
	if w == nil || w.cb == nil {
		return 0
	}
	return w.cb.strong
}

// Expired reports whether the observed referent is gone.
func (w *Weak[T]) Expired() bool {
	return w.UseCount() == 0
}

// State reports the observed control block state. An empty Weak reports
// StateFreed.
func (w *Weak[T]) State() State {
	if w == nil || w.cb == nil {
		return StateFreed
	}
	return w.cb.state
}

// Clone returns another Weak observing the same referent.
func (w *Weak[T]) Clone() *Weak[T] {
	if w == nil || w.cb == nil {
		return &Weak[T]{}
	}
	w.cb.acquireWeak()
	return &Weak[T]{p: w.p, cb: w.cb}
}

// Assign makes w observe s's referent instead of its current one.
func (w *Weak[T]) Assign(s *Shared[T]) {
	if w == nil {
		return
	}
	var (
		p  *T
		cb *control
	)
	if s != nil && s.cb != nil {
		p, cb = s.p, s.cb
		cb.acquireWeak()
	}
	w.Reset()
	w.p, w.cb = p, cb
}

// Reset stops observing. The last handle of an expired referent frees the
// control block.
func (w *Weak[T]) Reset() {
	if w == nil || w.cb == nil {
		return
	}
	cb := w.cb
	w.p, w.cb = nil, nil
	cb.releaseWeak()
}

func (w *Weak[T]) String() string {
	if w == nil || w.cb == nil {
		return fmt.Sprintf("weak<%s>(empty)", typeName[T]())
	}
	return fmt.Sprintf("weak<%s>(%s, use_count=%d)", typeName[T](), w.cb.state, w.cb.strong)
}
