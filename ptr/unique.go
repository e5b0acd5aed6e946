package ptr

import (
	"fmt"

	"github.com/wippyai/ownership/errors"
)

// Unique is a sole-ownership handle. The referent is destroyed when the
// handle is reset or takes another referent, unless it was first released
// to the caller.
// Unique must not be copied; pass *Unique and use Move or Take to transfer.
type Unique[T any] struct {
	_       noCopy
	p       *T
	deleter func(*T)
}

// NewUnique takes ownership of p. A nil p yields an empty handle.
// The caller must not hand the same p to another owning handle.
func NewUnique[T any](p *T, opts ...Option[T]) *Unique[T] {
	o := buildOptions(opts)
	return &Unique[T]{p: p, deleter: o.deleter}
}

// Get returns the referent, or nil when empty.
func (u *Unique[T]) Get() *T {
	if u == nil {
		return nil
	}
	return u.p
}

// Deref returns the referent or a null dereference error when empty.
func (u *Unique[T]) Deref() (*T, error) {
	if u == nil || u.p == nil {
		return nil, errors.NullDereference(errors.PhaseOwn, typeName[T]())
	}
	return u.p, nil
}

// MustDeref is like Deref but panics on an empty handle.
func (u *Unique[T]) MustDeref() *T {
	p, err := u.Deref()
	if err != nil {
		panic(err)
	}
	return p
}

// Empty reports whether the handle owns nothing.
func (u *Unique[T]) Empty() bool {
	return u == nil || u.p == nil
}

// Reset destroys the current referent, if any, and takes ownership of p.
// Passing nil leaves the handle empty. Resetting to the pointer already
// owned is a no-op.
func (u *Unique[T]) Reset(p *T) {
	if u == nil {
		return
	}
	if p != nil && p == u.p {
		return
	}
	old := u.p
	u.p = nil
	if old != nil {
		destroy(old, u.deleter)
	}
	u.p = p
}

// Release gives up ownership without destroying the referent.
// The caller becomes responsible for it; the handle is left empty.
func (u *Unique[T]) Release() *T {
	if u == nil {
		return nil
	}
	p := u.p
	u.p = nil
	return p
}

// Swap exchanges the referents of u and other. Nothing is destroyed.
func (u *Unique[T]) Swap(other *Unique[T]) {
	if u == nil || other == nil || u == other {
		return
	}
	u.p, other.p = other.p, u.p
	u.deleter, other.deleter = other.deleter, u.deleter
}

// Move transfers ownership to a new handle and empties u.
func (u *Unique[T]) Move() *Unique[T] {
	if u == nil {
		return &Unique[T]{}
	}
	moved := &Unique[T]{p: u.p, deleter: u.deleter}
	u.p = nil
	return moved
}

// Take destroys u's referent and takes over other's, leaving other empty.
func (u *Unique[T]) Take(other *Unique[T]) {
	if u == nil || u == other {
		return
	}
	var (
		p       *T
		deleter func(*T)
	)
	if other != nil {
		p, deleter = other.p, other.deleter
		other.p = nil
	}
	u.Reset(nil)
	u.p, u.deleter = p, deleter
}

func (u *Unique[T]) String() string {
	if u.Empty() {
		return fmt.Sprintf("unique<%s>(empty)", typeName[T]())
	}
	return fmt.Sprintf("unique<%s>(%p)", typeName[T](), u.p)
}
