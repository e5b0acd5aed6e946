package ptr

import (
	"fmt"

	"go.uber.org/zap"
)

// Dropper is optionally implemented by referents that need cleanup when
// their owning handle lets go of them.
type Dropper interface {
	Drop()
}

// Option configures an owning handle at construction.
type Option[T any] func(*options[T])

type options[T any] struct {
	deleter func(*T)
}

// WithDeleter replaces the default destructor (Dropper.Drop) for the
// referent. The deleter travels with the referent on Swap, Move and Take.
func WithDeleter[T any](fn func(*T)) Option[T] {
	return func(o *options[T]) {
		o.deleter = fn
	}
}

func buildOptions[T any](opts []Option[T]) options[T] {
	var o options[T]
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// destroy runs the referent's destructor exactly as configured.
func destroy[T any](p *T, deleter func(*T)) {
	Logger().Debug("destroying referent",
		zap.String("type", typeName[T]()),
		zap.String("addr", fmt.Sprintf("%p", p)))

	if deleter != nil {
		deleter(p)
		return
	}
	if d, ok := any(p).(Dropper); ok {
		d.Drop()
	}
}

func typeName[T any]() string {
	return fmt.Sprintf("%T", (*T)(nil))
}

// noCopy lets go vet's copylocks check flag handles copied by value.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
