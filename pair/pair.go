// Package pair provides a value holder for two items of independent types.
package pair

import "fmt"

// Pair stores two values together.
type Pair[A any, B any] struct {
	First  A
	Second B
}

// New returns a Pair by value.
func New[A any, B any](first A, second B) Pair[A, B] {
	return Pair[A, B]{First: first, Second: second}
}

// String formats the pair as "first, second".
func (p Pair[A, B]) String() string {
	return fmt.Sprintf("%v, %v", p.First, p.Second)
}
