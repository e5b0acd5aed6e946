package resource

import "github.com/wippyai/ownership/ptr"

// Handle is an opaque reference to a slot in a table.
// Handle 0 is reserved and always invalid.
type Handle uint32

// Ownership says how a slot holds its referent.
type Ownership uint8

const (
	// Exclusive slots are the only owner of their referent.
	Exclusive Ownership = iota + 1
	// Shared slots co-own their referent with other shared slots.
	Shared
	// Weak slots observe a shared referent without owning it.
	Weak
)

func (o Ownership) String() string {
	switch o {
	case Exclusive:
		return "own"
	case Shared:
		return "shared"
	case Weak:
		return "weak"
	default:
		return "invalid"
	}
}

// Event types for lifecycle notifications.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDropped
	EventDestroyed
	EventBorrowed
	EventBorrowReturned
	EventCloned
	EventDowngraded
	EventLocked
	EventTransferred
	EventReleased
)

// Event represents a lifecycle event. Handle is 0 for EventDestroyed,
// which is about the referent rather than a slot.
type Event struct {
	Value     any
	Handle    Handle
	Source    Handle
	TypeID    uint32
	Type      EventType
	Ownership Ownership
}

// Observer receives notifications about lifecycle events.
// Observers are called without the table lock held.
type Observer interface {
	OnResourceEvent(Event)
}

// Dropper is optionally implemented by values that need cleanup when their
// last owning slot lets go.
type Dropper = ptr.Dropper

// Options configures a Table.
type Options struct {
	// InitialCapacity preallocates slot storage.
	InitialCapacity int
	// DetectDoubleOwnership rejects Own/Share of a pointer that a live slot
	// already owns.
	DetectDoubleOwnership bool
}

// DefaultOptions returns default table configuration.
func DefaultOptions() Options {
	return Options{
		InitialCapacity:       64,
		DetectDoubleOwnership: true,
	}
}
