package resource

// Typed is a Table view restricted to one Go type and type ID.
type Typed[T any] struct {
	table  *Table
	typeID uint32
}

// NewTyped creates a typed view over table for values tagged typeID.
func NewTyped[T any](table *Table, typeID uint32) *Typed[T] {
	return &Typed[T]{table: table, typeID: typeID}
}

// Table returns the underlying table.
func (t *Typed[T]) Table() *Table {
	return t.table
}

// TypeID returns the type ID values are stored under.
func (t *Typed[T]) TypeID() uint32 {
	return t.typeID
}

// Own stores v in an exclusive slot.
func (t *Typed[T]) Own(v *T) (Handle, error) {
	return t.table.Own(t.typeID, v)
}

// Share stores v in a shared slot.
func (t *Typed[T]) Share(v *T) (Handle, error) {
	return t.table.Share(t.typeID, v)
}

// Get retrieves the value of h if it holds this view's type.
func (t *Typed[T]) Get(h Handle) (*T, bool) {
	value, ok := t.table.GetTyped(h, t.typeID)
	if !ok {
		return nil, false
	}
	v, ok := value.(*T)
	return v, ok
}

// Drop releases h if it holds this view's type.
func (t *Typed[T]) Drop(h Handle) (bool, error) {
	if id, ok := t.table.TypeID(h); !ok || id != t.typeID {
		return false, nil
	}
	return true, t.table.Drop(h)
}

// Each iterates over live exclusive and shared slots of this view's type.
func (t *Typed[T]) Each(fn func(Handle, *T) bool) {
	t.table.Each(func(h Handle, _ Ownership, value any) bool {
		v, ok := value.(*T)
		if !ok {
			return true
		}
		if id, ok := t.table.TypeID(h); !ok || id != t.typeID {
			return true
		}
		return fn(h, v)
	})
}
