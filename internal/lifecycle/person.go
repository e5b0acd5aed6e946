package lifecycle

import "github.com/wippyai/ownership/ptr"

// RawPerson links to its parent with a plain pointer and destroys the
// parent chain by hand. Destroying a chain twice is not prevented.
type RawPerson struct {
	rec    *Recorder
	Parent *RawPerson
	Name   string
}

// NewRawPerson constructs a RawPerson and records it.
func NewRawPerson(rec *Recorder, name string) *RawPerson {
	rec.Constructed(name)
	return &RawPerson{rec: rec, Name: name}
}

// Drop records the destruction and destroys the parent, if any.
func (p *RawPerson) Drop() {
	p.rec.Destructed(p.Name)
	if p.Parent != nil {
		p.Parent.Drop()
	}
}

// UniquePerson exclusively owns its parent.
type UniquePerson struct {
	rec    *Recorder
	Parent *ptr.Unique[UniquePerson]
	Name   string
}

// NewUniquePerson constructs a UniquePerson with no parent and records it.
func NewUniquePerson(rec *Recorder, name string) *UniquePerson {
	rec.Constructed(name)
	return &UniquePerson{
		rec:    rec,
		Name:   name,
		Parent: ptr.NewUnique[UniquePerson](nil),
	}
}

// Drop records the destruction, then the owned parent chain goes with it.
func (p *UniquePerson) Drop() {
	p.rec.Destructed(p.Name)
	p.Parent.Reset(nil)
}

// SharedPerson co-owns its parent.
type SharedPerson struct {
	rec    *Recorder
	Parent *ptr.Shared[SharedPerson]
	Name   string
}

// NewSharedPerson constructs a SharedPerson with no parent and records it.
func NewSharedPerson(rec *Recorder, name string) *SharedPerson {
	rec.Constructed(name)
	return &SharedPerson{
		rec:    rec,
		Name:   name,
		Parent: ptr.NewShared[SharedPerson](nil),
	}
}

// Drop records the destruction and releases the share of the parent.
func (p *SharedPerson) Drop() {
	p.rec.Destructed(p.Name)
	p.Parent.Reset()
}
