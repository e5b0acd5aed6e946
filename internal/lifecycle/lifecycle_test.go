package lifecycle

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRecorder(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	rec := NewRecorder(zap.New(core))

	rec.Constructed("tim")
	rec.Constructed("timothy")
	rec.Destructed("tim")

	if got := rec.Count("tim constructed"); got != 1 {
		t.Errorf("Count = %d, want 1", got)
	}
	if got := rec.Destructions("timothy"); got != 0 {
		t.Errorf("Destructions(timothy) = %d, want 0", got)
	}
	if logs.Len() != 3 {
		t.Errorf("logged %d lines, want 3", logs.Len())
	}

	lines := rec.Lines()
	lines[0] = "mutated"
	if rec.Lines()[0] != "tim constructed" {
		t.Error("Lines should return a copy")
	}

	rec.Reset()
	if len(rec.Lines()) != 0 {
		t.Error("Reset should clear the trace")
	}
}

func TestRawPerson_DoubleDestroy(t *testing.T) {
	rec := NewRecorder(nil)

	jim := NewRawPerson(rec, "jim")
	jim.Parent = NewRawPerson(rec, "jimothy")

	// Destroying the parent through a second path and then the child
	// destroys jimothy twice; plain pointers do not prevent it.
	jim.Parent.Drop()
	jim.Drop()

	if got := rec.Destructions("jimothy"); got != 2 {
		t.Errorf("jimothy destructed %d times, want 2", got)
	}
}

func TestRawPerson_ClearedParent(t *testing.T) {
	rec := NewRecorder(nil)

	jim := NewRawPerson(rec, "jim")
	jim.Parent = NewRawPerson(rec, "jimothy")

	jim.Parent.Drop()
	jim.Parent = nil
	jim.Drop()

	if got := rec.Destructions("jimothy"); got != 1 {
		t.Errorf("jimothy destructed %d times, want 1", got)
	}
}

func TestUniquePerson_DropCascades(t *testing.T) {
	rec := NewRecorder(nil)

	tim := NewUniquePerson(rec, "tim")
	tim.Parent.Reset(NewUniquePerson(rec, "timothy"))
	tim.Drop()

	if rec.Destructions("timothy") != 1 {
		t.Error("dropping a UniquePerson should destroy its parent")
	}
	if !tim.Parent.Empty() {
		t.Error("parent handle should be empty after Drop")
	}
}
