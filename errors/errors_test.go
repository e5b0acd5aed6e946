package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseTable,
				Kind:   KindInvalidHandle,
				Handle: 12,
				GoType: "*lifecycle.SharedPerson",
				Detail: "handle is weak",
			},
			contains: []string{"[table]", "invalid_handle", "handle 12", "*lifecycle.SharedPerson", "handle is weak"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseOwn,
				Kind:  KindNullDereference,
			},
			contains: []string{"[own]", "null_dereference"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseTable,
				Kind:   KindDestructorPanic,
				Detail: "destructor panicked",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[table]", "destructor_panic", "destructor panicked", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseHost,
		Kind:  KindInvalidInput,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}

	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase:  PhaseShare,
		Kind:   KindNullDereference,
		GoType: "*Person",
	}

	if !err.Is(&Error{Phase: PhaseShare, Kind: KindNullDereference}) {
		t.Error("Is should match same phase and kind")
	}

	if err.Is(&Error{Phase: PhaseOwn, Kind: KindNullDereference}) {
		t.Error("Is should not match different phase")
	}

	if err.Is(&Error{Phase: PhaseShare, Kind: KindExpired}) {
		t.Error("Is should not match different kind")
	}

	if !errors.Is(err, ErrNullDereference) {
		t.Error("errors.Is should match the phase-less sentinel")
	}
	if errors.Is(err, ErrDoubleOwnership) {
		t.Error("errors.Is should not match a different sentinel")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseTable, KindInvalidHandle).
		Handle(3).
		GoType("*Person").
		Value(42).
		Cause(cause).
		Detail("handle %d is %s", 3, "weak").
		Build()

	if err.Phase != PhaseTable {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseTable)
	}
	if err.Kind != KindInvalidHandle {
		t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidHandle)
	}
	if err.Handle != 3 {
		t.Errorf("Handle = %d, want 3", err.Handle)
	}
	if err.GoType != "*Person" {
		t.Errorf("GoType = %v, want '*Person'", err.GoType)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "handle 3 is weak" {
		t.Errorf("Detail = %v, want 'handle 3 is weak'", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("NullDereference", func(t *testing.T) {
		err := NullDereference(PhaseOwn, "*Person")
		if err.Kind != KindNullDereference {
			t.Errorf("Kind = %v, want %v", err.Kind, KindNullDereference)
		}
		if err.GoType != "*Person" {
			t.Errorf("GoType = %v, want '*Person'", err.GoType)
		}
	})

	t.Run("DoubleOwnership", func(t *testing.T) {
		err := DoubleOwnership(PhaseTable, "*Person", 4)
		if !errors.Is(err, ErrDoubleOwnership) {
			t.Errorf("Kind = %v, want %v", err.Kind, KindDoubleOwnership)
		}
		if err.Handle != 4 {
			t.Errorf("Handle = %d, want 4", err.Handle)
		}
	})

	t.Run("OutstandingBorrow", func(t *testing.T) {
		err := OutstandingBorrow(PhaseTable, 2, 5)
		if err.Kind != KindOutstandingBorrow {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOutstandingBorrow)
		}
		if !strings.Contains(err.Detail, "5") {
			t.Errorf("Detail = %v, should contain borrow count", err.Detail)
		}
	})

	t.Run("Expired", func(t *testing.T) {
		err := Expired(PhaseObserve, 9)
		if !errors.Is(err, ErrExpired) {
			t.Errorf("Kind = %v, want %v", err.Kind, KindExpired)
		}
	})

	t.Run("Closed", func(t *testing.T) {
		if !errors.Is(Closed(PhaseTable), ErrClosed) {
			t.Error("Closed should match ErrClosed")
		}
	})

	t.Run("DestructorPanic with error", func(t *testing.T) {
		cause := errors.New("boom")
		err := DestructorPanic(PhaseTable, 1, cause)
		if !errors.Is(err, cause) {
			t.Error("DestructorPanic should unwrap to the recovered error")
		}
	})

	t.Run("DestructorPanic with string", func(t *testing.T) {
		err := DestructorPanic(PhaseTable, 1, "boom")
		if err.Cause != nil {
			t.Errorf("Cause = %v, want nil", err.Cause)
		}
		if !strings.Contains(err.Error(), "boom") {
			t.Errorf("message %q should mention the panic value", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		cause := errors.New("inner")
		err := Wrap(PhaseHost, KindInvalidInput, cause, "decode args")
		if !errors.Is(err, cause) || !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Wrap lost kind or cause: %v", err)
		}
	})
}
