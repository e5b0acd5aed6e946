package token

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTokenize(t *testing.T) {
	src := `(module ;; trailing
  (; block (; nested ;) ;)
  (import "wippy:ownership/handles@0.1.0" "use-count" (func $use-count))
  (func (i32.const -0x10)))`

	want := []Token{
		{"(", LParen, 1}, {"module", Ident, 1},
		{"(", LParen, 3}, {"import", Ident, 3},
		{"wippy:ownership/handles@0.1.0", String, 3}, {"use-count", String, 3},
		{"(", LParen, 3}, {"func", Ident, 3}, {"$use-count", Ident, 3}, {")", RParen, 3}, {")", RParen, 3},
		{"(", LParen, 4}, {"func", Ident, 4},
		{"(", LParen, 4}, {"i32.const", Ident, 4}, {"-0x10", Number, 4}, {")", RParen, 4},
		{")", RParen, 4}, {")", RParen, 4},
	}
	if diff := cmp.Diff(want, Tokenize(src)); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestType_String(t *testing.T) {
	tests := []struct {
		want string
		typ  Type
	}{
		{"'('", LParen},
		{"')'", RParen},
		{"identifier", Ident},
		{"string", String},
		{"number", Number},
		{"unknown", Type(99)},
	}
	for _, tt := range tests {
		typ, want := tt.typ, tt.want
		if got := typ.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", typ, got, want)
		}
	}
}
