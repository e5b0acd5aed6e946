package host

import (
	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"
)

// Flatten returns the core wasm types a WIT type lowers to under the
// canonical ABI. Only scalars and resource handles are covered, which is all
// the handles interface uses; anything else flattens to nil.
func Flatten(t wit.Type) []api.ValueType {
	switch v := t.(type) {
	case wit.Bool, wit.U8, wit.U16, wit.U32, wit.S8, wit.S16, wit.S32, wit.Char:
		return []api.ValueType{api.ValueTypeI32}
	case wit.U64, wit.S64:
		return []api.ValueType{api.ValueTypeI64}
	case wit.F32:
		return []api.ValueType{api.ValueTypeF32}
	case wit.F64:
		return []api.ValueType{api.ValueTypeF64}
	case *wit.TypeDef:
		if v == nil {
			return nil
		}
		switch v.Kind.(type) {
		case *wit.Own, *wit.Borrow:
			return []api.ValueType{api.ValueTypeI32}
		}
	}
	return nil
}
