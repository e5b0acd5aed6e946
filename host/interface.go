package host

import (
	"fmt"
	"strings"

	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"
)

// Names of the exported interface.
const (
	Package      = "wippy:ownership"
	Version      = "0.1.0"
	Name         = "handles"
	ResourceName = "referent"
	ModuleName   = Package + "/" + Name + "@" + Version
)

// Exported function names.
const (
	FuncClone     = "clone"
	FuncDrop      = "drop"
	FuncUseCount  = "use-count"
	FuncDowngrade = "downgrade"
	FuncLock      = "lock"
	FuncExpired   = "expired"
	FuncTransfer  = "transfer"
)

// Param is a named function parameter.
type Param struct {
	Type wit.Type
	Name string
}

// Func describes one exported function. Result is nil for functions
// returning nothing.
type Func struct {
	Result wit.Type
	Name   string
	Params []Param
}

// CoreTypes returns the flattened core wasm signature.
func (f Func) CoreTypes() (params, results []api.ValueType) {
	for _, p := range f.Params {
		params = append(params, Flatten(p.Type)...)
	}
	if f.Result != nil {
		results = Flatten(f.Result)
	}
	return params, results
}

// Interface is the WIT description of the handles interface.
type Interface struct {
	Resource *wit.TypeDef
	Funcs    []Func
}

// NewInterface builds the handles interface.
func NewInterface() *Interface {
	name := ResourceName
	res := &wit.TypeDef{Name: &name, Kind: &wit.Resource{}}
	own := &wit.TypeDef{Kind: &wit.Own{Type: res}}
	borrow := &wit.TypeDef{Kind: &wit.Borrow{Type: res}}

	return &Interface{
		Resource: res,
		Funcs: []Func{
			{Name: FuncClone, Params: []Param{{Name: "self", Type: borrow}}, Result: own},
			{Name: FuncDrop, Params: []Param{{Name: "self", Type: own}}},
			{Name: FuncUseCount, Params: []Param{{Name: "self", Type: borrow}}, Result: wit.U32{}},
			{Name: FuncDowngrade, Params: []Param{{Name: "self", Type: borrow}}, Result: wit.U32{}},
			{Name: FuncLock, Params: []Param{{Name: "weak", Type: wit.U32{}}}, Result: own},
			{Name: FuncExpired, Params: []Param{{Name: "weak", Type: wit.U32{}}}, Result: wit.Bool{}},
			{Name: FuncTransfer, Params: []Param{{Name: "self", Type: own}}, Result: own},
		},
	}
}

// Func looks up a function by name.
func (i *Interface) Func(name string) (Func, bool) {
	for _, f := range i.Funcs {
		if f.Name == name {
			return f, true
		}
	}
	return Func{}, false
}

// WIT renders the interface as WIT source.
func (i *Interface) WIT() string {
	var b strings.Builder
	fmt.Fprintf(&b, "package %s@%s;\n\n", Package, Version)
	fmt.Fprintf(&b, "interface %s {\n", Name)
	fmt.Fprintf(&b, "\tresource %s;\n\n", typeName(i.Resource))
	for _, f := range i.Funcs {
		params := make([]string, len(f.Params))
		for j, p := range f.Params {
			params[j] = p.Name + ": " + typeName(p.Type)
		}
		fmt.Fprintf(&b, "\t%s: func(%s)", f.Name, strings.Join(params, ", "))
		if f.Result != nil {
			fmt.Fprintf(&b, " -> %s", typeName(f.Result))
		}
		b.WriteString(";\n")
	}
	b.WriteString("}\n")
	return b.String()
}

func typeName(t wit.Type) string {
	switch v := t.(type) {
	case wit.Bool:
		return "bool"
	case wit.U32:
		return "u32"
	case wit.U64:
		return "u64"
	case wit.String:
		return "string"
	case *wit.TypeDef:
		switch kind := v.Kind.(type) {
		case *wit.Own:
			return "own<" + typeName(kind.Type) + ">"
		case *wit.Borrow:
			return "borrow<" + typeName(kind.Type) + ">"
		}
		if v.Name != nil {
			return *v.Name
		}
	}
	return "<unknown>"
}
