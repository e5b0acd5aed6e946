package host

import (
	"context"
	"fmt"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/ownership/errors"
	"github.com/wippyai/ownership/wat"
)

// GuestModuleName is the name the guest shim is instantiated under.
const GuestModuleName = Package + "/guest"

// GuestWAT returns a module that imports every function of the interface
// from ModuleName and re-exports it under the same name. Host modules cannot
// be called from Go directly, so this is how handles reach wasm code and
// back.
func (i *Interface) GuestWAT() string {
	var b strings.Builder
	b.WriteString("(module\n")
	for _, f := range i.Funcs {
		fmt.Fprintf(&b, "  (import %q %q (func $%s%s))\n", ModuleName, f.Name, f.Name, signature(f))
	}
	for _, f := range i.Funcs {
		fmt.Fprintf(&b, "  (func (export %q)%s\n    (call $%s", f.Name, signature(f), f.Name)
		params, _ := f.CoreTypes()
		for n := range params {
			fmt.Fprintf(&b, " (local.get %d)", n)
		}
		b.WriteString("))\n")
	}
	b.WriteString(")\n")
	return b.String()
}

func signature(f Func) string {
	params, results := f.CoreTypes()
	var b strings.Builder
	if len(params) > 0 {
		b.WriteString(" (param")
		for _, p := range params {
			b.WriteString(" " + api.ValueTypeName(p))
		}
		b.WriteString(")")
	}
	if len(results) > 0 {
		b.WriteString(" (result")
		for _, r := range results {
			b.WriteString(" " + api.ValueTypeName(r))
		}
		b.WriteString(")")
	}
	return b.String()
}

// InstantiateGuest compiles the guest shim and instantiates it in rt under
// GuestModuleName. Instantiate must have registered the host module first.
func (m *Module) InstantiateGuest(ctx context.Context, rt wazero.Runtime) (api.Module, error) {
	src := m.iface.GuestWAT()
	bin, err := wat.Compile(src)
	if err != nil {
		return nil, errors.New(errors.PhaseHost, errors.KindInvalidInput).
			Cause(err).
			Value(src).
			Detail("compile guest shim").
			Build()
	}

	guest, err := rt.InstantiateWithConfig(ctx, bin, wazero.NewModuleConfig().WithName(GuestModuleName))
	if err != nil {
		return nil, errors.Wrap(errors.PhaseHost, errors.KindInvalidInput, err, "instantiate "+GuestModuleName)
	}
	Logger().Debug("guest shim instantiated", zap.String("module", GuestModuleName), zap.Int("bytes", len(bin)))
	return guest, nil
}
