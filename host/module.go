package host

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/ownership/errors"
	"github.com/wippyai/ownership/resource"
)

// Module exposes a resource table to WebAssembly guests as the handles
// interface. Guests pass handles as i32; a failed call returns handle 0 or
// false and is logged.
type Module struct {
	table  *resource.Table
	iface  *Interface
	typeID uint32
}

// NewModule creates a module over table. typeID is the type ID guest-visible
// referents are stored under.
func NewModule(table *resource.Table, typeID uint32) *Module {
	return &Module{
		table:  table,
		iface:  NewInterface(),
		typeID: typeID,
	}
}

// Interface returns the WIT description the module implements.
func (m *Module) Interface() *Interface {
	return m.iface
}

// Table returns the backing table.
func (m *Module) Table() *resource.Table {
	return m.table
}

// Own stores value as an exclusive referent the guest can be handed.
func (m *Module) Own(value any) (resource.Handle, error) {
	return m.table.Own(m.typeID, value)
}

// Share stores value as a shared referent the guest can be handed.
func (m *Module) Share(value any) (resource.Handle, error) {
	return m.table.Share(m.typeID, value)
}

// Instantiate registers the host module in rt under ModuleName. Go code
// reaches the functions through InstantiateGuest.
func (m *Module) Instantiate(ctx context.Context, rt wazero.Runtime) (api.Module, error) {
	handlers := map[string]api.GoModuleFunc{
		FuncClone:     m.clone,
		FuncDrop:      m.drop,
		FuncUseCount:  m.useCount,
		FuncDowngrade: m.downgrade,
		FuncLock:      m.lock,
		FuncExpired:   m.expired,
		FuncTransfer:  m.transfer,
	}

	builder := rt.NewHostModuleBuilder(ModuleName)
	for _, f := range m.iface.Funcs {
		fn, ok := handlers[f.Name]
		if !ok {
			return nil, errors.New(errors.PhaseHost, errors.KindInvalidInput).
				Value(f.Name).
				Detail("no handler for %q", f.Name).
				Build()
		}
		params, results := f.CoreTypes()
		builder.NewFunctionBuilder().
			WithGoModuleFunction(fn, params, results).
			Export(f.Name)
	}

	mod, err := builder.Instantiate(ctx)
	if err != nil {
		return nil, errors.New(errors.PhaseHost, errors.KindInvalidInput).
			Cause(err).
			Detail("instantiate %s", ModuleName).
			Build()
	}
	Logger().Debug("host module instantiated", zap.String("module", ModuleName), zap.Int("funcs", len(m.iface.Funcs)))
	return mod, nil
}

// borrowed runs fn with h borrowed for the duration of the call, as the
// canonical ABI does for borrow<T> parameters.
func (m *Module) borrowed(h resource.Handle, fn func() error) error {
	if err := m.table.Borrow(h); err != nil {
		return err
	}
	err := fn()
	if rerr := m.table.ReturnBorrow(h); err == nil {
		err = rerr
	}
	return err
}

func (m *Module) fail(name string, h resource.Handle, err error) {
	Logger().Warn("guest call failed",
		zap.String("func", name),
		zap.Uint32("handle", uint32(h)),
		zap.Error(err))
}

func (m *Module) clone(_ context.Context, _ api.Module, stack []uint64) {
	h := resource.Handle(api.DecodeU32(stack[0]))
	var out resource.Handle
	err := m.borrowed(h, func() (err error) {
		out, err = m.table.Clone(h)
		return err
	})
	if err != nil {
		m.fail(FuncClone, h, err)
	}
	stack[0] = api.EncodeU32(uint32(out))
}

func (m *Module) drop(_ context.Context, _ api.Module, stack []uint64) {
	h := resource.Handle(api.DecodeU32(stack[0]))
	if err := m.table.Drop(h); err != nil {
		m.fail(FuncDrop, h, err)
	}
}

func (m *Module) useCount(_ context.Context, _ api.Module, stack []uint64) {
	h := resource.Handle(api.DecodeU32(stack[0]))
	var n int
	err := m.borrowed(h, func() error {
		n, _ = m.table.UseCount(h)
		return nil
	})
	if err != nil {
		m.fail(FuncUseCount, h, err)
	}
	stack[0] = api.EncodeU32(uint32(n))
}

func (m *Module) downgrade(_ context.Context, _ api.Module, stack []uint64) {
	h := resource.Handle(api.DecodeU32(stack[0]))
	var out resource.Handle
	err := m.borrowed(h, func() (err error) {
		out, err = m.table.Downgrade(h)
		return err
	})
	if err != nil {
		m.fail(FuncDowngrade, h, err)
	}
	stack[0] = api.EncodeU32(uint32(out))
}

func (m *Module) lock(_ context.Context, _ api.Module, stack []uint64) {
	w := resource.Handle(api.DecodeU32(stack[0]))
	out, err := m.table.Lock(w)
	if err != nil {
		m.fail(FuncLock, w, err)
	}
	stack[0] = api.EncodeU32(uint32(out))
}

func (m *Module) expired(_ context.Context, _ api.Module, stack []uint64) {
	w := resource.Handle(api.DecodeU32(stack[0]))
	expired := true
	if own, ok := m.table.Ownership(w); ok && own == resource.Weak {
		n, _ := m.table.UseCount(w)
		expired = n == 0
	} else {
		m.fail(FuncExpired, w, errors.New(errors.PhaseHost, errors.KindInvalidHandle).
			Handle(uint32(w)).
			Detail("not a weak handle").
			Build())
	}
	stack[0] = encodeBool(expired)
}

func (m *Module) transfer(_ context.Context, _ api.Module, stack []uint64) {
	h := resource.Handle(api.DecodeU32(stack[0]))
	out, err := m.table.Transfer(h)
	if err != nil {
		m.fail(FuncTransfer, h, err)
	}
	stack[0] = api.EncodeU32(uint32(out))
}

func encodeBool(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
