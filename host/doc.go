// Package host exports a resource.Table to WebAssembly guests through a
// wazero host module.
//
// The module implements this WIT interface:
//
//	package wippy:ownership@0.1.0;
//
//	interface handles {
//		resource referent;
//
//		clone: func(self: borrow<referent>) -> own<referent>;
//		drop: func(self: own<referent>);
//		use-count: func(self: borrow<referent>) -> u32;
//		downgrade: func(self: borrow<referent>) -> u32;
//		lock: func(weak: u32) -> own<referent>;
//		expired: func(weak: u32) -> bool;
//		transfer: func(self: own<referent>) -> own<referent>;
//	}
//
// Handles flatten to i32. Weak handles travel as plain u32 since the
// component model has no weak handle type.
//
// Usage:
//
//	rt := wazero.NewRuntime(ctx)
//	mod := host.NewModule(resource.NewTable(), 1)
//	h, _ := mod.Share(value)
//	if _, err := mod.Instantiate(ctx, rt); err != nil {
//		return err
//	}
//	guest, err := mod.InstantiateGuest(ctx, rt)
//	if err != nil {
//		return err
//	}
//	clone, err := guest.ExportedFunction(host.FuncClone).Call(ctx, uint64(h))
//
// wazero does not let Go call a host module's exports directly. The guest
// shim re-exports every function so Go code and tests can.
package host
