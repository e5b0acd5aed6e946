// Package wat compiles a function-only subset of the WebAssembly Text
// format into binary WASM. It exists to build small guest modules that call
// host functions, such as the shim that re-exports the handles interface.
//
// Basic usage:
//
//	wasm, err := wat.Compile(`(module
//		(import "env" "inc" (func $inc (param i32) (result i32)))
//		(func (export "twice") (param $x i32) (result i32)
//			(call $inc (call $inc (local.get $x))))
//	)`)
//
// Supported:
//   - Function imports, definitions and exports (inline or as fields)
//   - Named and indexed params, results and locals
//   - Flat and folded instruction forms
//   - local.get/set/tee, call, i32.const, i64.const, drop, nop, return,
//     unreachable, i32.add/sub/eq/ne/eqz
//   - Comments: line (;;) and block (; ;)
//
// Not supported: memories, tables, globals, control flow blocks, data and
// elem segments.
package wat
