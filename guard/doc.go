// Package guard validates WebAssembly modules destined to run as
// ledger hooks and computes a worst-case instruction-count ceiling for
// each of their entry points.
//
// Validation happens in two passes over the module's bytes: resolve
// (imports, exports, function and type sections) locates the guard
// import and the hook/cbak entry points, then checkGuard walks each
// function body enforcing that every loop is preceded by a guard call
// with statically reconstructible constant arguments and accumulating
// the instruction count those guards imply. Neither pass builds a
// general-purpose module AST; both read only the fields validation
// needs directly off a byte cursor.
//
// The package never executes a module. A rejection always names one of
// the LogCode values; acceptance returns a ceiling pair.
package guard
