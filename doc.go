// Package hookguard is a static validator and worst-case instruction
// cost analyzer for WebAssembly hook modules in the XRPL Hooks dialect.
//
// It never executes a module. Given the raw wasm bytes of a compiled
// hook, guard.ValidateGuards walks its sections and function bodies,
// checks that every loop is preceded by a call to the host-supplied
// loop guard with constant arguments, and computes the largest number
// of instructions the hook (and its optional callback) could ever
// execute before returning. A module that cannot be proven to terminate
// within that ceiling is rejected with one of a closed set of log
// codes, never an unstructured error.
//
// The validator itself lives in guard/, built on top of the byte-level
// vocabulary in wasm/ and the shared binary cursor in internal/binary.
// hostsim/ is a wazero-backed reference host used only by this module's
// own tests, to confirm a ceiling the analyzer computed actually bounds
// what an accepted module does at runtime. cmd/hookguard is a CLI and
// optional TUI built on top of the guard package.
package hookguard
