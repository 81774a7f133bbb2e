// Package wasm provides the byte-level vocabulary of the WebAssembly
// binary format used by the rest of this module: section ids, opcode
// values, value types, and a standalone unsigned/signed LEB128 codec.
//
// The position-tracking cursor that higher-level packages build section
// and instruction walkers on top of lives in internal/binary, a sibling
// package, so it can be shared by every package that needs to read or
// write module bytes without requiring them to sit under wasm itself.
//
// This package intentionally does not decode a module into a full
// in-memory AST; callers walk sections and function bodies themselves,
// reading only the fields they need. This mirrors how the reference
// validator this module implements was written: as a single pass over
// section bytes rather than a general-purpose parser.
package wasm
