package guard

import "github.com/xrplf/hookguard/wasm"

// Limits collects the tunable bounds the orchestrator enforces. Every
// bound is a plain struct field, never a global or an environment
// variable, so validation stays a pure function of its arguments.
type Limits struct {
	// MaxInstructions is the ceiling a function body's rolling
	// instruction count must not exceed. Defaults to 2^20 - 1.
	MaxInstructions uint64
	// MaxNesting is the deepest combined block/loop/if depth allowed
	// inside a single function body. Defaults to 16.
	MaxNesting int
}

// DefaultLimits are the bounds the reference validator this package is
// modeled on enforces.
var DefaultLimits = Limits{
	MaxInstructions: 1<<20 - 1,
	MaxNesting:       16,
}

// Result is the outcome of a successful validation: the worst-case
// instruction ceiling for each entry point, plus the module's resolved
// import and export tables for callers that want to inspect its
// host-API surface. CbakCeiling is zero when the module has no cbak
// export.
type Result struct {
	HookCeiling uint64
	CbakCeiling uint64
	Imports     []wasm.Import
	Exports     []wasm.Export
}

// resolved is the first pass's output: everything the second pass needs
// to interpret function bodies, computed once and then treated as
// read-only by checkGuard.
type resolved struct {
	// funcTypes maps a local function index (0 for the first locally
	// defined function, imports not counted) to its type index.
	funcTypes map[uint32]uint32
	// types is the type section's function signatures, indexed by type
	// index.
	types []wasm.FuncType
	// importFuncCount is the number of function-kind imports; local
	// function index i lives at global function index
	// importFuncCount+i.
	importFuncCount uint32
	// lastImportIdx is the function index of the last function-kind
	// import; any call to an index greater than this targets a locally
	// defined function and is illegal.
	lastImportIdx uint32
	// guardImportIdx is _g's function index.
	guardImportIdx uint32

	// imports and exports are every entry of the import and export
	// sections in file order, carried through to Result for callers
	// that want to inspect a module's host-API surface.
	imports []wasm.Import
	exports []wasm.Export

	// hookFuncIdx and cbakFuncIdx are local function indices (already
	// adjusted by subtracting importFuncCount), resolved from the
	// export section.
	hookFuncIdx uint32
	hasCbak     bool
	cbakFuncIdx uint32

	hookTypeIdx uint32

	// bodies holds each local function's locals-declaration-adjusted
	// code range within the module, indexed by local function index.
	bodies map[uint32]funcBody
}

// funcBody is one code-section entry's byte range, already past its
// local-variable declarations.
type funcBody struct {
	start int
	end   int
}

// mode tracks whether the analyzer is looking for a loop (seekingLoop,
// the steady state) or, having just entered one, looking for the guard
// call that must immediately follow it (seekingGuard).
type mode int

const (
	seekingLoop mode = iota
	seekingGuard
)

// blockCounter is the per-depth accounting the spec calls
// instruction_count[depth]: the largest guard maxiter seen at this
// depth (multiplied into the parent on `end`) and the rolling
// instruction count accumulated at this depth so far.
type blockCounter struct {
	largestGuard uint64
	rollingCount uint64
}
