package guard

import (
	"bytes"

	"github.com/xrplf/hookguard/wasm"
	"github.com/xrplf/hookguard/internal/binary"
)

// resolve performs the structural first pass: it reads the import,
// export, function, and type sections to build the environment the
// second pass (checkGuard) needs, and locates the code section's
// per-function byte ranges. It does not walk any function body.
func resolve(data []byte, sections []section, strict bool) (*resolved, error) {
	res := &resolved{
		funcTypes: make(map[uint32]uint32),
		bodies:    make(map[uint32]funcBody),
	}

	guardIdx, importCount, imports, err := resolveImports(data, sections)
	if err != nil {
		return nil, err
	}
	res.guardImportIdx = guardIdx
	res.importFuncCount = importCount
	res.lastImportIdx = importCount - 1
	res.imports = imports

	hookExport, cbakExport, hasCbak, exports, err := resolveExports(data, sections)
	if err != nil {
		return nil, err
	}
	res.exports = exports

	if err := resolveFunctions(data, sections, importCount, res.funcTypes); err != nil {
		return nil, err
	}

	if hookExport < importCount {
		return nil, reject(FUNC_TYPELESS, "hook export resolves to an imported function")
	}
	res.hookFuncIdx = hookExport - importCount
	hookTypeIdx, ok := res.funcTypes[res.hookFuncIdx]
	if !ok {
		return nil, reject(FUNC_TYPELESS, "hook function has no function-section entry")
	}
	res.hookTypeIdx = hookTypeIdx

	if hasCbak {
		if cbakExport < importCount {
			return nil, reject(FUNC_TYPELESS, "cbak export resolves to an imported function")
		}
		res.cbakFuncIdx = cbakExport - importCount
		cbakTypeIdx, ok := res.funcTypes[res.cbakFuncIdx]
		if !ok {
			return nil, reject(FUNC_TYPELESS, "cbak function has no function-section entry")
		}
		if cbakTypeIdx != hookTypeIdx {
			return nil, reject(HOOK_CBAK_DIFF_TYPES, "cbak type index differs from hook's")
		}
		res.hasCbak = true
	}

	types, err := resolveTypes(data, sections, hookTypeIdx, strict)
	if err != nil {
		return nil, err
	}
	res.types = types

	if err := resolveCode(data, sections, res.bodies); err != nil {
		return nil, err
	}

	return res, nil
}

// resolveImports walks the import section, enforcing module name "env"
// and whitelist membership for function imports, and returns _g's
// function index, the total function-import count, and every import
// entry (function, table, memory, global, or tag) in file order.
func resolveImports(data []byte, sections []section) (guardIdx uint32, importCount uint32, imports []wasm.Import, err error) {
	sec, ok := findSection(sections, wasm.SectionImport)
	if !ok {
		// No import section at all means zero function imports; the
		// absence of "_g" among them is reported as GUARD_IMPORT below,
		// not as a separate "missing section" failure.
		return 0, 0, nil, reject(GUARD_IMPORT, "no import section, so no \"_g\" import")
	}
	r := binary.NewReader(bytes.NewReader(data))
	if err := r.Reset(sec.start); err != nil {
		return 0, 0, nil, reject(SHORT_HOOK, "cannot seek to import section")
	}

	n, err := r.ReadU32()
	if err != nil {
		return 0, 0, nil, reject(SHORT_HOOK, "truncated import count")
	}

	guardFound := false
	var funcUpto uint32
	imports = make([]wasm.Import, 0, n)
	for i := uint32(0); i < n; i++ {
		modName, err := r.ReadName()
		if err != nil {
			return 0, 0, nil, reject(IMPORT_MODULE_BAD, "malformed import module name")
		}
		if modName != "env" {
			return 0, 0, nil, reject(IMPORT_MODULE_ENV, "import module name must be \"env\"")
		}
		impName, err := r.ReadName()
		if err != nil {
			return 0, 0, nil, reject(IMPORT_NAME_BAD, "malformed import name")
		}
		kind, err := r.ReadByte()
		if err != nil {
			return 0, 0, nil, reject(SHORT_HOOK, "truncated import kind")
		}
		if kind != wasm.KindFunc {
			limits, err := skipImportDesc(r, kind)
			if err != nil {
				return 0, 0, nil, err
			}
			imports = append(imports, wasm.Import{Module: modName, Name: impName, Kind: kind, Limits: limits})
			continue
		}
		typeIdx, err := r.ReadU32()
		if err != nil {
			return 0, 0, nil, reject(SHORT_HOOK, "truncated import type index")
		}
		if impName == GuardImportName {
			guardIdx = funcUpto
			guardFound = true
		} else if _, ok := Whitelist[impName]; !ok {
			return 0, 0, nil, reject(IMPORT_ILLEGAL, "import \""+impName+"\" is not in the host-api whitelist")
		}
		imports = append(imports, wasm.Import{Module: modName, Name: impName, Kind: kind, TypeIdx: typeIdx})
		funcUpto++
	}
	if !guardFound {
		return 0, 0, nil, reject(GUARD_IMPORT, "no function import named \"_g\"")
	}
	return guardIdx, funcUpto, imports, nil
}

// skipImportDesc consumes a non-function import descriptor (table,
// memory, global, or tag) without recording it in the function index
// space, returning its limits pair when it has one.
func skipImportDesc(r *binary.Reader, kind byte) (wasm.Limits, error) {
	switch kind {
	case wasm.KindTable:
		if _, err := r.ReadByte(); err != nil { // elem type
			return wasm.Limits{}, reject(SHORT_HOOK, "truncated table elem type")
		}
		return readLimits(r)
	case wasm.KindMemory:
		return readLimits(r)
	case wasm.KindGlobal:
		if _, err := r.ReadByte(); err != nil { // val type
			return wasm.Limits{}, reject(SHORT_HOOK, "truncated global val type")
		}
		if _, err := r.ReadByte(); err != nil { // mutability
			return wasm.Limits{}, reject(SHORT_HOOK, "truncated global mutability")
		}
		return wasm.Limits{}, nil
	case wasm.KindTag:
		if _, err := r.ReadByte(); err != nil { // attribute
			return wasm.Limits{}, reject(SHORT_HOOK, "truncated tag attribute")
		}
		if _, err := r.ReadU32(); err != nil { // type index
			return wasm.Limits{}, reject(SHORT_HOOK, "truncated tag type index")
		}
		return wasm.Limits{}, nil
	default:
		return wasm.Limits{}, reject(WASM_VALIDATION, "unrecognized import kind")
	}
}

func readLimits(r *binary.Reader) (wasm.Limits, error) {
	flags, err := r.ReadByte()
	if err != nil {
		return wasm.Limits{}, reject(SHORT_HOOK, "truncated limits flags")
	}
	min, err := r.ReadU32()
	if err != nil {
		return wasm.Limits{}, reject(SHORT_HOOK, "truncated limits min")
	}
	lim := wasm.Limits{Min: uint64(min)}
	if flags&wasm.LimitsHasMax != 0 {
		max, err := r.ReadU32()
		if err != nil {
			return wasm.Limits{}, reject(SHORT_HOOK, "truncated limits max")
		}
		lim.Max = uint64(max)
		lim.HasMax = true
	}
	return lim, nil
}

// resolveExports walks the export section looking for "hook" (required)
// and "cbak" (optional) function exports, returning every export entry
// alongside them.
func resolveExports(data []byte, sections []section) (hookIdx, cbakIdx uint32, hasCbak bool, exports []wasm.Export, err error) {
	sec, ok := findSection(sections, wasm.SectionExport)
	if !ok {
		// No export section means no "hook" export; report that with
		// the more specific EXPORT_MISSING rather than a bare
		// "section absent" code.
		return 0, 0, false, nil, reject(EXPORT_MISSING, "no export section, so no \"hook\" export")
	}
	r := binary.NewReader(bytes.NewReader(data))
	if err := r.Reset(sec.start); err != nil {
		return 0, 0, false, nil, reject(SHORT_HOOK, "cannot seek to export section")
	}

	n, err := r.ReadU32()
	if err != nil {
		return 0, 0, false, nil, reject(SHORT_HOOK, "truncated export count")
	}

	hookFound := false
	exports = make([]wasm.Export, 0, n)
	for i := uint32(0); i < n; i++ {
		name, err := r.ReadName()
		if err != nil {
			return 0, 0, false, nil, reject(SHORT_HOOK, "truncated export name")
		}
		kind, err := r.ReadByte()
		if err != nil {
			return 0, 0, false, nil, reject(SHORT_HOOK, "truncated export kind")
		}
		idx, err := r.ReadU32()
		if err != nil {
			return 0, 0, false, nil, reject(SHORT_HOOK, "truncated export index")
		}
		exports = append(exports, wasm.Export{Name: name, Kind: kind, Idx: idx})
		switch name {
		case "hook":
			if kind != wasm.KindFunc {
				return 0, 0, false, nil, reject(EXPORT_HOOK_FUNC, "\"hook\" export is not a function")
			}
			hookIdx = idx
			hookFound = true
		case "cbak":
			if kind != wasm.KindFunc {
				return 0, 0, false, nil, reject(EXPORT_CBAK_FUNC, "\"cbak\" export is not a function")
			}
			cbakIdx = idx
			hasCbak = true
		}
	}
	if !hookFound {
		return 0, 0, false, nil, reject(EXPORT_MISSING, "no \"hook\" export")
	}
	return hookIdx, cbakIdx, hasCbak, exports, nil
}

// resolveFunctions builds the local-function-index -> type-index map
// from the function section.
func resolveFunctions(data []byte, sections []section, importCount uint32, out map[uint32]uint32) error {
	sec, ok := findSection(sections, wasm.SectionFunction)
	if !ok {
		return reject(FUNCS_MISSING, "no function section")
	}
	r := binary.NewReader(bytes.NewReader(data))
	if err := r.Reset(sec.start); err != nil {
		return reject(SHORT_HOOK, "cannot seek to function section")
	}

	n, err := r.ReadU32()
	if err != nil {
		return reject(SHORT_HOOK, "truncated function count")
	}
	if n == 0 {
		return reject(FUNCS_MISSING, "function count is zero")
	}

	for i := uint32(0); i < n; i++ {
		typeIdx, err := r.ReadU32()
		if err != nil {
			return reject(SHORT_HOOK, "truncated function type index")
		}
		out[i] = typeIdx
	}
	return nil
}

// resolveTypes walks the type section, enforcing the (i32)->i64 hook/cbak
// signature on hookTypeIdx and the general i32/i64/f32/f64-only
// constraint on every other type.
func resolveTypes(data []byte, sections []section, hookTypeIdx uint32, strict bool) ([]wasm.FuncType, error) {
	sec, ok := findSection(sections, wasm.SectionType)
	if !ok {
		return nil, reject(FUNC_TYPE_INVALID, "no type section")
	}
	r := binary.NewReader(bytes.NewReader(data))
	if err := r.Reset(sec.start); err != nil {
		return nil, reject(SHORT_HOOK, "cannot seek to type section")
	}

	n, err := r.ReadU32()
	if err != nil {
		return nil, reject(SHORT_HOOK, "truncated type count")
	}

	types := make([]wasm.FuncType, n)
	for j := uint32(0); j < n; j++ {
		form, err := r.ReadByte()
		if err != nil {
			return nil, reject(SHORT_HOOK, "truncated type form byte")
		}
		if form != wasm.FuncTypeByte {
			return nil, reject(FUNC_TYPE_INVALID, "type form byte is not 0x60")
		}

		isHook := j == hookTypeIdx

		paramCount, err := r.ReadU32()
		if err != nil {
			return nil, reject(SHORT_HOOK, "truncated param count")
		}
		if isHook && paramCount != 1 {
			return nil, reject(PARAM_HOOK_CBAK, "hook/cbak type must have exactly one parameter")
		}
		params := make([]wasm.ValType, paramCount)
		for p := uint32(0); p < paramCount; p++ {
			b, err := r.ReadByte()
			if err != nil {
				return nil, reject(SHORT_HOOK, "truncated param type")
			}
			vt := wasm.ValType(b)
			if isHook && vt != wasm.ValI32 {
				return nil, reject(PARAM_HOOK_CBAK, "hook/cbak parameter must be i32")
			}
			if !vt.IsNumeric() {
				return nil, reject(FUNC_PARAM_INVALID, "parameter type is not numeric")
			}
			params[p] = vt
		}

		resultCount, err := r.ReadU32()
		if err != nil {
			return nil, reject(SHORT_HOOK, "truncated result count")
		}
		if strict && resultCount != 1 {
			return nil, reject(FUNC_RETURN_COUNT, "strict mode requires exactly one result")
		}
		results := make([]wasm.ValType, resultCount)
		for rr := uint32(0); rr < resultCount; rr++ {
			b, err := r.ReadByte()
			if err != nil {
				return nil, reject(SHORT_HOOK, "truncated result type")
			}
			vt := wasm.ValType(b)
			if !isHook && !vt.IsNumeric() {
				return nil, reject(FUNC_RETURN_INVALID, "result type is not numeric")
			}
			results[rr] = vt
		}
		if isHook && (resultCount != 1 || results[0] != wasm.ValI64) {
			return nil, reject(RETURN_HOOK_CBAK, "hook/cbak must return exactly one i64")
		}

		types[j] = wasm.FuncType{Params: params, Results: results}
	}
	return types, nil
}

// resolveCode walks the code section, recording each local function's
// byte range past its locals declarations. It validates the declared
// local types but does not analyze instructions; that's checkGuard's
// job.
func resolveCode(data []byte, sections []section, out map[uint32]funcBody) error {
	sec, ok := findSection(sections, wasm.SectionCode)
	if !ok {
		return reject(FUNCS_MISSING, "no code section")
	}
	r := binary.NewReader(bytes.NewReader(data))
	if err := r.Reset(sec.start); err != nil {
		return reject(SHORT_HOOK, "cannot seek to code section")
	}

	n, err := r.ReadU32()
	if err != nil {
		return reject(SHORT_HOOK, "truncated code entry count")
	}

	for j := uint32(0); j < n; j++ {
		size, err := r.ReadU32()
		if err != nil {
			return reject(SHORT_HOOK, "truncated code body size")
		}
		bodyEnd := r.Position() + int(size)
		if bodyEnd > len(data) {
			return reject(SHORT_HOOK, "code body runs past end of module")
		}

		localGroups, err := r.ReadU32()
		if err != nil {
			return reject(SHORT_HOOK, "truncated local group count")
		}
		for g := uint32(0); g < localGroups; g++ {
			if _, err := r.ReadU32(); err != nil { // count
				return reject(SHORT_HOOK, "truncated local group count entry")
			}
			b, err := r.ReadByte()
			if err != nil {
				return reject(SHORT_HOOK, "truncated local type")
			}
			if !wasm.ValType(b).IsNumeric() {
				return reject(TYPE_INVALID, "illegal local variable type")
			}
		}

		out[j] = funcBody{start: r.Position(), end: bodyEnd}
		if err := r.Reset(bodyEnd); err != nil {
			return reject(SHORT_HOOK, "cannot seek past function body")
		}
	}
	return nil
}
