package guard_test

import (
	"github.com/xrplf/hookguard/internal/binary"
	"github.com/xrplf/hookguard/wasm"
)

// moduleBuilder assembles a minimal, well-formed module byte sequence
// one section at a time, so tests can construct exactly the shape of
// input a given rule is meant to accept or reject without hand-writing
// raw byte literals.
type moduleBuilder struct {
	types   []wasm.FuncType
	imports []importSpec
	funcs   []uint32 // type index per locally defined function
	exports []exportSpec
	bodies  [][]byte // raw instruction bytes, locals-declarations already stripped
}

type importSpec struct {
	module string
	name   string
	typeIdx uint32
}

type exportSpec struct {
	name    string
	funcIdx uint32
}

func newModule() *moduleBuilder {
	return &moduleBuilder{}
}

// addType registers a function type and returns its index.
func (m *moduleBuilder) addType(ft wasm.FuncType) uint32 {
	m.types = append(m.types, ft)
	return uint32(len(m.types) - 1)
}

// addImport registers a function import and returns its function index.
func (m *moduleBuilder) addImport(module, name string, typeIdx uint32) uint32 {
	m.imports = append(m.imports, importSpec{module: module, name: name, typeIdx: typeIdx})
	return uint32(len(m.imports) - 1)
}

// addFunc registers a locally defined function body under typeIdx and
// returns its global function index (imports counted first).
func (m *moduleBuilder) addFunc(typeIdx uint32, body []byte) uint32 {
	m.funcs = append(m.funcs, typeIdx)
	m.bodies = append(m.bodies, body)
	return uint32(len(m.imports) + len(m.funcs) - 1)
}

func (m *moduleBuilder) addExport(name string, funcIdx uint32) {
	m.exports = append(m.exports, exportSpec{name: name, funcIdx: funcIdx})
}

// build serializes the module: header, then type/import/function/export/
// code sections in canonical order. Sections with no entries are
// omitted entirely, matching how a real toolchain emits modules.
func (m *moduleBuilder) build() []byte {
	out := binary.NewWriter()
	out.WriteBytes([]byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00})

	if len(m.types) > 0 {
		p := binary.NewWriter()
		p.WriteU32(uint32(len(m.types)))
		for _, ft := range m.types {
			p.Byte(wasm.FuncTypeByte)
			p.WriteU32(uint32(len(ft.Params)))
			for _, v := range ft.Params {
				p.Byte(byte(v))
			}
			p.WriteU32(uint32(len(ft.Results)))
			for _, v := range ft.Results {
				p.Byte(byte(v))
			}
		}
		writeSection(out, wasm.SectionType, p.Bytes())
	}

	if len(m.imports) > 0 {
		p := binary.NewWriter()
		p.WriteU32(uint32(len(m.imports)))
		for _, imp := range m.imports {
			p.WriteName(imp.module)
			p.WriteName(imp.name)
			p.Byte(wasm.KindFunc)
			p.WriteU32(imp.typeIdx)
		}
		writeSection(out, wasm.SectionImport, p.Bytes())
	}

	if len(m.funcs) > 0 {
		p := binary.NewWriter()
		p.WriteU32(uint32(len(m.funcs)))
		for _, t := range m.funcs {
			p.WriteU32(t)
		}
		writeSection(out, wasm.SectionFunction, p.Bytes())
	}

	if len(m.exports) > 0 {
		p := binary.NewWriter()
		p.WriteU32(uint32(len(m.exports)))
		for _, exp := range m.exports {
			p.WriteName(exp.name)
			p.Byte(wasm.KindFunc)
			p.WriteU32(exp.funcIdx)
		}
		writeSection(out, wasm.SectionExport, p.Bytes())
	}

	if len(m.bodies) > 0 {
		p := binary.NewWriter()
		p.WriteU32(uint32(len(m.bodies)))
		for _, body := range m.bodies {
			b := binary.NewWriter()
			b.WriteU32(0) // no local-variable groups
			b.WriteBytes(body)
			p.WriteU32(uint32(b.Len()))
			p.WriteBytes(b.Bytes())
		}
		writeSection(out, wasm.SectionCode, p.Bytes())
	}

	return out.Bytes()
}

func writeSection(out *binary.Writer, id byte, payload []byte) {
	out.Byte(id)
	out.WriteU32(uint32(len(payload)))
	out.WriteBytes(payload)
}

// --- small instruction-sequence builders -----------------------------

func i32const(v uint32) []byte {
	w := binary.NewWriter()
	w.Byte(wasm.OpI32Const)
	w.WriteU32(v)
	return w.Bytes()
}

func callOp(idx uint32) []byte {
	w := binary.NewWriter()
	w.Byte(wasm.OpCall)
	w.WriteU32(idx)
	return w.Bytes()
}

func loopOpen() []byte {
	return []byte{wasm.OpLoop, wasm.BlockTypeVoid}
}

func blockOpen() []byte {
	return []byte{wasm.OpBlock, wasm.BlockTypeVoid}
}

func end() []byte {
	return []byte{wasm.OpEnd}
}

func br(label uint32) []byte {
	w := binary.NewWriter()
	w.Byte(wasm.OpBr)
	w.WriteU32(label)
	return w.Bytes()
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// hookFuncType is the fixed (i32) -> i64 signature every hook/cbak
// function must carry.
var hookFuncType = wasm.FuncType{
	Params:  []wasm.ValType{wasm.ValI32},
	Results: []wasm.ValType{wasm.ValI64},
}

// guardImportType is _g's signature: (i32, i32) -> i32.
var guardImportType = wasm.FuncType{
	Params:  []wasm.ValType{wasm.ValI32, wasm.ValI32},
	Results: []wasm.ValType{wasm.ValI32},
}

// baseModule returns a builder already carrying the guard import and
// hook type, ready for a test to add a hook body and export it.
func baseModule() (*moduleBuilder, uint32, uint32) {
	m := newModule()
	guardType := m.addType(guardImportType)
	hookType := m.addType(hookFuncType)
	m.addImport("env", "_g", guardType)
	return m, hookType, guardType
}
