package wasm

// Magic and version header every module must begin with.
const (
	Magic   uint32 = 0x6D736100 // "\0asm"
	Version uint32 = 0x01
)

// Section IDs, in the canonical order sections must appear (custom sections
// are exempt from ordering).
const (
	SectionCustom    byte = 0
	SectionType      byte = 1
	SectionImport    byte = 2
	SectionFunction  byte = 3
	SectionTable     byte = 4
	SectionMemory    byte = 5
	SectionGlobal    byte = 6
	SectionExport    byte = 7
	SectionStart     byte = 8
	SectionElement   byte = 9
	SectionCode      byte = 10
	SectionData      byte = 11
	SectionDataCount byte = 12
	SectionTag       byte = 13
)

// Import/export descriptor kinds.
const (
	KindFunc   byte = 0
	KindTable  byte = 1
	KindMemory byte = 2
	KindGlobal byte = 3
	KindTag    byte = 4
)

// Value type encodings relevant to the hook dialect. Reference types are
// recognized only so table/global declarations can be walked structurally;
// neither appears in a legal hook/cbak signature.
const (
	ValI32     ValType = 0x7F
	ValI64     ValType = 0x7E
	ValF32     ValType = 0x7D
	ValF64     ValType = 0x7C
	ValFuncRef ValType = 0x70
	ValExtern  ValType = 0x6F
)

// FuncTypeByte is the form byte that must prefix every type-section entry.
const FuncTypeByte byte = 0x60

// Control flow opcodes.
const (
	OpUnreachable  byte = 0x00
	OpNop          byte = 0x01
	OpBlock        byte = 0x02
	OpLoop         byte = 0x03
	OpIf           byte = 0x04
	OpElse         byte = 0x05
	OpEnd          byte = 0x0B
	OpBr           byte = 0x0C
	OpBrIf         byte = 0x0D
	OpBrTable      byte = 0x0E
	OpReturn       byte = 0x0F
	OpCall         byte = 0x10
	OpCallIndirect byte = 0x11
)

// Block type byte for a blocktype with no params/results.
const BlockTypeVoid byte = 0x40

// Parametric opcodes.
const (
	OpDrop   byte = 0x1A
	OpSelect byte = 0x1B
)

// Variable access opcodes.
const (
	OpLocalGet  byte = 0x20
	OpLocalSet  byte = 0x21
	OpLocalTee  byte = 0x22
	OpGlobalGet byte = 0x23
	OpGlobalSet byte = 0x24
)

// Memory access opcodes span this inclusive byte range; all carry an
// align/offset LEB128 pair.
const (
	OpMemLoadStoreLo byte = 0x28
	OpMemLoadStoreHi byte = 0x3E
)

const (
	OpMemorySize byte = 0x3F
	OpMemoryGrow byte = 0x40
)

// Constant-push opcodes.
const (
	OpI32Const byte = 0x41
	OpI64Const byte = 0x42
	OpF32Const byte = 0x43
	OpF64Const byte = 0x44
)

// Everything from OpNumericLo to OpNumericHi is a comparison/arithmetic
// opcode that takes no immediate and whose stack effect never matters to
// guard analysis; these pass through uncounted-for-constants.
const (
	OpNumericLo byte = 0x45
	OpNumericHi byte = 0xC4
)

// OpPrefixMisc introduces the 0xFC "misc" sub-opcode family (bulk memory,
// saturating truncation, table management). The upstream validator reads
// only a single LEB128 sub-opcode after this prefix and never dispatches on
// its value.
const OpPrefixMisc byte = 0xFC

// Limits flags.
const (
	LimitsNoMax  byte = 0x00
	LimitsHasMax byte = 0x01
)
