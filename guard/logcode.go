package guard

// LogCode names the reason a module was accepted or rejected. The set is
// closed: every reject path in this package names exactly one of these
// values, and nothing outside this list is ever returned.
type LogCode string

const (
	// SHORT_HOOK fires when a read runs past the end of the module's
	// bytes anywhere during either pass.
	SHORT_HOOK LogCode = "SHORT_HOOK"
	// WASM_TOO_SMALL fires when the module is shorter than 10 bytes: the
	// 8-byte magic+version header plus a minimal two-byte section frame.
	WASM_TOO_SMALL LogCode = "WASM_TOO_SMALL"
	// WASM_BAD_MAGIC fires when the first 8 bytes aren't
	// 00 61 73 6D 01 00 00 00.
	WASM_BAD_MAGIC LogCode = "WASM_BAD_MAGIC"
	// WASM_PARSE_LOOP fires when the section walker makes no forward
	// progress between two iterations.
	WASM_PARSE_LOOP LogCode = "WASM_PARSE_LOOP"
	// WASM_VALIDATION covers LEB128 overflow and any opcode the
	// analyzer does not recognize, including the 0xFC misc-prefix
	// family, which is rejected whether or not strict mode is on.
	WASM_VALIDATION LogCode = "WASM_VALIDATION"

	// IMPORTS_MISSING is part of the closed set but is never returned: a
	// module with no import section, or no function imports, is rejected
	// with GUARD_IMPORT.
	IMPORTS_MISSING LogCode = "IMPORTS_MISSING"
	// IMPORT_MODULE_BAD fires on a malformed import module-name string.
	IMPORT_MODULE_BAD LogCode = "IMPORT_MODULE_BAD"
	// IMPORT_MODULE_ENV fires when an import's module name isn't "env".
	IMPORT_MODULE_ENV LogCode = "IMPORT_MODULE_ENV"
	// IMPORT_NAME_BAD fires on a malformed import name string.
	IMPORT_NAME_BAD LogCode = "IMPORT_NAME_BAD"
	// IMPORT_ILLEGAL fires when a function import's name isn't in the
	// host-API whitelist.
	IMPORT_ILLEGAL LogCode = "IMPORT_ILLEGAL"
	// GUARD_IMPORT fires when no function import is named "_g".
	GUARD_IMPORT LogCode = "GUARD_IMPORT"

	// EXPORTS_MISSING is part of the closed set but is never returned: a
	// module with an absent or empty export section is rejected with
	// EXPORT_MISSING.
	EXPORTS_MISSING LogCode = "EXPORTS_MISSING"
	// EXPORT_HOOK_FUNC fires when an export named "hook" isn't a
	// function export.
	EXPORT_HOOK_FUNC LogCode = "EXPORT_HOOK_FUNC"
	// EXPORT_CBAK_FUNC fires when an export named "cbak" isn't a
	// function export.
	EXPORT_CBAK_FUNC LogCode = "EXPORT_CBAK_FUNC"
	// EXPORT_MISSING fires when there is no "hook" export at all.
	EXPORT_MISSING LogCode = "EXPORT_MISSING"

	// FUNCS_MISSING fires when the function section is absent or empty.
	FUNCS_MISSING LogCode = "FUNCS_MISSING"
	// FUNC_TYPELESS fires when hook or cbak's local function index has
	// no entry in the function section's type map.
	FUNC_TYPELESS LogCode = "FUNC_TYPELESS"
	// FUNC_TYPE_INVALID fires when a type-section entry's form byte
	// isn't 0x60.
	FUNC_TYPE_INVALID LogCode = "FUNC_TYPE_INVALID"
	// FUNC_PARAM_INVALID fires when a non-hook/cbak type's parameter
	// isn't one of i32/i64/f32/f64.
	FUNC_PARAM_INVALID LogCode = "FUNC_PARAM_INVALID"
	// FUNC_RETURN_INVALID fires when a non-hook/cbak type's result
	// isn't one of i32/i64/f32/f64.
	FUNC_RETURN_INVALID LogCode = "FUNC_RETURN_INVALID"
	// FUNC_RETURN_COUNT fires in strict mode when a type declares a
	// result count other than one.
	FUNC_RETURN_COUNT LogCode = "FUNC_RETURN_COUNT"
	// PARAM_HOOK_CBAK fires when the hook/cbak type doesn't have
	// exactly one i32 parameter.
	PARAM_HOOK_CBAK LogCode = "PARAM_HOOK_CBAK"
	// RETURN_HOOK_CBAK fires when the hook/cbak type doesn't return
	// exactly one i64.
	RETURN_HOOK_CBAK LogCode = "RETURN_HOOK_CBAK"
	// HOOK_CBAK_DIFF_TYPES fires when hook and cbak are both present
	// but don't share a type index.
	HOOK_CBAK_DIFF_TYPES LogCode = "HOOK_CBAK_DIFF_TYPES"

	// CALL_ILLEGAL fires when a function body calls a locally defined
	// function (any index beyond the last imported function).
	CALL_ILLEGAL LogCode = "CALL_ILLEGAL"
	// CALL_INDIRECT fires on any call_indirect instruction.
	CALL_INDIRECT LogCode = "CALL_INDIRECT"
	// MEMORY_GROW fires on any memory.grow instruction.
	MEMORY_GROW LogCode = "MEMORY_GROW"
	// GUARD_MISSING fires when a loop's body starts with anything
	// other than a guard call (modulo intervening block openings), or
	// when a function body ends while still seeking a guard.
	GUARD_MISSING LogCode = "GUARD_MISSING"
	// GUARD_PARAMETERS fires when a guard call's operand stack doesn't
	// hold two constants, or its maxiter operand isn't strictly
	// positive.
	GUARD_PARAMETERS LogCode = "GUARD_PARAMETERS"
	// BLOCK_ILLEGAL fires when an `end` opcode would decrement the
	// block depth below zero.
	BLOCK_ILLEGAL LogCode = "BLOCK_ILLEGAL"
	// TYPE_INVALID fires when a local variable declaration names a
	// type other than i32/i64/f32/f64.
	TYPE_INVALID LogCode = "TYPE_INVALID"

	// INSTRUCTION_COUNT is informational: emitted alongside acceptance
	// with the computed ceiling, never a rejection.
	INSTRUCTION_COUNT LogCode = "INSTRUCTION_COUNT"
	// INSTRUCTION_EXCESS fires when a function body's rolling
	// instruction count exceeds the configured ceiling.
	INSTRUCTION_EXCESS LogCode = "INSTRUCTION_EXCESS"
	// NESTING_LIMIT fires when combined block/loop/if depth exceeds 16.
	NESTING_LIMIT LogCode = "NESTING_LIMIT"
	// SECTIONS_OUT_OF_SEQUENCE fires in strict mode when a section id
	// appears out of canonical order.
	SECTIONS_OUT_OF_SEQUENCE LogCode = "SECTIONS_OUT_OF_SEQUENCE"
	// CUSTOM_SECTION_DISALLOWED fires in strict mode on any custom
	// (id 0) section.
	CUSTOM_SECTION_DISALLOWED LogCode = "CUSTOM_SECTION_DISALLOWED"
)
