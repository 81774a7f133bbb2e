package guard

import "github.com/xrplf/hookguard/wasm"

// GuardImportName is the name of the loop-guard intrinsic every hook
// module must import.
const GuardImportName = "_g"

// Whitelist maps every function name a hook is permitted to import from
// module "env" to its Wasm signature. It is the single source of truth
// for the host-API surface: any function-kind import whose name is not
// a key here is rejected with IMPORT_ILLEGAL.
//
// Signatures are derived from the host-API's C declarations: uint32_t
// and int32_t parameters/results become i32, int64_t becomes i64. The
// guard intrinsic itself, (uint32_t,uint32_t)->int32_t, is included
// alongside the rest of the surface.
var Whitelist = map[string]wasm.FuncType{
	GuardImportName: {Params: i32n(2), Results: i32n(1)},

	"accept":   {Params: []wasm.ValType{wasm.ValI32, wasm.ValI32, wasm.ValI64}, Results: i64n(1)},
	"rollback": {Params: []wasm.ValType{wasm.ValI32, wasm.ValI32, wasm.ValI64}, Results: i64n(1)},

	"util_raddr":   {Params: i32n(4), Results: i64n(1)},
	"util_accid":   {Params: i32n(4), Results: i64n(1)},
	"util_verify":  {Params: i32n(6), Results: i64n(1)},
	"util_sha512h": {Params: i32n(4), Results: i64n(1)},
	"util_keylet":  {Params: i32n(9), Results: i64n(1)},

	"sto_subfield": {Params: i32n(3), Results: i64n(1)},
	"sto_subarray": {Params: i32n(3), Results: i64n(1)},
	"sto_validate": {Params: i32n(2), Results: i64n(1)},
	"sto_emplace":  {Params: i32n(7), Results: i64n(1)},
	"sto_erase":    {Params: i32n(5), Results: i64n(1)},

	"etxn_burden":     {Params: nil, Results: i64n(1)},
	"etxn_details":    {Params: i32n(2), Results: i64n(1)},
	"etxn_fee_base":   {Params: i32n(1), Results: i64n(1)},
	"etxn_reserve":    {Params: i32n(1), Results: i64n(1)},
	"etxn_generation": {Params: nil, Results: i64n(1)},

	"emit":         {Params: i32n(2), Results: i64n(1)},
	"hook_account": {Params: i32n(2), Results: i64n(1)},
	"hook_hash":    {Params: i32n(2), Results: i64n(1)},
	"fee_base":     {Params: nil, Results: i64n(1)},
	"ledger_seq":   {Params: nil, Results: i64n(1)},

	"ledger_last_hash": {Params: i32n(2), Results: i64n(1)},
	"nonce":            {Params: i32n(2), Results: i64n(1)},

	"slot":          {Params: i32n(3), Results: i64n(1)},
	"slot_clear":    {Params: i32n(1), Results: i64n(1)},
	"slot_count":    {Params: i32n(1), Results: i64n(1)},
	"slot_id":       {Params: i32n(1), Results: i64n(1)},
	"slot_set":      {Params: i32n(3), Results: i64n(1)},
	"slot_size":     {Params: i32n(1), Results: i64n(1)},
	"slot_subarray": {Params: i32n(3), Results: i64n(1)},
	"slot_subfield": {Params: i32n(3), Results: i64n(1)},
	"slot_type":     {Params: i32n(2), Results: i64n(1)},
	"slot_float":    {Params: i32n(1), Results: i64n(1)},
	"trace_slot":    {Params: i32n(3), Results: i64n(1)},
	"otxn_slot":     {Params: i32n(1), Results: i64n(1)},
	"meta_slot":     {Params: i32n(1), Results: i64n(1)},

	"state_set":     {Params: i32n(4), Results: i64n(1)},
	"state":         {Params: i32n(4), Results: i64n(1)},
	"state_foreign": {Params: i32n(6), Results: i64n(1)},

	"trace":     {Params: i32n(5), Results: i64n(1)},
	"trace_num": {Params: []wasm.ValType{wasm.ValI32, wasm.ValI32, wasm.ValI64}, Results: i64n(1)},

	"otxn_burden":    {Params: nil, Results: i64n(1)},
	"otxn_field_txt": {Params: i32n(3), Results: i64n(1)},
	"otxn_field":     {Params: i32n(3), Results: i64n(1)},
	"otxn_generation": {Params: nil, Results: i64n(1)},
	"otxn_id":         {Params: i32n(2), Results: i64n(1)},
	"otxn_type":       {Params: nil, Results: i64n(1)},

	"float_set":          {Params: []wasm.ValType{wasm.ValI32, wasm.ValI64}, Results: i64n(1)},
	"float_multiply":     {Params: i64n(2), Results: i64n(1)},
	"float_mulratio":     {Params: []wasm.ValType{wasm.ValI64, wasm.ValI32, wasm.ValI32, wasm.ValI32}, Results: i64n(1)},
	"float_negate":       {Params: i64n(1), Results: i64n(1)},
	"float_compare":      {Params: []wasm.ValType{wasm.ValI64, wasm.ValI64, wasm.ValI32}, Results: i64n(1)},
	"float_sum":          {Params: i64n(2), Results: i64n(1)},
	"float_sto":          {Params: []wasm.ValType{wasm.ValI32, wasm.ValI32, wasm.ValI32, wasm.ValI32, wasm.ValI32, wasm.ValI32, wasm.ValI64, wasm.ValI32}, Results: i64n(1)},
	"float_sto_set":      {Params: i32n(2), Results: i64n(1)},
	"float_invert":       {Params: i64n(1), Results: i64n(1)},
	"float_divide":       {Params: i64n(2), Results: i64n(1)},
	"float_one":          {Params: nil, Results: i64n(1)},
	"float_exponent":     {Params: i64n(1), Results: i64n(1)},
	"float_exponent_set": {Params: []wasm.ValType{wasm.ValI64, wasm.ValI32}, Results: i64n(1)},
	"float_mantissa":     {Params: i64n(1), Results: i64n(1)},
	"float_mantissa_set": {Params: i64n(2), Results: i64n(1)},
	"float_sign":         {Params: i64n(1), Results: i64n(1)},
	"float_sign_set":     {Params: []wasm.ValType{wasm.ValI64, wasm.ValI32}, Results: i64n(1)},
	"float_int":          {Params: []wasm.ValType{wasm.ValI64, wasm.ValI32, wasm.ValI32}, Results: i64n(1)},
	"trace_float":        {Params: []wasm.ValType{wasm.ValI32, wasm.ValI32, wasm.ValI64}, Results: i64n(1)},
}

func i32n(n int) []wasm.ValType {
	v := make([]wasm.ValType, n)
	for i := range v {
		v[i] = wasm.ValI32
	}
	return v
}

func i64n(n int) []wasm.ValType {
	v := make([]wasm.ValType, n)
	for i := range v {
		v[i] = wasm.ValI64
	}
	return v
}
