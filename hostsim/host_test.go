package hostsim_test

import (
	"context"
	"testing"

	"github.com/xrplf/hookguard/guard"
	"github.com/xrplf/hookguard/hostsim"
	"github.com/xrplf/hookguard/internal/binary"
	"github.com/xrplf/hookguard/wasm"
)

// buildAcceptedHook assembles a module whose hook body guards a loop
// with a constant maxiter, runs it through guard.ValidateGuards to
// confirm it is one this package would actually accept, and returns its
// bytes alongside the hook ceiling the validator computed for it.
func buildAcceptedHook(t *testing.T, maxiter uint32) ([]byte, uint64) {
	t.Helper()

	w := binary.NewWriter()
	w.WriteBytes([]byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00})

	guardType := wasm.FuncType{
		Params:  []wasm.ValType{wasm.ValI32, wasm.ValI32},
		Results: []wasm.ValType{wasm.ValI32},
	}
	hookType := wasm.FuncType{
		Params:  []wasm.ValType{wasm.ValI32},
		Results: []wasm.ValType{wasm.ValI64},
	}

	typeSec := binary.NewWriter()
	typeSec.WriteU32(2)
	writeFuncType(typeSec, guardType)
	writeFuncType(typeSec, hookType)
	writeSection(w, wasm.SectionType, typeSec.Bytes())

	importSec := binary.NewWriter()
	importSec.WriteU32(1)
	importSec.WriteName("env")
	importSec.WriteName(guard.GuardImportName)
	importSec.Byte(wasm.KindFunc)
	importSec.WriteU32(0) // type index 0: guardType
	writeSection(w, wasm.SectionImport, importSec.Bytes())

	funcSec := binary.NewWriter()
	funcSec.WriteU32(1)
	funcSec.WriteU32(1) // type index 1: hookType
	writeSection(w, wasm.SectionFunction, funcSec.Bytes())

	exportSec := binary.NewWriter()
	exportSec.WriteU32(1)
	exportSec.WriteName("hook")
	exportSec.Byte(wasm.KindFunc)
	exportSec.WriteU32(1) // global function index 1 (after the one import)
	writeSection(w, wasm.SectionExport, exportSec.Bytes())

	body := []byte{}
	body = append(body, wasm.OpLoop, wasm.BlockTypeVoid)
	body = append(body, leb128Const(wasm.OpI32Const, 0)...)
	body = append(body, leb128Const(wasm.OpI32Const, maxiter)...)
	body = append(body, wasm.OpCall)
	body = append(body, uleb(0)...) // call _g, global function index 0
	body = append(body, wasm.OpDrop) // discard _g's i32 result
	body = append(body, wasm.OpEnd) // end loop
	body = append(body, leb128Const(wasm.OpI64Const, 0)...) // hook's i64 result
	body = append(body, wasm.OpEnd) // end function

	codeSec := binary.NewWriter()
	codeSec.WriteU32(1)
	fnBody := binary.NewWriter()
	fnBody.WriteU32(0) // no locals
	fnBody.WriteBytes(body)
	codeSec.WriteU32(uint32(fnBody.Len()))
	codeSec.WriteBytes(fnBody.Bytes())
	writeSection(w, wasm.SectionCode, codeSec.Bytes())

	data := w.Bytes()

	result, code, err := guard.ValidateGuards(data, false, guard.DefaultLimits, nil, "hostsim-test")
	if err != nil {
		t.Fatalf("fixture does not pass validation: %s (%v)", code, err)
	}
	return data, result.HookCeiling
}

func writeFuncType(w *binary.Writer, ft wasm.FuncType) {
	w.Byte(wasm.FuncTypeByte)
	w.WriteU32(uint32(len(ft.Params)))
	for _, p := range ft.Params {
		w.Byte(byte(p))
	}
	w.WriteU32(uint32(len(ft.Results)))
	for _, r := range ft.Results {
		w.Byte(byte(r))
	}
}

func writeSection(w *binary.Writer, id byte, payload []byte) {
	w.Byte(id)
	w.WriteU32(uint32(len(payload)))
	w.WriteBytes(payload)
}

func leb128Const(op byte, v uint32) []byte {
	w := binary.NewWriter()
	w.Byte(op)
	w.WriteU32(v)
	return w.Bytes()
}

func uleb(v uint32) []byte {
	w := binary.NewWriter()
	w.WriteU32(v)
	return w.Bytes()
}

// buildOverrunningHook builds a hook whose loop guards itself with
// maxiter but drops _g's return value and instead keeps looping on an
// independent local counter for iterations total passes, so the guard
// call at id 0 fires more times than it declared whenever iterations >
// maxiter. It is used to exercise the host's runtime enforcement, not
// the static analyzer (which only ever sees the declared maxiter).
func buildOverrunningHook(t *testing.T, maxiter, iterations uint32) []byte {
	t.Helper()

	w := binary.NewWriter()
	w.WriteBytes([]byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00})

	guardType := wasm.FuncType{
		Params:  []wasm.ValType{wasm.ValI32, wasm.ValI32},
		Results: []wasm.ValType{wasm.ValI32},
	}
	hookType := wasm.FuncType{
		Params:  []wasm.ValType{wasm.ValI32},
		Results: []wasm.ValType{wasm.ValI64},
	}

	typeSec := binary.NewWriter()
	typeSec.WriteU32(2)
	writeFuncType(typeSec, guardType)
	writeFuncType(typeSec, hookType)
	writeSection(w, wasm.SectionType, typeSec.Bytes())

	importSec := binary.NewWriter()
	importSec.WriteU32(1)
	importSec.WriteName("env")
	importSec.WriteName(guard.GuardImportName)
	importSec.Byte(wasm.KindFunc)
	importSec.WriteU32(0)
	writeSection(w, wasm.SectionImport, importSec.Bytes())

	funcSec := binary.NewWriter()
	funcSec.WriteU32(1)
	funcSec.WriteU32(1)
	writeSection(w, wasm.SectionFunction, funcSec.Bytes())

	exportSec := binary.NewWriter()
	exportSec.WriteU32(1)
	exportSec.WriteName("hook")
	exportSec.Byte(wasm.KindFunc)
	exportSec.WriteU32(1)
	writeSection(w, wasm.SectionExport, exportSec.Bytes())

	// local 0 is the hook's i32 parameter; local 1 is the loop counter,
	// declared separately and zero-initialized by the runtime.
	const counterLocal = 1

	body := []byte{wasm.OpLoop, wasm.BlockTypeVoid}
	body = append(body, leb128Const(wasm.OpI32Const, 0)...)       // guard id
	body = append(body, leb128Const(wasm.OpI32Const, maxiter)...) // declared maxiter
	body = append(body, wasm.OpCall)
	body = append(body, uleb(0)...) // call _g
	body = append(body, wasm.OpDrop)
	body = append(body, wasm.OpLocalGet)
	body = append(body, uleb(counterLocal)...)
	body = append(body, leb128Const(wasm.OpI32Const, 1)...)
	body = append(body, 0x6A) // i32.add
	body = append(body, wasm.OpLocalTee)
	body = append(body, uleb(counterLocal)...)
	body = append(body, leb128Const(wasm.OpI32Const, iterations)...)
	body = append(body, 0x4A) // i32.lt_u
	body = append(body, wasm.OpBrIf)
	body = append(body, uleb(0)...) // loop again while counter < iterations
	body = append(body, wasm.OpEnd) // end loop
	body = append(body, leb128Const(wasm.OpI64Const, 0)...) // hook's i64 result
	body = append(body, wasm.OpEnd) // end function

	codeSec := binary.NewWriter()
	codeSec.WriteU32(1)
	fnBody := binary.NewWriter()
	fnBody.WriteU32(1)           // one local-declaration group
	fnBody.WriteU32(1)           // one local in the group
	fnBody.Byte(byte(wasm.ValI32))
	fnBody.WriteBytes(body)
	codeSec.WriteU32(uint32(fnBody.Len()))
	codeSec.WriteBytes(fnBody.Bytes())
	writeSection(w, wasm.SectionCode, codeSec.Bytes())

	data := w.Bytes()

	if _, code, err := guard.ValidateGuards(data, false, guard.DefaultLimits, nil, "hostsim-test"); err != nil {
		t.Fatalf("fixture does not pass validation: %s (%v)", code, err)
	}
	return data
}

func TestHostTrapsWhenLoopExceedsDeclaredMaxIter(t *testing.T) {
	ctx := context.Background()
	data := buildOverrunningHook(t, 3, 10)

	host, err := hostsim.New(ctx)
	if err != nil {
		t.Fatalf("new host: %v", err)
	}
	defer host.Close(ctx)

	mod, err := host.Compile(ctx, data)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	defer mod.Close(ctx)

	runCtx := hostsim.WithGuardBudget(ctx)
	if _, err := mod.RunHook(runCtx, 0); err == nil {
		t.Fatalf("expected the host to trap once the loop ran past its declared maxiter")
	}
}

func TestHostRunHookWithinDeclaredMaxIter(t *testing.T) {
	ctx := context.Background()
	data, ceiling := buildAcceptedHook(t, 5)

	host, err := hostsim.New(ctx)
	if err != nil {
		t.Fatalf("new host: %v", err)
	}
	defer host.Close(ctx)

	mod, err := host.Compile(ctx, data)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	defer mod.Close(ctx)

	runCtx := hostsim.WithGuardBudget(ctx)
	if _, err := mod.RunHook(runCtx, 0); err != nil {
		t.Fatalf("run hook: %v", err)
	}

	if got := hostsim.ObservedMaxIter(runCtx); got != 5 {
		t.Fatalf("expected observed maxiter 5, got %d", got)
	}
	if ceiling == 0 {
		t.Fatalf("expected a nonzero static ceiling for a guarded loop")
	}
}

func TestHostRejectsUnknownExport(t *testing.T) {
	ctx := context.Background()
	data, _ := buildAcceptedHook(t, 1)

	host, err := hostsim.New(ctx)
	if err != nil {
		t.Fatalf("new host: %v", err)
	}
	defer host.Close(ctx)

	mod, err := host.Compile(ctx, data)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	defer mod.Close(ctx)

	if _, err := mod.RunCbak(ctx, 0); err == nil {
		t.Fatalf("expected an error calling a cbak export the fixture never declared")
	}
}
