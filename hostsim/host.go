// Package hostsim is a minimal wazero-backed host, used only by this
// module's own tests, that compiles and instantiates a hook module
// already accepted by guard.ValidateGuards and then enforces, at actual
// runtime, the per-loop maxiter each guard call declared. It exists to
// answer the question the static analyzer cannot: does a module that
// ignores or mishandles its own guard result actually get stopped once
// a guarded loop runs past the bound it claimed. It is not part of the
// validator and is not a production XRPL Hooks host.
package hostsim

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/xrplf/hookguard/guard"
	"github.com/xrplf/hookguard/wasm"
)

// Host wraps a wazero runtime preloaded with stub implementations of
// every function on the host-API whitelist, plus a _g that counts
// guard calls against the maxiter each one declares.
type Host struct {
	runtime wazero.Runtime
}

// New creates a Host. Callers must call Close when done with it.
func New(ctx context.Context) (*Host, error) {
	runtime := wazero.NewRuntime(ctx)

	builder := runtime.NewHostModuleBuilder("env")
	for name, sig := range guard.Whitelist {
		if name == guard.GuardImportName {
			continue
		}
		builder.NewFunctionBuilder().
			WithGoModuleFunction(stubHostFunc(len(sig.Results)), toValueTypes(sig.Params), toValueTypes(sig.Results)).
			Export(name)
	}
	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(guardHostFunc), toValueTypes(guard.Whitelist[guard.GuardImportName].Params), toValueTypes(guard.Whitelist[guard.GuardImportName].Results)).
		Export(guard.GuardImportName)

	if _, err := builder.Instantiate(ctx); err != nil {
		runtime.Close(ctx)
		return nil, fmt.Errorf("instantiate env host module: %w", err)
	}

	return &Host{runtime: runtime}, nil
}

// Close releases the underlying wazero runtime.
func (h *Host) Close(ctx context.Context) error {
	return h.runtime.Close(ctx)
}

// guardCounter is the per-call-context iteration accounting the
// currently executing hook call has accumulated. It is plumbed through
// the context rather than stored on Host because a Host's runtime may
// execute several concurrent calls, each with its own guard budget.
type guardCounterKey struct{}

type guardSite struct {
	maxiter uint32
	calls   uint32
}

type guardCounter struct {
	maxiter uint32
	sites   map[uint32]*guardSite
}

// WithGuardBudget returns a context carrying a fresh guard accounting
// record; RunHook/RunCbak use it to detect a hook that calls _g at a
// given id more times than the maxiter it first declared for that id.
func WithGuardBudget(ctx context.Context) context.Context {
	return context.WithValue(ctx, guardCounterKey{}, &guardCounter{sites: make(map[uint32]*guardSite)})
}

// guardHostFunc implements _g(id, maxiter) -> i32. The first call at a
// given id records the maxiter it declares; every later call at the
// same id increments that site's observed call count and panics once
// it exceeds the declared bound. wazero recovers a host function panic
// into the error RunHook/RunCbak's Call returns, so an overrunning loop
// aborts the call instead of silently running unbounded.
func guardHostFunc(ctx context.Context, _ api.Module, stack []uint64) {
	id := uint32(stack[0])
	maxiter := uint32(stack[1])

	gc, ok := ctx.Value(guardCounterKey{}).(*guardCounter)
	if !ok {
		stack[0] = 1
		return
	}
	if maxiter > gc.maxiter {
		gc.maxiter = maxiter
	}

	site, seen := gc.sites[id]
	if !seen {
		gc.sites[id] = &guardSite{maxiter: maxiter, calls: 1}
		stack[0] = 1
		return
	}
	site.calls++
	if site.calls > site.maxiter {
		panic(fmt.Sprintf("hookguard: guard id %d ran %d iterations past its declared maxiter %d", id, site.calls, site.maxiter))
	}
	stack[0] = 1
}

// stubHostFunc returns a host function that does nothing beyond
// zeroing its declared results; the hostsim harness only needs
// believable call/return shapes, not XRPL ledger semantics.
func stubHostFunc(numResults int) api.GoModuleFunc {
	return func(_ context.Context, _ api.Module, stack []uint64) {
		for i := 0; i < numResults && i < len(stack); i++ {
			stack[i] = 0
		}
	}
}

func toValueTypes(vts []wasm.ValType) []api.ValueType {
	out := make([]api.ValueType, len(vts))
	for i, v := range vts {
		out[i] = api.ValueType(v)
	}
	return out
}

// Module is a compiled hook module ready to be instantiated and run.
type Module struct {
	host     *Host
	compiled wazero.CompiledModule
}

// Compile compiles wasm bytes that have already passed
// guard.ValidateGuards. It does not re-validate them.
func (h *Host) Compile(ctx context.Context, wasmBytes []byte) (*Module, error) {
	compiled, err := h.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("compile module: %w", err)
	}
	return &Module{host: h, compiled: compiled}, nil
}

// Close releases the compiled module.
func (m *Module) Close(ctx context.Context) error {
	return m.compiled.Close(ctx)
}

// RunHook instantiates the module and calls its "hook" export with the
// given i32 argument, returning the i64 result the real host-API
// contract specifies. Guard calls are counted and their maxiter enforced
// only when ctx comes from WithGuardBudget; under any other context _g
// simply returns 1.
func (m *Module) RunHook(ctx context.Context, arg uint32) (int64, error) {
	return m.call(ctx, "hook", arg)
}

// RunCbak calls the "cbak" export, if the module has one.
func (m *Module) RunCbak(ctx context.Context, arg uint32) (int64, error) {
	return m.call(ctx, "cbak", arg)
}

func (m *Module) call(ctx context.Context, export string, arg uint32) (int64, error) {
	modConfig := wazero.NewModuleConfig().WithName("")
	instance, err := m.host.runtime.InstantiateModule(ctx, m.compiled, modConfig)
	if err != nil {
		return 0, fmt.Errorf("instantiate module: %w", err)
	}
	defer instance.Close(ctx)

	fn := instance.ExportedFunction(export)
	if fn == nil {
		return 0, fmt.Errorf("no %q export", export)
	}

	results, err := fn.Call(ctx, uint64(arg))
	if err != nil {
		return 0, fmt.Errorf("call %s: %w", export, err)
	}
	if len(results) != 1 {
		return 0, fmt.Errorf("call %s: expected 1 result, got %d", export, len(results))
	}
	return int64(results[0]), nil
}

// ObservedMaxIter returns the largest maxiter any guard call declared
// during the calls made against ctx, or 0 if none ran.
func ObservedMaxIter(ctx context.Context) uint32 {
	if gc, ok := ctx.Value(guardCounterKey{}).(*guardCounter); ok {
		return gc.maxiter
	}
	return 0
}
