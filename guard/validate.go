package guard

import "fmt"

// ValidateGuards is the package's single entry point: given a module's
// raw bytes, a strict-mode flag, a limits configuration, a log sink,
// and an opaque account identifier used only in log formatting, it
// returns the hook/cbak instruction ceilings on acceptance or the first
// LogCode that rejected the module.
//
// Validation is a pure function of its arguments: it holds no state
// across calls and is safe to invoke concurrently on distinct inputs.
func ValidateGuards(data []byte, strict bool, limits Limits, sink Sink, account string) (Result, LogCode, error) {
	if sink == nil {
		sink = NopSink{}
	}

	result, code, detail, err := validateGuards(data, strict, limits)
	if err != nil {
		sink.Emit(Event{Code: code, Account: account, Detail: detail})
		return Result{}, code, err
	}

	sink.Emit(Event{
		Code:    INSTRUCTION_COUNT,
		Account: account,
		Detail:  fmt.Sprintf("accepted: hook ceiling %d, cbak ceiling %d", result.HookCeiling, result.CbakCeiling),
	})
	return result, "", nil
}

func validateGuards(data []byte, strict bool, limits Limits) (Result, LogCode, string, error) {
	sections, err := walkSections(data, strict)
	if err != nil {
		code, detail := asRejected(err)
		return Result{}, code, detail, err
	}

	res, err := resolve(data, sections, strict)
	if err != nil {
		code, detail := asRejected(err)
		return Result{}, code, detail, err
	}

	hookBody, ok := res.bodies[res.hookFuncIdx]
	if !ok {
		err := reject(FUNC_TYPELESS, "hook function has no code-section body")
		code, detail := asRejected(err)
		return Result{}, code, detail, err
	}
	hookCeiling, err := checkGuard(data, hookBody, res, limits, strict)
	if err != nil {
		code, detail := asRejected(err)
		return Result{}, code, detail, err
	}

	var cbakCeiling uint64
	if res.hasCbak {
		cbakBody, ok := res.bodies[res.cbakFuncIdx]
		if !ok {
			err := reject(FUNC_TYPELESS, "cbak function has no code-section body")
			code, detail := asRejected(err)
			return Result{}, code, detail, err
		}
		cbakCeiling, err = checkGuard(data, cbakBody, res, limits, strict)
		if err != nil {
			code, detail := asRejected(err)
			return Result{}, code, detail, err
		}
	}

	// Every other local function body is held to the same guard and call
	// rules; only the hook/cbak ceilings are returned.
	for i := uint32(0); i < uint32(len(res.bodies)); i++ {
		if i == res.hookFuncIdx || (res.hasCbak && i == res.cbakFuncIdx) {
			continue
		}
		if _, err := checkGuard(data, res.bodies[i], res, limits, strict); err != nil {
			code, detail := asRejected(err)
			return Result{}, code, detail, err
		}
	}

	return Result{
		HookCeiling: hookCeiling,
		CbakCeiling: cbakCeiling,
		Imports:     res.imports,
		Exports:     res.exports,
	}, "", "", nil
}
