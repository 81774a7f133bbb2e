package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/xrplf/hookguard/guard"
)

func main() {
	var (
		wasmFile    = flag.String("wasm", "", "Path to hook wasm file (reads stdin if empty)")
		strict      = flag.Bool("strict", true, "Enforce strict-mode rules (no custom sections, single result type)")
		maxInstr    = flag.Uint64("max-instructions", guard.DefaultLimits.MaxInstructions, "Worst-case instruction ceiling")
		maxNesting  = flag.Int("max-nesting", guard.DefaultLimits.MaxNesting, "Maximum block/loop/if nesting depth")
		account     = flag.String("account", "", "Account string carried through to logged events")
		interactive = flag.Bool("i", false, "Browse the result in an interactive TUI")
		verbose     = flag.Bool("verbose", false, "Emit a structured log line for the outcome")
	)
	flag.Parse()

	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: build logger: %v\n", err)
			os.Exit(1)
		}
		guard.SetLogger(l)
		defer l.Sync()
	}

	limits := guard.Limits{MaxInstructions: *maxInstr, MaxNesting: *maxNesting}

	data, err := readInput(*wasmFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *interactive {
		if err := runInteractive(data, *strict, limits, *account); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(data, *strict, limits, *account); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func readInput(wasmFile string) ([]byte, error) {
	if wasmFile == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(wasmFile)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}

func run(data []byte, strict bool, limits guard.Limits, account string) error {
	result, code, err := guard.ValidateGuards(data, strict, limits, guard.ZapSink{}, account)
	if err != nil {
		fmt.Printf("REJECTED: %s\n", code)
		return err
	}

	fmt.Printf("ACCEPTED\n")
	fmt.Printf("hook ceiling: %d\n", result.HookCeiling)
	fmt.Printf("cbak ceiling: %d\n", result.CbakCeiling)
	return nil
}
