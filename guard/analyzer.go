package guard

import (
	"bytes"

	"github.com/xrplf/hookguard/wasm"
	"github.com/xrplf/hookguard/internal/binary"
)

// analyzerState is the per-function-body state checkGuard threads
// through a single pass over a function's instructions. Everything here
// is scoped to one call; nothing survives past the function it analyzes.
type analyzerState struct {
	depth int
	mode  mode

	stack   []uint64
	locals  map[uint32]uint64
	globals map[uint32]uint64

	counters []blockCounter
}

func newAnalyzerState(maxNesting int) *analyzerState {
	s := &analyzerState{
		mode:     seekingLoop,
		locals:   make(map[uint32]uint64),
		globals:  make(map[uint32]uint64),
		counters: make([]blockCounter, maxNesting+2),
	}
	s.counters[0] = blockCounter{largestGuard: 1, rollingCount: 0}
	return s
}

func (s *analyzerState) clearWindow() {
	s.stack = s.stack[:0]
	s.locals = make(map[uint32]uint64)
	s.globals = make(map[uint32]uint64)
}

func (s *analyzerState) push(v uint64) { s.stack = append(s.stack, v) }

func (s *analyzerState) pop() (uint64, bool) {
	if len(s.stack) == 0 {
		return 0, false
	}
	v := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	return v, true
}

func (s *analyzerState) count(n uint64) {
	s.counters[s.depth].rollingCount += n
}

// checkGuard walks one function body's instructions, enforcing that
// every loop opens a guard window resolved by a constant call to _g,
// and accumulating the worst-case instruction ceiling those guards
// imply. It never builds an AST; each opcode is handled and discarded
// as it is read.
func checkGuard(data []byte, body funcBody, res *resolved, limits Limits, strict bool) (uint64, error) {
	r := binary.NewReader(bytes.NewReader(data))
	if err := r.Reset(body.start); err != nil {
		return 0, reject(SHORT_HOOK, "cannot seek to function body")
	}

	st := newAnalyzerState(limits.MaxNesting)

	for r.Position() < body.end {
		op, err := r.ReadByte()
		if err != nil {
			return 0, reject(SHORT_HOOK, "truncated opcode")
		}

		switch {
		case op == wasm.OpUnreachable || op == wasm.OpNop:
			st.count(1)

		case op == wasm.OpBlock || op == wasm.OpIf:
			if op == wasm.OpIf && st.mode == seekingGuard {
				return 0, reject(GUARD_MISSING, "if is not a valid guard call")
			}
			if _, err := r.ReadByte(); err != nil { // block type
				return 0, reject(SHORT_HOOK, "truncated block type")
			}
			if err := st.enterBlock(limits.MaxNesting); err != nil {
				return 0, err
			}

		case op == wasm.OpLoop:
			if _, err := r.ReadByte(); err != nil { // block type
				return 0, reject(SHORT_HOOK, "truncated block type")
			}
			if err := st.enterBlock(limits.MaxNesting); err != nil {
				return 0, err
			}
			st.mode = seekingGuard
			st.clearWindow()

		case op == wasm.OpElse:
			st.count(1)

		case op == wasm.OpEnd:
			if st.depth == 0 {
				if st.mode == seekingGuard {
					return 0, reject(GUARD_MISSING, "function body ended while still seeking a guard")
				}
				total := st.counters[0].rollingCount
				if total > limits.MaxInstructions {
					return 0, reject(INSTRUCTION_EXCESS, "worst-case instruction ceiling exceeds the configured bound")
				}
				return total, nil
			}
			child := st.counters[st.depth]
			st.depth--
			if st.depth < 0 {
				return 0, reject(BLOCK_ILLEGAL, "end decremented block depth below zero")
			}
			st.counters[st.depth].rollingCount += child.rollingCount * child.largestGuard

		case op == wasm.OpBr || op == wasm.OpBrIf:
			if st.mode == seekingGuard {
				return 0, reject(GUARD_MISSING, "branch is not a valid guard call")
			}
			if _, err := r.ReadU32(); err != nil {
				return 0, reject(SHORT_HOOK, "truncated branch label")
			}
			st.count(1)

		case op == wasm.OpBrTable:
			if st.mode == seekingGuard {
				return 0, reject(GUARD_MISSING, "br_table is not a valid guard call")
			}
			n, err := r.ReadU32()
			if err != nil {
				return 0, reject(SHORT_HOOK, "truncated br_table vector length")
			}
			for i := uint32(0); i < n; i++ {
				if _, err := r.ReadU32(); err != nil {
					return 0, reject(SHORT_HOOK, "truncated br_table label")
				}
			}
			if _, err := r.ReadU32(); err != nil { // default label
				return 0, reject(SHORT_HOOK, "truncated br_table default label")
			}
			st.count(1)

		case op == wasm.OpReturn:
			if st.mode == seekingGuard {
				return 0, reject(GUARD_MISSING, "return is not a valid guard call")
			}
			st.count(1)

		case op == wasm.OpCall:
			idx, err := r.ReadU32()
			if err != nil {
				return 0, reject(SHORT_HOOK, "truncated call function index")
			}
			if idx > res.lastImportIdx {
				return 0, reject(CALL_ILLEGAL, "call targets a locally defined function")
			}
			if idx == res.guardImportIdx {
				if st.mode == seekingLoop {
					st.count(1)
					continue
				}
				maxiterRaw, ok := st.pop()
				if !ok {
					return 0, reject(GUARD_PARAMETERS, "guard call has no operand stack entries")
				}
				_, ok = st.pop()
				if !ok {
					return 0, reject(GUARD_PARAMETERS, "guard call is missing its id operand")
				}
				maxiter := uint32(maxiterRaw)
				if maxiter == 0 {
					return 0, reject(GUARD_PARAMETERS, "guard maxiter is not strictly positive")
				}
				if uint64(maxiter) > st.counters[st.depth].largestGuard {
					st.counters[st.depth].largestGuard = uint64(maxiter)
				}
				st.count(1)
				st.clearWindow()
				st.mode = seekingLoop
				continue
			}
			st.count(1)

		case op == wasm.OpCallIndirect:
			return 0, reject(CALL_INDIRECT, "call_indirect is forbidden")

		case op == wasm.OpDrop || op == wasm.OpSelect:
			st.count(1)

		case op == wasm.OpLocalGet || op == wasm.OpGlobalGet:
			idx, err := r.ReadU32()
			if err != nil {
				return 0, reject(SHORT_HOOK, "truncated variable index")
			}
			if st.mode == seekingGuard {
				m := st.locals
				if op == wasm.OpGlobalGet {
					m = st.globals
				}
				st.push(m[idx])
			}
			st.count(1)

		case op == wasm.OpLocalSet || op == wasm.OpGlobalSet:
			idx, err := r.ReadU32()
			if err != nil {
				return 0, reject(SHORT_HOOK, "truncated variable index")
			}
			if st.mode == seekingGuard {
				v, _ := st.pop()
				m := st.locals
				if op == wasm.OpGlobalSet {
					m = st.globals
				}
				m[idx] = v
			}
			st.count(1)

		case op == wasm.OpLocalTee:
			idx, err := r.ReadU32()
			if err != nil {
				return 0, reject(SHORT_HOOK, "truncated variable index")
			}
			if st.mode == seekingGuard && len(st.stack) > 0 {
				st.locals[idx] = st.stack[len(st.stack)-1]
			}
			st.count(1)

		case op >= wasm.OpMemLoadStoreLo && op <= wasm.OpMemLoadStoreHi:
			if _, err := r.ReadU32(); err != nil { // alignment
				return 0, reject(SHORT_HOOK, "truncated memory alignment")
			}
			if _, err := r.ReadU32(); err != nil { // offset
				return 0, reject(SHORT_HOOK, "truncated memory offset")
			}
			st.count(1)

		case op == wasm.OpMemorySize:
			if _, err := r.ReadByte(); err != nil { // reserved
				return 0, reject(SHORT_HOOK, "truncated memory.size reserved byte")
			}
			st.count(1)

		case op == wasm.OpMemoryGrow:
			return 0, reject(MEMORY_GROW, "memory.grow is forbidden")

		case op == wasm.OpI32Const:
			v, err := r.ReadU32()
			if err != nil {
				return 0, reject(SHORT_HOOK, "truncated i32.const immediate")
			}
			if st.mode == seekingGuard {
				st.push(uint64(v))
			}
			st.count(1)

		case op == wasm.OpI64Const:
			v, err := r.ReadU64()
			if err != nil {
				return 0, reject(SHORT_HOOK, "truncated i64.const immediate")
			}
			if st.mode == seekingGuard {
				st.push(v)
			}
			st.count(1)

		case op == wasm.OpF32Const:
			if _, err := r.ReadBytes(4); err != nil {
				return 0, reject(SHORT_HOOK, "truncated f32.const immediate")
			}
			st.count(1)

		case op == wasm.OpF64Const:
			if _, err := r.ReadBytes(8); err != nil {
				return 0, reject(SHORT_HOOK, "truncated f64.const immediate")
			}
			st.count(1)

		case op >= wasm.OpNumericLo && op <= wasm.OpNumericHi:
			st.count(1)

		case op == wasm.OpPrefixMisc:
			if _, err := r.ReadU32(); err != nil { // sub-opcode
				return 0, reject(SHORT_HOOK, "truncated misc sub-opcode")
			}
			return 0, reject(WASM_VALIDATION, "0xFC bulk-memory opcode family is disallowed")

		default:
			return 0, reject(WASM_VALIDATION, "unrecognized opcode")
		}
	}

	return 0, reject(SHORT_HOOK, "function body ended without a closing end")
}

// enterBlock increments the block depth, enforces the nesting cap, and
// seeds the new depth's counter.
func (s *analyzerState) enterBlock(maxNesting int) error {
	s.depth++
	if s.depth > maxNesting {
		return reject(NESTING_LIMIT, "combined block/loop/if nesting exceeds the configured cap")
	}
	s.counters[s.depth] = blockCounter{largestGuard: 1, rollingCount: 0}
	return nil
}
