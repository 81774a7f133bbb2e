package guard

import (
	"bytes"
	"errors"

	"github.com/xrplf/hookguard/wasm"
	"github.com/xrplf/hookguard/internal/binary"
)

// rejected is returned by every internal helper that detects a
// violation; ValidateGuards converts it into the public Err(LogCode)
// result. It is never exported past this package.
type rejected struct {
	code   LogCode
	detail string
}

func (r *rejected) Error() string { return string(r.code) + ": " + r.detail }

func reject(code LogCode, detail string) error {
	return &rejected{code: code, detail: detail}
}

// asRejected extracts the LogCode a helper rejected with, translating a
// bare LEB128 overflow error into WASM_VALIDATION and any other error
// (a short read) into SHORT_HOOK.
func asRejected(err error) (LogCode, string) {
	var r *rejected
	if errors.As(err, &r) {
		return r.code, r.detail
	}
	if errors.Is(err, binary.ErrOverflow) {
		return WASM_VALIDATION, "leb128 overflow: " + err.Error()
	}
	return SHORT_HOOK, err.Error()
}

// magicHeader is the required first 8 bytes of every module.
var magicHeader = []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}

// section is one top-level section's id and its payload's byte range
// within the module.
type section struct {
	id    byte
	start int
	end   int
}

// walkSections checks the magic/version header and returns every
// top-level section in file order, without interpreting payloads. It
// detects truncation and the case where two iterations land on the same
// offset (no forward progress).
func walkSections(data []byte, strict bool) ([]section, error) {
	if len(data) < 10 {
		return nil, reject(WASM_TOO_SMALL, "module shorter than the minimum 10 bytes")
	}
	if !bytes.Equal(data[:8], magicHeader) {
		return nil, reject(WASM_BAD_MAGIC, "missing or incorrect wasm magic/version header")
	}

	r := binary.NewReader(bytes.NewReader(data))
	if err := r.Reset(8); err != nil {
		return nil, reject(SHORT_HOOK, "cannot seek past header")
	}

	var sections []section
	lastOrder := -1
	for r.Position() < len(data) {
		before := r.Position()

		id, err := r.ReadByte()
		if err != nil {
			return nil, reject(SHORT_HOOK, "truncated section id")
		}
		length, err := r.ReadU32()
		if err != nil {
			return nil, reject(SHORT_HOOK, "truncated section length")
		}
		start := r.Position()
		end := start + int(length)
		if end > len(data) {
			return nil, reject(SHORT_HOOK, "section length runs past end of module")
		}

		if strict {
			if id == wasm.SectionCustom {
				return nil, reject(CUSTOM_SECTION_DISALLOWED, "custom sections are disallowed in strict mode")
			}
			order := int(id)
			if order < lastOrder {
				return nil, reject(SECTIONS_OUT_OF_SEQUENCE, "section id out of canonical order")
			}
			lastOrder = order
		}

		sections = append(sections, section{id: id, start: start, end: end})

		if err := r.Reset(end); err != nil {
			return nil, reject(SHORT_HOOK, "cannot seek to next section")
		}
		if r.Position() == before {
			return nil, reject(WASM_PARSE_LOOP, "section walker made no progress")
		}
	}
	return sections, nil
}

// findSection returns the payload range of the first section with the
// given id, or ok=false if none exists.
func findSection(sections []section, id byte) (section, bool) {
	for _, s := range sections {
		if s.id == id {
			return s, true
		}
	}
	return section{}, false
}
