package guard_test

import (
	"testing"

	"github.com/xrplf/hookguard/guard"
	"github.com/xrplf/hookguard/internal/binary"
	"github.com/xrplf/hookguard/wasm"
)

func TestValidateGuards_StrictModeSectionRules(t *testing.T) {
	t.Run("custom section rejects in strict mode", func(t *testing.T) {
		m, hookType, _ := baseModule()
		fIdx := m.addFunc(hookType, end())
		m.addExport("hook", fIdx)
		data := appendCustomSection(m.build())

		_, code, err := guard.ValidateGuards(data, true, guard.DefaultLimits, nil, "acct")
		assertRejected(t, code, err, guard.CUSTOM_SECTION_DISALLOWED)
	})

	t.Run("custom section is tolerated outside strict mode", func(t *testing.T) {
		m, hookType, _ := baseModule()
		fIdx := m.addFunc(hookType, end())
		m.addExport("hook", fIdx)
		data := appendCustomSection(m.build())

		_, code, err := guard.ValidateGuards(data, false, guard.DefaultLimits, nil, "acct")
		if err != nil {
			t.Fatalf("expected acceptance outside strict mode, got rejection %s (%v)", code, err)
		}
	})
}

// appendCustomSection appends a trailing custom (id 0) section to an
// otherwise well-formed module, the position a real toolchain would
// emit optional metadata like "name".
func appendCustomSection(data []byte) []byte {
	payload := binary.NewWriter()
	payload.WriteName("producers")
	payload.WriteBytes([]byte{0x01, 0x02, 0x03})

	out := binary.NewWriter()
	out.WriteBytes(data)
	out.Byte(wasm.SectionCustom)
	out.WriteU32(uint32(payload.Len()))
	out.WriteBytes(payload.Bytes())
	return out.Bytes()
}
