package hook

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Minimal hand-assembled modules. Layout: magic/version, then sections.
// Section payload lengths stay below 128 so every LEB128 length is one byte.

func section(id byte, payload []byte) []byte {
	out := []byte{id, byte(len(payload))}
	return append(out, payload...)
}

func wasmModule(sections ...[]byte) []byte {
	out := []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}
	for _, s := range sections {
		out = append(out, s...)
	}
	return out
}

// two types: (i32,i32)->i32 for _g, (i32)->i32 for the entry point
func typeSection() []byte {
	return section(1, []byte{
		0x02,
		0x60, 0x02, 0x7F, 0x7F, 0x01, 0x7F,
		0x60, 0x01, 0x7F, 0x01, 0x7F,
	})
}

func importSection(module, field string, typeIdx byte) []byte {
	payload := []byte{0x01, byte(len(module))}
	payload = append(payload, module...)
	payload = append(payload, byte(len(field)))
	payload = append(payload, field...)
	payload = append(payload, 0x00, typeIdx) // function import
	return section(2, payload)
}

func funcSection(typeIdx byte) []byte {
	return section(3, []byte{0x01, typeIdx})
}

func exportSection(name string, funcIdx byte) []byte {
	payload := []byte{0x01, byte(len(name))}
	payload = append(payload, name...)
	payload = append(payload, 0x00, funcIdx)
	return section(7, payload)
}

func codeSection(body []byte) []byte {
	fn := append([]byte{byte(len(body) + 1), 0x00}, body...) // no locals
	return section(10, append([]byte{0x01}, fn...))
}

func guardedLoopModule() []byte {
	body := []byte{
		0x03, 0x40, // loop (empty blocktype)
		0x41, 0x01, // i32.const 1 (guard id)
		0x41, 0x03, // i32.const 3 (max_iter)
		0x10, 0x00, // call _g
		0x1A,       // drop
		0x0B,       // end (loop)
		0x41, 0x00, // i32.const 0
		0x0B, // end (function)
	}
	return wasmModule(typeSection(), importSection("env", "_g", 0), funcSection(1), exportSection("hook", 1), codeSection(body))
}

func TestValidateModuleAcceptsGuardedLoop(t *testing.T) {
	count, verr := ValidateModule(guardedLoopModule())
	require.Nil(t, verr)
	require.Greater(t, count, uint64(0))
}

func TestValidateModuleRejectsGarbage(t *testing.T) {
	_, verr := ValidateModule([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	require.NotNil(t, verr)
	require.Equal(t, SHORT_HOOK, verr.Code)
}

func TestValidateModuleRejectsOversize(t *testing.T) {
	_, verr := ValidateModule(make([]byte, int(MaxHookWasmSize())+1))
	require.NotNil(t, verr)
	require.Equal(t, SHORT_HOOK, verr.Code)
}

func TestValidateModuleRejectsIllegalImport(t *testing.T) {
	body := []byte{0x41, 0x00, 0x0B}
	m := wasmModule(typeSection(), importSection("env", "evil_fn", 0), funcSection(1), exportSection("hook", 1), codeSection(body))
	_, verr := ValidateModule(m)
	require.NotNil(t, verr)
	require.Equal(t, CALL_ILLEGAL, verr.Code)
}

func TestValidateModuleRejectsWrongImportModule(t *testing.T) {
	body := []byte{0x41, 0x00, 0x0B}
	m := wasmModule(typeSection(), importSection("hax", "_g", 0), funcSection(1), exportSection("hook", 1), codeSection(body))
	_, verr := ValidateModule(m)
	require.NotNil(t, verr)
	require.Equal(t, CALL_ILLEGAL, verr.Code)
}

func TestValidateModuleRejectsCallIndirect(t *testing.T) {
	body := []byte{
		0x41, 0x00, // i32.const 0
		0x11, 0x01, 0x00, // call_indirect type 1, table 0
		0x1A,       // drop
		0x41, 0x00, // i32.const 0
		0x0B, // end
	}
	m := wasmModule(typeSection(), importSection("env", "_g", 0), funcSection(1), exportSection("hook", 1), codeSection(body))
	_, verr := ValidateModule(m)
	require.NotNil(t, verr)
	require.Equal(t, CALL_INDIRECT, verr.Code)
}

func TestValidateModuleRejectsMemoryGrow(t *testing.T) {
	body := []byte{
		0x41, 0x01, // i32.const 1
		0x40, 0x00, // memory.grow
		0x1A,       // drop
		0x41, 0x00, // i32.const 0
		0x0B, // end
	}
	m := wasmModule(typeSection(), importSection("env", "_g", 0), funcSection(1), exportSection("hook", 1), codeSection(body))
	_, verr := ValidateModule(m)
	require.NotNil(t, verr)
	require.Equal(t, MEMORY_GROW, verr.Code)
}

func TestValidateModuleRejectsUnguardedLoop(t *testing.T) {
	body := []byte{
		0x03, 0x40, // loop
		0x01,       // nop
		0x0B,       // end (loop)
		0x41, 0x00, // i32.const 0
		0x0B, // end
	}
	m := wasmModule(typeSection(), importSection("env", "_g", 0), funcSection(1), exportSection("hook", 1), codeSection(body))
	_, verr := ValidateModule(m)
	require.NotNil(t, verr)
	require.Equal(t, GUARD_MISSING, verr.Code)
}

func TestValidateModuleRejectsGuardWithoutConstants(t *testing.T) {
	// the loop's first instruction calls _g directly, parameters taken
	// from the operand stack rather than constants
	body := []byte{
		0x41, 0x01, // i32.const 1 (outside the loop)
		0x41, 0x03, // i32.const 3
		0x03, 0x40, // loop
		0x10, 0x00, // call _g
		0x1A,       // drop
		0x0B,       // end (loop)
		0x41, 0x00, // i32.const 0
		0x0B, // end
	}
	m := wasmModule(typeSection(), importSection("env", "_g", 0), funcSection(1), exportSection("hook", 1), codeSection(body))
	_, verr := ValidateModule(m)
	require.NotNil(t, verr)
	require.Equal(t, GUARD_PARAMETERS, verr.Code)
}

func TestValidateModuleCountsNestedGuards(t *testing.T) {
	// inner loop multiplies its guard bound into the outer one
	inner := []byte{
		0x03, 0x40, // inner loop
		0x41, 0x02, 0x41, 0x05, 0x10, 0x00, 0x1A, // _g(2, 5)
		0x0B,
	}
	body := []byte{
		0x03, 0x40, // outer loop
		0x41, 0x01, 0x41, 0x0A, 0x10, 0x00, 0x1A, // _g(1, 10)
	}
	body = append(body, inner...)
	body = append(body, 0x0B, 0x41, 0x00, 0x0B)
	m := wasmModule(typeSection(), importSection("env", "_g", 0), funcSection(1), exportSection("hook", 1), codeSection(body))

	flatCount, verr := ValidateModule(guardedLoopModule())
	require.Nil(t, verr)
	nestedCount, verr := ValidateModule(m)
	require.Nil(t, verr)
	require.Greater(t, nestedCount, flatCount)
	// five inner instructions weigh 10*5, so the nested body clears 250
	require.Greater(t, nestedCount, uint64(250))
}
