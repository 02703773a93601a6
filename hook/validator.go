package hook

import (
	"bytes"
	"fmt"

	"github.com/go-interpreter/wagon/disasm"
	"github.com/go-interpreter/wagon/wasm"
	ops "github.com/go-interpreter/wagon/wasm/operators"

	"github.com/pantyukhov/xrpld-hooks/common"
	"github.com/pantyukhov/xrpld-hooks/log"
)

// HookSet log codes. Not all are errors; every install-time log line carries
// one: HookSet(<code>)[<account>]: <message>.
type LogCode uint16

const (
	SHORT_HOOK         LogCode = 0  // byte code ended abruptly
	CALL_ILLEGAL       LogCode = 1  // guest imports a non-whitelisted function
	GUARD_PARAMETERS   LogCode = 2  // guard called without constant parameters
	CALL_INDIRECT      LogCode = 3  // call_indirect instruction present
	GUARD_MISSING      LogCode = 4  // guard call missing at top of loop
	MEMORY_GROW        LogCode = 5  // memory.grow instruction present
	BLOCK_ILLEGAL      LogCode = 6  // an end instruction moves execution below depth 0
	INSTRUCTION_COUNT  LogCode = 7  // worst-case execution instruction count
	INSTRUCTION_EXCESS LogCode = 8  // worst-case count too large
	PARAMETERS_ILLEGAL LogCode = 9  // parameter list malformed
	PARAMETERS_FIELD   LogCode = 10 // parameter with an invalid key
	PARAMETERS_NAME    LogCode = 11 // parameter lacked a name
	HASH_OR_CODE       LogCode = 12 // install object carried both code and hash
	GRANTS_EMPTY       LogCode = 13 // grants array present but empty
	GRANTS_EXCESS      LogCode = 14 // too many grants
	GRANTS_ILLEGAL     LogCode = 15 // grants array contained a non-grant
	GRANTS_FIELD       LogCode = 16 // grant without authorize or hook hash
	API_ILLEGAL        LogCode = 17 // api version given for existing definition
	NAMESPACE_MISSING  LogCode = 18 // install object lacked a namespace
	API_MISSING        LogCode = 19 // api version required but missing
	API_INVALID        LogCode = 20 // unrecognised hook api version
	HOOKON_MISSING     LogCode = 21 // HookOn required but missing
	DELETE_FIELD       LogCode = 22 // delete operation carried extra fields
	OVERRIDE_MISSING   LogCode = 23 // update or delete without the override flag
	FLAGS_INVALID      LogCode = 24 // flags invalid for the operation
	NSDELETE_FIELD     LogCode = 25 // namespace delete carried extra fields
	NSDELETE_FLAGS     LogCode = 26 // namespace delete flag combination invalid
)

// LogHookSet emits one install-time log line in the canonical shape.
func LogHookSet(code LogCode, account common.AccountID, msg string) {
	log.Info(log.HookSetMonitor, fmt.Sprintf("HookSet(%d)[%s]: %s", code, account.String(), msg))
}

// ValidationError is a rejected module or install object, carrying the log
// code that narrates the failing check.
type ValidationError struct {
	Code LogCode
	Msg  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("HookSet(%d): %s", e.Code, e.Msg)
}

func validationErr(code LogCode, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// ValidateModule statically analyses a candidate guest module: structural
// validity, import whitelist, call_indirect and memory.grow bans, guard
// placement, block nesting, and the worst-case instruction count.
func ValidateModule(code []byte) (uint64, *ValidationError) {
	if uint32(len(code)) > MaxHookWasmSize() {
		return 0, validationErr(SHORT_HOOK, "hook byte code too large: %d bytes", len(code))
	}
	m, err := wasm.ReadModule(bytes.NewReader(code), nil)
	if err != nil {
		return 0, validationErr(SHORT_HOOK, "web assembly byte code failed to parse: %v", err)
	}

	whitelist := ImportWhitelist()
	guardIdx := -1
	importedFuncs := 0
	if m.Import != nil {
		for _, entry := range m.Import.Entries {
			if entry.Type.Kind() != wasm.ExternalFunction {
				continue
			}
			if entry.ModuleName != "env" || !whitelist[entry.FieldName] {
				return 0, validationErr(CALL_ILLEGAL, "import of non-whitelisted function %s.%s", entry.ModuleName, entry.FieldName)
			}
			if entry.FieldName == "_g" {
				guardIdx = importedFuncs
			}
			importedFuncs++
		}
	}

	var total uint64
	if m.Code != nil {
		for fn, body := range m.Code.Bodies {
			instrs, err := disasm.Disassemble(body.Code)
			if err != nil {
				return 0, validationErr(SHORT_HOOK, "function %d failed to disassemble: %v", fn, err)
			}
			count, verr := analyzeBody(fn, instrs, guardIdx)
			if verr != nil {
				return 0, verr
			}
			total += count
			if total > MaxInstructionCount() {
				return 0, validationErr(INSTRUCTION_EXCESS, "worst case instruction count %d exceeds ceiling %d", total, MaxInstructionCount())
			}
		}
	}
	return total, nil
}

// analyzeBody walks one function's instruction stream, enforcing the guard
// and structure rules and accumulating the worst-case instruction count:
// every instruction weighs the product of its enclosing guards' iteration
// bounds.
func analyzeBody(fn int, instrs []disasm.Instr, guardIdx int) (uint64, *ValidationError) {
	const countCap = ^uint64(0) >> 16

	mult := []uint64{1}
	var total uint64

	for i := 0; i < len(instrs); i++ {
		op := instrs[i].Op.Code
		cur := mult[len(mult)-1]

		if total < countCap {
			total += cur
		}

		switch op {
		case ops.CallIndirect:
			return 0, validationErr(CALL_INDIRECT, "function %d uses call_indirect", fn)
		case ops.GrowMemory:
			return 0, validationErr(MEMORY_GROW, "function %d uses memory.grow", fn)
		case ops.Block, ops.If:
			mult = append(mult, cur)
		case ops.Loop:
			maxIter, verr := checkGuard(fn, instrs, i, guardIdx)
			if verr != nil {
				return 0, verr
			}
			next := cur * uint64(maxIter)
			if maxIter != 0 && next/uint64(maxIter) != cur {
				next = countCap
			}
			mult = append(mult, next)
		case ops.End:
			if len(mult) == 1 {
				// the function-level end must close the stream
				if i != len(instrs)-1 {
					return 0, validationErr(BLOCK_ILLEGAL, "function %d has an end below depth 0", fn)
				}
				continue
			}
			mult = mult[:len(mult)-1]
		}
	}
	return total, nil
}

// checkGuard enforces that the first instruction inside a loop body is a
// call to _g with two constant parameters, and returns the declared
// max_iter.
func checkGuard(fn int, instrs []disasm.Instr, loopIdx int, guardIdx int) (uint32, *ValidationError) {
	rest := instrs[loopIdx+1:]
	if len(rest) >= 1 && rest[0].Op.Code == ops.Call {
		// a direct call without constant parameters reaches here
		if idx, ok := callTarget(rest[0]); ok && idx == guardIdx {
			return 0, validationErr(GUARD_PARAMETERS, "function %d loop guard called without constant parameters", fn)
		}
	}
	if len(rest) < 3 {
		return 0, validationErr(GUARD_MISSING, "function %d loop missing guard call", fn)
	}
	if rest[0].Op.Code != ops.I32Const || rest[1].Op.Code != ops.I32Const || rest[2].Op.Code != ops.Call {
		return 0, validationErr(GUARD_MISSING, "function %d loop missing guard call", fn)
	}
	idx, ok := callTarget(rest[2])
	if !ok || guardIdx < 0 || idx != guardIdx {
		return 0, validationErr(GUARD_MISSING, "function %d loop's first call is not the guard", fn)
	}
	maxIter, ok := constValue(rest[1])
	if !ok {
		return 0, validationErr(GUARD_PARAMETERS, "function %d loop guard parameters are not constant", fn)
	}
	return maxIter, nil
}

func callTarget(in disasm.Instr) (int, bool) {
	if len(in.Immediates) != 1 {
		return 0, false
	}
	switch v := in.Immediates[0].(type) {
	case uint32:
		return int(v), true
	case int32:
		return int(v), true
	case uint64:
		return int(v), true
	default:
		return 0, false
	}
}

func constValue(in disasm.Instr) (uint32, bool) {
	if len(in.Immediates) != 1 {
		return 0, false
	}
	switch v := in.Immediates[0].(type) {
	case int32:
		return uint32(v), true
	case uint32:
		return v, true
	case int64:
		return uint32(v), true
	default:
		return 0, false
	}
}
