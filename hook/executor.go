package hook

import (
	"github.com/pantyukhov/xrpld-hooks/common"
	"github.com/pantyukhov/xrpld-hooks/engine"
	"github.com/pantyukhov/xrpld-hooks/ledger"
	"github.com/pantyukhov/xrpld-hooks/log"
)

const (
	entryHook     = "hook"
	entryCallback = "cbak"
)

// Executor drives one guest invocation: it builds the import table bound to
// the context, instantiates the module, invokes the entry point and captures
// the exit state and instruction count. An executor is single-use.
type Executor struct {
	eng   engine.Engine
	ctx   *Context
	spent bool
}

func NewExecutor(eng engine.Engine, ctx *Context) *Executor {
	return &Executor{eng: eng, ctx: ctx}
}

// Execute runs the module's entry point (hook, or cbak for emission
// callbacks) with the 32-bit wasm parameter. The result lands in the
// context; a second call is refused.
func (e *Executor) Execute(wasm []byte, callback bool, wasmParam uint32) *HookResult {
	ctx := e.ctx
	if e.spent {
		ctx.Result.ExitType = ExitWasmError
		ctx.Result.ExitCode = INTERNAL_ERROR
		return &ctx.Result
	}
	e.spent = true

	ctx.Callback = callback
	ctx.WasmParam = wasmParam
	ctx.Result.Callback = callback
	ctx.Result.WasmParam = wasmParam

	inst, err := e.eng.Instantiate(wasm, BuildImportTable(ctx))
	if err != nil {
		log.Warn(log.HookMonitoring, "module instantiation failed",
			"hook", ctx.HookHash.Hex(), "err", err)
		ctx.Result.ExitType = ExitWasmError
		return &ctx.Result
	}
	ctx.mem = NewGuestMemory(inst.Memory())

	entry := entryHook
	if callback {
		entry = entryCallback
	}
	_, err = inst.Invoke(entry, int32(wasmParam))
	ctx.Result.InstructionCount = inst.InstructionCount()
	ctx.mem = GuestMemory{}

	switch {
	case err == nil:
		// a guest that returns without accept or rollback rolls back,
		// which Result is initialized to
	case err == engine.ErrHalted:
		// accept, rollback or guard violation already recorded
	default:
		log.Warn(log.HookMonitoring, "wasm error",
			"hook", ctx.HookHash.Hex(), "err", err)
		ctx.Result.ExitType = ExitWasmError
	}

	log.Debug(log.HookMonitoring, "hook executed",
		"hook", ctx.HookHash.Hex(),
		"account", ctx.Account.String(),
		"exit", ctx.Result.ExitType.String(),
		"code", ctx.Result.ExitCode,
		"reason", ctx.Result.ExitReason,
		"instructions", ctx.Result.InstructionCount)
	return &ctx.Result
}

// ApplyParams collects everything one hook invocation needs.
type ApplyParams struct {
	HookSetTxnID   common.Hash
	HookHash       common.Hash
	Namespace      common.Namespace
	Wasm           []byte
	Params         map[string][]byte
	ParamOverrides map[common.Hash]map[string][]byte
	StateMap       *StateMap
	ApplyCtx       *ledger.ApplyContext
	Account        common.AccountID
	Callback       bool
	WasmParam      uint32
	ChainPosition  int32
	ChainHashes    []common.Hash
	Skips          map[common.Hash]bool
	EmitFailure    []byte
	FeeBase        int64

	ForeignStateSetDisabled bool
}

// Apply executes a single hook against the shared state map and returns its
// result. This is the ledger-facing entry point for one chain position.
func Apply(eng engine.Engine, p ApplyParams) *HookResult {
	ctx := NewContext(p.ApplyCtx, p.Account, p.HookHash, p.HookSetTxnID, p.Namespace, p.Params, p.StateMap)
	// the execution works on copies; the orchestrator adopts them only on
	// accept, so demoted rollbacks leave no trace
	ctx.ParamOverrides = copyOverrides(p.ParamOverrides)
	ctx.Skips = copySkips(p.Skips)
	ctx.ChainHashes = p.ChainHashes
	ctx.EmitFailure = p.EmitFailure
	ctx.feeBase = p.FeeBase
	ctx.Result.ChainPosition = p.ChainPosition
	ctx.Result.ForeignStateSetDisabled = p.ForeignStateSetDisabled

	result := NewExecutor(eng, ctx).Execute(p.Wasm, p.Callback, p.WasmParam)
	result.HookSkips = ctx.Skips
	result.ParamOverrides = ctx.ParamOverrides
	if result.ExitType == ExitAccept {
		p.StateMap.Merge(ctx.StateMap)
	}
	return result
}
