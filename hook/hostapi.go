package hook

import (
	"github.com/pantyukhov/xrpld-hooks/common"
	"github.com/pantyukhov/xrpld-hooks/engine"
	"github.com/pantyukhov/xrpld-hooks/log"
)

// Host functions are plain methods with a uniform (args) -> int64 shape,
// registered into the engine's import table by name. Every pointer/length
// pair is validated against guest memory before use; no function mutates
// guest memory on an error path.

func u32(v int64) uint32 {
	return uint32(v)
}

// BuildImportTable registers the full host-api surface bound to ctx. The
// name set matches the install-time import whitelist exactly.
func BuildImportTable(ctx *Context) engine.ImportTable {
	t := engine.ImportTable{}
	reg := func(name string, numArgs int, fn func(args []int64) int64) {
		t[name] = engine.HostFunc{NumArgs: numArgs, Fn: fn}
	}

	reg("_g", 2, ctx.hostGuard)
	reg("accept", 3, ctx.hostAccept)
	reg("rollback", 3, ctx.hostRollback)

	reg("util_raddr", 4, ctx.hostUtilRaddr)
	reg("util_accid", 4, ctx.hostUtilAccid)
	reg("util_verify", 6, ctx.hostUtilVerify)
	reg("util_sha512h", 4, ctx.hostUtilSha512h)
	reg("util_keylet", 9, ctx.hostUtilKeylet)

	reg("sto_validate", 2, ctx.hostStoValidate)
	reg("sto_subfield", 3, ctx.hostStoSubfield)
	reg("sto_subarray", 3, ctx.hostStoSubarray)
	reg("sto_emplace", 7, ctx.hostStoEmplace)
	reg("sto_erase", 5, ctx.hostStoErase)

	reg("emit", 4, ctx.hostEmit)
	reg("etxn_burden", 0, ctx.hostEtxnBurden)
	reg("etxn_fee_base", 1, ctx.hostEtxnFeeBase)
	reg("etxn_details", 2, ctx.hostEtxnDetails)
	reg("etxn_reserve", 1, ctx.hostEtxnReserve)
	reg("etxn_generation", 0, ctx.hostEtxnGeneration)

	reg("float_set", 2, ctx.hostFloatSet)
	reg("float_multiply", 2, ctx.hostFloatMultiply)
	reg("float_mulratio", 4, ctx.hostFloatMulratio)
	reg("float_negate", 1, ctx.hostFloatNegate)
	reg("float_compare", 3, ctx.hostFloatCompare)
	reg("float_sum", 2, ctx.hostFloatSum)
	reg("float_sto", 8, ctx.hostFloatSto)
	reg("float_sto_set", 2, ctx.hostFloatStoSet)
	reg("float_invert", 1, ctx.hostFloatInvert)
	reg("float_divide", 2, ctx.hostFloatDivide)
	reg("float_one", 0, ctx.hostFloatOne)
	reg("float_exponent", 1, ctx.hostFloatExponent)
	reg("float_exponent_set", 2, ctx.hostFloatExponentSet)
	reg("float_mantissa", 1, ctx.hostFloatMantissa)
	reg("float_mantissa_set", 2, ctx.hostFloatMantissaSet)
	reg("float_sign", 1, ctx.hostFloatSign)
	reg("float_sign_set", 2, ctx.hostFloatSignSet)
	reg("float_int", 3, ctx.hostFloatInt)

	reg("otxn_burden", 0, ctx.hostOtxnBurden)
	reg("otxn_generation", 0, ctx.hostOtxnGeneration)
	reg("otxn_field", 3, ctx.hostOtxnField)
	reg("otxn_id", 3, ctx.hostOtxnID)
	reg("otxn_type", 0, ctx.hostOtxnType)
	reg("otxn_slot", 1, ctx.hostOtxnSlot)

	reg("hook_account", 2, ctx.hostHookAccount)
	reg("hook_hash", 3, ctx.hostHookHash)
	reg("fee_base", 0, ctx.hostFeeBase)
	reg("ledger_seq", 0, ctx.hostLedgerSeq)
	reg("ledger_last_hash", 2, ctx.hostLedgerLastHash)
	reg("nonce", 2, ctx.hostNonce)

	reg("hook_param", 4, ctx.hostHookParam)
	reg("hook_param_set", 6, ctx.hostHookParamSet)
	reg("hook_skip", 3, ctx.hostHookSkip)
	reg("hook_pos", 0, ctx.hostHookPos)

	reg("slot", 3, ctx.hostSlot)
	reg("slot_clear", 1, ctx.hostSlotClear)
	reg("slot_count", 1, ctx.hostSlotCount)
	reg("slot_id", 3, ctx.hostSlotID)
	reg("slot_set", 3, ctx.hostSlotSet)
	reg("slot_size", 1, ctx.hostSlotSize)
	reg("slot_subarray", 3, ctx.hostSlotSubarray)
	reg("slot_subfield", 3, ctx.hostSlotSubfield)
	reg("slot_type", 2, ctx.hostSlotType)
	reg("slot_float", 1, ctx.hostSlotFloat)

	reg("state_set", 4, ctx.hostStateSet)
	reg("state_foreign_set", 8, ctx.hostStateForeignSet)
	reg("state", 4, ctx.hostState)
	reg("state_foreign", 8, ctx.hostStateForeign)

	reg("trace", 5, ctx.hostTrace)
	reg("trace_num", 3, ctx.hostTraceNum)
	reg("trace_float", 3, ctx.hostTraceFloat)
	reg("trace_slot", 3, ctx.hostTraceSlot)

	return t
}

// ImportWhitelist is the fixed set of names a guest module may import.
func ImportWhitelist() map[string]bool {
	wl := make(map[string]bool)
	for name := range BuildImportTable(&Context{}) {
		wl[name] = true
	}
	return wl
}

// hostGuard is _g(guard_id, max_iter): the loop guard. Exceeding max_iter
// force-terminates the execution as a rollback.
func (ctx *Context) hostGuard(args []int64) int64 {
	id, maxIter := u32(args[0]), u32(args[1])
	if ctx.guards.Check(id, maxIter) {
		return 1
	}
	ctx.Result.ExitType = ExitRollback
	ctx.Result.ExitCode = GUARD_VIOLATION
	ctx.Result.ExitReason = "guard violation"
	log.Debug(log.HookMonitoring, "guard violation", "guard_id", id, "max_iter", maxIter, "hook", ctx.HookHash.Hex())
	engine.Halt()
	return GUARD_VIOLATION
}

func (ctx *Context) exitReason(ptr, length uint32) string {
	if length > MaxExitReasonLen {
		length = MaxExitReasonLen
	}
	data, rc := ctx.mem.Read(ptr, length)
	if rc != SUCCESS {
		return ""
	}
	return string(data)
}

// hostAccept commits the execution: state writes merge, emissions persist.
func (ctx *Context) hostAccept(args []int64) int64 {
	ctx.Result.ExitType = ExitAccept
	ctx.Result.ExitReason = ctx.exitReason(u32(args[0]), u32(args[1]))
	ctx.Result.ExitCode = args[2]
	engine.Halt()
	return RC_ACCEPT
}

// hostRollback aborts the execution; whether the whole transaction dies is
// the orchestrator's call, by stakeholder rights.
func (ctx *Context) hostRollback(args []int64) int64 {
	ctx.Result.ExitType = ExitRollback
	ctx.Result.ExitReason = ctx.exitReason(u32(args[0]), u32(args[1]))
	ctx.Result.ExitCode = args[2]
	engine.Halt()
	return RC_ROLLBACK
}

// trace(mread_ptr, mread_len, dread_ptr, dread_len, as_hex): best-effort
// logging, never fails the guest.
func (ctx *Context) hostTrace(args []int64) int64 {
	msg, rc := ctx.mem.Read(u32(args[0]), u32(args[1]))
	if rc != SUCCESS {
		return SUCCESS
	}
	data, rc := ctx.mem.Read(u32(args[2]), u32(args[3]))
	if rc != SUCCESS {
		return SUCCESS
	}
	if args[4] != 0 {
		log.Debug(log.TraceGuest, string(msg), "data", common.Bytes2Hex(data), "hook", ctx.HookHash.Hex())
	} else {
		log.Debug(log.TraceGuest, string(msg), "data", string(data), "hook", ctx.HookHash.Hex())
	}
	return SUCCESS
}

func (ctx *Context) hostTraceNum(args []int64) int64 {
	msg, rc := ctx.mem.Read(u32(args[0]), u32(args[1]))
	if rc != SUCCESS {
		return SUCCESS
	}
	log.Debug(log.TraceGuest, string(msg), "number", args[2], "hook", ctx.HookHash.Hex())
	return SUCCESS
}

func (ctx *Context) hostTraceFloat(args []int64) int64 {
	msg, rc := ctx.mem.Read(u32(args[0]), u32(args[1]))
	if rc != SUCCESS {
		return SUCCESS
	}
	f := args[2]
	log.Debug(log.TraceGuest, string(msg),
		"mantissa", FloatMantissa(f), "exponent", FloatExponent(f), "sign", FloatSign(f),
		"hook", ctx.HookHash.Hex())
	return SUCCESS
}

func (ctx *Context) hostTraceSlot(args []int64) int64 {
	msg, rc := ctx.mem.Read(u32(args[0]), u32(args[1]))
	if rc != SUCCESS {
		return SUCCESS
	}
	e, ok := ctx.slots.Get(int(u32(args[2])))
	if !ok {
		return SUCCESS
	}
	log.Debug(log.TraceGuest, string(msg), "slot", u32(args[2]), "data", common.Bytes2Hex(e.View()), "hook", ctx.HookHash.Hex())
	return SUCCESS
}
