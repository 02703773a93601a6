package hook

import (
	"github.com/pantyukhov/xrpld-hooks/common"
)

// readStateAddr decodes the optional namespace/account tail of the foreign
// state apis: zero-length pointers fall back to the caller's own values.
func (ctx *Context) readStateAddr(nsPtr, nsLen, acctPtr, acctLen uint32) (common.Namespace, common.AccountID, int64) {
	ns := ctx.Namespace
	acct := ctx.Account
	if nsLen != 0 {
		if nsLen != 32 {
			return ns, acct, INVALID_ARGUMENT
		}
		raw, rc := ctx.mem.Read(nsPtr, nsLen)
		if rc != SUCCESS {
			return ns, acct, rc
		}
		ns = common.BytesToHash(raw)
	}
	if acctLen != 0 {
		if acctLen != 20 {
			return ns, acct, INVALID_ACCOUNT
		}
		raw, rc := ctx.mem.Read(acctPtr, acctLen)
		if rc != SUCCESS {
			return ns, acct, rc
		}
		var ok bool
		acct, ok = common.BytesToAccountID(raw)
		if !ok {
			return ns, acct, INVALID_ACCOUNT
		}
	}
	return ns, acct, SUCCESS
}

func (ctx *Context) stateRead(writePtr, writeLen, keyPtr, keyLen uint32, ns common.Namespace, acct common.AccountID) int64 {
	rawKey, rc := ctx.mem.Read(keyPtr, keyLen)
	if rc != SUCCESS {
		return rc
	}
	key, rc := NormalizeStateKey(rawKey)
	if rc != SUCCESS {
		return rc
	}
	value, rc := ctx.StateMap.Get(acct, ns, key)
	if rc != SUCCESS {
		return rc
	}
	return ctx.mem.WriteCapped(writePtr, writeLen, value)
}

// state(write_ptr, write_len, kread_ptr, kread_len): read own hook state.
func (ctx *Context) hostState(args []int64) int64 {
	return ctx.stateRead(u32(args[0]), u32(args[1]), u32(args[2]), u32(args[3]), ctx.Namespace, ctx.Account)
}

// state_foreign(write_ptr, write_len, kread_ptr, kread_len, nread_ptr,
// nread_len, aread_ptr, aread_len): read any account's hook state.
func (ctx *Context) hostStateForeign(args []int64) int64 {
	ns, acct, rc := ctx.readStateAddr(u32(args[4]), u32(args[5]), u32(args[6]), u32(args[7]))
	if rc != SUCCESS {
		return rc
	}
	return ctx.stateRead(u32(args[0]), u32(args[1]), u32(args[2]), u32(args[3]), ns, acct)
}

func (ctx *Context) stateWrite(valuePtr, valueLen, keyPtr, keyLen uint32, ns common.Namespace, acct common.AccountID) int64 {
	rawKey, rc := ctx.mem.Read(keyPtr, keyLen)
	if rc != SUCCESS {
		return rc
	}
	key, rc := NormalizeStateKey(rawKey)
	if rc != SUCCESS {
		return rc
	}
	if valueLen > MaxHookStateDataSize() {
		return TOO_BIG
	}
	value, rc := ctx.mem.Read(valuePtr, valueLen)
	if rc != SUCCESS {
		return rc
	}
	if rc := ctx.StateMap.Set(acct, ns, key, value); rc != SUCCESS {
		return rc
	}
	ctx.recordStateWrite(acct, ns, key)
	return int64(valueLen)
}

// state_set(read_ptr, read_len, kread_ptr, kread_len): write own hook
// state. An empty value deletes the key at finalisation.
func (ctx *Context) hostStateSet(args []int64) int64 {
	return ctx.stateWrite(u32(args[0]), u32(args[1]), u32(args[2]), u32(args[3]), ctx.Namespace, ctx.Account)
}

// state_foreign_set(read_ptr, read_len, kread_ptr, kread_len, nread_ptr,
// nread_len, aread_ptr, aread_len): write another account's hook state,
// permitted only under a matching grant.
func (ctx *Context) hostStateForeignSet(args []int64) int64 {
	ns, acct, rc := ctx.readStateAddr(u32(args[4]), u32(args[5]), u32(args[6]), u32(args[7]))
	if rc != SUCCESS {
		return rc
	}
	if acct != ctx.Account {
		if ctx.Result.ForeignStateSetDisabled {
			return NOT_AUTHORIZED
		}
		if !ctx.StateMap.GrantAuthorized(acct, ctx.HookHash, ctx.Account) {
			return NOT_AUTHORIZED
		}
	}
	return ctx.stateWrite(u32(args[0]), u32(args[1]), u32(args[2]), u32(args[3]), ns, acct)
}

// hook_param(write_ptr, write_len, read_ptr, read_len): read an install
// parameter, with chain overrides layered in.
func (ctx *Context) hostHookParam(args []int64) int64 {
	name, rc := ctx.mem.Read(u32(args[2]), u32(args[3]))
	if rc != SUCCESS {
		return rc
	}
	if len(name) == 0 || uint32(len(name)) > MaxHookParameterKeySize() {
		return INVALID_ARGUMENT
	}
	value, ok := ctx.paramValue(name)
	if !ok {
		return DOESNT_EXIST
	}
	return ctx.mem.WriteCapped(u32(args[0]), u32(args[1]), value)
}

// hook_param_set(read_ptr, read_len, kread_ptr, kread_len, hread_ptr,
// hread_len): install a parameter override for a hook later in the chain.
func (ctx *Context) hostHookParamSet(args []int64) int64 {
	value, rc := ctx.mem.Read(u32(args[0]), u32(args[1]))
	if rc != SUCCESS {
		return rc
	}
	if uint32(len(value)) > MaxHookParameterValueSize() {
		return TOO_BIG
	}
	name, rc := ctx.mem.Read(u32(args[2]), u32(args[3]))
	if rc != SUCCESS {
		return rc
	}
	if len(name) == 0 || uint32(len(name)) > MaxHookParameterKeySize() {
		return INVALID_ARGUMENT
	}
	if u32(args[5]) != 32 {
		return INVALID_ARGUMENT
	}
	rawHash, rc := ctx.mem.Read(u32(args[4]), u32(args[5]))
	if rc != SUCCESS {
		return rc
	}
	target := common.BytesToHash(rawHash)

	byName, ok := ctx.ParamOverrides[target]
	if !ok {
		byName = make(map[string][]byte)
		ctx.ParamOverrides[target] = byName
	}
	if _, exists := byName[string(name)]; !exists && len(byName) >= MaxParams {
		return TOO_MANY_PARAMS
	}
	byName[string(name)] = append([]byte(nil), value...)
	ctx.Result.OverrideCount++
	return int64(len(value))
}

// hook_skip(read_ptr, read_len, flags): mark (flags 0) or unmark (flags 1)
// another hook in the chain to be skipped. Only affects hooks that have not
// run yet.
func (ctx *Context) hostHookSkip(args []int64) int64 {
	if u32(args[1]) != 32 {
		return INVALID_ARGUMENT
	}
	raw, rc := ctx.mem.Read(u32(args[0]), u32(args[1]))
	if rc != SUCCESS {
		return rc
	}
	target := common.BytesToHash(raw)
	switch u32(args[2]) {
	case 0:
		ctx.Skips[target] = true
	case 1:
		delete(ctx.Skips, target)
	default:
		return INVALID_ARGUMENT
	}
	return SUCCESS
}

// hook_pos(): 0-indexed position of this hook in its chain.
func (ctx *Context) hostHookPos(args []int64) int64 {
	return int64(ctx.Result.ChainPosition)
}

// hook_account(write_ptr, write_len): the account this hook is installed on.
func (ctx *Context) hostHookAccount(args []int64) int64 {
	return ctx.mem.WriteCapped(u32(args[0]), u32(args[1]), ctx.Account.Bytes())
}

// hook_hash(write_ptr, write_len, hook_no): hash of a hook in this chain by
// position, -1 for the currently executing hook.
func (ctx *Context) hostHookHash(args []int64) int64 {
	no := int32(u32(args[2]))
	var h common.Hash
	if no == -1 {
		h = ctx.HookHash
	} else {
		if no < 0 || int(no) >= len(ctx.ChainHashes) {
			return DOESNT_EXIST
		}
		h = ctx.ChainHashes[no]
	}
	return ctx.mem.WriteCapped(u32(args[0]), u32(args[1]), h.Bytes())
}

// fee_base(): the execution fee baseline for this hook.
func (ctx *Context) hostFeeBase(args []int64) int64 {
	return ctx.feeBase
}

// ledger_seq(): sequence number of the ledger being built.
func (ctx *Context) hostLedgerSeq(args []int64) int64 {
	return int64(ctx.ApplyCtx.View.Seq())
}

// ledger_last_hash(write_ptr, write_len): hash of the last closed ledger.
func (ctx *Context) hostLedgerLastHash(args []int64) int64 {
	return ctx.mem.WriteCapped(u32(args[0]), u32(args[1]), ctx.ApplyCtx.View.LastHash().Bytes())
}

// nonce(write_ptr, write_len): a 256-bit value unique within this
// execution. At most 255 nonces per execution.
func (ctx *Context) hostNonce(args []int64) int64 {
	n, rc := ctx.nextNonce()
	if rc != SUCCESS {
		return rc
	}
	return ctx.mem.WriteCapped(u32(args[0]), u32(args[1]), n.Bytes())
}
