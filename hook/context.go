package hook

import (
	"github.com/pantyukhov/xrpld-hooks/common"
	"github.com/pantyukhov/xrpld-hooks/ledger"
)

// HookResult is the per-execution summary handed back to the orchestrator
// and, after finalisation, into transaction metadata.
type HookResult struct {
	HookSetTxnID common.Hash
	HookHash     common.Hash
	Account      common.AccountID
	OtxnAccount  common.AccountID
	Namespace    common.Namespace

	ExitType          ExitType
	ExitCode          int64
	ExitReason        string
	InstructionCount  uint64
	EmittedTxns       [][]byte
	ChangedStateCount uint16
	OverrideCount     uint32

	// HookSkips and ParamOverrides are the skip set and override map as
	// this execution left them; the orchestrator adopts them on accept and
	// discards them on rollback.
	HookSkips      map[common.Hash]bool
	ParamOverrides map[common.Hash]map[string][]byte

	Callback                bool
	WasmParam               uint32
	ChainPosition           int32
	ForeignStateSetDisabled bool
}

// Context is the per-invocation execution context. It owns the slot table,
// guard meter, nonce set and emission queue exclusively; the state map is a
// fork of the chain-wide cache.
type Context struct {
	ApplyCtx *ledger.ApplyContext

	HookHash     common.Hash
	HookSetTxnID common.Hash
	Account      common.AccountID
	Namespace    common.Namespace
	Params       map[string][]byte

	// ParamOverrides layers per-hook parameter values installed by earlier
	// hooks in the chain, keyed by hook hash then parameter name.
	ParamOverrides map[common.Hash]map[string][]byte

	// Skips accumulates hook hashes to skip later in the chain. Shared with
	// the orchestrator.
	Skips map[common.Hash]bool

	// ChainHashes are the hook hashes of the whole chain on this account,
	// in execution order.
	ChainHashes []common.Hash

	StateMap *StateMap

	Callback    bool
	WasmParam   uint32
	EmitFailure []byte // serialized failed emitted txn for cbak runs

	Result HookResult

	mem    GuestMemory
	slots  *SlotTable
	guards *GuardMeter

	nonceCounter int
	noncesUsed   map[common.Hash]bool

	expectedEtxnCount int64
	issuedDetails     map[common.Hash][]byte // nonce -> details blob
	burden            uint64
	generation        uint32
	feeBase           int64

	writtenKeys map[stateWriteKey]bool
}

type stateWriteKey struct {
	acct common.AccountID
	ns   common.Namespace
	key  StateKey
}

// NewContext prepares a fresh execution context. stateMap is the chain-wide
// cache; the context forks it and the fork merges back only on accept.
func NewContext(applyCtx *ledger.ApplyContext, account common.AccountID, hookHash common.Hash, hookSetTxnID common.Hash, ns common.Namespace, params map[string][]byte, stateMap *StateMap) *Context {
	ctx := &Context{
		ApplyCtx:       applyCtx,
		HookHash:       hookHash,
		HookSetTxnID:   hookSetTxnID,
		Account:        account,
		Namespace:      ns,
		Params:         params,
		ParamOverrides: make(map[common.Hash]map[string][]byte),
		Skips:          make(map[common.Hash]bool),
		StateMap:       stateMap.Fork(),

		slots:             NewSlotTable(),
		guards:            NewGuardMeter(),
		noncesUsed:        make(map[common.Hash]bool),
		expectedEtxnCount: -1,
		issuedDetails:     make(map[common.Hash][]byte),
		writtenKeys:       make(map[stateWriteKey]bool),
	}
	ctx.Result = HookResult{
		HookSetTxnID:  hookSetTxnID,
		HookHash:      hookHash,
		Account:       account,
		OtxnAccount:   applyCtx.Txn.Account,
		Namespace:     ns,
		ExitType:      ExitRollback, // a hook that never reaches accept rolls back
		ExitCode:      -1,
		ChainPosition: -1,
	}
	return ctx
}

func copySkips(src map[common.Hash]bool) map[common.Hash]bool {
	out := make(map[common.Hash]bool, len(src))
	for h, v := range src {
		out[h] = v
	}
	return out
}

func copyOverrides(src map[common.Hash]map[string][]byte) map[common.Hash]map[string][]byte {
	out := make(map[common.Hash]map[string][]byte, len(src))
	for h, byName := range src {
		dst := make(map[string][]byte, len(byName))
		for name, v := range byName {
			dst[name] = v
		}
		out[h] = dst
	}
	return out
}

// ChainPosition is the 0-indexed position of this hook in its chain.
func (ctx *Context) ChainPosition() int32 {
	return ctx.Result.ChainPosition
}

// Memory returns the guest memory view; valid during execution only.
func (ctx *Context) Memory() GuestMemory {
	return ctx.mem
}

// nextNonce issues a deterministic per-execution nonce.
func (ctx *Context) nextNonce() (common.Hash, int64) {
	if ctx.nonceCounter >= MaxNonces {
		return common.Hash{}, TOO_MANY_NONCES
	}
	n := common.SHA512Half(
		[]byte{'N'},
		ctx.HookHash.Bytes(),
		ctx.ApplyCtx.Txn.ID.Bytes(),
		common.Uint32ToBytes(uint32(ctx.nonceCounter)),
	)
	ctx.nonceCounter++
	ctx.noncesUsed[n] = true
	return n, SUCCESS
}

// otxnBurden is the burden of the originating transaction.
func (ctx *Context) otxnBurden() uint64 {
	if ctx.burden == 0 {
		ctx.burden = ctx.ApplyCtx.Txn.Burden()
	}
	return ctx.burden
}

// otxnGeneration is the emission depth of the originating transaction.
func (ctx *Context) otxnGeneration() uint32 {
	if ctx.generation == 0 {
		ctx.generation = ctx.ApplyCtx.Txn.Generation()
	}
	return ctx.generation
}

// etxnBurden is the burden emitted transactions of this execution carry.
func (ctx *Context) etxnBurden() uint64 {
	return ctx.otxnBurden() + 1
}

// etxnGeneration is the generation emitted transactions of this execution
// carry.
func (ctx *Context) etxnGeneration() uint32 {
	return ctx.otxnGeneration() + 1
}

// recordStateWrite counts distinct keys this execution dirtied.
func (ctx *Context) recordStateWrite(acct common.AccountID, ns common.Namespace, key StateKey) {
	k := stateWriteKey{acct: acct, ns: ns, key: key}
	if !ctx.writtenKeys[k] {
		ctx.writtenKeys[k] = true
		ctx.Result.ChangedStateCount++
	}
}

// paramValue resolves a parameter with chain overrides layered over the
// installation's parameter map.
func (ctx *Context) paramValue(name []byte) ([]byte, bool) {
	if byName, ok := ctx.ParamOverrides[ctx.HookHash]; ok {
		if v, ok := byName[string(name)]; ok {
			if len(v) == 0 {
				return nil, false // explicit delete of the parameter
			}
			return v, true
		}
	}
	v, ok := ctx.Params[string(name)]
	return v, ok
}
