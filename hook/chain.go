package hook

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/pantyukhov/xrpld-hooks/common"
	"github.com/pantyukhov/xrpld-hooks/engine"
	"github.com/pantyukhov/xrpld-hooks/ledger"
	"github.com/pantyukhov/xrpld-hooks/log"
)

// Transaction-level outcome of running the hook chains.
type TxCode int

const (
	TesSUCCESS TxCode = iota
	TecHOOK_REJECTED
	TecINTERNAL
)

func (c TxCode) String() string {
	switch c {
	case TesSUCCESS:
		return "tesSUCCESS"
	case TecHOOK_REJECTED:
		return "tecHOOK_REJECTED"
	default:
		return "tecINTERNAL"
	}
}

// ChainResult summarises hook processing for one transaction.
type ChainResult struct {
	Code    TxCode
	Results []*HookResult
	Fee     uint64
}

// Chain orchestrates the hook chains of every stakeholder of one
// transaction: it resolves stakeholders, walks each account's installation
// chain in order, honours skips, merges accepted state deltas into the
// chain-wide cache and demotes rollbacks from collect-only stakeholders.
type Chain struct {
	Engine   engine.Engine
	ApplyCtx *ledger.ApplyContext
	StateMap *StateMap

	// ForeignStateSetDisabled, when true, makes every foreign state write in
	// the chain fail with NOT_AUTHORIZED. The caller sets it; Apply never
	// sets or clears it.
	ForeignStateSetDisabled bool

	skips     map[common.Hash]bool
	overrides map[common.Hash]map[string][]byte
	tracer    oteltrace.Tracer
}

func NewChain(eng engine.Engine, applyCtx *ledger.ApplyContext) *Chain {
	return &Chain{
		Engine:    eng,
		ApplyCtx:  applyCtx,
		StateMap:  NewStateMap(applyCtx.View),
		skips:     make(map[common.Hash]bool),
		overrides: make(map[common.Hash]map[string][]byte),
		tracer:    otel.Tracer("xrpld-hooks/chain"),
	}
}

// ProcessTransaction runs every applicable hook for the transaction in the
// apply context. Fees accrue for every executed hook, rollbacks included.
func (c *Chain) ProcessTransaction(ctx context.Context) ChainResult {
	txn := c.ApplyCtx.Txn
	out := ChainResult{Code: TesSUCCESS}

	ctx, span := c.tracer.Start(ctx, "hooks.process_transaction",
		oteltrace.WithAttributes(
			attribute.String("txn", txn.ID.Hex()),
			attribute.Int("txn_type", int(txn.Type)),
		))
	defer span.End()

	for _, sh := range TransactionalStakeholders(txn, c.ApplyCtx.View) {
		installs := c.ApplyCtx.View.Hooks(sh.Account)
		if len(installs) > MaxHookChainLength {
			installs = installs[:MaxHookChainLength]
		}
		chainHashes := make([]common.Hash, len(installs))
		for i, inst := range installs {
			chainHashes[i] = inst.HookHash
		}

		for pos, inst := range installs {
			if !CanHook(txn.Type, inst.HookOn) {
				continue
			}
			if c.skips[inst.HookHash] {
				log.Debug(log.HookMonitoring, "hook skipped",
					"hook", inst.HookHash.Hex(), "account", sh.Account.String(), "pos", pos)
				continue
			}
			def, ok := c.ApplyCtx.View.HookDefinition(inst.HookHash)
			if !ok {
				log.Error(log.HookMonitoring, "missing hook definition",
					"hook", inst.HookHash.Hex(), "account", sh.Account.String())
				out.Code = TecINTERNAL
				return out
			}

			result := c.runOne(ctx, sh, inst, def, int32(pos), chainHashes)
			out.Results = append(out.Results, result)
			out.Fee += ComputeExecutionFee(result.InstructionCount)

			switch result.ExitType {
			case ExitAccept:
				// state fork already merged by Apply; adopt the skip set
				// and parameter overrides this execution produced
				c.skips = result.HookSkips
				c.overrides = result.ParamOverrides
			case ExitRollback, ExitWasmError:
				if sh.RollbackRights {
					log.Info(log.HookMonitoring, "transaction vetoed by hook",
						"hook", inst.HookHash.Hex(), "account", sh.Account.String(),
						"reason", result.ExitReason)
					out.Code = TecHOOK_REJECTED
					return out
				}
				// collect-only stakeholder: demote, drop this hook's
				// deltas and emissions, keep going
				result.EmittedTxns = nil
				log.Debug(log.HookMonitoring, "rollback demoted to accept",
					"hook", inst.HookHash.Hex(), "account", sh.Account.String())
			default:
				out.Code = TecINTERNAL
				return out
			}
		}
	}
	return out
}

func (c *Chain) runOne(ctx context.Context, sh Stakeholder, inst ledger.HookInstallation, def *ledger.HookDefinition, pos int32, chainHashes []common.Hash) *HookResult {
	_, span := c.tracer.Start(ctx, "hooks.execute",
		oteltrace.WithAttributes(
			attribute.String("hook", inst.HookHash.Hex()),
			attribute.String("account", sh.Account.String()),
			attribute.Int("position", int(pos)),
		))
	defer span.End()

	result := Apply(c.Engine, ApplyParams{
		HookHash:                inst.HookHash,
		Namespace:               inst.Namespace,
		Wasm:                    def.Code,
		Params:                  inst.Params,
		ParamOverrides:          c.overrides,
		StateMap:                c.StateMap,
		ApplyCtx:                c.ApplyCtx,
		Account:                 sh.Account,
		ChainPosition:           pos,
		ChainHashes:             chainHashes,
		Skips:                   c.skips,
		FeeBase:                 int64(ComputeExecutionFee(def.InstructionCount)),
		ForeignStateSetDisabled: c.ForeignStateSetDisabled,
	})

	span.SetAttributes(
		attribute.String("exit", result.ExitType.String()),
		attribute.Int64("instructions", int64(result.InstructionCount)),
	)
	return result
}
