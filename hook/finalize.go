package hook

import (
	"bytes"
	"encoding/json"

	"github.com/pantyukhov/xrpld-hooks/common"
	"github.com/pantyukhov/xrpld-hooks/ledger"
	"github.com/pantyukhov/xrpld-hooks/log"
)

// FinalizeHookState writes the chain-wide state map's modified entries to
// the ledger: upserts for nonempty values, deletes for empty ones.
func FinalizeHookState(stateMap *StateMap, applyCtx *ledger.ApplyContext, hookHash common.Hash) TxCode {
	entries := stateMap.modified()
	for _, e := range entries {
		if len(e.Value) == 0 {
			applyCtx.View.EraseHookState(e.Account, e.Namespace, [32]byte(e.Key))
		} else {
			applyCtx.View.SetHookState(e.Account, e.Namespace, [32]byte(e.Key), e.Value)
		}
	}
	if len(entries) > 0 {
		log.Debug(log.StateMonitoring, "hook state finalised",
			"hook", hookHash.Hex(), "entries", len(entries))
	}
	return TesSUCCESS
}

// executionMeta is the per-execution record finalisation leaves behind.
type executionMeta struct {
	HookHash         common.Hash `json:"hook_hash"`
	Account          string      `json:"account"`
	ExitType         string      `json:"exit_type"`
	ExitCode         int64       `json:"exit_code"`
	ExitReason       string      `json:"exit_reason"`
	InstructionCount uint64      `json:"instruction_count"`
	EmitCount        int         `json:"emit_count"`
	StateChangeCount uint16      `json:"state_change_count"`
}

// FinalizeHookResult records execution metadata and, when doEmit is set,
// inserts the result's emitted transactions into the ledger's emission
// directory.
func FinalizeHookResult(result *HookResult, applyCtx *ledger.ApplyContext, doEmit bool) TxCode {
	meta := executionMeta{
		HookHash:         result.HookHash,
		Account:          result.Account.String(),
		ExitType:         result.ExitType.String(),
		ExitCode:         result.ExitCode,
		ExitReason:       result.ExitReason,
		InstructionCount: result.InstructionCount,
		EmitCount:        len(result.EmittedTxns),
		StateChangeCount: result.ChangedStateCount,
	}
	blob, err := json.Marshal(meta)
	if err != nil {
		return TecINTERNAL
	}
	metaKeylet := keyletDigest(KeyletChild, applyCtx.Txn.ID.Bytes(), result.HookHash.Bytes(), result.Account.Bytes())
	applyCtx.View.Set(metaKeylet, blob)

	if !doEmit {
		return TesSUCCESS
	}
	for _, raw := range result.EmittedTxns {
		txn, ok := ledger.ParseTxn(raw)
		if !ok {
			return TecINTERNAL
		}
		applyCtx.View.Set(EmittedTxnKeylet(txn.ID), raw)
		appendEmissionDir(applyCtx, result.Account, txn.ID)
		log.Debug(log.EmitMonitoring, "emitted txn inserted",
			"txn", txn.ID.Hex(), "hook", result.HookHash.Hex())
	}
	return TesSUCCESS
}

// emission directories hold the pending emitted-txn ids of one account as a
// packed vector of 32-byte hashes
func appendEmissionDir(applyCtx *ledger.ApplyContext, acct common.AccountID, txnID common.Hash) {
	kl := EmittedDirKeylet(acct)
	dir, _ := applyCtx.View.Get(kl)
	dir = append(dir, txnID.Bytes()...)
	applyCtx.View.Set(kl, dir)
}

// RemoveEmissionEntry drops the currently applying transaction from its
// parent's emission directory. A no-op for user-submitted transactions.
func RemoveEmissionEntry(applyCtx *ledger.ApplyContext) TxCode {
	txn := applyCtx.Txn
	if !txn.IsEmitted() {
		return TesSUCCESS
	}
	ed := txn.EmitDetails()
	applyCtx.View.Erase(EmittedTxnKeylet(txn.ID))

	kl := EmittedDirKeylet(ed.Callback)
	dir, ok := applyCtx.View.Get(kl)
	if !ok {
		return TesSUCCESS
	}
	out := make([]byte, 0, len(dir))
	for off := 0; off+32 <= len(dir); off += 32 {
		if bytes.Equal(dir[off:off+32], txn.ID.Bytes()) {
			continue
		}
		out = append(out, dir[off:off+32]...)
	}
	if len(out) == 0 {
		applyCtx.View.Erase(kl)
	} else {
		applyCtx.View.Set(kl, out)
	}
	return TesSUCCESS
}
