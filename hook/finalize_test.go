package hook

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pantyukhov/xrpld-hooks/common"
	"github.com/pantyukhov/xrpld-hooks/engine"
	"github.com/pantyukhov/xrpld-hooks/ledger"
	"github.com/pantyukhov/xrpld-hooks/sto"
)

func TestRemoveEmissionEntry(t *testing.T) {
	view := testView(t)
	callback := testAccount(0x0C)

	ed := ledger.EmitDetails{
		Generation:  1,
		Burden:      2,
		ParentTxnID: common.HexToHash("0x01"),
		Nonce:       common.HexToHash("0x02"),
		Callback:    callback,
	}
	blob := encodeTxn(ledger.TtPayment, testAccount(1), testAccount(2))
	blob = append(blob, sto.EncodeField(sto.SfEmitDetails, ledger.EncodeEmitDetails(ed))...)
	txn, ok := ledger.ParseTxn(blob)
	require.True(t, ok)

	other := common.HexToHash("0x0e")
	view.Set(EmittedTxnKeylet(txn.ID), blob)
	dir := append(txn.ID.Bytes(), other.Bytes()...)
	view.Set(EmittedDirKeylet(callback), dir)

	applyCtx := ledger.NewApplyContext(view, txn)
	require.Equal(t, TesSUCCESS, RemoveEmissionEntry(applyCtx))

	_, ok = view.Get(EmittedTxnKeylet(txn.ID))
	require.False(t, ok)
	got, ok := view.Get(EmittedDirKeylet(callback))
	require.True(t, ok)
	require.Equal(t, other.Bytes(), got)

	// user-submitted transactions are a no-op
	plain, ok := ledger.ParseTxn(encodeTxn(ledger.TtPayment, testAccount(1), testAccount(2)))
	require.True(t, ok)
	require.Equal(t, TesSUCCESS, RemoveEmissionEntry(ledger.NewApplyContext(view, plain)))
}

func TestFinalizeHookResultWritesMetadata(t *testing.T) {
	view := testView(t)
	txn, ok := ledger.ParseTxn(encodeTxn(ledger.TtPayment, testAccount(1), testAccount(2)))
	require.True(t, ok)
	applyCtx := ledger.NewApplyContext(view, txn)

	result := &HookResult{
		HookHash:   common.HexToHash("0x07"),
		Account:    testAccount(2),
		ExitType:   ExitAccept,
		ExitReason: "ok",
	}
	require.Equal(t, TesSUCCESS, FinalizeHookResult(result, applyCtx, true))

	metaKeylet := keyletDigest(KeyletChild, txn.ID.Bytes(), result.HookHash.Bytes(), result.Account.Bytes())
	_, ok = view.Get(metaKeylet)
	require.True(t, ok)
}

func TestExecutorIsSingleUse(t *testing.T) {
	f := newHostFixture(t)
	chainMap := NewStateMap(f.view)
	ctx := NewContext(f.applyCtx, f.account, testHookHash, common.Hash{}, testNS, nil, chainMap)
	eng := &engine.Mock{Program: func(m *engine.MockInstance, entry string, arg int32) int32 {
		m.Call("accept", 0, 0, 0)
		return 0
	}}
	ex := NewExecutor(eng, ctx)
	first := ex.Execute([]byte("x"), false, 0)
	require.Equal(t, ExitAccept, first.ExitType)

	second := ex.Execute([]byte("x"), false, 0)
	require.Equal(t, ExitWasmError, second.ExitType)
	require.Equal(t, INTERNAL_ERROR, second.ExitCode)
}
