package hook

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pantyukhov/xrpld-hooks/common"
	"github.com/pantyukhov/xrpld-hooks/engine"
	"github.com/pantyukhov/xrpld-hooks/ledger"
	"github.com/pantyukhov/xrpld-hooks/sto"
)

var (
	testHookHash = common.HexToHash("0x1111")
	testNS       = common.HexToHash("0x2222")
)

func testAccount(b byte) common.AccountID {
	var a common.AccountID
	a[0] = b
	return a
}

func encodeTxn(txType uint16, sender, dest common.AccountID) []byte {
	tt := make([]byte, 2)
	binary.BigEndian.PutUint16(tt, txType)
	out := sto.EncodeField(sto.SfTransactionType, tt)
	out = append(out, sto.EncodeField(sto.SfAccount, sender.Bytes())...)
	if !dest.IsZero() {
		out = append(out, sto.EncodeField(sto.SfDestination, dest.Bytes())...)
	}
	return out
}

type hostFixture struct {
	view     *ledger.OverlayView
	applyCtx *ledger.ApplyContext
	stateMap *StateMap
	account  common.AccountID
	params   map[string][]byte
}

func newHostFixture(t *testing.T) *hostFixture {
	view := testView(t)
	txn, ok := ledger.ParseTxn(encodeTxn(ledger.TtPayment, testAccount(0xA0), testAccount(0xB0)))
	require.True(t, ok)
	return &hostFixture{
		view:     view,
		applyCtx: ledger.NewApplyContext(view, txn),
		stateMap: nil,
		account:  testAccount(0xB0),
	}
}

// run executes program as the guest of a single hook invocation.
func (f *hostFixture) run(t *testing.T, program func(m *engine.MockInstance)) (*HookResult, *StateMap) {
	t.Helper()
	chainMap := NewStateMap(f.view)
	f.stateMap = chainMap
	eng := &engine.Mock{
		Program: func(m *engine.MockInstance, entry string, arg int32) int32 {
			program(m)
			return 0
		},
		Instructions: 42,
	}
	result := Apply(eng, ApplyParams{
		HookHash:      testHookHash,
		Namespace:     testNS,
		Wasm:          []byte("mock"),
		Params:        f.params,
		StateMap:      chainMap,
		ApplyCtx:      f.applyCtx,
		Account:       f.account,
		ChainPosition: 0,
		ChainHashes:   []common.Hash{testHookHash},
	})
	return result, chainMap
}

func writeGuest(t *testing.T, m *engine.MockInstance, off uint32, data []byte) {
	t.Helper()
	require.True(t, m.Memory().WriteAt(off, data))
}

func readGuest(t *testing.T, m *engine.MockInstance, off, length uint32) []byte {
	t.Helper()
	data, ok := m.Memory().ReadAt(off, length)
	require.True(t, ok)
	return data
}

func TestAcceptPath(t *testing.T) {
	f := newHostFixture(t)
	result, _ := f.run(t, func(m *engine.MockInstance) {
		writeGuest(t, m, 0, []byte("ok"))
		m.Call("accept", 0, 2, 0)
		t.Fatal("unreachable after accept")
	})
	require.Equal(t, ExitAccept, result.ExitType)
	require.Equal(t, "ok", result.ExitReason)
	require.Equal(t, int64(0), result.ExitCode)
	require.Equal(t, uint64(42), result.InstructionCount)
}

func TestRollbackPath(t *testing.T) {
	f := newHostFixture(t)
	result, _ := f.run(t, func(m *engine.MockInstance) {
		writeGuest(t, m, 0, []byte("no"))
		m.Call("rollback", 0, 2, -1)
	})
	require.Equal(t, ExitRollback, result.ExitType)
	require.Equal(t, "no", result.ExitReason)
	require.Equal(t, int64(-1), result.ExitCode)
}

func TestGuestReturnWithoutAcceptRollsBack(t *testing.T) {
	f := newHostFixture(t)
	result, _ := f.run(t, func(m *engine.MockInstance) {})
	require.Equal(t, ExitRollback, result.ExitType)
}

func TestGuardViolationTerminates(t *testing.T) {
	f := newHostFixture(t)
	iterations := 0
	result, _ := f.run(t, func(m *engine.MockInstance) {
		for i := 0; i < 5; i++ {
			m.Call("_g", 1, 3)
			iterations++
		}
		t.Fatal("unreachable after guard violation")
	})
	// the 4th call trips the guard
	require.Equal(t, 3, iterations)
	require.Equal(t, ExitRollback, result.ExitType)
	require.Equal(t, GUARD_VIOLATION, result.ExitCode)
}

func TestOutOfBoundsLeavesMemoryUntouched(t *testing.T) {
	f := newHostFixture(t)
	f.run(t, func(m *engine.MockInstance) {
		size := int64(m.Memory().Size())
		require.Equal(t, OUT_OF_BOUNDS, m.Call("hook_account", size-4, 20))
		require.Equal(t, OUT_OF_BOUNDS, m.Call("util_sha512h", 0, 32, size-1, 2))
		require.Equal(t, OUT_OF_BOUNDS, m.Call("state_set", size, 1, 0, 1))

		// a zero length with a nonzero offset is a valid no-op
		require.Equal(t, int64(0), ctxWriteProbe(m))
		m.Call("accept", 0, 0, 0)
	})
}

// ctxWriteProbe exercises the zero-length read path through trace.
func ctxWriteProbe(m *engine.MockInstance) int64 {
	return m.Call("trace", 5000, 0, 6000, 0, 0)
}

func TestHookAccountAndPos(t *testing.T) {
	f := newHostFixture(t)
	f.run(t, func(m *engine.MockInstance) {
		require.Equal(t, int64(20), m.Call("hook_account", 100, 20))
		require.Equal(t, f.account.Bytes(), readGuest(t, m, 100, 20))
		require.Equal(t, int64(0), m.Call("hook_pos"))

		require.Equal(t, int64(32), m.Call("hook_hash", 200, 32, -1))
		require.Equal(t, testHookHash.Bytes(), readGuest(t, m, 200, 32))
		require.Equal(t, DOESNT_EXIST, m.Call("hook_hash", 200, 32, 5))
		m.Call("accept", 0, 0, 0)
	})
}

func TestLedgerApis(t *testing.T) {
	f := newHostFixture(t)
	f.run(t, func(m *engine.MockInstance) {
		require.Equal(t, int64(7), m.Call("ledger_seq"))
		require.Equal(t, int64(32), m.Call("ledger_last_hash", 0, 32))
		require.Equal(t, common.HexToHash("0xfeed").Bytes(), readGuest(t, m, 0, 32))
		m.Call("accept", 0, 0, 0)
	})
}

func TestUtilAccidRaddrRoundTrip(t *testing.T) {
	f := newHostFixture(t)
	f.run(t, func(m *engine.MockInstance) {
		acct := testAccount(0x77)
		writeGuest(t, m, 0, acct.Bytes())

		n := m.Call("util_raddr", 100, 64, 0, 20)
		require.Greater(t, n, int64(0))

		// util_accid(util_raddr(x)) == x
		require.Equal(t, int64(20), m.Call("util_accid", 300, 20, 100, n))
		require.Equal(t, acct.Bytes(), readGuest(t, m, 300, 20))
		m.Call("accept", 0, 0, 0)
	})
}

func TestUtilSha512h(t *testing.T) {
	f := newHostFixture(t)
	f.run(t, func(m *engine.MockInstance) {
		writeGuest(t, m, 0, []byte("hello"))
		require.Equal(t, int64(32), m.Call("util_sha512h", 100, 32, 0, 5))
		require.Equal(t, common.SHA512Half([]byte("hello")).Bytes(), readGuest(t, m, 100, 32))
		require.Equal(t, TOO_SMALL, m.Call("util_sha512h", 100, 31, 0, 5))
		m.Call("accept", 0, 0, 0)
	})
}

func TestUtilKeylet(t *testing.T) {
	f := newHostFixture(t)
	f.run(t, func(m *engine.MockInstance) {
		acct := testAccount(0x42)
		writeGuest(t, m, 0, acct.Bytes())

		require.Equal(t, int64(34), m.Call("util_keylet", 100, 34, int64(KeyletAccount), 0, 20, 0, 0, 0, 0))
		want := AccountKeylet(acct)
		require.Equal(t, want.Bytes(), readGuest(t, m, 100, 34))

		require.Equal(t, NO_SUCH_KEYLET, m.Call("util_keylet", 100, 34, 99, 0, 0, 0, 0, 0, 0))
		require.Equal(t, INVALID_ARGUMENT, m.Call("util_keylet", 100, 34, int64(KeyletAccount), 0, 19, 0, 0, 0, 0))
		m.Call("accept", 0, 0, 0)
	})
}

func TestStoHostApis(t *testing.T) {
	f := newHostFixture(t)
	f.run(t, func(m *engine.MockInstance) {
		obj := sto.EncodeField(sto.SfSequence, []byte{0, 0, 0, 5})
		writeGuest(t, m, 0, obj)

		require.Equal(t, int64(1), m.Call("sto_validate", 0, int64(len(obj))))

		packed := m.Call("sto_subfield", 0, int64(len(obj)), int64(sto.SfSequence))
		require.Greater(t, packed, int64(0))
		off := uint32(packed & 0xFFFFFFFF)
		length := uint32(packed >> 32)
		require.Equal(t, uint32(4), length)
		require.Equal(t, []byte{0, 0, 0, 5}, readGuest(t, m, off, length))

		require.Equal(t, DOESNT_EXIST, m.Call("sto_subfield", 0, int64(len(obj)), int64(sto.SfFee)))

		// emplace a fee then read it back through sto_subfield
		fee := sto.EncodeField(sto.SfFee, []byte{0, 0, 0, 0, 0, 0, 0, 9})
		writeGuest(t, m, 200, fee)
		n := m.Call("sto_emplace", 300, 100, 0, int64(len(obj)), 200, int64(len(fee)), int64(sto.SfFee))
		require.Greater(t, n, int64(0))
		require.Greater(t, m.Call("sto_subfield", 300, n, int64(sto.SfFee)), int64(0))

		// erase it again
		n2 := m.Call("sto_erase", 400, 100, 300, n, int64(sto.SfFee))
		require.Equal(t, int64(len(obj)), n2)
		m.Call("accept", 0, 0, 0)
	})
}

func TestStateHostApis(t *testing.T) {
	f := newHostFixture(t)
	result, sm := f.run(t, func(m *engine.MockInstance) {
		writeGuest(t, m, 0, []byte{0x01})  // key
		writeGuest(t, m, 10, []byte{0xAA}) // value
		require.Equal(t, int64(1), m.Call("state_set", 10, 1, 0, 1))

		// read of a just-written key returns the new value
		require.Equal(t, int64(1), m.Call("state", 50, 8, 0, 1))
		require.Equal(t, []byte{0xAA}, readGuest(t, m, 50, 1))

		writeGuest(t, m, 0, []byte{0x02})
		require.Equal(t, DOESNT_EXIST, m.Call("state", 50, 8, 0, 1))
		m.Call("accept", 0, 0, 0)
	})
	require.Equal(t, ExitAccept, result.ExitType)
	require.Equal(t, uint16(1), result.ChangedStateCount)

	// accepted writes are visible in the chain-wide map
	v, rc := sm.Get(f.account, testNS, stateKey(0x01))
	require.Equal(t, SUCCESS, rc)
	require.Equal(t, []byte{0xAA}, v)
}

func TestStateForeignSetRequiresGrant(t *testing.T) {
	f := newHostFixture(t)
	owner := testAccount(0xC0)
	f.view.SetHooks(owner, []ledger.HookInstallation{{
		HookHash: common.HexToHash("0x01"),
		Grants:   []ledger.Grant{{HookHash: testHookHash}},
	}})

	result, sm := f.run(t, func(m *engine.MockInstance) {
		writeGuest(t, m, 0, []byte{0x01})    // key
		writeGuest(t, m, 10, []byte{0xCC})   // value
		writeGuest(t, m, 20, testNS.Bytes()) // namespace
		writeGuest(t, m, 60, owner.Bytes())  // owner account

		require.Equal(t, int64(1), m.Call("state_foreign_set", 10, 1, 0, 1, 20, 32, 60, 20))

		// no grant for this unrelated account
		other := testAccount(0xD0)
		writeGuest(t, m, 60, other.Bytes())
		require.Equal(t, NOT_AUTHORIZED, m.Call("state_foreign_set", 10, 1, 0, 1, 20, 32, 60, 20))
		m.Call("accept", 0, 0, 0)
	})
	require.Equal(t, ExitAccept, result.ExitType)

	v, rc := sm.Get(owner, testNS, stateKey(0x01))
	require.Equal(t, SUCCESS, rc)
	require.Equal(t, []byte{0xCC}, v)
}

func TestStateForeignSetDisabled(t *testing.T) {
	view := testView(t)
	owner := testAccount(0xC0)
	view.SetHooks(owner, []ledger.HookInstallation{{
		HookHash: common.HexToHash("0x01"),
		Grants:   []ledger.Grant{{HookHash: testHookHash}},
	}})
	txn, ok := ledger.ParseTxn(encodeTxn(ledger.TtPayment, testAccount(0xA0), testAccount(0xB0)))
	require.True(t, ok)
	applyCtx := ledger.NewApplyContext(view, txn)
	sm := NewStateMap(view)

	eng := &engine.Mock{Program: func(m *engine.MockInstance, entry string, arg int32) int32 {
		m.Memory().WriteAt(0, []byte{0x01})
		m.Memory().WriteAt(10, []byte{0xCC})
		m.Memory().WriteAt(20, testNS.Bytes())
		m.Memory().WriteAt(60, owner.Bytes())
		require.Equal(t, NOT_AUTHORIZED, m.Call("state_foreign_set", 10, 1, 0, 1, 20, 32, 60, 20))
		m.Call("accept", 0, 0, 0)
		return 0
	}}
	result := Apply(eng, ApplyParams{
		HookHash: testHookHash, Namespace: testNS, Wasm: []byte("x"),
		StateMap: sm, ApplyCtx: applyCtx, Account: testAccount(0xB0),
		ForeignStateSetDisabled: true,
	})
	require.Equal(t, ExitAccept, result.ExitType)
}

func TestHookParamAndOverrides(t *testing.T) {
	f := newHostFixture(t)
	f.params = map[string][]byte{"rate": {0x05}}
	f.run(t, func(m *engine.MockInstance) {
		writeGuest(t, m, 0, []byte("rate"))
		require.Equal(t, int64(1), m.Call("hook_param", 100, 16, 0, 4))
		require.Equal(t, []byte{0x05}, readGuest(t, m, 100, 1))

		writeGuest(t, m, 0, []byte("none"))
		require.Equal(t, DOESNT_EXIST, m.Call("hook_param", 100, 16, 0, 4))

		// override a parameter for a later hook in the chain
		writeGuest(t, m, 0, []byte("rate"))
		writeGuest(t, m, 10, []byte{0x09})
		writeGuest(t, m, 20, testHookHash.Bytes())
		require.Equal(t, int64(1), m.Call("hook_param_set", 10, 1, 0, 4, 20, 32))
		m.Call("accept", 0, 0, 0)
	})
}

func TestHookSkip(t *testing.T) {
	f := newHostFixture(t)
	other := common.HexToHash("0x5555")
	result, _ := f.run(t, func(m *engine.MockInstance) {
		writeGuest(t, m, 0, other.Bytes())
		require.Equal(t, SUCCESS, m.Call("hook_skip", 0, 32, 0))
		require.Equal(t, INVALID_ARGUMENT, m.Call("hook_skip", 0, 32, 7))
		require.Equal(t, INVALID_ARGUMENT, m.Call("hook_skip", 0, 16, 0))

		// skipping the current position's own hash is a no-op for this run
		writeGuest(t, m, 0, testHookHash.Bytes())
		require.Equal(t, SUCCESS, m.Call("hook_skip", 0, 32, 0))
		m.Call("accept", 0, 0, 0)
	})
	require.Equal(t, ExitAccept, result.ExitType)
	require.True(t, result.HookSkips[other])
}

func TestNonceUniqueAndBounded(t *testing.T) {
	f := newHostFixture(t)
	f.run(t, func(m *engine.MockInstance) {
		seen := make(map[string]bool)
		for i := 0; i < MaxNonces; i++ {
			require.Equal(t, int64(32), m.Call("nonce", 0, 32))
			n := string(readGuest(t, m, 0, 32))
			require.False(t, seen[n], "nonce %d reissued", i)
			seen[n] = true
		}
		require.Equal(t, TOO_MANY_NONCES, m.Call("nonce", 0, 32))
		m.Call("accept", 0, 0, 0)
	})
}

func TestOtxnApis(t *testing.T) {
	f := newHostFixture(t)
	f.run(t, func(m *engine.MockInstance) {
		require.Equal(t, int64(ledger.TtPayment), m.Call("otxn_type"))
		require.Equal(t, int64(1), m.Call("otxn_burden"))
		require.Equal(t, int64(0), m.Call("otxn_generation"))
		require.Equal(t, int64(32), m.Call("otxn_id", 0, 32, 0))
		require.Equal(t, f.applyCtx.Txn.ID.Bytes(), readGuest(t, m, 0, 32))

		// the sender account field of the originating transaction
		require.Equal(t, int64(20), m.Call("otxn_field", 100, 20, int64(sto.SfAccount)))
		require.Equal(t, testAccount(0xA0).Bytes(), readGuest(t, m, 100, 20))
		require.Equal(t, DOESNT_EXIST, m.Call("otxn_field", 100, 20, int64(sto.SfFee)))

		// load it into a slot and poke at it
		slot := m.Call("otxn_slot", 0)
		require.Greater(t, slot, int64(0))
		require.Greater(t, m.Call("slot_size", slot), int64(0))
		sub := m.Call("slot_subfield", slot, int64(sto.SfAccount), 0)
		require.Greater(t, sub, int64(0))
		require.Equal(t, int64(20), m.Call("slot", 200, 20, sub))
		m.Call("accept", 0, 0, 0)
	})
}

func TestFloatHostApis(t *testing.T) {
	f := newHostFixture(t)
	f.run(t, func(m *engine.MockInstance) {
		one := m.Call("float_one")
		two := m.Call("float_sum", one, one)
		require.Equal(t, int64(1), m.Call("float_compare", two, one, int64(COMPARE_GREATER)))
		require.Equal(t, int64(2), m.Call("float_int", two, 0, 0))

		// float_sto round trip through an issued amount
		cur := make([]byte, 20)
		iss := testAccount(0x33).Bytes()
		writeGuest(t, m, 0, cur)
		writeGuest(t, m, 20, iss)
		n := m.Call("float_sto", 100, 48, 0, 20, 20, 20, two, 0)
		require.Equal(t, int64(48), n)
		require.Equal(t, two, m.Call("float_sto_set", 100, 48))
		m.Call("accept", 0, 0, 0)
	})
}

func TestEtxnReserveAndEmit(t *testing.T) {
	f := newHostFixture(t)
	result, _ := f.run(t, func(m *engine.MockInstance) {
		// emit before reserve fails
		require.Equal(t, PREREQUISITE_NOT_MET, m.Call("emit", 0, 32, 100, 10))
		require.Equal(t, PREREQUISITE_NOT_MET, m.Call("etxn_details", 0, int64(EtxnDetailsSize)))

		require.Equal(t, int64(2), m.Call("etxn_reserve", 2))
		require.Equal(t, ALREADY_SET, m.Call("etxn_reserve", 1))

		require.Equal(t, int64(2), m.Call("etxn_burden"))
		require.Equal(t, int64(1), m.Call("etxn_generation"))
		require.Greater(t, m.Call("etxn_fee_base", 100), int64(0))

		emitOne := func(detailsOff, txnOff int64) int64 {
			require.Equal(t, int64(EtxnDetailsSize), m.Call("etxn_details", detailsOff, int64(EtxnDetailsSize)))
			details := readGuest(t, m, uint32(detailsOff), EtxnDetailsSize)
			blob := emittedTxnBlob(t, details)
			writeGuest(t, m, uint32(txnOff), blob)
			return m.Call("emit", 2000, 32, txnOff, int64(len(blob)))
		}
		require.Equal(t, int64(32), emitOne(100, 3000))
		require.Equal(t, int64(32), emitOne(300, 4000))
		// third emission exceeds the reservation
		require.Equal(t, TOO_MANY_EMITTED_TXN, emitOne(500, 5000))
		m.Call("accept", 0, 0, 0)
	})
	require.Equal(t, ExitAccept, result.ExitType)
	require.Len(t, result.EmittedTxns, 2)
}

func TestEtxnReserveZeroThenEmit(t *testing.T) {
	f := newHostFixture(t)
	f.run(t, func(m *engine.MockInstance) {
		require.Equal(t, int64(0), m.Call("etxn_reserve", 0))
		require.Equal(t, TOO_MANY_EMITTED_TXN, m.Call("emit", 0, 32, 100, 10))
		m.Call("accept", 0, 0, 0)
	})
}

func TestEmitRejectsForgedDetails(t *testing.T) {
	f := newHostFixture(t)
	f.run(t, func(m *engine.MockInstance) {
		require.Equal(t, int64(1), m.Call("etxn_reserve", 1))
		// details not issued by etxn_details
		forged := ledger.EncodeEmitDetails(ledger.EmitDetails{
			Generation:  1,
			Burden:      2,
			ParentTxnID: f.applyCtx.Txn.ID,
			Nonce:       common.HexToHash("0xbad"),
			Callback:    f.account,
		})
		blob := emittedTxnBlob(t, sto.EncodeField(sto.SfEmitDetails, forged))
		writeGuest(t, m, 100, blob)
		require.Equal(t, EMISSION_FAILURE, m.Call("emit", 0, 32, 100, int64(len(blob))))
		m.Call("accept", 0, 0, 0)
	})
}

// emittedTxnBlob assembles a minimal emitted transaction around an issued
// details field, with a fee covering the fee base.
func emittedTxnBlob(t *testing.T, detailsField []byte) []byte {
	t.Helper()
	tt := make([]byte, 2)
	binary.BigEndian.PutUint16(tt, ledger.TtPayment)
	out := sto.EncodeField(sto.SfTransactionType, tt)

	// generous fee, fee base scales with total size
	fee := make([]byte, 8)
	binary.BigEndian.PutUint64(fee, uint64(1)<<50)
	out = append(out, sto.EncodeField(sto.SfFee, fee)...)
	out = append(out, sto.EncodeField(sto.SfAccount, testAccount(0xB0).Bytes())...)
	out = append(out, detailsField...)
	return out
}

func TestEtxnDetailsSizeConstant(t *testing.T) {
	blob := sto.EncodeField(sto.SfEmitDetails, ledger.EncodeEmitDetails(ledger.EmitDetails{
		Generation:  1,
		Burden:      2,
		ParentTxnID: common.HexToHash("0x01"),
		Nonce:       common.HexToHash("0x02"),
		Callback:    testAccount(1),
	}))
	require.Len(t, blob, EtxnDetailsSize)
}
