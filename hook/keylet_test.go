package hook

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pantyukhov/xrpld-hooks/common"
)

func TestKeyletBytesLayout(t *testing.T) {
	acct := testAccount(0x11)
	kl := AccountKeylet(acct)
	b := kl.Bytes()
	require.Len(t, b, 34)
	require.Equal(t, uint16(KeyletAccount), uint16(b[0])<<8|uint16(b[1]))
}

func TestKeyletsDifferByTypeAndInput(t *testing.T) {
	acct := testAccount(0x11)
	require.NotEqual(t, AccountKeylet(acct), HookKeylet(acct))
	require.NotEqual(t, AccountKeylet(acct), AccountKeylet(testAccount(0x12)))

	ns := common.HexToHash("0x01")
	k1 := HookStateKeylet(acct, ns, stateKey(1))
	k2 := HookStateKeylet(acct, ns, stateKey(2))
	require.NotEqual(t, k1, k2)
}

func TestComputeKeyletShapes(t *testing.T) {
	acct := testAccount(1)

	kl, rc := ComputeKeylet(KeyletAccount, []common.AccountID{acct}, nil, nil)
	require.Equal(t, SUCCESS, rc)
	require.Equal(t, AccountKeylet(acct), kl)

	_, rc = ComputeKeylet(KeyletAccount, nil, nil, nil)
	require.Equal(t, INVALID_ARGUMENT, rc)

	_, rc = ComputeKeylet(99, []common.AccountID{acct}, nil, nil)
	require.Equal(t, NO_SUCH_KEYLET, rc)

	// all 22 kinds accept their declared shapes
	for keyletType, shape := range keyletShapes {
		accounts := make([]common.AccountID, shape.accounts)
		hashes := make([]common.Hash, shape.hashes)
		words := make([]uint32, shape.words)
		kl, rc := ComputeKeylet(keyletType, accounts, hashes, words)
		require.Equal(t, SUCCESS, rc, "keylet type %d", keyletType)
		require.Equal(t, uint16(keyletType), kl.Type)
	}
}

func TestExecutionAndCreationFees(t *testing.T) {
	require.Equal(t, uint64(10), ComputeExecutionFee(0))
	require.Greater(t, ComputeExecutionFee(1_000_000), ComputeExecutionFee(0))
	require.Equal(t, uint64(500*100), ComputeCreationFee(100))
}

func TestEtxnFeeBaseRounding(t *testing.T) {
	// 1 byte: ceil(31250 * 1.1) = 34375
	require.Equal(t, int64(34375), EtxnFeeBase(1))
	// 2 bytes: 62500 * 1.1 = 68750 exactly
	require.Equal(t, int64(68750), EtxnFeeBase(2))
	require.Equal(t, int64(0), EtxnFeeBase(0))
	// absurd sizes refuse with FEE_TOO_LARGE
	require.Equal(t, FEE_TOO_LARGE, EtxnFeeBase(^uint64(0)>>8))
}
