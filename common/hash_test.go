package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSHA512Half(t *testing.T) {
	h := SHA512Half([]byte("hello"))
	require.Len(t, h.Bytes(), 32)
	// split input hashes the same as contiguous input
	h2 := SHA512Half([]byte("he"), []byte("llo"))
	require.Equal(t, h, h2)
	require.NotEqual(t, h, SHA512Half([]byte("hellp")))
}

func TestAccountIDRoundTrip(t *testing.T) {
	var acc AccountID
	for i := range acc {
		acc[i] = byte(i * 7)
	}
	addr := EncodeAccountID(acc)
	require.Equal(t, byte('r'), addr[0])

	got, err := DecodeAccountID(addr)
	require.NoError(t, err)
	require.Equal(t, acc, got)
}

func TestDecodeAccountIDRejectsBadChecksum(t *testing.T) {
	var acc AccountID
	acc[0] = 0x42
	addr := EncodeAccountID(acc)
	mangled := []byte(addr)
	if mangled[len(mangled)-1] == 'r' {
		mangled[len(mangled)-1] = 'p'
	} else {
		mangled[len(mangled)-1] = 'r'
	}
	_, err := DecodeAccountID(string(mangled))
	require.Error(t, err)
}

func TestDecodeAccountIDRejectsBadAlphabet(t *testing.T) {
	_, err := DecodeAccountID("r0OIl") // 0, O, I, l are not in the alphabet
	require.ErrorIs(t, err, ErrAddressFormat)
}

func TestZeroAccountKeepsLeadingDigits(t *testing.T) {
	var acc AccountID // all zero -> many leading zero bytes in payload
	addr := EncodeAccountID(acc)
	got, err := DecodeAccountID(addr)
	require.NoError(t, err)
	require.Equal(t, acc, got)
}
