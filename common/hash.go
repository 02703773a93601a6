package common

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"fmt"

	ethereumCommon "github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/ripemd160"
)

// Hash is a custom type based on Ethereum's common.Hash
type Hash ethereumCommon.Hash

// AccountID is a 20-byte ledger account identifier.
type AccountID [20]byte

// Namespace is a 256-bit tag partitioning an account's hook-state keyspace.
type Namespace = Hash

// Bytes returns the byte representation of the hash.
func (h Hash) Bytes() []byte {
	return ethereumCommon.Hash(h).Bytes()
}

// String returns the string representation of the hash.
func (h Hash) String() string {
	return ethereumCommon.Hash(h).String()
}

// Hex returns the hexadecimal string representation of the hash.
func (h Hash) Hex() string {
	return ethereumCommon.Hash(h).Hex()
}

func (h Hash) IsZero() bool {
	return h == Hash{}
}

// MarshalText lets hashes serve as JSON object keys.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.Hex()), nil
}

func (h *Hash) UnmarshalText(b []byte) error {
	*h = HexToHash(string(b))
	return nil
}

// BytesToHash converts a byte slice to a Hash.
func BytesToHash(b []byte) Hash {
	return Hash(ethereumCommon.BytesToHash(b))
}

// HexToHash converts a hexadecimal string to a Hash.
func HexToHash(s string) Hash {
	return Hash(ethereumCommon.HexToHash(s))
}

func Bytes2Hex(d []byte) string {
	return "0x" + ethereumCommon.Bytes2Hex(d)
}

func FromHex(s string) []byte {
	return ethereumCommon.FromHex(s)
}

// Skips "0x" and prints a short form for log lines
func Str(hash Hash) string {
	return fmt.Sprintf("%s..%s", hash.Hex()[2:6], hash.Hex()[len(hash.Hex())-4:])
}

func (a AccountID) Bytes() []byte {
	return a[:]
}

func (a AccountID) String() string {
	return Bytes2Hex(a[:])
}

func (a AccountID) IsZero() bool {
	return a == AccountID{}
}

func (a AccountID) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *AccountID) UnmarshalText(b []byte) error {
	raw := FromHex(string(b))
	if len(raw) != 20 {
		return fmt.Errorf("account id must be 20 bytes, got %d", len(raw))
	}
	copy(a[:], raw)
	return nil
}

func BytesToAccountID(b []byte) (AccountID, bool) {
	var a AccountID
	if len(b) != 20 {
		return a, false
	}
	copy(a[:], b)
	return a, true
}

// SHA512Half computes SHA-512 over data and returns the first 256 bits.
// This is the ledger's canonical object digest.
func SHA512Half(data ...[]byte) Hash {
	h := sha512.New()
	for _, d := range data {
		h.Write(d)
	}
	sum := h.Sum(nil)
	return BytesToHash(sum[:32])
}

// AccountIDFromPubKey derives a ledger account id from a public key:
// RIPEMD160(SHA256(pubkey)).
func AccountIDFromPubKey(pubKey []byte) AccountID {
	inner := sha256.Sum256(pubKey)
	rip := ripemd160.New()
	rip.Write(inner[:])
	var a AccountID
	copy(a[:], rip.Sum(nil))
	return a
}

func Uint64ToBytes(val uint64) []byte {
	bytes := make([]byte, 8)
	binary.BigEndian.PutUint64(bytes, val)
	return bytes
}

func Uint32ToBytes(val uint32) []byte {
	bytes := make([]byte, 4)
	binary.BigEndian.PutUint32(bytes, val)
	return bytes
}

func Uint16ToBytes(val uint16) []byte {
	bytes := make([]byte, 2)
	binary.BigEndian.PutUint16(bytes, val)
	return bytes
}
