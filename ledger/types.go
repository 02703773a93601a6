// Package ledger defines the ledger-facing contract the hook core consumes:
// keyed object views, the originating-transaction model, per-account hook
// chains, and a leveldb-backed store for tests and tooling. The surrounding
// transaction engine (validation, fees, signatures) lives elsewhere.
package ledger

import (
	"github.com/pantyukhov/xrpld-hooks/common"
)

// Keylet is a typed 34-byte ledger-object identifier.
type Keylet struct {
	Type uint16
	Key  common.Hash
}

func (k Keylet) Bytes() []byte {
	out := make([]byte, 34)
	out[0] = byte(k.Type >> 8)
	out[1] = byte(k.Type)
	copy(out[2:], k.Key.Bytes())
	return out
}

func KeyletFromBytes(b []byte) (Keylet, bool) {
	if len(b) != 34 {
		return Keylet{}, false
	}
	return Keylet{
		Type: uint16(b[0])<<8 | uint16(b[1]),
		Key:  common.BytesToHash(b[2:]),
	}, true
}

// Grant authorises another hook (by hash), optionally narrowed to a single
// installing account, to write this installation's state.
type Grant struct {
	HookHash  common.Hash
	Authorize common.AccountID // zero means any account running that hook
}

// HookInstallation is one entry of an account's hook chain.
type HookInstallation struct {
	HookHash  common.Hash
	Namespace common.Namespace
	HookOn    uint64
	Params    map[string][]byte
	Grants    []Grant
	Flags     uint32
}

// HookDefinition is the immutable, content-addressed record behind one or
// more installations.
type HookDefinition struct {
	Hash             common.Hash
	Code             []byte
	ApiVersion       uint16
	HookOn           uint64
	InstructionCount uint64 // worst case, computed at install time
	ReferenceCount   uint64
}
