package hook

import (
	"github.com/pantyukhov/xrpld-hooks/common"
	"github.com/pantyukhov/xrpld-hooks/ledger"
)

// Keylet type tags accepted by util_keylet.
const (
	KeyletHook           uint32 = 1
	KeyletHookState      uint32 = 2
	KeyletAccount        uint32 = 3
	KeyletAmendments     uint32 = 4
	KeyletChild          uint32 = 5
	KeyletSkip           uint32 = 6
	KeyletFees           uint32 = 7
	KeyletNegativeUNL    uint32 = 8
	KeyletLine           uint32 = 9
	KeyletOffer          uint32 = 10
	KeyletQuality        uint32 = 11
	KeyletEmittedDir     uint32 = 12
	KeyletTicket         uint32 = 13
	KeyletSigners        uint32 = 14
	KeyletCheck          uint32 = 15
	KeyletDepositPreauth uint32 = 16
	KeyletUnchecked      uint32 = 17
	KeyletOwnerDir       uint32 = 18
	KeyletPage           uint32 = 19
	KeyletEscrow         uint32 = 20
	KeyletPaychan        uint32 = 21
	KeyletEmitted        uint32 = 22
)

// Ledger namespace bytes feeding the keylet digest, one per object family.
var keyletSpace = map[uint32]byte{
	KeyletHook:           'H',
	KeyletHookState:      'v',
	KeyletAccount:        'a',
	KeyletAmendments:     'f',
	KeyletChild:          '$',
	KeyletSkip:           's',
	KeyletFees:           'e',
	KeyletNegativeUNL:    'N',
	KeyletLine:           'r',
	KeyletOffer:          'o',
	KeyletQuality:        'q',
	KeyletEmittedDir:     'D',
	KeyletTicket:         'T',
	KeyletSigners:        'S',
	KeyletCheck:          'C',
	KeyletDepositPreauth: 'p',
	KeyletUnchecked:      'u',
	KeyletOwnerDir:       'O',
	KeyletPage:           'd',
	KeyletEscrow:         'w',
	KeyletPaychan:        'x',
	KeyletEmitted:        'E',
}

func keyletDigest(keyletType uint32, params ...[]byte) ledger.Keylet {
	space := []byte{0, keyletSpace[keyletType]}
	all := make([][]byte, 0, len(params)+1)
	all = append(all, space)
	all = append(all, params...)
	return ledger.Keylet{
		Type: uint16(keyletType),
		Key:  common.SHA512Half(all...),
	}
}

// AccountKeylet keys an account root.
func AccountKeylet(acct common.AccountID) ledger.Keylet {
	return keyletDigest(KeyletAccount, acct.Bytes())
}

// HookKeylet keys an account's hook chain object.
func HookKeylet(acct common.AccountID) ledger.Keylet {
	return keyletDigest(KeyletHook, acct.Bytes())
}

// HookDefinitionKeylet keys an immutable hook definition by bytecode hash.
func HookDefinitionKeylet(hash common.Hash) ledger.Keylet {
	return keyletDigest(KeyletUnchecked, hash.Bytes())
}

// HookStateKeylet keys one persistent state entry:
// H(owner_account || namespace || key).
func HookStateKeylet(acct common.AccountID, ns common.Namespace, key StateKey) ledger.Keylet {
	return ledger.HookStateKeylet(acct, ns, [32]byte(key))
}

// EmittedDirKeylet keys the pending-emission directory of an account.
func EmittedDirKeylet(acct common.AccountID) ledger.Keylet {
	return keyletDigest(KeyletEmittedDir, acct.Bytes())
}

// EmittedTxnKeylet keys one pending emitted transaction by id.
func EmittedTxnKeylet(txnID common.Hash) ledger.Keylet {
	return keyletDigest(KeyletEmitted, txnID.Bytes())
}

// keyletShape describes how many of the six generic parameters each keylet
// type consumes and how they are interpreted by ComputeKeylet.
type keyletShape struct {
	accounts int // leading 20-byte account ids
	hashes   int // following 32-byte hashes
	words    int // trailing 32-bit words
}

var keyletShapes = map[uint32]keyletShape{
	KeyletHook:           {accounts: 1},
	KeyletHookState:      {accounts: 1, hashes: 2},
	KeyletAccount:        {accounts: 1},
	KeyletAmendments:     {},
	KeyletChild:          {hashes: 1},
	KeyletSkip:           {words: 1},
	KeyletFees:           {},
	KeyletNegativeUNL:    {},
	KeyletLine:           {accounts: 2, hashes: 1},
	KeyletOffer:          {accounts: 1, words: 1},
	KeyletQuality:        {hashes: 1, words: 2},
	KeyletEmittedDir:     {accounts: 1},
	KeyletTicket:         {accounts: 1, words: 1},
	KeyletSigners:        {accounts: 1},
	KeyletCheck:          {accounts: 1, words: 1},
	KeyletDepositPreauth: {accounts: 2},
	KeyletUnchecked:      {hashes: 1},
	KeyletOwnerDir:       {accounts: 1},
	KeyletPage:           {hashes: 1, words: 2},
	KeyletEscrow:         {accounts: 1, words: 1},
	KeyletPaychan:        {accounts: 2, words: 1},
	KeyletEmitted:        {hashes: 1},
}

// ComputeKeylet assembles a keylet from the generic util_keylet parameter
// payloads. accounts/hashes/words are the decoded parameter groups; their
// counts must match the type's shape exactly.
func ComputeKeylet(keyletType uint32, accounts []common.AccountID, hashes []common.Hash, words []uint32) (ledger.Keylet, int64) {
	shape, ok := keyletShapes[keyletType]
	if !ok {
		return ledger.Keylet{}, NO_SUCH_KEYLET
	}
	if len(accounts) != shape.accounts || len(hashes) != shape.hashes || len(words) != shape.words {
		return ledger.Keylet{}, INVALID_ARGUMENT
	}
	params := make([][]byte, 0, 6)
	for _, a := range accounts {
		params = append(params, a.Bytes())
	}
	for _, h := range hashes {
		params = append(params, h.Bytes())
	}
	for _, w := range words {
		params = append(params, common.Uint32ToBytes(w))
	}
	return keyletDigest(keyletType, params...), SUCCESS
}
