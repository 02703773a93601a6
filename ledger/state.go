package ledger

import (
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/pantyukhov/xrpld-hooks/common"
)

// Hook-state entries are stored twice: under a structured composite key so a
// namespace can be enumerated and deleted, and under their keylet so generic
// object reads resolve them.

const KeyletTypeHookState uint16 = 2

// HookStateKeylet keys one persistent state entry:
// H(0x00 'v' || owner_account || namespace || key).
func HookStateKeylet(acct common.AccountID, ns common.Namespace, key [32]byte) Keylet {
	return Keylet{
		Type: KeyletTypeHookState,
		Key:  common.SHA512Half([]byte{0, 'v'}, acct.Bytes(), ns.Bytes(), key[:]),
	}
}

var prefixState = []byte("hs:")

func stateDBKey(acct common.AccountID, ns common.Namespace, key [32]byte) []byte {
	out := make([]byte, 0, len(prefixState)+20+32+32)
	out = append(out, prefixState...)
	out = append(out, acct.Bytes()...)
	out = append(out, ns.Bytes()...)
	out = append(out, key[:]...)
	return out
}

func namespacePrefix(acct common.AccountID, ns common.Namespace) []byte {
	out := make([]byte, 0, len(prefixState)+20+32)
	out = append(out, prefixState...)
	out = append(out, acct.Bytes()...)
	out = append(out, ns.Bytes()...)
	return out
}

func (s *Store) GetHookState(acct common.AccountID, ns common.Namespace, key [32]byte) ([]byte, bool) {
	data, err := s.db.Get(stateDBKey(acct, ns, key), nil)
	if err != nil {
		return nil, false
	}
	return data, true
}

func (s *Store) SetHookState(acct common.AccountID, ns common.Namespace, key [32]byte, value []byte) error {
	if err := s.db.Put(stateDBKey(acct, ns, key), value, nil); err != nil {
		return err
	}
	return s.Set(HookStateKeylet(acct, ns, key), value)
}

func (s *Store) EraseHookState(acct common.AccountID, ns common.Namespace, key [32]byte) error {
	if err := s.db.Delete(stateDBKey(acct, ns, key), nil); err != nil {
		return err
	}
	return s.Erase(HookStateKeylet(acct, ns, key))
}

// EraseNamespace removes every state entry of one (account, namespace).
func (s *Store) EraseNamespace(acct common.AccountID, ns common.Namespace) error {
	prefix := namespacePrefix(acct, ns)
	iter := s.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()
	for iter.Next() {
		var key [32]byte
		copy(key[:], iter.Key()[len(prefix):])
		if err := s.EraseHookState(acct, ns, key); err != nil {
			return err
		}
	}
	return iter.Error()
}
