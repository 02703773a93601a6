package ledger

import (
	"encoding/json"

	"github.com/syndtr/goleveldb/leveldb"
	leveldbErrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/pantyukhov/xrpld-hooks/common"
)

var (
	prefixSLE  = []byte("sle:")
	prefixHook = []byte("hooks:")
	prefixDef  = []byte("def:")
)

// Store persists ledger objects, per-account hook chains and hook
// definitions in leveldb.
type Store struct {
	db *leveldb.DB
}

// OpenStore opens (creating if necessary) a store at path.
func OpenStore(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// NewMemStore returns a store backed by transient memory, for tests and the
// exec tool.
func NewMemStore() *Store {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		panic(err)
	}
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(k Keylet) ([]byte, bool) {
	data, err := s.db.Get(append(prefixSLE, k.Bytes()...), nil)
	if err != nil {
		return nil, false
	}
	return data, true
}

func (s *Store) Set(k Keylet, data []byte) error {
	return s.db.Put(append(prefixSLE, k.Bytes()...), data, nil)
}

func (s *Store) Erase(k Keylet) error {
	err := s.db.Delete(append(prefixSLE, k.Bytes()...), nil)
	if err == leveldbErrors.ErrNotFound {
		return nil
	}
	return err
}

func (s *Store) Hooks(account common.AccountID) []HookInstallation {
	data, err := s.db.Get(append(prefixHook, account.Bytes()...), nil)
	if err != nil {
		return nil
	}
	var chain []HookInstallation
	if err := json.Unmarshal(data, &chain); err != nil {
		return nil
	}
	return chain
}

func (s *Store) SetHooks(account common.AccountID, chain []HookInstallation) error {
	if len(chain) == 0 {
		err := s.db.Delete(append(prefixHook, account.Bytes()...), nil)
		if err == leveldbErrors.ErrNotFound {
			return nil
		}
		return err
	}
	data, err := json.Marshal(chain)
	if err != nil {
		return err
	}
	return s.db.Put(append(prefixHook, account.Bytes()...), data, nil)
}

func (s *Store) HookDefinition(hash common.Hash) (*HookDefinition, bool) {
	data, err := s.db.Get(append(prefixDef, hash.Bytes()...), nil)
	if err != nil {
		return nil, false
	}
	var def HookDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, false
	}
	return &def, true
}

func (s *Store) SetHookDefinition(def *HookDefinition) error {
	data, err := json.Marshal(def)
	if err != nil {
		return err
	}
	return s.db.Put(append(prefixDef, def.Hash.Bytes()...), data, nil)
}

func (s *Store) EraseHookDefinition(hash common.Hash) error {
	err := s.db.Delete(append(prefixDef, hash.Bytes()...), nil)
	if err == leveldbErrors.ErrNotFound {
		return nil
	}
	return err
}
