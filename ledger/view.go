package ledger

import (
	"github.com/pantyukhov/xrpld-hooks/common"
)

// ReadView is a read-only snapshot of ledger objects.
type ReadView interface {
	// Seq is the sequence number of the ledger being built.
	Seq() uint32
	// LastHash is the hash of the last closed ledger.
	LastHash() common.Hash
	// Get returns the raw serialized body of the object at k.
	Get(k Keylet) ([]byte, bool)
	// GetHookState reads one persistent hook-state value.
	GetHookState(acct common.AccountID, ns common.Namespace, key [32]byte) ([]byte, bool)
	// Hooks returns the ordered installation chain of an account.
	Hooks(account common.AccountID) []HookInstallation
	// HookDefinition resolves a definition by bytecode hash.
	HookDefinition(hash common.Hash) (*HookDefinition, bool)
}

// ApplyView extends ReadView with mutation; changes stay in the overlay
// until Commit.
type ApplyView interface {
	ReadView
	Set(k Keylet, data []byte)
	Erase(k Keylet)
	SetHookState(acct common.AccountID, ns common.Namespace, key [32]byte, value []byte)
	EraseHookState(acct common.AccountID, ns common.Namespace, key [32]byte)
	EraseNamespace(acct common.AccountID, ns common.Namespace)
	SetHooks(account common.AccountID, chain []HookInstallation)
	SetHookDefinition(def *HookDefinition)
	EraseHookDefinition(hash common.Hash)
}

type hsKey struct {
	acct common.AccountID
	ns   common.Namespace
	key  [32]byte
}

type nsKey struct {
	acct common.AccountID
	ns   common.Namespace
}

type overlayEntry struct {
	data    []byte
	deleted bool
}

// OverlayView buffers writes over a backing store until Commit.
type OverlayView struct {
	store    *Store
	seq      uint32
	lastHash common.Hash

	entries   map[Keylet]overlayEntry
	hookState map[hsKey]overlayEntry
	nsErased  map[nsKey]bool
	hooks     map[common.AccountID][]HookInstallation
	defs      map[common.Hash]*HookDefinition
	defsDel   map[common.Hash]bool
}

func NewOverlayView(store *Store, seq uint32, lastHash common.Hash) *OverlayView {
	return &OverlayView{
		store:     store,
		seq:       seq,
		lastHash:  lastHash,
		entries:   make(map[Keylet]overlayEntry),
		hookState: make(map[hsKey]overlayEntry),
		nsErased:  make(map[nsKey]bool),
		hooks:     make(map[common.AccountID][]HookInstallation),
		defs:      make(map[common.Hash]*HookDefinition),
		defsDel:   make(map[common.Hash]bool),
	}
}

func (v *OverlayView) GetHookState(acct common.AccountID, ns common.Namespace, key [32]byte) ([]byte, bool) {
	if e, ok := v.hookState[hsKey{acct, ns, key}]; ok {
		if e.deleted {
			return nil, false
		}
		return e.data, true
	}
	if v.nsErased[nsKey{acct, ns}] {
		return nil, false
	}
	return v.store.GetHookState(acct, ns, key)
}

func (v *OverlayView) SetHookState(acct common.AccountID, ns common.Namespace, key [32]byte, value []byte) {
	v.hookState[hsKey{acct, ns, key}] = overlayEntry{data: append([]byte(nil), value...)}
}

func (v *OverlayView) EraseHookState(acct common.AccountID, ns common.Namespace, key [32]byte) {
	v.hookState[hsKey{acct, ns, key}] = overlayEntry{deleted: true}
}

func (v *OverlayView) EraseNamespace(acct common.AccountID, ns common.Namespace) {
	for k := range v.hookState {
		if k.acct == acct && k.ns == ns {
			delete(v.hookState, k)
		}
	}
	v.nsErased[nsKey{acct, ns}] = true
}

func (v *OverlayView) Seq() uint32           { return v.seq }
func (v *OverlayView) LastHash() common.Hash { return v.lastHash }

func (v *OverlayView) Get(k Keylet) ([]byte, bool) {
	if e, ok := v.entries[k]; ok {
		if e.deleted {
			return nil, false
		}
		return e.data, true
	}
	return v.store.Get(k)
}

func (v *OverlayView) Set(k Keylet, data []byte) {
	v.entries[k] = overlayEntry{data: append([]byte(nil), data...)}
}

func (v *OverlayView) Erase(k Keylet) {
	v.entries[k] = overlayEntry{deleted: true}
}

func (v *OverlayView) Hooks(account common.AccountID) []HookInstallation {
	if chain, ok := v.hooks[account]; ok {
		return chain
	}
	return v.store.Hooks(account)
}

func (v *OverlayView) SetHooks(account common.AccountID, chain []HookInstallation) {
	v.hooks[account] = chain
}

func (v *OverlayView) HookDefinition(hash common.Hash) (*HookDefinition, bool) {
	if v.defsDel[hash] {
		return nil, false
	}
	if def, ok := v.defs[hash]; ok {
		return def, true
	}
	return v.store.HookDefinition(hash)
}

func (v *OverlayView) SetHookDefinition(def *HookDefinition) {
	delete(v.defsDel, def.Hash)
	v.defs[def.Hash] = def
}

func (v *OverlayView) EraseHookDefinition(hash common.Hash) {
	delete(v.defs, hash)
	v.defsDel[hash] = true
}

// Commit flushes buffered changes into the backing store. Namespace erasures
// land first so same-transaction rewrites survive.
func (v *OverlayView) Commit() error {
	for k := range v.nsErased {
		if err := v.store.EraseNamespace(k.acct, k.ns); err != nil {
			return err
		}
	}
	for k, e := range v.hookState {
		var err error
		if e.deleted {
			err = v.store.EraseHookState(k.acct, k.ns, k.key)
		} else {
			err = v.store.SetHookState(k.acct, k.ns, k.key, e.data)
		}
		if err != nil {
			return err
		}
	}
	for k, e := range v.entries {
		var err error
		if e.deleted {
			err = v.store.Erase(k)
		} else {
			err = v.store.Set(k, e.data)
		}
		if err != nil {
			return err
		}
	}
	for acct, chain := range v.hooks {
		if err := v.store.SetHooks(acct, chain); err != nil {
			return err
		}
	}
	for hash := range v.defsDel {
		if err := v.store.EraseHookDefinition(hash); err != nil {
			return err
		}
	}
	for _, def := range v.defs {
		if err := v.store.SetHookDefinition(def); err != nil {
			return err
		}
	}
	v.entries = make(map[Keylet]overlayEntry)
	v.hookState = make(map[hsKey]overlayEntry)
	v.nsErased = make(map[nsKey]bool)
	v.hooks = make(map[common.AccountID][]HookInstallation)
	v.defs = make(map[common.Hash]*HookDefinition)
	v.defsDel = make(map[common.Hash]bool)
	return nil
}
