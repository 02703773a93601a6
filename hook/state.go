package hook

import (
	"github.com/pantyukhov/xrpld-hooks/common"
	"github.com/pantyukhov/xrpld-hooks/ledger"
)

// StateKey is a hook-state key, zero-padded on the left to 256 bits.
type StateKey [32]byte

// NormalizeStateKey pads a guest-supplied key. Empty keys are too small,
// keys past the shared parameter-key bound too big.
func NormalizeStateKey(raw []byte) (StateKey, int64) {
	var k StateKey
	if len(raw) == 0 {
		return k, TOO_SMALL
	}
	if uint32(len(raw)) > MaxHookParameterKeySize() {
		return k, TOO_BIG
	}
	copy(k[32-len(raw):], raw)
	return k, SUCCESS
}

type stateEntry struct {
	modified bool
	value    []byte
}

// StateMap is the two-level write-through cache of
// (account, namespace, key) -> value. The chain orchestrator owns one map
// for the whole transaction; each execution works on a fork whose modified
// entries merge back on accept and are dropped on rollback.
type StateMap struct {
	entries map[common.AccountID]map[common.Namespace]map[StateKey]stateEntry
	parent  *StateMap
	view    ledger.ReadView
}

// NewStateMap builds the chain-wide map reading through to the ledger view.
func NewStateMap(view ledger.ReadView) *StateMap {
	return &StateMap{
		entries: make(map[common.AccountID]map[common.Namespace]map[StateKey]stateEntry),
		view:    view,
	}
}

// Fork derives an execution-local map layered over m.
func (m *StateMap) Fork() *StateMap {
	return &StateMap{
		entries: make(map[common.AccountID]map[common.Namespace]map[StateKey]stateEntry),
		parent:  m,
		view:    m.view,
	}
}

func (m *StateMap) local(acct common.AccountID, ns common.Namespace, key StateKey) (stateEntry, bool) {
	if byNs, ok := m.entries[acct]; ok {
		if byKey, ok := byNs[ns]; ok {
			if e, ok := byKey[key]; ok {
				return e, true
			}
		}
	}
	return stateEntry{}, false
}

func (m *StateMap) put(acct common.AccountID, ns common.Namespace, key StateKey, e stateEntry) {
	byNs, ok := m.entries[acct]
	if !ok {
		byNs = make(map[common.Namespace]map[StateKey]stateEntry)
		m.entries[acct] = byNs
	}
	byKey, ok := byNs[ns]
	if !ok {
		byKey = make(map[StateKey]stateEntry)
		byNs[ns] = byKey
	}
	byKey[key] = e
}

// lookup walks the fork chain, then the ledger.
func (m *StateMap) lookup(acct common.AccountID, ns common.Namespace, key StateKey) ([]byte, bool) {
	for sm := m; sm != nil; sm = sm.parent {
		if e, ok := sm.local(acct, ns, key); ok {
			if e.modified && len(e.value) == 0 {
				return nil, false // pending delete
			}
			return e.value, true
		}
	}
	data, ok := m.view.GetHookState(acct, ns, [32]byte(key))
	if !ok {
		return nil, false
	}
	return data, true
}

// Get reads a state value, caching ledger reads as unmodified entries.
func (m *StateMap) Get(acct common.AccountID, ns common.Namespace, key StateKey) ([]byte, int64) {
	if e, ok := m.local(acct, ns, key); ok {
		if e.modified && len(e.value) == 0 {
			return nil, DOESNT_EXIST
		}
		return e.value, SUCCESS
	}
	value, ok := m.lookupBeyond(acct, ns, key)
	if !ok {
		return nil, DOESNT_EXIST
	}
	m.put(acct, ns, key, stateEntry{value: value})
	return value, SUCCESS
}

func (m *StateMap) lookupBeyond(acct common.AccountID, ns common.Namespace, key StateKey) ([]byte, bool) {
	if m.parent != nil {
		return m.parent.lookup(acct, ns, key)
	}
	return m.view.GetHookState(acct, ns, [32]byte(key))
}

// Set upserts a value with the modified flag raised. An empty value marks
// the key for deletion at finalisation.
func (m *StateMap) Set(acct common.AccountID, ns common.Namespace, key StateKey, value []byte) int64 {
	if uint32(len(value)) > MaxHookStateDataSize() {
		return TOO_BIG
	}
	m.put(acct, ns, key, stateEntry{modified: true, value: append([]byte(nil), value...)})
	return SUCCESS
}

// GrantAuthorized reports whether owner has granted writingHook (installed
// on writingAccount) write access to its state.
func (m *StateMap) GrantAuthorized(owner common.AccountID, writingHook common.Hash, writingAccount common.AccountID) bool {
	for _, inst := range m.view.Hooks(owner) {
		for _, g := range inst.Grants {
			if g.HookHash != writingHook {
				continue
			}
			if g.Authorize.IsZero() || g.Authorize == writingAccount {
				return true
			}
		}
	}
	return false
}

// Merge folds a fork's modified entries into m. Unmodified cache entries are
// discarded; they can be re-read without effect.
func (m *StateMap) Merge(fork *StateMap) {
	for acct, byNs := range fork.entries {
		for ns, byKey := range byNs {
			for key, e := range byKey {
				if !e.modified {
					continue
				}
				m.put(acct, ns, key, e)
			}
		}
	}
}

// modifiedEntry is one dirty cache line bound for the ledger.
type modifiedEntry struct {
	Account   common.AccountID
	Namespace common.Namespace
	Key       StateKey
	Value     []byte
}

func (m *StateMap) modified() []modifiedEntry {
	var out []modifiedEntry
	for acct, byNs := range m.entries {
		for ns, byKey := range byNs {
			for key, e := range byKey {
				if !e.modified {
					continue
				}
				out = append(out, modifiedEntry{Account: acct, Namespace: ns, Key: key, Value: e.value})
			}
		}
	}
	return out
}
