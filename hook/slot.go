package hook

import (
	"github.com/pantyukhov/xrpld-hooks/sto"
)

// SlotEntry is one occupied slot: an identifier, the owning storage of the
// deserialized object, and the current view into that storage. Sub-slots
// share the parent's storage slice, so clearing the parent does not
// invalidate them.
type SlotEntry struct {
	ID      []byte
	Storage []byte
	Off     int
	Len     int
	FieldID sto.FieldID // zero for root slots
}

// View returns the slot's current object body.
func (e *SlotEntry) View() []byte {
	return e.Storage[e.Off : e.Off+e.Len]
}

// SlotTable is the 255-entry directory of deserialized objects available to
// a single execution. Freed slot numbers are reused LIFO before the
// high-water counter advances.
type SlotTable struct {
	entries map[int]*SlotEntry
	free    []int // LIFO
	counter int
}

func NewSlotTable() *SlotTable {
	return &SlotTable{
		entries: make(map[int]*SlotEntry),
		counter: 1,
	}
}

func (t *SlotTable) Get(slot int) (*SlotEntry, bool) {
	e, ok := t.entries[slot]
	return e, ok
}

// alloc picks the target slot: an explicit nonzero slot is overwritten, slot
// zero allocates (freed slots first).
func (t *SlotTable) alloc(slot int) (int, int64) {
	if slot != 0 {
		if slot < 1 || slot > MaxSlots {
			return 0, INVALID_ARGUMENT
		}
		return slot, SUCCESS
	}
	if n := len(t.free); n > 0 {
		slot = t.free[n-1]
		t.free = t.free[:n-1]
		return slot, SUCCESS
	}
	if t.counter > MaxSlots {
		return 0, NO_FREE_SLOTS
	}
	slot = t.counter
	t.counter++
	return slot, SUCCESS
}

// Set places an object body into a slot. Slot 0 allocates.
func (t *SlotTable) Set(id []byte, data []byte, slot int) (int, int64) {
	slot, rc := t.alloc(slot)
	if rc != SUCCESS {
		return 0, rc
	}
	storage := append([]byte(nil), data...)
	t.entries[slot] = &SlotEntry{
		ID:      append([]byte(nil), id...),
		Storage: storage,
		Off:     0,
		Len:     len(storage),
	}
	return slot, SUCCESS
}

// Clear frees a slot. The freed number is handed out again before any new
// allocation.
func (t *SlotTable) Clear(slot int) int64 {
	if _, ok := t.entries[slot]; !ok {
		return DOESNT_EXIST
	}
	delete(t.entries, slot)
	t.free = append(t.free, slot)
	return SUCCESS
}

// Subfield derives a new slot viewing one field of the parent's object. The
// child shares the parent's storage.
func (t *SlotTable) Subfield(parent int, fieldID sto.FieldID, newSlot int) (int, int64) {
	p, ok := t.entries[parent]
	if !ok {
		return 0, DOESNT_EXIST
	}
	off, length, err := sto.Subfield(p.View(), fieldID)
	if err == sto.ErrNotFound {
		return 0, DOESNT_EXIST
	}
	if err != nil {
		return 0, NOT_AN_OBJECT
	}
	slot, rc := t.alloc(newSlot)
	if rc != SUCCESS {
		return 0, rc
	}
	t.entries[slot] = &SlotEntry{
		ID:      p.ID,
		Storage: p.Storage,
		Off:     p.Off + off,
		Len:     length,
		FieldID: fieldID,
	}
	return slot, SUCCESS
}

// Subarray derives a new slot viewing one element of the parent's array.
func (t *SlotTable) Subarray(parent int, index int, newSlot int) (int, int64) {
	p, ok := t.entries[parent]
	if !ok {
		return 0, DOESNT_EXIST
	}
	off, length, err := sto.Subarray(p.View(), index)
	if err == sto.ErrNotFound {
		return 0, DOESNT_EXIST
	}
	if err != nil {
		return 0, NOT_AN_ARRAY
	}
	slot, rc := t.alloc(newSlot)
	if rc != SUCCESS {
		return 0, rc
	}
	t.entries[slot] = &SlotEntry{
		ID:      p.ID,
		Storage: p.Storage,
		Off:     p.Off + off,
		Len:     length,
		FieldID: p.FieldID,
	}
	return slot, SUCCESS
}

// Count returns the number of object entries when the slot views an array.
func (t *SlotTable) Count(slot int) int64 {
	e, ok := t.entries[slot]
	if !ok {
		return DOESNT_EXIST
	}
	view := e.View()
	n := 0
	for {
		_, _, err := sto.Subarray(view, n)
		if err == sto.ErrNotFound {
			return int64(n)
		}
		if err != nil {
			return NOT_AN_ARRAY
		}
		n++
	}
}

// Size returns the serialized byte length of the slot's view.
func (t *SlotTable) Size(slot int) int64 {
	e, ok := t.entries[slot]
	if !ok {
		return DOESNT_EXIST
	}
	return int64(e.Len)
}
