package hook

import (
	"bytes"
	"encoding/binary"

	"github.com/pantyukhov/xrpld-hooks/ledger"
	"github.com/pantyukhov/xrpld-hooks/sto"
)

// slot(write_ptr, write_len, slot_no): copy the slot's serialized view into
// guest memory.
func (ctx *Context) hostSlot(args []int64) int64 {
	e, ok := ctx.slots.Get(int(u32(args[2])))
	if !ok {
		return DOESNT_EXIST
	}
	return ctx.mem.WriteCapped(u32(args[0]), u32(args[1]), e.View())
}

func (ctx *Context) hostSlotClear(args []int64) int64 {
	return ctx.slots.Clear(int(u32(args[0])))
}

func (ctx *Context) hostSlotCount(args []int64) int64 {
	return ctx.slots.Count(int(u32(args[0])))
}

// slot_id(write_ptr, write_len, slot_no): the identifier the slot was loaded
// from (keylet or transaction id).
func (ctx *Context) hostSlotID(args []int64) int64 {
	e, ok := ctx.slots.Get(int(u32(args[2])))
	if !ok {
		return DOESNT_EXIST
	}
	return ctx.mem.WriteCapped(u32(args[0]), u32(args[1]), e.ID)
}

// slot_set(read_ptr, read_len, slot_no): load a ledger object (34-byte
// keylet) or the originating transaction (its 32-byte id) into a slot.
// Slot 0 allocates.
func (ctx *Context) hostSlotSet(args []int64) int64 {
	id, rc := ctx.mem.Read(u32(args[0]), u32(args[1]))
	if rc != SUCCESS {
		return rc
	}
	var data []byte
	switch len(id) {
	case 34:
		kl, ok := ledger.KeyletFromBytes(id)
		if !ok {
			return INVALID_ARGUMENT
		}
		data, ok = ctx.ApplyCtx.View.Get(kl)
		if !ok {
			return DOESNT_EXIST
		}
	case 32:
		if !bytes.Equal(id, ctx.ApplyCtx.Txn.ID.Bytes()) {
			return DOESNT_EXIST
		}
		data = ctx.ApplyCtx.Txn.Raw
	default:
		return INVALID_ARGUMENT
	}
	slot, rc := ctx.slots.Set(id, data, int(int32(u32(args[2]))))
	if rc != SUCCESS {
		return rc
	}
	return int64(slot)
}

func (ctx *Context) hostSlotSize(args []int64) int64 {
	return ctx.slots.Size(int(u32(args[0])))
}

// slot_subarray(parent_slot, array_index, new_slot): derive a slot viewing
// one array entry; the child shares the parent's storage.
func (ctx *Context) hostSlotSubarray(args []int64) int64 {
	slot, rc := ctx.slots.Subarray(int(u32(args[0])), int(u32(args[1])), int(u32(args[2])))
	if rc != SUCCESS {
		return rc
	}
	return int64(slot)
}

// slot_subfield(parent_slot, field_id, new_slot): derive a slot viewing one
// object field.
func (ctx *Context) hostSlotSubfield(args []int64) int64 {
	slot, rc := ctx.slots.Subfield(int(u32(args[0])), sto.FieldID(u32(args[1])), int(u32(args[2])))
	if rc != SUCCESS {
		return rc
	}
	return int64(slot)
}

// slot_type(slot_no, flags): with flags 0 the field id of the slot's view
// (0 for a root object); with flags 1, 1 when the slot holds a native
// amount, 0 for an issued amount.
func (ctx *Context) hostSlotType(args []int64) int64 {
	e, ok := ctx.slots.Get(int(u32(args[0])))
	if !ok {
		return DOESNT_EXIST
	}
	switch u32(args[1]) {
	case 0:
		return int64(e.FieldID)
	case 1:
		if e.FieldID.Type() != sto.TypeAmount {
			return NOT_AN_AMOUNT
		}
		if e.Len == 8 {
			return 1
		}
		return 0
	default:
		return INVALID_ARGUMENT
	}
}

// slot_float(slot_no): convert the amount in a slot to a decimal float.
// Native amounts convert from drops, issued amounts reuse the value's
// packed encoding directly.
func (ctx *Context) hostSlotFloat(args []int64) int64 {
	e, ok := ctx.slots.Get(int(u32(args[0])))
	if !ok {
		return DOESNT_EXIST
	}
	if e.FieldID.Type() != sto.TypeAmount {
		return NOT_AN_AMOUNT
	}
	view := e.View()
	switch len(view) {
	case 8:
		drops := binary.BigEndian.Uint64(view) & ((uint64(1) << 62) - 1)
		return FloatSet(0, int64(drops))
	case 48:
		value := binary.BigEndian.Uint64(view[:8])
		f := int64(value &^ (uint64(1) << 63))
		if _, _, mant, ok := floatDecode(f); !ok || mant == 0 {
			return 0
		}
		return f
	default:
		return NOT_AN_AMOUNT
	}
}

// otxn_slot(slot_no): load the originating transaction into a slot.
func (ctx *Context) hostOtxnSlot(args []int64) int64 {
	txn := ctx.originatingTxn()
	slot, rc := ctx.slots.Set(ctx.ApplyCtx.Txn.ID.Bytes(), txn, int(int32(u32(args[0]))))
	if rc != SUCCESS {
		return rc
	}
	return int64(slot)
}
