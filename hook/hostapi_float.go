package hook

import (
	"encoding/binary"

	"github.com/pantyukhov/xrpld-hooks/sto"
)

func (ctx *Context) hostFloatSet(args []int64) int64 {
	return FloatSet(int32(u32(args[0])), args[1])
}

func (ctx *Context) hostFloatMultiply(args []int64) int64 {
	return FloatMultiply(args[0], args[1])
}

func (ctx *Context) hostFloatMulratio(args []int64) int64 {
	return FloatMulratio(args[0], u32(args[1]), u32(args[2]), u32(args[3]))
}

func (ctx *Context) hostFloatNegate(args []int64) int64 {
	return FloatNegate(args[0])
}

func (ctx *Context) hostFloatCompare(args []int64) int64 {
	return FloatCompare(args[0], args[1], u32(args[2]))
}

func (ctx *Context) hostFloatSum(args []int64) int64 {
	return FloatSum(args[0], args[1])
}

func (ctx *Context) hostFloatInvert(args []int64) int64 {
	return FloatInvert(args[0])
}

func (ctx *Context) hostFloatDivide(args []int64) int64 {
	return FloatDivide(args[0], args[1])
}

func (ctx *Context) hostFloatOne(args []int64) int64 {
	return FloatOne()
}

func (ctx *Context) hostFloatExponent(args []int64) int64 {
	return FloatExponent(args[0])
}

func (ctx *Context) hostFloatExponentSet(args []int64) int64 {
	return FloatExponentSet(args[0], int32(u32(args[1])))
}

func (ctx *Context) hostFloatMantissa(args []int64) int64 {
	return FloatMantissa(args[0])
}

func (ctx *Context) hostFloatMantissaSet(args []int64) int64 {
	return FloatMantissaSet(args[0], args[1])
}

func (ctx *Context) hostFloatSign(args []int64) int64 {
	return FloatSign(args[0])
}

func (ctx *Context) hostFloatSignSet(args []int64) int64 {
	return FloatSignSet(args[0], u32(args[1]))
}

func (ctx *Context) hostFloatInt(args []int64) int64 {
	return FloatInt(args[0], u32(args[1]), u32(args[2]))
}

const (
	amountIssuedBit   = uint64(1) << 63
	amountPositiveBit = uint64(1) << 62
)

// float_sto(write_ptr, write_len, cread_ptr, cread_len, iread_ptr,
// iread_len, float1, field_code): serialize a float as an amount. With a
// currency and issuer the value becomes a 48-byte issued amount, without
// them an 8-byte native amount in drops. A nonzero field_code wraps the
// payload in that amount field.
func (ctx *Context) hostFloatSto(args []int64) int64 {
	f := args[6]
	if _, _, _, ok := floatDecode(f); !ok {
		return INVALID_FLOAT
	}
	curLen, issLen := u32(args[3]), u32(args[5])

	var payload []byte
	switch {
	case curLen == 20 && issLen == 20:
		cur, rc := ctx.mem.Read(u32(args[2]), curLen)
		if rc != SUCCESS {
			return rc
		}
		iss, rc := ctx.mem.Read(u32(args[4]), issLen)
		if rc != SUCCESS {
			return rc
		}
		value := amountIssuedBit
		if f != 0 {
			value |= uint64(f)
		}
		payload = make([]byte, 0, 48)
		payload = binary.BigEndian.AppendUint64(payload, value)
		payload = append(payload, cur...)
		payload = append(payload, iss...)
	case curLen == 0 && issLen == 0:
		if FloatSign(f) == 1 {
			return INVALID_FLOAT // native amounts carry no negative values
		}
		drops := FloatInt(f, 0, 0)
		if drops < 0 {
			return drops
		}
		payload = binary.BigEndian.AppendUint64(nil, uint64(drops)|amountPositiveBit)
	default:
		return INVALID_ARGUMENT
	}

	fieldCode := u32(args[7])
	if fieldCode == 0 {
		return ctx.mem.WriteCapped(u32(args[0]), u32(args[1]), payload)
	}
	fieldID := sto.FieldID(fieldCode)
	if fieldID.Type() != sto.TypeAmount {
		return INVALID_FIELD
	}
	return ctx.mem.WriteCapped(u32(args[0]), u32(args[1]), sto.EncodeField(fieldID, payload))
}

// float_sto_set(read_ptr, read_len): parse a serialized amount (bare value,
// full issued amount, or a complete amount field) back into a float.
func (ctx *Context) hostFloatStoSet(args []int64) int64 {
	blob, rc := ctx.mem.Read(u32(args[0]), u32(args[1]))
	if rc != SUCCESS {
		return rc
	}
	var value []byte
	switch len(blob) {
	case 8, 48:
		value = blob[:8]
	default:
		id, off, length, _, err := sto.ParseField(blob)
		if err != nil {
			return PARSE_ERROR
		}
		if id.Type() != sto.TypeAmount {
			return NOT_AN_AMOUNT
		}
		if length != 8 && length != 48 {
			return PARSE_ERROR
		}
		value = blob[off : off+8]
	}
	raw := binary.BigEndian.Uint64(value)
	if raw&amountIssuedBit != 0 {
		f := int64(raw &^ amountIssuedBit)
		if f == 0 {
			return 0
		}
		if _, _, _, ok := floatDecode(f); !ok {
			return NOT_IOU_AMOUNT
		}
		return f
	}
	drops := int64(raw & (amountPositiveBit - 1))
	f := FloatSet(0, drops)
	if raw&amountPositiveBit == 0 && f > 0 {
		return FloatNegate(f)
	}
	return f
}
