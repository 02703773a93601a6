// Package sto implements the serialized ledger-object field codec used by
// the sto_* host apis: typed field headers, variable-length payloads, nested
// objects and arrays.
package sto

// Serialized type codes.
const (
	TypeUInt16    = 1
	TypeUInt32    = 2
	TypeUInt64    = 3
	TypeHash128   = 4
	TypeHash256   = 5
	TypeAmount    = 6
	TypeBlob      = 7
	TypeAccount   = 8
	TypeObject    = 14
	TypeArray     = 15
	TypeUInt8     = 16
	TypeHash160   = 17
	TypePathSet   = 18
	TypeVector256 = 19
)

// FieldID packs a type code and a field code into one identifier,
// type in the high 16 bits.
type FieldID uint32

func MakeFieldID(typ, field int) FieldID {
	return FieldID(uint32(typ)<<16 | uint32(field&0xFFFF))
}

func (f FieldID) Type() int  { return int(f >> 16) }
func (f FieldID) Field() int { return int(f & 0xFFFF) }

// Fields the hook core reads or writes directly.
var (
	SfTransactionType = MakeFieldID(TypeUInt16, 2)
	SfFlags           = MakeFieldID(TypeUInt32, 2)
	SfSequence        = MakeFieldID(TypeUInt32, 4)
	SfFirstLedgerSeq  = MakeFieldID(TypeUInt32, 26)
	SfLastLedgerSeq   = MakeFieldID(TypeUInt32, 27)

	SfAmount = MakeFieldID(TypeAmount, 1)
	SfFee    = MakeFieldID(TypeAmount, 8)

	SfSigningPubKey = MakeFieldID(TypeBlob, 3)
	SfTxnSignature  = MakeFieldID(TypeBlob, 4)

	SfAccount     = MakeFieldID(TypeAccount, 1)
	SfDestination = MakeFieldID(TypeAccount, 3)

	SfEmitDetails = MakeFieldID(TypeObject, 16)

	// inner fields of SfEmitDetails
	SfEmitGeneration  = MakeFieldID(TypeUInt32, 10)
	SfEmitBurden      = MakeFieldID(TypeUInt64, 11)
	SfEmitParentTxnID = MakeFieldID(TypeHash256, 11)
	SfEmitNonce       = MakeFieldID(TypeHash256, 12)
	SfEmitCallback    = MakeFieldID(TypeAccount, 10)
)

const (
	objectEndMarker = 0xE1
	arrayEndMarker  = 0xF1
)
