package ledger

import (
	"encoding/binary"

	"github.com/pantyukhov/xrpld-hooks/common"
	"github.com/pantyukhov/xrpld-hooks/sto"
)

// Transaction types the TSH table classifies.
const (
	TtPayment        uint16 = 0
	TtEscrowCreate   uint16 = 1
	TtEscrowFinish   uint16 = 2
	TtAccountSet     uint16 = 3
	TtEscrowCancel   uint16 = 4
	TtRegularKeySet  uint16 = 5
	TtOfferCreate    uint16 = 7
	TtOfferCancel    uint16 = 8
	TtTicketCreate   uint16 = 10
	TtSignerListSet  uint16 = 12
	TtPaychanCreate  uint16 = 13
	TtPaychanFund    uint16 = 14
	TtPaychanClaim   uint16 = 15
	TtCheckCreate    uint16 = 16
	TtCheckCash      uint16 = 17
	TtCheckCancel    uint16 = 18
	TtDepositPreauth uint16 = 19
	TtTrustSet       uint16 = 20
	TtAccountDelete  uint16 = 21
	TtHookSet        uint16 = 22
)

// EmitDetails is the metadata an emitted transaction carries back to the
// ledger: which execution produced it and how much inherited work it owes.
type EmitDetails struct {
	Generation  uint32
	Burden      uint64
	ParentTxnID common.Hash
	Nonce       common.Hash
	Callback    common.AccountID
}

// Txn is an originating transaction as seen by hook execution: the raw
// serialized body plus the fields the core reads directly.
type Txn struct {
	ID      common.Hash
	Type    uint16
	Account common.AccountID
	Raw     []byte

	emitDetails *EmitDetails
}

// ParseTxn extracts the core fields from a serialized transaction body.
func ParseTxn(raw []byte) (*Txn, bool) {
	if !sto.Validate(raw) {
		return nil, false
	}
	t := &Txn{
		Raw: append([]byte(nil), raw...),
		ID:  common.SHA512Half([]byte("TXN\x00"), raw),
	}
	if off, l, err := sto.Subfield(raw, sto.SfTransactionType); err == nil && l == 2 {
		t.Type = binary.BigEndian.Uint16(raw[off : off+2])
	} else {
		return nil, false
	}
	if off, l, err := sto.Subfield(raw, sto.SfAccount); err == nil && l == 20 {
		copy(t.Account[:], raw[off:off+l])
	} else {
		return nil, false
	}
	if off, l, err := sto.Subfield(raw, sto.SfEmitDetails); err == nil {
		ed, ok := parseEmitDetails(raw[off : off+l])
		if !ok {
			return nil, false
		}
		t.emitDetails = ed
	}
	return t, true
}

// IsEmitted reports whether this transaction was produced by a hook.
func (t *Txn) IsEmitted() bool {
	return t.emitDetails != nil
}

// EmitDetails returns the embedded emission metadata, nil for user-submitted
// transactions.
func (t *Txn) EmitDetails() *EmitDetails {
	return t.emitDetails
}

// Burden of the transaction; user-submitted transactions carry 1.
func (t *Txn) Burden() uint64 {
	if t.emitDetails != nil {
		return t.emitDetails.Burden
	}
	return 1
}

// Generation of the transaction; user-submitted transactions are depth 0.
func (t *Txn) Generation() uint32 {
	if t.emitDetails != nil {
		return t.emitDetails.Generation
	}
	return 0
}

// Fee returns the declared native fee, 0 when absent.
func (t *Txn) Fee() uint64 {
	off, l, err := sto.Subfield(t.Raw, sto.SfFee)
	if err != nil || l != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(t.Raw[off:off+8]) &^ (uint64(1) << 63)
}

func parseEmitDetails(body []byte) (*EmitDetails, bool) {
	ed := &EmitDetails{}
	off, l, err := sto.Subfield(body, sto.SfEmitGeneration)
	if err != nil || l != 4 {
		return nil, false
	}
	ed.Generation = binary.BigEndian.Uint32(body[off : off+4])

	off, l, err = sto.Subfield(body, sto.SfEmitBurden)
	if err != nil || l != 8 {
		return nil, false
	}
	ed.Burden = binary.BigEndian.Uint64(body[off : off+8])

	off, l, err = sto.Subfield(body, sto.SfEmitParentTxnID)
	if err != nil || l != 32 {
		return nil, false
	}
	ed.ParentTxnID = common.BytesToHash(body[off : off+32])

	off, l, err = sto.Subfield(body, sto.SfEmitNonce)
	if err != nil || l != 32 {
		return nil, false
	}
	ed.Nonce = common.BytesToHash(body[off : off+32])

	off, l, err = sto.Subfield(body, sto.SfEmitCallback)
	if err != nil || l != 20 {
		return nil, false
	}
	copy(ed.Callback[:], body[off:off+20])
	return ed, true
}

// EncodeEmitDetails renders the emit-details object body.
func EncodeEmitDetails(ed EmitDetails) []byte {
	gen := make([]byte, 4)
	binary.BigEndian.PutUint32(gen, ed.Generation)
	burden := make([]byte, 8)
	binary.BigEndian.PutUint64(burden, ed.Burden)

	body := sto.EncodeField(sto.SfEmitGeneration, gen)
	body = append(body, sto.EncodeField(sto.SfEmitBurden, burden)...)
	body = append(body, sto.EncodeField(sto.SfEmitParentTxnID, ed.ParentTxnID.Bytes())...)
	body = append(body, sto.EncodeField(sto.SfEmitNonce, ed.Nonce.Bytes())...)
	body = append(body, sto.EncodeField(sto.SfEmitCallback, ed.Callback.Bytes())...)
	return body
}
