package hook

import (
	"bytes"

	"github.com/pantyukhov/xrpld-hooks/ledger"
	"github.com/pantyukhov/xrpld-hooks/log"
	"github.com/pantyukhov/xrpld-hooks/sto"
)

// originatingTxn is the transaction the otxn_* apis expose: in an
// emit-failure callback it is the failed emitted transaction, otherwise the
// applying transaction.
func (ctx *Context) originatingTxn() []byte {
	if ctx.Callback && len(ctx.EmitFailure) > 0 {
		return ctx.EmitFailure
	}
	return ctx.ApplyCtx.Txn.Raw
}

// etxn_reserve(count): declare how many transactions this execution may
// emit. Callable once; fixes the fee reservation.
func (ctx *Context) hostEtxnReserve(args []int64) int64 {
	if ctx.expectedEtxnCount > -1 {
		return ALREADY_SET
	}
	count := u32(args[0])
	if count > MaxEmittedTxns {
		return TOO_BIG
	}
	ctx.expectedEtxnCount = int64(count)
	return int64(count)
}

// etxn_burden(): the burden emitted transactions of this execution carry.
func (ctx *Context) hostEtxnBurden(args []int64) int64 {
	return int64(ctx.etxnBurden())
}

// etxn_generation(): the generation emitted transactions of this execution
// carry.
func (ctx *Context) hostEtxnGeneration(args []int64) int64 {
	return int64(ctx.etxnGeneration())
}

// etxn_fee_base(tx_byte_count): minimum fee an emitted transaction of that
// size must declare.
func (ctx *Context) hostEtxnFeeBase(args []int64) int64 {
	if ctx.expectedEtxnCount < 0 {
		return PREREQUISITE_NOT_MET
	}
	return EtxnFeeBase(uint64(u32(args[0])))
}

// etxn_details(write_ptr, write_len): issue the emission-details blob the
// guest must embed in each emitted transaction. Consumes one nonce.
func (ctx *Context) hostEtxnDetails(args []int64) int64 {
	if ctx.expectedEtxnCount < 0 {
		return PREREQUISITE_NOT_MET
	}
	nonce, rc := ctx.nextNonce()
	if rc != SUCCESS {
		return rc
	}
	details := ledger.EmitDetails{
		Generation:  ctx.etxnGeneration(),
		Burden:      ctx.etxnBurden(),
		ParentTxnID: ctx.ApplyCtx.Txn.ID,
		Nonce:       nonce,
		Callback:    ctx.Account,
	}
	blob := sto.EncodeField(sto.SfEmitDetails, ledger.EncodeEmitDetails(details))
	ctx.issuedDetails[nonce] = blob
	return ctx.mem.WriteCapped(u32(args[0]), u32(args[1]), blob)
}

// emit(write_ptr, write_len, read_ptr, read_len): validate and enqueue one
// emitted transaction; its id is written back to the guest. Emissions past
// the reservation fail.
func (ctx *Context) hostEmit(args []int64) int64 {
	if ctx.expectedEtxnCount < 0 {
		return PREREQUISITE_NOT_MET
	}
	if int64(len(ctx.Result.EmittedTxns)) >= ctx.expectedEtxnCount {
		return TOO_MANY_EMITTED_TXN
	}
	blob, rc := ctx.mem.Read(u32(args[2]), u32(args[3]))
	if rc != SUCCESS {
		return rc
	}
	txn, ok := ledger.ParseTxn(blob)
	if !ok || !txn.IsEmitted() {
		return EMISSION_FAILURE
	}
	ed := txn.EmitDetails()
	issued, ok := ctx.issuedDetails[ed.Nonce]
	if !ok {
		return EMISSION_FAILURE
	}
	// the embedded details must be byte-identical to an issued blob
	off, length, err := sto.Subfield(blob, sto.SfEmitDetails)
	if err != nil {
		return EMISSION_FAILURE
	}
	embedded := sto.EncodeField(sto.SfEmitDetails, blob[off:off+length])
	if !bytes.Equal(embedded, issued) {
		return EMISSION_FAILURE
	}
	if txn.Fee() < uint64(EtxnFeeBase(uint64(len(blob)))) {
		return EMISSION_FAILURE
	}
	delete(ctx.issuedDetails, ed.Nonce) // details are single-use

	ctx.Result.EmittedTxns = append(ctx.Result.EmittedTxns, append([]byte(nil), blob...))
	log.Debug(log.EmitMonitoring, "txn emitted",
		"hook", ctx.HookHash.Hex(), "txn", txn.ID.Hex(),
		"generation", ed.Generation, "burden", ed.Burden)
	return ctx.mem.WriteCapped(u32(args[0]), u32(args[1]), txn.ID.Bytes())
}

// otxn_burden(): burden of the originating transaction.
func (ctx *Context) hostOtxnBurden(args []int64) int64 {
	return int64(ctx.otxnBurden())
}

// otxn_generation(): emission depth of the originating transaction.
func (ctx *Context) hostOtxnGeneration(args []int64) int64 {
	return int64(ctx.otxnGeneration())
}

// otxn_field(write_ptr, write_len, field_id): copy one field payload of the
// originating transaction.
func (ctx *Context) hostOtxnField(args []int64) int64 {
	raw := ctx.originatingTxn()
	off, length, err := sto.Subfield(raw, sto.FieldID(u32(args[2])))
	if err == sto.ErrNotFound {
		return DOESNT_EXIST
	}
	if err != nil {
		return INVALID_FIELD
	}
	return ctx.mem.WriteCapped(u32(args[0]), u32(args[1]), raw[off:off+length])
}

// otxn_id(write_ptr, write_len, flags): id of the originating transaction.
func (ctx *Context) hostOtxnID(args []int64) int64 {
	return ctx.mem.WriteCapped(u32(args[0]), u32(args[1]), ctx.ApplyCtx.Txn.ID.Bytes())
}

// otxn_type(): transaction type of the originating transaction.
func (ctx *Context) hostOtxnType(args []int64) int64 {
	if ctx.Callback && len(ctx.EmitFailure) > 0 {
		if txn, ok := ledger.ParseTxn(ctx.EmitFailure); ok {
			return int64(txn.Type)
		}
	}
	return int64(ctx.ApplyCtx.Txn.Type)
}
