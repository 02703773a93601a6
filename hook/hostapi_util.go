package hook

import (
	"crypto/ed25519"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/pantyukhov/xrpld-hooks/common"
	"github.com/pantyukhov/xrpld-hooks/sto"
)

// packOffsetLength packs a field location into one int64: offset in the low
// 32 bits, length in the high 32 bits.
func packOffsetLength(offset, length int) int64 {
	return int64(uint32(offset)) | int64(uint32(length))<<32
}

// util_raddr(write_ptr, write_len, read_ptr, read_len): render a 20-byte
// account id in address form.
func (ctx *Context) hostUtilRaddr(args []int64) int64 {
	raw, rc := ctx.mem.Read(u32(args[2]), u32(args[3]))
	if rc != SUCCESS {
		return rc
	}
	acc, ok := common.BytesToAccountID(raw)
	if !ok {
		return INVALID_ARGUMENT
	}
	return ctx.mem.WriteCapped(u32(args[0]), u32(args[1]), []byte(common.EncodeAccountID(acc)))
}

// util_accid(write_ptr, write_len, read_ptr, read_len): parse an address
// back into its 20-byte account id.
func (ctx *Context) hostUtilAccid(args []int64) int64 {
	raw, rc := ctx.mem.Read(u32(args[2]), u32(args[3]))
	if rc != SUCCESS {
		return rc
	}
	acc, err := common.DecodeAccountID(string(raw))
	if err != nil {
		return INVALID_ARGUMENT
	}
	return ctx.mem.WriteCapped(u32(args[0]), u32(args[1]), acc.Bytes())
}

// util_verify(dread, dlen, sread, slen, kread, klen): signature check
// dispatched on the public-key prefix. Returns 1 valid, 0 invalid.
func (ctx *Context) hostUtilVerify(args []int64) int64 {
	data, rc := ctx.mem.Read(u32(args[0]), u32(args[1]))
	if rc != SUCCESS {
		return rc
	}
	sig, rc := ctx.mem.Read(u32(args[2]), u32(args[3]))
	if rc != SUCCESS {
		return rc
	}
	key, rc := ctx.mem.Read(u32(args[4]), u32(args[5]))
	if rc != SUCCESS {
		return rc
	}
	if len(key) != 33 {
		return INVALID_ARGUMENT
	}
	switch key[0] {
	case 0xED:
		if len(sig) != ed25519.SignatureSize {
			return 0
		}
		if ed25519.Verify(ed25519.PublicKey(key[1:]), data, sig) {
			return 1
		}
		return 0
	case 0x02, 0x03:
		if len(sig) < 64 {
			return 0
		}
		digest := common.SHA512Half(data)
		if gethcrypto.VerifySignature(key, digest.Bytes(), sig[:64]) {
			return 1
		}
		return 0
	default:
		return INVALID_ARGUMENT
	}
}

// util_sha512h(write_ptr, write_len, read_ptr, read_len): SHA-512 first
// half.
func (ctx *Context) hostUtilSha512h(args []int64) int64 {
	data, rc := ctx.mem.Read(u32(args[2]), u32(args[3]))
	if rc != SUCCESS {
		return rc
	}
	h := common.SHA512Half(data)
	return ctx.mem.WriteCapped(u32(args[0]), u32(args[1]), h.Bytes())
}

// util_keylet(write_ptr, write_len, keylet_type, a, b, c, d, e, f):
// compute a 34-byte ledger key. The six generic parameters are consumed per
// keylet shape: (ptr, len) pairs for accounts and hashes, single values for
// 32-bit words.
func (ctx *Context) hostUtilKeylet(args []int64) int64 {
	keyletType := u32(args[2])
	shape, ok := keyletShapes[keyletType]
	if !ok {
		return NO_SUCH_KEYLET
	}
	params := args[3:]
	next := 0
	take := func() (int64, bool) {
		if next >= len(params) {
			return 0, false
		}
		v := params[next]
		next++
		return v, true
	}

	var accounts []common.AccountID
	var hashes []common.Hash
	var words []uint32
	for i := 0; i < shape.accounts; i++ {
		ptr, ok1 := take()
		length, ok2 := take()
		if !ok1 || !ok2 || u32(length) != 20 {
			return INVALID_ARGUMENT
		}
		raw, rc := ctx.mem.Read(u32(ptr), 20)
		if rc != SUCCESS {
			return rc
		}
		acc, _ := common.BytesToAccountID(raw)
		accounts = append(accounts, acc)
	}
	for i := 0; i < shape.hashes; i++ {
		ptr, ok1 := take()
		length, ok2 := take()
		if !ok1 || !ok2 || u32(length) != 32 {
			return INVALID_ARGUMENT
		}
		raw, rc := ctx.mem.Read(u32(ptr), 32)
		if rc != SUCCESS {
			return rc
		}
		hashes = append(hashes, common.BytesToHash(raw))
	}
	for i := 0; i < shape.words; i++ {
		v, ok := take()
		if !ok {
			return INVALID_ARGUMENT
		}
		words = append(words, u32(v))
	}

	kl, rc := ComputeKeylet(keyletType, accounts, hashes, words)
	if rc != SUCCESS {
		return rc
	}
	return ctx.mem.WriteCapped(u32(args[0]), u32(args[1]), kl.Bytes())
}

// sto_validate(read_ptr, read_len): 1 when the blob parses cleanly as an
// object body, 0 otherwise.
func (ctx *Context) hostStoValidate(args []int64) int64 {
	data, rc := ctx.mem.Read(u32(args[0]), u32(args[1]))
	if rc != SUCCESS {
		return rc
	}
	if sto.Validate(data) {
		return 1
	}
	return 0
}

// sto_subfield(read_ptr, read_len, field_id): locate a field in a
// serialized object; low 32 bits offset, high 32 bits length.
func (ctx *Context) hostStoSubfield(args []int64) int64 {
	data, rc := ctx.mem.Read(u32(args[0]), u32(args[1]))
	if rc != SUCCESS {
		return rc
	}
	off, length, err := sto.Subfield(data, sto.FieldID(u32(args[2])))
	if err == sto.ErrNotFound {
		return DOESNT_EXIST
	}
	if err != nil {
		return NOT_AN_OBJECT
	}
	return packOffsetLength(off, length)
}

// sto_subarray(read_ptr, read_len, array_index): locate an array entry.
func (ctx *Context) hostStoSubarray(args []int64) int64 {
	data, rc := ctx.mem.Read(u32(args[0]), u32(args[1]))
	if rc != SUCCESS {
		return rc
	}
	off, length, err := sto.Subarray(data, int(u32(args[2])))
	if err == sto.ErrNotFound {
		return DOESNT_EXIST
	}
	if err != nil {
		return NOT_AN_ARRAY
	}
	return packOffsetLength(off, length)
}

// sto_emplace(write_ptr, write_len, sread_ptr, sread_len, fread_ptr,
// fread_len, field_id): insert or replace a field in canonical order.
func (ctx *Context) hostStoEmplace(args []int64) int64 {
	obj, rc := ctx.mem.Read(u32(args[2]), u32(args[3]))
	if rc != SUCCESS {
		return rc
	}
	field, rc := ctx.mem.Read(u32(args[4]), u32(args[5]))
	if rc != SUCCESS {
		return rc
	}
	out, err := sto.Emplace(obj, sto.FieldID(u32(args[6])), field)
	if err != nil {
		return PARSE_ERROR
	}
	return ctx.mem.WriteCapped(u32(args[0]), u32(args[1]), out)
}

// sto_erase(write_ptr, write_len, read_ptr, read_len, field_id): remove a
// field from a serialized object.
func (ctx *Context) hostStoErase(args []int64) int64 {
	obj, rc := ctx.mem.Read(u32(args[2]), u32(args[3]))
	if rc != SUCCESS {
		return rc
	}
	out, err := sto.Erase(obj, sto.FieldID(u32(args[4])))
	if err == sto.ErrNotFound {
		return DOESNT_EXIST
	}
	if err != nil {
		return PARSE_ERROR
	}
	return ctx.mem.WriteCapped(u32(args[0]), u32(args[1]), out)
}
