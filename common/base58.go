package common

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"math/big"
)

// The ledger's base58 dialect: nonstandard alphabet, version byte 0x00 for
// account ids, 4-byte double-SHA256 checksum.
const addressAlphabet = "rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz"

const accountIDPrefix = 0x00

var (
	ErrAddressChecksum = errors.New("address checksum mismatch")
	ErrAddressFormat   = errors.New("malformed address")

	addressIndex [256]int8
)

func init() {
	for i := range addressIndex {
		addressIndex[i] = -1
	}
	for i := 0; i < len(addressAlphabet); i++ {
		addressIndex[addressAlphabet[i]] = int8(i)
	}
}

func checksum(payload []byte) []byte {
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	return second[:4]
}

func base58Encode(input []byte) string {
	x := new(big.Int).SetBytes(input)
	radix := big.NewInt(58)
	mod := new(big.Int)

	out := make([]byte, 0, len(input)*137/100+1)
	for x.Sign() > 0 {
		x.DivMod(x, radix, mod)
		out = append(out, addressAlphabet[mod.Int64()])
	}
	for _, b := range input {
		if b != 0 {
			break
		}
		out = append(out, addressAlphabet[0])
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}

func base58Decode(input string) ([]byte, error) {
	x := new(big.Int)
	radix := big.NewInt(58)
	for i := 0; i < len(input); i++ {
		d := addressIndex[input[i]]
		if d < 0 {
			return nil, ErrAddressFormat
		}
		x.Mul(x, radix)
		x.Add(x, big.NewInt(int64(d)))
	}
	out := x.Bytes()
	// restore leading zero bytes
	nz := 0
	for nz < len(input) && input[nz] == addressAlphabet[0] {
		nz++
	}
	res := make([]byte, nz+len(out))
	copy(res[nz:], out)
	return res, nil
}

// EncodeAccountID renders a 20-byte account id in the ledger's address form.
func EncodeAccountID(acc AccountID) string {
	payload := make([]byte, 0, 25)
	payload = append(payload, accountIDPrefix)
	payload = append(payload, acc[:]...)
	payload = append(payload, checksum(payload)...)
	return base58Encode(payload)
}

// DecodeAccountID parses a ledger address back into a 20-byte account id.
func DecodeAccountID(addr string) (AccountID, error) {
	var acc AccountID
	raw, err := base58Decode(addr)
	if err != nil {
		return acc, err
	}
	if len(raw) != 25 || raw[0] != accountIDPrefix {
		return acc, ErrAddressFormat
	}
	if !bytes.Equal(checksum(raw[:21]), raw[21:]) {
		return acc, ErrAddressChecksum
	}
	copy(acc[:], raw[1:21])
	return acc, nil
}
