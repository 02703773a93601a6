package sto

import (
	"errors"
	"sort"
)

var (
	ErrParse       = errors.New("sto: malformed serialized object")
	ErrNotFound    = errors.New("sto: field not present")
	ErrNotAnObject = errors.New("sto: not an object")
	ErrNotAnArray  = errors.New("sto: not an array")
)

// readHeader decodes a field header at off, returning the field id and the
// header length.
func readHeader(buf []byte, off int) (FieldID, int, error) {
	if off >= len(buf) {
		return 0, 0, ErrParse
	}
	b := buf[off]
	typ := int(b >> 4)
	field := int(b & 0x0F)
	n := 1
	if typ == 0 {
		if off+n >= len(buf) {
			return 0, 0, ErrParse
		}
		typ = int(buf[off+n])
		if typ < 16 {
			return 0, 0, ErrParse
		}
		n++
	}
	if field == 0 {
		if off+n >= len(buf) {
			return 0, 0, ErrParse
		}
		field = int(buf[off+n])
		if field < 16 {
			return 0, 0, ErrParse
		}
		n++
	}
	return MakeFieldID(typ, field), n, nil
}

func writeHeader(id FieldID) []byte {
	typ, field := id.Type(), id.Field()
	out := make([]byte, 0, 3)
	switch {
	case typ < 16 && field < 16:
		out = append(out, byte(typ<<4|field))
	case typ < 16:
		out = append(out, byte(typ<<4), byte(field))
	case field < 16:
		out = append(out, byte(field), byte(typ))
	default:
		out = append(out, 0, byte(typ), byte(field))
	}
	return out
}

func readVL(buf []byte, off int) (length int, n int, err error) {
	if off >= len(buf) {
		return 0, 0, ErrParse
	}
	b1 := int(buf[off])
	switch {
	case b1 <= 192:
		return b1, 1, nil
	case b1 <= 240:
		if off+1 >= len(buf) {
			return 0, 0, ErrParse
		}
		return 193 + (b1-193)*256 + int(buf[off+1]), 2, nil
	case b1 <= 254:
		if off+2 >= len(buf) {
			return 0, 0, ErrParse
		}
		return 12481 + (b1-241)*65536 + int(buf[off+1])*256 + int(buf[off+2]), 3, nil
	default:
		return 0, 0, ErrParse
	}
}

func writeVL(length int) []byte {
	switch {
	case length <= 192:
		return []byte{byte(length)}
	case length <= 12480:
		length -= 193
		return []byte{byte(193 + length/256), byte(length % 256)}
	default:
		length -= 12481
		return []byte{byte(241 + length/65536), byte((length / 256) % 256), byte(length % 256)}
	}
}

// fieldExtent walks one field starting at off (header included) and returns
// the payload offset, payload length, and the offset just past the field.
// Object and array payloads exclude their end marker.
func fieldExtent(buf []byte, off int) (id FieldID, payloadOff, payloadLen, next int, err error) {
	id, hdr, err := readHeader(buf, off)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	p := off + hdr
	switch id.Type() {
	case TypeUInt8:
		payloadLen = 1
	case TypeUInt16:
		payloadLen = 2
	case TypeUInt32:
		payloadLen = 4
	case TypeUInt64:
		payloadLen = 8
	case TypeHash128:
		payloadLen = 16
	case TypeHash160:
		payloadLen = 20
	case TypeHash256:
		payloadLen = 32
	case TypeAmount:
		if p >= len(buf) {
			return 0, 0, 0, 0, ErrParse
		}
		if buf[p]&0x80 != 0 {
			payloadLen = 48 // issued amount: value + currency + issuer
		} else {
			payloadLen = 8 // native amount
		}
	case TypeBlob, TypeAccount:
		vl, n, err := readVL(buf, p)
		if err != nil {
			return 0, 0, 0, 0, err
		}
		p += n
		payloadLen = vl
	case TypeObject:
		end, err := scanUntilMarker(buf, p, objectEndMarker)
		if err != nil {
			return 0, 0, 0, 0, err
		}
		return id, p, end - p, end + 1, nil
	case TypeArray:
		end, err := scanArrayEnd(buf, p)
		if err != nil {
			return 0, 0, 0, 0, err
		}
		return id, p, end - p, end + 1, nil
	case TypeVector256:
		vl, n, err := readVL(buf, p)
		if err != nil || vl%32 != 0 {
			return 0, 0, 0, 0, ErrParse
		}
		p += n
		payloadLen = vl
	default:
		return 0, 0, 0, 0, ErrParse
	}
	if p+payloadLen > len(buf) {
		return 0, 0, 0, 0, ErrParse
	}
	return id, p, payloadLen, p + payloadLen, nil
}

// scanUntilMarker walks fields of an object body until the end marker at
// this nesting level.
func scanUntilMarker(buf []byte, off int, marker byte) (int, error) {
	for off < len(buf) {
		if buf[off] == marker {
			return off, nil
		}
		_, _, _, next, err := fieldExtent(buf, off)
		if err != nil {
			return 0, err
		}
		off = next
	}
	return 0, ErrParse
}

// scanArrayEnd walks object entries of an array body until its end marker.
func scanArrayEnd(buf []byte, off int) (int, error) {
	for off < len(buf) {
		if buf[off] == arrayEndMarker {
			return off, nil
		}
		id, _, _, next, err := fieldExtent(buf, off)
		if err != nil {
			return 0, err
		}
		if id.Type() != TypeObject {
			return 0, ErrParse
		}
		off = next
	}
	return 0, ErrParse
}

// ParseField decodes the single field starting at the head of blob,
// returning its id, payload extent, and the offset just past it.
func ParseField(blob []byte) (id FieldID, offset, length, next int, err error) {
	return fieldExtent(blob, 0)
}

// Validate reports whether blob parses cleanly as an object body
// (a sequence of fields consuming the entire input).
func Validate(blob []byte) bool {
	off := 0
	for off < len(blob) {
		_, _, _, next, err := fieldExtent(blob, off)
		if err != nil {
			return false
		}
		off = next
	}
	return off == len(blob)
}

// Subfield locates fieldID among the top-level fields of an object body and
// returns its payload offset and length.
func Subfield(blob []byte, fieldID FieldID) (offset, length int, err error) {
	off := 0
	for off < len(blob) {
		id, p, plen, next, err := fieldExtent(blob, off)
		if err != nil {
			return 0, 0, ErrNotAnObject
		}
		if id == fieldID {
			return p, plen, nil
		}
		off = next
	}
	return 0, 0, ErrNotFound
}

// Subarray returns the payload offset and length of the index-th object
// entry of an array body.
func Subarray(blob []byte, index int) (offset, length int, err error) {
	off := 0
	i := 0
	for off < len(blob) {
		id, p, plen, next, err := fieldExtent(blob, off)
		if err != nil || id.Type() != TypeObject {
			return 0, 0, ErrNotAnArray
		}
		if i == index {
			return p, plen, nil
		}
		i++
		off = next
	}
	return 0, 0, ErrNotFound
}

type fieldSpan struct {
	id    FieldID
	start int
	end   int
}

func topLevel(blob []byte) ([]fieldSpan, error) {
	var spans []fieldSpan
	off := 0
	for off < len(blob) {
		id, _, _, next, err := fieldExtent(blob, off)
		if err != nil {
			return nil, err
		}
		spans = append(spans, fieldSpan{id: id, start: off, end: next})
		off = next
	}
	return spans, nil
}

// EncodeField renders a complete field (header, VL prefix where the type
// carries one, payload, end marker for containers).
func EncodeField(id FieldID, payload []byte) []byte {
	out := writeHeader(id)
	switch id.Type() {
	case TypeBlob, TypeAccount, TypeVector256:
		out = append(out, writeVL(len(payload))...)
		out = append(out, payload...)
	case TypeObject:
		out = append(out, payload...)
		out = append(out, objectEndMarker)
	case TypeArray:
		out = append(out, payload...)
		out = append(out, arrayEndMarker)
	default:
		out = append(out, payload...)
	}
	return out
}

// Emplace inserts a complete encoded field into an object body in canonical
// field order, replacing any existing field with the same id. The field blob
// must carry its own header.
func Emplace(obj []byte, fieldID FieldID, field []byte) ([]byte, error) {
	id, _, _, next, err := fieldExtent(field, 0)
	if err != nil || next != len(field) || id != fieldID {
		return nil, ErrParse
	}
	spans, err := topLevel(obj)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(obj)+len(field))
	placed := false
	for _, s := range spans {
		if s.id == fieldID {
			if !placed {
				out = append(out, field...)
				placed = true
			}
			continue
		}
		if !placed && canonicalLess(fieldID, s.id) {
			out = append(out, field...)
			placed = true
		}
		out = append(out, obj[s.start:s.end]...)
	}
	if !placed {
		out = append(out, field...)
	}
	return out, nil
}

// Erase removes fieldID from an object body.
func Erase(obj []byte, fieldID FieldID) ([]byte, error) {
	spans, err := topLevel(obj)
	if err != nil {
		return nil, err
	}
	found := false
	out := make([]byte, 0, len(obj))
	for _, s := range spans {
		if s.id == fieldID {
			found = true
			continue
		}
		out = append(out, obj[s.start:s.end]...)
	}
	if !found {
		return nil, ErrNotFound
	}
	return out, nil
}

// canonicalLess orders fields by type code, then field code.
func canonicalLess(a, b FieldID) bool {
	if a.Type() != b.Type() {
		return a.Type() < b.Type()
	}
	return a.Field() < b.Field()
}

// SortFields re-encodes an object body with its top-level fields in
// canonical order.
func SortFields(obj []byte) ([]byte, error) {
	spans, err := topLevel(obj)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(spans, func(i, j int) bool { return canonicalLess(spans[i].id, spans[j].id) })
	out := make([]byte, 0, len(obj))
	for _, s := range spans {
		out = append(out, obj[s.start:s.end]...)
	}
	return out, nil
}
