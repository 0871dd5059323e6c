package pwsfield

import (
	"encoding/binary"
	"errors"
)

// ErrCorruptField indicates a field length or framing byte was
// internally inconsistent (negative/absurd length, truncated payload).
var ErrCorruptField = errors.New("pwsfield: corrupt field")

// ErrEndOfRecord is returned by DecodeV1V2/DecodeV3 when the decoded
// field is the record terminator; callers stop the record loop without
// treating it as a data field.
var ErrEndOfRecord = errors.New("pwsfield: end of record")

// Stream is the block-chained plaintext view the file codec exposes to
// the field codec: ReadBlocks/WriteBlocks move whole, already
// cipher-block-aligned spans, decrypting/encrypting under the file
// codec's running block cipher as they go.
type Stream interface {
	BlockLength() int
	ReadBlocks(n int) ([]byte, error)
	WriteBlocks(plain []byte) error
}

func ceilToBlocks(n, blockLen int) int {
	if n%blockLen == 0 {
		return n / blockLen
	}
	return n/blockLen + 1
}

// DecodeV1V2 reads one field from s per the V1/V2 wire format: a
// header block holding 4-byte LE length and 4-byte LE type id,
// followed by ceil(length/8) payload blocks (at least one, even when
// length is zero).
func DecodeV1V2(s Stream, version Version) (Field, error) {
	header, err := s.ReadBlocks(8)
	if err != nil {
		return Field{}, err
	}

	length := binary.LittleEndian.Uint32(header[0:4])
	typeID := binary.LittleEndian.Uint32(header[4:8])
	if typeID > 255 {
		return Field{}, ErrCorruptField
	}
	id := byte(typeID)

	if length > 1<<24 {
		return Field{}, ErrCorruptField
	}

	payloadBlocks := ceilToBlocks(int(length), 8)
	if payloadBlocks == 0 {
		payloadBlocks = 1
	}
	payload, err := s.ReadBlocks(payloadBlocks * 8)
	if err != nil {
		return Field{}, err
	}
	if int(length) > len(payload) {
		return Field{}, ErrCorruptField
	}
	data := payload[:length]

	if id == FieldEndOfRecord {
		return Field{}, ErrEndOfRecord
	}

	return Field{ID: id, Value: decodeValue(version, id, data)}, nil
}

// EncodeV1V2 writes f to s per the V1/V2 wire format.
func EncodeV1V2(s Stream, f Field) error {
	data := f.Value.Raw()
	header := make([]byte, 8)
	binary.LittleEndian.PutUint32(header[0:4], uint32(len(data)))
	binary.LittleEndian.PutUint32(header[4:8], uint32(f.ID))
	if err := s.WriteBlocks(header); err != nil {
		return err
	}

	payloadBlocks := ceilToBlocks(len(data), 8)
	if payloadBlocks == 0 {
		payloadBlocks = 1
	}
	padded := make([]byte, payloadBlocks*8)
	copy(padded, data)
	return s.WriteBlocks(padded)
}

// DecodeV3 reads one field from s per the V3 wire format: a 16-byte
// block holding 4-byte LE length, 1-byte type, and up to 11 bytes of
// payload, followed by ceil((length-11)/16) more 16-byte blocks when
// length exceeds 11.
func DecodeV3(s Stream) (Field, error) {
	first, err := s.ReadBlocks(16)
	if err != nil {
		return Field{}, err
	}
	return DecodeV3Block(s, first)
}

// DecodeV3Block continues a V3 field decode given a first block the
// caller has already read off s (the file codec reads this block
// itself first to check for the end-of-file marker before committing
// to a field decode).
func DecodeV3Block(s Stream, first []byte) (Field, error) {
	length := binary.LittleEndian.Uint32(first[0:4])
	id := first[4]
	if length > 1<<24 {
		return Field{}, ErrCorruptField
	}

	data := make([]byte, length)
	inFirst := int(length)
	if inFirst > 11 {
		inFirst = 11
	}
	copy(data, first[5:5+inFirst])

	if int(length) > 11 {
		remaining := int(length) - 11
		moreBlocks := ceilToBlocks(remaining, 16)
		rest, err := s.ReadBlocks(moreBlocks * 16)
		if err != nil {
			return Field{}, err
		}
		copy(data[11:], rest[:remaining])
	}

	if id == FieldEndOfRecord {
		return Field{}, ErrEndOfRecord
	}

	return Field{ID: id, Value: decodeValue(V3, id, data)}, nil
}

// EncodeV3 writes f to s per the V3 wire format.
func EncodeV3(s Stream, f Field) error {
	data := f.Value.Raw()
	first := make([]byte, 16)
	binary.LittleEndian.PutUint32(first[0:4], uint32(len(data)))
	first[4] = f.ID

	inFirst := len(data)
	if inFirst > 11 {
		inFirst = 11
	}
	copy(first[5:5+inFirst], data[:inFirst])
	if err := s.WriteBlocks(first); err != nil {
		return err
	}

	if len(data) > 11 {
		remaining := data[11:]
		blocks := ceilToBlocks(len(remaining), 16)
		padded := make([]byte, blocks*16)
		copy(padded, remaining)
		return s.WriteBlocks(padded)
	}
	return nil
}

// EndOfRecordField builds the V2/V3 terminator field.
func EndOfRecordField() Field {
	return Field{ID: FieldEndOfRecord, Value: FieldValue{Kind: KindOpaque, Bytes: nil}}
}

// decodeValue interprets raw wire bytes per the field's catalog kind
// for version v, falling back to an opaque passthrough for unknown ids
// so unrecognized fields round-trip losslessly.
func decodeValue(v Version, id byte, data []byte) FieldValue {
	kind, known := KnownKind(v, id)
	if !known {
		return FieldValue{Kind: KindOpaque, Bytes: append([]byte(nil), data...)}
	}
	switch kind {
	case KindText:
		return FieldValue{Kind: KindText, Text: string(data)}
	case KindTimestamp:
		var ts uint32
		if len(data) >= 4 {
			ts = uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16 | uint32(data[3])<<24
		}
		return FieldValue{Kind: KindTimestamp, Time: ts}
	case KindUUID:
		var u [16]byte
		copy(u[:], data)
		return FieldValue{Kind: KindUUID, UUID: u}
	default:
		return FieldValue{Kind: KindOpaque, Bytes: append([]byte(nil), data...)}
	}
}
