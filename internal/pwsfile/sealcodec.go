package pwsfile

import (
	"encoding/binary"

	"github.com/wesleyyan-sb/pwsafe/internal/cage"
	"github.com/wesleyyan-sb/pwsafe/internal/pwsfield"
	"github.com/wesleyyan-sb/pwsafe/internal/pwsrecord"
)

// marshalRecord serializes rec into the flat byte form the cage seals.
// This is an internal, version-agnostic encoding private to this
// package — unrelated to the on-disk wire format pwsfield implements.
func marshalRecord(rec *pwsrecord.Record) []byte {
	buf := make([]byte, 0, 128)
	buf = append(buf, byte(rec.Version))
	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], uint32(len(rec.Fields)))
	buf = append(buf, countBuf[:]...)

	for _, f := range rec.Fields {
		raw := f.Value.Raw()
		buf = append(buf, f.ID, byte(f.Value.Kind))
		var lenBuf [4]byte
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(raw)))
		buf = append(buf, lenBuf[:]...)
		buf = append(buf, raw...)
	}
	return buf
}

// unmarshalRecord reverses marshalRecord.
func unmarshalRecord(data []byte) (*pwsrecord.Record, error) {
	if len(data) < 5 {
		return nil, ErrCorruptFile
	}
	rec := &pwsrecord.Record{Version: pwsfield.Version(data[0])}
	count := binary.LittleEndian.Uint32(data[1:5])
	pos := 5

	for i := uint32(0); i < count; i++ {
		if pos+6 > len(data) {
			return nil, ErrCorruptFile
		}
		id := data[pos]
		kind := pwsfield.ValueKind(data[pos+1])
		length := binary.LittleEndian.Uint32(data[pos+2 : pos+6])
		pos += 6
		if pos+int(length) > len(data) {
			return nil, ErrCorruptFile
		}
		raw := data[pos : pos+int(length)]
		pos += int(length)

		fv := pwsfield.FieldValue{Kind: kind}
		switch kind {
		case pwsfield.KindText:
			fv.Text = string(raw)
		case pwsfield.KindTimestamp:
			if len(raw) >= 4 {
				fv.Time = uint32(raw[0]) | uint32(raw[1])<<8 | uint32(raw[2])<<16 | uint32(raw[3])<<24
			}
		case pwsfield.KindUUID:
			copy(fv.UUID[:], raw)
		default:
			fv.Bytes = append([]byte(nil), raw...)
		}
		rec.Fields = append(rec.Fields, pwsfield.Field{ID: id, Value: fv})
	}
	return rec, nil
}

// sealRecord marshals and seals rec under cg.
func sealRecord(cg *cage.Cage, rec *pwsrecord.Record) (*cage.Sealed, error) {
	sealed, err := cg.Seal(marshalRecord(rec))
	if err != nil {
		return nil, err
	}
	return sealed, nil
}

// unsealRecord reverses sealRecord.
func unsealRecord(cg *cage.Cage, sealed *cage.Sealed) (*pwsrecord.Record, error) {
	plain, err := cg.Unseal(sealed)
	if err != nil {
		return nil, err
	}
	return unmarshalRecord(plain)
}
