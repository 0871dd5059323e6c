package pwsfile

import (
	"crypto/hmac"
	"crypto/sha256"
	"io"

	"github.com/wesleyyan-sb/pwsafe/internal/cage"
	"github.com/wesleyyan-sb/pwsafe/internal/pwsfield"
	"github.com/wesleyyan-sb/pwsafe/internal/pwsrecord"
)

// LoadListener is invoked once per record as Open decodes it, after
// the record is sealed into the cage and before the next record is
// decoded, so a caller can report load progress without holding a
// reference into the cage's interior.
type LoadListener func(index int, rec *pwsrecord.Record)

// v1CatalogIDs are the five canonical field ids (DEFAULT, TITLE,
// USERNAME, NOTES, PASSWORD) that make up a complete V1 record. V1 has
// no record terminator: a record is read until every id in this set
// has been seen.
var v1CatalogIDs = [...]byte{
	pwsfield.FieldDefault,
	pwsfield.FieldTitle,
	pwsfield.FieldUsername,
	pwsfield.FieldNotes,
	pwsfield.FieldPassword,
}

func isV1CatalogID(id byte) bool {
	for _, c := range v1CatalogIDs {
		if c == id {
			return true
		}
	}
	return false
}

// readRecordsV1 reads V1's untagged record stream: no END_OF_RECORD,
// no UUID, a record ends once all five canonical field ids have been
// seen (or cleanly at EOF between records).
func readRecordsV1(stream pwsfield.Stream, cg *cage.Cage, listener LoadListener) ([]*cage.Sealed, error) {
	var out []*cage.Sealed

	for {
		rec := &pwsrecord.Record{Version: pwsfield.V1}
		seen := make(map[byte]bool, len(v1CatalogIDs))
		first := true
		for len(seen) < len(v1CatalogIDs) {
			f, err := pwsfield.DecodeV1V2(stream, pwsfield.V1)
			if err != nil {
				if first && err == io.EOF {
					return out, nil
				}
				return nil, ErrCorruptFile
			}
			if !isV1CatalogID(f.ID) || seen[f.ID] {
				return nil, ErrCorruptFile
			}
			seen[f.ID] = true
			rec.Set(f)
			first = false
		}
		sealed, err := sealRecord(cg, rec)
		if err != nil {
			return nil, err
		}
		if listener != nil {
			listener(len(out), rec)
		}
		out = append(out, sealed)
	}
}

// readRecordsV2 reads V2's id-framed, END_OF_RECORD-terminated records
// until a clean end of stream.
func readRecordsV2(stream pwsfield.Stream, cg *cage.Cage, listener LoadListener) ([]*cage.Sealed, error) {
	var out []*cage.Sealed

	for {
		rec := &pwsrecord.Record{Version: pwsfield.V2}
		first := true
		for {
			f, err := pwsfield.DecodeV1V2(stream, pwsfield.V2)
			if err == pwsfield.ErrEndOfRecord {
				break
			}
			if err != nil {
				if first && err == io.EOF {
					return out, nil
				}
				return nil, ErrCorruptFile
			}
			first = false
			rec.Set(f)
		}
		sealed, err := sealRecord(cg, rec)
		if err != nil {
			return nil, err
		}
		if listener != nil {
			listener(len(out), rec)
		}
		out = append(out, sealed)
	}
}

// readRecordsV3 reads V3's id-framed records, stopping at the
// plaintext-after-decrypt end-of-file marker block and verifying the
// HMAC-SHA256 trailer that follows it over the raw block reader
// (the trailer itself is not part of the cipher's block chain).
func readRecordsV3(stream pwsfield.Stream, br blockPeeker, cg *cage.Cage, hmacKey []byte, listener LoadListener) ([]*cage.Sealed, error) {
	var out []*cage.Sealed
	mac := hmac.New(sha256.New, hmacKey)

	for {
		first, err := stream.ReadBlocks(16)
		if err != nil {
			return nil, ErrCorruptFile
		}
		if string(first) == v3EOFMarker {
			break
		}

		rec := &pwsrecord.Record{Version: pwsfield.V3}
		f, err := pwsfield.DecodeV3Block(stream, first)
		for {
			if err == pwsfield.ErrEndOfRecord {
				break
			}
			if err != nil {
				return nil, ErrCorruptFile
			}
			mac.Write([]byte{f.ID})
			mac.Write(f.Value.Raw())
			rec.Set(f)
			f, err = pwsfield.DecodeV3(stream)
		}

		sealed, err := sealRecord(cg, rec)
		if err != nil {
			return nil, err
		}
		if listener != nil {
			listener(len(out), rec)
		}
		out = append(out, sealed)
	}

	trailer := make([]byte, v3HMACSize)
	if err := br.ReadExact(trailer); err != nil {
		return nil, ErrCorruptFile
	}
	if !hmac.Equal(mac.Sum(nil), trailer) {
		return nil, ErrCorruptFile
	}
	return out, nil
}

// blockPeeker is the subset of *byteio.BlockReader the V3 HMAC
// trailer read needs; named here to avoid an import cycle concern and
// to document that this one read bypasses the cipher stream.
type blockPeeker interface {
	ReadExact(buf []byte) error
}

// writeRecordsV1 writes sealed records back out carrying all five
// canonical V1 ids, so readRecordsV1's seen-set termination sees a
// complete record on the way back in.
func writeRecordsV1(stream pwsfield.Stream, cg *cage.Cage, sealed []*cage.Sealed) error {
	for _, s := range sealed {
		rec, err := unsealRecord(cg, s)
		if err != nil {
			return err
		}
		for _, id := range v1CatalogIDs {
			f, _ := rec.Get(id)
			f.ID = id
			if err := pwsfield.EncodeV1V2(stream, f); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeRecordsV2 writes sealed records back out with the V2 framing
// and END_OF_RECORD terminator per record.
func writeRecordsV2(stream pwsfield.Stream, cg *cage.Cage, sealed []*cage.Sealed) error {
	for _, s := range sealed {
		rec, err := unsealRecord(cg, s)
		if err != nil {
			return err
		}
		for _, f := range rec.CanonicalOrder() {
			if err := pwsfield.EncodeV1V2(stream, f); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeRecordsV3 writes sealed records, then the end-of-file marker
// block and the HMAC-SHA256 trailer (written directly to bw, bypassing
// the cipher chain, mirroring readRecordsV3).
func writeRecordsV3(stream pwsfield.Stream, bw blockPusher, cg *cage.Cage, sealed []*cage.Sealed, hmacKey []byte) error {
	mac := hmac.New(sha256.New, hmacKey)
	for _, s := range sealed {
		rec, err := unsealRecord(cg, s)
		if err != nil {
			return err
		}
		for _, f := range rec.CanonicalOrder() {
			if f.ID != pwsfield.FieldEndOfRecord {
				mac.Write([]byte{f.ID})
				mac.Write(f.Value.Raw())
			}
			if err := pwsfield.EncodeV3(stream, f); err != nil {
				return err
			}
		}
	}

	if err := stream.WriteBlocks([]byte(v3EOFMarker)); err != nil {
		return err
	}
	return bw.WriteAll(mac.Sum(nil))
}

// blockPusher is the subset of *byteio.BlockWriter the V3 HMAC trailer
// write needs.
type blockPusher interface {
	WriteAll(buf []byte) error
}
