package pwsfile

import (
	"crypto/sha1"
	"encoding/binary"

	"github.com/wesleyyan-sb/pwsafe/internal/byteio"
	"github.com/wesleyyan-sb/pwsafe/internal/pwscrypto"
	"github.com/wesleyyan-sb/pwsafe/internal/pwsfield"
)

// V1/V2 header layout: RandStuff(8) RandHash(20) Salt(20) IV(8).
const (
	randStuffSize = 8
	randHashSize  = sha1.Size // 20
	saltV1V2Size  = 20
	ivV1V2Size    = 8

	headerV1V2Size = randStuffSize + randHashSize + saltV1V2Size + ivV1V2Size
)

// V3 header layout: magic(4) Salt(32) N(4) H(P)(32) B1..B4(16 each) IV(16).
const (
	v3Magic      = "PWS3"
	saltV3Size   = 32
	v3HashSize   = 32
	v3KeyBlock   = 16
	ivV3Size     = 16
	headerV3Size = len(v3Magic) + saltV3Size + 4 + v3HashSize + 4*v3KeyBlock + ivV3Size

	v3EOFMarker  = "PWS3-EOFPWS3-EOF" // 16 bytes, one cipher block
	v3HMACSize   = 32
)

type headerV1V2 struct {
	randStuff [randStuffSize]byte
	randHash  [randHashSize]byte
	salt      [saltV1V2Size]byte
	iv        [ivV1V2Size]byte
}

// computeAuthHash is the V1/V2 passphrase authenticator: double-encrypt
// RandStuff under the stretched key in ECB mode, then SHA-1 the result.
// This is a self-consistent random-hash match, verified only against
// files this library itself wrote (round-trip correctness), not
// against third-party Password Safe binaries.
func computeAuthHash(key []byte, randStuff [randStuffSize]byte) ([randHashSize]byte, error) {
	ecb, err := pwscrypto.NewBlowfishECB(key)
	if err != nil {
		return [randHashSize]byte{}, err
	}
	var t1, t2 [8]byte
	ecb.Encrypt(t1[:], randStuff[:])
	ecb.Encrypt(t2[:], t1[:])
	return sha1.Sum(t2[:]), nil
}

func readHeaderV1V2(br *byteio.BlockReader) (*headerV1V2, error) {
	h := &headerV1V2{}
	if err := br.ReadExact(h.randStuff[:]); err != nil {
		return nil, err
	}
	if err := br.ReadExact(h.randHash[:]); err != nil {
		return nil, err
	}
	if err := br.ReadExact(h.salt[:]); err != nil {
		return nil, err
	}
	if err := br.ReadExact(h.iv[:]); err != nil {
		return nil, err
	}
	return h, nil
}

func writeHeaderV1V2(bw *byteio.BlockWriter, h *headerV1V2) error {
	buf := make([]byte, 0, headerV1V2Size)
	buf = append(buf, h.randStuff[:]...)
	buf = append(buf, h.randHash[:]...)
	buf = append(buf, h.salt[:]...)
	buf = append(buf, h.iv[:]...)
	return bw.WriteAll(buf)
}

// newHeaderV1V2 builds a fresh header authenticating passphrase, ready
// to be written by Save.
func newHeaderV1V2(passphrase []byte) (*headerV1V2, []byte, error) {
	h := &headerV1V2{}
	if err := pwscrypto.FillRandom(h.randStuff[:]); err != nil {
		return nil, nil, err
	}
	if err := pwscrypto.FillRandom(h.salt[:]); err != nil {
		return nil, nil, err
	}
	if err := pwscrypto.FillRandom(h.iv[:]); err != nil {
		return nil, nil, err
	}
	key := pwscrypto.StretchV1V2(passphrase, h.salt[:])
	hash, err := computeAuthHash(key[:], h.randStuff)
	if err != nil {
		return nil, nil, err
	}
	h.randHash = hash
	return h, key[:], nil
}

// authenticateV1V2 verifies passphrase against h and returns the
// derived record-stream key on success.
func authenticateV1V2(h *headerV1V2, passphrase []byte) ([]byte, error) {
	key := pwscrypto.StretchV1V2(passphrase, h.salt[:])
	hash, err := computeAuthHash(key[:], h.randStuff)
	if err != nil {
		return nil, err
	}
	if hash != h.randHash {
		return nil, ErrWrongPassphrase
	}
	return key[:], nil
}

type headerV3 struct {
	salt       [saltV3Size]byte
	iterations uint32
	hp         [v3HashSize]byte
	b1, b2, b3, b4 [v3KeyBlock]byte
	iv         [ivV3Size]byte
}

func readHeaderV3(br *byteio.BlockReader) (*headerV3, error) {
	magic := make([]byte, len(v3Magic))
	if err := br.ReadExact(magic); err != nil {
		return nil, err
	}
	if string(magic) != v3Magic {
		return nil, ErrUnsupportedFileVersion
	}

	h := &headerV3{}
	if err := br.ReadExact(h.salt[:]); err != nil {
		return nil, err
	}
	iterBuf := make([]byte, 4)
	if err := br.ReadExact(iterBuf); err != nil {
		return nil, err
	}
	h.iterations = binary.LittleEndian.Uint32(iterBuf)
	if err := br.ReadExact(h.hp[:]); err != nil {
		return nil, err
	}
	for _, b := range []*[v3KeyBlock]byte{&h.b1, &h.b2, &h.b3, &h.b4} {
		if err := br.ReadExact(b[:]); err != nil {
			return nil, err
		}
	}
	if err := br.ReadExact(h.iv[:]); err != nil {
		return nil, err
	}
	return h, nil
}

func writeHeaderV3(bw *byteio.BlockWriter, h *headerV3) error {
	buf := make([]byte, 0, headerV3Size)
	buf = append(buf, []byte(v3Magic)...)
	buf = append(buf, h.salt[:]...)
	iterBuf := make([]byte, 4)
	binary.LittleEndian.PutUint32(iterBuf, h.iterations)
	buf = append(buf, iterBuf...)
	buf = append(buf, h.hp[:]...)
	buf = append(buf, h.b1[:]...)
	buf = append(buf, h.b2[:]...)
	buf = append(buf, h.b3[:]...)
	buf = append(buf, h.b4[:]...)
	buf = append(buf, h.iv[:]...)
	return bw.WriteAll(buf)
}

const defaultV3Iterations = 2048

// newHeaderV3 builds a fresh V3 header for passphrase, returning the
// header, the record key, and the HMAC key for the save sequence.
func newHeaderV3(passphrase []byte) (h *headerV3, recordKey, hmacKey [32]byte, err error) {
	h = &headerV3{iterations: defaultV3Iterations}
	if err = pwscrypto.FillRandom(h.salt[:]); err != nil {
		return nil, recordKey, hmacKey, err
	}
	if err = pwscrypto.FillRandom(h.iv[:]); err != nil {
		return nil, recordKey, hmacKey, err
	}
	if err = pwscrypto.FillRandom(recordKey[:]); err != nil {
		return nil, recordKey, hmacKey, err
	}
	if err = pwscrypto.FillRandom(hmacKey[:]); err != nil {
		return nil, recordKey, hmacKey, err
	}

	stretched := pwscrypto.StretchV3(passphrase, h.salt[:], h.iterations)
	h.hp = sha256Sum(stretched[:])

	block, err := pwscrypto.NewTwofishECBForWrap(stretched)
	if err != nil {
		return nil, recordKey, hmacKey, err
	}
	block.Encrypt(h.b1[:], recordKey[0:16])
	block.Encrypt(h.b2[:], recordKey[16:32])
	block.Encrypt(h.b3[:], hmacKey[0:16])
	block.Encrypt(h.b4[:], hmacKey[16:32])

	return h, recordKey, hmacKey, nil
}

// authenticateV3 verifies passphrase against h and returns the record
// and HMAC keys on success.
func authenticateV3(h *headerV3, passphrase []byte) (recordKey, hmacKey [32]byte, err error) {
	stretched := pwscrypto.StretchV3(passphrase, h.salt[:], h.iterations)
	if !pwscrypto.VerifyV3(stretched, h.hp) {
		return recordKey, hmacKey, ErrWrongPassphrase
	}
	return pwscrypto.UnwrapV3Keys(stretched, h.b1, h.b2, h.b3, h.b4)
}

func sha256Sum(b []byte) [32]byte {
	return pwscrypto.SHA256(b)
}

// fieldVersionFor maps the on-disk family to the field catalog version.
func fieldVersionFor(fam Family) pwsfield.Version {
	switch fam {
	case FamilyV1:
		return pwsfield.V1
	case FamilyV2:
		return pwsfield.V2
	default:
		return pwsfield.V3
	}
}
