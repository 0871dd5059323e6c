package pwsfile

import (
	"github.com/wesleyyan-sb/pwsafe/internal/byteio"
	"github.com/wesleyyan-sb/pwsafe/internal/pwscrypto"
)

// blockStream adapts a byteio block reader/writer plus a running
// block cipher into the pwsfield.Stream the field codec reads/writes
// plaintext through. One instance is used for an entire record-stream
// pass (open or save), so the underlying BlockCodec must itself be the
// continuously-chained kind for V2/V3.
type blockStream struct {
	blockLen int
	codec    pwscrypto.BlockCodec
	br       *byteio.BlockReader
	bw       *byteio.BlockWriter
	decrypt  bool
}

func (s *blockStream) BlockLength() int { return s.blockLen }

func (s *blockStream) ReadBlocks(n int) ([]byte, error) {
	ct := make([]byte, n)
	if err := s.br.ReadExact(ct); err != nil {
		return nil, err
	}
	pt := make([]byte, n)
	if s.codec != nil {
		if s.decrypt {
			s.codec.Decrypt(pt, ct)
		} else {
			s.codec.Encrypt(pt, ct)
		}
	} else {
		copy(pt, ct)
	}
	return pt, nil
}

func (s *blockStream) WriteBlocks(plain []byte) error {
	ct := make([]byte, len(plain))
	if s.codec != nil {
		if s.decrypt {
			s.codec.Decrypt(ct, plain)
		} else {
			s.codec.Encrypt(ct, plain)
		}
	} else {
		copy(ct, plain)
	}
	return s.bw.WriteAll(ct)
}
