// Package cage implements the in-memory "sealing" that keeps decrypted
// Password Safe records from resting in plaintext in process memory
// between accesses: every record is re-encrypted under a process-local
// key and IV immediately after decoding, and only unsealed into a
// short-lived buffer while the caller is actively using it.
package cage

import (
	"errors"

	"github.com/wesleyyan-sb/pwsafe/internal/pwscrypto"
)

// ErrDisposed is returned by any cage operation after Dispose.
var ErrDisposed = errors.New("cage: disposed")

// ErrMemoryKey indicates a seal/unseal failure. This is fatal and
// indicates internal corruption — it is never triggerable by a
// malformed on-disk file, since sealing happens only after a record
// already decoded successfully.
var ErrMemoryKey = errors.New("cage: memory key failure")

const (
	keySize = 16 // 128-bit Blowfish key
	ivSize  = 8  // 64-bit IV
)

// Sealed is an opaque wrapper binding a plaintext's serialized form to
// a ciphertext under the cage's memory key/IV. Only the Cage that
// produced it can open it back up.
type Sealed struct {
	ciphertext []byte
}

// Cage holds a memory key and a randomized IV, and seals/unseals byte
// buffers under them. Both are generated by New when the Cage is
// constructed, not deferred to the first Seal. A Cage is single-owner: it is
// not safe to share across goroutines without external synchronization,
// matching the single-threaded, single-owner posture of the file codec
// that uses it.
type Cage struct {
	key            []byte
	iv             []byte
	disposed       bool
	sealedPassword *Sealed
}

// New constructs a Cage with a freshly generated key and IV.
func New() (*Cage, error) {
	c := &Cage{}
	if err := c.init(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cage) init() error {
	c.key = make([]byte, keySize)
	c.iv = make([]byte, ivSize)
	if err := pwscrypto.FillRandom(c.key); err != nil {
		return ErrMemoryKey
	}
	if err := pwscrypto.FillRandom(c.iv); err != nil {
		return ErrMemoryKey
	}
	return nil
}

// RotateIV reseeds the IV. Safe to call between iteration passes;
// sealed objects created under the old IV remain openable only until
// the next rotation, so callers should not hold Sealed values across a
// rotation.
func (c *Cage) RotateIV() error {
	if c.disposed {
		return ErrDisposed
	}
	return pwscrypto.FillRandom(c.iv)
}

func pkcs5Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

func pkcs5Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, ErrMemoryKey
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize || padLen > len(data) {
		return nil, ErrMemoryKey
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, ErrMemoryKey
		}
	}
	return data[:len(data)-padLen], nil
}

// Seal encrypts plain under the cage's current key/IV with
// Blowfish/CBC and PKCS#5 padding.
func (c *Cage) Seal(plain []byte) (*Sealed, error) {
	if c.disposed {
		return nil, ErrDisposed
	}
	codec, err := pwscrypto.NewBlowfishCBC(c.key, c.iv)
	if err != nil {
		return nil, ErrMemoryKey
	}
	padded := pkcs5Pad(plain, codec.BlockSize())
	ct := make([]byte, len(padded))
	codec.Encrypt(ct, padded)
	return &Sealed{ciphertext: ct}, nil
}

// Unseal reverses Seal. The returned slice is the only place the
// plaintext lives; callers must not retain it longer than needed.
func (c *Cage) Unseal(s *Sealed) ([]byte, error) {
	if c.disposed {
		return nil, ErrDisposed
	}
	if s == nil || len(s.ciphertext) == 0 {
		return nil, ErrMemoryKey
	}
	codec, err := pwscrypto.NewBlowfishCBC(c.key, c.iv)
	if err != nil {
		return nil, ErrMemoryKey
	}
	if len(s.ciphertext)%codec.BlockSize() != 0 {
		return nil, ErrMemoryKey
	}
	padded := make([]byte, len(s.ciphertext))
	codec.Decrypt(padded, s.ciphertext)
	return pkcs5Unpad(padded, codec.BlockSize())
}

// SealPassphrase seals the passphrase bytes into the cage so the
// plaintext passphrase is not retained anywhere else after Open
// authenticates it.
func (c *Cage) SealPassphrase(passphrase []byte) error {
	if c.disposed {
		return ErrDisposed
	}
	s, err := c.Seal(passphrase)
	if err != nil {
		return err
	}
	c.sealedPassword = s
	return nil
}

// Passphrase unseals the previously-sealed passphrase, or ErrMemoryKey
// if none was ever sealed.
func (c *Cage) Passphrase() ([]byte, error) {
	if c.disposed {
		return nil, ErrDisposed
	}
	if c.sealedPassword == nil {
		return nil, ErrMemoryKey
	}
	return c.Unseal(c.sealedPassword)
}

// Dispose zeroes the key buffer and IV and drops the sealed
// passphrase. All subsequent operations fail with ErrDisposed.
func (c *Cage) Dispose() {
	if c.disposed {
		return
	}
	for i := range c.key {
		c.key[i] = 0
	}
	for i := range c.iv {
		c.iv[i] = 0
	}
	c.sealedPassword = nil
	c.disposed = true
}
