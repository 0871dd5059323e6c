// Package pwsfile implements the Password Safe V1/V2/V3 file codec: header
// parsing and passphrase authentication, block-chained record (de)serialization,
// and the open/mutate/save state machine. Decoded records are held sealed in
// an internal/cage Cage rather than as bare plaintext for the lifetime of the DB.
package pwsfile

import (
	"time"

	"github.com/wesleyyan-sb/pwsafe/internal/byteio"
	"github.com/wesleyyan-sb/pwsafe/internal/cage"
	"github.com/wesleyyan-sb/pwsafe/internal/logging"
	"github.com/wesleyyan-sb/pwsafe/internal/pwscrypto"
	"github.com/wesleyyan-sb/pwsafe/internal/pwsfield"
	"github.com/wesleyyan-sb/pwsafe/internal/pwsrecord"
)

// DB is an open Password Safe database: a decoded header's derived key
// material, plus the records it guards, held sealed in a Cage.
type DB struct {
	family  Family
	version pwsfield.Version

	storage  byteio.Storage
	readOnly bool
	openedAt time.Time

	cg     *cage.Cage
	sealed []*cage.Sealed

	recordKey []byte
	hmacKey   []byte
	iv        []byte

	state State
	// generation counts committed Add/Update/Remove calls. An Iterator
	// captures it at creation and compares on every Next; a mismatch
	// means the record list moved out from under it.
	generation uint64

	log logging.Logger
}

// New constructs an empty DB of the given family, ready to accept
// records and be Saved for the first time. log may be nil, which
// behaves as logging.NoOp.
func New(family Family, log logging.Logger) (*DB, error) {
	if log == nil {
		log = logging.NoOp{}
	}
	cg, err := cage.New()
	if err != nil {
		return nil, err
	}
	return &DB{
		family:  family,
		version: fieldVersionFor(family),
		cg:      cg,
		state:   StateEmpty,
		log:     log,
	}, nil
}

// Open reads and decrypts an existing file from storage, authenticating
// passphrase against its header. listener, if non-nil, is called once
// per record as it is decoded, right after it is sealed. log may be nil.
func Open(storage byteio.Storage, family Family, passphrase []byte, listener LoadListener, log logging.Logger) (*DB, error) {
	if log == nil {
		log = logging.NoOp{}
	}
	cg, err := cage.New()
	if err != nil {
		return nil, err
	}
	if err := cg.SealPassphrase(passphrase); err != nil {
		return nil, err
	}

	rs, err := storage.OpenForRead()
	if err != nil {
		return nil, err
	}
	defer rs.Close()
	br := byteio.NewBlockReader(rs)

	db := &DB{
		family:   family,
		version:  fieldVersionFor(family),
		storage:  storage,
		readOnly: !storage.IsWritable(),
		cg:       cg,
		log:      log,
	}
	if listener != nil {
		inner := listener
		listener = func(i int, rec *pwsrecord.Record) {
			db.log.Debug("record loaded", "index", i)
			inner(i, rec)
		}
	} else {
		listener = func(i int, rec *pwsrecord.Record) {
			db.log.Debug("record loaded", "index", i)
		}
	}

	switch family {
	case FamilyV1, FamilyV2:
		h, err := readHeaderV1V2(br)
		if err != nil {
			return nil, err
		}
		key, err := authenticateV1V2(h, passphrase)
		if err != nil {
			return nil, err
		}

		var codec pwscrypto.BlockCodec
		if family == FamilyV1 {
			codec, err = pwscrypto.NewBlowfishECB(key)
		} else {
			codec, err = pwscrypto.NewBlowfishCBCDecryptStream(key, h.iv[:])
		}
		if err != nil {
			return nil, err
		}
		stream := &blockStream{blockLen: 8, codec: codec, br: br, decrypt: true}

		var sealed []*cage.Sealed
		if family == FamilyV1 {
			sealed, err = readRecordsV1(stream, cg, listener)
		} else {
			sealed, err = readRecordsV2(stream, cg, listener)
		}
		if err != nil {
			return nil, err
		}
		db.recordKey = append([]byte(nil), key...)
		db.iv = append([]byte(nil), h.iv[:]...)
		db.sealed = sealed

	case FamilyV3:
		h, err := readHeaderV3(br)
		if err != nil {
			return nil, err
		}
		recordKey, hmacKey, err := authenticateV3(h, passphrase)
		if err != nil {
			return nil, err
		}
		codec, err := pwscrypto.NewTwofishCBCDecryptStream(recordKey[:], h.iv[:])
		if err != nil {
			return nil, err
		}
		stream := &blockStream{blockLen: 16, codec: codec, br: br, decrypt: true}

		sealed, err := readRecordsV3(stream, br, cg, hmacKey[:], listener)
		if err != nil {
			return nil, err
		}
		db.recordKey = append([]byte(nil), recordKey[:]...)
		db.hmacKey = append([]byte(nil), hmacKey[:]...)
		db.iv = append([]byte(nil), h.iv[:]...)
		db.sealed = sealed
	}

	db.state = StateLoaded
	if mt, err := storage.LastModified(); err == nil {
		db.openedAt = mt
	}
	return db, nil
}

// SaveAs binds storage as db's backing store (for a DB built with New,
// which has none yet) and saves to it.
func (db *DB) SaveAs(storage byteio.Storage, passphrase []byte) error {
	db.storage = storage
	db.readOnly = !storage.IsWritable()
	return db.Save(passphrase)
}

// Save re-derives a fresh header (new salt, new IV, and for V3 a fresh
// record/HMAC key pair) under passphrase and rewrites storage in full.
func (db *DB) Save(passphrase []byte) error {
	if db.state == StateDisposed {
		return ErrDisposed
	}
	if db.storage == nil {
		return ErrReadOnly
	}
	if db.readOnly {
		return ErrReadOnly
	}
	if db.storage != nil {
		if mt, err := db.storage.LastModified(); err == nil && db.state != StateEmpty && !db.openedAt.IsZero() && mt.After(db.openedAt) {
			return ErrConcurrentModification
		}
	}

	ws, err := db.storage.OpenForWrite()
	if err != nil {
		return err
	}
	defer ws.Close()
	bw := byteio.NewBlockWriter(ws)

	switch db.family {
	case FamilyV1, FamilyV2:
		h, key, err := newHeaderV1V2(passphrase)
		if err != nil {
			return err
		}
		if err := writeHeaderV1V2(bw, h); err != nil {
			return err
		}

		var codec pwscrypto.BlockCodec
		if db.family == FamilyV1 {
			codec, err = pwscrypto.NewBlowfishECB(key)
		} else {
			codec, err = pwscrypto.NewBlowfishCBCEncryptStream(key, h.iv[:])
		}
		if err != nil {
			return err
		}
		stream := &blockStream{blockLen: 8, codec: codec, bw: bw, decrypt: false}

		if db.family == FamilyV1 {
			err = writeRecordsV1(stream, db.cg, db.sealed)
		} else {
			err = writeRecordsV2(stream, db.cg, db.sealed)
		}
		if err != nil {
			return err
		}
		db.recordKey = key

	case FamilyV3:
		h, recordKey, hmacKey, err := newHeaderV3(passphrase)
		if err != nil {
			return err
		}
		if err := writeHeaderV3(bw, h); err != nil {
			return err
		}
		codec, err := pwscrypto.NewTwofishCBCEncryptStream(recordKey[:], h.iv[:])
		if err != nil {
			return err
		}
		stream := &blockStream{blockLen: 16, codec: codec, bw: bw, decrypt: false}

		if err := writeRecordsV3(stream, bw, db.cg, db.sealed, hmacKey[:]); err != nil {
			return err
		}
		db.recordKey = append([]byte(nil), recordKey[:]...)
		db.hmacKey = append([]byte(nil), hmacKey[:]...)
	}

	if err := ws.Close(); err != nil {
		return err
	}
	if mt, err := db.storage.LastModified(); err == nil {
		db.openedAt = mt
	}
	db.state = StateLoaded
	return nil
}

// Count returns the number of records currently held.
func (db *DB) Count() int { return len(db.sealed) }

// Get unseals and returns a copy of the record at index i.
func (db *DB) Get(i int) (*pwsrecord.Record, error) {
	if db.state == StateDisposed {
		return nil, ErrDisposed
	}
	if i < 0 || i >= len(db.sealed) {
		return nil, ErrIndexOutOfRange
	}
	return unsealRecord(db.cg, db.sealed[i])
}

// Add seals rec and appends it, returning its new index.
func (db *DB) Add(rec *pwsrecord.Record) (int, error) {
	if db.state == StateDisposed {
		return 0, ErrDisposed
	}
	if db.readOnly {
		return 0, ErrReadOnly
	}
	sealed, err := sealRecord(db.cg, rec)
	if err != nil {
		return 0, err
	}
	db.sealed = append(db.sealed, sealed)
	db.state = StateDirty
	db.generation++
	return len(db.sealed) - 1, nil
}

// Update reseals rec over the record at index i.
func (db *DB) Update(i int, rec *pwsrecord.Record) error {
	if db.state == StateDisposed {
		return ErrDisposed
	}
	if db.readOnly {
		return ErrReadOnly
	}
	if i < 0 || i >= len(db.sealed) {
		return ErrIndexOutOfRange
	}
	sealed, err := sealRecord(db.cg, rec)
	if err != nil {
		return err
	}
	db.sealed[i] = sealed
	db.state = StateDirty
	db.generation++
	return nil
}

// Remove deletes the record at index i.
func (db *DB) Remove(i int) error {
	if db.state == StateDisposed {
		return ErrDisposed
	}
	if db.readOnly {
		return ErrReadOnly
	}
	if i < 0 || i >= len(db.sealed) {
		return ErrIndexOutOfRange
	}
	db.sealed = append(db.sealed[:i], db.sealed[i+1:]...)
	db.state = StateDirty
	db.generation++
	return nil
}

// Dispose releases the cage's memory key and marks db unusable.
func (db *DB) Dispose() {
	if db.state == StateDisposed {
		return
	}
	db.cg.Dispose()
	db.sealed = nil
	db.state = StateDisposed
}

// Iterate returns an Iterator over db's records in index order. The
// iterator is a snapshot: any Add, Update, or Remove on db after it is
// created invalidates it, and the next Next call reports
// ErrConcurrentIteration instead of silently reading past the change.
func (db *DB) Iterate() *Iterator {
	return &Iterator{db: db, generation: db.generation}
}

// Family reports the on-disk format family db was opened or created with.
func (db *DB) Family() Family { return db.family }

// Version reports the field-catalog version matching db's family.
func (db *DB) Version() pwsfield.Version { return db.version }

// ReadOnly reports whether db rejects mutations.
func (db *DB) ReadOnly() bool { return db.readOnly }
