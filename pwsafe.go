// Package pwsafe reads, mutates, and writes encrypted Password Safe
// database files (V1/V2/V3). It decrypts records from a passphrase,
// exposes them as typed entries through a sparse projection, allows
// additions/updates/removals, and re-encrypts the whole file on save.
// Decrypted records are held sealed in process memory between
// accesses rather than as bare plaintext.
package pwsafe

import (
	"github.com/wesleyyan-sb/pwsafe/internal/byteio"
	"github.com/wesleyyan-sb/pwsafe/internal/logging"
	"github.com/wesleyyan-sb/pwsafe/internal/pwsfield"
	"github.com/wesleyyan-sb/pwsafe/internal/pwsfile"
	"github.com/wesleyyan-sb/pwsafe/internal/pwsrecord"
	"github.com/wesleyyan-sb/pwsafe/internal/pwsstore"
)

// Family identifies the on-disk file format version.
type Family = pwsfile.Family

const (
	FamilyV1 = pwsfile.FamilyV1
	FamilyV2 = pwsfile.FamilyV2
	FamilyV3 = pwsfile.FamilyV3
)

// Record is a decrypted database entry: an ordered list of typed
// fields.
type Record = pwsrecord.Record

// Field, FieldValue and the field-id constants name the pieces a
// Record is built from.
type Field = pwsfield.Field
type FieldValue = pwsfield.FieldValue

const (
	FieldUUID     = pwsfield.FieldUUID
	FieldGroup    = pwsfield.FieldGroup
	FieldTitle    = pwsfield.FieldTitle
	FieldUsername = pwsfield.FieldUsername
	FieldNotes    = pwsfield.FieldNotes
	FieldPassword = pwsfield.FieldPassword
	FieldURL      = pwsfield.FieldURL
)

// LoadListener is invoked once per record as Open decodes it.
type LoadListener = pwsfile.LoadListener

// Bean is a flattened, named-attribute view of one record.
type Bean = pwsstore.Bean

// Iterator walks a DB's records one at a time without unsealing the
// whole list up front.
type Iterator = pwsfile.Iterator

// Logger is the structured logging capability this package's Open/New
// constructors accept. A nil Logger behaves as NoOpLogger.
type Logger = logging.Logger

// NoOpLogger discards everything; it is the default when a nil Logger
// is passed to New or Open.
type NoOpLogger = logging.NoOp

// DB is an open Password Safe database.
type DB struct {
	store *pwsstore.Store
	path  string
	log   Logger
}

// New creates an empty, unsaved database of the given family. log may
// be nil.
func New(family Family, log Logger) (*DB, error) {
	inner, err := pwsfile.New(family, log)
	if err != nil {
		return nil, err
	}
	return &DB{store: pwsstore.New(inner, log), log: log}, nil
}

// Open reads and decrypts path, authenticating passphrase against its
// header. listener, if non-nil, is called once per record as it is
// decoded. log may be nil.
func Open(path string, family Family, passphrase []byte, listener LoadListener, log Logger) (*DB, error) {
	storage := byteio.NewFileStorage(path, log)
	inner, err := openWithListener(storage, family, passphrase, listener, log)
	if err != nil {
		return nil, err
	}
	return &DB{store: inner, path: path, log: log}, nil
}

func openWithListener(storage byteio.Storage, family Family, passphrase []byte, listener LoadListener, log Logger) (*pwsstore.Store, error) {
	if listener == nil {
		return pwsstore.Load(storage, family, passphrase, log)
	}
	db, err := pwsfile.Open(storage, family, passphrase, listener, log)
	if err != nil {
		return nil, err
	}
	st := pwsstore.New(db, log)
	if err := st.SetSparseFields(pwsfield.DefaultSparseFields(db.Version())); err != nil {
		return nil, err
	}
	return st, nil
}

// Count returns the number of records.
func (db *DB) Count() int { return db.store.Count() }

// Beans returns the current sparse projection, one per record.
func (db *DB) Beans() []*Bean { return db.store.Beans() }

// SetSparseFields changes the projected field set.
func (db *DB) SetSparseFields(ids []byte) error { return db.store.SetSparseFields(ids) }

// Get unseals the record at index i and returns a fully populated,
// non-sparse Bean for it.
func (db *DB) Get(i int) (*Bean, error) { return db.store.Get(i) }

// Add seals and appends rec, returning its new index.
func (db *DB) Add(rec *Record) (int, error) { return db.store.Add(rec) }

// Update reseals rec over the record at index i.
func (db *DB) Update(i int, rec *Record) error { return db.store.Update(i, rec) }

// Remove deletes the record at index i.
func (db *DB) Remove(i int) error { return db.store.Remove(i) }

// Iterate returns an Iterator over db's records.
func (db *DB) Iterate() *Iterator { return db.store.Iterate() }

// Save re-encrypts and rewrites the file db was opened from.
func (db *DB) Save(passphrase []byte) error { return db.store.Save(passphrase) }

// SaveAs saves a database created with New to a new path for the
// first time.
func (db *DB) SaveAs(path string, passphrase []byte) error {
	storage := byteio.NewFileStorage(path, db.log)
	if err := db.store.SaveTo(storage, passphrase); err != nil {
		return err
	}
	db.path = path
	return nil
}

// Dispose releases the in-memory cage protecting db's records.
func (db *DB) Dispose() { db.store.Dispose() }

// Errors surfaced by Open/Save/mutation calls.
var (
	ErrWrongPassphrase        = pwsfile.ErrWrongPassphrase
	ErrUnsupportedFileVersion = pwsfile.ErrUnsupportedFileVersion
	ErrCorruptFile            = pwsfile.ErrCorruptFile
	ErrReadOnly               = pwsfile.ErrReadOnly
	ErrConcurrentModification = pwsfile.ErrConcurrentModification
	ErrConcurrentIteration    = pwsfile.ErrConcurrentIteration
	ErrDisposed               = pwsfile.ErrDisposed
	ErrIndexOutOfRange        = pwsfile.ErrIndexOutOfRange
)
