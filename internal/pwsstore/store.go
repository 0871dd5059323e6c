// Package pwsstore is a sparse projection layer over an open
// pwsfile.DB: it keeps a lightweight "bean" per record — only the
// fields a caller cares to project — in sync with the underlying
// sealed record list, so a UI can list thousands of entries without
// unsealing every field of every record on every redraw.
package pwsstore

import (
	"reflect"

	"github.com/wesleyyan-sb/pwsafe/internal/byteio"
	"github.com/wesleyyan-sb/pwsafe/internal/logging"
	"github.com/wesleyyan-sb/pwsafe/internal/pwsfield"
	"github.com/wesleyyan-sb/pwsafe/internal/pwsfile"
	"github.com/wesleyyan-sb/pwsafe/internal/pwsrecord"
)

// Bean is a flattened view of one record: named attributes instead of
// a field-id map, a StoreIndex giving its position in the underlying
// sealed list, and a Sparse flag telling a caller whether it only
// carries a projected subset of fields (as Beans does) or every known
// attribute the record had (as Get does).
type Bean struct {
	Title    string
	Group    string
	Username string
	Notes    string
	Password string
	URL      string

	CreationTime     uint32
	PasswordModTime  uint32
	LastAccessTime   uint32
	PasswordLifetime uint32
	LastModTime      uint32

	PasswordPolicy  string
	PasswordHistory string

	StoreIndex int
	Sparse     bool
}

// Store wraps a pwsfile.DB with a synchronized []Bean cache.
//
// Family and Version share the same underlying ordinal (both are
// V1/V2/V3 tagged variants numbered 1..3 in the same order), so a
// Family converts directly to its pwsfield.Version without a lookup
// table.
type Store struct {
	db           *pwsfile.DB
	sparseFields []byte
	beans        []*Bean
	log          logging.Logger
}

func version(family pwsfile.Family) pwsfield.Version {
	return pwsfield.Version(family)
}

// New wraps an already-open or freshly created db with default sparse
// fields for its family. log may be nil, which behaves as
// logging.NoOp.
func New(db *pwsfile.DB, log logging.Logger) *Store {
	if log == nil {
		log = logging.NoOp{}
	}
	return &Store{
		db:           db,
		sparseFields: pwsfield.DefaultSparseFields(db.Version()),
		log:          log,
	}
}

// Load opens storage as family/passphrase and builds a Store whose
// bean cache is populated as each record streams in, via pwsfile's
// load-listener hook — no second pass over the decoded records. log
// may be nil.
func Load(storage byteio.Storage, family pwsfile.Family, passphrase []byte, log logging.Logger) (*Store, error) {
	if log == nil {
		log = logging.NoOp{}
	}
	st := &Store{sparseFields: pwsfield.DefaultSparseFields(version(family)), log: log}

	db, err := pwsfile.Open(storage, family, passphrase, func(i int, rec *pwsrecord.Record) {
		st.beans = append(st.beans, projectSparse(i, rec, st.sparseFields))
	}, log)
	if err != nil {
		return nil, err
	}
	st.db = db
	return st, nil
}

// SetSparseFields changes the projected field set and rebuilds the
// bean cache from the underlying records.
func (s *Store) SetSparseFields(ids []byte) error {
	s.sparseFields = append([]byte(nil), ids...)
	beans := make([]*Bean, 0, s.db.Count())
	for i := 0; i < s.db.Count(); i++ {
		rec, err := s.db.Get(i)
		if err != nil {
			return err
		}
		beans = append(beans, projectSparse(i, rec, s.sparseFields))
	}
	s.beans = beans
	return nil
}

// setBeanField copies f's value into the named attribute of bean it
// corresponds to, if any. Fields with no named counterpart (UUID,
// group history fields not yet modeled, opaque unknown ids) are
// silently ignored — Bean is a display projection, not a lossless one.
func setBeanField(bean *Bean, f pwsfield.Field) {
	switch f.ID {
	case pwsfield.FieldTitle:
		bean.Title = f.Value.Text
	case pwsfield.FieldGroup:
		bean.Group = f.Value.Text
	case pwsfield.FieldUsername:
		bean.Username = f.Value.Text
	case pwsfield.FieldNotes:
		bean.Notes = f.Value.Text
	case pwsfield.FieldPassword:
		bean.Password = f.Value.Text
	case pwsfield.FieldURL:
		bean.URL = f.Value.Text
	case pwsfield.FieldCreationTime:
		bean.CreationTime = f.Value.Time
	case pwsfield.FieldPasswordModTime:
		bean.PasswordModTime = f.Value.Time
	case pwsfield.FieldLastAccessTime:
		bean.LastAccessTime = f.Value.Time
	case pwsfield.FieldPasswordLifetime:
		bean.PasswordLifetime = f.Value.Time
	case pwsfield.FieldLastModTime:
		bean.LastModTime = f.Value.Time
	case pwsfield.FieldPasswordPolicyV2, pwsfield.FieldPasswordPolicyV3:
		bean.PasswordPolicy = f.Value.Text
	case pwsfield.FieldPasswordHistory:
		bean.PasswordHistory = f.Value.Text
	}
}

// projectSparse builds a Bean carrying only the fields in the
// configured sparse set.
func projectSparse(i int, rec *pwsrecord.Record, fields []byte) *Bean {
	bean := &Bean{StoreIndex: i, Sparse: true}
	for _, id := range fields {
		if f, ok := rec.Get(id); ok {
			setBeanField(bean, f)
		}
	}
	return bean
}

// projectFull builds a Bean carrying every named attribute rec has,
// ignoring the store's sparse configuration.
func projectFull(i int, rec *pwsrecord.Record) *Bean {
	bean := &Bean{StoreIndex: i, Sparse: false}
	for _, f := range rec.Fields {
		setBeanField(bean, f)
	}
	return bean
}

// recordsEqual reports whether a and b would serialize identically,
// field for field, independent of the order they were Set in.
func recordsEqual(a, b *pwsrecord.Record) bool {
	return reflect.DeepEqual(a.CanonicalOrder(), b.CanonicalOrder())
}

// Beans returns the current sparse projection, one per live record.
func (s *Store) Beans() []*Bean { return s.beans }

// Count returns the number of live records.
func (s *Store) Count() int { return s.db.Count() }

// Get unseals the record at index i and returns a fully populated,
// non-sparse Bean for it.
func (s *Store) Get(i int) (*Bean, error) {
	rec, err := s.db.Get(i)
	if err != nil {
		return nil, err
	}
	return projectFull(i, rec), nil
}

// Add seals and appends rec, updating the bean cache.
func (s *Store) Add(rec *pwsrecord.Record) (int, error) {
	i, err := s.db.Add(rec)
	if err != nil {
		return 0, err
	}
	s.beans = append(s.beans, projectSparse(i, rec, s.sparseFields))
	return i, nil
}

// Update reseals rec over index i, updating the bean cache. If rec is
// field-for-field identical to the record already at i, the reseal
// still happens (so ciphertext stays fresh) but a warning is logged
// rather than treating it as silently redundant.
func (s *Store) Update(i int, rec *pwsrecord.Record) error {
	existing, err := s.db.Get(i)
	if err != nil {
		return err
	}
	noop := recordsEqual(existing, rec)

	if err := s.db.Update(i, rec); err != nil {
		return err
	}
	if noop {
		s.log.Warn("update is a no-op: record is unchanged", "index", i)
	}
	s.beans[i] = projectSparse(i, rec, s.sparseFields)
	return nil
}

// Remove deletes the record at index i and re-indexes the bean cache.
func (s *Store) Remove(i int) error {
	if err := s.db.Remove(i); err != nil {
		return err
	}
	s.beans = append(s.beans[:i], s.beans[i+1:]...)
	for j := i; j < len(s.beans); j++ {
		s.beans[j].StoreIndex = j
	}
	return nil
}

// Save persists the underlying DB.
func (s *Store) Save(passphrase []byte) error {
	return s.db.Save(passphrase)
}

// SaveTo binds storage to the underlying DB (for a Store built over a
// DB with no backing storage yet) and saves to it.
func (s *Store) SaveTo(storage byteio.Storage, passphrase []byte) error {
	return s.db.SaveAs(storage, passphrase)
}

// Iterate returns an Iterator walking the underlying DB's records.
func (s *Store) Iterate() *pwsfile.Iterator {
	return s.db.Iterate()
}

// Dispose releases the underlying DB's cage.
func (s *Store) Dispose() {
	s.db.Dispose()
}
