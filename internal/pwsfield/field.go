// Package pwsfield defines the typed fields that make up a Password
// Safe record — the per-version field-id catalog, the FieldValue
// variant (text/timestamp/UUID/opaque), and the V1/V2 and V3 wire
// codecs.
package pwsfield

// Version tags the on-disk family a record/field belongs to. Modeled
// as a closed tagged variant (design note 9) rather than a class
// hierarchy: every version-dependent choice is a switch over this
// value or a lookup into a per-version table, never an interface
// override.
type Version int

const (
	V1 Version = iota + 1
	V2
	V3
)

// Field ids. Values are shared across versions where the meaning is
// shared; a given id may be recognized by one version's catalog and
// not another's (see KnownKind).
const (
	FieldDefault            byte = 0 // V1 default / V3 ID string
	FieldUUID               byte = 1 // V2+
	FieldGroup              byte = 2 // V2+
	FieldTitle              byte = 3
	FieldUsername           byte = 4
	FieldNotes              byte = 5
	FieldPassword           byte = 6
	FieldCreationTime       byte = 7  // V2+
	FieldPasswordModTime    byte = 8  // V2+
	FieldLastAccessTime     byte = 9  // V2+
	FieldPasswordLifetime   byte = 10 // V2+
	FieldPasswordPolicyV2   byte = 11 // V2 (deprecated slot retained in V3)
	FieldLastModTime        byte = 12 // V3
	FieldURL                byte = 13 // V3
	FieldAutotype           byte = 14 // V3
	FieldPasswordHistory    byte = 15 // V3
	FieldPasswordPolicyV3   byte = 16 // V3
	FieldPasswordExpiryIntv byte = 17 // V3
	FieldEndOfRecord        byte = 255
)

// ValueKind distinguishes the wire representation of a FieldValue.
type ValueKind int

const (
	KindText ValueKind = iota
	KindTimestamp
	KindUUID
	KindOpaque
)

// FieldValue is a variant over the Password Safe field payload types:
// UTF-8 text, a 4-byte timestamp (seconds since epoch), a 16-byte
// UUID, or an opaque byte payload (used both for genuinely binary
// fields and for unknown ids preserved verbatim).
type FieldValue struct {
	Kind  ValueKind
	Text  string
	Time  uint32 // seconds since 1970, little-endian on the wire
	UUID  [16]byte
	Bytes []byte
}

// Field is one typed element of a record.
type Field struct {
	ID    byte
	Value FieldValue
}

// Raw returns the canonical byte payload for a field value, independent
// of version-specific framing.
func (v FieldValue) Raw() []byte {
	switch v.Kind {
	case KindText:
		return []byte(v.Text)
	case KindTimestamp:
		buf := make([]byte, 4)
		buf[0] = byte(v.Time)
		buf[1] = byte(v.Time >> 8)
		buf[2] = byte(v.Time >> 16)
		buf[3] = byte(v.Time >> 24)
		return buf
	case KindUUID:
		out := make([]byte, 16)
		copy(out, v.UUID[:])
		return out
	default:
		return v.Bytes
	}
}

// catalogEntry names a field id for a given version; used for
// diagnostics and for deciding which ids are "known" (vs. opaque) per
// version.
type catalogEntry struct {
	id   byte
	name string
	kind ValueKind
}

var v1Catalog = []catalogEntry{
	{FieldDefault, "Default", KindText},
	{FieldTitle, "Title", KindText},
	{FieldUsername, "Username", KindText},
	{FieldNotes, "Notes", KindText},
	{FieldPassword, "Password", KindText},
}

var v2Catalog = append(append([]catalogEntry{}, v1Catalog...),
	catalogEntry{FieldUUID, "UUID", KindUUID},
	catalogEntry{FieldGroup, "Group", KindText},
	catalogEntry{FieldCreationTime, "CreationTime", KindTimestamp},
	catalogEntry{FieldPasswordModTime, "PasswordModTime", KindTimestamp},
	catalogEntry{FieldLastAccessTime, "LastAccessTime", KindTimestamp},
	catalogEntry{FieldPasswordLifetime, "PasswordLifetime", KindTimestamp},
	catalogEntry{FieldPasswordPolicyV2, "PasswordPolicy", KindText},
	catalogEntry{FieldEndOfRecord, "EndOfRecord", KindOpaque},
)

var v3Catalog = []catalogEntry{
	{FieldDefault, "V3IdString", KindText},
	{FieldUUID, "UUID", KindUUID},
	{FieldGroup, "Group", KindText},
	{FieldTitle, "Title", KindText},
	{FieldUsername, "Username", KindText},
	{FieldNotes, "Notes", KindText},
	{FieldPassword, "Password", KindText},
	{FieldCreationTime, "CreationTime", KindTimestamp},
	{FieldPasswordModTime, "PasswordModTime", KindTimestamp},
	{FieldLastAccessTime, "LastAccessTime", KindTimestamp},
	{FieldPasswordLifetime, "PasswordLifetime", KindTimestamp},
	{FieldPasswordPolicyV2, "PasswordPolicyDeprecated", KindOpaque},
	{FieldLastModTime, "LastModTime", KindTimestamp},
	{FieldURL, "URL", KindText},
	{FieldAutotype, "Autotype", KindText},
	{FieldPasswordHistory, "PasswordHistory", KindText},
	{FieldPasswordPolicyV3, "PasswordPolicy", KindText},
	{FieldPasswordExpiryIntv, "PasswordExpiryInterval", KindTimestamp},
	{FieldEndOfRecord, "EndOfRecord", KindOpaque},
}

func catalogFor(v Version) []catalogEntry {
	switch v {
	case V1:
		return v1Catalog
	case V2:
		return v2Catalog
	default:
		return v3Catalog
	}
}

// KnownKind reports whether id is recognized by v's catalog, and if so
// the wire kind it decodes to.
func KnownKind(v Version, id byte) (ValueKind, bool) {
	for _, e := range catalogFor(v) {
		if e.id == id {
			return e.kind, true
		}
	}
	return KindOpaque, false
}

// Name returns the human-readable field name, or "" if id is not in
// v's catalog.
func Name(v Version, id byte) string {
	for _, e := range catalogFor(v) {
		if e.id == id {
			return e.name
		}
	}
	return ""
}

// RequiredFields lists the field ids a valid record of version v must
// contain.
func RequiredFields(v Version) []byte {
	switch v {
	case V1:
		return []byte{FieldTitle}
	case V2:
		return []byte{FieldTitle}
	default:
		return []byte{FieldUUID} // plus TITLE or PASSWORD, checked separately
	}
}

// DefaultSparseFields is the default projected field set for a given
// version's entry store.
func DefaultSparseFields(v Version) []byte {
	switch v {
	case V1:
		return []byte{FieldTitle, FieldUsername}
	case V2:
		return []byte{FieldTitle, FieldGroup, FieldUsername, FieldNotes}
	default:
		return []byte{FieldTitle, FieldGroup, FieldUsername, FieldNotes, FieldURL, FieldPasswordLifetime, FieldLastModTime}
	}
}

// BlockLength returns the record-stream cipher block size for v.
func (v Version) BlockLength() int {
	if v == V3 {
		return 16
	}
	return 8
}
