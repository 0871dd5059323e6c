// Package pwsrecord models a Password Safe record as an ordered list of
// typed fields.
package pwsrecord

import (
	"sort"

	"github.com/wesleyyan-sb/pwsafe/internal/pwsfield"
)

// Record is an ordered sequence of fields belonging to one password
// entry. Records are immutable between seal cycles — mutation replaces
// the sealed entry rather than editing in place.
type Record struct {
	Version pwsfield.Version
	Fields  []pwsfield.Field
}

// Get returns the first field with the given id, if present.
func (r *Record) Get(id byte) (pwsfield.Field, bool) {
	for _, f := range r.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return pwsfield.Field{}, false
}

// Set replaces the first field with the given id, or appends if absent.
func (r *Record) Set(f pwsfield.Field) {
	for i := range r.Fields {
		if r.Fields[i].ID == f.ID {
			r.Fields[i] = f
			return
		}
	}
	r.Fields = append(r.Fields, f)
}

// Valid reports whether r carries the fields required for its version
// to be considered a usable entry: V1/V2 require TITLE; V3 requires
// UUID and at least one of TITLE/PASSWORD.
func (r *Record) Valid() bool {
	switch r.Version {
	case pwsfield.V1, pwsfield.V2:
		_, ok := r.Get(pwsfield.FieldTitle)
		return ok
	default:
		if _, ok := r.Get(pwsfield.FieldUUID); !ok {
			return false
		}
		_, hasTitle := r.Get(pwsfield.FieldTitle)
		_, hasPassword := r.Get(pwsfield.FieldPassword)
		return hasTitle || hasPassword
	}
}

// CanonicalOrder returns r's fields in save order: UUID first (if
// present), END_OF_RECORD last (V2/V3), all other known fields in
// ascending field-id order, and opaque fields preserving their
// original relative order among themselves at the end.
func (r *Record) CanonicalOrder() []pwsfield.Field {
	var uuid *pwsfield.Field
	var ordinary []pwsfield.Field
	var opaque []pwsfield.Field
	var eor *pwsfield.Field

	for i := range r.Fields {
		f := r.Fields[i]
		switch {
		case f.ID == pwsfield.FieldUUID:
			cp := f
			uuid = &cp
		case f.ID == pwsfield.FieldEndOfRecord:
			cp := f
			eor = &cp
		case f.Value.Kind == pwsfield.KindOpaque:
			if _, known := pwsfield.KnownKind(r.Version, f.ID); known {
				ordinary = append(ordinary, f)
			} else {
				opaque = append(opaque, f)
			}
		default:
			ordinary = append(ordinary, f)
		}
	}

	sort.SliceStable(ordinary, func(i, j int) bool { return ordinary[i].ID < ordinary[j].ID })

	out := make([]pwsfield.Field, 0, len(r.Fields)+1)
	if uuid != nil {
		out = append(out, *uuid)
	}
	out = append(out, ordinary...)
	out = append(out, opaque...)
	if r.Version != pwsfield.V1 {
		if eor != nil {
			out = append(out, *eor)
		} else {
			out = append(out, pwsfield.EndOfRecordField())
		}
	}
	return out
}
