package models

import (
	"sort"
	"strings"
)

// Field names a single value in a FieldSet.
type Field string

const (
	FieldFullName   Field = "fullName"
	FieldAddress    Field = "address"
	FieldIDNumber   Field = "idNumber"
	FieldBirthDate  Field = "birthDate"
	FieldFirstName  Field = "firstName"
	FieldMiddleName Field = "middleName"
	FieldLastName   Field = "lastName"
	FieldSchool     Field = "school"
)

// ComparedFields are the fields the reconciliation pass compares, in order.
var ComparedFields = []Field{FieldFullName, FieldAddress, FieldIDNumber}

// FieldSet maps field names to values. A key is present only when a value
// was found; values are never empty.
type FieldSet map[Field]string

// Set stores the trimmed value. Blank values are not stored.
func (fs FieldSet) Set(f Field, v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		return
	}
	fs[f] = v
}

// SetIfAbsent stores v only when f has no value yet. It reports whether v was stored.
func (fs FieldSet) SetIfAbsent(f Field, v string) bool {
	if fs.Has(f) {
		return false
	}
	before := len(fs)
	fs.Set(f, v)
	return len(fs) > before
}

// Get returns the value for f and whether it is present.
func (fs FieldSet) Get(f Field) (string, bool) {
	v, ok := fs[f]
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

func (fs FieldSet) Has(f Field) bool {
	_, ok := fs.Get(f)
	return ok
}

// Clone returns a copy without blank entries.
func (fs FieldSet) Clone() FieldSet {
	out := make(FieldSet, len(fs))
	for k, v := range fs {
		out.Set(k, v)
	}
	return out
}

// Keys returns the present field names sorted alphabetically.
func (fs FieldSet) Keys() []Field {
	keys := make([]Field, 0, len(fs))
	for k := range fs {
		if fs.Has(k) {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Empty reports whether no field has a value.
func (fs FieldSet) Empty() bool {
	return len(fs.Keys()) == 0
}
