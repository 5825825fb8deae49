package authflow

import (
	"strings"
	"time"
)

// Field names a form input.
type Field string

const (
	FieldEmail     Field = "email"
	FieldPassword  Field = "password"
	FieldFirstName Field = "firstName"
	FieldLastName  Field = "lastName"
	FieldBirthDate Field = "birthDate"
)

// DateLayout is the layout used to format birth dates.
const DateLayout = "2006-01-02"

// dateLayouts are tried in order when a birth date arrives as a string.
var dateLayouts = []string{DateLayout, time.RFC3339}

// Values holds raw field input keyed by field name. A value is either a
// string or a time.Time.
type Values map[Field]any

// Clone returns a shallow copy of the values.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// String returns the string value for the field, or "" when it is absent or
// not a string.
func (v Values) String(f Field) string {
	s, _ := v[f].(string)
	return s
}

// Time returns the field as a time. Strings are parsed with DateLayout or
// time.RFC3339.
func (v Values) Time(f Field) (time.Time, bool) {
	return asDate(v[f])
}

func asDate(value any) (time.Time, bool) {
	switch t := value.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, !t.IsZero()
	case string:
		raw := strings.TrimSpace(t)
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, raw); err == nil {
				return parsed, true
			}
		}
		return time.Time{}, false
	}
	return time.Time{}, false
}

var knownFields = map[string]Field{
	string(FieldEmail):     FieldEmail,
	string(FieldPassword):  FieldPassword,
	string(FieldFirstName): FieldFirstName,
	string(FieldLastName):  FieldLastName,
	string(FieldBirthDate): FieldBirthDate,
}

// ParseField maps a wire name to a known Field.
func ParseField(name string) (Field, bool) {
	f, ok := knownFields[name]
	return f, ok
}
