package authflow

import "slices"

// ErrorCode identifies a field validation failure. Codes are translated by
// the rendering layer, never by the core.
type ErrorCode string

const (
	CodeRequired     ErrorCode = "REQUIRED"
	CodeInvalidEmail ErrorCode = "INVALID_EMAIL"
	CodeInvalidAge   ErrorCode = "INVALID_AGE"
)

var messageKeys = map[ErrorCode]string{
	CodeRequired:     "formError.required",
	CodeInvalidEmail: "formError.invalidEmail",
	CodeInvalidAge:   "formError.invalidAge",
}

// MessageKey returns the catalog key used to render the code.
func MessageKey(code ErrorCode) string {
	if key, ok := messageKeys[code]; ok {
		return key
	}
	return string(code)
}

// ValidationErrors maps a field to its error code. An empty map is valid.
type ValidationErrors map[Field]ErrorCode

// Valid reports whether there are no field errors.
func (e ValidationErrors) Valid() bool {
	return len(e) == 0
}

// Get returns the code for the field, if any.
func (e ValidationErrors) Get(f Field) (ErrorCode, bool) {
	code, ok := e[f]
	return code, ok
}

// Clone returns a copy of the errors.
func (e ValidationErrors) Clone() ValidationErrors {
	out := make(ValidationErrors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Fields lists the fields carrying an error, sorted by name.
func (e ValidationErrors) Fields() []Field {
	out := make([]Field, 0, len(e))
	for f := range e {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}
