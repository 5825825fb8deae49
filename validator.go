package authflow

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// DefaultMinimumAge is the youngest age accepted at sign up.
const DefaultMinimumAge = 18

// Validator checks a fixed set of fields. It holds no state between calls.
type Validator struct {
	fields     []Field
	now        func() time.Time
	minimumAge int
}

// ValidatorOption customizes a Validator.
type ValidatorOption func(*Validator)

// WithValidatorClock injects the clock used for age checks.
func WithValidatorClock(clock func() time.Time) ValidatorOption {
	return func(v *Validator) {
		if clock != nil {
			v.now = clock
		}
	}
}

// WithMinimumAge overrides the minimum age enforced on birthDate.
func WithMinimumAge(years int) ValidatorOption {
	return func(v *Validator) {
		if years > 0 {
			v.minimumAge = years
		}
	}
}

// NewValidator returns a validator over the given schema.
func NewValidator(fields []Field, opts ...ValidatorOption) *Validator {
	v := &Validator{
		fields:     append([]Field(nil), fields...),
		now:        time.Now,
		minimumAge: DefaultMinimumAge,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

// Fields returns the schema the validator checks.
func (v *Validator) Fields() []Field {
	return append([]Field(nil), v.fields...)
}

// Has reports whether the field belongs to the schema.
func (v *Validator) Has(f Field) bool {
	for _, field := range v.fields {
		if field == f {
			return true
		}
	}
	return false
}

// Validate runs every field rule and collects one code per failing field.
// The result is built fresh on every call.
func (v *Validator) Validate(values Values) ValidationErrors {
	errs := ValidationErrors{}
	now := v.now()
	for _, field := range v.fields {
		value := normalize(values[field])
		if err := validation.Validate(value, v.rules(field, now)...); err != nil {
			errs[field] = codeFromError(field, err)
		}
	}
	return errs
}

func (v *Validator) rules(field Field, now time.Time) []validation.Rule {
	required := validation.Required.Error(string(CodeRequired))
	switch field {
	case FieldEmail:
		return []validation.Rule{
			required,
			is.Email.Error(string(CodeInvalidEmail)),
		}
	case FieldBirthDate:
		return []validation.Rule{
			required,
			validation.By(minimumAge(now, v.minimumAge)),
		}
	default:
		return []validation.Rule{required}
	}
}

// normalize turns zero times into nil so Required treats them as absent.
func normalize(value any) any {
	switch t := value.(type) {
	case time.Time:
		if t.IsZero() {
			return nil
		}
	case *time.Time:
		if t == nil || t.IsZero() {
			return nil
		}
		return *t
	}
	return value
}

func minimumAge(now time.Time, years int) validation.RuleFunc {
	return func(value any) error {
		birth, ok := asDate(value)
		if !ok || !IsAtLeast(birth, now, years) {
			return errors.New(string(CodeInvalidAge))
		}
		return nil
	}
}

// AgeAt returns the number of full years between birth and now, comparing
// calendar dates so a birthday that falls tomorrow has not happened yet.
func AgeAt(birth, now time.Time) int {
	by, bm, bd := birth.Date()
	ny, nm, nd := now.Date()
	age := ny - by
	if nm < bm || (nm == bm && nd < bd) {
		age--
	}
	return age
}

// IsAtLeast reports whether someone born at birth is at least years old.
func IsAtLeast(birth, now time.Time, years int) bool {
	return AgeAt(birth, now) >= years
}

func codeFromError(field Field, err error) ErrorCode {
	switch code := ErrorCode(err.Error()); code {
	case CodeRequired, CodeInvalidEmail, CodeInvalidAge:
		return code
	}
	switch field {
	case FieldEmail:
		return CodeInvalidEmail
	case FieldBirthDate:
		return CodeInvalidAge
	}
	return CodeRequired
}
