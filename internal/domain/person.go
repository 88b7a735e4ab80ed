package domain

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxNameLength is the widest name the storage backends accept.
const MaxNameLength = 255

var validate = newValidator()

// newValidator reports field errors under their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Person is the single entity exposed by the service. Names are optional
// and a nil pointer means the value is null. ID is assigned by the store.
type Person struct {
	ID        int64   `json:"id"`
	FirstName *string `json:"firstName" validate:"omitempty,max=255"`
	LastName  *string `json:"lastName"  validate:"omitempty,max=255"`
}

// NewPerson builds an unsaved person from optional names.
func NewPerson(firstName, lastName *string) *Person {
	return &Person{FirstName: firstName, LastName: lastName}
}

// Validate checks the person against storage limits.
func (p *Person) Validate() error {
	if p.ID < 0 {
		return NewValidationError("id", "must not be negative", ErrInvalidID)
	}
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return NewValidationError(verrs[0].Field(), "exceeds maximum length", ErrValidation)
		}
		return NewValidationError("person", "is invalid", ErrValidation)
	}
	return nil
}

// Clone returns a deep copy so stores never share name pointers with callers.
func (p *Person) Clone() *Person {
	if p == nil {
		return nil
	}
	return &Person{
		ID:        p.ID,
		FirstName: cloneString(p.FirstName),
		LastName:  cloneString(p.LastName),
	}
}

// Equal reports whether two people carry the same ID and names.
func (p *Person) Equal(other *Person) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.ID == other.ID &&
		equalString(p.FirstName, other.FirstName) &&
		equalString(p.LastName, other.LastName)
}

// OptionalString is a field of a partial update. Set reports whether the
// client supplied the field at all; Value may still be nil to clear it.
type OptionalString struct {
	Set   bool
	Value *string
}

// SetTo returns an OptionalString assigning value.
func SetTo(value *string) OptionalString {
	return OptionalString{Set: true, Value: value}
}

// PersonPatch holds the fields of a partial update. Unset fields are left
// untouched on the stored person.
type PersonPatch struct {
	FirstName OptionalString
	LastName  OptionalString
}

// IsEmpty reports whether the patch changes nothing.
func (pp PersonPatch) IsEmpty() bool {
	return !pp.FirstName.Set && !pp.LastName.Set
}

// ApplyTo merges the patch into p in place.
func (pp PersonPatch) ApplyTo(p *Person) {
	if pp.FirstName.Set {
		p.FirstName = cloneString(pp.FirstName.Value)
	}
	if pp.LastName.Set {
		p.LastName = cloneString(pp.LastName.Value)
	}
}

// Validate checks the supplied fields against storage limits.
func (pp PersonPatch) Validate() error {
	candidate := &Person{}
	pp.ApplyTo(candidate)
	return candidate.Validate()
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func equalString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
