package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/phrazzld/people-api/internal/domain"
)

// Field names a queryable person attribute. Values match the JSON names.
type Field string

// Queryable fields.
const (
	FieldID        Field = "id"
	FieldFirstName Field = "firstName"
	FieldLastName  Field = "lastName"
)

// Valid reports whether f is a known field.
func (f Field) Valid() bool {
	switch f {
	case FieldID, FieldFirstName, FieldLastName:
		return true
	}
	return false
}

// ParseField maps a client-supplied name onto a Field.
func ParseField(name string) (Field, error) {
	f := Field(name)
	if !f.Valid() {
		return "", fmt.Errorf("%w: unknown field %q", ErrInvalidQuery, name)
	}
	return f, nil
}

// Criteria is an equality match on one field. A nil Value matches people
// whose field is null.
type Criteria struct {
	Field Field
	Value *string
}

// Sort orders a listing by one field.
type Sort struct {
	Field      Field
	Descending bool
}

// ListOptions selects one page of people. A zero Limit means no limit.
// The zero Sort orders by ID ascending, which is insertion order.
type ListOptions struct {
	Limit  int
	Offset int
	Sort   Sort
}

// PersonStore defines the interface for person persistence.
type PersonStore interface {
	// Create assigns the next unused ID, stores the person, and writes the
	// ID back into p. The caller's ID value is ignored.
	Create(ctx context.Context, p *domain.Person) error

	// GetByID retrieves a person by ID.
	// Returns ErrPersonNotFound if the person does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Person, error)

	// Update replaces every field of the person with p.ID.
	// Returns ErrPersonNotFound if the person does not exist.
	Update(ctx context.Context, p *domain.Person) error

	// Patch merges the supplied fields into the person with the given ID
	// and returns the result.
	// Returns ErrPersonNotFound if the person does not exist.
	Patch(ctx context.Context, id int64, patch domain.PersonPatch) (*domain.Person, error)

	// Delete removes the person with the given ID.
	// Returns ErrPersonNotFound if the person does not exist.
	Delete(ctx context.Context, id int64) error

	// DeleteAll removes every person.
	DeleteAll(ctx context.Context) error

	// List returns one page of people and the total number stored.
	List(ctx context.Context, opts ListOptions) ([]*domain.Person, int, error)

	// FindBy returns every person matching c in insertion order, or an
	// empty slice when none match.
	FindBy(ctx context.Context, c Criteria) ([]*domain.Person, error)
}

// FieldValue reads field f of p as a nullable string.
func FieldValue(p *domain.Person, f Field) *string {
	switch f {
	case FieldID:
		v := strconv.FormatInt(p.ID, 10)
		return &v
	case FieldFirstName:
		return p.FirstName
	case FieldLastName:
		return p.LastName
	}
	return nil
}
