package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/phrazzld/people-api/internal/domain"
)

var errNotObject = errors.New("request body must be a JSON object")

// PersonRequest is the body of POST /people and PUT /people/{id}. An "id"
// member is ignored; absent names are stored as null.
type PersonRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

// UnmarshalJSON requires a JSON object. Other members are ignored.
func (r *PersonRequest) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return errNotObject
	}

	type plain PersonRequest
	var body plain
	if err := json.Unmarshal(data, &body); err != nil {
		return err
	}
	*r = PersonRequest(body)
	return nil
}

// ToPerson converts the request into an unsaved person.
func (r PersonRequest) ToPerson() *domain.Person {
	return domain.NewPerson(r.FirstName, r.LastName)
}

// Validate checks the names against the storage limits.
func (r PersonRequest) Validate() error {
	return r.ToPerson().Validate()
}

// PatchRequest is the body of PATCH /people/{id}. It tells an absent member
// apart from an explicit null.
type PatchRequest struct {
	domain.PersonPatch
}

// UnmarshalJSON reads firstName and lastName, each of which may be a string
// or null. Other members are ignored.
func (p *PatchRequest) UnmarshalJSON(data []byte) error {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return err
	}
	if members == nil {
		return errNotObject
	}

	var err error
	if p.FirstName, err = optionalString(members, "firstName"); err != nil {
		return err
	}
	if p.LastName, err = optionalString(members, "lastName"); err != nil {
		return err
	}
	return nil
}

// Validate checks the supplied names against the storage limits.
func (p PatchRequest) Validate() error {
	return p.PersonPatch.Validate()
}

func optionalString(members map[string]json.RawMessage, name string) (domain.OptionalString, error) {
	raw, ok := members[name]
	if !ok {
		return domain.OptionalString{}, nil
	}

	var value *string
	if err := json.Unmarshal(raw, &value); err != nil {
		return domain.OptionalString{}, fmt.Errorf("%s: %w", name, err)
	}
	return domain.SetTo(value), nil
}
