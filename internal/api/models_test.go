package api

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/people-api/internal/domain"
)

func TestPersonRequestIgnoresID(t *testing.T) {
	var req PersonRequest
	require.NoError(t, json.Unmarshal([]byte(`{"id":7,"firstName":"Frodo","nickname":"Mr. Underhill"}`), &req))

	p := req.ToPerson()
	assert.Zero(t, p.ID)
	assert.Equal(t, "Frodo", *p.FirstName)
	assert.Nil(t, p.LastName)
	assert.NoError(t, req.Validate())
}

func TestPersonRequestRequiresObject(t *testing.T) {
	for _, body := range []string{`null`, `[]`, `"Frodo"`, `42`} {
		var req PersonRequest
		assert.Error(t, json.Unmarshal([]byte(body), &req), body)
	}
}

func TestPersonRequestValidate(t *testing.T) {
	long := strings.Repeat("x", domain.MaxNameLength+1)
	err := PersonRequest{LastName: &long}.Validate()
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestPatchRequestUnmarshal(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantFirst domain.OptionalString
		wantLast  domain.OptionalString
		wantErr   bool
	}{
		{
			name:      "one field",
			body:      `{"firstName":"Bilbo Jr."}`,
			wantFirst: domain.SetTo(domain.StringPtr("Bilbo Jr.")),
		},
		{
			name:     "explicit null",
			body:     `{"lastName":null}`,
			wantLast: domain.SetTo(nil),
		},
		{name: "empty object", body: `{}`},
		{name: "unknown members ignored", body: `{"id":3,"age":111}`},
		{name: "wrong type", body: `{"firstName":42}`, wantErr: true},
		{name: "not an object", body: `["Frodo"]`, wantErr: true},
		{name: "null body", body: `null`, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var req PatchRequest
			err := json.Unmarshal([]byte(tc.body), &req)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantFirst, req.FirstName)
			assert.Equal(t, tc.wantLast, req.LastName)
		})
	}
}
