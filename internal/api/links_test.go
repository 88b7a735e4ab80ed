package api

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phrazzld/people-api/internal/domain"
	"github.com/phrazzld/people-api/internal/service"
)

func TestLinkBuilder(t *testing.T) {
	tests := []struct {
		name string
		base string
		want string
	}{
		{name: "path absolute", base: "", want: "/people/7"},
		{name: "absolute", base: "http://localhost:8080", want: "http://localhost:8080/people/7"},
		{name: "trailing slash trimmed", base: "http://localhost:8080/", want: "http://localhost:8080/people/7"},
		{name: "prefix path", base: "https://api.example.com/v1", want: "https://api.example.com/v1/people/7"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NewLinkBuilder(tc.base).Person(7))
		})
	}

	b := NewLinkBuilder("")
	assert.Equal(t, "/", b.Root())
	assert.Equal(t, "/people{?page,size,sort}", b.PeopleTemplate())
	assert.Equal(t, "/people/search/findByLastName{?name}", b.Finder("findByLastName", "name"))
	assert.Equal(t, "/people/search/findByLastName?name=O%27Brien",
		b.FinderQuery("findByLastName", url.Values{"name": {"O'Brien"}}))
	assert.Equal(t, "/people/search/findByLastName", b.FinderQuery("findByLastName", nil))
}

func TestPersonResource(t *testing.T) {
	b := NewLinkBuilder("")
	res := b.personResource(&domain.Person{ID: 3, FirstName: domain.StringPtr("Sam")})

	assert.Equal(t, int64(3), res.ID)
	assert.Nil(t, res.LastName)
	assert.Equal(t, "/people/3", res.Links["self"].Href)
	assert.Equal(t, "/people/3", res.Links["person"].Href)

	embedded := b.embedPeople(nil)
	assert.NotNil(t, embedded.People, "empty collections render as []")
}

func TestRootIndexLinks(t *testing.T) {
	idx := NewLinkBuilder("https://api.example.com/").rootIndex()

	assert.Equal(t, Link{Href: "https://api.example.com/"}, idx.Links["self"])
	assert.Equal(t, Link{Href: "https://api.example.com/people{?page,size,sort}", Templated: true}, idx.Links["people"])
}

func TestSearchIndexLinks(t *testing.T) {
	idx := NewLinkBuilder("").searchIndex([]service.Finder{service.FindByLastName})

	assert.Equal(t, Link{Href: "/people/search/findByLastName{?name}", Templated: true}, idx.Links["findByLastName"])
	assert.Equal(t, Link{Href: "/people/search"}, idx.Links["self"])
}
