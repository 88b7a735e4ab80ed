package api

import (
	"net/url"
	"strconv"
	"strings"
)

// LinkBuilder constructs the hrefs of HAL links. With an empty base URL the
// hrefs are path-absolute, e.g. "/people/1".
type LinkBuilder struct {
	base string
}

// NewLinkBuilder creates a LinkBuilder rooted at baseURL.
func NewLinkBuilder(baseURL string) *LinkBuilder {
	return &LinkBuilder{base: strings.TrimRight(baseURL, "/")}
}

// Root is the hypermedia index.
func (b *LinkBuilder) Root() string {
	return b.base + "/"
}

// People is the collection resource.
func (b *LinkBuilder) People() string {
	return b.base + "/people"
}

// PeopleTemplate is the collection resource with its paging variables.
func (b *LinkBuilder) PeopleTemplate() string {
	return b.People() + "{?page,size,sort}"
}

// PeoplePage is one page of the collection. The sort parameter is omitted
// when empty.
func (b *LinkBuilder) PeoplePage(page, size int, sort string) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	if sort != "" {
		q.Set("sort", sort)
	}
	return b.People() + "?" + q.Encode()
}

// Person is the item resource for id.
func (b *LinkBuilder) Person(id int64) string {
	return b.People() + "/" + strconv.FormatInt(id, 10)
}

// Search is the search index.
func (b *LinkBuilder) Search() string {
	return b.People() + "/search"
}

// Finder is the templated link to a named finder taking param.
func (b *LinkBuilder) Finder(name, param string) string {
	return b.Search() + "/" + url.PathEscape(name) + "{?" + param + "}"
}

// FinderQuery is a finder invocation with the given query.
func (b *LinkBuilder) FinderQuery(name string, query url.Values) string {
	href := b.Search() + "/" + url.PathEscape(name)
	if encoded := query.Encode(); encoded != "" {
		href += "?" + encoded
	}
	return href
}
