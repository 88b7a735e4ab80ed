package api

import (
	"github.com/phrazzld/people-api/internal/domain"
	"github.com/phrazzld/people-api/internal/service"
)

// Link is a HAL link object.
type Link struct {
	Href      string `json:"href"`
	Templated bool   `json:"templated,omitempty"`
}

// Links is the _links member of a HAL resource, keyed by relation.
type Links map[string]Link

// PersonResource is the HAL representation of a person. Null names are
// rendered as JSON null.
type PersonResource struct {
	ID        int64   `json:"id"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Links     Links   `json:"_links"`
}

// PeopleEmbedded is the _embedded member of collection and search responses.
type PeopleEmbedded struct {
	People []PersonResource `json:"people"`
}

// PageMetadata describes the page carried by a collection response.
type PageMetadata struct {
	Size          int `json:"size"`
	TotalElements int `json:"totalElements"`
	TotalPages    int `json:"totalPages"`
	Number        int `json:"number"`
}

// CollectionResource is a HAL collection. Page is omitted for search results.
type CollectionResource struct {
	Embedded PeopleEmbedded `json:"_embedded"`
	Links    Links          `json:"_links"`
	Page     *PageMetadata  `json:"page,omitempty"`
}

// IndexResource is a resource made only of links.
type IndexResource struct {
	Links Links `json:"_links"`
}

func (b *LinkBuilder) personResource(p *domain.Person) PersonResource {
	self := b.Person(p.ID)
	return PersonResource{
		ID:        p.ID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Links: Links{
			"self":   {Href: self},
			"person": {Href: self},
		},
	}
}

func (b *LinkBuilder) embedPeople(people []*domain.Person) PeopleEmbedded {
	resources := make([]PersonResource, 0, len(people))
	for _, p := range people {
		resources = append(resources, b.personResource(p))
	}
	return PeopleEmbedded{People: resources}
}

func (b *LinkBuilder) rootIndex() IndexResource {
	return IndexResource{Links: Links{
		"self":   {Href: b.Root()},
		"people": {Href: b.PeopleTemplate(), Templated: true},
	}}
}

func (b *LinkBuilder) searchIndex(finders []service.Finder) IndexResource {
	links := Links{"self": {Href: b.Search()}}
	for _, f := range finders {
		links[f.Name] = Link{Href: b.Finder(f.Name, f.Param), Templated: true}
	}
	return IndexResource{Links: links}
}
