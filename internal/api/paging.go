package api

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/phrazzld/people-api/internal/store"
)

// Paging defaults.
const (
	DefaultPageSize = 20
	MaxPageSize     = 1000
)

// PageRequest is the parsed page, size and sort query parameters.
type PageRequest struct {
	Page int
	Size int
	Sort store.Sort
}

// parsePageRequest reads page (0-based), size and sort ("field[,asc|desc]")
// from q. Absent parameters take their defaults.
func parsePageRequest(q url.Values) (PageRequest, error) {
	req := PageRequest{Size: DefaultPageSize}

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 0 {
			return PageRequest{}, fmt.Errorf("%w: page %q", ErrInvalidPaging, raw)
		}
		req.Page = page
	}

	if raw := q.Get("size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 || size > MaxPageSize {
			return PageRequest{}, fmt.Errorf("%w: size %q", ErrInvalidPaging, raw)
		}
		req.Size = size
	}

	if req.Page > math.MaxInt/req.Size {
		return PageRequest{}, fmt.Errorf("%w: page %d out of range", ErrInvalidPaging, req.Page)
	}

	if raw := q.Get("sort"); raw != "" {
		sort, err := parseSort(raw)
		if err != nil {
			return PageRequest{}, err
		}
		req.Sort = sort
	}

	return req, nil
}

func parseSort(raw string) (store.Sort, error) {
	name, direction, hasDirection := strings.Cut(raw, ",")

	field, err := store.ParseField(strings.TrimSpace(name))
	if err != nil {
		return store.Sort{}, fmt.Errorf("%w: %w", ErrInvalidPaging, err)
	}

	sort := store.Sort{Field: field}
	if hasDirection {
		switch strings.ToLower(strings.TrimSpace(direction)) {
		case "asc":
		case "desc":
			sort.Descending = true
		default:
			return store.Sort{}, fmt.Errorf("%w: sort direction %q", ErrInvalidPaging, direction)
		}
	}
	return sort, nil
}

// ListOptions converts the request into a store query.
func (p PageRequest) ListOptions() store.ListOptions {
	return store.ListOptions{
		Limit:  p.Size,
		Offset: p.Page * p.Size,
		Sort:   p.Sort,
	}
}

// sortParam renders the sort back into query form, or "" when unsorted.
func (p PageRequest) sortParam() string {
	if p.Sort.Field == "" {
		return ""
	}
	if p.Sort.Descending {
		return string(p.Sort.Field) + ",desc"
	}
	return string(p.Sort.Field) + ",asc"
}

// metadata describes the page given the total number of people.
func (p PageRequest) metadata(total int) PageMetadata {
	return PageMetadata{
		Size:          p.Size,
		TotalElements: total,
		TotalPages:    (total + p.Size - 1) / p.Size,
		Number:        p.Page,
	}
}

// collectionLinks builds self and search links plus first, prev, next and
// last when the collection spans more than one page.
func (b *LinkBuilder) collectionLinks(p PageRequest, meta PageMetadata) Links {
	sort := p.sortParam()
	links := Links{
		"self":   {Href: b.PeoplePage(p.Page, p.Size, sort)},
		"search": {Href: b.Search()},
	}
	if meta.TotalPages > 1 {
		links["first"] = Link{Href: b.PeoplePage(0, p.Size, sort)}
		links["last"] = Link{Href: b.PeoplePage(meta.TotalPages-1, p.Size, sort)}
	}
	if p.Page > 0 && meta.TotalPages > 0 {
		links["prev"] = Link{Href: b.PeoplePage(min(p.Page, meta.TotalPages)-1, p.Size, sort)}
	}
	if p.Page+1 < meta.TotalPages {
		links["next"] = Link{Href: b.PeoplePage(p.Page+1, p.Size, sort)}
	}
	return links
}
