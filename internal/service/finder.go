package service

import (
	"fmt"
	"net/url"
	"sort"

	"github.com/phrazzld/people-api/internal/store"
)

// Finder is a named equality lookup exposed under /people/search/{Name}.
// The value of query parameter Param is matched against Field.
type Finder struct {
	Name  string
	Param string
	Field store.Field
}

// FindByLastName matches ?name= against lastName.
var FindByLastName = Finder{Name: "findByLastName", Param: "name", Field: store.FieldLastName}

// Criteria builds the store lookup for params. A missing parameter yields a
// nil value, which matches people whose field is null.
func (f Finder) Criteria(params url.Values) store.Criteria {
	c := store.Criteria{Field: f.Field}
	if values, ok := params[f.Param]; ok && len(values) > 0 {
		v := values[0]
		c.Value = &v
	}
	return c
}

// FinderRegistry holds the finders available to Search.
type FinderRegistry struct {
	byName map[string]Finder
	sorted []Finder
}

// NewFinderRegistry validates and indexes finders. Names must be unique and
// non-empty, and each finder must target a known field.
func NewFinderRegistry(finders ...Finder) (*FinderRegistry, error) {
	r := &FinderRegistry{byName: make(map[string]Finder, len(finders))}
	for _, f := range finders {
		if f.Name == "" || f.Param == "" {
			return nil, fmt.Errorf("%w: name and param are required", ErrInvalidFinder)
		}
		if !f.Field.Valid() {
			return nil, fmt.Errorf("%w: %s targets unknown field %q", ErrInvalidFinder, f.Name, f.Field)
		}
		if _, dup := r.byName[f.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate name %s", ErrInvalidFinder, f.Name)
		}
		r.byName[f.Name] = f
		r.sorted = append(r.sorted, f)
	}
	sort.Slice(r.sorted, func(i, j int) bool { return r.sorted[i].Name < r.sorted[j].Name })
	return r, nil
}

// DefaultFinders returns the registry with findByLastName only.
func DefaultFinders() *FinderRegistry {
	r, err := NewFinderRegistry(FindByLastName)
	if err != nil {
		// ALLOW-PANIC: the default finder is a compile-time constant
		panic(err)
	}
	return r
}

// Lookup returns the finder registered under name.
func (r *FinderRegistry) Lookup(name string) (Finder, bool) {
	f, ok := r.byName[name]
	return f, ok
}

// All returns every finder ordered by name.
func (r *FinderRegistry) All() []Finder {
	out := make([]Finder, len(r.sorted))
	copy(out, r.sorted)
	return out
}
