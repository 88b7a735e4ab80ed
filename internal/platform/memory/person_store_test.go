package memory_test

import (
	"context"
	"testing"

	"github.com/phrazzld/people-api/internal/domain"
	"github.com/phrazzld/people-api/internal/platform/memory"
	"github.com/phrazzld/people-api/internal/store"
	"github.com/phrazzld/people-api/internal/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestPersonStoreContract(t *testing.T) {
	storetest.RunPersonStoreSuite(t, func(t *testing.T) store.PersonStore {
		return memory.NewPersonStore(nil)
	})
}

func TestDeleteAllKeepsCounter(t *testing.T) {
	s := memory.NewPersonStore(nil)
	first := storetest.MustCreate(t, s, "Frodo", "Baggins")

	require.NoError(t, s.DeleteAll(context.Background()))
	second := storetest.MustCreate(t, s, "Sam", "Gamgee")

	assert.Greater(t, second.ID, first.ID, "IDs must not be reused after DeleteAll")
}

func nullableName() *rapid.Generator[*string] {
	return rapid.Custom(func(t *rapid.T) *string {
		if rapid.Bool().Draw(t, "null") {
			return nil
		}
		s := rapid.StringN(0, 20, domain.MaxNameLength).Draw(t, "name")
		return &s
	})
}

// TestInsertGetProperty: get(insert(e).id) equals e apart from the assigned ID.
func TestInsertGetProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := memory.NewPersonStore(nil)
		ctx := context.Background()

		n := rapid.IntRange(1, 20).Draw(rt, "count")
		for i := 0; i < n; i++ {
			p := domain.NewPerson(nullableName().Draw(rt, "first"), nullableName().Draw(rt, "last"))
			want := p.Clone()

			if err := s.Create(ctx, p); err != nil {
				rt.Fatalf("create: %v", err)
			}
			if p.ID <= 0 {
				rt.Fatalf("assigned ID %d is not positive", p.ID)
			}

			got, err := s.GetByID(ctx, p.ID)
			if err != nil {
				rt.Fatalf("get: %v", err)
			}
			want.ID = p.ID
			if !want.Equal(got) {
				rt.Fatalf("got %+v want %+v", got, want)
			}
		}
	})
}

// TestFindByLastNameProperty: FindBy returns exactly the people whose last
// name equals the value, in insertion order.
func TestFindByLastNameProperty(t *testing.T) {
	lastNames := []string{"Baggins", "Gamgee", "Took", "Brandybuck"}

	rapid.Check(t, func(rt *rapid.T) {
		s := memory.NewPersonStore(nil)
		ctx := context.Background()

		var inserted []*domain.Person
		n := rapid.IntRange(0, 30).Draw(rt, "count")
		for i := 0; i < n; i++ {
			last := rapid.SampledFrom(lastNames).Draw(rt, "last")
			p := domain.NewPerson(domain.StringPtr("hobbit"), domain.StringPtr(last))
			if err := s.Create(ctx, p); err != nil {
				rt.Fatalf("create: %v", err)
			}
			inserted = append(inserted, p)
		}

		target := rapid.SampledFrom(append(lastNames, "Sackville")).Draw(rt, "target")
		found, err := s.FindBy(ctx, store.Criteria{Field: store.FieldLastName, Value: domain.StringPtr(target)})
		if err != nil {
			rt.Fatalf("find: %v", err)
		}

		var want []int64
		for _, p := range inserted {
			if *p.LastName == target {
				want = append(want, p.ID)
			}
		}
		if len(found) != len(want) {
			rt.Fatalf("found %d people, want %d", len(found), len(want))
		}
		for i, p := range found {
			if p.ID != want[i] {
				rt.Fatalf("result %d has ID %d, want %d", i, p.ID, want[i])
			}
		}
	})
}

// TestPatchProperty: a patch touching only firstName never changes lastName.
func TestPatchProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := memory.NewPersonStore(nil)
		ctx := context.Background()

		p := domain.NewPerson(nullableName().Draw(rt, "first"), nullableName().Draw(rt, "last"))
		if err := s.Create(ctx, p); err != nil {
			rt.Fatalf("create: %v", err)
		}

		patched, err := s.Patch(ctx, p.ID, domain.PersonPatch{
			FirstName: domain.SetTo(nullableName().Draw(rt, "newFirst")),
		})
		if err != nil {
			rt.Fatalf("patch: %v", err)
		}
		if !(&domain.Person{LastName: p.LastName}).Equal(&domain.Person{LastName: patched.LastName}) {
			rt.Fatalf("lastName changed from %v to %v", p.LastName, patched.LastName)
		}
	})
}
