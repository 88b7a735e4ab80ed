// Package storetest holds the behavioural contract every store.PersonStore
// implementation must satisfy. Backends call RunPersonStoreSuite from their
// own tests.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/people-api/internal/domain"
	"github.com/phrazzld/people-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty store. It is called once per subtest.
type Factory func(t *testing.T) store.PersonStore

// RunPersonStoreSuite runs the contract tests against stores built by newStore.
func RunPersonStoreSuite(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("Create assigns unique increasing IDs", func(t *testing.T) {
		s := newStore(t)
		ctx := testContext(t)

		var last int64
		for _, name := range []string{"Frodo", "Sam", "Merry"} {
			p := domain.NewPerson(domain.StringPtr(name), domain.StringPtr("Baggins"))
			require.NoError(t, s.Create(ctx, p))
			assert.Greater(t, p.ID, last, "IDs must be monotonic")
			last = p.ID
		}
	})

	t.Run("Create ignores caller supplied ID", func(t *testing.T) {
		s := newStore(t)
		ctx := testContext(t)

		first := mustCreate(t, s, "Frodo", "Baggins")
		p := &domain.Person{ID: first.ID, FirstName: domain.StringPtr("Bilbo")}
		require.NoError(t, s.Create(ctx, p))

		assert.NotEqual(t, first.ID, p.ID)
		got, err := s.GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, "Frodo", *got.FirstName, "existing person must be untouched")
	})

	t.Run("Create rejects over-long names", func(t *testing.T) {
		s := newStore(t)
		long := make([]byte, domain.MaxNameLength+1)
		for i := range long {
			long[i] = 'a'
		}

		err := s.Create(testContext(t), domain.NewPerson(domain.StringPtr(string(long)), nil))
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	})

	t.Run("GetByID round trips", func(t *testing.T) {
		s := newStore(t)
		created := mustCreate(t, s, "Frodo", "Baggins")
		nameless := domain.NewPerson(nil, nil)
		require.NoError(t, s.Create(testContext(t), nameless))

		got, err := s.GetByID(testContext(t), created.ID)
		require.NoError(t, err)
		assert.True(t, created.Equal(got), "got %+v want %+v", got, created)

		got, err = s.GetByID(testContext(t), nameless.ID)
		require.NoError(t, err)
		assert.Nil(t, got.FirstName)
		assert.Nil(t, got.LastName)
	})

	t.Run("GetByID unknown ID", func(t *testing.T) {
		s := newStore(t)

		_, err := s.GetByID(testContext(t), 424242)
		assert.ErrorIs(t, err, store.ErrPersonNotFound)
	})

	t.Run("Returned people are copies", func(t *testing.T) {
		s := newStore(t)
		created := mustCreate(t, s, "Frodo", "Baggins")

		got, err := s.GetByID(testContext(t), created.ID)
		require.NoError(t, err)
		*got.FirstName = "Gollum"

		again, err := s.GetByID(testContext(t), created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Frodo", *again.FirstName)
	})

	t.Run("Update replaces every field", func(t *testing.T) {
		s := newStore(t)
		created := mustCreate(t, s, "Frodo", "Baggins")

		replacement := &domain.Person{ID: created.ID, FirstName: domain.StringPtr("Bilbo")}
		require.NoError(t, s.Update(testContext(t), replacement))

		got, err := s.GetByID(testContext(t), created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, "Bilbo", *got.FirstName)
		assert.Nil(t, got.LastName, "full replace must clear omitted fields")
	})

	t.Run("Update unknown ID", func(t *testing.T) {
		s := newStore(t)

		err := s.Update(testContext(t), &domain.Person{ID: 424242, FirstName: domain.StringPtr("Bilbo")})
		assert.ErrorIs(t, err, store.ErrPersonNotFound)
	})

	t.Run("Patch leaves unsupplied fields", func(t *testing.T) {
		s := newStore(t)
		created := mustCreate(t, s, "Frodo", "Baggins")

		patched, err := s.Patch(testContext(t), created.ID, domain.PersonPatch{
			FirstName: domain.SetTo(domain.StringPtr("Bilbo Jr.")),
		})
		require.NoError(t, err)
		assert.Equal(t, "Bilbo Jr.", *patched.FirstName)
		assert.Equal(t, "Baggins", *patched.LastName)

		got, err := s.GetByID(testContext(t), created.ID)
		require.NoError(t, err)
		assert.True(t, patched.Equal(got))
	})

	t.Run("Patch with null clears a field", func(t *testing.T) {
		s := newStore(t)
		created := mustCreate(t, s, "Frodo", "Baggins")

		patched, err := s.Patch(testContext(t), created.ID, domain.PersonPatch{LastName: domain.SetTo(nil)})
		require.NoError(t, err)
		assert.Equal(t, "Frodo", *patched.FirstName)
		assert.Nil(t, patched.LastName)
	})

	t.Run("Empty patch returns the stored person", func(t *testing.T) {
		s := newStore(t)
		created := mustCreate(t, s, "Frodo", "Baggins")

		patched, err := s.Patch(testContext(t), created.ID, domain.PersonPatch{})
		require.NoError(t, err)
		assert.True(t, created.Equal(patched))
	})

	t.Run("Patch unknown ID", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Patch(testContext(t), 424242, domain.PersonPatch{FirstName: domain.SetTo(nil)})
		assert.ErrorIs(t, err, store.ErrPersonNotFound)

		_, err = s.Patch(testContext(t), 424242, domain.PersonPatch{})
		assert.ErrorIs(t, err, store.ErrPersonNotFound)
	})

	t.Run("Delete then get is not found", func(t *testing.T) {
		s := newStore(t)
		created := mustCreate(t, s, "Bilbo", "Baggins")

		require.NoError(t, s.Delete(testContext(t), created.ID))

		_, err := s.GetByID(testContext(t), created.ID)
		assert.ErrorIs(t, err, store.ErrPersonNotFound)

		err = s.Delete(testContext(t), created.ID)
		assert.ErrorIs(t, err, store.ErrPersonNotFound, "second delete must report not found")
	})

	t.Run("IDs are not reused after delete", func(t *testing.T) {
		s := newStore(t)
		first := mustCreate(t, s, "Bilbo", "Baggins")
		require.NoError(t, s.Delete(testContext(t), first.ID))

		second := mustCreate(t, s, "Frodo", "Baggins")
		assert.Greater(t, second.ID, first.ID)
	})

	t.Run("DeleteAll empties the store", func(t *testing.T) {
		s := newStore(t)
		mustCreate(t, s, "Frodo", "Baggins")
		mustCreate(t, s, "Sam", "Gamgee")

		require.NoError(t, s.DeleteAll(testContext(t)))

		people, total, err := s.List(testContext(t), store.ListOptions{})
		require.NoError(t, err)
		assert.Empty(t, people)
		assert.Zero(t, total)
	})

	t.Run("List pages in insertion order", func(t *testing.T) {
		s := newStore(t)
		frodo := mustCreate(t, s, "Frodo", "Baggins")
		sam := mustCreate(t, s, "Sam", "Gamgee")
		pippin := mustCreate(t, s, "Pippin", "Took")

		all, total, err := s.List(testContext(t), store.ListOptions{})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.Equal(t, []int64{frodo.ID, sam.ID, pippin.ID}, ids(all))

		page, total, err := s.List(testContext(t), store.ListOptions{Limit: 2, Offset: 1})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.Equal(t, []int64{sam.ID, pippin.ID}, ids(page))

		beyond, total, err := s.List(testContext(t), store.ListOptions{Limit: 2, Offset: 10})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.NotNil(t, beyond)
		assert.Empty(t, beyond)
	})

	t.Run("List sorts by field", func(t *testing.T) {
		s := newStore(t)
		frodo := mustCreate(t, s, "Frodo", "Baggins")
		pippin := mustCreate(t, s, "Pippin", "Took")
		sam := mustCreate(t, s, "Sam", "Gamgee")

		desc, _, err := s.List(testContext(t), store.ListOptions{
			Sort: store.Sort{Field: store.FieldLastName, Descending: true},
		})
		require.NoError(t, err)
		assert.Equal(t, []int64{pippin.ID, sam.ID, frodo.ID}, ids(desc))

		asc, _, err := s.List(testContext(t), store.ListOptions{
			Sort: store.Sort{Field: store.FieldFirstName},
		})
		require.NoError(t, err)
		assert.Equal(t, []int64{frodo.ID, pippin.ID, sam.ID}, ids(asc))
	})

	t.Run("List rejects unknown sort field", func(t *testing.T) {
		s := newStore(t)

		_, _, err := s.List(testContext(t), store.ListOptions{Sort: store.Sort{Field: "email"}})
		assert.ErrorIs(t, err, store.ErrInvalidQuery)
	})

	t.Run("FindBy last name in insertion order", func(t *testing.T) {
		s := newStore(t)
		frodo := mustCreate(t, s, "Frodo", "Baggins")
		mustCreate(t, s, "Sam", "Gamgee")
		bilbo := mustCreate(t, s, "Bilbo", "Baggins")

		found, err := s.FindBy(testContext(t), store.Criteria{
			Field: store.FieldLastName,
			Value: domain.StringPtr("Baggins"),
		})
		require.NoError(t, err)
		assert.Equal(t, []int64{frodo.ID, bilbo.ID}, ids(found))
		assert.Equal(t, "Frodo", *found[0].FirstName)
	})

	t.Run("FindBy with no match is empty", func(t *testing.T) {
		s := newStore(t)
		mustCreate(t, s, "Frodo", "Baggins")

		found, err := s.FindBy(testContext(t), store.Criteria{
			Field: store.FieldLastName,
			Value: domain.StringPtr("Sackville"),
		})
		require.NoError(t, err)
		assert.NotNil(t, found, "no match must be an empty slice, not nil")
		assert.Empty(t, found)
	})

	t.Run("FindBy nil value matches null", func(t *testing.T) {
		s := newStore(t)
		mustCreate(t, s, "Frodo", "Baggins")
		nameless := domain.NewPerson(domain.StringPtr("Gollum"), nil)
		require.NoError(t, s.Create(testContext(t), nameless))

		found, err := s.FindBy(testContext(t), store.Criteria{Field: store.FieldLastName})
		require.NoError(t, err)
		assert.Equal(t, []int64{nameless.ID}, ids(found))
	})

	t.Run("FindBy unknown field", func(t *testing.T) {
		s := newStore(t)

		_, err := s.FindBy(testContext(t), store.Criteria{Field: "email", Value: domain.StringPtr("x")})
		assert.ErrorIs(t, err, store.ErrInvalidQuery)
	})

	t.Run("Concurrent creates get distinct IDs", func(t *testing.T) {
		s := newStore(t)
		ctx := testContext(t)

		const workers, perWorker = 8, 5
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			seen = make(map[int64]bool)
			errs []error
		)
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < perWorker; i++ {
					p := domain.NewPerson(domain.StringPtr("Hobbit"), domain.StringPtr("Shire"))
					err := s.Create(ctx, p)
					mu.Lock()
					if err != nil {
						errs = append(errs, err)
					} else {
						seen[p.ID] = true
					}
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		require.Empty(t, errs)
		assert.Len(t, seen, workers*perWorker)
	})

	t.Run("Concurrent patches do not lose updates", func(t *testing.T) {
		s := newStore(t)
		ctx := testContext(t)
		created := mustCreate(t, s, "Frodo", "Baggins")

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := s.Patch(ctx, created.ID, domain.PersonPatch{FirstName: domain.SetTo(domain.StringPtr("Bilbo"))})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := s.Patch(ctx, created.ID, domain.PersonPatch{LastName: domain.SetTo(domain.StringPtr("Took"))})
			assert.NoError(t, err)
		}()
		wg.Wait()

		got, err := s.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Bilbo", *got.FirstName)
		assert.Equal(t, "Took", *got.LastName)
	})
}

// MustCreate stores a person with the given names and returns it.
func MustCreate(t *testing.T, s store.PersonStore, first, last string) *domain.Person {
	t.Helper()
	return mustCreate(t, s, first, last)
}

func mustCreate(t *testing.T, s store.PersonStore, first, last string) *domain.Person {
	t.Helper()

	p := domain.NewPerson(domain.StringPtr(first), domain.StringPtr(last))
	require.NoError(t, s.Create(testContext(t), p))
	require.NotZero(t, p.ID)
	return p
}

func ids(people []*domain.Person) []int64 {
	out := make([]int64, 0, len(people))
	for _, p := range people {
		out = append(out, p.ID)
	}
	return out
}

func testContext(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}
