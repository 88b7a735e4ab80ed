package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/phrazzld/people-api/internal/domain"
	"github.com/phrazzld/people-api/internal/platform/logger"
	"github.com/phrazzld/people-api/internal/store"
)

// PersonStore keeps people in a map keyed by ID plus a slice recording
// insertion order. Mutations hold the write lock, reads share the read lock.
type PersonStore struct {
	mu     sync.RWMutex
	people map[int64]*domain.Person
	order  []int64
	nextID int64
	logger *slog.Logger
}

var _ store.PersonStore = (*PersonStore)(nil)

// NewPersonStore creates an empty store. If logger is nil, slog.Default() is used.
func NewPersonStore(logger *slog.Logger) *PersonStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PersonStore{
		people: make(map[int64]*domain.Person),
		logger: logger.With(slog.String("component", "memory_person_store")),
	}
}

// Create implements store.PersonStore.
func (s *PersonStore) Create(ctx context.Context, p *domain.Person) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := p.Validate(); err != nil {
		log.Warn("person validation failed during create", slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	stored := p.Clone()
	stored.ID = s.nextID
	s.people[stored.ID] = stored
	s.order = append(s.order, stored.ID)
	p.ID = stored.ID

	log.Debug("person created", slog.Int64("person_id", stored.ID))
	return nil
}

// GetByID implements store.PersonStore.
func (s *PersonStore) GetByID(ctx context.Context, id int64) (*domain.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.people[id]
	if !ok {
		logger.FromContextOrDefault(ctx, s.logger).Debug("person not found", slog.Int64("person_id", id))
		return nil, store.ErrPersonNotFound
	}
	return p.Clone(), nil
}

// Update implements store.PersonStore.
func (s *PersonStore) Update(ctx context.Context, p *domain.Person) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.people[p.ID]; !ok {
		return store.ErrPersonNotFound
	}
	s.people[p.ID] = p.Clone()

	logger.FromContextOrDefault(ctx, s.logger).Debug("person updated", slog.Int64("person_id", p.ID))
	return nil
}

// Patch implements store.PersonStore.
func (s *PersonStore) Patch(ctx context.Context, id int64, patch domain.PersonPatch) (*domain.Person, error) {
	if err := patch.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.people[id]
	if !ok {
		return nil, store.ErrPersonNotFound
	}
	patch.ApplyTo(p)

	logger.FromContextOrDefault(ctx, s.logger).Debug("person patched", slog.Int64("person_id", id))
	return p.Clone(), nil
}

// Delete implements store.PersonStore.
func (s *PersonStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.people[id]; !ok {
		return store.ErrPersonNotFound
	}
	delete(s.people, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	logger.FromContextOrDefault(ctx, s.logger).Debug("person deleted", slog.Int64("person_id", id))
	return nil
}

// DeleteAll implements store.PersonStore. The ID counter keeps running so
// identifiers are never reused.
func (s *PersonStore) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.people = make(map[int64]*domain.Person)
	s.order = nil

	logger.FromContextOrDefault(ctx, s.logger).Info("all people deleted")
	return nil
}

// List implements store.PersonStore.
func (s *PersonStore) List(ctx context.Context, opts store.ListOptions) ([]*domain.Person, int, error) {
	if opts.Sort.Field != "" && !opts.Sort.Field.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown sort field %q", store.ErrInvalidQuery, opts.Sort.Field)
	}

	s.mu.RLock()
	all := s.snapshot()
	s.mu.RUnlock()

	if opts.Sort != (store.Sort{}) {
		sortPeople(all, opts.Sort)
	}

	total := len(all)
	start := min(max(opts.Offset, 0), total)
	end := total
	if opts.Limit > 0 {
		end = min(start+opts.Limit, total)
	}

	page := make([]*domain.Person, 0, end-start)
	page = append(page, all[start:end]...)
	return page, total, nil
}

// FindBy implements store.PersonStore.
func (s *PersonStore) FindBy(ctx context.Context, c store.Criteria) ([]*domain.Person, error) {
	if !c.Field.Valid() {
		return nil, fmt.Errorf("%w: unknown field %q", store.ErrInvalidQuery, c.Field)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]*domain.Person, 0)
	for _, id := range s.order {
		p := s.people[id]
		if equalNullable(store.FieldValue(p, c.Field), c.Value) {
			matches = append(matches, p.Clone())
		}
	}

	logger.FromContextOrDefault(ctx, s.logger).Debug("people found",
		slog.String("field", string(c.Field)),
		slog.Int("count", len(matches)))
	return matches, nil
}

// snapshot copies every person in insertion order. Callers hold the read lock.
func (s *PersonStore) snapshot() []*domain.Person {
	out := make([]*domain.Person, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.people[id].Clone())
	}
	return out
}

// sortPeople orders by the sort field with nulls first, ties broken by ID.
func sortPeople(people []*domain.Person, by store.Sort) {
	sort.SliceStable(people, func(i, j int) bool {
		a, b := people[i], people[j]
		var c int
		if by.Field == store.FieldID || by.Field == "" {
			c = compareInt(a.ID, b.ID)
		} else {
			c = compareNullable(store.FieldValue(a, by.Field), store.FieldValue(b, by.Field))
		}
		if by.Descending {
			c = -c
		}
		if c == 0 {
			return a.ID < b.ID
		}
		return c < 0
	})
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareNullable(a, b *string) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	}
	return 0
}

func equalNullable(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
