package service

import (
	"context"
	"log/slog"
	"net/url"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/phrazzld/people-api/internal/domain"
	"github.com/phrazzld/people-api/internal/events"
	"github.com/phrazzld/people-api/internal/platform/logger"
	"github.com/phrazzld/people-api/internal/store"
)

const tracerName = "github.com/phrazzld/people-api/internal/service"

// PersonRepository exposes person CRUD and the registered finders over a
// store.PersonStore.
type PersonRepository struct {
	store   store.PersonStore
	finders *FinderRegistry
	tracer  trace.Tracer
	emitter events.EventEmitter
	logger  *slog.Logger
}

// Option configures a PersonRepository.
type Option func(*PersonRepository)

// WithFinders replaces the default finder registry.
func WithFinders(finders *FinderRegistry) Option {
	return func(r *PersonRepository) { r.finders = finders }
}

// WithTracer sets the tracer used for operation spans. The default comes
// from the global OpenTelemetry provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *PersonRepository) { r.tracer = tracer }
}

// WithEmitter publishes a lifecycle event after every successful create,
// save and delete.
func WithEmitter(emitter events.EventEmitter) Option {
	return func(r *PersonRepository) { r.emitter = emitter }
}

// NewPersonRepository creates a repository over s. It panics if s is nil.
// If logger is nil, slog.Default() is used.
func NewPersonRepository(s store.PersonStore, logger *slog.Logger, opts ...Option) *PersonRepository {
	if s == nil {
		panic("store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &PersonRepository{
		store:   s,
		finders: DefaultFinders(),
		tracer:  otel.Tracer(tracerName),
		logger:  logger.With(slog.String("component", "person_repository")),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// List returns one page of people and the total count.
func (r *PersonRepository) List(ctx context.Context, opts store.ListOptions) ([]*domain.Person, int, error) {
	ctx, span := r.start(ctx, "list",
		attribute.Int("page.limit", opts.Limit),
		attribute.Int("page.offset", opts.Offset),
		attribute.String("sort.field", string(opts.Sort.Field)))
	defer span.End()

	people, total, err := r.store.List(ctx, opts)
	if err != nil {
		return nil, 0, r.fail(ctx, span, "list", "failed to list people", err)
	}

	span.SetAttributes(attribute.Int("result.count", len(people)))
	return people, total, nil
}

// Create stores p under a newly assigned ID and returns it. Any ID already
// on p is discarded.
func (r *PersonRepository) Create(ctx context.Context, p *domain.Person) (*domain.Person, error) {
	ctx, span := r.start(ctx, "create")
	defer span.End()

	created := p.Clone()
	created.ID = 0
	if err := r.store.Create(ctx, created); err != nil {
		return nil, r.fail(ctx, span, "create", "failed to create person", err)
	}

	span.SetAttributes(attribute.Int64("person.id", created.ID))
	r.log(ctx).Info("person created", slog.Int64("person_id", created.ID))
	r.emit(ctx, events.PersonCreated, created.ID, created)
	return created, nil
}

// Get returns the person with the given ID.
func (r *PersonRepository) Get(ctx context.Context, id int64) (*domain.Person, error) {
	ctx, span := r.start(ctx, "get", attribute.Int64("person.id", id))
	defer span.End()

	p, err := r.store.GetByID(ctx, id)
	if err != nil {
		return nil, r.fail(ctx, span, "get", "failed to get person", err)
	}
	return p, nil
}

// Replace overwrites every field of the person with the given ID with the
// values in p. The path ID wins over any ID in p.
func (r *PersonRepository) Replace(ctx context.Context, id int64, p *domain.Person) error {
	ctx, span := r.start(ctx, "replace", attribute.Int64("person.id", id))
	defer span.End()

	replacement := p.Clone()
	replacement.ID = id
	if err := r.store.Update(ctx, replacement); err != nil {
		return r.fail(ctx, span, "replace", "failed to replace person", err)
	}

	r.log(ctx).Info("person replaced", slog.Int64("person_id", id))
	r.emit(ctx, events.PersonSaved, id, replacement)
	return nil
}

// Patch merges the supplied fields into the person with the given ID.
func (r *PersonRepository) Patch(ctx context.Context, id int64, patch domain.PersonPatch) (*domain.Person, error) {
	ctx, span := r.start(ctx, "patch",
		attribute.Int64("person.id", id),
		attribute.Bool("patch.first_name", patch.FirstName.Set),
		attribute.Bool("patch.last_name", patch.LastName.Set))
	defer span.End()

	p, err := r.store.Patch(ctx, id, patch)
	if err != nil {
		return nil, r.fail(ctx, span, "patch", "failed to patch person", err)
	}

	r.log(ctx).Info("person patched", slog.Int64("person_id", id))
	r.emit(ctx, events.PersonSaved, id, p)
	return p, nil
}

// Delete removes the person with the given ID.
func (r *PersonRepository) Delete(ctx context.Context, id int64) error {
	ctx, span := r.start(ctx, "delete", attribute.Int64("person.id", id))
	defer span.End()

	if err := r.store.Delete(ctx, id); err != nil {
		return r.fail(ctx, span, "delete", "failed to delete person", err)
	}

	r.log(ctx).Info("person deleted", slog.Int64("person_id", id))
	r.emit(ctx, events.PersonDeleted, id, nil)
	return nil
}

// DeleteAll removes every person.
func (r *PersonRepository) DeleteAll(ctx context.Context) error {
	ctx, span := r.start(ctx, "delete_all")
	defer span.End()

	if err := r.store.DeleteAll(ctx); err != nil {
		return r.fail(ctx, span, "delete_all", "failed to delete all people", err)
	}
	return nil
}

// Search runs the finder registered under name with the given query
// parameters. It returns ErrFinderNotFound for an unknown name and an empty
// slice when nothing matches.
func (r *PersonRepository) Search(ctx context.Context, name string, params url.Values) ([]*domain.Person, error) {
	ctx, span := r.start(ctx, "search", attribute.String("finder.name", name))
	defer span.End()

	finder, ok := r.finders.Lookup(name)
	if !ok {
		r.log(ctx).Debug("unknown finder", slog.String("finder", name))
		return nil, r.fail(ctx, span, "search", "unknown finder", ErrFinderNotFound)
	}

	people, err := r.store.FindBy(ctx, finder.Criteria(params))
	if err != nil {
		return nil, r.fail(ctx, span, "search", "failed to run finder", err)
	}

	span.SetAttributes(attribute.Int("result.count", len(people)))
	return people, nil
}

// Finders lists the registered finders ordered by name.
func (r *PersonRepository) Finders() []Finder {
	return r.finders.All()
}

func (r *PersonRepository) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return r.tracer.Start(ctx, "PersonRepository."+op, trace.WithAttributes(attrs...))
}

func (r *PersonRepository) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, r.logger)
}

// emit publishes an event for a change that has already been stored.
// Handler failures are logged and do not fail the operation.
func (r *PersonRepository) emit(ctx context.Context, eventType string, id int64, p *domain.Person) {
	if r.emitter == nil {
		return
	}

	var payload any
	if p != nil {
		payload = p
	}
	event, err := events.NewPersonEvent(eventType, id, payload)
	if err == nil {
		err = r.emitter.EmitEvent(ctx, event)
	}
	if err != nil {
		r.log(ctx).Warn("failed to publish person event",
			slog.String("event_type", eventType),
			slog.Int64("person_id", id),
			slog.String("error", err.Error()))
	}
}

// fail records err on the span and wraps it. Not-found results are expected
// outcomes, so they do not mark the span as failed.
func (r *PersonRepository) fail(ctx context.Context, span trace.Span, op, msg string, err error) error {
	if store.IsNotFoundError(err) {
		span.SetAttributes(attribute.Bool("not_found", true))
	} else {
		span.RecordError(err)
		span.SetStatus(codes.Error, msg)
		r.log(ctx).Debug(msg, slog.String("operation", op), slog.String("error", err.Error()))
	}
	return NewRepositoryError(op, msg, err)
}
