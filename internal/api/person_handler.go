package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/phrazzld/people-api/internal/api/shared"
	"github.com/phrazzld/people-api/internal/domain"
	"github.com/phrazzld/people-api/internal/platform/logger"
	"github.com/phrazzld/people-api/internal/service"
	"github.com/phrazzld/people-api/internal/store"
)

// PersonRepository is the set of repository operations the HTTP layer
// exposes. *service.PersonRepository implements it.
type PersonRepository interface {
	List(ctx context.Context, opts store.ListOptions) ([]*domain.Person, int, error)
	Create(ctx context.Context, p *domain.Person) (*domain.Person, error)
	Get(ctx context.Context, id int64) (*domain.Person, error)
	Replace(ctx context.Context, id int64, p *domain.Person) error
	Patch(ctx context.Context, id int64, patch domain.PersonPatch) (*domain.Person, error)
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, name string, params url.Values) ([]*domain.Person, error)
	Finders() []service.Finder
}

var _ PersonRepository = (*service.PersonRepository)(nil)

// PersonHandler serves the people collection, its items and its search
// resources as HAL.
type PersonHandler struct {
	repo   PersonRepository
	links  *LinkBuilder
	logger *slog.Logger
}

// NewPersonHandler creates a new PersonHandler.
// It panics if repo or links is nil.
func NewPersonHandler(repo PersonRepository, links *LinkBuilder, logger *slog.Logger) *PersonHandler {
	if repo == nil {
		panic("repo cannot be nil")
	}
	if links == nil {
		panic("links cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PersonHandler{
		repo:   repo,
		links:  links,
		logger: logger.With(slog.String("component", "person_handler")),
	}
}

// Index handles GET /.
func (h *PersonHandler) Index(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithHAL(w, r, http.StatusOK, h.links.rootIndex())
}

// ListPeople handles GET /people.
func (h *PersonHandler) ListPeople(w http.ResponseWriter, r *http.Request) {
	page, err := parsePageRequest(r.URL.Query())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	people, total, err := h.repo.List(r.Context(), page.ListOptions())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	meta := page.metadata(total)
	shared.RespondWithHAL(w, r, http.StatusOK, CollectionResource{
		Embedded: h.links.embedPeople(people),
		Links:    h.links.collectionLinks(page, meta),
		Page:     &meta,
	})
}

// CreatePerson handles POST /people.
func (h *PersonHandler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req PersonRequest
	if err := h.decode(w, r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	created, err := h.repo.Create(r.Context(), req.ToPerson())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Debug("person created via API", slog.Int64("person_id", created.ID))
	resource := h.links.personResource(created)
	w.Header().Set("Location", resource.Links["self"].Href)
	shared.RespondWithHAL(w, r, http.StatusCreated, resource)
}

// GetPerson handles GET /people/{id}.
func (h *PersonHandler) GetPerson(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	p, err := h.repo.Get(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithHAL(w, r, http.StatusOK, h.links.personResource(p))
}

// ReplacePerson handles PUT /people/{id}.
func (h *PersonHandler) ReplacePerson(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req PersonRequest
	if err := h.decode(w, r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.repo.Replace(r.Context(), id, req.ToPerson()); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PatchPerson handles PATCH /people/{id}.
func (h *PersonHandler) PatchPerson(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req PatchRequest
	if err := h.decode(w, r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if _, err := h.repo.Patch(r.Context(), id, req.PersonPatch); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeletePerson handles DELETE /people/{id}.
func (h *PersonHandler) DeletePerson(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SearchIndex handles GET /people/search.
func (h *PersonHandler) SearchIndex(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithHAL(w, r, http.StatusOK, h.links.searchIndex(h.repo.Finders()))
}

// Search handles GET /people/search/{finder}.
func (h *PersonHandler) Search(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "finder")
	query := r.URL.Query()

	people, err := h.repo.Search(r.Context(), name, query)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithHAL(w, r, http.StatusOK, CollectionResource{
		Embedded: h.links.embedPeople(people),
		Links:    Links{"self": {Href: h.links.FinderQuery(name, query)}},
	})
}

// decode reads and validates a JSON body. Decoding failures are wrapped in
// ErrMalformedBody; validation failures keep their own error.
func (h *PersonHandler) decode(w http.ResponseWriter, r *http.Request, v any) error {
	if err := shared.DecodeJSON(w, r, v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedBody, err)
	}
	if err := shared.ValidateRequest(v); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	return nil
}
