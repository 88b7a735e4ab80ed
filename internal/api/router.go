package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/people-api/internal/api/middleware"
	"github.com/phrazzld/people-api/internal/api/shared"
)

// RouterConfig holds the dependencies of NewRouter. Metrics is optional.
type RouterConfig struct {
	Handler *PersonHandler
	Metrics *middleware.Metrics
	Logger  *slog.Logger
}

// NewRouter builds the routing table:
//
//	GET    /                          hypermedia index
//	GET    /people                    paged collection
//	POST   /people                    create
//	GET    /people/search             search index
//	GET    /people/search/{finder}    run a finder
//	GET    /people/{id}               read
//	PUT    /people/{id}               replace
//	PATCH  /people/{id}               partial update
//	DELETE /people/{id}               delete
//	GET    /health                    liveness
//	GET    /metrics                   Prometheus exposition
func NewRouter(cfg RouterConfig) *chi.Mux {
	if cfg.Handler == nil {
		panic("handler cannot be nil")
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	h := cfg.Handler

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.TraceMiddleware(log))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithError(w, r, http.StatusNotFound, "Resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error("failed to write health check response", slog.String("error", err.Error()))
		}
	})

	r.Get("/", h.Index)

	r.Route("/people", func(r chi.Router) {
		r.Get("/", h.ListPeople)
		r.Post("/", h.CreatePerson)

		r.Get("/search", h.SearchIndex)
		r.Get("/search/{finder}", h.Search)

		r.Get("/{id}", h.GetPerson)
		r.Put("/{id}", h.ReplacePerson)
		r.Patch("/{id}", h.PatchPerson)
		r.Delete("/{id}", h.DeletePerson)
	})

	return r
}
