package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/people-api/internal/api"
	"github.com/phrazzld/people-api/internal/api/middleware"
	"github.com/phrazzld/people-api/internal/domain"
	"github.com/phrazzld/people-api/internal/platform/memory"
	"github.com/phrazzld/people-api/internal/service"
	"github.com/phrazzld/people-api/internal/store"
)

// testServer serves the full router over a fresh in-memory store.
func testServer(t *testing.T, baseURL string) *httptest.Server {
	t.Helper()

	repo := service.NewPersonRepository(memory.NewPersonStore(nil), nil)
	return serverFor(t, repo, baseURL)
}

func serverFor(t *testing.T, repo api.PersonRepository, baseURL string) *httptest.Server {
	t.Helper()

	router := api.NewRouter(api.RouterConfig{
		Handler: api.NewPersonHandler(repo, api.NewLinkBuilder(baseURL), nil),
		Metrics: middleware.NewMetrics(),
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func createPerson(t *testing.T, srv *httptest.Server, body string) string {
	t.Helper()

	resp := do(t, srv, http.MethodPost, "/people", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	location := resp.Header.Get("Location")
	require.NotEmpty(t, location)
	return location
}

func TestPersonLifecycle(t *testing.T) {
	srv := testServer(t, "")

	// create
	resp := do(t, srv, http.MethodPost, "/people", `{"firstName":"Frodo","lastName":"Baggins"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "application/hal+json", resp.Header.Get("Content-Type"))
	location := resp.Header.Get("Location")
	assert.Contains(t, location, "/people/")

	created := decode(t, resp)
	assert.Equal(t, "Frodo", created["firstName"])
	links := created["_links"].(map[string]any)
	assert.Equal(t, location, links["self"].(map[string]any)["href"])
	assert.Equal(t, location, links["person"].(map[string]any)["href"])

	// retrieve
	resp = do(t, srv, http.MethodGet, location, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode(t, resp)
	assert.Equal(t, "Frodo", got["firstName"])
	assert.Equal(t, "Baggins", got["lastName"])
	assert.NotZero(t, got["id"])

	// replace
	resp = do(t, srv, http.MethodPut, location, `{"firstName":"Bilbo","lastName":"Baggins"}`)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	got = decode(t, do(t, srv, http.MethodGet, location, ""))
	assert.Equal(t, "Bilbo", got["firstName"])
	assert.Equal(t, "Baggins", got["lastName"])

	// partial update
	resp = do(t, srv, http.MethodPatch, location, `{"firstName":"Bilbo Jr."}`)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	got = decode(t, do(t, srv, http.MethodGet, location, ""))
	assert.Equal(t, "Bilbo Jr.", got["firstName"])
	assert.Equal(t, "Baggins", got["lastName"])

	// delete
	resp = do(t, srv, http.MethodDelete, location, "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = do(t, srv, http.MethodGet, location, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = do(t, srv, http.MethodDelete, location, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestIndex(t *testing.T) {
	srv := testServer(t, "")

	resp := do(t, srv, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode(t, resp)
	links := body["_links"].(map[string]any)
	people := links["people"].(map[string]any)
	assert.Equal(t, "/people{?page,size,sort}", people["href"])
	assert.Equal(t, true, people["templated"])
	assert.Equal(t, "/", links["self"].(map[string]any)["href"])
}

func TestSearchByLastName(t *testing.T) {
	srv := testServer(t, "")
	createPerson(t, srv, `{"firstName":"Frodo","lastName":"Baggins"}`)
	createPerson(t, srv, `{"firstName":"Sam","lastName":"Gamgee"}`)

	resp := do(t, srv, http.MethodGet, "/people/search/findByLastName?name=Baggins", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode(t, resp)
	people := body["_embedded"].(map[string]any)["people"].([]any)
	require.Len(t, people, 1)
	assert.Equal(t, "Frodo", people[0].(map[string]any)["firstName"])
	self := body["_links"].(map[string]any)["self"].(map[string]any)
	assert.Equal(t, "/people/search/findByLastName?name=Baggins", self["href"])

	// No match is an empty array, not an error.
	resp = do(t, srv, http.MethodGet, "/people/search/findByLastName?name=Sackville", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decode(t, resp)
	assert.Equal(t, []any{}, body["_embedded"].(map[string]any)["people"])

	resp = do(t, srv, http.MethodGet, "/people/search/findByEmail?email=x", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSearchIndex(t *testing.T) {
	srv := testServer(t, "")

	resp := do(t, srv, http.MethodGet, "/people/search", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	links := decode(t, resp)["_links"].(map[string]any)
	finder := links["findByLastName"].(map[string]any)
	assert.Equal(t, "/people/search/findByLastName{?name}", finder["href"])
	assert.Equal(t, true, finder["templated"])
	assert.Equal(t, "/people/search", links["self"].(map[string]any)["href"])
}

func TestListPeople(t *testing.T) {
	srv := testServer(t, "")
	for _, body := range []string{
		`{"firstName":"Frodo","lastName":"Baggins"}`,
		`{"firstName":"Sam","lastName":"Gamgee"}`,
		`{"firstName":"Pippin","lastName":"Took"}`,
	} {
		createPerson(t, srv, body)
	}

	t.Run("default page", func(t *testing.T) {
		resp := do(t, srv, http.MethodGet, "/people", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decode(t, resp)
		people := body["_embedded"].(map[string]any)["people"].([]any)
		require.Len(t, people, 3)
		assert.Equal(t, "Frodo", people[0].(map[string]any)["firstName"])

		page := body["page"].(map[string]any)
		assert.Equal(t, float64(20), page["size"])
		assert.Equal(t, float64(3), page["totalElements"])
		assert.Equal(t, float64(1), page["totalPages"])
		assert.Equal(t, float64(0), page["number"])

		links := body["_links"].(map[string]any)
		assert.Equal(t, "/people/search", links["search"].(map[string]any)["href"])
	})

	t.Run("sorted second page", func(t *testing.T) {
		resp := do(t, srv, http.MethodGet, "/people?page=1&size=2&sort=lastName,desc", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decode(t, resp)
		people := body["_embedded"].(map[string]any)["people"].([]any)
		require.Len(t, people, 1)
		assert.Equal(t, "Baggins", people[0].(map[string]any)["lastName"])

		links := body["_links"].(map[string]any)
		assert.Contains(t, links, "prev")
		assert.NotContains(t, links, "next")
	})

	t.Run("invalid paging", func(t *testing.T) {
		for _, query := range []string{"page=-1", "size=0", "size=abc", "sort=email"} {
			resp := do(t, srv, http.MethodGet, "/people?"+query, "")
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, query)
		}
	})
}

func TestCreatePersonEdgeCases(t *testing.T) {
	srv := testServer(t, "")

	t.Run("client id is ignored", func(t *testing.T) {
		resp := do(t, srv, http.MethodPost, "/people", `{"id":999,"firstName":"Merry"}`)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		body := decode(t, resp)
		assert.NotEqual(t, float64(999), body["id"])
		assert.Nil(t, body["lastName"])
		assert.Contains(t, body, "lastName", "null names are serialized")
	})

	tests := []struct {
		name string
		body string
	}{
		{name: "empty body", body: ""},
		{name: "malformed json", body: `{"firstName":`},
		{name: "wrong type", body: `{"firstName":42}`},
		{name: "name too long", body: `{"firstName":"` + strings.Repeat("x", domain.MaxNameLength+1) + `"}`},
		{name: "trailing garbage", body: `{"firstName":"Frodo"} trailing-garbage`},
		{name: "two objects", body: `{"firstName":"Frodo"}{"firstName":"Sam"}`},
		{name: "null body", body: `null`},
		{name: "array body", body: `[]`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := do(t, srv, http.MethodPost, "/people", tc.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			body := decode(t, resp)
			assert.NotEmpty(t, body["error"])
			assert.NotEmpty(t, body["trace_id"])
		})
	}
}

func TestUpdateEdgeCases(t *testing.T) {
	srv := testServer(t, "")
	location := createPerson(t, srv, `{"firstName":"Frodo","lastName":"Baggins"}`)

	t.Run("put without lastName clears it", func(t *testing.T) {
		resp := do(t, srv, http.MethodPut, location, `{"firstName":"Frodo"}`)
		require.Equal(t, http.StatusNoContent, resp.StatusCode)
		got := decode(t, do(t, srv, http.MethodGet, location, ""))
		assert.Nil(t, got["lastName"])
	})

	t.Run("patch with explicit null clears a field", func(t *testing.T) {
		resp := do(t, srv, http.MethodPatch, location, `{"firstName":null}`)
		require.Equal(t, http.StatusNoContent, resp.StatusCode)
		got := decode(t, do(t, srv, http.MethodGet, location, ""))
		assert.Nil(t, got["firstName"])
	})

	t.Run("absent person", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound,
			do(t, srv, http.MethodPut, "/people/4242", `{"firstName":"Nobody"}`).StatusCode)
		assert.Equal(t, http.StatusNotFound,
			do(t, srv, http.MethodPatch, "/people/4242", `{"firstName":"Nobody"}`).StatusCode)
	})

	t.Run("malformed bodies", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPut, location, `nope`).StatusCode)
		assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPatch, location, `[1]`).StatusCode)
		assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPatch, location, "").StatusCode)
		assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPut, location, `{"firstName":"X"} junk`).StatusCode)
		assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPut, location, `null`).StatusCode)
		assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPatch, location, `null`).StatusCode)
		assert.Equal(t, http.StatusBadRequest,
			do(t, srv, http.MethodPatch, location, `{"firstName":"X"}{"lastName":"Y"}`).StatusCode)
	})
}

func TestRoutingErrors(t *testing.T) {
	srv := testServer(t, "")

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{name: "non-numeric id", method: http.MethodGet, path: "/people/frodo", want: http.StatusNotFound},
		{name: "unknown path", method: http.MethodGet, path: "/hobbits", want: http.StatusNotFound},
		{name: "unsupported verb", method: http.MethodDelete, path: "/people", want: http.StatusMethodNotAllowed},
		{name: "health", method: http.MethodGet, path: "/health", want: http.StatusOK},
		{name: "metrics", method: http.MethodGet, path: "/metrics", want: http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := do(t, srv, tc.method, tc.path, "")
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}

func TestAbsoluteLinksWithBaseURL(t *testing.T) {
	srv := testServer(t, "http://people.example.com/")

	location := createPerson(t, srv, `{"firstName":"Frodo","lastName":"Baggins"}`)
	assert.True(t, strings.HasPrefix(location, "http://people.example.com/people/"), location)

	u, err := url.Parse(location)
	require.NoError(t, err)
	resp := do(t, srv, http.MethodGet, u.Path, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// brokenRepository fails every call with an internal error.
type brokenRepository struct {
	api.PersonRepository
}

func (brokenRepository) List(context.Context, store.ListOptions) ([]*domain.Person, int, error) {
	return nil, 0, errors.New("connection to postgres://admin:secret@db failed")
}

func TestInternalErrorsAreRedacted(t *testing.T) {
	srv := serverFor(t, brokenRepository{}, "")

	resp := do(t, srv, http.MethodGet, "/people", "")
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")
	assert.Contains(t, string(raw), "An unexpected error occurred")
}

func TestNewPersonHandlerPanics(t *testing.T) {
	assert.Panics(t, func() { api.NewPersonHandler(nil, api.NewLinkBuilder(""), nil) })
	assert.Panics(t, func() { api.NewPersonHandler(brokenRepository{}, nil, nil) })
}
