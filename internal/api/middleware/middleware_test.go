package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/phrazzld/people-api/internal/api/shared"
	"github.com/phrazzld/people-api/internal/platform/logger"
)

func TestTraceMiddleware(t *testing.T) {
	buf, log := logger.SetupTestLogger(t)

	var seenTraceID string
	handler := TraceMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenTraceID = shared.GetTraceID(r.Context())
		logger.FromContext(r.Context()).Info("inside handler")
		w.WriteHeader(http.StatusNoContent)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/people", nil))

	require.NotEmpty(t, seenTraceID)
	assert.Equal(t, seenTraceID, w.Header().Get(TraceIDHeader))

	entries, err := buf.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, entry := range entries {
		assert.Equal(t, seenTraceID, entry["trace_id"])
	}
	assert.Equal(t, "request started", entries[0]["msg"])
}

func TestTraceMiddlewareJoinsIncomingTraceContext(t *testing.T) {
	previous := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(previous) })

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	const (
		traceID = "4bf92f3577b34da6a3ce929d0e0e4736"
		spanID  = "00f067aa0ba902b7"
	)

	var remote trace.SpanContext
	handler := TraceMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		remote = trace.SpanContextFromContext(r.Context())
		_, span := tp.Tracer("test").Start(r.Context(), "PersonRepository.get")
		span.End()
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/people/1", nil)
	req.Header.Set("traceparent", "00-"+traceID+"-"+spanID+"-01")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.True(t, remote.IsValid())
	assert.True(t, remote.IsRemote())
	assert.Equal(t, traceID, remote.TraceID().String())

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, traceID, spans[0].SpanContext().TraceID().String())
	assert.Equal(t, spanID, spans[0].Parent().SpanID().String())
}

func TestTraceMiddlewareWithoutTraceContext(t *testing.T) {
	var sc trace.SpanContext
	handler := TraceMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sc = trace.SpanContextFromContext(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/people", nil))
	assert.False(t, sc.IsValid())
}

func TestMetricsMiddleware(t *testing.T) {
	m := NewMetrics()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/people/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())

	for _, path := range []string{"/people/1", "/people/2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	text := string(body)

	assert.Contains(t, text,
		`people_api_http_requests_total{method="GET",route="/people/{id}",status="404"} 2`)
	assert.Contains(t, text, `people_api_http_request_duration_seconds_count{method="GET",route="/people/{id}"} 2`)
	assert.Contains(t, text, "go_goroutines")
}
