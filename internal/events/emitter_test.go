package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/people-api/internal/platform/logger"
)

// MockEventHandler records the events it receives.
type MockEventHandler struct {
	mu           sync.Mutex
	HandledCount int
	LastEvent    *PersonEvent
	HandlerError error
}

func (m *MockEventHandler) HandleEvent(_ context.Context, event *PersonEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.HandledCount++
	m.LastEvent = event
	return m.HandlerError
}

func TestInMemoryEventEmitter(t *testing.T) {
	// Create a minimal logger that discards output
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))

	newEvent := func(t *testing.T) *PersonEvent {
		t.Helper()
		event, err := NewPersonEvent(PersonCreated, 1, map[string]string{"key": "value"})
		require.NoError(t, err)
		return event
	}

	t.Run("emit event with no handlers", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(discard)
		assert.NoError(t, emitter.EmitEvent(context.Background(), newEvent(t)))
	})

	t.Run("emit event with successful handlers", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(discard)
		handler1 := &MockEventHandler{}
		handler2 := &MockEventHandler{}
		emitter.RegisterHandler(handler1)
		emitter.RegisterHandler(handler2)

		event := newEvent(t)
		require.NoError(t, emitter.EmitEvent(context.Background(), event))

		assert.Equal(t, 1, handler1.HandledCount)
		assert.Equal(t, 1, handler2.HandledCount)
		assert.Equal(t, event, handler1.LastEvent)
		assert.Equal(t, event, handler2.LastEvent)
	})

	t.Run("emit event with failing handler", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(discard)
		failingHandler := &MockEventHandler{HandlerError: errors.New("handler error")}
		successHandler := &MockEventHandler{}
		emitter.RegisterHandler(failingHandler)
		emitter.RegisterHandler(successHandler)

		err := emitter.EmitEvent(context.Background(), newEvent(t))
		require.Error(t, err)
		assert.Equal(t, "handler error", err.Error())

		// Later handlers still receive the event
		assert.Equal(t, 1, failingHandler.HandledCount)
		assert.Equal(t, 1, successHandler.HandledCount)
	})

	t.Run("nil logger", func(t *testing.T) {
		assert.NotPanics(t, func() { NewInMemoryEventEmitter(nil) })
	})
}

func TestInMemoryEventEmitterConcurrentUse(t *testing.T) {
	emitter := NewInMemoryEventEmitter(nil)
	handler := &MockEventHandler{}
	emitter.RegisterHandler(handler)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			event, err := NewPersonEvent(PersonSaved, id, nil)
			if err == nil {
				_ = emitter.EmitEvent(context.Background(), event)
			}
		}(int64(i))
		if i%5 == 0 {
			emitter.RegisterHandler(&MockEventHandler{})
		}
	}
	wg.Wait()

	assert.Equal(t, 20, handler.HandledCount)
}

func TestLoggingHandler(t *testing.T) {
	buf, l := logger.SetupTestLogger(t)
	h := NewLoggingHandler(l)

	event, err := NewPersonEvent(PersonDeleted, 42, nil)
	require.NoError(t, err)
	require.NoError(t, h.HandleEvent(context.Background(), event))

	entries, err := buf.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "person event", entries[0]["msg"])
	assert.Equal(t, PersonDeleted, entries[0]["event_type"])
	assert.Equal(t, float64(42), entries[0]["person_id"])
	assert.Equal(t, "person_events", entries[0]["component"])
}
