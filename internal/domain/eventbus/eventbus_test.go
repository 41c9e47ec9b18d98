package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tolk-server-go/internal/domain/eventbus/repository"
	"tolk-server-go/internal/platform/logging"
)

type memoryLog struct {
	mu     sync.Mutex
	events []repository.Event
}

func (m *memoryLog) Append(_ context.Context, e repository.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *memoryLog) ForSession(_ context.Context, id string) ([]repository.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []repository.Event
	for _, e := range m.events {
		if e.SessionID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memoryLog) Prune(context.Context, time.Time) (int64, error) { return 0, nil }

func TestRecorder_PersistsSubscribedTopics(t *testing.T) {
	bus := New()
	worker := NewAsyncWorker(1, 10, time.Second)
	worker.Start()
	defer worker.Stop()

	log := &memoryLog{}
	require.NoError(t, NewRecorder(log, worker, logging.Nop()).Subscribe(bus))

	bus.Publish(EventSessionStarted, SessionEventData{SessionID: "s1", Status: "created"})
	bus.Publish(EventTurnRecorded, TurnEventData{SessionID: "s1", From: "fr-FR", To: "da-DK"})
	bus.Publish(EventLanguageSettingsChanged, LanguageEventData{Codes: []string{"fr-FR"}, Action: "update"})
	bus.Publish("not:persisted", "ignored")
	worker.Wait()

	events, err := log.ForSession(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, EventSessionStarted, events[0].Type)
	assert.Equal(t, EventTurnRecorded, events[1].Type)
	assert.Len(t, log.events, 3)
}

func TestAsyncWorker_DropsWhenFull(t *testing.T) {
	worker := NewAsyncWorker(1, 1, time.Second)
	release := make(chan struct{})
	started := make(chan struct{})

	worker.Start()
	require.True(t, worker.Submit(func(context.Context) {
		close(started)
		<-release
	}))
	<-started
	require.True(t, worker.Submit(func(context.Context) {}))
	assert.False(t, worker.Submit(func(context.Context) {}))
	assert.EqualValues(t, 1, worker.Dropped())

	close(release)
	worker.Stop()
}

func TestAsyncWorker_RecoversPanics(t *testing.T) {
	worker := NewAsyncWorker(1, 4, time.Second)
	var recovered interface{}
	worker.OnPanic(func(r interface{}) { recovered = r })
	worker.Start()

	worker.Submit(func(context.Context) { panic("boom") })
	worker.Wait()
	worker.Stop()
	assert.Equal(t, "boom", recovered)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = Nop{}
	assert.NotPanics(t, func() { p.Publish(EventSessionFinished, SessionEventData{}) })
}
