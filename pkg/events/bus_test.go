package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bigsis-chat/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMirror struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (m *recordingMirror) Publish(_ context.Context, e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return m.err
}

func TestBusDeliversByType(t *testing.T) {
	mirror := &recordingMirror{err: errors.New("nats down")}
	bus := NewBus(logger.NewNopLogger(), mirror)
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	learning, err := bus.Subscribe(ctx, TypeLearningTriggered)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, New(TypeTurnFinalized, map[string]interface{}{"chars": 12})))
	require.NoError(t, bus.Publish(ctx, New(TypeLearningTriggered, map[string]interface{}{"slug": "fils-tenseurs"})))

	select {
	case ev := <-learning:
		assert.Equal(t, TypeLearningTriggered, ev.EventType())
		assert.Equal(t, "fils-tenseurs", ev.Payload()["slug"])
		assert.False(t, ev.Timestamp().IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("learning event not delivered")
	}

	mirror.mu.Lock()
	defer mirror.mu.Unlock()
	assert.Len(t, mirror.events, 2)
}

func TestSubscriptionClosesWithContext(t *testing.T) {
	bus := NewBus(logger.NewNopLogger())
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := bus.Subscribe(ctx, TypeDiagnosticSaved)
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not close")
	}
}
