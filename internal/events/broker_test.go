package events

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBroker(t *testing.T) *Broker {
	t.Helper()
	b := NewBroker(slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { _ = b.Shutdown(context.Background()) })
	return b
}

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case event, ok := <-ch:
		require.True(t, ok, "channel closed")
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestBroker_DeliversToAllSubscribers(t *testing.T) {
	b := newTestBroker(t)
	ctx := context.Background()

	first, err := b.Subscribe(ctx)
	require.NoError(t, err)
	second, err := b.Subscribe(ctx)
	require.NoError(t, err)

	b.Publish(NewBookAddedEvent(BookAddedData{BookID: "bk-1", Title: "Dune"}))

	for _, ch := range []<-chan Event{first, second} {
		event := receive(t, ch)
		assert.Equal(t, TypeBookAdded, event.Type)
		data, ok := event.Data.(BookAddedData)
		require.True(t, ok)
		assert.Equal(t, "Dune", data.Title)
	}
}

func TestBroker_UnsubscribeOnContextCancel(t *testing.T) {
	b := newTestBroker(t)
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := b.Subscribe(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, b.SubscriberCount())

	cancel()

	assert.Eventually(t, func() bool { return b.SubscriberCount() == 0 }, 2*time.Second, 10*time.Millisecond)
	_, open := <-ch
	assert.False(t, open)
}

func TestBroker_SlowSubscriberDoesNotBlock(t *testing.T) {
	b := newTestBroker(t)

	slow, err := b.Subscribe(context.Background())
	require.NoError(t, err)

	for i := 0; i < subscriberSize*2; i++ {
		b.Publish(NewUserCreatedEvent(UserCreatedData{Username: "u"}))
	}

	fast, err := b.Subscribe(context.Background())
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return len(slow) == subscriberSize }, 2*time.Second, 10*time.Millisecond)

	b.Publish(NewAuthorUpdatedEvent(AuthorData{Name: "Tolkien"}))
	for {
		// fast may still see the tail of the user.created burst
		if receive(t, fast).Type == TypeAuthorUpdated {
			break
		}
	}
}

func TestBroker_ShutdownDrainsAndCloses(t *testing.T) {
	b := NewBroker(slog.New(slog.NewTextHandler(io.Discard, nil)))

	ch, err := b.Subscribe(context.Background())
	require.NoError(t, err)

	b.Publish(NewAuthorCreatedEvent(AuthorData{Name: "Le Guin"}))
	require.NoError(t, b.Shutdown(context.Background()))

	event, ok := <-ch
	require.True(t, ok)
	assert.Equal(t, TypeAuthorCreated, event.Type)

	_, ok = <-ch
	assert.False(t, ok)

	// Publishing and subscribing after shutdown are no-ops.
	b.Publish(NewAuthorCreatedEvent(AuthorData{Name: "late"}))
	late, err := b.Subscribe(context.Background())
	require.NoError(t, err)
	_, ok = <-late
	assert.False(t, ok)

	assert.NoError(t, b.Shutdown(context.Background()))
}
