package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/listenupapp/catalog-server/internal/id"
)

const (
	queueSize      = 256
	subscriberSize = 64
)

// Publisher is the write side of the broker, as seen by services.
type Publisher interface {
	Publish(event Event)
}

type subscriber struct {
	id     string
	events chan Event
	since  time.Time
}

// Broker fans published events out to subscribers. Publish never blocks: a full
// queue or a full subscriber buffer drops the event and logs it.
type Broker struct {
	logger      *slog.Logger
	queue       chan Event
	subscribers map[string]*subscriber
	wg          sync.WaitGroup
	mu          sync.RWMutex

	// Protected by shutdownMu
	shutdownMu sync.RWMutex
	shutdown   bool
}

// NewBroker creates a broker and starts its fan-out loop.
func NewBroker(logger *slog.Logger) *Broker {
	b := &Broker{
		logger:      logger,
		queue:       make(chan Event, queueSize),
		subscribers: make(map[string]*subscriber),
	}

	b.wg.Add(1)
	go b.run()

	return b
}

func (b *Broker) run() {
	defer b.wg.Done()
	for event := range b.queue {
		b.broadcast(event)
	}
	b.closeAll()
}

// Publish queues an event for delivery.
func (b *Broker) Publish(event Event) {
	// Held through the send so Shutdown cannot close the queue underneath us.
	b.shutdownMu.RLock()
	defer b.shutdownMu.RUnlock()

	if b.shutdown {
		return
	}

	select {
	case b.queue <- event:
	default:
		b.logger.Error("event queue full, dropping event",
			slog.String("event_type", string(event.Type)))
	}
}

// Subscribe registers a subscriber. The returned channel is closed when ctx is
// done or the broker shuts down.
func (b *Broker) Subscribe(ctx context.Context) (<-chan Event, error) {
	subID, err := id.Generate("sub")
	if err != nil {
		return nil, err
	}

	sub := &subscriber{
		id:     subID,
		events: make(chan Event, subscriberSize),
		since:  time.Now(),
	}

	b.shutdownMu.RLock()
	if b.shutdown {
		b.shutdownMu.RUnlock()
		close(sub.events)
		return sub.events, nil
	}
	b.mu.Lock()
	b.subscribers[sub.id] = sub
	total := len(b.subscribers)
	b.mu.Unlock()
	b.shutdownMu.RUnlock()

	b.logger.Debug("event subscriber added",
		slog.String("subscriber_id", sub.id),
		slog.Int("total_subscribers", total))

	go func() {
		<-ctx.Done()
		b.unsubscribe(sub.id)
	}()

	return sub.events, nil
}

func (b *Broker) unsubscribe(subID string) {
	b.mu.Lock()
	sub, ok := b.subscribers[subID]
	if !ok {
		b.mu.Unlock()
		return
	}
	delete(b.subscribers, subID)
	b.mu.Unlock()

	close(sub.events)

	b.logger.Debug("event subscriber removed",
		slog.String("subscriber_id", subID),
		slog.Duration("duration", time.Since(sub.since)))
}

func (b *Broker) broadcast(event Event) {
	var delivered, dropped int

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subscribers {
		select {
		case sub.events <- event:
			delivered++
		default:
			dropped++
			b.logger.Warn("dropped event for slow subscriber",
				slog.String("subscriber_id", sub.id),
				slog.String("event_type", string(event.Type)))
		}
	}

	b.logger.Debug("event broadcast",
		slog.String("event_type", string(event.Type)),
		slog.Group("stats",
			slog.Int("delivered", delivered),
			slog.Int("dropped", dropped)))
}

// SubscriberCount returns the number of live subscribers.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Shutdown stops accepting events, delivers what is queued and closes every
// subscriber channel. It returns ctx.Err() if draining outlives ctx.
func (b *Broker) Shutdown(ctx context.Context) error {
	b.shutdownMu.Lock()
	if b.shutdown {
		b.shutdownMu.Unlock()
		return nil
	}
	b.shutdown = true
	close(b.queue)
	b.shutdownMu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("event broker shutdown complete")
		return nil
	case <-ctx.Done():
		b.logger.Warn("event broker drain timeout, some events may be lost")
		return ctx.Err()
	}
}

func (b *Broker) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for subID, sub := range b.subscribers {
		close(sub.events)
		delete(b.subscribers, subID)
	}
}

// LogSubscriber logs every event at debug level until ctx is done.
func LogSubscriber(ctx context.Context, b *Broker, logger *slog.Logger) error {
	ch, err := b.Subscribe(ctx)
	if err != nil {
		return err
	}
	go func() {
		for event := range ch {
			logger.Debug("catalog event",
				slog.String("event_type", string(event.Type)),
				slog.Any("data", event.Data))
		}
	}()
	return nil
}
