package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/listenupapp/catalog-server/internal/events"
	"github.com/listenupapp/catalog-server/internal/logger"
)

// EventBrokerHandle wraps the event broker with its context for lifecycle management.
type EventBrokerHandle struct {
	*events.Broker
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *EventBrokerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Broker.Shutdown(ctx)
}

// ProvideEventBroker provides the catalog event broker with a debug log subscriber attached.
func ProvideEventBroker(i do.Injector) (*EventBrokerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	broker := events.NewBroker(log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	if err := events.LogSubscriber(ctx, broker, log.Logger); err != nil {
		cancel()
		return nil, err
	}

	log.Info("Event broker started")

	return &EventBrokerHandle{
		Broker: broker,
		cancel: cancel,
	}, nil
}
