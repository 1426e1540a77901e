package broker

import (
	"context"
	"fmt"
	"sync"

	"affiliate/kit/observability"
)

type Event interface {
	Name() string
}

// Keyed events carry the key used to order them on external transports.
type Keyed interface {
	PartitionKey() string
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) []error
}

type Subscriber interface {
	Subscribe(eventName string, h Handler)
}

type Handler func(ctx context.Context, evt Event) error

// Bus dispatches synchronously: handlers run in subscription order on the
// publisher's goroutine and every failure is returned to the publisher.
type Bus struct {
	logger *observability.Logger

	mu       sync.RWMutex
	handlers map[string][]Handler
	all      []Handler
}

func New(logger *observability.Logger) *Bus {
	return &Bus{logger: logger, handlers: make(map[string][]Handler)}
}

func (b *Bus) Subscribe(eventName string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], h)
}

// SubscribeAll registers h for every event. Such handlers run after the
// named ones.
func (b *Bus) SubscribeAll(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, h)
}

func (b *Bus) Publish(ctx context.Context, evt Event) []error {
	b.mu.RLock()
	hs := make([]Handler, 0, len(b.handlers[evt.Name()])+len(b.all))
	hs = append(hs, b.handlers[evt.Name()]...)
	hs = append(hs, b.all...)
	b.mu.RUnlock()

	var errs []error
	for i, h := range hs {
		if err := b.dispatch(ctx, evt, i, h); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (b *Bus) dispatch(ctx context.Context, evt Event, i int, h Handler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("broker handler panic", "layer", "broker", "event", evt.Name(), "handler_index", i, "panic", r)
			err = fmt.Errorf("broker: handler %d panicked on %s: %v", i, evt.Name(), r)
		}
	}()
	if err = h(ctx, evt); err != nil {
		b.logger.Error("broker handler error", "layer", "broker", "event", evt.Name(), "handler_index", i, "error", err.Error())
	}
	return err
}
