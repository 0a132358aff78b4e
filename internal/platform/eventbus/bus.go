package eventbus

import (
	"context"
	"fmt"
	"slices"
	"sync"

	apperrors "worklens/internal/platform/errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Handler[E Event] func(ctx context.Context, event E) error

// Bus fans events out to subscribers without blocking the publisher.
// Every broadcast runs as its own errgroup; a failing or panicking handler
// is logged and never reaches its siblings or the caller.
type Bus[E Event] struct {
	mu       sync.Mutex
	handlers map[string][]Handler[E]
	inflight sync.WaitGroup
	logger   *zap.Logger
}

func New[E Event](logger *zap.Logger) *Bus[E] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus[E]{handlers: map[string][]Handler[E]{}, logger: logger}
}

func (b *Bus[E]) Subscribe(topic string, handler Handler[E]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], handler)
}

func (b *Bus[E]) Subscribers(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers[topic])
}

// Broadcast returns immediately. Handlers get a context that keeps the
// caller's values but not its cancellation.
func (b *Bus[E]) Broadcast(ctx context.Context, event E) {
	topic := event.Topic()
	b.mu.Lock()
	handlers := slices.Clone(b.handlers[topic])
	b.mu.Unlock()
	if len(handlers) == 0 {
		return
	}

	dispatchCtx := context.WithoutCancel(ctx)
	group := new(errgroup.Group)
	b.inflight.Add(1)
	for idx, handler := range handlers {
		group.Go(func() error {
			if err := b.dispatch(dispatchCtx, topic, idx, handler, event); err != nil {
				b.logger.Error("event handler failed", zap.String("topic", topic), zap.Int("subscriber", idx), zap.Error(err))
			}
			return nil
		})
	}
	go func() {
		defer b.inflight.Done()
		_ = group.Wait()
	}()
}

func (b *Bus[E]) dispatch(ctx context.Context, topic string, idx int, handler Handler[E], event E) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &apperrors.HandlerError{Topic: topic, Subscriber: idx, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	if herr := handler(ctx, event); herr != nil {
		return &apperrors.HandlerError{Topic: topic, Subscriber: idx, Err: herr}
	}
	return nil
}

// Drain blocks until every broadcast issued so far, and every broadcast
// issued by those handlers, has finished.
func (b *Bus[E]) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain event bus: %w", ctx.Err())
	}
}
