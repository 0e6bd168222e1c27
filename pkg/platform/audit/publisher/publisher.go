// Package publisher fans audit events out to a queryable store and any
// number of additional sinks (e.g. the Kafka sink).
package publisher

import (
	"context"
	"log/slog"
	"sync"

	audit "pkdconsole/pkg/platform/audit"
)

// Publisher emits audit events. By default emission is synchronous; with
// WithAsyncBuffer events are queued and written by a worker goroutine so
// domain paths never block on audit I/O.
type Publisher struct {
	store  audit.Store
	sinks  []audit.Sink
	logger *slog.Logger

	queue chan audit.Event
	wg    sync.WaitGroup
	once  sync.Once
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer enables asynchronous emission with the given queue size.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.queue = make(chan audit.Event, size)
	}
}

// WithSink adds an additional sink next to the store.
func WithSink(sink audit.Sink) Option {
	return func(p *Publisher) {
		if sink != nil {
			p.sinks = append(p.sinks, sink)
		}
	}
}

// WithLogger sets the logger used for async write failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

// NewPublisher builds a publisher over the given store.
func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.queue != nil {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Emit records an event. In async mode a full queue falls back to a
// synchronous write rather than dropping the event.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if p.queue != nil {
		select {
		case p.queue <- event:
			return nil
		default:
		}
	}
	return p.write(ctx, event)
}

// List returns the most recent events from the backing store.
func (p *Publisher) List(ctx context.Context, limit int) ([]audit.Event, error) {
	return p.store.ListRecent(ctx, limit)
}

// Close drains the async queue and stops the worker.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.queue != nil {
			close(p.queue)
			p.wg.Wait()
		}
	})
}

func (p *Publisher) worker() {
	defer p.wg.Done()
	for event := range p.queue {
		if err := p.write(context.Background(), event); err != nil {
			p.logger.Error("audit write failed", "action", event.Action, "error", err)
		}
	}
}

func (p *Publisher) write(ctx context.Context, event audit.Event) error {
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	for _, sink := range p.sinks {
		if err := sink.Append(ctx, event); err != nil {
			// Secondary sinks are best effort; the store write succeeded.
			p.logger.Warn("audit sink write failed", "action", event.Action, "error", err)
		}
	}
	return nil
}
