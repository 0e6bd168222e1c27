package audit

import "context"

// Sink receives audit events. Sinks must tolerate being called from the
// publisher's async worker goroutine.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Store is a Sink that can also be queried, used for the console's own
// recent-activity view and in tests.
type Store interface {
	Sink
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
