package publisher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "pkdconsole/pkg/platform/audit"
	"pkdconsole/pkg/platform/audit/store/memory"
)

func TestPublisherSyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	event := audit.Event{
		Timestamp: time.Now().UTC(),
		Action:    string(audit.EventVerificationCompleted),
		SessionID: "s-1",
		Outcome:   "VALID",
	}
	require.NoError(t, pub.Emit(context.Background(), event))

	events, err := pub.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventVerificationCompleted), events[0].Action)
}

func TestPublisherAsyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(10))

	require.NoError(t, pub.Emit(context.Background(), audit.Event{
		Action: string(audit.EventVerificationSubmitted),
	}))

	// Close drains the queue, so the event must be visible afterwards.
	pub.Close()

	events, err := pub.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventVerificationSubmitted), events[0].Action)
}

type recordingSink struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recordingSink) Append(_ context.Context, event audit.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func TestPublisherFanOut(t *testing.T) {
	store := memory.NewInMemoryStore()
	sink := &recordingSink{}
	pub := NewPublisher(store, WithSink(sink))
	defer pub.Close()

	require.NoError(t, pub.Emit(context.Background(), audit.Event{
		Action: string(audit.EventQuickLookupPerformed),
	}))

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.events, 1)
	assert.Equal(t, string(audit.EventQuickLookupPerformed), sink.events[0].Action)
}

func TestListRecentNewestFirst(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	for _, action := range []string{"first", "second", "third"} {
		require.NoError(t, pub.Emit(context.Background(), audit.Event{Action: action}))
	}

	events, err := pub.List(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "third", events[0].Action)
	assert.Equal(t, "second", events[1].Action)
}
