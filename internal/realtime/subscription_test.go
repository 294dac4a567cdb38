package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryList struct {
	mu    sync.Mutex
	names []string
}

func (l *memoryList) add(name string) {
	l.mu.Lock()
	l.names = append(l.names, name)
	l.mu.Unlock()
}

func (l *memoryList) load(_ context.Context) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.names...), nil
}

func next(t *testing.T, sub *Subscription[string]) []string {
	t.Helper()
	select {
	case snapshot, ok := <-sub.Events():
		require.True(t, ok, "subscription closed unexpectedly")
		return snapshot
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func TestSubscribe_InitialSnapshotThenReplacement(t *testing.T) {
	broker := NewBroker()
	topic := EmployeesTopic(uuid.New())
	list := &memoryList{names: []string{"Awa"}}

	sub := Subscribe(context.Background(), broker, topic, list.load)
	defer sub.Cancel()

	assert.Equal(t, []string{"Awa"}, next(t, sub))

	list.add("Bertrand")
	broker.Publish(topic)
	assert.Equal(t, []string{"Awa", "Bertrand"}, next(t, sub))
}

func TestSubscribe_OtherTopicsAreIgnored(t *testing.T) {
	broker := NewBroker()
	barID := uuid.New()
	list := &memoryList{}

	sub := Subscribe(context.Background(), broker, EmployeesTopic(barID), list.load)
	defer sub.Cancel()
	next(t, sub)

	broker.Publish(StockTopic(barID))

	select {
	case <-sub.Events():
		t.Fatal("unexpected snapshot for another topic")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscription_CancelClosesEvents(t *testing.T) {
	broker := NewBroker()
	topic := OrdersTopic(uuid.New())
	list := &memoryList{}

	sub := Subscribe(context.Background(), broker, topic, list.load)
	next(t, sub)

	sub.Cancel()
	sub.Cancel()

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-sub.Events():
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return broker.Watchers(topic) == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.NoError(t, sub.Err())
}

func TestSubscription_AllStopsOnBreak(t *testing.T) {
	broker := NewBroker()
	topic := StockTopic(uuid.New())
	list := &memoryList{names: []string{"Heineken"}}

	sub := Subscribe(context.Background(), broker, topic, list.load)

	var seen [][]string
	for snapshot := range sub.All() {
		seen = append(seen, snapshot)
		break
	}

	assert.Len(t, seen, 1)
	require.Eventually(t, func() bool { return broker.Watchers(topic) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestSubscription_LoadErrorEndsSubscription(t *testing.T) {
	broker := NewBroker()
	failure := errors.New("store unreachable")

	sub := Subscribe(context.Background(), broker, EmployeesTopic(uuid.New()), func(context.Context) ([]string, error) {
		return nil, failure
	})

	_, ok := <-sub.Events()
	assert.False(t, ok)
	assert.ErrorIs(t, sub.Err(), failure)
}
