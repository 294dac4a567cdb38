package realtime

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Topic names a standing query, for instance the employees of one bar.
type Topic string

func EmployeesTopic(barID uuid.UUID) Topic {
	return Topic(fmt.Sprintf("employees:%s", barID))
}

func StockTopic(barID uuid.UUID) Topic {
	return Topic(fmt.Sprintf("stock:%s", barID))
}

func OrdersTopic(barID uuid.UUID) Topic {
	return Topic(fmt.Sprintf("orders:%s", barID))
}

// Broker fans out "something changed" signals to the subscriptions of a topic.
// Signals carry no payload; subscribers reload their full snapshot.
type Broker struct {
	mu     sync.RWMutex
	nextID uint64
	topics map[Topic]map[uint64]chan struct{}
}

func NewBroker() *Broker {
	return &Broker{topics: make(map[Topic]map[uint64]chan struct{})}
}

// Publish never blocks; pending signals for the same watcher coalesce.
// A nil broker drops the signal.
func (b *Broker) Publish(topic Topic) {
	if b == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.topics[topic] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Watchers counts the live subscriptions on topic
func (b *Broker) Watchers(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}

func (b *Broker) watch(topic Topic) (uint64, <-chan struct{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	ch := make(chan struct{}, 1)
	if b.topics[topic] == nil {
		b.topics[topic] = make(map[uint64]chan struct{})
	}
	b.topics[topic][b.nextID] = ch
	return b.nextID, ch
}

func (b *Broker) unwatch(topic Topic, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.topics[topic], id)
	if len(b.topics[topic]) == 0 {
		delete(b.topics, topic)
	}
}
