package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu       sync.Mutex
	messages [][]byte
	fail     bool
	closed   bool
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("broken pipe")
	}
	c.messages = append(c.messages, data)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub
}

func TestHub_BroadcastIsScopedToBar(t *testing.T) {
	hub := startHub(t)
	barA, barB := uuid.New(), uuid.New()
	connA, connB := &fakeConn{}, &fakeConn{}
	hub.Register <- &Client{Conn: connA, BarID: barA}
	hub.Register <- &Client{Conn: connB, BarID: barB}

	hub.Publish(barA, "stock_update", "movement_recorded", map[string]interface{}{"quantity": 15}, "entrée de 5")

	require.Eventually(t, func() bool { return connA.count() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, connB.count())

	var payload map[string]interface{}
	connA.mu.Lock()
	require.NoError(t, json.Unmarshal(connA.messages[0], &payload))
	connA.mu.Unlock()
	assert.Equal(t, "stock_update", payload["type"])
	assert.Equal(t, barA.String(), payload["bar_id"])
}

func TestHub_FailedWriteDropsClient(t *testing.T) {
	hub := startHub(t)
	barID := uuid.New()
	broken := &fakeConn{fail: true}
	hub.Register <- &Client{Conn: broken, BarID: barID}

	hub.Publish(barID, "order_update", "order_created", nil, "")

	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
	assert.True(t, broken.isClosed())
}

func TestHub_Unregister(t *testing.T) {
	hub := startHub(t)
	conn := &fakeConn{}
	client := &Client{Conn: conn, BarID: uuid.New()}
	hub.Register <- client
	hub.Unregister <- client

	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
	assert.True(t, conn.isClosed())
}

func TestHub_NilPublishIsNoop(t *testing.T) {
	var hub *Hub
	assert.NotPanics(t, func() {
		hub.Publish(uuid.New(), "stock_update", "x", nil, "")
	})
}
