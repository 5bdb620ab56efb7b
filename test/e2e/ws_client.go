package e2e

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/remedy/pkg/events"
)

// WSClient is a test WebSocket client speaking the dashboard protocol:
// subscribe to channels, collect every received message, filter by type.
type WSClient struct {
	conn *websocket.Conn

	mu       sync.Mutex
	messages []map[string]any

	done chan struct{}
	t    *testing.T
}

// NewWSClient dials the app's WebSocket endpoint and starts collecting
// messages. The connection closes via t.Cleanup.
func NewWSClient(t *testing.T, app *TestApp) *WSClient {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, app.WSURL, nil)
	require.NoError(t, err)

	c := &WSClient{
		conn: conn,
		done: make(chan struct{}),
		t:    t,
	}
	go c.readLoop()

	t.Cleanup(func() {
		_ = conn.Close(websocket.StatusNormalClosure, "test done")
		<-c.done
	})
	return c
}

func (c *WSClient) readLoop() {
	defer close(c.done)
	for {
		_, data, err := c.conn.Read(context.Background())
		if err != nil {
			return
		}
		var msg map[string]any
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		c.mu.Lock()
		c.messages = append(c.messages, msg)
		c.mu.Unlock()
	}
}

// Subscribe sends a subscribe request and waits for the confirmation.
func (c *WSClient) Subscribe(t *testing.T, channel string) {
	t.Helper()

	c.send(t, events.ClientMessage{Action: "subscribe", Channel: channel})
	awaitCondition(t, 5*time.Second, 20*time.Millisecond, "subscription confirmed for "+channel, func() bool {
		for _, msg := range c.Messages() {
			if msg["type"] == "subscription.confirmed" && msg["channel"] == channel {
				return true
			}
		}
		return false
	})
}

func (c *WSClient) send(t *testing.T, msg events.ClientMessage) {
	t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.conn.Write(ctx, websocket.MessageText, data))
}

// Messages returns a snapshot of everything received so far.
func (c *WSClient) Messages() []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]map[string]any(nil), c.messages...)
}

// MessagesOfType returns received messages whose "type" field matches.
func (c *WSClient) MessagesOfType(eventType string) []map[string]any {
	var out []map[string]any
	for _, msg := range c.Messages() {
		if msg["type"] == eventType {
			out = append(out, msg)
		}
	}
	return out
}

// AwaitMessage waits until a message of the given type arrives and returns
// the first one.
func (c *WSClient) AwaitMessage(t *testing.T, eventType string, timeout time.Duration) map[string]any {
	t.Helper()
	awaitCondition(t, timeout, 50*time.Millisecond, "message of type "+eventType, func() bool {
		return len(c.MessagesOfType(eventType)) > 0
	})
	return c.MessagesOfType(eventType)[0]
}
