package testutil

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/dom/hydration-tracker/internal/websocket"
	gorillaWS "github.com/gorilla/websocket"
)

// WSClient is a test WebSocket client standing in for a browser tab
type WSClient struct {
	t        *testing.T
	conn     *gorillaWS.Conn
	messages chan *websocket.Message
	errors   chan error
	done     chan struct{}
	mu       sync.Mutex
}

// NewWSClient connects to url and waits until the hub has registered the client
func NewWSClient(t *testing.T, url string, hub *websocket.Hub) *WSClient {
	t.Helper()

	before := hub.ClientCount()

	dialer := gorillaWS.DefaultDialer
	dialer.HandshakeTimeout = 5 * time.Second

	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to connect to websocket: %v", err)
	}

	client := &WSClient{
		t:        t,
		conn:     conn,
		messages: make(chan *websocket.Message, 100),
		errors:   make(chan error, 10),
		done:     make(chan struct{}),
	}

	go client.readPump()

	t.Cleanup(func() {
		client.Close()
	})

	// Register is asynchronous to the upgrade
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() <= before {
		if time.Now().After(deadline) {
			t.Fatal("timeout waiting for websocket registration")
		}
		time.Sleep(5 * time.Millisecond)
	}

	return client
}

// readPump reads messages from the WebSocket connection
func (c *WSClient) readPump() {
	defer close(c.messages)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			case c.errors <- err:
			}
			return
		}

		var msg websocket.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.errors <- err
			continue
		}

		select {
		case c.messages <- &msg:
		case <-c.done:
			return
		}
	}
}

// Close closes the WebSocket connection gracefully
func (c *WSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return
	default:
		close(c.done)
		c.conn.WriteMessage(gorillaWS.CloseMessage, gorillaWS.FormatCloseMessage(gorillaWS.CloseNormalClosure, ""))
		c.conn.Close()
	}
}

// Send writes a message to the server
func (c *WSClient) Send(msgType websocket.MessageType, payload interface{}) {
	c.t.Helper()

	msg, err := websocket.NewMessage(msgType, payload)
	if err != nil {
		c.t.Fatalf("failed to build message: %v", err)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		c.t.Fatalf("failed to marshal message: %v", err)
	}

	c.mu.Lock()
	err = c.conn.WriteMessage(gorillaWS.TextMessage, data)
	c.mu.Unlock()

	if err != nil {
		c.t.Fatalf("failed to send message: %v", err)
	}
}

// AnswerPermission waits for a PERMISSION_REQUEST and answers it
func (c *WSClient) AnswerPermission(granted bool, timeout time.Duration) {
	c.t.Helper()

	var req websocket.PermissionRequestPayload
	c.ExpectPayload(websocket.MessageTypePermissionRequest, &req, timeout)

	c.Send(websocket.MessageTypePermissionResult, websocket.PermissionResultPayload{
		RequestID: req.RequestID,
		Granted:   granted,
	})
}

// ExpectMessage waits for a message of the specified type, skipping others
func (c *WSClient) ExpectMessage(msgType websocket.MessageType, timeout time.Duration) *websocket.Message {
	c.t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case msg := <-c.messages:
			if msg == nil {
				c.t.Fatalf("connection closed while waiting for %s", msgType)
			}
			if msg.Type == msgType {
				return msg
			}
		case err := <-c.errors:
			c.t.Fatalf("error while waiting for %s: %v", msgType, err)
		case <-deadline:
			c.t.Fatalf("timeout waiting for message type %s", msgType)
		}
	}
}

// ExpectPayload waits for a message of msgType and decodes its payload into v
func (c *WSClient) ExpectPayload(msgType websocket.MessageType, v interface{}, timeout time.Duration) {
	c.t.Helper()

	msg := c.ExpectMessage(msgType, timeout)
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		c.t.Fatalf("failed to decode %s payload: %v", msgType, err)
	}
}

// ExpectNotification waits for and decodes a NOTIFICATION message
func (c *WSClient) ExpectNotification(timeout time.Duration) *websocket.NotificationPayload {
	c.t.Helper()

	var payload websocket.NotificationPayload
	c.ExpectPayload(websocket.MessageTypeNotification, &payload, timeout)
	return &payload
}

// ExpectUserSwitched waits for a USER_SWITCHED message and returns the new user id
func (c *WSClient) ExpectUserSwitched(timeout time.Duration) string {
	c.t.Helper()

	var payload websocket.UserSwitchedPayload
	c.ExpectPayload(websocket.MessageTypeUserSwitched, &payload, timeout)
	return payload.UserID
}

// ExpectError waits for and decodes an ERROR message
func (c *WSClient) ExpectError(timeout time.Duration) *websocket.ErrorPayload {
	c.t.Helper()

	var payload websocket.ErrorPayload
	c.ExpectPayload(websocket.MessageTypeError, &payload, timeout)
	return &payload
}

// ExpectNoMessage verifies no messages are received within timeout
func (c *WSClient) ExpectNoMessage(timeout time.Duration) {
	c.t.Helper()

	select {
	case msg := <-c.messages:
		if msg != nil {
			c.t.Fatalf("unexpected message received: %s", msg.Type)
		}
	case <-time.After(timeout):
		// Expected - no message received
	}
}

// DrainMessages discards buffered messages until the channel settles.
func (c *WSClient) DrainMessages() {
	deadline := time.After(100 * time.Millisecond)
	for {
		select {
		case msg := <-c.messages:
			if msg == nil {
				return
			}
			deadline = time.After(50 * time.Millisecond)
		case <-deadline:
			return
		case <-c.done:
			return
		}
	}
}
