package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/dom/hydration-tracker/internal/notify"
	"github.com/google/uuid"
)

var ErrHubStopped = errors.New("hub stopped")

// Hub fans tracker events out to connected browser tabs and relays their answers
// to permission requests. It implements notify.Platform.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	stop       chan struct{}
	done       chan struct{} // closed when Run() exits
	stopOnce   sync.Once
	stopped    bool

	// pending permission requests by request id
	pending map[string]chan bool

	mu sync.RWMutex
}

var _ notify.Platform = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		pending:    make(map[string]chan bool),
	}
}

func (h *Hub) Run() {
	defer close(h.done) // Signal that Run() has exited

	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			h.stopped = true
			for client := range h.clients {
				client.Close()
			}
			h.clients = make(map[*Client]bool)
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if !h.stopped {
				h.clients[client] = true
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			h.mu.Unlock()
		}
	}
}

// Stop gracefully shuts down the hub. It blocks until Run has returned.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
	<-h.done // Wait for Run() to finish
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

// Unregister safely unregisters a client, handling the case where the hub may be stopped.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
		// Hub stopped, clients already closed
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends a message to all connected clients.
func (h *Hub) Broadcast(msg *Message) int {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("failed to marshal message: %v", err)
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for client := range h.clients {
		if client.trySend(data) {
			sent++
		}
	}
	return sent
}

// Show broadcasts a system notification.
func (h *Hub) Show(title, body, tag string) {
	h.broadcast(MessageTypeNotification, NotificationPayload{Title: title, Body: body, Tag: tag})
}

// ShowAlert broadcasts the in-page reminder alert.
func (h *Hub) ShowAlert(alert notify.Alert) {
	h.broadcast(MessageTypeAlert, alert)
}

// Vibrate asks connected clients to vibrate. It reports false when nobody is connected.
func (h *Hub) Vibrate(pattern []time.Duration) bool {
	ms := make([]int64, len(pattern))
	for i, d := range pattern {
		ms[i] = d.Milliseconds()
	}
	return h.broadcast(MessageTypeVibrate, VibratePayload{PatternMs: ms}) > 0
}

// UserSwitched tells clients to reload their view for userID.
func (h *Hub) UserSwitched(userID string) {
	h.broadcast(MessageTypeUserSwitched, UserSwitchedPayload{UserID: userID})
}

// RequestPermission asks the connected clients for notification permission and
// waits for the first answer. With no client connected the platform is treated as
// unsupported.
func (h *Hub) RequestPermission(ctx context.Context) (bool, error) {
	requestID := uuid.NewString()
	answer := make(chan bool, 1)

	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return false, ErrHubStopped
	}
	h.pending[requestID] = answer
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.pending, requestID)
		h.mu.Unlock()
	}()

	if h.broadcast(MessageTypePermissionRequest, PermissionRequestPayload{RequestID: requestID}) == 0 {
		return false, nil
	}

	select {
	case granted := <-answer:
		return granted, nil
	case <-ctx.Done():
		return false, ctx.Err()
	case <-h.done:
		return false, ErrHubStopped
	}
}

// resolvePermission delivers a client's answer. Late or unknown answers are ignored.
func (h *Hub) resolvePermission(requestID string, granted bool) {
	h.mu.RLock()
	answer, ok := h.pending[requestID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	select {
	case answer <- granted:
	default:
		// Another tab answered first
	}
}

func (h *Hub) broadcast(msgType MessageType, payload interface{}) int {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		log.Printf("failed to build %s message: %v", msgType, err)
		return 0
	}
	return h.Broadcast(msg)
}
