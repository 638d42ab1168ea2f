package websocket

import (
	"encoding/json"
	"time"
)

type MessageType string

const (
	// Client to Server
	MessageTypePermissionResult MessageType = "PERMISSION_RESULT"

	// Server to Client
	MessageTypeNotification      MessageType = "NOTIFICATION"
	MessageTypeAlert             MessageType = "ALERT"
	MessageTypeVibrate           MessageType = "VIBRATE"
	MessageTypePermissionRequest MessageType = "PERMISSION_REQUEST"
	MessageTypeUserSwitched      MessageType = "USER_SWITCHED"
	MessageTypeError             MessageType = "ERROR"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      msgType,
		Payload:   payloadBytes,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// Client to Server payloads

type PermissionResultPayload struct {
	RequestID string `json:"requestId"`
	Granted   bool   `json:"granted"`
}

// Server to Client payloads

type NotificationPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Tag   string `json:"tag"`
}

type VibratePayload struct {
	PatternMs []int64 `json:"patternMs"`
}

type PermissionRequestPayload struct {
	RequestID string `json:"requestId"`
}

type UserSwitchedPayload struct {
	UserID string `json:"userId"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
