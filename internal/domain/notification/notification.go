package notification

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Event names published on trade transitions.
const (
	EventTradeProposed  = "trade_proposed"
	EventTradeCountered = "trade_countered"
	EventTradeAccepted  = "trade_accepted"
	EventTradeRefused   = "trade_refused"
	EventTradeCancelled = "trade_cancelled"
	EventTradeCompleted = "trade_completed"
	EventTradeMessage   = "trade_message"
)

var (
	ErrClientNotFound = errors.New("SSE client not found")
	ErrChannelFull    = errors.New("SSE message channel full")
)

// SSEClient represents an active SSE connection.
type SSEClient struct {
	ClientID    string
	UserID      *string
	ConnectedAt time.Time
	MessageChan chan *SSEMessage
}

// NewSSEClient creates a new SSE client with a buffered channel.
func NewSSEClient(clientID string, userID *string) *SSEClient {
	return &SSEClient{
		ClientID:    clientID,
		UserID:      userID,
		ConnectedAt: time.Now().UTC(),
		MessageChan: make(chan *SSEMessage, 100),
	}
}

// Close closes the client's message channel.
func (c *SSEClient) Close() {
	close(c.MessageChan)
}

// SSEMessage represents a message sent over SSE.
type SSEMessage struct {
	ID        string          `json:"id"`
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewSSEMessage creates a new SSE message.
func NewSSEMessage(event string, data json.RawMessage) *SSEMessage {
	return &SSEMessage{
		ID:        uuid.New().String(),
		Event:     event,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// SSEHub manages SSE connections for notification fan-out.
type SSEHub interface {
	Register(client *SSEClient)
	Unregister(clientID string)
	GetClientCount() int
	BroadcastToAll(message *SSEMessage)
	BroadcastToUser(userID string, message *SSEMessage)
	SendToClient(clientID string, message *SSEMessage) error
	Stop()
}
