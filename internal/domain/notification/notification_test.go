package notification

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSSEClient(t *testing.T) {
	t.Run("with user", func(t *testing.T) {
		userID := "user-456"

		client := NewSSEClient("client-123", &userID)

		require.NotNil(t, client)
		assert.Equal(t, "client-123", client.ClientID)
		require.NotNil(t, client.UserID)
		assert.Equal(t, userID, *client.UserID)
		assert.False(t, client.ConnectedAt.IsZero())
		assert.NotNil(t, client.MessageChan)
	})

	t.Run("with nil user", func(t *testing.T) {
		client := NewSSEClient("client-123", nil)

		require.NotNil(t, client)
		assert.Nil(t, client.UserID)
	})
}

func TestSSEClient_Close(t *testing.T) {
	client := NewSSEClient("client-123", nil)
	require.NotNil(t, client.MessageChan)

	client.Close()

	assert.Panics(t, func() {
		client.MessageChan <- &SSEMessage{}
	})
}

func TestNewSSEMessage(t *testing.T) {
	data := json.RawMessage(`{"tradeId": "abc"}`)

	message := NewSSEMessage(EventTradeAccepted, data)

	require.NotNil(t, message)
	assert.NotEmpty(t, message.ID)
	assert.Equal(t, EventTradeAccepted, message.Event)
	assert.Equal(t, data, message.Data)
	assert.False(t, message.Timestamp.IsZero())
}

func TestEvent_Constants(t *testing.T) {
	assert.Equal(t, "trade_proposed", EventTradeProposed)
	assert.Equal(t, "trade_countered", EventTradeCountered)
	assert.Equal(t, "trade_accepted", EventTradeAccepted)
	assert.Equal(t, "trade_refused", EventTradeRefused)
	assert.Equal(t, "trade_cancelled", EventTradeCancelled)
	assert.Equal(t, "trade_completed", EventTradeCompleted)
	assert.Equal(t, "trade_message", EventTradeMessage)
}
