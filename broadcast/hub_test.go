package broadcast

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"impostord/models"
)

// dialClient connects a real socket through an httptest server and registers
// it on the hub under the given conn id.
func dialClient(t *testing.T, hub *Hub, connID string) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	registered := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		hub.Register(&models.Client{Conn: conn, ConnID: connID, RoomID: "ROOM1"})
		close(registered)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	select {
	case <-registered:
	case <-time.After(2 * time.Second):
		t.Fatal("client never registered")
	}
	return client
}

func readPayload(t *testing.T, client *websocket.Conn) map[string]interface{} {
	t.Helper()
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := client.ReadMessage()
	require.NoError(t, err)
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &payload))
	return payload
}

func TestDeliverReachesRegisteredClient(t *testing.T) {
	hub := NewHub(zap.NewNop())
	client := dialClient(t, hub, "conn-1")

	hub.Deliver([]string{"conn-1"}, map[string]interface{}{
		"type":  "room_state",
		"round": 2,
	})

	payload := readPayload(t, client)
	assert.Equal(t, "room_state", payload["type"])
	assert.Equal(t, float64(2), payload["round"])
}

func TestDeliverOnlyToAddressedRecipients(t *testing.T) {
	hub := NewHub(zap.NewNop())
	first := dialClient(t, hub, "conn-1")
	second := dialClient(t, hub, "conn-2")

	hub.Deliver([]string{"conn-2"}, map[string]interface{}{"type": "role"})

	payload := readPayload(t, second)
	assert.Equal(t, "role", payload["type"])

	first.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err := first.ReadMessage()
	assert.Error(t, err, "unaddressed client must not receive the event")
}

func TestDeliverToUnknownConnIsNoop(t *testing.T) {
	hub := NewHub(zap.NewNop())
	hub.Deliver([]string{"ghost"}, map[string]interface{}{"type": "role"})
}

func TestUnregisterStopsDelivery(t *testing.T) {
	hub := NewHub(zap.NewNop())
	client := dialClient(t, hub, "conn-1")

	hub.mu.RLock()
	bound := hub.clients["conn-1"]
	hub.mu.RUnlock()
	require.NotNil(t, bound)

	assert.True(t, hub.Unregister("conn-1", bound.Conn))

	hub.Deliver([]string{"conn-1"}, map[string]interface{}{"type": "role"})

	client.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	for {
		// The write pump sends a close frame on unregister; only a data
		// frame would be a failure here.
		msgType, _, err := client.ReadMessage()
		if err != nil {
			break
		}
		assert.NotEqual(t, websocket.TextMessage, msgType)
	}
}

func TestUnregisterIgnoresReplacedSocket(t *testing.T) {
	hub := NewHub(zap.NewNop())
	dialClient(t, hub, "conn-1")

	hub.mu.RLock()
	oldConn := hub.clients["conn-1"].Conn
	hub.mu.RUnlock()

	replacement := dialClient(t, hub, "conn-1")

	// Tearing down the first socket must not evict the replacement, and the
	// caller learns the identity moved on.
	assert.False(t, hub.Unregister("conn-1", oldConn))

	hub.Deliver([]string{"conn-1"}, map[string]interface{}{"type": "role"})
	payload := readPayload(t, replacement)
	assert.Equal(t, "role", payload["type"])
}
