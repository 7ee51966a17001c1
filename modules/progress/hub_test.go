package progress

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
)

func dial(t *testing.T, server *httptest.Server, userID string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?user=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubPublishesToUser(t *testing.T) {
	hub := NewHub()
	server := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer server.Close()

	conn := dial(t, server, "user-1")

	// give the hub a moment to register the connection
	time.Sleep(50 * time.Millisecond)

	hub.Publish("user-1", Event{
		Type:         "generation_progress",
		GenerationID: "gen-1",
		Stage:        "credits_reserved",
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, message, err := conn.ReadMessage()
	require.NoError(t, err)

	var event Event
	require.NoError(t, json.Unmarshal(message, &event))
	assert.Equal(t, "generation_progress", event.Type)
	assert.Equal(t, "gen-1", event.GenerationID)
	assert.Equal(t, "credits_reserved", event.Stage)
	assert.NotZero(t, event.Timestamp)
}

func TestHubIgnoresOtherUsers(t *testing.T) {
	hub := NewHub()
	server := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer server.Close()

	conn := dial(t, server, "user-2")
	time.Sleep(50 * time.Millisecond)

	hub.Publish("user-1", Event{Type: "generation_progress", Stage: "completed"})

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestHubPublishWithoutListeners(t *testing.T) {
	hub := NewHub()
	// 연결이 없어도 패닉 없이 조용히 버려짐
	hub.Publish("user-1", Event{Type: "generation_progress", Stage: "completed"})
}
