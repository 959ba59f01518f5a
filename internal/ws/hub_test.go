package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishNeverBlocks(t *testing.T) {
	h := NewHub()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			h.Publish(EventTimerUpdated, map[string]int{"id": i})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked without a running hub")
	}
}

func TestTimerFeed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	stop := make(chan struct{})
	go HubInstance.Run(stop)
	t.Cleanup(func() { close(stop) })

	r := gin.New()
	r.GET("/ws", TimerWebSocketHandler)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return HubInstance.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	HubInstance.Publish(EventTimerDeleted, map[string]uint{"id": 9})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var event struct {
		EventType string          `json:"event_type"`
		Timer     map[string]uint `json:"timer"`
	}
	require.NoError(t, json.Unmarshal(msg, &event))
	assert.Equal(t, EventTimerDeleted, event.EventType)
	assert.Equal(t, uint(9), event.Timer["id"])

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return HubInstance.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestServeAfterHubStopped(t *testing.T) {
	h := NewHub()
	stop := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		h.Run(stop)
		close(stopped)
	}()
	close(stop)
	<-stopped

	srv := httptest.NewServer(http.HandlerFunc(h.Serve))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), err.Error())
	assert.Zero(t, h.ClientCount())
}
