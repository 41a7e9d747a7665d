package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type progress struct {
	FileID string `json:"fileId"`
	Status string `json:"status"`
}

type recordingObserver struct {
	mu        sync.Mutex
	listeners int
	delivered int
	dropped   int
}

func (o *recordingObserver) ListenersChanged(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.listeners = n
}

func (o *recordingObserver) BroadcastDelivered(_ string, delivered, dropped int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.delivered += delivered
	o.dropped += dropped
}

func next(t *testing.T, sub *Subscription) Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msg, err := sub.Next(ctx)
	require.NoError(t, err)
	return msg
}

func TestBroadcastReachesEveryListener(t *testing.T) {
	obs := &recordingObserver{}
	hub := NewHub(Config{Observer: obs})
	a, err := hub.Subscribe(4)
	require.NoError(t, err)
	b, err := hub.Subscribe(4)
	require.NoError(t, err)

	require.NoError(t, hub.Broadcast("fileUploadProgress", progress{FileID: "f1", Status: "Processing started"}))

	for _, sub := range []*Subscription{a, b} {
		msg := next(t, sub)
		assert.Equal(t, "fileUploadProgress", msg.Event)
		assert.JSONEq(t, `{"fileId":"f1","status":"Processing started"}`, string(msg.Data))
	}
	assert.Equal(t, 2, obs.delivered)
	assert.Equal(t, 2, obs.listeners)
}

func TestLateListenerMissesEarlierEvents(t *testing.T) {
	hub := NewHub(Config{})
	require.NoError(t, hub.Broadcast("fileUploadProgress", progress{FileID: "f1", Status: "Processing started"}))

	late, err := hub.Subscribe(4)
	require.NoError(t, err)
	require.NoError(t, hub.Broadcast("fileUploadProgress", progress{FileID: "f2", Status: "Processing started"}))

	msg := next(t, late)
	assert.Contains(t, string(msg.Data), `"f2"`)
	assert.Empty(t, late.C())
}

func TestSlowListenerDropsWithoutBlocking(t *testing.T) {
	obs := &recordingObserver{}
	hub := NewHub(Config{Observer: obs})
	slow, err := hub.Subscribe(1)
	require.NoError(t, err)
	fast, err := hub.Subscribe(8)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, hub.Broadcast("tick", i))
	}

	assert.Len(t, slow.C(), 1)
	assert.Len(t, fast.C(), 3)
	assert.Equal(t, 2, obs.dropped)
}

func TestSubscriptionCloseUnregisters(t *testing.T) {
	obs := &recordingObserver{}
	hub := NewHub(Config{Observer: obs})
	sub, err := hub.Subscribe(1)
	require.NoError(t, err)
	require.Equal(t, 1, hub.Count())

	sub.Close()
	sub.Close()
	assert.Equal(t, 0, hub.Count())
	assert.Equal(t, 0, obs.listeners)
}

func TestClosedHubRejectsBroadcast(t *testing.T) {
	hub := NewHub(Config{})
	sub, err := hub.Subscribe(1)
	require.NoError(t, err)

	hub.Close()

	assert.ErrorIs(t, hub.Broadcast("fileUploadProgress", progress{FileID: "f1"}), ErrHubClosed)
	_, err = sub.Next(context.Background())
	assert.ErrorIs(t, err, ErrHubClosed)
	_, err = hub.Subscribe(1)
	assert.ErrorIs(t, err, ErrHubClosed)
	sub.Close()
}

func TestWebsocketClientReceivesFrames(t *testing.T) {
	hub := NewHub(Config{})
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, hub.Broadcast("fileUploadProgress", progress{FileID: "f1", Status: "Processing complete"}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"fileUploadProgress","data":{"fileId":"f1","status":"Processing complete"}}`, string(frame))

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Count() == 0 }, time.Second, 5*time.Millisecond)
}
