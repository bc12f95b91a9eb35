package vizserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"trafsim/log"
	"trafsim/simulator"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func newTestServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub()
	ts := httptest.NewServer(NewServer("", hub).Handler())
	t.Cleanup(ts.Close)
	return hub, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) simulator.Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg message
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "frame", msg.Type)
	var frame simulator.Frame
	require.NoError(t, json.Unmarshal(msg.Data, &frame))
	return frame
}

func TestStateEndpoint(t *testing.T) {
	hub, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/state")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	hub.Publish(simulator.Frame{RunID: "run-1", Step: 3, Time: 0.05})

	resp, err = http.Get(ts.URL + "/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var msg message
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&msg))
	var frame simulator.Frame
	require.NoError(t, json.Unmarshal(msg.Data, &frame))
	assert.Equal(t, "run-1", frame.RunID)
	assert.Equal(t, 3, frame.Step)
}

func TestWebsocketStreamsFrames(t *testing.T) {
	hub, ts := newTestServer(t)
	conn := dial(t, ts)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	hub.Publish(simulator.Frame{RunID: "run-ws", Step: 1})
	hub.Publish(simulator.Frame{RunID: "run-ws", Step: 2})

	assert.Equal(t, 1, readFrame(t, conn).Step)
	assert.Equal(t, 2, readFrame(t, conn).Step)

	// 新连接的客户端立即收到最新一帧
	late := dial(t, ts)
	assert.Equal(t, 2, readFrame(t, late).Step)

	conn.Close()
	late.Close()
	assert.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, 10*time.Millisecond)
}

func TestHubDropsSlowClients(t *testing.T) {
	hub := NewHub()
	c, ok := hub.register()
	require.True(t, ok)

	for i := 0; i <= sendBuffer; i++ {
		hub.Publish(simulator.Frame{Step: i})
	}
	assert.Zero(t, hub.Clients())

	n := 0
	for range c.send {
		n++
	}
	assert.Equal(t, sendBuffer, n)
	hub.unregister(c)
}

func TestHubClose(t *testing.T) {
	hub := NewHub()
	c, ok := hub.register()
	require.True(t, ok)

	hub.Close()
	_, open := <-c.send
	assert.False(t, open)

	_, ok = hub.register()
	assert.False(t, ok)
	hub.Publish(simulator.Frame{Step: 1})
	assert.Nil(t, hub.Latest())
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := NewServer("127.0.0.1:0", NewHub())

	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
