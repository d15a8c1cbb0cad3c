package twelvedata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxwatch/internal/application/port"
)

var upgrader = websocket.Upgrader{}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

type recvMsg struct {
	payload []byte
	at      time.Time
}

func recv(t *testing.T, ch <-chan recvMsg) recvMsg {
	t.Helper()
	select {
	case m := <-ch:
		return m
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for message")
		return recvMsg{}
	}
}

func TestFeedResubscribesAfterDisconnect(t *testing.T) {
	subs := make(chan recvMsg, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		if _, b, err := conn.ReadMessage(); err == nil {
			subs <- recvMsg{payload: b, at: time.Now()}
		}
		_ = conn.Close() // drop the connection right after the subscribe
	}))
	defer srv.Close()

	const backoff = 200 * time.Millisecond
	feed := NewFeed(FeedConfig{
		WsURL:          wsURL(srv),
		HeartbeatEvery: time.Second,
		ReconnectWait:  backoff,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, _, err := feed.Subscribe(ctx, []string{"EUR/USD", "USD/JPY"})
	require.NoError(t, err)

	want := `{"action":"subscribe","params":{"symbols":"EUR/USD,USD/JPY"}}`
	first := recv(t, subs)
	assert.JSONEq(t, want, string(first.payload))

	second := recv(t, subs)
	assert.JSONEq(t, want, string(second.payload), "subscribe must be resent on reconnect")
	assert.GreaterOrEqual(t, second.at.Sub(first.at), backoff,
		"reconnect must wait at least the configured backoff")
}

func TestFeedSendsHeartbeats(t *testing.T) {
	msgs := make(chan recvMsg, 16)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, b, err := conn.ReadMessage()
			if err != nil {
				return
			}
			msgs <- recvMsg{payload: b, at: time.Now()}
		}
	}))
	defer srv.Close()

	feed := NewFeed(FeedConfig{
		WsURL:          wsURL(srv),
		HeartbeatEvery: 100 * time.Millisecond,
		ReconnectWait:  time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, _, err := feed.Subscribe(ctx, []string{"EUR/USD"})
	require.NoError(t, err)

	sub := recv(t, msgs)
	assert.JSONEq(t, `{"action":"subscribe","params":{"symbols":"EUR/USD"}}`, string(sub.payload))

	hb := recv(t, msgs)
	assert.JSONEq(t, `{"action":"heartbeat"}`, string(hb.payload))
}

func TestFeedDeliversTicksAndAcks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		if _, _, err := conn.ReadMessage(); err != nil { // subscribe
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(
			`{"event":"subscribe-status","status":"partial","success":[{"symbol":"EUR/USD"}],"fails":[{"symbol":"USD/JPY"}]}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(
			`{"event":"price","symbol":"EUR/USD","price":1.0842,"timestamp":1700000123}`))
		// malformed payload must not break the session
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{oops`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(
			`{"event":"price","symbol":"EUR/USD","price":1.0850}`))
		for { // hold the connection open
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	feed := NewFeed(FeedConfig{
		WsURL:          wsURL(srv),
		HeartbeatEvery: time.Second,
		ReconnectWait:  time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	ticks, acks, err := feed.Subscribe(ctx, []string{"EUR/USD", "USD/JPY"})
	require.NoError(t, err)

	select {
	case a := <-acks:
		assert.Equal(t, []string{"EUR/USD"}, a.Accepted)
		assert.Equal(t, []string{"USD/JPY"}, a.Rejected)
	case <-time.After(3 * time.Second):
		t.Fatal("no ack received")
	}

	var got []port.Tick
	for len(got) < 2 {
		select {
		case tk := <-ticks:
			got = append(got, tk)
		case <-time.After(3 * time.Second):
			t.Fatal("ticks not received")
		}
	}
	assert.InDelta(t, 1.0842, got[0].Price, 1e-9)
	assert.InDelta(t, 1700000123.0, got[0].Ts, 1e-9)
	assert.InDelta(t, 1.0850, got[1].Price, 1e-9)

	// cancellation closes the worker's channels
	cancel()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case _, ok := <-ticks:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("ticks channel not closed after cancel")
		}
	}
}

func TestFeedSubscribeValidation(t *testing.T) {
	feed := NewFeed(FeedConfig{WsURL: "ws://localhost:1"})
	_, _, err := feed.Subscribe(context.Background(), []string{" ", ""})
	assert.Error(t, err)

	feed = NewFeed(FeedConfig{})
	_, _, err = feed.Subscribe(context.Background(), []string{"EUR/USD"})
	assert.Error(t, err)
}

func TestBuildURLAppendsKey(t *testing.T) {
	u, err := buildURL("wss://ws.twelvedata.com/v1/quotes/price", "k123")
	require.NoError(t, err)
	assert.Contains(t, u, "apikey=k123")

	u, err = buildURL("wss://ws.twelvedata.com/v1/quotes/price", "")
	require.NoError(t, err)
	assert.NotContains(t, u, "apikey")
}
