package quotes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
)

func newTickServer(t *testing.T, onConnect func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")
		onConnect(conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTradernetTickStreamSubscribeDialsAndDeliversTick(t *testing.T) {
	done := make(chan struct{})
	srv := newTickServer(t, func(conn *websocket.Conn) {
		ctx := context.Background()
		_, msg, err := conn.Read(ctx)
		require.NoError(t, err)
		var frame []any
		require.NoError(t, json.Unmarshal(msg, &frame))
		assert.Equal(t, "subscribe", frame[0])

		row, _ := json.Marshal(map[string]any{"token": 42, "symbol": "RELIANCE", "ltp": 2800.5})
		require.NoError(t, conn.Write(ctx, websocket.MessageText, row))
		close(done)
		time.Sleep(100 * time.Millisecond)
	})
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	stream := NewTradernetTickStream(wsURL, "", nil, zerolog.Nop())
	t.Cleanup(stream.Stop)

	ticks, err := stream.Subscribe(context.Background(), []string{"RELIANCE"})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("server never received subscribe frame")
	}

	select {
	case tick := <-ticks:
		assert.Equal(t, "RELIANCE", tick.Symbol)
		assert.Equal(t, 2800.5, tick.LastPrice)
		assert.Equal(t, int64(42), tick.InstrumentToken)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a tick on the stream channel")
	}

	sym, ok := stream.tokens.SymbolFor(42)
	require.True(t, ok)
	assert.Equal(t, "RELIANCE", sym)
}

func TestTradernetTickStreamUnsubscribeWithoutConnectionIsNoop(t *testing.T) {
	stream := NewTradernetTickStream("ws://unused.invalid", "", nil, zerolog.Nop())
	err := stream.Unsubscribe(context.Background(), []string{"TCS"})
	assert.NoError(t, err)
}

func TestTradernetTickStreamHandleMessageIgnoresUnknownToken(t *testing.T) {
	stream := NewTradernetTickStream("ws://unused.invalid", "", NewTokenMap(), zerolog.Nop())
	row, _ := json.Marshal(map[string]any{"token": 7, "ltp": 100.0})
	require.NoError(t, stream.handleMessage(row))

	select {
	case <-stream.out:
		t.Fatal("expected no tick for an unresolvable token")
	default:
	}
}

func TestTradernetTickStreamStopIsIdempotent(t *testing.T) {
	stream := NewTradernetTickStream("ws://unused.invalid", "", nil, zerolog.Nop())
	stream.Stop()
	stream.Stop()
}
