package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ShenglingZHU/hiera-tf/internal/domain"
	"github.com/ShenglingZHU/hiera-tf/internal/hierarchy"
	"github.com/ShenglingZHU/hiera-tf/internal/timeframe"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.ReconnectDelay = 10 * time.Millisecond
	cfg.MaxReconnectDelay = 50 * time.Millisecond
	cfg.ReadTimeout = 5 * time.Second
	cfg.Subscribe = map[string]string{"op": "subscribe"}
	return &cfg
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case msg, ok := <-c.Points():
		if !ok {
			t.Fatal("points channel closed")
		}
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for point")
	}
	return Message{}
}

func TestClient_ReceivesPoints(t *testing.T) {
	var subscribed atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		var sub map[string]string
		if err := conn.ReadJSON(&sub); err != nil || sub["op"] != "subscribe" {
			t.Errorf("expected subscribe message, got %v (%v)", sub, err)
			return
		}
		subscribed.Add(1)

		conn.WriteMessage(websocket.TextMessage, []byte(`{"series":"1m","ts":1000,"values":{"value":1.5}}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`not json`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"ts":2000,"values":{"value":2}}`))

		// Keep connection open
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	client, err := Dial(context.Background(), wsURL(server), testConfig())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	first := receive(t, client)
	if first.Series != "1m" || first.TimestampMs != 1000 || first.Features["value"] != 1.5 {
		t.Errorf("unexpected first point %+v", first)
	}
	second := receive(t, client)
	if second.Series != "" || second.TimestampMs != 2000 || second.Features["value"] != 2.0 {
		t.Errorf("unexpected second point %+v", second)
	}

	if client.Dropped() != 1 {
		t.Errorf("expected 1 dropped message, got %d", client.Dropped())
	}
	if subscribed.Load() != 1 {
		t.Errorf("expected 1 subscription, got %d", subscribed.Load())
	}
}

func TestClient_ReconnectsAndResubscribes(t *testing.T) {
	var connections atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		var sub map[string]string
		if err := conn.ReadJSON(&sub); err != nil {
			return
		}
		n := connections.Add(1)

		if n == 1 {
			// First connection: one point, then drop
			conn.WriteMessage(websocket.TextMessage, []byte(`{"ts":1,"values":{}}`))
			return
		}
		conn.WriteMessage(websocket.TextMessage, []byte(`{"ts":2,"values":{}}`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	client, err := Dial(context.Background(), wsURL(server), testConfig())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	if got := receive(t, client).TimestampMs; got != 1 {
		t.Errorf("expected ts 1, got %d", got)
	}
	if got := receive(t, client).TimestampMs; got != 2 {
		t.Errorf("expected ts 2 after reconnect, got %d", got)
	}
	if connections.Load() < 2 {
		t.Errorf("expected reconnect, got %d connections", connections.Load())
	}
}

func TestClient_CloseClosesPoints(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	client, err := Dial(context.Background(), wsURL(server), nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}

	if err := client.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, ok := <-client.Points(); ok {
		t.Error("expected closed points channel")
	}
	// Second close is a no-op
	if err := client.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestDial_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := Dial(ctx, "ws://127.0.0.1:1/none", nil); err == nil {
		t.Error("expected dial error")
	}
}

func newView(t *testing.T, name string, key string) *timeframe.View {
	t.Helper()
	cfg, err := domain.NewTimeframeConfig(name, domain.RoleLTF, 1, 10)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	v, err := timeframe.New(cfg, timeframe.WithSignal(timeframe.SignalFunc(func(f domain.Features) bool {
		return f.Truthy(key)
	})))
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	return v
}

func TestPump_GatesFinerViews(t *testing.T) {
	fw := hierarchy.NewFramework([]*timeframe.View{
		newView(t, "coarse", "up"),
		newView(t, "fine", "go"),
	})

	src := make(chan Message, 4)
	src <- Message{Point: domain.Point{TimestampMs: 1, Features: domain.Features{"up": true, "go": true}}}
	src <- Message{Series: "other", Point: domain.Point{TimestampMs: 2, Features: domain.Features{"up": true, "go": true}}}
	src <- Message{Series: "main", Point: domain.Point{TimestampMs: 3, Features: domain.Features{"up": false, "go": true}}}
	close(src)

	var gated []bool
	n, err := Pump(context.Background(), src, fw, "main", func(_ Message, states []hierarchy.ViewState) {
		gated = append(gated, states[1].Gated)
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Pump: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 applied points, got %d", n)
	}
	if len(gated) != 2 || !gated[0] || gated[1] {
		t.Errorf("expected fine gated [true false], got %v", gated)
	}
}

func TestPump_StopsOnContext(t *testing.T) {
	fw := hierarchy.NewFramework(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Pump(ctx, make(chan Message), fw, "", nil, zerolog.Nop())
	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
