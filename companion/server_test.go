package companion

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/devskill-org/astro-companion/astro"
)

// TestWebsocketClientReceivesSnapshotThenBroadcasts connects a real
// websocket client and checks the delivery sequence: the latest snapshot
// arrives first, before the connection joins the broadcast set, then
// every subsequent publish is pushed.
func TestWebsocketClientReceivesSnapshotThenBroadcasts(t *testing.T) {
	src := newGateSource()
	src.open()

	c := New(DefaultConfig(), testLogger(), WithSource(src))
	defer c.Close()

	ws := NewWebServer(c, 18089)
	go ws.handleBroadcasts()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		ws.Stop(ctx) //nolint:errcheck
	}()

	loc := astro.Location{Latitude: 50.0755, Longitude: 14.4378, Label: "Prague, CZ"}
	c.SetLocation(loc)
	waitFor(t, func() bool { return c.Snapshot() != nil })

	ts := httptest.NewServer(ws.server.Handler)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second)) //nolint:errcheck

	var msg struct {
		Type     string              `json:"type"`
		Snapshot astro.DailySnapshot `json:"snapshot"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("reading initial snapshot: %v", err)
	}
	if msg.Type != "snapshot_update" {
		t.Errorf("initial message type = %q, want %q", msg.Type, "snapshot_update")
	}
	if msg.Snapshot.Location != loc {
		t.Errorf("initial snapshot location = %+v, want %+v", msg.Snapshot.Location, loc)
	}

	// The connection joins the broadcast set only after the initial
	// write; wait for it so the next publish is not dropped.
	waitFor(t, func() bool {
		count := 0
		ws.clients.Range(func(key, value any) bool {
			count++
			return true
		})
		return count == 1
	})

	c.SetDate(time.Date(2025, time.July, 1, 0, 0, 0, 0, time.Local))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("reading broadcast: %v", err)
	}
	if msg.Type != "snapshot_update" {
		t.Errorf("broadcast message type = %q, want %q", msg.Type, "snapshot_update")
	}
	if msg.Snapshot.Date.IsZero() {
		t.Error("broadcast snapshot has zero date")
	}
}
