package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ivankudzin/crush/internal/domain/enums"
	"github.com/ivankudzin/crush/internal/domain/model"
)

func dialHub(t *testing.T, hub *Hub, profileID string) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Serve(conn, profileID)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for hub.Connections(profileID) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client %s was not registered", profileID)
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

type received struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func readEvent(t *testing.T, conn *websocket.Conn) received {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var evt received
	if err := conn.ReadJSON(&evt); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return evt
}

func TestMatchCreatedReachesBothParticipants(t *testing.T) {
	hub := NewHub(nil)
	connA := dialHub(t, hub, "a")
	connB := dialHub(t, hub, "b")

	m := model.Match{ID: "m1", UserAID: "a", UserBID: "b", Status: enums.MatchStatusActive, CreatedAt: time.Now().UTC()}
	hub.MatchCreated(context.Background(), m,
		model.Profile{ID: "a", Name: "Ann", AccountID: "secret-a"},
		model.Profile{ID: "b", Name: "Bea", AccountID: "secret-b"},
	)

	for conn, wantName := range map[*websocket.Conn]string{connA: "Bea", connB: "Ann"} {
		evt := readEvent(t, conn)
		if evt.Type != EventMatch {
			t.Fatalf("unexpected event type: %q", evt.Type)
		}
		if strings.Contains(string(evt.Data), "secret-") {
			t.Fatalf("match event must carry the public view only: %s", evt.Data)
		}
		var payload MatchEvent
		if err := json.Unmarshal(evt.Data, &payload); err != nil {
			t.Fatalf("decode match event: %v", err)
		}
		if payload.MatchID != "m1" || payload.Profile.Name != wantName {
			t.Fatalf("unexpected payload: %+v", payload)
		}
	}
}

func TestMessageSentReachesRecipientOnly(t *testing.T) {
	hub := NewHub(nil)
	connB := dialHub(t, hub, "b")

	hub.MessageSent(context.Background(), model.Message{ID: "msg1", SenderID: "a", RecipientID: "b", Content: "hi"})

	evt := readEvent(t, connB)
	if evt.Type != EventMessage {
		t.Fatalf("unexpected event type: %q", evt.Type)
	}
	var msg model.Message
	if err := json.Unmarshal(evt.Data, &msg); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if msg.ID != "msg1" || msg.Content != "hi" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if hub.Connections("a") != 0 {
		t.Fatalf("sender has no connections")
	}
}

func TestClientUnregistersOnClose(t *testing.T) {
	hub := NewHub(nil)
	conn := dialHub(t, hub, "a")

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Connections("a") != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client was not unregistered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.Publish("a", Event{Type: EventMessage})
}
