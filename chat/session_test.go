package chat

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"food-donation-server/models"

	"github.com/gorilla/websocket"
)

type fakeStore struct {
	mu        sync.Mutex
	nextID    uint
	messages  []models.ChatMessage
	insertErr error
}

func (f *fakeStore) Insert(msg *models.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.nextID++
	msg.ID = f.nextID
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeStore) ByChat(chatID uint) ([]models.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ChatMessage
	for _, m := range f.messages {
		if m.DonationChatID == chatID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

// newChatServer serves the same upgrade-join-run sequence the production
// route performs, against an injected store.
func newChatServer(t *testing.T, chatID uint, registry *Registry, store MessageStore) *httptest.Server {
	t.Helper()
	dispatcher := NewDispatcher(registry)
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(conn)
		go client.WritePump()
		NewSession(chatID, client, registry, dispatcher, store).Run()
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dialChat(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readOutbound(t *testing.T, conn *websocket.Conn) OutboundMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg OutboundMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	return msg
}

func waitForMembers(t *testing.T, registry *Registry, chatID uint, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(registry.Members(chatID)) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("chat %d never reached %d members", chatID, want)
}

func TestTwoMembersBothReceiveThenOneLeaves(t *testing.T) {
	registry := NewRegistry()
	store := &fakeStore{}
	srv := newChatServer(t, 42, registry, store)

	connA := dialChat(t, srv)
	connB := dialChat(t, srv)
	waitForMembers(t, registry, 42, 2)

	if err := connA.WriteJSON(InboundMessage{SenderID: 1, ReceiverID: 2, MessageValue: "hi"}); err != nil {
		t.Fatalf("send: %v", err)
	}

	for _, conn := range []*websocket.Conn{connA, connB} {
		msg := readOutbound(t, conn)
		if msg.DonationChatID != 42 || msg.SenderID != 1 || msg.ReceiverID != 2 || msg.MessageValue != "hi" {
			t.Fatalf("unexpected broadcast %+v", msg)
		}
		if msg.IsRead {
			t.Fatal("broadcast must carry is_read=false")
		}
		if msg.MessageID == 0 {
			t.Fatal("broadcast must carry the server-assigned message id")
		}
		if msg.SentTime.IsZero() {
			t.Fatal("broadcast must carry the server-normalized timestamp")
		}
	}

	// B drops; its session must deregister it and A keeps working.
	connB.Close()
	waitForMembers(t, registry, 42, 1)

	if err := connA.WriteJSON(InboundMessage{SenderID: 1, ReceiverID: 2, MessageValue: "still there?"}); err != nil {
		t.Fatalf("send after leave: %v", err)
	}
	msg := readOutbound(t, connA)
	if msg.MessageValue != "still there?" || msg.MessageID != 2 {
		t.Fatalf("unexpected second broadcast %+v", msg)
	}
}

func TestArrivalOrderIsPreservedForEveryMember(t *testing.T) {
	registry := NewRegistry()
	store := &fakeStore{}
	srv := newChatServer(t, 7, registry, store)

	sender := dialChat(t, srv)
	observer := dialChat(t, srv)
	waitForMembers(t, registry, 7, 2)

	const n = 5
	bodies := []string{"one", "two", "three", "four", "five"}
	for _, body := range bodies {
		if err := sender.WriteJSON(InboundMessage{SenderID: 3, ReceiverID: 4, MessageValue: body}); err != nil {
			t.Fatalf("send %q: %v", body, err)
		}
	}

	for _, conn := range []*websocket.Conn{sender, observer} {
		var lastID uint
		for i := 0; i < n; i++ {
			msg := readOutbound(t, conn)
			if msg.MessageValue != bodies[i] {
				t.Fatalf("message %d arrived out of order: got %q want %q", i, msg.MessageValue, bodies[i])
			}
			if msg.MessageID <= lastID {
				t.Fatalf("message ids not increasing: %d after %d", msg.MessageID, lastID)
			}
			lastID = msg.MessageID
		}
	}

	persisted, _ := store.ByChat(7)
	if len(persisted) != n {
		t.Fatalf("expected %d persisted messages, got %d", n, len(persisted))
	}
	for i, m := range persisted {
		if m.MessageValue != bodies[i] {
			t.Fatalf("persisted order differs from arrival order at %d: %q", i, m.MessageValue)
		}
	}
}

func TestMissingSenderRejectedBeforePersistence(t *testing.T) {
	registry := NewRegistry()
	store := &fakeStore{}
	srv := newChatServer(t, 9, registry, store)

	conn := dialChat(t, srv)
	waitForMembers(t, registry, 9, 1)

	if err := conn.WriteJSON(InboundMessage{ReceiverID: 2, MessageValue: "no sender"}); err != nil {
		t.Fatalf("send: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame ErrorFrame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read error frame: %v", err)
	}
	if frame.Error != "validation_error" {
		t.Fatalf("expected validation_error, got %+v", frame)
	}
	if store.count() != 0 {
		t.Fatalf("invalid message reached the store, %d inserts", store.count())
	}

	// Validation failures are recoverable: the corrected message goes through.
	if err := conn.WriteJSON(InboundMessage{SenderID: 1, ReceiverID: 2, MessageValue: "fixed"}); err != nil {
		t.Fatalf("send corrected: %v", err)
	}
	msg := readOutbound(t, conn)
	if msg.MessageValue != "fixed" {
		t.Fatalf("session did not survive validation failure, got %+v", msg)
	}
}

func TestStoreFailureReachesOnlySenderAndEndsSession(t *testing.T) {
	registry := NewRegistry()
	store := &fakeStore{insertErr: errors.New("connection refused")}
	srv := newChatServer(t, 13, registry, store)

	sender := dialChat(t, srv)
	observer := dialChat(t, srv)
	waitForMembers(t, registry, 13, 2)

	if err := sender.WriteJSON(InboundMessage{SenderID: 1, ReceiverID: 2, MessageValue: "doomed"}); err != nil {
		t.Fatalf("send: %v", err)
	}

	sender.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame ErrorFrame
	if err := sender.ReadJSON(&frame); err != nil {
		t.Fatalf("read error frame: %v", err)
	}
	if frame.Error != "store_error" {
		t.Fatalf("expected store_error, got %+v", frame)
	}

	// The failing session terminates and deregisters itself.
	waitForMembers(t, registry, 13, 1)

	// The other member observes nothing at all.
	observer.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	if _, _, err := observer.ReadMessage(); err == nil {
		t.Fatal("observer received a frame for an unpersisted message")
	}

	if store.count() != 0 {
		t.Fatalf("store recorded %d messages despite failing", store.count())
	}
}
