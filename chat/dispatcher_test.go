package chat

import (
	"encoding/json"
	"testing"
	"time"
)

func receiveFrame(t *testing.T, c *Client) OutboundMessage {
	t.Helper()
	select {
	case frame := <-c.send:
		var msg OutboundMessage
		if err := json.Unmarshal(frame, &msg); err != nil {
			t.Fatalf("broadcast frame is not valid JSON: %v", err)
		}
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast frame")
		return OutboundMessage{}
	}
}

func TestBroadcastReachesEveryMember(t *testing.T) {
	r := NewRegistry()
	d := NewDispatcher(r)
	a, b := NewClient(nil), NewClient(nil)
	r.Join(42, a)
	r.Join(42, b)

	d.Broadcast(42, OutboundMessage{MessageID: 1, DonationChatID: 42, SenderID: 1, ReceiverID: 2, MessageValue: "hi"})

	for _, c := range []*Client{a, b} {
		msg := receiveFrame(t, c)
		if msg.MessageID != 1 || msg.DonationChatID != 42 || msg.MessageValue != "hi" {
			t.Fatalf("unexpected frame: %+v", msg)
		}
		if msg.IsRead {
			t.Fatal("broadcast message must carry is_read=false")
		}
	}
}

func TestBroadcastToEmptyChatIsNoOp(t *testing.T) {
	r := NewRegistry()
	d := NewDispatcher(r)

	// Must neither panic nor create registry state.
	d.Broadcast(99, OutboundMessage{MessageID: 1, DonationChatID: 99})
	if len(r.chats) != 0 {
		t.Fatalf("broadcast created %d registry entries", len(r.chats))
	}
}

func TestOneFailedRecipientDoesNotStopDelivery(t *testing.T) {
	r := NewRegistry()
	d := NewDispatcher(r)
	healthy, closing := NewClient(nil), NewClient(nil)
	r.Join(42, healthy)
	r.Join(42, closing)
	closing.shutdown() // its pump is gone, enqueue will fail

	d.Broadcast(42, OutboundMessage{MessageID: 5, DonationChatID: 42, MessageValue: "still delivered"})

	msg := receiveFrame(t, healthy)
	if msg.MessageID != 5 {
		t.Fatalf("healthy member got frame %+v", msg)
	}

	// The dispatcher must not deregister the failed member; that is the
	// job of its own session teardown.
	if got := len(r.Members(42)); got != 2 {
		t.Fatalf("dispatcher mutated the registry, %d members left", got)
	}
}
