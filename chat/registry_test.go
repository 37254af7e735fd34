package chat

import (
	"sync"
	"testing"
)

func TestJoinCreatesEntryAndLeaveRemovesIt(t *testing.T) {
	r := NewRegistry()
	c := NewClient(nil)

	r.Join(42, c)
	if got := len(r.Members(42)); got != 1 {
		t.Fatalf("expected 1 member after join, got %d", got)
	}
	if len(r.chats) != 1 {
		t.Fatalf("expected exactly one chat entry, got %d", len(r.chats))
	}

	r.Leave(42, c)
	if got := r.Members(42); got != nil {
		t.Fatalf("expected no members after last leave, got %d", len(got))
	}
	if len(r.chats) != 0 {
		t.Fatalf("expected chat entry to be removed with its last member, %d entries left", len(r.chats))
	}
}

func TestLeaveWithoutJoinIsNoOp(t *testing.T) {
	r := NewRegistry()
	c := NewClient(nil)

	// A connection that crashed during handshake never joined; its
	// teardown must not panic or create state.
	r.Leave(42, c)
	if len(r.chats) != 0 {
		t.Fatalf("leave of unknown chat created %d entries", len(r.chats))
	}

	other := NewClient(nil)
	r.Join(42, other)
	r.Leave(42, c) // member never joined, set stays intact
	if got := len(r.Members(42)); got != 1 {
		t.Fatalf("leave of non-member disturbed the set, got %d members", got)
	}
}

func TestJoinIsIdempotentPerHandle(t *testing.T) {
	r := NewRegistry()
	c := NewClient(nil)

	r.Join(42, c)
	r.Join(42, c)
	if got := len(r.Members(42)); got != 1 {
		t.Fatalf("double join of the same handle produced %d members", got)
	}

	r.Leave(42, c)
	if len(r.chats) != 0 {
		t.Fatalf("one leave should fully detach an idempotently joined handle")
	}
}

func TestMembersReturnsSnapshot(t *testing.T) {
	r := NewRegistry()
	a, b := NewClient(nil), NewClient(nil)
	r.Join(7, a)
	r.Join(7, b)

	snapshot := r.Members(7)
	r.Leave(7, a)
	r.Leave(7, b)

	if len(snapshot) != 2 {
		t.Fatalf("snapshot mutated by registry changes, got %d members", len(snapshot))
	}
}

func TestConcurrentJoinLeave(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(chatID uint) {
			defer wg.Done()
			c := NewClient(nil)
			r.Join(chatID, c)
			r.Members(chatID)
			r.Leave(chatID, c)
		}(uint(i % 8))
	}
	wg.Wait()

	if len(r.chats) != 0 {
		t.Fatalf("expected empty registry after all members left, got %d entries", len(r.chats))
	}
}
