package chat

import "sync"

// Registry is the process-wide mapping from donation chat ID to the set
// of live connections attached to it. It is the single shared-mutation
// point of the real-time path; one mutex guards the whole map, every
// operation is short and O(1)-ish.
type Registry struct {
	mu    sync.Mutex
	chats map[uint]map[*Client]struct{}
}

func NewRegistry() *Registry {
	return &Registry{chats: make(map[uint]map[*Client]struct{})}
}

// Join attaches c to the chat, creating the member set on first join.
// Membership is a set: the same handle joining twice stays one member,
// and a single Leave fully detaches it.
func (r *Registry) Join(chatID uint, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	members := r.chats[chatID]
	if members == nil {
		members = make(map[*Client]struct{})
		r.chats[chatID] = members
	}
	members[c] = struct{}{}
}

// Leave detaches c and removes the chat entry when the last member is
// gone, so no empty entries linger. Leaving a chat the client never
// joined is a no-op; disconnect races must not crash the process.
func (r *Registry) Leave(chatID uint, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	members := r.chats[chatID]
	if members == nil {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(r.chats, chatID)
	}
}

// Members returns a snapshot of the current member set. Callers iterate
// the copy, never the live map.
func (r *Registry) Members(chatID uint) []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	members := r.chats[chatID]
	if len(members) == 0 {
		return nil
	}
	snapshot := make([]*Client, 0, len(members))
	for c := range members {
		snapshot = append(snapshot, c)
	}
	return snapshot
}
