package chat

import (
	"encoding/json"
	"log"
)

// Dispatcher fans one persisted message out to every member of a chat.
type Dispatcher struct {
	registry *Registry
}

func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// Broadcast delivers msg to every current member. A member whose buffer
// is full or whose pump already stopped is logged and skipped; its own
// session loop deregisters it, the dispatcher never mutates the
// registry. Broadcasting to a chat with no members is a no-op.
func (d *Dispatcher) Broadcast(chatID uint, msg OutboundMessage) {
	members := d.registry.Members(chatID)
	if len(members) == 0 {
		return
	}

	frame, err := json.Marshal(msg)
	if err != nil {
		log.Printf("chat: marshal broadcast for chat %d: %v", chatID, err)
		return
	}

	for _, member := range members {
		if !member.enqueue(frame) {
			log.Printf("chat: dropped frame for one member of chat %d (slow or closing)", chatID)
		}
	}
}
