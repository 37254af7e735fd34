package chat

import (
	"encoding/json"
	"log"
	"time"

	"food-donation-server/models"
	"food-donation-server/utils"

	"github.com/gorilla/websocket"
)

// Session owns one client's attachment to one donation chat: it joins
// the registry, reads inbound frames one at a time, persists each
// message and only then fans it out. Messages from one connection are
// processed strictly in arrival order.
type Session struct {
	chatID     uint
	client     *Client
	registry   *Registry
	dispatcher *Dispatcher
	store      MessageStore
	onPersist  func(*models.ChatMessage)
}

func NewSession(chatID uint, client *Client, registry *Registry, dispatcher *Dispatcher, store MessageStore) *Session {
	return &Session{
		chatID:     chatID,
		client:     client,
		registry:   registry,
		dispatcher: dispatcher,
		store:      store,
	}
}

// OnPersist registers a callback invoked after each message is stored
// and broadcast, off the session's critical path. Used for push
// notifications.
func (s *Session) OnPersist(fn func(*models.ChatMessage)) {
	s.onPersist = fn
}

// Run drives the connection until the transport drops or persistence
// fails. Leaving the registry is the one mandatory cleanup action and
// runs on every exit path.
func (s *Session) Run() {
	s.registry.Join(s.chatID, s.client)
	defer func() {
		s.registry.Leave(s.chatID, s.client)
		s.client.shutdown()
	}()

	s.client.conn.SetReadLimit(maxMessageSize)
	s.client.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.client.conn.SetPongHandler(func(string) error {
		return s.client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("chat: read on chat %d: %v", s.chatID, err)
			}
			return
		}

		var in InboundMessage
		if err := json.Unmarshal(raw, &in); err != nil {
			s.reject("validation_error", "malformed message payload")
			continue
		}

		if err := s.handleInbound(in); err != nil {
			// Store failure was already reported to the sender; the
			// session is done but other members observed nothing.
			return
		}
	}
}

func (s *Session) handleInbound(in InboundMessage) error {
	if in.SenderID == 0 || in.ReceiverID == 0 || in.MessageValue == "" {
		s.reject("validation_error", "sender_id, receiver_id and message_value are required")
		return nil
	}

	msg := models.ChatMessage{
		DonationChatID: s.chatID,
		SenderID:       in.SenderID,
		ReceiverID:     in.ReceiverID,
		MessageValue:   in.MessageValue,
		SentTime:       utils.NormalizeSentTime(in.SentTime),
		IsRead:         false,
	}

	if err := s.store.Insert(&msg); err != nil {
		log.Printf("chat: persist message on chat %d: %v", s.chatID, err)
		s.reject("store_error", "message could not be stored")
		return err
	}

	s.dispatcher.Broadcast(s.chatID, OutboundMessage{
		MessageID:      msg.ID,
		DonationChatID: msg.DonationChatID,
		SenderID:       msg.SenderID,
		ReceiverID:     msg.ReceiverID,
		MessageValue:   msg.MessageValue,
		SentTime:       msg.SentTime,
		IsRead:         msg.IsRead,
	})

	if s.onPersist != nil {
		go s.onPersist(&msg)
	}

	return nil
}

// reject reports a failure to the offending client only; other members
// of the chat never observe it.
func (s *Session) reject(code, detail string) {
	frame, err := json.Marshal(ErrorFrame{Error: code, Message: detail})
	if err != nil {
		return
	}
	s.client.enqueue(frame)
}
