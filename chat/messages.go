package chat

import "time"

// InboundMessage is one frame sent by a connected client. SentTime is
// optional; the session substitutes the current time when it is absent.
type InboundMessage struct {
	SenderID     uint       `json:"sender_id"`
	ReceiverID   uint       `json:"receiver_id"`
	MessageValue string     `json:"message_value"`
	SentTime     *time.Time `json:"sent_time"`
}

// OutboundMessage is fanned out to every member of a chat once the
// message has been persisted and carries the assigned message ID and the
// normalized timestamp.
type OutboundMessage struct {
	MessageID      uint      `json:"message_id"`
	DonationChatID uint      `json:"donation_chat_id"`
	SenderID       uint      `json:"sender_id"`
	ReceiverID     uint      `json:"receiver_id"`
	MessageValue   string    `json:"message_value"`
	SentTime       time.Time `json:"sent_time"`
	IsRead         bool      `json:"is_read"`
}

// ErrorFrame is delivered only to the socket whose own message failed.
type ErrorFrame struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
