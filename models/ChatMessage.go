package models

import "time"

// ChatMessage is one unit of conversation inside a donation chat.
// SentTime is stored zone-naive, already shifted to the reference
// time zone (America/Bogota); see utils.NormalizeSentTime.
type ChatMessage struct {
	ID             uint         `json:"message_id" gorm:"primaryKey"`
	DonationChatID uint         `json:"donation_chat_id" gorm:"not null;index"`
	DonationChat   DonationChat `json:"-" gorm:"foreignKey:DonationChatID"`
	SenderID       uint         `json:"sender_id" gorm:"not null;index"`
	ReceiverID     uint         `json:"receiver_id" gorm:"not null;index"`
	MessageValue   string       `json:"message_value" gorm:"size:1000;not null"`
	SentTime       time.Time    `json:"sent_time" gorm:"not null"`
	IsRead         bool         `json:"is_read" gorm:"default:false;not null"`
}
