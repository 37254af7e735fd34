package chat

import (
	"food-donation-server/models"

	"gorm.io/gorm"
)

// MessageStore is the persistence contract the session depends on.
// Insert assigns the message ID; it fails when the database is
// unreachable or the chat the message points at does not exist.
type MessageStore interface {
	Insert(msg *models.ChatMessage) error
	ByChat(chatID uint) ([]models.ChatMessage, error)
}

type GormMessageStore struct {
	db *gorm.DB
}

func NewGormMessageStore(db *gorm.DB) *GormMessageStore {
	return &GormMessageStore{db: db}
}

func (s *GormMessageStore) Insert(msg *models.ChatMessage) error {
	return s.db.Create(msg).Error
}

func (s *GormMessageStore) ByChat(chatID uint) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	err := s.db.Where("donation_chat_id = ?", chatID).Order("id").Find(&msgs).Error
	return msgs, err
}
