package models

import (
	"time"
)

type Donation struct {
	ID           uint          `json:"id" gorm:"primaryKey"`
	DonorID      uint          `json:"donorID" gorm:"not null;index"`
	ReceiverID   uint          `json:"receiverID" gorm:"not null;index"`
	Donor        User          `json:"-" gorm:"foreignKey:DonorID"`
	Receiver     User          `json:"-" gorm:"foreignKey:ReceiverID"`
	Description  string        `json:"description" gorm:"size:255"`
	Status       string        `json:"status" gorm:"size:50;default:pendiente;index"`
	CreatedAt    time.Time     `json:"createdAt"`
	DonatedFoods []DonatedFood `json:"donatedFoods" gorm:"foreignKey:DonationID"`
}
