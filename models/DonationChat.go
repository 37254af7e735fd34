package models

import "time"

// DonationChat is the single conversation attached to a donation.
// The unique index on DonationID keeps it at most one chat per donation.
type DonationChat struct {
	ID         uint      `json:"donationChatID" gorm:"primaryKey"`
	DonationID uint      `json:"donationID" gorm:"uniqueIndex;not null"`
	CreatorID  uint      `json:"creatorID" gorm:"not null;index"`
	Donation   Donation  `json:"-" gorm:"foreignKey:DonationID"`
	Creator    User      `json:"-" gorm:"foreignKey:CreatorID"`
	CreatedAt  time.Time `json:"createdAt"`
}
