package models

// CharityProfile extends a charity-role user with public-facing details.
type CharityProfile struct {
	UserID        uint   `json:"userID" gorm:"primaryKey"`
	SocialProfile string `json:"socialProfile" gorm:"size:255"`
	Description   string `json:"description" gorm:"size:500"`
}
