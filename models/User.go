package models

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Name                string          `json:"name"`
	PhoneNumber         string          `json:"phoneNumber" gorm:"size:20"`
	Email               string          `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Password            string          `json:"-"`
	Address             string          `json:"address" gorm:"size:255"`
	Role                string          `json:"role" gorm:"type:varchar(20);default:donor;index"` // donor, charity, admin
	SocialLogin         bool            `json:"socialLogin"`
	SocialProvider      string          `json:"socialProvider"`
	PushTokens          datatypes.JSON  `json:"pushTokens"`
	AllowsNotifications *bool           `json:"allowsNotifications"`
	CharityProfile      *CharityProfile `json:"charityProfile,omitempty" gorm:"foreignKey:UserID"`
}

// MarshalJSON flattens the PushTokens JSON column into a string slice.
func (u *User) MarshalJSON() ([]byte, error) {
	type Alias User
	aux := &struct {
		PushTokens []string `json:"pushTokens,omitempty"`
		*Alias
	}{
		PushTokens: []string{},
		Alias:      (*Alias)(u),
	}

	if u.PushTokens != nil {
		var tokens []string
		if err := json.Unmarshal(u.PushTokens, &tokens); err == nil {
			aux.PushTokens = tokens
		}
	}

	return json.Marshal(aux)
}
