package models

type DonatedFood struct {
	ID             uint   `json:"id" gorm:"primaryKey"`
	DonationID     uint   `json:"donationID" gorm:"not null;index"`
	Category       string `json:"category" gorm:"size:255;not null"`
	Quantity       int    `json:"quantity" gorm:"not null"`
	UnitOfMeasure  string `json:"unitOfMeasure" gorm:"size:50;not null"` // kilogramos, litros, unidades...
	ExpirationDate string `json:"expirationDate" gorm:"type:date;not null"`
}
