package routes

import (
	"time"

	"food-donation-server/models"
	"food-donation-server/services"
	"food-donation-server/storage"
	"food-donation-server/utils"

	"github.com/kataras/iris/v12"
	"gorm.io/gorm"
)

func CreateDonation(ctx iris.Context) {
	var donationInput CreateDonationInput
	err := ctx.ReadJSON(&donationInput)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var receiver models.User
	if err := storage.DB.First(&receiver, donationInput.ReceiverID).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Receiver not found.", ctx)
		return
	}
	if receiver.Role != "charity" {
		utils.CreateError(iris.StatusBadRequest, "Invalid Receiver", "Donations can only be sent to charities.", ctx)
		return
	}

	donation := models.Donation{
		DonorID:     donationInput.DonorID,
		ReceiverID:  donationInput.ReceiverID,
		Description: donationInput.Description,
		Status:      "pendiente",
		CreatedAt:   time.Now(),
	}

	// Donation and foods land together or not at all.
	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&donation).Error; err != nil {
			return err
		}
		for _, foodInput := range donationInput.DonatedFoods {
			food := models.DonatedFood{
				DonationID:     donation.ID,
				Category:       foodInput.Category,
				Quantity:       foodInput.Quantity,
				UnitOfMeasure:  foodInput.UnitOfMeasure,
				ExpirationDate: foodInput.ExpirationDate,
			}
			if err := tx.Create(&food).Error; err != nil {
				return err
			}
			donation.DonatedFoods = append(donation.DonatedFoods, food)
		}
		return nil
	})

	if txErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var donor models.User
	if err := storage.DB.First(&donor, donation.DonorID).Error; err == nil {
		go services.Notifications.NotifyNewDonation(donation.ReceiverID, donor.Name)
	}

	utils.Audit(ctx, "donation.create", "donation", donation.ID, nil, donation)
	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(donation)
}

// GetReceivedDonations lists the donations addressed to a charity.
func GetReceivedDonations(ctx iris.Context) {
	id := ctx.Params().GetUintDefault("id", 0)

	var donations []models.Donation
	if err := storage.DB.Preload("DonatedFoods").
		Where("receiver_id = ?", id).
		Order("created_at DESC").
		Find(&donations).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	type receivedDonation struct {
		models.Donation
		DonorName    string `json:"donorName"`
		DonorAddress string `json:"donorAddress"`
	}

	out := make([]receivedDonation, 0, len(donations))
	for _, donation := range donations {
		var donor models.User
		storage.DB.First(&donor, donation.DonorID)
		out = append(out, receivedDonation{Donation: donation, DonorName: donor.Name, DonorAddress: donor.Address})
	}

	ctx.JSON(out)
}

// GetMyDonations lists a donor's own donations, with the charity's
// name and address attached for the history screen.
func GetMyDonations(ctx iris.Context) {
	id := ctx.Params().GetUintDefault("id", 0)

	var donations []models.Donation
	if err := storage.DB.Preload("DonatedFoods").
		Where("donor_id = ?", id).
		Order("created_at DESC").
		Find(&donations).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	type myDonation struct {
		models.Donation
		CharityName    string `json:"charityName"`
		CharityAddress string `json:"charityAddress"`
	}

	out := make([]myDonation, 0, len(donations))
	for _, donation := range donations {
		var charity models.User
		storage.DB.First(&charity, donation.ReceiverID)
		out = append(out, myDonation{Donation: donation, CharityName: charity.Name, CharityAddress: charity.Address})
	}

	ctx.JSON(out)
}

func UpdateDonationStatus(ctx iris.Context) {
	id := ctx.Params().GetUintDefault("id", 0)

	var statusInput UpdateDonationStatusInput
	err := ctx.ReadJSON(&statusInput)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var donation models.Donation
	if err := storage.DB.First(&donation, id).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	previousStatus := donation.Status
	donation.Status = statusInput.Status
	if err := storage.DB.Save(&donation).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	go services.Notifications.NotifyDonationStatus(donation.DonorID, donation.ID, donation.Status)

	utils.Audit(ctx, "donation.status", "donation", donation.ID,
		iris.Map{"status": previousStatus}, iris.Map{"status": donation.Status})
	ctx.JSON(donation)
}

type DonatedFoodInput struct {
	Category       string `json:"category" validate:"required,max=255"`
	Quantity       int    `json:"quantity" validate:"required,gt=0"`
	UnitOfMeasure  string `json:"unitOfMeasure" validate:"required,max=50"`
	ExpirationDate string `json:"expirationDate" validate:"required,datetime=2006-01-02"`
}

type CreateDonationInput struct {
	DonorID      uint               `json:"donorID" validate:"required"`
	ReceiverID   uint               `json:"receiverID" validate:"required"`
	Description  string             `json:"description" validate:"max=255"`
	DonatedFoods []DonatedFoodInput `json:"donatedFoods" validate:"required,min=1,dive"`
}

type UpdateDonationStatusInput struct {
	Status string `json:"status" validate:"required,oneof=pendiente aceptada rechazada entregada"`
}
