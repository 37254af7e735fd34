package routes

import (
	"time"

	"food-donation-server/chat"
	"food-donation-server/models"
	"food-donation-server/services"
	"food-donation-server/storage"
	"food-donation-server/utils"

	"github.com/kataras/iris/v12"
)

// CreateDonationChat opens the chat attached to a donation. A donation
// has at most one chat, so hitting an existing one returns it instead
// of erroring.
func CreateDonationChat(ctx iris.Context) {
	var chatInput CreateDonationChatInput
	err := ctx.ReadJSON(&chatInput)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var donation models.Donation
	if err := storage.DB.First(&donation, chatInput.DonationID).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Donation not found.", ctx)
		return
	}

	var existing models.DonationChat
	result := storage.DB.Where("donation_id = ?", chatInput.DonationID).Limit(1).Find(&existing)
	if result.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if result.RowsAffected > 0 {
		ctx.JSON(existing)
		return
	}

	donationChat := newDonationChat(chatInput.DonationID, chatInput.CreatorID)
	if err := storage.DB.Create(&donationChat).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(donationChat)
}

// newDonationChat stamps the chat with the same zone-naive Bogotá wall
// clock every chat message carries.
func newDonationChat(donationID, creatorID uint) models.DonationChat {
	return models.DonationChat{
		DonationID: donationID,
		CreatorID:  creatorID,
		CreatedAt:  utils.NormalizeSentTime(nil),
	}
}

// GetDonationChat looks a chat up either by its own id or by the
// donation it belongs to, whichever query param is present.
func GetDonationChat(ctx iris.Context) {
	donationID := ctx.URLParamUint64("donation_id")
	donationChatID := ctx.URLParamUint64("donation_chat_id")

	if donationID == 0 && donationChatID == 0 {
		utils.CreateError(iris.StatusBadRequest, "Bad Request",
			"Provide donation_id or donation_chat_id.", ctx)
		return
	}

	var donationChat models.DonationChat
	query := storage.DB
	if donationChatID != 0 {
		query = query.Where("id = ?", donationChatID)
	} else {
		query = query.Where("donation_id = ?", donationID)
	}

	if err := query.First(&donationChat).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	ctx.JSON(donationChat)
}

// CreateChatMessage is the HTTP path into a chat, used when the sender
// has no open socket. Messages land in the same store the websocket
// sessions read and write.
func CreateChatMessage(ctx iris.Context) {
	var messageInput CreateChatMessageInput
	err := ctx.ReadJSON(&messageInput)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var donationChat models.DonationChat
	if err := storage.DB.First(&donationChat, messageInput.DonationChatID).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Donation chat not found.", ctx)
		return
	}

	message := models.ChatMessage{
		DonationChatID: messageInput.DonationChatID,
		SenderID:       messageInput.SenderID,
		ReceiverID:     messageInput.ReceiverID,
		MessageValue:   messageInput.MessageValue,
		SentTime:       utils.NormalizeSentTime(messageInput.SentTime),
	}

	store := chat.NewGormMessageStore(storage.DB)
	if err := store.Insert(&message); err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	// Members with an open socket still get the message live.
	chatDispatcher.Broadcast(message.DonationChatID, chat.OutboundMessage{
		MessageID:      message.ID,
		DonationChatID: message.DonationChatID,
		SenderID:       message.SenderID,
		ReceiverID:     message.ReceiverID,
		MessageValue:   message.MessageValue,
		SentTime:       message.SentTime,
		IsRead:         message.IsRead,
	})

	go services.Notifications.NotifyNewChatMessage(message.ReceiverID, message.MessageValue)

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(message)
}

func GetDonationChatMessages(ctx iris.Context) {
	id := ctx.Params().GetUintDefault("id", 0)

	var donationChat models.DonationChat
	if err := storage.DB.First(&donationChat, id).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Donation chat not found.", ctx)
		return
	}

	store := chat.NewGormMessageStore(storage.DB)
	messages, err := store.ByChat(id)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(messages)
}

// GetUserRelatedChats lists every chat on a donation the user is part
// of, donor or charity side, newest first.
func GetUserRelatedChats(ctx iris.Context) {
	id := ctx.Params().GetUintDefault("id", 0)

	var donationIDs []uint
	if err := storage.DB.Model(&models.Donation{}).
		Where("donor_id = ? OR receiver_id = ?", id, id).
		Pluck("id", &donationIDs).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if len(donationIDs) == 0 {
		ctx.JSON([]models.DonationChat{})
		return
	}

	var chats []models.DonationChat
	if err := storage.DB.Where("donation_id IN ?", donationIDs).
		Order("created_at DESC").
		Find(&chats).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	type userChat struct {
		models.DonationChat
		CounterpartName string `json:"counterpartName"`
		LastMessage     string `json:"lastMessage"`
	}

	out := make([]userChat, 0, len(chats))
	for _, c := range chats {
		var donation models.Donation
		if err := storage.DB.First(&donation, c.DonationID).Error; err != nil {
			continue
		}

		counterpartID := donation.DonorID
		if counterpartID == id {
			counterpartID = donation.ReceiverID
		}
		var counterpart models.User
		storage.DB.First(&counterpart, counterpartID)

		var last models.ChatMessage
		lastResult := storage.DB.Where("donation_chat_id = ?", c.ID).Order("id DESC").Limit(1).Find(&last)

		entry := userChat{DonationChat: c, CounterpartName: counterpart.Name}
		if lastResult.RowsAffected > 0 {
			entry.LastMessage = last.MessageValue
		}
		out = append(out, entry)
	}

	ctx.JSON(out)
}

// MarkChatMessagesRead flips is_read on every message addressed to the
// reader inside one chat.
func MarkChatMessagesRead(ctx iris.Context) {
	id := ctx.Params().GetUintDefault("id", 0)

	var readInput MarkMessagesReadInput
	if err := ctx.ReadJSON(&readInput); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	result := storage.DB.Model(&models.ChatMessage{}).
		Where("donation_chat_id = ? AND receiver_id = ? AND is_read = ?", id, readInput.ReaderID, false).
		Update("is_read", true)
	if result.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"updated": result.RowsAffected})
}

type CreateDonationChatInput struct {
	DonationID uint `json:"donation_id" validate:"required"`
	CreatorID  uint `json:"creator_id" validate:"required"`
}

type CreateChatMessageInput struct {
	DonationChatID uint       `json:"donation_chat_id" validate:"required"`
	SenderID       uint       `json:"sender_id" validate:"required"`
	ReceiverID     uint       `json:"receiver_id" validate:"required"`
	MessageValue   string     `json:"message_value" validate:"required,max=1000"`
	SentTime       *time.Time `json:"sent_time"`
}

type MarkMessagesReadInput struct {
	ReaderID uint `json:"reader_id" validate:"required"`
}
