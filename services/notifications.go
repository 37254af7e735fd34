package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"food-donation-server/models"
	"food-donation-server/storage"
)

const expoPushEndpoint = "https://exp.host/--/api/v2/push/send"

// NotificationService pushes Expo notifications to the mobile clients.
// Every send is best-effort; chat and donation flows never block on it.
type NotificationService struct {
	client *http.Client
}

func NewNotificationService() *NotificationService {
	return &NotificationService{client: &http.Client{Timeout: 10 * time.Second}}
}

type expoPushMessage struct {
	To    []string          `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
	Sound string            `json:"sound"`
}

// userPushTokens returns the target's Expo tokens, or an error when the
// user opted out or registered none.
func (ns *NotificationService) userPushTokens(userID uint) ([]string, error) {
	var user models.User
	if err := storage.DB.First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("user not found: %v", err)
	}

	if user.AllowsNotifications == nil || !*user.AllowsNotifications || user.PushTokens == nil {
		return nil, fmt.Errorf("user %d has notifications disabled or no tokens", userID)
	}

	var tokens []string
	if err := json.Unmarshal(user.PushTokens, &tokens); err != nil {
		return nil, fmt.Errorf("unmarshal push tokens: %v", err)
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("user %d has no push tokens", userID)
	}

	return tokens, nil
}

func (ns *NotificationService) send(userID uint, title, body string, data map[string]string) error {
	tokens, err := ns.userPushTokens(userID)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(expoPushMessage{
		To:    tokens,
		Title: title,
		Body:  body,
		Data:  data,
		Sound: "default",
	})
	if err != nil {
		return err
	}

	res, err := ns.client.Post(expoPushEndpoint, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("expo push returned %s", res.Status)
	}

	return nil
}

// NotifyNewChatMessage tells the receiver a chat message arrived. Runs
// after the message is persisted and broadcast; failures are only logged.
func (ns *NotificationService) NotifyNewChatMessage(receiverID uint, messageValue string) {
	preview := messageValue
	if len(preview) > 120 {
		preview = preview[:120] + "…"
	}

	data := map[string]string{
		"type":   "chat_message",
		"screen": "Chat",
	}

	if err := ns.send(receiverID, "Nuevo mensaje", preview, data); err != nil {
		log.Printf("notifications: chat message to user %d: %v", receiverID, err)
	}
}

// NotifyDonationStatus tells the donor their donation changed state.
func (ns *NotificationService) NotifyDonationStatus(donorID uint, donationID uint, status string) {
	data := map[string]string{
		"type":   "donation_status",
		"id":     fmt.Sprintf("%d", donationID),
		"screen": "MyDonations",
	}

	if err := ns.send(donorID, "Donación actualizada", "Tu donación ahora está "+status+".", data); err != nil {
		log.Printf("notifications: donation status to user %d: %v", donorID, err)
	}
}

// NotifyNewDonation tells a charity a donation was addressed to them.
func (ns *NotificationService) NotifyNewDonation(charityID uint, donorName string) {
	data := map[string]string{
		"type":   "donation_created",
		"screen": "ReceivedDonations",
	}

	if err := ns.send(charityID, "Nueva donación", donorName+" quiere donar alimentos.", data); err != nil {
		log.Printf("notifications: new donation to user %d: %v", charityID, err)
	}
}

// Notifications is the shared instance the routes use.
var Notifications = NewNotificationService()
