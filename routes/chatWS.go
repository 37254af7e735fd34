package routes

import (
	"log"
	"net/http"

	"food-donation-server/chat"
	"food-donation-server/models"
	"food-donation-server/services"
	"food-donation-server/storage"
	"food-donation-server/utils"

	"github.com/gorilla/websocket"
	"github.com/kataras/iris/v12"
)

var (
	chatRegistry   = chat.NewRegistry()
	chatDispatcher = chat.NewDispatcher(chatRegistry)

	chatUpgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// Mobile clients connect from app schemes, not browser origins.
		CheckOrigin: func(r *http.Request) bool { return true },
	}
)

// DonationChatWebSocket upgrades the request and hands the connection
// to a chat session. The upgrade is refused when the chat does not
// exist, so sessions only ever join real conversations.
func DonationChatWebSocket(ctx iris.Context) {
	chatID := ctx.Params().GetUintDefault("id", 0)

	var donationChat models.DonationChat
	if err := storage.DB.First(&donationChat, chatID).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Donation chat not found.", ctx)
		return
	}

	conn, err := chatUpgrader.Upgrade(ctx.ResponseWriter(), ctx.Request(), nil)
	if err != nil {
		log.Println("chat: upgrade:", err)
		return
	}

	client := chat.NewClient(conn)
	go client.WritePump()

	session := chat.NewSession(chatID, client, chatRegistry, chatDispatcher, chat.NewGormMessageStore(storage.DB))
	session.OnPersist(func(msg *models.ChatMessage) {
		services.Notifications.NotifyNewChatMessage(msg.ReceiverID, msg.MessageValue)
	})
	session.Run()
}
