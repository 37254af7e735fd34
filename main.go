package main

import (
	"os"

	"food-donation-server/routes"
	"food-donation-server/storage"
	"food-donation-server/utils"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

func main() {
	godotenv.Load()
	storage.InitializeDB()
	storage.InitializeRedis()

	app := iris.New()
	app.Validator = validator.New()

	// CORS for the web dashboard (http://localhost:3000)
	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})

	app.Use(iris.Compression)

	resetTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("EMAIL_TOKEN_SECRET")))
	resetTokenVerifier.WithDefaultBlocklist()
	resetTokenVerifierMiddleware := resetTokenVerifier.Verify(func() interface{} {
		return new(utils.ForgotPasswordToken)
	})

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifier.WithDefaultBlocklist()
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	refreshTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("REFRESH_TOKEN_SECRET")))
	refreshTokenVerifier.WithDefaultBlocklist()
	refreshTokenVerifierMiddleware := refreshTokenVerifier.Verify(func() interface{} {
		return new(jwt.Claims)
	})

	refreshTokenVerifier.Extractors = append(refreshTokenVerifier.Extractors, func(ctx iris.Context) string {
		var tokenInput utils.RefreshTokenInput
		err := ctx.ReadJSON(&tokenInput)
		if err != nil {
			return ""
		}

		return tokenInput.RefreshToken
	})

	app.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"status": "ok"})
	})

	user := app.Party("/api/user")
	{
		user.Post("/register", routes.Register)
		user.Post("/login", routes.Login)
		user.Post("/google", routes.GoogleLoginOrSignUp)
		user.Post("/apple", routes.AppleLoginOrSignUp)
		user.Post("/forgotpassword", routes.ForgotPassword)
		user.Post("/resetpassword", resetTokenVerifierMiddleware, routes.ResetPassword)
		user.Post("/refresh", refreshTokenVerifierMiddleware, utils.RefreshToken)
		user.Get("/charities", routes.GetCharityUsers)
		user.Get("/", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware, routes.GetUsers)
		user.Get("/{id:uint}", accessTokenVerifierMiddleware, routes.GetUser)
		user.Patch("/{id:uint}", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.UpdateUser)
		user.Delete("/{id:uint}", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.DeleteUser)
		user.Patch("/{id:uint}/pushtoken", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.AlterPushToken)
		user.Patch("/{id:uint}/settings/notifications", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.AllowsNotifications)
	}

	donation := app.Party("/api/donation")
	{
		donation.Post("/", accessTokenVerifierMiddleware, routes.CreateDonation)
		donation.Get("/received/{id:uint}", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.GetReceivedDonations)
		donation.Get("/mine/{id:uint}", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.GetMyDonations)
		donation.Patch("/{id:uint}/status", accessTokenVerifierMiddleware, routes.UpdateDonationStatus)
	}

	chatParty := app.Party("/api/chat")
	{
		chatParty.Post("/", accessTokenVerifierMiddleware, routes.CreateDonationChat)
		chatParty.Get("/", accessTokenVerifierMiddleware, routes.GetDonationChat)
		chatParty.Post("/message", accessTokenVerifierMiddleware, routes.CreateChatMessage)
		chatParty.Get("/{id:uint}/messages", accessTokenVerifierMiddleware, routes.GetDonationChatMessages)
		chatParty.Patch("/{id:uint}/messages/read", accessTokenVerifierMiddleware, routes.MarkChatMessagesRead)
		chatParty.Get("/user/{id:uint}", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.GetUserRelatedChats)
	}

	// Websocket entry; mobile clients can't set Authorization headers on
	// the upgrade request, so the chat existence check is the gate here.
	app.Get("/ws/chat/{id:uint}", routes.DonationChatWebSocket)

	statistics := app.Party("/api/statistics", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware)
	{
		statistics.Get("/donation_status_distribution", routes.DonationStatusDistribution)
		statistics.Get("/food_category_distribution", routes.FoodCategoryDistribution)
		statistics.Get("/monthly_donations", routes.MonthlyDonations)
		statistics.Get("/top_two_donated_foods", routes.TopTwoDonatedFoods)
		statistics.Get("/donations_by_role", routes.DonationsByRole)
		statistics.Get("/users_by_role", routes.UsersByRole)
		statistics.Get("/total_donations", routes.TotalDonations)
		statistics.Get("/total_food", routes.TotalFood)
		statistics.Get("/total_users", routes.TotalUsers)
		statistics.Get("/total_charities", routes.TotalCharities)
		statistics.Get("/donations_report", routes.DonationsReport)
		statistics.Get("/food_donations_report", routes.FoodDonationsReport)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}

	app.Listen(":" + port)
}
