package routes

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"food-donation-server/models"
	"food-donation-server/storage"
	"food-donation-server/utils"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"
	"github.com/kataras/iris/v12"
	jsonWT "github.com/kataras/iris/v12/middleware/jwt"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

func Register(ctx iris.Context) {
	var userInput RegisterUserInput
	err := ctx.ReadJSON(&userInput)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var newUser models.User
	userExists, userExistsErr := getAndHandleUserExists(&newUser, userInput.Email)
	if userExistsErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if userExists {
		utils.CreateEmailAlreadyRegistered(ctx)
		return
	}

	hashedPassword, hashErr := hashAndSaltPassword(userInput.Password)
	if hashErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	newUser = models.User{
		Name:        userInput.Name,
		PhoneNumber: userInput.PhoneNumber,
		Email:       strings.ToLower(userInput.Email),
		Password:    hashedPassword,
		Address:     userInput.Address,
		Role:        userInput.Role,
		SocialLogin: false,
	}

	storage.DB.Create(&newUser)

	if userInput.Role == "charity" && userInput.CharityProfile != nil {
		profile := models.CharityProfile{
			UserID:        newUser.ID,
			SocialProfile: userInput.CharityProfile.SocialProfile,
			Description:   userInput.CharityProfile.Description,
		}
		storage.DB.Create(&profile)
		newUser.CharityProfile = &profile
	}

	returnUser(newUser, ctx)
}

func Login(ctx iris.Context) {
	var userInput LoginUserInput
	err := ctx.ReadJSON(&userInput)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var existingUser models.User
	errorMsg := "Invalid email or password."
	userExists, userExistsErr := getAndHandleUserExists(&existingUser, userInput.Email)
	if userExistsErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if !userExists {
		utils.CreateError(iris.StatusUnauthorized, "Credentials Error", errorMsg, ctx)
		return
	}

	if existingUser.SocialLogin {
		utils.CreateError(iris.StatusUnauthorized, "Credentials Error", "Social Login Account", ctx)
		return
	}

	passwordErr := bcrypt.CompareHashAndPassword([]byte(existingUser.Password), []byte(userInput.Password))
	if passwordErr != nil {
		utils.CreateError(iris.StatusUnauthorized, "Credentials Error", errorMsg, ctx)
		return
	}

	returnUser(existingUser, ctx)
}

func GoogleLoginOrSignUp(ctx iris.Context) {
	var userInput GoogleUserInput
	err := ctx.ReadJSON(&userInput)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	endpoint := "https://www.googleapis.com/userinfo/v2/me"

	client := &http.Client{}
	req, _ := http.NewRequest("GET", endpoint, nil)
	req.Header.Set("Authorization", "Bearer "+userInput.AccessToken)
	res, googleErr := client.Do(req)
	if googleErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	defer res.Body.Close()
	body, bodyErr := io.ReadAll(res.Body)
	if bodyErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var googleBody GoogleUserRes
	json.Unmarshal(body, &googleBody)

	if googleBody.Email == "" {
		utils.CreateError(iris.StatusUnauthorized, "Unauthorized", "Invalid access token.", ctx)
		return
	}

	var user models.User
	userExists, userExistsErr := getAndHandleUserExists(&user, googleBody.Email)
	if userExistsErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if !userExists {
		user = models.User{Name: googleBody.Name, Email: strings.ToLower(googleBody.Email), Role: "donor", SocialLogin: true, SocialProvider: "Google"}
		storage.DB.Create(&user)

		returnUser(user, ctx)
		return
	}

	if user.SocialLogin && user.SocialProvider == "Google" {
		returnUser(user, ctx)
		return
	}

	utils.CreateEmailAlreadyRegistered(ctx)
}

func AppleLoginOrSignUp(ctx iris.Context) {
	var userInput AppleUserInput
	err := ctx.ReadJSON(&userInput)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	res, httpErr := http.Get("https://appleid.apple.com/auth/keys")
	if httpErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	defer res.Body.Close()

	body, bodyErr := io.ReadAll(res.Body)
	if bodyErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	jwks, jwksErr := keyfunc.NewJSON(body)
	if jwksErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	// Keyfunc picks the JWKS key matching the token's kid.
	token, tokenErr := jwt.Parse(userInput.IdentityToken, jwks.Keyfunc)
	if tokenErr != nil || !token.Valid {
		utils.CreateError(iris.StatusUnauthorized, "Unauthorized", "Invalid user token.", ctx)
		return
	}

	email := fmt.Sprint(token.Claims.(jwt.MapClaims)["email"])
	if email == "" {
		utils.CreateError(iris.StatusUnauthorized, "Unauthorized", "Invalid user token.", ctx)
		return
	}

	var user models.User
	userExists, userExistsErr := getAndHandleUserExists(&user, email)
	if userExistsErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if !userExists {
		user = models.User{Name: "", Email: strings.ToLower(email), Role: "donor", SocialLogin: true, SocialProvider: "Apple"}
		storage.DB.Create(&user)

		returnUser(user, ctx)
		return
	}

	if user.SocialLogin && user.SocialProvider == "Apple" {
		returnUser(user, ctx)
		return
	}

	utils.CreateEmailAlreadyRegistered(ctx)
}

func ForgotPassword(ctx iris.Context) {
	var emailInput EmailRegisteredInput
	err := ctx.ReadJSON(&emailInput)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var user models.User
	userExists, userExistsErr := getAndHandleUserExists(&user, emailInput.Email)
	if userExistsErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if !userExists {
		utils.CreateError(iris.StatusUnauthorized, "Credentials Error", "Invalid email.", ctx)
		return
	}

	if user.SocialLogin {
		utils.CreateError(iris.StatusUnauthorized, "Credentials Error", "Social Login Account", ctx)
		return
	}

	token, tokenErr := utils.CreateForgotPasswordToken(user.ID, user.Email)
	if tokenErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	link := strings.TrimSuffix(envOr("RESET_PASSWORD_LINK", "http://localhost:3000/resetpassword/"), "/") + "/" + token
	subject := "Forgot Your Password?"
	html := `
	<p>It looks like you forgot your password.
	If you did, please click the link below to reset it.
	If you did not, disregard this email. Please update your password
	within 10 minutes, otherwise you will have to repeat this
	process. <a href=` + link + `>Click to Reset Password</a>
	</p><br />`

	emailSent, emailSentErr := utils.SendMail(user.Email, subject, html)
	if emailSentErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"emailSent": emailSent})
}

func ResetPassword(ctx iris.Context) {
	var password ResetPasswordInput
	err := ctx.ReadJSON(&password)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	hashedPassword, hashErr := hashAndSaltPassword(password.Password)
	if hashErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	claims := jsonWT.Get(ctx).(*utils.ForgotPasswordToken)

	var user models.User
	if err := storage.DB.Model(&user).Where("id = ?", claims.ID).Update("password", hashedPassword).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"passwordReset": true})
}

func GetUsers(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 20)
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	var total int64
	if err := storage.DB.Model(&models.User{}).Count(&total).Error; err != nil {
		utils.JSONError(ctx, iris.StatusInternalServerError, "internal_error", "could not list users")
		return
	}

	var users []models.User
	if err := storage.DB.Offset((page - 1) * perPage).Limit(perPage).Find(&users).Error; err != nil {
		utils.JSONError(ctx, iris.StatusInternalServerError, "internal_error", "could not list users")
		return
	}

	utils.JSONPage(ctx, users, page, perPage, total)
}

func GetUser(ctx iris.Context) {
	id := ctx.Params().GetUintDefault("id", 0)
	if id == 0 {
		ctx.StopWithStatus(http.StatusBadRequest)
		return
	}

	var user models.User
	if err := storage.DB.First(&user, id).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	if user.Role == "charity" {
		var profile models.CharityProfile
		if err := storage.DB.First(&profile, "user_id = ?", user.ID).Error; err == nil {
			user.CharityProfile = &profile
		}
	}

	ctx.JSON(user)
}

// GetCharityUsers lists every charity with its profile, for the donor's
// "pick a charity" screen.
func GetCharityUsers(ctx iris.Context) {
	var charities []models.User
	if err := storage.DB.Preload("CharityProfile").Where("role = ?", "charity").Find(&charities).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(charities)
}

func UpdateUser(ctx iris.Context) {
	id := ctx.Params().GetUintDefault("id", 0)

	var userInput UpdateUserInput
	err := ctx.ReadJSON(&userInput)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var user models.User
	if err := storage.DB.First(&user, id).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	if userInput.Name != "" {
		user.Name = userInput.Name
	}
	if userInput.PhoneNumber != "" {
		user.PhoneNumber = userInput.PhoneNumber
	}
	if userInput.Email != "" {
		user.Email = strings.ToLower(userInput.Email)
	}
	if userInput.Password != "" {
		hashedPassword, hashErr := hashAndSaltPassword(userInput.Password)
		if hashErr != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
		user.Password = hashedPassword
	}
	if userInput.Address != "" {
		user.Address = userInput.Address
	}
	if userInput.Role != "" {
		user.Role = userInput.Role
	}

	if err := storage.DB.Save(&user).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	// Charities keep their profile in sync through the same call.
	if user.Role == "charity" && userInput.CharityProfile != nil {
		var profile models.CharityProfile
		result := storage.DB.Where("user_id = ?", user.ID).Limit(1).Find(&profile)
		profile.UserID = user.ID
		profile.SocialProfile = userInput.CharityProfile.SocialProfile
		profile.Description = userInput.CharityProfile.Description
		if result.RowsAffected > 0 {
			storage.DB.Save(&profile)
		} else {
			storage.DB.Create(&profile)
		}
	}

	ctx.JSON(iris.Map{"message": "User updated successfully"})
}

// DeleteUser removes a user and everything hanging off it: chat
// messages, donation chats, donated foods, donations and the charity
// profile. One transaction, so a failure midway leaves nothing orphaned.
func DeleteUser(ctx iris.Context) {
	id := ctx.Params().GetUintDefault("id", 0)

	var user models.User
	if err := storage.DB.First(&user, id).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("sender_id = ? OR receiver_id = ?", id, id).Delete(&models.ChatMessage{}).Error; err != nil {
			return err
		}

		var donationIDs []uint
		if err := tx.Model(&models.Donation{}).
			Where("donor_id = ? OR receiver_id = ?", id, id).
			Pluck("id", &donationIDs).Error; err != nil {
			return err
		}

		if len(donationIDs) > 0 {
			var chatIDs []uint
			if err := tx.Model(&models.DonationChat{}).
				Where("donation_id IN ?", donationIDs).
				Pluck("id", &chatIDs).Error; err != nil {
				return err
			}
			if len(chatIDs) > 0 {
				if err := tx.Where("donation_chat_id IN ?", chatIDs).Delete(&models.ChatMessage{}).Error; err != nil {
					return err
				}
			}
			if err := tx.Where("donation_id IN ?", donationIDs).Delete(&models.DonationChat{}).Error; err != nil {
				return err
			}
			if err := tx.Where("donation_id IN ?", donationIDs).Delete(&models.DonatedFood{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", donationIDs).Delete(&models.Donation{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("user_id = ?", id).Delete(&models.CharityProfile{}).Error; err != nil {
			return err
		}

		return tx.Unscoped().Delete(&models.User{}, id).Error
	})

	if txErr != nil {
		log.Println("delete user:", txErr)
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "user.delete", "user", id, user, nil)
	ctx.JSON(iris.Map{"message": "User and related records deleted successfully"})
}

func AlterPushToken(ctx iris.Context) {
	id := ctx.Params().Get("id")

	user := getUserByID(id, ctx)
	if user == nil {
		return
	}

	var req AlterPushTokenInput
	if err := ctx.ReadJSON(&req); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var tokens []string
	if user.PushTokens != nil {
		json.Unmarshal(user.PushTokens, &tokens)
	}

	if req.Op == "add" {
		if !slices.Contains(tokens, req.Token) {
			tokens = append(tokens, req.Token)
		}
	} else {
		if idx := slices.Index(tokens, req.Token); idx >= 0 {
			tokens = slices.Delete(tokens, idx, idx+1)
		}
	}

	marshalled, marshalErr := json.Marshal(tokens)
	if marshalErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	user.PushTokens = marshalled
	if err := storage.DB.Save(user).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"pushTokens": tokens})
}

func AllowsNotifications(ctx iris.Context) {
	id := ctx.Params().Get("id")

	user := getUserByID(id, ctx)
	if user == nil {
		return
	}

	var req AllowsNotificationsInput
	if err := ctx.ReadJSON(&req); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	user.AllowsNotifications = req.AllowsNotifications
	if req.AllowsNotifications == nil || !*req.AllowsNotifications {
		user.PushTokens = nil
	}

	if err := storage.DB.Save(user).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusNoContent)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getAndHandleUserExists(user *models.User, email string) (exists bool, err error) {
	userExistsQuery := storage.DB.Where("email = ?", strings.ToLower(email)).Limit(1).Find(&user)

	if userExistsQuery.Error != nil {
		return false, userExistsQuery.Error
	}

	return userExistsQuery.RowsAffected > 0, nil
}

func getUserByID(id string, ctx iris.Context) *models.User {
	var user models.User
	if err := storage.DB.First(&user, id).Error; err != nil {
		utils.CreateNotFound(ctx)
		return nil
	}
	return &user
}

func hashAndSaltPassword(password string) (hashedPassword string, err error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(bytes), nil
}

func returnUser(user models.User, ctx iris.Context) {
	tokenPair, tokenErr := utils.CreateTokenPair(user.ID)
	if tokenErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"ID":                  user.ID,
		"name":                user.Name,
		"email":               user.Email,
		"phoneNumber":         user.PhoneNumber,
		"address":             user.Address,
		"role":                user.Role,
		"charityProfile":      user.CharityProfile,
		"allowsNotifications": user.AllowsNotifications,
		"accessToken":         string(tokenPair.AccessToken),
		"refreshToken":        string(tokenPair.RefreshToken),
	})
}

type CharityProfileInput struct {
	SocialProfile string `json:"social_profile" validate:"max=255"`
	Description   string `json:"description" validate:"max=500"`
}

type RegisterUserInput struct {
	Name           string               `json:"name" validate:"required,max=255"`
	PhoneNumber    string               `json:"phone_number" validate:"max=20"`
	Email          string               `json:"email" validate:"required,email"`
	Password       string               `json:"password" validate:"required,min=8,max=256"`
	Address        string               `json:"address" validate:"max=255"`
	Role           string               `json:"role" validate:"required,oneof=donor charity"`
	CharityProfile *CharityProfileInput `json:"charity_profile"`
}

type LoginUserInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateUserInput struct {
	Name           string               `json:"name" validate:"max=255"`
	PhoneNumber    string               `json:"phone_number" validate:"max=20"`
	Email          string               `json:"email" validate:"omitempty,email"`
	Password       string               `json:"password" validate:"omitempty,min=8,max=256"`
	Address        string               `json:"address" validate:"max=255"`
	Role           string               `json:"role" validate:"omitempty,oneof=donor charity"`
	CharityProfile *CharityProfileInput `json:"charity_profile"`
}

type GoogleUserInput struct {
	AccessToken string `json:"accessToken" validate:"required"`
}

type GoogleUserRes struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type AppleUserInput struct {
	IdentityToken string `json:"identityToken" validate:"required"`
}

type EmailRegisteredInput struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordInput struct {
	Password string `json:"password" validate:"required,min=8,max=256"`
}

type AlterPushTokenInput struct {
	Token string `json:"token" validate:"required"`
	Op    string `json:"op" validate:"required,oneof=add remove"`
}

type AllowsNotificationsInput struct {
	AllowsNotifications *bool `json:"allowsNotifications" validate:"required"`
}
