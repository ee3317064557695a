package handler

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"chatapp/backend/internal/mail"
	"chatapp/backend/internal/models"
	"chatapp/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// region --- DTOs ---

// RegisterInput defines the structure for user registration.
type RegisterInput struct {
	Username string `json:"username" binding:"required,max=50" example:"alice"`
	Email    string `json:"email" binding:"required,email" example:"alice@example.com"`
	Password string `json:"password" binding:"required,min=6" example:"password123"`
}

// LoginInput defines the structure for user login.
type LoginInput struct {
	Email    string `json:"email" binding:"required" example:"alice@example.com"`
	Password string `json:"password" binding:"required" example:"password123"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	Message  string `json:"message" example:"Login successful"`
	Token    string `json:"token"`
	UserID   uint   `json:"userId" example:"1"`
	Username string `json:"username" example:"alice"`
}

// ForgotPasswordInput names the account whose password is reset.
type ForgotPasswordInput struct {
	Email string `json:"email" binding:"required,email" example:"alice@example.com"`
}

// ResetPasswordInput carries the new password.
type ResetPasswordInput struct {
	NewPassword string `json:"newPassword" binding:"required,min=6" example:"newpassword123"`
}

// endregion

// RegisterUser godoc
// @Summary      Register a new user
// @Description  Creates a user with an empty profile and emails a verification link.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body RegisterInput true "Registration Info"
// @Success      201  {object}  MessageResponse
// @Failure      400  {object}  ErrorResponse "Invalid input or username/email taken"
// @Failure      500  {object}  ErrorResponse
// @Router       /register [post]
func (h *Handler) RegisterUser(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	var count int64
	if err := h.db.Model(&models.User{}).Where("email = ? OR username = ?", input.Email, input.Username).Count(&count).Error; err != nil {
		serverError(c, "Failed to check existing users", err)
		return
	}
	if count > 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Username or email is already registered"})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		serverError(c, "Failed to hash password", err)
		return
	}

	user := models.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
	}
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Create(&models.Profile{UserID: user.ID}).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Username or email is already registered"})
		return
	}
	if err != nil {
		serverError(c, "Failed to create user", err)
		return
	}

	token, err := h.tokens.GenerateVerificationToken(user.ID, user.Email)
	if err != nil {
		serverError(c, "Failed to generate token", err)
		return
	}

	link := h.cfg.FrontendURL + "/verify/" + token
	if err := h.mailer.Send(c.Request.Context(), user.Email, mail.VerificationSubject, mail.VerificationEmail(link)); err != nil {
		// The account exists either way; the user can still log in unless
		// verification is enforced.
		logrus.WithError(err).WithField("user_id", user.ID).Error("failed to send verification email")
	}

	c.JSON(http.StatusCreated, MessageResponse{Message: "User created. Please verify your email."})
}

// VerifyEmail godoc
// @Summary      Verify an email address
// @Tags         auth
// @Produce      json
// @Param        token path      string  true  "Verification token"
// @Success      200  {object}  MessageResponse
// @Failure      400  {object}  ErrorResponse "Invalid, expired or already used token"
// @Failure      500  {object}  ErrorResponse
// @Router       /verify/{token} [get]
func (h *Handler) VerifyEmail(c *gin.Context) {
	claims, err := h.tokens.ParseVerificationToken(c.Param("token"))
	if errors.Is(err, jwt.ErrTokenExpired) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Verification link has expired"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid or expired token"})
		return
	}
	userID, _ := claims.UserID()

	var user models.User
	if err := h.db.Where("id = ? AND email = ?", userID, claims.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Email not found"})
			return
		}
		serverError(c, "Failed to load user", err)
		return
	}

	result := h.db.Model(&models.User{}).
		Where("id = ? AND is_verified = ?", user.ID, false).
		Update("is_verified", true)
	if result.Error != nil {
		serverError(c, "Failed to verify email", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Email is already verified"})
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Email verified"})
}

// LoginUser godoc
// @Summary      Log in a user
// @Description  Authenticates a user by email and password and returns an access token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body LoginInput true "Login Info"
// @Success      200  {object}  LoginResponse
// @Failure      400  {object}  ErrorResponse "Invalid credentials"
// @Failure      403  {object}  ErrorResponse "Email not verified"
// @Failure      500  {object}  ErrorResponse
// @Router       /login [post]
func (h *Handler) LoginUser(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	var user models.User
	err := h.db.Where("email = ?", strings.ToLower(strings.TrimSpace(input.Email))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid credentials"})
		return
	}
	if err != nil {
		serverError(c, "Failed to load user", err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid credentials"})
		return
	}

	if h.cfg.RequireVerifiedEmail && !user.IsVerified {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Please verify your email before logging in"})
		return
	}

	token, err := h.tokens.GenerateAccessToken(user.ID, user.Username, user.Email)
	if err != nil {
		serverError(c, "Failed to generate token", err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Message:  "Login successful",
		Token:    token,
		UserID:   user.ID,
		Username: user.Username,
	})
}

// ForgotPassword godoc
// @Summary      Request a password reset
// @Description  Emails a short-lived password reset link.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body ForgotPasswordInput true "Account email"
// @Success      200  {object}  MessageResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "No account with this email"
// @Failure      500  {object}  ErrorResponse
// @Router       /forgot-password [post]
func (h *Handler) ForgotPassword(c *gin.Context) {
	var input ForgotPasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	var user models.User
	err := h.db.Where("email = ?", strings.ToLower(strings.TrimSpace(input.Email))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "No user registered with this email"})
		return
	}
	if err != nil {
		serverError(c, "Failed to load user", err)
		return
	}

	token, err := newResetToken()
	if err != nil {
		serverError(c, "Failed to generate token", err)
		return
	}
	expires := time.Now().Add(h.cfg.ResetTokenTTL)

	err = h.db.Model(&user).Updates(map[string]interface{}{
		"reset_token":         token,
		"reset_token_expires": expires,
	}).Error
	if err != nil {
		serverError(c, "Failed to store reset token", err)
		return
	}

	link := h.cfg.FrontendURL + "/reset-password/" + token
	if err := h.mailer.Send(c.Request.Context(), user.Email, mail.ResetPasswordSubject, mail.ResetPasswordEmail(link)); err != nil {
		serverError(c, "Failed to send reset email", err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "A password reset link has been sent to your email"})
}

// ResetPassword godoc
// @Summary      Reset a password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        token path      string              true  "Reset token"
// @Param        input body      ResetPasswordInput  true  "New password"
// @Success      200  {object}  MessageResponse
// @Failure      400  {object}  ErrorResponse "Invalid or expired token"
// @Failure      500  {object}  ErrorResponse
// @Router       /reset-password/{token} [post]
func (h *Handler) ResetPassword(c *gin.Context) {
	var input ResetPasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	token := c.Param("token")

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		serverError(c, "Failed to hash password", err)
		return
	}

	// Matching and clearing the token in one statement makes each link single use.
	result := h.db.Model(&models.User{}).
		Where("reset_token = ? AND reset_token_expires > ?", token, time.Now()).
		Updates(map[string]interface{}{
			"password_hash":       string(hashedPassword),
			"reset_token":         nil,
			"reset_token_expires": nil,
		})
	if result.Error != nil {
		serverError(c, "Failed to update password", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid or expired token"})
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Your password has been updated"})
}

func newResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
