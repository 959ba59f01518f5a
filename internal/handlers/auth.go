package handlers

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"rccafe/internal/auth"
	"rccafe/internal/clock"
	"rccafe/internal/config"
	"rccafe/internal/models"
	"rccafe/internal/response"
	"rccafe/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	resetCodeTTL        = 15 * time.Minute
	resetRequestsPerTTL = 5
)

type RegisterRequest struct {
	Name     string  `json:"name" binding:"required,min=2"`
	Email    string  `json:"email" binding:"required"`
	Password string  `json:"password" binding:"required,min=6"`
	Phone    *string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type emailAddress struct {
	Email string `binding:"required,email"`
}

// bindEmail trims and lower-cases raw before checking it is an address. It writes a 400 when not.
func bindEmail(c *gin.Context, raw string) (string, bool) {
	email := normalizeEmail(raw)
	if err := binding.Validator.ValidateStruct(emailAddress{Email: email}); err != nil {
		c.JSON(http.StatusBadRequest, response.Validation(err))
		return "", false
	}
	return email, true
}

// @Summary		Register
// @Description	Creates a CUSTOMER account
// @Tags			auth
// @Accept			json
// @Produce		json
// @Param			user	body		RegisterRequest				true	"Account data"
// @Success		201		{object}	response.SuccessResponse	"Registered"
// @Failure		400		{object}	response.ErrorResponse		"VALIDATION_ERROR or EMAIL_EXISTS"
// @Failure		500		{object}	response.ErrorResponse		"PASSWORD_HASH_ERROR, DB_ERROR"
// @Router			/auth/register [post]
func Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Validation(err))
		return
	}
	email, ok := bindEmail(c, req.Email)
	if !ok {
		return
	}

	var existingUser models.User
	if err := storage.DB.Where("email = ?", email).First(&existingUser).Error; err == nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "EMAIL_EXISTS",
			Message: "A user with this email already exists",
		})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "PASSWORD_HASH_ERROR",
			Message: "Could not hash password",
		})
		return
	}

	user := models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		Phone:        req.Phone,
		PasswordHash: string(hashedPassword),
		Role:         models.RoleCustomer,
	}
	if err := storage.DB.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.DBError("Could not create user"))
		return
	}

	log.Info().Uint("user_id", user.ID).Msg("user registered")
	c.JSON(http.StatusCreated, response.SuccessResponse{Message: "User registered"})
}

// @Summary		Log in
// @Description	Exchanges credentials for a token pair
// @Tags			auth
// @Accept			json
// @Produce		json
// @Param			user	body		LoginRequest			true	"Credentials"
// @Success		200		{object}	response.TokenResponse	"Logged in"
// @Failure		400		{object}	response.ErrorResponse	"VALIDATION_ERROR"
// @Failure		401		{object}	response.ErrorResponse	"INVALID_CREDENTIALS"
// @Failure		500		{object}	response.ErrorResponse	"TOKEN_GENERATION_ERROR"
// @Router			/auth/login [post]
func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Validation(err))
		return
	}

	email, ok := bindEmail(c, req.Email)
	if !ok {
		return
	}

	var user models.User
	if !findOr(c, storage.DB.Where("email = ?", email), &user, http.StatusUnauthorized, response.ErrorResponse{
		Code:    "INVALID_CREDENTIALS",
		Message: "Invalid email or password",
	}) {
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, response.ErrorResponse{
			Code:    "INVALID_CREDENTIALS",
			Message: "Invalid email or password",
		})
		return
	}

	accessToken, refreshToken, err := auth.GeneratePair(user.ID, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "TOKEN_GENERATION_ERROR",
			Message: "Could not issue tokens",
		})
		return
	}

	now := clock.Now()
	if err := storage.DB.Model(&user).Update("last_login_at", now).Error; err != nil {
		log.Warn().Err(err).Uint("user_id", user.ID).Msg("could not stamp last login")
	}

	c.JSON(http.StatusOK, response.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Role:         string(user.Role),
	})
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// @Summary		Refresh tokens
// @Description	Issues a new token pair for a valid refresh token
// @Tags			auth
// @Accept			json
// @Produce		json
// @Param			refresh_token	body		RefreshTokenRequest		true	"Refresh token"
// @Success		200				{object}	response.TokenResponse	"New pair"
// @Failure		400				{object}	response.ErrorResponse	"VALIDATION_ERROR"
// @Failure		401				{object}	response.ErrorResponse	"INVALID_REFRESH_TOKEN or USER_NOT_FOUND"
// @Failure		500				{object}	response.ErrorResponse	"TOKEN_GENERATION_ERROR"
// @Router			/auth/refresh [post]
func RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Validation(err))
		return
	}

	claims, err := auth.ParseToken(req.RefreshToken, config.Get().JWT.RefreshSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.ErrorResponse{
			Code:    "INVALID_REFRESH_TOKEN",
			Message: "Invalid or expired refresh token",
		})
		return
	}

	// The role is re-read so promotions take effect on refresh.
	var user models.User
	if !findOr(c, storage.DB, &user, http.StatusUnauthorized, response.ErrorResponse{
		Code:    "USER_NOT_FOUND",
		Message: "User not found",
	}, claims.UserID) {
		return
	}

	accessToken, refreshToken, err := auth.GeneratePair(user.ID, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "TOKEN_GENERATION_ERROR",
			Message: "Could not issue tokens",
		})
		return
	}

	c.JSON(http.StatusOK, response.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Role:         string(user.Role),
	})
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

// @Summary		Request a password reset code
// @Description	Always answers 200 so callers cannot probe which emails exist
// @Tags			auth
// @Accept			json
// @Produce		json
// @Param			body	body		ForgotPasswordRequest		true	"Email"
// @Success		200		{object}	response.SuccessResponse	"Code sent if the account exists"
// @Failure		400		{object}	response.ErrorResponse		"VALIDATION_ERROR"
// @Failure		429		{object}	response.ErrorResponse		"TOO_MANY_REQUESTS"
// @Failure		500		{object}	response.ErrorResponse		"DB_ERROR"
// @Router			/auth/forgot-password [post]
func ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Validation(err))
		return
	}
	email, ok := bindEmail(c, req.Email)
	if !ok {
		return
	}

	if storage.Throttle(c.Request.Context(), storage.ResetThrottleKey(email), resetRequestsPerTTL, storage.TTLResetThrottle) {
		c.JSON(http.StatusTooManyRequests, response.ErrorResponse{
			Code:    "TOO_MANY_REQUESTS",
			Message: "Too many reset requests, try again later",
		})
		return
	}

	accepted := response.SuccessResponse{Message: "If an account exists for this email, a reset code has been sent"}

	var user models.User
	if err := storage.DB.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, accepted)
			return
		}
		c.JSON(http.StatusInternalServerError, response.DBError("Could not look up user"))
		return
	}

	code, err := resetCode()
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "CODE_GENERATION_ERROR",
			Message: "Could not generate reset code",
		})
		return
	}

	err = storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", email).Delete(&models.PasswordResetToken{}).Error; err != nil {
			return err
		}
		return tx.Create(&models.PasswordResetToken{
			Email:   email,
			Code:    code,
			Expires: clock.Now().Add(resetCodeTTL),
		}).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.DBError("Could not store reset code"))
		return
	}

	// Delivery is handled outside this service.
	log.Debug().Str("email", email).Str("code", code).Msg("password reset code issued")
	c.JSON(http.StatusOK, accepted)
}

func resetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

type VerifyResetCodeRequest struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code" binding:"required,len=6,numeric"`
}

// @Summary		Verify a password reset code
// @Tags			auth
// @Accept			json
// @Produce		json
// @Param			body	body		VerifyResetCodeRequest		true	"Email and code"
// @Success		200		{object}	response.VerifyCodeResponse	"Code verified"
// @Failure		400		{object}	response.ErrorResponse		"VALIDATION_ERROR or INVALID_CODE"
// @Failure		500		{object}	response.ErrorResponse		"DB_ERROR"
// @Router			/auth/verify-reset-code [post]
func VerifyResetCode(c *gin.Context) {
	var req VerifyResetCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Validation(err))
		return
	}
	email, ok := bindEmail(c, req.Email)
	if !ok {
		return
	}

	var token models.PasswordResetToken
	err := storage.DB.
		Where("email = ? AND code = ? AND used = ? AND expires > ?", email, req.Code, false, clock.Now()).
		First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, response.ErrorResponse{
				Code:    "INVALID_CODE",
				Message: "Invalid or expired code",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, response.DBError("Could not verify code"))
		return
	}

	if err := storage.DB.Model(&token).Update("used", true).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.DBError("Could not verify code"))
		return
	}

	c.JSON(http.StatusOK, response.VerifyCodeResponse{Message: "Code verified", TokenID: token.ID})
}

type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required"`
	Code        string `json:"code" binding:"required,len=6,numeric"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

// @Summary		Reset the password
// @Description	Accepts an unexpired code, verified or not. Every code for the email is dropped afterwards.
// @Tags			auth
// @Accept			json
// @Produce		json
// @Param			body	body		ResetPasswordRequest		true	"Email, code and new password"
// @Success		200		{object}	response.SuccessResponse	"Password changed"
// @Failure		400		{object}	response.ErrorResponse		"VALIDATION_ERROR or INVALID_CODE"
// @Failure		404		{object}	response.ErrorResponse		"USER_NOT_FOUND"
// @Failure		500		{object}	response.ErrorResponse		"PASSWORD_HASH_ERROR, DB_ERROR"
// @Router			/auth/reset-password [post]
func ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Validation(err))
		return
	}
	email, ok := bindEmail(c, req.Email)
	if !ok {
		return
	}

	var token models.PasswordResetToken
	err := storage.DB.
		Where("email = ? AND code = ? AND expires > ?", email, req.Code, clock.Now()).
		First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, response.ErrorResponse{
				Code:    "INVALID_CODE",
				Message: "Invalid or expired code",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, response.DBError("Could not verify code"))
		return
	}

	var user models.User
	if !findOr(c, storage.DB.Where("email = ?", email), &user, http.StatusNotFound, response.ErrorResponse{
		Code:    "USER_NOT_FOUND",
		Message: "User not found",
	}) {
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "PASSWORD_HASH_ERROR",
			Message: "Could not hash password",
		})
		return
	}

	err = storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Update("password_hash", string(hashedPassword)).Error; err != nil {
			return err
		}
		return tx.Where("email = ?", email).Delete(&models.PasswordResetToken{}).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.DBError("Could not reset password"))
		return
	}

	log.Info().Uint("user_id", user.ID).Msg("password reset")
	c.JSON(http.StatusOK, response.SuccessResponse{Message: "Password has been reset"})
}
