package handlers

import (
	"net/http"
	"strings"

	"rccafe/internal/models"
	"rccafe/internal/response"
	"rccafe/internal/storage"

	"github.com/gin-gonic/gin"
)

// @Summary		Current user profile
// @Tags			profile
// @Produce		json
// @Security		BearerAuth
// @Success		200	{object}	models.User
// @Failure		404	{object}	response.ErrorResponse	"USER_NOT_FOUND"
// @Router			/api/user/profile [get]
func GetProfile(c *gin.Context) {
	var user models.User
	if !findOr(c, storage.DB, &user, http.StatusNotFound, response.ErrorResponse{
		Code:    "USER_NOT_FOUND",
		Message: "User not found",
	}, c.GetUint("userID")) {
		return
	}
	c.JSON(http.StatusOK, user)
}

type UpdateProfileRequest struct {
	Name  string  `json:"name" binding:"required,min=2"`
	Phone *string `json:"phone"`
	Email *string `json:"email"`
}

// @Summary		Update profile
// @Description	Name and phone can be changed. Email is fixed once registered.
// @Tags			profile
// @Accept			json
// @Produce		json
// @Security		BearerAuth
// @Param			body	body		UpdateProfileRequest	true	"Profile"
// @Success		200		{object}	models.User
// @Failure		400		{object}	response.ErrorResponse	"VALIDATION_ERROR or EMAIL_CHANGE_NOT_ALLOWED"
// @Failure		404		{object}	response.ErrorResponse	"USER_NOT_FOUND"
// @Failure		500		{object}	response.ErrorResponse	"DB_ERROR"
// @Router			/api/user/profile [put]
func UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Validation(err))
		return
	}

	var user models.User
	if !findOr(c, storage.DB, &user, http.StatusNotFound, response.ErrorResponse{
		Code:    "USER_NOT_FOUND",
		Message: "User not found",
	}, c.GetUint("userID")) {
		return
	}

	if req.Email != nil && normalizeEmail(*req.Email) != user.Email {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "EMAIL_CHANGE_NOT_ALLOWED",
			Message: "Email cannot be changed",
		})
		return
	}

	updates := map[string]interface{}{"name": strings.TrimSpace(req.Name)}
	if req.Phone != nil {
		phone := strings.TrimSpace(*req.Phone)
		if phone == "" {
			updates["phone"] = nil
		} else {
			updates["phone"] = phone
		}
	}
	if err := storage.DB.Model(&user).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.DBError("Could not update profile"))
		return
	}
	if err := storage.DB.First(&user, user.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.DBError("Could not reload profile"))
		return
	}
	c.JSON(http.StatusOK, user)
}
