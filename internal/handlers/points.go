package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"rccafe/internal/clock"
	"rccafe/internal/config"
	"rccafe/internal/models"
	"rccafe/internal/response"
	"rccafe/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PointsSummary struct {
	Total    int            `json:"total"`
	Pending  int            `json:"pending"`
	Approved int            `json:"approved"`
	Points   []models.Point `json:"points"`
}

// @Summary		My loyalty points
// @Description	total is the sum of approved entries
// @Tags			points
// @Produce		json
// @Security		BearerAuth
// @Success		200	{object}	PointsSummary
// @Failure		500	{object}	response.ErrorResponse	"DB_ERROR"
// @Router			/api/points [get]
func MyPoints(c *gin.Context) {
	var points []models.Point
	err := storage.DB.Where("user_id = ?", c.GetUint("userID")).Order("created_at DESC").Find(&points).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.DBError("Could not load points"))
		return
	}

	summary := PointsSummary{Points: points}
	for _, p := range points {
		switch p.Status {
		case models.PointApproved:
			summary.Approved += p.Amount
		case models.PointPending:
			summary.Pending += p.Amount
		}
	}
	summary.Total = summary.Approved
	c.JSON(http.StatusOK, summary)
}

// @Summary		Points ledger
// @Tags			admin
// @Produce		json
// @Security		BearerAuth
// @Param			status	query		string	false	"PENDING, APPROVED or REJECTED"
// @Success		200		{array}		models.Point
// @Failure		500		{object}	response.ErrorResponse	"DB_ERROR"
// @Router			/api/admin/points [get]
func AdminListPoints(c *gin.Context) {
	q := storage.DB.Preload("User").Order("created_at DESC")
	if status := strings.ToUpper(c.Query("status")); status != "" {
		q = q.Where("status = ?", status)
	}
	var points []models.Point
	if err := q.Find(&points).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.DBError("Could not load points"))
		return
	}
	c.JSON(http.StatusOK, points)
}

type UpdatePointRequest struct {
	Status models.PointStatus `json:"status" binding:"required,oneof=PENDING APPROVED REJECTED"`
}

// @Summary		Approve or reject a points entry
// @Tags			admin
// @Accept			json
// @Produce		json
// @Security		BearerAuth
// @Param			id		path		int					true	"Point ID"
// @Param			body	body		UpdatePointRequest	true	"New status"
// @Success		200		{object}	models.Point
// @Failure		400		{object}	response.ErrorResponse	"VALIDATION_ERROR, INVALID_POINT_ID"
// @Failure		404		{object}	response.ErrorResponse	"POINT_NOT_FOUND"
// @Failure		500		{object}	response.ErrorResponse	"DB_ERROR"
// @Router			/api/admin/points/{id} [patch]
func UpdatePoint(c *gin.Context) {
	id, ok := pathID(c, "id", "INVALID_POINT_ID")
	if !ok {
		return
	}
	var req UpdatePointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Validation(err))
		return
	}

	var point models.Point
	if !findOr(c, storage.DB, &point, http.StatusNotFound, response.ErrorResponse{
		Code:    "POINT_NOT_FOUND",
		Message: "Points entry not found",
	}, id) {
		return
	}

	approver := c.GetUint("userID")
	now := clock.Now()
	point.Status = req.Status
	point.ApprovedBy = &approver
	point.ApprovedAt = &now
	if err := storage.DB.Save(&point).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.DBError("Could not update points entry"))
		return
	}
	c.JSON(http.StatusOK, point)
}

// @Summary		Delete a points entry
// @Description	Only the configured delete-admin account may do this
// @Tags			admin
// @Produce		json
// @Security		BearerAuth
// @Param			id	path		int	true	"Point ID"
// @Success		200	{object}	response.SuccessResponse
// @Failure		400	{object}	response.ErrorResponse	"INVALID_POINT_ID"
// @Failure		403	{object}	response.ErrorResponse	"FORBIDDEN"
// @Failure		404	{object}	response.ErrorResponse	"POINT_NOT_FOUND"
// @Failure		500	{object}	response.ErrorResponse	"DB_ERROR"
// @Router			/api/admin/points/{id} [delete]
func DeletePoint(c *gin.Context) {
	id, ok := pathID(c, "id", "INVALID_POINT_ID")
	if !ok {
		return
	}

	var admin models.User
	if !findOr(c, storage.DB, &admin, http.StatusForbidden, response.ErrorResponse{Code: "FORBIDDEN", Message: "Not allowed to delete points"}, c.GetUint("userID")) {
		return
	}
	allowed := config.Get().DeleteAdminEmail
	if allowed == "" || admin.Email != allowed {
		c.JSON(http.StatusForbidden, response.ErrorResponse{Code: "FORBIDDEN", Message: "Not allowed to delete points"})
		return
	}

	res := storage.DB.Delete(&models.Point{}, id)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, response.DBError("Could not delete points entry"))
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "POINT_NOT_FOUND",
			Message: "Points entry not found",
		})
		return
	}

	log.Info().Uint("point_id", id).Uint("admin_id", admin.ID).Msg("points entry deleted")
	c.JSON(http.StatusOK, response.SuccessResponse{Message: "Points entry deleted"})
}

type AllocatePointsRequest struct {
	UserID uint   `json:"user_id" binding:"required"`
	Points int    `json:"points" binding:"required"`
	Reason string `json:"reason" binding:"required,min=3"`
}

var errNotCustomer = errors.New("points can only be given to customers")

// @Summary		Give loyalty points
// @Description	Creates an approved entry for a customer and records the staff action
// @Tags			staff
// @Accept			json
// @Produce		json
// @Security		BearerAuth
// @Param			body	body		AllocatePointsRequest	true	"Allocation"
// @Success		201		{object}	models.Point
// @Failure		400		{object}	response.ErrorResponse	"VALIDATION_ERROR or NOT_A_CUSTOMER"
// @Failure		404		{object}	response.ErrorResponse	"USER_NOT_FOUND"
// @Failure		500		{object}	response.ErrorResponse	"DB_ERROR"
// @Router			/api/staff/allocate-points [post]
func AllocatePoints(c *gin.Context) {
	var req AllocatePointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Validation(err))
		return
	}
	venueCfg := config.Get().Venue
	if req.Points < venueCfg.PointsMin || req.Points > venueCfg.PointsMax {
		c.JSON(http.StatusBadRequest, response.Validation(
			fmt.Errorf("points must be between %d and %d", venueCfg.PointsMin, venueCfg.PointsMax)))
		return
	}

	var customer models.User
	if !findOr(c, storage.DB, &customer, http.StatusNotFound, response.ErrorResponse{
		Code:    "USER_NOT_FOUND",
		Message: "User not found",
	}, req.UserID) {
		return
	}
	if customer.Role != models.RoleCustomer {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "NOT_A_CUSTOMER",
			Message: errNotCustomer.Error(),
		})
		return
	}

	staffID := c.GetUint("userID")
	now := clock.Now()
	point := models.Point{
		UserID:     customer.ID,
		Amount:     req.Points,
		Reason:     strings.TrimSpace(req.Reason),
		Status:     models.PointApproved,
		ApprovedBy: &staffID,
		ApprovedAt: &now,
	}

	err := storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&point).Error; err != nil {
			return err
		}
		meta, err := json.Marshal(map[string]interface{}{
			"customer_id":    customer.ID,
			"customer_email": customer.Email,
			"points":         req.Points,
			"reason":         point.Reason,
			"point_id":       point.ID,
		})
		if err != nil {
			return err
		}
		return tx.Create(&models.StaffAction{
			StaffID:     staffID,
			Action:      models.ActionPointsAllocated,
			Description: fmt.Sprintf("Allocated %d points to %s", req.Points, customer.Name),
			Metadata:    datatypes.JSON(meta),
		}).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.DBError("Could not allocate points"))
		return
	}

	log.Info().Uint("staff_id", staffID).Uint("customer_id", customer.ID).Int("points", req.Points).Msg("points allocated")
	c.JSON(http.StatusCreated, point)
}
