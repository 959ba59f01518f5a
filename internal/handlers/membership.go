package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"rccafe/internal/clock"
	"rccafe/internal/config"
	"rccafe/internal/models"
	"rccafe/internal/response"
	"rccafe/internal/storage"
	"rccafe/internal/venue"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var (
	errMembershipChanged = errors.New("membership changed concurrently")
	errBookingNotFound   = errors.New("booking not found")
)

type MyMembershipsResponse struct {
	Memberships       []models.Membership `json:"memberships"`
	ActiveMembership  *models.Membership  `json:"active_membership"`
	RemainingSessions int                 `json:"remaining_sessions"`
}

type MembershipResponse struct {
	Membership *models.Membership `json:"membership"`
}

func preloadMembershipDetail(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Sessions", func(db *gorm.DB) *gorm.DB { return db.Order("used_at DESC") }).
		Preload("Sessions.Booking").
		Preload("Sessions.Booking.Game").
		Preload("Transactions", func(db *gorm.DB) *gorm.DB { return db.Order("transaction_date DESC") })
}

// @Summary		My memberships
// @Tags			memberships
// @Produce		json
// @Security		BearerAuth
// @Success		200	{object}	MyMembershipsResponse
// @Failure		500	{object}	response.ErrorResponse	"DB_ERROR"
// @Router			/api/memberships [get]
func MyMemberships(c *gin.Context) {
	var memberships []models.Membership
	err := preloadMembershipDetail(storage.DB).
		Where("user_id = ?", c.GetUint("userID")).
		Order("created_at DESC").
		Find(&memberships).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.DBError("Could not load memberships"))
		return
	}

	resp := MyMembershipsResponse{Memberships: memberships}
	now := clock.Now()
	for i := range memberships {
		if venue.DerivedStatus(memberships[i], now) == models.MembershipActive {
			resp.ActiveMembership = &memberships[i]
			resp.RemainingSessions = memberships[i].SessionsRemaining
			break
		}
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary		My active membership
// @Description	A lapsed membership is settled to EXPIRED or COMPLETED and null is returned
// @Tags			memberships
// @Produce		json
// @Security		BearerAuth
// @Success		200	{object}	MembershipResponse
// @Failure		500	{object}	response.ErrorResponse	"DB_ERROR"
// @Router			/api/memberships/me [get]
func MyActiveMembership(c *gin.Context) {
	var membership models.Membership
	err := preloadMembershipDetail(storage.DB).
		Where("user_id = ? AND status = ?", c.GetUint("userID"), models.MembershipActive).
		Order("created_at DESC").
		First(&membership).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusOK, MembershipResponse{})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.DBError("Could not load membership"))
		return
	}

	if status := venue.DerivedStatus(membership, clock.Now()); status != membership.Status {
		if err := storage.DB.Model(&membership).Update("status", status).Error; err != nil {
			c.JSON(http.StatusInternalServerError, response.DBError("Could not update membership"))
			return
		}
		c.JSON(http.StatusOK, MembershipResponse{})
		return
	}
	c.JSON(http.StatusOK, MembershipResponse{Membership: &membership})
}

// @Summary		Memberships
// @Tags			admin
// @Produce		json
// @Security		BearerAuth
// @Param			status	query		string	false	"ACTIVE, EXPIRED, COMPLETED or CANCELLED"
// @Param			user_id	query		int		false	"Owner"
// @Success		200		{array}		models.Membership
// @Failure		500		{object}	response.ErrorResponse	"DB_ERROR"
// @Router			/api/admin/memberships [get]
func AdminListMemberships(c *gin.Context) {
	q := storage.DB.Preload("User").
		Preload("Sessions", func(db *gorm.DB) *gorm.DB { return db.Order("used_at DESC") }).
		Order("created_at DESC")
	if status := strings.ToUpper(c.Query("status")); status != "" {
		q = q.Where("status = ?", status)
	}
	if userID, err := strconv.ParseUint(c.Query("user_id"), 10, 64); err == nil {
		q = q.Where("user_id = ?", userID)
	}

	var memberships []models.Membership
	if err := q.Find(&memberships).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.DBError("Could not load memberships"))
		return
	}
	c.JSON(http.StatusOK, memberships)
}

type CreateMembershipRequest struct {
	UserID        uint            `json:"user_id" binding:"required"`
	PlanType      models.PlanType `json:"plan_type" binding:"required,oneof=RC_TRACK PS5_GAMER_DUO"`
	StartDate     *time.Time      `json:"start_date"`
	SessionsTotal int             `json:"sessions_total" binding:"omitempty,min=1"`
	PaymentMethod *string         `json:"payment_method"`
}

// @Summary		Sell a membership
// @Description	Creates the membership and a completed transaction priced from the plan
// @Tags			admin
// @Accept			json
// @Produce		json
// @Security		BearerAuth
// @Param			body	body		CreateMembershipRequest	true	"Membership"
// @Success		201		{object}	MembershipResponse
// @Failure		400		{object}	response.ErrorResponse	"VALIDATION_ERROR"
// @Failure		404		{object}	response.ErrorResponse	"USER_NOT_FOUND"
// @Failure		500		{object}	response.ErrorResponse	"DB_ERROR"
// @Router			/api/admin/memberships [post]
func CreateMembership(c *gin.Context) {
	var req CreateMembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Validation(err))
		return
	}

	var user models.User
	if !findOr(c, storage.DB, &user, http.StatusNotFound, response.ErrorResponse{
		Code:    "USER_NOT_FOUND",
		Message: "User not found",
	}, req.UserID) {
		return
	}

	cfg := config.Get().Venue
	price, ok := cfg.PlanPrice(string(req.PlanType))
	if !ok {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "UNKNOWN_PLAN",
			Message: "Unknown membership plan",
		})
		return
	}

	now := clock.Now()
	start := now
	if req.StartDate != nil {
		start = *req.StartDate
	}
	sessions := req.SessionsTotal
	if sessions == 0 {
		sessions = cfg.DefaultSessions
	}

	membership := models.Membership{
		UserID:            user.ID,
		PlanType:          req.PlanType,
		StartDate:         start,
		ExpiryDate:        venue.ExpiryFor(start),
		SessionsTotal:     sessions,
		SessionsRemaining: sessions,
		Status:            models.MembershipActive,
	}
	err := storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&membership).Error; err != nil {
			return err
		}
		txn := models.MembershipTransaction{
			MembershipID:    membership.ID,
			Amount:          price,
			Status:          "COMPLETED",
			PaymentMethod:   req.PaymentMethod,
			TransactionDate: now,
		}
		if err := tx.Create(&txn).Error; err != nil {
			return err
		}
		membership.Transactions = []models.MembershipTransaction{txn}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.DBError("Could not create membership"))
		return
	}

	membership.User = &user
	log.Info().Uint("membership_id", membership.ID).Uint("user_id", user.ID).Str("plan", string(req.PlanType)).Msg("membership created")
	c.JSON(http.StatusCreated, MembershipResponse{Membership: &membership})
}

func loadMembership(c *gin.Context, db *gorm.DB) (models.Membership, bool) {
	var membership models.Membership
	id, ok := pathID(c, "id", "INVALID_MEMBERSHIP_ID")
	if !ok {
		return membership, false
	}
	if err := db.First(&membership, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, response.ErrorResponse{
				Code:    "MEMBERSHIP_NOT_FOUND",
				Message: "Membership not found",
			})
			return membership, false
		}
		c.JSON(http.StatusInternalServerError, response.DBError("Could not load membership"))
		return membership, false
	}
	return membership, true
}

// @Summary		Membership details
// @Tags			admin
// @Produce		json
// @Security		BearerAuth
// @Param			id	path		int	true	"Membership ID"
// @Success		200	{object}	MembershipResponse
// @Failure		400	{object}	response.ErrorResponse	"INVALID_MEMBERSHIP_ID"
// @Failure		404	{object}	response.ErrorResponse	"MEMBERSHIP_NOT_FOUND"
// @Router			/api/admin/memberships/{id} [get]
func AdminGetMembership(c *gin.Context) {
	membership, ok := loadMembership(c, preloadMembershipDetail(storage.DB).Preload("User"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, MembershipResponse{Membership: &membership})
}

type UpdateMembershipRequest struct {
	Status    *models.MembershipStatus `json:"status" binding:"omitempty,oneof=ACTIVE EXPIRED COMPLETED CANCELLED"`
	StartDate *time.Time               `json:"start_date"`
}

// @Summary		Update membership
// @Description	A new start_date moves the expiry. Without an explicit status the derived one is applied.
// @Tags			admin
// @Accept			json
// @Produce		json
// @Security		BearerAuth
// @Param			id		path		int						true	"Membership ID"
// @Param			body	body		UpdateMembershipRequest	true	"Fields to change"
// @Success		200		{object}	MembershipResponse
// @Failure		400		{object}	response.ErrorResponse	"VALIDATION_ERROR, INVALID_MEMBERSHIP_ID"
// @Failure		404		{object}	response.ErrorResponse	"MEMBERSHIP_NOT_FOUND"
// @Failure		500		{object}	response.ErrorResponse	"DB_ERROR"
// @Router			/api/admin/memberships/{id} [patch]
func UpdateMembership(c *gin.Context) {
	var req UpdateMembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Validation(err))
		return
	}
	membership, ok := loadMembership(c, storage.DB)
	if !ok {
		return
	}

	updates := map[string]interface{}{}
	if req.StartDate != nil {
		membership.StartDate = *req.StartDate
		membership.ExpiryDate = venue.ExpiryFor(*req.StartDate)
		updates["start_date"] = membership.StartDate
		updates["expiry_date"] = membership.ExpiryDate
	}
	if req.Status != nil {
		membership.Status = *req.Status
		updates["status"] = membership.Status
	} else if status := venue.DerivedStatus(membership, clock.Now()); status != membership.Status {
		membership.Status = status
		updates["status"] = status
	}

	if len(updates) > 0 {
		if err := storage.DB.Model(&membership).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, response.DBError("Could not update membership"))
			return
		}
	}
	c.JSON(http.StatusOK, MembershipResponse{Membership: &membership})
}

type UseSessionRequest struct {
	BookingID *uint   `json:"booking_id"`
	Notes     *string `json:"notes"`
}

type UseSessionResponse struct {
	Membership models.Membership        `json:"membership"`
	Session    models.MembershipSession `json:"session"`
}

// @Summary		Deduct a session
// @Description	Takes one session from an active, unexpired membership and optionally links the booking it paid for
// @Tags			admin
// @Accept			json
// @Produce		json
// @Security		BearerAuth
// @Param			id		path		int					true	"Membership ID"
// @Param			body	body		UseSessionRequest	false	"Booking and notes"
// @Success		200		{object}	UseSessionResponse
// @Failure		400		{object}	response.ErrorResponse	"MEMBERSHIP_INACTIVE, NO_SESSIONS_REMAINING, MEMBERSHIP_EXPIRED"
// @Failure		404		{object}	response.ErrorResponse	"MEMBERSHIP_NOT_FOUND, BOOKING_NOT_FOUND"
// @Failure		409		{object}	response.ErrorResponse	"MEMBERSHIP_CHANGED"
// @Failure		500		{object}	response.ErrorResponse	"DB_ERROR"
// @Router			/api/admin/memberships/{id}/sessions [post]
func UseMembershipSession(c *gin.Context) {
	var req UseSessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.Validation(err))
			return
		}
	}
	membership, ok := loadMembership(c, storage.DB)
	if !ok {
		return
	}

	now := clock.Now()
	if err := venue.CheckDeduct(membership, now); err != nil {
		switch {
		case errors.Is(err, venue.ErrMembershipExpired):
			if err := storage.DB.Model(&membership).Update("status", models.MembershipExpired).Error; err != nil {
				log.Warn().Err(err).Uint("membership_id", membership.ID).Msg("could not mark membership expired")
			}
			c.JSON(http.StatusBadRequest, response.ErrorResponse{Code: "MEMBERSHIP_EXPIRED", Message: "Membership has expired"})
		case errors.Is(err, venue.ErrNoSessionsRemaining):
			c.JSON(http.StatusBadRequest, response.ErrorResponse{Code: "NO_SESSIONS_REMAINING", Message: "No remaining sessions"})
		default:
			c.JSON(http.StatusBadRequest, response.ErrorResponse{Code: "MEMBERSHIP_INACTIVE", Message: "Membership is not active"})
		}
		return
	}

	var staff models.User
	staffName := "Admin"
	if err := storage.DB.First(&staff, c.GetUint("userID")).Error; err == nil && staff.Name != "" {
		staffName = staff.Name
	}

	next := venue.Deduct(membership, now)
	session := models.MembershipSession{
		MembershipID: membership.ID,
		BookingID:    req.BookingID,
		UsedAt:       now,
		UsedBy:       c.GetUint("userID"),
		UsedByName:   staffName,
		Notes:        req.Notes,
	}

	err := storage.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Membership{}).
			Where("id = ? AND status = ? AND sessions_remaining = ?", membership.ID, models.MembershipActive, membership.SessionsRemaining).
			Updates(map[string]interface{}{
				"sessions_used":      next.SessionsUsed,
				"sessions_remaining": next.SessionsRemaining,
				"last_booked_date":   next.LastBookedDate,
				"status":             next.Status,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errMembershipChanged
		}

		if err := tx.Create(&session).Error; err != nil {
			return err
		}
		if req.BookingID != nil {
			res := tx.Model(&models.Booking{}).Where("id = ?", *req.BookingID).Update("membership_session_id", session.ID)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errBookingNotFound
			}
		}
		return nil
	})
	switch {
	case errors.Is(err, errMembershipChanged):
		c.JSON(http.StatusConflict, response.ErrorResponse{
			Code:    "MEMBERSHIP_CHANGED",
			Message: "Membership was updated by someone else, reload and try again",
		})
		return
	case errors.Is(err, errBookingNotFound):
		c.JSON(http.StatusNotFound, response.ErrorResponse{Code: "BOOKING_NOT_FOUND", Message: "Booking not found"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, response.DBError("Could not deduct session"))
		return
	}

	log.Info().Uint("membership_id", membership.ID).Int("remaining", next.SessionsRemaining).Msg("membership session used")
	c.JSON(http.StatusOK, UseSessionResponse{Membership: next, Session: session})
}

func loadMembershipSession(c *gin.Context, membershipID uint) (models.MembershipSession, bool) {
	var session models.MembershipSession
	sessionID, ok := pathID(c, "sessionId", "INVALID_SESSION_ID")
	if !ok {
		return session, false
	}
	err := storage.DB.Where("id = ? AND membership_id = ?", sessionID, membershipID).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, response.ErrorResponse{
				Code:    "SESSION_NOT_FOUND",
				Message: "Session not found",
			})
			return session, false
		}
		c.JSON(http.StatusInternalServerError, response.DBError("Could not load session"))
		return session, false
	}
	return session, true
}

type UpdateSessionRequest struct {
	UsedAt *time.Time `json:"used_at"`
	Notes  *string    `json:"notes"`
}

// @Summary		Edit a used session
// @Tags			admin
// @Accept			json
// @Produce		json
// @Security		BearerAuth
// @Param			id			path		int						true	"Membership ID"
// @Param			sessionId	path		int						true	"Session ID"
// @Param			body		body		UpdateSessionRequest	true	"Fields to change"
// @Success		200			{object}	models.MembershipSession
// @Failure		400			{object}	response.ErrorResponse	"VALIDATION_ERROR"
// @Failure		404			{object}	response.ErrorResponse	"MEMBERSHIP_NOT_FOUND, SESSION_NOT_FOUND"
// @Failure		500			{object}	response.ErrorResponse	"DB_ERROR"
// @Router			/api/admin/memberships/{id}/sessions/{sessionId} [patch]
func UpdateMembershipSession(c *gin.Context) {
	var req UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Validation(err))
		return
	}
	membership, ok := loadMembership(c, storage.DB)
	if !ok {
		return
	}
	session, ok := loadMembershipSession(c, membership.ID)
	if !ok {
		return
	}

	updates := map[string]interface{}{}
	if req.UsedAt != nil {
		session.UsedAt = *req.UsedAt
		updates["used_at"] = session.UsedAt
	}
	if req.Notes != nil {
		session.Notes = req.Notes
		updates["notes"] = *req.Notes
	}
	if len(updates) > 0 {
		if err := storage.DB.Model(&session).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, response.DBError("Could not update session"))
			return
		}
	}
	c.JSON(http.StatusOK, session)
}

// @Summary		Give a session back
// @Description	Removes the session record, returns it to the allowance and unlinks its booking
// @Tags			admin
// @Produce		json
// @Security		BearerAuth
// @Param			id			path		int	true	"Membership ID"
// @Param			sessionId	path		int	true	"Session ID"
// @Success		200			{object}	MembershipResponse
// @Failure		400			{object}	response.ErrorResponse	"INVALID_MEMBERSHIP_ID, INVALID_SESSION_ID"
// @Failure		404			{object}	response.ErrorResponse	"MEMBERSHIP_NOT_FOUND, SESSION_NOT_FOUND"
// @Failure		500			{object}	response.ErrorResponse	"DB_ERROR"
// @Router			/api/admin/memberships/{id}/sessions/{sessionId} [delete]
func DeleteMembershipSession(c *gin.Context) {
	membership, ok := loadMembership(c, storage.DB)
	if !ok {
		return
	}
	session, ok := loadMembershipSession(c, membership.ID)
	if !ok {
		return
	}

	next := venue.Restore(membership)
	err := storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Booking{}).
			Where("membership_session_id = ?", session.ID).
			Update("membership_session_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Delete(&session).Error; err != nil {
			return err
		}
		return tx.Model(&models.Membership{}).Where("id = ?", membership.ID).Updates(map[string]interface{}{
			"sessions_used":      gorm.Expr("CASE WHEN sessions_used > 0 THEN sessions_used - 1 ELSE 0 END"),
			"sessions_remaining": gorm.Expr("sessions_remaining + 1"),
			"status":             next.Status,
		}).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.DBError("Could not restore session"))
		return
	}

	log.Info().Uint("membership_id", membership.ID).Uint("session_id", session.ID).Msg("membership session restored")
	c.JSON(http.StatusOK, MembershipResponse{Membership: &next})
}
