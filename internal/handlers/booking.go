package handlers

import (
	"errors"
	"fmt"
	"net/http"
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
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var errSlotTaken = errors.New("slot taken")

// @Summary		My bookings
// @Tags			bookings
// @Produce		json
// @Security		BearerAuth
// @Success		200	{array}		models.Booking
// @Failure		500	{object}	response.ErrorResponse	"DB_ERROR"
// @Router			/api/bookings [get]
func ListMyBookings(c *gin.Context) {
	var bookings []models.Booking
	err := storage.DB.Preload("Game").
		Where("user_id = ?", c.GetUint("userID")).
		Order("start_time DESC").
		Find(&bookings).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.DBError("Could not load bookings"))
		return
	}
	c.JSON(http.StatusOK, bookings)
}

type CreateBookingRequest struct {
	GameID    uint      `json:"game_id" binding:"required"`
	StartTime time.Time `json:"start_time" binding:"required" example:"2026-03-14T18:00:00Z"`
	Players   int       `json:"players" binding:"required,min=1,max=4"`
	Notes     *string   `json:"notes"`
}

// @Summary		Book a slot
// @Description	The slot is start_time plus the game duration. It must not overlap a pending or confirmed booking of the same game.
// @Tags			bookings
// @Accept			json
// @Produce		json
// @Security		BearerAuth
// @Param			body	body		CreateBookingRequest	true	"Booking"
// @Success		201		{object}	models.Booking
// @Failure		400		{object}	response.ErrorResponse	"VALIDATION_ERROR, GAME_INACTIVE, START_IN_PAST, TOO_MANY_PLAYERS"
// @Failure		404		{object}	response.ErrorResponse	"GAME_NOT_FOUND"
// @Failure		409		{object}	response.ErrorResponse	"SLOT_TAKEN"
// @Failure		503		{object}	response.ErrorResponse	"BOOKINGS_DISABLED"
// @Failure		500		{object}	response.ErrorResponse	"DB_ERROR"
// @Router			/api/bookings [post]
func CreateBooking(c *gin.Context) {
	if !config.Get().BookingsEnabled {
		c.JSON(http.StatusServiceUnavailable, response.ErrorResponse{
			Code:    "BOOKINGS_DISABLED",
			Message: "Online booking is currently unavailable, please contact the venue",
		})
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Validation(err))
		return
	}

	var game models.Game
	if !findOr(c, storage.DB, &game, http.StatusNotFound, response.ErrorResponse{
		Code:    "GAME_NOT_FOUND",
		Message: "Game not found",
	}, req.GameID) {
		return
	}

	quote, err := venue.QuoteBooking(game, req.StartTime, req.Players, clock.Now())
	if err != nil {
		code := "VALIDATION_ERROR"
		switch {
		case errors.Is(err, venue.ErrGameUnavailable):
			code = "GAME_INACTIVE"
		case errors.Is(err, venue.ErrStartInPast):
			code = "START_IN_PAST"
		case errors.Is(err, venue.ErrTooManyPlayers):
			code = "TOO_MANY_PLAYERS"
		}
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Code: code, Message: err.Error()})
		return
	}

	booking := models.Booking{
		UserID:        c.GetUint("userID"),
		GameID:        game.ID,
		StartTime:     quote.StartTime,
		EndTime:       quote.EndTime,
		Duration:      quote.Duration,
		Players:       req.Players,
		TotalPrice:    quote.TotalPrice,
		Status:        models.BookingPending,
		PaymentStatus: models.PaymentPending,
		Notes:         req.Notes,
	}

	err = storage.DB.Transaction(func(tx *gorm.DB) error {
		var conflicts int64
		err := tx.Model(&models.Booking{}).
			Where("game_id = ? AND status IN ? AND start_time < ? AND end_time > ?",
				game.ID, venue.ActiveBookingStatuses, booking.EndTime, booking.StartTime).
			Count(&conflicts).Error
		if err != nil {
			return err
		}
		if conflicts > 0 {
			return errSlotTaken
		}
		return tx.Create(&booking).Error
	})
	if errors.Is(err, errSlotTaken) {
		c.JSON(http.StatusConflict, response.ErrorResponse{
			Code:    "SLOT_TAKEN",
			Message: "This time slot is already booked",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.DBError("Could not create booking"))
		return
	}

	booking.Game = &game
	log.Info().Uint("booking_id", booking.ID).Uint("game_id", game.ID).Time("start", booking.StartTime).Msg("booking created")
	c.JSON(http.StatusCreated, booking)
}

// @Summary		Cancel my booking
// @Tags			bookings
// @Produce		json
// @Security		BearerAuth
// @Param			id	path		int	true	"Booking ID"
// @Success		200	{object}	models.Booking
// @Failure		400	{object}	response.ErrorResponse	"INVALID_BOOKING_ID or BOOKING_NOT_CANCELLABLE"
// @Failure		403	{object}	response.ErrorResponse	"FORBIDDEN"
// @Failure		404	{object}	response.ErrorResponse	"BOOKING_NOT_FOUND"
// @Failure		500	{object}	response.ErrorResponse	"DB_ERROR"
// @Router			/api/bookings/{id} [delete]
func CancelMyBooking(c *gin.Context) {
	booking, ok := loadBooking(c)
	if !ok {
		return
	}
	if booking.UserID != c.GetUint("userID") {
		c.JSON(http.StatusForbidden, response.ErrorResponse{
			Code:    "FORBIDDEN",
			Message: "This booking belongs to another user",
		})
		return
	}
	cancelBooking(c, booking)
}

// @Summary		Cancel a booking
// @Tags			staff
// @Produce		json
// @Security		BearerAuth
// @Param			id	path		int	true	"Booking ID"
// @Success		200	{object}	models.Booking
// @Failure		400	{object}	response.ErrorResponse	"INVALID_BOOKING_ID or BOOKING_NOT_CANCELLABLE"
// @Failure		404	{object}	response.ErrorResponse	"BOOKING_NOT_FOUND"
// @Failure		500	{object}	response.ErrorResponse	"DB_ERROR"
// @Router			/api/admin/bookings/{id}/cancel [post]
func StaffCancelBooking(c *gin.Context) {
	booking, ok := loadBooking(c)
	if !ok {
		return
	}
	cancelBooking(c, booking)
}

func cancelBooking(c *gin.Context, booking models.Booking) {
	if !booking.Cancellable() {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "BOOKING_NOT_CANCELLABLE",
			Message: fmt.Sprintf("A %s booking cannot be cancelled", strings.ToLower(string(booking.Status))),
		})
		return
	}
	if err := storage.DB.Model(&booking).Update("status", models.BookingCancelled).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.DBError("Could not cancel booking"))
		return
	}
	booking.Status = models.BookingCancelled
	c.JSON(http.StatusOK, booking)
}

func loadBooking(c *gin.Context) (models.Booking, bool) {
	var booking models.Booking
	id, ok := pathID(c, "id", "INVALID_BOOKING_ID")
	if !ok {
		return booking, false
	}
	if err := storage.DB.Preload("Game").First(&booking, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, response.ErrorResponse{
				Code:    "BOOKING_NOT_FOUND",
				Message: "Booking not found",
			})
			return booking, false
		}
		c.JSON(http.StatusInternalServerError, response.DBError("Could not load booking"))
		return booking, false
	}
	return booking, true
}

// bookingsQuery applies the list filters shared by the admin and staff views.
func bookingsQuery(c *gin.Context) *gorm.DB {
	q := storage.DB.Preload("User").Preload("Game")
	if status := strings.ToUpper(c.Query("status")); status != "" {
		q = q.Where("status = ?", status)
	}
	if date := c.Query("date"); date != "" {
		if day, err := time.ParseInLocation("2006-01-02", date, time.Local); err == nil {
			q = q.Where("start_time >= ? AND start_time < ?", day, day.AddDate(0, 0, 1))
		}
	}
	return q
}

// @Summary		All bookings
// @Tags			admin
// @Produce		json
// @Security		BearerAuth
// @Param			status	query		string	false	"PENDING, CONFIRMED, CANCELLED or COMPLETED"
// @Param			date	query		string	false	"Day of the slot, YYYY-MM-DD"
// @Success		200		{array}		models.Booking
// @Failure		500		{object}	response.ErrorResponse	"DB_ERROR"
// @Router			/api/admin/bookings [get]
func AdminListBookings(c *gin.Context) {
	var bookings []models.Booking
	if err := bookingsQuery(c).Order("created_at DESC").Find(&bookings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.DBError("Could not load bookings"))
		return
	}
	c.JSON(http.StatusOK, bookings)
}

// @Summary		Bookings for the floor
// @Description	Ordered by slot start
// @Tags			staff
// @Produce		json
// @Security		BearerAuth
// @Param			status	query		string	false	"Booking status"
// @Param			date	query		string	false	"Day of the slot, YYYY-MM-DD"
// @Success		200		{array}		models.Booking
// @Failure		500		{object}	response.ErrorResponse	"DB_ERROR"
// @Router			/api/staff/bookings [get]
func StaffListBookings(c *gin.Context) {
	var bookings []models.Booking
	if err := bookingsQuery(c).Order("start_time ASC").Find(&bookings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.DBError("Could not load bookings"))
		return
	}
	c.JSON(http.StatusOK, bookings)
}

// @Summary		Confirm a booking
// @Tags			admin
// @Produce		json
// @Security		BearerAuth
// @Param			id	path		int	true	"Booking ID"
// @Success		200	{object}	models.Booking
// @Failure		400	{object}	response.ErrorResponse	"INVALID_BOOKING_ID or BOOKING_NOT_PENDING"
// @Failure		404	{object}	response.ErrorResponse	"BOOKING_NOT_FOUND"
// @Failure		500	{object}	response.ErrorResponse	"DB_ERROR"
// @Router			/api/admin/bookings/{id}/confirm [post]
func ConfirmBooking(c *gin.Context) {
	booking, ok := loadBooking(c)
	if !ok {
		return
	}
	if booking.Status != models.BookingPending {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "BOOKING_NOT_PENDING",
			Message: "Only pending bookings can be confirmed",
		})
		return
	}
	if err := storage.DB.Model(&booking).Update("status", models.BookingConfirmed).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.DBError("Could not confirm booking"))
		return
	}
	booking.Status = models.BookingConfirmed
	c.JSON(http.StatusOK, booking)
}

type RecordPaymentRequest struct {
	Amount        decimal.Decimal `json:"amount" binding:"required" swaggertype:"number"`
	PaymentMethod string          `json:"payment_method"`
}

// @Summary		Record a payment taken at the desk
// @Tags			staff
// @Accept			json
// @Produce		json
// @Security		BearerAuth
// @Param			id		path		int						true	"Booking ID"
// @Param			body	body		RecordPaymentRequest	true	"Payment"
// @Success		200		{object}	models.Booking
// @Failure		400		{object}	response.ErrorResponse	"VALIDATION_ERROR, INVALID_BOOKING_ID"
// @Failure		404		{object}	response.ErrorResponse	"BOOKING_NOT_FOUND"
// @Failure		500		{object}	response.ErrorResponse	"DB_ERROR"
// @Router			/api/admin/bookings/{id}/payment [patch]
func RecordPayment(c *gin.Context) {
	booking, ok := loadBooking(c)
	if !ok {
		return
	}
	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Validation(err))
		return
	}
	if !req.Amount.IsPositive() {
		c.JSON(http.StatusBadRequest, response.Validation(errors.New("amount must be greater than zero")))
		return
	}

	method := strings.TrimSpace(req.PaymentMethod)
	if method == "" {
		method = "cash"
	}
	note := fmt.Sprintf("Payment of %s recorded (%s) by staff #%d on %s",
		req.Amount.StringFixed(2), method, c.GetUint("userID"), clock.Now().Format(time.RFC3339))
	if booking.Notes != nil && *booking.Notes != "" {
		note = *booking.Notes + "\n" + note
	}

	updates := map[string]interface{}{
		"payment_status": models.PaymentCompleted,
		"total_price":    req.Amount,
		"notes":          note,
	}
	if err := storage.DB.Model(&booking).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.DBError("Could not record payment"))
		return
	}

	booking.PaymentStatus = models.PaymentCompleted
	booking.TotalPrice = req.Amount
	booking.Notes = &note
	c.JSON(http.StatusOK, booking)
}

// @Summary		Delete a booking
// @Description	Permanent. A membership session that used this booking is kept but unlinked.
// @Tags			staff
// @Produce		json
// @Security		BearerAuth
// @Param			id	path		int	true	"Booking ID"
// @Success		200	{object}	response.SuccessResponse
// @Failure		400	{object}	response.ErrorResponse	"INVALID_BOOKING_ID"
// @Failure		404	{object}	response.ErrorResponse	"BOOKING_NOT_FOUND"
// @Failure		500	{object}	response.ErrorResponse	"DB_ERROR"
// @Router			/api/admin/bookings/{id} [delete]
func DeleteBooking(c *gin.Context) {
	booking, ok := loadBooking(c)
	if !ok {
		return
	}

	err := storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.MembershipSession{}).
			Where("booking_id = ?", booking.ID).
			Update("booking_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&booking).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.DBError("Could not delete booking"))
		return
	}

	log.Info().Uint("booking_id", booking.ID).Uint("staff_id", c.GetUint("userID")).Msg("booking deleted")
	c.JSON(http.StatusOK, response.SuccessResponse{Message: "Booking deleted"})
}
