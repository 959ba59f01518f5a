package handlers_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"rccafe/internal/config"
	"rccafe/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func (e *env) book(token string, game models.Game, start time.Time, players int) *models.Booking {
	e.t.Helper()
	w := e.do(http.MethodPost, "/api/bookings", token, map[string]interface{}{
		"game_id": game.ID, "start_time": start.Format(time.RFC3339), "players": players,
	})
	if w.Code != http.StatusCreated {
		return nil
	}
	var b models.Booking
	decode(e.t, w, &b)
	return &b
}

func TestCreateBooking(t *testing.T) {
	e := newEnv(t)
	customer := e.user(models.RoleCustomer, "c@rccafe.test")
	tok := e.token(customer)
	game := e.game("Grand Prix", 60, "12.50", 4)

	start := venueNow.Add(6 * time.Hour)
	b := e.book(tok, game, start, 2)
	require.NotNil(t, b)
	assert.Equal(t, models.BookingPending, b.Status)
	assert.Equal(t, models.PaymentPending, b.PaymentStatus)
	assert.True(t, b.EndTime.Equal(start.Add(time.Hour)))
	assert.Equal(t, 60, b.Duration)
	assert.True(t, decimal.NewFromInt(25).Equal(b.TotalPrice), b.TotalPrice.String())

	w := e.do(http.MethodGet, "/api/bookings", tok, nil)
	requireStatus(t, http.StatusOK, w)
	var mine []models.Booking
	decode(t, w, &mine)
	require.Len(t, mine, 1)
	require.NotNil(t, mine[0].Game)
	assert.Equal(t, "Grand Prix", mine[0].Game.Name)
}

func TestCreateBookingRejects(t *testing.T) {
	e := newEnv(t)
	customer := e.user(models.RoleCustomer, "c@rccafe.test")
	tok := e.token(customer)
	game := e.game("Grand Prix", 60, "10", 2)
	retired := e.game("Old Circuit", 30, "5", 4)
	require.NoError(t, e.db.Model(&retired).Update("is_active", false).Error)

	post := func(gameID uint, start time.Time, players int) (int, string) {
		w := e.do(http.MethodPost, "/api/bookings", tok, map[string]interface{}{
			"game_id": gameID, "start_time": start.Format(time.RFC3339), "players": players,
		})
		if w.Code == http.StatusCreated {
			return w.Code, ""
		}
		return w.Code, errorCode(t, w)
	}

	later := venueNow.Add(2 * time.Hour)

	status, code := post(999, later, 1)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "GAME_NOT_FOUND", code)

	status, code = post(retired.ID, later, 1)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "GAME_INACTIVE", code)

	status, code = post(game.ID, venueNow.Add(-time.Minute), 1)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "START_IN_PAST", code)

	status, code = post(game.ID, later, 3)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "TOO_MANY_PLAYERS", code)

	status, code = post(game.ID, later, 0)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", code)
}

func TestBookingSlotConflicts(t *testing.T) {
	e := newEnv(t)
	alice := e.user(models.RoleCustomer, "alice@rccafe.test")
	bob := e.user(models.RoleCustomer, "bob@rccafe.test")
	game := e.game("Grand Prix", 60, "10", 4)
	other := e.game("Monster Trucks", 60, "10", 4)

	start := venueNow.Add(24 * time.Hour)
	first := e.book(e.token(alice), game, start, 1)
	require.NotNil(t, first)

	w := e.do(http.MethodPost, "/api/bookings", e.token(bob), map[string]interface{}{
		"game_id": game.ID, "start_time": start.Add(30 * time.Minute).Format(time.RFC3339), "players": 1,
	})
	requireStatus(t, http.StatusConflict, w)
	assert.Equal(t, "SLOT_TAKEN", errorCode(t, w))

	assert.NotNil(t, e.book(e.token(bob), game, start.Add(time.Hour), 1), "back to back slots do not overlap")
	assert.NotNil(t, e.book(e.token(bob), other, start, 1), "slots are per game")

	w = e.do(http.MethodDelete, fmt.Sprintf("/api/bookings/%d", first.ID), e.token(alice), nil)
	requireStatus(t, http.StatusOK, w)
	assert.NotNil(t, e.book(e.token(bob), game, start.Add(-30*time.Minute), 1), "cancelled bookings free the slot")
}

func TestBookingsDisabled(t *testing.T) {
	e := newEnv(t)
	cfg := *config.Get()
	cfg.BookingsEnabled = false
	config.Set(&cfg)

	customer := e.user(models.RoleCustomer, "c@rccafe.test")
	game := e.game("Grand Prix", 60, "10", 4)
	w := e.do(http.MethodPost, "/api/bookings", e.token(customer), map[string]interface{}{
		"game_id": game.ID, "start_time": venueNow.Add(time.Hour).Format(time.RFC3339), "players": 1,
	})
	requireStatus(t, http.StatusServiceUnavailable, w)
	assert.Equal(t, "BOOKINGS_DISABLED", errorCode(t, w))
}

func TestCancelBooking(t *testing.T) {
	e := newEnv(t)
	alice := e.user(models.RoleCustomer, "alice@rccafe.test")
	bob := e.user(models.RoleCustomer, "bob@rccafe.test")
	staff := e.user(models.RoleStaff, "staff@rccafe.test")
	game := e.game("Grand Prix", 60, "10", 4)

	b := e.book(e.token(alice), game, venueNow.Add(3*time.Hour), 1)
	require.NotNil(t, b)
	path := fmt.Sprintf("/api/bookings/%d", b.ID)

	w := e.do(http.MethodDelete, path, e.token(bob), nil)
	requireStatus(t, http.StatusForbidden, w)

	w = e.do(http.MethodPost, fmt.Sprintf("/api/admin/bookings/%d/cancel", b.ID), e.token(staff), nil)
	requireStatus(t, http.StatusOK, w)

	w = e.do(http.MethodDelete, path, e.token(alice), nil)
	requireStatus(t, http.StatusBadRequest, w)
	assert.Equal(t, "BOOKING_NOT_CANCELLABLE", errorCode(t, w))

	w = e.do(http.MethodDelete, "/api/bookings/4242", e.token(alice), nil)
	requireStatus(t, http.StatusNotFound, w)
	assert.Equal(t, "BOOKING_NOT_FOUND", errorCode(t, w))
}

func TestDeskBookingOperations(t *testing.T) {
	e := newEnv(t)
	customer := e.user(models.RoleCustomer, "c@rccafe.test")
	staff := e.user(models.RoleStaff, "staff@rccafe.test")
	admin := e.user(models.RoleAdmin, "admin@rccafe.test")
	game := e.game("Grand Prix", 60, "10", 4)

	b := e.book(e.token(customer), game, venueNow.Add(3*time.Hour), 2)
	require.NotNil(t, b)

	w := e.do(http.MethodPost, fmt.Sprintf("/api/admin/bookings/%d/confirm", b.ID), e.token(staff), nil)
	requireStatus(t, http.StatusForbidden, w)

	w = e.do(http.MethodPost, fmt.Sprintf("/api/admin/bookings/%d/confirm", b.ID), e.token(admin), nil)
	requireStatus(t, http.StatusOK, w)
	w = e.do(http.MethodPost, fmt.Sprintf("/api/admin/bookings/%d/confirm", b.ID), e.token(admin), nil)
	requireStatus(t, http.StatusBadRequest, w)
	assert.Equal(t, "BOOKING_NOT_PENDING", errorCode(t, w))

	paymentPath := fmt.Sprintf("/api/admin/bookings/%d/payment", b.ID)
	w = e.do(http.MethodPatch, paymentPath, e.token(staff), map[string]interface{}{"amount": 0})
	requireStatus(t, http.StatusBadRequest, w)

	w = e.do(http.MethodPatch, paymentPath, e.token(staff), map[string]interface{}{"amount": 18.5, "payment_method": "card"})
	requireStatus(t, http.StatusOK, w)

	var stored models.Booking
	require.NoError(t, e.db.First(&stored, b.ID).Error)
	assert.Equal(t, models.BookingConfirmed, stored.Status)
	assert.Equal(t, models.PaymentCompleted, stored.PaymentStatus)
	assert.True(t, decimal.RequireFromString("18.5").Equal(stored.TotalPrice))
	require.NotNil(t, stored.Notes)
	assert.Contains(t, *stored.Notes, "Payment of 18.50 recorded (card)")

	w = e.do(http.MethodGet, "/api/staff/bookings?status=confirmed", e.token(staff), nil)
	requireStatus(t, http.StatusOK, w)
	var listed []models.Booking
	decode(t, w, &listed)
	assert.Len(t, listed, 1)

	w = e.do(http.MethodDelete, fmt.Sprintf("/api/admin/bookings/%d", b.ID), e.token(staff), nil)
	requireStatus(t, http.StatusOK, w)
	assert.ErrorIs(t, e.db.First(&models.Booking{}, b.ID).Error, gorm.ErrRecordNotFound)
}

func TestCreateBookingGameLookupFailure(t *testing.T) {
	e := newEnv(t)
	customer := e.user(models.RoleCustomer, "c@rccafe.test")
	tok := e.token(customer)
	game := e.game("Grand Prix", 60, "10", 2)
	require.NoError(t, e.db.Migrator().DropTable(&models.Game{}))

	w := e.do(http.MethodPost, "/api/bookings", tok, map[string]interface{}{
		"game_id": game.ID, "start_time": venueNow.Add(time.Hour).Format(time.RFC3339), "players": 1,
	})
	requireStatus(t, http.StatusInternalServerError, w)
	assert.Equal(t, "DB_ERROR", errorCode(t, w), "only a missing row is GAME_NOT_FOUND")
}
