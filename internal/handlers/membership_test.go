package handlers_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"rccafe/internal/handlers"
	"rccafe/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *env) membership(adminToken string, userID uint, sessions int) models.Membership {
	e.t.Helper()
	w := e.do(http.MethodPost, "/api/admin/memberships", adminToken, map[string]interface{}{
		"user_id": userID, "plan_type": "RC_TRACK", "sessions_total": sessions,
	})
	requireStatus(e.t, http.StatusCreated, w)
	var resp handlers.MembershipResponse
	decode(e.t, w, &resp)
	require.NotNil(e.t, resp.Membership)
	return *resp.Membership
}

func TestCreateMembership(t *testing.T) {
	e := newEnv(t)
	admin := e.user(models.RoleAdmin, "admin@rccafe.test")
	customer := e.user(models.RoleCustomer, "c@rccafe.test")
	tok := e.token(admin)

	w := e.do(http.MethodPost, "/api/admin/memberships", tok, map[string]interface{}{"user_id": customer.ID, "plan_type": "GOLD"})
	requireStatus(t, http.StatusBadRequest, w)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))

	w = e.do(http.MethodPost, "/api/admin/memberships", tok, map[string]interface{}{"user_id": 999, "plan_type": "RC_TRACK"})
	requireStatus(t, http.StatusNotFound, w)
	assert.Equal(t, "USER_NOT_FOUND", errorCode(t, w))

	w = e.do(http.MethodPost, "/api/admin/memberships", tok, map[string]interface{}{"user_id": customer.ID, "plan_type": "RC_TRACK"})
	requireStatus(t, http.StatusCreated, w)
	var resp handlers.MembershipResponse
	decode(t, w, &resp)
	m := resp.Membership
	require.NotNil(t, m)
	assert.Equal(t, models.MembershipActive, m.Status)
	assert.Equal(t, 16, m.SessionsTotal)
	assert.Equal(t, 16, m.SessionsRemaining)
	assert.True(t, m.ExpiryDate.Equal(venueNow.AddDate(0, 1, 0)))
	require.Len(t, m.Transactions, 1)
	assert.Equal(t, "6999", m.Transactions[0].Amount.String())
	assert.Equal(t, "COMPLETED", m.Transactions[0].Status)

	w = e.do(http.MethodGet, "/api/memberships/me", e.token(customer), nil)
	requireStatus(t, http.StatusOK, w)
	decode(t, w, &resp)
	require.NotNil(t, resp.Membership)
	assert.Equal(t, m.ID, resp.Membership.ID)
}

func TestMembershipSessions(t *testing.T) {
	e := newEnv(t)
	admin := e.user(models.RoleAdmin, "admin@rccafe.test")
	customer := e.user(models.RoleCustomer, "c@rccafe.test")
	tok := e.token(admin)
	m := e.membership(tok, customer.ID, 2)
	path := fmt.Sprintf("/api/admin/memberships/%d/sessions", m.ID)

	w := e.do(http.MethodPost, path, tok, map[string]string{"notes": "first visit"})
	requireStatus(t, http.StatusOK, w)
	var used handlers.UseSessionResponse
	decode(t, w, &used)
	assert.Equal(t, 1, used.Membership.SessionsRemaining)
	assert.Equal(t, 1, used.Membership.SessionsUsed)
	assert.Equal(t, "User admin@rccafe.test", used.Session.UsedByName)

	w = e.do(http.MethodPost, path, tok, nil)
	requireStatus(t, http.StatusOK, w)
	decode(t, w, &used)
	assert.Equal(t, 0, used.Membership.SessionsRemaining)
	assert.Equal(t, models.MembershipCompleted, used.Membership.Status)

	w = e.do(http.MethodPost, path, tok, nil)
	requireStatus(t, http.StatusBadRequest, w)
	assert.Equal(t, "MEMBERSHIP_INACTIVE", errorCode(t, w))

	w = e.do(http.MethodDelete, fmt.Sprintf("%s/%d", path, used.Session.ID), tok, nil)
	requireStatus(t, http.StatusOK, w)

	var stored models.Membership
	require.NoError(t, e.db.First(&stored, m.ID).Error)
	assert.Equal(t, models.MembershipActive, stored.Status)
	assert.Equal(t, 1, stored.SessionsRemaining)
	assert.Equal(t, 1, stored.SessionsUsed)

	var sessions int64
	require.NoError(t, e.db.Model(&models.MembershipSession{}).Where("membership_id = ?", m.ID).Count(&sessions).Error)
	assert.EqualValues(t, 1, sessions)

	w = e.do(http.MethodDelete, fmt.Sprintf("%s/%d", path, 4242), tok, nil)
	requireStatus(t, http.StatusNotFound, w)
	assert.Equal(t, "SESSION_NOT_FOUND", errorCode(t, w))
}

func TestMembershipSessionLinksBooking(t *testing.T) {
	e := newEnv(t)
	admin := e.user(models.RoleAdmin, "admin@rccafe.test")
	customer := e.user(models.RoleCustomer, "c@rccafe.test")
	tok := e.token(admin)
	game := e.game("Grand Prix", 60, "10", 4)
	m := e.membership(tok, customer.ID, 4)
	b := e.book(e.token(customer), game, venueNow.Add(2*time.Hour), 1)
	require.NotNil(t, b)

	path := fmt.Sprintf("/api/admin/memberships/%d/sessions", m.ID)
	w := e.do(http.MethodPost, path, tok, map[string]interface{}{"booking_id": 9999})
	requireStatus(t, http.StatusNotFound, w)
	assert.Equal(t, "BOOKING_NOT_FOUND", errorCode(t, w))

	var stored models.Membership
	require.NoError(t, e.db.First(&stored, m.ID).Error)
	assert.Equal(t, 4, stored.SessionsRemaining, "a failed link rolls the deduction back")

	w = e.do(http.MethodPost, path, tok, map[string]interface{}{"booking_id": b.ID})
	requireStatus(t, http.StatusOK, w)
	var used handlers.UseSessionResponse
	decode(t, w, &used)

	var booking models.Booking
	require.NoError(t, e.db.First(&booking, b.ID).Error)
	require.NotNil(t, booking.MembershipSessionID)
	assert.Equal(t, used.Session.ID, *booking.MembershipSessionID)

	w = e.do(http.MethodPatch, fmt.Sprintf("%s/%d", path, used.Session.ID), tok, map[string]string{"notes": "walk-in"})
	requireStatus(t, http.StatusOK, w)
	var session models.MembershipSession
	require.NoError(t, e.db.First(&session, used.Session.ID).Error)
	require.NotNil(t, session.Notes)
	assert.Equal(t, "walk-in", *session.Notes)

	w = e.do(http.MethodDelete, fmt.Sprintf("%s/%d", path, used.Session.ID), tok, nil)
	requireStatus(t, http.StatusOK, w)
	require.NoError(t, e.db.First(&booking, b.ID).Error)
	assert.Nil(t, booking.MembershipSessionID)
}

func TestExpiredMembership(t *testing.T) {
	e := newEnv(t)
	admin := e.user(models.RoleAdmin, "admin@rccafe.test")
	customer := e.user(models.RoleCustomer, "c@rccafe.test")
	tok := e.token(admin)
	m := e.membership(tok, customer.ID, 4)

	e.clock.Advance(32 * 24 * time.Hour)

	w := e.do(http.MethodPost, fmt.Sprintf("/api/admin/memberships/%d/sessions", m.ID), tok, nil)
	requireStatus(t, http.StatusBadRequest, w)
	assert.Equal(t, "MEMBERSHIP_EXPIRED", errorCode(t, w))

	var stored models.Membership
	require.NoError(t, e.db.First(&stored, m.ID).Error)
	assert.Equal(t, models.MembershipExpired, stored.Status)
	assert.Equal(t, 4, stored.SessionsRemaining)
}

func TestActiveMembershipLapses(t *testing.T) {
	e := newEnv(t)
	admin := e.user(models.RoleAdmin, "admin@rccafe.test")
	customer := e.user(models.RoleCustomer, "c@rccafe.test")
	m := e.membership(e.token(admin), customer.ID, 4)

	e.clock.Advance(40 * 24 * time.Hour)

	w := e.do(http.MethodGet, "/api/memberships/me", e.token(customer), nil)
	requireStatus(t, http.StatusOK, w)
	var resp handlers.MembershipResponse
	decode(t, w, &resp)
	assert.Nil(t, resp.Membership)

	var stored models.Membership
	require.NoError(t, e.db.First(&stored, m.ID).Error)
	assert.Equal(t, models.MembershipExpired, stored.Status)

	w = e.do(http.MethodGet, "/api/memberships", e.token(customer), nil)
	requireStatus(t, http.StatusOK, w)
	var mine handlers.MyMembershipsResponse
	decode(t, w, &mine)
	assert.Len(t, mine.Memberships, 1)
	assert.Nil(t, mine.ActiveMembership)
}

func TestUpdateMembershipStartDate(t *testing.T) {
	e := newEnv(t)
	admin := e.user(models.RoleAdmin, "admin@rccafe.test")
	customer := e.user(models.RoleCustomer, "c@rccafe.test")
	tok := e.token(admin)
	m := e.membership(tok, customer.ID, 4)

	start := venueNow.AddDate(0, -2, 0)
	w := e.do(http.MethodPatch, fmt.Sprintf("/api/admin/memberships/%d", m.ID), tok, map[string]interface{}{
		"start_date": start.Format(time.RFC3339),
	})
	requireStatus(t, http.StatusOK, w)
	var resp handlers.MembershipResponse
	decode(t, w, &resp)
	require.NotNil(t, resp.Membership)
	assert.True(t, resp.Membership.ExpiryDate.Equal(start.AddDate(0, 1, 0)))
	assert.Equal(t, models.MembershipExpired, resp.Membership.Status, "status follows the new expiry")

	w = e.do(http.MethodPatch, fmt.Sprintf("/api/admin/memberships/%d", m.ID), tok, map[string]interface{}{"status": "CANCELLED"})
	requireStatus(t, http.StatusOK, w)
	var stored models.Membership
	require.NoError(t, e.db.First(&stored, m.ID).Error)
	assert.Equal(t, models.MembershipCancelled, stored.Status)
}
