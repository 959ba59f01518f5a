package handlers_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"rccafe/internal/handlers"
	"rccafe/internal/models"
	"rccafe/internal/venue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaffStatsAndCustomers(t *testing.T) {
	e := newEnv(t)
	staff := e.user(models.RoleStaff, "staff@rccafe.test")
	alice := e.user(models.RoleCustomer, "alice@rccafe.test")
	e.user(models.RoleCustomer, "bob@rccafe.test")
	game := e.game("Grand Prix", 60, "10", 4)

	require.NotNil(t, e.book(e.token(alice), game, venueNow.Add(2*time.Hour), 1))
	require.NotNil(t, e.book(e.token(alice), game, venueNow.Add(48*time.Hour), 1))
	require.NoError(t, e.db.Create(&models.Point{UserID: alice.ID, Amount: 15, Reason: "cup", Status: models.PointApproved}).Error)
	require.NoError(t, e.db.Create(&models.Point{UserID: alice.ID, Amount: 5, Reason: "cup", Status: models.PointPending}).Error)

	w := e.do(http.MethodGet, "/api/staff/stats", e.token(staff), nil)
	requireStatus(t, http.StatusOK, w)
	var stats handlers.StaffStats
	decode(t, w, &stats)
	assert.EqualValues(t, 2, stats.TotalBookings)
	assert.EqualValues(t, 1, stats.TodaysBookings)
	assert.EqualValues(t, 1, stats.PendingPoints)
	assert.EqualValues(t, 2, stats.TotalCustomers)

	w = e.do(http.MethodGet, "/api/staff/customers?search=ALICE", e.token(staff), nil)
	requireStatus(t, http.StatusOK, w)
	var customers []handlers.CustomerSummary
	decode(t, w, &customers)
	require.Len(t, customers, 1)
	assert.Equal(t, alice.ID, customers[0].ID)
	assert.Equal(t, 15, customers[0].TotalPoints)
	assert.Equal(t, 2, customers[0].BookingsCount)
	require.NotNil(t, customers[0].LastBookingTime)
	assert.True(t, customers[0].LastBookingTime.Equal(venueNow.Add(48*time.Hour)))
}

func TestAdminStats(t *testing.T) {
	e := newEnv(t)
	admin := e.user(models.RoleAdmin, "admin@rccafe.test")
	customer := e.user(models.RoleCustomer, "c@rccafe.test")
	game := e.game("Grand Prix", 60, "10", 4)

	paid := e.book(e.token(customer), game, venueNow.Add(2*time.Hour), 1)
	require.NotNil(t, paid)
	require.NotNil(t, e.book(e.token(customer), game, venueNow.Add(4*time.Hour), 1))
	w := e.do(http.MethodPatch, fmt.Sprintf("/api/admin/bookings/%d/payment", paid.ID), e.token(admin), map[string]interface{}{"amount": 12.5})
	requireStatus(t, http.StatusOK, w)

	w = e.do(http.MethodGet, "/api/admin/stats", e.token(admin), nil)
	requireStatus(t, http.StatusOK, w)
	var stats handlers.AdminStats
	decode(t, w, &stats)
	assert.EqualValues(t, 2, stats.TotalUsers)
	assert.EqualValues(t, 1, stats.ActiveGames)
	assert.EqualValues(t, 2, stats.TotalBookings)
	assert.Equal(t, "12.5", stats.TotalRevenue.String())
}

func TestAdminReport(t *testing.T) {
	e := newEnv(t)
	admin := e.user(models.RoleAdmin, "admin@rccafe.test")
	customer := e.user(models.RoleCustomer, "c@rccafe.test")
	tok := e.token(admin)
	game := e.game("Grand Prix", 60, "10", 4)

	b := e.book(e.token(customer), game, venueNow.Add(2*time.Hour), 2)
	require.NotNil(t, b)
	requireStatus(t, http.StatusOK, e.do(http.MethodPatch, fmt.Sprintf("/api/admin/bookings/%d/payment", b.ID), tok, map[string]interface{}{"amount": 20}))

	w := e.do(http.MethodGet, "/api/admin/reports?period=week", tok, nil)
	requireStatus(t, http.StatusOK, w)
	var report venue.Report
	decode(t, w, &report)
	assert.Equal(t, 1, report.Summary.TotalBookings)
	assert.Equal(t, "20", report.Summary.TotalRevenue.String())
	assert.EqualValues(t, 1, report.Summary.TotalUsers)
	require.Len(t, report.GameStats, 1)
	assert.Equal(t, "Grand Prix", report.GameStats[0].GameName)

	e.clock.Advance(10 * 24 * time.Hour)
	w = e.do(http.MethodGet, "/api/admin/reports?period=week", tok, nil)
	requireStatus(t, http.StatusOK, w)
	decode(t, w, &report)
	assert.Zero(t, report.Summary.TotalBookings, "bookings made before the window are left out")

	w = e.do(http.MethodGet, "/api/admin/reports?period=all", tok, nil)
	requireStatus(t, http.StatusOK, w)
	decode(t, w, &report)
	assert.Equal(t, 1, report.Summary.TotalBookings)

	w = e.do(http.MethodGet, "/api/admin/reports?start_date=yesterday", tok, nil)
	requireStatus(t, http.StatusBadRequest, w)
	assert.Equal(t, "INVALID_DATE", errorCode(t, w))
}

func TestAdminUsers(t *testing.T) {
	e := newEnv(t)
	admin := e.user(models.RoleAdmin, "admin@rccafe.test")
	tok := e.token(admin)
	member := e.user(models.RoleCustomer, "member@rccafe.test")
	e.user(models.RoleCustomer, "walkin@rccafe.test")
	e.user(models.RoleStaff, "staff@rccafe.test")
	e.membership(tok, member.ID, 4)

	w := e.do(http.MethodGet, "/api/admin/users", tok, nil)
	requireStatus(t, http.StatusOK, w)
	var users []handlers.UserSummary
	decode(t, w, &users)
	assert.Len(t, users, 2, "customers by default")

	w = e.do(http.MethodGet, "/api/admin/users?membership_status=active", tok, nil)
	requireStatus(t, http.StatusOK, w)
	decode(t, w, &users)
	require.Len(t, users, 1)
	assert.Equal(t, member.ID, users[0].ID)
	require.NotNil(t, users[0].Membership)

	w = e.do(http.MethodGet, "/api/admin/users?membership_status=none&search=WALK", tok, nil)
	requireStatus(t, http.StatusOK, w)
	decode(t, w, &users)
	require.Len(t, users, 1)
	assert.Equal(t, "walkin@rccafe.test", users[0].Email)

	w = e.do(http.MethodGet, "/api/admin/users?role=staff", tok, nil)
	requireStatus(t, http.StatusOK, w)
	decode(t, w, &users)
	assert.Len(t, users, 1)

	w = e.do(http.MethodGet, fmt.Sprintf("/api/admin/users/%d", member.ID), tok, nil)
	requireStatus(t, http.StatusOK, w)
	var one handlers.UserSummary
	decode(t, w, &one)
	assert.Equal(t, member.Email, one.Email)

	w = e.do(http.MethodGet, "/api/admin/users/9999", tok, nil)
	requireStatus(t, http.StatusNotFound, w)
}
