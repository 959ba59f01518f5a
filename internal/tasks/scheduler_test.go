package tasks

import (
	"testing"
	"time"

	"rccafe/internal/clock"
	"rccafe/internal/models"
	"rccafe/internal/testdb"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func setup(t *testing.T) {
	t.Helper()
	clock.Set(clockwork.NewFakeClockAt(now))
	t.Cleanup(clock.Reset)
}

func TestSweepMemberships(t *testing.T) {
	setup(t)
	db := testdb.Open(t)

	user := models.User{Name: "Sam", Email: "sam@rccafe.test", PasswordHash: "x", Role: models.RoleCustomer}
	require.NoError(t, db.Create(&user).Error)

	membership := func(status models.MembershipStatus, remaining int, expiry time.Time) models.Membership {
		m := models.Membership{
			UserID:            user.ID,
			PlanType:          models.PlanRCTrack,
			StartDate:         expiry.AddDate(0, -1, 0),
			ExpiryDate:        expiry,
			SessionsTotal:     4,
			SessionsUsed:      4 - remaining,
			SessionsRemaining: remaining,
			Status:            status,
		}
		require.NoError(t, db.Create(&m).Error)
		return m
	}
	live := membership(models.MembershipActive, 2, now.AddDate(0, 0, 10))
	exhausted := membership(models.MembershipActive, 0, now.AddDate(0, 0, 10))
	lapsed := membership(models.MembershipActive, 3, now.AddDate(0, 0, -1))
	cancelled := membership(models.MembershipCancelled, 3, now.AddDate(0, 0, -1))

	completed, expired := SweepMemberships()
	assert.EqualValues(t, 1, completed)
	assert.EqualValues(t, 1, expired)

	for id, want := range map[uint]models.MembershipStatus{
		live.ID:      models.MembershipActive,
		exhausted.ID: models.MembershipCompleted,
		lapsed.ID:    models.MembershipExpired,
		cancelled.ID: models.MembershipCancelled,
	} {
		var got models.Membership
		require.NoError(t, db.First(&got, id).Error)
		assert.Equal(t, want, got.Status, "membership %d", id)
	}

	completed, expired = SweepMemberships()
	assert.Zero(t, completed)
	assert.Zero(t, expired)
}

func TestPurgeResetCodes(t *testing.T) {
	setup(t)
	db := testdb.Open(t)

	codes := []models.PasswordResetToken{
		{Email: "a@rccafe.test", Code: "111111", Expires: now.Add(10 * time.Minute)},
		{Email: "b@rccafe.test", Code: "222222", Expires: now.Add(-time.Minute)},
		{Email: "c@rccafe.test", Code: "333333", Expires: now.Add(10 * time.Minute), Used: true},
	}
	require.NoError(t, db.Create(&codes).Error)

	assert.EqualValues(t, 2, PurgeResetCodes())

	var left []models.PasswordResetToken
	require.NoError(t, db.Find(&left).Error)
	require.Len(t, left, 1)
	assert.Equal(t, "a@rccafe.test", left[0].Email)
}

func TestInitScheduler(t *testing.T) {
	c := InitScheduler()
	defer c.Stop()
	assert.Len(t, c.Entries(), 2)
}
