package venue

import (
	"testing"
	"time"

	"rccafe/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverlaps(t *testing.T) {
	base := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	at := func(min int) time.Time { return base.Add(time.Duration(min) * time.Minute) }

	cases := []struct {
		name       string
		start, end int
		want       bool
	}{
		{"identical", 0, 30, true},
		{"inside", 10, 20, true},
		{"covering", -10, 40, true},
		{"overlapping start", -15, 15, true},
		{"overlapping end", 15, 45, true},
		{"touching before", -30, 0, false},
		{"touching after", 30, 60, false},
		{"far away", 120, 150, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Overlaps(at(0), at(30), at(tc.start), at(tc.end)))
			assert.Equal(t, tc.want, Overlaps(at(tc.start), at(tc.end), at(0), at(30)), "overlap is symmetric")
		})
	}
}

func TestQuoteBooking(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	game := models.Game{Name: "Track slot", Duration: 30, Price: decimal.RequireFromString("499.50"), MaxPlayers: 4, IsActive: true}

	q, err := QuoteBooking(game, now.Add(time.Hour), 3, now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(90*time.Minute), q.EndTime)
	assert.Equal(t, 30, q.Duration)
	assert.True(t, decimal.RequireFromString("1498.50").Equal(q.TotalPrice), q.TotalPrice.String())

	_, err = QuoteBooking(game, now, 1, now)
	assert.ErrorIs(t, err, ErrStartInPast)

	_, err = QuoteBooking(game, now.Add(time.Hour), 5, now)
	assert.ErrorIs(t, err, ErrTooManyPlayers)

	game.IsActive = false
	_, err = QuoteBooking(game, now.Add(time.Hour), 1, now)
	assert.ErrorIs(t, err, ErrGameUnavailable)
}

func TestExpiryFor(t *testing.T) {
	start := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 2, 15, 10, 0, 0, 0, time.UTC), ExpiryFor(start))
}

func TestDerivedStatus(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	active := models.Membership{Status: models.MembershipActive, SessionsRemaining: 3, ExpiryDate: now.Add(time.Hour)}
	assert.Equal(t, models.MembershipActive, DerivedStatus(active, now))

	used := active
	used.SessionsRemaining = 0
	assert.Equal(t, models.MembershipCompleted, DerivedStatus(used, now))

	lapsed := active
	lapsed.ExpiryDate = now.Add(-time.Second)
	assert.Equal(t, models.MembershipExpired, DerivedStatus(lapsed, now))

	cancelled := lapsed
	cancelled.Status = models.MembershipCancelled
	assert.Equal(t, models.MembershipCancelled, DerivedStatus(cancelled, now))
}

func TestDeductAndRestore(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	m := models.Membership{Status: models.MembershipActive, SessionsTotal: 2, SessionsRemaining: 2, ExpiryDate: now.AddDate(0, 0, 10)}

	require.NoError(t, CheckDeduct(m, now))
	m = Deduct(m, now)
	assert.Equal(t, 1, m.SessionsUsed)
	assert.Equal(t, 1, m.SessionsRemaining)
	assert.Equal(t, models.MembershipActive, m.Status)
	require.NotNil(t, m.LastBookedDate)

	m = Deduct(m, now)
	assert.Equal(t, models.MembershipCompleted, m.Status)
	assert.ErrorIs(t, CheckDeduct(m, now), ErrMembershipInactive)

	m = Restore(m)
	assert.Equal(t, models.MembershipActive, m.Status)
	assert.Equal(t, 1, m.SessionsRemaining)
	assert.Equal(t, m.SessionsTotal, m.SessionsUsed+m.SessionsRemaining)

	assert.ErrorIs(t, CheckDeduct(m, now.AddDate(0, 1, 0)), ErrMembershipExpired)

	empty := models.Membership{Status: models.MembershipActive, ExpiryDate: now.Add(time.Hour)}
	assert.ErrorIs(t, CheckDeduct(empty, now), ErrNoSessionsRemaining)
}
