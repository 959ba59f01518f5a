package venue

import (
	"testing"
	"time"

	"rccafe/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportWindow(t *testing.T) {
	now := time.Date(2026, 6, 30, 12, 0, 0, 0, time.UTC)

	w := ReportWindow("week", nil, nil, now)
	require.NotNil(t, w.From)
	assert.Equal(t, now.AddDate(0, 0, -7), *w.From)
	assert.Nil(t, w.To)

	w = ReportWindow("", nil, nil, now)
	require.NotNil(t, w.From)
	assert.Equal(t, now.AddDate(0, 0, -30), *w.From)

	assert.Equal(t, Window{}, ReportWindow("all", nil, nil, now))

	from, to := now.AddDate(0, -2, 0), now.AddDate(0, -1, 0)
	w = ReportWindow("week", &from, &to, now)
	assert.True(t, w.Contains(from.Add(time.Hour)))
	assert.False(t, w.Contains(now))
}

func TestBuildReport(t *testing.T) {
	day1 := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	booking := func(game uint, price string, status models.BookingStatus, paid bool, created time.Time) models.Booking {
		b := models.Booking{
			GameID:        game,
			TotalPrice:    decimal.RequireFromString(price),
			Status:        status,
			PaymentStatus: models.PaymentPending,
		}
		if paid {
			b.PaymentStatus = models.PaymentCompleted
		}
		b.CreatedAt = created
		return b
	}

	bookings := []models.Booking{
		booking(1, "500", models.BookingCompleted, true, day1),
		booking(1, "250", models.BookingConfirmed, true, day2),
		booking(2, "900", models.BookingCompleted, true, day2),
		booking(2, "900", models.BookingCancelled, false, day2),
		booking(3, "100", models.BookingPending, false, day1),
	}
	r := BuildReport(Window{}, bookings, map[uint]string{1: "Off-road track", 2: "PS5 duo"})

	assert.True(t, decimal.NewFromInt(1650).Equal(r.Summary.TotalRevenue))
	assert.Equal(t, 5, r.Summary.TotalBookings)
	assert.Equal(t, 2, r.Summary.CompletedBookings)
	assert.Equal(t, 1, r.Summary.CancelledBookings)
	assert.Equal(t, "330", r.Summary.AverageBookingValue.String())

	require.Len(t, r.GameStats, 2, "unpaid bookings do not produce game revenue")
	assert.Equal(t, "Off-road track", r.GameStats[0].GameName)
	assert.Equal(t, 2, r.GameStats[0].Bookings)

	require.Len(t, r.DailyRevenue, 2)
	assert.Equal(t, "2026-06-01", r.DailyRevenue[0].Date)
	assert.True(t, decimal.NewFromInt(1150).Equal(r.DailyRevenue[1].Revenue))

	require.Len(t, r.TopGames, 2)
	assert.Equal(t, uint(2), r.TopGames[0].GameID)
}
