package venue

import (
	"errors"
	"time"

	"rccafe/internal/models"

	"github.com/shopspring/decimal"
)

var (
	ErrStartInPast     = errors.New("start time must be in the future")
	ErrTooManyPlayers  = errors.New("too many players for this game")
	ErrGameUnavailable = errors.New("game is not available")
)

// ActiveBookingStatuses are the statuses that hold a slot.
var ActiveBookingStatuses = []models.BookingStatus{models.BookingPending, models.BookingConfirmed}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect. Touching slots do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return bStart.Before(aEnd) && bEnd.After(aStart)
}

// Quote is the computed slot and price of a booking request.
type Quote struct {
	StartTime  time.Time
	EndTime    time.Time
	Duration   int
	TotalPrice decimal.Decimal
}

// QuoteBooking checks a request against the game and returns the slot it would occupy.
func QuoteBooking(game models.Game, start time.Time, players int, now time.Time) (Quote, error) {
	if !game.IsActive {
		return Quote{}, ErrGameUnavailable
	}
	if !start.After(now) {
		return Quote{}, ErrStartInPast
	}
	if players > game.MaxPlayers {
		return Quote{}, ErrTooManyPlayers
	}
	return Quote{
		StartTime:  start,
		EndTime:    start.Add(time.Duration(game.Duration) * time.Minute),
		Duration:   game.Duration,
		TotalPrice: game.Price.Mul(decimal.NewFromInt(int64(players))),
	}, nil
}
