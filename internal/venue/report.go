package venue

import (
	"sort"
	"time"

	"rccafe/internal/models"

	"github.com/shopspring/decimal"
)

// Window is an inclusive reporting range on created_at. A nil bound is unbounded.
type Window struct {
	From *time.Time `json:"from"`
	To   *time.Time `json:"to"`
}

// ReportWindow resolves the report range. Explicit dates win over period; period is
// week (7 days), month (30 days, the default) or all.
func ReportWindow(period string, start, end *time.Time, now time.Time) Window {
	if start != nil && end != nil {
		return Window{From: start, To: end}
	}
	var from time.Time
	switch period {
	case "all":
		return Window{}
	case "week":
		from = now.AddDate(0, 0, -7)
	default:
		from = now.AddDate(0, 0, -30)
	}
	return Window{From: &from}
}

// Contains reports whether t falls inside w.
func (w Window) Contains(t time.Time) bool {
	if w.From != nil && t.Before(*w.From) {
		return false
	}
	if w.To != nil && t.After(*w.To) {
		return false
	}
	return true
}

type GameStat struct {
	GameID   uint            `json:"game_id"`
	GameName string          `json:"game_name"`
	Bookings int             `json:"bookings"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type DailyRevenue struct {
	Date    string          `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
}

type ReportSummary struct {
	TotalRevenue        decimal.Decimal `json:"total_revenue"`
	TotalBookings       int             `json:"total_bookings"`
	CompletedBookings   int             `json:"completed_bookings"`
	CancelledBookings   int             `json:"cancelled_bookings"`
	TotalUsers          int64           `json:"total_users"`
	NewUsers            int64           `json:"new_users"`
	AverageBookingValue decimal.Decimal `json:"average_booking_value"`
}

type Report struct {
	Window       Window         `json:"window"`
	Summary      ReportSummary  `json:"summary"`
	GameStats    []GameStat     `json:"game_stats"`
	DailyRevenue []DailyRevenue `json:"daily_revenue"`
	TopGames     []GameStat     `json:"top_games"`
}

// BuildReport aggregates bookings already filtered to the window. Revenue only counts
// completed payments; user counts are filled in by the caller.
func BuildReport(w Window, bookings []models.Booking, gameNames map[uint]string) Report {
	r := Report{
		Window:       w,
		GameStats:    []GameStat{},
		DailyRevenue: []DailyRevenue{},
		TopGames:     []GameStat{},
	}
	r.Summary.TotalBookings = len(bookings)

	perGame := map[uint]*GameStat{}
	perDay := map[string]decimal.Decimal{}
	for _, b := range bookings {
		switch b.Status {
		case models.BookingCompleted:
			r.Summary.CompletedBookings++
		case models.BookingCancelled:
			r.Summary.CancelledBookings++
		}
		if b.PaymentStatus != models.PaymentCompleted {
			continue
		}

		r.Summary.TotalRevenue = r.Summary.TotalRevenue.Add(b.TotalPrice)

		stat, ok := perGame[b.GameID]
		if !ok {
			stat = &GameStat{GameID: b.GameID, GameName: gameNames[b.GameID]}
			if stat.GameName == "" {
				stat.GameName = "Unknown"
			}
			perGame[b.GameID] = stat
		}
		stat.Bookings++
		stat.Revenue = stat.Revenue.Add(b.TotalPrice)

		day := b.CreatedAt.Format("2006-01-02")
		perDay[day] = perDay[day].Add(b.TotalPrice)
	}

	if r.Summary.TotalBookings > 0 {
		r.Summary.AverageBookingValue = r.Summary.TotalRevenue.
			Div(decimal.NewFromInt(int64(r.Summary.TotalBookings))).
			Round(2)
	}

	for _, stat := range perGame {
		r.GameStats = append(r.GameStats, *stat)
	}
	sort.Slice(r.GameStats, func(i, j int) bool { return r.GameStats[i].GameID < r.GameStats[j].GameID })

	for day, revenue := range perDay {
		r.DailyRevenue = append(r.DailyRevenue, DailyRevenue{Date: day, Revenue: revenue})
	}
	sort.Slice(r.DailyRevenue, func(i, j int) bool { return r.DailyRevenue[i].Date < r.DailyRevenue[j].Date })

	r.TopGames = append(r.TopGames, r.GameStats...)
	sort.SliceStable(r.TopGames, func(i, j int) bool {
		return r.TopGames[i].Revenue.GreaterThan(r.TopGames[j].Revenue)
	})
	if len(r.TopGames) > 5 {
		r.TopGames = r.TopGames[:5]
	}
	return r
}
