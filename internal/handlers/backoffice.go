package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"rccafe/internal/clock"
	"rccafe/internal/models"
	"rccafe/internal/response"
	"rccafe/internal/storage"
	"rccafe/internal/venue"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type StaffStats struct {
	TotalBookings  int64 `json:"total_bookings"`
	TodaysBookings int64 `json:"todays_bookings"`
	PendingPoints  int64 `json:"pending_points"`
	TotalCustomers int64 `json:"total_customers"`
}

// @Summary		Floor dashboard counters
// @Tags			staff
// @Produce		json
// @Security		BearerAuth
// @Success		200	{object}	StaffStats
// @Failure		500	{object}	response.ErrorResponse	"DB_ERROR"
// @Router			/api/staff/stats [get]
func GetStaffStats(c *gin.Context) {
	now := clock.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var stats StaffStats
	err := firstError(
		storage.DB.Model(&models.Booking{}).Count(&stats.TotalBookings).Error,
		storage.DB.Model(&models.Booking{}).
			Where("start_time >= ? AND start_time < ?", dayStart, dayStart.AddDate(0, 0, 1)).
			Count(&stats.TodaysBookings).Error,
		storage.DB.Model(&models.Point{}).Where("status = ?", models.PointPending).Count(&stats.PendingPoints).Error,
		storage.DB.Model(&models.User{}).Where("role = ?", models.RoleCustomer).Count(&stats.TotalCustomers).Error,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.DBError("Could not load stats"))
		return
	}
	c.JSON(http.StatusOK, stats)
}

type CustomerSummary struct {
	models.User
	TotalPoints     int        `json:"total_points"`
	BookingsCount   int        `json:"bookings_count"`
	LastBookingTime *time.Time `json:"last_booking_time"`
}

// @Summary		Customers with loyalty and booking totals
// @Tags			staff
// @Produce		json
// @Security		BearerAuth
// @Param			search	query		string	false	"Name or email fragment"
// @Success		200		{array}		CustomerSummary
// @Failure		500		{object}	response.ErrorResponse	"DB_ERROR"
// @Router			/api/staff/customers [get]
func ListStaffCustomers(c *gin.Context) {
	var customers []models.User
	q := storage.DB.Where("role = ?", models.RoleCustomer).Order("created_at DESC")
	q = searchUsers(q, c.Query("search"))
	if err := q.Find(&customers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.DBError("Could not load customers"))
		return
	}

	ids := make([]uint, 0, len(customers))
	for _, u := range customers {
		ids = append(ids, u.ID)
	}

	var points []models.Point
	var bookings []models.Booking
	err := firstError(
		storage.DB.Select("user_id", "amount").
			Where("user_id IN ? AND status = ?", ids, models.PointApproved).
			Find(&points).Error,
		storage.DB.Select("user_id", "start_time").Where("user_id IN ?", ids).Find(&bookings).Error,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.DBError("Could not load customer totals"))
		return
	}

	pointsByUser := map[uint]int{}
	for _, p := range points {
		pointsByUser[p.UserID] += p.Amount
	}
	type bookingAgg struct {
		count int
		last  time.Time
	}
	bookingsByUser := map[uint]*bookingAgg{}
	for _, b := range bookings {
		agg, ok := bookingsByUser[b.UserID]
		if !ok {
			agg = &bookingAgg{}
			bookingsByUser[b.UserID] = agg
		}
		agg.count++
		if b.StartTime.After(agg.last) {
			agg.last = b.StartTime
		}
	}

	out := make([]CustomerSummary, 0, len(customers))
	for _, u := range customers {
		s := CustomerSummary{User: u, TotalPoints: pointsByUser[u.ID]}
		if agg, ok := bookingsByUser[u.ID]; ok {
			last := agg.last
			s.BookingsCount = agg.count
			s.LastBookingTime = &last
		}
		out = append(out, s)
	}
	c.JSON(http.StatusOK, out)
}

type AdminStats struct {
	TotalUsers    int64           `json:"total_users"`
	ActiveGames   int64           `json:"active_games"`
	TotalBookings int64           `json:"total_bookings"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	PendingPoints int64           `json:"pending_points"`
}

// @Summary		Admin dashboard counters
// @Tags			admin
// @Produce		json
// @Security		BearerAuth
// @Success		200	{object}	AdminStats
// @Failure		500	{object}	response.ErrorResponse	"DB_ERROR"
// @Router			/api/admin/stats [get]
func GetAdminStats(c *gin.Context) {
	var stats AdminStats
	var paid []decimal.Decimal
	err := firstError(
		storage.DB.Model(&models.User{}).Count(&stats.TotalUsers).Error,
		storage.DB.Model(&models.Game{}).Where("is_active = ?", true).Count(&stats.ActiveGames).Error,
		storage.DB.Model(&models.Booking{}).Count(&stats.TotalBookings).Error,
		storage.DB.Model(&models.Booking{}).Where("payment_status = ?", models.PaymentCompleted).Pluck("total_price", &paid).Error,
		storage.DB.Model(&models.Point{}).Where("status = ?", models.PointPending).Count(&stats.PendingPoints).Error,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.DBError("Could not load stats"))
		return
	}
	stats.TotalRevenue = decimal.Sum(decimal.Zero, paid...)
	c.JSON(http.StatusOK, stats)
}

// @Summary		Revenue and booking report
// @Tags			admin
// @Produce		json
// @Security		BearerAuth
// @Param			period		query		string	false	"week, month (default) or all"
// @Param			start_date	query		string	false	"RFC3339 or YYYY-MM-DD, needs end_date"
// @Param			end_date	query		string	false	"RFC3339 or YYYY-MM-DD, needs start_date"
// @Success		200			{object}	venue.Report
// @Failure		400			{object}	response.ErrorResponse	"INVALID_DATE"
// @Failure		500			{object}	response.ErrorResponse	"DB_ERROR"
// @Router			/api/admin/reports [get]
func GetAdminReport(c *gin.Context) {
	start, err := parseDateParam(c.Query("start_date"))
	if err != nil {
		invalidDate(c, err)
		return
	}
	end, err := parseDateParam(c.Query("end_date"))
	if err != nil {
		invalidDate(c, err)
		return
	}
	reportFor(c, venue.ReportWindow(c.DefaultQuery("period", "month"), start, end, clock.Now()))
}

func invalidDate(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, response.ErrorResponse{
		Code:    "INVALID_DATE",
		Message: "Dates must be RFC3339 or YYYY-MM-DD",
		Details: err.Error(),
	})
}

func reportFor(c *gin.Context, w venue.Window) {
	scoped := func(q *gorm.DB) *gorm.DB {
		if w.From != nil {
			q = q.Where("created_at >= ?", *w.From)
		}
		if w.To != nil {
			q = q.Where("created_at <= ?", *w.To)
		}
		return q
	}

	var bookings []models.Booking
	var games []models.Game
	var totalUsers, newUsers int64
	err := firstError(
		scoped(storage.DB.Model(&models.Booking{})).Find(&bookings).Error,
		storage.DB.Select("id", "name").Find(&games).Error,
		storage.DB.Model(&models.User{}).Where("role = ?", models.RoleCustomer).Count(&totalUsers).Error,
		scoped(storage.DB.Model(&models.User{}).Where("role = ?", models.RoleCustomer)).Count(&newUsers).Error,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.DBError("Could not build report"))
		return
	}

	names := make(map[uint]string, len(games))
	for _, g := range games {
		names[g.ID] = g.Name
	}
	report := venue.BuildReport(w, bookings, names)
	report.Summary.TotalUsers = totalUsers
	report.Summary.NewUsers = newUsers
	c.JSON(http.StatusOK, report)
}

func parseDateParam(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", v, time.Local)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

type UserSummary struct {
	models.User
	BookingsCount int64              `json:"bookings_count"`
	PointsCount   int64              `json:"points_count"`
	Membership    *models.Membership `json:"membership"`
}

// @Summary		Users
// @Description	Customers unless role asks for STAFF or ADMIN
// @Tags			admin
// @Produce		json
// @Security		BearerAuth
// @Param			role				query		string	false	"CUSTOMER (default), STAFF or ADMIN"
// @Param			search				query		string	false	"Name or email fragment"
// @Param			membership_status	query		string	false	"ACTIVE or NONE"
// @Success		200					{array}		UserSummary
// @Failure		500					{object}	response.ErrorResponse	"DB_ERROR"
// @Router			/api/admin/users [get]
func AdminListUsers(c *gin.Context) {
	role := models.Role(strings.ToUpper(c.Query("role")))
	if role != models.RoleStaff && role != models.RoleAdmin {
		role = models.RoleCustomer
	}

	var users []models.User
	q := searchUsers(storage.DB.Where("role = ?", role), c.Query("search")).Order("created_at DESC")
	if err := q.Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.DBError("Could not load users"))
		return
	}

	filter := strings.ToUpper(c.Query("membership_status"))
	out := make([]UserSummary, 0, len(users))
	for _, u := range users {
		summary, err := summarizeUser(u)
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.DBError("Could not load user totals"))
			return
		}
		if (filter == "ACTIVE" && summary.Membership == nil) || (filter == "NONE" && summary.Membership != nil) {
			continue
		}
		out = append(out, summary)
	}
	c.JSON(http.StatusOK, out)
}

// @Summary		User details
// @Tags			admin
// @Produce		json
// @Security		BearerAuth
// @Param			id	path		int	true	"User ID"
// @Success		200	{object}	UserSummary
// @Failure		400	{object}	response.ErrorResponse	"INVALID_USER_ID"
// @Failure		404	{object}	response.ErrorResponse	"USER_NOT_FOUND"
// @Failure		500	{object}	response.ErrorResponse	"DB_ERROR"
// @Router			/api/admin/users/{id} [get]
func AdminGetUser(c *gin.Context) {
	id, ok := pathID(c, "id", "INVALID_USER_ID")
	if !ok {
		return
	}
	var user models.User
	if err := storage.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, response.ErrorResponse{Code: "USER_NOT_FOUND", Message: "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, response.DBError("Could not load user"))
		return
	}
	summary, err := summarizeUser(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.DBError("Could not load user totals"))
		return
	}
	c.JSON(http.StatusOK, summary)
}

func summarizeUser(u models.User) (UserSummary, error) {
	s := UserSummary{User: u}
	var memberships []models.Membership
	err := firstError(
		storage.DB.Model(&models.Booking{}).Where("user_id = ?", u.ID).Count(&s.BookingsCount).Error,
		storage.DB.Model(&models.Point{}).Where("user_id = ?", u.ID).Count(&s.PointsCount).Error,
		storage.DB.Where("user_id = ? AND status = ?", u.ID, models.MembershipActive).
			Order("created_at DESC").Limit(1).Find(&memberships).Error,
	)
	if err != nil {
		return s, err
	}
	if len(memberships) > 0 {
		s.Membership = &memberships[0]
	}
	return s, nil
}

// searchUsers matches name or email case-insensitively; LOWER + LIKE keeps it portable across drivers.
func searchUsers(q *gorm.DB, search string) *gorm.DB {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return q
	}
	pattern := "%" + search + "%"
	return q.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
