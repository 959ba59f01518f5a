package handlers

import (
	"errors"
	"net/http"
	"strings"

	"rccafe/internal/auth"
	"rccafe/internal/clock"
	"rccafe/internal/config"
	"rccafe/internal/models"
	"rccafe/internal/response"
	"rccafe/internal/storage"
	"rccafe/internal/timer"
	"rccafe/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TimerListResponse struct {
	Timers []timer.View `json:"timers"`
}

type TimerResponse struct {
	Timer timer.View `json:"timer"`
}

// @Summary		Timers for the live display
// @Description	Combo timers first, then oldest first. STOPPED timers are only listed with all=true, which needs a staff token.
// @Tags			timers
// @Produce		json
// @Param			all	query		bool	false	"Include STOPPED timers (STAFF/ADMIN)"
// @Success		200	{object}	TimerListResponse
// @Failure		401	{object}	response.ErrorResponse	"NO_AUTH_HEADER"
// @Failure		403	{object}	response.ErrorResponse	"FORBIDDEN"
// @Failure		500	{object}	response.ErrorResponse	"DB_ERROR"
// @Router			/api/timers [get]
func ListTimers(c *gin.Context) {
	showAll := c.Query("all") == "true"
	if showAll {
		role, ok := auth.Role(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, response.ErrorResponse{
				Code:    "NO_AUTH_HEADER",
				Message: "Authorization required",
			})
			return
		}
		if !auth.HasRole(role, models.RoleStaff) {
			c.JSON(http.StatusForbidden, response.ErrorResponse{
				Code:    "FORBIDDEN",
				Message: "Insufficient permissions",
			})
			return
		}
	}

	q := storage.DB.Preload("Track").Order("is_combo DESC").Order("created_at ASC").Order("id ASC")
	if !showAll {
		q = q.Where("status <> ?", models.TimerStopped)
	}
	var timers []models.Timer
	if err := q.Find(&timers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.DBError("Could not load timers"))
		return
	}

	now := clock.Now()
	views := make([]timer.View, 0, len(timers))
	for _, t := range timers {
		views = append(views, timer.NewView(t, now))
	}
	c.JSON(http.StatusOK, TimerListResponse{Timers: views})
}

func loadTimer(c *gin.Context, db *gorm.DB) (models.Timer, bool) {
	var t models.Timer
	id, ok := pathID(c, "id", "INVALID_TIMER_ID")
	if !ok {
		return t, false
	}
	if err := db.First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, response.ErrorResponse{
				Code:    "TIMER_NOT_FOUND",
				Message: "Timer not found",
			})
			return t, false
		}
		c.JSON(http.StatusInternalServerError, response.DBError("Could not load timer"))
		return t, false
	}
	return t, true
}

// @Summary		Timer state
// @Description	Remaining time is computed for the current instant; nothing is written
// @Tags			timers
// @Produce		json
// @Param			id	path		int	true	"Timer ID"
// @Success		200	{object}	timer.View
// @Failure		400	{object}	response.ErrorResponse	"INVALID_TIMER_ID"
// @Failure		404	{object}	response.ErrorResponse	"TIMER_NOT_FOUND"
// @Router			/api/timers/{id} [get]
func GetTimer(c *gin.Context) {
	t, ok := loadTimer(c, storage.DB.Preload("Track"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, timer.NewView(t, clock.Now()))
}

type CreateTimerRequest struct {
	CustomerName     string `json:"customer_name" binding:"required"`
	TrackID          *uint  `json:"track_id"`
	AllocatedMinutes int    `json:"allocated_minutes" binding:"required"`
	IsCombo          bool   `json:"is_combo"`
}

// @Summary		Create a timer
// @Description	Starts STOPPED with the full allocation. Combo timers cover every track and carry no track_id.
// @Tags			timers
// @Accept			json
// @Produce		json
// @Security		BearerAuth
// @Param			body	body		CreateTimerRequest	true	"Timer"
// @Success		201		{object}	TimerResponse
// @Failure		400		{object}	response.ErrorResponse	"VALIDATION_ERROR, INVALID_MINUTES, TRACK_REQUIRED, COMBO_WITH_TRACK, INVALID_TRACK"
// @Failure		500		{object}	response.ErrorResponse	"DB_ERROR"
// @Router			/api/timers [post]
func CreateTimer(c *gin.Context) {
	var req CreateTimerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Validation(err))
		return
	}
	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Customer name and allocated minutes are required",
		})
		return
	}
	if !config.Get().Venue.AllowsTimerMinutes(req.AllocatedMinutes) {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_MINUTES",
			Message: "Allocated minutes must be one of the offered session lengths",
		})
		return
	}
	if !req.IsCombo && req.TrackID == nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "TRACK_REQUIRED",
			Message: "Track ID is required for track timers",
		})
		return
	}
	if req.IsCombo && req.TrackID != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "COMBO_WITH_TRACK",
			Message: "Combo timers must not have a track ID",
		})
		return
	}

	var track *models.Track
	if req.TrackID != nil {
		var found models.Track
		if !findOr(c, storage.DB, &found, http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_TRACK",
			Message: "Track does not exist",
		}, *req.TrackID) {
			return
		}
		track = &found
	}

	staffID := c.GetUint("userID")
	staffName := "Admin"
	var staff models.User
	if err := storage.DB.First(&staff, staffID).Error; err == nil && staff.Name != "" {
		staffName = staff.Name
	}

	t := models.Timer{
		CustomerName:     name,
		TrackID:          req.TrackID,
		AllocatedMinutes: req.AllocatedMinutes,
		RemainingSeconds: req.AllocatedMinutes * 60,
		Status:           models.TimerStopped,
		IsCombo:          req.IsCombo,
		CreatedBy:        staffID,
		CreatedByName:    staffName,
	}
	if err := storage.DB.Create(&t).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.DBError("Could not create timer"))
		return
	}
	t.Track = track

	view := timer.NewView(t, clock.Now())
	ws.HubInstance.Publish(ws.EventTimerCreated, view)
	log.Info().Uint("timer_id", t.ID).Int("minutes", t.AllocatedMinutes).Bool("combo", t.IsCombo).Msg("timer created")
	c.JSON(http.StatusCreated, TimerResponse{Timer: view})
}

type TimerActionRequest struct {
	Action  timer.Action `json:"action" binding:"required" enums:"start,pause,add_time,reset,stop"`
	Minutes int          `json:"minutes"`
}

// @Summary		Act on a timer
// @Description	start, pause, add_time (minutes 5 or 10), reset or stop
// @Tags			timers
// @Accept			json
// @Produce		json
// @Security		BearerAuth
// @Param			id		path		int					true	"Timer ID"
// @Param			body	body		TimerActionRequest	true	"Action"
// @Success		200		{object}	TimerResponse
// @Failure		400		{object}	response.ErrorResponse	"VALIDATION_ERROR, INVALID_ACTION, TIMER_RUNNING, TIMER_NOT_RUNNING, TIMER_COMPLETED, INVALID_MINUTES"
// @Failure		404		{object}	response.ErrorResponse	"TIMER_NOT_FOUND"
// @Failure		500		{object}	response.ErrorResponse	"DB_ERROR"
// @Router			/api/timers/{id} [patch]
func UpdateTimer(c *gin.Context) {
	var req TimerActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Validation(err))
		return
	}
	current, ok := loadTimer(c, storage.DB)
	if !ok {
		return
	}

	now := clock.Now()
	machine := timer.New(config.Get().Venue.AddTimeMinutes)
	next, err := machine.Apply(current, timer.Command{Action: req.Action, Minutes: req.Minutes}, now)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    timerErrorCode(err),
			Message: err.Error(),
		})
		return
	}

	// Updates, not Save: Save would re-insert a timer deleted since loadTimer.
	res := storage.DB.Model(&models.Timer{}).
		Where("id = ?", current.ID).
		Select("*").
		Omit("id", "created_at", clause.Associations).
		Updates(&next)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, response.DBError("Could not update timer"))
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "TIMER_NOT_FOUND",
			Message: "Timer not found",
		})
		return
	}
	if next.TrackID != nil {
		var track models.Track
		if err := storage.DB.First(&track, *next.TrackID).Error; err == nil {
			next.Track = &track
		}
	}

	view := timer.NewView(next, now)
	ws.HubInstance.Publish(ws.EventTimerUpdated, view)
	log.Info().Uint("timer_id", next.ID).Str("action", string(req.Action)).Str("status", string(next.Status)).Msg("timer updated")
	c.JSON(http.StatusOK, TimerResponse{Timer: view})
}

func timerErrorCode(err error) string {
	switch {
	case errors.Is(err, timer.ErrAlreadyRunning):
		return "TIMER_RUNNING"
	case errors.Is(err, timer.ErrNotRunning):
		return "TIMER_NOT_RUNNING"
	case errors.Is(err, timer.ErrCompleted):
		return "TIMER_COMPLETED"
	case errors.Is(err, timer.ErrUnsupportedMinutes):
		return "INVALID_MINUTES"
	default:
		return "INVALID_ACTION"
	}
}

// @Summary		Delete a timer
// @Tags			timers
// @Produce		json
// @Security		BearerAuth
// @Param			id	path		int	true	"Timer ID"
// @Success		200	{object}	response.SuccessResponse
// @Failure		400	{object}	response.ErrorResponse	"INVALID_TIMER_ID"
// @Failure		404	{object}	response.ErrorResponse	"TIMER_NOT_FOUND"
// @Failure		500	{object}	response.ErrorResponse	"DB_ERROR"
// @Router			/api/timers/{id} [delete]
func DeleteTimer(c *gin.Context) {
	t, ok := loadTimer(c, storage.DB)
	if !ok {
		return
	}
	if err := storage.DB.Delete(&t).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.DBError("Could not delete timer"))
		return
	}

	ws.HubInstance.Publish(ws.EventTimerDeleted, gin.H{"id": t.ID})
	log.Info().Uint("timer_id", t.ID).Msg("timer deleted")
	c.JSON(http.StatusOK, response.SuccessResponse{Message: "Timer deleted"})
}
