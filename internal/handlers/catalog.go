package handlers

import (
	"errors"
	"net/http"
	"strings"

	"rccafe/internal/models"
	"rccafe/internal/response"
	"rccafe/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// @Summary		Active tracks
// @Tags			catalog
// @Produce		json
// @Success		200	{array}		models.Track
// @Failure		500	{object}	response.ErrorResponse	"DB_ERROR"
// @Router			/api/tracks [get]
func ListTracks(c *gin.Context) {
	ctx := c.Request.Context()
	var tracks []models.Track
	if storage.CacheGetJSON(ctx, storage.KeyTracksActive, &tracks) {
		c.JSON(http.StatusOK, tracks)
		return
	}

	if err := storage.DB.Where("is_active = ?", true).Order("name ASC").Find(&tracks).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.DBError("Could not load tracks"))
		return
	}
	storage.CacheSetJSON(ctx, storage.KeyTracksActive, tracks, storage.TTLCatalog)
	c.JSON(http.StatusOK, tracks)
}

// @Summary		Active games
// @Tags			catalog
// @Produce		json
// @Success		200	{array}		models.Game
// @Failure		500	{object}	response.ErrorResponse	"DB_ERROR"
// @Router			/api/games [get]
func ListGames(c *gin.Context) {
	ctx := c.Request.Context()
	var games []models.Game
	if storage.CacheGetJSON(ctx, storage.KeyGamesActive, &games) {
		c.JSON(http.StatusOK, games)
		return
	}

	if err := storage.DB.Where("is_active = ?", true).Order("name ASC").Find(&games).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.DBError("Could not load games"))
		return
	}
	storage.CacheSetJSON(ctx, storage.KeyGamesActive, games, storage.TTLCatalog)
	c.JSON(http.StatusOK, games)
}

type TrackRequest struct {
	Name        string `json:"name" binding:"required,min=2"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

// @Summary		Create track
// @Tags			admin
// @Accept			json
// @Produce		json
// @Security		BearerAuth
// @Param			body	body		TrackRequest	true	"Track"
// @Success		201		{object}	models.Track
// @Failure		400		{object}	response.ErrorResponse	"VALIDATION_ERROR or TRACK_EXISTS"
// @Failure		500		{object}	response.ErrorResponse	"DB_ERROR"
// @Router			/api/admin/tracks [post]
func CreateTrack(c *gin.Context) {
	var req TrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Validation(err))
		return
	}

	name := strings.TrimSpace(req.Name)
	var count int64
	storage.DB.Model(&models.Track{}).Where("name = ?", name).Count(&count)
	if count > 0 {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "TRACK_EXISTS",
			Message: "A track with this name already exists",
		})
		return
	}

	track := models.Track{Name: name, Description: req.Description, IsActive: true}
	if req.IsActive != nil {
		track.IsActive = *req.IsActive
	}
	if err := storage.DB.Create(&track).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.DBError("Could not create track"))
		return
	}

	storage.CacheDelete(c.Request.Context(), storage.KeyTracksActive)
	c.JSON(http.StatusCreated, track)
}

type UpdateTrackRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=2"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

// @Summary		Update track
// @Tags			admin
// @Accept			json
// @Produce		json
// @Security		BearerAuth
// @Param			id		path		int					true	"Track ID"
// @Param			body	body		UpdateTrackRequest	true	"Fields to change"
// @Success		200		{object}	models.Track
// @Failure		400		{object}	response.ErrorResponse	"VALIDATION_ERROR, INVALID_TRACK_ID"
// @Failure		404		{object}	response.ErrorResponse	"TRACK_NOT_FOUND"
// @Failure		500		{object}	response.ErrorResponse	"DB_ERROR"
// @Router			/api/admin/tracks/{id} [patch]
func UpdateTrack(c *gin.Context) {
	id, ok := pathID(c, "id", "INVALID_TRACK_ID")
	if !ok {
		return
	}
	var req UpdateTrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Validation(err))
		return
	}

	var track models.Track
	if !findOr(c, storage.DB, &track, http.StatusNotFound, response.ErrorResponse{
		Code:    "TRACK_NOT_FOUND",
		Message: "Track not found",
	}, id) {
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) > 0 {
		if err := storage.DB.Model(&track).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, response.DBError("Could not update track"))
			return
		}
		if err := storage.DB.First(&track, id).Error; err != nil {
			c.JSON(http.StatusInternalServerError, response.DBError("Could not reload track"))
			return
		}
	}

	storage.CacheDelete(c.Request.Context(), storage.KeyTracksActive)
	c.JSON(http.StatusOK, track)
}

// @Summary		All games
// @Description	Includes inactive games
// @Tags			admin
// @Produce		json
// @Security		BearerAuth
// @Success		200	{array}		models.Game
// @Failure		500	{object}	response.ErrorResponse	"DB_ERROR"
// @Router			/api/admin/games [get]
func AdminListGames(c *gin.Context) {
	var games []models.Game
	if err := storage.DB.Order("name ASC").Find(&games).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.DBError("Could not load games"))
		return
	}
	c.JSON(http.StatusOK, games)
}

type GameRequest struct {
	Name        string           `json:"name" binding:"required,min=2"`
	Description string           `json:"description"`
	Duration    int              `json:"duration" binding:"required,min=1"`
	Price       *decimal.Decimal `json:"price" binding:"required" swaggertype:"number"`
	MaxPlayers  int              `json:"max_players" binding:"required,min=1,max=4"`
	IsActive    *bool            `json:"is_active"`
}

// @Summary		Create game
// @Tags			admin
// @Accept			json
// @Produce		json
// @Security		BearerAuth
// @Param			body	body		GameRequest	true	"Game"
// @Success		201		{object}	models.Game
// @Failure		400		{object}	response.ErrorResponse	"VALIDATION_ERROR"
// @Failure		500		{object}	response.ErrorResponse	"DB_ERROR"
// @Router			/api/admin/games [post]
func CreateGame(c *gin.Context) {
	var req GameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Validation(err))
		return
	}
	if req.Price.IsNegative() {
		c.JSON(http.StatusBadRequest, response.Validation(errors.New("price must not be negative")))
		return
	}

	game := models.Game{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Duration:    req.Duration,
		Price:       *req.Price,
		MaxPlayers:  req.MaxPlayers,
		IsActive:    true,
	}
	if req.IsActive != nil {
		game.IsActive = *req.IsActive
	}
	if err := storage.DB.Create(&game).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.DBError("Could not create game"))
		return
	}

	storage.CacheDelete(c.Request.Context(), storage.KeyGamesActive)
	c.JSON(http.StatusCreated, game)
}

// @Summary		Game details
// @Tags			admin
// @Produce		json
// @Security		BearerAuth
// @Param			id	path		int	true	"Game ID"
// @Success		200	{object}	models.Game
// @Failure		400	{object}	response.ErrorResponse	"INVALID_GAME_ID"
// @Failure		404	{object}	response.ErrorResponse	"GAME_NOT_FOUND"
// @Router			/api/admin/games/{id} [get]
func AdminGetGame(c *gin.Context) {
	id, ok := pathID(c, "id", "INVALID_GAME_ID")
	if !ok {
		return
	}
	var game models.Game
	if !findOr(c, storage.DB, &game, http.StatusNotFound, response.ErrorResponse{
		Code:    "GAME_NOT_FOUND",
		Message: "Game not found",
	}, id) {
		return
	}
	c.JSON(http.StatusOK, game)
}

type UpdateGameRequest struct {
	Name        *string          `json:"name" binding:"omitempty,min=2"`
	Description *string          `json:"description"`
	Duration    *int             `json:"duration" binding:"omitempty,min=1"`
	Price       *decimal.Decimal `json:"price" swaggertype:"number"`
	MaxPlayers  *int             `json:"max_players" binding:"omitempty,min=1,max=4"`
	IsActive    *bool            `json:"is_active"`
}

// @Summary		Update game
// @Tags			admin
// @Accept			json
// @Produce		json
// @Security		BearerAuth
// @Param			id		path		int					true	"Game ID"
// @Param			body	body		UpdateGameRequest	true	"Fields to change"
// @Success		200		{object}	models.Game
// @Failure		400		{object}	response.ErrorResponse	"VALIDATION_ERROR, INVALID_GAME_ID"
// @Failure		404		{object}	response.ErrorResponse	"GAME_NOT_FOUND"
// @Failure		500		{object}	response.ErrorResponse	"DB_ERROR"
// @Router			/api/admin/games/{id} [patch]
func UpdateGame(c *gin.Context) {
	id, ok := pathID(c, "id", "INVALID_GAME_ID")
	if !ok {
		return
	}
	var req UpdateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Validation(err))
		return
	}
	if req.Price != nil && req.Price.IsNegative() {
		c.JSON(http.StatusBadRequest, response.Validation(errors.New("price must not be negative")))
		return
	}

	var game models.Game
	if !findOr(c, storage.DB, &game, http.StatusNotFound, response.ErrorResponse{
		Code:    "GAME_NOT_FOUND",
		Message: "Game not found",
	}, id) {
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Duration != nil {
		updates["duration"] = *req.Duration
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.MaxPlayers != nil {
		updates["max_players"] = *req.MaxPlayers
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) > 0 {
		if err := storage.DB.Model(&game).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, response.DBError("Could not update game"))
			return
		}
		if err := storage.DB.First(&game, id).Error; err != nil {
			c.JSON(http.StatusInternalServerError, response.DBError("Could not reload game"))
			return
		}
	}

	storage.CacheDelete(c.Request.Context(), storage.KeyGamesActive)
	c.JSON(http.StatusOK, game)
}

// @Summary		Delete game
// @Description	Refused while any booking references the game
// @Tags			admin
// @Produce		json
// @Security		BearerAuth
// @Param			id	path		int	true	"Game ID"
// @Success		200	{object}	response.SuccessResponse
// @Failure		400	{object}	response.ErrorResponse	"INVALID_GAME_ID or GAME_HAS_BOOKINGS"
// @Failure		404	{object}	response.ErrorResponse	"GAME_NOT_FOUND"
// @Failure		500	{object}	response.ErrorResponse	"DB_ERROR"
// @Router			/api/admin/games/{id} [delete]
func DeleteGame(c *gin.Context) {
	id, ok := pathID(c, "id", "INVALID_GAME_ID")
	if !ok {
		return
	}

	var game models.Game
	if err := storage.DB.First(&game, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, response.ErrorResponse{
				Code:    "GAME_NOT_FOUND",
				Message: "Game not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, response.DBError("Could not load game"))
		return
	}

	var bookings int64
	if err := storage.DB.Model(&models.Booking{}).Where("game_id = ?", id).Count(&bookings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.DBError("Could not check bookings"))
		return
	}
	if bookings > 0 {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "GAME_HAS_BOOKINGS",
			Message: "Game has bookings; deactivate it instead",
		})
		return
	}

	if err := storage.DB.Delete(&game).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.DBError("Could not delete game"))
		return
	}

	log.Info().Uint("game_id", id).Msg("game deleted")
	storage.CacheDelete(c.Request.Context(), storage.KeyGamesActive)
	c.JSON(http.StatusOK, response.SuccessResponse{Message: "Game deleted"})
}
