package handlers_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"rccafe/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicCatalogListsActiveOnly(t *testing.T) {
	e := newEnv(t)
	e.track("Rock Crawl")
	closed := e.track("Asphalt")
	require.NoError(t, e.db.Model(&closed).Update("is_active", false).Error)
	e.game("Monster Trucks", 30, "8", 2)
	e.game("Grand Prix", 60, "12.50", 4)

	w := e.do(http.MethodGet, "/api/tracks", "", nil)
	requireStatus(t, http.StatusOK, w)
	var tracks []models.Track
	decode(t, w, &tracks)
	require.Len(t, tracks, 1)
	assert.Equal(t, "Rock Crawl", tracks[0].Name)

	w = e.do(http.MethodGet, "/api/games", "", nil)
	requireStatus(t, http.StatusOK, w)
	var games []models.Game
	decode(t, w, &games)
	require.Len(t, games, 2)
	assert.Equal(t, "Grand Prix", games[0].Name, "ordered by name")
}

func TestAdminTracks(t *testing.T) {
	e := newEnv(t)
	tok := e.token(e.user(models.RoleAdmin, "admin@rccafe.test"))

	w := e.do(http.MethodPost, "/api/admin/tracks", tok, map[string]interface{}{"name": "Drift Pad", "is_active": false})
	requireStatus(t, http.StatusCreated, w)
	var track models.Track
	decode(t, w, &track)
	assert.False(t, track.IsActive)

	w = e.do(http.MethodPost, "/api/admin/tracks", tok, map[string]string{"name": "Drift Pad"})
	requireStatus(t, http.StatusBadRequest, w)
	assert.Equal(t, "TRACK_EXISTS", errorCode(t, w))

	w = e.do(http.MethodPatch, fmt.Sprintf("/api/admin/tracks/%d", track.ID), tok, map[string]interface{}{"is_active": true, "description": "Polished concrete"})
	requireStatus(t, http.StatusOK, w)
	decode(t, w, &track)
	assert.True(t, track.IsActive)
	assert.Equal(t, "Polished concrete", track.Description)

	w = e.do(http.MethodPatch, "/api/admin/tracks/404", tok, map[string]interface{}{"is_active": true})
	requireStatus(t, http.StatusNotFound, w)
	assert.Equal(t, "TRACK_NOT_FOUND", errorCode(t, w))
}

func TestAdminGames(t *testing.T) {
	e := newEnv(t)
	tok := e.token(e.user(models.RoleAdmin, "admin@rccafe.test"))

	w := e.do(http.MethodPost, "/api/admin/games", tok, map[string]interface{}{
		"name": "Night Race", "duration": 45, "price": 15, "max_players": 5,
	})
	requireStatus(t, http.StatusBadRequest, w)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))

	w = e.do(http.MethodPost, "/api/admin/games", tok, map[string]interface{}{
		"name": "Night Race", "duration": 45, "price": -1, "max_players": 2,
	})
	requireStatus(t, http.StatusBadRequest, w)

	w = e.do(http.MethodPost, "/api/admin/games", tok, map[string]interface{}{
		"name": "Night Race", "duration": 45, "price": 15, "max_players": 2,
	})
	requireStatus(t, http.StatusCreated, w)
	var game models.Game
	decode(t, w, &game)
	assert.True(t, game.IsActive)
	path := fmt.Sprintf("/api/admin/games/%d", game.ID)

	w = e.do(http.MethodPatch, path, tok, map[string]interface{}{"price": "17.25", "is_active": false})
	requireStatus(t, http.StatusOK, w)
	decode(t, w, &game)
	assert.Equal(t, "17.25", game.Price.String())
	assert.False(t, game.IsActive)

	w = e.do(http.MethodGet, "/api/admin/games", tok, nil)
	requireStatus(t, http.StatusOK, w)
	var all []models.Game
	decode(t, w, &all)
	assert.Len(t, all, 1, "admin list includes inactive games")

	requireStatus(t, http.StatusOK, e.do(http.MethodDelete, path, tok, nil))
	w = e.do(http.MethodGet, path, tok, nil)
	requireStatus(t, http.StatusNotFound, w)
	assert.Equal(t, "GAME_NOT_FOUND", errorCode(t, w))
}

func TestDeleteGameWithBookings(t *testing.T) {
	e := newEnv(t)
	tok := e.token(e.user(models.RoleAdmin, "admin@rccafe.test"))
	customer := e.user(models.RoleCustomer, "c@rccafe.test")
	game := e.game("Grand Prix", 60, "10", 4)
	require.NotNil(t, e.book(e.token(customer), game, venueNow.Add(time.Hour), 1))

	w := e.do(http.MethodDelete, fmt.Sprintf("/api/admin/games/%d", game.ID), tok, nil)
	requireStatus(t, http.StatusBadRequest, w)
	assert.Equal(t, "GAME_HAS_BOOKINGS", errorCode(t, w))
}
