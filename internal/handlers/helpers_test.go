package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"rccafe/internal/auth"
	"rccafe/internal/clock"
	"rccafe/internal/models"
	"rccafe/internal/router"
	"rccafe/internal/testdb"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// venueNow is the fixed instant every handler test starts at.
var venueNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

type env struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
	clock  *clockwork.FakeClock
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testdb.Open(t)
	fake := clockwork.NewFakeClockAt(venueNow)
	clock.Set(fake)
	t.Cleanup(clock.Reset)
	return &env{t: t, db: db, router: router.Setup(), clock: fake}
}

func (e *env) user(role models.Role, email string) models.User {
	e.t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(e.t, err)
	u := models.User{Name: "User " + email, Email: email, PasswordHash: string(hash), Role: role}
	require.NoError(e.t, e.db.Create(&u).Error)
	return u
}

func (e *env) token(u models.User) string {
	e.t.Helper()
	access, _, err := auth.GeneratePair(u.ID, u.Role)
	require.NoError(e.t, err)
	return access
}

func (e *env) track(name string) models.Track {
	e.t.Helper()
	tr := models.Track{Name: name, IsActive: true}
	require.NoError(e.t, e.db.Create(&tr).Error)
	return tr
}

func (e *env) game(name string, minutes int, price string, maxPlayers int) models.Game {
	e.t.Helper()
	g := models.Game{
		Name:       name,
		Duration:   minutes,
		Price:      decimal.RequireFromString(price),
		MaxPlayers: maxPlayers,
		IsActive:   true,
	}
	require.NoError(e.t, e.db.Create(&g).Error)
	return g
}

// do sends a JSON request through the router. body may be nil; token may be empty.
func (e *env) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	decode(t, w, &body)
	return body.Code
}

func requireStatus(t *testing.T, want int, w *httptest.ResponseRecorder) {
	t.Helper()
	require.Equal(t, want, w.Code, w.Body.String())
}
