package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rccafe/internal/config"
	"rccafe/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("unit-test-secret")

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(42, models.RoleStaff, time.Minute, secret)
	require.NoError(t, err)

	claims, err := ParseToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, models.RoleStaff, claims.Role)
}

func TestParseTokenRejects(t *testing.T) {
	expired, err := GenerateToken(1, models.RoleCustomer, -time.Minute, secret)
	require.NoError(t, err)
	_, err = ParseToken(expired, secret)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, err := GenerateToken(1, models.RoleCustomer, time.Minute, []byte("someone-else"))
	require.NoError(t, err)
	_, err = ParseToken(other, secret)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Minute).Unix(),
	}).SignedString(secret)
	require.NoError(t, err)
	_, err = ParseToken(noUser, secret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenDefaultsRole(t *testing.T) {
	legacy, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 7,
		"exp":     time.Now().Add(time.Minute).Unix(),
	}).SignedString(secret)
	require.NoError(t, err)

	claims, err := ParseToken(legacy, secret)
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, claims.Role)
}

func TestHasRole(t *testing.T) {
	assert.True(t, HasRole(models.RoleStaff, models.RoleStaff))
	assert.True(t, HasRole(models.RoleAdmin, models.RoleStaff))
	assert.True(t, HasRole(models.RoleAdmin, models.RoleAdmin))
	assert.False(t, HasRole(models.RoleStaff, models.RoleAdmin))
	assert.False(t, HasRole(models.RoleCustomer, models.RoleStaff))
	assert.False(t, HasRole(models.RoleCustomer))
}

func TestMiddlewareChain(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := *config.Default()
	cfg.JWT.AccessSecret = secret
	prev := config.Get()
	config.Set(&cfg)
	t.Cleanup(func() { config.Set(prev) })

	r := gin.New()
	r.GET("/staff", AuthMiddleware(), RequireRoles(models.RoleStaff), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.GetUint(ctxUserID)})
	})
	r.GET("/maybe", OptionalAuth(), func(c *gin.Context) {
		_, ok := Role(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": ok})
	})

	call := func(path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	staff, err := GenerateToken(3, models.RoleStaff, time.Minute, secret)
	require.NoError(t, err)
	customer, err := GenerateToken(4, models.RoleCustomer, time.Minute, secret)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, call("/staff", "").Code)
	assert.Equal(t, http.StatusUnauthorized, call("/staff", "nope").Code)
	assert.Equal(t, http.StatusForbidden, call("/staff", customer).Code)

	w := call("/staff", staff)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":3}`, w.Body.String())

	assert.JSONEq(t, `{"authenticated":false}`, call("/maybe", "nope").Body.String())
	assert.JSONEq(t, `{"authenticated":true}`, call("/maybe", customer).Body.String())
}
