package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"rccafe/internal/models"
	"rccafe/internal/response"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterLoginRefresh(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodPost, "/auth/register", "", map[string]interface{}{
		"name": "Ada Lovelace", "email": "  Ada@Example.com ", "password": "secret123",
	})
	requireStatus(t, http.StatusCreated, w)

	var user models.User
	require.NoError(t, e.db.Where("email = ?", "ada@example.com").First(&user).Error, "email is stored normalized")
	assert.Equal(t, models.RoleCustomer, user.Role)

	w = e.do(http.MethodPost, "/auth/register", "", map[string]interface{}{
		"name": "Ada again", "email": "ada@example.com", "password": "secret123",
	})
	requireStatus(t, http.StatusBadRequest, w)
	assert.Equal(t, "EMAIL_EXISTS", errorCode(t, w))

	w = e.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "ada@example.com", "password": "wrong-pass"})
	requireStatus(t, http.StatusUnauthorized, w)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, w))

	w = e.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "ADA@example.com", "password": "secret123"})
	requireStatus(t, http.StatusOK, w)
	var tokens response.TokenResponse
	decode(t, w, &tokens)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.Equal(t, "CUSTOMER", tokens.Role)

	require.NoError(t, e.db.First(&user, user.ID).Error)
	assert.NotNil(t, user.LastLoginAt)

	w = e.do(http.MethodPost, "/auth/login", "", map[string]string{"email": " Ada@Example.COM  ", "password": "secret123"})
	requireStatus(t, http.StatusOK, w)

	w = e.do(http.MethodGet, "/api/user/profile", tokens.AccessToken, nil)
	requireStatus(t, http.StatusOK, w)

	w = e.do(http.MethodPost, "/auth/refresh", "", map[string]string{"refresh_token": tokens.RefreshToken})
	requireStatus(t, http.StatusOK, w)

	w = e.do(http.MethodPost, "/auth/refresh", "", map[string]string{"refresh_token": tokens.AccessToken})
	requireStatus(t, http.StatusUnauthorized, w)
	assert.Equal(t, "INVALID_REFRESH_TOKEN", errorCode(t, w), "access tokens are signed with another secret")
}

func TestRegisterValidation(t *testing.T) {
	e := newEnv(t)
	w := e.do(http.MethodPost, "/auth/register", "", map[string]string{"name": "Bo", "email": "not-an-email", "password": "123"})
	requireStatus(t, http.StatusBadRequest, w)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))

	for _, email := range []string{"not-an-email", "   ", " bo@ example.com"} {
		w = e.do(http.MethodPost, "/auth/register", "", map[string]string{"name": "Bo", "email": email, "password": "secret123"})
		requireStatus(t, http.StatusBadRequest, w)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w), email)

		w = e.do(http.MethodPost, "/auth/forgot-password", "", map[string]string{"email": email})
		requireStatus(t, http.StatusBadRequest, w)
	}
	var count int64
	require.NoError(t, e.db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	e := newEnv(t)
	w := e.do(http.MethodGet, "/api/bookings", "", nil)
	requireStatus(t, http.StatusUnauthorized, w)
	assert.Equal(t, "NO_AUTH_HEADER", errorCode(t, w))

	w = e.do(http.MethodGet, "/api/bookings", "garbage", nil)
	requireStatus(t, http.StatusUnauthorized, w)
	assert.Equal(t, "INVALID_TOKEN", errorCode(t, w))

	customer := e.user(models.RoleCustomer, "c@rccafe.test")
	w = e.do(http.MethodGet, "/api/admin/stats", e.token(customer), nil)
	requireStatus(t, http.StatusForbidden, w)

	staff := e.user(models.RoleStaff, "s@rccafe.test")
	w = e.do(http.MethodGet, "/api/admin/stats", e.token(staff), nil)
	requireStatus(t, http.StatusForbidden, w)

	admin := e.user(models.RoleAdmin, "a@rccafe.test")
	w = e.do(http.MethodGet, "/api/staff/stats", e.token(admin), nil)
	requireStatus(t, http.StatusOK, w)
}

func TestPasswordResetFlow(t *testing.T) {
	e := newEnv(t)
	user := e.user(models.RoleCustomer, "reset@rccafe.test")

	w := e.do(http.MethodPost, "/auth/forgot-password", "", map[string]string{"email": "nobody@rccafe.test"})
	requireStatus(t, http.StatusOK, w)

	w = e.do(http.MethodPost, "/auth/forgot-password", "", map[string]string{"email": user.Email})
	requireStatus(t, http.StatusOK, w)

	var token models.PasswordResetToken
	require.NoError(t, e.db.Where("email = ?", user.Email).First(&token).Error)
	assert.Len(t, token.Code, 6)

	w = e.do(http.MethodPost, "/auth/verify-reset-code", "", map[string]string{"email": user.Email, "code": "000000"})
	requireStatus(t, http.StatusBadRequest, w)
	assert.Equal(t, "INVALID_CODE", errorCode(t, w))

	w = e.do(http.MethodPost, "/auth/verify-reset-code", "", map[string]string{"email": "  " + user.Email + " ", "code": token.Code})
	requireStatus(t, http.StatusOK, w)

	reset := map[string]string{"email": user.Email, "code": token.Code, "new_password": "brand-new-pass"}
	w = e.do(http.MethodPost, "/auth/reset-password", "", reset)
	requireStatus(t, http.StatusOK, w)

	w = e.do(http.MethodPost, "/auth/reset-password", "", reset)
	requireStatus(t, http.StatusBadRequest, w)
	assert.Equal(t, "INVALID_CODE", errorCode(t, w), "a code resets the password only once")

	w = e.do(http.MethodPost, "/auth/login", "", map[string]string{"email": user.Email, "password": "brand-new-pass"})
	requireStatus(t, http.StatusOK, w)
}

func TestResetCodeExpires(t *testing.T) {
	e := newEnv(t)
	user := e.user(models.RoleCustomer, "late@rccafe.test")

	requireStatus(t, http.StatusOK, e.do(http.MethodPost, "/auth/forgot-password", "", map[string]string{"email": user.Email}))
	var token models.PasswordResetToken
	require.NoError(t, e.db.Where("email = ?", user.Email).First(&token).Error)

	e.clock.Advance(16 * time.Minute)
	w := e.do(http.MethodPost, "/auth/reset-password", "", map[string]string{
		"email": user.Email, "code": token.Code, "new_password": "whatever1",
	})
	requireStatus(t, http.StatusBadRequest, w)
	assert.Equal(t, "INVALID_CODE", errorCode(t, w))
}

func TestProfileUpdate(t *testing.T) {
	e := newEnv(t)
	user := e.user(models.RoleCustomer, "p@rccafe.test")
	tok := e.token(user)

	w := e.do(http.MethodPut, "/api/user/profile", tok, map[string]string{"name": "New Name", "phone": "+15550001"})
	requireStatus(t, http.StatusOK, w)
	var got models.User
	decode(t, w, &got)
	assert.Equal(t, "New Name", got.Name)
	require.NotNil(t, got.Phone)
	assert.Equal(t, "+15550001", *got.Phone)

	w = e.do(http.MethodPut, "/api/user/profile", tok, map[string]string{"name": "New Name", "email": "other@rccafe.test"})
	requireStatus(t, http.StatusBadRequest, w)
	assert.Equal(t, "EMAIL_CHANGE_NOT_ALLOWED", errorCode(t, w))
}
