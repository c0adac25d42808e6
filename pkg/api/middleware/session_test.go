package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/minsukang/codementor/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sessionSecret = "middleware-test-secret"

func runSession(t *testing.T, mutate func(*http.Request)) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/user", nil)
	mutate(req)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	reached := false
	handler := SessionMiddleware(sessionSecret)(func(c echo.Context) error {
		reached = true
		assert.NotEmpty(t, c.Get("user_id"))
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	return rec, reached
}

func TestSessionMiddleware_Cookie(t *testing.T) {
	token, err := auth.GenerateToken("user-1", "dev@example.com", sessionSecret, time.Hour)
	require.NoError(t, err)

	rec, reached := runSession(t, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	})
	assert.True(t, reached)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSessionMiddleware_BearerHeader(t *testing.T) {
	token, err := auth.GenerateToken("user-1", "dev@example.com", sessionSecret, time.Hour)
	require.NoError(t, err)

	rec, reached := runSession(t, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	})
	assert.True(t, reached)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSessionMiddleware_MissingToken(t *testing.T) {
	rec, reached := runSession(t, func(req *http.Request) {})
	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionMiddleware_BadToken(t *testing.T) {
	rec, reached := runSession(t, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: "garbage"})
	})
	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionMiddleware_ExpiredToken(t *testing.T) {
	token, err := auth.GenerateToken("user-1", "dev@example.com", sessionSecret, -time.Minute)
	require.NoError(t, err)

	rec, reached := runSession(t, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	})
	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionMiddleware_BadBearerFormat(t *testing.T) {
	rec, reached := runSession(t, func(req *http.Request) {
		req.Header.Set("Authorization", "Token abc")
	})
	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
