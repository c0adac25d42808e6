package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/minsukang/codementor/pkg/auth"
	"github.com/minsukang/codementor/pkg/metrics"
	"github.com/minsukang/codementor/pkg/oauth"
)

const (
	stateCookieName = "cm_oauth_state"
	nextCookieName  = "cm_auth_next"
)

// AuthHandler handles the GitHub login flow
type AuthHandler struct {
	oauth       *oauth.Service
	metrics     *metrics.Metrics
	secret      string
	sessionTTL  time.Duration
	frontendURL string
	secureCooks bool
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(oauthService *oauth.Service, m *metrics.Metrics, secret string, sessionTTL time.Duration, frontendURL string, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		oauth:       oauthService,
		metrics:     m,
		secret:      secret,
		sessionTTL:  sessionTTL,
		frontendURL: frontendURL,
		secureCooks: secureCookies,
	}
}

// GithubLogin redirects the browser to GitHub's authorization page
// GET /auth/github
func (h *AuthHandler) GithubLogin(c echo.Context) error {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return c.Redirect(http.StatusFound, h.frontendURL+"/login?error=auth_failed")
	}
	state := hex.EncodeToString(buf)

	c.SetCookie(&http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.secureCooks,
		SameSite: http.SameSiteLaxMode,
	})

	// Post-login destination, restricted to local paths so the callback can
	// never be turned into an open redirect.
	next := c.QueryParam("next")
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		next = "/dashboard"
	}
	c.SetCookie(&http.Cookie{
		Name:     nextCookieName,
		Value:    next,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.secureCooks,
		SameSite: http.SameSiteLaxMode,
	})

	return c.Redirect(http.StatusFound, h.oauth.AuthURL(state))
}

// Callback completes the GitHub login: verifies state, exchanges the code,
// upserts the account, and sets the session cookie. Any failure lands the
// user back on the login page rather than an error body.
// GET /auth/callback
func (h *AuthHandler) Callback(c echo.Context) error {
	failURL := h.frontendURL + "/login?error=auth_failed"

	state := c.QueryParam("state")
	stateCookie, err := c.Cookie(stateCookieName)
	if err != nil || state == "" || stateCookie.Value != state {
		log.Printf("⚠️  OAuth callback with bad state from %s", c.RealIP())
		return c.Redirect(http.StatusFound, failURL)
	}

	code := c.QueryParam("code")
	if code == "" {
		return c.Redirect(http.StatusFound, failURL)
	}

	info, err := h.oauth.HandleCallback(c.Request().Context(), code)
	if err != nil {
		log.Printf("⚠️  GitHub code exchange failed: %v", err)
		return c.Redirect(http.StatusFound, failURL)
	}

	user, created, err := h.oauth.UpsertUser(c.Request().Context(), info)
	if err != nil {
		log.Printf("⚠️  Failed to upsert user for GitHub id %s: %v", info.GitHubID, err)
		return c.Redirect(http.StatusFound, failURL)
	}
	if created && h.metrics != nil {
		h.metrics.RecordUserRegistered()
	}

	token, err := auth.GenerateToken(user.ID, user.Email, h.secret, h.sessionTTL)
	if err != nil {
		log.Printf("⚠️  Failed to sign session token: %v", err)
		return c.Redirect(http.StatusFound, failURL)
	}

	c.SetCookie(&http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCooks,
		SameSite: http.SameSiteLaxMode,
	})

	next := "/dashboard"
	if nextCookie, err := c.Cookie(nextCookieName); err == nil && strings.HasPrefix(nextCookie.Value, "/") && !strings.HasPrefix(nextCookie.Value, "//") {
		next = nextCookie.Value
	}

	// Clear the one-shot flow cookies
	for _, name := range []string{stateCookieName, nextCookieName} {
		c.SetCookie(&http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1})
	}

	return c.Redirect(http.StatusFound, h.frontendURL+next)
}

// Logout clears the session cookie
// POST /auth/logout
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCooks,
		SameSite: http.SameSiteLaxMode,
	})
	return c.NoContent(http.StatusNoContent)
}
