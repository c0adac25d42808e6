// Package oauth implements the GitHub OAuth login flow: authorization URL,
// code exchange, profile fetch, and account upsert.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/minsukang/codementor/pkg/models"
	"gorm.io/gorm"
)

var (
	// ErrInvalidCode is returned when the authorization code is invalid
	ErrInvalidCode = errors.New("invalid authorization code")
	// ErrProviderAPIError is returned when the GitHub API returns an error
	ErrProviderAPIError = errors.New("GitHub API error")
)

// UserInfo holds the GitHub profile fields we keep
type UserInfo struct {
	GitHubID  string
	Username  string
	Email     string
	AvatarURL string
}

// Config holds GitHub OAuth credentials
type Config struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

// Service handles GitHub OAuth operations
type Service struct {
	db     *gorm.DB
	config *Config
	client *http.Client

	// Overridable in tests; production values point at github.com.
	authorizeURL string
	tokenURL     string
	apiBaseURL   string
}

// NewService creates a new OAuth service
func NewService(db *gorm.DB, cfg *Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		authorizeURL: "https://github.com/login/oauth/authorize",
		tokenURL:     "https://github.com/login/oauth/access_token",
		apiBaseURL:   "https://api.github.com",
	}
}

// AuthURL returns the GitHub authorization URL to redirect the user to.
func (s *Service) AuthURL(state string) string {
	params := url.Values{}
	params.Add("client_id", s.config.ClientID)
	params.Add("redirect_uri", s.config.CallbackURL)
	params.Add("scope", "read:user user:email")
	params.Add("state", state)
	return s.authorizeURL + "?" + params.Encode()
}

// HandleCallback exchanges the authorization code for a token and fetches the
// user's GitHub profile.
func (s *Service) HandleCallback(ctx context.Context, code string) (*UserInfo, error) {
	data := url.Values{}
	data.Set("client_id", s.config.ClientID)
	data.Set("client_secret", s.config.ClientSecret)
	data.Set("code", code)
	data.Set("redirect_uri", s.config.CallbackURL)

	req, err := http.NewRequestWithContext(ctx, "POST", s.tokenURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.URL.RawQuery = data.Encode()

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrInvalidCode
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return nil, ErrInvalidCode
	}

	req, err = http.NewRequestWithContext(ctx, "GET", s.apiBaseURL+"/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tokenResp.AccessToken)

	resp, err = s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d: %s", ErrProviderAPIError, resp.StatusCode, string(body))
	}

	var githubUser struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&githubUser); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}

	// If the email is not public, fetch it from the emails endpoint
	email := githubUser.Email
	if email == "" {
		email, err = s.primaryEmail(ctx, tokenResp.AccessToken)
		if err != nil {
			return nil, err
		}
	}

	return &UserInfo{
		GitHubID:  fmt.Sprintf("%d", githubUser.ID),
		Username:  githubUser.Login,
		Email:     email,
		AvatarURL: githubUser.AvatarURL,
	}, nil
}

func (s *Service) primaryEmail(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", s.apiBaseURL+"/user/emails", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to get emails: %w", err)
	}
	defer resp.Body.Close()

	var emails []struct {
		Email   string `json:"email"`
		Primary bool   `json:"primary"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&emails); err != nil {
		return "", fmt.Errorf("failed to decode emails: %w", err)
	}

	for _, e := range emails {
		if e.Primary {
			return e.Email, nil
		}
	}
	if len(emails) > 0 {
		return emails[0].Email, nil
	}
	return "", errors.New("no email found for GitHub user")
}

// UpsertUser finds the account for a GitHub identity, creating it on first
// login. An existing account with the same email is linked rather than
// duplicated. Returns the user and whether it was newly created.
func (s *Service) UpsertUser(ctx context.Context, info *UserInfo) (*models.User, bool, error) {
	var user models.User

	err := s.db.WithContext(ctx).First(&user, "github_id = ?", info.GitHubID).Error
	if err == nil {
		updates := map[string]any{
			"github_username": info.Username,
			"avatar_url":      info.AvatarURL,
		}
		if err := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
			return nil, false, fmt.Errorf("failed to update user: %w", err)
		}
		return &user, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("failed to query user: %w", err)
	}

	err = s.db.WithContext(ctx).First(&user, "email = ?", info.Email).Error
	if err == nil {
		// Link the GitHub identity to the existing account
		updates := map[string]any{
			"github_id":       info.GitHubID,
			"github_username": info.Username,
			"avatar_url":      info.AvatarURL,
		}
		if err := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
			return nil, false, fmt.Errorf("failed to link GitHub account: %w", err)
		}
		return &user, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("failed to query user by email: %w", err)
	}

	newUser := models.User{
		ID:              uuid.NewString(),
		Email:           info.Email,
		GitHubID:        info.GitHubID,
		GitHubUsername:  info.Username,
		AvatarURL:       info.AvatarURL,
		Plan:            models.PlanFree,
		ReviewCount:     0,
		ReviewResetAt:   time.Now().UTC(),
		DifficultyLevel: models.DifficultyBeginner,
	}
	if err := s.db.WithContext(ctx).Create(&newUser).Error; err != nil {
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}
	return &newUser, true, nil
}
