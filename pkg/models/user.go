package models

import "time"

// Subscription plans
const (
	PlanFree = "free"
	PlanPro  = "pro"
	PlanTeam = "team"
)

// Difficulty levels for review explanations
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// User represents an account created on first GitHub login
type User struct {
	ID                string    `gorm:"primaryKey;type:uuid" json:"id"`
	Email             string    `gorm:"uniqueIndex;not null" json:"email"`
	GitHubID          string    `gorm:"column:github_id;index" json:"github_id"`
	GitHubUsername    string    `gorm:"column:github_username" json:"github_username"`
	AvatarURL         string    `json:"avatar_url,omitempty"`
	Plan              string    `gorm:"default:free" json:"plan"`
	ReviewCount       int       `gorm:"default:0" json:"review_count"`
	ReviewResetAt     time.Time `json:"review_reset_at"`
	DifficultyLevel   string    `gorm:"default:beginner" json:"difficulty_level"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// UserProfile is the profile block returned by GET /user
type UserProfile struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	GitHubUsername  string `json:"github_username"`
	AvatarURL       string `json:"avatar_url,omitempty"`
	Plan            string `json:"plan"`
	DifficultyLevel string `json:"difficulty_level"`
	CreatedAt       string `json:"created_at"`
}

// UsageInfo is the usage block returned by GET /user
type UsageInfo struct {
	ReviewCount int    `json:"reviewCount"`
	Remaining   int    `json:"remaining"`
	Limit       int    `json:"limit"`
	ResetAt     string `json:"resetAt"`
}

// UserResponse wraps profile and usage for GET /user
type UserResponse struct {
	User  UserProfile `json:"user"`
	Usage UsageInfo   `json:"usage"`
}

// UpdateUserRequest represents a PATCH /user body
type UpdateUserRequest struct {
	DifficultyLevel string `json:"difficulty_level" validate:"required,oneof=beginner intermediate advanced"`
}

// UpdatedUser is the user block returned by PATCH /user
type UpdatedUser struct {
	ID              string `json:"id"`
	DifficultyLevel string `json:"difficulty_level"`
}

// UpdateUserResponse wraps the changed fields for PATCH /user
type UpdateUserResponse struct {
	User UpdatedUser `json:"user"`
}
