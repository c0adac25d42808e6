package models

import "time"

// Review is one reviewed submission. Immutable once created.
type Review struct {
	ID           string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID       string    `gorm:"type:uuid;index;not null" json:"user_id"`
	RepoFullName string    `json:"repo_full_name,omitempty"`
	PRNumber     *int      `gorm:"column:pr_number" json:"pr_number,omitempty"`
	FilePath     string    `json:"file_path,omitempty"`
	OriginalCode string    `gorm:"type:text;not null" json:"original_code"`
	ReviewResult string    `gorm:"type:text" json:"-"` // serialized review.Result
	Difficulty   string    `json:"difficulty"`
	Language     string    `json:"language,omitempty"`
	IssuesFound  int       `json:"issues_found"`
	CreatedAt    time.Time `json:"created_at"`
}

// LearningLog records one issue surfaced to a user, for later study.
// Append-only; the resolved flag is flipped elsewhere.
type LearningLog struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string    `gorm:"type:uuid;index;not null" json:"user_id"`
	ReviewID    string    `gorm:"type:uuid;index;not null" json:"review_id"`
	Category    string    `json:"category"`
	Pattern     string    `json:"pattern"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	IsResolved  bool      `gorm:"default:false" json:"is_resolved"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateReviewRequest is the POST /reviews body
type CreateReviewRequest struct {
	Code         string `json:"code"`
	Language     string `json:"language,omitempty"`
	RepoFullName string `json:"repoFullName,omitempty"`
	PRNumber     *int   `json:"prNumber,omitempty"`
	FilePath     string `json:"filePath,omitempty"`
}

// ReviewListItem is one row in GET /reviews history
type ReviewListItem struct {
	ID           string    `json:"id"`
	RepoFullName string    `json:"repoFullName,omitempty"`
	FilePath     string    `json:"filePath,omitempty"`
	Language     string    `json:"language,omitempty"`
	IssuesFound  int       `json:"issuesFound"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ReviewListResponse wraps the history rows
type ReviewListResponse struct {
	Reviews []ReviewListItem `json:"reviews"`
}
