// Package review orchestrates code review generation: admission, AI
// invocation, parsing, persistence, and quota bookkeeping.
package review

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minsukang/codementor/pkg/apperr"
	"github.com/minsukang/codementor/pkg/cache"
	"github.com/minsukang/codementor/pkg/models"
	"github.com/minsukang/codementor/pkg/quota"
	"gorm.io/gorm"
)

const historyCacheTTL = 2 * time.Minute

// Completer is the LLM surface the orchestrator depends on.
type Completer interface {
	Complete(ctx context.Context, prompt string, systemPrompt ...string) (string, error)
}

// CacheRecorder abstracts cache hit/miss metrics for the history read path.
type CacheRecorder interface {
	RecordCacheHit()
	RecordCacheMiss()
}

// QuotaExceededError is returned when the ledger denies admission. It is a
// distinct shape so the handler can answer 429 with the reset timestamp
// rather than a generic failure.
type QuotaExceededError struct {
	ResetAt time.Time
}

func (e *QuotaExceededError) Error() string {
	return "review limit reached"
}

// CreateReviewResponse is the POST /reviews success body
type CreateReviewResponse struct {
	ID               string  `json:"id"`
	Issues           []Issue `json:"issues"`
	Summary          Summary `json:"summary"`
	RemainingReviews int     `json:"remainingReviews"`
}

// Service is the review request orchestrator
type Service struct {
	db      *gorm.DB
	ai      Completer
	ledger  *quota.Service
	cache   *cache.Client
	metrics CacheRecorder
}

// NewService creates a new review service
func NewService(db *gorm.DB, ai Completer, ledger *quota.Service, cacheClient *cache.Client) *Service {
	return &Service{db: db, ai: ai, ledger: ledger, cache: cacheClient}
}

// SetCacheRecorder sets the recorder for history cache hits and misses.
func (s *Service) SetCacheRecorder(m CacheRecorder) {
	s.metrics = m
}

// Generate runs one review end to end. Nothing is persisted and nothing is
// charged unless the AI call and parsing both succeed; the save and the
// consumption record themselves are best-effort and never fail the response.
func (s *Service) Generate(ctx context.Context, user *models.User, req models.CreateReviewRequest) (*CreateReviewResponse, error) {
	limit := s.ledger.CheckReviewLimit(ctx, user.ID)
	if !limit.CanReview {
		return nil, &QuotaExceededError{ResetAt: limit.ResetAt}
	}

	if strings.TrimSpace(req.Code) == "" {
		return nil, apperr.Validation("Code is required")
	}

	language := req.Language
	if language == "" {
		if detected := DetectLanguage(req.Code); detected != LanguageUnknown {
			language = detected
		}
	}

	text, err := s.ai.Complete(ctx, UserPrompt(req.Code, language), SystemPrompt(user.DifficultyLevel))
	if err != nil {
		return nil, apperr.AI(apperr.KindMalformed, "AI 응답 형식이 올바르지 않습니다", err.Error())
	}

	result, err := ParseResponse(text, req.Code)
	if err != nil {
		return nil, err
	}

	reviewID := s.save(ctx, user, req, language, result)

	s.ledger.IncrementReviewCount(ctx, user.ID)
	updated := s.ledger.CheckReviewLimit(ctx, user.ID)

	return &CreateReviewResponse{
		ID:               reviewID,
		Issues:           result.Issues,
		Summary:          result.Summary,
		RemainingReviews: updated.Remaining,
	}, nil
}

// save persists the review and one learning log per issue. Failures are
// logged and swallowed: the user still gets the generated review.
func (s *Service) save(ctx context.Context, user *models.User, req models.CreateReviewRequest, language string, result *Result) string {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		log.Printf("⚠️  Failed to serialize review result: %v", err)
		return ""
	}

	rec := &models.Review{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		RepoFullName: req.RepoFullName,
		PRNumber:     req.PRNumber,
		FilePath:     req.FilePath,
		OriginalCode: req.Code,
		ReviewResult: string(resultJSON),
		Difficulty:   user.DifficultyLevel,
		Language:     language,
		IssuesFound:  len(result.Issues),
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		log.Printf("⚠️  Failed to save review for user %s: %v", user.ID, err)
		return ""
	}

	if len(result.Issues) > 0 {
		logs := make([]models.LearningLog, 0, len(result.Issues))
		for _, issue := range result.Issues {
			logs = append(logs, models.LearningLog{
				ID:          uuid.NewString(),
				UserID:      user.ID,
				ReviewID:    rec.ID,
				Category:    issue.Category,
				Pattern:     issue.Title,
				Description: issue.Reason,
			})
		}
		if err := s.db.WithContext(ctx).Create(&logs).Error; err != nil {
			log.Printf("⚠️  Failed to save learning logs for review %s: %v", rec.ID, err)
		}
	}

	if err := s.cache.DeletePattern(ctx, historyCachePattern(user.ID)); err != nil {
		log.Printf("⚠️  Failed to invalidate history cache for user %s: %v", user.ID, err)
	}

	return rec.ID
}

// History returns a page of the user's past reviews, newest first.
func (s *Service) History(ctx context.Context, userID string, limit, offset int) ([]models.ReviewListItem, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	key := historyCacheKey(userID, limit, offset)
	if cached, err := s.cache.Get(ctx, key); err == nil {
		var items []models.ReviewListItem
		if err := json.Unmarshal([]byte(cached), &items); err == nil {
			if s.metrics != nil {
				s.metrics.RecordCacheHit()
			}
			return items, nil
		}
	}
	if s.metrics != nil && s.cache != nil {
		s.metrics.RecordCacheMiss()
	}

	var reviews []models.Review
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reviews: %w", err)
	}

	items := make([]models.ReviewListItem, 0, len(reviews))
	for _, r := range reviews {
		items = append(items, models.ReviewListItem{
			ID:           r.ID,
			RepoFullName: r.RepoFullName,
			FilePath:     r.FilePath,
			Language:     r.Language,
			IssuesFound:  r.IssuesFound,
			CreatedAt:    r.CreatedAt,
		})
	}

	if encoded, err := json.Marshal(items); err == nil {
		if err := s.cache.Set(ctx, key, encoded, historyCacheTTL); err != nil {
			log.Printf("⚠️  Failed to cache review history for user %s: %v", userID, err)
		}
	}

	return items, nil
}

func historyCacheKey(userID string, limit, offset int) string {
	return fmt.Sprintf("reviews:user:%s:%d:%d", userID, limit, offset)
}

func historyCachePattern(userID string) string {
	return fmt.Sprintf("reviews:user:%s:*", userID)
}
