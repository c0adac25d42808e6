// Package quota meters review consumption against per-plan monthly
// allowances. The counting period is the calendar month: counts reset lazily
// the first time a user is checked after the month (or year) rolls over, not
// by a background job.
package quota

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/minsukang/codementor/pkg/models"
	"gorm.io/gorm"
)

// Unlimited is the external sentinel for plans without a finite allowance.
const Unlimited = -1

// planLimits maps a plan to its monthly review allowance.
var planLimits = map[string]int{
	models.PlanFree: 3,
	models.PlanPro:  50,
	models.PlanTeam: Unlimited,
}

// LimitForPlan returns the monthly review allowance for a plan.
// Unknown plans fall back to the free allowance.
func LimitForPlan(plan string) int {
	if limit, ok := planLimits[plan]; ok {
		return limit
	}
	return planLimits[models.PlanFree]
}

// ReviewLimitResult is the admission decision for one user
type ReviewLimitResult struct {
	CanReview bool
	Remaining int
	Limit     int
	ResetAt   time.Time
}

// Service is the quota ledger
type Service struct {
	db *gorm.DB
}

// NewService creates a new quota ledger
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CheckReviewLimit decides whether a user may run another review. It never
// returns an error: a user that cannot be loaded is denied (fail closed).
// ResetAt always reports the first instant of the next calendar month; the
// authoritative reset trigger is the stored review_reset_at.
func (s *Service) CheckReviewLimit(ctx context.Context, userID string) ReviewLimitResult {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return ReviewLimitResult{CanReview: false, Remaining: 0, Limit: 0, ResetAt: time.Now().UTC()}
	}

	limit := LimitForPlan(user.Plan)
	now := time.Now().UTC()

	if monthRolledOver(user.ReviewResetAt, now) {
		err := s.db.WithContext(ctx).Model(&models.User{}).
			Where("id = ?", userID).
			Updates(map[string]any{"review_count": 0, "review_reset_at": now}).Error
		if err != nil {
			log.Printf("⚠️  Failed to reset review count for user %s: %v", userID, err)
		}

		return ReviewLimitResult{
			CanReview: true,
			Remaining: limit, // Unlimited stays -1
			Limit:     limit,
			ResetAt:   nextResetDate(now),
		}
	}

	remaining := Unlimited
	if limit != Unlimited {
		remaining = limit - user.ReviewCount
		if remaining < 0 {
			remaining = 0
		}
	}

	return ReviewLimitResult{
		CanReview: limit == Unlimited || user.ReviewCount < limit,
		Remaining: remaining,
		Limit:     limit,
		ResetAt:   nextResetDate(now),
	}
}

// IncrementReviewCount records one consumed review and returns the new count.
// The increment is a single SQL update so concurrent reviews cannot lose
// counts. An unknown user yields 0 without error: consumption recording is
// best-effort telemetry, never an admission decision.
func (s *Service) IncrementReviewCount(ctx context.Context, userID string) int {
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("review_count", gorm.Expr("review_count + 1"))
	if res.Error != nil || res.RowsAffected == 0 {
		return 0
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return 0
	}
	return user.ReviewCount
}

// UsageInfo shapes the usage block for GET /user.
func (s *Service) UsageInfo(ctx context.Context, user *models.User) models.UsageInfo {
	result := s.CheckReviewLimit(ctx, user.ID)
	return models.UsageInfo{
		ReviewCount: user.ReviewCount,
		Remaining:   result.Remaining,
		Limit:       result.Limit,
		ResetAt:     result.ResetAt.Format(time.RFC3339),
	}
}

// monthRolledOver reports whether now is in a later calendar month or year
// than the stored period start.
func monthRolledOver(resetAt, now time.Time) bool {
	return resetAt.Month() != now.Month() || resetAt.Year() != now.Year()
}

// nextResetDate returns the first instant of the next calendar month in UTC.
func nextResetDate(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, time.UTC)
}

// FormatRemainingReviews renders a remaining count for display.
func FormatRemainingReviews(remaining int) string {
	if remaining == Unlimited {
		return "무제한"
	}
	return fmt.Sprintf("%d회 남음", remaining)
}
