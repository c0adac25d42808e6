package review

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/minsukang/codementor/pkg/apperr"
	"github.com/minsukang/codementor/pkg/cache"
	"github.com/minsukang/codementor/pkg/models"
	"github.com/minsukang/codementor/pkg/quota"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const validResponse = `{"issues":[{"severity":"warning","line":2,"title":"var used","problem":"p","reason":"prefer const","solution":"s","category":"style"}],"summary":{"totalIssues":1,"byCategory":{"style":1},"bySeverity":{"warning":1}}}`

type fakeCompleter struct {
	response     string
	err          error
	lastPrompt   string
	systemPrompt string
	calls        int
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string, systemPrompt ...string) (string, error) {
	f.calls++
	f.lastPrompt = prompt
	if len(systemPrompt) > 0 {
		f.systemPrompt = systemPrompt[0]
	}
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func newServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Review{}, &models.LearningLog{}))
	return db
}

func seedReviewUser(t *testing.T, db *gorm.DB, plan string, count int) *models.User {
	t.Helper()
	user := &models.User{
		ID:              uuid.NewString(),
		Email:           gofakeit.Email(),
		GitHubUsername:  gofakeit.Username(),
		Plan:            plan,
		ReviewCount:     count,
		ReviewResetAt:   time.Now().UTC(),
		DifficultyLevel: models.DifficultyBeginner,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestGenerate_Success(t *testing.T) {
	db := newServiceTestDB(t)
	user := seedReviewUser(t, db, models.PlanFree, 0)
	ai := &fakeCompleter{response: validResponse}
	svc := NewService(db, ai, quota.NewService(db), nil)

	resp, err := svc.Generate(context.Background(), user, models.CreateReviewRequest{
		Code:     "var x = 1",
		Language: "javascript",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.ID)
	require.Len(t, resp.Issues, 1)
	assert.Equal(t, "var used", resp.Issues[0].Title)
	assert.Equal(t, 1, resp.Summary.TotalIssues)
	assert.Equal(t, 2, resp.RemainingReviews)

	var saved models.Review
	require.NoError(t, db.First(&saved, "id = ?", resp.ID).Error)
	assert.Equal(t, user.ID, saved.UserID)
	assert.Equal(t, "javascript", saved.Language)
	assert.Equal(t, 1, saved.IssuesFound)

	var stored Result
	require.NoError(t, json.Unmarshal([]byte(saved.ReviewResult), &stored))
	assert.Equal(t, resp.Issues, stored.Issues)

	var logs []models.LearningLog
	require.NoError(t, db.Find(&logs, "review_id = ?", resp.ID).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, "style", logs[0].Category)
	assert.Equal(t, "var used", logs[0].Pattern)
}

func TestGenerate_QuotaExceeded(t *testing.T) {
	db := newServiceTestDB(t)
	user := seedReviewUser(t, db, models.PlanFree, 3)
	ai := &fakeCompleter{response: validResponse}
	svc := NewService(db, ai, quota.NewService(db), nil)

	_, err := svc.Generate(context.Background(), user, models.CreateReviewRequest{Code: "var x = 1"})
	require.Error(t, err)

	var quotaErr *QuotaExceededError
	require.ErrorAs(t, err, &quotaErr)
	assert.False(t, quotaErr.ResetAt.IsZero())
	assert.Zero(t, ai.calls, "AI must not be called when admission is denied")
}

func TestGenerate_EmptyCode(t *testing.T) {
	db := newServiceTestDB(t)
	user := seedReviewUser(t, db, models.PlanFree, 0)
	ai := &fakeCompleter{response: validResponse}
	svc := NewService(db, ai, quota.NewService(db), nil)

	_, err := svc.Generate(context.Background(), user, models.CreateReviewRequest{Code: "   "})
	require.Error(t, err)

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.Status)
	assert.Zero(t, ai.calls)
}

func TestGenerate_AIFailureNotCharged(t *testing.T) {
	db := newServiceTestDB(t)
	user := seedReviewUser(t, db, models.PlanFree, 1)
	ai := &fakeCompleter{err: errors.New("upstream timeout")}
	svc := NewService(db, ai, quota.NewService(db), nil)

	_, err := svc.Generate(context.Background(), user, models.CreateReviewRequest{Code: "var x = 1"})
	require.Error(t, err)

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, "id = ?", user.ID).Error)
	assert.Equal(t, 1, reloaded.ReviewCount, "a failed review must not consume quota")

	var count int64
	require.NoError(t, db.Model(&models.Review{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGenerate_ParseFailureNotCharged(t *testing.T) {
	db := newServiceTestDB(t)
	user := seedReviewUser(t, db, models.PlanFree, 1)
	ai := &fakeCompleter{response: "I could not produce a review."}
	svc := NewService(db, ai, quota.NewService(db), nil)

	_, err := svc.Generate(context.Background(), user, models.CreateReviewRequest{Code: "var x = 1"})
	require.Error(t, err)

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindJSONNotFound, appErr.Kind)

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, "id = ?", user.ID).Error)
	assert.Equal(t, 1, reloaded.ReviewCount)
}

func TestGenerate_ChargesOnSuccess(t *testing.T) {
	db := newServiceTestDB(t)
	user := seedReviewUser(t, db, models.PlanFree, 1)
	ai := &fakeCompleter{response: validResponse}
	svc := NewService(db, ai, quota.NewService(db), nil)

	resp, err := svc.Generate(context.Background(), user, models.CreateReviewRequest{Code: "var x = 1"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.RemainingReviews)

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, "id = ?", user.ID).Error)
	assert.Equal(t, 2, reloaded.ReviewCount)
}

func TestGenerate_DetectsLanguageWhenMissing(t *testing.T) {
	db := newServiceTestDB(t)
	user := seedReviewUser(t, db, models.PlanFree, 0)
	ai := &fakeCompleter{response: validResponse}
	svc := NewService(db, ai, quota.NewService(db), nil)

	resp, err := svc.Generate(context.Background(), user, models.CreateReviewRequest{
		Code: "interface User { name: string }\nconst u: User = load()",
	})
	require.NoError(t, err)

	assert.Contains(t, ai.lastPrompt, "(typescript code)")

	var saved models.Review
	require.NoError(t, db.First(&saved, "id = ?", resp.ID).Error)
	assert.Equal(t, "typescript", saved.Language)
}

func TestGenerate_UndetectableLanguageLeftEmpty(t *testing.T) {
	db := newServiceTestDB(t)
	user := seedReviewUser(t, db, models.PlanFree, 0)
	ai := &fakeCompleter{response: validResponse}
	svc := NewService(db, ai, quota.NewService(db), nil)

	resp, err := svc.Generate(context.Background(), user, models.CreateReviewRequest{
		Code: "plain text with no recognizable structure whatsoever",
	})
	require.NoError(t, err)

	assert.NotContains(t, ai.lastPrompt, "(unknown code)")

	var saved models.Review
	require.NoError(t, db.First(&saved, "id = ?", resp.ID).Error)
	assert.Empty(t, saved.Language)
}

func TestGenerate_SystemPromptMatchesDifficulty(t *testing.T) {
	db := newServiceTestDB(t)
	user := seedReviewUser(t, db, models.PlanFree, 0)
	user.DifficultyLevel = models.DifficultyAdvanced
	require.NoError(t, db.Save(user).Error)

	ai := &fakeCompleter{response: validResponse}
	svc := NewService(db, ai, quota.NewService(db), nil)

	_, err := svc.Generate(context.Background(), user, models.CreateReviewRequest{Code: "var x = 1"})
	require.NoError(t, err)
	assert.Equal(t, SystemPrompt(models.DifficultyAdvanced), ai.systemPrompt)
}

func TestHistory_PaginationAndOrder(t *testing.T) {
	db := newServiceTestDB(t)
	user := seedReviewUser(t, db, models.PlanPro, 0)
	svc := NewService(db, &fakeCompleter{}, quota.NewService(db), nil)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		require.NoError(t, db.Create(&models.Review{
			ID:           uuid.NewString(),
			UserID:       user.ID,
			OriginalCode: "x",
			ReviewResult: "{}",
			IssuesFound:  i,
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}).Error)
	}

	items, err := svc.History(context.Background(), user.ID, 2, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 4, items[0].IssuesFound, "newest review comes first")
	assert.Equal(t, 3, items[1].IssuesFound)

	items, err = svc.History(context.Background(), user.ID, 2, 4)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 0, items[0].IssuesFound)
}

func TestHistory_CachedAndInvalidatedOnGenerate(t *testing.T) {
	db := newServiceTestDB(t)
	user := seedReviewUser(t, db, models.PlanPro, 0)

	mr := miniredis.RunT(t)
	cacheClient := &cache.Client{Redis: redis.NewClient(&redis.Options{Addr: mr.Addr()})}

	ai := &fakeCompleter{response: validResponse}
	svc := NewService(db, ai, quota.NewService(db), cacheClient)

	_, err := svc.History(context.Background(), user.ID, 10, 0)
	require.NoError(t, err)
	require.True(t, mr.Exists("reviews:user:"+user.ID+":10:0"))

	_, err = svc.Generate(context.Background(), user, models.CreateReviewRequest{Code: "var x = 1"})
	require.NoError(t, err)
	assert.False(t, mr.Exists("reviews:user:"+user.ID+":10:0"), "history cache is dropped after a new review")

	items, err := svc.History(context.Background(), user.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
}

type fakeCacheRecorder struct {
	hits   int
	misses int
}

func (f *fakeCacheRecorder) RecordCacheHit()  { f.hits++ }
func (f *fakeCacheRecorder) RecordCacheMiss() { f.misses++ }

func TestHistory_RecordsCacheHitsAndMisses(t *testing.T) {
	db := newServiceTestDB(t)
	user := seedReviewUser(t, db, models.PlanPro, 0)

	mr := miniredis.RunT(t)
	cacheClient := &cache.Client{Redis: redis.NewClient(&redis.Options{Addr: mr.Addr()})}

	svc := NewService(db, &fakeCompleter{response: validResponse}, quota.NewService(db), cacheClient)
	recorder := &fakeCacheRecorder{}
	svc.SetCacheRecorder(recorder)

	// Cold read fills the cache, warm read hits it.
	_, err := svc.History(context.Background(), user.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, recorder.hits)
	assert.Equal(t, 1, recorder.misses)

	_, err = svc.History(context.Background(), user.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, recorder.hits)
	assert.Equal(t, 1, recorder.misses)
}

func TestHistory_NoCacheRecordsNothing(t *testing.T) {
	db := newServiceTestDB(t)
	user := seedReviewUser(t, db, models.PlanFree, 0)

	svc := NewService(db, &fakeCompleter{response: validResponse}, quota.NewService(db), nil)
	recorder := &fakeCacheRecorder{}
	svc.SetCacheRecorder(recorder)

	_, err := svc.History(context.Background(), user.ID, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, recorder.hits)
	assert.Zero(t, recorder.misses, "a disabled cache is not a miss")
}
