package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/minsukang/codementor/pkg/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const validAIResponse = `{"issues":[{"severity":"warning","line":2,"title":"var used","problem":"p","reason":"prefer const","solution":"s","category":"style"}],"summary":{"totalIssues":1,"byCategory":{"style":1},"bySeverity":{"warning":1}}}`

// fakeCompleter satisfies review.Completer with a canned response.
type fakeCompleter struct {
	response string
	err      error
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string, systemPrompt ...string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func newHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Review{}, &models.LearningLog{}, &models.Subscription{}))
	return db
}

func seedHandlerUser(t *testing.T, db *gorm.DB, plan string, count int) *models.User {
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
