package review

import (
	"strings"
	"testing"

	"github.com/minsukang/codementor/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shortCode = "const x = 1"

func aiKind(t *testing.T, err error) apperr.AIKind {
	t.Helper()
	appErr, ok := err.(*apperr.Error)
	require.True(t, ok, "expected *apperr.Error, got %T", err)
	return appErr.Kind
}

func TestParseResponse_ValidJSON(t *testing.T) {
	text := `{"issues":[{"severity":"warning","line":3,"title":"var used","problem":"p","reason":"r","solution":"s","category":"style"}],"summary":{"totalIssues":1,"byCategory":{"style":1},"bySeverity":{"warning":1}}}`

	result, err := ParseResponse(text, shortCode)
	require.NoError(t, err)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, "warning", result.Issues[0].Severity)
	assert.Equal(t, 3, result.Issues[0].Line)
	assert.Equal(t, "var used", result.Issues[0].Title)
	assert.Equal(t, 1, result.Summary.TotalIssues)
	assert.Equal(t, 1, result.Summary.ByCategory["style"])
}

func TestParseResponse_StripsSurroundingProse(t *testing.T) {
	text := "Here is my review:\n```json\n" +
		`{"issues":[{"title":"t"}]}` +
		"\n```\nHope that helps!"

	result, err := ParseResponse(text, shortCode)
	require.NoError(t, err)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, "t", result.Issues[0].Title)
}

func TestParseResponse_EmptyText(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := ParseResponse(text, shortCode)
		require.Error(t, err)
		assert.Equal(t, apperr.KindMalformed, aiKind(t, err))
		assert.Contains(t, err.Error(), "AI 응답 형식이 올바르지 않습니다")
	}
}

func TestParseResponse_NoJSON(t *testing.T) {
	_, err := ParseResponse("There were no issues worth mentioning.", shortCode)
	require.Error(t, err)
	assert.Equal(t, apperr.KindJSONNotFound, aiKind(t, err))
	assert.Contains(t, err.Error(), "AI 응답에서 JSON을 찾을 수 없습니다")
}

func TestParseResponse_InvalidJSON(t *testing.T) {
	_, err := ParseResponse(`{"issues": [}`, shortCode)
	require.Error(t, err)
	assert.Equal(t, apperr.KindParseFailed, aiKind(t, err))
	assert.Contains(t, err.Error(), "AI 응답 파싱에 실패했습니다")
}

func TestParseResponse_FieldDefaults(t *testing.T) {
	result, err := ParseResponse(`{"issues":[{}]}`, shortCode)
	require.NoError(t, err)
	require.Len(t, result.Issues, 1)

	issue := result.Issues[0]
	assert.Equal(t, SeverityInfo, issue.Severity)
	assert.Equal(t, 0, issue.Line)
	assert.Equal(t, "Unknown Issue", issue.Title)
	assert.Equal(t, CategoryBestPractice, issue.Category)
	assert.NotNil(t, issue.LearnMore)
	assert.Empty(t, issue.LearnMore)
}

func TestParseResponse_EmptyIssuesShortCode(t *testing.T) {
	// Short snippets may legitimately have nothing to flag.
	result, err := ParseResponse(`{"issues":[]}`, shortCode)
	require.NoError(t, err)
	assert.Empty(t, result.Issues)
	assert.Equal(t, 0, result.Summary.TotalIssues)
	assert.NotNil(t, result.Summary.ByCategory)
	assert.NotNil(t, result.Summary.BySeverity)
}

func TestParseResponse_EmptyIssuesLongCode(t *testing.T) {
	longCode := strings.Repeat("const x = compute();\n", 20)
	require.Greater(t, len(longCode), suspiciousCodeLength)

	_, err := ParseResponse(`{"issues":[]}`, longCode)
	require.Error(t, err)
	assert.Equal(t, apperr.KindEmptyResult, aiKind(t, err))
	assert.Contains(t, err.Error(), "리뷰 결과 파싱 실패: 잠시 후 다시 시도해주세요")
}

func TestParseResponse_SummaryTotalRecomputed(t *testing.T) {
	// A lying summary count is overridden by the actual issue count.
	text := `{"issues":[{"title":"a"},{"title":"b"}],"summary":{"totalIssues":99}}`

	result, err := ParseResponse(text, shortCode)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Summary.TotalIssues)
	assert.NotNil(t, result.Summary.ByCategory)
	assert.NotNil(t, result.Summary.BySeverity)
}
