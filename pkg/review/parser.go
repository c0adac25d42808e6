package review

import (
	"encoding/json"
	"strings"

	"github.com/minsukang/codementor/pkg/apperr"
)

// suspiciousCodeLength: a snippet longer than this essentially never yields
// zero findings, so an empty result is treated as a failed generation.
const suspiciousCodeLength = 100

const rawExcerptLimit = 200

// ParseResponse extracts the structured review from raw model output and
// normalizes it. The original code is used only for the empty-result sanity
// check. Each failure mode carries its own apperr.AIKind so callers can tell
// a retryable generation hiccup from a hard formatting break.
func ParseResponse(text, code string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperr.AI(apperr.KindMalformed,
			"AI 응답 형식이 올바르지 않습니다", nil)
	}

	// First-to-last brace span, the widest possible JSON candidate.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, apperr.AI(apperr.KindJSONNotFound,
			"AI 응답에서 JSON을 찾을 수 없습니다", excerpt(text))
	}

	var raw struct {
		Issues  []rawIssue `json:"issues"`
		Summary *Summary   `json:"summary"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, apperr.AI(apperr.KindParseFailed,
			"AI 응답 파싱에 실패했습니다", err.Error())
	}

	issues := make([]Issue, 0, len(raw.Issues))
	for _, ri := range raw.Issues {
		issues = append(issues, ri.normalize())
	}

	if len(issues) == 0 && len(code) > suspiciousCodeLength {
		return nil, apperr.AI(apperr.KindEmptyResult,
			"리뷰 결과 파싱 실패: 잠시 후 다시 시도해주세요", excerpt(text))
	}

	summary := Summary{TotalIssues: len(issues), ByCategory: map[string]int{}, BySeverity: map[string]int{}}
	if raw.Summary != nil {
		summary = *raw.Summary
		summary.TotalIssues = len(issues)
		if summary.ByCategory == nil {
			summary.ByCategory = map[string]int{}
		}
		if summary.BySeverity == nil {
			summary.BySeverity = map[string]int{}
		}
	}

	return &Result{Issues: issues, Summary: summary}, nil
}

// rawIssue mirrors Issue with everything optional, so a partially filled
// object from the model still decodes.
type rawIssue struct {
	Severity  *string    `json:"severity"`
	Line      *int       `json:"line"`
	Title     *string    `json:"title"`
	Problem   *string    `json:"problem"`
	Reason    *string    `json:"reason"`
	Solution  *string    `json:"solution"`
	FixedCode *string    `json:"fixedCode"`
	LearnMore []Resource `json:"learnMore"`
	Tip       *string    `json:"tip"`
	Category  *string    `json:"category"`
}

func (ri rawIssue) normalize() Issue {
	issue := Issue{
		Severity:  strOr(ri.Severity, SeverityInfo),
		Title:     strOr(ri.Title, "Unknown Issue"),
		Problem:   strOr(ri.Problem, ""),
		Reason:    strOr(ri.Reason, ""),
		Solution:  strOr(ri.Solution, ""),
		FixedCode: strOr(ri.FixedCode, ""),
		LearnMore: ri.LearnMore,
		Tip:       strOr(ri.Tip, ""),
		Category:  strOr(ri.Category, CategoryBestPractice),
	}
	if ri.Line != nil {
		issue.Line = *ri.Line
	}
	if issue.LearnMore == nil {
		issue.LearnMore = []Resource{}
	}
	return issue
}

func strOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}

func excerpt(text string) string {
	if len(text) > rawExcerptLimit {
		return text[:rawExcerptLimit]
	}
	return text
}
