package review

// Issue severities
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// Issue categories
const (
	CategorySecurity     = "security"
	CategoryPerformance  = "performance"
	CategoryStyle        = "style"
	CategoryLogic        = "logic"
	CategoryBestPractice = "best-practice"
)

// Resource is one learning link attached to an issue
type Resource struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Issue is one finding inside a review. Issues are values owned by their
// parent review; they have no identity of their own.
type Issue struct {
	Severity  string     `json:"severity"`
	Line      int        `json:"line"` // 0 means unlocated
	Title     string     `json:"title"`
	Problem   string     `json:"problem"`
	Reason    string     `json:"reason"`
	Solution  string     `json:"solution"`
	FixedCode string     `json:"fixedCode"`
	LearnMore []Resource `json:"learnMore"`
	Tip       string     `json:"tip"`
	Category  string     `json:"category"`
}

// Summary aggregates a review's issues
type Summary struct {
	TotalIssues int            `json:"totalIssues"`
	ByCategory  map[string]int `json:"byCategory"`
	BySeverity  map[string]int `json:"bySeverity"`
}

// Result is the structured outcome of one AI review
type Result struct {
	Issues  []Issue `json:"issues"`
	Summary Summary `json:"summary"`
}
