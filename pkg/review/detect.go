package review

import "regexp"

// LanguageUnknown is returned when no language accumulates at least two
// signature matches.
const LanguageUnknown = "unknown"

type languageSignature struct {
	name     string
	patterns []*regexp.Regexp
}

// Enumeration order breaks ties: the first language to reach two matches
// wins, so the more specific languages come before their supersets
// (typescript before javascript).
var languageSignatures = []languageSignature{
	{"typescript", []*regexp.Regexp{
		regexp.MustCompile(`:\s*(string|number|boolean|any)\b`),
		regexp.MustCompile(`interface\s+\w+`),
		regexp.MustCompile(`type\s+\w+\s*=`),
	}},
	{"javascript", []*regexp.Regexp{
		regexp.MustCompile(`const\s+\w+\s*=`),
		regexp.MustCompile(`function\s+\w+`),
		regexp.MustCompile(`=>\s*\{`),
	}},
	{"python", []*regexp.Regexp{
		regexp.MustCompile(`def\s+\w+\(`),
		regexp.MustCompile(`import\s+\w+`),
		regexp.MustCompile(`(?m):\s*$`),
	}},
	{"java", []*regexp.Regexp{
		regexp.MustCompile(`public\s+class`),
		regexp.MustCompile(`private\s+\w+\s+\w+`),
		regexp.MustCompile(`void\s+\w+\(`),
	}},
	{"go", []*regexp.Regexp{
		regexp.MustCompile(`func\s+\w+\(`),
		regexp.MustCompile(`package\s+\w+`),
		regexp.MustCompile(`import\s*\(`),
	}},
	{"rust", []*regexp.Regexp{
		regexp.MustCompile(`fn\s+\w+\(`),
		regexp.MustCompile(`let\s+mut`),
		regexp.MustCompile(`impl\s+\w+`),
	}},
	{"sql", []*regexp.Regexp{
		regexp.MustCompile(`(?i)SELECT\s+`),
		regexp.MustCompile(`(?i)INSERT\s+INTO`),
		regexp.MustCompile(`(?i)CREATE\s+TABLE`),
	}},
	{"html", []*regexp.Regexp{
		regexp.MustCompile(`<\w+[^>]*>`),
		regexp.MustCompile(`</\w+>`),
		regexp.MustCompile(`(?i)<!DOCTYPE`),
	}},
	{"css", []*regexp.Regexp{
		regexp.MustCompile(`(?s)\{.*?\}`),
		regexp.MustCompile(`:\s*[\w-]+;`),
		regexp.MustCompile(`@media\s*\(`),
	}},
}

// DetectLanguage guesses the language of a snippet. A language is selected
// only when at least two of its signatures match; this is a best-effort hint
// for prompt framing, never a guarantee.
func DetectLanguage(code string) string {
	for _, sig := range languageSignatures {
		matches := 0
		for _, p := range sig.patterns {
			if p.MatchString(code) {
				matches++
			}
		}
		if matches >= 2 {
			return sig.name
		}
	}
	return LanguageUnknown
}
