package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{
			name: "typescript beats javascript",
			code: "interface User { name: string }\nconst u: User = load()",
			want: "typescript",
		},
		{
			name: "javascript",
			code: "const add = (a, b) => {\n  return a + b\n}\nfunction main() {}",
			want: "javascript",
		},
		{
			name: "python",
			code: "import os\n\ndef main():\n    pass",
			want: "python",
		},
		{
			name: "go",
			code: "package main\n\nfunc main() {\n}",
			want: "go",
		},
		{
			name: "rust",
			code: "fn main() {\n    let mut count = 0;\n}",
			want: "rust",
		},
		{
			name: "sql",
			code: "SELECT id FROM users;\nINSERT INTO logs (id) VALUES (1);",
			want: "sql",
		},
		{
			name: "single signature is not enough",
			code: "import antigravity",
			want: LanguageUnknown,
		},
		{
			name: "plain prose",
			code: "hello world, nothing to see here",
			want: LanguageUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectLanguage(tt.code))
		})
	}
}
