package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCall(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   Call
		wantOK bool
	}{
		{
			name:   "quoted search",
			text:   `SEARCH("weather today")`,
			want:   Call{Name: "SEARCH", Args: `"weather today"`},
			wantOK: true,
		},
		{
			name:   "plain answer",
			text:   "I don't know.",
			wantOK: false,
		},
		{
			name:   "array argument",
			text:   "SUMMARIZE([0, 2])",
			want:   Call{Name: "SUMMARIZE", Args: "[0, 2]"},
			wantOK: true,
		},
		{
			name:   "nested parentheses",
			text:   `PYTHON("""print(max(1, 2))""")`,
			want:   Call{Name: "PYTHON", Args: `"""print(max(1, 2))"""`},
			wantOK: true,
		},
		{
			name:   "parenthesis inside triple quotes",
			text:   "PYTHON(\"\"\"\nprint(')')\n\"\"\")",
			want:   Call{Name: "PYTHON", Args: "\"\"\"\nprint(')')\n\"\"\""},
			wantOK: true,
		},
		{
			name:   "trailing prose with parentheses",
			text:   `SEARCH("go release") (checking the latest version)`,
			want:   Call{Name: "SEARCH", Args: `"go release"`},
			wantOK: true,
		},
		{
			name:   "parenthesis inside string",
			text:   `SEARCH("smile :)")`,
			want:   Call{Name: "SEARCH", Args: `"smile :)"`},
			wantOK: true,
		},
		{
			name:   "prose before call",
			text:   `Let me look (quickly). SEARCH("x")`,
			want:   Call{Name: "SEARCH", Args: `"x"`},
			wantOK: true,
		},
		{
			name:   "name after space-separated parenthesis",
			text:   `Sure (1): SEARCH("x")`,
			want:   Call{Name: "SEARCH", Args: `"x"`},
			wantOK: true,
		},
		{
			name:   "unbalanced falls back to last parenthesis",
			text:   "SEARCH(a (b)",
			want:   Call{Name: "SEARCH", Args: "a (b"},
			wantOK: true,
		},
		{
			name:   "apostrophe in bare argument",
			text:   "SEARCH(what's new in go)",
			want:   Call{Name: "SEARCH", Args: "what's new in go"},
			wantOK: true,
		},
		{
			name:   "no closing parenthesis",
			text:   "SEARCH(open ended",
			wantOK: false,
		},
		{
			name:   "identifier with underscore and digits",
			text:   "tool_2(x)",
			want:   Call{Name: "tool_2", Args: "x"},
			wantOK: true,
		},
		{
			name:   "prose citation",
			text:   "It is sunny [1] (source).",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseCall(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
