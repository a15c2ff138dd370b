package sanitize_test

import (
	"testing"

	"groupchat-backend/internal/sanitize"
)

func TestText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Plain text passes through",
			input:    "hello world",
			expected: "hello world",
		},
		{
			name:     "Script tags are escaped",
			input:    "<script>alert(1)</script>",
			expected: "&lt;script&gt;alert(1)&lt;/script&gt;",
		},
		{
			name:     "Quotes are escaped",
			input:    `say "hi" & 'bye'`,
			expected: "say &#34;hi&#34; &amp; &#39;bye&#39;",
		},
		{
			name:     "Bidi override characters are stripped",
			input:    "abc‮def⁦ghi",
			expected: "abcdefghi",
		},
		{
			name:     "Empty input",
			input:    "",
			expected: "",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := sanitize.Text(test.input)
			if got != test.expected {
				t.Errorf("got %q, expected %q", got, test.expected)
			}
		})
	}
}
