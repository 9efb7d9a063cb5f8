package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentences(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		limit int
		want  []string
	}{
		{"basic", "First one. Second one! Third one?", 0, []string{"First one.", "Second one!", "Third one?"}},
		{"lowercase continues", "See fig. below for more. Next", 0, []string{"See fig. below for more.", "Next"}},
		{"digit starts sentence", "Revenue rose. 2025 looks good.", 0, []string{"Revenue rose.", "2025 looks good."}},
		{"repeated punctuation", "Wow!! Really", 0, []string{"Wow!!", "Really"}},
		{"newline whitespace", "One.\n\n  Two", 0, []string{"One.", "Two"}},
		{"limit", "A. B. C. D", 2, []string{"A.", "B."}},
		{"empty", "   ", 0, nil},
		{"no boundary", "just text", 0, []string{"just text"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sentences(tt.in, tt.limit))
		})
	}
}

func TestInformative(t *testing.T) {
	in := []string{
		"The company announced a share repurchase.",
		"Table 1.",
		"2025 2026 2027 2028 2029 2030 abc defgh ijklm nopqrst",
		"Ünïcödé letters count toward the minimum.",
	}
	assert.Equal(t, []string{in[0], in[3]}, Informative(in, DefaultMinLetters))
	assert.Equal(t, []string{in[0], in[1], in[3]}, Informative(in, 5))
}
