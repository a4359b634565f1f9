package study

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/smartlearn/smartlearn-api/internal/domain"
)

func TestCleanText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a b c", cleanText("  a\n\tb\r\n  c "))
	assert.Equal(t, "", cleanText(nil))
	assert.Equal(t, "42", cleanText(42))

	long := cleanText(strings.Repeat("x", 600))
	assert.Equal(t, MaxTextLength, utf8.RuneCountInString(long))
	assert.True(t, strings.HasSuffix(long, "..."))

	exact := strings.Repeat("y", MaxTextLength)
	assert.Equal(t, exact, cleanText(exact))
}

func TestToFlashcard(t *testing.T) {
	t.Parallel()

	fc, ok := toFlashcard(map[string]any{"q": " What is ATP? ", "a": "Energy\ncurrency"})
	assert.True(t, ok)
	assert.Equal(t, domain.Flashcard{Q: "What is ATP?", A: "Energy currency", Type: domain.DefaultFlashcardType}, fc)

	fc, ok = toFlashcard(map[string]any{"q": "Q", "a": "A", "type": "process"})
	assert.True(t, ok)
	assert.Equal(t, "process", fc.Type)

	for _, bad := range []any{
		map[string]any{"q": "Q"},
		map[string]any{"q": "  ", "a": "A"},
		"not an object",
		nil,
	} {
		_, ok := toFlashcard(bad)
		assert.False(t, ok, "%v", bad)
	}
}

func TestToMCQ(t *testing.T) {
	t.Parallel()

	opts := []any{"A", "B", "C", "D"}

	tests := []struct {
		name string
		in   map[string]any
		ok   bool
		ans  int
	}{
		{"numeric answer", map[string]any{"q": "Q", "opts": opts, "ans": float64(2)}, true, 2},
		{"string answer", map[string]any{"q": "Q", "opts": opts, "ans": "3"}, true, 3},
		{"fractional answer", map[string]any{"q": "Q", "opts": opts, "ans": 1.5}, false, 0},
		{"answer out of range", map[string]any{"q": "Q", "opts": opts, "ans": float64(4)}, false, 0},
		{"negative answer", map[string]any{"q": "Q", "opts": opts, "ans": float64(-1)}, false, 0},
		{"missing answer", map[string]any{"q": "Q", "opts": opts}, false, 0},
		{"three options", map[string]any{"q": "Q", "opts": []any{"A", "B", "C"}, "ans": float64(0)}, false, 0},
		{"blank option", map[string]any{"q": "Q", "opts": []any{"A", " ", "C", "D"}, "ans": float64(0)}, false, 0},
		{"options not a list", map[string]any{"q": "Q", "opts": "A,B,C,D", "ans": float64(0)}, false, 0},
		{"missing question", map[string]any{"opts": opts, "ans": float64(0)}, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mcq, ok := toMCQ(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.ans, mcq.Ans)
				assert.Len(t, mcq.Opts, OptionsPerMCQ)
				assert.Equal(t, domain.DefaultMCQExplanation, mcq.Explanation)
			}
		})
	}
}

func TestToKeyword(t *testing.T) {
	t.Parallel()

	kw, ok := toKeyword(map[string]any{"k": "Chlorophyll", "d": strings.Repeat("d", 300)})
	assert.True(t, ok)
	assert.Equal(t, "Chlorophyll", kw.K)
	assert.Equal(t, MaxDefinitionLength, len(kw.D))

	_, ok = toKeyword(map[string]any{"k": "Term"})
	assert.False(t, ok)
}

func TestCollectLimit(t *testing.T) {
	t.Parallel()

	raw := make([]any, 0, 8)
	raw = append(raw, "junk")
	for i := 0; i < 7; i++ {
		raw = append(raw, map[string]any{"k": "term", "d": "definition"})
	}

	assert.Len(t, collect(raw, BatchItemLimit, toKeyword), BatchItemLimit)
	assert.Len(t, ValidKeywords(raw), 7)
}
