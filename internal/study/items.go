package study

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/smartlearn/smartlearn-api/internal/domain"
)

// Item limits.
const (
	MaxTextLength       = 500
	MaxDefinitionLength = 120
	MinItems            = 3
	BatchItemLimit      = 5
	OptionsPerMCQ       = 4
)

// cleanText flattens whitespace and caps free text at MaxTextLength runes.
// Non-string values are formatted, nil becomes "".
func cleanText(v any) string {
	var s string
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		s = t
	default:
		s = fmt.Sprint(t)
	}
	s = strings.Join(strings.Fields(s), " ")
	return capRunes(s, MaxTextLength)
}

// capRunes truncates s to n runes, ending in "..." when cut.
func capRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

// prefix returns at most n runes of s without an ellipsis.
func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func asObject(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// answerIndex accepts 2, 2.0 and "2".
func answerIndex(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		if t != math.Trunc(t) {
			return 0, false
		}
		return int(t), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		return n, err == nil
	default:
		return 0, false
	}
}

func toFlashcard(v any) (domain.Flashcard, bool) {
	m, ok := asObject(v)
	if !ok {
		return domain.Flashcard{}, false
	}
	fc := domain.Flashcard{
		Q:    cleanText(m["q"]),
		A:    cleanText(m["a"]),
		Type: cleanText(m["type"]),
	}
	if fc.Q == "" || fc.A == "" {
		return domain.Flashcard{}, false
	}
	if fc.Type == "" {
		fc.Type = domain.DefaultFlashcardType
	}
	return fc, true
}

func toMCQ(v any) (domain.MCQ, bool) {
	m, ok := asObject(v)
	if !ok {
		return domain.MCQ{}, false
	}
	q := cleanText(m["q"])
	rawOpts, ok := m["opts"].([]any)
	if q == "" || !ok || len(rawOpts) != OptionsPerMCQ {
		return domain.MCQ{}, false
	}
	opts := make([]string, 0, OptionsPerMCQ)
	for _, o := range rawOpts {
		text := cleanText(o)
		if text == "" {
			return domain.MCQ{}, false
		}
		opts = append(opts, text)
	}
	ans, ok := answerIndex(m["ans"])
	if !ok || ans < 0 || ans >= OptionsPerMCQ {
		return domain.MCQ{}, false
	}
	explanation := cleanText(m["explanation"])
	if explanation == "" {
		explanation = domain.DefaultMCQExplanation
	}
	return domain.MCQ{Q: q, Opts: opts, Ans: ans, Explanation: explanation}, true
}

func toKeyword(v any) (domain.Keyword, bool) {
	m, ok := asObject(v)
	if !ok {
		return domain.Keyword{}, false
	}
	kw := domain.Keyword{
		K: cleanText(m["k"]),
		D: prefix(cleanText(m["d"]), MaxDefinitionLength),
	}
	if kw.K == "" || kw.D == "" {
		return domain.Keyword{}, false
	}
	return kw, true
}

// collect converts raw items with conv, dropping rejects and stopping at
// limit when limit > 0.
func collect[T any](raw []any, limit int, conv func(any) (T, bool)) []T {
	out := make([]T, 0, len(raw))
	for _, v := range raw {
		if limit > 0 && len(out) == limit {
			break
		}
		if item, ok := conv(v); ok {
			out = append(out, item)
		}
	}
	return out
}

// ValidFlashcards returns the well-formed flashcards in raw.
func ValidFlashcards(raw []any) []domain.Flashcard {
	return collect(raw, 0, toFlashcard)
}

// ValidMCQs returns the well-formed questions in raw.
func ValidMCQs(raw []any) []domain.MCQ {
	return collect(raw, 0, toMCQ)
}

// ValidKeywords returns the well-formed keywords in raw.
func ValidKeywords(raw []any) []domain.Keyword {
	return collect(raw, 0, toKeyword)
}
