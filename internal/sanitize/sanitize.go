// Package sanitize recovers JSON payloads from free-form model output.
//
// Model responses frequently wrap JSON in markdown fences, surround it with
// prose, use typographic quotes or leave trailing commas. Decode runs a fixed
// sequence of idempotent cleaning steps, attempts a strict parse, and on
// failure retries once after an aggressive repair pass. The returned Outcome
// records which stage succeeded.
package sanitize

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Shape is the top-level JSON kind a caller expects.
type Shape int

const (
	// Array expects a JSON array.
	Array Shape = iota
	// Object expects a JSON object.
	Object
)

func (s Shape) bounds() (open, close byte) {
	if s == Object {
		return '{', '}'
	}
	return '[', ']'
}

// Stage identifies how far decoding had to go.
type Stage int

const (
	// StageStrict means the cleaned text parsed on the first attempt.
	StageStrict Stage = iota
	// StageRepaired means parsing succeeded only after the aggressive pass.
	StageRepaired
	// StageFailed means no stage produced valid JSON.
	StageFailed
)

// String implements fmt.Stringer.
func (s Stage) String() string {
	switch s {
	case StageStrict:
		return "strict"
	case StageRepaired:
		return "repaired"
	default:
		return "failed"
	}
}

// ErrNoJSON is reported when the input holds no bracketed payload at all.
var ErrNoJSON = errors.New("no JSON payload found")

// Outcome is the typed result of Decode.
type Outcome struct {
	Stage Stage
	// Cleaned is the text handed to the final parse attempt.
	Cleaned string
	// Err is set only when Stage is StageFailed.
	Err error
}

// OK reports whether a value was decoded.
func (o Outcome) OK() bool {
	return o.Stage != StageFailed
}

var (
	fenceRe         = regexp.MustCompile("(?s)```[A-Za-z]*\\s*(.*?)```")
	whitespaceRe    = regexp.MustCompile(`\s+`)
	trailingCommaRe = regexp.MustCompile(`,\s*([\]}])`)

	quoteReplacer = strings.NewReplacer(
		"“", `"`, "”", `"`, "„", `"`, "‟", `"`, "″", `"`,
		"‘", "'", "’", "'", "′", "'",
	)
)

// Decode cleans raw and unmarshals it into v.
func Decode(raw string, shape Shape, v any) Outcome {
	cleaned := Clean(raw, shape)
	if cleaned == "" {
		return Outcome{Stage: StageFailed, Err: ErrNoJSON}
	}

	strictErr := json.Unmarshal([]byte(cleaned), v)
	if strictErr == nil {
		return Outcome{Stage: StageStrict, Cleaned: cleaned}
	}

	repaired := Repair(cleaned, shape)
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return Outcome{
			Stage:   StageFailed,
			Cleaned: repaired,
			Err:     fmt.Errorf("parse after repair: %w", err),
		}
	}
	return Outcome{Stage: StageRepaired, Cleaned: repaired}
}

// Clean applies the standard steps: strip a markdown fence, drop control
// characters and collapse whitespace, slice to the outermost brackets of
// the expected shape and normalise typographic quotes. Applying Clean to its
// own output returns it unchanged.
func Clean(raw string, shape Shape) string {
	s := StripFence(raw)
	s = CollapseWhitespace(s)
	s = SliceBounds(s, shape)
	s = NormalizeQuotes(s)
	return s
}

// Repair is the aggressive pass: drop trailing commas, re-collapse and
// re-slice.
func Repair(s string, shape Shape) string {
	s = trailingCommaRe.ReplaceAllString(s, "$1")
	s = CollapseWhitespace(s)
	return SliceBounds(s, shape)
}

// StripFence returns the body of the first fenced code block, or s when
// there is none.
func StripFence(s string) string {
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	// An opening fence the model never closed.
	if i := strings.Index(s, "```"); i >= 0 {
		rest := s[i+3:]
		rest = strings.TrimLeftFunc(rest, unicode.IsLetter)
		return rest
	}
	return s
}

// CollapseWhitespace removes control characters and folds whitespace runs
// into single spaces.
func CollapseWhitespace(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			return ' '
		case unicode.IsControl(r):
			return -1
		default:
			return r
		}
	}, s)
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// SliceBounds cuts s from the first opening bracket of shape to the last
// closing one. It returns "" when either bracket is missing.
func SliceBounds(s string, shape Shape) string {
	open, close := shape.bounds()
	start := strings.IndexByte(s, open)
	end := strings.LastIndexByte(s, close)
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}

// NormalizeQuotes replaces typographic quotes with ASCII ones.
func NormalizeQuotes(s string) string {
	return quoteReplacer.Replace(s)
}
