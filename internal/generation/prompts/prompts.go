// Package prompts renders the text prompts sent to the generative model.
//
// Templates are embedded in the binary and may be overridden per name by
// files in a directory (llm.prompt_dir), e.g. <dir>/flashcards.tmpl.
package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/smartlearn/smartlearn-api/internal/domain"
)

// Template names.
const (
	Explanation = "explanation"
	Story       = "story"
	Flashcards  = "flashcards"
	MCQs        = "mcqs"
	Keywords    = "keywords"
	BatchText   = "batch_text"
	BatchJSON   = "batch_json"
)

// Names lists every template a Library must provide.
var Names = []string{Explanation, Story, Flashcards, MCQs, Keywords, BatchText, BatchJSON}

// MaxContextLength caps the reference content passed into a prompt, in runes.
const MaxContextLength = 1000

// DefaultTone is used by the story template when none is given.
const DefaultTone = "simple"

var (
	// ErrEmptyTopic is returned when rendering without a topic.
	ErrEmptyTopic = domain.ErrEmptyTopic

	// ErrUnknownTemplate is returned for a name outside Names.
	ErrUnknownTemplate = errors.New("unknown prompt template")
)

//go:embed templates/*.tmpl
var embedded embed.FS

// Data is the input to every template.
type Data struct {
	Topic   string
	Content string
	Tone    string
}

// Library holds one parsed template per name.
type Library struct {
	templates map[string]*template.Template
}

var defaultLibrary = mustEmbedded()

func mustEmbedded() *Library {
	lib, err := New("")
	if err != nil {
		panic(err)
	}
	return lib
}

// New parses the embedded templates, replacing any for which dir contains
// a <name>.tmpl file. An empty dir uses the embedded set only.
func New(dir string) (*Library, error) {
	lib := &Library{templates: make(map[string]*template.Template, len(Names))}
	for _, name := range Names {
		src, err := fs.ReadFile(embedded, "templates/"+name+".tmpl")
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded template %s: %w", name, err)
		}

		if dir != "" {
			override, err := os.ReadFile(filepath.Join(dir, name+".tmpl"))
			switch {
			case err == nil:
				src = override
			case !errors.Is(err, os.ErrNotExist):
				return nil, fmt.Errorf("failed to read template override %s: %w", name, err)
			}
		}

		tmpl, err := template.New(name).Option("missingkey=error").Parse(string(src))
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		lib.templates[name] = tmpl
	}
	return lib, nil
}

// Render executes the named template from the embedded set.
func Render(name string, data Data) (string, error) {
	return defaultLibrary.Render(name, data)
}

// Render executes the named template. Topic and content are trimmed,
// content is truncated to MaxContextLength and an empty tone becomes
// DefaultTone.
func (l *Library) Render(name string, data Data) (string, error) {
	tmpl, ok := l.templates[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}

	data.Topic = strings.TrimSpace(data.Topic)
	if data.Topic == "" {
		return "", ErrEmptyTopic
	}
	data.Content = Truncate(strings.TrimSpace(data.Content), MaxContextLength)
	data.Tone = strings.TrimSpace(data.Tone)
	if data.Tone == "" {
		data.Tone = DefaultTone
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
