package domain

// DefaultFlashcardType is assigned to flashcards the model leaves untyped.
const DefaultFlashcardType = "definition"

// DefaultMCQExplanation is used when the model omits an explanation.
const DefaultMCQExplanation = "Correct answer"

// Flashcard is a question/answer pair.
type Flashcard struct {
	Q    string `json:"q"`
	A    string `json:"a"`
	Type string `json:"type"`
}

// MCQ is a multiple-choice question with exactly four options. Ans indexes
// the correct option.
type MCQ struct {
	Q           string   `json:"q"`
	Opts        []string `json:"opts"`
	Ans         int      `json:"ans"`
	Explanation string   `json:"explanation"`
}

// Keyword is a term and its short definition.
type Keyword struct {
	K string `json:"k"`
	D string `json:"d"`
}

// StudyPack is the combined result for one topic. Slices are never nil so
// the JSON form always carries arrays.
type StudyPack struct {
	Topic      string      `json:"topic"`
	Search     string      `json:"search"`
	Story      string      `json:"story"`
	Flashcards []Flashcard `json:"flashcards"`
	MCQs       []MCQ       `json:"mcqs"`
	Keywords   []Keyword   `json:"keywords"`
	Errors     []string    `json:"errors"`
}

// NewStudyPack returns an empty pack for topic.
func NewStudyPack(topic string) *StudyPack {
	return &StudyPack{
		Topic:      topic,
		Flashcards: []Flashcard{},
		MCQs:       []MCQ{},
		Keywords:   []Keyword{},
		Errors:     []string{},
	}
}

// Normalize replaces nil slices with empty ones, e.g. after decoding a
// cached pack.
func (p *StudyPack) Normalize() {
	if p.Flashcards == nil {
		p.Flashcards = []Flashcard{}
	}
	if p.MCQs == nil {
		p.MCQs = []MCQ{}
	}
	if p.Keywords == nil {
		p.Keywords = []Keyword{}
	}
	if p.Errors == nil {
		p.Errors = []string{}
	}
}

// AddError appends a human-readable failure note.
func (p *StudyPack) AddError(msg string) {
	p.Errors = append(p.Errors, msg)
}

// Complete reports whether generation finished without recorded errors.
func (p *StudyPack) Complete() bool {
	return len(p.Errors) == 0
}
