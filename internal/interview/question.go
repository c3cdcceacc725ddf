package interview

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// Difficulty levels accepted for generated questions.
const (
	Beginner     = "beginner"
	Intermediate = "intermediate"
	Advanced     = "advanced"

	// DifficultyAuto leaves the difficulty mix to the model.
	DifficultyAuto = "auto"
)

// Difficulties lists the question levels in ascending order.
var Difficulties = []string{Beginner, Intermediate, Advanced}

// Question is a single interview question.
type Question struct {
	Topic      string `json:"topic" mapstructure:"topic" validate:"required"`
	Question   string `json:"question" mapstructure:"question" validate:"required"`
	Difficulty string `json:"difficulty" mapstructure:"difficulty" validate:"required,oneof=beginner intermediate advanced"`
}

// Verdict is the outcome of grading an answer.
type Verdict string

const (
	VerdictPass             Verdict = "pass"
	VerdictNeedsImprovement Verdict = "needs_improvement"
)

// Title renders a verdict for display, e.g. "Needs Improvement".
func (v Verdict) Title() string {
	words := strings.Split(string(v), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// Grade is the evaluation of one answer.
type Grade struct {
	Verdict  Verdict `json:"verdict"`
	Feedback string  `json:"feedback"`
}

// Answer pairs a question with the candidate's reply and its grade.
type Answer struct {
	Question Question `json:"question"`
	Text     string   `json:"answer"`
	Verdict  Verdict  `json:"verdict"`
	Feedback string   `json:"feedback"`
}

// ValidDifficulty reports whether d is a question level or "auto".
func ValidDifficulty(d string) bool {
	d = strings.ToLower(strings.TrimSpace(d))
	if d == DifficultyAuto {
		return true
	}
	for _, known := range Difficulties {
		if d == known {
			return true
		}
	}
	return false
}

// decodeQuestions converts raw model items into valid questions. Items that
// fail to decode or validate are dropped. Fields are trimmed and the
// difficulty is lower-cased before validation.
func decodeQuestions(raw any, validate *validator.Validate) []Question {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}

	var out []Question
	for _, item := range items {
		var q Question
		cfg := &mapstructure.DecoderConfig{
			Result:           &q,
			WeaklyTypedInput: true,
		}
		decoder, err := mapstructure.NewDecoder(cfg)
		if err != nil {
			continue
		}
		if err := decoder.Decode(item); err != nil {
			continue
		}

		q.Topic = strings.TrimSpace(q.Topic)
		q.Question = strings.TrimSpace(q.Question)
		q.Difficulty = strings.ToLower(strings.TrimSpace(q.Difficulty))

		if err := validate.Struct(q); err != nil {
			continue
		}
		out = append(out, q)
	}
	return out
}

// capPerTopic keeps the first n questions of every topic, preserving order.
func capPerTopic(questions []Question, n int) []Question {
	if n <= 0 {
		return questions
	}
	seen := make(map[string]int)
	out := make([]Question, 0, len(questions))
	for _, q := range questions {
		seen[q.Topic]++
		if seen[q.Topic] <= n {
			out = append(out, q)
		}
	}
	return out
}
