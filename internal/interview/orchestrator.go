// Package interview generates technical questions from a candidate's stack and
// grades the answers, falling back to deterministic templates and a keyword
// heuristic whenever the language model is unavailable.
package interview

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/spigell/talentscout/internal/ai"
	"github.com/spigell/talentscout/internal/candidate"
	"github.com/spigell/talentscout/internal/logger"
)

const (
	DefaultQuestionsPerTopic = 3
	DefaultMaxTopics         = 2
	DefaultTemperature       = 0.2
	DefaultGradeTemperature  = 0.1
	DefaultTopic             = "General"
	DefaultTimeout           = 30 * time.Second
	DefaultMaxTokens         = 1024

	fallbackPrefix = "fallback:"
)

// Options tunes generation and grading.
type Options struct {
	QuestionsPerTopic int           `mapstructure:"questions-per-topic"`
	MaxTopics         int           `mapstructure:"max-topics"`
	Temperature       float64       `mapstructure:"temperature"`
	GradeTemperature  float64       `mapstructure:"grade-temperature"`
	EvaluateAnswers   bool          `mapstructure:"evaluate-answers"`
	DefaultTopic      string        `mapstructure:"default-topic"`
	Model             string        `mapstructure:"model"`
	Timeout           time.Duration `mapstructure:"timeout"`
	// MaxTokens caps the reply length. Zero leaves it to the provider.
	MaxTokens         int           `mapstructure:"max-tokens"`
}

// DefaultOptions returns the stock generation settings.
func DefaultOptions() Options {
	return Options{
		QuestionsPerTopic: DefaultQuestionsPerTopic,
		MaxTopics:         DefaultMaxTopics,
		Temperature:       DefaultTemperature,
		GradeTemperature:  DefaultGradeTemperature,
		EvaluateAnswers:   true,
		DefaultTopic:      DefaultTopic,
		Timeout:           DefaultTimeout,
		MaxTokens:         DefaultMaxTokens,
	}
}

// Request describes one question-generation call.
type Request struct {
	Stack               *candidate.TechStack
	Language            string
	PreferredDifficulty string
	RecentTopics        []string
}

// Orchestrator drives question generation and grading over a backend.
type Orchestrator struct {
	backend  ai.Backend
	retrier  *ai.Retrier
	opts     Options
	validate *validator.Validate
	logger   *zap.Logger
}

// New builds an orchestrator. A nil backend behaves as an unconfigured one and
// a nil retrier selects the default retry schedule.
func New(backend ai.Backend, retrier *ai.Retrier, opts Options, log *zap.Logger) *Orchestrator {
	if backend == nil {
		backend = ai.Unconfigured{}
	}
	log = logger.WithFields(log)
	if retrier == nil {
		retrier = ai.NewRetrier(0, log)
	}
	if opts.QuestionsPerTopic <= 0 {
		opts.QuestionsPerTopic = DefaultQuestionsPerTopic
	}
	if opts.GradeTemperature <= 0 {
		opts.GradeTemperature = DefaultGradeTemperature
	}
	opts.DefaultTopic = strings.TrimSpace(opts.DefaultTopic)

	return &Orchestrator{
		backend:  backend,
		retrier:  retrier,
		opts:     opts,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   log.With(zap.String(logger.FieldProvider, backend.Name())),
	}
}

// Options returns the effective settings.
func (o *Orchestrator) Options() Options { return o.opts }

// Topics returns the focus topics for a stack: every technology in category
// order, truncated to MaxTopics when it is positive, or the default topic
// when the stack is empty.
func (o *Orchestrator) Topics(s *candidate.TechStack) []string {
	topics := s.Topics()
	if len(topics) == 0 {
		if o.opts.DefaultTopic == "" {
			return nil
		}
		return []string{o.opts.DefaultTopic}
	}
	if o.opts.MaxTopics > 0 && len(topics) > o.opts.MaxTopics {
		topics = topics[:o.opts.MaxTopics]
	}
	return topics
}

// Generate asks the backend for questions. Invalid items are dropped and each
// topic is capped at QuestionsPerTopic. When the backend fails or yields
// nothing usable the fixed templates are returned together with a
// "fallback:<cause>" diagnostic. It never fails.
func (o *Orchestrator) Generate(ctx context.Context, req Request) ([]Question, string) {
	topics := o.Topics(req.Stack)
	if len(topics) == 0 {
		return []Question{}, ""
	}

	messages := []ai.Message{
		{Role: ai.RoleSystem, Content: systemPrompt},
		{Role: ai.RoleUser, Content: o.examplesMessage(topics)},
		{Role: ai.RoleUser, Content: buildGeneratePrompt(req, topics, o.opts.QuestionsPerTopic)},
	}

	res := o.retrier.Call(ctx, o.backend, messages, o.params(o.opts.Temperature))
	if !res.OK {
		o.logger.Warn("question generation failed, using fallback",
			zap.String("reason", res.Reason),
			zap.Int("attempts", res.Attempts),
			zap.Error(res.Err),
		)
		return o.Fallback(topics), fallbackPrefix + res.Reason
	}

	doc := ai.ExtractJSON(res.Content)
	questions := decodeQuestions(doc["questions"], o.validate)
	if len(questions) == 0 {
		o.logger.Warn("model returned no valid questions, using fallback",
			zap.Int("response_length", len(res.Content)),
		)
		return o.Fallback(topics), fallbackPrefix + "empty_or_invalid"
	}

	questions = capPerTopic(questions, o.opts.QuestionsPerTopic)
	o.logger.Debug("questions generated", zap.Int("count", len(questions)), zap.Strings("topics", topics))
	return questions, ""
}

// Fallback returns the template questions for topics: beginner, intermediate
// and advanced per topic, capped at QuestionsPerTopic.
func (o *Orchestrator) Fallback(topics []string) []Question {
	out := make([]Question, 0, len(topics)*len(Difficulties))
	for _, t := range topics {
		out = append(out,
			Question{Topic: t, Difficulty: Beginner, Question: fmt.Sprintf("Explain fundamentals of %s and show a simple example.", t)},
			Question{Topic: t, Difficulty: Intermediate, Question: fmt.Sprintf("Describe a debugging incident you solved in %s.", t)},
			Question{Topic: t, Difficulty: Advanced, Question: fmt.Sprintf("Design for performance/reliability in %s under load: key trade-offs?", t)},
		)
	}
	return capPerTopic(out, o.opts.QuestionsPerTopic)
}

func (o *Orchestrator) examplesMessage(topics []string) string {
	examples := examplesFor(topics, o.opts.QuestionsPerTopic)
	if len(examples) == 0 {
		return noExamples
	}
	payload, err := json.Marshal(map[string]any{"examples": examples})
	if err != nil {
		return noExamples
	}
	return string(payload)
}

func (o *Orchestrator) params(temperature float64) ai.Params {
	return ai.Params{
		Model:       o.opts.Model,
		Temperature: temperature,
		Timeout:     o.opts.Timeout,
		MaxTokens:   o.opts.MaxTokens,
	}
}
