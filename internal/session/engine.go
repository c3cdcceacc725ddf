package session

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/talentscout/internal/candidate"
	"github.com/spigell/talentscout/internal/interview"
	"github.com/spigell/talentscout/internal/logger"
	"github.com/spigell/talentscout/internal/store"
	"github.com/spigell/talentscout/internal/validate"
)

var endTokens = map[string]struct{}{
	"exit":    {},
	"bye":     {},
	"quit":    {},
	"stop":    {},
	"goodbye": {},
}

var wordPattern = regexp.MustCompile(`\w+`)

// IsEnd reports whether text asks to finish the conversation: the whole
// message or any word in it is an end token, case-insensitively.
func IsEnd(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	if _, ok := endTokens[lower]; ok {
		return true
	}
	for _, w := range wordPattern.FindAllString(lower, -1) {
		if _, ok := endTokens[w]; ok {
			return true
		}
	}
	return false
}

// FieldValidator normalizes one field into a record.
type FieldValidator interface {
	Apply(ctx context.Context, rec *candidate.Record, field candidate.Field, text string) (validate.Result, error)
}

// QuestionSource generates and grades interview questions.
type QuestionSource interface {
	Generate(ctx context.Context, req interview.Request) ([]interview.Question, string)
	Grade(ctx context.Context, q interview.Question, answer, language string) interview.Answer
}

// ProfileLoader fetches the personalization profile stored for an email.
// store.ErrNotFound means none is stored.
type ProfileLoader interface {
	LoadProfile(ctx context.Context, email string) (*candidate.Profile, error)
}

// Engine turns candidate input into assistant replies. It keeps no per
// conversation state of its own.
type Engine struct {
	validators FieldValidator
	questions  QuestionSource
	profiles   ProfileLoader
	logger     *zap.Logger
}

// NewEngine wires the collaborators. profiles may be nil.
func NewEngine(validators FieldValidator, questions QuestionSource, profiles ProfileLoader, log *zap.Logger) *Engine {
	return &Engine{
		validators: validators,
		questions:  questions,
		profiles:   profiles,
		logger:     logger.WithFields(log),
	}
}

// Start greets the candidate and asks for the first missing field. A resumed
// record that is already complete goes straight to the questions.
func (e *Engine) Start(ctx context.Context, s *Session) []string {
	if s.Phase != PhaseGreet {
		return nil
	}

	replies := []string{text(s.Language, msgGreet)}
	s.advance(PhaseGather)
	e.log(s).Debug("session started")

	if field := candidate.NextMissing(s.Record); field != candidate.FieldNone {
		return append(replies, prompt(s.Language, field))
	}
	return append(replies, e.startQuestions(ctx, s)...)
}

// Handle processes one candidate turn and returns the replies. End tokens are
// honoured in every phase.
func (e *Engine) Handle(ctx context.Context, s *Session, input string) []string {
	if s.Phase == PhaseEnd {
		return []string{msgClosed}
	}

	if IsEnd(input) {
		s.advance(PhaseEnd)
		e.log(s).Debug("session ended by candidate")
		return []string{text(s.Language, msgThanks)}
	}

	switch s.Phase {
	case PhaseGreet:
		replies := e.Start(ctx, s)
		return append(replies, e.Handle(ctx, s, input)...)
	case PhaseQuestions:
		return e.answer(ctx, s, input)
	case PhaseWrapup:
		return []string{msgNoted}
	default:
		return e.gather(ctx, s, input)
	}
}

func (e *Engine) gather(ctx context.Context, s *Session, input string) []string {
	if s.Record.Language == "" {
		s.Record.Language = s.Language
	}

	field := candidate.NextMissing(s.Record)
	if field == candidate.FieldNone {
		return e.startQuestions(ctx, s)
	}

	res, err := e.validators.Apply(ctx, s.Record, field, strings.TrimSpace(input))
	if err != nil {
		replies := []string{invalid(field)}
		if f, ok := validate.AsFailure(err); ok && f.Hint != "" {
			replies = append(replies, f.Hint)
		}
		return append(replies, prompt(s.Language, field))
	}
	if res.Declined {
		return []string{msgDeclined}
	}

	var replies []string
	if res.Warning != "" {
		replies = append(replies, res.Warning)
	}

	switch field {
	case candidate.FieldEmail:
		e.loadProfile(ctx, s)
	case candidate.FieldTechStack:
		s.Profile.MergeTopics(s.Record.TechStack.Topics())
	}

	if next := candidate.NextMissing(s.Record); next != candidate.FieldNone {
		return append(replies, prompt(s.Language, next))
	}
	return append(replies, e.startQuestions(ctx, s)...)
}

func (e *Engine) loadProfile(ctx context.Context, s *Session) {
	if e.profiles == nil {
		return
	}
	p, err := e.profiles.LoadProfile(ctx, s.Record.Email)
	if errors.Is(err, store.ErrNotFound) {
		return
	}
	if err != nil {
		e.log(s).Warn("failed to load profile", zap.Error(err))
		return
	}
	if p != nil {
		s.ApplyProfile(p)
		e.log(s).Debug("profile loaded",
			zap.String("language", s.Language),
			zap.String("preferred_difficulty", s.Profile.PreferredDifficulty),
		)
	}
}

func (e *Engine) startQuestions(ctx context.Context, s *Session) []string {
	lang := s.Record.Language
	if lang == "" {
		lang = s.Language
	}

	questions, diag := e.questions.Generate(ctx, interview.Request{
		Stack:               s.Record.TechStack,
		Language:            lang,
		PreferredDifficulty: s.Profile.PreferredDifficulty,
		RecentTopics:        s.priorTopics,
	})
	s.Questions = questions
	s.Index = 0
	s.Answers = nil
	s.Diagnostic = diag

	if diag != "" {
		e.log(s).Info("questions prepared from fallback", zap.String("diagnostic", diag))
	}
	if len(questions) == 0 {
		return []string{msgNoQuestions}
	}

	s.advance(PhaseQuestions)
	return []string{questionLine(0, questions[0])}
}

func (e *Engine) answer(ctx context.Context, s *Session, input string) []string {
	q, ok := s.Current()
	if !ok {
		return []string{msgNoMore}
	}

	a := e.questions.Grade(ctx, q, input, s.Language)
	s.Answers = append(s.Answers, a)
	s.Index++

	replies := []string{evaluation(a), Progress(s)}
	if next, ok := s.Current(); ok {
		return append(replies, questionLine(s.Index, next))
	}

	s.advance(PhaseWrapup)
	return append(replies, msgDone)
}

func (e *Engine) log(s *Session) *zap.Logger {
	return logger.WithSession(e.logger, s.ID).With(zap.String(logger.FieldPhase, string(s.Phase)))
}
