// Package session drives one screening conversation: it gathers the
// candidate record field by field, then runs the technical question loop.
package session

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/spigell/talentscout/internal/candidate"
	"github.com/spigell/talentscout/internal/interview"
)

// Phase is the stage of a conversation.
type Phase string

const (
	PhaseGreet     Phase = "greet"
	PhaseGather    Phase = "gather"
	PhaseQuestions Phase = "questions"
	PhaseWrapup    Phase = "wrapup"
	PhaseEnd       Phase = "end"
)

var phaseOrder = map[Phase]int{
	PhaseGreet:     0,
	PhaseGather:    1,
	PhaseQuestions: 2,
	PhaseWrapup:    3,
	PhaseEnd:       4,
}

var languagePattern = regexp.MustCompile(`^[A-Za-z]{2,3}(-[A-Za-z]{2})?$`)

// ValidLanguage reports whether code looks like an ISO language tag such as
// "en" or "en-US".
func ValidLanguage(code string) bool {
	return languagePattern.MatchString(strings.TrimSpace(code))
}

// Session is the state of one conversation. It is owned by the caller and
// passed explicitly to every Engine call.
type Session struct {
	ID        string
	Phase     Phase
	Record    *candidate.Record
	Questions []interview.Question
	Index     int
	Answers   []interview.Answer
	Language  string
	Profile   *candidate.Profile

	// Diagnostic is the generation diagnostic, e.g. "fallback:timeout".
	Diagnostic string

	languageFixed bool
	priorTopics   []string
}

// New starts a session for rec. A nil rec starts from an empty record and an
// empty id generates a fresh one.
func New(id string, rec *candidate.Record) *Session {
	if rec == nil {
		rec = candidate.New()
	}
	if strings.TrimSpace(id) == "" {
		id = NewID()
	}

	lang := rec.Language
	if lang == "" {
		lang = candidate.DefaultLanguage
	}

	return &Session{
		ID:       id,
		Phase:    PhaseGreet,
		Record:   rec,
		Language: lang,
		Profile:  candidate.NewProfile(),
	}
}

// NewID returns a short random record id.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// SetLanguage fixes the conversation language so a stored profile cannot
// replace it. Invalid codes are ignored and reported as false.
func (s *Session) SetLanguage(code string) bool {
	code = strings.TrimSpace(code)
	if !ValidLanguage(code) {
		return false
	}
	s.Language = code
	s.Record.Language = code
	s.languageFixed = true
	return true
}

// SetDifficulty sets the preferred question difficulty.
func (s *Session) SetDifficulty(d string) bool {
	d = strings.ToLower(strings.TrimSpace(d))
	if !interview.ValidDifficulty(d) {
		return false
	}
	s.Profile.PreferredDifficulty = d
	return true
}

// ApplyProfile merges a stored profile into the session.
func (s *Session) ApplyProfile(p *candidate.Profile) {
	if p == nil {
		return
	}
	if lang := strings.TrimSpace(p.Language); lang != "" && !s.languageFixed && ValidLanguage(lang) {
		s.Language = lang
		s.Record.Language = lang
	}
	if d := strings.ToLower(strings.TrimSpace(p.PreferredDifficulty)); d != "" && interview.ValidDifficulty(d) {
		s.Profile.PreferredDifficulty = d
	}
	if len(p.RecentTopics) > 0 {
		s.priorTopics = candidate.RecentTopics(p.RecentTopics)
		s.Profile.RecentTopics = append([]string{}, s.priorTopics...)
	}
}

// ProfileSnapshot returns the profile to persist for the candidate's email.
func (s *Session) ProfileSnapshot() *candidate.Profile {
	return &candidate.Profile{
		Language:            s.Language,
		PreferredDifficulty: s.Profile.PreferredDifficulty,
		RecentTopics:        append([]string{}, s.Profile.RecentTopics...),
	}
}

// Current returns the question awaiting an answer.
func (s *Session) Current() (interview.Question, bool) {
	if s.Index < 0 || s.Index >= len(s.Questions) {
		return interview.Question{}, false
	}
	return s.Questions[s.Index], true
}

// Ended reports whether the conversation is over.
func (s *Session) Ended() bool {
	return s.Phase == PhaseEnd
}

// advance moves the session forward. Moves backwards are ignored.
func (s *Session) advance(p Phase) {
	if phaseOrder[p] > phaseOrder[s.Phase] {
		s.Phase = p
	}
}
