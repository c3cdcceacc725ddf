// Package ai defines the chat backend abstraction, its error taxonomy and the
// retrying call wrapper used by the interview orchestrator.
package ai

import (
	"context"
	"strings"
	"time"
)

// Backend kinds accepted in configuration.
const (
	KindGemini    = "gemini"
	KindAnthropic = "anthropic"
	KindOpenAI    = "openai"
	KindOllama    = "ollama"
	KindNone      = "none"
)

// Role of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat turn.
type Message struct {
	Role    Role
	Content string
}

// Params are per-call settings.
type Params struct {
	Model       string
	Temperature float64
	Timeout     time.Duration
	MaxTokens   int
}

// Backend sends a conversation to a language model and returns its text reply.
type Backend interface {
	Name() string
	Chat(ctx context.Context, messages []Message, params Params) (string, error)
}

// Grader is implemented by backends that declare whether they can grade answers.
type Grader interface {
	CanGrade() bool
}

// CanGrade reports whether b may be used for rubric grading. Backends that do
// not implement Grader are assumed capable.
func CanGrade(b Backend) bool {
	if b == nil {
		return false
	}
	if g, ok := b.(Grader); ok {
		return g.CanGrade()
	}
	return true
}

// SplitSystem separates system messages from the rest of the conversation.
// Multiple system messages are joined with a blank line.
func SplitSystem(messages []Message) (string, []Message) {
	var (
		system []string
		rest   = make([]Message, 0, len(messages))
	)
	for _, m := range messages {
		if m.Role == RoleSystem {
			if s := strings.TrimSpace(m.Content); s != "" {
				system = append(system, s)
			}
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(system, "\n\n"), rest
}

// Unconfigured is the backend used when no provider is configured. Every call
// fails with ErrUnconfigured so callers take their deterministic paths.
type Unconfigured struct {
	Kind string
}

func (u Unconfigured) Name() string {
	if u.Kind == "" {
		return KindNone
	}
	return u.Kind
}

func (u Unconfigured) Chat(context.Context, []Message, Params) (string, error) {
	return "", &Error{Kind: ErrUnconfigured, Provider: u.Name()}
}

func (Unconfigured) CanGrade() bool { return false }
