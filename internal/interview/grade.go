package interview

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/talentscout/internal/ai"
)

const (
	passFeedback    = "Covers several key concepts."
	improveFeedback = "Add key concepts and a small code/example to strengthen the answer."

	minKeywordHits = 2
	minAnswerRunes = 80
)

var topicKeywords = map[string][]string{
	"python":     {"function", "class", "list", "dict", "loop", "with", "context", "generator", "example"},
	"django":     {"model", "view", "template", "orm", "queryset", "middleware", "settings", "migration"},
	"react":      {"state", "props", "hook", "component", "useeffect", "memo", "render", "jsx"},
	"sql":        {"select", "join", "index", "transaction", "foreign key", "where", "group by", "explain"},
	"docker":     {"image", "container", "dockerfile", "build", "compose", "registry", "volume", "network"},
	"kubernetes": {"pod", "deployment", "service", "ingress", "namespace", "cluster", "helm", "scaling"},
	"pytorch":    {"tensor", "autograd", "module", "optimizer", "dataset", "dataloader", "backward"},
}

// Grade evaluates an answer. The backend is consulted only when evaluation is
// enabled and it can grade; any failure or unrecognized verdict falls back to
// the keyword heuristic.
func (o *Orchestrator) Grade(ctx context.Context, q Question, answer, language string) Answer {
	out := Answer{Question: q, Text: answer}

	if !o.opts.EvaluateAnswers || !ai.CanGrade(o.backend) {
		g := HeuristicGrade(q, answer)
		out.Verdict, out.Feedback = g.Verdict, g.Feedback
		return out
	}

	g, err := o.gradeWithModel(ctx, q, answer, language)
	if err != nil {
		o.logger.Debug("model grading unavailable, using heuristic",
			zap.String("topic", q.Topic),
			zap.Error(err),
		)
		g = HeuristicGrade(q, answer)
	}
	out.Verdict, out.Feedback = g.Verdict, g.Feedback
	return out
}

func (o *Orchestrator) gradeWithModel(ctx context.Context, q Question, answer, language string) (Grade, error) {
	payload, err := json.Marshal(map[string]string{
		"rubric":   buildRubric(q),
		"question": q.Question,
		"answer":   answer,
		"language": language,
	})
	if err != nil {
		return Grade{}, fmt.Errorf("marshal grading request: %w", err)
	}

	messages := []ai.Message{
		{Role: ai.RoleSystem, Content: graderPrompt},
		{Role: ai.RoleUser, Content: string(payload)},
	}

	res := o.retrier.Call(ctx, o.backend, messages, o.params(o.opts.GradeTemperature))
	if !res.OK {
		return Grade{}, fmt.Errorf("grading call failed (%s): %w", res.Reason, res.Err)
	}

	doc := ai.ExtractJSON(res.Content)
	verdict := normalizeVerdict(coerceString(doc["verdict"]))
	if verdict == "" {
		return Grade{}, fmt.Errorf("unrecognized verdict %q", coerceString(doc["verdict"]))
	}

	return Grade{Verdict: verdict, Feedback: coerceString(doc["feedback"])}, nil
}

func normalizeVerdict(raw string) Verdict {
	v := Verdict(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), " ", "_"))
	switch v {
	case VerdictPass, VerdictNeedsImprovement:
		return v
	}
	return ""
}

// HeuristicGrade passes an answer that mentions at least two topic keywords or
// runs to at least 80 characters once trimmed.
func HeuristicGrade(q Question, answer string) Grade {
	text := " " + strings.ToLower(answer) + " "

	hits := 0
	for _, kw := range topicKeywords[strings.ToLower(strings.TrimSpace(q.Topic))] {
		if strings.Contains(text, kw) {
			hits++
		}
	}

	if hits >= minKeywordHits || utf8.RuneCountInString(strings.TrimSpace(answer)) >= minAnswerRunes {
		return Grade{Verdict: VerdictPass, Feedback: passFeedback}
	}
	return Grade{Verdict: VerdictNeedsImprovement, Feedback: improveFeedback}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
