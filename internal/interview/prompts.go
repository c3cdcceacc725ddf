package interview

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	_ "embed"

	"github.com/spigell/talentscout/internal/candidate"
)

const (
	systemPrompt = "You are a concise, fair technical interviewer. " +
		"Generate clear, unambiguous questions and keep outputs in JSON when asked."

	graderPrompt = "You are a strict but fair technical interviewer. Reply with JSON only."

	noExamples = "No examples."
)

//go:embed prompts/generate.md
var generateTemplate string

//go:embed prompts/grade.md
var gradeTemplate string

//go:embed prompts/fewshots.json
var fewShotsJSON []byte

var fewShots = mustFewShots(fewShotsJSON)

func mustFewShots(raw []byte) map[string][]Question {
	out := make(map[string][]Question)
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(fmt.Sprintf("interview: parse embedded few-shots: %v", err))
	}
	return out
}

// examplesFor collects few-shot questions for the focus topics, limited to
// max(perTopic, 3) items.
func examplesFor(topics []string, perTopic int) []Question {
	limit := perTopic
	if limit < 3 {
		limit = 3
	}

	var out []Question
	for _, t := range topics {
		out = append(out, fewShots[t]...)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func formatStack(s *candidate.TechStack) string {
	if s == nil {
		s = &candidate.TechStack{}
	}
	return fmt.Sprintf("Languages: %s\nFrameworks: %s\nDatabases: %s\nTools: %s",
		strings.Join(s.Languages, ", "),
		strings.Join(s.Frameworks, ", "),
		strings.Join(s.Databases, ", "),
		strings.Join(s.Tools, ", "),
	)
}

func difficultyHint(preferred string, recent []string) string {
	var hint string
	switch d := strings.ToLower(strings.TrimSpace(preferred)); d {
	case "", DifficultyAuto:
		hint = "Mix beginner, intermediate and advanced difficulty."
	default:
		hint = fmt.Sprintf("Prefer '%s' difficulty where reasonable.", d)
	}
	if len(recent) > 0 {
		hint += " Recently covered topics: " + strings.Join(recent, ", ") + "."
	}
	return hint
}

func buildGeneratePrompt(req Request, topics []string, perTopic int) string {
	template := generateTemplate
	if strings.TrimSpace(template) == "" {
		template = "Declared tech stack:\n{{STACK}}\n\nRespond in ISO language '{{LANGUAGE}}'. Return JSON only."
	}

	language := strings.TrimSpace(req.Language)
	if language == "" {
		language = candidate.DefaultLanguage
	}

	prompt := strings.ReplaceAll(template, "{{STACK}}", formatStack(req.Stack))
	prompt = strings.ReplaceAll(prompt, "{{TOPICS}}", strings.Join(topics, ", "))
	prompt = strings.ReplaceAll(prompt, "{{PER_TOPIC}}", strconv.Itoa(perTopic))
	prompt = strings.ReplaceAll(prompt, "{{DIFFICULTY}}", difficultyHint(req.PreferredDifficulty, req.RecentTopics))
	prompt = strings.ReplaceAll(prompt, "{{LANGUAGE}}", language)
	return strings.TrimSpace(prompt)
}

func buildRubric(q Question) string {
	rubric := strings.ReplaceAll(gradeTemplate, "{{TOPIC}}", q.Topic)
	rubric = strings.ReplaceAll(rubric, "{{DIFFICULTY}}", q.Difficulty)
	return strings.TrimSpace(rubric)
}
