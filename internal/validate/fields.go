package validate

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spigell/talentscout/internal/candidate"
)

var (
	nonWord      = regexp.MustCompile(`[^\p{L}\p{N}_]+`)
	nameToken    = regexp.MustCompile(`^[A-Za-z][A-Za-z.'\-]+$`)
	roleItem     = regexp.MustCompile(`^[A-Za-z0-9 /&+\-_.]{2,50}$`)
	roleWords    = regexp.MustCompile(`[a-z]+`)
	listSplitter = regexp.MustCompile(`[;,]`)
)

var affirmative = map[string]struct{}{
	"y": {}, "yes": {}, "yeah": {}, "yep": {}, "yup": {}, "sure": {}, "ok": {}, "okay": {},
	"affirmative": {}, "agree": {}, "si": {}, "sí": {}, "oui": {}, "da": {},
}

var techRoleKeywords = map[string]struct{}{
	"engineer": {}, "developer": {}, "dev": {}, "data": {}, "ml": {}, "ai": {}, "machine": {},
	"learning": {}, "backend": {}, "front": {}, "frontend": {}, "full": {}, "stack": {},
	"fullstack": {}, "devops": {}, "site": {}, "reliability": {}, "sre": {}, "mobile": {},
	"android": {}, "ios": {}, "qa": {}, "test": {}, "testing": {}, "automation": {}, "cloud": {},
	"platform": {}, "security": {}, "analyst": {}, "scientist": {}, "architect": {}, "etl": {},
	"mle": {}, "nlp": {}, "cv": {}, "vision": {}, "infra": {}, "infrastructure": {},
}

// Consent reports whether text reads as agreement.
func Consent(text string) bool {
	t := strings.ToLower(nonWord.ReplaceAllString(strings.TrimSpace(text), ""))
	if t == "" {
		return false
	}
	if _, ok := affirmative[t]; ok {
		return true
	}
	return strings.HasPrefix(t, "y")
}

// FullName requires at least two name tokens and capitalizes each of them.
func FullName(text string) (string, error) {
	parts := strings.Fields(text)
	if len(parts) < 2 {
		return "", failf(candidate.FieldFullName, ReasonFormat, "expected first and last name, got %d tokens", len(parts))
	}

	for _, p := range parts {
		if !nameToken.MatchString(p) {
			return "", failf(candidate.FieldFullName, ReasonFormat, "token %q has unsupported characters", p)
		}
	}

	joined := strings.Join(parts, " ")
	if n := utf8.RuneCountInString(joined); n < 4 || n > 100 {
		return "", failf(candidate.FieldFullName, ReasonRange, "name length %d outside 4-100", n)
	}

	for i, p := range parts {
		parts[i] = capitalize(p)
	}
	return strings.Join(parts, " "), nil
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// Years parses years of experience in the range 0-60.
func Years(text string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, fail(candidate.FieldYearsExperience, ReasonFormat, err)
	}
	if math.IsNaN(v) || v < 0 || v > 60 {
		return 0, failf(candidate.FieldYearsExperience, ReasonRange, "years %v outside 0-60", v)
	}
	return v, nil
}

// Positions splits a list of desired roles. Every item must look like a
// technical role. Duplicates are kept.
func Positions(text string) ([]string, error) {
	var items []string
	for _, it := range listSplitter.Split(text, -1) {
		if it = strings.TrimSpace(it); it != "" {
			items = append(items, it)
		}
	}
	if len(items) == 0 {
		return nil, fail(candidate.FieldDesiredPositions, ReasonFormat, errors.New("no roles given"))
	}

	for _, it := range items {
		if !roleItem.MatchString(it) {
			return nil, failf(candidate.FieldDesiredPositions, ReasonFormat, "role %q has invalid characters", it)
		}
		if !technicalRole(it) {
			return nil, failf(candidate.FieldDesiredPositions, ReasonSemantic, "role %q seems non-technical", it)
		}
	}
	return items, nil
}

func technicalRole(role string) bool {
	for _, w := range roleWords.FindAllString(strings.ToLower(role), -1) {
		if _, ok := techRoleKeywords[w]; ok {
			return true
		}
	}
	return false
}

// TechStack classifies text and rejects a stack with no recognized items.
func (v *Validators) TechStack(text string) (*candidate.TechStack, error) {
	ts := v.classifier.Classify(text)
	if ts.Empty() {
		return nil, &Failure{
			Field:  candidate.FieldTechStack,
			Reason: ReasonSemantic,
			Hint:   "Please enter items like 'Python, Django, PostgreSQL, Docker'.",
			Err:    errors.New("no known technologies"),
		}
	}
	return ts, nil
}
