package ai

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fencedBlock = regexp.MustCompile("(?s)```[A-Za-z]*\\s*(.*?)```")

// ExtractJSON pulls the first JSON document out of a model reply. It tries a
// fenced code block, then every balanced {...} or [...] in the prose in order,
// then the raw text. Each candidate may also be a JSON string holding encoded
// JSON. Top-level arrays are wrapped under "questions" when their items carry
// a "question" key and under "items" otherwise. An empty map is returned when
// nothing parses.
func ExtractJSON(text string) map[string]any {
	text = strings.TrimSpace(text)
	if text == "" {
		return map[string]any{}
	}

	var candidates []string
	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	candidates = append(candidates, spans(text)...)
	candidates = append(candidates, text)

	for _, c := range candidates {
		if v, ok := decode(c); ok {
			return v
		}
		if v, ok := decodeEncoded(c); ok {
			return v
		}
	}

	return map[string]any{}
}

// decodeEncoded handles a JSON string whose value is itself JSON.
func decodeEncoded(s string) (map[string]any, bool) {
	var inner string
	if err := json.Unmarshal([]byte(s), &inner); err != nil {
		return nil, false
	}
	return decode(strings.TrimSpace(inner))
}

func decode(s string) (map[string]any, bool) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}

	switch doc := v.(type) {
	case map[string]any:
		return doc, true
	case []any:
		return wrapArray(doc), true
	default:
		return nil, false
	}
}

func wrapArray(items []any) map[string]any {
	for _, it := range items {
		if obj, ok := it.(map[string]any); ok {
			if _, has := obj["question"]; has {
				return map[string]any{"questions": items}
			}
		}
	}
	return map[string]any{"items": items}
}

// maxSpans bounds how many bracketed spans are tried in one reply.
const maxSpans = 16

// spans returns the bracketed substrings of text in order of their opening
// bracket. A span that never closes is skipped and the scan resumes after
// its opening bracket.
func spans(text string) []string {
	var out []string
	for from := 0; from < len(text) && len(out) < maxSpans; {
		i := strings.IndexAny(text[from:], "{[")
		if i < 0 {
			break
		}
		start := from + i
		if end, ok := balanced(text, start); ok {
			out = append(out, text[start:end])
			from = end
			continue
		}
		from = start + 1
	}
	return out
}

// balanced returns the end offset of the bracketed span opening at start,
// ignoring brackets inside JSON strings.
func balanced(text string, start int) (int, bool) {
	var (
		stack    []byte
		inString bool
		escaped  bool
	)
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return 0, false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}
