package stack

import (
	"fmt"
	"strings"

	"github.com/spigell/talentscout/internal/candidate"
)

func items(s *candidate.TechStack, cat Category) []string {
	if s == nil {
		return nil
	}
	switch cat {
	case Languages:
		return s.Languages
	case Frameworks:
		return s.Frameworks
	case Databases:
		return s.Databases
	case Tools:
		return s.Tools
	}
	return nil
}

// Format renders a stack as labeled lines, one per non-empty category.
// Classify accepts the output and returns the same stack.
func Format(s *candidate.TechStack) string {
	var lines []string
	for _, cat := range Categories {
		if list := items(s, cat); len(list) > 0 {
			lines = append(lines, fmt.Sprintf("%s: %s", cat, strings.Join(list, ", ")))
		}
	}
	return strings.Join(lines, "\n")
}
