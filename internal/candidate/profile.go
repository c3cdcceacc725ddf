package candidate

import "strings"

const (
	// MaxRecentTopics bounds Profile.RecentTopics.
	MaxRecentTopics = 8

	DifficultyAuto = "auto"
)

// Profile holds personalization preferences keyed by the candidate's email.
type Profile struct {
	Language            string   `json:"language,omitempty"`
	PreferredDifficulty string   `json:"preferred_difficulty"`
	RecentTopics        []string `json:"recent_topics"`
}

// NewProfile returns a profile with automatic difficulty and no history.
func NewProfile() *Profile {
	return &Profile{PreferredDifficulty: DifficultyAuto, RecentTopics: []string{}}
}

// MergeTopics puts topics in front of the recent history, dropping repeats
// and keeping at most MaxRecentTopics entries in first-seen order.
func (p *Profile) MergeTopics(topics []string) {
	p.RecentTopics = RecentTopics(append(append([]string{}, topics...), p.RecentTopics...))
}

// RecentTopics dedupes topics case-insensitively and truncates the result to
// MaxRecentTopics.
func RecentTopics(topics []string) []string {
	seen := make(map[string]struct{}, len(topics))
	out := make([]string, 0, MaxRecentTopics)
	for _, t := range topics {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
		if len(out) == MaxRecentTopics {
			break
		}
	}
	return out
}
