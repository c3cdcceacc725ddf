package candidate

import (
	"reflect"
	"testing"
)

func TestRecentTopicsDedupesAndCaps(t *testing.T) {
	in := []string{"Python", "python", " Docker ", "", "Go", "Rust", "Java", "C#", "Kotlin", "Swift", "Scala", "PHP"}
	want := []string{"Python", "Docker", "Go", "Rust", "Java", "C#", "Kotlin", "Swift"}

	if got := RecentTopics(in); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected topics: %v", got)
	}
}

func TestMergeTopicsPutsNewFirst(t *testing.T) {
	p := NewProfile()
	p.RecentTopics = []string{"Go", "Docker"}

	p.MergeTopics([]string{"Python", "Docker"})

	want := []string{"Python", "Docker", "Go"}
	if !reflect.DeepEqual(p.RecentTopics, want) {
		t.Fatalf("unexpected topics: %v", p.RecentTopics)
	}
	if p.PreferredDifficulty != DifficultyAuto {
		t.Fatalf("unexpected difficulty %q", p.PreferredDifficulty)
	}
}
