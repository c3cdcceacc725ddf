package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/talentscout/internal/ai"
	"github.com/spigell/talentscout/internal/candidate"
	"github.com/spigell/talentscout/internal/interview"
	"github.com/spigell/talentscout/internal/store"
)

func TestNewBackend(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	tests := []struct {
		name      string
		cfg       LLMConfig
		wantName  string
		wantGrade bool
	}{
		{name: "empty provider", cfg: LLMConfig{}, wantName: ai.KindNone},
		{name: "none", cfg: LLMConfig{Provider: "none"}, wantName: ai.KindNone},
		{name: "unknown provider", cfg: LLMConfig{Provider: "Bard"}, wantName: "bard"},
		{name: "gemini without key", cfg: LLMConfig{Provider: "gemini"}, wantName: ai.KindGemini},
		{name: "openai without key", cfg: LLMConfig{Provider: "openai"}, wantName: ai.KindOpenAI},
		{name: "openai with key", cfg: LLMConfig{Provider: "openai", APIKey: "sk-test"}, wantName: ai.KindOpenAI, wantGrade: true},
		{name: "anthropic with key", cfg: LLMConfig{Provider: "anthropic", APIKey: "sk-ant-test"}, wantName: ai.KindAnthropic, wantGrade: true},
		{name: "ollama needs no key", cfg: LLMConfig{Provider: "ollama"}, wantName: ai.KindOllama},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			b := newBackend(context.Background(), &cfg, zap.NewNop())
			if b.Name() != tt.wantName {
				t.Fatalf("expected backend %q, got %q", tt.wantName, b.Name())
			}
			if got := ai.CanGrade(b); got != tt.wantGrade {
				t.Fatalf("expected CanGrade %v, got %v", tt.wantGrade, got)
			}
		})
	}
}

func TestNewBackendReadsKeyFromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")

	b := newBackend(context.Background(), &LLMConfig{Provider: "openai"}, zap.NewNop())
	if _, ok := b.(ai.Unconfigured); ok {
		t.Fatal("expected a configured backend when the env key is set")
	}
}

func TestNewOrchestratorInheritsLLMSettings(t *testing.T) {
	cfg := &Config{
		LLM:       &LLMConfig{Provider: "none", Model: "gpt-4o-mini", Timeout: 12, MaxTokens: 512},
		Interview: interview.Options{QuestionsPerTopic: 2, MaxTopics: 1},
	}

	o := newOrchestrator(context.Background(), cfg, zap.NewNop())
	opts := o.Options()
	if opts.Model != "gpt-4o-mini" || opts.Timeout != 12 || opts.MaxTokens != 512 {
		t.Fatalf("expected llm model and timeout to be inherited, got %+v", opts)
	}

	questions, diag := o.Generate(context.Background(), interview.Request{
		Stack: &candidate.TechStack{Languages: []string{"Go", "Rust"}},
	})
	if diag != "fallback:unconfigured" {
		t.Fatalf("expected the offline path, got %q", diag)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions for one topic, got %d", len(questions))
	}
}

func TestNewValidatorsWithoutGeocoder(t *testing.T) {
	cfg := &Config{
		Validation: &ValidationConfig{DefaultRegion: "IN"},
		Geocoder:   &GeocoderConfig{},
	}

	v := newValidators(cfg, zap.NewNop())
	rec := candidate.New()
	if _, err := v.Apply(context.Background(), rec, candidate.FieldPhone, "98765 43210"); err != nil {
		t.Fatalf("expected a national number in the default region to pass: %v", err)
	}
	if !strings.HasPrefix(rec.Phone, "+91") {
		t.Fatalf("expected an E.164 number for IN, got %q", rec.Phone)
	}
}

func TestRecordsHelpers(t *testing.T) {
	ctx := context.Background()
	st, err := store.NewFileStore(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	if err := st.SaveRecord(ctx, "b2", completeRecord()); err != nil {
		t.Fatalf("SaveRecord returned error: %v", err)
	}
	if err := st.SaveRecord(ctx, "a1", completeRecord()); err != nil {
		t.Fatalf("SaveRecord returned error: %v", err)
	}

	var out bytes.Buffer
	if err := listRecords(ctx, st, &out); err != nil {
		t.Fatalf("listRecords returned error: %v", err)
	}
	if out.String() != "a1\nb2\n" {
		t.Fatalf("unexpected listing %q", out.String())
	}

	out.Reset()
	if err := showRecord(ctx, st, "a1", &out); err != nil {
		t.Fatalf("showRecord returned error: %v", err)
	}
	if !strings.Contains(out.String(), `"full_name": "Grace Hopper"`) {
		t.Fatalf("unexpected record output:\n%s", out.String())
	}

	if err := showRecord(ctx, st, "missing", &out); err == nil {
		t.Fatal("expected an error for a missing record")
	}
}

func TestPrintHelpers(t *testing.T) {
	var out bytes.Buffer
	s := &candidate.TechStack{Languages: []string{"Python"}, Tools: []string{"Docker"}}

	if err := printStack(&out, s, false); err != nil {
		t.Fatalf("printStack returned error: %v", err)
	}
	if out.String() != "languages: Python\ntools: Docker\n" {
		t.Fatalf("unexpected stack output %q", out.String())
	}

	out.Reset()
	qs := []interview.Question{{Topic: "Python", Question: "What is a generator?", Difficulty: interview.Beginner}}
	if err := printQuestions(&out, qs, false); err != nil {
		t.Fatalf("printQuestions returned error: %v", err)
	}
	if out.String() != "Q1. [Python, beginner] What is a generator?\n" {
		t.Fatalf("unexpected questions output %q", out.String())
	}
}
