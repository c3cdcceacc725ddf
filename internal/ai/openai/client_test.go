package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/talentscout/internal/ai"
)

func TestChatPostsCompletion(t *testing.T) {
	var got chatRequest
	var auth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		_, _ = w.Write([]byte(`{"model":"gpt-test","choices":[{"message":{"role":"assistant","content":"  {\"questions\": []}  "}}]}`))
	}))
	defer srv.Close()

	c, err := New(Config{Kind: "openai", BaseURL: srv.URL + "/v1/", APIKey: "sk-test", Model: "gpt-test"}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := c.Chat(context.Background(), []ai.Message{
		{Role: ai.RoleSystem, Content: "sys"},
		{Role: ai.RoleUser, Content: "generate"},
	}, ai.Params{Temperature: 0.2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out != `{"questions": []}` {
		t.Fatalf("unexpected output %q", out)
	}
	if auth != "Bearer sk-test" {
		t.Fatalf("unexpected auth header %q", auth)
	}
	if got.Model != "gpt-test" || got.Temperature != 0.2 || len(got.Messages) != 2 || got.Messages[0].Role != "system" {
		t.Fatalf("unexpected request: %+v", got)
	}
}

func TestChatMapsErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   error
	}{
		{name: "quota", status: http.StatusTooManyRequests, body: `{"error":{"message":"You exceeded your current quota","type":"insufficient_quota"}}`, kind: ai.ErrQuotaExhausted},
		{name: "rate", status: http.StatusTooManyRequests, body: `{"error":{"message":"Rate limit reached","type":"requests"}}`, kind: ai.ErrRateLimited},
		{name: "auth", status: http.StatusUnauthorized, body: `{"error":{"message":"Incorrect API key"}}`, kind: ai.ErrUnconfigured},
		{name: "server", status: http.StatusBadGateway, body: `upstream failure`, kind: ai.ErrAPI},
		{name: "empty choices", status: http.StatusOK, body: `{"choices":[]}`, kind: ai.ErrAPI},
		{name: "garbage", status: http.StatusOK, body: `not json`, kind: ai.ErrAPI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, err := New(Config{Kind: "openai", BaseURL: srv.URL, APIKey: "k"}, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			_, err = c.Chat(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "hi"}}, ai.Params{})
			if !errors.Is(err, tt.kind) {
				t.Fatalf("expected %v, got %v", tt.kind, err)
			}
		})
	}
}

func TestChatConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := New(Config{Kind: "ollama", BaseURL: url}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = c.Chat(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "hi"}}, ai.Params{})
	if !errors.Is(err, ai.ErrConnection) {
		t.Fatalf("expected connection error, got %v", err)
	}
}

func TestNewValidatesKind(t *testing.T) {
	if _, err := New(Config{Kind: "openai"}, nil); err == nil {
		t.Fatalf("expected missing key error")
	}
	if _, err := New(Config{Kind: "bard"}, nil); err == nil {
		t.Fatalf("expected unsupported kind error")
	}

	c, err := New(Config{Kind: "Ollama"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.CanGrade() || ai.CanGrade(c) {
		t.Fatalf("ollama must not grade")
	}
	if c.baseURL != DefaultOllamaURL || c.Name() != ai.KindOllama {
		t.Fatalf("unexpected defaults: %s %s", c.baseURL, c.Name())
	}
}
