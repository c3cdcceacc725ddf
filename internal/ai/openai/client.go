// Package openai talks to OpenAI-compatible /chat/completions endpoints. It
// serves both the "openai" and the local "ollama" backend kinds.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/talentscout/internal/ai"
	"github.com/spigell/talentscout/internal/logger"
	"github.com/spigell/talentscout/internal/utils"
)

const (
	DefaultOpenAIURL = "https://api.openai.com/v1"
	DefaultOllamaURL = "http://localhost:11434/v1"

	defaultOpenAIModel = "gpt-4o-mini"
	defaultOllamaModel = "llama3.1"

	snippetLimit = 512
	maxLogLen    = 200
)

// Config describes one OpenAI-compatible endpoint.
type Config struct {
	Kind    string
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client is an OpenAI-compatible chat backend.
type Client struct {
	kind       string
	baseURL    string
	apiKey     string
	model      string
	userAgent  string
	HTTPClient *http.Client
	logger     *zap.Logger
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// New builds a client. The openai kind requires an API key; ollama does not.
func New(cfg Config, log *zap.Logger) (*Client, error) {
	kind := strings.ToLower(strings.TrimSpace(cfg.Kind))
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	model := strings.TrimSpace(cfg.Model)

	switch kind {
	case ai.KindOpenAI:
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, errors.New("openai api key is required")
		}
		if baseURL == "" {
			baseURL = DefaultOpenAIURL
		}
		if model == "" {
			model = defaultOpenAIModel
		}
	case ai.KindOllama:
		if baseURL == "" {
			baseURL = DefaultOllamaURL
		}
		if model == "" {
			model = defaultOllamaModel
		}
	default:
		return nil, fmt.Errorf("unsupported openai-compatible kind %q", cfg.Kind)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		kind:       kind,
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		model:      model,
		userAgent:  "talentscout",
		HTTPClient: &http.Client{Timeout: timeout},
		logger:     logger.WithBackend(log, kind, model),
	}, nil
}

func (c *Client) Name() string { return c.kind }

// CanGrade is false for ollama: small local models grade unreliably, so the
// heuristic grader is used instead.
func (c *Client) CanGrade() bool { return c.kind != ai.KindOllama }

func (c *Client) Chat(ctx context.Context, messages []ai.Message, params ai.Params) (string, error) {
	if len(messages) == 0 {
		return "", &ai.Error{Kind: ai.ErrBadRequest, Provider: c.kind, Err: errors.New("no messages to send")}
	}

	model := c.model
	if m := strings.TrimSpace(params.Model); m != "" {
		model = m
	}

	body := chatRequest{
		Model:       model,
		Temperature: params.Temperature,
		MaxTokens:   params.MaxTokens,
	}
	for _, m := range messages {
		body.Messages = append(body.Messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", &ai.Error{Kind: ai.ErrUnconfigured, Provider: c.kind, Err: err}
	}
	c.setHeaders(req)

	c.logger.Debug("sending chat completion",
		zap.Int("messages", len(messages)),
		zap.String("prompt_preview", utils.TruncateForLog(messages[len(messages)-1].Content, maxLogLen)),
	)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", ai.Classify(c.kind, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", ai.Classify(c.kind, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := errorMessage(raw)
		c.logger.Debug("chat completion failed",
			zap.Int("status", resp.StatusCode),
			zap.String("body", utils.TruncateForLog(string(raw), snippetLimit)),
		)
		return "", ai.FromStatus(c.kind, resp.StatusCode, msg, nil)
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", &ai.Error{Kind: ai.ErrAPI, Provider: c.kind, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", &ai.Error{Kind: ai.ErrAPI, Provider: c.kind, Status: resp.StatusCode, Err: errors.New("empty choices")}
	}

	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// errorMessage extracts the provider message, falling back to the raw body.
func errorMessage(raw []byte) string {
	var e errorResponse
	if err := json.Unmarshal(raw, &e); err == nil && e.Error.Message != "" {
		if e.Error.Type != "" {
			return e.Error.Type + ": " + e.Error.Message
		}
		return e.Error.Message
	}
	return utils.TruncateForLog(string(raw), snippetLimit)
}
