// Package anthropic is the Claude chat backend.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/spigell/talentscout/internal/ai"
	"github.com/spigell/talentscout/internal/logger"
	"github.com/spigell/talentscout/internal/utils"
)

const (
	defaultModel     = "claude-sonnet-4-5"
	defaultMaxTokens = 1024
	maxLogLen        = 200
)

type messageSender interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Client sends chats to the Anthropic Messages API.
type Client struct {
	messages messageSender
	model    string
	logger   *zap.Logger
}

// NewClient builds a Claude backend. baseURL may be empty. SDK retries are
// disabled because ai.Retrier owns the retry policy.
func NewClient(apiKey, model, baseURL string, log *zap.Logger) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("anthropic api key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	client := anthropic.NewClient(opts...)
	return &Client{
		messages: &client.Messages,
		model:    model,
		logger:   logger.WithBackend(log, ai.KindAnthropic, model),
	}, nil
}

func (c *Client) Name() string { return ai.KindAnthropic }

func (c *Client) CanGrade() bool { return true }

func (c *Client) Chat(ctx context.Context, messages []ai.Message, params ai.Params) (string, error) {
	if c == nil || c.messages == nil {
		return "", &ai.Error{Kind: ai.ErrUnconfigured, Provider: ai.KindAnthropic}
	}

	system, turns := ai.SplitSystem(messages)
	if len(turns) == 0 {
		return "", &ai.Error{Kind: ai.ErrBadRequest, Provider: ai.KindAnthropic, Err: errors.New("no messages to send")}
	}

	model := c.model
	if m := strings.TrimSpace(params.Model); m != "" {
		model = m
	}
	maxTokens := int64(defaultMaxTokens)
	if params.MaxTokens > 0 {
		maxTokens = int64(params.MaxTokens)
	}

	body := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(params.Temperature),
		Messages:    toParams(turns),
	}
	if system != "" {
		body.System = []anthropic.TextBlockParam{{Text: system}}
	}

	c.logger.Debug("sending anthropic message",
		zap.Int("messages", len(turns)),
		zap.String("prompt_preview", utils.TruncateForLog(turns[len(turns)-1].Content, maxLogLen)),
	)

	resp, err := c.messages.New(ctx, body)
	if err != nil {
		return "", classify(err)
	}

	var parts []string
	for _, block := range resp.Content {
		if text := strings.TrimSpace(block.AsText().Text); text != "" {
			parts = append(parts, text)
		}
	}

	output := strings.Join(parts, "\n")
	if output == "" {
		return "", &ai.Error{Kind: ai.ErrAPI, Provider: ai.KindAnthropic, Err: errors.New("anthropic api returned empty response")}
	}
	return output, nil
}

func toParams(turns []ai.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(turns))
	for _, m := range turns {
		role := anthropic.MessageParamRoleUser
		if m.Role == ai.RoleAssistant {
			role = anthropic.MessageParamRoleAssistant
		}
		out = append(out, anthropic.MessageParam{
			Role: role,
			Content: []anthropic.ContentBlockParamUnion{{
				OfText: &anthropic.TextBlockParam{Text: m.Content},
			}},
		})
	}
	return out
}

func classify(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return ai.FromStatus(ai.KindAnthropic, apiErr.StatusCode, apiErr.Error(), fmt.Errorf("messages.new: %w", err))
	}
	return ai.Classify(ai.KindAnthropic, err)
}
