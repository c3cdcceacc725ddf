package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/talentscout/internal/ai"
	"github.com/spigell/talentscout/internal/logger"
	"github.com/spigell/talentscout/internal/utils"
)

const (
	defaultModel = "gemini-2.5-flash"
	maxLogLen    = 200
)

type chatSession interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type chatCreator interface {
	Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error)
}

type genaiChats struct {
	client *genai.Client
}

func (c genaiChats) Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
	return c.client.Chats.Create(ctx, model, config, history)
}

// Generator is the Gemini chat backend.
type Generator struct {
	chats  chatCreator
	model  string
	logger *zap.Logger
}

// NewGenerator creates a Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey, model string, log *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	return &Generator{
		chats:  genaiChats{client: client},
		model:  model,
		logger: logger.WithBackend(log, ai.KindGemini, model),
	}, nil
}

func (g *Generator) Name() string { return ai.KindGemini }

func (g *Generator) CanGrade() bool { return true }

// Model returns the default model used when Params.Model is empty.
func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

// Chat replays all but the last message as history and sends the last one.
// System messages become the system instruction.
func (g *Generator) Chat(ctx context.Context, messages []ai.Message, params ai.Params) (string, error) {
	if g == nil || g.chats == nil {
		return "", &ai.Error{Kind: ai.ErrUnconfigured, Provider: ai.KindGemini}
	}

	system, turns := ai.SplitSystem(messages)
	if len(turns) == 0 || strings.TrimSpace(turns[len(turns)-1].Content) == "" {
		return "", &ai.Error{Kind: ai.ErrBadRequest, Provider: ai.KindGemini, Err: errors.New("message must not be empty")}
	}

	model := g.model
	if m := strings.TrimSpace(params.Model); m != "" {
		model = m
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(params.Temperature)),
	}
	if params.MaxTokens > 0 {
		config.MaxOutputTokens = int32(params.MaxTokens)
	}
	if system != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}

	last := turns[len(turns)-1]
	history := toHistory(turns[:len(turns)-1])

	chat, err := g.chats.Create(ctx, model, config, history)
	if err != nil {
		return "", classify(fmt.Errorf("create chat: %w", err))
	}

	g.logger.Debug("sending gemini message",
		zap.Int("history", len(history)),
		zap.String("prompt_preview", utils.TruncateForLog(last.Content, maxLogLen)),
	)

	resp, err := chat.SendMessage(ctx, genai.Part{Text: last.Content})
	if err != nil {
		return "", classify(fmt.Errorf("send message: %w", err))
	}

	output := responseText(resp)
	if output == "" {
		return "", &ai.Error{Kind: ai.ErrAPI, Provider: ai.KindGemini, Err: errors.New("gemini api returned empty response")}
	}

	return output, nil
}

func toHistory(messages []ai.Message) []*genai.Content {
	history := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := genai.RoleUser
		if m.Role == ai.RoleAssistant {
			role = genai.RoleModel
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}
	return history
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String())
}

func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return ai.FromStatus(ai.KindGemini, apiErr.Code, apiErr.Status+": "+apiErr.Message, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return ai.FromStatus(ai.KindGemini, apiErrPtr.Code, apiErrPtr.Status+": "+apiErrPtr.Message, err)
	}
	return ai.Classify(ai.KindGemini, err)
}
