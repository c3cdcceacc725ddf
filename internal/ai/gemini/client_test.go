package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/talentscout/internal/ai"
)

type fakeChatCreator struct {
	mu    sync.Mutex
	calls []chatCallRecord
	queue map[string][]fakeChatResponse
}

type chatCallRecord struct {
	model   string
	config  *genai.GenerateContentConfig
	history []*genai.Content
	chat    *fakeChat
}

type fakeChatResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

type fakeChat struct {
	mu       sync.Mutex
	response fakeChatResponse
	messages []string
}

func (f *fakeChat) SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, part := range parts {
		f.messages = append(f.messages, part.Text)
	}
	return f.response.resp, f.response.err
}

func newFakeChatCreator() *fakeChatCreator {
	return &fakeChatCreator{queue: make(map[string][]fakeChatResponse)}
}

func (f *fakeChatCreator) enqueue(model string, resp *genai.GenerateContentResponse, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue[model] = append(f.queue[model], fakeChatResponse{resp: resp, err: err})
}

func (f *fakeChatCreator) Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	responses := f.queue[model]
	if len(responses) == 0 {
		return nil, errors.New("unexpected call")
	}
	res := responses[0]
	f.queue[model] = responses[1:]
	chat := &fakeChat{response: res}
	f.calls = append(f.calls, chatCallRecord{model: model, config: config, history: history, chat: chat})
	return chat, nil
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func newTestGenerator(chats chatCreator) *Generator {
	return &Generator{chats: chats, model: "gemini-pro", logger: zap.NewNop()}
}

func TestChatSendsSystemInstructionAndHistory(t *testing.T) {
	chats := newFakeChatCreator()
	chats.enqueue("gemini-pro", textResponse(`{"questions": []}`), nil)

	g := newTestGenerator(chats)

	out, err := g.Chat(context.Background(), []ai.Message{
		{Role: ai.RoleSystem, Content: "system"},
		{Role: ai.RoleUser, Content: "example request"},
		{Role: ai.RoleAssistant, Content: "example reply"},
		{Role: ai.RoleUser, Content: "message"},
	}, ai.Params{Temperature: 0.2})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != `{"questions": []}` {
		t.Fatalf("unexpected output: %q", out)
	}

	if len(chats.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(chats.calls))
	}
	call := chats.calls[0]

	if call.config == nil || call.config.SystemInstruction == nil {
		t.Fatalf("expected system instruction to be set")
	}
	if got := call.config.SystemInstruction.Parts[0].Text; got != "system" {
		t.Fatalf("unexpected system instruction: %q", got)
	}
	if call.config.Temperature == nil || *call.config.Temperature != float32(0.2) {
		t.Fatalf("unexpected temperature: %v", call.config.Temperature)
	}

	if len(call.history) != 2 || call.history[1].Role != genai.RoleModel {
		t.Fatalf("unexpected history: %+v", call.history)
	}
	if len(call.chat.messages) != 1 || call.chat.messages[0] != "message" {
		t.Fatalf("unexpected chat message: %+v", call.chat.messages)
	}
}

func TestChatUsesModelOverride(t *testing.T) {
	chats := newFakeChatCreator()
	chats.enqueue("gemini-flash", textResponse("ok"), nil)

	if _, err := newTestGenerator(chats).Chat(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "hi"}}, ai.Params{Model: "gemini-flash"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestChatClassifiesErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{
			name: "temporary",
			err:  genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"},
			kind: ai.ErrAPI,
		},
		{
			name: "quota",
			err: genai.APIError{
				Code:    http.StatusTooManyRequests,
				Status:  "RESOURCE_EXHAUSTED",
				Message: "quota exhausted, retry after 60 seconds",
			},
			kind: ai.ErrQuotaExhausted,
		},
		{
			name: "rate limited",
			err:  genai.APIError{Code: http.StatusTooManyRequests, Status: "RESOURCE_EXHAUSTED", Message: "too many requests"},
			kind: ai.ErrRateLimited,
		},
		{
			name: "bad key",
			err:  genai.APIError{Code: http.StatusForbidden, Status: "PERMISSION_DENIED"},
			kind: ai.ErrUnconfigured,
		},
		{
			name: "deadline",
			err:  context.DeadlineExceeded,
			kind: ai.ErrTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chats := newFakeChatCreator()
			chats.enqueue("gemini-pro", nil, tt.err)

			_, err := newTestGenerator(chats).Chat(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "msg"}}, ai.Params{})
			if !errors.Is(err, tt.kind) {
				t.Fatalf("expected %v, got %v", tt.kind, err)
			}
		})
	}
}

func TestChatRejectsEmptyReplyAndInput(t *testing.T) {
	chats := newFakeChatCreator()
	chats.enqueue("gemini-pro", textResponse("   "), nil)

	g := newTestGenerator(chats)
	if _, err := g.Chat(context.Background(), []ai.Message{{Role: ai.RoleUser, Content: "msg"}}, ai.Params{}); !errors.Is(err, ai.ErrAPI) {
		t.Fatalf("expected api error for empty reply, got %v", err)
	}

	if _, err := g.Chat(context.Background(), []ai.Message{{Role: ai.RoleSystem, Content: "only system"}}, ai.Params{}); !errors.Is(err, ai.ErrBadRequest) {
		t.Fatalf("expected bad request for missing user turn, got %v", err)
	}

	var nilGen *Generator
	if _, err := nilGen.Chat(context.Background(), nil, ai.Params{}); !errors.Is(err, ai.ErrUnconfigured) {
		t.Fatalf("expected unconfigured for nil generator, got %v", err)
	}
}

func TestNewGeneratorRequiresKey(t *testing.T) {
	if _, err := NewGenerator(context.Background(), "  ", "", nil); err == nil {
		t.Fatalf("expected error for empty api key")
	}
}
