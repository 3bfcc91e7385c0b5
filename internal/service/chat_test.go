package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/databot/internal/domain"
	"github.com/kitbuilder587/databot/internal/llm"
	llmMock "github.com/kitbuilder587/databot/internal/llm/mock"
	providerMock "github.com/kitbuilder587/databot/internal/provider/mock"
	"github.com/kitbuilder587/databot/internal/repository"
	"github.com/kitbuilder587/databot/internal/router"
)

type chatFixture struct {
	svc           *ChatService
	llm           *llmMock.Client
	providers     *providerMock.Provider
	conversations *ConversationService
}

func newChatFixture(client llm.Client) *chatFixture {
	p := providerMock.New()
	convs := NewConversationService(repository.NewMemoryConversationRepository(), zap.NewNop())
	r := router.New(router.Deps{Providers: p.Set(), AdapterTimeout: time.Second})

	f := &chatFixture{providers: p, conversations: convs}
	if m, ok := client.(*llmMock.Client); ok {
		f.llm = m
	}
	f.svc = NewChatService(ChatServiceDeps{
		Router:        r,
		LLM:           client,
		Conversations: convs,
		Logger:        zap.NewNop(),
	})
	return f
}

func userMsg(text string) []llm.Message {
	return []llm.Message{{Role: llm.RoleUser, Content: text}}
}

func TestChatService_Reply_WithLiveData(t *testing.T) {
	f := newChatFixture(llmMock.New().WithResponse("Take an umbrella."))

	out, err := f.svc.Reply(context.Background(), ChatInput{
		UserID:   "u1",
		Messages: userMsg("What's the weather in Paris?"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(out.Reply, "Take an umbrella.\n\n") {
		t.Errorf("reply must start with the model answer, got %q", out.Reply)
	}
	if !strings.Contains(out.LiveData, "Weather in Paris") {
		t.Errorf("live data = %q", out.LiveData)
	}
	if !strings.HasSuffix(out.Reply, out.LiveData) {
		t.Error("reply must end with the live data block")
	}
	if out.Model != llm.DefaultModel {
		t.Errorf("model = %q, want default", out.Model)
	}

	req := f.llm.LastRequest()
	if !strings.Contains(req.System, "Weather in Paris") {
		t.Error("live data must be passed to the model as system context")
	}
	if !strings.HasPrefix(req.System, llm.DefaultSystemPrompt) {
		t.Error("system prompt must start with the default prompt")
	}
	if req.Temperature != llm.DefaultTemperature {
		t.Errorf("temperature = %v", req.Temperature)
	}
}

func TestChatService_Reply_NoLiveData(t *testing.T) {
	f := newChatFixture(llmMock.New().WithResponse("Hello!"))

	out, err := f.svc.Reply(context.Background(), ChatInput{UserID: "u1", Messages: userMsg("hi there")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Reply != "Hello!" {
		t.Errorf("reply = %q", out.Reply)
	}
	if out.LiveData != "" {
		t.Errorf("expected no live data, got %q", out.LiveData)
	}
}

func TestChatService_Reply_Degrades(t *testing.T) {
	tests := []struct {
		name     string
		client   llm.Client
		query    string
		wantErr  error
		degraded bool
	}{
		{name: "llm error with data", client: llmMock.New().WithError(llm.ErrRateLimit), query: "bitcoin price", degraded: true},
		{name: "no llm with data", client: nil, query: "bitcoin price", degraded: true},
		{name: "llm error without data", client: llmMock.New().WithError(llm.ErrAuthFailed), query: "hello", wantErr: domain.ErrChatFailed},
		{name: "no llm without data", client: nil, query: "hello", wantErr: domain.ErrChatFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newChatFixture(tt.client)

			out, err := f.svc.Reply(context.Background(), ChatInput{UserID: "u1", Messages: userMsg(tt.query)})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out.Degraded != tt.degraded {
				t.Errorf("degraded = %v, want %v", out.Degraded, tt.degraded)
			}
			if out.Reply != out.LiveData {
				t.Errorf("degraded reply must be the data block, got %q", out.Reply)
			}
		})
	}
}

func TestChatService_Reply_Validation(t *testing.T) {
	tests := []struct {
		name    string
		input   ChatInput
		wantErr error
	}{
		{name: "unknown model", input: ChatInput{Model: "acme/gpt-9", Messages: userMsg("hi")}, wantErr: domain.ErrUnknownModel},
		{name: "no messages", input: ChatInput{}, wantErr: domain.ErrNoMessages},
		{
			name:    "last message from assistant",
			input:   ChatInput{Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}, {Role: llm.RoleAssistant, Content: "hello"}}},
			wantErr: domain.ErrNoUserText,
		},
		{name: "blank user message", input: ChatInput{Messages: userMsg("  ")}, wantErr: domain.ErrNoUserText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newChatFixture(llmMock.New())

			_, err := f.svc.Reply(context.Background(), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if f.llm.CallCount() != 0 {
				t.Error("model must not be called on invalid input")
			}
		})
	}
}

func TestChatService_Reply_SelectedModel(t *testing.T) {
	f := newChatFixture(llmMock.New())
	model := llm.AvailableModels()[1].ID

	out, err := f.svc.Reply(context.Background(), ChatInput{Model: model, Messages: userMsg("hi")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Model != model || f.llm.LastRequest().Model != model {
		t.Errorf("model not passed through: out=%q req=%q", out.Model, f.llm.LastRequest().Model)
	}
}

func TestChatService_Reply_PersistsConversation(t *testing.T) {
	f := newChatFixture(llmMock.New().WithResponse("It is sunny."))
	ctx := context.Background()

	conv, err := f.conversations.Create(ctx, CreateConversationInput{
		UserID:        "u1",
		Title:         domain.DefaultTitle,
		AIPersonality: "expert",
		CustomPrompt:  "Always mention the source.",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := f.svc.Reply(ctx, ChatInput{UserID: "u1", ConversationID: conv.ID, Messages: userMsg("first question")}); err != nil {
		t.Fatalf("first Reply: %v", err)
	}
	out, err := f.svc.Reply(ctx, ChatInput{UserID: "u1", ConversationID: conv.ID, Messages: userMsg("weather in Paris")})
	if err != nil {
		t.Fatalf("second Reply: %v", err)
	}
	if out.ConversationID != conv.ID {
		t.Errorf("conversation id = %q", out.ConversationID)
	}

	req := f.llm.LastRequest()
	if len(req.Messages) != 3 {
		t.Fatalf("expected history of 3 messages, got %d: %+v", len(req.Messages), req.Messages)
	}
	if req.Messages[0].Content != "first question" || req.Messages[2].Content != "weather in Paris" {
		t.Errorf("unexpected history: %+v", req.Messages)
	}
	if !strings.Contains(req.System, personalityPrompts["expert"]) {
		t.Error("personality prompt missing from system")
	}
	if !strings.Contains(req.System, "Always mention the source.") {
		t.Error("custom prompt missing from system")
	}

	stored, err := f.conversations.Get(ctx, "u1", conv.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(stored.Messages) != 4 {
		t.Fatalf("expected 4 stored messages, got %d", len(stored.Messages))
	}
	if stored.Messages[3].Role != domain.RoleAssistant || stored.Messages[3].Content != out.Reply {
		t.Errorf("assistant reply not stored: %+v", stored.Messages[3])
	}
	if stored.Title != "first question" {
		t.Errorf("title = %q, want generated from first message", stored.Title)
	}
}

func TestChatService_Reply_ForeignConversation(t *testing.T) {
	f := newChatFixture(llmMock.New())
	ctx := context.Background()

	conv, _ := f.conversations.Create(ctx, CreateConversationInput{UserID: "alice", Title: "mine"})

	_, err := f.svc.Reply(ctx, ChatInput{UserID: "bob", ConversationID: conv.ID, Messages: userMsg("hi")})
	if !errors.Is(err, domain.ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound, got %v", err)
	}
	if f.llm.CallCount() != 0 {
		t.Error("model must not be called for a foreign conversation")
	}
}

func TestChatService_Reply_FailedTurnIsNotStored(t *testing.T) {
	f := newChatFixture(llmMock.New().WithError(llm.ErrAuthFailed))
	ctx := context.Background()

	conv, err := f.conversations.Create(ctx, CreateConversationInput{UserID: "u1", Title: domain.DefaultTitle})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = f.svc.Reply(ctx, ChatInput{UserID: "u1", ConversationID: conv.ID, Messages: userMsg("tell me a joke")})
	if !errors.Is(err, domain.ErrChatFailed) {
		t.Fatalf("expected ErrChatFailed, got %v", err)
	}

	stored, err := f.conversations.Get(ctx, "u1", conv.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(stored.Messages) != 0 {
		t.Fatalf("failed turn must not be stored, got %+v", stored.Messages)
	}
	if stored.Title != domain.DefaultTitle {
		t.Errorf("title = %q, must stay untouched", stored.Title)
	}

	// повтор после восстановления модели: вопрос в истории ровно один раз
	f.llm.WithError(nil).WithResponse("Why did the gopher cross the road?")
	if _, err := f.svc.Reply(ctx, ChatInput{UserID: "u1", ConversationID: conv.ID, Messages: userMsg("tell me a joke")}); err != nil {
		t.Fatalf("retry Reply: %v", err)
	}

	req := f.llm.LastRequest()
	if len(req.Messages) != 1 || req.Messages[0].Content != "tell me a joke" {
		t.Errorf("history sent to the model = %+v, want the question once", req.Messages)
	}

	stored, err = f.conversations.Get(ctx, "u1", conv.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(stored.Messages) != 2 {
		t.Fatalf("expected user and assistant messages, got %d", len(stored.Messages))
	}
	if stored.Messages[0].Role != domain.RoleUser || stored.Messages[1].Role != domain.RoleAssistant {
		t.Errorf("unexpected order: %+v", stored.Messages)
	}
}
