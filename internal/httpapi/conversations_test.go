package httpapi

import (
	"net/http"
	"testing"

	"github.com/kitbuilder587/databot/internal/domain"
	"github.com/kitbuilder587/databot/internal/llm"
	"github.com/kitbuilder587/databot/internal/service"
)

func TestConversations_RequireUser(t *testing.T) {
	env := newTestEnv(t, nil)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/conversations"},
		{http.MethodPost, "/api/conversations"},
		{http.MethodGet, "/api/conversations/abc"},
		{http.MethodDelete, "/api/conversations/abc"},
		{http.MethodPost, "/api/conversations/abc/messages"},
	}

	for _, p := range paths {
		w := env.do(t, p.method, p.path, nil, "")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: status = %d, want 401", p.method, p.path, w.Code)
		}
	}
}

func TestConversations_CRUD(t *testing.T) {
	env := newTestEnv(t, nil)

	// create
	w := env.do(t, http.MethodPost, "/api/conversations", createConversationRequest{Title: "Markets", AIPersonality: "expert"}, "alice")
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", w.Code, w.Body.String())
	}
	conv := decode[domain.Conversation](t, w)
	if conv.ID == "" || conv.Title != "Markets" || conv.AIPersonality != "expert" {
		t.Fatalf("unexpected conversation: %+v", conv)
	}

	// title is required
	w = env.do(t, http.MethodPost, "/api/conversations", createConversationRequest{}, "alice")
	if w.Code != http.StatusBadRequest {
		t.Errorf("create without title: status = %d", w.Code)
	}

	// list
	w = env.do(t, http.MethodGet, "/api/conversations", nil, "alice")
	list := decode[struct {
		Conversations []domain.Conversation `json:"conversations"`
	}](t, w)
	if len(list.Conversations) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(list.Conversations))
	}

	// другой пользователь не видит чужой диалог
	w = env.do(t, http.MethodGet, "/api/conversations/"+conv.ID, nil, "bob")
	if w.Code != http.StatusNotFound {
		t.Errorf("foreign get: status = %d", w.Code)
	}

	// update
	title := "Stocks"
	w = env.do(t, http.MethodPatch, "/api/conversations/"+conv.ID, domain.ConversationUpdate{Title: &title}, "alice")
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d", w.Code)
	}
	if got := decode[domain.Conversation](t, w); got.Title != "Stocks" || got.AIPersonality != "expert" {
		t.Errorf("unexpected update result: %+v", got)
	}

	blank := ""
	w = env.do(t, http.MethodPut, "/api/conversations/"+conv.ID, domain.ConversationUpdate{Title: &blank}, "alice")
	if w.Code != http.StatusBadRequest {
		t.Errorf("blank title update: status = %d", w.Code)
	}

	w = env.do(t, http.MethodPatch, "/api/conversations/"+conv.ID, domain.ConversationUpdate{Title: &title}, "bob")
	if w.Code != http.StatusNotFound {
		t.Errorf("foreign update: status = %d", w.Code)
	}
	if got := errorText(t, w); got != "Conversation not found or access denied" {
		t.Errorf("error = %q", got)
	}

	// delete
	w = env.do(t, http.MethodDelete, "/api/conversations/"+conv.ID, nil, "alice")
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}
	w = env.do(t, http.MethodGet, "/api/conversations/"+conv.ID, nil, "alice")
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete: status = %d", w.Code)
	}
}

func TestConversations_Messages(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/api/conversations", createConversationRequest{Title: domain.DefaultTitle}, "alice")
	conv := decode[domain.Conversation](t, w)
	path := "/api/conversations/" + conv.ID + "/messages"

	w = env.do(t, http.MethodPost, path, addMessageRequest{Role: domain.RoleUser, Content: "How is the weather?"}, "alice")
	if w.Code != http.StatusCreated {
		t.Fatalf("add status = %d: %s", w.Code, w.Body.String())
	}
	msg := decode[domain.Message](t, w)
	if msg.ID == "" || msg.ConversationID != conv.ID {
		t.Errorf("unexpected message: %+v", msg)
	}

	tests := []struct {
		name string
		body addMessageRequest
		want int
	}{
		{name: "missing content", body: addMessageRequest{Role: domain.RoleUser}, want: http.StatusBadRequest},
		{name: "missing role", body: addMessageRequest{Content: "x"}, want: http.StatusBadRequest},
		{name: "bad role", body: addMessageRequest{Role: "robot", Content: "x"}, want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := env.do(t, http.MethodPost, path, tt.body, "alice"); w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}

	if w := env.do(t, http.MethodPost, path, addMessageRequest{Role: domain.RoleUser, Content: "x"}, "bob"); w.Code != http.StatusNotFound {
		t.Errorf("foreign add: status = %d", w.Code)
	}

	// заголовок сгенерирован из первого сообщения, сообщения видны в диалоге
	w = env.do(t, http.MethodGet, "/api/conversations/"+conv.ID, nil, "alice")
	got := decode[domain.Conversation](t, w)
	if got.Title != "How is the weather?" {
		t.Errorf("title = %q", got.Title)
	}
	if len(got.Messages) != 1 {
		t.Errorf("expected 1 message, got %d", len(got.Messages))
	}

	w = env.do(t, http.MethodGet, path, nil, "alice")
	msgs := decode[struct {
		Messages []domain.Message `json:"messages"`
	}](t, w)
	if len(msgs.Messages) != 1 {
		t.Errorf("expected 1 message, got %d", len(msgs.Messages))
	}
}

func TestConversations_ChatPersists(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodPost, "/api/conversations", createConversationRequest{Title: "Daily"}, "alice")
	conv := decode[domain.Conversation](t, w)

	w = env.do(t, http.MethodPost, "/api/chat", chatRequest{
		ConversationID: conv.ID,
		Messages:       []llm.Message{{Role: llm.RoleUser, Content: "stock AAPL"}},
	}, "alice")
	if w.Code != http.StatusOK {
		t.Fatalf("chat status = %d: %s", w.Code, w.Body.String())
	}
	out := decode[service.ChatOutput](t, w)
	if out.ConversationID != conv.ID {
		t.Errorf("conversation id = %q", out.ConversationID)
	}

	w = env.do(t, http.MethodGet, "/api/conversations/"+conv.ID, nil, "alice")
	got := decode[domain.Conversation](t, w)
	if len(got.Messages) != 2 {
		t.Fatalf("expected user and assistant messages, got %d", len(got.Messages))
	}
	if got.Messages[1].Content != out.Reply {
		t.Errorf("stored reply = %q, want %q", got.Messages[1].Content, out.Reply)
	}
}

func TestConversations_DeleteAll(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, title := range []string{"a", "b"} {
		env.do(t, http.MethodPost, "/api/conversations", createConversationRequest{Title: title}, "alice")
	}
	env.do(t, http.MethodPost, "/api/conversations", createConversationRequest{Title: "c"}, "bob")

	w := env.do(t, http.MethodDelete, "/api/conversations", nil, "alice")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := decode[map[string]int](t, w)["deleted"]; got != 2 {
		t.Errorf("deleted = %d, want 2", got)
	}

	w = env.do(t, http.MethodGet, "/api/conversations", nil, "bob")
	list := decode[struct {
		Conversations []domain.Conversation `json:"conversations"`
	}](t, w)
	if len(list.Conversations) != 1 {
		t.Errorf("bob must keep his conversation, got %d", len(list.Conversations))
	}
}
