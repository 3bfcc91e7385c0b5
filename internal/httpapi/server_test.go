package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kitbuilder587/databot/internal/domain"
	"github.com/kitbuilder587/databot/internal/llm"
	llmMock "github.com/kitbuilder587/databot/internal/llm/mock"
	"github.com/kitbuilder587/databot/internal/provider"
	providerMock "github.com/kitbuilder587/databot/internal/provider/mock"
	"github.com/kitbuilder587/databot/internal/ratelimit"
	"github.com/kitbuilder587/databot/internal/repository"
	"github.com/kitbuilder587/databot/internal/router"
	"github.com/kitbuilder587/databot/internal/service"
)

type testEnv struct {
	server    *Server
	providers *providerMock.Provider
	llm       *llmMock.Client
}

func newTestEnv(t *testing.T, limiter *ratelimit.Limiter) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	p := providerMock.New()
	set := p.Set()
	r := router.New(router.Deps{Providers: set, AdapterTimeout: time.Second})
	llmClient := llmMock.New().WithResponse("Sure.")
	convs := service.NewConversationService(repository.NewMemoryConversationRepository(), zap.NewNop())

	srv := New(Config{Addr: ":0"}, Deps{
		Search:        service.NewSearchService(service.SearchServiceDeps{Router: r, Providers: set}),
		Chat:          service.NewChatService(service.ChatServiceDeps{Router: r, LLM: llmClient, Conversations: convs}),
		Conversations: convs,
		Limiter:       limiter,
		Logger:        zap.NewNop(),
		Sources:       r.Enabled(),
		LLMEnabled:    true,
	})

	return &testEnv{server: srv, providers: p, llm: llmClient}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, user string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set(userIDHeader, user)
	}

	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func errorText(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, w)["error"]
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/healthz", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	body := decode[struct {
		Status  string          `json:"status"`
		Sources map[string]bool `json:"sources"`
		LLM     bool            `json:"llm"`
	}](t, w)
	if body.Status != "ok" || !body.LLM {
		t.Errorf("unexpected body: %+v", body)
	}
	for _, topic := range domain.Topics() {
		if !body.Sources[string(topic)] {
			t.Errorf("source %s must be reported enabled", topic)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/metrics", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestSearch(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		wantStatus  int
		wantType    string
		wantContain string
	}{
		{name: "json", path: "/api/search?q=weather+in+Paris", wantStatus: http.StatusOK, wantType: "application/json", wantContain: `**Weather in Paris**`},
		{name: "text", path: "/api/search?q=weather+in+Paris&format=text", wantStatus: http.StatusOK, wantType: "text/plain", wantContain: "**Weather in Paris**"},
		{name: "html", path: "/api/search?q=weather+in+Paris&format=html", wantStatus: http.StatusOK, wantType: "text/html", wantContain: "<strong>Weather in Paris</strong>"},
		{name: "missing q", path: "/api/search", wantStatus: http.StatusBadRequest, wantContain: "Query parameter (q) is required"},
		{name: "bad format", path: "/api/search?q=x&format=xml", wantStatus: http.StatusBadRequest},
		{name: "too long", path: "/api/search?q=" + strings.Repeat("a", domain.MaxQueryLength+1), wantStatus: http.StatusBadRequest, wantContain: domain.ErrQueryTooLong.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)

			w := env.do(t, http.MethodGet, tt.path, nil, "")
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantType != "" && !strings.HasPrefix(w.Header().Get("Content-Type"), tt.wantType) {
				t.Errorf("content type = %q, want %q", w.Header().Get("Content-Type"), tt.wantType)
			}
			if !strings.Contains(w.Body.String(), tt.wantContain) {
				t.Errorf("body %q does not contain %q", w.Body.String(), tt.wantContain)
			}
		})
	}
}

func TestSearch_NothingDetected(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/api/search?q=tell+me+a+joke", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decode[domain.QueryResponse](t, w)
	if body.Formatted != "" {
		t.Errorf("formatted = %q, want empty", body.Formatted)
	}
	if body.Query != "tell me a joke" {
		t.Errorf("query = %q", body.Query)
	}
}

func TestDirectLookups(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		topic      domain.Topic
		provErr    error
		wantStatus int
		wantError  string
	}{
		{name: "weather ok", path: "/api/weather?location=Berlin", wantStatus: http.StatusOK},
		{name: "weather missing", path: "/api/weather", wantStatus: http.StatusBadRequest, wantError: "Location parameter is required"},
		{name: "weather not found", path: "/api/weather?location=Atlantis", topic: domain.TopicWeather, provErr: provider.ErrNotFound, wantStatus: http.StatusNotFound, wantError: "Weather data not available for this location"},
		{name: "weather unconfigured", path: "/api/weather?location=Berlin", topic: domain.TopicWeather, provErr: provider.ErrNotConfigured, wantStatus: http.StatusServiceUnavailable},
		{name: "weather upstream", path: "/api/weather?location=Berlin", topic: domain.TopicWeather, provErr: provider.ErrUpstream, wantStatus: http.StatusBadGateway},
		{name: "exchange ok", path: "/api/exchange?from=usd&to=eur", wantStatus: http.StatusOK},
		{name: "exchange missing", path: "/api/exchange?to=EUR", wantStatus: http.StatusBadRequest, wantError: "From currency parameter is required"},
		{name: "exchange not found", path: "/api/exchange?from=XXX", topic: domain.TopicCurrency, provErr: provider.ErrInvalidRequest, wantStatus: http.StatusNotFound},
		{name: "stock ok", path: "/api/stock?symbol=msft", wantStatus: http.StatusOK},
		{name: "stock missing", path: "/api/stock", wantStatus: http.StatusBadRequest, wantError: "Symbol parameter is required"},
		{name: "stock no data", path: "/api/stock?symbol=ZZZZ", topic: domain.TopicStock, provErr: provider.ErrNoData, wantStatus: http.StatusNotFound},
		{name: "news bad limit", path: "/api/news?limit=abc", wantStatus: http.StatusBadRequest},
		{name: "news upstream", path: "/api/news", topic: domain.TopicNews, provErr: provider.ErrUpstream, wantStatus: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			if tt.provErr != nil {
				env.providers.WithError(tt.topic, tt.provErr)
			}

			w := env.do(t, http.MethodGet, tt.path, nil, "")
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantError != "" {
				if got := errorText(t, w); got != tt.wantError {
					t.Errorf("error = %q, want %q", got, tt.wantError)
				}
			}
		})
	}
}

func TestNewsAndCryptoShapes(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/api/news?topic=chips&limit=3", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("news status = %d", w.Code)
	}
	news := decode[struct {
		Topic    string               `json:"topic"`
		Count    int                  `json:"count"`
		Articles []domain.NewsArticle `json:"articles"`
	}](t, w)
	if news.Topic != "chips" || news.Count != len(news.Articles) || news.Count == 0 {
		t.Errorf("unexpected news body: %+v", news)
	}

	w = env.do(t, http.MethodGet, "/api/crypto?coins=bitcoin,ethereum", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("crypto status = %d", w.Code)
	}
	crypto := decode[struct {
		Count  int                 `json:"count"`
		Prices []domain.CryptoData `json:"cryptocurrencies"`
	}](t, w)
	if crypto.Count != 2 || crypto.Prices[0].ID != "bitcoin" {
		t.Errorf("unexpected crypto body: %+v", crypto)
	}

	// неизвестная монета - пустой список, а не ошибка
	w = env.do(t, http.MethodGet, "/api/crypto?coins=nocoin", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("crypto status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"cryptocurrencies":[]`) {
		t.Errorf("expected empty list, got %s", w.Body.String())
	}
}

func TestModels(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/api/models", nil, "")
	body := decode[struct {
		Models  []llm.Model `json:"models"`
		Default string      `json:"default"`
	}](t, w)

	if body.Default != llm.DefaultModel {
		t.Errorf("default = %q", body.Default)
	}
	if len(body.Models) != len(llm.AvailableModels()) {
		t.Errorf("got %d models", len(body.Models))
	}
}

func TestRateLimit(t *testing.T) {
	limiter := ratelimit.New(ratelimit.Config{RequestsPerMinute: 2})
	defer limiter.Stop()
	env := newTestEnv(t, limiter)

	for i, wantRemaining := range []string{"1", "0"} {
		w := env.do(t, http.MethodGet, "/api/models", nil, "alice")
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, w.Code)
		}
		if got := w.Header().Get("X-RateLimit-Remaining"); got != wantRemaining {
			t.Errorf("request %d: X-RateLimit-Remaining = %q, want %q", i, got, wantRemaining)
		}
	}

	w := env.do(t, http.MethodGet, "/api/models", nil, "alice")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}

	if w := env.do(t, http.MethodGet, "/api/models", nil, "bob"); w.Code != http.StatusOK {
		t.Errorf("other user must not be limited, got %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/healthz", nil, "alice"); w.Code != http.StatusOK {
		t.Errorf("healthz must bypass the limiter, got %d", w.Code)
	}
}
